package kafka

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Consumer runs one fetcher plus a small worker pool per registered topic.
// Failed handlers are retried with jittered backoff; a message that exhausts
// its retries is parked on the dead-letter topic (when configured) so the
// offset can advance past it.
type Consumer struct {
	cfg      *ConsumerConfig
	handlers map[string]MessageHandler
	readers  map[string]*kafka.Reader
	dlq      *kafka.Writer
	hook     ConsumerHook

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewConsumer builds a consumer from options. Brokers are required.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "crashlens",
		WorkerCount: 1,
		BufferSize:  16,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:      cfg,
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]*kafka.Reader),
		hook:     NoopHook{},
		stopChan: make(chan struct{}),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}

	consumerMetricsOnce.Do(registerConsumerMetrics)
	return c, nil
}

// RegisterHandler binds a handler to its topic. The last registration for a
// topic wins.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	c.handlers[handler.Topic()] = handler
}

// WithConsumerHook installs a lifecycle hook around message handling.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start opens a reader per registered topic and launches its worker pool.
func (c *Consumer) Start() error {
	for topic, handler := range c.handlers {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
		c.readers[topic] = reader

		messages := make(chan kafka.Message, c.cfg.BufferSize)
		c.wg.Add(1)
		go c.fetchLoop(reader, messages)
		for i := 0; i < c.cfg.WorkerCount; i++ {
			c.wg.Add(1)
			go c.handleLoop(reader, handler, messages)
		}
		log.Printf("kafka consumer: topic=%s workers=%d", topic, c.cfg.WorkerCount)
	}
	return nil
}

// Stop drains the consumer, bounded by ctx.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		close(c.stopChan)

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-ctx.Done():
			stopErr = fmt.Errorf("waiting for consumer to stop: %w", ctx.Err())
		case <-done:
		}

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				log.Printf("kafka consumer: close reader topic=%s: %v", topic, err)
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				log.Printf("kafka consumer: close dlq writer: %v", err)
			}
		}
	})
	return stopErr
}

// fetchLoop feeds uncommitted messages to the topic's workers. Offsets are
// committed by the worker once the message is handled or parked.
func (c *Consumer) fetchLoop(reader *kafka.Reader, messages chan<- kafka.Message) {
	defer c.wg.Done()
	defer close(messages)

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := reader.FetchMessage(ctx)
		cancel()
		if err != nil {
			select {
			case <-c.stopChan:
				return
			default:
				continue
			}
		}

		select {
		case messages <- msg:
		case <-c.stopChan:
			return
		}
	}
}

func (c *Consumer) handleLoop(reader *kafka.Reader, handler MessageHandler, messages <-chan kafka.Message) {
	defer c.wg.Done()

	for msg := range messages {
		start := time.Now()
		err := c.handleWithRetry(handler, msg)
		if err != nil {
			log.Printf("kafka consumer: topic=%s giving up: %v", msg.Topic, err)
			if !c.parkMessage(handler.Topic(), msg) {
				// No DLQ: skip the commit so the message is redelivered.
				continue
			}
		}
		c.commit(reader, msg)
		consumerHandleLatency.WithLabelValues(handler.Topic()).Observe(time.Since(start).Seconds())
	}
}

func (c *Consumer) handleWithRetry(handler MessageHandler, msg kafka.Message) error {
	var err error
	for attempt := 1; attempt <= c.cfg.RetryMax+1; attempt++ {
		err = func() (herr error) {
			defer func() {
				if r := recover(); r != nil {
					herr = fmt.Errorf("handler panic: %v", r)
				}
			}()
			ctx, km, data, berr := c.hook.BeforeHandle(context.Background(), msg.Topic, msg, msg.Value)
			if berr != nil {
				return berr
			}
			herr = handler.Handle(ctx, data)
			c.hook.AfterHandle(ctx, msg.Topic, km, data, herr)
			return herr
		}()
		if err == nil {
			return nil
		}
		c.hook.OnError(context.Background(), msg.Topic, msg, msg.Value, err)
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.stopChan:
			return err
		}
	}
	return err
}

// parkMessage writes a poisoned message to the dead-letter topic. Returns
// false when no DLQ is configured or the write failed.
func (c *Consumer) parkMessage(sourceTopic string, msg kafka.Message) bool {
	if c.dlq == nil {
		return false
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Key:     msg.Key,
		Value:   msg.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(sourceTopic)}},
	})
	if err != nil {
		log.Printf("kafka consumer: dlq write topic=%s: %v", c.cfg.DLQTopic, err)
		return false
	}
	return true
}

func (c *Consumer) commit(reader *kafka.Reader, msg kafka.Message) {
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := reader.CommitMessages(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		if attempt == 3 {
			log.Printf("kafka consumer: commit topic=%s: %v", msg.Topic, err)
			return
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	sleep := min * time.Duration(1<<uint(attempt-1))
	if sleep > max {
		sleep = max
	}
	return sleep - time.Duration(rand.Int63n(int64(sleep)/2))
}

var (
	consumerMetricsOnce   sync.Once
	consumerHandleLatency *prometheus.HistogramVec
)

func registerConsumerMetrics() {
	consumerHandleLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "crashlens_kafka_consumer_handle_seconds",
			Help: "Handling time per message",
		},
		[]string{"topic"},
	)
}
