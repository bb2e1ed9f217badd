package queue

import "context"

// Job is one background task type, registered with the queue by name.
// The scan pipeline registers a job per message type it consumes.
type Job interface {
	// Name identifies the job in logs and the registry.
	Name() string

	// Type is the message type this job claims off the queue.
	Type() string

	// Handle processes one payload; a returned error triggers a retry.
	Handle(ctx context.Context, payload interface{}) error
}
