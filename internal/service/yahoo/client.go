package yahoo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"CrashLens/internal/domain/models"
	drepo "CrashLens/internal/domain/repository"
	phttp "CrashLens/pkg/http"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client implements a MarketData provider backed by the Yahoo Finance chart
// endpoint. Only the daily interval is requested.
type Client struct {
	baseURL string
	http    *phttp.Client
}

// New creates a new Yahoo MarketData provider.
func New(baseURL string, timeout time.Duration) drepo.MarketData {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    phttp.NewClient(phttp.WithTimeout(timeout)),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string `json:"currency"`
				Symbol               string `json:"symbol"`
				FullExchangeName     string `json:"fullExchangeName"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily fetches daily candles for a provider lookback range.
func (c *Client) FetchDaily(ctx context.Context, symbol string, rng drepo.Range) ([]models.Candle, models.MarketMeta, error) {
	return c.fetch(ctx, symbol, map[string][]string{
		"interval": {"1d"},
		"range":    {string(rng)},
	})
}

// FetchDailyBetween fetches daily candles between two unix timestamps.
func (c *Client) FetchDailyBetween(ctx context.Context, symbol string, fromUnix, toUnix int64) ([]models.Candle, models.MarketMeta, error) {
	return c.fetch(ctx, symbol, map[string][]string{
		"interval": {"1d"},
		"period1":  {strconv.FormatInt(fromUnix, 10)},
		"period2":  {strconv.FormatInt(toUnix, 10)},
	})
}

func (c *Client) fetch(ctx context.Context, symbol string, query map[string][]string) ([]models.Candle, models.MarketMeta, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &phttp.RequestOptions{
		Method:      phttp.MethodGet,
		URL:         fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, symbol),
		QueryParams: query,
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (compatible; crashlens/1.0)",
		},
	}, &resp)
	if err != nil {
		return nil, models.MarketMeta{}, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, models.MarketMeta{}, fmt.Errorf("yahoo chart %s: %s (%s)",
			symbol, resp.Chart.Error.Description, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, models.MarketMeta{}, fmt.Errorf("yahoo chart %s: empty result", symbol)
	}

	result := resp.Chart.Result[0]
	meta := models.MarketMeta{
		Symbol:   result.Meta.Symbol,
		Currency: result.Meta.Currency,
		Exchange: result.Meta.FullExchangeName,
		Timezone: result.Meta.ExchangeTimezoneName,
	}
	if meta.Symbol == "" {
		meta.Symbol = symbol
	}

	if len(result.Indicators.Quote) == 0 {
		return []models.Candle{}, meta, nil
	}
	quote := result.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open := at(quote.Open, i)
		high := at(quote.High, i)
		low := at(quote.Low, i)
		closeV := at(quote.Close, i)
		// Bars with any missing OHLC leg are dropped; a missing volume is
		// kept as zero.
		if open == nil || high == nil || low == nil || closeV == nil {
			continue
		}
		volume := 0.0
		if v := at(quote.Volume, i); v != nil {
			volume = *v
		}
		candles = append(candles, models.Candle{
			Date:   time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *closeV,
			Volume: volume,
		})
	}

	return candles, meta, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
