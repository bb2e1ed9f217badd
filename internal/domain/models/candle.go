package models

// Candle represents one day's OHLCV record. Date is a calendar-day string
// in YYYY-MM-DD form; candles are immutable once fetched.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// MarketMeta carries provider metadata returned alongside a candle set.
type MarketMeta struct {
	Symbol   string `json:"symbol,omitempty"`
	Currency string `json:"currency,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}
