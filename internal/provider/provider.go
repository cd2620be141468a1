package provider

import (
	"context"
	"time"
)

// SourceQuote is the normalized shape returned by all price sources.
// Optional fields are pointers so JSON can distinguish "absent" from zero.
type SourceQuote struct {
	Ticker    string   `json:"ticker"`
	Price     float64  `json:"price"`
	Change24h *float64 `json:"change_24h,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	// Confidence is the provider's own reliability estimate, when it
	// reports one. Currently unused downstream.
	Confidence *float64 `json:"confidence,omitempty"`
	Source     string   `json:"source"`
}

// PriceSource fetches quotes for a set of uppercase tickers. Tickers the
// source does not track are silently omitted from the result.
type PriceSource interface {
	Name() string
	Quotes(ctx context.Context, tickers []string) (map[string]SourceQuote, error)
}

// Sentiment is a single market sentiment index observation.
type Sentiment struct {
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
	Timestamp      time.Time `json:"timestamp"`
}

// ChainTVL is total value locked on one chain.
type ChainTVL struct {
	Name string  `json:"name"`
	TVL  float64 `json:"tvl"`
}

// Stablecoin is one stablecoin's circulating supply in USD.
type Stablecoin struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Circulating float64 `json:"circulating_usd"`
}

// GasPrices holds gwei price tiers for Ethereum transactions.
type GasPrices struct {
	Low      float64 `json:"low"`
	Standard float64 `json:"standard"`
	Fast     float64 `json:"fast"`
}

// Domain sources each fetch one block of the snapshot. Like price sources,
// implementations report failure as an error; the aggregation cycle degrades
// it to "no data" rather than propagating.
type (
	SentimentSource interface {
		Current(ctx context.Context) (*Sentiment, error)
	}
	TVLSource interface {
		Chains(ctx context.Context) ([]ChainTVL, error)
	}
	StablecoinSource interface {
		Stablecoins(ctx context.Context) ([]Stablecoin, error)
	}
	GasSource interface {
		Gas(ctx context.Context) (*GasPrices, error)
	}
)
