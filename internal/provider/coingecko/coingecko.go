// Package coingecko implements the CoinGecko spot price source.
package coingecko

import (
	"context"
	"net/url"
	"strings"

	"coinoracle/internal/httpx"
	"coinoracle/internal/provider"
)

const SourceName = "coingecko"

// idByTicker maps tracked tickers to CoinGecko coin ids. Adding an asset is
// a data change here, not a code change.
var idByTicker = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"DOGE":  "dogecoin",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
}

type Config struct {
	Name     string
	Endpoint string
	// IDMap overrides the built-in ticker mapping when non-nil.
	IDMap map[string]string
}

type Source struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Source {
	if cfg.Name == "" {
		cfg.Name = SourceName
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.coingecko.com/api/v3"
	}
	if cfg.IDMap == nil {
		cfg.IDMap = idByTicker
	}
	return &Source{cfg: cfg, client: hc}
}

func (s *Source) Name() string { return s.cfg.Name }

// coinData is CoinGecko's /simple/price entry for one coin id.
type coinData struct {
	USD          *float64 `json:"usd"`
	USDMarketCap *float64 `json:"usd_market_cap"`
	USD24hChange *float64 `json:"usd_24h_change"`
}

// Quotes maps tickers to CoinGecko ids, issues one batched /simple/price
// request, and normalizes the response. Unmapped tickers are skipped.
func (s *Source) Quotes(ctx context.Context, tickers []string) (map[string]provider.SourceQuote, error) {
	ids := make([]string, 0, len(tickers))
	tickerByID := make(map[string]string, len(tickers))
	for _, t := range tickers {
		id, ok := s.cfg.IDMap[t]
		if !ok {
			continue
		}
		if _, dup := tickerByID[id]; !dup {
			ids = append(ids, id)
			tickerByID[id] = t
		}
	}
	if len(ids) == 0 {
		return map[string]provider.SourceQuote{}, nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_market_cap", "true")
	q.Set("include_24hr_change", "true")
	u := s.cfg.Endpoint + "/simple/price?" + q.Encode()

	var body map[string]coinData
	if err := s.client.GetJSON(ctx, u, &body); err != nil {
		return nil, err
	}

	out := make(map[string]provider.SourceQuote, len(body))
	for id, d := range body {
		ticker, ok := tickerByID[id]
		if ok && d.USD != nil && *d.USD > 0 {
			out[ticker] = provider.SourceQuote{
				Ticker:    ticker,
				Price:     *d.USD,
				Change24h: d.USD24hChange,
				MarketCap: d.USDMarketCap,
				Source:    s.cfg.Name,
			}
		}
	}
	return out, nil
}
