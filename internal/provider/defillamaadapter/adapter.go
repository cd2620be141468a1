// Package defillamaadapter exposes the DefiLlama client as price, TVL and
// stablecoin sources.
package defillamaadapter

import (
	"context"
	"sort"
	"strings"

	"coinoracle/internal/provider"
	"coinoracle/internal/provider/defillama"
)

const SourceName = "defillama"

// coinKeyByTicker maps tracked tickers to DefiLlama coin keys.
var coinKeyByTicker = map[string]string{
	"BTC":   "coingecko:bitcoin",
	"ETH":   "coingecko:ethereum",
	"SOL":   "coingecko:solana",
	"ADA":   "coingecko:cardano",
	"XRP":   "coingecko:ripple",
	"DOT":   "coingecko:polkadot",
	"DOGE":  "coingecko:dogecoin",
	"AVAX":  "coingecko:avalanche-2",
	"LINK":  "coingecko:chainlink",
	"MATIC": "coingecko:matic-network",
}

const (
	topChains      = 15
	topStablecoins = 10
)

type Config struct {
	Name string
	// CoinKeyMap overrides the built-in ticker mapping when non-nil.
	CoinKeyMap map[string]string
}

type Source struct {
	cfg    Config
	client *defillama.Client
}

func New(cfg Config, client *defillama.Client) *Source {
	if cfg.Name == "" {
		cfg.Name = SourceName
	}
	if cfg.CoinKeyMap == nil {
		cfg.CoinKeyMap = coinKeyByTicker
	}
	return &Source{cfg: cfg, client: client}
}

func (s *Source) Name() string { return s.cfg.Name }

// Quotes fetches current prices for all mapped tickers in one batched call.
// DefiLlama reports its own confidence per coin; it is carried on the quote
// but not used by reconciliation.
func (s *Source) Quotes(ctx context.Context, tickers []string) (map[string]provider.SourceQuote, error) {
	keys := make([]string, 0, len(tickers))
	tickerByKey := make(map[string]string, len(tickers))
	for _, t := range tickers {
		key, ok := s.cfg.CoinKeyMap[t]
		if !ok {
			continue
		}
		if _, dup := tickerByKey[key]; !dup {
			keys = append(keys, key)
			tickerByKey[key] = t
		}
	}
	if len(keys) == 0 {
		return map[string]provider.SourceQuote{}, nil
	}

	coins, err := s.client.CurrentPrices(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make(map[string]provider.SourceQuote, len(coins))
	for key, cp := range coins {
		ticker, ok := tickerByKey[key]
		if ok && cp.Price > 0 {
			out[ticker] = provider.SourceQuote{
				Ticker:     ticker,
				Price:      cp.Price,
				Confidence: cp.Confidence,
				Source:     s.cfg.Name,
			}
		}
	}
	return out, nil
}

// Chains returns the top chains by TVL, descending, truncated to 15.
func (s *Source) Chains(ctx context.Context) ([]provider.ChainTVL, error) {
	chains, err := s.client.Chains(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]provider.ChainTVL, 0, len(chains))
	for _, c := range chains {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		out = append(out, provider.ChainTVL{Name: c.Name, TVL: c.TVL})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TVL > out[j].TVL })
	if len(out) > topChains {
		out = out[:topChains]
	}
	return out, nil
}

// Stablecoins returns the top stablecoins by circulating USD, descending,
// truncated to 10.
func (s *Source) Stablecoins(ctx context.Context) ([]provider.Stablecoin, error) {
	assets, err := s.client.Stablecoins(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]provider.Stablecoin, 0, len(assets))
	for _, a := range assets {
		out = append(out, provider.Stablecoin{
			Name:        a.Name,
			Symbol:      a.Symbol,
			Circulating: a.Circulating.PeggedUSD,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Circulating > out[j].Circulating })
	if len(out) > topStablecoins {
		out = out[:topStablecoins]
	}
	return out, nil
}
