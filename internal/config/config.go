package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Server struct {
	Port              string
	RequestTimeoutSec int
}

type RateLimit struct {
	// Quota is the number of admitted calls per client per window.
	Quota int
	// WindowSec is the sliding window length. Fixed at one hour in
	// production; configurable so tests can shrink it.
	WindowSec int
}

type Cache struct {
	TTLSec int
}

type Upstream struct {
	CoinGeckoEndpoint string
	// DefiLlama splits its API across three hosts; empty means the
	// client's built-in default for that host.
	DefiLlamaCoinsEndpoint       string
	DefiLlamaAPIEndpoint         string
	DefiLlamaStablecoinsEndpoint string
	FearGreedEndpoint            string
	EtherscanEndpoint            string
	EtherscanAPIKey              string
	RequestsPerSecond            float64
}

type Attestation struct {
	// Contract is the address of the on-chain attestation ledger that
	// /verify points clients at. Never called by this process.
	Contract string
}

type Config struct {
	Server      Server
	RateLimit   RateLimit
	Cache       Cache
	Upstream    Upstream
	Attestation Attestation
	// Tickers is the fixed default set aggregated into the cached snapshot.
	Tickers []string
}

func Default() Config {
	return Config{
		Server:    Server{Port: "8080", RequestTimeoutSec: 10},
		RateLimit: RateLimit{Quota: 30, WindowSec: 3600},
		Cache:     Cache{TTLSec: 60},
		Upstream: Upstream{
			CoinGeckoEndpoint: "https://api.coingecko.com/api/v3",
			FearGreedEndpoint: "https://api.alternative.me/fng/",
			EtherscanEndpoint: "https://api.etherscan.io/api",
			RequestsPerSecond: 2,
		},
		Attestation: Attestation{Contract: ""},
		Tickers:     []string{"BTC", "ETH", "SOL", "ADA", "XRP", "DOT", "DOGE", "AVAX", "LINK", "MATIC"},
	}
}

// Load returns defaults overridden by environment variables. A .env file in
// the working directory is read first when present; real environment
// variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg := Default()
	applyEnv(&cfg)
	if cfg.RateLimit.Quota <= 0 {
		return cfg, fmt.Errorf("invalid RATE_LIMIT %d", cfg.RateLimit.Quota)
	}
	if cfg.Cache.TTLSec <= 0 {
		return cfg, fmt.Errorf("invalid CACHE_TTL_SEC %d", cfg.Cache.TTLSec)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.RateLimit.Quota = x
		}
	}
	if v := os.Getenv("RATE_WINDOW_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.RateLimit.WindowSec = x
		}
	}
	if v := os.Getenv("CACHE_TTL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Cache.TTLSec = x
		}
	}
	if v := os.Getenv("TICKERS"); v != "" {
		if ts := splitCSV(v); len(ts) > 0 {
			cfg.Tickers = ts
		}
	}
	if v := os.Getenv("COINGECKO_ENDPOINT"); v != "" {
		cfg.Upstream.CoinGeckoEndpoint = v
	}
	if v := os.Getenv("DEFILLAMA_COINS_ENDPOINT"); v != "" {
		cfg.Upstream.DefiLlamaCoinsEndpoint = v
	}
	if v := os.Getenv("DEFILLAMA_API_ENDPOINT"); v != "" {
		cfg.Upstream.DefiLlamaAPIEndpoint = v
	}
	if v := os.Getenv("DEFILLAMA_STABLECOINS_ENDPOINT"); v != "" {
		cfg.Upstream.DefiLlamaStablecoinsEndpoint = v
	}
	if v := os.Getenv("FEARGREED_ENDPOINT"); v != "" {
		cfg.Upstream.FearGreedEndpoint = v
	}
	if v := os.Getenv("ETHERSCAN_ENDPOINT"); v != "" {
		cfg.Upstream.EtherscanEndpoint = v
	}
	if v := os.Getenv("ETHERSCAN_API_KEY"); v != "" {
		cfg.Upstream.EtherscanAPIKey = v
	}
	if v := os.Getenv("UPSTREAM_RPS"); v != "" {
		var x float64
		fmt.Sscanf(v, "%g", &x)
		if x > 0 {
			cfg.Upstream.RequestsPerSecond = x
		}
	}
	if v := os.Getenv("ATTESTATION_CONTRACT"); v != "" {
		cfg.Attestation.Contract = v
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
