// Package ethgas implements the Etherscan gas oracle source.
package ethgas

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"coinoracle/internal/httpx"
	"coinoracle/internal/provider"
)

type Config struct {
	Endpoint string
	APIKey   string
}

type Source struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Source {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.etherscan.io/api"
	}
	return &Source{cfg: cfg, client: hc}
}

// Etherscan wraps results in a status envelope; "1" means success.
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  struct {
		SafeGasPrice    string `json:"SafeGasPrice"`
		ProposeGasPrice string `json:"ProposeGasPrice"`
		FastGasPrice    string `json:"FastGasPrice"`
	} `json:"result"`
}

// Gas fetches low/standard/fast gwei tiers. A non-success upstream status
// is reported as an error, which the caller degrades to "unavailable".
func (s *Source) Gas(ctx context.Context) (*provider.GasPrices, error) {
	q := url.Values{}
	q.Set("module", "gastracker")
	q.Set("action", "gasoracle")
	if s.cfg.APIKey != "" {
		q.Set("apikey", s.cfg.APIKey)
	}
	var body apiResponse
	if err := s.client.GetJSON(ctx, s.cfg.Endpoint+"?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if body.Status != "1" {
		return nil, fmt.Errorf("gas oracle status %q: %s", body.Status, body.Message)
	}
	low, err := strconv.ParseFloat(body.Result.SafeGasPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("parse safe gas price: %w", err)
	}
	standard, err := strconv.ParseFloat(body.Result.ProposeGasPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("parse propose gas price: %w", err)
	}
	fast, err := strconv.ParseFloat(body.Result.FastGasPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("parse fast gas price: %w", err)
	}
	return &provider.GasPrices{Low: low, Standard: standard, Fast: fast}, nil
}
