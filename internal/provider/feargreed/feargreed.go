// Package feargreed implements the alternative.me Fear & Greed index source.
package feargreed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"coinoracle/internal/httpx"
	"coinoracle/internal/provider"
)

type Config struct {
	Endpoint string
}

type Source struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Source {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.alternative.me/fng/"
	}
	return &Source{cfg: cfg, client: hc}
}

// The API returns numbers as strings.
type apiResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// Current fetches the latest index value with its classification and the
// index's own timestamp.
func (s *Source) Current(ctx context.Context) (*provider.Sentiment, error) {
	var body apiResponse
	if err := s.client.GetJSON(ctx, s.cfg.Endpoint, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("empty fear & greed response")
	}
	d := body.Data[0]
	value, err := strconv.Atoi(d.Value)
	if err != nil {
		return nil, fmt.Errorf("parse index value %q: %w", d.Value, err)
	}
	if value < 0 || value > 100 {
		return nil, fmt.Errorf("index value %d out of range", value)
	}
	ts, err := strconv.ParseInt(d.Timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse index timestamp %q: %w", d.Timestamp, err)
	}
	return &provider.Sentiment{
		Value:          value,
		Classification: d.ValueClassification,
		Timestamp:      time.Unix(ts, 0).UTC(),
	}, nil
}
