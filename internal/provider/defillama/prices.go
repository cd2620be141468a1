package defillama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// CoinPrice is one coin entry from /prices/current.
type CoinPrice struct {
	Price      float64  `json:"price"`
	Symbol     string   `json:"symbol"`
	Timestamp  int64    `json:"timestamp"`
	Confidence *float64 `json:"confidence"`
}

type currentPricesResponse struct {
	Coins map[string]CoinPrice `json:"coins"`
}

// CurrentPrices retrieves current prices for the given coin keys
// (e.g. "coingecko:bitcoin"). The result is keyed by the same keys.
func (c *Client) CurrentPrices(ctx context.Context, coins []string) (map[string]CoinPrice, error) {
	if len(coins) == 0 {
		return map[string]CoinPrice{}, nil
	}
	u := fmt.Sprintf("%s/prices/current/%s", c.coinsBaseURL, url.PathEscape(strings.Join(coins, ",")))
	var body currentPricesResponse
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	return body.Coins, nil
}

// Chain is one chain entry from /v2/chains.
type Chain struct {
	Name string  `json:"name"`
	TVL  float64 `json:"tvl"`
}

// Chains retrieves total value locked per chain.
func (c *Client) Chains(ctx context.Context) ([]Chain, error) {
	var body []Chain
	if err := c.getJSON(ctx, c.apiBaseURL+"/v2/chains", &body); err != nil {
		return nil, err
	}
	return body, nil
}

// PeggedAsset is one stablecoin entry from /stablecoins.
type PeggedAsset struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Circulating struct {
		PeggedUSD float64 `json:"peggedUSD"`
	} `json:"circulating"`
}

type stablecoinsResponse struct {
	PeggedAssets []PeggedAsset `json:"peggedAssets"`
}

// Stablecoins retrieves circulating supply per stablecoin.
func (c *Client) Stablecoins(ctx context.Context) ([]PeggedAsset, error) {
	var body stablecoinsResponse
	if err := c.getJSON(ctx, c.stablecoinsBaseURL+"/stablecoins", &body); err != nil {
		return nil, err
	}
	return body.PeggedAssets, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited")
	default:
		return fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
