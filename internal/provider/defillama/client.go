package defillama

import (
	"net/http"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=defillama_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	defaultCoinsBaseURL       = "https://coins.llama.fi"
	defaultAPIBaseURL         = "https://api.llama.fi"
	defaultStablecoinsBaseURL = "https://stablecoins.llama.fi"
)

// Client is a client for the DefiLlama public APIs. DefiLlama splits its
// surface across three hosts (coin prices, TVL, stablecoins), so the client
// carries one base URL per family.
type Client struct {
	coinsBaseURL       string
	apiBaseURL         string
	stablecoinsBaseURL string
	httpClient         HTTPClient
	header             http.Header
}

// ClientOption is a configuration option for the DefiLlama client.
type ClientOption func(*Client)

// WithCoinsBaseURL sets the base URL for the coin price API.
func WithCoinsBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.coinsBaseURL = baseURL
	}
}

// WithAPIBaseURL sets the base URL for the TVL API.
func WithAPIBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.apiBaseURL = baseURL
	}
}

// WithStablecoinsBaseURL sets the base URL for the stablecoins API.
func WithStablecoinsBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.stablecoinsBaseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new DefiLlama API client.
func NewClient(options ...ClientOption) (*Client, error) {
	var client = &Client{
		coinsBaseURL:       defaultCoinsBaseURL,
		apiBaseURL:         defaultAPIBaseURL,
		stablecoinsBaseURL: defaultStablecoinsBaseURL,
		httpClient:         http.DefaultClient,
		header:             http.Header{},
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}
