package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"solana-token-feed/internal/domain"
)

// GeckoTerminal defaults.
const (
	DefaultGeckoTerminalURL       = "https://api.geckoterminal.com/api/v2"
	DefaultGeckoTerminalRateLimit = 30 // requests per minute
	// GeckoTerminalMaxBatch is the documented address limit of tokens/multi.
	GeckoTerminalMaxBatch = 30
)

// GeckoTerminalClient queries GeckoTerminal token data.
type GeckoTerminalClient struct {
	*Client
	network  string
	maxBatch int
}

// NewGeckoTerminalClient creates a new GeckoTerminal client for the solana network.
func NewGeckoTerminalClient(baseURL string, opts ...Option) *GeckoTerminalClient {
	if baseURL == "" {
		baseURL = DefaultGeckoTerminalURL
	}
	return &GeckoTerminalClient{
		Client:   newClient(domain.SourceGeckoTerminal, baseURL, DefaultGeckoTerminalRateLimit, opts...),
		network:  "solana",
		maxBatch: GeckoTerminalMaxBatch,
	}
}

// WithMaxBatch lowers the batch size callers should use. Values outside
// [1, GeckoTerminalMaxBatch] are ignored.
func (c *GeckoTerminalClient) WithMaxBatch(n int) *GeckoTerminalClient {
	if n >= 1 && n <= GeckoTerminalMaxBatch {
		c.maxBatch = n
	}
	return c
}

// MaxBatch returns the maximum number of addresses per TokensMulti call.
func (c *GeckoTerminalClient) MaxBatch() int {
	return c.maxBatch
}

// TokensMulti fetches up to GeckoTerminalMaxBatch tokens with their top pools.
func (c *GeckoTerminalClient) TokensMulti(ctx context.Context, addresses []string) (*GeckoTokensResponse, error) {
	if len(addresses) == 0 {
		return &GeckoTokensResponse{}, nil
	}
	if len(addresses) > GeckoTerminalMaxBatch {
		return nil, fmt.Errorf("%d addresses: %w", len(addresses), ErrBatchTooLarge)
	}

	path := fmt.Sprintf("/networks/%s/tokens/multi/%s", c.network, strings.Join(addresses, ","))
	var resp GeckoTokensResponse
	if err := c.getJSON(ctx, path, url.Values{"include": {"top_pools"}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GeckoTokensResponse is the raw tokens/multi payload (JSON:API).
type GeckoTokensResponse struct {
	Data     []GeckoToken `json:"data"`
	Included []GeckoPool  `json:"included"`
}

// GeckoToken is one token resource.
type GeckoToken struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    GeckoTokenAttributes    `json:"attributes"`
	Relationships GeckoTokenRelationships `json:"relationships"`
}

// GeckoTokenAttributes are token-level figures.
type GeckoTokenAttributes struct {
	Address           string       `json:"address"`
	Name              string       `json:"name"`
	Symbol            string       `json:"symbol"`
	PriceUSD          Number       `json:"price_usd"`
	FdvUSD            Number       `json:"fdv_usd"`
	MarketCapUSD      Number       `json:"market_cap_usd"`
	TotalReserveInUSD Number       `json:"total_reserve_in_usd"`
	VolumeUSD         GeckoWindows `json:"volume_usd"`
}

// GeckoTokenRelationships links a token to its pools.
type GeckoTokenRelationships struct {
	TopPools struct {
		Data []GeckoRef `json:"data"`
	} `json:"top_pools"`
}

// GeckoRef is a JSON:API resource identifier.
type GeckoRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// GeckoPool is an included pool resource.
type GeckoPool struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	Attributes GeckoPoolAttributes `json:"attributes"`
}

// GeckoPoolAttributes are pool-level figures.
type GeckoPoolAttributes struct {
	Address               string         `json:"address"`
	Name                  string         `json:"name"`
	BaseTokenPriceNative  Number         `json:"base_token_price_native_currency"`
	ReserveInUSD          Number         `json:"reserve_in_usd"`
	VolumeUSD             GeckoWindows   `json:"volume_usd"`
	PriceChangePercentage GeckoWindows   `json:"price_change_percentage"`
	Transactions          GeckoTxWindows `json:"transactions"`
}

// GeckoWindows holds a value per time window.
type GeckoWindows struct {
	M5  Number `json:"m5"`
	H1  Number `json:"h1"`
	H6  Number `json:"h6"`
	H24 Number `json:"h24"`
}

// GeckoTxWindows holds transaction counts per window.
type GeckoTxWindows struct {
	M5  GeckoTxCount `json:"m5"`
	H1  GeckoTxCount `json:"h1"`
	H6  GeckoTxCount `json:"h6"`
	H24 GeckoTxCount `json:"h24"`
}

// GeckoTxCount is a buy/sell count.
type GeckoTxCount struct {
	Buys  Number `json:"buys"`
	Sells Number `json:"sells"`
}
