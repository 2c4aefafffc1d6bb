package upstream

import (
	"context"
	"net/url"

	"solana-token-feed/internal/domain"
)

// DexScreener defaults.
const (
	DefaultDexScreenerURL       = "https://api.dexscreener.com"
	DefaultDexScreenerRateLimit = 300 // requests per minute
)

// DexScreenerClient queries the DexScreener search API.
type DexScreenerClient struct {
	*Client
}

// NewDexScreenerClient creates a new DexScreener client.
func NewDexScreenerClient(baseURL string, opts ...Option) *DexScreenerClient {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	return &DexScreenerClient{
		Client: newClient(domain.SourceDexScreener, baseURL, DefaultDexScreenerRateLimit, opts...),
	}
}

// Search returns the pairs matching query across all chains.
func (c *DexScreenerClient) Search(ctx context.Context, query string) (*DexScreenerSearchResponse, error) {
	var resp DexScreenerSearchResponse
	if err := c.getJSON(ctx, "/latest/dex/search", url.Values{"q": {query}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DexScreenerSearchResponse is the raw search payload.
type DexScreenerSearchResponse struct {
	SchemaVersion string            `json:"schemaVersion"`
	Pairs         []DexScreenerPair `json:"pairs"`
}

// DexScreenerPair is one trading pair.
type DexScreenerPair struct {
	ChainID       string                `json:"chainId"`
	DexID         string                `json:"dexId"`
	URL           string                `json:"url"`
	PairAddress   string                `json:"pairAddress"`
	BaseToken     DexScreenerToken      `json:"baseToken"`
	QuoteToken    DexScreenerToken      `json:"quoteToken"`
	PriceNative   Number                `json:"priceNative"`
	PriceUsd      Number                `json:"priceUsd"`
	Txns          DexScreenerTxns       `json:"txns"`
	Volume        DexScreenerWindows    `json:"volume"`
	PriceChange   DexScreenerWindows    `json:"priceChange"`
	Liquidity     *DexScreenerLiquidity `json:"liquidity"`
	Fdv           Number                `json:"fdv"`
	MarketCap     Number                `json:"marketCap"`
	PairCreatedAt Number                `json:"pairCreatedAt"`
}

// DexScreenerToken is a token in a pair.
type DexScreenerToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// DexScreenerWindows holds a value per time window.
type DexScreenerWindows struct {
	M5  Number `json:"m5"`
	H1  Number `json:"h1"`
	H6  Number `json:"h6"`
	H24 Number `json:"h24"`
}

// DexScreenerTxns holds buy/sell counts per time window.
type DexScreenerTxns struct {
	M5  DexScreenerTxnCount `json:"m5"`
	H1  DexScreenerTxnCount `json:"h1"`
	H6  DexScreenerTxnCount `json:"h6"`
	H24 DexScreenerTxnCount `json:"h24"`
}

// DexScreenerTxnCount is a buy/sell count.
type DexScreenerTxnCount struct {
	Buys  Number `json:"buys"`
	Sells Number `json:"sells"`
}

// DexScreenerLiquidity is pool liquidity.
type DexScreenerLiquidity struct {
	Usd   Number `json:"usd"`
	Base  Number `json:"base"`
	Quote Number `json:"quote"`
}
