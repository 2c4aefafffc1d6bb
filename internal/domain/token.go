package domain

import (
	"math"
	"time"
)

// UnknownTicker is the placeholder some upstreams return for unresolved symbols.
const UnknownTicker = "Unknown"

// Token is the canonical, merged view of one on-chain token.
// Address is the sole identity: two records with the same address describe the same token.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Ticker  string `json:"ticker"`

	Price     float64 `json:"price"` // quoted in SOL
	MarketCap float64 `json:"marketCap"`
	Liquidity float64 `json:"liquidity"`

	Volume1h  float64 `json:"volume1h"`
	Volume24h float64 `json:"volume24h"`
	Volume7d  float64 `json:"volume7d,omitempty"`
	// Volume mirrors Volume24h for older consumers.
	Volume float64 `json:"volume"`

	TxCount1h  int64 `json:"txCount1h"`
	TxCount24h int64 `json:"txCount24h"`
	TxCount7d  int64 `json:"txCount7d,omitempty"`
	// TransactionCount mirrors TxCount24h for older consumers.
	TransactionCount int64 `json:"transactionCount"`

	PriceChange1h  float64 `json:"priceChange1h"`
	PriceChange24h float64 `json:"priceChange24h"`
	PriceChange7d  float64 `json:"priceChange7d,omitempty"`

	Source     string    `json:"source"` // e.g. "DexScreener+GeckoTerminal"
	ObservedAt time.Time `json:"observedAt"`
}

// SyncAliases copies the 24h volume and transaction count into their alias fields.
func (t *Token) SyncAliases() {
	t.Volume = t.Volume24h
	t.TransactionCount = t.TxCount24h
}

// VolumeFor returns the volume matching period. Empty period means 24h.
func (t *Token) VolumeFor(p Period) float64 {
	switch p {
	case Period1h:
		return t.Volume1h
	case Period7d:
		return t.Volume7d
	default:
		return t.Volume24h
	}
}

// TxCountFor returns the transaction count matching period. Empty period means 24h.
func (t *Token) TxCountFor(p Period) int64 {
	switch p {
	case Period1h:
		return t.TxCount1h
	case Period7d:
		return t.TxCount7d
	default:
		return t.TxCount24h
	}
}

// PriceChangeFor returns the price change percentage matching period.
// The 1h field doubles as the default when no period is given.
func (t *Token) PriceChangeFor(p Period) float64 {
	switch p {
	case Period24h:
		return t.PriceChange24h
	case Period7d:
		return t.PriceChange7d
	default:
		return t.PriceChange1h
	}
}

// CloneTokens returns a deep copy of tokens.
func CloneTokens(tokens []*Token) []*Token {
	out := make([]*Token, 0, len(tokens))
	for _, t := range tokens {
		if t == nil {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	return out
}

// Finite reports whether every float field is a finite number. Records that
// are not finite cannot be encoded as JSON.
func (t *Token) Finite() bool {
	for _, f := range []float64{
		t.Price, t.MarketCap, t.Liquidity,
		t.Volume1h, t.Volume24h, t.Volume7d, t.Volume,
		t.PriceChange1h, t.PriceChange24h, t.PriceChange7d,
	} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// AddAmounts adds two non-negative amounts, saturating at math.MaxFloat64.
func AddAmounts(a, b float64) float64 {
	sum := a + b
	if math.IsInf(sum, 1) {
		return math.MaxFloat64
	}
	return sum
}

// AddCounts adds two non-negative counts, saturating at math.MaxInt64.
func AddCounts(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
