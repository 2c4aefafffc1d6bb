package normalization

import (
	"strings"
	"time"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/upstream"
)

// DexScreenerNormalizer normalizes DexScreener search results.
type DexScreenerNormalizer struct {
	chainID string
	now     func() time.Time
}

// NewDexScreenerNormalizer creates a normalizer that keeps solana pairs only.
// now may be nil.
func NewDexScreenerNormalizer(now func() time.Time) *DexScreenerNormalizer {
	return &DexScreenerNormalizer{chainID: "solana", now: clock(now)}
}

// Normalize converts a search payload into canonical records.
// Pairs on other chains are skipped silently; malformed solana pairs are reported in Dropped.
// DexScreener has no 7d window, so 7d fields stay zero.
func (n *DexScreenerNormalizer) Normalize(resp *upstream.DexScreenerSearchResponse) Result {
	var res Result
	if resp == nil {
		return res
	}
	observedAt := n.now().UTC()

	for i, p := range resp.Pairs {
		if !strings.EqualFold(p.ChainID, n.chainID) {
			continue
		}

		id, reason := checkIdentity(p.BaseToken.Address, p.BaseToken.Name, p.BaseToken.Symbol)
		if reason != "" {
			res.Dropped = append(res.Dropped, &MalformedRecordError{
				Source: domain.SourceDexScreener, Index: i, Address: id.address, Reason: reason,
			})
			continue
		}

		price, ok := parsePrice(p.PriceNative)
		if !ok {
			res.Dropped = append(res.Dropped, &MalformedRecordError{
				Source: domain.SourceDexScreener, Index: i, Address: id.address, Reason: "no usable priceNative",
			})
			continue
		}

		var liquidity float64
		if p.Liquidity != nil {
			liquidity = parseNonNegative(p.Liquidity.Usd)
		}

		tok := &domain.Token{
			Address:        id.address,
			Name:           id.name,
			Ticker:         id.ticker,
			Price:          price,
			MarketCap:      firstPositive(parseNonNegative(p.MarketCap), parseNonNegative(p.Fdv)),
			Liquidity:      liquidity,
			Volume1h:       parseNonNegative(p.Volume.H1),
			Volume24h:      parseNonNegative(p.Volume.H24),
			TxCount1h:      sumCounts(p.Txns.H1.Buys, p.Txns.H1.Sells),
			TxCount24h:     sumCounts(p.Txns.H24.Buys, p.Txns.H24.Sells),
			PriceChange1h:  parseFloat(p.PriceChange.H1),
			PriceChange24h: parseFloat(p.PriceChange.H24),
			Source:         domain.SourceDexScreener,
			ObservedAt:     observedAt,
		}
		tok.SyncAliases()
		res.Tokens = append(res.Tokens, tok)
	}

	return res
}
