package normalization

import (
	"strings"
	"time"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/upstream"
)

// GeckoTerminalNormalizer normalizes GeckoTerminal tokens/multi payloads.
type GeckoTerminalNormalizer struct {
	now func() time.Time
}

// NewGeckoTerminalNormalizer creates a GeckoTerminal normalizer. now may be nil.
func NewGeckoTerminalNormalizer(now func() time.Time) *GeckoTerminalNormalizer {
	return &GeckoTerminalNormalizer{now: clock(now)}
}

// Normalize converts a tokens/multi payload into canonical records.
// Token attributes supply identity, market cap, liquidity and 24h volume; the
// token's first top pool supplies native price, 1h volume, transactions and
// price changes. A token without a resolvable pool has no usable price and is dropped.
func (n *GeckoTerminalNormalizer) Normalize(resp *upstream.GeckoTokensResponse) Result {
	var res Result
	if resp == nil {
		return res
	}
	observedAt := n.now().UTC()

	pools := make(map[string]*upstream.GeckoPoolAttributes, len(resp.Included))
	for i := range resp.Included {
		p := &resp.Included[i]
		if p.Type == "" || p.Type == "pool" {
			pools[p.ID] = &p.Attributes
		}
	}

	for i, t := range resp.Data {
		addr := t.Attributes.Address
		if addr == "" {
			addr = strings.TrimPrefix(t.ID, "solana_")
		}

		id, reason := checkIdentity(addr, t.Attributes.Name, t.Attributes.Symbol)
		if reason != "" {
			res.Dropped = append(res.Dropped, &MalformedRecordError{
				Source: domain.SourceGeckoTerminal, Index: i, Address: id.address, Reason: reason,
			})
			continue
		}

		var pool *upstream.GeckoPoolAttributes
		for _, ref := range t.Relationships.TopPools.Data {
			if p, ok := pools[ref.ID]; ok {
				pool = p
				break
			}
		}
		if pool == nil {
			res.Dropped = append(res.Dropped, &MalformedRecordError{
				Source: domain.SourceGeckoTerminal, Index: i, Address: id.address, Reason: "no top pool",
			})
			continue
		}

		price, ok := parsePrice(pool.BaseTokenPriceNative)
		if !ok {
			res.Dropped = append(res.Dropped, &MalformedRecordError{
				Source: domain.SourceGeckoTerminal, Index: i, Address: id.address, Reason: "no usable native price",
			})
			continue
		}

		tok := &domain.Token{
			Address:        id.address,
			Name:           id.name,
			Ticker:         id.ticker,
			Price:          price,
			MarketCap:      firstPositive(parseNonNegative(t.Attributes.MarketCapUSD), parseNonNegative(t.Attributes.FdvUSD)),
			Liquidity:      firstPositive(parseNonNegative(t.Attributes.TotalReserveInUSD), parseNonNegative(pool.ReserveInUSD)),
			Volume1h:       parseNonNegative(pool.VolumeUSD.H1),
			Volume24h:      firstPositive(parseNonNegative(t.Attributes.VolumeUSD.H24), parseNonNegative(pool.VolumeUSD.H24)),
			TxCount1h:      sumCounts(pool.Transactions.H1.Buys, pool.Transactions.H1.Sells),
			TxCount24h:     sumCounts(pool.Transactions.H24.Buys, pool.Transactions.H24.Sells),
			PriceChange1h:  parseFloat(pool.PriceChangePercentage.H1),
			PriceChange24h: parseFloat(pool.PriceChangePercentage.H24),
			Source:         domain.SourceGeckoTerminal,
			ObservedAt:     observedAt,
		}
		tok.SyncAliases()
		res.Tokens = append(res.Tokens, tok)
	}

	return res
}
