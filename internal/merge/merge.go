// Package merge combines records describing the same token from two sources.
package merge

import "solana-token-feed/internal/domain"

// Merge combines two records for the same address.
//
// Price comes from b when b has a positive price, otherwise from a.
// Market cap and liquidity take the maximum; 24h volume and transaction
// count are summed, saturating instead of overflowing. Every other field comes from a. The source tag is
// "<a.Source>+<b.Source>", so argument order is visible in the output.
// Neither input is modified.
func Merge(a, b *domain.Token) *domain.Token {
	out := *a

	if b.Price > 0 {
		out.Price = b.Price
	}
	out.MarketCap = max(a.MarketCap, b.MarketCap)
	out.Liquidity = max(a.Liquidity, b.Liquidity)
	out.Volume24h = domain.AddAmounts(a.Volume24h, b.Volume24h)
	out.TxCount24h = domain.AddCounts(a.TxCount24h, b.TxCount24h)
	out.Source = a.Source + "+" + b.Source
	if b.ObservedAt.After(a.ObservedAt) {
		out.ObservedAt = b.ObservedAt
	}
	out.SyncAliases()

	return &out
}

// MergeSets merges secondary records into primary ones by address.
// Membership and order follow primary: secondary-only addresses are dropped,
// and primary records without a secondary match are returned as copies.
func MergeSets(primary, secondary []*domain.Token) []*domain.Token {
	index := make(map[string]*domain.Token, len(secondary))
	for _, t := range secondary {
		if t == nil {
			continue
		}
		if _, ok := index[t.Address]; !ok {
			index[t.Address] = t
		}
	}

	out := make([]*domain.Token, 0, len(primary))
	for _, p := range primary {
		if p == nil {
			continue
		}
		if s, ok := index[p.Address]; ok {
			out = append(out, Merge(p, s))
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out
}
