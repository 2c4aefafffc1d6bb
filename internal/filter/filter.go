// Package filter implements the dashboard quality gate and per-request
// window filtering, sorting and cursor pagination.
package filter

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/duke-git/lancet/v2/slice"

	"solana-token-feed/internal/domain"
)

// MinDisplayLength is the minimum length of address, name and ticker.
const MinDisplayLength = 2

// Passes reports whether t survives the dashboard quality gate.
func Passes(t *domain.Token) bool {
	if t == nil {
		return false
	}
	if !displayable(t.Address) || !displayable(t.Name) || !displayable(t.Ticker) {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(t.Ticker), domain.UnknownTicker) {
		return false
	}
	if !t.Finite() {
		return false
	}
	return t.Volume24h > 0 && t.Liquidity > 0
}

func displayable(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= MinDisplayLength
}

// Dashboard applies the quality gate and orders survivors by 24h volume, descending.
// The input slice is not modified.
func Dashboard(tokens []*domain.Token) []*domain.Token {
	out := slice.Filter(tokens, func(_ int, t *domain.Token) bool {
		return Passes(t)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Volume24h > out[j].Volume24h
	})
	return out
}

// Apply runs window filter, sort, cursor and limit, in that order, over
// tokens that already passed Dashboard. The input slice is not modified.
func Apply(tokens []*domain.Token, spec domain.FilterSpec) domain.Page {
	out := make([]*domain.Token, 0, len(tokens))
	for _, t := range tokens {
		if t != nil {
			out = append(out, t)
		}
	}

	if spec.Period != "" {
		out = slice.Filter(out, func(_ int, t *domain.Token) bool {
			return t.VolumeFor(spec.Period) > 0 || t.TxCountFor(spec.Period) > 0
		})
	}

	if spec.SortBy != "" {
		Sort(out, spec.SortBy, spec.Period)
	}

	if spec.Cursor != "" {
		for i, t := range out {
			if t.Address == spec.Cursor {
				out = out[i+1:]
				break
			}
		}
	}

	if spec.Limit > 0 && len(out) > spec.Limit {
		out = out[:spec.Limit]
	}

	page := domain.Page{
		Tokens:  out,
		Limit:   spec.Limit,
		HasNext: spec.Limit > 0 && len(out) == spec.Limit,
	}
	if len(out) > 0 {
		page.NextCursor = out[len(out)-1].Address
	}
	return page
}

// Sort orders tokens in place, descending by the key. Ties keep their order.
// Volume and price change follow period; market cap ignores it.
func Sort(tokens []*domain.Token, by domain.SortBy, period domain.Period) {
	var key func(*domain.Token) float64
	switch by {
	case domain.SortByVolume:
		key = func(t *domain.Token) float64 { return t.VolumeFor(period) }
	case domain.SortByPriceChange:
		key = func(t *domain.Token) float64 { return t.PriceChangeFor(period) }
	case domain.SortByMarketCap:
		key = func(t *domain.Token) float64 { return t.MarketCap }
	default:
		return
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return key(tokens[i]) > key(tokens[j])
	})
}
