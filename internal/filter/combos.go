package filter

import "solana-token-feed/internal/domain"

// Combo is a filter shape computed ahead of requests and cached.
type Combo struct {
	Period domain.Period
	SortBy domain.SortBy
	Limit  int
}

// Spec converts c into a cursorless FilterSpec.
func (c Combo) Spec() domain.FilterSpec {
	return domain.FilterSpec{Period: c.Period, SortBy: c.SortBy, Limit: c.Limit}
}

// DefaultCombos are the listing shapes the dashboard and trending views request most.
var DefaultCombos = []Combo{
	{Limit: 50},
	{SortBy: domain.SortByVolume, Limit: 50},
	{Period: domain.Period1h, SortBy: domain.SortByVolume, Limit: 50},
	{Period: domain.Period24h, SortBy: domain.SortByVolume, Limit: 50},
	{Period: domain.Period24h, SortBy: domain.SortByVolume, Limit: 100},
	{SortBy: domain.SortByMarketCap, Limit: 50},
	{Period: domain.Period1h, SortBy: domain.SortByPriceChange, Limit: 20},
	{Period: domain.Period24h, SortBy: domain.SortByPriceChange, Limit: 20},
	{SortBy: domain.SortByPriceChange, Limit: 20},
}
