package domain

// Period is an activity time window.
type Period string

const (
	Period1h  Period = "1h"
	Period24h Period = "24h"
	Period7d  Period = "7d"
)

// IsValid reports whether p is one of the known windows.
func (p Period) IsValid() bool {
	return p == Period1h || p == Period24h || p == Period7d
}

// String returns the string representation of Period.
func (p Period) String() string {
	return string(p)
}

// SortBy is a listing sort key.
type SortBy string

const (
	SortByVolume      SortBy = "volume"
	SortByPriceChange SortBy = "price_change"
	SortByMarketCap   SortBy = "market_cap"
)

// IsValid reports whether s is one of the known sort keys.
func (s SortBy) IsValid() bool {
	return s == SortByVolume || s == SortByPriceChange || s == SortByMarketCap
}

// String returns the string representation of SortBy.
func (s SortBy) String() string {
	return string(s)
}

// FilterSpec describes one listing request. Zero values mean "not given".
type FilterSpec struct {
	Period Period
	SortBy SortBy
	Limit  int
	Cursor string // address of the last record the caller has seen
}

// Page is a filtered listing plus pagination metadata.
type Page struct {
	Tokens     []*Token `json:"data"`
	Limit      int      `json:"limit"`
	HasNext    bool     `json:"hasNext"`
	NextCursor string   `json:"nextCursor,omitempty"`
}
