package api

import (
	"net/url"
	"strconv"

	"solana-token-feed/internal/domain"
)

// Limit bounds per listing.
const (
	DefaultListLimit     = 50
	MaxListLimit         = 100
	DefaultTrendingLimit = 20
	MaxTrendingLimit     = 50
)

func parsePeriod(q url.Values) (domain.Period, error) {
	raw := q.Get("period")
	if raw == "" {
		return "", nil
	}
	p := domain.Period(raw)
	if !p.IsValid() {
		return "", &ValidationError{Field: "period", Reason: "must be one of 1h, 24h, 7d"}
	}
	return p, nil
}

func parseSortBy(q url.Values) (domain.SortBy, error) {
	raw := q.Get("sortBy")
	if raw == "" {
		return "", nil
	}
	s := domain.SortBy(raw)
	if !s.IsValid() {
		return "", &ValidationError{Field: "sortBy", Reason: "must be one of volume, price_change, market_cap"}
	}
	return s, nil
}

func parseLimit(q url.Values, def, upper int) (int, error) {
	raw := q.Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > upper {
		return 0, &ValidationError{Field: "limit", Reason: "must be an integer between 1 and " + strconv.Itoa(upper)}
	}
	return n, nil
}

// parseListSpec reads period, sortBy, limit and cursor.
func parseListSpec(q url.Values) (domain.FilterSpec, error) {
	period, err := parsePeriod(q)
	if err != nil {
		return domain.FilterSpec{}, err
	}
	sortBy, err := parseSortBy(q)
	if err != nil {
		return domain.FilterSpec{}, err
	}
	limit, err := parseLimit(q, DefaultListLimit, MaxListLimit)
	if err != nil {
		return domain.FilterSpec{}, err
	}
	return domain.FilterSpec{
		Period: period,
		SortBy: sortBy,
		Limit:  limit,
		Cursor: q.Get("cursor"),
	}, nil
}

// parseTrendingSpec reads period, limit and cursor; the sort is fixed to price change.
func parseTrendingSpec(q url.Values) (domain.FilterSpec, error) {
	period, err := parsePeriod(q)
	if err != nil {
		return domain.FilterSpec{}, err
	}
	limit, err := parseLimit(q, DefaultTrendingLimit, MaxTrendingLimit)
	if err != nil {
		return domain.FilterSpec{}, err
	}
	return domain.FilterSpec{
		Period: period,
		SortBy: domain.SortByPriceChange,
		Limit:  limit,
		Cursor: q.Get("cursor"),
	}, nil
}
