package storage

import (
	"strconv"

	"solana-token-feed/internal/domain"
)

// KeyAllRecords holds the full record set of the latest successful cycle.
const KeyAllRecords = "records:all"

// RecordKey returns the per-address key.
func RecordKey(address string) string {
	return "record:" + address
}

// ComboKey returns the key of a precomputed listing: records:{period|all}:{sortBy|default}:{limit|all}.
func ComboKey(period domain.Period, sortBy domain.SortBy, limit int) string {
	p := "all"
	if period != "" {
		p = period.String()
	}
	s := "default"
	if sortBy != "" {
		s = sortBy.String()
	}
	l := "all"
	if limit > 0 {
		l = strconv.Itoa(limit)
	}
	return "records:" + p + ":" + s + ":" + l
}
