package normalization

import (
	"github.com/duke-git/lancet/v2/slice"

	"solana-token-feed/internal/domain"
)

// DedupeByAddress flattens per-query results, keeping the first record seen
// for each address. Groups are visited in order, so the outcome depends on
// the query list order and not on fetch completion order.
func DedupeByAddress(groups ...[]*domain.Token) []*domain.Token {
	seen := make(map[string]struct{})
	return slice.Filter(slice.Concat(groups...), func(_ int, t *domain.Token) bool {
		if t == nil {
			return false
		}
		if _, ok := seen[t.Address]; ok {
			return false
		}
		seen[t.Address] = struct{}{}
		return true
	})
}

// Addresses returns the addresses of tokens in order.
func Addresses(tokens []*domain.Token) []string {
	return slice.Map(tokens, func(_ int, t *domain.Token) string {
		return t.Address
	})
}
