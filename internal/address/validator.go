// Package address validates Solana token addresses.
package address

import (
	"strings"

	"github.com/mr-tron/base58"
)

const (
	MinLength = 32
	MaxLength = 44

	// nullRun is the length of a zero run treated as a null/burn placeholder.
	nullRun = 40
)

var nullMarker = strings.Repeat("0", nullRun)

// IsValid reports whether s looks like a Solana token address.
// It rejects foreign-ledger formats (0x hex, dotted names, ibc/ denoms),
// lengths outside [32,44], characters outside the base58 alphabet and
// long runs of zeros. It never panics.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return false
	}
	if strings.Contains(s, ".") || strings.Contains(s, "ibc/") {
		return false
	}
	if len(s) < MinLength || len(s) > MaxLength {
		return false
	}
	if strings.Contains(s, nullMarker) {
		return false
	}
	if !isBase58(s) {
		return false
	}
	// The decoder is the authority on the alphabet; a decode failure means
	// something slipped past the byte scan.
	if _, err := base58.Decode(s); err != nil {
		return false
	}
	return true
}

// Filter returns the valid addresses from in, preserving order.
func Filter(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if IsValid(a) {
			out = append(out, a)
		}
	}
	return out
}

// isBase58 checks every byte against the Bitcoin base58 alphabet
// (no 0, O, I or l).
func isBase58(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '1' && c <= '9':
		case c >= 'A' && c <= 'Z' && c != 'I' && c != 'O':
		case c >= 'a' && c <= 'z' && c != 'l':
		default:
			return false
		}
	}
	return true
}
