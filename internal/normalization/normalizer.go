// Package normalization maps raw upstream payloads into canonical token records.
// The upstream payload structs are the shape check: nothing past this package
// touches raw provider fields.
package normalization

import (
	"strings"
	"time"

	"solana-token-feed/internal/domain"
)

// Result is the output of one normalization pass.
type Result struct {
	Tokens  []*domain.Token
	Dropped []*MalformedRecordError
}

// identity holds the fields every record must carry.
type identity struct {
	address, name, ticker string
}

// checkIdentity trims the identity fields and reports which one is missing.
func checkIdentity(address, name, ticker string) (identity, string) {
	id := identity{
		address: strings.TrimSpace(address),
		name:    strings.TrimSpace(name),
		ticker:  strings.TrimSpace(ticker),
	}
	switch {
	case id.address == "":
		return id, "missing address"
	case id.name == "":
		return id, "missing name"
	case id.ticker == "":
		return id, "missing ticker"
	}
	return id, ""
}

// clock returns now, or time.Now when now is nil.
func clock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
