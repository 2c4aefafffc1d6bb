// Package reporting renders refresh cycle results for humans and spreadsheets.
package reporting

import (
	"math"
	"sort"
	"time"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/orchestrator"
)

// DefaultTopMovers is how many records the movers table lists.
const DefaultTopMovers = 10

// Report is a rendered view of one refresh cycle.
type Report struct {
	GeneratedAt time.Time
	CycleID     string
	Trigger     domain.UpdateSource
	State       orchestrator.State
	Duration    time.Duration
	Error       string

	Records       int
	Changed       int
	Added         int
	Dropped       int
	Filtered      int
	FailedQueries int
	EnrichErrors  int
	CacheErrors   int
	FailedOpen    bool

	// TopMovers holds records ordered by absolute 1h price change.
	TopMovers []*domain.Token
}

// FromResult builds a Report from a cycle result. A nil result yields a
// failed report.
func FromResult(res *orchestrator.Result, generatedAt time.Time, topN int) *Report {
	r := &Report{GeneratedAt: generatedAt.UTC(), State: orchestrator.StateFailed}
	if res == nil {
		return r
	}

	r.CycleID = res.CycleID
	r.Trigger = res.Trigger
	r.State = res.State
	r.Duration = res.Duration
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	r.Records = len(res.Tokens)
	r.Changed = len(res.Changed)
	r.Added = res.Added
	r.Dropped = res.Dropped
	r.Filtered = res.Filtered
	r.FailedQueries = res.FailedQueries
	r.EnrichErrors = res.EnrichErrors
	r.CacheErrors = res.CacheErrors
	r.FailedOpen = res.FailedOpen
	r.TopMovers = TopMovers(res.Tokens, topN)
	return r
}

// TopMovers returns up to n records with the largest absolute 1h price
// change. Ties break on address so output is deterministic.
func TopMovers(tokens []*domain.Token, n int) []*domain.Token {
	if n <= 0 {
		return nil
	}
	out := make([]*domain.Token, 0, len(tokens))
	for _, t := range tokens {
		if t != nil {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].PriceChange1h), math.Abs(out[j].PriceChange1h)
		if ai != aj {
			return ai > aj
		}
		return out[i].Address < out[j].Address
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
