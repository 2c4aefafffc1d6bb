package orchestrator

import (
	"time"

	"github.com/sirupsen/logrus"

	"solana-token-feed/internal/domain"
)

// State is a refresh cycle phase.
type State string

const (
	StateFetching    State = "FETCHING"
	StateNormalizing State = "NORMALIZING"
	StateMerging     State = "MERGING"
	StateFiltering   State = "FILTERING"
	StateDiffing     State = "DIFFING"
	StatePersisting  State = "PERSISTING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// Result describes one refresh cycle.
type Result struct {
	CycleID string
	Trigger domain.UpdateSource
	State   State

	// Tokens is the full filtered set; Changed is the subset to publish.
	Tokens  []*domain.Token
	Changed []*domain.Token

	Primary       int // valid, deduplicated primary records
	Enriched      int // secondary records normalized
	Dropped       int // malformed or invalid records dropped
	Filtered      int // merged records removed by the dashboard gate
	Added         int // changed records with no prior counterpart
	FailedQueries int
	EnrichErrors  int
	CacheErrors   int
	FailedOpen    bool

	// Err is set when the cycle ended in StateFailed.
	Err error

	StartedAt time.Time
	Duration  time.Duration
}

// Fields returns the cycle summary as log fields.
func (r *Result) Fields() logrus.Fields {
	return logrus.Fields{
		"state":          r.State,
		"records":        len(r.Tokens),
		"changed":        len(r.Changed),
		"added":          r.Added,
		"primary":        r.Primary,
		"enriched":       r.Enriched,
		"dropped":        r.Dropped,
		"filtered":       r.Filtered,
		"failed_queries": r.FailedQueries,
		"enrich_errors":  r.EnrichErrors,
		"cache_errors":   r.CacheErrors,
		"failed_open":    r.FailedOpen,
		"duration_ms":    r.Duration.Milliseconds(),
	}
}
