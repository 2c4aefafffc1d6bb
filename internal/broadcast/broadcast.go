// Package broadcast publishes changed-record updates to downstream sinks.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-token-feed/internal/domain"
)

// UpdateKindChanged marks a payload carrying only records that changed.
const UpdateKindChanged = "changed"

// Update is the record-update payload pushed to subscribers.
type Update struct {
	Records        []*domain.Token     `json:"records"`
	SourceOfUpdate domain.UpdateSource `json:"sourceOfUpdate"`
	UpdateKind     string              `json:"updateKind"`
	Count          int                 `json:"count"`
	ObservedAt     time.Time           `json:"observedAt"`
}

// NewUpdate builds a changed-records update.
func NewUpdate(records []*domain.Token, source domain.UpdateSource, observedAt time.Time) Update {
	if records == nil {
		records = []*domain.Token{}
	}
	return Update{
		Records:        records,
		SourceOfUpdate: source,
		UpdateKind:     UpdateKindChanged,
		Count:          len(records),
		ObservedAt:     observedAt.UTC(),
	}
}

// Publisher delivers updates to one sink. Delivery is best-effort.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, u Update) error
}

// Fanout publishes to every sink; a failing sink does not stop the others.
type Fanout []Publisher

// Name implements Publisher.
func (f Fanout) Name() string {
	return "fanout"
}

// Publish implements Publisher. The returned error joins each sink's failure.
func (f Fanout) Publish(ctx context.Context, u Update) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, u); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
