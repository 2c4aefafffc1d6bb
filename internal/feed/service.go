// Package feed runs refresh cycles and publishes what changed.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"solana-token-feed/internal/broadcast"
	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/orchestrator"
)

// Refresher runs one aggregation cycle.
type Refresher interface {
	Refresh(ctx context.Context, trigger domain.UpdateSource) (*orchestrator.Result, error)
}

// Outcome summarizes one Service.Refresh call.
type Outcome struct {
	CycleID   string              `json:"cycleId"`
	Trigger   domain.UpdateSource `json:"trigger"`
	Records   int                 `json:"records"`
	Changed   int                 `json:"changed"`
	Published bool                `json:"published"`
	// NoUpdate is set when the cycle produced nothing because every primary query failed.
	NoUpdate bool          `json:"noUpdate"`
	Duration time.Duration `json:"-"`
}

// Stats are cumulative run counters.
type Stats struct {
	Runs        int       `json:"runs"`
	Failures    int       `json:"failures"`
	LastRun     time.Time `json:"lastRun,omitempty"`
	LastSuccess time.Time `json:"lastSuccess,omitempty"`
	LastChanged int       `json:"lastChanged"`
	LastRecords int       `json:"lastRecords"`
}

// Service ties a Refresher to a Publisher. Only changed records are ever published.
type Service struct {
	refresher Refresher
	publisher broadcast.Publisher
	logger    logrus.FieldLogger
	now       func() time.Time

	mu    sync.Mutex
	stats Stats
}

// NewService creates a Service. publisher may be nil.
func NewService(refresher Refresher, publisher broadcast.Publisher, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		refresher: refresher,
		publisher: publisher,
		logger:    logger.WithField("component", "feed"),
		now:       time.Now,
	}
}

// Refresh runs a cycle and publishes its changed subset.
// A cycle with no primary data is reported as NoUpdate, not as an error.
func (s *Service) Refresh(ctx context.Context, trigger domain.UpdateSource) (*Outcome, error) {
	start := s.now()
	res, err := s.refresher.Refresh(ctx, trigger)

	out := &Outcome{Trigger: trigger}
	if res != nil {
		out.CycleID = res.CycleID
	}

	if err != nil {
		s.record(start, nil, err)
		if errors.Is(err, orchestrator.ErrNoRecords) {
			out.NoUpdate = true
			out.Duration = s.now().Sub(start)
			return out, nil
		}
		return nil, err
	}

	out.Records = len(res.Tokens)
	out.Changed = len(res.Changed)

	if len(res.Changed) > 0 && s.publisher != nil {
		u := broadcast.NewUpdate(res.Changed, trigger, s.now())
		if err := s.publisher.Publish(ctx, u); err != nil {
			s.logger.WithError(err).WithField("cycle_id", res.CycleID).Warn("publish failed")
		} else {
			out.Published = true
		}
	}

	out.Duration = s.now().Sub(start)
	s.record(start, res, nil)
	s.logger.WithFields(logrus.Fields{
		"cycle_id":  out.CycleID,
		"trigger":   trigger,
		"records":   out.Records,
		"changed":   out.Changed,
		"published": out.Published,
	}).Info("feed refreshed")
	return out, nil
}

// RunScheduled is a scheduler job.
func (s *Service) RunScheduled(ctx context.Context) {
	if _, err := s.Refresh(ctx, domain.UpdateSourceScheduler); err != nil && ctx.Err() == nil {
		s.logger.WithError(err).Error("scheduled refresh failed")
	}
}

// Stats returns a snapshot of run counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Service) record(start time.Time, res *orchestrator.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Runs++
	s.stats.LastRun = start
	if err != nil {
		s.stats.Failures++
		return
	}
	s.stats.LastSuccess = start
	s.stats.LastChanged = len(res.Changed)
	s.stats.LastRecords = len(res.Tokens)
}
