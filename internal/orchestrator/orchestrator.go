// Package orchestrator drives one refresh cycle:
// fetch → normalize → merge → filter → diff → persist.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"solana-token-feed/internal/address"
	"solana-token-feed/internal/changes"
	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/filter"
	"solana-token-feed/internal/merge"
	"solana-token-feed/internal/normalization"
	"solana-token-feed/internal/observability"
	"solana-token-feed/internal/storage"
	"solana-token-feed/internal/upstream"
)

// ErrNoRecords is returned when every primary query failed. The cache is left untouched.
var ErrNoRecords = errors.New("no records produced: all primary queries failed")

// DefaultQueries are the primary-source search terms.
var DefaultQueries = []string{"pump", "bonk", "wif", "meme", "dog", "cat", "pepe", "frog", "moon"}

// DefaultConcurrency bounds concurrent primary queries.
const DefaultConcurrency = 3

// PrimarySource searches the membership-defining upstream.
type PrimarySource interface {
	Search(ctx context.Context, query string) (*upstream.DexScreenerSearchResponse, error)
}

// SecondarySource enriches known addresses in batches.
type SecondarySource interface {
	TokensMulti(ctx context.Context, addresses []string) (*upstream.GeckoTokensResponse, error)
	MaxBatch() int
}

// Orchestrator runs refresh cycles. It is safe for concurrent use; concurrent
// cycles each read their own prior snapshot and the last writer wins.
type Orchestrator struct {
	primary     PrimarySource
	secondary   SecondarySource
	store       *storage.RecordStore
	detector    *changes.Detector
	dexNorm     *normalization.DexScreenerNormalizer
	geckoNorm   *normalization.GeckoTerminalNormalizer
	queries     []string
	combos      []filter.Combo
	concurrency int
	logger      logrus.FieldLogger
	now         func() time.Time

	mu   sync.RWMutex
	last *Result
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Primary PrimarySource

	// Secondary may be nil: cycles then run primary-only.
	Secondary SecondarySource
	// Store may be nil: cycles then skip the prior read and write-through.
	Store *storage.RecordStore

	Queries     []string       // defaults to DefaultQueries
	Combos      []filter.Combo // defaults to filter.DefaultCombos
	Thresholds  *changes.Thresholds
	Concurrency int

	Logger logrus.FieldLogger
	Now    func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		primary:     opts.Primary,
		secondary:   opts.Secondary,
		store:       opts.Store,
		queries:     opts.Queries,
		combos:      opts.Combos,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if len(o.queries) == 0 {
		o.queries = DefaultQueries
	}
	if o.combos == nil {
		o.combos = filter.DefaultCombos
	}
	if o.concurrency <= 0 {
		o.concurrency = DefaultConcurrency
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}
	o.logger = o.logger.WithField("component", "orchestrator")
	if o.now == nil {
		o.now = time.Now
	}

	thresholds := changes.DefaultThresholds()
	if opts.Thresholds != nil {
		thresholds = *opts.Thresholds
	}
	o.detector = changes.NewDetector(thresholds)
	o.dexNorm = normalization.NewDexScreenerNormalizer(o.now)
	o.geckoNorm = normalization.NewGeckoTerminalNormalizer(o.now)
	return o
}

// Refresh runs one full cycle and writes the result through to the store.
// On ErrNoRecords the returned Result is in StateFailed and nothing was written.
func (o *Orchestrator) Refresh(ctx context.Context, trigger domain.UpdateSource) (*Result, error) {
	res := o.newResult(trigger)
	log := o.logger.WithFields(logrus.Fields{"cycle_id": res.CycleID, "trigger": trigger})
	log.Info("refresh cycle started")

	prior := o.readPrior(ctx, log, res)

	tokens, err := o.collect(ctx, log, res)
	if err != nil {
		o.finish(log, res, err)
		return res, err
	}

	o.enter(log, res, StateDiffing)
	diff := o.detector.Detect(tokens, prior)
	res.Changed = diff.Changed
	res.Added = diff.Added
	res.FailedOpen = diff.FailedOpen
	if diff.FailedOpen {
		log.WithError(diff.Err).Warn("change detection failed open; treating all records as changed")
	}

	o.enter(log, res, StatePersisting)
	o.persist(ctx, log, res, tokens)

	o.finish(log, res, nil)
	return res, nil
}

// Collect fetches, merges and filters without reading or writing the store.
// Callers use it to serve requests directly while the cache is unavailable.
func (o *Orchestrator) Collect(ctx context.Context) ([]*domain.Token, error) {
	res := o.newResult(domain.UpdateSourceManual)
	log := o.logger.WithFields(logrus.Fields{"cycle_id": res.CycleID, "mode": "collect"})
	return o.collect(ctx, log, res)
}

// Last returns the most recent completed Refresh result, or nil.
func (o *Orchestrator) Last() *Result {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

func (o *Orchestrator) newResult(trigger domain.UpdateSource) *Result {
	return &Result{
		CycleID:   uuid.NewString(),
		Trigger:   trigger,
		State:     StateFetching,
		StartedAt: o.now(),
	}
}

// readPrior loads the previous full set. Absence and cache failures both yield nil.
func (o *Orchestrator) readPrior(ctx context.Context, log logrus.FieldLogger, res *Result) []*domain.Token {
	if o.store == nil {
		return nil
	}
	prior, err := o.store.All(ctx)
	switch {
	case err == nil:
		return prior
	case errors.Is(err, storage.ErrNotFound):
		log.Debug("no prior snapshot")
	default:
		res.CacheErrors++
		log.WithError(err).Warn("read prior snapshot failed; treating as absent")
	}
	return nil
}

// collect runs FETCHING through FILTERING.
func (o *Orchestrator) collect(ctx context.Context, log logrus.FieldLogger, res *Result) ([]*domain.Token, error) {
	o.enter(log, res, StateFetching)
	responses, err := o.fetchPrimary(ctx, log, res)
	if err != nil {
		return nil, err
	}

	o.enter(log, res, StateNormalizing)
	primary := o.normalizePrimary(log, res, responses)
	secondary := o.enrich(ctx, log, res, normalization.Addresses(primary))

	o.enter(log, res, StateMerging)
	merged := merge.MergeSets(primary, secondary)

	o.enter(log, res, StateFiltering)
	tokens := filter.Dashboard(merged)
	res.Tokens = tokens
	res.Filtered = len(merged) - len(tokens)
	return tokens, nil
}

// fetchPrimary runs every query, bounded by o.concurrency. Responses keep query order.
func (o *Orchestrator) fetchPrimary(ctx context.Context, log logrus.FieldLogger, res *Result) ([]*upstream.DexScreenerSearchResponse, error) {
	responses := make([]*upstream.DexScreenerSearchResponse, len(o.queries))
	errs := make([]error, len(o.queries))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, q := range o.queries {
		g.Go(func() error {
			resp, err := o.primary.Search(ctx, q)
			if err != nil {
				errs[i] = &upstream.FetchError{Source: domain.SourceDexScreener, Query: q, Err: err}
				return nil
			}
			responses[i] = resp
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
			log.WithError(err).Warn("primary query failed; skipping")
		}
	}
	res.FailedQueries = len(failed)

	if len(failed) == len(o.queries) {
		return nil, fmt.Errorf("%w: %w", ErrNoRecords, errors.Join(failed...))
	}
	return responses, nil
}

// normalizePrimary normalizes per query, then dedupes by address in query order.
// Records whose address fails validation are dropped.
func (o *Orchestrator) normalizePrimary(log logrus.FieldLogger, res *Result, responses []*upstream.DexScreenerSearchResponse) []*domain.Token {
	groups := make([][]*domain.Token, 0, len(responses))
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		nr := o.dexNorm.Normalize(resp)
		o.reportDropped(log, res, domain.SourceDexScreener, nr.Dropped)
		groups = append(groups, nr.Tokens)
	}

	deduped := normalization.DedupeByAddress(groups...)
	valid := slice.Filter(deduped, func(_ int, t *domain.Token) bool {
		return address.IsValid(t.Address)
	})
	if n := len(deduped) - len(valid); n > 0 {
		res.Dropped += n
		observability.RecordDroppedRecords(domain.SourceDexScreener, n)
		log.WithField("count", n).Debug("dropped records with invalid addresses")
	}
	res.Primary = len(valid)
	return valid
}

// enrich queries the secondary source in batches. A failed batch contributes nothing.
func (o *Orchestrator) enrich(ctx context.Context, log logrus.FieldLogger, res *Result, addrs []string) []*domain.Token {
	if o.secondary == nil {
		return nil
	}
	valid := address.Filter(addrs)
	if len(valid) == 0 {
		return nil
	}

	size := o.secondary.MaxBatch()
	if size <= 0 {
		size = len(valid)
	}

	var out []*domain.Token
	for _, batch := range slice.Chunk(valid, size) {
		resp, err := o.secondary.TokensMulti(ctx, batch)
		if err != nil {
			res.EnrichErrors++
			err = &upstream.EnrichError{Source: domain.SourceGeckoTerminal, BatchSize: len(batch), Err: err}
			log.WithError(err).Warn("enrichment batch failed; continuing with primary data")
			continue
		}
		nr := o.geckoNorm.Normalize(resp)
		o.reportDropped(log, res, domain.SourceGeckoTerminal, nr.Dropped)
		out = append(out, nr.Tokens...)
	}
	res.Enriched = len(out)
	return out
}

// persist writes the full set, per-address records and precomputed listings.
// Failures are counted and logged; none abort the cycle.
func (o *Orchestrator) persist(ctx context.Context, log logrus.FieldLogger, res *Result, tokens []*domain.Token) {
	if o.store == nil {
		return
	}
	record := func(what string, err error) {
		if err != nil {
			res.CacheErrors++
			log.WithError(err).WithField("write", what).Warn("cache write failed")
		}
	}

	record(storage.KeyAllRecords, o.store.PutAll(ctx, tokens))
	record("record:*", o.store.PutEach(ctx, tokens))

	for _, c := range o.combos {
		key := storage.ComboKey(c.Period, c.SortBy, c.Limit)
		record(key, o.store.PutPage(ctx, key, filter.Apply(tokens, c.Spec())))
	}

	if sw, ok := o.store.Cache().(storage.Sweeper); ok {
		n, err := sw.Sweep(ctx)
		if err != nil {
			log.WithError(err).Debug("cache sweep failed")
		} else if n > 0 {
			log.WithField("swept", n).Debug("expired cache entries removed")
		}
	}
}

func (o *Orchestrator) reportDropped(log logrus.FieldLogger, res *Result, source string, dropped []*normalization.MalformedRecordError) {
	if len(dropped) == 0 {
		return
	}
	res.Dropped += len(dropped)
	observability.RecordDroppedRecords(source, len(dropped))
	for _, d := range dropped {
		log.WithError(d).Debug("dropped malformed record")
	}
}

func (o *Orchestrator) enter(log logrus.FieldLogger, res *Result, s State) {
	res.State = s
	log.WithField("state", s).Debug("cycle state")
}

func (o *Orchestrator) finish(log logrus.FieldLogger, res *Result, err error) {
	res.Duration = o.now().Sub(res.StartedAt)
	outcome := "success"
	if err != nil {
		res.State = StateFailed
		res.Err = err
		outcome = "failed"
		log.WithError(err).Error("refresh cycle failed; cache left untouched")
	} else {
		res.State = StateDone
		observability.RecordCycleRecords(len(res.Tokens), len(res.Changed), float64(o.now().Unix()))
		log.WithFields(res.Fields()).Info("refresh cycle complete")
	}
	observability.RecordCycle(res.Trigger.String(), outcome, res.Duration.Seconds())

	o.mu.Lock()
	o.last = res
	o.mu.Unlock()
}
