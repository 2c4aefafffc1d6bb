// Package api serves the HTTP request surface: token listings, single-record
// lookups, manual refresh, health and status.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"solana-token-feed/internal/address"
	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/feed"
	"solana-token-feed/internal/observability"
	"solana-token-feed/internal/orchestrator"
	"solana-token-feed/internal/storage"
)

// HealthTimeout bounds the cache ping behind /health.
const HealthTimeout = 2 * time.Second

// FeedService runs manual refreshes and reports run counters.
type FeedService interface {
	Refresh(ctx context.Context, trigger domain.UpdateSource) (*feed.Outcome, error)
	Stats() feed.Stats
}

// CycleReporter exposes the last completed cycle.
type CycleReporter interface {
	Last() *orchestrator.Result
}

// Hub is the websocket endpoint and its subscriber count.
type Hub interface {
	http.Handler
	Count() int
}

// Options for creating Server.
type Options struct {
	Query *QueryService
	Store *storage.RecordStore

	// Optional
	Feed        FeedService
	Cycles      CycleReporter
	Hub         Hub
	MetricsPath string
	Logger      logrus.FieldLogger
}

// Server routes API requests.
type Server struct {
	query       *QueryService
	store       *storage.RecordStore
	feed        FeedService
	cycles      CycleReporter
	hub         Hub
	metricsPath string
	logger      logrus.FieldLogger
	startedAt   time.Time
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	s := &Server{
		query:       opts.Query,
		store:       opts.Store,
		feed:        opts.Feed,
		cycles:      opts.Cycles,
		hub:         opts.Hub,
		metricsPath: opts.MetricsPath,
		logger:      opts.Logger,
		startedAt:   time.Now(),
	}
	if s.query == nil {
		s.query = NewQueryService(s.store, nil, s.logger)
	}
	if s.metricsPath == "" {
		s.metricsPath = "/metrics"
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	s.logger = s.logger.WithField("component", "api")
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/tokens", s.handleList)
	mux.HandleFunc("GET /api/tokens/trending", s.handleTrending)
	mux.HandleFunc("GET /api/tokens/{address}", s.handleGet)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET "+s.metricsPath, observability.Handler())
	if s.hub != nil {
		mux.Handle("GET /ws", s.hub)
	}

	return s.instrument(mux)
}

// ListResponse is the body of the listing endpoints.
type ListResponse struct {
	Data       []*domain.Token `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// Pagination carries cursor metadata. HasNext is true whenever the page is full.
type Pagination struct {
	Limit      int    `json:"limit"`
	HasNext    bool   `json:"hasNext"`
	NextCursor string `json:"nextCursor,omitempty"`
}

func newListResponse(p domain.Page) ListResponse {
	data := p.Tokens
	if data == nil {
		data = []*domain.Token{}
	}
	return ListResponse{
		Data:       data,
		Pagination: Pagination{Limit: p.Limit, HasNext: p.HasNext, NextCursor: p.NextCursor},
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	spec, err := parseListSpec(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.servePage(w, r, spec)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	spec, err := parseTrendingSpec(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.servePage(w, r, spec)
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, spec domain.FilterSpec) {
	page, err := s.query.List(r.Context(), spec)
	if err != nil {
		s.logger.WithError(err).Error("listing failed")
		writeError(w, http.StatusBadGateway, errors.New("token data unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	addr := r.PathValue("address")
	if !address.IsValid(addr) {
		writeError(w, http.StatusBadRequest, &ValidationError{Field: "address", Reason: "not a valid token address"})
		return
	}

	t, err := s.query.Get(r.Context(), addr)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, t)
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, errors.New("token not found"))
	default:
		s.logger.WithError(err).WithField("address", addr).Error("lookup failed")
		writeError(w, http.StatusBadGateway, errors.New("token data unavailable"))
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("refresh not available"))
		return
	}
	out, err := s.feed.Refresh(r.Context(), domain.UpdateSourceManual)
	if err != nil {
		s.logger.WithError(err).Error("manual refresh failed")
		writeError(w, http.StatusInternalServerError, errors.New("refresh failed"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Cache       string `json:"cache"`
	Subscribers int    `json:"subscribers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Cache: "reachable"}
	if s.hub != nil {
		resp.Subscribers = s.hub.Count()
	}

	status := http.StatusOK
	if s.store == nil {
		resp.Cache = "disabled"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), HealthTimeout)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.WithError(err).Warn("health: cache unreachable")
			resp.Status = "degraded"
			resp.Cache = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

// StatusResponse is the body of /status.
type StatusResponse struct {
	Status      string        `json:"status"`
	Uptime      string        `json:"uptime"`
	StartedAt   time.Time     `json:"started_at"`
	Subscribers int           `json:"subscribers"`
	Feed        *feed.Stats   `json:"feed,omitempty"`
	LastCycle   *CycleSummary `json:"last_cycle,omitempty"`
}

// CycleSummary is the wire form of orchestrator.Result.
type CycleSummary struct {
	CycleID       string              `json:"cycle_id"`
	Trigger       domain.UpdateSource `json:"trigger"`
	State         orchestrator.State  `json:"state"`
	Records       int                 `json:"records"`
	Changed       int                 `json:"changed"`
	Added         int                 `json:"added"`
	Dropped       int                 `json:"dropped"`
	FailedQueries int                 `json:"failed_queries"`
	EnrichErrors  int                 `json:"enrich_errors"`
	CacheErrors   int                 `json:"cache_errors"`
	FailedOpen    bool                `json:"failed_open"`
	Error         string              `json:"error,omitempty"`
	StartedAt     time.Time           `json:"started_at"`
	DurationMs    int64               `json:"duration_ms"`
}

func newCycleSummary(r *orchestrator.Result) *CycleSummary {
	cs := &CycleSummary{
		CycleID:       r.CycleID,
		Trigger:       r.Trigger,
		State:         r.State,
		Records:       len(r.Tokens),
		Changed:       len(r.Changed),
		Added:         r.Added,
		Dropped:       r.Dropped,
		FailedQueries: r.FailedQueries,
		EnrichErrors:  r.EnrichErrors,
		CacheErrors:   r.CacheErrors,
		FailedOpen:    r.FailedOpen,
		StartedAt:     r.StartedAt,
		DurationMs:    r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		cs.Error = r.Err.Error()
	}
	return cs
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:    "running",
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		StartedAt: s.startedAt,
	}
	if s.hub != nil {
		resp.Subscribers = s.hub.Count()
	}
	if s.feed != nil {
		stats := s.feed.Stats()
		resp.Feed = &stats
	}
	if s.cycles != nil {
		if last := s.cycles.Last(); last != nil {
			resp.LastCycle = newCycleSummary(last)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
