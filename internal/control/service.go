package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/matchfeed/internal/core/clock"
	"github.com/vietddude/matchfeed/internal/core/config"
	"github.com/vietddude/matchfeed/internal/core/domain"
	"github.com/vietddude/matchfeed/internal/infra/health"
	redisclient "github.com/vietddude/matchfeed/internal/infra/redis"
	"github.com/vietddude/matchfeed/internal/matching/breaker"
	"github.com/vietddude/matchfeed/internal/matching/cache"
	"github.com/vietddude/matchfeed/internal/matching/gateway"
	"github.com/vietddude/matchfeed/internal/matching/recovery"
	"github.com/vietddude/matchfeed/internal/matching/session"
	"github.com/vietddude/matchfeed/internal/matching/swipe"
)

// Service is the session-scoped facade consumed by the UI layer. It wires
// the gateway through the circuit breaker into the cache, the swipe
// recorder, the presentation session, and the error recovery controller.
type Service struct {
	cfg      *config.AppConfig
	gw       *gateway.Client
	breaker  *breaker.Breaker
	cache    *cache.Cache
	recorder *swipe.Recorder
	session  *session.Controller
	recovery *recovery.Controller

	healthServer *health.Server
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewService creates a Service with all dependencies initialized. The
// callbacks deliver presentation and navigation signals to the UI
// collaborator; zero-value callbacks are fine for headless use.
func NewService(cfg *config.AppConfig, cb session.Callbacks, log *slog.Logger) (*Service, error) {
	if cfg.Matching.BaseURL == "" {
		return nil, fmt.Errorf("matching base_url is required")
	}

	clk := clock.NewReal()

	s := &Service{
		cfg: cfg,
		log: log,
	}

	s.gw = gateway.New(gateway.Config{
		BaseURL:   cfg.Matching.BaseURL,
		AuthToken: cfg.Matching.AuthToken,
		Timeout:   cfg.Matching.FetchTimeout,
	}, log)

	s.breaker = breaker.New(breaker.Config{
		Threshold: cfg.Breaker.Threshold,
		Cooldown:  cfg.Breaker.Cooldown,
	}, clk, log)

	s.cache = cache.New(s.guardedFetch, clk, log)

	// Analytics is optional; without Redis the recorder runs sinkless.
	var sink swipe.Analytics
	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		s.redisClient = client
		sink = redisclient.NewAnalyticsSink(client)
	}
	s.recorder = swipe.New(s.gw, s.cache, sink, log)

	// Presenting a candidate warms the cache with the next small batch.
	wrapped := cb
	wrapped.OnPresent = func(cand domain.Candidate) {
		go func() {
			if err := s.cache.Preload(context.Background(), cfg.Matching.PreloadBatchSize); err != nil {
				log.Warn("Preload failed", "error", err)
			}
		}()
		if cb.OnPresent != nil {
			cb.OnPresent(cand)
		}
	}

	s.session = session.NewController(
		s.cache, s.recorder, s.gw, clk, cfg.Matching.DeclineDelay, wrapped, log)
	s.recovery = recovery.New(&recoveryOps{s: s}, clk, log)

	s.healthServer = health.NewServer(s, cfg.Server.Port)

	return s, nil
}

// recoveryOps adapts the session for the recovery controller. Reset covers
// the whole local footprint: session state and the cache's candidates,
// cursor, and filters all go.
type recoveryOps struct {
	s *Service
}

func (o *recoveryOps) Start(ctx context.Context, requestID string, filters domain.FetchFilters) error {
	return o.s.session.Start(ctx, requestID, filters)
}

func (o *recoveryOps) Accept(ctx context.Context) error {
	return o.s.session.Accept(ctx)
}

func (o *recoveryOps) Decline(ctx context.Context) error {
	return o.s.session.Decline(ctx)
}

func (o *recoveryOps) Reset() {
	o.s.session.Reset()
	o.s.cache.Clear()
}

// guardedFetch routes page fetches through the circuit breaker. While the
// circuit is open the fallback substitutes an empty page so the UI keeps
// working during an outage instead of seeing the failure.
func (s *Service) guardedFetch(
	ctx context.Context,
	filters domain.FetchFilters,
	excludeIDs []string,
) (*domain.Page, error) {
	result, err := s.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
		return s.gw.FetchMatches(ctx, filters, excludeIDs)
	}, func() (any, error) {
		s.log.Warn("Circuit open, serving empty page")
		return &domain.Page{}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Page), nil
}

// Start launches the health/metrics server.
func (s *Service) Start(ctx context.Context) error {
	go func() {
		if err := s.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Health server failed", "error", err)
		}
	}()
	s.log.Info("Service started", "port", s.cfg.Server.Port)
	return nil
}

// Stop tears down the session, cache, and health server.
func (s *Service) Stop(ctx context.Context) error {
	s.Cleanup()

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn("Redis close failed", "error", err)
		}
	}
	return s.healthServer.Stop(ctx)
}

// LoadInitialMatches discards prior cache state and fetches the first page.
func (s *Service) LoadInitialMatches(ctx context.Context, filters domain.FetchFilters) ([]domain.Candidate, error) {
	batch, err := s.cache.LoadInitial(ctx, filters)
	if err != nil {
		return nil, s.recovery.Capture(err)
	}
	return batch, nil
}

// GetNextMatches fetches the next page of up to limit candidates.
func (s *Service) GetNextMatches(ctx context.Context, limit int) ([]domain.Candidate, error) {
	batch, err := s.cache.GetNext(ctx, limit)
	if err != nil {
		return nil, s.recovery.Capture(err)
	}
	return batch, nil
}

// PreloadNextBatch warms the cache in the background. Failures are logged,
// never surfaced; the next foreground fetch reports them properly.
func (s *Service) PreloadNextBatch(ctx context.Context) {
	if err := s.cache.Preload(ctx, s.cfg.Matching.PreloadBatchSize); err != nil {
		s.log.Warn("Preload failed", "error", err)
	}
}

// RecordSwipe posts an accept/decline decision for a candidate.
func (s *Service) RecordSwipe(ctx context.Context, swipedID string, swipeType domain.SwipeType) (*domain.SwipeResult, error) {
	result, err := s.recorder.Record(ctx, swipedID, swipeType)
	if err != nil {
		return nil, s.recovery.Capture(err)
	}
	return result, nil
}

// HasBeenViewed reports whether a candidate id was ever swiped or declined.
func (s *Service) HasBeenViewed(id string) bool {
	return s.cache.HasBeenViewed(id)
}

// GetCacheStats returns cache bookkeeping for the UI.
func (s *Service) GetCacheStats() cache.Stats {
	return s.cache.Stats()
}

// ClearCache drops all cached candidates and cursor state.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// Cleanup tears down session and cache state. Used on identity change and
// shutdown.
func (s *Service) Cleanup() {
	s.session.Reset()
	s.cache.Clear()
}

// StartFetchingPotentialMatches begins a presentation session for a match
// request. Duplicate calls for the active request id are no-ops.
func (s *Service) StartFetchingPotentialMatches(ctx context.Context, requestID string, filters domain.FetchFilters) error {
	s.recovery.RecordOperation(recovery.Operation{
		Type:      recovery.OpFetch,
		RequestID: requestID,
		Filters:   filters,
	})

	if err := s.session.Start(ctx, requestID, filters); err != nil {
		return s.recovery.Capture(err)
	}
	return nil
}

// AcceptCurrentPotentialMatch confirms the currently presented candidate.
func (s *Service) AcceptCurrentPotentialMatch(ctx context.Context) error {
	s.recovery.RecordOperation(recovery.Operation{Type: recovery.OpAccept})

	if err := s.session.Accept(ctx); err != nil {
		return s.recovery.Capture(err)
	}
	return nil
}

// DeclineCurrentPotentialMatch drops the currently presented candidate.
func (s *Service) DeclineCurrentPotentialMatch(ctx context.Context) error {
	s.recovery.RecordOperation(recovery.Operation{Type: recovery.OpDecline})

	if err := s.session.Decline(ctx); err != nil {
		return s.recovery.Capture(err)
	}
	return nil
}

// CurrentPotentialMatch returns the candidate currently on offer.
func (s *Service) CurrentPotentialMatch() (domain.Candidate, bool) {
	return s.session.Current()
}

// RetryLastOperation replays the last fetch/accept/decline.
func (s *Service) RetryLastOperation(ctx context.Context) error {
	return s.recovery.RetryLast(ctx)
}

// ClearError drops the current error state.
func (s *Service) ClearError() {
	s.recovery.ClearError()
}

// RecoverFromError performs a full local reset without network calls.
func (s *Service) RecoverFromError() {
	s.recovery.Recover()
}

// GetErrorState returns the recovery controller snapshot.
func (s *Service) GetErrorState() recovery.ErrorState {
	return s.recovery.State()
}

// GetCircuitBreakerState returns the breaker snapshot.
func (s *Service) GetCircuitBreakerState() breaker.Snapshot {
	return s.breaker.GetSnapshot()
}

// HealthReport implements health.Reporter.
func (s *Service) HealthReport() health.Report {
	snap := s.breaker.GetSnapshot()
	stats := s.cache.Stats()
	errState := s.recovery.State()

	status := health.StatusHealthy
	if snap.State == breaker.StateOpen {
		status = health.StatusCritical
	} else if snap.State == breaker.StateHalfOpen || errState.HasError {
		status = health.StatusDegraded
	}

	return health.Report{
		Status:       status,
		CircuitState: snap.State.String(),
		SessionPhase: s.session.Phase().String(),
		CacheSize:    stats.CacheSize,
		QueueDepth:   s.session.QueueLen(),
		HasError:     errState.HasError,
	}
}
