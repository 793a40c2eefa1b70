// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/claimmix/internal/adapters/cache"
	"github.com/okian/claimmix/internal/domain/severity"
	"github.com/okian/claimmix/internal/domain/types"
	"github.com/okian/claimmix/pkg/logger"
	"github.com/okian/claimmix/pkg/metrics"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrTooManyPairs   = errors.New("too many pairs in batch")
	ErrTooManyBuckets = errors.New("too many categories in period")
)

// Service implements the API dependencies for the decomposition engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	results *cache.LRU[severity.Result]

	// Configuration
	workerCount   int
	cacheSize     int
	cacheTTL      time.Duration
	maxBatchSize  int
	maxCategories int
	now           func() time.Time

	// State
	started        bool
	decompositions atomic.Int64
	failures       atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets how many batch pairs are decomposed in parallel.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithCache sets the result cache size and TTL. A size of 0 disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
		if ttl >= 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithMaxBatchSize caps the number of pairs accepted by DecomposeBatch.
func WithMaxBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithMaxCategories caps the number of buckets in a single period.
func WithMaxCategories(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCategories = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		cacheSize:     4096,
		cacheTTL:      10 * time.Minute,
		maxBatchSize:  500,
		maxCategories: 1000,
		now:           time.Now,
		logger:        nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.results = cache.New[severity.Result](
		cache.WithMaxSize(s.cacheSize),
		cache.WithTTL(s.cacheTTL),
		cache.WithEvictionHook(metrics.RecordCacheEviction),
	)
	metrics.UpdateWorkerCount(s.workerCount)
	metrics.UpdateCacheEntries(0)

	s.started = true
	s.logger.Info(ctx, "decomposition service started",
		logger.Int("workers", s.workerCount),
		logger.Int("cacheSize", s.cacheSize),
		logger.Duration("cacheTTL", s.cacheTTL),
		logger.Int("maxBatchSize", s.maxBatchSize),
	)
	return nil
}

// Stop releases the service components.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.results = nil
	s.started = false
	s.logger.Info(context.Background(), "decomposition service stopped",
		logger.Int("decompositions", int(s.decompositions.Load())),
	)
}

func (s *Service) resultCache() (*cache.LRU[severity.Result], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.results, nil
}

// Decompose splits the change in average severity between the two periods.
// When detail is true the two orderings are included in the result.
func (s *Service) Decompose(ctx context.Context, baseline, comparison severity.Period, detail bool) (types.Decomposition, error) {
	results, err := s.resultCache()
	if err != nil {
		return types.Decomposition{}, err
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordDecomposition(metrics.OutcomeCanceled)
		return types.Decomposition{}, err
	}
	if err := s.checkSize(baseline, comparison); err != nil {
		return types.Decomposition{}, err
	}

	out := types.Decomposition{
		ID:         uuid.New().String(),
		ComputedAt: s.now().UTC(),
	}

	key := fingerprint(baseline, comparison)
	if !detail {
		if res, ok := results.Get(key); ok {
			metrics.RecordCacheHit()
			out.Result = res
			out.Cached = true
			s.decompositions.Add(1)
			metrics.RecordDecomposition(metrics.OutcomeOK)
			return out, nil
		}
		if results.Enabled() {
			metrics.RecordCacheMiss()
		}
	}

	start := time.Now()
	res, paths, err := severity.DecomposeDetailed(baseline, comparison)
	metrics.RecordDecompositionLatency(time.Since(start))
	if err != nil {
		s.failures.Add(1)
		outcome := Outcome(err)
		metrics.RecordDecomposition(outcome)
		metrics.RecordErrorByComponent("engine", outcome)
		s.logger.Debug(ctx, "decomposition rejected",
			logger.String("outcome", outcome),
			logger.Error(err),
		)
		return types.Decomposition{}, err
	}

	results.Set(key, res)
	metrics.UpdateCacheEntries(results.Len())

	s.decompositions.Add(1)
	metrics.RecordDecomposition(metrics.OutcomeOK)
	metrics.RecordDecompositionCategories(len(baseline))
	metrics.UpdateLastEffects(res.SeverityEffect, res.MixEffect, res.TotalChange)
	s.logger.Debug(ctx, "decomposition computed",
		logger.String("id", out.ID),
		logger.Int("categories", len(baseline)),
		logger.Float64("severityEffect", res.SeverityEffect),
		logger.Float64("mixEffect", res.MixEffect),
	)

	out.Result = res
	if detail {
		out.Paths = &paths
	}
	return out, nil
}

// AverageSeverity computes the standalone volume-weighted average for one period.
// A period with zero total volume yields an average of 0, not an error.
func (s *Service) AverageSeverity(ctx context.Context, p severity.Period) (types.Average, error) {
	if _, err := s.resultCache(); err != nil {
		return types.Average{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.Average{}, err
	}
	if len(p) > s.maxCategories {
		return types.Average{}, fmt.Errorf("%w: %d > %d", ErrTooManyBuckets, len(p), s.maxCategories)
	}
	if err := p.Validate(); err != nil {
		return types.Average{}, err
	}
	metrics.RecordAverageRequest()
	return types.Average{
		AverageSeverity: severity.AverageSeverity(p),
		TotalVolume:     severity.TotalVolume(p),
		TotalCost:       severity.TotalCost(p),
		Categories:      len(p),
	}, nil
}

// DecomposeBatch decomposes independent pairs in parallel. A failing pair
// never affects its siblings; each item carries its own result or error.
func (s *Service) DecomposeBatch(ctx context.Context, pairs []types.Pair) ([]types.BatchItem, error) {
	if _, err := s.resultCache(); err != nil {
		return nil, err
	}
	if len(pairs) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyPairs, len(pairs), s.maxBatchSize)
	}
	metrics.RecordBatchSize(len(pairs))

	items := make([]types.BatchItem, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)
	for i := range pairs {
		i := i
		g.Go(func() error {
			items[i].Index = i
			d, err := s.Decompose(gctx, pairs[i].Baseline, pairs[i].Comparison, false)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				items[i].Error = &types.ItemError{Code: Outcome(err), Message: err.Error()}
				return nil
			}
			items[i].Decomposition = &d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "batch decomposed", logger.Int("pairs", len(pairs)))
	return items, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"cacheSize":      s.cacheSize,
		"maxBatchSize":   s.maxBatchSize,
		"decompositions": s.decompositions.Load(),
		"failures":       s.failures.Load(),
	}

	if s.started {
		hits, misses := s.results.Stats()
		entries := s.results.Len()
		stats["cacheEntries"] = entries
		stats["cacheHits"] = hits
		stats["cacheMisses"] = misses
		metrics.UpdateCacheEntries(entries)
	}

	return stats
}

// SweepCache drops expired cache entries and returns how many were removed.
func (s *Service) SweepCache() int {
	results, err := s.resultCache()
	if err != nil {
		return 0
	}
	n := results.CleanExpired()
	metrics.UpdateCacheEntries(results.Len())
	return n
}

// Outcome maps an engine error to its metrics and API code.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, severity.ErrEmptyPeriod):
		return metrics.OutcomeEmptyPeriod
	case errors.Is(err, severity.ErrCategoryMismatch):
		return metrics.OutcomeCategoryMismatch
	case errors.Is(err, severity.ErrInvalidBucket), errors.Is(err, ErrTooManyBuckets):
		return metrics.OutcomeInvalidBucket
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return "internal_error"
	}
}

func (s *Service) checkSize(baseline, comparison severity.Period) error {
	if n := max(len(baseline), len(comparison)); n > s.maxCategories {
		return fmt.Errorf("%w: %d > %d", ErrTooManyBuckets, n, s.maxCategories)
	}
	return nil
}

// fingerprint hashes both periods independent of bucket order. Every field
// is length-prefixed or fixed-width, so category text can never forge the
// row or period boundaries.
func fingerprint(baseline, comparison severity.Period) string {
	h := sha256.New()
	for _, p := range []severity.Period{baseline, comparison} {
		rows := make([]string, len(p))
		for i, b := range p {
			rows[i] = encodeBucket(b)
		}
		sort.Strings(rows)
		_ = binary.Write(h, binary.BigEndian, uint64(len(rows)))
		for _, r := range rows {
			h.Write([]byte(r))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// encodeBucket renders b as len(category) | category | volume bits | severity bits.
func encodeBucket(b severity.Bucket) string {
	buf := make([]byte, 0, 8+len(b.Category)+16)
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(b.Category)))
	buf = append(buf, b.Category...)
	buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(b.Volume))
	buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(b.Severity))
	return string(buf)
}
