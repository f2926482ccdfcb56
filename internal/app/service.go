// Package app provides the biome scoring service: the single entry point
// that decides whether a capture earns a bonus and records it.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/cuscogo/huntd/internal/adapters/mq/queue"
	workerpool "github.com/cuscogo/huntd/internal/adapters/mq/worker"
	"github.com/cuscogo/huntd/internal/adapters/notify"
	"github.com/cuscogo/huntd/internal/adapters/repository"
	"github.com/cuscogo/huntd/internal/domain/catalog"
	"github.com/cuscogo/huntd/internal/domain/dedupe"
	"github.com/cuscogo/huntd/internal/domain/geoindex"
	"github.com/cuscogo/huntd/internal/domain/model"
	"github.com/cuscogo/huntd/internal/domain/scoring"
	"github.com/cuscogo/huntd/pkg/logger"
	"github.com/cuscogo/huntd/pkg/metrics"
)

// CaptureInput describes a new capture arriving from the host application.
// Coordinates are optional; EXIF extraction may have found nothing.
type CaptureInput struct {
	ItemID       string
	OriginalURI  string
	ThumbnailURI string
	Latitude     *float64
	Longitude    *float64
	CreatedAt    int64 // epoch ms; zero means "now"
}

// Service orchestrates the geo index, the scoring formula and the bonus
// ledger. One instance serves the whole process.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	geo         *geoindex.Index
	broadcaster *notify.Broadcaster
	deduper     dedupe.Deduper
	jobQueue    jobqueue.Queue
	pool        *workerpool.Pool
	resolver    workerpool.Resolver

	// Static content
	biomes []catalog.Biome
	items  map[string]catalog.Item

	// Configuration
	databasePath   string
	workerCount    int
	queueSize      int
	dedupeSize     int
	resolveTimeout time.Duration

	// State
	started bool

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		databasePath:   "huntd.db",
		workerCount:    runtime.NumCPU(),
		queueSize:      1024,
		dedupeSize:     10000,
		resolveTimeout: 30 * time.Second,
		items:          make(map[string]catalog.Item),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and launches the deferred evaluation pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("scoring")
	}

	if s.broadcaster == nil {
		s.broadcaster = notify.New()
	}

	store, err := repository.NewSQLStore(s.databasePath,
		repository.WithBroadcaster(s.broadcaster),
	)
	if err != nil {
		return fmt.Errorf("start scoring service: %w", err)
	}
	s.store = store

	s.geo = geoindex.New(s.biomes)
	if s.geo.Len() == 0 {
		// Degraded mode: every evaluation reports no match. Captures and
		// aggregates keep working.
		s.logger.Warn(ctx, "no circle biomes configured; bonuses unavailable")
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))

	if s.resolver == nil {
		s.resolver = noFixResolver{}
	}
	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s.resolver, s,
		workerpool.WithResolveTimeout(s.resolveTimeout),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("biomes", s.geo.Len()),
		logger.Int("items", len(s.items)),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop drains the pipeline and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")

	if q, ok := s.jobQueue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// EvaluateAndRecordBonus is the orchestration entry point, invoked once per
// capture-evaluation attempt. Missing coordinates, no qualifying biome and a
// zero-value bonus are all normal unawarded outcomes. A ledger failure is
// swallowed here as well: the capture itself already succeeded, so the
// caller only sees an unawarded result while the failure is logged and
// counted.
func (s *Service) EvaluateAndRecordBonus(ctx context.Context, captureID int64, lat, lng *float64, basePoints int) model.BonusAward {
	start := time.Now()
	defer func() {
		metrics.RecordEvaluationLatency(float64(time.Since(start).Milliseconds()))
	}()

	if lat == nil || lng == nil {
		metrics.RecordEvaluation(metrics.OutcomeNoLocation)
		return model.BonusAward{}
	}

	match, ok := s.geo.FindBest(*lat, *lng)
	if !ok {
		metrics.RecordEvaluation(metrics.OutcomeNoMatch)
		return model.BonusAward{}
	}

	bonusPoints := scoring.ComputeBonus(basePoints, match.Biome.Multiplier)
	if bonusPoints <= 0 {
		// A qualifying zone with an effectively zero bonus does not
		// pollute the ledger.
		metrics.RecordEvaluation(metrics.OutcomeZeroBonus)
		return model.BonusAward{}
	}

	// Snapshot the matched biome so later catalog edits never rewrite
	// recorded history.
	event := model.BonusEvent{
		CaptureID:   captureID,
		BiomeID:     match.Biome.ID,
		BiomeLabel:  match.Biome.Label,
		Multiplier:  match.Biome.Multiplier,
		BonusPoints: bonusPoints,
		CreatedAt:   model.NowMillis(),
	}
	if _, err := s.store.AppendBonusEvent(ctx, &event); err != nil {
		metrics.RecordEvaluation(metrics.OutcomeStorageError)
		metrics.RecordErrorByComponent("scoring", "ledger_append")
		s.logger.Error(ctx, "bonus ledger append failed",
			logger.Int64("captureID", captureID),
			logger.String("biome", match.Biome.ID),
			logger.Error(err),
		)
		return model.BonusAward{}
	}

	metrics.RecordEvaluation(metrics.OutcomeAwarded)
	metrics.RecordBonusAwarded(bonusPoints)
	return model.BonusAward{
		Awarded:     true,
		BonusPoints: bonusPoints,
		BiomeLabel:  match.Biome.Label,
		Multiplier:  match.Biome.Multiplier,
	}
}

// RecordCapture stores a capture and runs the bonus evaluation for it. With
// coordinates present the evaluation happens synchronously; without them a
// deferred job is scheduled and the evaluation runs once a live GPS fix
// resolves. The two paths are mutually exclusive by construction.
func (s *Service) RecordCapture(ctx context.Context, in CaptureInput) (model.Capture, model.BonusAward, error) {
	item, ok := s.items[in.ItemID]
	if !ok {
		return model.Capture{}, model.BonusAward{}, fmt.Errorf("%w: %s", ErrUnknownItem, in.ItemID)
	}

	capture := model.Capture{
		ItemID:       item.ID,
		Title:        item.Title,
		OriginalURI:  in.OriginalURI,
		ThumbnailURI: in.ThumbnailURI,
		CreatedAt:    in.CreatedAt,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
	}
	id, err := s.store.InsertCapture(ctx, &capture)
	if err != nil {
		return model.Capture{}, model.BonusAward{}, err
	}
	capture.ID = id

	if in.Latitude != nil && in.Longitude != nil {
		award := s.EvaluateAndRecordBonus(ctx, id, in.Latitude, in.Longitude, item.BasePoints)
		return capture, award, nil
	}

	s.scheduleDeferredEvaluation(ctx, id, item.BasePoints)
	return capture, model.BonusAward{}, nil
}

// scheduleDeferredEvaluation queues a capture for evaluation once a GPS fix
// arrives. The deduper keeps racing callers from scheduling a capture twice.
func (s *Service) scheduleDeferredEvaluation(ctx context.Context, captureID int64, basePoints int) {
	key := fmt.Sprintf("capture:%d", captureID)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordDeferredDuplicate()
		s.logger.Debug(ctx, "deferred evaluation already scheduled",
			logger.Int64("captureID", captureID),
		)
		return
	}

	job := model.EvaluationJob{
		JobID:      uuid.New().String(),
		CaptureID:  captureID,
		BasePoints: basePoints,
		EnqueuedAt: time.Now(),
	}
	if !s.jobQueue.Enqueue(ctx, job) {
		// Allow a retry on a later call; the queue rejected this one.
		s.deduper.Unrecord(ctx, key)
		s.logger.Warn(ctx, "deferred evaluation queue full; dropping job",
			logger.Int64("captureID", captureID),
		)
	}
}

// DeleteCapture removes a capture; the ledger rows cascade with it.
func (s *Service) DeleteCapture(ctx context.Context, id int64) error {
	return s.store.DeleteCapture(ctx, id)
}

// Captures lists captures, newest first.
func (s *Service) Captures(ctx context.Context, f repository.CaptureFilter) ([]model.Capture, error) {
	return s.store.ListCaptures(ctx, f)
}

// LatestCaptureForItem returns the newest capture of a hunt item, the one
// a per-item gallery tile shows.
func (s *Service) LatestCaptureForItem(ctx context.Context, itemID string) (model.Capture, error) {
	if _, ok := s.items[itemID]; !ok {
		return model.Capture{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	return s.store.LatestCaptureForItem(ctx, itemID)
}

// BonusesForCapture returns a capture's bonus events, oldest first.
func (s *Service) BonusesForCapture(ctx context.Context, captureID int64) ([]model.BonusEvent, error) {
	return s.store.ListBonusEventsForCapture(ctx, captureID)
}

// AllBonuses returns every ledger row, newest first.
func (s *Service) AllBonuses(ctx context.Context) ([]model.BonusEvent, error) {
	return s.store.ListAllBonusEvents(ctx)
}

// CircleBiomes returns the matchable biomes for map overlay rendering.
func (s *Service) CircleBiomes() []catalog.Biome {
	return s.geo.CircleBiomes()
}

// Items returns the hunt item catalog.
func (s *Service) Items() []catalog.Item {
	out := make([]catalog.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	return out
}

// TotalScore computes the aggregate: base points of each distinct captured
// item plus every recorded bonus. Cascade deletion keeps the ledger free of
// rows for dead captures, so no cross-filtering is needed here.
func (s *Service) TotalScore(ctx context.Context) (model.ScoreSummary, error) {
	itemIDs, err := s.store.DistinctCapturedItemIDs(ctx)
	if err != nil {
		return model.ScoreSummary{}, err
	}

	var sum model.ScoreSummary
	for _, id := range itemIDs {
		if item, ok := s.items[id]; ok {
			sum.BasePoints += item.BasePoints
			sum.UniqueItems++
		}
	}

	events, err := s.store.ListAllBonusEvents(ctx)
	if err != nil {
		return model.ScoreSummary{}, err
	}
	for i := range events {
		sum.BonusPoints += events[i].BonusPoints
	}

	sum.Total = sum.BasePoints + sum.BonusPoints
	return sum, nil
}

// Subscribe registers a listener fired after captures or bonuses change.
func (s *Service) Subscribe(fn notify.Listener) (unsubscribe func()) {
	return s.broadcaster.Subscribe(fn)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"items":       len(s.items),
	}
	if s.started {
		ctx := context.Background()
		stats["biomes"] = s.geo.Len()
		stats["queueLength"] = s.jobQueue.Len(ctx)
		stats["pendingDeferred"] = s.deduper.Size()
	}
	return stats
}

// noFixResolver is the default Resolver: it never produces a fix, so
// deferred jobs resolve to "no bonus". Hosts with a location provider
// inject a real one via WithLocationResolver.
type noFixResolver struct{}

func (noFixResolver) Resolve(context.Context, int64) (*float64, *float64, error) {
	return nil, nil, nil
}
