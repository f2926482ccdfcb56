package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cuscogo/huntd/internal/adapters/notify"
	"github.com/cuscogo/huntd/internal/domain/model"
	"github.com/cuscogo/huntd/pkg/metrics"
)

// SQLStore implements Store on SQLite through gorm. Foreign keys are
// enforced so capture deletion cascades to bonus events at the database
// level.
type SQLStore struct {
	db          *gorm.DB
	broadcaster *notify.Broadcaster
}

// NewSQLStore opens (or creates) the database at path and migrates the
// schema. Use ":memory:" for an ephemeral store in tests.
func NewSQLStore(path string, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{}
	for _, opt := range opts {
		opt(s)
	}

	db, err := gorm.Open(sqlite.Open(storeDSN(path)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	if isMemoryPath(path) {
		// Each new pool connection to :memory: is a separate empty
		// database; pin the store to a single connection.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&model.Capture{}, &model.BonusEvent{}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}

	s.db = db
	return s, nil
}

// storeDSN appends the connection parameters the store depends on. SQLite
// applies PRAGMA foreign_keys per connection, so it has to ride in the DSN
// where the driver replays it on every connection the pool opens.
func storeDSN(path string) string {
	params := "_foreign_keys=ON&_busy_timeout=5000"
	if !isMemoryPath(path) {
		params += "&_journal_mode=WAL"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params
}

func isMemoryPath(path string) bool {
	return strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory")
}

// InsertCapture stores a new capture and returns its assigned id.
func (s *SQLStore) InsertCapture(ctx context.Context, c *model.Capture) (int64, error) {
	if c.CreatedAt == 0 {
		c.CreatedAt = model.NowMillis()
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return 0, fmt.Errorf("%w: insert capture: %w", ErrStore, err)
	}
	metrics.RecordCaptureInserted()
	s.notifyChanged()
	return c.ID, nil
}

// DeleteCapture removes a capture; its bonus events go with it.
func (s *SQLStore) DeleteCapture(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Capture{}, id)
	if res.Error != nil {
		return fmt.Errorf("%w: delete capture %d: %w", ErrStore, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: capture %d", ErrNotFound, id)
	}
	metrics.RecordCaptureDeleted()
	s.notifyChanged()
	return nil
}

// GetCapture returns a single capture by id.
func (s *SQLStore) GetCapture(ctx context.Context, id int64) (model.Capture, error) {
	var c model.Capture
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Capture{}, fmt.Errorf("%w: capture %d", ErrNotFound, id)
	}
	if err != nil {
		return model.Capture{}, fmt.Errorf("%w: get capture %d: %w", ErrStore, id, err)
	}
	return c, nil
}

// ListCaptures returns captures matching the filter, newest first.
func (s *SQLStore) ListCaptures(ctx context.Context, f CaptureFilter) ([]model.Capture, error) {
	q := s.db.WithContext(ctx).Model(&model.Capture{})
	if f.ItemID != "" {
		q = q.Where("item_id = ?", f.ItemID)
	}
	if f.StartMillis > 0 {
		q = q.Where("created_at >= ?", f.StartMillis)
	}
	if f.EndMillis > 0 {
		q = q.Where("created_at <= ?", f.EndMillis)
	}

	var out []model.Capture
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("%w: list captures: %w", ErrStore, err)
	}
	return out, nil
}

// LatestCaptureForItem returns the most recent capture of an item.
func (s *SQLStore) LatestCaptureForItem(ctx context.Context, itemID string) (model.Capture, error) {
	var c model.Capture
	err := s.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC, id DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Capture{}, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	if err != nil {
		return model.Capture{}, fmt.Errorf("%w: latest capture for %s: %w", ErrStore, itemID, err)
	}
	return c, nil
}

// DistinctCapturedItemIDs returns the ids of items captured at least once.
func (s *SQLStore) DistinctCapturedItemIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&model.Capture{}).
		Distinct("item_id").
		Pluck("item_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("%w: distinct item ids: %w", ErrStore, err)
	}
	return ids, nil
}

// AppendBonusEvent inserts a ledger row and returns its assigned id.
// Referential integrity against captures is the database's job; a capture id
// that no longer exists fails the insert.
func (s *SQLStore) AppendBonusEvent(ctx context.Context, ev *model.BonusEvent) (int64, error) {
	if ev.CreatedAt == 0 {
		ev.CreatedAt = model.NowMillis()
	}
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		metrics.RecordLedgerAppendError()
		return 0, fmt.Errorf("%w: append bonus event: %w", ErrStore, err)
	}
	metrics.RecordLedgerAppend()
	s.notifyChanged()
	return ev.ID, nil
}

// ListBonusEventsForCapture returns a capture's bonus events, oldest first,
// for per-item "base + bonus = total" breakdowns.
func (s *SQLStore) ListBonusEventsForCapture(ctx context.Context, captureID int64) ([]model.BonusEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var out []model.BonusEvent
	err := s.db.WithContext(ctx).
		Where("capture_id = ?", captureID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list bonus events for capture %d: %w", ErrStore, captureID, err)
	}
	return out, nil
}

// ListAllBonusEvents returns every ledger row, newest first, for aggregate
// score computation.
func (s *SQLStore) ListAllBonusEvents(ctx context.Context) ([]model.BonusEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var out []model.BonusEvent
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list bonus events: %w", ErrStore, err)
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return sqlDB.Close()
}

func (s *SQLStore) notifyChanged() {
	if s.broadcaster != nil {
		s.broadcaster.Notify()
	}
}
