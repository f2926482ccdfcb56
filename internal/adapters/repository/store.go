// Package repository provides durable storage for captures and the bonus
// ledger, with referential integrity between them.
package repository

import (
	"context"

	"github.com/cuscogo/huntd/internal/domain/model"
)

// CaptureFilter narrows ListCaptures. Zero values mean "no constraint".
type CaptureFilter struct {
	ItemID      string
	StartMillis int64
	EndMillis   int64
}

// Store is the persistence contract consumed by the scoring service.
//
// Deleting a capture must cascade-delete its bonus events; that guarantee is
// part of this contract, not something callers re-check.
type Store interface {
	// Captures.
	InsertCapture(ctx context.Context, c *model.Capture) (int64, error)
	DeleteCapture(ctx context.Context, id int64) error
	GetCapture(ctx context.Context, id int64) (model.Capture, error)
	ListCaptures(ctx context.Context, f CaptureFilter) ([]model.Capture, error)
	LatestCaptureForItem(ctx context.Context, itemID string) (model.Capture, error)
	DistinctCapturedItemIDs(ctx context.Context) ([]string, error)

	// Bonus ledger. Append-only; rows are removed only by capture cascade.
	AppendBonusEvent(ctx context.Context, ev *model.BonusEvent) (int64, error)
	ListBonusEventsForCapture(ctx context.Context, captureID int64) ([]model.BonusEvent, error)
	ListAllBonusEvents(ctx context.Context) ([]model.BonusEvent, error)

	Close() error
}
