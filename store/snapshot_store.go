// api/store/snapshot_store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vendorpulse/api/models"
)

// SnapshotStore persists the per-vendor analytics cache. One row per vendor,
// last write wins; the upsert is atomic so concurrent job runs cannot
// interleave partial snapshots for the same vendor.
type SnapshotStore struct {
	db     *sql.DB
	maxAge time.Duration
	now    func() time.Time
}

func NewSnapshotStore(db *sql.DB, maxAge time.Duration) *SnapshotStore {
	return &SnapshotStore{db: db, maxAge: maxAge, now: time.Now}
}

// Upsert writes the snapshot for a vendor. The payload is the serialized
// summary; identical source data yields identical payload bytes, only
// updated_at moves.
func (s *SnapshotStore) Upsert(ctx context.Context, vendorID int64, summary *models.VendorSummary, at time.Time) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for vendor %d: %w", vendorID, err)
	}

	query := `
		INSERT INTO vendor_analytics_snapshots (vendor_id, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (vendor_id)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`
	return withRetry(ctx, fmt.Sprintf("upsert snapshot vendor %d", vendorID), func() error {
		_, err := s.db.ExecContext(ctx, query, vendorID, payload, at.UTC())
		return err
	})
}

// Get returns the persisted snapshot. Stale is set when the snapshot is older
// than the configured max age, so the serving layer never presents a stale
// cache as a live aggregate.
func (s *SnapshotStore) Get(ctx context.Context, vendorID int64) (*models.VendorAnalyticsSnapshot, error) {
	var (
		payload   []byte
		updatedAt time.Time
	)
	query := `SELECT payload, updated_at FROM vendor_analytics_snapshots WHERE vendor_id = $1`
	err := withRetry(ctx, fmt.Sprintf("get snapshot vendor %d", vendorID), func() error {
		return s.db.QueryRowContext(ctx, query, vendorID).Scan(&payload, &updatedAt)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no snapshot for vendor %d", vendorID)
		}
		return nil, err
	}

	var summary models.VendorSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for vendor %d: %w", vendorID, err)
	}

	return &models.VendorAnalyticsSnapshot{
		VendorID:  vendorID,
		Summary:   &summary,
		UpdatedAt: updatedAt,
		Stale:     s.maxAge > 0 && s.now().Sub(updatedAt) > s.maxAge,
	}, nil
}
