package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"vendorpulse/api/models"
)

func newSnapshotStoreForTest(t *testing.T, maxAge time.Duration, now time.Time) (*SnapshotStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewSnapshotStore(db, maxAge)
	s.now = func() time.Time { return now }
	return s, mock
}

func snapshotPayload(t *testing.T, vendorID int64) []byte {
	t.Helper()
	raw, err := json.Marshal(&models.VendorSummary{
		VendorID:     vendorID,
		Timeframe:    models.Timeframe("30d"),
		TotalRevenue: 150,
		TotalOrders:  3,
	})
	require.NoError(t, err)
	return raw
}

func TestSnapshotGetFreshIsNotStale(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s, mock := newSnapshotStoreForTest(t, 2*time.Hour, now)

	updatedAt := now.Add(-30 * time.Minute)
	mock.ExpectQuery("SELECT payload, updated_at FROM vendor_analytics_snapshots").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"payload", "updated_at"}).
			AddRow(snapshotPayload(t, 7), updatedAt))

	snap, err := s.Get(context.Background(), 7)
	require.NoError(t, err)
	require.False(t, snap.Stale)
	require.True(t, snap.UpdatedAt.Equal(updatedAt))
	require.EqualValues(t, 7, snap.VendorID)
	require.EqualValues(t, 150, snap.Summary.TotalRevenue)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotGetOldIsStale(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s, mock := newSnapshotStoreForTest(t, 2*time.Hour, now)

	mock.ExpectQuery("SELECT payload, updated_at FROM vendor_analytics_snapshots").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"payload", "updated_at"}).
			AddRow(snapshotPayload(t, 7), now.Add(-3*time.Hour)))

	snap, err := s.Get(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, snap.Stale)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotGetMissingVendor(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s, mock := newSnapshotStoreForTest(t, 2*time.Hour, now)

	mock.ExpectQuery("SELECT payload, updated_at FROM vendor_analytics_snapshots").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	snap, err := s.Get(context.Background(), 99)
	require.Error(t, err)
	require.Nil(t, snap)
	require.Contains(t, err.Error(), "no snapshot for vendor 99")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotUpsert(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s, mock := newSnapshotStoreForTest(t, 2*time.Hour, now)

	summary := &models.VendorSummary{VendorID: 7, Timeframe: models.Timeframe("30d")}
	payload, err := json.Marshal(summary)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO vendor_analytics_snapshots").
		WithArgs(int64(7), payload, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Upsert(context.Background(), 7, summary, now))
	require.NoError(t, mock.ExpectationsWereMet())
}
