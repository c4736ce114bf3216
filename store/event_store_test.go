package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDailyEventCountsBucketInUTC(t *testing.T) {
	// Day buckets must not move with the ClickHouse server timezone, or trend
	// series would disagree with the UTC-bucketed revenue series at day edges.
	require.Contains(t, dailyEventCountsQuery, "toStartOfDay(timestamp, 'UTC')")
}

func TestEventFilterWhereClause(t *testing.T) {
	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    EventFilter
		wantWhere string
		wantArgs  int
	}{
		{
			name:      "type only",
			filter:    EventFilter{},
			wantWhere: "WHERE event_type = ?",
			wantArgs:  0,
		},
		{
			name:      "window bounds",
			filter:    EventFilter{Since: since, Until: until},
			wantWhere: "WHERE event_type = ? AND timestamp >= ? AND timestamp < ?",
			wantArgs:  2,
		},
		{
			name:      "vendor scope",
			filter:    EventFilter{VendorID: 7},
			wantWhere: "WHERE event_type = ? AND vendor_id = ?",
			wantArgs:  1,
		},
		{
			name:      "product set",
			filter:    EventFilter{ProductIDs: []int64{1, 2}},
			wantWhere: "WHERE event_type = ? AND product_id IN (?)",
			wantArgs:  1,
		},
		{
			// An empty non-nil set must still emit the IN clause so it
			// matches nothing, rather than silently widening to all products.
			name:      "empty product set",
			filter:    EventFilter{ProductIDs: []int64{}},
			wantWhere: "WHERE event_type = ? AND product_id IN (?)",
			wantArgs:  1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			where, args := tc.filter.whereClause()
			require.Equal(t, tc.wantWhere, where)
			require.Len(t, args, tc.wantArgs)
		})
	}
}
