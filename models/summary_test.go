package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeframeWindowStart(t *testing.T) {
	// Mid-day local-ish timestamp; boundaries must still be date-only UTC.
	now := time.Date(2025, 3, 15, 18, 42, 11, 0, time.FixedZone("EET", 2*3600))

	tests := []struct {
		tf   Timeframe
		want time.Time
	}{
		{TimeframeWeek, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)},
		{TimeframeMonth, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)},
		{TimeframeYear, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{Timeframe("bogus"), time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(string(tc.tf), func(t *testing.T) {
			got := tc.tf.WindowStart(now)
			require.True(t, got.Equal(tc.want), "got %v, want %v", got, tc.want)
			require.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestTimeframeWindowStartMonthEndClamping(t *testing.T) {
	// AddDate normalizes; March 31 minus one month lands in early March,
	// never on a nonexistent February day.
	now := time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC)
	got := TimeframeMonth.WindowStart(now)
	require.Equal(t, time.Month(3), got.Month())
	require.Equal(t, 3, got.Day())
}

func TestVendorSummaryJSONOmitsWindowBounds(t *testing.T) {
	s := VendorSummary{
		VendorID:    7,
		Timeframe:   TimeframeWeek,
		WindowStart: time.Now(),
		WindowEnd:   time.Now(),
	}
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "WindowStart")
	require.NotContains(t, string(raw), "windowStart")
}

func TestMarkDegradedAccumulates(t *testing.T) {
	var s VendorSummary
	require.False(t, s.Degraded)
	s.MarkDegraded("orders", "salesByMonth")
	s.MarkDegraded("conversionRate")
	require.True(t, s.Degraded)
	require.Equal(t, []string{"orders", "salesByMonth", "conversionRate"}, s.DegradedSections)
}

func TestOrderTotal(t *testing.T) {
	o := Order{Items: []OrderItem{
		{Price: 50, Quantity: 2},
		{Price: 25, Quantity: 1},
	}}
	require.EqualValues(t, 125, o.Total())
}
