package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vendorpulse/api/models"
	"vendorpulse/api/store"
)

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   models.TrendDirection
	}{
		{"rising", []float64{1, 2, 3, 10, 12, 14}, models.TrendIncreasing},
		{"falling", []float64{14, 12, 10, 3, 2, 1}, models.TrendDecreasing},
		{"flat classifies as decreasing", []float64{5, 5, 5, 5}, models.TrendDecreasing},
		{"single point", []float64{9}, models.TrendDecreasing},
		{"empty", nil, models.TrendDecreasing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ClassifyTrend(tc.series))
		})
	}
}

func TestForecastLinearProjection(t *testing.T) {
	// Perfect line y = 2x + 1 must continue exactly.
	out := Forecast([]float64{1, 3, 5, 7}, 3)
	require.Len(t, out, 3)
	require.InDelta(t, 9, out[0], 1e-9)
	require.InDelta(t, 11, out[1], 1e-9)
	require.InDelta(t, 13, out[2], 1e-9)
}

func TestForecastClampsNegative(t *testing.T) {
	out := Forecast([]float64{10, 5, 0}, 7)
	for i, v := range out {
		require.GreaterOrEqual(t, v, 0.0, "day %d", i)
	}
}

func TestForecastDegenerateSeries(t *testing.T) {
	require.Equal(t, []float64{0, 0, 0}, Forecast(nil, 3))
	require.Equal(t, []float64{4, 4, 4}, Forecast([]float64{4}, 3))
}

func TestBuildInsightsNamesDirections(t *testing.T) {
	s := BuildInsights(models.TrendIncreasing, models.TrendDecreasing, models.TrendIncreasing)
	require.Contains(t, s, "increasing")
	require.Contains(t, s, "decreasing")
}

func TestTrendReport(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }
	events := &fakeEventReader{
		daily: map[string][]store.DailyEventCount{
			models.EventAdImpression: {
				{Date: day(9), Count: 100},
				{Date: day(10), Count: 110},
				{Date: day(11), Count: 150},
				{Date: day(12), Count: 160},
			},
			models.EventAdClick: {
				{Date: day(9), Count: 20},
				{Date: day(10), Count: 15},
				{Date: day(11), Count: 8},
				{Date: day(12), Count: 9},
			},
		},
	}
	catalog := &fakeCatalog{orders: []models.Order{
		orderOf(1, 100, day(9), models.OrderItem{ProductID: 1, VendorID: 1, Price: 10, Quantity: 1}),
		orderOf(2, 101, day(12), models.OrderItem{ProductID: 1, VendorID: 1, Price: 90, Quantity: 1}),
	}}
	e := newTestEngine(events, catalog, &fakeVendorLister{}, &fakeResolver{})

	report, err := e.TrendReport(context.Background(), models.TimeframeWeek)
	require.NoError(t, err)

	require.Equal(t, models.TrendIncreasing, report.Trends.Impressions)
	require.Equal(t, models.TrendDecreasing, report.Trends.Clicks)
	require.Equal(t, models.TrendIncreasing, report.Trends.Revenue)
	require.InDelta(t, 52.0/520.0, report.CTR, 1e-9)
	require.Len(t, report.Forecast["impressions"], 7)
	require.Len(t, report.Forecast["revenue"], 7)
	require.Contains(t, report.Insights, "increasing")
}

func TestTrendReportPropagatesStoreErrors(t *testing.T) {
	events := &fakeEventReader{
		errs: map[string]error{models.EventAdImpression: &store.StoreError{Op: "daily", Err: context.DeadlineExceeded}},
	}
	e := newTestEngine(events, &fakeCatalog{}, &fakeVendorLister{}, &fakeResolver{})

	_, err := e.TrendReport(context.Background(), models.TimeframeWeek)
	require.Error(t, err)
}
