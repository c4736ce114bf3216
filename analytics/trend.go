// api/analytics/trend.go
package analytics

import (
	"context"
	"fmt"

	"vendorpulse/api/models"
	"vendorpulse/api/store"
)

const forecastDays = 7

// ClassifyTrend compares the mean of the first half of the series with the
// mean of the second half. Strictly greater second half means increasing;
// ties and short series classify as decreasing.
func ClassifyTrend(series []float64) models.TrendDirection {
	if len(series) < 2 {
		return models.TrendDecreasing
	}
	mid := len(series) / 2
	if mean(series[mid:]) > mean(series[:mid]) {
		return models.TrendIncreasing
	}
	return models.TrendDecreasing
}

// Forecast projects the series forward by days using a least-squares linear
// fit, clamped to be non-negative. A series with at most one point cannot be
// extrapolated and repeats the last observed value (zero when empty).
func Forecast(series []float64, days int) []float64 {
	out := make([]float64, days)
	if len(series) == 0 {
		return out
	}
	if len(series) == 1 {
		for i := range out {
			out[i] = series[0]
		}
		return out
	}

	n := float64(len(series))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	slope := (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / n

	for i := range out {
		v := intercept + slope*float64(len(series)+i)
		if v < 0 {
			v = 0
		}
		out[i] = v
	}
	return out
}

// BuildInsights renders the templated natural-language summary. Cosmetic
// output; the only contract is that the direction words appear.
func BuildInsights(impressions, clicks, revenue models.TrendDirection) string {
	return fmt.Sprintf(
		"Ad impressions are %s, ad clicks are %s, and revenue is %s over the selected period.",
		impressions, clicks, revenue,
	)
}

func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// TrendReport builds daily impression, click and revenue series over the
// timeframe and derives trend directions, 7-day forecasts and insight text.
func (e *Engine) TrendReport(ctx context.Context, tf models.Timeframe) (*models.TrendReport, error) {
	now := e.now().UTC()
	start := tf.WindowStart(now)
	eventFilter := store.EventFilter{Since: start, Until: now}

	impressions, err := e.events.DailyEventCounts(ctx, models.EventAdImpression, eventFilter)
	if err != nil {
		return nil, err
	}
	clicks, err := e.events.DailyEventCounts(ctx, models.EventAdClick, eventFilter)
	if err != nil {
		return nil, err
	}
	orders, err := e.catalog.ListOrders(ctx, store.OrderFilter{Since: start, Until: now})
	if err != nil {
		return nil, err
	}

	impSeries := countSeries(impressions)
	clickSeries := countSeries(clicks)
	revSeries := revenueByDay(orders).Values

	trends := models.TrendDirections{
		Impressions: ClassifyTrend(impSeries),
		Clicks:      ClassifyTrend(clickSeries),
		Revenue:     ClassifyTrend(revSeries),
	}

	return &models.TrendReport{
		Timeframe: tf,
		Trends:    trends,
		CTR:       safeDiv(total(clickSeries), total(impSeries)),
		Forecast: map[string][]float64{
			"impressions": Forecast(impSeries, forecastDays),
			"clicks":      Forecast(clickSeries, forecastDays),
			"revenue":     Forecast(revSeries, forecastDays),
		},
		Insights: BuildInsights(trends.Impressions, trends.Clicks, trends.Revenue),
	}, nil
}

func countSeries(counts []store.DailyEventCount) []float64 {
	out := make([]float64, 0, len(counts))
	for _, c := range counts {
		out = append(out, float64(c.Count))
	}
	return out
}

func total(series []float64) float64 {
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum
}
