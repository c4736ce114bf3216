// api/models/summary.go
package models

import "time"

// Timeframe is a contiguous window ending at the evaluation day. All window
// math is done in UTC with date-only boundaries; daily buckets in the revenue
// series are therefore UTC days.
type Timeframe string

const (
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeYear  Timeframe = "year"
)

// WindowStart returns the inclusive lower bound of the window ending at now.
// week is a flat 7 days; month and year use calendar arithmetic.
func (t Timeframe) WindowStart(now time.Time) time.Time {
	d := DayUTC(now)
	switch t {
	case TimeframeWeek:
		return d.AddDate(0, 0, -7)
	case TimeframeMonth:
		return d.AddDate(0, -1, 0)
	case TimeframeYear:
		return d.AddDate(-1, 0, 0)
	default:
		return d.AddDate(0, 0, -7)
	}
}

func DayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ProductSales is one row of the top-selling table, ranked by revenue.
type ProductSales struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	TotalSold int64   `json:"totalSold"`
	Revenue   float64 `json:"revenue"`
}

// ProductViewStat is one row of the most-viewed table. ConversionRate is
// unitsSold/views, 0 when the product had no views or no sales.
type ProductViewStat struct {
	ProductID      int64   `json:"productId"`
	Name           string  `json:"name"`
	Views          int64   `json:"views"`
	ConversionRate float64 `json:"conversionRate"`
}

// CartAddStat mirrors ProductViewStat for add_to_cart events.
type CartAddStat struct {
	ProductID      int64   `json:"productId"`
	Name           string  `json:"name"`
	Count          int64   `json:"count"`
	ConversionRate float64 `json:"conversionRate"`
}

// VendorSummary is the windowed aggregate for one vendor. ProductViews,
// CartAdds and ConversionRate are pointers so a failed sub-query can be
// marked unavailable (nil + Degraded) without discarding the order-derived
// fields. Window bounds are deliberately excluded from JSON so persisted
// snapshots stay byte-stable across recomputations of unchanged data.
type VendorSummary struct {
	VendorID           int64              `json:"vendorId"`
	Timeframe          Timeframe          `json:"timeframe"`
	WindowStart        time.Time          `json:"-"`
	WindowEnd          time.Time          `json:"-"`
	TotalRevenue       float64            `json:"totalRevenue"`
	TotalOrders        int64              `json:"totalOrders"`
	AverageOrderValue  float64            `json:"averageOrderValue"`
	ProductViews       *int64             `json:"productViews"`
	CartAdds           *int64             `json:"cartAdds"`
	ConversionRate     *float64           `json:"conversionRate"`
	TopSellingProducts []ProductSales     `json:"topSellingProducts"`
	MostViewedProducts []ProductViewStat  `json:"mostViewedProducts"`
	AddToCartEvents    []CartAddStat      `json:"addToCartEvents"`
	SalesByMonth       map[string]float64 `json:"salesByMonth"`
	Degraded           bool               `json:"degraded,omitempty"`
	DegradedSections   []string           `json:"degradedSections,omitempty"`
}

// MarkDegraded flags named sections as unavailable after a failed sub-query.
func (s *VendorSummary) MarkDegraded(sections ...string) {
	s.Degraded = true
	s.DegradedSections = append(s.DegradedSections, sections...)
}

// VendorRank is one leaderboard row, ranked by revenue descending.
type VendorRank struct {
	VendorID int64   `json:"vendorId"`
	Name     string  `json:"name"`
	Revenue  float64 `json:"revenue"`
	Orders   int64   `json:"orders"`
}

// RevenueSeries holds one point per UTC day that had at least one order,
// ascending. Days without orders are not zero-filled.
type RevenueSeries struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// PlatformSummary is the transient all-vendor aggregate for a timeframe.
type PlatformSummary struct {
	Timeframe         Timeframe     `json:"timeframe"`
	WindowStart       time.Time     `json:"-"`
	WindowEnd         time.Time     `json:"-"`
	VendorCount       int64         `json:"vendorCount"`
	UserCount         int64         `json:"userCount"`
	ProductCount      int64         `json:"productCount"`
	OrderCount        int64         `json:"orderCount"`
	TotalRevenue      float64       `json:"totalRevenue"`
	TotalOrders       int64         `json:"totalOrders"`
	AverageOrderValue float64       `json:"averageOrderValue"`
	ProductViews      *int64        `json:"productViews"`
	CartAdds          *int64        `json:"cartAdds"`
	ConversionRate    *float64      `json:"conversionRate"`
	VendorLeaderboard []VendorRank  `json:"vendorLeaderboard"`
	RevenueByDay      RevenueSeries `json:"revenueByDay"`
	Degraded          bool          `json:"degraded,omitempty"`
	DegradedSections  []string      `json:"degradedSections,omitempty"`
}

// MarkDegraded flags named sections as unavailable after a failed sub-query.
func (s *PlatformSummary) MarkDegraded(sections ...string) {
	s.Degraded = true
	s.DegradedSections = append(s.DegradedSections, sections...)
}

// VendorAnalyticsSnapshot is the persisted, periodically-recomputed cache of
// a vendor summary. It is always reproducible from events + orders; UpdatedAt
// is the staleness indicator for the serving layer.
type VendorAnalyticsSnapshot struct {
	VendorID  int64          `json:"vendorId"`
	Summary   *VendorSummary `json:"summary"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Stale     bool           `json:"stale"`
}

// BatchResult is the outcome of one scheduled aggregation pass. A vendor
// failure never aborts the batch; it lands in Failures instead.
type BatchResult struct {
	VendorsProcessed int             `json:"vendorsProcessed"`
	Failures         []VendorFailure `json:"failures"`
	StartedAt        time.Time       `json:"startedAt"`
	FinishedAt       time.Time       `json:"finishedAt"`
}

type VendorFailure struct {
	VendorID int64  `json:"vendorId"`
	Error    string `json:"error"`
}

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
)

// TrendReport is the response of the trends endpoint: direction per metric,
// a 7-day naive forecast per metric, and templated insight text.
type TrendReport struct {
	Timeframe Timeframe            `json:"timeframe"`
	Trends    TrendDirections      `json:"trends"`
	CTR       float64              `json:"ctr"`
	Forecast  map[string][]float64 `json:"forecast"`
	Insights  string               `json:"insights"`
}

type TrendDirections struct {
	Impressions TrendDirection `json:"impressions"`
	Clicks      TrendDirection `json:"clicks"`
	Revenue     TrendDirection `json:"revenue"`
}
