// api/analytics/engine.go
package analytics

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"vendorpulse/api/models"
	"vendorpulse/api/store"
)

// Consumer-side interfaces over the store layer. The concrete ClickHouse and
// Postgres stores satisfy these; tests supply in-memory fakes.

type EventReader interface {
	CountEvents(ctx context.Context, eventType string, f store.EventFilter) (int64, error)
	EventCountsByProduct(ctx context.Context, eventType string, f store.EventFilter, limit uint64) ([]store.ProductEventCount, error)
	DailyEventCounts(ctx context.Context, eventType string, f store.EventFilter) ([]store.DailyEventCount, error)
}

type CatalogReader interface {
	ListOrders(ctx context.Context, f store.OrderFilter) ([]models.Order, error)
	CountEntities(ctx context.Context, kind string, since time.Time) (int64, error)
	ProductNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

type VendorLister interface {
	ListVendors(ctx context.Context) ([]models.User, error)
}

type ProductResolver interface {
	OwnedProducts(ctx context.Context, vendorID int64) ([]int64, error)
}

const topN = 10

// snapshotWindow is the fixed lookback used by the scheduled job.
const snapshotWindow = 30 * 24 * time.Hour

// Engine computes windowed vendor and platform summaries. It holds no state
// between calls; every summary is recomputed from the backing stores, so
// results are deterministic for a fixed store state and window. Independent
// sub-reads run concurrently and a failed one degrades only its dependent
// fields.
type Engine struct {
	events   EventReader
	catalog  CatalogReader
	vendors  VendorLister
	resolver ProductResolver
	now      func() time.Time
}

func NewEngine(events EventReader, catalog CatalogReader, vendors VendorLister, resolver ProductResolver) *Engine {
	return &Engine{
		events:   events,
		catalog:  catalog,
		vendors:  vendors,
		resolver: resolver,
		now:      time.Now,
	}
}

// VendorSummary computes one vendor's summary over a named timeframe.
func (e *Engine) VendorSummary(ctx context.Context, vendorID int64, tf models.Timeframe) (*models.VendorSummary, error) {
	now := e.now().UTC()
	return e.vendorSummary(ctx, vendorID, tf, tf.WindowStart(now), now)
}

// SnapshotSummary computes the fixed 30-day summary the scheduled job
// persists.
func (e *Engine) SnapshotSummary(ctx context.Context, vendorID int64) (*models.VendorSummary, error) {
	now := e.now().UTC()
	return e.vendorSummary(ctx, vendorID, models.Timeframe("30d"), models.DayUTC(now).Add(-snapshotWindow), now)
}

func (e *Engine) vendorSummary(ctx context.Context, vendorID int64, tf models.Timeframe, start, end time.Time) (*models.VendorSummary, error) {
	sum := &models.VendorSummary{
		VendorID:           vendorID,
		Timeframe:          tf,
		WindowStart:        start,
		WindowEnd:          end,
		TopSellingProducts: []models.ProductSales{},
		MostViewedProducts: []models.ProductViewStat{},
		AddToCartEvents:    []models.CartAddStat{},
		SalesByMonth:       map[string]float64{},
	}

	productIDs, err := e.resolver.OwnedProducts(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if len(productIDs) == 0 {
		// A vendor with zero resolvable products is valid: all-zero summary.
		sum.ProductViews = i64ptr(0)
		sum.CartAdds = i64ptr(0)
		sum.ConversionRate = f64ptr(0)
		return sum, nil
	}

	eventFilter := store.EventFilter{ProductIDs: productIDs, Since: start, Until: end}
	orderFilter := store.OrderFilter{ProductIDs: productIDs, Since: start, Until: end}

	var (
		wg sync.WaitGroup

		orders    []models.Order
		ordersErr error

		views          int64
		viewsByProduct []store.ProductEventCount
		viewsErr       error

		carts          int64
		cartsByProduct []store.ProductEventCount
		cartsErr       error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		orders, ordersErr = e.catalog.ListOrders(ctx, orderFilter)
	}()
	go func() {
		defer wg.Done()
		views, viewsErr = e.events.CountEvents(ctx, models.EventProductView, eventFilter)
		if viewsErr == nil {
			viewsByProduct, viewsErr = e.events.EventCountsByProduct(ctx, models.EventProductView, eventFilter, topN)
		}
	}()
	go func() {
		defer wg.Done()
		carts, cartsErr = e.events.CountEvents(ctx, models.EventAddToCart, eventFilter)
		if cartsErr == nil {
			cartsByProduct, cartsErr = e.events.EventCountsByProduct(ctx, models.EventAddToCart, eventFilter, topN)
		}
	}()
	wg.Wait()

	sales := map[int64]*models.ProductSales{}
	if ordersErr != nil {
		log.Printf("Engine: order query failed for vendor %d: %v", vendorID, ordersErr)
		sum.MarkDegraded("orders", "topSellingProducts", "salesByMonth")
	} else {
		sum.TotalOrders = int64(len(orders))
		for _, o := range orders {
			monthKey := o.CreatedAt.UTC().Format("2006-01")
			for _, it := range o.Items {
				rev := it.Price * float64(it.Quantity)
				sum.TotalRevenue += rev
				sum.SalesByMonth[monthKey] += rev
				ps, ok := sales[it.ProductID]
				if !ok {
					ps = &models.ProductSales{ProductID: it.ProductID, Name: it.ProductName}
					sales[it.ProductID] = ps
				}
				ps.TotalSold += it.Quantity
				ps.Revenue += rev
			}
		}
		sum.AverageOrderValue = safeDiv(sum.TotalRevenue, float64(sum.TotalOrders))
		sum.TopSellingProducts = topSales(sales)
	}

	names := e.lookupNames(ctx, viewsByProduct, cartsByProduct, sales)

	if viewsErr != nil {
		log.Printf("Engine: view count query failed for vendor %d: %v", vendorID, viewsErr)
		sum.MostViewedProducts = nil
		sum.MarkDegraded("productViews", "mostViewedProducts", "conversionRate")
	} else {
		sum.ProductViews = i64ptr(views)
		sum.MostViewedProducts = viewStats(viewsByProduct, sales, names)
		if ordersErr == nil {
			// Legacy ratio: orders over views, not deduplicated per user.
			sum.ConversionRate = f64ptr(safeDiv(float64(sum.TotalOrders), float64(views)))
		} else {
			sum.MarkDegraded("conversionRate")
		}
	}

	if cartsErr != nil {
		log.Printf("Engine: cart-add count query failed for vendor %d: %v", vendorID, cartsErr)
		sum.AddToCartEvents = nil
		sum.MarkDegraded("cartAdds", "addToCartEvents")
	} else {
		sum.CartAdds = i64ptr(carts)
		sum.AddToCartEvents = cartStats(cartsByProduct, sales, names)
	}

	return sum, nil
}

// PlatformSummary computes the all-vendor aggregate for a timeframe.
func (e *Engine) PlatformSummary(ctx context.Context, tf models.Timeframe) (*models.PlatformSummary, error) {
	now := e.now().UTC()
	start := tf.WindowStart(now)

	sum := &models.PlatformSummary{
		Timeframe:         tf,
		WindowStart:       start,
		WindowEnd:         now,
		VendorLeaderboard: []models.VendorRank{},
		RevenueByDay:      models.RevenueSeries{Dates: []string{}, Values: []float64{}},
	}

	eventFilter := store.EventFilter{Since: start, Until: now}
	orderFilter := store.OrderFilter{Since: start, Until: now}

	var (
		wg sync.WaitGroup

		orders    []models.Order
		ordersErr error

		views    int64
		viewsErr error

		carts    int64
		cartsErr error

		vendorCount, userCount, productCount, orderCount int64
		countsErr                                        error

		vendorList []models.User
		vendorsErr error
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		orders, ordersErr = e.catalog.ListOrders(ctx, orderFilter)
	}()
	go func() {
		defer wg.Done()
		views, viewsErr = e.events.CountEvents(ctx, models.EventProductView, eventFilter)
	}()
	go func() {
		defer wg.Done()
		carts, cartsErr = e.events.CountEvents(ctx, models.EventAddToCart, eventFilter)
	}()
	go func() {
		defer wg.Done()
		for _, c := range []struct {
			kind string
			dst  *int64
		}{
			{"vendors", &vendorCount},
			{"users", &userCount},
			{"products", &productCount},
			{"orders", &orderCount},
		} {
			if *c.dst, countsErr = e.catalog.CountEntities(ctx, c.kind, start); countsErr != nil {
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		vendorList, vendorsErr = e.vendors.ListVendors(ctx)
	}()
	wg.Wait()

	if countsErr != nil {
		log.Printf("Engine: entity counts failed: %v", countsErr)
		sum.MarkDegraded("entityCounts")
	} else {
		sum.VendorCount = vendorCount
		sum.UserCount = userCount
		sum.ProductCount = productCount
		sum.OrderCount = orderCount
	}

	if ordersErr != nil {
		log.Printf("Engine: platform order query failed: %v", ordersErr)
		sum.VendorLeaderboard = nil
		sum.RevenueByDay = models.RevenueSeries{}
		sum.MarkDegraded("orders", "vendorLeaderboard", "revenueByDay")
	} else {
		sum.TotalOrders = int64(len(orders))
		for _, o := range orders {
			sum.TotalRevenue += o.Total()
		}
		sum.AverageOrderValue = safeDiv(sum.TotalRevenue, float64(sum.TotalOrders))
		sum.RevenueByDay = revenueByDay(orders)

		if vendorsErr != nil {
			log.Printf("Engine: vendor listing failed: %v", vendorsErr)
			sum.VendorLeaderboard = nil
			sum.MarkDegraded("vendorLeaderboard")
		} else {
			sum.VendorLeaderboard = leaderboard(orders, vendorList)
		}
	}

	if viewsErr != nil {
		log.Printf("Engine: platform view count failed: %v", viewsErr)
		sum.MarkDegraded("productViews", "conversionRate")
	} else {
		sum.ProductViews = i64ptr(views)
		if ordersErr == nil {
			sum.ConversionRate = f64ptr(safeDiv(float64(sum.TotalOrders), float64(views)))
		} else {
			sum.MarkDegraded("conversionRate")
		}
	}

	if cartsErr != nil {
		log.Printf("Engine: platform cart-add count failed: %v", cartsErr)
		sum.MarkDegraded("cartAdds")
	} else {
		sum.CartAdds = i64ptr(carts)
	}

	return sum, nil
}

// lookupNames resolves display names for products that appear in the event
// tables but never sold in the window. Failure here is cosmetic; sold-product
// names from the order join still apply.
func (e *Engine) lookupNames(ctx context.Context, views, carts []store.ProductEventCount, sales map[int64]*models.ProductSales) map[int64]string {
	var missing []int64
	seen := map[int64]struct{}{}
	for _, list := range [][]store.ProductEventCount{views, carts} {
		for _, pc := range list {
			if _, ok := sales[pc.ProductID]; ok {
				continue
			}
			if _, ok := seen[pc.ProductID]; ok {
				continue
			}
			seen[pc.ProductID] = struct{}{}
			missing = append(missing, pc.ProductID)
		}
	}
	if len(missing) == 0 {
		return map[int64]string{}
	}
	names, err := e.catalog.ProductNames(ctx, missing)
	if err != nil {
		log.Printf("Engine: product name lookup failed: %v", err)
		return map[int64]string{}
	}
	return names
}

func topSales(sales map[int64]*models.ProductSales) []models.ProductSales {
	out := make([]models.ProductSales, 0, len(sales))
	for _, ps := range sales {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func viewStats(counts []store.ProductEventCount, sales map[int64]*models.ProductSales, names map[int64]string) []models.ProductViewStat {
	counts = capCounts(counts)
	out := make([]models.ProductViewStat, 0, len(counts))
	for _, pc := range counts {
		var sold int64
		name := names[pc.ProductID]
		if ps, ok := sales[pc.ProductID]; ok {
			sold = ps.TotalSold
			name = ps.Name
		}
		out = append(out, models.ProductViewStat{
			ProductID:      pc.ProductID,
			Name:           name,
			Views:          pc.Count,
			ConversionRate: safeDiv(float64(sold), float64(pc.Count)),
		})
	}
	return out
}

func cartStats(counts []store.ProductEventCount, sales map[int64]*models.ProductSales, names map[int64]string) []models.CartAddStat {
	counts = capCounts(counts)
	out := make([]models.CartAddStat, 0, len(counts))
	for _, pc := range counts {
		var sold int64
		name := names[pc.ProductID]
		if ps, ok := sales[pc.ProductID]; ok {
			sold = ps.TotalSold
			name = ps.Name
		}
		out = append(out, models.CartAddStat{
			ProductID:      pc.ProductID,
			Name:           name,
			Count:          pc.Count,
			ConversionRate: safeDiv(float64(sold), float64(pc.Count)),
		})
	}
	return out
}

// capCounts re-sorts and bounds a grouped count list so the top-N guarantee
// holds even if a store implementation returns more or unsorted rows.
func capCounts(counts []store.ProductEventCount) []store.ProductEventCount {
	sorted := make([]store.ProductEventCount, len(counts))
	copy(sorted, counts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].ProductID < sorted[j].ProductID
	})
	if len(sorted) > topN {
		sorted = sorted[:topN]
	}
	return sorted
}

func leaderboard(orders []models.Order, vendors []models.User) []models.VendorRank {
	ranks := make(map[int64]*models.VendorRank, len(vendors))
	out := make([]models.VendorRank, 0, len(vendors))
	for _, v := range vendors {
		ranks[v.ID] = &models.VendorRank{VendorID: v.ID, Name: v.Name}
	}
	for _, o := range orders {
		seen := map[int64]struct{}{}
		for _, it := range o.Items {
			r, ok := ranks[it.VendorID]
			if !ok {
				continue
			}
			r.Revenue += it.Price * float64(it.Quantity)
			if _, dup := seen[it.VendorID]; !dup {
				seen[it.VendorID] = struct{}{}
				r.Orders++
			}
		}
	}
	for _, v := range vendors {
		out = append(out, *ranks[v.ID])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].VendorID < out[j].VendorID
	})
	return out
}

// revenueByDay buckets order totals by UTC day, ascending, one point per day
// that had at least one order. Days without orders are not zero-filled.
func revenueByDay(orders []models.Order) models.RevenueSeries {
	byDay := map[string]float64{}
	for _, o := range orders {
		byDay[models.DayUTC(o.CreatedAt).Format("2006-01-02")] += o.Total()
	}
	dates := make([]string, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	values := make([]float64, 0, len(dates))
	for _, d := range dates {
		values = append(values, byDay[d])
	}
	return models.RevenueSeries{Dates: dates, Values: values}
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func i64ptr(v int64) *int64     { return &v }
func f64ptr(v float64) *float64 { return &v }
