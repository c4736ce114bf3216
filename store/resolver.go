// api/store/resolver.go
package store

import (
	"context"
	"log"
	"strings"
	"time"
)

// ownershipSource is what the resolver needs from the catalog. CatalogStore
// implements it; tests substitute an in-memory fake.
type ownershipSource interface {
	OrderProductIDs(ctx context.Context, vendorID int64, since time.Time) ([]int64, error)
	ProductColumns(ctx context.Context) ([]string, error)
	ProductIDsByColumn(ctx context.Context, column string, vendorID int64) ([]int64, error)
}

// ProductResolver maps a vendor to the product IDs it owns, tolerating the
// ownership-column drift the products table has accumulated across schema
// revisions. The legacy chain (order-derived scan, then schema introspection)
// runs before the canonical vendor_id query only while LegacyFallback is on;
// new deployments should run with it off and a single non-nullable vendor_id
// foreign key.
type ProductResolver struct {
	src            ownershipSource
	legacyFallback bool
	orderWindow    time.Duration
}

func NewProductResolver(src ownershipSource, legacyFallback bool) *ProductResolver {
	return &ProductResolver{
		src:            src,
		legacyFallback: legacyFallback,
		orderWindow:    30 * 24 * time.Hour,
	}
}

// OwnedProducts runs the fallback chain, first nonempty result wins. An empty
// result after all strategies is a valid outcome, not an error: a vendor with
// zero products exists. Store errors propagate immediately.
func (r *ProductResolver) OwnedProducts(ctx context.Context, vendorID int64) ([]int64, error) {
	if r.legacyFallback {
		ids, err := r.src.OrderProductIDs(ctx, vendorID, time.Now().UTC().Add(-r.orderWindow))
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			log.Printf("Resolver: vendor %d resolved %d products via order window", vendorID, len(ids))
			return ids, nil
		}

		ids, err = r.resolveByIntrospection(ctx, vendorID)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			return ids, nil
		}
	}

	ids, err := r.src.ProductIDsByColumn(ctx, "vendor_id", vendorID)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		log.Printf("Resolver: vendor %d resolved %d products via vendor_id", vendorID, len(ids))
	}
	return ids, nil
}

// resolveByIntrospection sniffs the products table for a plausible ownership
// column and tries each candidate until one yields rows.
func (r *ProductResolver) resolveByIntrospection(ctx context.Context, vendorID int64) ([]int64, error) {
	cols, err := r.src.ProductColumns(ctx)
	if err != nil {
		return nil, err
	}
	for _, col := range cols {
		if !isOwnershipColumn(col) {
			continue
		}
		ids, err := r.src.ProductIDsByColumn(ctx, col, vendorID)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			log.Printf("Resolver: vendor %d resolved %d products via introspected column %q", vendorID, len(ids), col)
			return ids, nil
		}
	}
	return nil, nil
}

func isOwnershipColumn(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "vendor") || strings.Contains(n, "user") || strings.Contains(n, "creator")
}
