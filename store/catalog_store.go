// api/store/catalog_store.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"vendorpulse/api/models"
)

// CatalogStore reads products, orders and entity counts from PostgreSQL.
// Read-only and safe for concurrent use.
type CatalogStore struct {
	db *sql.DB
}

func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// OrderFilter scopes order reads. Semantics match EventFilter: nil ProductIDs
// means unfiltered, empty non-nil matches nothing.
type OrderFilter struct {
	ProductIDs []int64
	VendorID   int64
	Since      time.Time
	Until      time.Time
}

// ListOrders returns orders in the window with their items and the joined
// product name/vendor. Orders whose product row has been deleted keep the
// item with a zero vendor and empty name.
func (s *CatalogStore) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	query := `
		SELECT o.id, o.user_id, o.created_at,
		       oi.product_id, COALESCE(p.name, ''), COALESCE(p.vendor_id, 0),
		       oi.price, oi.quantity
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN products p ON p.id = oi.product_id
	`
	where := "WHERE TRUE"
	var args []interface{}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		where += fmt.Sprintf(" AND o.created_at >= $%d", len(args))
	}
	if !f.Until.IsZero() {
		args = append(args, f.Until)
		where += fmt.Sprintf(" AND o.created_at < $%d", len(args))
	}
	if f.VendorID != 0 {
		args = append(args, f.VendorID)
		where += fmt.Sprintf(" AND p.vendor_id = $%d", len(args))
	}
	if f.ProductIDs != nil {
		args = append(args, pq.Array(f.ProductIDs))
		where += fmt.Sprintf(" AND oi.product_id = ANY($%d)", len(args))
	}
	query += where + " ORDER BY o.created_at ASC, o.id ASC"

	var orders []models.Order
	err := withRetry(ctx, "list orders", func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		orders = orders[:0]
		byID := make(map[int64]int)
		for rows.Next() {
			var (
				o    models.Order
				item models.OrderItem
			)
			if err := rows.Scan(
				&o.ID, &o.UserID, &o.CreatedAt,
				&item.ProductID, &item.ProductName, &item.VendorID,
				&item.Price, &item.Quantity,
			); err != nil {
				log.Printf("Error scanning order row: %v", err)
				continue
			}
			idx, ok := byID[o.ID]
			if !ok {
				idx = len(orders)
				byID[o.ID] = idx
				orders = append(orders, o)
			}
			orders[idx].Items = append(orders[idx].Items, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CountEntities counts vendors, users, products or orders created since the
// given time (zero = all time).
func (s *CatalogStore) CountEntities(ctx context.Context, kind string, since time.Time) (int64, error) {
	var query string
	var args []interface{}
	switch kind {
	case "vendors":
		query = `SELECT COUNT(*) FROM users WHERE role = 'vendor'`
	case "users":
		query = `SELECT COUNT(*) FROM users`
	case "products":
		query = `SELECT COUNT(*) FROM products`
	case "orders":
		query = `SELECT COUNT(*) FROM orders`
	default:
		return 0, &StoreError{Op: "count entities", Retryable: false, Err: fmt.Errorf("unknown entity kind %q", kind)}
	}
	if !since.IsZero() {
		args = append(args, since)
		if kind == "vendors" {
			query += " AND created_at >= $1"
		} else {
			query += " WHERE created_at >= $1"
		}
	}

	var count int64
	err := withRetry(ctx, "count "+kind, func() error {
		return s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ProductNames resolves product IDs to display names for the top-N tables.
func (s *CatalogStore) ProductNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	err := withRetry(ctx, "product names", func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM products WHERE id = ANY($1)`, pq.Array(ids))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			var name string
			if err := rows.Scan(&id, &name); err != nil {
				log.Printf("Error scanning product name row: %v", err)
				continue
			}
			names[id] = name
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// OrderProductIDs is the order-derived ownership strategy: distinct product
// IDs the vendor has sold since the given time, per the joined product row.
func (s *CatalogStore) OrderProductIDs(ctx context.Context, vendorID int64, since time.Time) ([]int64, error) {
	query := `
		SELECT DISTINCT oi.product_id
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE p.vendor_id = $1 AND o.created_at >= $2
		ORDER BY oi.product_id ASC
	`
	return s.scanIDs(ctx, "order-derived product ids", query, vendorID, since)
}

// ProductColumns lists the column names of the products table via
// information_schema. Last-resort capability for the ownership resolver, not
// a normal query path.
func (s *CatalogStore) ProductColumns(ctx context.Context) ([]string, error) {
	var cols []string
	err := withRetry(ctx, "introspect product columns", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT column_name FROM information_schema.columns
			WHERE table_name = 'products'
			ORDER BY ordinal_position
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		cols = cols[:0]
		for rows.Next() {
			var c string
			if err := rows.Scan(&c); err != nil {
				log.Printf("Error scanning column name row: %v", err)
				continue
			}
			cols = append(cols, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return cols, nil
}

// ProductIDsByColumn queries product IDs by an introspected ownership column.
// The column name must come from ProductColumns; it is identifier-quoted, not
// parameterized.
func (s *CatalogStore) ProductIDsByColumn(ctx context.Context, column string, vendorID int64) ([]int64, error) {
	query := fmt.Sprintf(`SELECT id FROM products WHERE %s = $1 ORDER BY id ASC`, pq.QuoteIdentifier(column))
	return s.scanIDs(ctx, "product ids by column "+column, query, vendorID)
}

func (s *CatalogStore) scanIDs(ctx context.Context, op, query string, args ...interface{}) ([]int64, error) {
	var ids []int64
	err := withRetry(ctx, op, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		ids = ids[:0]
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				log.Printf("Error scanning id row: %v", err)
				continue
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
