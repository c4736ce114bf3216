// api/store/event_store.go
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"vendorpulse/api/database"
	"vendorpulse/api/models"
)

// EventStore is the ClickHouse-backed side of the event store adapter. All
// read operations are side-effect free and safe for concurrent use; failures
// surface as *StoreError after a bounded retry.
type EventStore struct {
	DB *database.ClickHouseClient
}

func NewEventStore(chClient *database.ClickHouseClient) *EventStore {
	return &EventStore{DB: chClient}
}

// EventFilter scopes event reads. A nil ProductIDs means no product filter;
// an empty non-nil slice matches nothing. Zero Since/Until leave that bound
// open.
type EventFilter struct {
	ProductIDs []int64
	VendorID   int64
	Since      time.Time
	Until      time.Time
}

type ProductEventCount struct {
	ProductID int64
	Count     int64
}

type DailyEventCount struct {
	Date  time.Time
	Count int64
}

func (f EventFilter) whereClause() (string, []interface{}) {
	where := "WHERE event_type = ?"
	var args []interface{}
	if !f.Since.IsZero() {
		where += " AND timestamp >= ?"
		args = append(args, f.Since)
	}
	if !f.Until.IsZero() {
		where += " AND timestamp < ?"
		args = append(args, f.Until)
	}
	if f.VendorID != 0 {
		where += " AND vendor_id = ?"
		args = append(args, f.VendorID)
	}
	if f.ProductIDs != nil {
		where += " AND product_id IN (?)"
		args = append(args, f.ProductIDs)
	}
	return where, args
}

// InsertEvents appends a batch of storefront events. This is the only write
// path; events are never updated afterwards.
func (s *EventStore) InsertEvents(ctx context.Context, events []models.StorefrontEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO storefront_events (
			event_id, event_type, product_id, vendor_id, user_id, timestamp, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return newStoreError("insert events: prepare batch", err)
	}

	for _, event := range events {
		err := batch.Append(
			event.EventID,
			event.EventType,
			event.ProductID,
			event.VendorID,
			event.UserID,
			event.Timestamp,
			string(event.Metadata),
		)
		if err != nil {
			log.Printf("Error appending event to batch (EventID: %s): %v", event.EventID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return newStoreError("insert events: send batch", err)
	}

	log.Printf("Inserted %d storefront events.", len(events))
	return nil
}

// CountEvents returns the number of events of one type matching the filter.
func (s *EventStore) CountEvents(ctx context.Context, eventType string, f EventFilter) (int64, error) {
	where, args := f.whereClause()
	query := fmt.Sprintf(`SELECT count() FROM storefront_events %s`, where)
	args = append([]interface{}{eventType}, args...)

	var count uint64
	err := withRetry(ctx, "count events "+eventType, func() error {
		return s.DB.Conn.QueryRow(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		return 0, err
	}
	return int64(count), nil
}

// EventCountsByProduct groups events of one type by product, descending by
// count, bounded by limit.
func (s *EventStore) EventCountsByProduct(ctx context.Context, eventType string, f EventFilter, limit uint64) ([]ProductEventCount, error) {
	if limit == 0 {
		limit = 10
	}
	where, args := f.whereClause()
	query := fmt.Sprintf(`
		SELECT product_id, count() AS event_count
		FROM storefront_events
		%s
		GROUP BY product_id
		ORDER BY event_count DESC, product_id ASC
		LIMIT ?
	`, where)
	args = append([]interface{}{eventType}, args...)
	args = append(args, limit)

	var results []ProductEventCount
	err := withRetry(ctx, "event counts by product "+eventType, func() error {
		rows, err := s.DB.Conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		results = results[:0]
		for rows.Next() {
			var productID int64
			var count uint64
			if err := rows.Scan(&productID, &count); err != nil {
				log.Printf("Error scanning row for event counts by product: %v", err)
				continue
			}
			results = append(results, ProductEventCount{ProductID: productID, Count: int64(count)})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Day buckets are pinned to UTC so they line up with the UTC-bucketed order
// revenue series regardless of the ClickHouse server timezone.
const dailyEventCountsQuery = `
	SELECT toStartOfDay(timestamp, 'UTC') AS day, count() AS event_count
	FROM storefront_events
	%s
	GROUP BY day
	ORDER BY day ASC
`

// DailyEventCounts groups events of one type by UTC day, ascending. Days
// without events produce no row.
func (s *EventStore) DailyEventCounts(ctx context.Context, eventType string, f EventFilter) ([]DailyEventCount, error) {
	where, args := f.whereClause()
	query := fmt.Sprintf(dailyEventCountsQuery, where)
	args = append([]interface{}{eventType}, args...)

	var results []DailyEventCount
	err := withRetry(ctx, "daily event counts "+eventType, func() error {
		rows, err := s.DB.Conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		results = results[:0]
		for rows.Next() {
			var day time.Time
			var count uint64
			if err := rows.Scan(&day, &count); err != nil {
				log.Printf("Error scanning row for daily event counts: %v", err)
				continue
			}
			results = append(results, DailyEventCount{Date: day, Count: int64(count)})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListEvents returns a lazy iterator over events of one type. The sequence is
// finite and not restartable; re-issue the query for another pass. The caller
// must Close the iterator.
func (s *EventStore) ListEvents(ctx context.Context, eventType string, f EventFilter) (*EventIterator, error) {
	where, args := f.whereClause()
	query := fmt.Sprintf(`
		SELECT event_id, event_type, product_id, vendor_id, user_id, timestamp, metadata
		FROM storefront_events
		%s
		ORDER BY timestamp ASC
	`, where)
	args = append([]interface{}{eventType}, args...)

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, newStoreError("list events "+eventType, err)
	}
	return &EventIterator{rows: rows}, nil
}
