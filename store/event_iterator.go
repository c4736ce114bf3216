// api/store/event_iterator.go
package store

import (
	"encoding/json"

	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"vendorpulse/api/models"
)

// EventIterator lazily walks a single event query result. Next advances and
// reports whether a row was decoded; after Next returns false check Err.
type EventIterator struct {
	rows chdriver.Rows
	cur  models.StorefrontEvent
	err  error
}

func (it *EventIterator) Next() bool {
	for it.rows.Next() {
		var (
			ev       models.StorefrontEvent
			metadata string
		)
		if err := it.rows.Scan(
			&ev.EventID,
			&ev.EventType,
			&ev.ProductID,
			&ev.VendorID,
			&ev.UserID,
			&ev.Timestamp,
			&metadata,
		); err != nil {
			it.err = newStoreError("scan event row", err)
			return false
		}
		if metadata != "" {
			ev.Metadata = json.RawMessage(metadata)
		}
		it.cur = ev
		return true
	}
	if err := it.rows.Err(); err != nil && it.err == nil {
		it.err = newStoreError("iterate events", err)
	}
	return false
}

func (it *EventIterator) Event() models.StorefrontEvent { return it.cur }

func (it *EventIterator) Err() error { return it.err }

func (it *EventIterator) Close() error { return it.rows.Close() }
