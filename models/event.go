// api/models/event.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types emitted by the storefront instrumentation layer.
const (
	EventProductView    = "product_view"
	EventAddToCart      = "add_to_cart"
	EventRemoveFromCart = "remove_from_cart"
	EventAdImpression   = "ad_impression"
	EventAdClick        = "ad_click"
	EventBeginCheckout  = "begin_checkout"
	EventPurchase       = "purchase"
	EventSearch         = "search"
)

func IsValidEventType(t string) bool {
	switch t {
	case EventProductView, EventAddToCart, EventRemoveFromCart, EventAdImpression,
		EventAdClick, EventBeginCheckout, EventPurchase, EventSearch:
		return true
	default:
		return false
	}
}

// StorefrontEvent is a single immutable event record. Events are append-only:
// once written they are never updated or deleted by this service.
type StorefrontEvent struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	ProductID int64           `json:"productId"`
	VendorID  int64           `json:"vendorId,omitempty"`
	UserID    int64           `json:"userId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Typed payloads for the metadata fields the aggregation actually reads.
// Anything outside these shapes stays in the raw Metadata blob.

type PurchaseMetadata struct {
	OrderID int64   `json:"orderId"`
	Total   float64 `json:"total"`
}

type AdClickMetadata struct {
	AdID     string `json:"adId"`
	Position string `json:"position"`
}

type SearchMetadata struct {
	Query string `json:"query"`
}

func (e *StorefrontEvent) Purchase() (*PurchaseMetadata, error) {
	if e.EventType != EventPurchase {
		return nil, fmt.Errorf("event %s is not a purchase event", e.EventID)
	}
	var m PurchaseMetadata
	if err := json.Unmarshal(e.Metadata, &m); err != nil {
		return nil, fmt.Errorf("failed to decode purchase metadata for event %s: %w", e.EventID, err)
	}
	return &m, nil
}

func (e *StorefrontEvent) Search() (*SearchMetadata, error) {
	if e.EventType != EventSearch {
		return nil, fmt.Errorf("event %s is not a search event", e.EventID)
	}
	var m SearchMetadata
	if err := json.Unmarshal(e.Metadata, &m); err != nil {
		return nil, fmt.Errorf("failed to decode search metadata for event %s: %w", e.EventID, err)
	}
	return &m, nil
}

func (e *StorefrontEvent) AdClick() (*AdClickMetadata, error) {
	if e.EventType != EventAdClick {
		return nil, fmt.Errorf("event %s is not an ad_click event", e.EventID)
	}
	var m AdClickMetadata
	if err := json.Unmarshal(e.Metadata, &m); err != nil {
		return nil, fmt.Errorf("failed to decode ad_click metadata for event %s: %w", e.EventID, err)
	}
	return &m, nil
}
