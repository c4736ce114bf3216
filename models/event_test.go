package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidEventType(t *testing.T) {
	for _, valid := range []string{
		EventProductView, EventAddToCart, EventRemoveFromCart,
		EventAdImpression, EventAdClick, EventBeginCheckout,
		EventPurchase, EventSearch,
	} {
		require.True(t, IsValidEventType(valid), valid)
	}
	require.False(t, IsValidEventType("page_view"))
	require.False(t, IsValidEventType(""))
	require.False(t, IsValidEventType("PRODUCT_VIEW"))
}

func TestPurchaseMetadataDecode(t *testing.T) {
	e := StorefrontEvent{
		EventID:   "evt-1",
		EventType: EventPurchase,
		Metadata:  json.RawMessage(`{"orderId": 42, "total": 99.5}`),
	}
	m, err := e.Purchase()
	require.NoError(t, err)
	require.EqualValues(t, 42, m.OrderID)
	require.EqualValues(t, 99.5, m.Total)
}

func TestPurchaseMetadataWrongType(t *testing.T) {
	e := StorefrontEvent{EventID: "evt-2", EventType: EventProductView}
	_, err := e.Purchase()
	require.Error(t, err)
}

func TestSearchMetadataDecode(t *testing.T) {
	e := StorefrontEvent{
		EventID:   "evt-4",
		EventType: EventSearch,
		Metadata:  json.RawMessage(`{"query": "walnut desk"}`),
	}
	m, err := e.Search()
	require.NoError(t, err)
	require.Equal(t, "walnut desk", m.Query)

	e.EventType = EventAdClick
	_, err = e.Search()
	require.Error(t, err)
}

func TestAdClickMetadataMalformed(t *testing.T) {
	e := StorefrontEvent{
		EventID:   "evt-3",
		EventType: EventAdClick,
		Metadata:  json.RawMessage(`{not json`),
	}
	_, err := e.AdClick()
	require.Error(t, err)
}
