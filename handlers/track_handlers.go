// api/handlers/track_handlers.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"vendorpulse/api/models"
	"vendorpulse/api/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TrackHandlers struct {
	EventStore *store.EventStore
}

func NewTrackHandlers(s *store.EventStore) *TrackHandlers {
	return &TrackHandlers{EventStore: s}
}

// TrackEvent accepts a batch of storefront events from the frontend. Event
// IDs and missing timestamps are assigned server-side; unknown event types
// reject the whole batch so bad instrumentation is caught early.
func (h *TrackHandlers) TrackEvent(c *gin.Context) {
	var incomingEvents []models.StorefrontEvent
	if err := c.ShouldBindJSON(&incomingEvents); err != nil {
		log.Printf("Error binding incoming event JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if len(incomingEvents) == 0 {
		c.Status(http.StatusOK)
		return
	}

	now := time.Now().UTC()
	eventsToInsert := make([]models.StorefrontEvent, 0, len(incomingEvents))
	for _, event := range incomingEvents {
		if !models.IsValidEventType(event.EventType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown event type: " + event.EventType})
			return
		}
		event.EventID = uuid.New().String()
		if event.Timestamp.IsZero() {
			event.Timestamp = now
		}
		eventsToInsert = append(eventsToInsert, event)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.EventStore.InsertEvents(ctx, eventsToInsert); err != nil {
		log.Printf("Error inserting storefront events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record events"})
		return
	}

	c.Status(http.StatusOK)
}
