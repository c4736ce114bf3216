// api/handlers/analytics_handlers.go
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"vendorpulse/api/analytics"
	"vendorpulse/api/models"
	"vendorpulse/api/store"
	"vendorpulse/api/utils"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandlers struct {
	Engine     *analytics.Engine
	Job        *analytics.Job
	EventStore *store.EventStore
	Snapshots  *store.SnapshotStore
}

func NewAnalyticsHandlers(engine *analytics.Engine, job *analytics.Job, events *store.EventStore, snapshots *store.SnapshotStore) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		Engine:     engine,
		Job:        job,
		EventStore: events,
		Snapshots:  snapshots,
	}
}

// scopeVendorID applies role rules to the vendorId query parameter: vendors
// are locked to their own ID, admins may pass any vendor or none at all
// (none = platform-wide). Returns (vendorID, platform, ok).
func scopeVendorID(c *gin.Context) (int64, bool, bool) {
	role := c.GetString("user_role")
	param := c.Query("vendorId")

	switch role {
	case models.RoleVendor:
		vendorID := c.GetInt64("user_id")
		if param != "" {
			if requested, err := strconv.ParseInt(param, 10, 64); err != nil || requested != vendorID {
				c.JSON(http.StatusForbidden, gin.H{"error": "Vendors may only query their own analytics"})
				return 0, false, false
			}
		}
		return vendorID, false, true
	case models.RoleAdmin:
		if param == "" {
			return 0, true, true
		}
		vendorID, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'vendorId' parameter"})
			return 0, false, false
		}
		return vendorID, false, true
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Analytics are restricted to vendor and admin accounts"})
		return 0, false, false
	}
}

// GetSummary serves the on-demand aggregation: a vendor summary, or the
// platform summary for admins that omit vendorId. Degraded sections are
// flagged in the payload rather than failing the request.
func (h *AnalyticsHandlers) GetSummary(c *gin.Context) {
	timeframe := c.DefaultQuery("timeframe", "week")
	if !utils.IsValidTimeframe(timeframe) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeframe must be one of 'week', 'month', 'year'"})
		return
	}

	vendorID, platform, ok := scopeVendorID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if platform {
		summary, err := h.Engine.PlatformSummary(ctx, models.Timeframe(timeframe))
		if err != nil {
			log.Printf("Error computing platform summary: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute platform summary"})
			return
		}
		c.JSON(http.StatusOK, summary)
		return
	}

	summary, err := h.Engine.VendorSummary(ctx, vendorID, models.Timeframe(timeframe))
	if err != nil {
		log.Printf("Error computing summary for vendor %d: %v", vendorID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute vendor summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

type trendsRequest struct {
	Timeframe string `json:"timeframe" binding:"required"`
}

// GetTrends serves trend directions, the 7-day forecast and insight text.
func (h *AnalyticsHandlers) GetTrends(c *gin.Context) {
	var req trendsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if !utils.IsValidTimeframe(req.Timeframe) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeframe must be one of 'week', 'month', 'year'"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	report, err := h.Engine.TrendReport(ctx, models.Timeframe(req.Timeframe))
	if err != nil {
		log.Printf("Error computing trend report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute trends"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetSnapshot serves the persisted snapshot for a vendor, with UpdatedAt and
// the Stale flag so the dashboard never mistakes the cache for a live
// aggregate.
func (h *AnalyticsHandlers) GetSnapshot(c *gin.Context) {
	vendorID, platform, ok := scopeVendorID(c)
	if !ok {
		return
	}
	if platform {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendorId is required for snapshots"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	snapshot, err := h.Snapshots.Get(ctx, vendorID)
	if err != nil {
		log.Printf("Error loading snapshot for vendor %d: %v", vendorID, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "No snapshot available for this vendor"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// ExportEvents streams raw events of one type for admin tooling, walking the
// lazy iterator instead of materializing the window.
func (h *AnalyticsHandlers) ExportEvents(c *gin.Context) {
	eventType := c.Query("eventType")
	if !models.IsValidEventType(eventType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventType query parameter is required and must be a known type"})
		return
	}

	since := time.Now().UTC().Add(-7 * 24 * time.Hour)
	if sinceParam := c.Query("since"); sinceParam != "" {
		parsed, err := time.Parse(time.RFC3339, sinceParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'since' timestamp format. Use RFC3339 (e.g., 2006-01-02T15:04:05Z)"})
			return
		}
		since = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	it, err := h.EventStore.ListEvents(ctx, eventType, store.EventFilter{Since: since})
	if err != nil {
		log.Printf("Error listing %s events: %v", eventType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}
	defer it.Close()

	c.Writer.Header().Set("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)
	enc := json.NewEncoder(c.Writer)
	for it.Next() {
		if err := enc.Encode(it.Event()); err != nil {
			log.Printf("Error streaming event: %v", err)
			return
		}
	}
	if err := it.Err(); err != nil {
		log.Printf("Error iterating %s events: %v", eventType, err)
	}
}

// RunAggregation is the scheduler trigger endpoint: idempotent, guarded by a
// shared-secret header, returns the batch result including per-vendor
// failures.
func (h *AnalyticsHandlers) RunAggregation(c *gin.Context) {
	secret := os.Getenv("AGGREGATION_KEY")
	if secret != "" && c.GetHeader("X-Aggregation-Key") != secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid aggregation key"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Minute)
	defer cancel()

	result, err := h.Job.Run(ctx)
	if err != nil {
		log.Printf("Aggregation run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Aggregation run failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
