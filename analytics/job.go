// api/analytics/job.go
package analytics

import (
	"context"
	"log"
	"time"

	"vendorpulse/api/models"
)

// SnapshotWriter persists one vendor's recomputed summary. Upserts must be
// atomic per vendor (last write wins on updated_at).
type SnapshotWriter interface {
	Upsert(ctx context.Context, vendorID int64, summary *models.VendorSummary, at time.Time) error
}

// Job is the scheduled aggregation pass: for every vendor, resolve products,
// compute the 30-day summary and upsert the snapshot. One vendor's failure
// never aborts the batch, and a per-vendor timeout keeps a slow vendor from
// stalling the rest.
type Job struct {
	engine           *Engine
	vendors          VendorLister
	snapshots        SnapshotWriter
	perVendorTimeout time.Duration
	now              func() time.Time
}

func NewJob(engine *Engine, vendors VendorLister, snapshots SnapshotWriter, perVendorTimeout time.Duration) *Job {
	if perVendorTimeout <= 0 {
		perVendorTimeout = 30 * time.Second
	}
	return &Job{
		engine:           engine,
		vendors:          vendors,
		snapshots:        snapshots,
		perVendorTimeout: perVendorTimeout,
		now:              time.Now,
	}
}

// Run executes one full pass. Per-vendor failures land in the result; only a
// failure to enumerate vendors at all is returned as an error.
func (j *Job) Run(ctx context.Context) (*models.BatchResult, error) {
	result := &models.BatchResult{
		Failures:  []models.VendorFailure{},
		StartedAt: j.now().UTC(),
	}

	vendors, err := j.vendors.ListVendors(ctx)
	if err != nil {
		return nil, err
	}

	for _, v := range vendors {
		if err := j.processVendor(ctx, v.ID); err != nil {
			log.Printf("Aggregation job: vendor %d failed: %v", v.ID, err)
			result.Failures = append(result.Failures, models.VendorFailure{
				VendorID: v.ID,
				Error:    err.Error(),
			})
			continue
		}
		result.VendorsProcessed++
	}

	result.FinishedAt = j.now().UTC()
	log.Printf("Aggregation job: processed %d vendors, %d failures", result.VendorsProcessed, len(result.Failures))
	return result, nil
}

func (j *Job) processVendor(ctx context.Context, vendorID int64) error {
	vctx, cancel := context.WithTimeout(ctx, j.perVendorTimeout)
	defer cancel()

	summary, err := j.engine.SnapshotSummary(vctx, vendorID)
	if err != nil {
		return err
	}
	return j.snapshots.Upsert(vctx, vendorID, summary, j.now().UTC())
}
