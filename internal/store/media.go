package store

import (
	"context"
	"time"

	"indorunners-backend-go/internal/models"
)

func (q *Queries) InsertMediaAsset(ctx context.Context, m models.MediaAsset) error {
	_, err := q.exec(ctx, `
INSERT INTO media_assets (id, owner_user_id, bucket, storage_key, filename, content_type, size_bytes, sha256, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.OwnerUserID, m.Bucket, m.StorageKey, m.Filename, m.ContentType, m.SizeBytes, m.Sha256, normalize(m.CreatedAt))
	return wrap("insert media asset", err)
}

func (q *Queries) FindMediaAsset(ctx context.Context, id string) (models.MediaAsset, error) {
	var m models.MediaAsset
	err := q.get(ctx, &m, `
SELECT id, owner_user_id, bucket, storage_key, filename, content_type, size_bytes, sha256, created_at
FROM media_assets WHERE id = ?`, id)
	return m, wrap("find media asset", err)
}

func (q *Queries) DeleteMediaAsset(ctx context.Context, id string) (int64, error) {
	n, err := q.exec(ctx, `DELETE FROM media_assets WHERE id = ?`, id)
	return n, wrap("delete media asset", err)
}

// PaymentProofAccessible reports whether any registration owned by userID
// references the asset.
func (q *Queries) PaymentProofAccessible(ctx context.Context, assetID, userID string) (bool, error) {
	var n int
	err := q.get(ctx, &n, `
SELECT COUNT(*) FROM registrations WHERE payment_proof_id = ? AND user_id = ?`, assetID, userID)
	return n > 0, wrap("check payment proof", err)
}

func (q *Queries) InsertMetricSample(ctx context.Context, m models.ServerMetricSample) error {
	_, err := q.exec(ctx, `
INSERT INTO server_metric_samples (
  id, captured_at, process_rss_bytes, system_memory_total_bytes, system_memory_used_bytes,
  disk_total_bytes, disk_used_bytes, process_cpu_load, system_cpu_load,
  active_registrations, pending_payments
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, normalize(m.CapturedAt), m.ProcessRSSBytes, m.SystemMemoryTotal, m.SystemMemoryUsed,
		m.DiskTotalBytes, m.DiskUsedBytes, m.ProcessCpuLoad, m.SystemCpuLoad,
		m.ActiveRegistrations, m.PendingPayments)
	return wrap("insert metric sample", err)
}

// LatestMetricSamples returns up to limit samples, oldest first.
func (q *Queries) LatestMetricSamples(ctx context.Context, limit int) ([]models.ServerMetricSample, error) {
	rows := []models.ServerMetricSample{}
	if err := q.selectAll(ctx, &rows, `
SELECT id, captured_at, process_rss_bytes, system_memory_total_bytes, system_memory_used_bytes,
  disk_total_bytes, disk_used_bytes, process_cpu_load, system_cpu_load,
  active_registrations, pending_payments
FROM server_metric_samples
ORDER BY captured_at DESC
LIMIT ?`, limit); err != nil {
		return nil, wrap("latest metric samples", err)
	}
	items := make([]models.ServerMetricSample, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		items = append(items, rows[i])
	}
	return items, nil
}

// PruneMetricSamples drops samples captured before cutoff.
func (q *Queries) PruneMetricSamples(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := q.exec(ctx, `DELETE FROM server_metric_samples WHERE captured_at < ?`, normalize(cutoff))
	return n, wrap("prune metric samples", err)
}
