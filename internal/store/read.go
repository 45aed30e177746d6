package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/clickreel/clickreel/internal/reel"
)

// LoadInventory returns a summary listing of all reels without loading
// any image payloads. Ordered by start time, then id, for stable output.
//
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) LoadInventory(ctx context.Context) ([]reel.InventoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, started_at, frame_count, status
		FROM reels
		ORDER BY started_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	entries := []reel.InventoryEntry{}
	for rows.Next() {
		var e reel.InventoryEntry
		var startedMs int64
		var status string
		if err := rows.Scan(&e.ID, &e.Title, &startedMs, &e.FrameCount, &status); err != nil {
			return nil, fmt.Errorf("scan inventory entry: %w", err)
		}
		e.StartedAt = time.UnixMilli(startedMs).UTC()
		e.Status = reel.Status(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}
	return entries, nil
}

// GetReel retrieves a reel's metadata without its frames.
// Returns a NOT_FOUND error if the reel does not exist.
func (s *Store) GetReel(ctx context.Context, reelID string) (*reel.Reel, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, started_at, ended_at, frame_count, status
		FROM reels
		WHERE id = ?
	`, reelID)

	var r reel.Reel
	var startedMs int64
	var endedMs *int64
	var status string
	err := row.Scan(&r.ID, &r.Title, &startedMs, &endedMs, &r.FrameCount, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reel.NewReelError(reel.ErrCodeNotFound, reelID, "reel does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("scan reel: %w", err)
	}

	r.StartedAt = time.UnixMilli(startedMs).UTC()
	if endedMs != nil {
		r.EndedAt = time.UnixMilli(*endedMs).UTC()
	}
	r.Status = reel.Status(status)
	return &r, nil
}

// LoadReel retrieves a full reel with its frames ordered by sequence
// index, decoding stored pixel payloads.
func (s *Store) LoadReel(ctx context.Context, reelID string) (*reel.Reel, error) {
	r, err := s.GetReel(ctx, reelID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reel_id, seq, captured_at, image, event
		FROM frames
		WHERE reel_id = ?
		ORDER BY seq ASC
	`, reelID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	frames := []reel.Frame{}
	for rows.Next() {
		var f reel.Frame
		var capturedMs int64
		var blob []byte
		var eventJSON *string
		if err := rows.Scan(&f.ID, &f.ReelID, &f.Seq, &capturedMs, &blob, &eventJSON); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		f.CapturedAt = time.UnixMilli(capturedMs).UTC()
		if f.Image, err = unmarshalImage(blob); err != nil {
			return nil, fmt.Errorf("frame %s: %w", f.ID, err)
		}
		if f.Event, err = unmarshalEvent(eventJSON); err != nil {
			return nil, fmt.Errorf("frame %s: %w", f.ID, err)
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}

	r.Frames = frames
	return r, nil
}

// Info computes aggregate statistics over persisted state: reel and
// frame counts plus the estimated stored payload size. The free-space
// figure comes from the volume holding the database; it is reported as 0
// when unavailable rather than failing the call.
func (s *Store) Info(ctx context.Context) (reel.StorageInfo, error) {
	var info reel.StorageInfo

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reels`).Scan(&info.Reels)
	if err != nil {
		return info, fmt.Errorf("count reels: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(image)), 0) FROM frames
	`).Scan(&info.Frames, &info.EstimatedBytes)
	if err != nil {
		return info, fmt.Errorf("count frames: %w", err)
	}

	if usage, err := disk.UsageWithContext(ctx, s.dir); err == nil {
		info.DiskFreeBytes = usage.Free
	}

	return info, nil
}
