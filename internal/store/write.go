package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/clickreel/clickreel/internal/reel"
)

// CreateReel inserts a new active reel record.
//
// The recorder enforces the one-active-reel rule; the store accepts any
// number of active reels so interrupted sessions from prior runs remain
// loadable alongside a new one.
func (s *Store) CreateReel(ctx context.Context, r *reel.Reel) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reels (id, title, started_at, ended_at, frame_count, status)
		VALUES (?, ?, ?, NULL, 0, ?)
	`,
		r.ID,
		r.Title,
		r.StartedAt.UnixMilli(),
		string(reel.StatusActive),
	)
	if err != nil {
		return mapWriteError(r.ID, err, "create reel")
	}
	return nil
}

// AppendFrame durably appends a frame to its reel, assigning the next
// sequence index atomically relative to that reel.
//
// The whole operation runs in one transaction:
//  1. read frame_count and status (rejecting finalized/missing reels)
//  2. insert the frame with seq = frame_count
//  3. bump frame_count
//
// On success frame.Seq carries the assigned index. On failure nothing is
// written: no partial frame, no consumed index.
func (s *Store) AppendFrame(ctx context.Context, frame *reel.Frame) error {
	imageBlob, err := marshalImage(frame.Image)
	if err != nil {
		return reel.WrapError(reel.ErrCodeWriteFailure, frame.ReelID, err, "encode frame pixels")
	}
	eventJSON, err := marshalEvent(frame.Event)
	if err != nil {
		return reel.WrapError(reel.ErrCodeWriteFailure, frame.ReelID, err, "encode frame event")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapWriteError(frame.ReelID, err, "append frame: begin tx")
	}
	defer tx.Rollback() // No-op if committed

	var frameCount int
	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT frame_count, status FROM reels WHERE id = ?
	`, frame.ReelID).Scan(&frameCount, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return reel.NewReelError(reel.ErrCodeNotFound, frame.ReelID, "reel does not exist")
	}
	if err != nil {
		return mapWriteError(frame.ReelID, err, "append frame: read reel")
	}
	if reel.Status(status) != reel.StatusActive {
		return reel.NewReelError(reel.ErrCodeAlreadyFinalized, frame.ReelID, "cannot append to finalized reel")
	}

	bounds := frame.Image.Bounds()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO frames (id, reel_id, seq, captured_at, width, height, image, event)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		frame.ID,
		frame.ReelID,
		frameCount,
		frame.CapturedAt.UnixMilli(),
		bounds.Dx(),
		bounds.Dy(),
		imageBlob,
		eventJSON,
	)
	if err != nil {
		return mapWriteError(frame.ReelID, err, "append frame: insert")
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE reels SET frame_count = frame_count + 1 WHERE id = ?
	`, frame.ReelID)
	if err != nil {
		return mapWriteError(frame.ReelID, err, "append frame: bump frame_count")
	}

	if err := tx.Commit(); err != nil {
		return mapWriteError(frame.ReelID, err, "append frame: commit")
	}

	frame.Seq = frameCount
	return nil
}

// FinalizeReel sets status=finalized and the end time, fixing the reel's
// frame set. Finalizing twice is an ALREADY_FINALIZED error; a missing
// reel is NOT_FOUND.
func (s *Store) FinalizeReel(ctx context.Context, reelID string, endedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapWriteError(reelID, err, "finalize reel: begin tx")
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM reels WHERE id = ?`, reelID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return reel.NewReelError(reel.ErrCodeNotFound, reelID, "reel does not exist")
	}
	if err != nil {
		return mapWriteError(reelID, err, "finalize reel: read status")
	}
	if reel.Status(status) == reel.StatusFinalized {
		return reel.NewReelError(reel.ErrCodeAlreadyFinalized, reelID, "reel already finalized")
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE reels SET status = ?, ended_at = ? WHERE id = ?
	`, string(reel.StatusFinalized), endedAt.UnixMilli(), reelID)
	if err != nil {
		return mapWriteError(reelID, err, "finalize reel: update")
	}

	if err := tx.Commit(); err != nil {
		return mapWriteError(reelID, err, "finalize reel: commit")
	}
	return nil
}

// DeleteReel removes a reel and all of its frames in one transaction.
// Deleting a non-existent reel is a NOT_FOUND error. No orphaned frames
// are possible: both deletes commit together or not at all.
func (s *Store) DeleteReel(ctx context.Context, reelID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapWriteError(reelID, err, "delete reel: begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM frames WHERE reel_id = ?`, reelID); err != nil {
		return mapWriteError(reelID, err, "delete reel: frames")
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM reels WHERE id = ?`, reelID)
	if err != nil {
		return mapWriteError(reelID, err, "delete reel: reel")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapWriteError(reelID, err, "delete reel: rows affected")
	}
	if affected == 0 {
		return reel.NewReelError(reel.ErrCodeNotFound, reelID, "reel does not exist")
	}

	if err := tx.Commit(); err != nil {
		return mapWriteError(reelID, err, "delete reel: commit")
	}
	return nil
}

// mapWriteError converts driver errors to the engine taxonomy.
// SQLITE_FULL becomes STORAGE_QUOTA_EXCEEDED; everything else is a
// WRITE_FAILURE carrying the underlying cause.
func mapWriteError(reelID string, err error, op string) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrFull {
		return reel.WrapError(reel.ErrCodeStorageQuotaExceeded, reelID, err, fmt.Sprintf("%s: storage quota exceeded", op))
	}
	return reel.WrapError(reel.ErrCodeWriteFailure, reelID, err, op)
}
