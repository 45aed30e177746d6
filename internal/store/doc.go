// Package store provides SQLite-backed durable storage for reels and
// frames.
//
// The store implements an append-only frame log per reel:
//   - Frames: captured images with contiguous per-reel sequence indexes
//   - Reels: session records owning their frames
//
// # Critical Patterns
//
// Atomic sequence assignment
//   - AppendFrame assigns seq = frame_count and bumps frame_count in one
//     transaction, so concurrent appends can never share an index and
//     frame_count always equals the number of persisted frames.
//
// All-or-nothing writes
//   - Every mutating operation is a single transaction; a failed call
//     leaves no partial frame or half-deleted reel behind.
//
// Crash recovery by construction
//   - A reel interrupted mid-recording is simply status='active' with
//     whatever frames committed before the interruption. Readers treat
//     it as valid-but-incomplete, never corrupt.
//
// Deterministic reads
//   - Frame queries ORDER BY seq ASC; inventory ORDER BY started_at,
//     then id, for stable listings.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: frames cannot outlive their reel
package store
