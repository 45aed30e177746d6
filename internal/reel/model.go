package reel

import (
	"image"
	"time"
)

// Status describes a reel's lifecycle stage.
type Status string

const (
	// StatusActive marks a reel that is still accepting frames.
	// A reel left active after an interrupted session is valid but
	// incomplete, never corrupt.
	StatusActive Status = "active"

	// StatusFinalized marks a reel whose frame set is fixed.
	StatusFinalized Status = "finalized"
)

// Reel is one complete recording session: an ordered set of frames plus
// session metadata. The reel is the unit of export and deletion.
type Reel struct {
	ID         string
	Title      string
	StartedAt  time.Time
	EndedAt    time.Time // zero while Status == StatusActive
	FrameCount int
	Status     Status

	// Frames is populated by Store.LoadReel, ordered by Seq.
	// Inventory listings leave it nil.
	Frames []Frame
}

// Frame is one captured still image plus the interaction metadata that
// triggered it.
//
// INVARIANT: Seq values within one reel form a contiguous range starting
// at 0. The store assigns Seq atomically at append time; callers never
// choose it.
type Frame struct {
	ID         string
	ReelID     string
	Seq        int
	CapturedAt time.Time
	Image      *image.RGBA
	Event      *EventMetadata // nil for frames not triggered by a pointer event
}

// EventMetadata records the interaction that triggered a capture.
type EventMetadata struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Target string `json:"target,omitempty"`
	Value  string `json:"value,omitempty"`
}

// InventoryEntry is a lightweight projection of a reel for listings.
// No pixel payloads are loaded to produce one.
type InventoryEntry struct {
	ID         string
	Title      string
	StartedAt  time.Time
	FrameCount int
	Status     Status
}

// StorageInfo aggregates statistics over persisted state.
type StorageInfo struct {
	Reels          int
	Frames         int
	EstimatedBytes int64
	// DiskFreeBytes is the free space on the volume holding the store,
	// 0 when the figure is unavailable.
	DiskFreeBytes uint64
}
