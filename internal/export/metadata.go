package export

import (
	"encoding/json"

	"github.com/clickreel/clickreel/internal/reel"
)

// Metadata is the exported metadata.json document: reel attributes plus
// per-frame event metadata. No pixel data beyond what the image members
// already carry.
type Metadata struct {
	Reel   ReelMetadata    `json:"reel"`
	Frames []FrameMetadata `json:"frames"`
}

// ReelMetadata mirrors the persisted reel attributes. Times are unix
// milliseconds; EndedAtMs is omitted for reels still active when
// exported.
type ReelMetadata struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	StartedAtMs int64  `json:"started_at_ms"`
	EndedAtMs   int64  `json:"ended_at_ms,omitempty"`
	FrameCount  int    `json:"frame_count"`
	Status      string `json:"status"`
}

// FrameMetadata describes one frame without its pixels.
type FrameMetadata struct {
	ID           string              `json:"id"`
	Seq          int                 `json:"seq"`
	CapturedAtMs int64               `json:"captured_at_ms"`
	Width        int                 `json:"width"`
	Height       int                 `json:"height"`
	Event        *reel.EventMetadata `json:"event,omitempty"`
}

// buildMetadata projects a loaded reel into the export document.
func buildMetadata(r *reel.Reel) Metadata {
	m := Metadata{
		Reel: ReelMetadata{
			ID:          r.ID,
			Title:       r.Title,
			StartedAtMs: r.StartedAt.UnixMilli(),
			FrameCount:  r.FrameCount,
			Status:      string(r.Status),
		},
		Frames: make([]FrameMetadata, 0, len(r.Frames)),
	}
	if !r.EndedAt.IsZero() {
		m.Reel.EndedAtMs = r.EndedAt.UnixMilli()
	}
	for _, f := range r.Frames {
		m.Frames = append(m.Frames, FrameMetadata{
			ID:           f.ID,
			Seq:          f.Seq,
			CapturedAtMs: f.CapturedAt.UnixMilli(),
			Width:        f.Image.Bounds().Dx(),
			Height:       f.Image.Bounds().Dy(),
			Event:        f.Event,
		})
	}
	return m
}

// marshalMetadata renders the document as indented JSON.
func marshalMetadata(r *reel.Reel) ([]byte, error) {
	data, err := json.MarshalIndent(buildMetadata(r), "", "  ")
	if err != nil {
		return nil, reel.WrapError(reel.ErrCodeEncodingFailure, r.ID, err, "marshal metadata")
	}
	return append(data, '\n'), nil
}
