// Package export packages encoded media, metadata, and a standalone
// viewer into downloadable artifacts. Export reads persisted frames and
// never mutates them, so it can run concurrently with a new recording
// session on a different reel.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/clickreel/clickreel/internal/encode"
	"github.com/clickreel/clickreel/internal/reel"
)

// Format selects the export artifact.
type Format string

const (
	FormatGIF  Format = "gif"
	FormatAPNG Format = "apng"
	FormatZip  Format = "zip"
)

// Fixed zip member names. Consumers rely on these.
const (
	MemberGIF      = "recording.gif"
	MemberAPNG     = "recording.apng"
	MemberMetadata = "metadata.json"
	MemberViewer   = "viewer.html"
)

// ReelLoader supplies full reels with ordered frames.
// Implemented by *store.Store.
type ReelLoader interface {
	LoadReel(ctx context.Context, reelID string) (*reel.Reel, error)
}

// Service turns persisted reels into export binaries.
type Service struct {
	loader ReelLoader
	opts   encode.Options
	logger *slog.Logger
}

// New creates an export service encoding with the given options.
func New(loader ReelLoader, opts encode.Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{loader: loader, opts: opts, logger: logger}
}

// Export produces the artifact for one reel. gif and apng delegate to
// the encoder and return its binary; zip bundles both encodings plus
// metadata and a self-contained viewer.
//
// A reel with zero frames is an EMPTY_REEL error: no empty artifact is
// ever produced. A non-finalized reel exports whatever frames committed
// before interruption; it is incomplete, not corrupt.
func (s *Service) Export(ctx context.Context, reelID string, format Format) ([]byte, error) {
	r, err := s.loader.LoadReel(ctx, reelID)
	if err != nil {
		return nil, err
	}
	if len(r.Frames) == 0 {
		return nil, reel.NewReelError(reel.ErrCodeEmptyReel, reelID, "reel has no frames to export")
	}

	switch format {
	case FormatGIF:
		return encode.Encode(r.Frames, encode.FormatGIF, s.opts)
	case FormatAPNG:
		return encode.Encode(r.Frames, encode.FormatAPNG, s.opts)
	case FormatZip:
		return s.bundle(ctx, r)
	default:
		return nil, reel.NewReelError(reel.ErrCodeEncodingFailure, reelID, fmt.Sprintf("unsupported export format %q", format))
	}
}

// bundle builds the four-member zip archive. GIF and APNG encodes are
// independent reads of the same frames, so they run concurrently.
func (s *Service) bundle(ctx context.Context, r *reel.Reel) ([]byte, error) {
	var gifData, apngData []byte

	var g errgroup.Group
	g.Go(func() error {
		var err error
		gifData, err = encode.Encode(r.Frames, encode.FormatGIF, s.opts)
		return err
	})
	g.Go(func() error {
		var err error
		apngData, err = encode.Encode(r.Frames, encode.FormatAPNG, s.opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metadata, err := marshalMetadata(r)
	if err != nil {
		return nil, err
	}
	viewer, err := renderViewer(r, s.opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	members := []struct {
		name string
		data []byte
	}{
		{MemberGIF, gifData},
		{MemberAPNG, apngData},
		{MemberMetadata, metadata},
		{MemberViewer, viewer},
	}
	for _, m := range members {
		w, err := zw.Create(m.name)
		if err != nil {
			return nil, reel.WrapError(reel.ErrCodeEncodingFailure, r.ID, err, fmt.Sprintf("zip member %s", m.name))
		}
		if _, err := w.Write(m.data); err != nil {
			return nil, reel.WrapError(reel.ErrCodeEncodingFailure, r.ID, err, fmt.Sprintf("zip member %s", m.name))
		}
	}
	if err := zw.Close(); err != nil {
		return nil, reel.WrapError(reel.ErrCodeEncodingFailure, r.ID, err, "close zip")
	}

	s.logger.Info("bundle exported", "reel", r.ID, "frames", len(r.Frames), "bytes", buf.Len())
	return buf.Bytes(), nil
}
