package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// DirectorySource treats a directory of image files as the surface being
// recorded: each Capture call decodes the next file in lexical order.
// Used by the CLI to replay a pre-rendered interaction sequence through
// the engine.
type DirectorySource struct {
	mu    sync.Mutex
	files []string
	next  int
}

// NewDirectorySource scans dir for decodable images (.png, .jpg, .jpeg,
// .gif) and returns a source stepping through them in lexical order.
func NewDirectorySource(dir string) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, failure(err, fmt.Sprintf("read surface directory %s", dir))
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".png", ".jpg", ".jpeg", ".gif":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, failure(nil, fmt.Sprintf("no image files in %s", dir))
	}
	return &DirectorySource{files: files}, nil
}

// Remaining returns how many captures the source can still serve.
func (s *DirectorySource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files) - s.next
}

// Capture decodes the next file. Returns a CAPTURE_FAILURE error when the
// sequence is exhausted or a file cannot be decoded.
func (s *DirectorySource) Capture(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, failure(err, "capture cancelled")
	}

	s.mu.Lock()
	if s.next >= len(s.files) {
		s.mu.Unlock()
		return nil, failure(nil, "surface exhausted: no more image files")
	}
	path := s.files[s.next]
	s.next++
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, failure(err, fmt.Sprintf("open %s", path))
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, failure(err, fmt.Sprintf("decode %s", path))
	}
	return ToRGBA(img), nil
}

// Close implements Source. Directory sources hold no resources between
// captures.
func (s *DirectorySource) Close() error { return nil }
