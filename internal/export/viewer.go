package export

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"image/png"

	"github.com/clickreel/clickreel/internal/encode"
	"github.com/clickreel/clickreel/internal/reel"
)

//go:embed viewer.html.tmpl
var viewerTemplate string

// viewerData feeds the embedded viewer template.
type viewerData struct {
	Title  string
	Frames []viewerFrame
}

type viewerFrame struct {
	Data    string // base64 PNG
	DelayMs int64
}

// renderViewer builds the self-contained viewer document: every frame is
// inlined as a PNG data URI and replayed with the same delays the
// encoders use, so the page works without any external dependency.
func renderViewer(r *reel.Reel, opts encode.Options) ([]byte, error) {
	ordered, err := encode.Ordered(r.Frames)
	if err != nil {
		return nil, err
	}
	delays := encode.Delays(ordered, opts)

	data := viewerData{
		Title:  r.Title,
		Frames: make([]viewerFrame, len(ordered)),
	}
	for i, f := range ordered {
		var buf bytes.Buffer
		if err := png.Encode(&buf, f.Image); err != nil {
			return nil, reel.NewSeqError(reel.ErrCodeEncodingFailure, r.ID, f.Seq, fmt.Sprintf("viewer frame encode: %v", err))
		}
		data.Frames[i] = viewerFrame{
			Data:    base64.StdEncoding.EncodeToString(buf.Bytes()),
			DelayMs: delays[i].Milliseconds(),
		}
	}

	tmpl, err := template.New("viewer").Parse(viewerTemplate)
	if err != nil {
		return nil, reel.WrapError(reel.ErrCodeEncodingFailure, r.ID, err, "parse viewer template")
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return nil, reel.WrapError(reel.ErrCodeEncodingFailure, r.ID, err, "render viewer")
	}
	return out.Bytes(), nil
}
