package encode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"time"

	"github.com/clickreel/clickreel/internal/reel"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// encodeAPNG assembles an animated PNG:
//
//	signature, IHDR, acTL, fcTL+IDAT (first frame), [fcTL+fdAT]..., IEND
//
// Each frame is compressed by the standard PNG encoder; its IDAT payload
// is lifted out and rewrapped (fdAT chunks carry an extra leading
// sequence number). Delays are carried as num/den fractions with
// millisecond precision, so captured timings round-trip exactly through
// decode.
func encodeAPNG(reelID string, frames []*image.RGBA, delays []time.Duration, opts Options) ([]byte, error) {
	first, err := compressFrame(reelID, frames[0], 0)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Write(pngSignature)
	writeChunk(&out, "IHDR", first.ihdr)

	// acTL: frame count + loop count (0 = infinite)
	actl := make([]byte, 8)
	binary.BigEndian.PutUint32(actl[0:4], uint32(len(frames)))
	binary.BigEndian.PutUint32(actl[4:8], uint32(opts.LoopCount))
	writeChunk(&out, "acTL", actl)

	// fcTL and fdAT chunks share one sequence counter.
	var chunkSeq uint32

	writeChunk(&out, "fcTL", frameControl(&chunkSeq, frames[0], delays[0], opts))
	writeChunk(&out, "IDAT", first.idat)

	for i := 1; i < len(frames); i++ {
		compressed, err := compressFrame(reelID, frames[i], i)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(compressed.ihdr, first.ihdr) {
			return nil, reel.NewSeqError(reel.ErrCodeEncodingFailure, reelID, i, "frame dimensions diverge after normalization")
		}

		writeChunk(&out, "fcTL", frameControl(&chunkSeq, frames[i], delays[i], opts))

		fdat := make([]byte, 4+len(compressed.idat))
		binary.BigEndian.PutUint32(fdat[0:4], chunkSeq)
		chunkSeq++
		copy(fdat[4:], compressed.idat)
		writeChunk(&out, "fdAT", fdat)
	}

	writeChunk(&out, "IEND", nil)
	return out.Bytes(), nil
}

// frameControl builds an fcTL chunk body and advances the shared chunk
// sequence counter.
func frameControl(chunkSeq *uint32, frame *image.RGBA, delay time.Duration, opts Options) []byte {
	num, den := delayFraction(delay)

	disposeOp := byte(1) // APNG_DISPOSE_OP_BACKGROUND
	if opts.Cumulative {
		disposeOp = 0 // APNG_DISPOSE_OP_NONE
	}

	body := make([]byte, 26)
	binary.BigEndian.PutUint32(body[0:4], *chunkSeq)
	*chunkSeq++
	binary.BigEndian.PutUint32(body[4:8], uint32(frame.Bounds().Dx()))
	binary.BigEndian.PutUint32(body[8:12], uint32(frame.Bounds().Dy()))
	// x/y offsets stay 0: frames are normalized to the full canvas.
	binary.BigEndian.PutUint16(body[20:22], num)
	binary.BigEndian.PutUint16(body[22:24], den)
	body[24] = disposeOp
	body[25] = 0 // APNG_BLEND_OP_SOURCE
	return body
}

// delayFraction converts a duration to an APNG num/den pair at
// millisecond precision, degrading resolution only when the numerator
// would overflow its 16-bit field.
func delayFraction(d time.Duration) (num, den uint16) {
	ms := d.Milliseconds()
	denominator := int64(1000)
	for ms > 65535 && denominator > 1 {
		ms /= 10
		denominator /= 10
	}
	if ms > 65535 {
		ms = 65535
	}
	return uint16(ms), uint16(denominator)
}

// compressedFrame holds the chunks lifted from one standard PNG encode.
type compressedFrame struct {
	ihdr []byte
	idat []byte // all IDAT payloads concatenated
}

// compressFrame runs the stdlib PNG encoder on one frame and extracts
// its IHDR and IDAT payloads. reelID and seq are reported in encode
// failures.
func compressFrame(reelID string, frame *image.RGBA, seq int) (*compressedFrame, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, reel.NewSeqError(reel.ErrCodeEncodingFailure, reelID, seq, fmt.Sprintf("png encode: %v", err))
	}

	data := buf.Bytes()
	if len(data) < len(pngSignature) || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return nil, reel.NewSeqError(reel.ErrCodeEncodingFailure, reelID, seq, "png encoder produced no signature")
	}
	data = data[len(pngSignature):]

	out := &compressedFrame{}
	for len(data) >= 12 {
		length := binary.BigEndian.Uint32(data[0:4])
		chunkType := string(data[4:8])
		end := 8 + int(length)
		if end+4 > len(data) {
			return nil, reel.NewSeqError(reel.ErrCodeEncodingFailure, reelID, seq, "truncated png chunk")
		}
		payload := data[8:end]

		switch chunkType {
		case "IHDR":
			out.ihdr = append([]byte(nil), payload...)
		case "IDAT":
			out.idat = append(out.idat, payload...)
		}
		data = data[end+4:] // skip CRC
	}

	if out.ihdr == nil || out.idat == nil {
		return nil, reel.NewSeqError(reel.ErrCodeEncodingFailure, reelID, seq, "png encoder output missing IHDR or IDAT")
	}
	return out, nil
}

// writeChunk emits one PNG chunk: length, type, data, CRC32 of type+data.
func writeChunk(buf *bytes.Buffer, chunkType string, data []byte) {
	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(data)))
	copy(header[4:8], chunkType)
	buf.Write(header[:])
	buf.Write(data)

	crc := crc32.NewIEEE()
	crc.Write(header[4:8])
	crc.Write(data)
	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], crc.Sum32())
	buf.Write(trailer[:])
}
