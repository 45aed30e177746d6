// Package encode turns an ordered frame sequence into animated image
// binaries (GIF and APNG).
//
// The encoder is strict about its input:
//   - frames are sorted by sequence index; a gap or duplicate index is
//     an INVALID_FRAME_SEQUENCE error, never silently skipped or
//     reordered
//   - any single undecodable frame aborts the whole encode with an
//     ENCODING_FAILURE naming the offending index; partial output is
//     never returned
//
// Per-frame display durations derive from the deltas between consecutive
// capture timestamps, clamped to a configurable minimum; the final frame
// holds for a fixed configurable duration since it has no successor.
// Frames of varying dimensions are normalized to a uniform canvas before
// encoding, either padded onto a fill-color canvas or rescaled.
package encode
