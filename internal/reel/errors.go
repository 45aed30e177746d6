package reel

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine failures.
type ErrorCode string

const (
	// ErrCodeInvalidStateTransition indicates a recorder event that is not
	// legal in the current state. Recoverable: retry with a valid event.
	ErrCodeInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"

	// ErrCodeNoActiveRecording indicates stop was requested with no active reel.
	ErrCodeNoActiveRecording ErrorCode = "NO_ACTIVE_RECORDING"

	// ErrCodeCaptureFailure indicates the capture source could not produce
	// an image. Recording continues in its prior state; no sequence index
	// is consumed.
	ErrCodeCaptureFailure ErrorCode = "CAPTURE_FAILURE"

	// ErrCodeStorageQuotaExceeded indicates the durable layer is out of space.
	ErrCodeStorageQuotaExceeded ErrorCode = "STORAGE_QUOTA_EXCEEDED"

	// ErrCodeWriteFailure indicates a durable write failed. No partial frame
	// is ever left behind.
	ErrCodeWriteFailure ErrorCode = "WRITE_FAILURE"

	// ErrCodeInvalidFrameSequence indicates a gap or duplicate in the Seq
	// values handed to the encoder.
	ErrCodeInvalidFrameSequence ErrorCode = "INVALID_FRAME_SEQUENCE"

	// ErrCodeEncodingFailure indicates a frame could not be encoded. The
	// whole encode aborts; stored frames are untouched.
	ErrCodeEncodingFailure ErrorCode = "ENCODING_FAILURE"

	// ErrCodeEmptyReel indicates an export was requested for a reel with
	// zero frames.
	ErrCodeEmptyReel ErrorCode = "EMPTY_REEL"

	// ErrCodeNotFound indicates the referenced reel does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeAlreadyFinalized indicates finalize was called twice, or a
	// frame append targeted a finalized reel.
	ErrCodeAlreadyFinalized ErrorCode = "ALREADY_FINALIZED"
)

// Error is a typed engine failure. All engine operations report failures
// through this type; none are silently swallowed.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ReelID identifies the affected reel, when known.
	ReelID string

	// Seq identifies the offending frame for sequence/encoding errors.
	// -1 when not applicable.
	Seq int

	// Err is the underlying cause, when any.
	Err error
}

// Error implements the error interface. The underlying cause, when any,
// is appended so driver and capture detail survives into logs and the
// observable LastError.
func (e *Error) Error() string {
	var msg string
	switch {
	case e.ReelID != "" && e.Seq >= 0:
		msg = fmt.Sprintf("%s: %s (reel=%s, seq=%d)", e.Code, e.Message, e.ReelID, e.Seq)
	case e.ReelID != "":
		msg = fmt.Sprintf("%s: %s (reel=%s)", e.Code, e.Message, e.ReelID)
	case e.Seq >= 0:
		msg = fmt.Sprintf("%s: %s (seq=%d)", e.Code, e.Message, e.Seq)
	default:
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates an Error with no reel or seq context.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Seq: -1}
}

// NewReelError creates an Error scoped to a reel.
func NewReelError(code ErrorCode, reelID, message string) *Error {
	return &Error{Code: code, Message: message, ReelID: reelID, Seq: -1}
}

// NewSeqError creates an Error scoped to one frame of a reel.
func NewSeqError(code ErrorCode, reelID string, seq int, message string) *Error {
	return &Error{Code: code, Message: message, ReelID: reelID, Seq: seq}
}

// WrapError creates an Error wrapping an underlying cause.
func WrapError(code ErrorCode, reelID string, err error, message string) *Error {
	return &Error{Code: code, Message: message, ReelID: reelID, Seq: -1, Err: err}
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an
// engine Error. Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsNotFound reports whether err is a missing-reel error.
func IsNotFound(err error) bool { return IsCode(err, ErrCodeNotFound) }

// IsQuotaExceeded reports whether err is a storage quota error.
func IsQuotaExceeded(err error) bool { return IsCode(err, ErrCodeStorageQuotaExceeded) }
