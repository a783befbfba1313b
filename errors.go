package docpipe

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline's failure taxonomy. Per-item failures
// inside batch operations are collected as warnings instead of being
// returned, except when every item fails.
var (
	ErrValidation          = errors.New("docpipe: invalid parameter")
	ErrUnsupportedMedia    = errors.New("docpipe: unsupported media kind")
	ErrDecodeFailed        = errors.New("docpipe: source could not be decoded")
	ErrPasswordProtected   = errors.New("docpipe: source is password protected")
	ErrResourceUnavailable = errors.New("docpipe: required codec is unavailable")
	ErrNoInput             = errors.New("docpipe: no input items")
	ErrAllSourcesFailed    = errors.New("docpipe: no source could be processed")
)

// OpError records an error from a specific pipeline operation, optionally
// tied to the source it was processing.
type OpError struct {
	Op     string // operation name, e.g. "Merge", "RasterToRaster"
	Source string // source ID or name, empty for run-level failures
	Err    error  // underlying error
}

func (e *OpError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("docpipe.%s: source %s: %v", e.Op, e.Source, e.Err)
	}
	return fmt.Sprintf("docpipe.%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError wraps err with operation context.
func NewOpError(op, source string, err error) *OpError {
	return &OpError{Op: op, Source: source, Err: err}
}
