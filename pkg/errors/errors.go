// Package errors provides structured error types for the map generation
// pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Each code identifies which pipeline contract was violated. Errors carry the
// stage that raised them and, where it applies, the index of the offending
// file or feature, so a caller can report "reprojection failed for file 2"
// without string matching.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnsupportedFormat, "unknown format tag %q", tag)
//	if errors.Is(err, errors.ErrCodeUnsupportedFormat) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRender, origErr, "rasterize panel %q", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the pipeline stages.
const (
	// ErrCodeUnsupportedFormat is raised before parsing when an input
	// payload carries an unrecognized format tag.
	ErrCodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"

	// ErrCodeEmptyGeometry is raised when a source file yields no valid
	// feature after topology validation.
	ErrCodeEmptyGeometry Code = "EMPTY_GEOMETRY"

	// ErrCodeReprojection is raised when a source coordinate system cannot
	// be resolved or transformed to geographic WGS84.
	ErrCodeReprojection Code = "REPROJECTION_ERROR"

	// ErrCodeEmptyScene is raised by composition when no valid feature
	// survives ingestion.
	ErrCodeEmptyScene Code = "EMPTY_SCENE"

	// ErrCodeRender is raised for backend-specific rendering failures
	// (font resolution, oversized dimensions, encoding).
	ErrCodeRender Code = "RENDER_ERROR"

	// ErrCodeConfiguration is raised for unknown themes, malformed style
	// values, or invalid tuning parameters.
	ErrCodeConfiguration Code = "CONFIGURATION_ERROR"

	// ErrCodeInternal is raised for unexpected internal failures.
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Pipeline stage names used to annotate errors.
const (
	StageIngest  = "ingest"
	StageFrame   = "frame"
	StageCompose = "compose"
	StageRender  = "render"
	StageExport  = "export"
)

// Error is a structured error with a code and optional cause.
// Stage names the pipeline stage that raised the error; Index is the
// zero-based file or feature index it refers to, or -1 when not applicable.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Stage   string // Pipeline stage that raised the error
	Index   int    // File/feature index, -1 if not applicable
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Stage != "" {
		msg = fmt.Sprintf("%s [stage=%s]", msg, e.Stage)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Index:   -1,
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Index:   -1,
		Cause:   cause,
	}
}

// At returns a copy of the error annotated with a stage name.
func (e *Error) At(stage string) *Error {
	clone := *e
	clone.Stage = stage
	return &clone
}

// ForIndex returns a copy of the error annotated with a file/feature index.
func (e *Error) ForIndex(i int) *Error {
	clone := *e
	clone.Index = i
	return &clone
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetStage extracts the stage annotation from an error, if available.
func GetStage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
