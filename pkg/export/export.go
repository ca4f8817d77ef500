// Package export coordinates the full generation pipeline: ingest the
// uploaded files, frame them, compose the scene and render the requested
// formats, with per-stage caching and per-request result tracking.
package export

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/frame"
	"github.com/elfabitto/gis-saas-project/pkg/ingest"
	"github.com/elfabitto/gis-saas-project/pkg/render"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// Options describes one generation request.
type Options struct {
	// Project scopes cache keys so tenants never share entries.
	Project string

	// Files are the uploaded sources, in upload order.
	Files []ingest.File

	// Style is passed through to the composer untouched.
	Style scene.StyleConfig

	// Formats are the outputs to render. Empty defaults to static-raster.
	Formats []render.Format

	// DPI overrides the render resolution. Zero selects per-backend
	// defaults.
	DPI int

	// Timestamp is embedded in artifact metadata. Zero means now,
	// captured once so every format of the request shares it.
	Timestamp time.Time

	// Author is recorded in artifact metadata.
	Author string

	// Frame carries the framing tuning knobs.
	Frame frame.Config

	// Refresh bypasses cache reads (results are still written back).
	Refresh bool

	// NoThumbnail skips the thumbnail derivation on success.
	NoThumbnail bool

	// Logger receives stage progress. Nil discards.
	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Files) == 0 {
		return errors.New(errors.ErrCodeConfiguration, "at least one input file is required")
	}
	if len(o.Formats) == 0 {
		o.Formats = []render.Format{render.FormatStaticRaster}
	}
	for _, f := range o.Formats {
		if !render.ValidFormats[f] {
			return errors.New(errors.ErrCodeUnsupportedFormat,
				"unknown output format %q", f)
		}
	}
	if err := o.Frame.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Status is the lifecycle state of one export.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Result is the outcome of rendering one format for one project. A result
// is immutable once it reaches a terminal status; a new request creates a
// new Result rather than retrying in place.
type Result struct {
	ID      string        `json:"id"`
	Project string        `json:"project"`
	Format  render.Format `json:"format"`
	Status  Status        `json:"status"`

	// Payload holds the rendered bytes on completion.
	Payload []byte `json:"-"`
	// Thumbnail is a small raster rendition, present on completion when
	// derivation succeeded.
	Thumbnail []byte `json:"-"`

	FailureCode   errors.Code `json:"failure_code,omitempty"`
	FailureReason string      `json:"failure_reason,omitempty"`

	Elapsed   time.Duration `json:"elapsed"`
	CreatedAt time.Time     `json:"created_at"`

	// Warnings carries non-fatal ingestion notes.
	Warnings []string `json:"warnings,omitempty"`

	started time.Time
}

// newResult creates a pending result for one format.
func newResult(project string, format render.Format) *Result {
	return &Result{
		ID:        uuid.NewString(),
		Project:   project,
		Format:    format,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

// start moves pending → processing.
func (res *Result) start() error {
	if res.Status != StatusPending {
		return errors.New(errors.ErrCodeInternal,
			"cannot start a %s result", res.Status)
	}
	res.Status = StatusProcessing
	res.started = time.Now()
	return nil
}

// complete moves processing → completed with the rendered bytes.
func (res *Result) complete(payload []byte) error {
	if res.Status != StatusProcessing {
		return errors.New(errors.ErrCodeInternal,
			"cannot complete a %s result", res.Status)
	}
	res.Status = StatusCompleted
	res.Payload = payload
	res.Elapsed = time.Since(res.started)
	return nil
}

// fail moves pending or processing → failed, capturing the error's kind
// and message.
func (res *Result) fail(err error) error {
	if res.Status.Terminal() {
		return errors.New(errors.ErrCodeInternal,
			"cannot fail a %s result", res.Status)
	}
	res.Status = StatusFailed
	res.FailureCode = errors.GetCode(err)
	res.FailureReason = errors.UserMessage(err)
	if !res.started.IsZero() {
		res.Elapsed = time.Since(res.started)
	}
	return nil
}
