package render

import (
	"time"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/render/document"
	"github.com/elfabitto/gis-saas-project/pkg/render/html"
	"github.com/elfabitto/gis-saas-project/pkg/render/raster"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// Format names an output backend.
type Format string

const (
	// FormatInteractive is a self-contained HTML document with pan and zoom.
	FormatInteractive Format = "interactive"
	// FormatStaticRaster is a print-resolution PNG.
	FormatStaticRaster Format = "static-raster"
	// FormatDocument is a single-page PDF.
	FormatDocument Format = "document"
)

// ValidFormats maps format names to validity.
var ValidFormats = map[Format]bool{
	FormatInteractive:  true,
	FormatStaticRaster: true,
	FormatDocument:     true,
}

// Formats lists the supported formats in a stable order.
func Formats() []Format {
	return []Format{FormatInteractive, FormatStaticRaster, FormatDocument}
}

// Extension returns the file extension for a format, including the dot.
func Extension(f Format) string {
	switch f {
	case FormatInteractive:
		return ".html"
	case FormatStaticRaster:
		return ".png"
	case FormatDocument:
		return ".pdf"
	}
	return ""
}

// ContentType returns the MIME type for a format.
func ContentType(f Format) string {
	switch f {
	case FormatInteractive:
		return "text/html; charset=utf-8"
	case FormatStaticRaster:
		return "image/png"
	case FormatDocument:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Default output resolutions in DPI. The document backend regenerates the
// raster at a lower resolution since the page is physically smaller than a
// poster-quality print.
const (
	DefaultRasterDPI   = 300
	DefaultDocumentDPI = 150
)

// Options is the per-render parameter set shared by all backends.
type Options struct {
	// DPI is the raster resolution target. Zero selects the backend
	// default.
	DPI int
	// Timestamp is embedded in output metadata. Zero means time.Now,
	// which makes output bytes nondeterministic; fix it for reproducible
	// artifacts.
	Timestamp time.Time
	// Author is recorded in document and raster metadata.
	Author string
}

func (o Options) timestamp() time.Time {
	if o.Timestamp.IsZero() {
		return time.Now()
	}
	return o.Timestamp
}

// Renderer turns a composed scene into output bytes. Implementations are
// pure: same scene and options, same bytes.
type Renderer interface {
	Render(s *scene.Scene, opts Options) ([]byte, error)
}

// For returns the renderer for a format. The set of backends is closed;
// unknown formats fail with an unsupported-format error.
func For(f Format) (Renderer, error) {
	switch f {
	case FormatInteractive:
		return interactiveRenderer{}, nil
	case FormatStaticRaster:
		return rasterRenderer{}, nil
	case FormatDocument:
		return documentRenderer{}, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupportedFormat,
		"unknown output format %q (must be one of: interactive, static-raster, document)", f).
		At(errors.StageRender)
}

type interactiveRenderer struct{}

func (interactiveRenderer) Render(s *scene.Scene, opts Options) ([]byte, error) {
	return html.Render(s, html.Options{Timestamp: opts.timestamp()})
}

type rasterRenderer struct{}

func (rasterRenderer) Render(s *scene.Scene, opts Options) ([]byte, error) {
	dpi := opts.DPI
	if dpi == 0 {
		dpi = DefaultRasterDPI
	}
	return raster.Render(s, raster.Options{
		DPI:       dpi,
		Timestamp: opts.timestamp(),
		Author:    opts.Author,
	})
}

type documentRenderer struct{}

func (documentRenderer) Render(s *scene.Scene, opts Options) ([]byte, error) {
	dpi := opts.DPI
	if dpi == 0 {
		dpi = DefaultDocumentDPI
	}
	return document.Render(s, document.Options{
		DPI:       dpi,
		Timestamp: opts.timestamp(),
		Author:    opts.Author,
	})
}
