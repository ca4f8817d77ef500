// Package document renders a scene as a single-page PDF. The page embeds
// the raster composition regenerated at a document-appropriate resolution,
// plus document metadata and print-safe margins.
package document

import (
	"bytes"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/render/raster"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// A4 landscape in millimeters, with a print-safe margin.
const (
	pageWidthMM  = 297.0
	pageHeightMM = 210.0
	marginMM     = 10.0
)

// Options carries the document backend's per-render parameters.
type Options struct {
	DPI       int
	Timestamp time.Time
	Author    string
}

// Render produces the PDF bytes.
func Render(s *scene.Scene, opts Options) ([]byte, error) {
	png, err := raster.Render(s, raster.Options{
		DPI:       opts.DPI,
		Timestamp: opts.Timestamp,
		Author:    opts.Author,
	})
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(s.Title, false)
	pdf.SetAuthor(opts.Author, false)
	pdf.SetCreator("gismap", false)
	pdf.SetCreationDate(opts.Timestamp.UTC())
	pdf.SetModificationDate(opts.Timestamp.UTC())
	pdf.AddPage()

	imgOpts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("composition", imgOpts, bytes.NewReader(png))

	// Fit the composition inside the margins, preserving its aspect.
	availW := pageWidthMM - 2*marginMM
	availH := pageHeightMM - 2*marginMM
	aspect := 11.69 / 8.27 // raster page ratio
	w := availW
	h := w / aspect
	if h > availH {
		h = availH
		w = h * aspect
	}
	x := (pageWidthMM - w) / 2
	y := (pageHeightMM - h) / 2
	pdf.ImageOptions("composition", x, y, w, h, false, imgOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "writing pdf").At(errors.StageRender)
	}
	return buf.Bytes(), nil
}
