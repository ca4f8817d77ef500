// Package raster renders a scene into one print-resolution PNG. Panels are
// laid out on a fixed A4 landscape grid: the main map on the left, context
// panels and the info sidebar on the right, title block on top.
package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // logo decoding
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// A4 landscape in inches.
const (
	pageWidthIn  = 11.69
	pageHeightIn = 8.27
)

// maxDPI caps the raster size; beyond this the pixel buffer gets absurd.
const maxDPI = 600

// Options carries the raster backend's per-render parameters.
type Options struct {
	DPI       int
	Timestamp time.Time
	Author    string
}

// rect is a pixel-space rectangle.
type rect struct {
	x, y, w, h float64
}

func (r rect) right() float64  { return r.x + r.w }
func (r rect) bottom() float64 { return r.y + r.h }

// Render draws the scene and returns PNG bytes. The output carries tEXt
// metadata (title, author, software, creation time) so identical inputs
// with a fixed timestamp produce identical bytes.
func Render(s *scene.Scene, opts Options) ([]byte, error) {
	if s == nil || len(s.Panels) == 0 {
		return nil, errors.New(errors.ErrCodeRender, "nothing to render").At(errors.StageRender)
	}
	if opts.DPI <= 0 || opts.DPI > maxDPI {
		return nil, errors.New(errors.ErrCodeRender,
			"dpi %d out of range (0, %d]", opts.DPI, maxDPI).At(errors.StageRender)
	}

	fonts, err := loadFonts(opts.DPI, s.Theme)
	if err != nil {
		return nil, err
	}

	width := int(pageWidthIn * float64(opts.DPI))
	height := int(pageHeightIn * float64(opts.DPI))
	dc := gg.NewContext(width, height)

	setHex(dc, s.Theme.Surface, 1)
	dc.Clear()

	g := pageGrid(width, height, opts.DPI)

	drawTitleBlock(dc, s, g.title, fonts)
	drawMapPanel(dc, s, s.Panels[0], g.main, fonts, true)
	if len(s.Panels) > 1 {
		drawMapPanel(dc, s, s.Panels[1], g.context, fonts, false)
	}
	if len(s.Panels) > 2 {
		drawMapPanel(dc, s, s.Panels[2], g.region, fonts, false)
	}
	if len(s.Legend) > 0 {
		drawLegend(dc, s, g.legend, fonts)
	}
	drawInfo(dc, s, g.info, fonts)
	drawFooter(dc, s, g.footer, fonts, opts.Timestamp)
	if len(s.Logo) > 0 {
		drawLogo(dc, s.Logo, g.title, opts.DPI)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encoding png").At(errors.StageRender)
	}
	return withTextChunks(buf.Bytes(), map[string]string{
		"Title":         s.Title,
		"Author":        opts.Author,
		"Software":      "gismap",
		"Creation Time": opts.Timestamp.UTC().Format(time.RFC3339),
	})
}

// grid is the fixed page layout in pixels.
type grid struct {
	title   rect
	main    rect
	context rect
	region  rect
	legend  rect
	info    rect
	footer  rect
}

func pageGrid(width, height, dpi int) grid {
	w := float64(width)
	h := float64(height)
	margin := 0.25 * float64(dpi) // quarter inch
	gap := margin / 2

	titleH := 0.9 * float64(dpi)
	footerH := 0.35 * float64(dpi)

	contentY := margin + titleH + gap
	contentH := h - contentY - margin - footerH - gap

	mainW := (w - 2*margin - gap) * 0.68
	sideX := margin + mainW + gap
	sideW := w - sideX - margin

	// Sidebar: two square-ish context maps stacked, then legend, then info.
	ctxH := contentH * 0.30
	legendH := contentH * 0.16

	return grid{
		title:   rect{margin, margin, w - 2*margin, titleH},
		main:    rect{margin, contentY, mainW, contentH},
		context: rect{sideX, contentY, sideW, ctxH},
		region:  rect{sideX, contentY + ctxH + gap, sideW, ctxH},
		legend:  rect{sideX, contentY + 2*(ctxH+gap), sideW, legendH},
		info:    rect{sideX, contentY + 2*(ctxH+gap) + legendH + gap, sideW, contentH - 2*(ctxH+gap) - legendH - gap},
		footer:  rect{margin, h - margin - footerH, w - 2*margin, footerH},
	}
}

func drawTitleBlock(dc *gg.Context, s *scene.Scene, r rect, fonts *fontSet) {
	cx := r.x + r.w/2
	if s.Subtitle == "" {
		fonts.title.apply(dc, s.Theme.TextPrimary)
		dc.DrawStringAnchored(s.Title, cx, r.y+r.h/2, 0.5, 0.5)
		return
	}
	fonts.title.apply(dc, s.Theme.TextPrimary)
	dc.DrawStringAnchored(s.Title, cx, r.y+r.h*0.38, 0.5, 0.5)
	fonts.subtitle.apply(dc, s.Theme.TextSecondary)
	dc.DrawStringAnchored(s.Subtitle, cx, r.y+r.h*0.78, 0.5, 0.5)
}

func drawFooter(dc *gg.Context, s *scene.Scene, r rect, fonts *fontSet, ts time.Time) {
	fonts.caption.apply(dc, s.Theme.TextSecondary)
	dc.DrawStringAnchored(
		fmt.Sprintf("Generated %s", ts.UTC().Format("2006-01-02 15:04 UTC")),
		r.right(), r.bottom(), 1, 0)
}

func drawLogo(dc *gg.Context, logo []byte, title rect, dpi int) {
	img, _, err := image.Decode(bytes.NewReader(logo))
	if err != nil {
		// A bad logo never fails the render.
		return
	}
	maxH := int(title.h)
	fitted := imaging.Fit(img, maxH*3, maxH, imaging.Lanczos)
	dc.DrawImage(fitted, int(title.x), int(title.y))
}
