package raster

import (
	"fmt"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"

	"github.com/elfabitto/gis-saas-project/pkg/geo"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// setHex sets the draw color from a "#rrggbb" string with an alpha.
func setHex(dc *gg.Context, hex string, alpha float64) {
	var r, g, b int
	if len(hex) == 7 {
		fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	}
	dc.SetRGBA(float64(r)/255, float64(g)/255, float64(b)/255, alpha)
}

// ticks returns up to n round values spanning [lo, hi], excluding the
// endpoints so labels never collide with panel corners.
func ticks(lo, hi float64, n int) []float64 {
	span := hi - lo
	if span <= 0 || n < 1 {
		return nil
	}
	step := niceStep(span / float64(n))
	var out []float64
	for v := math.Ceil(lo/step) * step; v < hi; v += step {
		if v > lo {
			out = append(out, v)
		}
	}
	return out
}

// niceStep rounds a raw step up to 1, 2 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch {
	case raw/mag <= 1:
		return mag
	case raw/mag <= 2:
		return 2 * mag
	case raw/mag <= 5:
		return 5 * mag
	}
	return 10 * mag
}

// dms formats a coordinate as degrees, minutes and seconds with a
// hemisphere suffix.
func dms(value float64, isLat bool) string {
	v := value
	hemi := "N"
	if !isLat {
		v = geo.NormalizeLon(value)
		hemi = "E"
	}
	if v < 0 {
		v = -v
		if isLat {
			hemi = "S"
		} else {
			hemi = "W"
		}
	}
	d := int(v)
	mf := (v - float64(d)) * 60
	m := int(mf)
	s := (mf - float64(m)) * 60
	return fmt.Sprintf("%d°%02d'%04.1f\"%s", d, m, s, hemi)
}

// drawEdgeLabels writes DMS coordinates along the main panel's edges.
func drawEdgeLabels(dc *gg.Context, s *scene.Scene, w geo.Window, p proj, r rect, fonts *fontSet) {
	fonts.caption.apply(dc, s.Theme.TextSecondary)
	for _, lon := range ticks(w.MinLon, w.MaxLon, 5) {
		x, _ := p.point(orb.Point{lon, w.MinLat})
		dc.DrawStringAnchored(dms(lon, false), x, r.bottom()+4, 0.5, 1)
	}
	for _, lat := range ticks(w.MinLat, w.MaxLat, 5) {
		_, y := p.point(orb.Point{w.MinLon, lat})
		dc.Push()
		dc.RotateAbout(-math.Pi/2, r.x-4, y)
		dc.DrawStringAnchored(dms(lat, true), r.x-4, y, 0.5, 1)
		dc.Pop()
	}
}

// drawScaleBar paints a bar whose ground length is rounded to 1, 2 or 5
// times a power of ten meters, in the panel's bottom-left corner.
func drawScaleBar(dc *gg.Context, s *scene.Scene, w geo.Window, r rect, fonts *fontSet) {
	c := w.Center()
	mPerPx := w.Width() * geo.MetersPerDegreeLon(c[1]) / r.w

	target := r.w * 0.22 * mPerPx
	meters := niceStep(target)
	if meters > target {
		meters /= 2
	}
	barPx := meters / mPerPx

	x := r.x + r.w*0.04
	y := r.bottom() - r.h*0.05
	barH := math.Max(r.h*0.008, 4)

	setHex(dc, s.Theme.Surface, 0.8)
	dc.DrawRectangle(x-barH, y-barH*5, barPx+2*barH, barH*7)
	dc.Fill()

	// Alternating black and white halves, surveyor style.
	setHex(dc, s.Theme.TextPrimary, 1)
	dc.DrawRectangle(x, y-barH, barPx/2, barH)
	dc.Fill()
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y-barH, barPx, barH)
	dc.Stroke()

	label := fmt.Sprintf("%.0f m", meters)
	if meters >= 1000 {
		label = fmt.Sprintf("%.0f km", meters/1000)
	}
	fonts.caption.apply(dc, s.Theme.TextPrimary)
	dc.DrawStringAnchored(label, x+barPx/2, y-barH*2, 0.5, 1)
}

// drawNorthArrow paints a filled triangle with an N above it in the
// panel's top-right corner.
func drawNorthArrow(dc *gg.Context, s *scene.Scene, r rect) {
	size := math.Max(r.w*0.035, 18)
	cx := r.right() - r.w*0.05
	baseY := r.y + r.h*0.12

	setHex(dc, s.Theme.TextPrimary, 1)
	dc.MoveTo(cx, baseY-size)
	dc.LineTo(cx-size*0.45, baseY)
	dc.LineTo(cx+size*0.45, baseY)
	dc.ClosePath()
	dc.Fill()

	dc.DrawStringAnchored("N", cx, baseY-size-4, 0.5, 1)
}

func drawLegend(dc *gg.Context, s *scene.Scene, r rect, fonts *fontSet) {
	setHex(dc, s.Theme.Surface, 1)
	dc.DrawRectangle(r.x, r.y, r.w, r.h)
	dc.Fill()
	setHex(dc, s.Theme.Border, 1)
	dc.SetLineWidth(1)
	dc.DrawRectangle(r.x, r.y, r.w, r.h)
	dc.Stroke()

	pad := r.h * 0.12
	fonts.heading.apply(dc, s.Theme.TextPrimary)
	dc.DrawStringAnchored("Legend", r.x+pad, r.y+pad, 0, 1)

	rowH := (r.h - 3*pad) / float64(len(s.Legend)+1)
	swatch := rowH * 0.6
	y := r.y + 2*pad + rowH
	for _, entry := range s.Legend {
		setHex(dc, entry.Fill, 0.8)
		dc.DrawRectangle(r.x+pad, y, swatch, swatch)
		dc.Fill()
		setHex(dc, entry.Stroke, 1)
		dc.SetLineWidth(1.5)
		dc.DrawRectangle(r.x+pad, y, swatch, swatch)
		dc.Stroke()

		fonts.body.apply(dc, s.Theme.TextPrimary)
		dc.DrawStringAnchored(entry.Label, r.x+pad+swatch+pad/2, y+swatch/2, 0, 0.5)
		y += rowH
	}
}

func drawInfo(dc *gg.Context, s *scene.Scene, r rect, fonts *fontSet) {
	setHex(dc, s.Theme.Surface, 1)
	dc.DrawRectangle(r.x, r.y, r.w, r.h)
	dc.Fill()
	setHex(dc, s.Theme.Border, 1)
	dc.SetLineWidth(1)
	dc.DrawRectangle(r.x, r.y, r.w, r.h)
	dc.Stroke()

	pad := r.w * 0.05
	y := r.y + pad
	for _, field := range s.Info {
		fonts.body.apply(dc, s.Theme.TextPrimary)
		dc.DrawStringAnchored(field.Label, r.x+pad, y, 0, 1)
		_, lh := dc.MeasureString(field.Label)
		y += lh * 1.4

		fonts.body.apply(dc, s.Theme.TextSecondary)
		for _, line := range wrapText(dc, field.Value, r.w-2*pad) {
			dc.DrawStringAnchored(line, r.x+pad, y, 0, 1)
			y += lh * 1.4
		}
		y += lh * 0.4
		if y > r.bottom()-pad {
			break
		}
	}
}

// wrapText splits a string into lines fitting the given pixel width under
// the context's current font.
func wrapText(dc *gg.Context, text string, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if tw, _ := dc.MeasureString(candidate); tw > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	return append(lines, line)
}
