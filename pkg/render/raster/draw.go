package raster

import (
	"math"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"

	"github.com/elfabitto/gis-saas-project/pkg/geo"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// proj maps geographic coordinates into a pixel rect, preserving ground
// aspect ratio and centering the window.
type proj struct {
	cx, cy       float64 // rect center, px
	lonC, latC   float64 // window center, degrees
	perLon       float64 // px per degree of longitude
	perLat       float64 // px per degree of latitude
}

func newProj(w geo.Window, r rect) proj {
	c := w.Center()
	mPerLon := geo.MetersPerDegreeLon(c[1])
	mPerLat := geo.MetersPerDegreeLat()

	groundW := w.Width() * mPerLon
	groundH := w.Height() * mPerLat
	scale := math.Min(r.w/groundW, r.h/groundH)

	return proj{
		cx: r.x + r.w/2, cy: r.y + r.h/2,
		lonC: c[0], latC: c[1],
		perLon: mPerLon * scale,
		perLat: mPerLat * scale,
	}
}

func (p proj) point(pt orb.Point) (float64, float64) {
	lon := pt[0]
	// Windows straddling the anti-meridian use a shifted domain; bring
	// western points into it.
	if lon < p.lonC-180 {
		lon += 360
	}
	x := p.cx + (lon-p.lonC)*p.perLon
	y := p.cy - (pt[1]-p.latC)*p.perLat
	return x, y
}

// window returns the pixel rect of a geographic window under p.
func (p proj) window(w geo.Window) rect {
	x0, y0 := p.point(orb.Point{w.MinLon, w.MaxLat})
	x1, y1 := p.point(orb.Point{w.MaxLon, w.MinLat})
	return rect{x0, y0, x1 - x0, y1 - y0}
}

// drawMapPanel paints one panel into its rect, walking the decoration list
// in order.
func drawMapPanel(dc *gg.Context, s *scene.Scene, panel scene.Panel, r rect, fonts *fontSet, isMain bool) {
	p := newProj(panel.Window, r)

	dc.Push()
	dc.DrawRectangle(r.x, r.y, r.w, r.h)
	dc.Clip()

	for _, dec := range panel.Decorations {
		switch dec.Kind {
		case scene.DecorationBasemap:
			setHex(dc, dec.Fill, 1)
			dc.DrawRectangle(r.x, r.y, r.w, r.h)
			dc.Fill()
			if isMain {
				drawGraticule(dc, s, panel.Window, p, r)
			}
		case scene.DecorationFill:
			drawFeatures(dc, panel.Features, p, dec, true)
		case scene.DecorationStroke:
			drawFeatures(dc, panel.Features, p, dec, false)
		case scene.DecorationMarker:
			drawMarkers(dc, panel.Features, p, dec, isMain)
		case scene.DecorationHighlight:
			hr := p.window(dec.Window)
			setHex(dc, dec.Stroke, 1)
			dc.SetLineWidth(dec.Width * 2)
			dc.DrawRectangle(hr.x, hr.y, hr.w, hr.h)
			dc.Stroke()
		case scene.DecorationScaleBar:
			drawScaleBar(dc, s, panel.Window, r, fonts)
		case scene.DecorationNorthArrow:
			drawNorthArrow(dc, s, r)
		}
	}
	dc.ResetClip()
	dc.Pop()

	// Frame strokes on top of the clipped content.
	for _, dec := range panel.Decorations {
		if dec.Kind != scene.DecorationFrame {
			continue
		}
		setHex(dc, dec.Stroke, 1)
		dc.SetLineWidth(math.Max(dec.Width, 1))
		dc.DrawRectangle(r.x, r.y, r.w, r.h)
		dc.Stroke()
	}

	if isMain {
		drawEdgeLabels(dc, s, panel.Window, p, r, fonts)
	} else if panel.Label != "" {
		fonts.caption.apply(dc, s.Theme.TextSecondary)
		dc.DrawStringAnchored(panel.Label, r.x+r.w/2, r.y-4, 0.5, 1)
	}
}

func drawFeatures(dc *gg.Context, features []geo.Feature, p proj, dec scene.Decoration, fill bool) {
	for _, f := range features {
		drawGeometry(dc, f.Geometry, p, dec, fill)
	}
}

func drawGeometry(dc *gg.Context, g orb.Geometry, p proj, dec scene.Decoration, fill bool) {
	switch v := g.(type) {
	case orb.Polygon:
		pathPolygon(dc, v, p)
		paint(dc, dec, fill)
	case orb.MultiPolygon:
		for _, poly := range v {
			pathPolygon(dc, poly, p)
			paint(dc, dec, fill)
		}
	case orb.LineString:
		if fill {
			return
		}
		pathLine(dc, v, p)
		paint(dc, dec, false)
	case orb.MultiLineString:
		if fill {
			return
		}
		for _, ls := range v {
			pathLine(dc, ls, p)
			paint(dc, dec, false)
		}
	case orb.Collection:
		for _, sub := range v {
			drawGeometry(dc, sub, p, dec, fill)
		}
	}
}

func pathPolygon(dc *gg.Context, poly orb.Polygon, p proj) {
	dc.SetFillRuleEvenOdd()
	for _, ring := range poly {
		for i, pt := range ring {
			x, y := p.point(pt)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
	}
}

func pathLine(dc *gg.Context, ls orb.LineString, p proj) {
	for i, pt := range ls {
		x, y := p.point(pt)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
}

func paint(dc *gg.Context, dec scene.Decoration, fill bool) {
	if fill {
		alpha := dec.Alpha
		if alpha == 0 {
			alpha = 1
		}
		setHex(dc, dec.Fill, alpha)
		dc.Fill()
		return
	}
	setHex(dc, dec.Stroke, 1)
	dc.SetLineWidth(math.Max(dec.Width, 1))
	dc.Stroke()
}

func drawMarkers(dc *gg.Context, features []geo.Feature, p proj, dec scene.Decoration, isMain bool) {
	radius := 4.0
	if isMain {
		radius = 7.0
	}
	var draw func(g orb.Geometry)
	draw = func(g orb.Geometry) {
		switch v := g.(type) {
		case orb.Point:
			x, y := p.point(v)
			setHex(dc, dec.Fill, 1)
			dc.DrawCircle(x, y, radius)
			dc.Fill()
			setHex(dc, dec.Stroke, 1)
			dc.SetLineWidth(1.5)
			dc.DrawCircle(x, y, radius)
			dc.Stroke()
		case orb.MultiPoint:
			for _, pt := range v {
				draw(pt)
			}
		case orb.Collection:
			for _, sub := range v {
				draw(sub)
			}
		}
	}
	for _, f := range features {
		draw(f.Geometry)
	}
}

// drawGraticule paints faint grid lines at the main panel's label ticks.
func drawGraticule(dc *gg.Context, s *scene.Scene, w geo.Window, p proj, r rect) {
	setHex(dc, s.Theme.Border, 0.5)
	dc.SetLineWidth(1)
	for _, lon := range ticks(w.MinLon, w.MaxLon, 5) {
		x, _ := p.point(orb.Point{lon, w.MinLat})
		dc.DrawLine(x, r.y, x, r.bottom())
		dc.Stroke()
	}
	for _, lat := range ticks(w.MinLat, w.MaxLat, 5) {
		_, y := p.point(orb.Point{w.MinLon, lat})
		dc.DrawLine(r.x, y, r.right(), y)
		dc.Stroke()
	}
}
