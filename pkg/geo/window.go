package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Window is a rectangle in geographic coordinates.
//
// Longitudes are stored in a possibly shifted domain: when the covered
// features straddle the anti-meridian, MaxLon may exceed 180 so that
// MinLon <= MaxLon always holds. NormalizeLon maps a shifted longitude back
// to [-180, 180) for display.
type Window struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

// BoundOf computes the bounding window of a set of points, choosing the
// shifted longitude domain when the naive span would exceed 180 degrees.
func BoundOf(pts []orb.Point) Window {
	if len(pts) == 0 {
		return Window{}
	}

	w := Window{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	for _, p := range pts {
		w.MinLon = math.Min(w.MinLon, p[0])
		w.MaxLon = math.Max(w.MaxLon, p[0])
		w.MinLat = math.Min(w.MinLat, p[1])
		w.MaxLat = math.Max(w.MaxLat, p[1])
	}

	if w.MaxLon-w.MinLon <= 180 {
		return w
	}

	// Features likely straddle the anti-meridian. Recompute with western
	// longitudes shifted by +360 and keep the tighter of the two windows.
	shifted := Window{
		MinLon: math.Inf(1), MinLat: w.MinLat,
		MaxLon: math.Inf(-1), MaxLat: w.MaxLat,
	}
	for _, p := range pts {
		lon := p[0]
		if lon < 0 {
			lon += 360
		}
		shifted.MinLon = math.Min(shifted.MinLon, lon)
		shifted.MaxLon = math.Max(shifted.MaxLon, lon)
	}
	if shifted.Width() < w.Width() {
		return shifted
	}
	return w
}

// Width returns the longitudinal extent in degrees.
func (w Window) Width() float64 { return w.MaxLon - w.MinLon }

// Height returns the latitudinal extent in degrees.
func (w Window) Height() float64 { return w.MaxLat - w.MinLat }

// Center returns the window's central point in the window's domain.
func (w Window) Center() orb.Point {
	return orb.Point{(w.MinLon + w.MaxLon) / 2, (w.MinLat + w.MaxLat) / 2}
}

// AspectRatio returns width/height in ground units at the center latitude,
// or 0 for a degenerate window.
func (w Window) AspectRatio() float64 {
	h := w.Height() * MetersPerDegreeLat()
	if h == 0 {
		return 0
	}
	lat := (w.MinLat + w.MaxLat) / 2
	return w.Width() * MetersPerDegreeLon(lat) / h
}

// DiagonalM returns the ground-distance diagonal of the window in meters.
func (w Window) DiagonalM() float64 {
	return HaversineM(
		orb.Point{w.MinLon, w.MinLat},
		orb.Point{w.MaxLon, w.MaxLat},
	)
}

// IsZero reports whether the window has zero area.
func (w Window) IsZero() bool {
	return w.Width() == 0 || w.Height() == 0
}

// IsValid reports min <= max on both axes and finite coordinates.
func (w Window) IsValid() bool {
	if math.IsInf(w.MinLon, 0) || math.IsInf(w.MinLat, 0) ||
		math.IsInf(w.MaxLon, 0) || math.IsInf(w.MaxLat, 0) {
		return false
	}
	return w.MinLon <= w.MaxLon && w.MinLat <= w.MaxLat
}

// Contains reports whether inner lies entirely inside w.
func (w Window) Contains(inner Window) bool {
	return inner.MinLon >= w.MinLon && inner.MaxLon <= w.MaxLon &&
		inner.MinLat >= w.MinLat && inner.MaxLat <= w.MaxLat
}

// ExpandDegrees grows the window symmetrically by the given amounts,
// clamping latitude to the poles.
func (w Window) ExpandDegrees(dLon, dLat float64) Window {
	out := Window{
		MinLon: w.MinLon - dLon,
		MaxLon: w.MaxLon + dLon,
		MinLat: math.Max(w.MinLat-dLat, -90),
		MaxLat: math.Min(w.MaxLat+dLat, 90),
	}
	return out
}

// ExpandMeters grows the window symmetrically by a ground distance,
// converted to degrees at the window's center latitude.
func (w Window) ExpandMeters(m float64) Window {
	lat := (w.MinLat + w.MaxLat) / 2
	perLon := MetersPerDegreeLon(lat)
	if perLon <= 0 {
		perLon = MetersPerDegreeLat()
	}
	return w.ExpandDegrees(m/perLon, m/MetersPerDegreeLat())
}

// Union returns the smallest window containing both w and other.
func (w Window) Union(other Window) Window {
	return Window{
		MinLon: math.Min(w.MinLon, other.MinLon),
		MinLat: math.Min(w.MinLat, other.MinLat),
		MaxLon: math.Max(w.MaxLon, other.MaxLon),
		MaxLat: math.Max(w.MaxLat, other.MaxLat),
	}
}

// NormalizeLon maps a longitude from the window's (possibly shifted) domain
// back to [-180, 180).
func NormalizeLon(lon float64) float64 {
	for lon >= 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
