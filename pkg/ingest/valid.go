package ingest

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

// selfIntersectionCap bounds the O(n^2) ring check. Rings above this size
// skip the check rather than stall ingestion; bad ones surface as rendering
// artifacts, not corruption.
const selfIntersectionCap = 2000

// repair validates a feature's topology and applies cheap fixes: dropping
// repeated vertices, closing open rings, discarding degenerate rings. A
// feature that cannot be fixed cheaply is rejected (ok=false), never
// modified in place.
func repair(f geo.Feature) (geo.Feature, bool) {
	g, ok := repairGeometry(f.Geometry)
	if !ok {
		return geo.Feature{}, false
	}
	f.Geometry = g
	return f, true
}

func repairGeometry(g orb.Geometry) (orb.Geometry, bool) {
	switch t := g.(type) {
	case orb.Point:
		if !finitePoint(t) {
			return nil, false
		}
		return t, true

	case orb.MultiPoint:
		out := make(orb.MultiPoint, 0, len(t))
		for _, p := range t {
			if finitePoint(p) {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true

	case orb.LineString:
		ls := dedupe(orb.LineString(t))
		if len(ls) < 2 {
			return nil, false
		}
		return ls, true

	case orb.MultiLineString:
		out := make(orb.MultiLineString, 0, len(t))
		for _, ls := range t {
			if cleaned, ok := repairGeometry(ls); ok {
				out = append(out, cleaned.(orb.LineString))
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true

	case orb.Polygon:
		return repairPolygon(t)

	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, 0, len(t))
		for _, p := range t {
			if cleaned, ok := repairPolygon(p); ok {
				out = append(out, cleaned.(orb.Polygon))
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true

	case orb.Collection:
		out := make(orb.Collection, 0, len(t))
		for _, sub := range t {
			if cleaned, ok := repairGeometry(sub); ok {
				out = append(out, cleaned)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	}
	return nil, false
}

func repairPolygon(p orb.Polygon) (orb.Geometry, bool) {
	out := make(orb.Polygon, 0, len(p))
	for i, r := range p {
		ring, ok := repairRing(r)
		if !ok {
			if i == 0 {
				// The outer ring is the polygon; without it the
				// holes mean nothing.
				return nil, false
			}
			continue
		}
		out = append(out, ring)
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func repairRing(r orb.Ring) (orb.Ring, bool) {
	ring := orb.Ring(dedupe(orb.LineString(r)))
	if len(ring) == 0 {
		return nil, false
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	// A closed ring needs at least three distinct vertices.
	if len(ring) < 4 {
		return nil, false
	}
	if selfIntersects(ring) {
		return nil, false
	}
	return ring, true
}

// dedupe removes consecutive duplicate and non-finite vertices.
func dedupe(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, 0, len(ls))
	for _, p := range ls {
		if !finitePoint(p) {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

func finitePoint(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsInf(p[0], 0) &&
		!math.IsNaN(p[1]) && !math.IsInf(p[1], 0)
}

// selfIntersects reports whether any two non-adjacent ring segments cross.
// Touching at shared endpoints is allowed.
func selfIntersects(r orb.Ring) bool {
	n := len(r) - 1 // segments
	if n > selfIntersectionCap {
		return false
	}
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			// Skip the closing segment against the first one; they
			// share the ring's start vertex.
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsCross(r[i], r[i+1], r[j], r[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentsCross(a, b, c, d orb.Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
