// Package geo defines the value types shared by every stage of the map
// generation pipeline: features, feature sets, and geographic windows.
//
// All coordinates are geographic WGS84 (degrees longitude/latitude) once a
// FeatureSet leaves ingestion. Geometries are represented with
// github.com/paulmach/orb values; this package adds the identity and
// immutability conventions the pipeline relies on.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusM = 6371000.0

// GeometryKind summarizes the shape class of a feature or feature set.
type GeometryKind string

const (
	KindPoint   GeometryKind = "point"
	KindLine    GeometryKind = "line"
	KindPolygon GeometryKind = "polygon"
	KindMixed   GeometryKind = "mixed"
)

// KindOf classifies an orb geometry into the pipeline's shape classes.
func KindOf(g orb.Geometry) GeometryKind {
	switch g.(type) {
	case orb.Point, orb.MultiPoint:
		return KindPoint
	case orb.LineString, orb.MultiLineString:
		return KindLine
	case orb.Polygon, orb.MultiPolygon:
		return KindPolygon
	default:
		return KindMixed
	}
}

// Feature is one geometry plus its attribute properties.
// SourceIndex records which input file the feature came from.
type Feature struct {
	Geometry    orb.Geometry
	Properties  map[string]any
	SourceIndex int
}

// Kind returns the shape class of the feature's geometry.
func (f Feature) Kind() GeometryKind {
	return KindOf(f.Geometry)
}

// FeatureSet is an ordered, immutable collection of features normalized to
// geographic WGS84. Order is upload order; features from the same file stay
// contiguous.
type FeatureSet struct {
	Features []Feature

	// SourceCRS lists the detected coordinate system of each input file,
	// indexed by file position, as "EPSG:nnnn" tags.
	SourceCRS []string

	// Warnings records per-file recoverable problems (assumed CRS,
	// discarded invalid features). They never fail a batch on their own.
	Warnings []string
}

// Count returns the number of features.
func (fs *FeatureSet) Count() int {
	return len(fs.Features)
}

// Kind returns the aggregate shape class: the single class shared by all
// features, or KindMixed.
func (fs *FeatureSet) Kind() GeometryKind {
	if len(fs.Features) == 0 {
		return KindMixed
	}
	k := fs.Features[0].Kind()
	for _, f := range fs.Features[1:] {
		if f.Kind() != k {
			return KindMixed
		}
	}
	return k
}

// Bound returns the anti-meridian-aware bounding window of all features.
// See Window for the shifted-domain convention.
func (fs *FeatureSet) Bound() Window {
	pts := make([]orb.Point, 0, len(fs.Features)*4)
	for _, f := range fs.Features {
		b := f.Geometry.Bound()
		pts = append(pts, b.Min, b.Max)
	}
	return BoundOf(pts)
}

// MetersPerDegreeLon returns the ground distance of one degree of longitude
// at the given latitude.
func MetersPerDegreeLon(lat float64) float64 {
	return earthRadiusM * math.Pi / 180 * math.Cos(lat*math.Pi/180)
}

// MetersPerDegreeLat returns the ground distance of one degree of latitude.
func MetersPerDegreeLat() float64 {
	return earthRadiusM * math.Pi / 180
}

// HaversineM returns the great-circle distance in meters between two
// geographic points.
func HaversineM(a, b orb.Point) float64 {
	lat1 := a[1] * math.Pi / 180
	lat2 := b[1] * math.Pi / 180
	dLat := (b[1] - a[1]) * math.Pi / 180
	dLon := (b[0] - a[0]) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}
