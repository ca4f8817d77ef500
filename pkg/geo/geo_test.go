package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
		want GeometryKind
	}{
		{"point", orb.Point{0, 0}, KindPoint},
		{"multipoint", orb.MultiPoint{{0, 0}, {1, 1}}, KindPoint},
		{"line", orb.LineString{{0, 0}, {1, 1}}, KindLine},
		{"polygon", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, KindPolygon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.geom); got != tt.want {
				t.Errorf("KindOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFeatureSetKind(t *testing.T) {
	fs := &FeatureSet{Features: []Feature{
		{Geometry: orb.Point{0, 0}},
		{Geometry: orb.Point{1, 1}},
	}}
	if fs.Kind() != KindPoint {
		t.Errorf("Kind = %q, want point", fs.Kind())
	}

	fs.Features = append(fs.Features, Feature{Geometry: orb.LineString{{0, 0}, {1, 1}}})
	if fs.Kind() != KindMixed {
		t.Errorf("Kind = %q, want mixed", fs.Kind())
	}
}

func TestBoundOfSimple(t *testing.T) {
	w := BoundOf([]orb.Point{{-47.1, -22.9}, {-47.0, -22.8}})
	if w.MinLon != -47.1 || w.MaxLon != -47.0 {
		t.Errorf("lon range [%f, %f]", w.MinLon, w.MaxLon)
	}
	if w.MinLat != -22.9 || w.MaxLat != -22.8 {
		t.Errorf("lat range [%f, %f]", w.MinLat, w.MaxLat)
	}
	if !w.IsValid() {
		t.Error("window should be valid")
	}
}

func TestBoundOfAntiMeridian(t *testing.T) {
	// Fiji-style input straddling the anti-meridian.
	w := BoundOf([]orb.Point{{179.5, -17.0}, {-179.5, -16.5}})

	if w.Width() > 180 {
		t.Fatalf("width = %f, want shifted-domain bound", w.Width())
	}
	if w.Width() != 1.0 {
		t.Errorf("width = %f, want 1.0", w.Width())
	}
	// MaxLon lives in the shifted domain; normalized it wraps back.
	if NormalizeLon(w.MaxLon) != -179.5 {
		t.Errorf("normalized MaxLon = %f, want -179.5", NormalizeLon(w.MaxLon))
	}
}

func TestWindowContains(t *testing.T) {
	outer := Window{MinLon: -50, MinLat: -25, MaxLon: -45, MaxLat: -20}
	inner := Window{MinLon: -48, MinLat: -23, MaxLon: -47, MaxLat: -22}

	if !outer.Contains(inner) {
		t.Error("outer should contain inner")
	}
	if inner.Contains(outer) {
		t.Error("inner should not contain outer")
	}
	if !outer.Contains(outer) {
		t.Error("containment is inclusive")
	}
}

func TestExpandMeters(t *testing.T) {
	w := Window{MinLon: -47.1, MinLat: -22.9, MaxLon: -47.0, MaxLat: -22.8}
	grown := w.ExpandMeters(1000)

	if !grown.Contains(w) {
		t.Fatal("expanded window must contain the original")
	}
	// One km of latitude is roughly 0.009 degrees.
	dLat := w.MinLat - grown.MinLat
	if math.Abs(dLat-0.009) > 0.001 {
		t.Errorf("latitude padding = %f degrees, want ~0.009", dLat)
	}
}

func TestExpandDegreesClampsPoles(t *testing.T) {
	w := Window{MinLon: 0, MinLat: 88, MaxLon: 1, MaxLat: 89}
	grown := w.ExpandDegrees(1, 5)
	if grown.MaxLat != 90 {
		t.Errorf("MaxLat = %f, want clamped to 90", grown.MaxLat)
	}
}

func TestHaversineM(t *testing.T) {
	// One degree of latitude at the equator is ~111.2 km.
	d := HaversineM(orb.Point{0, 0}, orb.Point{0, 1})
	if math.Abs(d-111195) > 500 {
		t.Errorf("distance = %f m, want ~111195", d)
	}

	if HaversineM(orb.Point{10, 10}, orb.Point{10, 10}) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestAspectRatio(t *testing.T) {
	// A square window at the equator has ratio ~1.
	w := Window{MinLon: 0, MinLat: -0.5, MaxLon: 1, MaxLat: 0.5}
	if r := w.AspectRatio(); math.Abs(r-1) > 0.01 {
		t.Errorf("equator aspect ratio = %f, want ~1", r)
	}

	// The same window at 60 degrees north is half as wide on the ground.
	n := Window{MinLon: 0, MinLat: 59.5, MaxLon: 1, MaxLat: 60.5}
	if r := n.AspectRatio(); math.Abs(r-0.5) > 0.01 {
		t.Errorf("60N aspect ratio = %f, want ~0.5", r)
	}
}
