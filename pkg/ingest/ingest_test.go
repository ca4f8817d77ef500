package ingest

import (
	"archive/zip"
	"bytes"
	"math"
	"strings"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

const pointFC = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-47.06, -22.9]},
     "properties": {"name": "well 1"}}
  ]
}`

const polygonFC = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates":
      [[[-47.1, -22.9], [-47.0, -22.9], [-47.0, -22.8], [-47.1, -22.8], [-47.1, -22.9]]]},
     "properties": {"name": "site"}}
  ]
}`

func TestIngestGeoJSON(t *testing.T) {
	fs, err := Ingest([]File{{Name: "site.geojson", Format: FormatGeoJSON, Data: []byte(polygonFC)}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if fs.Count() != 1 {
		t.Fatalf("Count = %d, want 1", fs.Count())
	}
	if fs.Kind() != geo.KindPolygon {
		t.Errorf("Kind = %q, want polygon", fs.Kind())
	}
	if fs.SourceCRS[0] != CanonicalCRS {
		t.Errorf("SourceCRS = %q, want %q", fs.SourceCRS[0], CanonicalCRS)
	}
	if got := fs.Features[0].Properties["name"]; got != "site" {
		t.Errorf("property name = %v, want site", got)
	}
}

func TestIngestUnsupportedFormat(t *testing.T) {
	_, err := Ingest([]File{{Name: "plan.dwg", Format: Format("dwg"), Data: []byte("x")}})
	if !errors.Is(err, errors.ErrCodeUnsupportedFormat) {
		t.Fatalf("err = %v, want UNSUPPORTED_FORMAT", err)
	}
	if errors.GetStage(err) != errors.StageIngest {
		t.Errorf("stage = %q, want ingest", errors.GetStage(err))
	}
}

func TestIngestAllInvalid(t *testing.T) {
	// A bow-tie ring self-intersects and cannot be cheaply repaired.
	bowtie := `{"type": "Feature", "geometry": {"type": "Polygon", "coordinates":
	  [[[0,0],[2,2],[2,0],[0,2],[0,0]]]}, "properties": {}}`

	_, err := Ingest([]File{{Name: "bad.geojson", Format: FormatGeoJSON, Data: []byte(bowtie)}})
	if !errors.Is(err, errors.ErrCodeEmptyGeometry) {
		t.Fatalf("err = %v, want EMPTY_GEOMETRY", err)
	}
}

func TestIngestRecoversPartialBatch(t *testing.T) {
	bowtie := `{"type": "Feature", "geometry": {"type": "Polygon", "coordinates":
	  [[[0,0],[2,2],[2,0],[0,2],[0,0]]]}, "properties": {}}`

	fs, err := Ingest([]File{
		{Name: "bad.geojson", Format: FormatGeoJSON, Data: []byte(bowtie)},
		{Name: "good.geojson", Format: FormatGeoJSON, Data: []byte(pointFC)},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if fs.Count() != 1 {
		t.Fatalf("Count = %d, want 1 (only the valid point)", fs.Count())
	}
	if len(fs.Warnings) == 0 {
		t.Error("expected a warning for the discarded file")
	}
	if fs.Features[0].SourceIndex != 1 {
		t.Errorf("SourceIndex = %d, want 1", fs.Features[0].SourceIndex)
	}
}

func TestIngestConcatenationOrder(t *testing.T) {
	fs, err := Ingest([]File{
		{Name: "a.geojson", Format: FormatGeoJSON, Data: []byte(polygonFC)},
		{Name: "b.geojson", Format: FormatGeoJSON, Data: []byte(pointFC)},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if fs.Count() != 2 {
		t.Fatalf("Count = %d, want 2", fs.Count())
	}
	if fs.Features[0].SourceIndex != 0 || fs.Features[1].SourceIndex != 1 {
		t.Error("features must keep upload order")
	}
}

func TestReprojectIdentity(t *testing.T) {
	in := []geo.Feature{{Geometry: orb.Point{-47.06, -22.9}}}
	out, err := reproject(in, CanonicalCRS)
	if err != nil {
		t.Fatalf("reproject: %v", err)
	}
	if out[0].Geometry.(orb.Point) != (orb.Point{-47.06, -22.9}) {
		t.Error("reprojecting from the canonical system must be a no-op")
	}
}

func TestReprojectUTM(t *testing.T) {
	// Easting 500000 sits exactly on the central meridian of the zone.
	// UTM zone 22S has central meridian 51W; northing ~7787634 is ~20S.
	in := []geo.Feature{{Geometry: orb.Point{500000, 7787634}}}
	out, err := reproject(in, "EPSG:31982") // SIRGAS 2000 / UTM 22S
	if err != nil {
		t.Fatalf("reproject: %v", err)
	}
	p := out[0].Geometry.(orb.Point)
	if math.Abs(p[0]-(-51)) > 0.001 {
		t.Errorf("lon = %f, want -51", p[0])
	}
	if math.Abs(p[1]-(-20)) > 0.5 {
		t.Errorf("lat = %f, want ~-20", p[1])
	}
}

func TestReprojectUnresolvable(t *testing.T) {
	_, err := reproject([]geo.Feature{{Geometry: orb.Point{0, 0}}}, "ESRI:102100")
	if err == nil {
		t.Fatal("expected error for non-EPSG tag")
	}
}

func TestLegacyCRSMember(t *testing.T) {
	doc := `{"type": "FeatureCollection",
	  "crs": {"type": "name", "properties": {"name": "urn:ogc:def:crs:EPSG::31982"}},
	  "features": [{"type": "Feature", "geometry": {"type": "Point",
	    "coordinates": [500000, 7787634]}, "properties": {}}]}`

	fs, err := Ingest([]File{{Name: "utm.geojson", Format: FormatGeoJSON, Data: []byte(doc)}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if fs.SourceCRS[0] != "EPSG:31982" {
		t.Errorf("SourceCRS = %q, want EPSG:31982", fs.SourceCRS[0])
	}
	p := fs.Features[0].Geometry.(orb.Point)
	if math.Abs(p[0]-(-51)) > 0.001 {
		t.Errorf("lon = %f, want -51 after reprojection", p[0])
	}
}

func TestInspectSummary(t *testing.T) {
	sum, err := Inspect(File{Name: "site.geojson", Format: FormatGeoJSON, Data: []byte(polygonFC)})
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if sum.FeatureCount != 1 || sum.Kind != geo.KindPolygon {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Bounds.MinLon != -47.1 || sum.Bounds.MaxLat != -22.8 {
		t.Errorf("bounds = %+v", sum.Bounds)
	}
}

func TestRepairClosesRing(t *testing.T) {
	open := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}} // not closed
	f, ok := repair(geo.Feature{Geometry: open})
	if !ok {
		t.Fatal("open ring should be cheaply fixable")
	}
	ring := f.Geometry.(orb.Polygon)[0]
	if ring[0] != ring[len(ring)-1] {
		t.Error("repaired ring must be closed")
	}
}

func TestRepairRejectsDegenerate(t *testing.T) {
	if _, ok := repair(geo.Feature{Geometry: orb.LineString{{1, 1}, {1, 1}}}); ok {
		t.Error("a line collapsing to a point is invalid")
	}
	if _, ok := repair(geo.Feature{Geometry: orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}}); ok {
		t.Error("a two-vertex ring is invalid")
	}
}

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Folder>
      <Placemark>
        <name>Parcel</name>
        <ExtendedData><Data name="owner"><value>acme</value></Data></ExtendedData>
        <Polygon>
          <outerBoundaryIs><LinearRing>
            <coordinates>
              -47.1,-22.9,0 -47.0,-22.9,0 -47.0,-22.8,0 -47.1,-22.8,0 -47.1,-22.9,0
            </coordinates>
          </LinearRing></outerBoundaryIs>
        </Polygon>
      </Placemark>
      <Placemark>
        <name>Gate</name>
        <Point><coordinates>-47.05,-22.85</coordinates></Point>
      </Placemark>
    </Folder>
  </Document>
</kml>`

func TestIngestKML(t *testing.T) {
	fs, err := Ingest([]File{{Name: "parcel.kml", Format: FormatKML, Data: []byte(sampleKML)}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if fs.Count() != 2 {
		t.Fatalf("Count = %d, want 2", fs.Count())
	}
	if fs.Features[0].Kind() != geo.KindPolygon || fs.Features[1].Kind() != geo.KindPoint {
		t.Error("placemark order should be preserved")
	}
	if fs.Features[0].Properties["owner"] != "acme" {
		t.Errorf("extended data lost: %v", fs.Features[0].Properties)
	}
}

func TestIngestKMZ(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("doc.kml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(sampleKML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	fs, err := Ingest([]File{{Name: "parcel.kmz", Format: FormatKMZ, Data: buf.Bytes()}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if fs.Count() != 2 {
		t.Fatalf("Count = %d, want 2", fs.Count())
	}
}

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <wpt lat="-22.85" lon="-47.05"><name>camp</name></wpt>
  <trk><name>survey</name><trkseg>
    <trkpt lat="-22.90" lon="-47.10"></trkpt>
    <trkpt lat="-22.89" lon="-47.09"></trkpt>
    <trkpt lat="-22.88" lon="-47.08"></trkpt>
  </trkseg></trk>
</gpx>`

func TestIngestGPX(t *testing.T) {
	fs, err := Ingest([]File{{Name: "survey.gpx", Format: FormatGPSTrack, Data: []byte(sampleGPX)}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if fs.Count() != 2 {
		t.Fatalf("Count = %d, want 2 (track + waypoint)", fs.Count())
	}
	if fs.Kind() != geo.KindMixed {
		t.Errorf("Kind = %q, want mixed", fs.Kind())
	}
}

func TestCRSFromWKT(t *testing.T) {
	tests := []struct {
		name string
		wkt  string
		want string
	}{
		{
			"authority wins",
			`PROJCS["SIRGAS 2000 / UTM zone 22S",AUTHORITY["EPSG","31982"]]`,
			"EPSG:31982",
		},
		{
			"wgs utm south",
			`PROJCS["WGS_1984_UTM_Zone_23S",GEOGCS["GCS_WGS_1984"]]`,
			"EPSG:32723",
		},
		{
			"sirgas utm south",
			`PROJCS["SIRGAS_2000_UTM_Zone_22S",GEOGCS["GCS_SIRGAS_2000"]]`,
			"EPSG:31982",
		},
		{
			"plain geographic",
			`GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984"]]`,
			"EPSG:4326",
		},
		{"unknown", `PROJCS["Bespoke_Local_Grid"]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := crsFromWKT(tt.wkt); got != tt.want {
				t.Errorf("crsFromWKT = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShapeGeometryPolygonWinding(t *testing.T) {
	// One clockwise outer ring followed by a counter-clockwise hole.
	pts := []shp.Point{
		{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0},
		{X: 2, Y: 2}, {X: 8, Y: 2}, {X: 8, Y: 8}, {X: 2, Y: 8}, {X: 2, Y: 2},
	}
	offsets := []int32{0, 5}

	g, ok := polygon(offsets, pts)
	if !ok {
		t.Fatal("polygon conversion failed")
	}
	poly, isPoly := g.(orb.Polygon)
	if !isPoly {
		t.Fatalf("got %T, want orb.Polygon", g)
	}
	if len(poly) != 2 {
		t.Fatalf("rings = %d, want outer + hole", len(poly))
	}
}

func TestIngestWarnsOnUnparseableFile(t *testing.T) {
	fs, err := Ingest([]File{
		{Name: "junk.geojson", Format: FormatGeoJSON, Data: []byte("not json")},
		{Name: "good.geojson", Format: FormatGeoJSON, Data: []byte(pointFC)},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if fs.Count() != 1 {
		t.Fatalf("Count = %d, want 1", fs.Count())
	}
	found := false
	for _, w := range fs.Warnings {
		if strings.Contains(w, "junk.geojson") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want one naming junk.geojson", fs.Warnings)
	}
}
