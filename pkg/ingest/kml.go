package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

// KML is always geographic WGS84 (OGC KML 2.2 §6.2). There is no reader
// library in the ecosystem (twpayne/go-kml is a writer), so placemarks are
// decoded directly against the element structure.

type kmlRoot struct {
	XMLName xml.Name `xml:"kml"`
	kmlContainer
}

type kmlContainer struct {
	Documents  []kmlContainer `xml:"Document"`
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name          string       `xml:"name"`
	Description   string       `xml:"description"`
	Point         *kmlGeom     `xml:"Point"`
	LineString    *kmlGeom     `xml:"LineString"`
	Polygon       *kmlPolygon  `xml:"Polygon"`
	MultiGeometry *kmlMulti    `xml:"MultiGeometry"`
	ExtendedData  *kmlExtended `xml:"ExtendedData"`
}

type kmlGeom struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlBoundary   `xml:"outerBoundaryIs"`
	Inner []kmlBoundary `xml:"innerBoundaryIs"`
}

type kmlBoundary struct {
	Ring kmlGeom `xml:"LinearRing"`
}

type kmlMulti struct {
	Points   []kmlGeom    `xml:"Point"`
	Lines    []kmlGeom    `xml:"LineString"`
	Polygons []kmlPolygon `xml:"Polygon"`
}

type kmlExtended struct {
	Data []kmlData `xml:"Data"`
}

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

func parseKML(data []byte) (rawFile, error) {
	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return rawFile{}, fmt.Errorf("not valid KML: %w", err)
	}

	var features []geo.Feature
	collectPlacemarks(root.kmlContainer, &features)
	return rawFile{features: features, crs: CanonicalCRS}, nil
}

// parseKMZ unpacks the zip wrapper and parses the first KML entry.
func parseKMZ(data []byte) (rawFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return rawFile{}, fmt.Errorf("not a valid KMZ archive: %w", err)
	}
	for _, entry := range zr.File {
		if !strings.HasSuffix(strings.ToLower(entry.Name), ".kml") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return rawFile{}, fmt.Errorf("open %q in KMZ: %w", entry.Name, err)
		}
		kmlData, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return rawFile{}, fmt.Errorf("read %q in KMZ: %w", entry.Name, err)
		}
		return parseKML(kmlData)
	}
	return rawFile{}, fmt.Errorf("KMZ archive contains no KML document")
}

func collectPlacemarks(c kmlContainer, out *[]geo.Feature) {
	for _, pm := range c.Placemarks {
		if f, ok := placemarkFeature(pm); ok {
			*out = append(*out, f)
		}
	}
	for _, d := range c.Documents {
		collectPlacemarks(d, out)
	}
	for _, f := range c.Folders {
		collectPlacemarks(f, out)
	}
}

func placemarkFeature(pm kmlPlacemark) (geo.Feature, bool) {
	g, ok := placemarkGeometry(pm)
	if !ok {
		return geo.Feature{}, false
	}

	props := map[string]any{}
	if pm.Name != "" {
		props["name"] = pm.Name
	}
	if pm.Description != "" {
		props["description"] = pm.Description
	}
	if pm.ExtendedData != nil {
		for _, d := range pm.ExtendedData.Data {
			if d.Name != "" {
				props[d.Name] = d.Value
			}
		}
	}
	return geo.Feature{Geometry: g, Properties: props}, true
}

func placemarkGeometry(pm kmlPlacemark) (orb.Geometry, bool) {
	switch {
	case pm.Point != nil:
		pts := parseCoordinates(pm.Point.Coordinates)
		if len(pts) == 0 {
			return nil, false
		}
		return pts[0], true

	case pm.LineString != nil:
		pts := parseCoordinates(pm.LineString.Coordinates)
		if len(pts) < 2 {
			return nil, false
		}
		return orb.LineString(pts), true

	case pm.Polygon != nil:
		return kmlPolygonGeometry(*pm.Polygon)

	case pm.MultiGeometry != nil:
		var coll orb.Collection
		for _, p := range pm.MultiGeometry.Points {
			if pts := parseCoordinates(p.Coordinates); len(pts) > 0 {
				coll = append(coll, pts[0])
			}
		}
		for _, l := range pm.MultiGeometry.Lines {
			if pts := parseCoordinates(l.Coordinates); len(pts) >= 2 {
				coll = append(coll, orb.LineString(pts))
			}
		}
		for _, p := range pm.MultiGeometry.Polygons {
			if g, ok := kmlPolygonGeometry(p); ok {
				coll = append(coll, g)
			}
		}
		if len(coll) == 0 {
			return nil, false
		}
		if len(coll) == 1 {
			return coll[0], true
		}
		return coll, true
	}
	return nil, false
}

func kmlPolygonGeometry(p kmlPolygon) (orb.Geometry, bool) {
	outer := parseCoordinates(p.Outer.Ring.Coordinates)
	if len(outer) < 3 {
		return nil, false
	}
	poly := orb.Polygon{orb.Ring(outer)}
	for _, inner := range p.Inner {
		if ring := parseCoordinates(inner.Ring.Coordinates); len(ring) >= 3 {
			poly = append(poly, orb.Ring(ring))
		}
	}
	return poly, true
}

// parseCoordinates decodes the KML coordinate string format:
// whitespace-separated "lon,lat[,alt]" tuples. Altitude is discarded.
func parseCoordinates(s string) []orb.Point {
	var pts []orb.Point
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}
