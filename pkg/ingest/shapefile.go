package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

// parseBoundaryArchive reads a zipped shapefile (shp + dbf + shx, optional
// prj). The reader library works on paths, so the archive is unpacked into a
// temporary directory for the duration of the parse.
func parseBoundaryArchive(data []byte) (rawFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return rawFile{}, fmt.Errorf("not a valid boundary archive: %w", err)
	}

	dir, err := os.MkdirTemp("", "boundary-archive-*")
	if err != nil {
		return rawFile{}, err
	}
	defer os.RemoveAll(dir)

	var shpPath, prjPath string
	for _, entry := range zr.File {
		ext := strings.ToLower(filepath.Ext(entry.Name))
		switch ext {
		case ".shp", ".shx", ".dbf", ".prj":
		default:
			continue
		}
		// Flatten paths; shapefile components must share a basename and
		// a directory for the reader to find them.
		dst := filepath.Join(dir, strings.ToLower(filepath.Base(entry.Name)))
		if err := extractTo(dst, entry); err != nil {
			return rawFile{}, fmt.Errorf("unpack %q: %w", entry.Name, err)
		}
		switch ext {
		case ".shp":
			shpPath = dst
		case ".prj":
			prjPath = dst
		}
	}
	if shpPath == "" {
		return rawFile{}, fmt.Errorf("archive contains no .shp component")
	}

	crs := ""
	if prjPath != "" {
		if wkt, err := os.ReadFile(prjPath); err == nil {
			crs = crsFromWKT(string(wkt))
		}
	}

	features, err := readShapefile(shpPath)
	if err != nil {
		return rawFile{}, err
	}
	return rawFile{features: features, crs: crs}, nil
}

func extractTo(dst string, entry *zip.File) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

func readShapefile(path string) ([]geo.Feature, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}
	defer r.Close()

	fields := r.Fields()
	var features []geo.Feature
	for r.Next() {
		row, shape := r.Shape()
		g, ok := shapeGeometry(shape)
		if !ok {
			continue
		}
		props := map[string]any{}
		for col, field := range fields {
			if v := strings.TrimSpace(r.ReadAttribute(row, col)); v != "" {
				props[field.String()] = v
			}
		}
		features = append(features, geo.Feature{Geometry: g, Properties: props})
	}
	if err := r.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}
	return features, nil
}

// shapeGeometry converts a shapefile record into an orb geometry. Z and M
// variants are flattened; the pipeline is strictly 2D.
func shapeGeometry(s shp.Shape) (orb.Geometry, bool) {
	switch t := s.(type) {
	case *shp.Point:
		return orb.Point{t.X, t.Y}, true
	case *shp.PointZ:
		return orb.Point{t.X, t.Y}, true
	case *shp.PointM:
		return orb.Point{t.X, t.Y}, true
	case *shp.MultiPoint:
		return multiPoint(t.Points), true
	case *shp.PolyLine:
		return polyLine(t.Parts, t.Points)
	case *shp.PolyLineZ:
		return polyLine(t.Parts, t.Points)
	case *shp.PolyLineM:
		return polyLine(t.Parts, t.Points)
	case *shp.Polygon:
		return polygon(t.Parts, t.Points)
	case *shp.PolygonZ:
		return polygon(t.Parts, t.Points)
	case *shp.PolygonM:
		return polygon(t.Parts, t.Points)
	}
	return nil, false
}

func multiPoint(pts []shp.Point) orb.MultiPoint {
	out := make(orb.MultiPoint, len(pts))
	for i, p := range pts {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}

func parts(offsets []int32, pts []shp.Point) [][]orb.Point {
	var out [][]orb.Point
	for i, start := range offsets {
		end := len(pts)
		if i+1 < len(offsets) {
			end = int(offsets[i+1])
		}
		if int(start) >= end {
			continue
		}
		part := make([]orb.Point, 0, end-int(start))
		for _, p := range pts[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}

func polyLine(offsets []int32, pts []shp.Point) (orb.Geometry, bool) {
	segs := parts(offsets, pts)
	if len(segs) == 0 {
		return nil, false
	}
	if len(segs) == 1 {
		return orb.LineString(segs[0]), true
	}
	out := make(orb.MultiLineString, len(segs))
	for i, s := range segs {
		out[i] = orb.LineString(s)
	}
	return out, true
}

// polygon groups shapefile rings into polygons by winding order: clockwise
// rings open a new polygon, counter-clockwise rings are holes in the most
// recently opened one (ESRI shapefile convention).
func polygon(offsets []int32, pts []shp.Point) (orb.Geometry, bool) {
	rings := parts(offsets, pts)
	if len(rings) == 0 {
		return nil, false
	}

	var polys orb.MultiPolygon
	for _, ring := range rings {
		r := orb.Ring(ring)
		if len(polys) == 0 || signedArea(r) < 0 { // clockwise = outer
			polys = append(polys, orb.Polygon{r})
			continue
		}
		polys[len(polys)-1] = append(polys[len(polys)-1], r)
	}
	if len(polys) == 1 {
		return polys[0], true
	}
	return polys, true
}

func signedArea(r orb.Ring) float64 {
	var area float64
	for i := 0; i < len(r)-1; i++ {
		area += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	if len(r) > 1 && r[0] != r[len(r)-1] {
		last := len(r) - 1
		area += r[last][0]*r[0][1] - r[0][0]*r[last][1]
	}
	return area / 2
}
