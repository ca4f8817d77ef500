package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/wroge/wgs84"

	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

// CanonicalCRS is the coordinate system every FeatureSet is normalized into.
const CanonicalCRS = "EPSG:4326"

// resolveCRS maps an "EPSG:nnnn" tag to a transformable coordinate
// reference system. SIRGAS 2000 UTM zones are treated as WGS84 UTM: the
// datums agree to centimetres, far below rendering resolution.
func resolveCRS(tag string) (wgs84.CoordinateReferenceSystem, error) {
	code, err := epsgCode(tag)
	if err != nil {
		return nil, err
	}

	switch {
	case code == 4326 || code == 4674: // WGS84, SIRGAS 2000 geographic
		return wgs84.LonLat(), nil
	case code == 3857 || code == 900913:
		return wgs84.WebMercator(), nil
	case code >= 32601 && code <= 32660:
		return wgs84.UTM(float64(code-32600), true), nil
	case code >= 32701 && code <= 32760:
		return wgs84.UTM(float64(code-32700), false), nil
	case code >= 31965 && code <= 31976: // SIRGAS 2000 / UTM zones 11N-22N
		return wgs84.UTM(float64(code-31954), true), nil
	case code >= 31977 && code <= 31985: // SIRGAS 2000 / UTM zones 17S-25S
		return wgs84.UTM(float64(code-31960), false), nil
	}

	if crs := wgs84.EPSG().Code(code); crs != nil {
		return crs, nil
	}
	return nil, fmt.Errorf("unresolvable coordinate system %q", tag)
}

func epsgCode(tag string) (int, error) {
	t := strings.ToUpper(strings.TrimSpace(tag))
	t = strings.TrimPrefix(t, "URN:OGC:DEF:CRS:")
	t = strings.ReplaceAll(t, "::", ":")
	if !strings.HasPrefix(t, "EPSG:") {
		return 0, fmt.Errorf("coordinate system %q is not EPSG-coded", tag)
	}
	code, err := strconv.Atoi(strings.TrimPrefix(t, "EPSG:"))
	if err != nil {
		return 0, fmt.Errorf("malformed EPSG code in %q", tag)
	}
	return code, nil
}

// reproject transforms all features from the tagged CRS into geographic
// WGS84. Reprojection from the canonical system is the identity.
func reproject(features []geo.Feature, crs string) ([]geo.Feature, error) {
	code, err := epsgCode(crs)
	if err != nil {
		return nil, err
	}
	if code == 4326 {
		return features, nil
	}

	from, err := resolveCRS(crs)
	if err != nil {
		return nil, err
	}
	transform := wgs84.Transform(from, wgs84.LonLat())

	out := make([]geo.Feature, len(features))
	for i, f := range features {
		out[i] = f
		out[i].Geometry = mapPoints(f.Geometry, func(p orb.Point) orb.Point {
			lon, lat, _ := transform(p[0], p[1], 0)
			return orb.Point{lon, lat}
		})
	}
	return out, nil
}

// mapPoints applies fn to every coordinate of a geometry, returning a new
// geometry. The input is never mutated.
func mapPoints(g orb.Geometry, fn func(orb.Point) orb.Point) orb.Geometry {
	switch t := g.(type) {
	case orb.Point:
		return fn(t)
	case orb.MultiPoint:
		out := make(orb.MultiPoint, len(t))
		for i, p := range t {
			out[i] = fn(p)
		}
		return out
	case orb.LineString:
		out := make(orb.LineString, len(t))
		for i, p := range t {
			out[i] = fn(p)
		}
		return out
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(t))
		for i, ls := range t {
			out[i] = mapPoints(ls, fn).(orb.LineString)
		}
		return out
	case orb.Ring:
		out := make(orb.Ring, len(t))
		for i, p := range t {
			out[i] = fn(p)
		}
		return out
	case orb.Polygon:
		out := make(orb.Polygon, len(t))
		for i, r := range t {
			out[i] = mapPoints(r, fn).(orb.Ring)
		}
		return out
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(t))
		for i, p := range t {
			out[i] = mapPoints(p, fn).(orb.Polygon)
		}
		return out
	case orb.Collection:
		out := make(orb.Collection, len(t))
		for i, g := range t {
			out[i] = mapPoints(g, fn)
		}
		return out
	}
	return g
}

var (
	prjUTMRe  = regexp.MustCompile(`(?i)UTM[_ ]?Zone[_ ]?(\d{1,2})\s*([NS])`)
	prjAuthRe = regexp.MustCompile(`AUTHORITY\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]`)
)

// crsFromWKT extracts an EPSG tag from ESRI/OGC well-known text. The last
// AUTHORITY clause names the outermost definition; when it is missing the
// projection and datum names are matched heuristically.
func crsFromWKT(wkt string) string {
	if m := prjAuthRe.FindAllStringSubmatch(wkt, -1); len(m) > 0 {
		return "EPSG:" + m[len(m)-1][1]
	}

	upper := strings.ToUpper(wkt)
	if m := prjUTMRe.FindStringSubmatch(wkt); m != nil {
		zone, _ := strconv.Atoi(m[1])
		south := strings.EqualFold(m[2], "S")
		switch {
		case strings.Contains(upper, "SIRGAS") && south:
			return fmt.Sprintf("EPSG:%d", 31960+zone)
		case strings.Contains(upper, "SIRGAS"):
			return fmt.Sprintf("EPSG:%d", 31954+zone)
		case south:
			return fmt.Sprintf("EPSG:%d", 32700+zone)
		default:
			return fmt.Sprintf("EPSG:%d", 32600+zone)
		}
	}

	if strings.Contains(upper, "WGS_1984") || strings.Contains(upper, "WGS 84") ||
		strings.Contains(upper, "SIRGAS") {
		return CanonicalCRS
	}
	return ""
}
