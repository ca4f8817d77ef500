package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

// parseGeoJSON accepts a FeatureCollection, a single Feature, or a bare
// geometry. GeoJSON is WGS84 by definition; a legacy "crs" member, when
// present, overrides the default and is honored.
func parseGeoJSON(data []byte) (rawFile, error) {
	crs := legacyCRS(data)

	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		features := make([]geo.Feature, 0, len(fc.Features))
		for _, f := range fc.Features {
			if f == nil || f.Geometry == nil {
				continue
			}
			features = append(features, geo.Feature{
				Geometry:   f.Geometry,
				Properties: f.Properties,
			})
		}
		return rawFile{features: features, crs: crs}, nil
	}

	if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		return rawFile{
			features: []geo.Feature{{Geometry: f.Geometry, Properties: f.Properties}},
			crs:      crs,
		}, nil
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return rawFile{}, fmt.Errorf("not valid GeoJSON: %w", err)
	}
	return rawFile{
		features: []geo.Feature{{Geometry: g.Geometry()}},
		crs:      crs,
	}, nil
}

// legacyCRS extracts the deprecated GeoJSON "crs" member sometimes written
// by desktop GIS exporters. Absence means the RFC 7946 default, WGS84.
func legacyCRS(data []byte) string {
	var doc struct {
		CRS *struct {
			Properties struct {
				Name string `json:"name"`
			} `json:"properties"`
		} `json:"crs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil || doc.CRS == nil {
		return CanonicalCRS
	}
	if doc.CRS.Properties.Name == "" {
		return CanonicalCRS
	}
	if _, err := epsgCode(doc.CRS.Properties.Name); err != nil {
		// Unrecognized naming scheme; pass it through so reprojection
		// reports the real tag in its error.
		return doc.CRS.Properties.Name
	}
	code, _ := epsgCode(doc.CRS.Properties.Name)
	return fmt.Sprintf("EPSG:%d", code)
}
