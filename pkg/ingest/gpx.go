package ingest

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/tkrajina/gpxgo/gpx"

	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

// parseGPX turns GPS tracks into line features, waypoints into point
// features and routes into line features, in that order. GPX is WGS84 by
// definition (Topografix GPX 1.1 §1).
func parseGPX(data []byte) (rawFile, error) {
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return rawFile{}, fmt.Errorf("not a valid GPS track: %w", err)
	}

	var features []geo.Feature

	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			if len(seg.Points) < 2 {
				continue
			}
			ls := make(orb.LineString, len(seg.Points))
			for i, p := range seg.Points {
				ls[i] = orb.Point{p.Longitude, p.Latitude}
			}
			features = append(features, geo.Feature{
				Geometry:   ls,
				Properties: trackProps("track", trk.Name, trk.Description),
			})
		}
	}

	for _, wpt := range doc.Waypoints {
		features = append(features, geo.Feature{
			Geometry:   orb.Point{wpt.Longitude, wpt.Latitude},
			Properties: trackProps("waypoint", wpt.Name, wpt.Description),
		})
	}

	for _, rte := range doc.Routes {
		if len(rte.Points) < 2 {
			continue
		}
		ls := make(orb.LineString, len(rte.Points))
		for i, p := range rte.Points {
			ls[i] = orb.Point{p.Longitude, p.Latitude}
		}
		features = append(features, geo.Feature{
			Geometry:   ls,
			Properties: trackProps("route", rte.Name, rte.Description),
		})
	}

	return rawFile{features: features, crs: CanonicalCRS}, nil
}

func trackProps(kind, name, desc string) map[string]any {
	props := map[string]any{"gpx_type": kind}
	if name != "" {
		props["name"] = name
	}
	if desc != "" {
		props["description"] = desc
	}
	return props
}
