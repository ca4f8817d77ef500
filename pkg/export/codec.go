package export

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"

	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

// featureDoc is the cache representation of one feature.
type featureDoc struct {
	Geometry    *geojson.Geometry `json:"geometry"`
	Properties  map[string]any    `json:"properties,omitempty"`
	SourceIndex int               `json:"source_index"`
}

// featureSetDoc is the cache representation of a normalized feature set.
type featureSetDoc struct {
	Features  []featureDoc `json:"features"`
	SourceCRS []string     `json:"source_crs,omitempty"`
	Warnings  []string     `json:"warnings,omitempty"`
}

func marshalFeatureSet(fs *geo.FeatureSet) ([]byte, error) {
	doc := featureSetDoc{
		SourceCRS: fs.SourceCRS,
		Warnings:  fs.Warnings,
	}
	for _, f := range fs.Features {
		doc.Features = append(doc.Features, featureDoc{
			Geometry:    geojson.NewGeometry(f.Geometry),
			Properties:  f.Properties,
			SourceIndex: f.SourceIndex,
		})
	}
	return json.Marshal(doc)
}

func unmarshalFeatureSet(data []byte) (*geo.FeatureSet, error) {
	var doc featureSetDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	fs := &geo.FeatureSet{
		SourceCRS: doc.SourceCRS,
		Warnings:  doc.Warnings,
	}
	for _, f := range doc.Features {
		if f.Geometry == nil {
			continue
		}
		fs.Features = append(fs.Features, geo.Feature{
			Geometry:    f.Geometry.Geometry(),
			Properties:  f.Properties,
			SourceIndex: f.SourceIndex,
		})
	}
	return fs, nil
}
