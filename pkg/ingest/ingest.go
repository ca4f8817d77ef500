// Package ingest parses heterogeneous GIS payloads into one normalized
// FeatureSet.
//
// Each input payload carries a declared format tag. Ingestion parses it,
// detects the source coordinate reference system, reprojects everything to
// geographic WGS84, validates topology, and concatenates the surviving
// features in upload order. One bad feature never aborts a batch; it is
// excluded with a warning. The batch fails only when nothing valid remains.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

// Format is the declared format tag of an input payload.
type Format string

// Accepted format tags. Anything else fails fast with UNSUPPORTED_FORMAT
// before parsing is attempted.
const (
	FormatBoundaryArchive Format = "boundary-archive"
	FormatKML             Format = "kml"
	FormatKMZ             Format = "kmz"
	FormatGeoJSON         Format = "geojson"
	FormatGPSTrack        Format = "gps-track"
)

// ValidFormats is the closed set of accepted format tags.
var ValidFormats = map[Format]bool{
	FormatBoundaryArchive: true,
	FormatKML:             true,
	FormatKMZ:             true,
	FormatGeoJSON:         true,
	FormatGPSTrack:        true,
}

// FormatForName infers the format tag from a file name's extension.
// The second return value is false when the extension is not recognized.
func FormatForName(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".geojson", ".json":
		return FormatGeoJSON, true
	case ".kml":
		return FormatKML, true
	case ".kmz":
		return FormatKMZ, true
	case ".zip":
		return FormatBoundaryArchive, true
	case ".gpx":
		return FormatGPSTrack, true
	}
	return "", false
}

// File is one raw input payload with its declared format tag.
type File struct {
	Name   string
	Format Format
	Data   []byte
}

// rawFile is a parsed but not yet validated payload: features in the source
// coordinate system plus the detected CRS tag ("" when none was embedded).
type rawFile struct {
	features []geo.Feature
	crs      string
}

// parser turns one payload into raw features. Implementations must not
// assume the payload is well formed.
type parser func(data []byte) (rawFile, error)

func parserFor(f Format) (parser, bool) {
	switch f {
	case FormatGeoJSON:
		return parseGeoJSON, true
	case FormatKML:
		return parseKML, true
	case FormatKMZ:
		return parseKMZ, true
	case FormatGPSTrack:
		return parseGPX, true
	case FormatBoundaryArchive:
		return parseBoundaryArchive, true
	}
	return nil, false
}

// Ingest parses, reprojects and validates all files into one FeatureSet.
//
// Errors:
//   - UNSUPPORTED_FORMAT when any format tag is unrecognized (checked for
//     every file before any parsing starts)
//   - REPROJECTION_ERROR when a declared CRS cannot be resolved or
//     transformed
//   - EMPTY_GEOMETRY when no valid feature survives across all files
func Ingest(files []File) (*geo.FeatureSet, error) {
	if len(files) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyGeometry, "no input files").At(errors.StageIngest)
	}
	for i, f := range files {
		if !ValidFormats[f.Format] {
			return nil, errors.New(errors.ErrCodeUnsupportedFormat,
				"unknown format tag %q for file %q", f.Format, f.Name).
				At(errors.StageIngest).ForIndex(i)
		}
	}

	out := &geo.FeatureSet{}
	for i, f := range files {
		parse, _ := parserFor(f.Format)
		raw, err := parse(f.Data)
		if err != nil {
			// An unparseable file contributes nothing but does not
			// abort the batch; the empty-geometry check at the end
			// catches the case where nothing at all survived.
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("file %d (%s): %v", i, f.Name, err))
			out.SourceCRS = append(out.SourceCRS, "")
			continue
		}

		crs := raw.crs
		if crs == "" {
			crs = CanonicalCRS
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("file %d (%s): no coordinate system declared, assuming %s", i, f.Name, CanonicalCRS))
		}
		out.SourceCRS = append(out.SourceCRS, crs)

		reprojected, err := reproject(raw.features, crs)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeReprojection, err,
				"file %q: cannot transform %s to %s", f.Name, crs, CanonicalCRS).
				At(errors.StageIngest).ForIndex(i)
		}

		valid := 0
		for _, feat := range reprojected {
			repaired, ok := repair(feat)
			if !ok {
				out.Warnings = append(out.Warnings,
					fmt.Sprintf("file %d (%s): discarded invalid feature", i, f.Name))
				continue
			}
			repaired.SourceIndex = i
			out.Features = append(out.Features, repaired)
			valid++
		}
		if valid == 0 {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("file %d (%s): no valid features", i, f.Name))
		}
	}

	if len(out.Features) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyGeometry,
			"every feature in every file is invalid or empty").At(errors.StageIngest)
	}
	return out, nil
}

// Summary describes one parsed file for inspection endpoints. It mirrors the
// metadata recorded for uploads: counts, shape class, CRS and bounds.
type Summary struct {
	Name         string           `json:"name"`
	Format       Format           `json:"format"`
	FeatureCount int              `json:"feature_count"`
	Kind         geo.GeometryKind `json:"geometry_type"`
	CRS          string           `json:"coordinate_system"`
	Bounds       geo.Window       `json:"bounds"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// Inspect parses a single file and reports its metadata without joining it
// into a feature set. The same validation as Ingest applies.
func Inspect(f File) (*Summary, error) {
	fs, err := Ingest([]File{f})
	if err != nil {
		return nil, err
	}
	return &Summary{
		Name:         f.Name,
		Format:       f.Format,
		FeatureCount: fs.Count(),
		Kind:         fs.Kind(),
		CRS:          fs.SourceCRS[0],
		Bounds:       fs.Bound(),
		Warnings:     fs.Warnings,
	}, nil
}
