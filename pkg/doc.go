// Package pkg provides the core libraries for gismap cartographic composition.
//
// # Overview
//
// Gismap turns heterogeneous GIS uploads into finished map compositions.
// The pkg directory is organized along the pipeline:
//
//  1. [ingest] - Parse GIS payloads into one normalized feature set
//  2. [frame] - Compute the nested main/context/region map windows
//  3. [scene] - Compose a backend-neutral scene from features and style
//  4. [render] - Render the scene as HTML, PNG, or PDF
//  5. [export] - Orchestrate the pipeline with caching and result tracking
//
// Supporting packages: [geo] (geometry and window math), [errors]
// (structured pipeline errors), [cache] (file/Redis/null backends and key
// derivation), [observability] (optional instrumentation hooks), and
// [buildinfo] (version metadata).
//
// # Architecture
//
// The typical data flow:
//
//	GIS files (GeoJSON, KML, KMZ, shapefile archive, GPX)
//	         ↓
//	ingest.Ingest        → *geo.FeatureSet (WGS84, validated)
//	         ↓
//	frame.Compute        → frame.Set (main, context, region windows)
//	         ↓
//	scene.Compose        → *scene.Scene (panels, legend, info, theme)
//	         ↓
//	render.For(format)   → interactive HTML / static-raster PNG / document PDF
//	         ↓
//	export.Runner        → cached artifacts + ExportResult per format
//
// Every stage is a pure library with explicit inputs; the CLI and HTTP API
// under internal/ are thin adapters over export.Runner.
package pkg
