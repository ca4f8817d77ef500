// Package render turns composed scenes into deliverable bytes.
//
// # Overview
//
// Three backends share one input, the [scene.Scene]:
//
//   - Interactive HTML with pan and zoom (in [html] subpackage)
//   - Print-resolution PNG (in [raster] subpackage)
//   - Single-page PDF (in [document] subpackage)
//
// The backends render identical content. Titles, legend rows and info
// fields come from the scene, never from backend-local state, so the three
// outputs can be diffed against each other in tests.
//
// # Usage
//
//	r, err := render.For(render.FormatStaticRaster)
//	out, err := r.Render(s, render.Options{DPI: 300})
//
// [html]: github.com/elfabitto/gis-saas-project/pkg/render/html
// [raster]: github.com/elfabitto/gis-saas-project/pkg/render/raster
// [document]: github.com/elfabitto/gis-saas-project/pkg/render/document
package render
