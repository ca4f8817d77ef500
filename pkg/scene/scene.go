// Package scene builds the renderer-agnostic description of a map
// composition. All three render backends consume the same Scene, which is
// what keeps their content identical.
package scene

import (
	"fmt"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/frame"
	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

// StyleConfig is the caller-supplied appearance contract. It is treated as
// immutable by the composer.
type StyleConfig struct {
	Theme          Theme  `json:"theme"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	ShowScaleBar   bool   `json:"show_scale_bar"`
	ShowNorthArrow bool   `json:"show_north_arrow"`
	ShowLegend     bool   `json:"show_legend"`
	Logo           []byte `json:"-"`
	Annotation     string `json:"annotation"`
}

// PanelRole distinguishes the three nested map panels.
type PanelRole string

const (
	PanelMain    PanelRole = "main"
	PanelContext PanelRole = "context"
	PanelRegion  PanelRole = "region"
)

// DecorationKind names one drawable layer of a panel.
type DecorationKind string

const (
	DecorationBasemap    DecorationKind = "basemap"
	DecorationFill       DecorationKind = "fill"
	DecorationStroke     DecorationKind = "stroke"
	DecorationMarker     DecorationKind = "marker"
	DecorationHighlight  DecorationKind = "highlight"
	DecorationFrame      DecorationKind = "frame"
	DecorationScaleBar   DecorationKind = "scale-bar"
	DecorationNorthArrow DecorationKind = "north-arrow"
)

// Decoration is one entry of a panel's draw-order list. Renderers draw
// decorations in slice order.
type Decoration struct {
	Kind DecorationKind `json:"kind"`
	// Fill and Stroke are hex colors; Width is the stroke width in points.
	Fill   string  `json:"fill,omitempty"`
	Stroke string  `json:"stroke,omitempty"`
	Width  float64 `json:"width,omitempty"`
	// Alpha in [0, 1]; 0 means fully opaque (unset).
	Alpha float64 `json:"alpha,omitempty"`
	// Window is set for highlight decorations: the rectangle, in the
	// panel's coordinate space, marking the main window.
	Window geo.Window `json:"window,omitempty"`
}

// Panel is one map view of the composition.
type Panel struct {
	Role        PanelRole    `json:"role"`
	Label       string       `json:"label"`
	Window      geo.Window   `json:"window"`
	Features    []geo.Feature `json:"-"`
	Decorations []Decoration `json:"decorations"`
}

// LegendEntry is one deduplicated symbology row.
type LegendEntry struct {
	Label  string           `json:"label"`
	Kind   geo.GeometryKind `json:"kind"`
	Fill   string           `json:"fill"`
	Stroke string           `json:"stroke"`
}

// InfoField is one labeled line of the info panel. Field order is fixed by
// the composer and must be preserved by every backend.
type InfoField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Scene is the complete composition handed to renderers.
type Scene struct {
	Theme    ResolvedTheme `json:"theme"`
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	Panels   []Panel       `json:"panels"`
	Legend   []LegendEntry `json:"legend,omitempty"`
	Info     []InfoField   `json:"info"`
	Logo     []byte        `json:"-"`

	ShowScaleBar   bool `json:"show_scale_bar"`
	ShowNorthArrow bool `json:"show_north_arrow"`
}

// Compose builds a Scene from a feature set, its window set and a style.
// It is a pure transformation: no I/O, no mutation of its inputs.
func Compose(fs *geo.FeatureSet, frames frame.Set, style StyleConfig) (*Scene, error) {
	if fs == nil || fs.Count() == 0 {
		return nil, errors.New(errors.ErrCodeEmptyScene,
			"cannot compose a scene without features").At(errors.StageCompose)
	}

	theme, err := ResolveTheme(style)
	if err != nil {
		return nil, err
	}

	s := &Scene{
		Theme:          theme,
		Title:          style.Title,
		Subtitle:       style.Subtitle,
		Logo:           style.Logo,
		ShowScaleBar:   style.ShowScaleBar,
		ShowNorthArrow: style.ShowNorthArrow,
	}

	s.Panels = []Panel{
		mainPanel(fs, frames.Main, theme, style),
		contextPanel(fs, PanelContext, "Municipal context", frames.Context, frames.Main, theme),
		contextPanel(fs, PanelRegion, "Regional context", frames.Region, frames.Context, theme),
	}

	if style.ShowLegend {
		s.Legend = legendEntries(fs, theme)
	}
	s.Info = infoFields(fs, style)
	return s, nil
}

func mainPanel(fs *geo.FeatureSet, w geo.Window, t ResolvedTheme, style StyleConfig) Panel {
	p := Panel{
		Role:     PanelMain,
		Window:   w,
		Features: fs.Features,
	}
	p.Decorations = append(p.Decorations,
		Decoration{Kind: DecorationBasemap, Fill: t.Background},
	)
	p.Decorations = append(p.Decorations, featureLayers(fs, t, 2.0, 0.8)...)
	p.Decorations = append(p.Decorations,
		Decoration{Kind: DecorationFrame, Stroke: t.Primary, Width: t.BorderWeight},
	)
	if style.ShowScaleBar {
		p.Decorations = append(p.Decorations,
			Decoration{Kind: DecorationScaleBar, Stroke: t.TextPrimary})
	}
	if style.ShowNorthArrow {
		p.Decorations = append(p.Decorations,
			Decoration{Kind: DecorationNorthArrow, Fill: t.TextPrimary})
	}
	return p
}

func contextPanel(fs *geo.FeatureSet, role PanelRole, label string, w, highlight geo.Window, t ResolvedTheme) Panel {
	p := Panel{
		Role:     role,
		Label:    label,
		Window:   w,
		Features: fs.Features,
	}
	p.Decorations = append(p.Decorations,
		Decoration{Kind: DecorationBasemap, Fill: t.Background},
	)
	p.Decorations = append(p.Decorations, featureLayers(fs, t, 1.0, 0.6)...)
	p.Decorations = append(p.Decorations,
		Decoration{Kind: DecorationHighlight, Stroke: t.Accent, Width: 1.5, Window: highlight},
		Decoration{Kind: DecorationFrame, Stroke: t.Border, Width: t.BorderWeight},
	)
	return p
}

// featureLayers emits fill, stroke and marker decorations for the geometry
// kinds actually present, in the fixed draw order.
func featureLayers(fs *geo.FeatureSet, t ResolvedTheme, width, alpha float64) []Decoration {
	var hasPolygon, hasLine, hasPoint bool
	for _, f := range fs.Features {
		switch f.Kind() {
		case geo.KindPolygon:
			hasPolygon = true
		case geo.KindLine:
			hasLine = true
		case geo.KindPoint:
			hasPoint = true
		case geo.KindMixed:
			hasPolygon, hasLine, hasPoint = true, true, true
		}
	}

	var out []Decoration
	if hasPolygon {
		out = append(out,
			Decoration{Kind: DecorationFill, Fill: t.Primary, Alpha: alpha},
			Decoration{Kind: DecorationStroke, Stroke: t.Secondary, Width: width},
		)
	}
	if hasLine {
		out = append(out,
			Decoration{Kind: DecorationStroke, Stroke: t.Primary, Width: width})
	}
	if hasPoint {
		out = append(out,
			Decoration{Kind: DecorationMarker, Fill: t.Primary, Stroke: t.Secondary})
	}
	return out
}

var legendLabels = map[geo.GeometryKind]string{
	geo.KindPolygon: "Area of interest",
	geo.KindLine:    "Route",
	geo.KindPoint:   "Point of interest",
}

// legendEntries computes one row per distinct geometry-kind and symbology
// combination, in first-appearance order.
func legendEntries(fs *geo.FeatureSet, t ResolvedTheme) []LegendEntry {
	seen := map[string]bool{}
	var out []LegendEntry
	for _, f := range fs.Features {
		kinds := []geo.GeometryKind{f.Kind()}
		if f.Kind() == geo.KindMixed {
			kinds = []geo.GeometryKind{geo.KindPolygon, geo.KindLine, geo.KindPoint}
		}
		for _, k := range kinds {
			entry := LegendEntry{
				Label:  legendLabels[k],
				Kind:   k,
				Fill:   t.Primary,
				Stroke: t.Secondary,
			}
			key := string(entry.Kind) + "|" + entry.Fill + "|" + entry.Stroke
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, entry)
		}
	}
	return out
}

// infoFields builds the info panel block. Field order is part of the
// contract: count, geometry class, coordinate system, then the free-text
// annotation when present.
func infoFields(fs *geo.FeatureSet, style StyleConfig) []InfoField {
	fields := []InfoField{
		{Label: "Features", Value: fmt.Sprintf("%d", fs.Count())},
		{Label: "Geometry", Value: string(fs.Kind())},
		{Label: "Coordinate system", Value: "EPSG:4326 (WGS 84)"},
	}
	if style.Annotation != "" {
		fields = append(fields, InfoField{Label: "Notes", Value: style.Annotation})
	}
	return fields
}
