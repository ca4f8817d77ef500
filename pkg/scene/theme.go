package scene

import (
	"regexp"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
)

// Theme names a visual preset. Themes fix the palette, typography scale,
// basemap source and border weights; the composer consumes only the
// resolved form so the three presets share one implementation.
type Theme string

const (
	ThemeClassic Theme = "classic"
	ThemeModern  Theme = "modern"
	ThemeVivid   Theme = "vivid"
)

// ValidThemes maps theme names to validity.
var ValidThemes = map[Theme]bool{
	ThemeClassic: true,
	ThemeModern:  true,
	ThemeVivid:   true,
}

// DefaultTheme is used when a StyleConfig leaves the theme empty.
const DefaultTheme = ThemeClassic

// ResolvedTheme is the concrete render parameter set a theme expands to.
// Renderers treat it as read-only.
type ResolvedTheme struct {
	Name Theme `json:"name"`

	// Palette slots, hex "#rrggbb".
	Primary       string `json:"primary"`
	Secondary     string `json:"secondary"`
	Accent        string `json:"accent"`
	Background    string `json:"background"`
	Surface       string `json:"surface"`
	TextPrimary   string `json:"text_primary"`
	TextSecondary string `json:"text_secondary"`
	Border        string `json:"border"`

	// Typography in points at the raster reference scale.
	TitleSize    float64 `json:"title_size"`
	SubtitleSize float64 `json:"subtitle_size"`
	HeadingSize  float64 `json:"heading_size"`
	BodySize     float64 `json:"body_size"`
	CaptionSize  float64 `json:"caption_size"`

	// BorderWeight is the panel frame thickness in points.
	BorderWeight float64 `json:"border_weight"`

	// Basemap identifies the tile source for the interactive backend.
	Basemap string `json:"basemap"`
}

var themes = map[Theme]ResolvedTheme{
	ThemeClassic: {
		Name:          ThemeClassic,
		Primary:       "#3388FF",
		Secondary:     "#2266CC",
		Accent:        "#DC2626",
		Background:    "#FFFFFF",
		Surface:       "#FFFFFF",
		TextPrimary:   "#1F2937",
		TextSecondary: "#6B7280",
		Border:        "#D1D5DB",
		TitleSize:     16, SubtitleSize: 12, HeadingSize: 12, BodySize: 10, CaptionSize: 8,
		BorderWeight: 1,
		Basemap:      "osm",
	},
	ThemeModern: {
		Name:          ThemeModern,
		Primary:       "#1E3A8A",
		Secondary:     "#059669",
		Accent:        "#DC2626",
		Background:    "#F8FAFC",
		Surface:       "#FFFFFF",
		TextPrimary:   "#1F2937",
		TextSecondary: "#6B7280",
		Border:        "#E5E7EB",
		TitleSize:     24, SubtitleSize: 14, HeadingSize: 14, BodySize: 11, CaptionSize: 9,
		BorderWeight: 1.5,
		Basemap:      "carto-positron",
	},
	ThemeVivid: {
		Name:          ThemeVivid,
		Primary:       "#026983",
		Secondary:     "#07302E",
		Accent:        "#FFD600",
		Background:    "#F0F8FF",
		Surface:       "#FFFFFF",
		TextPrimary:   "#1A1A1A",
		TextSecondary: "#2E2E2E",
		Border:        "#E5E7EB",
		TitleSize:     26, SubtitleSize: 15, HeadingSize: 14, BodySize: 11, CaptionSize: 9,
		BorderWeight: 2,
		Basemap:      "osm",
	},
}

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ResolveTheme expands a style into concrete render parameters. The style's
// primary and secondary colors, when set, override the theme palette.
func ResolveTheme(style StyleConfig) (ResolvedTheme, error) {
	name := style.Theme
	if name == "" {
		name = DefaultTheme
	}
	t, ok := themes[name]
	if !ok {
		return ResolvedTheme{}, errors.New(errors.ErrCodeConfiguration,
			"unknown theme %q (must be one of: classic, modern, vivid)", name).
			At(errors.StageCompose)
	}

	for _, c := range []string{style.PrimaryColor, style.SecondaryColor} {
		if c != "" && !hexColorRe.MatchString(c) {
			return ResolvedTheme{}, errors.New(errors.ErrCodeConfiguration,
				"invalid hex color %q", c).At(errors.StageCompose)
		}
	}
	if style.PrimaryColor != "" {
		t.Primary = style.PrimaryColor
	}
	if style.SecondaryColor != "" {
		t.Secondary = style.SecondaryColor
	}
	return t, nil
}

// Themes lists the available theme names in a stable order.
func Themes() []Theme {
	return []Theme{ThemeClassic, ThemeModern, ThemeVivid}
}
