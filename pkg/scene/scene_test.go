package scene

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/frame"
	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

func testFrames(t *testing.T, fs *geo.FeatureSet) frame.Set {
	t.Helper()
	set, err := frame.Compute(fs, frame.Config{})
	if err != nil {
		t.Fatalf("frame.Compute: %v", err)
	}
	return set
}

func polygonSet() *geo.FeatureSet {
	return &geo.FeatureSet{Features: []geo.Feature{
		{Geometry: orb.Polygon{{
			{-47.10, -22.90}, {-47.00, -22.90}, {-47.00, -22.80},
			{-47.10, -22.80}, {-47.10, -22.90},
		}}},
	}}
}

func TestComposeEmpty(t *testing.T) {
	_, err := Compose(&geo.FeatureSet{}, frame.Set{}, StyleConfig{})
	if !errors.Is(err, errors.ErrCodeEmptyScene) {
		t.Fatalf("err = %v, want EMPTY_SCENE", err)
	}
}

func TestComposeUnknownTheme(t *testing.T) {
	fs := polygonSet()
	_, err := Compose(fs, testFrames(t, fs), StyleConfig{Theme: "brutalist"})
	if !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Fatalf("err = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestComposePanels(t *testing.T) {
	fs := polygonSet()
	s, err := Compose(fs, testFrames(t, fs), StyleConfig{
		Title: "Site Plan", ShowScaleBar: true, ShowNorthArrow: true,
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(s.Panels) != 3 {
		t.Fatalf("panels = %d, want 3", len(s.Panels))
	}
	if s.Panels[0].Role != PanelMain || s.Panels[1].Role != PanelContext || s.Panels[2].Role != PanelRegion {
		t.Errorf("panel roles out of order: %v %v %v",
			s.Panels[0].Role, s.Panels[1].Role, s.Panels[2].Role)
	}
	if !s.Panels[1].Window.Contains(s.Panels[0].Window) {
		t.Error("context panel must cover the main window")
	}
}

func TestComposeDrawOrder(t *testing.T) {
	fs := polygonSet()
	s, err := Compose(fs, testFrames(t, fs), StyleConfig{ShowScaleBar: true, ShowNorthArrow: true})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	pos := map[DecorationKind]int{}
	for i, d := range s.Panels[0].Decorations {
		pos[d.Kind] = i
	}
	for _, want := range []struct{ before, after DecorationKind }{
		{DecorationBasemap, DecorationFill},
		{DecorationFill, DecorationStroke},
		{DecorationStroke, DecorationFrame},
		{DecorationFrame, DecorationScaleBar},
		{DecorationScaleBar, DecorationNorthArrow},
	} {
		bi, bok := pos[want.before]
		ai, aok := pos[want.after]
		if !bok || !aok {
			t.Fatalf("missing decoration %v or %v", want.before, want.after)
		}
		if bi >= ai {
			t.Errorf("%v must draw before %v", want.before, want.after)
		}
	}
}

func TestComposeChromeOnlyOnMain(t *testing.T) {
	fs := polygonSet()
	s, err := Compose(fs, testFrames(t, fs), StyleConfig{ShowScaleBar: true, ShowNorthArrow: true})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for _, p := range s.Panels[1:] {
		for _, d := range p.Decorations {
			if d.Kind == DecorationScaleBar || d.Kind == DecorationNorthArrow {
				t.Errorf("%s panel must not carry %v", p.Role, d.Kind)
			}
		}
	}
}

// Each context panel highlights the window one level below it: the
// municipal panel frames the main window, the regional panel frames the
// municipal window.
func TestComposeContextHighlight(t *testing.T) {
	fs := polygonSet()
	s, err := Compose(fs, testFrames(t, fs), StyleConfig{})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for i, p := range s.Panels[1:] {
		inner := s.Panels[i].Window
		found := false
		for _, d := range p.Decorations {
			if d.Kind == DecorationHighlight {
				found = true
				if d.Window != inner {
					t.Errorf("%s highlight = %+v, want %s window %+v",
						p.Role, d.Window, s.Panels[i].Role, inner)
				}
				if p.Role == PanelRegion && d.Window == s.Panels[0].Window {
					t.Errorf("regional highlight must frame the municipal window, not the main window")
				}
			}
		}
		if !found {
			t.Errorf("%s panel is missing its highlight", p.Role)
		}
	}
}

func TestComposeLegendDedup(t *testing.T) {
	fs := &geo.FeatureSet{Features: []geo.Feature{
		{Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}},
		{Geometry: orb.Polygon{{{2, 2}, {3, 2}, {3, 3}, {2, 2}}}},
		{Geometry: orb.Point{0.5, 0.5}},
	}}
	s, err := Compose(fs, testFrames(t, fs), StyleConfig{ShowLegend: true})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(s.Legend) != 2 {
		t.Fatalf("legend rows = %d, want 2 (polygon + point, no duplicates)", len(s.Legend))
	}
	if s.Legend[0].Kind != geo.KindPolygon || s.Legend[1].Kind != geo.KindPoint {
		t.Errorf("legend order = %v, %v; want first-appearance order", s.Legend[0].Kind, s.Legend[1].Kind)
	}
}

func TestComposeLegendToggle(t *testing.T) {
	fs := polygonSet()
	s, err := Compose(fs, testFrames(t, fs), StyleConfig{})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(s.Legend) != 0 {
		t.Error("legend must be empty when the toggle is off")
	}
}

func TestComposeInfoFieldOrder(t *testing.T) {
	fs := polygonSet()
	s, err := Compose(fs, testFrames(t, fs), StyleConfig{Annotation: "survey of 2025"})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	want := []string{"Features", "Geometry", "Coordinate system", "Notes"}
	if len(s.Info) != len(want) {
		t.Fatalf("info fields = %d, want %d", len(s.Info), len(want))
	}
	for i, label := range want {
		if s.Info[i].Label != label {
			t.Errorf("info[%d] = %q, want %q", i, s.Info[i].Label, label)
		}
	}
	if s.Info[0].Value != "1" || s.Info[1].Value != "polygon" {
		t.Errorf("info values = %+v", s.Info)
	}
}

func TestComposeIsPure(t *testing.T) {
	fs := polygonSet()
	frames := testFrames(t, fs)
	style := StyleConfig{Title: "A", ShowLegend: true}

	before := len(fs.Features)
	if _, err := Compose(fs, frames, style); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(fs.Features) != before {
		t.Error("composition must not mutate the feature set")
	}
}

func TestResolveThemeOverrides(t *testing.T) {
	got, err := ResolveTheme(StyleConfig{Theme: ThemeModern, PrimaryColor: "#112233"})
	if err != nil {
		t.Fatalf("ResolveTheme: %v", err)
	}
	if got.Primary != "#112233" {
		t.Errorf("Primary = %q, want the override", got.Primary)
	}
	if got.Secondary != themes[ThemeModern].Secondary {
		t.Errorf("Secondary = %q, want the theme default", got.Secondary)
	}
	if got.Basemap != "carto-positron" {
		t.Errorf("Basemap = %q", got.Basemap)
	}
}

func TestResolveThemeBadColor(t *testing.T) {
	for _, c := range []string{"red", "#12345", "#GGGGGG", "112233"} {
		if _, err := ResolveTheme(StyleConfig{PrimaryColor: c}); err == nil {
			t.Errorf("color %q should be rejected", c)
		}
	}
}

func TestResolveThemeDefault(t *testing.T) {
	got, err := ResolveTheme(StyleConfig{})
	if err != nil {
		t.Fatalf("ResolveTheme: %v", err)
	}
	if got.Name != ThemeClassic {
		t.Errorf("default theme = %q, want classic", got.Name)
	}
}
