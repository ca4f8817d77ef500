package render_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/frame"
	"github.com/elfabitto/gis-saas-project/pkg/geo"
	"github.com/elfabitto/gis-saas-project/pkg/render"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

func TestForClosedSet(t *testing.T) {
	for _, f := range render.Formats() {
		if _, err := render.For(f); err != nil {
			t.Errorf("For(%q) = %v", f, err)
		}
	}
	_, err := render.For("svg")
	if !errors.Is(err, errors.ErrCodeUnsupportedFormat) {
		t.Fatalf("err = %v, want UNSUPPORTED_FORMAT", err)
	}
}

func TestExtensions(t *testing.T) {
	tests := []struct {
		format render.Format
		ext    string
		mime   string
	}{
		{render.FormatInteractive, ".html", "text/html; charset=utf-8"},
		{render.FormatStaticRaster, ".png", "image/png"},
		{render.FormatDocument, ".pdf", "application/pdf"},
	}
	for _, tt := range tests {
		if got := render.Extension(tt.format); got != tt.ext {
			t.Errorf("Extension(%q) = %q, want %q", tt.format, got, tt.ext)
		}
		if got := render.ContentType(tt.format); got != tt.mime {
			t.Errorf("ContentType(%q) = %q, want %q", tt.format, got, tt.mime)
		}
	}
}

// TestBackendsRenderSameContent is the cross-format oracle: the title,
// legend labels and info values must appear in every extractable output of
// the same scene.
func TestBackendsRenderSameContent(t *testing.T) {
	fs := &geo.FeatureSet{Features: []geo.Feature{
		{Geometry: orb.Polygon{{
			{-47.10, -22.90}, {-47.00, -22.90}, {-47.00, -22.80},
			{-47.10, -22.80}, {-47.10, -22.90},
		}}},
	}}
	frames, err := frame.Compute(fs, frame.Config{})
	if err != nil {
		t.Fatalf("frame.Compute: %v", err)
	}
	s, err := scene.Compose(fs, frames, scene.StyleConfig{
		Title: "Fazenda Boa Vista", ShowLegend: true,
	})
	if err != nil {
		t.Fatalf("scene.Compose: %v", err)
	}

	opts := render.Options{
		DPI:       36,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	outputs := map[render.Format][]byte{}
	for _, f := range render.Formats() {
		r, err := render.For(f)
		if err != nil {
			t.Fatalf("For(%q): %v", f, err)
		}
		out, err := r.Render(s, opts)
		if err != nil {
			if strings.Contains(err.Error(), "no usable font") {
				t.Skipf("no fonts on this host: %v", err)
			}
			t.Fatalf("Render(%q): %v", f, err)
		}
		if len(out) == 0 {
			t.Fatalf("Render(%q) produced no bytes", f)
		}
		outputs[f] = out
	}

	// Title is embedded as text in the HTML body, the PNG metadata and the
	// PDF info dictionary.
	for f, out := range outputs {
		if !bytes.Contains(out, []byte("Fazenda Boa Vista")) {
			t.Errorf("%s output does not carry the title", f)
		}
	}
	if !bytes.Contains(outputs[render.FormatInteractive], []byte("Area of interest")) {
		t.Error("interactive output does not carry the legend entry")
	}
}
