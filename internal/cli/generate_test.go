package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/elfabitto/gis-saas-project/pkg/render"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		format render.Format
		multi  bool
		want   string
	}{
		{
			name:   "derived from input",
			input:  "site.geojson",
			format: render.FormatStaticRaster,
			want:   "site.png",
		},
		{
			name:   "explicit output with matching extension",
			output: "plan.pdf",
			input:  "site.geojson",
			format: render.FormatDocument,
			want:   "plan.pdf",
		},
		{
			name:   "explicit output with wrong extension is corrected",
			output: "plan.pdf",
			input:  "site.geojson",
			format: render.FormatInteractive,
			want:   "plan.html",
		},
		{
			name:   "multiple formats append per-format extension",
			output: "plan",
			input:  "site.geojson",
			format: render.FormatInteractive,
			multi:  true,
			want:   "plan.html",
		},
		{
			name:   "multi strips base extension",
			output: "plan.png",
			input:  "site.geojson",
			format: render.FormatDocument,
			multi:  true,
			want:   "plan.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPath(tt.output, tt.input, tt.format, tt.multi)
			if got != tt.want {
				t.Errorf("outputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadTuning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.toml")
	content := `
[frame]
margin_ratio = 0.2
context_scale = 6.0
region_scale = 24.0

[style]
theme = "modern"
primary_color = "#112233"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tun, err := loadTuning(path)
	if err != nil {
		t.Fatalf("loadTuning() error: %v", err)
	}

	cfg := tun.frameConfig()
	if cfg.MarginRatio != 0.2 {
		t.Errorf("MarginRatio = %v, want 0.2", cfg.MarginRatio)
	}
	if cfg.ContextScale != 6.0 || cfg.RegionScale != 24.0 {
		t.Errorf("scales = %v/%v, want 6/24", cfg.ContextScale, cfg.RegionScale)
	}
	// Unset knobs stay zero so pipeline defaults apply.
	if cfg.MinDiagonalKm != 0 {
		t.Errorf("MinDiagonalKm = %v, want 0", cfg.MinDiagonalKm)
	}
	if tun.Style.Theme != "modern" {
		t.Errorf("Theme = %q, want modern", tun.Style.Theme)
	}
	if tun.Style.PrimaryColor != "#112233" {
		t.Errorf("PrimaryColor = %q, want #112233", tun.Style.PrimaryColor)
	}
}

func TestLoadTuningRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.toml")
	if err := os.WriteFile(path, []byte("[frame]\nmagrin_ratio = 0.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadTuning(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
