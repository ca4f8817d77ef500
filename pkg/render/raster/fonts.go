package raster

import (
	"github.com/flopp/go-findfont"
	"github.com/fogleman/gg"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// Font candidates in preference order. The first one present on the host
// wins; none present is a render error.
var (
	regularFaces = []string{
		"DejaVuSans.ttf",
		"LiberationSans-Regular.ttf",
		"Arial.ttf",
		"FreeSans.ttf",
		"NotoSans-Regular.ttf",
	}
	boldFaces = []string{
		"DejaVuSans-Bold.ttf",
		"LiberationSans-Bold.ttf",
		"Arial Bold.ttf",
		"FreeSansBold.ttf",
		"NotoSans-Bold.ttf",
	}
)

// face is a resolved font file at a point size scaled for the output DPI.
type face struct {
	path   string
	points float64
}

func (f face) apply(dc *gg.Context, hexColor string) {
	// LoadFontFace caches parsed fonts inside gg; errors here would have
	// surfaced when the set was built.
	_ = dc.LoadFontFace(f.path, f.points)
	setHex(dc, hexColor, 1)
}

// fontSet holds the faces used across the page.
type fontSet struct {
	title    face
	subtitle face
	heading  face
	body     face
	caption  face
}

func loadFonts(dpi int, t scene.ResolvedTheme) (*fontSet, error) {
	regular, err := findFace(regularFaces)
	if err != nil {
		return nil, err
	}
	bold, err := findFace(boldFaces)
	if err != nil {
		// A system without a bold variant still renders; weight is
		// carried by size alone.
		bold = regular
	}

	// Theme sizes are specified at 96 DPI screen scale.
	scale := float64(dpi) / 96.0
	return &fontSet{
		title:    face{bold, t.TitleSize * scale},
		subtitle: face{regular, t.SubtitleSize * scale},
		heading:  face{bold, t.HeadingSize * scale},
		body:     face{regular, t.BodySize * scale},
		caption:  face{regular, t.CaptionSize * scale},
	}, nil
}

func findFace(candidates []string) (string, error) {
	for _, name := range candidates {
		if path, err := findfont.Find(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New(errors.ErrCodeRender,
		"no usable font found (tried %v)", candidates).At(errors.StageRender)
}
