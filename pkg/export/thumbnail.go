package export

import (
	"bytes"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/elfabitto/gis-saas-project/pkg/render/raster"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// Thumbnail dimensions match the listing views of the upstream clients.
const (
	thumbnailWidth  = 300
	thumbnailHeight = 200
	thumbnailDPI    = 36
)

// thumbnail renders a small raster rendition of the scene, fitted onto a
// white matte so every thumbnail has the same dimensions.
func (r *Runner) thumbnail(s *scene.Scene, opts Options) ([]byte, error) {
	full, err := raster.Render(s, raster.Options{
		DPI:       thumbnailDPI,
		Timestamp: opts.Timestamp,
	})
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(full))
	if err != nil {
		return nil, err
	}

	matte := imaging.New(thumbnailWidth, thumbnailHeight, color.White)
	fitted := imaging.Fit(img, thumbnailWidth, thumbnailHeight, imaging.Lanczos)
	out := imaging.PasteCenter(matte, fitted)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
