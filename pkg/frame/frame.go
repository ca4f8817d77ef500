// Package frame computes the three nested map windows a composition is
// built around: a tight main window around the features, a context window
// for orientation, and a coarser region window.
package frame

import (
	"math"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/geo"
)

// Defaults for Config fields left zero.
const (
	DefaultMarginRatio     = 0.12
	DefaultMinDiagonalKm   = 1.0
	DefaultContextMarginKm = 10.0
	DefaultRegionMarginKm  = 50.0
	DefaultContextScale    = 4.0
	DefaultRegionScale     = 16.0
)

// Config carries the framing tuning knobs. The zero value is usable after
// ValidateAndSetDefaults.
type Config struct {
	// MarginRatio pads the main window by this fraction of its diagonal.
	MarginRatio float64
	// MinDiagonalKm is the floor applied to the main window's diagonal so
	// single-point inputs never produce a zero-size window.
	MinDiagonalKm float64
	// ContextMarginKm and RegionMarginKm pad the two outer windows by a
	// ground distance.
	ContextMarginKm float64
	RegionMarginKm  float64
	// ContextScale and RegionScale size the outer windows as multiples of
	// the main window, centered on its centroid.
	ContextScale float64
	RegionScale  float64

	validated bool
}

// ValidateAndSetDefaults checks bounds and applies defaults. Idempotent.
func (c *Config) ValidateAndSetDefaults() error {
	if c.validated {
		return nil
	}
	if c.MarginRatio == 0 {
		c.MarginRatio = DefaultMarginRatio
	}
	if c.MinDiagonalKm == 0 {
		c.MinDiagonalKm = DefaultMinDiagonalKm
	}
	if c.ContextMarginKm == 0 {
		c.ContextMarginKm = DefaultContextMarginKm
	}
	if c.RegionMarginKm == 0 {
		c.RegionMarginKm = DefaultRegionMarginKm
	}
	if c.ContextScale == 0 {
		c.ContextScale = DefaultContextScale
	}
	if c.RegionScale == 0 {
		c.RegionScale = DefaultRegionScale
	}

	if c.MarginRatio < 0 || c.MarginRatio >= 1 {
		return errors.New(errors.ErrCodeConfiguration,
			"margin ratio %v out of range [0, 1)", c.MarginRatio)
	}
	if c.MinDiagonalKm <= 0 || c.ContextMarginKm < 0 || c.RegionMarginKm < 0 {
		return errors.New(errors.ErrCodeConfiguration, "distances must be positive")
	}
	if c.ContextScale <= 1 || c.RegionScale <= c.ContextScale {
		return errors.New(errors.ErrCodeConfiguration,
			"scales must satisfy 1 < context (%v) < region (%v)", c.ContextScale, c.RegionScale)
	}
	c.validated = true
	return nil
}

// Set holds the three windows of one composition. Region contains Context
// contains Main.
type Set struct {
	Main    geo.Window `json:"main"`
	Context geo.Window `json:"context"`
	Region  geo.Window `json:"region"`
}

// Compute derives the window set for a feature set.
func Compute(fs *geo.FeatureSet, cfg Config) (Set, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return Set{}, err
	}
	if fs == nil || fs.Count() == 0 {
		return Set{}, errors.New(errors.ErrCodeEmptyGeometry,
			"no features to frame").At(errors.StageFrame)
	}

	main := fs.Bound()
	if !main.IsValid() {
		return Set{}, errors.New(errors.ErrCodeConfiguration,
			"feature bounds are not a valid window").At(errors.StageFrame)
	}
	if main.Width() > 180 {
		// Even in the shifted longitude domain the input covers more than
		// half the globe; a paneled composition has no sensible extent.
		return Set{}, errors.New(errors.ErrCodeConfiguration,
			"features span %.1f degrees of longitude, too wide to frame",
			main.Width()).At(errors.StageFrame)
	}

	if d := main.DiagonalM(); d < cfg.MinDiagonalKm*1000 {
		main = main.ExpandMeters((cfg.MinDiagonalKm*1000 - d) / 2)
	}
	main = main.ExpandMeters(main.DiagonalM() * cfg.MarginRatio / 2)

	context := scaleAbout(main, cfg.ContextScale).ExpandMeters(cfg.ContextMarginKm * 1000)
	region := scaleAbout(main, cfg.RegionScale).ExpandMeters(cfg.RegionMarginKm * 1000)

	// Containment is an invariant of the set; clamping at the poles can
	// break it, so repair by union.
	if !context.Contains(main) {
		context = context.Union(main)
	}
	if !region.Contains(context) {
		region = region.Union(context)
	}

	return Set{Main: main, Context: context, Region: region}, nil
}

// scaleAbout grows a window by a factor around its center, clamping
// latitude to the poles.
func scaleAbout(w geo.Window, factor float64) geo.Window {
	c := w.Center()
	halfW := w.Width() * factor / 2
	halfH := w.Height() * factor / 2
	return geo.Window{
		MinLon: c[0] - halfW,
		MaxLon: c[0] + halfW,
		MinLat: math.Max(c[1]-halfH, -90),
		MaxLat: math.Min(c[1]+halfH, 90),
	}
}
