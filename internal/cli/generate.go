package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	pkgerrors "github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/export"
	"github.com/elfabitto/gis-saas-project/pkg/frame"
	"github.com/elfabitto/gis-saas-project/pkg/render"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output      string // output file (single format) or base path (multiple)
	project     string // project identifier for cache scoping
	theme       string // visual theme name
	title       string // composition title
	subtitle    string // composition subtitle
	primary     string // primary color override, "#rrggbb"
	secondary   string // secondary color override, "#rrggbb"
	logo        string // logo image path
	annotation  string // free-form info panel note
	noScaleBar  bool
	noArrow     bool
	noLegend    bool
	dpi         int    // raster resolution override
	author      string // document metadata author
	refresh     bool   // bypass cache reads
	noCache     bool   // disable caching entirely
	thumbnail   string // thumbnail output path (empty skips derivation)
	tuningFile  string // TOML tuning file for framing knobs
	cacheDirStr string // file cache directory override
	redisAddr   string // Redis cache address
}

// tuning mirrors the optional TOML tuning file. All fields default to the
// pipeline's built-in values when absent.
type tuning struct {
	Frame struct {
		MarginRatio     float64 `toml:"margin_ratio"`
		MinDiagonalKm   float64 `toml:"min_diagonal_km"`
		ContextMarginKm float64 `toml:"context_margin_km"`
		RegionMarginKm  float64 `toml:"region_margin_km"`
		ContextScale    float64 `toml:"context_scale"`
		RegionScale     float64 `toml:"region_scale"`
	} `toml:"frame"`
	Style struct {
		Theme          string `toml:"theme"`
		PrimaryColor   string `toml:"primary_color"`
		SecondaryColor string `toml:"secondary_color"`
	} `toml:"style"`
}

// loadTuning reads a TOML tuning file. Unknown keys are rejected so typos
// surface instead of silently falling back to defaults.
func loadTuning(path string) (*tuning, error) {
	var t tuning
	meta, err := toml.DecodeFile(path, &t)
	if err != nil {
		return nil, fmt.Errorf("load tuning file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("tuning file %s: unknown key %q", path, undecoded[0].String())
	}
	return &t, nil
}

// frameConfig converts the tuning file's frame section into a frame.Config.
func (t *tuning) frameConfig() frame.Config {
	return frame.Config{
		MarginRatio:     t.Frame.MarginRatio,
		MinDiagonalKm:   t.Frame.MinDiagonalKm,
		ContextMarginKm: t.Frame.ContextMarginKm,
		RegionMarginKm:  t.Frame.RegionMarginKm,
		ContextScale:    t.Frame.ContextScale,
		RegionScale:     t.Frame.RegionScale,
	}
}

// generateCommand creates the generate command, the CLI's main entry into
// the pipeline.
func (c *CLI) generateCommand() *cobra.Command {
	var formatsStr string
	opts := generateOpts{project: "default"}

	cmd := &cobra.Command{
		Use:   "generate <file...>",
		Short: "Generate map compositions from GIS files",
		Long: `Generate map compositions from one or more GIS files.

Input formats are detected from file extensions: .geojson/.json, .kml, .kmz,
.zip (shapefile archive), .gpx. All files are merged into a single feature
set before framing and rendering.

Examples:
  gismap generate site.geojson
  gismap generate site.geojson tracks.gpx -f interactive,document -o site
  gismap generate parcel.kml --theme modern --title "Site Plan"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseRenderFormats(formatsStr)
			return c.runGenerate(cmd.Context(), args, formats, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): static-raster (default), interactive, document (comma-separated)")
	cmd.Flags().StringVar(&opts.project, "project", opts.project, "project identifier for cache scoping")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "visual theme: classic (default), modern, vivid")
	cmd.Flags().StringVar(&opts.title, "title", "", "composition title")
	cmd.Flags().StringVar(&opts.subtitle, "subtitle", "", "composition subtitle")
	cmd.Flags().StringVar(&opts.primary, "primary-color", "", "primary color override (#rrggbb)")
	cmd.Flags().StringVar(&opts.secondary, "secondary-color", "", "secondary color override (#rrggbb)")
	cmd.Flags().StringVar(&opts.logo, "logo", "", "logo image file (PNG or JPEG)")
	cmd.Flags().StringVar(&opts.annotation, "annotation", "", "free-form note shown in the info panel")
	cmd.Flags().BoolVar(&opts.noScaleBar, "no-scale-bar", false, "omit the scale bar")
	cmd.Flags().BoolVar(&opts.noArrow, "no-north-arrow", false, "omit the north arrow")
	cmd.Flags().BoolVar(&opts.noLegend, "no-legend", false, "omit the legend")
	cmd.Flags().IntVar(&opts.dpi, "dpi", 0, "raster resolution (default 300 for PNG, 150 for PDF)")
	cmd.Flags().StringVar(&opts.author, "author", "", "author recorded in document metadata")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cache reads")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")
	cmd.Flags().StringVar(&opts.thumbnail, "thumbnail", "", "also write a 300x200 thumbnail to this path")
	cmd.Flags().StringVar(&opts.tuningFile, "tuning", "", "TOML file with framing tuning knobs")
	cmd.Flags().StringVar(&opts.cacheDirStr, "cache-dir", "", "file cache directory (default ~/.cache/gismap)")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "Redis cache address (host:port)")

	return cmd
}

// runGenerate executes the full pipeline and writes one artifact per format.
func (c *CLI) runGenerate(ctx context.Context, paths []string, formats []render.Format, opts *generateOpts) error {
	logger := loggerFromContext(ctx)

	files, err := loadFiles(paths)
	if err != nil {
		return err
	}

	style := scene.StyleConfig{
		Theme:          scene.Theme(opts.theme),
		Title:          opts.title,
		Subtitle:       opts.subtitle,
		PrimaryColor:   opts.primary,
		SecondaryColor: opts.secondary,
		ShowScaleBar:   !opts.noScaleBar,
		ShowNorthArrow: !opts.noArrow,
		ShowLegend:     !opts.noLegend,
		Annotation:     opts.annotation,
	}
	if opts.logo != "" {
		logo, err := os.ReadFile(opts.logo)
		if err != nil {
			return fmt.Errorf("read logo %s: %w", opts.logo, err)
		}
		style.Logo = logo
	}

	var frameCfg frame.Config
	if opts.tuningFile != "" {
		t, err := loadTuning(opts.tuningFile)
		if err != nil {
			return err
		}
		frameCfg = t.frameConfig()
		if style.Theme == "" && t.Style.Theme != "" {
			style.Theme = scene.Theme(t.Style.Theme)
		}
		if style.PrimaryColor == "" {
			style.PrimaryColor = t.Style.PrimaryColor
		}
		if style.SecondaryColor == "" {
			style.SecondaryColor = t.Style.SecondaryColor
		}
	}

	runner, err := c.newRunner(ctx, cacheOpts{
		noCache:   opts.noCache,
		cacheDir:  opts.cacheDirStr,
		redisAddr: opts.redisAddr,
	})
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating %d artifact(s)...", len(formats)))
	spinner.Start()

	prog := newProgress(logger)
	exec, err := runner.Execute(ctx, export.Options{
		Project:     opts.project,
		Files:       files,
		Style:       style,
		Formats:     formats,
		DPI:         opts.dpi,
		Author:      opts.author,
		Frame:       frameCfg,
		Refresh:     opts.refresh,
		NoThumbnail: opts.thumbnail == "",
		Logger:      logger,
	})
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Generation failed: %s", pkgerrors.UserMessage(err)))
		return err
	}
	if spinner.Cancelled() {
		return ctx.Err()
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Pipeline finished for %d format(s)", len(formats)))

	featureCount := 0
	if exec.Scene != nil && len(exec.Scene.Panels) > 0 {
		featureCount = len(exec.Scene.Panels[0].Features)
	}
	printStats(len(files), featureCount, exec.CacheInfo.IngestHit)

	var failed int
	for _, res := range exec.Results {
		if res.Status == export.StatusFailed {
			failed++
			printError("%s: %s", res.Format, res.FailureReason)
			continue
		}
		path := outputPath(opts.output, paths[0], res.Format, len(formats) > 1)
		if err := os.WriteFile(path, res.Payload, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		cached := exec.CacheInfo.RenderHit[res.Format]
		printSuccess("%s (%s)", path, cacheLabel(cached))
		for _, w := range res.Warnings {
			printWarning("%s", w)
		}
		if opts.thumbnail != "" && len(res.Thumbnail) > 0 {
			if err := os.WriteFile(opts.thumbnail, res.Thumbnail, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", opts.thumbnail, err)
			}
			printFile(opts.thumbnail)
			opts.thumbnail = "" // one thumbnail per run
		}
	}

	if failed == len(exec.Results) {
		return fmt.Errorf("all %d format(s) failed", failed)
	}
	return nil
}

// outputPath derives the artifact path for one format.
// With multiple formats the base path gets the format's extension appended;
// a single format uses the output path as-is when it already carries the
// right extension.
func outputPath(output, input string, format render.Format, multi bool) string {
	ext := render.Extension(format)
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}
	if !multi && strings.EqualFold(filepath.Ext(base), ext) {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

// cacheLabel formats the cache status for display.
func cacheLabel(cached bool) string {
	if cached {
		return iconCached
	}
	return iconFresh
}
