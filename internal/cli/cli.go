// Package cli implements the gismap command-line interface.
//
// This package provides commands for generating cartographic compositions
// from GIS files, inspecting uploads, listing themes, managing the artifact
// cache, and serving the HTTP API. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - generate: Run the full pipeline and write rendered artifacts
//   - inspect: Report metadata for a single GIS file
//   - themes: List the available visual themes
//   - cache: Manage the artifact cache
//   - serve: Start the HTTP API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/elfabitto/gis-saas-project/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/elfabitto/gis-saas-project/pkg/buildinfo"
	"github.com/elfabitto/gis-saas-project/pkg/cache"
	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/export"
	"github.com/elfabitto/gis-saas-project/pkg/ingest"
	"github.com/elfabitto/gis-saas-project/pkg/render"
)

// appName is the application name used for directories and display.
const appName = "gismap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "gismap",
		Short:        "Gismap turns GIS files into finished map compositions",
		Long:         `Gismap ingests GIS files (GeoJSON, KML, KMZ, shapefile archives, GPS tracks), frames them into nested map windows, and renders interactive HTML, print-resolution PNG, and PDF compositions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.themesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheOpts selects the cache backend used by a runner.
type cacheOpts struct {
	noCache   bool   // disable caching entirely
	cacheDir  string // file cache directory override
	redisAddr string // Redis address, takes precedence over the file cache
}

// newRunner creates an export runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, opts cacheOpts) (*export.Runner, error) {
	store, err := newCache(ctx, opts)
	if err != nil {
		return nil, err
	}
	return export.NewRunner(store, nil, c.Logger), nil
}

func newCache(ctx context.Context, opts cacheOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisAddr != "" {
		return cache.NewRedisCache(ctx, opts.redisAddr, os.Getenv("GISMAP_REDIS_PASSWORD"), 0)
	}
	dir := opts.cacheDir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gismap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// loadFiles reads the given paths into ingest files, detecting each format
// from its extension.
func loadFiles(paths []string) ([]ingest.File, error) {
	files := make([]ingest.File, 0, len(paths))
	for _, path := range paths {
		format, ok := ingest.FormatForName(path)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnsupportedFormat,
				"cannot infer format for %q (expected .geojson, .json, .kml, .kmz, .zip or .gpx)", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, ingest.File{
			Name:   filepath.Base(path),
			Format: format,
			Data:   data,
		})
	}
	return files, nil
}

// parseRenderFormats parses a comma-separated format string into a slice.
// Empty input selects the static-raster default.
func parseRenderFormats(s string) []render.Format {
	if s == "" {
		return []render.Format{render.FormatStaticRaster}
	}
	parts := strings.Split(s, ",")
	formats := make([]render.Format, 0, len(parts))
	for _, p := range parts {
		formats = append(formats, render.Format(strings.TrimSpace(p)))
	}
	return formats
}
