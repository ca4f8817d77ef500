package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/elfabitto/gis-saas-project/pkg/cache"
	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/frame"
	"github.com/elfabitto/gis-saas-project/pkg/geo"
	"github.com/elfabitto/gis-saas-project/pkg/ingest"
	"github.com/elfabitto/gis-saas-project/pkg/observability"
	"github.com/elfabitto/gis-saas-project/pkg/render"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// Runner executes generation requests with caching. It is stateless except
// for the cache and logger; multiple goroutines can share one Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// ingestGroup collapses concurrent first ingestions of the same
	// content: a race between two first-requests runs one parse, and the
	// cache is populated at most once per content hash.
	ingestGroup singleflight.Group
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// CacheInfo tracks which stages hit the cache.
type CacheInfo struct {
	IngestHit bool
	RenderHit map[render.Format]bool
}

// Execution is the full outcome of a request: one result per requested
// format plus shared pipeline metadata.
type Execution struct {
	Results   []*Result
	Scene     *scene.Scene
	Frames    frame.Set
	CacheInfo CacheInfo
}

// Execute runs the complete ingest → frame → compose → render pipeline.
//
// Stage failures before rendering fail every result and return the stage
// error. Render failures are isolated per format: one failed backend never
// affects the other requested formats, so the returned error is nil as
// long as the shared stages succeeded.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Execution, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	exec := &Execution{
		CacheInfo: CacheInfo{RenderHit: map[render.Format]bool{}},
	}
	for _, format := range opts.Formats {
		exec.Results = append(exec.Results, newResult(opts.Project, format))
	}
	for _, res := range exec.Results {
		_ = res.start()
	}
	failAll := func(err error) (*Execution, error) {
		for _, res := range exec.Results {
			_ = res.fail(err)
		}
		return exec, err
	}

	// Stage 1: Ingest
	ingestStart := time.Now()
	observability.Pipeline().OnIngestStart(ctx, len(opts.Files))
	fs, contentHash, ingestHit, err := r.IngestWithCacheInfo(ctx, opts)
	if err != nil {
		observability.Pipeline().OnIngestComplete(ctx, len(opts.Files), 0, time.Since(ingestStart), err)
		return failAll(err)
	}
	observability.Pipeline().OnIngestComplete(ctx, len(opts.Files), fs.Count(), time.Since(ingestStart), nil)
	exec.CacheInfo.IngestHit = ingestHit
	for _, res := range exec.Results {
		res.Warnings = fs.Warnings
	}
	opts.Logger.Info("ingested features",
		"files", len(opts.Files),
		"features", fs.Count(),
		"kind", fs.Kind(),
		"cache_hit", ingestHit,
		"duration", time.Since(ingestStart))

	// Stage 2: Frame
	frames, err := frame.Compute(fs, opts.Frame)
	if err != nil {
		return failAll(err)
	}
	exec.Frames = frames

	// Stage 3: Compose
	composeStart := time.Now()
	observability.Pipeline().OnComposeStart(ctx, fs.Count())
	s, err := scene.Compose(fs, frames, opts.Style)
	if err != nil {
		observability.Pipeline().OnComposeComplete(ctx, string(opts.Style.Theme), time.Since(composeStart), err)
		return failAll(err)
	}
	observability.Pipeline().OnComposeComplete(ctx, string(s.Theme.Name), time.Since(composeStart), nil)
	exec.Scene = s
	opts.Logger.Info("composed scene",
		"panels", len(s.Panels),
		"legend_rows", len(s.Legend),
		"theme", s.Theme.Name)

	sceneHash := cache.Hash([]byte(r.Keyer.SceneKey(contentHash, sceneKeyOpts(opts.Style))))

	// Stage 4: Render, one result per format.
	formatNames := make([]string, len(opts.Formats))
	for i, f := range opts.Formats {
		formatNames[i] = string(f)
	}
	allStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, formatNames)

	var thumbnail []byte
	var firstRenderErr error
	for _, res := range exec.Results {
		renderStart := time.Now()
		payload, hit, err := r.RenderWithCacheInfo(ctx, s, sceneHash, res.Format, opts)
		if err != nil {
			opts.Logger.Error("render failed",
				"format", res.Format, "err", err)
			if firstRenderErr == nil {
				firstRenderErr = err
			}
			_ = res.fail(err)
			continue
		}
		exec.CacheInfo.RenderHit[res.Format] = hit

		if !opts.NoThumbnail {
			if thumbnail == nil {
				thumbnail, err = r.thumbnail(s, opts)
				if err != nil {
					// Best effort: a failed thumbnail never downgrades
					// the result.
					opts.Logger.Warn("thumbnail derivation failed", "err", err)
				}
			}
			res.Thumbnail = thumbnail
		}

		_ = res.complete(payload)
		opts.Logger.Info("rendered output",
			"format", res.Format,
			"bytes", len(payload),
			"cache_hit", hit,
			"duration", time.Since(renderStart))
	}
	observability.Pipeline().OnRenderComplete(ctx, formatNames, time.Since(allStart), firstRenderErr)
	return exec, nil
}

// IngestWithCacheInfo normalizes the request files with caching and
// returns the content hash used for downstream keys. Concurrent calls for
// identical content collapse to one parse.
func (r *Runner) IngestWithCacheInfo(ctx context.Context, opts Options) (*geo.FeatureSet, string, bool, error) {
	contentHash := contentHash(opts.Project, opts.Files)
	cacheKey := r.Keyer.FeatureSetKey(contentHash)

	type outcome struct {
		fs  *geo.FeatureSet
		hit bool
	}
	v, err, _ := r.ingestGroup.Do(cacheKey, func() (interface{}, error) {
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				if fs, err := unmarshalFeatureSet(data); err == nil {
					observability.Cache().OnCacheHit(ctx, "featureset")
					return outcome{fs, true}, nil
				}
				// Corrupt entry: fall through to re-ingest.
			}
		}
		observability.Cache().OnCacheMiss(ctx, "featureset")

		fs, err := ingest.Ingest(opts.Files)
		if err != nil {
			return nil, err
		}
		if data, err := marshalFeatureSet(fs); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLFeatureSet)
			observability.Cache().OnCacheSet(ctx, "featureset", len(data))
		}
		return outcome{fs, false}, nil
	})
	if err != nil {
		return nil, contentHash, false, err
	}
	out := v.(outcome)
	return out.fs, contentHash, out.hit, nil
}

// RenderWithCacheInfo renders one format with artifact caching.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *scene.Scene, sceneHash string, format render.Format, opts Options) ([]byte, bool, error) {
	cacheKey := r.Keyer.ArtifactKey(sceneHash, cache.ArtifactKeyOpts{
		Format: string(format),
		DPI:    opts.DPI,
	})
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	backend, err := render.For(format)
	if err != nil {
		return nil, false, err
	}
	payload, err := backend.Render(s, render.Options{
		DPI:       opts.DPI,
		Timestamp: opts.Timestamp,
		Author:    opts.Author,
	})
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeRender, err, "rendering %s", format).
				At(errors.StageRender)
		}
		return nil, false, err
	}

	_ = r.Cache.Set(ctx, cacheKey, payload, cache.TTLArtifact)
	observability.Cache().OnCacheSet(ctx, "artifact", len(payload))
	return payload, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// contentHash fingerprints the request inputs: project, file names,
// format tags and bytes, in upload order.
func contentHash(project string, files []ingest.File) string {
	h := struct {
		Project string   `json:"project"`
		Names   []string `json:"names"`
		Formats []string `json:"formats"`
		Hashes  []string `json:"hashes"`
	}{Project: project}
	for _, f := range files {
		h.Names = append(h.Names, f.Name)
		h.Formats = append(h.Formats, string(f.Format))
		h.Hashes = append(h.Hashes, cache.Hash(f.Data))
	}
	data, _ := json.Marshal(h)
	return cache.Hash(data)
}

func sceneKeyOpts(style scene.StyleConfig) cache.SceneKeyOpts {
	opts := cache.SceneKeyOpts{
		Theme:          string(style.Theme),
		Title:          style.Title,
		Subtitle:       style.Subtitle,
		PrimaryColor:   style.PrimaryColor,
		SecondaryColor: style.SecondaryColor,
		ShowScaleBar:   style.ShowScaleBar,
		ShowNorthArrow: style.ShowNorthArrow,
		ShowLegend:     style.ShowLegend,
		Annotation:     style.Annotation,
	}
	if len(style.Logo) > 0 {
		opts.LogoHash = cache.Hash(style.Logo)
	}
	return opts
}
