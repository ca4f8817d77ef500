// Package cache provides the byte-level caches backing the export
// pipeline: normalized feature sets, composed scenes and rendered
// artifacts are all stored keyed by content hashes, so a repeated request
// for the same inputs skips the stages whose outputs are already known.
package cache

import (
	"context"
	"time"
)

// Default TTLs per stage. Feature sets are keyed by content hash and never
// go stale; artifacts get a shorter TTL since they dominate storage.
const (
	TTLFeatureSet = 0
	TTLScene      = 0
	TTLArtifact   = 7 * 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores bytes under a key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// SceneKeyOpts are the style inputs that change a composed scene.
type SceneKeyOpts struct {
	Theme          string `json:"theme"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	ShowScaleBar   bool   `json:"show_scale_bar"`
	ShowNorthArrow bool   `json:"show_north_arrow"`
	ShowLegend     bool   `json:"show_legend"`
	LogoHash       string `json:"logo_hash,omitempty"`
	Annotation     string `json:"annotation"`
}

// ArtifactKeyOpts are the render inputs that change output bytes.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	DPI    int    `json:"dpi"`
}

// Keyer builds cache keys for the three cacheable stages.
type Keyer interface {
	// FeatureSetKey keys a normalized feature set by the hash of its
	// source file bytes and format tags.
	FeatureSetKey(contentHash string) string
	// SceneKey keys a composed scene by its feature set and style.
	SceneKey(featureSetHash string, opts SceneKeyOpts) string
	// ArtifactKey keys rendered bytes by scene and render options.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// FeatureSetKey generates a key for normalized feature set caching.
func (k *DefaultKeyer) FeatureSetKey(contentHash string) string {
	return "featureset:" + contentHash
}

// SceneKey generates a key for composed scene caching.
func (k *DefaultKeyer) SceneKey(featureSetHash string, opts SceneKeyOpts) string {
	return hashKey("scene", featureSetHash, opts)
}

// ArtifactKey generates a key for rendered artifact caching.
func (k *DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
