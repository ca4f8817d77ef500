package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Different projects or users share one Redis instance but must never see
// each other's entries.
//
// Example usage:
//
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:42:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// FeatureSetKey generates a prefixed key for feature set caching.
func (k *ScopedKeyer) FeatureSetKey(contentHash string) string {
	return k.prefix + k.inner.FeatureSetKey(contentHash)
}

// SceneKey generates a prefixed key for scene caching.
func (k *ScopedKeyer) SceneKey(featureSetHash string, opts SceneKeyOpts) string {
	return k.prefix + k.inner.SceneKey(featureSetHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sceneHash, opts)
}

// Ensure ScopedKeyer implements Keyer.
var _ Keyer = (*ScopedKeyer)(nil)
