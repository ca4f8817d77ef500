package observability

import (
	"context"
	"testing"
	"time"
)

type recordingPipelineHooks struct {
	NoopPipelineHooks
	ingestStarts int
}

func (h *recordingPipelineHooks) OnIngestStart(ctx context.Context, fileCount int) {
	h.ingestStarts++
}

type recordingCacheHooks struct {
	NoopCacheHooks
	hits, misses int
}

func (h *recordingCacheHooks) OnCacheHit(ctx context.Context, keyType string)  { h.hits++ }
func (h *recordingCacheHooks) OnCacheMiss(ctx context.Context, keyType string) { h.misses++ }

func TestDefaultHooksAreNoop(t *testing.T) {
	Reset()

	// No panics, no effects.
	ctx := context.Background()
	Pipeline().OnIngestStart(ctx, 3)
	Pipeline().OnIngestComplete(ctx, 3, 42, time.Second, nil)
	Cache().OnCacheHit(ctx, "featureset")
	Cache().OnCacheSet(ctx, "artifact", 1024)
}

func TestSetPipelineHooks(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	rec := &recordingPipelineHooks{}
	SetPipelineHooks(rec)

	Pipeline().OnIngestStart(context.Background(), 2)
	Pipeline().OnIngestStart(context.Background(), 1)

	if rec.ingestStarts != 2 {
		t.Errorf("ingestStarts = %d, want 2", rec.ingestStarts)
	}
}

func TestSetCacheHooks(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	rec := &recordingCacheHooks{}
	SetCacheHooks(rec)

	Cache().OnCacheHit(context.Background(), "artifact")
	Cache().OnCacheMiss(context.Background(), "featureset")
	Cache().OnCacheMiss(context.Background(), "artifact")

	if rec.hits != 1 || rec.misses != 2 {
		t.Errorf("hits/misses = %d/%d, want 1/2", rec.hits, rec.misses)
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	rec := &recordingPipelineHooks{}
	SetPipelineHooks(rec)
	SetPipelineHooks(nil)

	Pipeline().OnIngestStart(context.Background(), 1)
	if rec.ingestStarts != 1 {
		t.Error("nil registration should keep the current hooks")
	}
}

func TestResetRestoresNoop(t *testing.T) {
	rec := &recordingCacheHooks{}
	SetCacheHooks(rec)
	Reset()

	Cache().OnCacheHit(context.Background(), "artifact")
	if rec.hits != 0 {
		t.Error("Reset should detach registered hooks")
	}
}
