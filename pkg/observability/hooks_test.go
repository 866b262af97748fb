package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnPackStart(ctx, "skull.raw", [3]int{41, 41, 41})
	p.OnPackComplete(ctx, "skull.raw", 68921, time.Second, nil)
	p.OnResampleStart(ctx, "mesh.vtu", [3]int{64, 64, 64})
	p.OnResampleComplete(ctx, "mesh.vtu", time.Second, nil)
	p.OnExtractStart(ctx, "volume.vti")
	p.OnExtractComplete(ctx, "volume.vti", 12, 11, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "extract")
	c.OnCacheMiss(ctx, "extract")
	c.OnCacheSet(ctx, "extract", 1024)

	// Toolkit hooks
	k := NoopToolkitHooks{}
	k.OnInvoke(ctx, "run", "TTKFTMTree")
	k.OnComplete(ctx, "run", "TTKFTMTree", time.Second, nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Toolkit().(NoopToolkitHooks); !ok {
		t.Error("Toolkit() should return NoopToolkitHooks by default")
	}

	// Set custom hooks
	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customToolkit := &testToolkitHooks{}
	SetToolkitHooks(customToolkit)
	if Toolkit() != customToolkit {
		t.Error("SetToolkitHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := Toolkit().(NoopToolkitHooks); !ok {
		t.Error("Reset() should restore NoopToolkitHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	// Setting nil should be ignored
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testToolkitHooks struct{ NoopToolkitHooks }
