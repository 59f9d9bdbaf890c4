package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "/repo")
	p.OnLoadComplete(ctx, "/repo", 100, time.Second, nil)
	p.OnLayoutStart(ctx, 100)
	p.OnLayoutComplete(ctx, 100, 4, time.Second)
	p.OnRenderStart(ctx, "text")
	p.OnRenderComplete(ctx, "text", 2048, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "history")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "history", 1024)

	s := NoopServerHooks{}
	s.OnRequest(ctx, "GET", "/api/layout", 200, time.Millisecond)
	s.OnRepositoryChange(ctx, "/repo")
	s.OnBroadcast(ctx, 3)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Server() should return NoopServerHooks by default")
	}

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

	customServer := &testServerHooks{}
	SetServerHooks(customServer)
	if Server() != customServer {
		t.Error("SetServerHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Reset() should restore NoopServerHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)
	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}
}

func TestRecordingHooks(t *testing.T) {
	Reset()
	defer Reset()

	rec := &testPipelineHooks{}
	SetPipelineHooks(rec)
	Pipeline().OnLoadComplete(context.Background(), "/repo", 7, time.Millisecond, nil)
	if rec.loaded != 7 {
		t.Errorf("loaded = %d, want 7", rec.loaded)
	}
}

type testPipelineHooks struct {
	NoopPipelineHooks
	loaded int
}

func (h *testPipelineHooks) OnLoadComplete(_ context.Context, _ string, commits int, _ time.Duration, _ error) {
	h.loaded = commits
}

type testCacheHooks struct{ NoopCacheHooks }
type testServerHooks struct{ NoopServerHooks }
