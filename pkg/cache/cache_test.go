package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Fatal("empty cache should miss")
	}
	if err := c.Set(ctx, "k", []byte(`{"nodes":[]}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != `{"nodes":[]}` {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("old")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}

	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl should never expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want a clean miss", hit, err)
	}
}

func TestFileCacheUsageAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, size, err := c.Usage()
	if err != nil || n != 3 || size == 0 {
		t.Errorf("Usage = %d, %d, %v", n, size, err)
	}

	removed, err := c.Clear()
	if err != nil || removed != 3 {
		t.Errorf("Clear = %d, %v; want 3", removed, err)
	}
	if n, _, _ := c.Usage(); n != 0 {
		t.Errorf("%d entries left after Clear", n)
	}
}

func TestFileCacheCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _ := NewFileCache(t.TempDir())
	if err := c.Set(ctx, "k", nil, 0); err != context.Canceled {
		t.Errorf("Set err = %v, want context.Canceled", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}

	path := filepath.Join(t.TempDir(), "volume.raw")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	hf, err := HashFile(path)
	if err != nil || hf != h1 {
		t.Errorf("HashFile = %s, %v; want %s", hf, err, h1)
	}
	if _, err := HashFile(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("HashFile on a missing file should fail")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	ek1 := k.ExtractKey("abc", ExtractKeyOpts{Variant: "Join Tree"})
	ek2 := k.ExtractKey("abc", ExtractKeyOpts{Variant: "Split Tree"})
	ek3 := k.ExtractKey("abd", ExtractKeyOpts{Variant: "Join Tree"})
	if ek1 == ek2 || ek1 == ek3 {
		t.Error("different volumes or options should produce different keys")
	}
	if ek1 != k.ExtractKey("abc", ExtractKeyOpts{Variant: "Join Tree"}) {
		t.Error("ExtractKey should be deterministic")
	}
	if !strings.HasPrefix(ek1, "extract:") {
		t.Errorf("ExtractKey = %s", ek1)
	}

	rk1 := k.ResampleKey("abc", ResampleKeyOpts{Dims: [3]int{8, 8, 8}, Resampler: "toolkit"})
	rk2 := k.ResampleKey("abc", ResampleKeyOpts{Dims: [3]int{8, 8, 9}, Resampler: "toolkit"})
	if rk1 == rk2 || !strings.HasPrefix(rk1, "resample:") {
		t.Errorf("ResampleKey: %s vs %s", rk1, rk2)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "pv:5.12:")

	opts := ExtractKeyOpts{Variant: "Join Tree"}
	if got, want := scoped.ExtractKey("abc", opts), "pv:5.12:"+inner.ExtractKey("abc", opts); got != want {
		t.Errorf("ExtractKey = %s, want %s", got, want)
	}
	if got := NewScopedKeyer(nil, "p:").ResampleKey("abc", ResampleKeyOpts{}); !strings.HasPrefix(got, "p:resample:") {
		t.Errorf("nil inner: %s", got)
	}
}
