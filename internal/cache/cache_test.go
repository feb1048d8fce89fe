package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GMettam/batch-affidavit-web/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("anthropic", "model", "claim text")
	if a != CacheKey("anthropic", "model", "claim text") {
		t.Error("Expected identical parts to produce identical keys")
	}
	if !strings.HasPrefix(a, "affidavit:v1:") {
		t.Errorf("Unexpected key prefix %q", a)
	}
	if CacheKey("ab", "c") == CacheKey("a", "bc") {
		t.Error("Expected part boundaries to affect the key")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Errorf("Expected hit with v, got %q %v", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 item, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)

	key := CacheKey("claim")
	if err := c.Set(key, []byte(`{"caseNumber":"GCLM/1/2025"}`), 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got, ok := c.Get(key); !ok || string(got) != `{"caseNumber":"GCLM/1/2025"}` {
		t.Errorf("Expected stored value, got %q %v", got, ok)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected exactly one file and no temp leftovers, got %d", len(entries))
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestDiskCache_Expired(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("Expected expired entry to be removed")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	c := NewLayeredCache(time.Hour, dir, time.Hour)
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("Expected disk hit, got %q %v", got, ok)
	}
	if _, ok := c.memory.Get("k"); !ok {
		t.Error("Expected disk hit to be promoted to memory")
	}

	if err := c.Clear(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after clear")
	}
}

func TestNew(t *testing.T) {
	if c := New(model.CacheConfig{Enabled: false}); c != nil {
		t.Errorf("Expected nil cache when disabled, got %T", c)
	}
	if _, ok := New(model.CacheConfig{Enabled: true}).(*MemoryCache); !ok {
		t.Error("Expected memory cache without a directory")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("Expected layered cache with a directory")
	}
}
