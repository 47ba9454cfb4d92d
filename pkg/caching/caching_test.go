package caching

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c, err := NewCache(filepath.Join(t.TempDir(), "cache"), time.Hour)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}

	if _, ok := c.Get("https://example.com"); ok {
		t.Error("Get() hit on empty cache")
	}

	if err := c.Set("https://example.com", []byte("<p>hi</p>")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	data, ok := c.Get("https://example.com")
	if !ok {
		t.Fatal("Get() missed after Set")
	}
	if string(data) != "<p>hi</p>" {
		t.Errorf("Get() = %q, want %q", data, "<p>hi</p>")
	}

	if err := c.Delete("https://example.com"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := c.Get("https://example.com"); ok {
		t.Error("Get() hit after Delete")
	}
	if err := c.Delete("https://example.com"); err != nil {
		t.Errorf("Delete() of missing entry error = %v", err)
	}
}

func TestCache_Expired(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, time.Minute)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	if err := c.Set("u", []byte("x")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	old := time.Now().Add(-2 * time.Minute)
	if err := os.Chtimes(filepath.Join(dir, c.key("u")), old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	if _, ok := c.Get("u"); ok {
		t.Error("Get() hit on expired entry")
	}
}

func TestCache_DisabledAndNil(t *testing.T) {
	c, err := NewCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	_ = c.Set("u", []byte("x"))
	if _, ok := c.Get("u"); ok {
		t.Error("Get() hit with zero TTL")
	}

	var nilCache *Cache
	if _, ok := nilCache.Get("u"); ok {
		t.Error("nil cache Get() hit")
	}
	if err := nilCache.Set("u", nil); err != nil {
		t.Errorf("nil cache Set() error = %v", err)
	}
}
