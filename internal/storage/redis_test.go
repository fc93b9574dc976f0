package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func openTestRedis(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	kv, err := OpenRedis(context.Background(), mr.Addr(), "", "folio:")
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv, mr
}

func TestOpenRedis_Unreachable(t *testing.T) {
	_, err := OpenRedis(context.Background(), "127.0.0.1:1", "", "folio:")
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
	if !strings.Contains(err.Error(), "redis ping failed") {
		t.Errorf("error = %q", err)
	}
}

func TestRedisKV_SetGetUsesPrefix(t *testing.T) {
	kv, mr := openTestRedis(t)

	if err := kv.SetValue("projects", `[]`); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	got, err := kv.GetValue("projects")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if got != `[]` {
		t.Errorf("GetValue = %q, want %q", got, `[]`)
	}

	raw, err := mr.Get("folio:projects")
	if err != nil {
		t.Fatalf("raw key missing: %v", err)
	}
	if raw != `[]` {
		t.Errorf("raw value = %q", raw)
	}
}

func TestRedisKV_GetMissing(t *testing.T) {
	kv, _ := openTestRedis(t)

	_, err := kv.GetValue("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRedisKV_Delete(t *testing.T) {
	kv, mr := openTestRedis(t)

	if err := kv.SetValue("theme", `"dark"`); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := kv.DeleteValue("theme"); err != nil {
		t.Fatalf("DeleteValue: %v", err)
	}
	if _, err := kv.GetValue("theme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if mr.Exists("folio:theme") {
		t.Error("key still present in redis")
	}
	// Missing key is fine.
	if err := kv.DeleteValue("theme"); err != nil {
		t.Fatalf("DeleteValue on missing key: %v", err)
	}
}
