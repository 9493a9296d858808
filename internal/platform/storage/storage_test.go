package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"njoj_client/internal/platform/config"
)

// exerciseStore runs the behaviour every driver must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, KeyToken); err != nil || ok {
		t.Fatalf("Expected missing token on empty store, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, KeyToken, "tok-1"); err != nil {
		t.Fatalf("Set token failed: %v", err)
	}
	if err := s.Set(ctx, KeyUser, `{"id":"u1","role":"admin"}`); err != nil {
		t.Fatalf("Set user failed: %v", err)
	}
	if err := s.Set(ctx, KeyToken, "tok-2"); err != nil {
		t.Fatalf("Overwrite token failed: %v", err)
	}

	v, ok, err := s.Get(ctx, KeyToken)
	if err != nil || !ok || v != "tok-2" {
		t.Errorf("Expected tok-2, got %q ok=%v err=%v", v, ok, err)
	}
	v, ok, err = s.Get(ctx, KeyUser)
	if err != nil || !ok || v != `{"id":"u1","role":"admin"}` {
		t.Errorf("Expected user JSON, got %q ok=%v err=%v", v, ok, err)
	}

	if err := s.Remove(ctx, KeyToken, KeyUser); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	for _, k := range []string{KeyToken, KeyUser} {
		if _, ok, err := s.Get(ctx, k); err != nil || ok {
			t.Errorf("Expected %s removed, got ok=%v err=%v", k, ok, err)
		}
	}

	if err := s.Remove(ctx, KeyToken); err != nil {
		t.Errorf("Removing a missing key should not fail: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseStore(t, NewFile(path))

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected storage file to exist: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}
}

func TestFileStoreSharedAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	if err := NewFile(path).Set(ctx, KeyToken, "from-first-process"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := NewFile(path).Get(ctx, KeyToken)
	if err != nil || !ok || v != "from-first-process" {
		t.Errorf("Expected second instance to read the token, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewFile(path).Get(context.Background(), KeyToken); err == nil {
		t.Error("Expected error decoding a corrupt storage file")
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := NewRedis(rdb, "test")
	defer s.Close()
	exerciseStore(t, s)

	if err := s.Set(context.Background(), KeyToken, "abc"); err != nil {
		t.Fatal(err)
	}
	got, err := mr.Get("njoj:test:token")
	if err != nil || got != "abc" {
		t.Errorf("Expected namespaced key in Redis, got %q err=%v", got, err)
	}
}

func TestConnectRedisFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := ConnectRedis(context.Background(), addr, "", 0); err == nil {
		t.Error("Expected error connecting to a stopped Redis")
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	testCases := []struct {
		name   string
		cfg    config.Config
		expect string
	}{
		{"memory", config.Config{StorageDriver: "memory"}, "*storage.Memory"},
		{"file", config.Config{StorageDriver: "file", StoragePath: filepath.Join(t.TempDir(), "s.json")}, "*storage.File"},
		{"redis", config.Config{StorageDriver: "redis", RedisAddr: mr.Addr(), StorageNamespace: "ns"}, "*storage.Redis"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			s, err := Open(ctx, &cfg)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer s.Close()
			if got := fmt.Sprintf("%T", s); got != tc.expect {
				t.Errorf("Expected %s, got %s", tc.expect, got)
			}
		})
	}

	if _, err := Open(ctx, &config.Config{StorageDriver: "etcd"}); err == nil {
		t.Error("Expected error for unknown driver")
	}
}
