package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheHelper(client, "test:"), mr
}

type cachedValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCacheHelper_SetGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	in := cachedValue{Name: "homework", Count: 3}
	if err := helper.Set(ctx, "hw:1", in, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out cachedValue
	if err := helper.Get(ctx, "hw:1", &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out != in {
		t.Errorf("Get = %+v, want %+v", out, in)
	}
}

func TestCacheHelper_GetMissing(t *testing.T) {
	helper, _ := newTestHelper(t)

	var out cachedValue
	err := helper.Get(context.Background(), "missing", &out)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelper_KeysArePrefixed(t *testing.T) {
	helper, mr := newTestHelper(t)

	if err := helper.Set(context.Background(), "hw:1", cachedValue{}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !mr.Exists("test:hw:1") {
		t.Error("Expected key to be stored under the helper prefix")
	}
}

func TestCacheHelper_TTL(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "hw:1", cachedValue{Name: "x"}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	var out cachedValue
	if err := helper.Get(ctx, "hw:1", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Expected expired key to miss, got %v", err)
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	for _, key := range []string{"hw:1", "hw:2"} {
		if err := helper.Set(ctx, key, cachedValue{}, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if err := helper.Delete(ctx, "hw:1", "hw:2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var out cachedValue
	if err := helper.Get(ctx, "hw:1", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Expected deleted key to miss, got %v", err)
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "hw:42:stats", cachedValue{}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := helper.Set(ctx, "hw:7:stats", cachedValue{}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := helper.InvalidatePattern(ctx, "*42*"); err != nil {
		t.Fatalf("InvalidatePattern failed: %v", err)
	}

	var out cachedValue
	if err := helper.Get(ctx, "hw:42:stats", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Expected matching key to be invalidated, got %v", err)
	}
	if err := helper.Get(ctx, "hw:7:stats", &out); err != nil {
		t.Errorf("Expected non-matching key to survive, got %v", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	t.Run("miss runs fetch", func(t *testing.T) {
		calls := 0
		var out cachedValue
		err := helper.CacheOrExecute(ctx, "hw:1", &out, time.Minute, func() (interface{}, error) {
			calls++
			return cachedValue{Name: "fetched", Count: 1}, nil
		})
		if err != nil {
			t.Fatalf("CacheOrExecute failed: %v", err)
		}
		if calls != 1 {
			t.Errorf("Expected 1 fetch call, got %d", calls)
		}
		if out.Name != "fetched" {
			t.Errorf("Expected fetched value, got %+v", out)
		}
	})

	t.Run("hit skips fetch", func(t *testing.T) {
		if err := helper.Set(ctx, "hw:2", cachedValue{Name: "cached"}, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		var out cachedValue
		err := helper.CacheOrExecute(ctx, "hw:2", &out, time.Minute, func() (interface{}, error) {
			t.Error("fetch should not run on a cache hit")
			return nil, nil
		})
		if err != nil {
			t.Fatalf("CacheOrExecute failed: %v", err)
		}
		if out.Name != "cached" {
			t.Errorf("Expected cached value, got %+v", out)
		}
	})

	t.Run("fetch error propagates", func(t *testing.T) {
		wantErr := errors.New("db down")
		var out cachedValue
		err := helper.CacheOrExecute(ctx, "hw:3", &out, time.Minute, func() (interface{}, error) {
			return nil, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Errorf("Expected fetch error, got %v", err)
		}
	})
}

func TestCacheHelper_NilClient(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", cachedValue{}, time.Minute); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Expected ErrCacheNotAvailable from Set, got %v", err)
	}

	var out cachedValue
	if err := helper.Get(ctx, "k", &out); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Expected ErrCacheNotAvailable from Get, got %v", err)
	}

	// read-through still works without a cache
	err := helper.CacheOrExecute(ctx, "k", &out, time.Minute, func() (interface{}, error) {
		return cachedValue{Name: "direct"}, nil
	})
	if err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if out.Name != "direct" {
		t.Errorf("Expected direct fetch result, got %+v", out)
	}
}
