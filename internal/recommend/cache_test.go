package recommend

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubResolver struct {
	id    string
	found bool
	err   error
	calls int
}

func (s *stubResolver) Lookup(context.Context, int) (string, bool, error) {
	s.calls++
	if s.err != nil {
		return "", false, s.err
	}
	return s.id, s.found, nil
}

func TestCachingResolverLookup(t *testing.T) {
	base := &stubResolver{id: "abc", found: true}
	cache := NewCachingResolver(base, time.Minute)

	for i := 0; i < 2; i++ {
		id, found, err := cache.Lookup(context.Background(), 1)
		if err != nil || !found || id != "abc" {
			t.Fatalf("lookup: %q, %v, %v", id, found, err)
		}
	}
	if base.calls != 1 {
		t.Fatalf("expected base called once got %d", base.calls)
	}
}

func TestCachingResolverCachesMisses(t *testing.T) {
	base := &stubResolver{}
	cache := NewCachingResolver(base, time.Minute)

	for i := 0; i < 2; i++ {
		if _, found, err := cache.Lookup(context.Background(), 7); err != nil || found {
			t.Fatalf("expected miss got %v, %v", found, err)
		}
	}
	if base.calls != 1 {
		t.Fatalf("expected miss to be cached got %d calls", base.calls)
	}
}

func TestCachingResolverDoesNotCacheErrors(t *testing.T) {
	base := &stubResolver{err: ErrBadResponse}
	cache := NewCachingResolver(base, time.Minute)

	for i := 0; i < 2; i++ {
		if _, _, err := cache.Lookup(context.Background(), 1); !errors.Is(err, ErrBadResponse) {
			t.Fatalf("expected ErrBadResponse got %v", err)
		}
	}
	if base.calls != 2 {
		t.Fatalf("expected errors to bypass the cache got %d calls", base.calls)
	}
}

func TestCachingResolverExpiry(t *testing.T) {
	base := &stubResolver{id: "abc", found: true}
	cache := NewCachingResolver(base, time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	if _, _, err := cache.Lookup(context.Background(), 1); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, _, err := cache.Lookup(context.Background(), 1); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected cache miss after expiry got %d calls", base.calls)
	}
}

func TestCachingResolverNilBase(t *testing.T) {
	cache := NewCachingResolver(nil, 0)
	if cache.ttl <= 0 {
		t.Fatalf("expected ttl to default positive got %v", cache.ttl)
	}
	if _, _, err := cache.Lookup(context.Background(), 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable got %v", err)
	}
}
