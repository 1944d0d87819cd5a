package paging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vidfriends/mediadeck/internal/models"
)

type fetchCall struct {
	index int
	query string
}

type fetchRecorder struct {
	mu    sync.Mutex
	calls []fetchCall
}

func (r *fetchRecorder) record(index int, q models.QueryParam) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fetchCall{index: index, query: q.String()})
}

func (r *fetchRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestProviderLoadSuccessKeepsOrder(t *testing.T) {
	rec := &fetchRecorder{}
	p := New("test", func(_ context.Context, index int, q models.QueryParam) ([]string, error) {
		rec.record(index, q)
		return []string{"c", "a", "b"}, nil
	})

	if got := p.State().Status; got != StatusEmpty {
		t.Fatalf("expected empty initial state got %q", got)
	}

	state := p.Load(context.Background(), 1, models.DefaultQuery())
	if state.Status != StatusSuccess {
		t.Fatalf("expected success got %q (%s)", state.Status, state.Message)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, state.Items); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
	if rec.calls[0].index != 0 {
		t.Fatalf("expected zero-based index 0 got %d", rec.calls[0].index)
	}
}

func TestProviderLoadIsIdempotent(t *testing.T) {
	rec := &fetchRecorder{}
	p := New("test", func(_ context.Context, index int, q models.QueryParam) ([]int, error) {
		rec.record(index, q)
		return []int{index}, nil
	})

	ctx := context.Background()
	first := p.Load(ctx, 2, models.NewQueryParam(models.SortViews, "a", "b"))
	second := p.Load(ctx, 2, models.NewQueryParam(models.SortViews, "b", "a"))

	if rec.count() != 1 {
		t.Fatalf("expected exactly one fetch got %d", rec.count())
	}
	if diff := cmp.Diff(first.Items, second.Items); diff != "" {
		t.Fatalf("state changed on repeated load:\n%s", diff)
	}

	p.Load(ctx, 2, models.NewQueryParam(models.SortLikes, "a", "b"))
	p.Load(ctx, 3, models.NewQueryParam(models.SortLikes, "a", "b"))
	if rec.count() != 3 {
		t.Fatalf("expected a fetch per distinct request got %d", rec.count())
	}
}

func TestProviderFailureClearsPayload(t *testing.T) {
	fail := false
	p := New("test", func(context.Context, int, models.QueryParam) ([]string, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []string{"x"}, nil
	})

	ctx := context.Background()
	p.Load(ctx, 1, models.DefaultQuery())

	fail = true
	state := p.Load(ctx, 2, models.DefaultQuery())
	if state.Status != StatusError || state.Message != "boom" {
		t.Fatalf("expected error state got %+v", state)
	}
	if len(state.Items) != 0 {
		t.Fatalf("error state must not carry items: %v", state.Items)
	}
}

func TestProviderRetryAfterFailureFetchesAgain(t *testing.T) {
	var calls atomic.Int32
	p := New("test", func(context.Context, int, models.QueryParam) ([]string, error) {
		if calls.Add(1) == 2 {
			return nil, errors.New("flaky")
		}
		return []string{"x"}, nil
	})

	ctx := context.Background()
	p.Load(ctx, 1, models.DefaultQuery())
	if got := p.Reload(ctx); got.Status != StatusError {
		t.Fatalf("expected reload to fail got %q", got.Status)
	}
	if got := p.Load(ctx, 1, models.DefaultQuery()); got.Status != StatusSuccess {
		t.Fatalf("expected retry to succeed got %q", got.Status)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected three fetches got %d", calls.Load())
	}
}

func TestProviderRejectsInvalidPage(t *testing.T) {
	rec := &fetchRecorder{}
	p := New("test", func(_ context.Context, index int, q models.QueryParam) ([]string, error) {
		rec.record(index, q)
		return nil, nil
	})

	state := p.Load(context.Background(), 0, models.DefaultQuery())
	if state.Status != StatusError {
		t.Fatalf("expected error for page 0 got %q", state.Status)
	}
	if rec.count() != 0 {
		t.Fatalf("expected no fetch got %d", rec.count())
	}
}

func TestProviderLaterLoadWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	p := New("test", func(_ context.Context, index int, _ models.QueryParam) ([]int, error) {
		if index == 0 {
			close(started)
			<-release
		}
		return []int{index + 1}, nil
	})

	ctx := context.Background()
	done := make(chan State[int])
	go func() { done <- p.Load(ctx, 1, models.DefaultQuery()) }()
	<-started

	second := p.Load(ctx, 2, models.DefaultQuery())
	if second.Status != StatusSuccess || second.Page != 2 {
		t.Fatalf("expected page 2 success got %+v", second)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("first load did not return")
	}

	final := p.State()
	if final.Page != 2 {
		t.Fatalf("superseded load overwrote state: %+v", final)
	}
	if diff := cmp.Diff([]int{2}, final.Items); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}

func TestProviderReturningToCachedPageSupersedesInFlight(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	p := New("test", func(_ context.Context, index int, _ models.QueryParam) ([]int, error) {
		calls.Add(1)
		if index == 1 {
			close(started)
			<-release
		}
		return []int{index + 1}, nil
	})

	ctx := context.Background()
	p.Load(ctx, 1, models.DefaultQuery())

	done := make(chan struct{})
	go func() {
		p.Load(ctx, 2, models.DefaultQuery())
		close(done)
	}()
	<-started

	back := p.Load(ctx, 1, models.DefaultQuery())
	if back.Status != StatusSuccess || back.Page != 1 {
		t.Fatalf("expected cached page 1 got %+v", back)
	}

	close(release)
	<-done

	if got := p.State().Page; got != 1 {
		t.Fatalf("expected page 1 to remain got %d", got)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected two fetches got %d", calls.Load())
	}
}

func TestProviderSubscribe(t *testing.T) {
	p := New("test", func(context.Context, int, models.QueryParam) ([]string, error) {
		return []string{"x"}, nil
	})

	updates, cancel := p.Subscribe()
	defer cancel()

	if s := <-updates; s.Status != StatusEmpty {
		t.Fatalf("expected initial empty state got %q", s.Status)
	}

	p.Load(context.Background(), 1, models.DefaultQuery())

	// the loading state may have been coalesced away
	s := <-updates
	if s.Status != StatusSuccess {
		t.Fatalf("expected latest state to be success got %q", s.Status)
	}

	cancel()
	if _, ok := <-updates; ok {
		t.Fatal("expected channel to be closed after cancel")
	}
}

func TestProviderInvalidateForcesFetch(t *testing.T) {
	var calls atomic.Int32
	p := New("test", func(context.Context, int, models.QueryParam) ([]string, error) {
		calls.Add(1)
		return []string{"x"}, nil
	})

	ctx := context.Background()
	p.Load(ctx, 1, models.DefaultQuery())
	p.Invalidate()
	if got := p.State().Status; got != StatusSuccess {
		t.Fatalf("invalidate must not change the visible state got %q", got)
	}
	p.Load(ctx, 1, models.DefaultQuery())
	if calls.Load() != 2 {
		t.Fatalf("expected a second fetch after invalidate got %d", calls.Load())
	}
}
