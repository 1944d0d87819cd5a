package viewstate

import (
	"context"
	"testing"
)

func TestScopeCloseCancelsAndWaits(t *testing.T) {
	s := NewScope(context.Background())

	finished := make(chan struct{})
	started := make(chan struct{})
	s.Go(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(finished)
	})
	<-started

	s.Close()
	select {
	case <-finished:
	default:
		t.Fatal("expected Close to wait for running work")
	}

	if s.Go(func(context.Context) {}) {
		t.Fatal("expected Go to refuse work after Close")
	}
}
