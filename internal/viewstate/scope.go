package viewstate

import (
	"context"
	"sync"
)

// Scope bounds asynchronous work to the lifetime of its owner. Work launched
// with Go is cancelled and awaited by Close.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewScope derives a Scope from parent.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context returns the scope context. It is cancelled by Close.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Go runs fn in a goroutine owned by the scope. It reports false without
// running fn when the scope is already closed.
func (s *Scope) Go(fn func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
	return true
}

// Close cancels outstanding work and waits for it to return.
func (s *Scope) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
