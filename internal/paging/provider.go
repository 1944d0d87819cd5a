// Package paging provides a generic paged list loader with an observable state.
package paging

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
)

// Status is the load status of a paged list.
type Status string

const (
	StatusEmpty   Status = "empty"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

var errInvalidPage = errors.New("page must be 1 or greater")

// State is an observable snapshot of a paged list. Items must be treated as
// read-only by observers.
type State[T any] struct {
	Status  Status            `json:"status"`
	Items   []T               `json:"items,omitempty"`
	Message string            `json:"message,omitempty"`
	Page    int               `json:"page,omitempty"`
	Query   models.QueryParam `json:"query"`
}

// FetchFunc loads one page. index is zero-based.
type FetchFunc[T any] func(ctx context.Context, index int, query models.QueryParam) ([]T, error)

// Provider loads pages through a FetchFunc and publishes the result.
//
// Pages are one-based. A Load whose page and query equal the last successful
// load does not fetch. When loads overlap, only the most recently issued one
// is applied.
type Provider[T any] struct {
	name  string
	fetch FetchFunc[T]

	mu    sync.Mutex
	state State[T]
	seq   uint64

	last      State[T]
	hasLast   bool
	requested State[T]
	hasReq    bool

	subs    map[int]chan State[T]
	nextSub int
}

// New returns an empty Provider. name labels the provider in logs.
func New[T any](name string, fetch FetchFunc[T]) *Provider[T] {
	if fetch == nil {
		panic("paging: fetch func must not be nil")
	}
	return &Provider[T]{
		name:  name,
		fetch: fetch,
		state: State[T]{Status: StatusEmpty, Query: models.DefaultQuery()},
		subs:  make(map[int]chan State[T]),
	}
}

// State returns the current snapshot.
func (p *Provider[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Load requests page with query and blocks until it is resolved, returning
// the state current at that moment.
func (p *Provider[T]) Load(ctx context.Context, page int, query models.QueryParam) State[T] {
	query = query.Clone()

	p.mu.Lock()
	if p.hasLast && p.last.Page == page && p.last.Query.Equal(query) {
		if p.state.Status != StatusSuccess || p.state.Page != page || !p.state.Query.Equal(query) {
			// a different page is in flight; drop it and show the cached result
			p.seq++
			p.requested, p.hasReq = p.last, true
			p.publishLocked(p.last)
		}
		s := p.state
		p.mu.Unlock()
		return s
	}

	p.seq++
	seq := p.seq
	p.requested = State[T]{Page: page, Query: query}
	p.hasReq = true

	if page < 1 {
		p.hasLast = false
		p.publishLocked(State[T]{Status: StatusError, Message: errInvalidPage.Error(), Page: page, Query: query})
		s := p.state
		p.mu.Unlock()
		return s
	}

	p.publishLocked(State[T]{Status: StatusLoading, Page: page, Query: query})
	p.mu.Unlock()

	ctx, span := logging.StartSpan(ctx, "paging.load",
		slog.String("provider", p.name),
		slog.Int("page", page),
		slog.String("query", query.String()),
	)
	defer span.End()

	items, err := p.fetch(ctx, page-1, query)
	span.Fail(err)

	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.seq {
		logging.FromContext(ctx).Debug("discarding superseded page load")
		return p.state
	}

	if err != nil {
		p.hasLast = false
		p.last = State[T]{}
		p.publishLocked(State[T]{Status: StatusError, Message: err.Error(), Page: page, Query: query})
		return p.state
	}

	if items == nil {
		items = []T{}
	}
	next := State[T]{Status: StatusSuccess, Items: items, Page: page, Query: query}
	p.last, p.hasLast = next, true
	p.publishLocked(next)
	return next
}

// Reload fetches the most recently requested page again, bypassing the
// idempotence check. With no prior request it loads page 1 with the default query.
func (p *Provider[T]) Reload(ctx context.Context) State[T] {
	p.mu.Lock()
	page, query := 1, models.DefaultQuery()
	if p.hasReq {
		page, query = p.requested.Page, p.requested.Query
	}
	p.hasLast = false
	p.mu.Unlock()

	return p.Load(ctx, page, query)
}

// Invalidate forgets the last successful load so the next Load fetches even
// for the same page and query. The visible state is left alone.
func (p *Provider[T]) Invalidate() {
	p.mu.Lock()
	p.hasLast = false
	p.last = State[T]{}
	p.mu.Unlock()
}

// Subscribe returns a channel that receives every state change. Slow
// receivers only see the newest state. The returned func unsubscribes and
// closes the channel.
func (p *Provider[T]) Subscribe() (<-chan State[T], func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSub
	p.nextSub++
	ch := make(chan State[T], 1)
	ch <- p.state
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
			close(ch)
		})
	}
}

func (p *Provider[T]) publishLocked(s State[T]) {
	p.state = s
	for _, ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}
