package handlers

import (
	"net/http"
	"sync"

	"github.com/vidfriends/mediadeck/internal/viewstate"
)

// SearchHandler drives the shared search form.
type SearchHandler struct {
	Form *viewstate.Search

	mu sync.Mutex
}

// Search handles GET /api/v1/search?q=&page=&sort=&filter=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := pageParam(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	query, err := queryParam(r)
	if err != nil {
		badRequest(ctx, w, err)
		return
	}

	// the form is shared, so set and submit as one step
	h.mu.Lock()
	h.Form.SetText(r.URL.Query().Get("q"))
	h.Form.SetParam(query)
	state, err := h.Form.Submit(ctx, page)
	h.mu.Unlock()

	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondState(ctx, w, state)
}
