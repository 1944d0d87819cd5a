package handlers

import (
	"net/http"

	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/viewstate"
)

// UserHandler serves other accounts' pages.
type UserHandler struct {
	Source  viewstate.MediaSource
	Session SessionService
}

// Get handles GET /api/v1/users/{id}.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := h.user(r).Open(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, page)
}

// Media handles GET /api/v1/users/{id}/media/{type}. The uploads listing is
// addressed by the owner id from the user page, so the page is loaded first.
func (h UserHandler) Media(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mediaType, err := mediaTypeParam(r)
	if err != nil {
		badRequest(ctx, w, err)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	u := h.user(r)
	if _, err := u.Open(ctx); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondState(ctx, w, u.Media(mediaType).Load(ctx, page, models.DefaultQuery()))
}

// Comments handles GET /api/v1/users/{id}/comments.
func (h UserHandler) Comments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := pageParam(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondState(ctx, w, h.user(r).Comments.Load(ctx, page, models.DefaultQuery()))
}

// Follow handles POST /api/v1/users/{id}/follow and toggles following.
func (h UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := h.user(r)
	if _, err := u.Open(ctx); err != nil {
		respondError(ctx, w, err)
		return
	}
	result, err := u.Follow(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, result)
}

func (h UserHandler) user(r *http.Request) *viewstate.User {
	return viewstate.NewUser(h.Session.Holder(), h.Source, r.PathValue("id"))
}
