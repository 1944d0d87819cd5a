package handlers

import (
	"net/http"
	"strconv"

	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/viewstate"
)

// MediaHandler serves the index listings and media detail pages.
type MediaHandler struct {
	Index   *viewstate.Index
	Media   viewstate.MediaSource
	Session SessionService

	details *detailCache
}

// commentTotalHeader carries the total comment count next to a comments page.
const commentTotalHeader = "X-Comment-Total"

type commentRequest struct {
	Body    string `json:"body"`
	ReplyTo string `json:"replyTo"`
}

// List handles GET /api/v1/media/{type}.
func (h MediaHandler) List(w http.ResponseWriter, r *http.Request) {
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
	query, err := queryParam(r)
	if err != nil {
		badRequest(ctx, w, err)
		return
	}

	respondState(ctx, w, h.Index.Media(mediaType).Load(ctx, page, query))
}

// Subscriptions handles GET /api/v1/subscriptions.
func (h MediaHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := pageParam(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondState(ctx, w, h.Index.Subscriptions.Load(ctx, page, models.DefaultQuery()))
}

// Likes handles GET /api/v1/likes.
func (h MediaHandler) Likes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := pageParam(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondState(ctx, w, h.Index.Likes.Load(ctx, page, models.DefaultQuery()))
}

// Detail handles GET /api/v1/media/{type}/{id}. It opens the page and its
// first comments page; actions on the item answer 409 until it is opened.
func (h MediaHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, ok := h.detail(w, r)
	if !ok {
		return
	}

	loaded, err := d.Open(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, loaded)
}

// Comments handles GET /api/v1/media/{type}/{id}/comments.
func (h MediaHandler) Comments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, ok := h.detail(w, r)
	if !ok {
		return
	}
	page, err := pageParam(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	state := d.Comments.Load(ctx, page, models.DefaultQuery())
	w.Header().Set(commentTotalHeader, strconv.Itoa(d.CommentTotal()))
	respondState(ctx, w, state)
}

// PostComment handles POST /api/v1/media/{type}/{id}/comments.
func (h MediaHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, ok := h.detail(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid comment payload", "error", err)
		badRequest(ctx, w, err)
		return
	}

	if err := d.PostComment(ctx, req.ReplyTo, req.Body); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, d.Comments.State())
}

// Like handles POST /api/v1/media/{type}/{id}/like and toggles the like.
func (h MediaHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, ok := h.detail(w, r)
	if !ok {
		return
	}

	result, err := d.Like(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, result)
}

// Follow handles POST /api/v1/media/{type}/{id}/follow and toggles following the author.
func (h MediaHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, ok := h.detail(w, r)
	if !ok {
		return
	}

	result, err := d.Follow(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, result)
}

func (h MediaHandler) detail(w http.ResponseWriter, r *http.Request) (*viewstate.Detail, bool) {
	mediaType, err := mediaTypeParam(r)
	if err != nil {
		badRequest(r.Context(), w, err)
		return nil, false
	}
	id := r.PathValue("id")
	holder := h.Session.Holder()
	open := func() *viewstate.Detail {
		return viewstate.NewDetail(holder, h.Media, mediaType, id)
	}
	if h.details == nil {
		return open(), true
	}
	return h.details.get(holder.Credential().Username, mediaType, id, open), true
}
