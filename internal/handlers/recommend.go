package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/viewstate"
)

// RecommendHandler serves the recommendation categories.
type RecommendHandler struct {
	Index *viewstate.Index
}

type lookupResponse struct {
	ID    int    `json:"id"`
	Route string `json:"route"`
}

// List handles GET /api/v1/recommendations/{category}.
func (h RecommendHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	category, err := models.ParseRecommendCategory(r.PathValue("category"))
	if err != nil {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	provider, err := h.Index.Recommendation(category)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondState(ctx, w, provider.Load(ctx, page, models.DefaultQuery()))
}

// Lookup handles GET /api/v1/recommendations/lookup/{id}. A recommendation
// without a primary site counterpart answers 404.
func (h RecommendHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		badRequest(ctx, w, fmt.Errorf("invalid recommendation id %q", r.PathValue("id")))
		return
	}

	videoID, found, err := h.Index.OpenRecommendation(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !found {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "recommendation has no video on the primary site"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, lookupResponse{ID: id, Route: models.Route(models.MediaTypeVideo, videoID)})
}

// Tags handles GET /api/v1/recommendations/tags.
func (h RecommendHandler) Tags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	respondState(ctx, w, h.Index.RecommendTags.Load(ctx, 1, models.DefaultQuery()))
}

// TagVideos handles GET /api/v1/recommendations/tags/videos?tag=a&tag=b.
func (h RecommendHandler) TagVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := models.NewQueryParam(models.SortDate, r.URL.Query()["tag"]...)
	if len(query.Filters) == 0 {
		respondError(ctx, w, viewstate.ErrNoTags)
		return
	}

	respondState(ctx, w, h.Index.TagRecommendations.Load(ctx, 1, query))
}
