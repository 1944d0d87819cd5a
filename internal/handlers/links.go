package handlers

import (
	"net/http"

	"github.com/vidfriends/mediadeck/internal/models"
)

// LinksHandler lists the configured community links.
type LinksHandler struct {
	Links []models.Link
}

// List handles GET /api/v1/links.
func (h LinksHandler) List(w http.ResponseWriter, r *http.Request) {
	links := h.Links
	if links == nil {
		links = []models.Link{}
	}
	respondJSON(r.Context(), w, http.StatusOK, links)
}
