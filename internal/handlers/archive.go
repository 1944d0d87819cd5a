package handlers

import (
	"net/http"

	"github.com/vidfriends/mediadeck/internal/archive"
	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
)

// ArchiveHandler queues snapshot exports.
type ArchiveHandler struct {
	Queue ArchiveQueue
}

type archiveRequest struct {
	Kind    string   `json:"kind"`
	From    int      `json:"from"`
	To      int      `json:"to"`
	Sort    string   `json:"sort"`
	Filters []string `json:"filters"`
}

// Enqueue handles POST /api/v1/archive.
func (h ArchiveHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Queue == nil {
		respondError(ctx, w, archive.ErrStorageUnavailable)
		return
	}

	var req archiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid archive payload", "error", err)
		badRequest(ctx, w, err)
		return
	}
	if req.To == 0 {
		req.To = req.From
	}

	mode, err := models.ParseSortMode(req.Sort)
	if err != nil {
		badRequest(ctx, w, err)
		return
	}

	job := archive.Job{Kind: req.Kind, From: req.From, To: req.To, Query: models.NewQueryParam(mode, req.Filters...)}
	if err := h.Queue.Enqueue(ctx, job); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusAccepted, map[string]any{
		"kind": job.Kind,
		"from": job.From,
		"to":   job.To,
	})
}
