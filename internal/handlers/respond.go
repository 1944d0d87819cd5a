package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vidfriends/mediadeck/internal/archive"
	"github.com/vidfriends/mediadeck/internal/auth"
	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/paging"
	"github.com/vidfriends/mediadeck/internal/recommend"
	"github.com/vidfriends/mediadeck/internal/site"
	"github.com/vidfriends/mediadeck/internal/viewstate"
)

var errInvalidPage = errors.New("page must be a positive integer")

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps package errors onto HTTP statuses.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	respondJSON(ctx, w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	var statusErr *site.StatusError
	switch {
	case errors.Is(err, errInvalidPage),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, viewstate.ErrEmptyQuery),
		errors.Is(err, viewstate.ErrEmptyComment),
		errors.Is(err, viewstate.ErrNoTags),
		errors.Is(err, archive.ErrInvalidRange),
		errors.Is(err, archive.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, site.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, site.ErrNotFound), errors.Is(err, viewstate.ErrUnknownCategory):
		return http.StatusNotFound
	case errors.Is(err, viewstate.ErrNotLoaded), errors.Is(err, auth.ErrLoginSuperseded):
		return http.StatusConflict
	case errors.Is(err, recommend.ErrUnavailable), errors.Is(err, archive.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, site.ErrUnexpectedMarkup), errors.Is(err, recommend.ErrBadResponse), errors.As(err, &statusErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondState writes a paged state. Failed loads answer 502 with the state
// as the body so clients still see the message.
func respondState[T any](ctx context.Context, w http.ResponseWriter, state paging.State[T]) {
	status := http.StatusOK
	if state.Status == paging.StatusError {
		status = http.StatusBadGateway
	}
	respondJSON(ctx, w, status, state)
}

// pageParam reads the one-based page query parameter, defaulting to 1.
func pageParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("%w: %q", errInvalidPage, raw)
	}
	return page, nil
}

// queryParam reads sort and repeated filter parameters.
func queryParam(r *http.Request) (models.QueryParam, error) {
	values := r.URL.Query()
	mode, err := models.ParseSortMode(values.Get("sort"))
	if err != nil {
		return models.QueryParam{}, err
	}
	return models.NewQueryParam(mode, values["filter"]...), nil
}

func mediaTypeParam(r *http.Request) (models.MediaType, error) {
	return models.ParseMediaType(r.PathValue("type"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func badRequest(ctx context.Context, w http.ResponseWriter, err error) {
	respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}
