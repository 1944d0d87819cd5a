package handlers

import (
	"net/http"

	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/viewstate"
)

// SessionHandler exposes login and logout. Index is optional; when set,
// profile refreshes go through it so concurrent readers see LoadingProfile.
type SessionHandler struct {
	Session SessionService
	Index   *viewstate.Index
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	LoggedIn       bool           `json:"loggedIn"`
	Username       string         `json:"username,omitempty"`
	Profile        models.Profile `json:"profile"`
	LastLogin      string         `json:"lastLogin,omitempty"`
	LoadingProfile bool           `json:"loadingProfile,omitempty"`
}

// Login handles POST /api/v1/session/login.
func (h SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Session == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session service unavailable"})
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid login payload", "error", err)
		badRequest(ctx, w, err)
		return
	}

	state, err := h.Session.Login(ctx, req.Username, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, sessionResponse{
		LoggedIn:  true,
		Username:  state.Credential.Username,
		Profile:   state.Profile,
		LastLogin: req.Username,
	})
}

// Logout handles POST /api/v1/session/logout.
func (h SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Session == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session service unavailable"})
		return
	}

	if err := h.Session.Logout(ctx); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Current handles GET /api/v1/session. ?refresh=1 fetches the profile again.
func (h SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Session == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session service unavailable"})
		return
	}

	if r.URL.Query().Get("refresh") == "1" {
		refresh := h.Session.RefreshProfile
		if h.Index != nil {
			refresh = h.Index.RefreshProfile
		}
		if _, err := refresh(ctx); err != nil {
			respondError(ctx, w, err)
			return
		}
	}

	current := h.Session.Holder().Current()
	last, err := h.Session.LastLogin(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("load last login", "error", err)
	}

	respondJSON(ctx, w, http.StatusOK, sessionResponse{
		LoggedIn:       !current.Credential.IsGuest(),
		Username:       current.Credential.Username,
		Profile:        current.Profile,
		LastLogin:      last,
		LoadingProfile: h.Index != nil && h.Index.LoadingProfile(),
	})
}
