package handlers

import (
	"net/http"

	"github.com/vidfriends/mediadeck/internal/models"
)

type sessionHolder interface {
	Credential() models.Credential
}

// HealthHandler responds with service health information.
type HealthHandler struct {
	Holder sessionHolder
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	session := "unknown"
	if h.Holder != nil {
		session = "guest"
		if !h.Holder.Credential().IsGuest() {
			session = "authenticated"
		}
	}

	respondJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status":  "ok",
		"session": session,
	})
}
