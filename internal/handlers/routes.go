package handlers

import (
	"net/http"

	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/viewstate"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Holder: deps.holder()}
	session := SessionHandler{Session: deps.Session, Index: deps.Index}
	media := MediaHandler{Index: deps.Index, Media: deps.Media, Session: deps.Session, details: newDetailCache(detailCacheSize)}
	search := &SearchHandler{Form: deps.Search}
	users := UserHandler{Source: deps.Media, Session: deps.Session}
	recs := RecommendHandler{Index: deps.Index}
	links := LinksHandler{Links: deps.Links}
	archives := ArchiveHandler{Queue: deps.Archive}

	limitLogin := deps.LoginLimit
	if limitLogin == nil {
		limitLogin = func(h http.Handler) http.Handler { return h }
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.Handle("POST /api/v1/session/login", limitLogin(http.HandlerFunc(session.Login)))
	mux.HandleFunc("POST /api/v1/session/logout", session.Logout)
	mux.HandleFunc("GET /api/v1/session", session.Current)

	mux.HandleFunc("GET /api/v1/media/{type}", media.List)
	mux.HandleFunc("GET /api/v1/subscriptions", media.Subscriptions)
	mux.HandleFunc("GET /api/v1/likes", media.Likes)
	mux.HandleFunc("GET /api/v1/media/{type}/{id}", media.Detail)
	mux.HandleFunc("GET /api/v1/media/{type}/{id}/comments", media.Comments)
	mux.HandleFunc("POST /api/v1/media/{type}/{id}/comments", media.PostComment)
	mux.HandleFunc("POST /api/v1/media/{type}/{id}/like", media.Like)
	mux.HandleFunc("POST /api/v1/media/{type}/{id}/follow", media.Follow)

	mux.HandleFunc("GET /api/v1/search", search.Search)

	mux.HandleFunc("GET /api/v1/users/{id}", users.Get)
	mux.HandleFunc("GET /api/v1/users/{id}/media/{type}", users.Media)
	mux.HandleFunc("GET /api/v1/users/{id}/comments", users.Comments)
	mux.HandleFunc("POST /api/v1/users/{id}/follow", users.Follow)

	mux.HandleFunc("GET /api/v1/recommendations/{category}", recs.List)
	mux.HandleFunc("GET /api/v1/recommendations/tags", recs.Tags)
	mux.HandleFunc("GET /api/v1/recommendations/tags/videos", recs.TagVideos)
	mux.HandleFunc("GET /api/v1/recommendations/lookup/{id}", recs.Lookup)

	mux.HandleFunc("GET /api/v1/links", links.List)
	mux.HandleFunc("POST /api/v1/archive", archives.Enqueue)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Session    SessionService
	Index      *viewstate.Index
	Search     *viewstate.Search
	Media      viewstate.MediaSource
	Archive    ArchiveQueue
	Links      []models.Link
	LoginLimit Middleware
}

func (d Dependencies) holder() sessionHolder {
	if d.Session == nil {
		return nil
	}
	return d.Session.Holder()
}
