package viewstate

import (
	"context"
	"errors"
	"sync"

	"github.com/vidfriends/mediadeck/internal/auth"
	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/prefs"
	"github.com/vidfriends/mediadeck/internal/site"
)

type authStub struct {
	token string
}

func (a authStub) Login(_ context.Context, username, password string) (models.Credential, error) {
	if password != "secret" {
		return models.Credential{}, site.ErrUnauthorized
	}
	return models.Credential{Token: a.token, Username: username}, nil
}

func (a authStub) Self(_ context.Context, cred models.Credential) (models.Profile, error) {
	if cred.IsGuest() {
		return models.Profile{}, site.ErrUnauthorized
	}
	return models.Profile{ID: "7", Nickname: cred.Username}, nil
}

func newSession() *auth.Manager {
	return auth.NewManager(auth.NewHolder(), authStub{token: "SESSabc=1"}, prefs.NewMemoryStore(), nil)
}

type mediaStub struct {
	mu sync.Mutex

	listErr     error
	searchTexts []string
	creds       []models.Credential
	detail      models.MediaDetail
	comments    models.CommentPage
	posted      []string
	likeLinks   []string
	user        models.UserPage
	userOwners  []string
}

func (m *mediaStub) note(cred models.Credential) {
	m.mu.Lock()
	m.creds = append(m.creds, cred)
	m.mu.Unlock()
}

func (m *mediaStub) MediaList(_ context.Context, cred models.Credential, mediaType models.MediaType, page int, _ models.QueryParam) ([]models.MediaPreview, error) {
	m.note(cred)
	if m.listErr != nil {
		return nil, m.listErr
	}
	return []models.MediaPreview{{ID: "m1", Type: mediaType}}, nil
}

func (m *mediaStub) Search(_ context.Context, cred models.Credential, text string, page int, _ models.QueryParam) ([]models.MediaPreview, error) {
	m.note(cred)
	m.mu.Lock()
	m.searchTexts = append(m.searchTexts, text)
	m.mu.Unlock()
	return []models.MediaPreview{{ID: text}}, nil
}

func (m *mediaStub) Subscriptions(_ context.Context, cred models.Credential, _ int) ([]models.MediaPreview, error) {
	m.note(cred)
	if cred.IsGuest() {
		return nil, site.ErrUnauthorized
	}
	return []models.MediaPreview{{ID: "sub"}}, nil
}

func (m *mediaStub) Likes(_ context.Context, cred models.Credential, _ int) ([]models.MediaPreview, error) {
	m.note(cred)
	if cred.IsGuest() {
		return nil, site.ErrUnauthorized
	}
	return []models.MediaPreview{{ID: "liked"}}, nil
}

func (m *mediaStub) Detail(_ context.Context, cred models.Credential, _ models.MediaType, id string) (models.MediaDetail, error) {
	m.note(cred)
	if id == "missing" {
		return models.MediaDetail{}, site.ErrNotFound
	}
	return m.detail, nil
}

func (m *mediaStub) Comments(_ context.Context, cred models.Credential, _ models.MediaType, _ string, _ int) (models.CommentPage, error) {
	m.note(cred)
	return m.comments, nil
}

func (m *mediaStub) UserComments(_ context.Context, cred models.Credential, _ string, _ int) (models.CommentPage, error) {
	m.note(cred)
	return m.comments, nil
}

func (m *mediaStub) PostComment(_ context.Context, cred models.Credential, _ int, _ string, body string, _ models.CommentPostParam) error {
	m.note(cred)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, body)
	return nil
}

func (m *mediaStub) Like(_ context.Context, cred models.Credential, link string, like bool) (models.LikeResult, error) {
	m.note(cred)
	m.mu.Lock()
	m.likeLinks = append(m.likeLinks, link)
	m.mu.Unlock()
	if like {
		return models.LikeResult{Liked: true, Count: 11}, nil
	}
	return models.LikeResult{Liked: false, Count: 10}, nil
}

func (m *mediaStub) Follow(_ context.Context, cred models.Credential, _ string, follow bool) (models.FollowResult, error) {
	m.note(cred)
	return models.FollowResult{Following: follow}, nil
}

func (m *mediaStub) User(_ context.Context, cred models.Credential, _ string) (models.UserPage, error) {
	m.note(cred)
	return m.user, nil
}

func (m *mediaStub) UserMedia(_ context.Context, cred models.Credential, ownerID string, mediaType models.MediaType, _ int) ([]models.MediaPreview, error) {
	m.note(cred)
	m.mu.Lock()
	m.userOwners = append(m.userOwners, ownerID)
	m.mu.Unlock()
	return []models.MediaPreview{{ID: ownerID, Type: mediaType}}, nil
}

type recommendStub struct {
	pages []int
	mu    sync.Mutex
	err   error
}

func (r *recommendStub) Previews(_ context.Context, category models.RecommendCategory, page int) ([]models.RecommendPreview, error) {
	r.mu.Lock()
	r.pages = append(r.pages, page)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return []models.RecommendPreview{{ID: page, Title: string(category)}}, nil
}

type resolverStub struct {
	ids map[int]string
}

func (r resolverStub) Lookup(_ context.Context, id int) (string, bool, error) {
	if id < 0 {
		return "", false, errors.New("lookup failed")
	}
	v, ok := r.ids[id]
	return v, ok, nil
}

type tagStub struct {
	mu     sync.Mutex
	calls  [][]string
	limits []int
}

func (s *tagStub) Tags(context.Context) ([]string, error) {
	return []string{"anime", "music"}, nil
}

func (s *tagStub) ByTags(_ context.Context, tags []string, limit int) ([]models.TagRecommendation, error) {
	s.mu.Lock()
	s.calls = append(s.calls, tags)
	s.limits = append(s.limits, limit)
	s.mu.Unlock()
	return []models.TagRecommendation{{ID: "abc", Title: "tagged", Tags: tags}}, nil
}
