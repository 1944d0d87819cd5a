package viewstate

import (
	"context"
	"strings"
	"sync"

	"github.com/vidfriends/mediadeck/internal/auth"
	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/paging"
)

// Search holds the editable search form and its result list.
type Search struct {
	holder *auth.Holder

	mu    sync.Mutex
	text  string
	param models.QueryParam

	Results *paging.Provider[models.MediaPreview]
}

// NewSearch returns an empty search form sorted by date.
func NewSearch(holder *auth.Holder, media MediaSource) *Search {
	s := &Search{holder: holder, param: models.DefaultQuery()}
	s.Results = paging.New("search.results", func(ctx context.Context, index int, query models.QueryParam) ([]models.MediaPreview, error) {
		return media.Search(ctx, s.holder.Credential(), query.Text, index, query)
	})
	return s
}

// SetText replaces the query text. Line breaks are removed.
func (s *Search) SetText(text string) {
	text = strings.NewReplacer("\r", "", "\n", "").Replace(text)

	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

// Text returns the current query text.
func (s *Search) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Param returns a copy of the current sort and filters.
func (s *Search) Param() models.QueryParam {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.param.Clone()
}

// ToggleFilter adds the filter code when absent and removes it when present.
func (s *Search) ToggleFilter(code string) models.QueryParam {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.param = s.param.Toggle(code)
	return s.param.Clone()
}

// SetSort changes the sort mode.
func (s *Search) SetSort(mode models.SortMode) models.QueryParam {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.param = s.param.WithSort(mode)
	return s.param.Clone()
}

// SetParam replaces the sort and filters wholesale.
func (s *Search) SetParam(param models.QueryParam) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.param = param.Clone()
}

// Submit loads page of the results for the current text and param. Blank
// text is rejected with ErrEmptyQuery and leaves the results untouched. The
// text travels in the query, so results for older text are never reused.
func (s *Search) Submit(ctx context.Context, page int) (paging.State[models.MediaPreview], error) {
	s.mu.Lock()
	text := strings.TrimSpace(s.text)
	query := s.param.WithText(text)
	s.mu.Unlock()

	if text == "" {
		return paging.State[models.MediaPreview]{}, ErrEmptyQuery
	}
	return s.Results.Load(ctx, page, query), nil
}
