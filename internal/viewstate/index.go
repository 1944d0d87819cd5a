package viewstate

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/paging"
	"github.com/vidfriends/mediadeck/internal/recommend"
)

// TagRecommendationLimit is the number of videos requested per tag set.
const TagRecommendationLimit = 16

// Index is the session-scoped landing state: the profile plus the owned
// listings, the recommendation categories and the tag recommendations.
type Index struct {
	*Scope

	session  SessionManager
	resolver recommend.Resolver

	profileLoads atomic.Int32

	Videos          *paging.Provider[models.MediaPreview]
	Images          *paging.Provider[models.MediaPreview]
	Subscriptions   *paging.Provider[models.MediaPreview]
	Likes           *paging.Provider[models.MediaPreview]
	Recommendations map[models.RecommendCategory]*paging.Provider[models.RecommendPreview]

	// RecommendTags lists every tag the recommendation service knows.
	RecommendTags *paging.Provider[string]
	// TagRecommendations holds videos for the tag set carried in the query
	// filters. The service does not page, so only page 1 is meaningful.
	TagRecommendations *paging.Provider[models.TagRecommendation]
}

// NewIndex wires the index providers. The returned Index lives until Close.
func NewIndex(parent context.Context, session SessionManager, media MediaSource, recs RecommendSource, tags TagSource, resolver recommend.Resolver) *Index {
	idx := &Index{
		Scope:           NewScope(parent),
		session:         session,
		resolver:        resolver,
		Recommendations: make(map[models.RecommendCategory]*paging.Provider[models.RecommendPreview], len(models.RecommendCategories)),
	}

	idx.Videos = paging.New("index.videos", idx.mediaFetch(media, models.MediaTypeVideo))
	idx.Images = paging.New("index.images", idx.mediaFetch(media, models.MediaTypeImage))
	idx.Subscriptions = paging.New("index.subscriptions", func(ctx context.Context, index int, _ models.QueryParam) ([]models.MediaPreview, error) {
		return media.Subscriptions(ctx, idx.credential(), index)
	})
	idx.Likes = paging.New("index.likes", func(ctx context.Context, index int, _ models.QueryParam) ([]models.MediaPreview, error) {
		return media.Likes(ctx, idx.credential(), index)
	})

	for _, category := range models.RecommendCategories {
		idx.Recommendations[category] = paging.New("index.recommend."+string(category),
			func(ctx context.Context, index int, _ models.QueryParam) ([]models.RecommendPreview, error) {
				return recs.Previews(ctx, category, index+1)
			})
	}

	idx.RecommendTags = paging.New("index.recommend_tags", func(ctx context.Context, _ int, _ models.QueryParam) ([]string, error) {
		if tags == nil {
			return nil, recommend.ErrUnavailable
		}
		return tags.Tags(ctx)
	})
	idx.TagRecommendations = paging.New("index.tag_recommendations", func(ctx context.Context, _ int, query models.QueryParam) ([]models.TagRecommendation, error) {
		if tags == nil {
			return nil, recommend.ErrUnavailable
		}
		chosen := query.Codes()
		if len(chosen) == 0 {
			return nil, ErrNoTags
		}
		return tags.ByTags(ctx, chosen, TagRecommendationLimit)
	})

	return idx
}

func (i *Index) mediaFetch(media MediaSource, mediaType models.MediaType) paging.FetchFunc[models.MediaPreview] {
	return func(ctx context.Context, index int, query models.QueryParam) ([]models.MediaPreview, error) {
		return media.MediaList(ctx, i.credential(), mediaType, index, query)
	}
}

func (i *Index) credential() models.Credential {
	return i.session.Holder().Credential()
}

// Media returns the owned listing provider for a media type.
func (i *Index) Media(mediaType models.MediaType) *paging.Provider[models.MediaPreview] {
	if mediaType == models.MediaTypeImage {
		return i.Images
	}
	return i.Videos
}

// Recommendation returns the provider for category.
func (i *Index) Recommendation(category models.RecommendCategory) (*paging.Provider[models.RecommendPreview], error) {
	p, ok := i.Recommendations[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return p, nil
}

// Profile returns the current profile, the guest placeholder when logged out.
func (i *Index) Profile() models.Profile {
	return i.session.Holder().Current().Profile
}

// LoadingProfile reports whether any profile refresh is in flight.
func (i *Index) LoadingProfile() bool {
	return i.profileLoads.Load() > 0
}

// LastLogin returns the last submitted login identifier.
func (i *Index) LastLogin(ctx context.Context) (string, error) {
	return i.session.LastLogin(ctx)
}

// RefreshProfile fetches the logged in profile again.
func (i *Index) RefreshProfile(ctx context.Context) (models.Profile, error) {
	i.profileLoads.Add(1)
	defer i.profileLoads.Add(-1)

	profile, err := i.session.RefreshProfile(ctx)
	if err != nil {
		return models.Profile{}, fmt.Errorf("refresh profile: %w", err)
	}
	return profile, nil
}

// RefreshAll reloads the profile and every listing concurrently. A failure in
// one does not cancel the others. Listing failures surface in their provider
// state; only a profile failure is returned.
func (i *Index) RefreshAll(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		_, err := i.RefreshProfile(ctx)
		return err
	})

	for _, p := range []*paging.Provider[models.MediaPreview]{i.Videos, i.Images, i.Subscriptions, i.Likes} {
		g.Go(func() error {
			p.Reload(ctx)
			return nil
		})
	}
	for _, category := range models.RecommendCategories {
		p := i.Recommendations[category]
		g.Go(func() error {
			p.Reload(ctx)
			return nil
		})
	}
	g.Go(func() error {
		i.RecommendTags.Reload(ctx)
		return nil
	})

	return g.Wait()
}

// Warm starts RefreshAll in the background, bound to the index lifetime.
func (i *Index) Warm() bool {
	return i.Go(func(ctx context.Context) {
		_ = i.RefreshAll(ctx)
	})
}

// RecommendByTags loads videos for the chosen tags. The tag set is the
// query's filter set, so choosing the same tags again does not refetch.
func (i *Index) RecommendByTags(ctx context.Context, tags ...string) paging.State[models.TagRecommendation] {
	return i.TagRecommendations.Load(ctx, 1, models.NewQueryParam(models.SortDate, tags...))
}

// OpenRecommendation resolves a recommendation to a primary site video id.
// found is false when the recommendation has no primary counterpart.
func (i *Index) OpenRecommendation(ctx context.Context, id int) (string, bool, error) {
	if i.resolver == nil {
		return "", false, recommend.ErrUnavailable
	}
	return i.resolver.Lookup(ctx, id)
}
