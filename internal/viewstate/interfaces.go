// Package viewstate holds the per-screen state of the client: the index,
// search, login, media detail and user pages. Every holder reads the session
// credential at call time and exposes paged lists through paging.Provider.
package viewstate

import (
	"context"

	"github.com/vidfriends/mediadeck/internal/auth"
	"github.com/vidfriends/mediadeck/internal/models"
)

// MediaSource captures the primary site operations used by the holders.
// *site.Client satisfies it.
type MediaSource interface {
	MediaList(ctx context.Context, cred models.Credential, mediaType models.MediaType, page int, query models.QueryParam) ([]models.MediaPreview, error)
	Search(ctx context.Context, cred models.Credential, text string, page int, query models.QueryParam) ([]models.MediaPreview, error)
	Subscriptions(ctx context.Context, cred models.Credential, page int) ([]models.MediaPreview, error)
	Likes(ctx context.Context, cred models.Credential, page int) ([]models.MediaPreview, error)
	Detail(ctx context.Context, cred models.Credential, mediaType models.MediaType, id string) (models.MediaDetail, error)
	Comments(ctx context.Context, cred models.Credential, mediaType models.MediaType, id string, page int) (models.CommentPage, error)
	UserComments(ctx context.Context, cred models.Credential, userID string, page int) (models.CommentPage, error)
	PostComment(ctx context.Context, cred models.Credential, nodeID int, replyTo, body string, param models.CommentPostParam) error
	Like(ctx context.Context, cred models.Credential, likeLink string, like bool) (models.LikeResult, error)
	Follow(ctx context.Context, cred models.Credential, followLink string, follow bool) (models.FollowResult, error)
	User(ctx context.Context, cred models.Credential, userID string) (models.UserPage, error)
	UserMedia(ctx context.Context, cred models.Credential, ownerID string, mediaType models.MediaType, page int) ([]models.MediaPreview, error)
}

// RecommendSource loads recommendation previews. Pages are one-based.
type RecommendSource interface {
	Previews(ctx context.Context, category models.RecommendCategory, page int) ([]models.RecommendPreview, error)
}

// TagSource reads the tag recommendation service. *recommend.TagClient
// satisfies it.
type TagSource interface {
	Tags(ctx context.Context) ([]string, error)
	ByTags(ctx context.Context, tags []string, limit int) ([]models.TagRecommendation, error)
}

// SessionManager is the subset of *auth.Manager the holders depend on.
type SessionManager interface {
	Holder() *auth.Holder
	Login(ctx context.Context, username, password string) (auth.State, error)
	LastLogin(ctx context.Context) (string, error)
	RefreshProfile(ctx context.Context) (models.Profile, error)
}
