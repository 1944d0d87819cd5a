package viewstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/vidfriends/mediadeck/internal/auth"
	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/paging"
)

// User holds another account's page, uploads and comments.
type User struct {
	holder *auth.Holder
	media  MediaSource

	ID string

	mu     sync.Mutex
	page   models.UserPage
	loaded bool

	Videos   *paging.Provider[models.MediaPreview]
	Images   *paging.Provider[models.MediaPreview]
	Comments *paging.Provider[models.Comment]
}

// NewUser returns an unloaded holder for the account.
func NewUser(holder *auth.Holder, media MediaSource, id string) *User {
	u := &User{holder: holder, media: media, ID: id}
	u.Videos = paging.New("user.videos", u.mediaFetch(models.MediaTypeVideo))
	u.Images = paging.New("user.images", u.mediaFetch(models.MediaTypeImage))
	u.Comments = paging.New("user.comments", func(ctx context.Context, index int, _ models.QueryParam) ([]models.Comment, error) {
		page, err := media.UserComments(ctx, holder.Credential(), id, index)
		if err != nil {
			return nil, err
		}
		return page.Comments, nil
	})
	return u
}

func (u *User) mediaFetch(mediaType models.MediaType) paging.FetchFunc[models.MediaPreview] {
	return func(ctx context.Context, index int, _ models.QueryParam) ([]models.MediaPreview, error) {
		return u.media.UserMedia(ctx, u.holder.Credential(), u.ownerID(), mediaType, index)
	}
}

// ownerID is the id used in the uploads listing, which may differ from the
// profile id. It falls back to the profile id until the page is loaded.
func (u *User) ownerID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.page.MediaOwnerID != "" {
		return u.page.MediaOwnerID
	}
	return u.ID
}

// Media returns the uploads provider for a media type.
func (u *User) Media(mediaType models.MediaType) *paging.Provider[models.MediaPreview] {
	if mediaType == models.MediaTypeImage {
		return u.Images
	}
	return u.Videos
}

// Open fetches the user page.
func (u *User) Open(ctx context.Context) (models.UserPage, error) {
	page, err := u.media.User(ctx, u.holder.Credential(), u.ID)
	if err != nil {
		return models.UserPage{}, fmt.Errorf("load user %s: %w", u.ID, err)
	}

	u.mu.Lock()
	u.page = page
	u.loaded = true
	u.mu.Unlock()
	return page, nil
}

// Page returns the loaded user page and whether it has been loaded.
func (u *User) Page() (models.UserPage, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.page, u.loaded
}

// Follow toggles following this user.
func (u *User) Follow(ctx context.Context) (models.FollowResult, error) {
	page, ok := u.Page()
	if !ok {
		return models.FollowResult{}, ErrNotLoaded
	}

	result, err := u.media.Follow(ctx, u.holder.Credential(), page.FollowLink, !page.Following)
	if err != nil {
		return models.FollowResult{}, fmt.Errorf("follow %s: %w", page.Username, err)
	}

	u.mu.Lock()
	u.page.Following = result.Following
	u.mu.Unlock()
	return result, nil
}
