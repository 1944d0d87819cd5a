package viewstate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vidfriends/mediadeck/internal/auth"
	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/paging"
)

// Detail holds one video or image page with its comments.
type Detail struct {
	holder *auth.Holder
	media  MediaSource

	Type models.MediaType
	ID   string

	mu           sync.Mutex
	detail       models.MediaDetail
	loaded       bool
	commentTotal int
	commentParam models.CommentPostParam

	Comments *paging.Provider[models.Comment]
}

// NewDetail returns an unloaded holder for the media item.
func NewDetail(holder *auth.Holder, media MediaSource, mediaType models.MediaType, id string) *Detail {
	d := &Detail{holder: holder, media: media, Type: mediaType, ID: id}
	d.Comments = paging.New("detail.comments", func(ctx context.Context, index int, _ models.QueryParam) ([]models.Comment, error) {
		page, err := media.Comments(ctx, holder.Credential(), mediaType, id, index)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.commentTotal = page.Total
		if page.Param != (models.CommentPostParam{}) {
			d.commentParam = page.Param
		}
		d.mu.Unlock()
		return page.Comments, nil
	})
	return d
}

// Open loads the detail page and the first page of comments concurrently.
// Comment failures are reported through the Comments provider.
func (d *Detail) Open(ctx context.Context) (models.MediaDetail, error) {
	var g errgroup.Group
	g.Go(func() error {
		return d.Refresh(ctx)
	})
	g.Go(func() error {
		d.Comments.Load(ctx, 1, models.DefaultQuery())
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.MediaDetail{}, err
	}
	detail, _ := d.Detail()
	return detail, nil
}

// Refresh fetches the detail page again.
func (d *Detail) Refresh(ctx context.Context) error {
	detail, err := d.media.Detail(ctx, d.holder.Credential(), d.Type, d.ID)
	if err != nil {
		return fmt.Errorf("load %s: %w", models.Route(d.Type, d.ID), err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.detail = detail
	d.loaded = true
	if detail.CommentParam != (models.CommentPostParam{}) {
		d.commentParam = detail.CommentParam
	}
	return nil
}

// Detail returns the loaded page and whether it has been loaded.
func (d *Detail) Detail() (models.MediaDetail, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detail, d.loaded
}

// CommentTotal returns the comment count reported by the last comments page.
func (d *Detail) CommentTotal() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commentTotal
}

// Like toggles the like flag.
func (d *Detail) Like(ctx context.Context) (models.LikeResult, error) {
	detail, ok := d.Detail()
	if !ok {
		return models.LikeResult{}, ErrNotLoaded
	}

	result, err := d.media.Like(ctx, d.holder.Credential(), detail.LikeLink, !detail.Liked)
	if err != nil {
		return models.LikeResult{}, fmt.Errorf("like %s: %w", models.Route(d.Type, d.ID), err)
	}

	d.mu.Lock()
	d.detail.Liked = result.Liked
	d.detail.Likes = strconv.Itoa(result.Count)
	d.mu.Unlock()
	return result, nil
}

// Follow toggles following the author.
func (d *Detail) Follow(ctx context.Context) (models.FollowResult, error) {
	detail, ok := d.Detail()
	if !ok {
		return models.FollowResult{}, ErrNotLoaded
	}

	result, err := d.media.Follow(ctx, d.holder.Credential(), detail.FollowLink, !detail.Following)
	if err != nil {
		return models.FollowResult{}, fmt.Errorf("follow %s: %w", detail.AuthorName, err)
	}

	d.mu.Lock()
	d.detail.Following = result.Following
	d.mu.Unlock()
	return result, nil
}

// PostComment submits a comment, or a reply when replyTo is set, and then
// reloads the current comments page.
func (d *Detail) PostComment(ctx context.Context, replyTo, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrEmptyComment
	}

	d.mu.Lock()
	loaded, nodeID, param := d.loaded, d.detail.NodeID, d.commentParam
	d.mu.Unlock()
	if !loaded {
		return ErrNotLoaded
	}

	if err := d.media.PostComment(ctx, d.holder.Credential(), nodeID, replyTo, body, param); err != nil {
		return fmt.Errorf("post comment: %w", err)
	}
	d.Comments.Reload(ctx)
	return nil
}
