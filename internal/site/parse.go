package site

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vidfriends/mediadeck/internal/models"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nodeIDRe     = regexp.MustCompile(`/node/(\d+)`)
)

func clean(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// lastSegment returns the final path segment of a link such as "/videos/abc?x=1".
func lastSegment(link string) string {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	return path.Base(strings.TrimSuffix(link, "/"))
}

func isLoginPage(doc *goquery.Document) bool {
	return doc.Find("form#user-login").Length() > 0
}

func parseSelf(doc *goquery.Document) (models.Profile, error) {
	if isLoginPage(doc) {
		return models.Profile{}, ErrUnauthorized
	}
	profile := doc.Find(".user-profile").First()
	if profile.Length() == 0 {
		return models.Profile{}, fmt.Errorf("%w: profile block missing", ErrUnexpectedMarkup)
	}

	out := models.Profile{
		ID:       profile.AttrOr("data-user-id", ""),
		Nickname: clean(profile.Find(".username").First().Text()),
	}
	out.AvatarURL, _ = profile.Find(".user-picture img").Attr("src")
	if n, err := strconv.Atoi(clean(profile.Find(".friend-requests .count").Text())); err == nil {
		out.FriendRequests = n
	}
	if out.Nickname == "" {
		return models.Profile{}, fmt.Errorf("%w: profile nickname missing", ErrUnexpectedMarkup)
	}
	return out, nil
}

// parsePreviews collects every preview card under root in document order.
// Cards without a link are skipped.
func parsePreviews(root *goquery.Selection) []models.MediaPreview {
	items := make([]models.MediaPreview, 0)
	root.Find(".views-row .node").Each(func(_ int, node *goquery.Selection) {
		if preview, ok := parsePreview(node); ok {
			items = append(items, preview)
		}
	})
	return items
}

func parsePreview(node *goquery.Selection) (models.MediaPreview, bool) {
	link, ok := node.Find("h3.title a").Attr("href")
	if !ok || link == "" {
		return models.MediaPreview{}, false
	}

	mediaType := models.MediaTypeVideo
	if node.HasClass("node-image") {
		mediaType = models.MediaTypeImage
	}

	preview := models.MediaPreview{
		ID:      lastSegment(link),
		Title:   clean(node.Find("h3.title a").Text()),
		Author:  clean(node.Find("a.username").First().Text()),
		Type:    mediaType,
		Watches: clean(node.Find(".left-icon").First().Text()),
		Likes:   clean(node.Find(".right-icon").First().Text()),
		Private: node.HasClass("private") || node.Find(".private-video").Length() > 0,
	}
	preview.PreviewURL, _ = node.Find(".field-item img").First().Attr("src")
	return preview, true
}

func parseDetail(doc *goquery.Document, mediaType models.MediaType, id string) (models.MediaDetail, error) {
	info := doc.Find(".node-info").First()
	title := clean(info.Find("h1.title").First().Text())
	if info.Length() == 0 || title == "" {
		return models.MediaDetail{}, fmt.Errorf("%w: detail header missing", ErrUnexpectedMarkup)
	}

	detail := models.MediaDetail{
		ID:          id,
		Type:        mediaType,
		Title:       title,
		Description: clean(doc.Find(".field-name-body").First().Text()),
		AuthorName:  clean(info.Find("a.username").First().Text()),
		Posted:      clean(info.Find(".submitted").First().Text()),
		Watches:     clean(doc.Find(".node-views").First().Text()),
		Likes:       clean(doc.Find(".node-likes").First().Text()),
	}
	if href, ok := info.Find("a.username").First().Attr("href"); ok {
		detail.AuthorID = lastSegment(href)
	}
	detail.AuthorAvatar, _ = info.Find(".user-picture img").First().Attr("src")

	if shortlink, ok := doc.Find(`link[rel="shortlink"]`).Attr("href"); ok {
		if m := nodeIDRe.FindStringSubmatch(shortlink); m != nil {
			detail.NodeID, _ = strconv.Atoi(m[1])
		}
	}

	like := doc.Find(".flag-like a").First()
	detail.LikeLink, _ = like.Attr("href")
	detail.Liked = like.HasClass("unflag-action")

	follow := doc.Find(".flag-follow a").First()
	detail.FollowLink, _ = follow.Attr("href")
	detail.Following = follow.HasClass("unflag-action")

	switch mediaType {
	case models.MediaTypeVideo:
		detail.SourceURL, _ = doc.Find("video source").First().Attr("src")
	case models.MediaTypeImage:
		doc.Find(".field-name-field-images img").Each(func(_ int, img *goquery.Selection) {
			if src, ok := img.Attr("src"); ok && src != "" {
				detail.ImageURLs = append(detail.ImageURLs, src)
			}
		})
	}

	if more := doc.Find(".more-from-user"); more.Length() > 0 {
		detail.MoreFromUser = parsePreviews(more)
	}
	detail.CommentParam = parseCommentParam(doc)
	return detail, nil
}

func parseCommentParam(doc *goquery.Document) models.CommentPostParam {
	form := doc.Find("form.comment-form").First()
	return models.CommentPostParam{
		BuildID: form.Find(`input[name="form_build_id"]`).AttrOr("value", ""),
		Token:   form.Find(`input[name="form_token"]`).AttrOr("value", ""),
		FormID:  form.Find(`input[name="form_id"]`).AttrOr("value", ""),
	}
}

func parseCommentPage(doc *goquery.Document) models.CommentPage {
	section := doc.Find("#comments").First()
	page := models.CommentPage{
		Comments: parseCommentThread(section),
		Param:    parseCommentParam(doc),
	}
	if total, err := strconv.Atoi(section.AttrOr("data-count", "")); err == nil {
		page.Total = total
	} else {
		page.Total = len(page.Comments)
	}
	return page
}

// parseCommentThread walks the direct children of a comment container: each
// .comment is a comment, and an .indented block holds the replies to the
// comment right before it.
func parseCommentThread(container *goquery.Selection) []models.Comment {
	comments := make([]models.Comment, 0)
	container.Children().Each(func(_ int, child *goquery.Selection) {
		switch {
		case child.HasClass("comment"):
			comments = append(comments, parseComment(child))
		case child.HasClass("indented") && len(comments) > 0:
			last := &comments[len(comments)-1]
			last.Replies = append(last.Replies, parseCommentThread(child)...)
		}
	})
	return comments
}

func parseComment(node *goquery.Selection) models.Comment {
	author := node.Find("a.username").First()
	comment := models.Comment{
		ID:         node.AttrOr("data-comment-id", ""),
		AuthorName: clean(author.Text()),
		Posted:     clean(node.Find(".submitted").First().Text()),
		Body:       clean(node.Find(".field-name-comment-body").First().Text()),
		FromAuthor: node.HasClass("by-node-author"),
	}
	if href, ok := author.Attr("href"); ok {
		comment.AuthorID = lastSegment(href)
	}
	comment.AvatarURL, _ = node.Find(".user-picture img").First().Attr("src")
	return comment
}

func parseUser(doc *goquery.Document, userID string) (models.UserPage, error) {
	profile := doc.Find(".user-profile").First()
	username := clean(profile.Find(".username").First().Text())
	if profile.Length() == 0 || username == "" {
		return models.UserPage{}, fmt.Errorf("%w: user profile missing", ErrUnexpectedMarkup)
	}

	page := models.UserPage{
		ID:       userID,
		Username: username,
		About:    clean(profile.Find(".field-name-field-about").First().Text()),
		JoinDate: clean(profile.Find(".views-field-created .field-content").First().Text()),
		LastSeen: clean(profile.Find(".views-field-login .field-content").First().Text()),
	}
	page.AvatarURL, _ = profile.Find(".user-picture img").First().Attr("src")

	// uploads are listed under a different id than the profile path
	if href, ok := doc.Find("a.user-media-link").First().Attr("href"); ok {
		parts := strings.Split(strings.Trim(href, "/"), "/")
		if len(parts) >= 2 && parts[0] == "users" {
			page.MediaOwnerID = parts[1]
		}
	}
	if page.MediaOwnerID == "" {
		page.MediaOwnerID = userID
	}

	follow := doc.Find(".flag-follow a").First()
	page.FollowLink, _ = follow.Attr("href")
	page.Following = follow.HasClass("unflag-action")
	page.FriendLink, _ = doc.Find(".flag-friends a").First().Attr("href")
	return page, nil
}
