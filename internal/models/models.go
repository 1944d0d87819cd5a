package models

import (
	"fmt"
	"strings"
	"time"
)

// MediaType distinguishes the two kinds of content hosted by the primary site.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
)

// ParseMediaType converts user input into a MediaType.
func ParseMediaType(value string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video", "videos":
		return MediaTypeVideo, nil
	case "image", "images":
		return MediaTypeImage, nil
	default:
		return "", fmt.Errorf("unknown media type %q", value)
	}
}

// Credential is the authentication value sent with every remote request.
// It is never mutated after construction; a new login yields a new value.
type Credential struct {
	Token    string `json:"-"`
	Username string `json:"username,omitempty"`
}

// Guest is the credential used before login and after logout.
var Guest = Credential{}

// IsGuest reports whether the credential carries no session token.
func (c Credential) IsGuest() bool {
	return c.Token == ""
}

// Profile is the lightweight view of the logged in account.
type Profile struct {
	ID             string `json:"id"`
	Nickname       string `json:"nickname"`
	AvatarURL      string `json:"avatarUrl"`
	FriendRequests int    `json:"friendRequests"`
}

// GuestProfile is shown while no account is logged in.
var GuestProfile = Profile{Nickname: "guest"}

// IsGuest reports whether the profile is the guest placeholder.
func (p Profile) IsGuest() bool {
	return p == GuestProfile
}

// MediaPreview is the summary card for one video or image.
type MediaPreview struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	PreviewURL string    `json:"previewUrl"`
	Type       MediaType `json:"type"`
	Watches    string    `json:"watches"`
	Likes      string    `json:"likes"`
	Private    bool      `json:"private"`
}

// Route returns the navigation destination for the preview.
func (m MediaPreview) Route() string {
	return Route(m.Type, m.ID)
}

// Route builds a detail route such as "video/abc".
func Route(mediaType MediaType, id string) string {
	return fmt.Sprintf("%s/%s", mediaType, id)
}

// CommentPostParam carries the hidden form values required to submit a comment.
type CommentPostParam struct {
	BuildID string `json:"buildId"`
	Token   string `json:"token"`
	FormID  string `json:"formId"`
}

// MediaDetail is the parsed detail page of one video or image.
type MediaDetail struct {
	ID           string           `json:"id"`
	NodeID       int              `json:"nodeId"`
	Type         MediaType        `json:"type"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	AuthorID     string           `json:"authorId"`
	AuthorName   string           `json:"authorName"`
	AuthorAvatar string           `json:"authorAvatar"`
	Posted       string           `json:"posted"`
	Watches      string           `json:"watches"`
	Likes        string           `json:"likes"`
	Liked        bool             `json:"liked"`
	Following    bool             `json:"following"`
	LikeLink     string           `json:"likeLink"`
	FollowLink   string           `json:"followLink"`
	SourceURL    string           `json:"sourceUrl,omitempty"`
	ImageURLs    []string         `json:"imageUrls,omitempty"`
	MoreFromUser []MediaPreview   `json:"moreFromUser,omitempty"`
	CommentParam CommentPostParam `json:"-"`
}

// Comment is a single comment with its nested replies.
type Comment struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	AvatarURL  string    `json:"avatarUrl"`
	Posted     string    `json:"posted"`
	Body       string    `json:"body"`
	FromAuthor bool      `json:"fromAuthor"`
	Replies    []Comment `json:"replies,omitempty"`
}

// CommentPage is one page of comments.
type CommentPage struct {
	Total    int              `json:"total"`
	Comments []Comment        `json:"comments"`
	Param    CommentPostParam `json:"-"`
}

// UserPage is the public profile of another account.
type UserPage struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	AvatarURL    string `json:"avatarUrl"`
	About        string `json:"about"`
	JoinDate     string `json:"joinDate"`
	LastSeen     string `json:"lastSeen"`
	MediaOwnerID string `json:"mediaOwnerId"`
	Following    bool   `json:"following"`
	FollowLink   string `json:"followLink"`
	FriendLink   string `json:"friendLink"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// FollowResult is the outcome of a follow toggle.
type FollowResult struct {
	Following bool `json:"following"`
}

// RecommendCategory selects a listing on the recommendation site.
type RecommendCategory string

const (
	RecommendHot       RecommendCategory = "hot"
	RecommendFavorites RecommendCategory = "favorites"
	RecommendLatest    RecommendCategory = "latest"
	RecommendPopular   RecommendCategory = "popular"
)

// RecommendCategories lists every category in display order.
var RecommendCategories = []RecommendCategory{
	RecommendHot,
	RecommendFavorites,
	RecommendLatest,
	RecommendPopular,
}

// ParseRecommendCategory converts user input into a RecommendCategory.
func ParseRecommendCategory(value string) (RecommendCategory, error) {
	v := RecommendCategory(strings.ToLower(strings.TrimSpace(value)))
	for _, c := range RecommendCategories {
		if c == v {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown recommendation category %q", value)
}

// RecommendPreview is a summary card from the recommendation site.
type RecommendPreview struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	PreviewURL string `json:"previewUrl"`
}

// TagRecommendation is a primary site video suggested for a set of tags by
// the tag recommendation service.
type TagRecommendation struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	PreviewURL string   `json:"previewUrl"`
	Tags       []string `json:"tags,omitempty"`
}

// Route returns the primary site detail route of the video.
func (t TagRecommendation) Route() string {
	return Route(MediaTypeVideo, t.ID)
}

// Snapshot is an archived listing page.
type Snapshot struct {
	Kind      string    `json:"kind"`
	Page      int       `json:"page"`
	Query     string    `json:"query,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
	Items     any       `json:"items"`
}

// Link is a fixed community link shown to users.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
