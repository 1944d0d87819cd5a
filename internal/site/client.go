// Package site scrapes the primary media site. Every call takes the caller's
// credential explicitly; the client itself holds no session state.
package site

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
)

// SessionCookiePrefix identifies the session cookie issued after login.
const SessionCookiePrefix = "SESS"

// Options tunes the HTTP behaviour of a Client.
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Transport         http.RoundTripper
}

// Client talks to the primary site.
type Client struct {
	base      *url.URL
	http      *http.Client
	transport http.RoundTripper
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
}

// New constructs a Client for the site rooted at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("site: invalid base url %q", baseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "mediadeck/1.0"
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	return &Client{
		base:      base,
		http:      &http.Client{Transport: opts.Transport, Timeout: opts.Timeout},
		transport: opts.Transport,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(limit, opts.Burst),
	}, nil
}

// BaseURL returns the site root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Login submits the login form and returns the session cookie as a credential.
func (c *Client) Login(ctx context.Context, username, password string) (models.Credential, error) {
	ctx, span := logging.StartSpan(ctx, "site.login")
	defer span.End()

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return models.Credential{}, fmt.Errorf("create cookie jar: %w", err)
	}
	client := &http.Client{Transport: c.transport, Timeout: c.timeout, Jar: jar}

	loginURL := c.endpoint("/user/login", nil)
	doc, err := c.fetchWith(ctx, client, models.Guest, http.MethodGet, loginURL, nil)
	if err != nil {
		span.Fail(err)
		return models.Credential{}, fmt.Errorf("load login form: %w", err)
	}

	form := url.Values{}
	form.Set("name", username)
	form.Set("pass", password)
	form.Set("form_id", "user_login")
	form.Set("op", "Log in")
	if buildID, ok := doc.Find(`form#user-login input[name="form_build_id"]`).Attr("value"); ok {
		form.Set("form_build_id", buildID)
	}

	doc, err = c.fetchWith(ctx, client, models.Guest, http.MethodPost, loginURL, form)
	if err != nil {
		span.Fail(err)
		return models.Credential{}, fmt.Errorf("submit login form: %w", err)
	}

	for _, cookie := range jar.Cookies(c.base) {
		if strings.HasPrefix(cookie.Name, SessionCookiePrefix) && cookie.Value != "" {
			return models.Credential{Token: cookie.Name + "=" + cookie.Value, Username: username}, nil
		}
	}

	msg := strings.TrimSpace(doc.Find(".messages.error").First().Text())
	span.Fail(fmt.Errorf("no session cookie: %s", msg))
	return models.Credential{}, ErrUnauthorized
}

// Self loads the profile of the credential's account.
func (c *Client) Self(ctx context.Context, cred models.Credential) (models.Profile, error) {
	if cred.IsGuest() {
		return models.Profile{}, ErrUnauthorized
	}
	doc, err := c.get(ctx, cred, "site.self", "/user", nil)
	if err != nil {
		return models.Profile{}, err
	}
	return parseSelf(doc)
}

// MediaList loads one zero-based page of the public video or image listing.
func (c *Client) MediaList(ctx context.Context, cred models.Credential, mediaType models.MediaType, page int, query models.QueryParam) ([]models.MediaPreview, error) {
	doc, err := c.get(ctx, cred, "site.media_list", listingPath(mediaType), listingValues(page, query))
	if err != nil {
		return nil, err
	}
	return parsePreviews(doc.Selection), nil
}

// Search loads one zero-based page of search results.
func (c *Client) Search(ctx context.Context, cred models.Credential, text string, page int, query models.QueryParam) ([]models.MediaPreview, error) {
	values := listingValues(page, query)
	values.Set("query", text)
	doc, err := c.get(ctx, cred, "site.search", "/search", values)
	if err != nil {
		return nil, err
	}
	return parsePreviews(doc.Selection), nil
}

// Subscriptions loads one zero-based page of uploads from followed users.
func (c *Client) Subscriptions(ctx context.Context, cred models.Credential, page int) ([]models.MediaPreview, error) {
	if cred.IsGuest() {
		return nil, ErrUnauthorized
	}
	doc, err := c.get(ctx, cred, "site.subscriptions", "/subscriptions", pageValues(page))
	if err != nil {
		return nil, err
	}
	return parsePreviews(doc.Selection), nil
}

// Likes loads one zero-based page of media the account liked.
func (c *Client) Likes(ctx context.Context, cred models.Credential, page int) ([]models.MediaPreview, error) {
	if cred.IsGuest() {
		return nil, ErrUnauthorized
	}
	doc, err := c.get(ctx, cred, "site.likes", "/user/liked", pageValues(page))
	if err != nil {
		return nil, err
	}
	return parsePreviews(doc.Selection), nil
}

// Detail loads the detail page of a video or image.
func (c *Client) Detail(ctx context.Context, cred models.Credential, mediaType models.MediaType, id string) (models.MediaDetail, error) {
	doc, err := c.get(ctx, cred, "site.detail", mediaPath(mediaType, id), nil)
	if err != nil {
		return models.MediaDetail{}, err
	}
	return parseDetail(doc, mediaType, id)
}

// Comments loads one zero-based page of comments on a video or image.
func (c *Client) Comments(ctx context.Context, cred models.Credential, mediaType models.MediaType, id string, page int) (models.CommentPage, error) {
	doc, err := c.get(ctx, cred, "site.comments", mediaPath(mediaType, id), pageValues(page))
	if err != nil {
		return models.CommentPage{}, err
	}
	return parseCommentPage(doc), nil
}

// UserComments loads one zero-based page of comments left on a user's page.
func (c *Client) UserComments(ctx context.Context, cred models.Credential, userID string, page int) (models.CommentPage, error) {
	doc, err := c.get(ctx, cred, "site.user_comments", "/users/"+url.PathEscape(userID), pageValues(page))
	if err != nil {
		return models.CommentPage{}, err
	}
	return parseCommentPage(doc), nil
}

// PostComment submits a comment on the node, optionally as a reply.
// replyTo is empty for a top level comment.
func (c *Client) PostComment(ctx context.Context, cred models.Credential, nodeID int, replyTo, body string, param models.CommentPostParam) error {
	if cred.IsGuest() {
		return ErrUnauthorized
	}
	path := "/comment/reply/" + strconv.Itoa(nodeID)
	if replyTo != "" {
		path += "/" + url.PathEscape(replyTo)
	}

	form := url.Values{}
	form.Set("comment_body[und][0][value]", body)
	form.Set("form_build_id", param.BuildID)
	form.Set("form_token", param.Token)
	form.Set("form_id", param.FormID)
	form.Set("op", "Save")

	ctx, span := logging.StartSpan(ctx, "site.post_comment", slog.Int("node_id", nodeID))
	defer span.End()

	_, err := c.fetchWith(ctx, c.http, cred, http.MethodPost, c.endpoint(path, nil), form)
	span.Fail(err)
	return err
}

// Like flags or unflags the media behind likeLink.
func (c *Client) Like(ctx context.Context, cred models.Credential, likeLink string, like bool) (models.LikeResult, error) {
	resp, err := c.flag(ctx, cred, "site.like", likeLink, like)
	if err != nil {
		return models.LikeResult{}, err
	}
	return models.LikeResult{Liked: resp.flagged(), Count: resp.Count}, nil
}

// Follow flags or unflags the user behind followLink.
func (c *Client) Follow(ctx context.Context, cred models.Credential, followLink string, follow bool) (models.FollowResult, error) {
	resp, err := c.flag(ctx, cred, "site.follow", followLink, follow)
	if err != nil {
		return models.FollowResult{}, err
	}
	return models.FollowResult{Following: resp.flagged()}, nil
}

// User loads a user's public page.
func (c *Client) User(ctx context.Context, cred models.Credential, userID string) (models.UserPage, error) {
	doc, err := c.get(ctx, cred, "site.user", "/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return models.UserPage{}, err
	}
	return parseUser(doc, userID)
}

// UserMedia loads one zero-based page of a user's uploads. ownerID is the
// MediaOwnerID parsed from the user page.
func (c *Client) UserMedia(ctx context.Context, cred models.Credential, ownerID string, mediaType models.MediaType, page int) ([]models.MediaPreview, error) {
	path := "/users/" + url.PathEscape(ownerID) + listingPath(mediaType)
	doc, err := c.get(ctx, cred, "site.user_media", path, pageValues(page))
	if err != nil {
		return nil, err
	}
	return parsePreviews(doc.Selection), nil
}

func (c *Client) get(ctx context.Context, cred models.Credential, spanName, path string, values url.Values) (*goquery.Document, error) {
	ctx, span := logging.StartSpan(ctx, spanName, slog.String("path", path))
	defer span.End()

	doc, err := c.fetchWith(ctx, c.http, cred, http.MethodGet, c.endpoint(path, values), nil)
	span.Fail(err)
	return doc, err
}

func (c *Client) fetchWith(ctx context.Context, client *http.Client, cred models.Credential, method, target string, form url.Values) (*goquery.Document, error) {
	resp, err := c.do(ctx, client, cred, method, target, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", target, err)
	}
	return doc, nil
}

func (c *Client) do(ctx context.Context, client *http.Client, cred models.Credential, method, target string, form url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if !cred.IsGuest() {
		req.Header.Set("Cookie", cred.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, URL: target}
	}
	return resp, nil
}

func (c *Client) endpoint(path string, values url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(c.base.Path, "/") + path
	if len(values) > 0 {
		u.RawQuery = values.Encode()
	}
	return u.String()
}

// resolve turns a site-relative link into an absolute URL on the site.
func (c *Client) resolve(link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", link, err)
	}
	resolved := c.base.ResolveReference(ref)
	if resolved.Host != c.base.Host {
		return "", fmt.Errorf("link %q leaves the site", link)
	}
	return resolved.String(), nil
}

func listingPath(mediaType models.MediaType) string {
	if mediaType == models.MediaTypeImage {
		return "/images"
	}
	return "/videos"
}

func mediaPath(mediaType models.MediaType, id string) string {
	return listingPath(mediaType) + "/" + url.PathEscape(id)
}

func pageValues(page int) url.Values {
	values := url.Values{}
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	return values
}

// listingValues encodes sort as sort=<mode> and filters as f[i]=<code> in
// sorted code order so equal queries produce identical URLs.
func listingValues(page int, query models.QueryParam) url.Values {
	values := pageValues(page)
	values.Set("sort", string(query.Clone().Sort))
	for i, code := range query.Codes() {
		values.Set(fmt.Sprintf("f[%d]", i), code)
	}
	return values
}
