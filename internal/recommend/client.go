// Package recommend reads the secondary recommendation site and maps its
// entries back to the primary site.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
)

// PageSize is the number of previews the site returns per page.
const PageSize = 36

// Resolver maps a recommendation id to a primary site video id.
type Resolver interface {
	Lookup(ctx context.Context, id int) (string, bool, error)
}

// Client reads the recommendation site.
type Client struct {
	base        *url.URL
	primaryHost string
	http        *http.Client
}

// New constructs a Client. primaryURL is the primary site root, used to
// recognise links back into it.
func New(baseURL, primaryURL string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("recommend: invalid base url %q", baseURL)
	}
	primary, err := url.Parse(primaryURL)
	if err != nil || primary.Host == "" {
		return nil, fmt.Errorf("recommend: invalid primary url %q", primaryURL)
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		base:        base,
		primaryHost: primary.Host,
		http:        &http.Client{Timeout: timeout},
	}, nil
}

// Previews loads one page of a category. The site numbers pages from one.
func (c *Client) Previews(ctx context.Context, category models.RecommendCategory, page int) ([]models.RecommendPreview, error) {
	if c == nil {
		return nil, ErrUnavailable
	}
	if page < 1 {
		page = 1
	}

	values := url.Values{}
	values.Set("sort", string(category))
	values.Set("page", strconv.Itoa(page))

	ctx, span := logging.StartSpan(ctx, "recommend.previews", slog.String("category", string(category)), slog.Int("page", page))
	defer span.End()

	doc, err := c.fetch(ctx, "/movies", values)
	if err != nil {
		span.Fail(err)
		return nil, err
	}

	items := make([]models.RecommendPreview, 0, PageSize)
	doc.Find("article.movie").Each(func(_ int, node *goquery.Selection) {
		href, ok := node.Find("a").First().Attr("href")
		if !ok {
			return
		}
		id, err := strconv.Atoi(lastSegment(href))
		if err != nil {
			return
		}
		preview := models.RecommendPreview{
			ID:     id,
			Title:  strings.TrimSpace(node.Find(".movie-title").First().Text()),
			Author: strings.TrimSpace(node.Find(".movie-author").First().Text()),
		}
		preview.PreviewURL, _ = node.Find("img").First().Attr("src")
		items = append(items, preview)
	})
	return items, nil
}

// Lookup finds the primary site video linked from a recommendation. A page
// without such a link, or no page at all, yields found == false and no error.
func (c *Client) Lookup(ctx context.Context, id int) (string, bool, error) {
	if c == nil {
		return "", false, ErrUnavailable
	}

	ctx, span := logging.StartSpan(ctx, "recommend.lookup", slog.Int("id", id))
	defer span.End()

	doc, err := c.fetch(ctx, "/movies/"+strconv.Itoa(id), nil)
	if errors.Is(err, errPageMissing) {
		return "", false, nil
	}
	if err != nil {
		span.Fail(err)
		return "", false, err
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		u, err := url.Parse(href)
		if err != nil || u.Host != c.primaryHost {
			return true
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && parts[0] == "videos" && parts[1] != "" {
			found = parts[1]
			return false
		}
		return true
	})
	return found, found != "", nil
}

func (c *Client) fetch(ctx context.Context, path string, values url.Values) (*goquery.Document, error) {
	u := *c.base
	u.Path = strings.TrimSuffix(c.base.Path, "/") + path
	if len(values) > 0 {
		u.RawQuery = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w for %s", ErrBadResponse, errPageMissing, u.String())
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s for %s", ErrBadResponse, resp.Status, u.String())
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u.String(), err)
	}
	return doc, nil
}

func lastSegment(link string) string {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	link = strings.TrimSuffix(link, "/")
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[i+1:]
	}
	return link
}
