package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
)

// TagClient reads the JSON tag recommendation service.
type TagClient struct {
	base *url.URL
	http *http.Client
}

// NewTagClient constructs a TagClient for the service rooted at baseURL.
func NewTagClient(baseURL string, timeout time.Duration) (*TagClient, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("recommend: invalid tag service url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &TagClient{base: base, http: &http.Client{Timeout: timeout}}, nil
}

// Tags lists every tag the service can recommend by.
func (c *TagClient) Tags(ctx context.Context) ([]string, error) {
	if c == nil {
		return nil, ErrUnavailable
	}

	ctx, span := logging.StartSpan(ctx, "recommend.tags")
	defer span.End()

	var tags []string
	if err := c.getJSON(ctx, "/recommend/tags", nil, &tags); err != nil {
		span.Fail(err)
		return nil, err
	}
	return tags, nil
}

// ByTags returns up to limit videos matching the tags.
func (c *TagClient) ByTags(ctx context.Context, tags []string, limit int) ([]models.TagRecommendation, error) {
	if c == nil {
		return nil, ErrUnavailable
	}

	values := url.Values{}
	values.Set("tags", strings.Join(tags, ","))
	values.Set("limit", strconv.Itoa(limit))

	ctx, span := logging.StartSpan(ctx, "recommend.by_tags", slog.Int("tags", len(tags)), slog.Int("limit", limit))
	defer span.End()

	var items []models.TagRecommendation
	if err := c.getJSON(ctx, "/recommend", values, &items); err != nil {
		span.Fail(err)
		return nil, err
	}
	return items, nil
}

func (c *TagClient) getJSON(ctx context.Context, path string, values url.Values, dst any) error {
	u := *c.base
	u.Path = strings.TrimSuffix(c.base.Path, "/") + path
	if len(values) > 0 {
		u.RawQuery = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", u.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s for %s", ErrBadResponse, resp.Status, u.String())
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", u.String(), err)
	}
	return nil
}
