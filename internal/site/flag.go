package site

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/models"
)

var errFlagRefused = errors.New("site refused the flag request")

type flagResponse struct {
	Status     bool   `json:"status"`
	FlagStatus string `json:"flagStatus"`
	Count      int    `json:"count"`
}

func (r flagResponse) flagged() bool {
	return r.FlagStatus == "flagged"
}

// flag requests the toggle link in its JSON form. Detail pages only expose
// the link for the opposite of the current state, so the action segment is
// rewritten to match the wanted state.
func (c *Client) flag(ctx context.Context, cred models.Credential, spanName, link string, on bool) (flagResponse, error) {
	if cred.IsGuest() {
		return flagResponse{}, ErrUnauthorized
	}
	if strings.TrimSpace(link) == "" {
		return flagResponse{}, fmt.Errorf("%w: missing flag link", ErrUnexpectedMarkup)
	}

	target, err := c.resolve(flagAction(link, on))
	if err != nil {
		return flagResponse{}, err
	}
	u, err := url.Parse(target)
	if err != nil {
		return flagResponse{}, err
	}
	q := u.Query()
	q.Set("js", "true")
	u.RawQuery = q.Encode()

	ctx, span := logging.StartSpan(ctx, spanName, slog.Bool("on", on))
	defer span.End()

	resp, err := c.do(ctx, c.http, cred, http.MethodGet, u.String(), nil)
	if err != nil {
		span.Fail(err)
		return flagResponse{}, err
	}
	defer resp.Body.Close()

	var out flagResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		span.Fail(err)
		return flagResponse{}, fmt.Errorf("decode flag response: %w", err)
	}
	if !out.Status {
		span.Fail(errFlagRefused)
		return flagResponse{}, errFlagRefused
	}
	return out, nil
}

func flagAction(link string, on bool) string {
	const flagSeg, unflagSeg = "/flag/flag/", "/flag/unflag/"
	if on {
		return strings.Replace(link, unflagSeg, flagSeg, 1)
	}
	return strings.Replace(link, flagSeg, unflagSeg, 1)
}
