package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/vidfriends/mediadeck/internal/archive"
	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/paging"
	"github.com/vidfriends/mediadeck/internal/viewstate"
)

// passwordEnv lets scripts log in without a prompt.
const passwordEnv = "MEDIADECK_PASSWORD"

type commandIO struct {
	args []string
	in   io.Reader
	out  io.Writer
}

func (c commandIO) arg(i int) string {
	if i < len(c.args) {
		return c.args[i]
	}
	return ""
}

// page parses the optional one-based page argument at position i.
func (c commandIO) page(i int) (int, error) {
	raw := c.arg(i)
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("page must be a positive integer, got %q", raw)
	}
	return page, nil
}

type command func(ctx context.Context, deps *dependencies, cio commandIO) error

var commands = map[string]command{
	"login":     loginCommand,
	"logout":    logoutCommand,
	"whoami":    whoamiCommand,
	"list":      listCommand,
	"search":    searchCommand,
	"recommend": recommendCommand,
	"lookup":    lookupCommand,
	"tags":      tagsCommand,
	"archive":   archiveCommand,
}

func loginCommand(ctx context.Context, deps *dependencies, cio commandIO) error {
	form := viewstate.NewLogin(ctx, deps.session)
	username := cio.arg(0)
	if username == "" {
		username = form.State().Username
	}
	if username == "" {
		return errors.New("usage: login <username>")
	}

	password, err := readPassword(cio.in)
	if err != nil {
		return err
	}

	state, err := form.Submit(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cio.out, "logged in as %s\n", state.Profile.Nickname)
	return nil
}

// readPassword prefers the environment and otherwise reads one line.
func readPassword(in io.Reader) (string, error) {
	if password := os.Getenv(passwordEnv); password != "" {
		return password, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func logoutCommand(ctx context.Context, deps *dependencies, cio commandIO) error {
	if err := deps.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cio.out, "logged out")
	return nil
}

func whoamiCommand(ctx context.Context, deps *dependencies, cio commandIO) error {
	state := deps.session.Holder().Current()
	if state.Credential.IsGuest() {
		fmt.Fprintln(cio.out, "guest")
		return nil
	}
	profile, err := deps.session.RefreshProfile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cio.out, "%s (%s) friend requests: %d\n", profile.Nickname, profile.ID, profile.FriendRequests)
	return nil
}

func listCommand(ctx context.Context, deps *dependencies, cio commandIO) error {
	mediaType, err := models.ParseMediaType(cio.arg(0))
	if err != nil {
		return fmt.Errorf("usage: list <video|image> [page] [sort]: %w", err)
	}
	page, err := cio.page(1)
	if err != nil {
		return err
	}
	mode, err := models.ParseSortMode(cio.arg(2))
	if err != nil {
		return err
	}

	state := deps.index.Media(mediaType).Load(ctx, page, models.NewQueryParam(mode))
	return printMedia(cio.out, state)
}

func searchCommand(ctx context.Context, deps *dependencies, cio commandIO) error {
	deps.search.SetText(cio.arg(0))
	page, err := cio.page(1)
	if err != nil {
		return err
	}
	state, err := deps.search.Submit(ctx, page)
	if err != nil {
		return err
	}
	return printMedia(cio.out, state)
}

func recommendCommand(ctx context.Context, deps *dependencies, cio commandIO) error {
	category, err := models.ParseRecommendCategory(cio.arg(0))
	if err != nil {
		return err
	}
	page, err := cio.page(1)
	if err != nil {
		return err
	}
	provider, err := deps.index.Recommendation(category)
	if err != nil {
		return err
	}

	state := provider.Load(ctx, page, models.DefaultQuery())
	if state.Status == paging.StatusError {
		return errors.New(state.Message)
	}
	tw := tabwriter.NewWriter(cio.out, 0, 4, 2, ' ', 0)
	for _, item := range state.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", item.ID, item.Title, item.Author)
	}
	return tw.Flush()
}

func lookupCommand(ctx context.Context, deps *dependencies, cio commandIO) error {
	id, err := strconv.Atoi(cio.arg(0))
	if err != nil {
		return errors.New("usage: lookup <recommendation id>")
	}
	videoID, found, err := deps.index.OpenRecommendation(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(cio.out, "no matching video")
		return nil
	}
	fmt.Fprintln(cio.out, models.Route(models.MediaTypeVideo, videoID))
	return nil
}

// tagsCommand lists the known tags, or recommends videos for the given ones.
func tagsCommand(ctx context.Context, deps *dependencies, cio commandIO) error {
	if len(cio.args) == 0 {
		state := deps.index.RecommendTags.Load(ctx, 1, models.DefaultQuery())
		if state.Status == paging.StatusError {
			return errors.New(state.Message)
		}
		for _, tag := range state.Items {
			fmt.Fprintln(cio.out, tag)
		}
		return nil
	}

	state := deps.index.RecommendByTags(ctx, cio.args...)
	if state.Status == paging.StatusError {
		return errors.New(state.Message)
	}
	tw := tabwriter.NewWriter(cio.out, 0, 4, 2, ' ', 0)
	for _, item := range state.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.Route(), item.Title, item.Author, strings.Join(item.Tags, ","))
	}
	return tw.Flush()
}

func archiveCommand(ctx context.Context, deps *dependencies, cio commandIO) error {
	from, err := cio.page(1)
	if err != nil {
		return err
	}
	to := from
	if cio.arg(2) != "" {
		if to, err = cio.page(2); err != nil {
			return err
		}
	}

	results, err := deps.exporter.Export(ctx, archive.Job{Kind: cio.arg(0), From: from, To: to, Query: models.DefaultQuery()})
	if errors.Is(err, archive.ErrUnknownKind) {
		return fmt.Errorf("%w: choose one of %s", err, strings.Join(deps.exporter.Kinds(), ", "))
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			fmt.Fprintf(cio.out, "page %d: %s\n", r.Page, r.Error)
			continue
		}
		fmt.Fprintf(cio.out, "page %d: %s\n", r.Page, r.Location)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(results))
	}
	return nil
}

func printMedia(w io.Writer, state paging.State[models.MediaPreview]) error {
	if state.Status == paging.StatusError {
		return errors.New(state.Message)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, item := range state.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.Route(), item.Title, item.Author, item.Likes)
	}
	return tw.Flush()
}
