package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vidfriends/mediadeck/internal/archive"
	"github.com/vidfriends/mediadeck/internal/auth"
	"github.com/vidfriends/mediadeck/internal/config"
	"github.com/vidfriends/mediadeck/internal/db"
	"github.com/vidfriends/mediadeck/internal/handlers"
	"github.com/vidfriends/mediadeck/internal/models"
	"github.com/vidfriends/mediadeck/internal/prefs"
	"github.com/vidfriends/mediadeck/internal/recommend"
	"github.com/vidfriends/mediadeck/internal/repositories"
	"github.com/vidfriends/mediadeck/internal/site"
	"github.com/vidfriends/mediadeck/internal/storage"
	"github.com/vidfriends/mediadeck/internal/viewstate"
)

// dependencies holds the long-lived collaborators shared by the CLI commands
// and the HTTP gateway.
type dependencies struct {
	session   *auth.Manager
	site      *site.Client
	recommend *recommend.Client
	resolver  recommend.Resolver
	index     *viewstate.Index
	search    *viewstate.Search
	exporter  *archive.Exporter
	links     []models.Link
}

// buildDependencies wires together concrete implementations. The returned
// cleanup stops the exporter, closes the index scope and releases the
// preference store.
func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (*dependencies, func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, closeStore, err := openPreferenceStore(ctx, cfg.Preferences)
	if err != nil {
		return nil, nil, err
	}

	var sealer *prefs.Sealer
	if cfg.Preferences.RememberLogin {
		sealer, err = prefs.NewSealer(cfg.Preferences.SealingSecret)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
	}

	siteClient, err := site.New(cfg.Site.BaseURL, site.Options{
		UserAgent:         cfg.Site.UserAgent,
		Timeout:           cfg.Site.Timeout,
		RequestsPerSecond: cfg.Site.RequestsPerSecond,
		Burst:             cfg.Site.Burst,
	})
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	recClient, err := recommend.New(cfg.Recommend.BaseURL, cfg.Site.BaseURL, cfg.Recommend.Timeout)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	resolver := recommend.NewCachingResolver(recClient, cfg.Recommend.LookupCacheTTL)

	// A nil TagClient answers ErrUnavailable.
	var tagClient *recommend.TagClient
	if cfg.Recommend.TagsURL != "" {
		tagClient, err = recommend.NewTagClient(cfg.Recommend.TagsURL, cfg.Recommend.Timeout)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
	}

	session := auth.NewManager(auth.NewHolder(), siteClient, store, sealer)

	assets, err := openAssetStorage(ctx, cfg.ObjectStore)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	deps := &dependencies{
		session:   session,
		site:      siteClient,
		recommend: recClient,
		resolver:  resolver,
		index:     viewstate.NewIndex(context.Background(), session, siteClient, recClient, tagClient, resolver),
		search:    viewstate.NewSearch(session.Holder(), siteClient),
		links:     cfg.Links,
	}
	deps.exporter = archive.NewExporter(deps.archiveLoaders(), assets, archive.Config{
		Prefix: cfg.ObjectStore.Prefix,
	}, logger)

	cleanup := func(ctx context.Context) error {
		err := deps.exporter.Shutdown(ctx)
		deps.index.Close()
		return errors.Join(err, closeStore())
	}

	return deps, cleanup, nil
}

// handlerDependencies exposes the collaborators to the HTTP layer.
func (d *dependencies) handlerDependencies(loginLimit handlers.Middleware) handlers.Dependencies {
	return handlers.Dependencies{
		Session:    d.session,
		Index:      d.index,
		Search:     d.search,
		Media:      d.site,
		Archive:    d.exporter,
		Links:      d.links,
		LoginLimit: loginLimit,
	}
}

// archiveLoaders maps each archive kind to a loader. Loaders read the
// credential at call time so a login made after startup is honoured.
func (d *dependencies) archiveLoaders() map[string]archive.PageLoader {
	holder := d.session.Holder()

	media := func(mediaType models.MediaType) archive.PageLoader {
		return func(ctx context.Context, page int, query models.QueryParam) (any, error) {
			return d.site.MediaList(ctx, holder.Credential(), mediaType, page-1, query)
		}
	}

	loaders := map[string]archive.PageLoader{
		"videos": media(models.MediaTypeVideo),
		"images": media(models.MediaTypeImage),
	}
	loaders["subscriptions"] = func(ctx context.Context, page int, _ models.QueryParam) (any, error) {
		return d.site.Subscriptions(ctx, holder.Credential(), page-1)
	}
	loaders["likes"] = func(ctx context.Context, page int, _ models.QueryParam) (any, error) {
		return d.site.Likes(ctx, holder.Credential(), page-1)
	}
	for _, category := range models.RecommendCategories {
		loaders["recommend-"+string(category)] = func(ctx context.Context, page int, _ models.QueryParam) (any, error) {
			return d.recommend.Previews(ctx, category, page)
		}
	}
	return loaders
}

// openPreferenceStore prefers PostgreSQL when a database url is configured
// and falls back to the local bolt file.
func openPreferenceStore(ctx context.Context, cfg config.PreferenceConfig) (prefs.Store, func() error, error) {
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := repositories.NewPostgresPreferenceStore(pool, cfg.Namespace)
		return store, func() error { pool.Close(); return nil }, nil
	}

	store, err := prefs.OpenBolt(cfg.BoltPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open preferences: %w", err)
	}
	return store, store.Close, nil
}

func openAssetStorage(ctx context.Context, cfg config.ObjectStoreConfig) (archive.AssetStorage, error) {
	if cfg.Bucket != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("configure object storage: %w", err)
		}
		return s3Storage, nil
	}

	dir, err := storage.NewDirStorage(cfg.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("configure archive directory: %w", err)
	}
	return dir, nil
}
