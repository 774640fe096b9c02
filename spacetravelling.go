// Package spacetravelling is a blog front-end built with Go, Echo, and templ.
// Posts live in a Prismic repository; the site lists them, renders each
// post page and loads further listing pages with htmx.
package spacetravelling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"

	"github.com/eringen/spacetravelling/prismic"
	"github.com/eringen/spacetravelling/richtext"
	"github.com/eringen/spacetravelling/views"
)

// Version is set at build time.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

// App is the central application. It wires together the content client,
// store, route table, handlers and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Client *prismic.Client
	Store  *Store
	Routes *RouteTable
	Logger *slog.Logger

	locale       language.Tag
	richText     richtext.Options
	httpClient   *http.Client
	customRoutes []func(*App)
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Routes: NewRouteTable(),
		Logger: slog.Default(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup connects to the content service, enumerates post paths and
// registers middleware and routes. It must succeed before the App serves
// requests.
func (a *App) Setup(ctx context.Context) error {
	if err := a.Config.Validate(); err != nil {
		return err
	}
	locale, err := language.Parse(a.Config.Locale)
	if err != nil {
		return fmt.Errorf("spacetravelling: parse locale: %w", err)
	}
	a.locale = locale

	if a.Client == nil {
		clientOpts := []prismic.Option{
			prismic.WithTimeout(a.Config.PrismicTimeout),
			prismic.WithLogger(a.Logger),
		}
		if a.httpClient != nil {
			clientOpts = append(clientOpts, prismic.WithHTTPClient(a.httpClient))
		}
		client, err := prismic.New(a.Config.PrismicEndpoint, a.Config.PrismicAccessToken, clientOpts...)
		if err != nil {
			return fmt.Errorf("spacetravelling: init content client: %w", err)
		}
		a.Client = client
	}
	a.Store = NewStore(a.Client, a.Config.PageSize, a.locale)

	a.richText = richtext.Options{LinkResolver: resolveLink}
	if a.Config.SanitizeRichText {
		a.richText.Policy = bluemonday.UGCPolicy()
	}

	if err := a.GeneratePaths(ctx); err != nil {
		return err
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// GeneratePaths enumerates every published post and replaces the route
// table with the result.
func (a *App) GeneratePaths(ctx context.Context) error {
	uids, err := a.Store.ListSlugs(ctx, "")
	if err != nil {
		return fmt.Errorf("spacetravelling: enumerate posts: %w", err)
	}
	a.Routes.Replace(uids)
	a.Logger.Info("enumerated posts", "count", len(uids))
	return nil
}

// Start sets the App up and serves until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", "addr", a.Config.Addr, "version", Version)
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Logger.Info("shutting down")
	return a.Close(shutdownCtx)
}

// Close stops the HTTP server.
func (a *App) Close(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.StaticFS("/public", echo.MustSubFS(Assets, "public"))
	e.FileFS("/favicon.svg", "public/favicon.svg", Assets)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/posts/", a.handleLoadMore, a.loadMoreLimiter())
	e.GET("/post/:uid/", a.handlePost)

	if a.Config.PreviewEnabled() {
		e.GET("/api/preview/", a.handlePreview)
		e.GET("/api/exit-preview/", a.handleExitPreview)
	}
}

func (a *App) siteConfig() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Lang:        a.locale.String(),
		HTMXURL:     a.Config.HTMXURL,
	}
}
