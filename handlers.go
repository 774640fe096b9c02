package spacetravelling

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetravelling/views"
)

func (a *App) handleHome(c echo.Context) error {
	listing, err := a.Store.ListPosts(c.Request().Context(), a.previewRef(c))
	if err != nil {
		return err
	}
	return Render(c, views.Home(a.siteConfig(), a.homeMeta(c), listing))
}

// handleLoadMore returns the cards of the page behind ?next= followed by
// the next control. The fragment replaces the control that requested it.
func (a *App) handleLoadMore(c echo.Context) error {
	if !isHTMX(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	cursor := c.QueryParam("next")
	if cursor == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing cursor")
	}
	listing, err := a.Store.NextPage(c.Request().Context(), cursor)
	if errors.Is(err, ErrInvalidCursor) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
	}
	if err != nil {
		a.Logger.Warn("load more failed", "error", err, "request_id", requestID(c))
		return RenderStatus(c, http.StatusBadGateway, views.LoadMoreError(cursor))
	}
	return Render(c, views.PostsPage(listing))
}

// handlePost serves a post page. Posts missing from the route table get the
// fallback shell, which requests the article with ?partial=post.
func (a *App) handlePost(c echo.Context) error {
	uid := c.Param("uid")
	ref := a.previewRef(c)
	partial := isHTMX(c) && c.QueryParam("partial") == "post"
	c.Response().Header().Add(echo.HeaderVary, "HX-Request")

	if !partial && ref == "" && a.Config.FallbackMode == FallbackPlaceholder && !a.Routes.Has(uid) {
		return Render(c, views.PostFallback(a.siteConfig(), a.fallbackMeta(uid), uid))
	}

	post, err := a.Store.GetPost(c.Request().Context(), ref, uid)
	if errors.Is(err, ErrNotFound) {
		if partial {
			return RenderStatus(c, http.StatusNotFound, views.NotFoundContent())
		}
		return RenderStatus(c, http.StatusNotFound, views.NotFound(a.siteConfig(), a.notFoundMeta(c)))
	}
	if err != nil {
		return err
	}
	if ref == "" && a.Routes.Add(post.UID) {
		a.Logger.Info("discovered post", "uid", post.UID)
	}

	if partial {
		return Render(c, views.PostArticle(post, a.richText))
	}
	return Render(c, views.Post(a.siteConfig(), a.postMeta(c, post), post, a.richText))
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.renderSitemap(c, a.Routes.UIDs())
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Store.AllPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: " + BuildURL(a.Config.URL) + "sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, ErrNotFound) {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.siteConfig(), a.notFoundMeta(c)))
		return
	}
	code := http.StatusInternalServerError
	if errors.Is(err, ErrUpstreamUnavailable) {
		code = http.StatusBadGateway
	}
	he, ok := err.(*echo.HTTPError)
	if ok {
		code = he.Code
	}
	if code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.siteConfig(), a.notFoundMeta(c)))
		return
	}
	if code >= 500 {
		a.Logger.Error("server error", "status", code, "error", err, "path", c.Request().URL.Path, "request_id", requestID(c))
		_ = RenderStatus(c, code, views.ServerError(a.siteConfig(), views.PageMeta{Title: "Erro | " + a.Config.Name}))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
