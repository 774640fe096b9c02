package spacetravelling

import (
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetravelling/richtext"
	"github.com/eringen/spacetravelling/views"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// resolveLink maps CMS document links to site paths. Posts have detail
// pages; every other document type falls back to the listing.
func resolveLink(l richtext.Link) string {
	if l.Type == postType && l.UID != "" {
		return views.PostPath(l.UID)
	}
	return "/"
}

func (a *App) canonical(c echo.Context) string {
	return BuildURL(a.Config.URL, c.Request().URL.Path)
}

func (a *App) homeMeta(c echo.Context) views.PageMeta {
	cfg := a.siteConfig()
	return views.PageMeta{
		Title:       "Posts | " + a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
		OGType:      "website",
		JSONLD:      views.WebsiteJsonLD(cfg),
		Preview:     a.previewRef(c) != "",
	}
}

func (a *App) postMeta(c echo.Context, post views.PostDetail) views.PageMeta {
	cfg := a.siteConfig()
	return views.PageMeta{
		Title:       post.Title + " | " + a.Config.Name,
		Description: a.Config.Description,
		URL:         views.PostURL(cfg, post.UID),
		OGType:      "article",
		JSONLD:      views.BlogPostingJsonLD(cfg, post),
		Preview:     a.previewRef(c) != "",
	}
}

func (a *App) fallbackMeta(uid string) views.PageMeta {
	return views.PageMeta{
		Title:  "Carregando... | " + a.Config.Name,
		URL:    views.PostURL(a.siteConfig(), uid),
		OGType: "article",
	}
}

func (a *App) notFoundMeta(c echo.Context) views.PageMeta {
	return views.PageMeta{
		Title: "Não encontrado | " + a.Config.Name,
		URL:   a.canonical(c),
	}
}
