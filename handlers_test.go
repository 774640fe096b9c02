package spacetravelling

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/spacetravelling/prismic"
)

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return doc
}

func threePosts() []prismic.Document {
	return []prismic.Document{
		postDoc("como-utilizar-hooks", "Como utilizar Hooks", "2021-03-15T19:25:28+0000", "", testSection{"Proin et varius", "Lorem ipsum dolor"}),
		postDoc("criando-um-app-cra-do-zero", "Criando um app CRA do zero", "2021-03-25T19:27:35+0000", ""),
		postDoc("mapas-com-react", "Mapas com React", "2021-04-01T10:00:00+0000", ""),
	}
}

func TestHomeListsFirstPage(t *testing.T) {
	cms := newFakeCMS(t, threePosts()...)
	a := newTestApp(t, testConfig(cms))

	rec := get(a, "/", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=UTF-8", rec.Header().Get("Content-Type"))

	doc := parseHTML(t, rec)
	cards := doc.Find("a.post")
	require.Equal(t, 2, cards.Length())
	href, _ := cards.First().Attr("href")
	assert.Equal(t, "/post/mapas-com-react/", href)
	assert.Equal(t, "1 abr 2021", cards.First().Find("time").Text())
	assert.Equal(t, "Criando um app CRA do zero", cards.Eq(1).Find("h1").Text())

	hxGet, ok := doc.Find("button.load-more").Attr("hx-get")
	require.True(t, ok)
	u, err := url.Parse(hxGet)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.Query().Get("next"), cms.srv.URL))
}

func TestHomeWithExactlyOnePageHasNoLoadMore(t *testing.T) {
	cms := newFakeCMS(t,
		postDoc("a", "A", "2021-03-01T10:00:00+0000", ""),
		postDoc("b", "B", "2021-03-02T10:00:00+0000", ""),
	)
	a := newTestApp(t, testConfig(cms))

	doc := parseHTML(t, get(a, "/", false))
	assert.Equal(t, 2, doc.Find("a.post").Length())
	assert.Equal(t, 0, doc.Find("button.load-more").Length())
}

func TestLoadMoreReturnsNextPageFragment(t *testing.T) {
	cms := newFakeCMS(t, threePosts()...)
	a := newTestApp(t, testConfig(cms))

	hxGet, _ := parseHTML(t, get(a, "/", false)).Find("button.load-more").Attr("hx-get")
	rec := get(a, hxGet, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "<html")
	doc := parseHTML(t, rec)
	cards := doc.Find("a.post")
	require.Equal(t, 1, cards.Length())
	assert.Equal(t, "Como utilizar Hooks", cards.Find("h1").Text())
	assert.Equal(t, 0, doc.Find("button.load-more").Length())
}

func TestLoadMoreWithoutHTMXRedirectsHome(t *testing.T) {
	cms := newFakeCMS(t, threePosts()...)
	a := newTestApp(t, testConfig(cms))

	rec := get(a, "/posts/?next="+url.QueryEscape(cms.srv.URL+"/api/v2/documents/search?page=2"), false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLoadMoreRejectsBadCursors(t *testing.T) {
	a := newTestApp(t, testConfig(newFakeCMS(t)))

	assert.Equal(t, http.StatusBadRequest, get(a, "/posts/", true).Code)
	assert.Equal(t, http.StatusBadRequest, get(a, "/posts/?next="+url.QueryEscape("https://evil.example/steal"), true).Code)
}

func TestLoadMoreUpstreamFailureOffersRetry(t *testing.T) {
	cms := newFakeCMS(t, threePosts()...)
	a := newTestApp(t, testConfig(cms))
	cursor := cms.srv.URL + "/api/v2/documents/search?page=2&pageSize=2&ref=" + masterRef

	cms.setFailing(true)
	rec := get(a, "/posts/?next="+url.QueryEscape(cursor), true)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	doc := parseHTML(t, rec)
	retry := doc.Find(".load-more-error button")
	require.Equal(t, 1, retry.Length())
	hxGet, _ := retry.Attr("hx-get")
	u, err := url.Parse(hxGet)
	require.NoError(t, err)
	assert.Equal(t, cursor, u.Query().Get("next"))
}

func TestLoadMoreIsRateLimited(t *testing.T) {
	cms := newFakeCMS(t)
	cfg := testConfig(cms)
	cfg.LoadMoreRate = 0.001
	a := newTestApp(t, cfg)

	// burst of two, then denied
	assert.Equal(t, http.StatusSeeOther, get(a, "/posts/?next=x", false).Code)
	assert.Equal(t, http.StatusSeeOther, get(a, "/posts/?next=x", false).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(a, "/posts/?next=x", false).Code)
}

func TestPostRendersEnumeratedPost(t *testing.T) {
	cms := newFakeCMS(t, threePosts()...)
	a := newTestApp(t, testConfig(cms))
	require.True(t, a.Routes.Has("como-utilizar-hooks"))

	rec := get(a, "/post/como-utilizar-hooks/", false)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, "Como utilizar Hooks", doc.Find(".post-header h1").Text())
	assert.Equal(t, "Proin et varius", doc.Find("section.post-section h2").Text())
	assert.Equal(t, "Lorem ipsum dolor", doc.Find("section.post-section .post-body p").Text())
	assert.Equal(t, "Imagem", doc.Find("img.banner").AttrOr("alt", ""))
	assert.Equal(t, "Como utilizar Hooks | spacetravelling", doc.Find("title").Text())
	assert.Equal(t, 0, doc.Find(".loading").Length())
}

func TestPostFallbackForPostPublishedAfterStart(t *testing.T) {
	cms := newFakeCMS(t, threePosts()...)
	a := newTestApp(t, testConfig(cms))
	cms.publish(postDoc("novo-post", "Novo post", "2021-05-01T10:00:00+0000", ""))
	require.False(t, a.Routes.Has("novo-post"))

	before := cms.searchCount()
	rec := get(a, "/post/novo-post/", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before, cms.searchCount(), "fallback shell must not query the CMS")

	doc := parseHTML(t, rec)
	placeholder := doc.Find("#post")
	assert.Equal(t, "/post/novo-post/?partial=post", placeholder.AttrOr("hx-get", ""))
	assert.Equal(t, "Carregando...", placeholder.Find(".loading").Text())

	partial := get(a, "/post/novo-post/?partial=post", true)
	require.Equal(t, http.StatusOK, partial.Code)
	assert.NotContains(t, partial.Body.String(), "<html")
	assert.Equal(t, "Novo post", parseHTML(t, partial).Find(".post-header h1").Text())
	assert.True(t, a.Routes.Has("novo-post"))

	full := parseHTML(t, get(a, "/post/novo-post/", false))
	assert.Equal(t, "Novo post", full.Find(".post-header h1").Text())
	assert.Contains(t, a.Routes.Paths(), "/post/novo-post/")
}

func TestPostFallbackPartialNotFound(t *testing.T) {
	a := newTestApp(t, testConfig(newFakeCMS(t, threePosts()...)))

	rec := get(a, "/post/nao-existe/?partial=post", true)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<html")
	assert.Equal(t, "404", parseHTML(t, rec).Find(".status-page h1").Text())
	assert.False(t, a.Routes.Has("nao-existe"))
}

func TestBlockingFallbackMode(t *testing.T) {
	cms := newFakeCMS(t, threePosts()...)
	cfg := testConfig(cms)
	cfg.FallbackMode = FallbackBlocking
	a := newTestApp(t, cfg)
	cms.publish(postDoc("novo-post", "Novo post", "2021-05-01T10:00:00+0000", ""))

	rec := get(a, "/post/novo-post/", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Novo post", parseHTML(t, rec).Find(".post-header h1").Text())

	missing := get(a, "/post/nao-existe/", false)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Contains(t, missing.Body.String(), "<html")
}

func TestUpstreamFailureRendersServerError(t *testing.T) {
	cms := newFakeCMS(t, threePosts()...)
	a := newTestApp(t, testConfig(cms))
	cms.setFailing(true)

	rec := get(a, "/", false)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Ops!", parseHTML(t, rec).Find(".status-page h1").Text())
}

func TestSetupFailsWhenEnumerationFails(t *testing.T) {
	cms := newFakeCMS(t)
	cms.setFailing(true)
	a := New(testConfig(cms), WithLogger(discardLogger()))

	err := a.Setup(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	a := newTestApp(t, testConfig(newFakeCMS(t)))

	rec := get(a, "/nada/", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Post não encontrado.")
}

func TestTrailingSlashRedirect(t *testing.T) {
	a := newTestApp(t, testConfig(newFakeCMS(t, threePosts()...)))

	rec := get(a, "/post/como-utilizar-hooks", false)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/post/como-utilizar-hooks/", rec.Header().Get("Location"))
}

func TestSitemapListsEnumeratedPosts(t *testing.T) {
	a := newTestApp(t, testConfig(newFakeCMS(t, threePosts()...)))

	rec := get(a, "/sitemap.xml", false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<loc>https://blog.example/</loc>")
	for _, uid := range []string{"como-utilizar-hooks", "criando-um-app-cra-do-zero", "mapas-com-react"} {
		assert.Contains(t, body, "<loc>https://blog.example/post/"+uid+"/</loc>")
	}
}

func TestFeed(t *testing.T) {
	a := newTestApp(t, testConfig(newFakeCMS(t, threePosts()...)))

	rec := get(a, "/feed.xml", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, "<item>"))
	assert.Contains(t, body, "<pubDate>Mon, 15 Mar 2021 19:25:28 +0000</pubDate>")
	assert.Contains(t, body, "<guid>https://blog.example/post/mapas-com-react/</guid>")
	assert.Contains(t, body, `xmlns:dc="http://purl.org/dc/elements/1.1/"`)
	assert.Contains(t, body, "<dc:creator>Joseph Oliveira</dc:creator>")
	assert.NotContains(t, body, "<author>")
}

func TestRobotsAndAssets(t *testing.T) {
	a := newTestApp(t, testConfig(newFakeCMS(t)))

	robots := get(a, "/robots.txt", false)
	require.Equal(t, http.StatusOK, robots.Code)
	assert.Contains(t, robots.Body.String(), "Sitemap: https://blog.example/sitemap.xml")

	for _, path := range []string{"/public/styles.css", "/public/images/logo.svg", "/favicon.svg"} {
		rec := get(a, path, false)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"), path)
	}
}

func TestSecurityHeaders(t *testing.T) {
	a := newTestApp(t, testConfig(newFakeCMS(t)))

	rec := get(a, "/", false)
	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "script-src 'self' https://unpkg.com")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestPreviewRoutesDisabledWithoutSecret(t *testing.T) {
	a := newTestApp(t, testConfig(newFakeCMS(t)))

	rec := get(a, "/api/preview/?token=x", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewSessionRoundTrip(t *testing.T) {
	cms := newFakeCMS(t, threePosts()...)
	cms.draft("preview-token", postDoc("rascunho", "Rascunho secreto", "", ""))
	cfg := testConfig(cms)
	cfg.SessionSecret = strings.Repeat("s", MinSessionSecretLength)
	a := newTestApp(t, cfg)

	rec := get(a, "/api/preview/?token=preview-token&documentId=id-rascunho", false)
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/post/rascunho/", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/post/rascunho/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	page := serve(a, req)
	require.Equal(t, http.StatusOK, page.Code)
	doc := parseHTML(t, page)
	assert.Equal(t, "Rascunho secreto", doc.Find(".post-header h1").Text())
	assert.Equal(t, 1, doc.Find(".preview-banner").Length())
	assert.False(t, a.Routes.Has("rascunho"), "previewed drafts are not published routes")

	// without the session the draft is unknown
	assert.Equal(t, "Carregando...", parseHTML(t, get(a, "/post/rascunho/", false)).Find(".loading").Text())

	exitReq := httptest.NewRequest(http.MethodGet, "/api/exit-preview/", nil)
	for _, c := range cookies {
		exitReq.AddCookie(c)
	}
	exit := serve(a, exitReq)
	require.Equal(t, http.StatusTemporaryRedirect, exit.Code)
	var cleared bool
	for _, c := range exit.Result().Cookies() {
		if c.Name == sessionName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}
