package spacetravelling

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/eringen/spacetravelling/prismic"
)

const masterRef = "master-ref"

var predicateRe = regexp.MustCompile(`at\(([\w.]+), "((?:[^"\\]|\\.)*)"\)`)

// fakeCMS is an in-memory content repository speaking the search API.
type fakeCMS struct {
	srv *httptest.Server

	mu        sync.Mutex
	published []prismic.Document
	drafts    map[string][]prismic.Document
	failing   bool
	searches  int
}

func newFakeCMS(t *testing.T, docs ...prismic.Document) *fakeCMS {
	t.Helper()
	f := &fakeCMS{published: docs, drafts: make(map[string][]prismic.Document)}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeCMS) endpoint() string {
	return f.srv.URL + "/api/v2"
}

func (f *fakeCMS) publish(docs ...prismic.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, docs...)
}

// draft makes docs visible under ref in addition to published content.
func (f *fakeCMS) draft(ref string, docs ...prismic.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[ref] = append(f.drafts[ref], docs...)
}

func (f *fakeCMS) setFailing(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = v
}

func (f *fakeCMS) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches
}

func (f *fakeCMS) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		http.Error(w, `{"message":"unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	switch r.URL.Path {
	case "/api/v2":
		_ = json.NewEncoder(w).Encode(prismic.API{Refs: []prismic.Ref{{ID: "master", Ref: masterRef, IsMasterRef: true}}})
	case "/api/v2/documents/search":
		f.searches++
		q := r.URL.Query()
		docs := f.published
		if ref := q.Get("ref"); ref != masterRef {
			extra, ok := f.drafts[ref]
			if !ok {
				http.Error(w, `{"message":"unknown ref"}`, http.StatusBadRequest)
				return
			}
			docs = append(append([]prismic.Document(nil), docs...), extra...)
		}

		var matched []prismic.Document
		for _, d := range docs {
			if matches(d, q.Get("q")) {
				matched = append(matched, d)
			}
		}

		if q.Get("orderings") == "[document.first_publication_date desc]" {
			sort.SliceStable(matched, func(i, j int) bool {
				return firstPublished(matched[i]) > firstPublished(matched[j])
			})
		}

		size, _ := strconv.Atoi(q.Get("pageSize"))
		if size == 0 {
			size = 20
		}
		page, _ := strconv.Atoi(q.Get("page"))
		if page == 0 {
			page = 1
		}
		start := min((page-1)*size, len(matched))
		end := min(start+size, len(matched))

		resp := prismic.Response{
			Page:             page,
			ResultsPerPage:   size,
			ResultsSize:      end - start,
			TotalResultsSize: len(matched),
			TotalPages:       (len(matched) + size - 1) / size,
			Results:          matched[start:end],
		}
		if end < len(matched) {
			next := *r.URL
			nq := next.Query()
			nq.Set("page", strconv.Itoa(page+1))
			next.RawQuery = nq.Encode()
			n := f.srv.URL + next.RequestURI()
			resp.NextPage = &n
		}
		_ = json.NewEncoder(w).Encode(resp)
	default:
		http.NotFound(w, r)
	}
}

// firstPublished sorts unpublished documents last. The fixtures share one
// offset, so the timestamps compare as strings.
func firstPublished(d prismic.Document) string {
	if d.FirstPublicationDate == nil {
		return ""
	}
	return *d.FirstPublicationDate
}

func matches(d prismic.Document, q string) bool {
	for _, m := range predicateRe.FindAllStringSubmatch(q, -1) {
		value, err := strconv.Unquote(`"` + m[2] + `"`)
		if err != nil {
			return false
		}
		switch m[1] {
		case "document.type":
			if d.Type != value {
				return false
			}
		case "document.id":
			if d.ID != value {
				return false
			}
		case "my." + d.Type + ".uid":
			if d.UID != value {
				return false
			}
		default:
			return false
		}
	}
	return true
}

type testSection struct {
	Heading string
	Text    string
}

func postDoc(uid, title, first, last string, sections ...testSection) prismic.Document {
	content := make([]map[string]any, 0, len(sections))
	for _, s := range sections {
		content = append(content, map[string]any{
			"heading": s.Heading,
			"body":    []map[string]any{{"type": "paragraph", "text": s.Text, "spans": []any{}}},
		})
	}
	data, _ := json.Marshal(map[string]any{
		"title":    title,
		"subtitle": "Subtítulo de " + title,
		"author":   "Joseph Oliveira",
		"banner": map[string]any{
			"url":        "https://images.prismic.io/spacetravelling/" + uid + ".png",
			"alt":        "",
			"dimensions": map[string]int{"width": 1440, "height": 400},
		},
		"content": content,
	})
	doc := prismic.Document{
		ID:   "id-" + uid,
		UID:  uid,
		Type: "posts",
		Data: data,
	}
	if first != "" {
		doc.FirstPublicationDate = &first
	}
	if last != "" {
		doc.LastPublicationDate = &last
	}
	return doc
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(cms *fakeCMS) SiteConfig {
	return SiteConfig{
		Name:            "spacetravelling",
		URL:             "https://blog.example",
		PrismicEndpoint: cms.endpoint(),
		PageSize:        2,
		LoadMoreRate:    1000,
		HTMXURL:         "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js",
	}
}

func newTestApp(t *testing.T, cfg SiteConfig) *App {
	t.Helper()
	a := New(cfg, WithLogger(discardLogger()))
	require.NoError(t, a.Setup(context.Background()))
	return a
}

func newTestStore(t *testing.T, cms *fakeCMS, pageSize int) *Store {
	t.Helper()
	client, err := prismic.New(cms.endpoint(), "", prismic.WithLogger(discardLogger()))
	require.NoError(t, err)
	return NewStore(client, pageSize, language.MustParse("pt-BR"))
}

func serve(a *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func get(a *App, target string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return serve(a, req)
}
