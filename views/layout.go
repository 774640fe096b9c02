// Package views holds the page records and the HTML components that render
// them. Components are plain templ.Components so handlers can render them
// directly or compose them into each other.
package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// htmxConfig lets htmx swap 404 and 502 fragments: a missing post replaces
// the loading indicator, a failed "load more" shows its retry control.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},{"code":"404","swap":true},{"code":"502","swap":true},{"code":"[45]..","swap":false,"error":true}]}`

// writer accumulates the first write error so components can emit markup
// without checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) attr(name, value string) {
	w.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (w *writer) url(name, value string) {
	w.attr(name, string(templ.URL(value)))
}

func (w *writer) component(ctx context.Context, c templ.Component) {
	if w.err == nil && c != nil {
		w.err = c.Render(ctx, w.w)
	}
}

func component(fn func(ctx context.Context, w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		fn(ctx, w)
		return w.err
	})
}

// Layout wraps body in the document shell shared by every page.
func Layout(cfg SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		lang := cfg.Lang
		if lang == "" {
			lang = "pt-BR"
		}
		w.raw("<!DOCTYPE html><html")
		w.attr("lang", lang)
		w.raw(`><head><meta charset="utf-8"/><meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		w.raw("<title>")
		w.text(meta.Title)
		w.raw("</title>")
		if meta.Description != "" {
			w.raw(`<meta name="description"`)
			w.attr("content", meta.Description)
			w.raw("/>")
		}
		if meta.URL != "" {
			w.raw(`<link rel="canonical"`)
			w.url("href", meta.URL)
			w.raw(`/><meta property="og:url"`)
			w.attr("content", meta.URL)
			w.raw("/>")
		}
		w.raw(`<meta property="og:title"`)
		w.attr("content", meta.Title)
		w.raw(`/><meta property="og:type"`)
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}
		w.attr("content", ogType)
		w.raw(`/><meta property="og:site_name"`)
		w.attr("content", cfg.Name)
		w.raw("/>")
		w.raw(`<link rel="icon" type="image/svg+xml" href="/favicon.svg"/>`)
		w.raw(`<link rel="stylesheet" href="/public/styles.css"/>`)
		w.raw(`<meta name="htmx-config"`)
		w.attr("content", htmxConfig)
		w.raw("/>")
		if cfg.HTMXURL != "" {
			w.raw(`<script defer`)
			w.url("src", cfg.HTMXURL)
			w.raw("></script>")
		}
		if meta.JSONLD != "" {
			// json.Marshal escapes <, > and &, so the payload cannot close the tag.
			w.raw(`<script type="application/ld+json">`)
			w.raw(meta.JSONLD)
			w.raw("</script>")
		}
		w.raw("</head><body>")
		if meta.Preview {
			w.component(ctx, PreviewBanner())
		}
		w.component(ctx, body)
		w.raw("</body></html>")
	})
}

// Header renders the logo linking back to the listing.
func Header() templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<header class="heading"><div class="heading-content"><a href="/"><img src="/public/images/logo.svg" alt="logo"/></a></div></header>`)
	})
}

// PreviewBanner tells the reader they are looking at unpublished content.
func PreviewBanner() templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<aside class="preview-banner">Modo de pré-visualização <a href="/api/exit-preview/">Sair do modo preview</a></aside>`)
	})
}

// NotFound is the full 404 page.
func NotFound(cfg SiteConfig, meta PageMeta) templ.Component {
	return Layout(cfg, meta, component(func(ctx context.Context, w *writer) {
		w.raw("<main>")
		w.component(ctx, Header())
		w.component(ctx, NotFoundContent())
		w.raw("</main>")
	}))
}

// NotFoundContent is the 404 message on its own, swapped in by htmx when a
// fallback post turns out not to exist.
func NotFoundContent() templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<div class="container status-page"><h1>404</h1><p>Post não encontrado.</p><a href="/">Voltar para a página inicial</a></div>`)
	})
}

// ServerError is the full 5xx page.
func ServerError(cfg SiteConfig, meta PageMeta) templ.Component {
	return Layout(cfg, meta, component(func(ctx context.Context, w *writer) {
		w.raw("<main>")
		w.component(ctx, Header())
		w.raw(`<div class="container status-page"><h1>Ops!</h1><p>Não foi possível carregar o conteúdo agora. Tente novamente em instantes.</p></div></main>`)
	}))
}
