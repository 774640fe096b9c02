package views

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/spacetravelling/richtext"
)

// Post is the full detail page.
func Post(cfg SiteConfig, meta PageMeta, post PostDetail, opts richtext.Options) templ.Component {
	return Layout(cfg, meta, component(func(ctx context.Context, w *writer) {
		w.raw("<main>")
		w.component(ctx, Header())
		w.component(ctx, PostArticle(post, opts))
		w.raw("</main>")
	}))
}

// PostArticle renders the banner, the post header and one section per
// content group, in order.
func PostArticle(post PostDetail, opts richtext.Options) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<div id="post">`)
		if post.Banner.URL != "" {
			w.raw(`<img class="banner"`)
			w.url("src", post.Banner.URL)
			alt := post.Banner.Alt
			if alt == "" {
				alt = "Imagem"
			}
			w.attr("alt", alt)
			if post.Banner.Width > 0 && post.Banner.Height > 0 {
				w.attr("width", strconv.Itoa(post.Banner.Width))
				w.attr("height", strconv.Itoa(post.Banner.Height))
			}
			w.raw("/>")
		}
		w.raw(`<article class="container"><section class="post-header"><h1>`)
		w.text(post.Title)
		w.raw(`</h1><div class="info"><div>` + iconCalendar + "<time")
		if post.FirstPublicationDate != "" {
			w.attr("datetime", post.FirstPublicationDate)
		}
		w.raw(">")
		w.text(post.Date)
		w.raw(`</time></div><div>` + iconUser + "<span>")
		w.text(post.Author)
		w.raw(`</span></div><div>` + iconClock + "<span>")
		w.text(strconv.Itoa(post.ReadingTime) + " min")
		w.raw("</span></div></div>")
		if post.EditedAt != "" {
			w.raw(`<p class="edited">* editado em `)
			w.text(post.EditedAt)
			w.raw("</p>")
		}
		w.raw(`</section><div class="article">`)
		for _, s := range post.Content {
			w.raw(`<section class="post-section"><h2>`)
			w.text(s.Heading)
			w.raw(`</h2><div class="post-body">`)
			w.component(ctx, richtext.Component(s.Body, opts))
			w.raw("</div></section>")
		}
		w.raw("</div></article></div>")
	})
}

// PostFallback is served for posts that were not known when the site
// started. It shows a loading indicator and asks htmx to fetch the article,
// which replaces the indicator once it arrives.
func PostFallback(cfg SiteConfig, meta PageMeta, uid string) templ.Component {
	return Layout(cfg, meta, component(func(ctx context.Context, w *writer) {
		w.raw("<main>")
		w.component(ctx, Header())
		w.raw(`<div id="post"`)
		w.attr("hx-get", PostPath(uid)+"?partial=post")
		w.raw(` hx-trigger="load" hx-swap="outerHTML"><div class="loading" role="status">Carregando...</div></div>`)
		w.raw("</main>")
	}))
}
