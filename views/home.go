package views

import (
	"context"

	"github.com/a-h/templ"
)

const (
	iconCalendar = `<svg class="icon" viewBox="0 0 24 24" width="20" height="20" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true"><rect x="3" y="4" width="18" height="18" rx="2" ry="2"></rect><line x1="16" y1="2" x2="16" y2="6"></line><line x1="8" y1="2" x2="8" y2="6"></line><line x1="3" y1="10" x2="21" y2="10"></line></svg>`
	iconUser     = `<svg class="icon" viewBox="0 0 24 24" width="20" height="20" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true"><path d="M20 21v-2a4 4 0 0 0-4-4H8a4 4 0 0 0-4 4v2"></path><circle cx="12" cy="7" r="4"></circle></svg>`
	iconClock    = `<svg class="icon" viewBox="0 0 24 24" width="20" height="20" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true"><circle cx="12" cy="12" r="10"></circle><polyline points="12 6 12 12 16 14"></polyline></svg>`
)

// Home is the listing page.
func Home(cfg SiteConfig, meta PageMeta, listing Listing) templ.Component {
	return Layout(cfg, meta, component(func(ctx context.Context, w *writer) {
		w.raw(`<main class="container"><div class="posts">`)
		w.component(ctx, Header())
		w.component(ctx, PostsPage(listing))
		w.raw(`</div></main>`)
	}))
}

// PostsPage renders a page of cards followed by the control that loads the
// next one. It is both the body of the listing and the htmx response that
// replaces the previous control, so loaded pages append in order.
func PostsPage(listing Listing) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		for _, p := range listing.Posts {
			w.component(ctx, PostCard(p))
		}
		w.component(ctx, LoadMoreButton(listing.NextPage))
	})
}

// PostCard links one summary to its detail page.
func PostCard(p PostSummary) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<a class="post"`)
		w.url("href", PostPath(p.UID))
		w.raw("><h1>")
		w.text(p.Title)
		w.raw("</h1><p>")
		w.text(p.Subtitle)
		w.raw(`</p><div class="info"><div>` + iconCalendar + "<time")
		if p.FirstPublicationDate != "" {
			w.attr("datetime", p.FirstPublicationDate)
		}
		w.raw(">")
		w.text(p.Date)
		w.raw(`</time></div><div>` + iconUser + "<span>")
		w.text(p.Author)
		w.raw("</span></div></div></a>")
	})
}

// LoadMoreButton renders nothing when cursor is empty. The button is
// disabled while its request is in flight and repeated clicks are dropped.
func LoadMoreButton(cursor string) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		if cursor == "" {
			return
		}
		w.raw(`<button type="button" class="load-more"`)
		w.attr("hx-get", LoadMorePath(cursor))
		w.raw(` hx-swap="outerHTML" hx-disabled-elt="this" hx-sync="this:drop">Carregar mais posts</button>`)
	})
}

// LoadMoreError replaces the control when the next page could not be
// fetched, offering a retry of the same cursor.
func LoadMoreError(cursor string) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<div class="load-more-error" role="alert"><p>Não foi possível carregar mais posts.</p><button type="button" class="load-more"`)
		w.attr("hx-get", LoadMorePath(cursor))
		w.raw(` hx-target="closest .load-more-error" hx-swap="outerHTML" hx-disabled-elt="this" hx-sync="this:drop">Tentar novamente</button></div>`)
	})
}
