package views

import "github.com/eringen/spacetravelling/richtext"

// SiteConfig holds site-wide settings the components need.
// Every handler passes this to components so nothing is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "spacetravelling")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
	Lang        string // html lang attribute, from SITE_LOCALE
	HTMXURL     string // HTMX_URL
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      string
	Preview     bool // render the exit-preview banner
}

// PostSummary is one entry of the listing page.
type PostSummary struct {
	UID                  string
	FirstPublicationDate string // raw, empty when unpublished
	Date                 string // formatted for display
	Title                string
	Subtitle             string
	Author               string
}

// Banner is the post's header image.
type Banner struct {
	URL    string
	Alt    string
	Width  int
	Height int
}

// Section is one heading with its rich-text body.
type Section struct {
	Heading string
	Body    richtext.RichText
}

// PostDetail is the full post rendered on the detail page.
type PostDetail struct {
	UID                  string
	FirstPublicationDate string
	LastPublicationDate  string
	Date                 string
	EditedAt             string // formatted, empty unless edited after publication
	Title                string
	Author               string
	Banner               Banner
	Content              []Section
	ReadingTime          int // minutes
}

// Listing is a page of summaries plus the cursor of the following page.
// An empty NextPage means there are no more pages.
type Listing struct {
	Posts    []PostSummary
	NextPage string
}

// HasMore reports whether another page can be loaded.
func (l Listing) HasMore() bool {
	return l.NextPage != ""
}

// Append returns l's posts followed by next's posts, with next's cursor.
// Neither listing is modified.
func (l Listing) Append(next Listing) Listing {
	posts := make([]PostSummary, 0, len(l.Posts)+len(next.Posts))
	posts = append(posts, l.Posts...)
	posts = append(posts, next.Posts...)
	return Listing{Posts: posts, NextPage: next.NextPage}
}
