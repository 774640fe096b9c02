// Package richtext renders the CMS's structured text (an ordered sequence of
// blocks with styled spans) as HTML, and exposes it as a templ component.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

// Block types.
const (
	Heading1     = "heading1"
	Heading2     = "heading2"
	Heading3     = "heading3"
	Heading4     = "heading4"
	Heading5     = "heading5"
	Heading6     = "heading6"
	Paragraph    = "paragraph"
	Preformatted = "preformatted"
	ListItem     = "list-item"
	OListItem    = "o-list-item"
	Image        = "image"
	Embed        = "embed"
)

// Span types.
const (
	Strong    = "strong"
	Em        = "em"
	Hyperlink = "hyperlink"
	Label     = "label"
)

// RichText is an ordered sequence of blocks.
type RichText []Block

// Block is one node of structured text. Only the fields relevant to the
// block's Type are set.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Spans      []Span      `json:"spans"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Copyright  string      `json:"copyright,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	LinkTo     *Link       `json:"linkTo,omitempty"`
	OEmbed     *OEmbed     `json:"oembed,omitempty"`
}

// Dimensions of an image block.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Span styles Text[Start:End]. Offsets count UTF-16 code units.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries the link target of a hyperlink span or the name of a
// label span.
type SpanData struct {
	Link
	Label string `json:"label,omitempty"`
}

// Link is a web, media or document link.
type Link struct {
	LinkType string `json:"link_type,omitempty"` // "Web", "Media" or "Document"
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	ID       string `json:"id,omitempty"`
	UID      string `json:"uid,omitempty"`
	Type     string `json:"type,omitempty"`
}

// OEmbed is the embed payload of an embed block. HTML is trusted.
type OEmbed struct {
	Type         string `json:"type"`
	EmbedURL     string `json:"embed_url"`
	ProviderName string `json:"provider_name"`
	HTML         string `json:"html"`
}

// LinkResolver maps document links to site paths.
type LinkResolver func(Link) string

// Options control rendering.
type Options struct {
	LinkResolver LinkResolver
	// Policy, when set, sanitises the rendered HTML. Nil trusts the CMS.
	Policy *bluemonday.Policy
}

// Component returns a templ.Component that renders rt as HTML.
func Component(rt RichText, opts Options) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, rt, opts)
		out := buf.Bytes()
		if opts.Policy != nil {
			out = opts.Policy.SanitizeBytes(out)
		}
		_, err := w.Write(out)
		return err
	})
}

// AsHTML renders rt to a string.
func AsHTML(rt RichText, opts Options) string {
	var buf bytes.Buffer
	Render(&buf, rt, opts)
	if opts.Policy != nil {
		return opts.Policy.Sanitize(buf.String())
	}
	return buf.String()
}

// AsText joins the text of every block with single spaces.
func AsText(rt RichText) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		if t := strings.TrimSpace(b.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Render writes the HTML representation of rt to buf. Consecutive list
// items are grouped into a single <ul> or <ol>.
func Render(buf *bytes.Buffer, rt RichText, opts Options) {
	inList := false
	inOrderedList := false

	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	flushOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}

	for _, b := range rt {
		switch b.Type {
		case ListItem:
			flushOrderedList()
			if !inList {
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			writeSpans(buf, b, opts)
			buf.WriteString("</li>")
			continue
		case OListItem:
			flushList()
			if !inOrderedList {
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			writeSpans(buf, b, opts)
			buf.WriteString("</li>")
			continue
		}

		flushList()
		flushOrderedList()

		switch b.Type {
		case Heading1, Heading2, Heading3, Heading4, Heading5, Heading6:
			tag := "h" + b.Type[len(b.Type)-1:]
			buf.WriteString("<" + tag + ">")
			writeSpans(buf, b, opts)
			buf.WriteString("</" + tag + ">")
		case Preformatted:
			buf.WriteString("<pre>")
			writeSpans(buf, b, opts)
			buf.WriteString("</pre>")
		case Image:
			writeImage(buf, b, opts)
		case Embed:
			writeEmbed(buf, b)
		default:
			buf.WriteString("<p>")
			writeSpans(buf, b, opts)
			buf.WriteString("</p>")
		}
	}
	flushList()
	flushOrderedList()
}

func writeImage(buf *bytes.Buffer, b Block, opts Options) {
	src := safeURL(b.URL)
	if src == "" {
		return
	}
	img := `<img src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"`
	if b.Copyright != "" {
		img += ` copyright="` + html.EscapeString(b.Copyright) + `"`
	}
	if b.Dimensions != nil {
		img += ` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`
	}
	img += ` loading="lazy" decoding="async"/>`

	buf.WriteString(`<p class="block-img">`)
	if b.LinkTo != nil {
		if href := resolveLink(*b.LinkTo, opts); href != "" {
			buf.WriteString(`<a href="` + href + `"` + targetAttrs(*b.LinkTo) + `>` + img + `</a>`)
			buf.WriteString(`</p>`)
			return
		}
	}
	buf.WriteString(img)
	buf.WriteString(`</p>`)
}

func writeEmbed(buf *bytes.Buffer, b Block) {
	if b.OEmbed == nil {
		return
	}
	buf.WriteString(`<div data-oembed="` + html.EscapeString(b.OEmbed.EmbedURL) +
		`" data-oembed-type="` + html.EscapeString(b.OEmbed.Type) +
		`" data-oembed-provider="` + html.EscapeString(b.OEmbed.ProviderName) + `">`)
	buf.WriteString(b.OEmbed.HTML)
	buf.WriteString(`</div>`)
}

// writeSpans renders the block's text with its spans applied. Spans that
// overlap without nesting are split at the enclosing span's end so the
// output is always well formed.
func writeSpans(buf *bytes.Buffer, b Block, opts Options) {
	units := utf16.Encode([]rune(b.Text))
	spans := make([]Span, 0, len(b.Spans))
	for _, s := range b.Spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > len(units) {
			s.End = len(units)
		}
		// offsets inside a surrogate pair widen to the whole character
		if s.Start > 0 && s.Start < len(units) && isLowSurrogate(units[s.Start]) {
			s.Start--
		}
		if s.End > 0 && s.End < len(units) && isLowSurrogate(units[s.End]) {
			s.End++
		}
		if s.Start < s.End {
			spans = append(spans, s)
		}
	}
	writeRange(buf, units, 0, len(units), spans, opts)
}

func isLowSurrogate(u uint16) bool {
	return u >= 0xdc00 && u < 0xe000
}

func writeRange(buf *bytes.Buffer, units []uint16, start, end int, spans []Span, opts Options) {
	sortSpans(spans)
	pos := start
	for len(spans) > 0 {
		s := spans[0]
		spans = spans[1:]
		if s.Start < pos {
			s.Start = pos
		}
		if s.End > end {
			s.End = end
		}
		if s.Start >= s.End {
			continue
		}

		var inner, rest []Span
		for _, o := range spans {
			if o.Start >= s.End {
				rest = append(rest, o)
				continue
			}
			if o.End > s.End {
				tail := o
				tail.Start = s.End
				rest = append(rest, tail)
				o.End = s.End
			}
			inner = append(inner, o)
		}

		writeText(buf, units[pos:s.Start])
		open, closeTag := spanTags(s, opts)
		buf.WriteString(open)
		writeRange(buf, units, s.Start, s.End, inner, opts)
		buf.WriteString(closeTag)

		pos = s.End
		spans = rest
		sortSpans(spans)
	}
	writeText(buf, units[pos:end])
}

func sortSpans(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})
}

func spanTags(s Span, opts Options) (string, string) {
	switch s.Type {
	case Strong:
		return "<strong>", "</strong>"
	case Em:
		return "<em>", "</em>"
	case Label:
		name := ""
		if s.Data != nil {
			name = s.Data.Label
		}
		return `<span class="` + html.EscapeString(name) + `">`, "</span>"
	case Hyperlink:
		if s.Data == nil {
			return "", ""
		}
		href := resolveLink(s.Data.Link, opts)
		if href == "" {
			return "", ""
		}
		return `<a href="` + href + `"` + targetAttrs(s.Data.Link) + `>`, "</a>"
	default:
		return "", ""
	}
}

func targetAttrs(l Link) string {
	if l.Target == "" {
		return ""
	}
	return ` target="` + html.EscapeString(l.Target) + `" rel="noopener noreferrer"`
}

func resolveLink(l Link, opts Options) string {
	if l.LinkType == "Document" {
		if opts.LinkResolver == nil {
			return ""
		}
		return safeURL(opts.LinkResolver(l))
	}
	return safeURL(l.URL)
}

func writeText(buf *bytes.Buffer, units []uint16) {
	if len(units) == 0 {
		return
	}
	text := html.EscapeString(string(utf16.Decode(units)))
	buf.WriteString(strings.ReplaceAll(text, "\n", "<br />"))
}

// safeURL returns an attribute-escaped URL, or "" for schemes other than
// http(s), mailto and tel.
func safeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
