package spacetravelling

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/eringen/spacetravelling/format"
	"github.com/eringen/spacetravelling/prismic"
	"github.com/eringen/spacetravelling/richtext"
	"github.com/eringen/spacetravelling/views"
)

const (
	postType = "posts"
	// enumPageSize is the largest page the search API serves.
	enumPageSize = 100
)

var listingFields = []string{"posts.title", "posts.subtitle", "posts.author"}

var postOrdering = []string{"document.first_publication_date desc"}

var (
	// ErrNotFound is returned when a requested post does not exist.
	ErrNotFound = errors.New("spacetravelling: post not found")
	// ErrUpstreamUnavailable wraps every other content service failure.
	ErrUpstreamUnavailable = errors.New("spacetravelling: content service unavailable")
	// ErrInvalidCursor is returned for pagination cursors that do not
	// belong to the configured repository.
	ErrInvalidCursor = errors.New("spacetravelling: invalid pagination cursor")
)

// postData is the custom type "posts" as stored in the CMS.
type postData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
	Banner   struct {
		URL        string `json:"url"`
		Alt        string `json:"alt"`
		Dimensions struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"dimensions"`
	} `json:"banner"`
	Content []struct {
		Heading string            `json:"heading"`
		Body    richtext.RichText `json:"body"`
	} `json:"content"`
}

// Store reads posts from the content service and shapes them into the
// records the components render. It holds no state between calls.
type Store struct {
	client   *prismic.Client
	pageSize int
	locale   language.Tag
}

// NewStore creates a Store backed by the given client. pageSize is the
// size of the listing's pages.
func NewStore(client *prismic.Client, pageSize int, locale language.Tag) *Store {
	return &Store{client: client, pageSize: pageSize, locale: locale}
}

// ListPosts returns the first page of post summaries. An empty ref reads
// published content.
func (s *Store) ListPosts(ctx context.Context, ref string) (views.Listing, error) {
	return s.listPage(ctx, ref, s.pageSize)
}

// NextPage fetches the page behind a cursor returned by a previous listing.
func (s *Store) NextPage(ctx context.Context, cursor string) (views.Listing, error) {
	resp, err := s.client.FetchPage(ctx, cursor)
	if err != nil {
		if errors.Is(err, prismic.ErrForeignURL) {
			return views.Listing{}, ErrInvalidCursor
		}
		return views.Listing{}, upstream("next page", err)
	}
	return s.listing(resp)
}

// AllPosts walks every page of the listing and returns all summaries.
func (s *Store) AllPosts(ctx context.Context, ref string) ([]views.PostSummary, error) {
	listing, err := s.listPage(ctx, ref, enumPageSize)
	if err != nil {
		return nil, err
	}
	for listing.HasMore() {
		next, err := s.NextPage(ctx, listing.NextPage)
		if err != nil {
			return nil, err
		}
		listing = listing.Append(next)
	}
	return listing.Posts, nil
}

// ListSlugs returns the identifier of every post, for pre-rendering.
func (s *Store) ListSlugs(ctx context.Context, ref string) ([]string, error) {
	posts, err := s.AllPosts(ctx, ref)
	if err != nil {
		return nil, err
	}
	uids := make([]string, 0, len(posts))
	for _, p := range posts {
		if p.UID != "" {
			uids = append(uids, p.UID)
		}
	}
	return uids, nil
}

// GetPost returns a single post by its identifier.
func (s *Store) GetPost(ctx context.Context, ref, uid string) (views.PostDetail, error) {
	doc, err := s.client.GetByUID(ctx, postType, uid, prismic.QueryOptions{Ref: ref})
	if err != nil {
		return views.PostDetail{}, upstream("get post", err)
	}
	return s.detail(doc)
}

// GetPostByID returns a single post by its document id. Preview links
// identify documents this way.
func (s *Store) GetPostByID(ctx context.Context, ref, id string) (views.PostDetail, error) {
	doc, err := s.client.GetByID(ctx, id, prismic.QueryOptions{Ref: ref})
	if err != nil {
		return views.PostDetail{}, upstream("get post by id", err)
	}
	if doc.Type != postType {
		return views.PostDetail{}, ErrNotFound
	}
	return s.detail(doc)
}

func (s *Store) listPage(ctx context.Context, ref string, size int) (views.Listing, error) {
	resp, err := s.client.Query(ctx,
		[]string{prismic.At("document.type", postType)},
		prismic.QueryOptions{
			Ref:       ref,
			Fetch:     listingFields,
			PageSize:  size,
			Orderings: postOrdering,
		})
	if err != nil {
		return views.Listing{}, upstream("list posts", err)
	}
	return s.listing(resp)
}

func (s *Store) listing(resp prismic.Response) (views.Listing, error) {
	posts := make([]views.PostSummary, 0, len(resp.Results))
	for _, doc := range resp.Results {
		var data postData
		if err := doc.DecodeData(&data); err != nil {
			return views.Listing{}, upstream("decode post "+doc.ID, err)
		}
		first := deref(doc.FirstPublicationDate)
		posts = append(posts, views.PostSummary{
			UID:                  doc.UID,
			FirstPublicationDate: first,
			Date:                 format.FormatDateIn(s.locale, first),
			Title:                data.Title,
			Subtitle:             data.Subtitle,
			Author:               data.Author,
		})
	}
	return views.Listing{Posts: posts, NextPage: resp.Next()}, nil
}

func (s *Store) detail(doc prismic.Document) (views.PostDetail, error) {
	var data postData
	if err := doc.DecodeData(&data); err != nil {
		return views.PostDetail{}, upstream("decode post "+doc.ID, err)
	}
	first := deref(doc.FirstPublicationDate)
	last := deref(doc.LastPublicationDate)

	post := views.PostDetail{
		UID:                  doc.UID,
		FirstPublicationDate: first,
		LastPublicationDate:  last,
		Date:                 format.FormatDateIn(s.locale, first),
		Title:                data.Title,
		Author:               data.Author,
		Banner: views.Banner{
			URL:    data.Banner.URL,
			Alt:    data.Banner.Alt,
			Width:  data.Banner.Dimensions.Width,
			Height: data.Banner.Dimensions.Height,
		},
	}
	if last != "" && first != "" && last != first {
		post.EditedAt = format.FormatDateIn(s.locale, last)
	}

	texts := make([]string, 0, 2*len(data.Content))
	for _, group := range data.Content {
		post.Content = append(post.Content, views.Section{Heading: group.Heading, Body: group.Body})
		texts = append(texts, group.Heading, richtext.AsText(group.Body))
	}
	post.ReadingTime = format.ReadingTime(texts...)
	return post, nil
}

func upstream(op string, err error) error {
	if errors.Is(err, prismic.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
