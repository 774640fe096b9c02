// Package prismic is a thin client for the Prismic REST API v2.
//
// It knows nothing about pages or rendering: it builds search requests,
// follows pagination cursors and hands back decoded documents. Failures are
// returned to the caller as they happen; there is no retry.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("prismic: document not found")
	// ErrForeignURL is returned by FetchPage for cursors that do not point
	// at the configured repository.
	ErrForeignURL = errors.New("prismic: cursor does not belong to this repository")
	// ErrNoMasterRef is returned when the API root lists no master ref.
	ErrNoMasterRef = errors.New("prismic: no master ref")
)

// APIError describes a non-200 response from the API.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prismic %s: status=%d body=%s", e.Op, e.Status, e.Body)
}

// Client queries one Prismic repository.
type Client struct {
	httpClient  *http.Client
	endpoint    *url.URL
	accessToken string
	logger      *slog.Logger
	timeout     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is
// still wrapped for request logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout (default 10s). It applies to
// the client given by WithHTTPClient too, regardless of option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for outbound request logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New returns a client for the repository API at endpoint, e.g.
// "https://my-repo.cdn.prismic.io/api/v2". accessToken may be empty for
// public repositories.
func New(endpoint, accessToken string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(strings.TrimSpace(endpoint), "/"))
	if err != nil {
		return nil, fmt.Errorf("prismic: parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("prismic: endpoint %q must be an absolute URL", endpoint)
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		endpoint:    u,
		accessToken: accessToken,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	inner := c.httpClient.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}
	hc := *c.httpClient
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	hc.Transport = &loggingRoundTripper{inner: inner, logger: c.logger}
	c.httpClient = &hc
	return c, nil
}

// Endpoint returns the repository API URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// At builds an "at" predicate: At("document.type", "posts").
func At(path, value string) string {
	return fmt.Sprintf("[at(%s, %s)]", path, strconv.Quote(value))
}

// MasterRef fetches the API root and returns the master ref.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	u := *c.endpoint
	c.withToken(&u)
	var api API
	if err := c.get(ctx, "MasterRef", u.String(), &api); err != nil {
		return "", err
	}
	for _, r := range api.Refs {
		if r.IsMasterRef {
			return r.Ref, nil
		}
	}
	return "", ErrNoMasterRef
}

// Query runs a search with the given predicates.
func (c *Client) Query(ctx context.Context, predicates []string, opts QueryOptions) (Response, error) {
	ref := opts.Ref
	if ref == "" {
		var err error
		ref, err = c.MasterRef(ctx)
		if err != nil {
			return Response{}, err
		}
	}

	u := *c.endpoint
	u.Path = strings.TrimSuffix(u.Path, "/") + "/documents/search"
	q := url.Values{}
	q.Set("ref", ref)
	if len(predicates) > 0 {
		q.Set("q", "["+strings.Join(predicates, "")+"]")
	}
	if len(opts.Fetch) > 0 {
		q.Set("fetch", strings.Join(opts.Fetch, ","))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if len(opts.Orderings) > 0 {
		q.Set("orderings", "["+strings.Join(opts.Orderings, ",")+"]")
	}
	if opts.Lang != "" {
		q.Set("lang", opts.Lang)
	}
	u.RawQuery = q.Encode()
	c.withToken(&u)

	var out Response
	if err := c.get(ctx, "Query", u.String(), &out); err != nil {
		return Response{}, err
	}
	return out, nil
}

// GetByUID returns the document of docType whose uid is uid.
func (c *Client) GetByUID(ctx context.Context, docType, uid string, opts QueryOptions) (Document, error) {
	opts.PageSize = 1
	opts.Page = 0
	resp, err := c.Query(ctx, []string{At("my."+docType+".uid", uid)}, opts)
	if err != nil {
		return Document{}, err
	}
	if len(resp.Results) == 0 {
		return Document{}, ErrNotFound
	}
	return resp.Results[0], nil
}

// GetByID returns the document with the given id.
func (c *Client) GetByID(ctx context.Context, id string, opts QueryOptions) (Document, error) {
	opts.PageSize = 1
	opts.Page = 0
	resp, err := c.Query(ctx, []string{At("document.id", id)}, opts)
	if err != nil {
		return Document{}, err
	}
	if len(resp.Results) == 0 {
		return Document{}, ErrNotFound
	}
	return resp.Results[0], nil
}

// FetchPage performs a plain GET of a next_page cursor returned by a
// previous search and decodes the same paginated shape.
func (c *Client) FetchPage(ctx context.Context, cursor string) (Response, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return Response{}, fmt.Errorf("prismic: parse cursor: %w", err)
	}
	if !strings.EqualFold(u.Host, c.endpoint.Host) || (u.Scheme != "http" && u.Scheme != "https") {
		return Response{}, ErrForeignURL
	}
	c.withToken(u)
	var out Response
	if err := c.get(ctx, "FetchPage", u.String(), &out); err != nil {
		return Response{}, err
	}
	return out, nil
}

func (c *Client) withToken(u *url.URL) {
	if c.accessToken == "" {
		return
	}
	q := u.Query()
	if q.Get("access_token") != "" {
		return
	}
	q.Set("access_token", c.accessToken)
	u.RawQuery = q.Encode()
}

func (c *Client) get(ctx context.Context, op, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("prismic %s: decode: %w", op, err)
	}
	return nil
}
