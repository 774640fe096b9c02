package prismic

import "encoding/json"

// Ref is a content release pointer. The master ref points at the
// published content; preview sessions use their own ref.
type Ref struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

// API is the repository description returned by the API root.
type API struct {
	Refs []Ref `json:"refs"`
}

// Document is a single content record. Data is left raw so callers can
// decode the custom type they expect.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Href                 string          `json:"href"`
	Tags                 []string        `json:"tags"`
	Lang                 string          `json:"lang"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// DecodeData unmarshals the document's custom fields into v.
func (d Document) DecodeData(v any) error {
	if len(d.Data) == 0 {
		return nil
	}
	return json.Unmarshal(d.Data, v)
}

// Response is one page of search results. NextPage is nil on the last page.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

// Next returns the continuation cursor, or "" when there are no more pages.
func (r Response) Next() string {
	if r.NextPage == nil {
		return ""
	}
	return *r.NextPage
}

// QueryOptions mirror the search endpoint parameters.
type QueryOptions struct {
	Ref       string   // empty means the master ref
	Fetch     []string // field projection, e.g. "posts.title"
	PageSize  int
	Page      int
	Orderings []string // e.g. "document.first_publication_date desc"
	Lang      string
}
