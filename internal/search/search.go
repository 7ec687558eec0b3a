// Package search provides full-text search over knowledge base content,
// backed by Meilisearch with an in-memory fallback.
package search

import "context"

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultArticle  ResultType = "article"
	ResultPage     ResultType = "page"
	ResultDocument ResultType = "document"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type       ResultType `json:"type"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	CategoryID string     `json:"categoryId,omitempty"`
	SpaceID    string     `json:"spaceId,omitempty"`
	Status     string     `json:"status,omitempty"`
}

// Query describes a search request. CompanyID is always required so one
// tenant never sees another tenant's content. VisibleSpaceIDs restricts
// space-scoped hits to the spaces the caller can view; nil means
// unrestricted (company admins), an empty slice means no spaces at all.
type Query struct {
	Text            string
	CompanyID       string
	FilterType      ResultType // empty = all types
	FilterSpaceID   string
	VisibleSpaceIDs []string
	Limit           int
	Offset          int
}

// allowsSpace reports whether a hit scoped to spaceID may be returned.
// Space-less content (company-wide articles) is always allowed.
func (q Query) allowsSpace(spaceID string) bool {
	if spaceID == "" || q.VisibleSpaceIDs == nil {
		return true
	}
	for _, id := range q.VisibleSpaceIDs {
		if id == spaceID {
			return true
		}
	}
	return false
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexArticle(a ArticleRecord) error
	IndexPage(p PageRecord) error
	IndexDocument(d DocumentRecord) error
	DeleteArticle(id string) error
	DeletePage(id string) error
	DeleteDocument(id string) error
}

// ArticleRecord is the data we index for a knowledge base article.
// SpaceID is empty for company-wide articles.
type ArticleRecord struct {
	ID         string `json:"id"`
	CompanyID  string `json:"companyId"`
	CategoryID string `json:"categoryId"`
	SpaceID    string `json:"spaceId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	IsActive   bool   `json:"isActive"`
}

// PageRecord is the data we index for a page.
type PageRecord struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	SpaceID   string `json:"spaceId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Status    string `json:"status"`
}

// DocumentRecord is the data we index for a document.
type DocumentRecord struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	SpaceID   string `json:"spaceId"`
	Title     string `json:"title"`
	FileName  string `json:"fileName"`
	IsActive  bool   `json:"isActive"`
}
