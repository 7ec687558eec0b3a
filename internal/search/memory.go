package search

import (
	"context"
	"sort"
	"strings"

	"atrium/api/internal/store"
)

// Memory is a substring-match fallback used when Meilisearch is down or
// not configured. It scans the primary store on every query.
type Memory struct {
	store *store.Store
}

// NewMemory creates the fallback searcher.
func NewMemory(st *store.Store) *Memory {
	return &Memory{store: st}
}

// Healthy always reports true; the fallback has no external dependency.
func (m *Memory) Healthy() bool {
	return true
}

// Search scans articles, pages, and documents for a case-insensitive
// substring match. Only published pages and active rows are considered,
// and space-scoped rows outside q.VisibleSpaceIDs are skipped.
func (m *Memory) Search(ctx context.Context, q Query) ([]Result, int, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" || q.CompanyID == "" {
		return nil, 0, nil
	}

	var results []Result

	if q.FilterType == "" || q.FilterType == ResultArticle {
		articles, err := m.store.ListKnowledgeArticles(ctx, q.CompanyID)
		if err != nil {
			return nil, 0, err
		}
		for _, a := range articles {
			if !a.IsActive || !q.allowsSpace(a.SpaceID) {
				continue
			}
			if matches(needle, a.Question, a.Answer) {
				results = append(results, Result{
					Type:       ResultArticle,
					ID:         a.ID,
					Title:      a.Question,
					Snippet:    snippet(a.Answer, needle),
					CategoryID: a.CategoryID,
					SpaceID:    a.SpaceID,
				})
			}
		}
	}

	if q.FilterType == "" || q.FilterType == ResultPage {
		pages, err := m.store.ListPages(ctx, q.CompanyID)
		if err != nil {
			return nil, 0, err
		}
		for _, p := range pages {
			if q.FilterSpaceID != "" && p.SpaceID != q.FilterSpaceID {
				continue
			}
			if p.Status != store.PagePublished || !q.allowsSpace(p.SpaceID) {
				continue
			}
			if matches(needle, p.Title, p.Content) {
				results = append(results, Result{
					Type:    ResultPage,
					ID:      p.ID,
					Title:   p.Title,
					Snippet: snippet(p.Content, needle),
					SpaceID: p.SpaceID,
					Status:  string(p.Status),
				})
			}
		}
	}

	if q.FilterType == "" || q.FilterType == ResultDocument {
		docs, err := m.store.ListDocuments(ctx, q.CompanyID)
		if err != nil {
			return nil, 0, err
		}
		for _, d := range docs {
			if q.FilterSpaceID != "" && d.SpaceID != q.FilterSpaceID {
				continue
			}
			if !d.IsActive || !q.allowsSpace(d.SpaceID) {
				continue
			}
			if matches(needle, d.Title, d.FileName) {
				results = append(results, Result{
					Type:    ResultDocument,
					ID:      d.ID,
					Title:   d.Title,
					Snippet: d.FileName,
					SpaceID: d.SpaceID,
				})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Title < results[j].Title
	})

	total := len(results)
	results = paginate(results, q.Offset, q.Limit)
	return results, total, nil
}

func matches(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// snippet returns a short window of text around the first match.
func snippet(text, needle string) string {
	const window = 80
	lower := strings.ToLower(text)
	idx := strings.Index(lower, needle)
	if idx < 0 {
		if len(text) > window {
			return text[:window]
		}
		return text
	}
	start := idx - window/2
	if start < 0 {
		start = 0
	}
	end := idx + len(needle) + window/2
	if end > len(text) {
		end = len(text)
	}
	return strings.TrimSpace(text[start:end])
}

func paginate(results []Result, offset, limit int) []Result {
	if limit == 0 {
		limit = 20
	}
	if offset >= len(results) {
		return []Result{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}
