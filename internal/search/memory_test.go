package search

import (
	"context"
	"testing"

	"atrium/api/internal/kv"
	"atrium/api/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return store.New(kv.NewWithClient(client))
}

func seedContent(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()

	articles := []store.KnowledgeArticle{
		{ID: "ka_1", CompanyID: "co_1", CategoryID: "kc_1", Question: "How do I request vacation?", Answer: "Submit a request through the HR portal.", IsActive: true},
		{ID: "ka_2", CompanyID: "co_1", CategoryID: "kc_1", Question: "Old policy", Answer: "Vacation used to be unlimited.", IsActive: false},
		{ID: "ka_3", CompanyID: "co_2", CategoryID: "kc_9", Question: "Vacation at other co", Answer: "Irrelevant.", IsActive: true},
	}
	for _, a := range articles {
		if err := st.InsertKnowledgeArticle(ctx, a); err != nil {
			t.Fatalf("insert article: %v", err)
		}
	}

	pages := []store.Page{
		{ID: "pg_1", CompanyID: "co_1", SpaceID: "sp_1", Title: "Vacation policy", Content: "Details about time off.", Status: store.PagePublished},
		{ID: "pg_2", CompanyID: "co_1", SpaceID: "sp_2", Title: "Engineering handbook", Content: "How we ship.", Status: store.PagePublished},
		{ID: "pg_3", CompanyID: "co_1", SpaceID: "sp_1", Title: "Vacation policy rework", Content: "Draft notes, not ready.", Status: store.PageDraft},
	}
	for _, p := range pages {
		if err := st.InsertPage(ctx, p); err != nil {
			t.Fatalf("insert page: %v", err)
		}
	}

	docs := []store.Document{
		{ID: "doc_1", CompanyID: "co_1", SpaceID: "sp_1", Title: "Vacation form", FileName: "vacation-form.pdf", IsActive: true},
		{ID: "doc_2", CompanyID: "co_1", SpaceID: "sp_1", Title: "Archived vacation form", FileName: "old.pdf", IsActive: false},
	}
	for _, d := range docs {
		if err := st.InsertDocument(ctx, d); err != nil {
			t.Fatalf("insert document: %v", err)
		}
	}
}

func TestMemorySearchMatchesAcrossTypes(t *testing.T) {
	st := newTestStore(t)
	seedContent(t, st)
	m := NewMemory(st)

	results, total, err := m.Search(context.Background(), Query{Text: "vacation", CompanyID: "co_1"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 results, got %d: %+v", total, results)
	}

	byID := map[string]Result{}
	for _, r := range results {
		byID[r.ID] = r
	}
	if _, ok := byID["ka_1"]; !ok {
		t.Error("expected article ka_1 in results")
	}
	if _, ok := byID["pg_1"]; !ok {
		t.Error("expected page pg_1 in results")
	}
	if _, ok := byID["doc_1"]; !ok {
		t.Error("expected document doc_1 in results")
	}
	if _, ok := byID["ka_2"]; ok {
		t.Error("inactive article should be excluded")
	}
	if _, ok := byID["doc_2"]; ok {
		t.Error("inactive document should be excluded")
	}
	if _, ok := byID["ka_3"]; ok {
		t.Error("other company's article should be excluded")
	}
	if _, ok := byID["pg_3"]; ok {
		t.Error("draft page should be excluded")
	}
}

func TestMemorySearchVisibleSpaces(t *testing.T) {
	st := newTestStore(t)
	seedContent(t, st)
	m := NewMemory(st)

	// Caller can only see sp_2: the sp_1 page and document drop out, the
	// company-wide article stays.
	results, _, err := m.Search(context.Background(), Query{Text: "vacation", CompanyID: "co_1", VisibleSpaceIDs: []string{"sp_2"}})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "ka_1" {
		t.Errorf("expected only the company-wide article, got %+v", results)
	}

	// No visible spaces at all still yields company-wide articles only.
	results, _, err = m.Search(context.Background(), Query{Text: "vacation", CompanyID: "co_1", VisibleSpaceIDs: []string{}})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "ka_1" {
		t.Errorf("expected only the company-wide article, got %+v", results)
	}
}

func TestMemorySearchTypeFilter(t *testing.T) {
	st := newTestStore(t)
	seedContent(t, st)
	m := NewMemory(st)

	results, _, err := m.Search(context.Background(), Query{Text: "vacation", CompanyID: "co_1", FilterType: ResultArticle})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "ka_1" {
		t.Errorf("expected only ka_1, got %+v", results)
	}
}

func TestMemorySearchSpaceFilter(t *testing.T) {
	st := newTestStore(t)
	seedContent(t, st)
	m := NewMemory(st)

	results, _, err := m.Search(context.Background(), Query{Text: "handbook", CompanyID: "co_1", FilterSpaceID: "sp_1"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results outside sp_2, got %+v", results)
	}

	results, _, err = m.Search(context.Background(), Query{Text: "handbook", CompanyID: "co_1", FilterSpaceID: "sp_2"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "pg_2" {
		t.Errorf("expected pg_2, got %+v", results)
	}
}

func TestMemorySearchEmptyQuery(t *testing.T) {
	st := newTestStore(t)
	seedContent(t, st)
	m := NewMemory(st)

	results, total, err := m.Search(context.Background(), Query{Text: "   ", CompanyID: "co_1"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 0 || len(results) != 0 {
		t.Errorf("expected no results for blank query, got %+v", results)
	}
}

func TestMemorySearchPagination(t *testing.T) {
	st := newTestStore(t)
	seedContent(t, st)
	m := NewMemory(st)

	page1, total, err := m.Search(context.Background(), Query{Text: "vacation", CompanyID: "co_1", Limit: 2})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 3 || len(page1) != 2 {
		t.Fatalf("expected total 3 with 2 on first page, got total=%d len=%d", total, len(page1))
	}

	page2, _, err := m.Search(context.Background(), Query{Text: "vacation", CompanyID: "co_1", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(page2) != 1 {
		t.Errorf("expected 1 result on second page, got %d", len(page2))
	}
}
