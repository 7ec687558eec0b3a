package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"atrium/api/internal/authz"
	"atrium/api/internal/store"
	"atrium/api/internal/util"
)

type AIQuestionInput struct {
	Question string `json:"question"`
	Scope    string `json:"scope"`
	ScopeID  string `json:"scopeId"`
}

func parseAIScope(raw string) (store.AIScope, error) {
	switch store.AIScope(raw) {
	case "", store.ScopeGlobal:
		return store.ScopeGlobal, nil
	case store.ScopeSpace, store.ScopePage, store.ScopeDocument, store.ScopeKnowledgeBase:
		return store.AIScope(raw), nil
	}
	return "", errValidation("invalid scope")
}

// AskAI answers a question through the company's configured AI backend.
// Without an API key the question is stored as pending and no call is
// made. A backend failure is recorded on the query rather than failing
// the request.
func (s *Service) AskAI(ctx context.Context, sess Session, input AIQuestionInput) (store.AIQuery, error) {
	_, company, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.AIQuery{}, err
	}
	if !authz.CanAccessFeature(company, authz.FeatureAI, s.now()) {
		return store.AIQuery{}, errPlanRestricted(authz.FeatureAI)
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return store.AIQuery{}, errValidation("question is required")
	}
	scope, err := parseAIScope(input.Scope)
	if err != nil {
		return store.AIQuery{}, err
	}
	scopeContext, err := s.aiScopeContext(ctx, sess, scope, input.ScopeID)
	if err != nil {
		return store.AIQuery{}, err
	}

	query := store.AIQuery{
		ID:        util.NewID("aiq"),
		CompanyID: sess.CompanyID,
		UserID:    sess.UserID,
		Question:  question,
		Scope:     scope,
		ScopeID:   input.ScopeID,
		Status:    store.AIPending,
		CreatedAt: s.now(),
	}

	if company.AIAPIKey == "" || s.ai == nil {
		if err := s.store.InsertAIQuery(ctx, query); err != nil {
			return store.AIQuery{}, err
		}
		return query, nil
	}

	answer, askErr := s.ai.Ask(ctx, company.AIAPIKey, question, string(scope), scopeContext)
	if askErr != nil {
		query.Status = store.AIError
		query.AnswerText = "Error interacting with AI: " + askErr.Error()
	} else {
		query.Status = store.AIAnswered
		query.AnswerText = answer
		query.AnsweredAt = s.now()
	}
	if err := s.store.InsertAIQuery(ctx, query); err != nil {
		return store.AIQuery{}, err
	}
	return query, nil
}

// aiScopeContext gathers the text the scope points at, after the usual
// visibility checks.
func (s *Service) aiScopeContext(ctx context.Context, sess Session, scope store.AIScope, scopeID string) (string, error) {
	if scope == store.ScopeGlobal {
		return "", nil
	}
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return "", err
	}
	switch scope {
	case store.ScopeSpace:
		space, err := s.store.GetSpace(ctx, scopeID)
		if err != nil {
			return "", err
		}
		if space.CompanyID != sess.CompanyID || !authz.CanViewSpace(space, user, memberships) {
			return "", errNotFound()
		}
		pages, err := s.store.ListPagesBySpace(ctx, space.ID)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Space: %s\n%s\n", space.Name, space.Description)
		for _, p := range pages {
			if p.Status != store.PagePublished {
				continue
			}
			fmt.Fprintf(&b, "\n# %s\n%s\n", p.Title, p.Content)
		}
		return b.String(), nil
	case store.ScopePage:
		page, err := s.store.GetPage(ctx, scopeID)
		if err != nil {
			return "", err
		}
		space, err := s.store.GetSpace(ctx, page.SpaceID)
		if err != nil {
			return "", err
		}
		if page.CompanyID != sess.CompanyID || !authz.CanViewPage(page, space, user, memberships) {
			return "", errNotFound()
		}
		return fmt.Sprintf("# %s\n%s", page.Title, page.Content), nil
	case store.ScopeDocument:
		doc, err := s.store.GetDocument(ctx, scopeID)
		if err != nil {
			return "", err
		}
		space, err := s.store.GetSpace(ctx, doc.SpaceID)
		if err != nil {
			return "", err
		}
		if doc.CompanyID != sess.CompanyID || !authz.CanViewDocument(doc, space, user, memberships) {
			return "", errNotFound()
		}
		return fmt.Sprintf("Document: %s (%s)", doc.Title, doc.FileName), nil
	case store.ScopeKnowledgeBase:
		articles, err := s.store.ListKnowledgeArticles(ctx, sess.CompanyID)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, a := range articles {
			if !a.IsActive {
				continue
			}
			fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", a.Question, a.Answer)
		}
		return b.String(), nil
	}
	return "", nil
}

// AIHistory returns recent questions, newest first. Admins see the whole
// company's history; everyone else only their own.
func (s *Service) AIHistory(ctx context.Context, sess Session) ([]store.AIQuery, error) {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	var queries []store.AIQuery
	if authz.IsCompanyAdmin(user) || authz.IsSuperAdmin(user) {
		queries, err = s.store.ListAIQueries(ctx, sess.CompanyID)
	} else {
		queries, err = s.store.ListUserAIQueries(ctx, sess.UserID)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(queries, func(i, j int) bool { return queries[i].CreatedAt.After(queries[j].CreatedAt) })
	return queries, nil
}
