package app

import (
	"context"
	"strings"

	"atrium/api/internal/authz"
	"atrium/api/internal/search"
	"atrium/api/internal/store"
	"atrium/api/internal/util"
)

type PageInput struct {
	SpaceID    string `json:"spaceId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	TemplateID string `json:"templateId"`
}

type CommentInput struct {
	Body string `json:"body"`
}

type WidgetInput struct {
	Kind      string `json:"kind"`
	Config    string `json:"config"`
	SortOrder int    `json:"sortOrder"`
}

// ListSpacePages returns the pages in a space the caller can see. Drafts
// are manager-only.
func (s *Service) ListSpacePages(ctx context.Context, sess Session, spaceID string) ([]map[string]any, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	space, err := s.store.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if !authz.CanViewSpace(space, user, memberships) {
		return nil, errNotFound()
	}
	pages, err := s.store.ListPagesBySpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(pages))
	for _, page := range pages {
		if !authz.CanViewPage(page, space, user, memberships) {
			continue
		}
		items = append(items, pageSummary(page))
	}
	return items, nil
}

func pageSummary(page store.Page) map[string]any {
	return map[string]any{
		"id":        page.ID,
		"spaceId":   page.SpaceID,
		"title":     page.Title,
		"status":    page.Status,
		"createdBy": page.CreatedBy,
		"updatedAt": page.UpdatedAt,
	}
}

func (s *Service) GetPage(ctx context.Context, sess Session, pageID string) (map[string]any, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	space, err := s.store.GetSpace(ctx, page.SpaceID)
	if err != nil {
		return nil, err
	}
	if !authz.CanViewPage(page, space, user, memberships) {
		return nil, errNotFound()
	}

	// Record the view for analytics; failures never block the read.
	_ = s.store.InsertPageView(ctx, store.PageView{
		ID:        util.NewID("pv"),
		CompanyID: page.CompanyID,
		PageID:    page.ID,
		UserID:    sess.UserID,
		CreatedAt: s.now(),
	})

	widgets, err := s.store.ListPageWidgets(ctx, pageID)
	if err != nil {
		return nil, err
	}
	widgetItems := make([]map[string]any, 0, len(widgets))
	for _, w := range widgets {
		widgetItems = append(widgetItems, map[string]any{
			"id":        w.ID,
			"kind":      w.Kind,
			"config":    w.Config,
			"sortOrder": w.SortOrder,
		})
	}

	comments, err := s.store.ListPageComments(ctx, pageID)
	if err != nil {
		return nil, err
	}
	commentItems := make([]map[string]any, 0, len(comments))
	for _, c := range comments {
		name := "Unknown"
		if u, err := s.store.GetUser(ctx, c.UserID); err == nil {
			name = u.DisplayName
		}
		commentItems = append(commentItems, map[string]any{
			"id":        c.ID,
			"userId":    c.UserID,
			"author":    name,
			"body":      c.Body,
			"createdAt": c.CreatedAt,
		})
	}

	return map[string]any{
		"id":         page.ID,
		"spaceId":    page.SpaceID,
		"title":      page.Title,
		"content":    page.Content,
		"status":     page.Status,
		"templateId": page.TemplateID,
		"createdBy":  page.CreatedBy,
		"createdAt":  page.CreatedAt,
		"updatedAt":  page.UpdatedAt,
		"widgets":    widgetItems,
		"comments":   commentItems,
		"canEdit":    authz.CanEditPage(page, space, user, memberships),
	}, nil
}

// CreatePage creates a draft page, optionally copying a template's content.
func (s *Service) CreatePage(ctx context.Context, sess Session, input PageInput) (map[string]any, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	space, err := s.store.GetSpace(ctx, input.SpaceID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageSpace(space, user, memberships) {
		return nil, errForbidden()
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errValidation("title is required")
	}

	content := input.Content
	templateID := strings.TrimSpace(input.TemplateID)
	if content == "" && templateID != "" {
		if tmpl, err := s.store.GetTemplate(ctx, templateID); err == nil && tmpl.CompanyID == sess.CompanyID {
			content = tmpl.Content
		}
	}

	now := s.now()
	page := store.Page{
		ID:         util.NewID("pg"),
		CompanyID:  sess.CompanyID,
		SpaceID:    space.ID,
		Title:      title,
		Content:    content,
		Status:     store.PageDraft,
		TemplateID: templateID,
		CreatedBy:  sess.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.InsertPage(ctx, page); err != nil {
		return nil, err
	}
	s.logActivity(ctx, sess, store.KindPage, page.ID, "created", page.Title)
	return s.GetPage(ctx, sess, page.ID)
}

func (s *Service) UpdatePage(ctx context.Context, sess Session, pageID string, input PageInput) (map[string]any, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	space, err := s.store.GetSpace(ctx, page.SpaceID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEditPage(page, space, user, memberships) {
		return nil, errForbidden()
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		page.Title = title
	}
	if input.Content != "" {
		page.Content = input.Content
	}
	page.UpdatedAt = s.now()
	if err := s.store.UpdatePage(ctx, page); err != nil {
		return nil, err
	}
	if page.Status == store.PagePublished {
		s.search.IndexPage(pageRecord(page))
	}
	s.logActivity(ctx, sess, store.KindPage, page.ID, "updated", page.Title)
	return s.GetPage(ctx, sess, page.ID)
}

// SetPageStatus publishes or unpublishes a page.
func (s *Service) SetPageStatus(ctx context.Context, sess Session, pageID string, status store.PageStatus) (map[string]any, error) {
	if status != store.PageDraft && status != store.PagePublished {
		return nil, errValidation("status must be draft or published")
	}
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	space, err := s.store.GetSpace(ctx, page.SpaceID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEditPage(page, space, user, memberships) {
		return nil, errForbidden()
	}

	page.Status = status
	page.UpdatedAt = s.now()
	if err := s.store.UpdatePage(ctx, page); err != nil {
		return nil, err
	}
	if status == store.PagePublished {
		s.search.IndexPage(pageRecord(page))
		s.logActivity(ctx, sess, store.KindPage, page.ID, "published", page.Title)
	} else {
		s.search.DeletePage(page.ID)
		s.logActivity(ctx, sess, store.KindPage, page.ID, "unpublished", page.Title)
	}
	return s.GetPage(ctx, sess, page.ID)
}

func pageRecord(page store.Page) search.PageRecord {
	return search.PageRecord{
		ID:        page.ID,
		CompanyID: page.CompanyID,
		SpaceID:   page.SpaceID,
		Title:     page.Title,
		Content:   page.Content,
		Status:    string(page.Status),
	}
}

// AddPageComment lets any viewer of the page comment on it.
func (s *Service) AddPageComment(ctx context.Context, sess Session, pageID string, input CommentInput) (map[string]any, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	space, err := s.store.GetSpace(ctx, page.SpaceID)
	if err != nil {
		return nil, err
	}
	if !authz.CanViewPage(page, space, user, memberships) {
		return nil, errNotFound()
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, errValidation("body is required")
	}

	if err := s.store.InsertPageComment(ctx, store.PageComment{
		ID:        util.NewID("cmt"),
		CompanyID: page.CompanyID,
		PageID:    pageID,
		UserID:    sess.UserID,
		Body:      body,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, err
	}
	if page.CreatedBy != "" && page.CreatedBy != sess.UserID {
		s.notify(ctx, page.CompanyID, page.CreatedBy, store.KindPage, pageID, sess.UserName+" commented on "+page.Title)
	}
	return s.GetPage(ctx, sess, pageID)
}

// DeletePageComment allows the comment author or a space manager to remove
// a comment. This is a hard delete.
func (s *Service) DeletePageComment(ctx context.Context, sess Session, pageID, commentID string) error {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return err
	}
	space, err := s.store.GetSpace(ctx, page.SpaceID)
	if err != nil {
		return err
	}

	comments, err := s.store.ListPageComments(ctx, pageID)
	if err != nil {
		return err
	}
	for _, c := range comments {
		if c.ID != commentID {
			continue
		}
		if c.UserID != sess.UserID && !authz.CanManageSpace(space, user, memberships) {
			return errForbidden()
		}
		return s.store.DeletePageComment(ctx, commentID)
	}
	return errNotFound()
}

func (s *Service) AddPageWidget(ctx context.Context, sess Session, pageID string, input WidgetInput) (map[string]any, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	space, err := s.store.GetSpace(ctx, page.SpaceID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEditPage(page, space, user, memberships) {
		return nil, errForbidden()
	}
	kind := strings.TrimSpace(input.Kind)
	if kind == "" {
		return nil, errValidation("kind is required")
	}

	if err := s.store.InsertPageWidget(ctx, store.PageWidget{
		ID:        util.NewID("wdg"),
		CompanyID: page.CompanyID,
		PageID:    pageID,
		Kind:      kind,
		Config:    input.Config,
		SortOrder: input.SortOrder,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, err
	}
	return s.GetPage(ctx, sess, pageID)
}

func (s *Service) RemovePageWidget(ctx context.Context, sess Session, pageID, widgetID string) error {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return err
	}
	space, err := s.store.GetSpace(ctx, page.SpaceID)
	if err != nil {
		return err
	}
	if !authz.CanEditPage(page, space, user, memberships) {
		return errForbidden()
	}
	return s.store.DeletePageWidget(ctx, widgetID)
}

// Templates are company-wide building blocks for new pages; managing them
// is admin-only, listing is open to everyone in the company.

type TemplateInput struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (s *Service) ListTemplates(ctx context.Context, sess Session) ([]store.PageTemplate, error) {
	templates, err := s.store.ListTemplates(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	active := make([]store.PageTemplate, 0, len(templates))
	for _, t := range templates {
		if t.IsActive {
			active = append(active, t)
		}
	}
	return active, nil
}

func (s *Service) CreateTemplate(ctx context.Context, sess Session, input TemplateInput) (store.PageTemplate, error) {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.PageTemplate{}, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return store.PageTemplate{}, errForbidden()
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.PageTemplate{}, errValidation("name is required")
	}

	tmpl := store.PageTemplate{
		ID:        util.NewID("tpl"),
		CompanyID: sess.CompanyID,
		Name:      name,
		Content:   input.Content,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertTemplate(ctx, tmpl); err != nil {
		return store.PageTemplate{}, err
	}
	return tmpl, nil
}

func (s *Service) RetireTemplate(ctx context.Context, sess Session, templateID string) error {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return errForbidden()
	}
	tmpl, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	if tmpl.CompanyID != sess.CompanyID {
		return errNotFound()
	}
	tmpl.IsActive = false
	return s.store.UpdateTemplate(ctx, tmpl)
}
