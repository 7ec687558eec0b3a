package app

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"atrium/api/internal/authz"
	"atrium/api/internal/search"
	"atrium/api/internal/store"
	"atrium/api/internal/util"
)

// Documents

type DocumentUpload struct {
	SpaceID     string
	Title       string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ListSpaceDocuments returns the documents in a space the caller can see.
// Managers also see deactivated documents.
func (s *Service) ListSpaceDocuments(ctx context.Context, sess Session, spaceID string) ([]map[string]any, error) {
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
	docs, err := s.store.ListDocumentsBySpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		if !authz.CanViewDocument(doc, space, user, memberships) {
			continue
		}
		items = append(items, map[string]any{
			"id":          doc.ID,
			"spaceId":     doc.SpaceID,
			"title":       doc.Title,
			"fileName":    doc.FileName,
			"contentType": doc.ContentType,
			"sizeBytes":   doc.SizeBytes,
			"uploadedBy":  doc.UploadedBy,
			"isActive":    doc.IsActive,
			"createdAt":   doc.CreatedAt,
		})
	}
	return items, nil
}

// UploadDocument stores the bytes in object storage and the metadata in the
// document collection.
func (s *Service) UploadDocument(ctx context.Context, sess Session, upload DocumentUpload) (store.Document, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return store.Document{}, err
	}
	space, err := s.store.GetSpace(ctx, upload.SpaceID)
	if err != nil {
		return store.Document{}, err
	}
	if !authz.CanManageSpace(space, user, memberships) {
		return store.Document{}, errForbidden()
	}
	if s.files == nil {
		return store.Document{}, domainError(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Document storage is not configured", nil)
	}
	title := strings.TrimSpace(upload.Title)
	if title == "" {
		title = upload.FileName
	}
	if strings.TrimSpace(upload.FileName) == "" {
		return store.Document{}, errValidation("fileName is required")
	}

	doc := store.Document{
		ID:          util.NewID("doc"),
		CompanyID:   sess.CompanyID,
		SpaceID:     space.ID,
		Title:       title,
		FileName:    upload.FileName,
		ContentType: upload.ContentType,
		SizeBytes:   upload.Size,
		UploadedBy:  sess.UserID,
		IsActive:    true,
		CreatedAt:   s.now(),
	}
	doc.StorageKey = sess.CompanyID + "/" + space.ID + "/" + doc.ID + "/" + upload.FileName

	if err := s.files.Upload(ctx, doc.StorageKey, upload.Body, upload.Size, upload.ContentType); err != nil {
		return store.Document{}, err
	}
	if err := s.store.InsertDocument(ctx, doc); err != nil {
		return store.Document{}, err
	}
	s.search.IndexDocument(documentRecord(doc))
	s.logActivity(ctx, sess, store.KindDocument, doc.ID, "uploaded", doc.Title)
	return doc, nil
}

// DocumentDownloadURL returns a short-lived presigned URL for the file.
func (s *Service) DocumentDownloadURL(ctx context.Context, sess Session, documentID string) (string, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return "", err
	}
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	space, err := s.store.GetSpace(ctx, doc.SpaceID)
	if err != nil {
		return "", err
	}
	if !authz.CanViewDocument(doc, space, user, memberships) {
		return "", errNotFound()
	}
	if s.files == nil {
		return "", domainError(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Document storage is not configured", nil)
	}
	return s.files.DownloadURL(ctx, doc.StorageKey, doc.FileName, 15*time.Minute)
}

// SetDocumentActive deactivates or restores a document. The object is kept
// in storage either way.
func (s *Service) SetDocumentActive(ctx context.Context, sess Session, documentID string, active bool) error {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	space, err := s.store.GetSpace(ctx, doc.SpaceID)
	if err != nil {
		return err
	}
	if !authz.CanEditDocument(doc, space, user, memberships) {
		return errForbidden()
	}

	doc.IsActive = active
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return err
	}
	if active {
		s.search.IndexDocument(documentRecord(doc))
	} else {
		s.search.DeleteDocument(doc.ID)
	}
	action := "archived"
	if active {
		action = "restored"
	}
	s.logActivity(ctx, sess, store.KindDocument, doc.ID, action, doc.Title)
	return nil
}

// DeleteDocument permanently removes a document: the stored object, the
// metadata row, and the search entry. Deactivation is the reversible path;
// this one is not.
func (s *Service) DeleteDocument(ctx context.Context, sess Session, documentID string) error {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	space, err := s.store.GetSpace(ctx, doc.SpaceID)
	if err != nil {
		return err
	}
	if !authz.CanEditDocument(doc, space, user, memberships) {
		return errForbidden()
	}

	if s.files != nil && doc.StorageKey != "" {
		if err := s.files.Delete(ctx, doc.StorageKey); err != nil {
			return err
		}
	}
	if err := s.store.DeleteDocument(ctx, doc.ID); err != nil {
		return err
	}
	s.search.DeleteDocument(doc.ID)
	s.logActivity(ctx, sess, store.KindDocument, doc.ID, "deleted", doc.Title)
	return nil
}

// ReindexSearch rebuilds the search index from the caller's company
// records. Admin-only; a no-op when Meilisearch is not configured.
func (s *Service) ReindexSearch(ctx context.Context, sess Session) error {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return errForbidden()
	}

	articles, err := s.store.ListKnowledgeArticles(ctx, sess.CompanyID)
	if err != nil {
		return err
	}
	pages, err := s.store.ListPages(ctx, sess.CompanyID)
	if err != nil {
		return err
	}
	documents, err := s.store.ListDocuments(ctx, sess.CompanyID)
	if err != nil {
		return err
	}

	articleRecords := make([]search.ArticleRecord, 0, len(articles))
	for _, a := range articles {
		if a.IsActive {
			articleRecords = append(articleRecords, search.ArticleRecord{
				ID:         a.ID,
				CompanyID:  a.CompanyID,
				CategoryID: a.CategoryID,
				SpaceID:    a.SpaceID,
				Title:      a.Question,
				Content:    a.Answer,
				IsActive:   a.IsActive,
			})
		}
	}
	pageRecords := make([]search.PageRecord, 0, len(pages))
	for _, p := range pages {
		if p.Status == store.PagePublished {
			pageRecords = append(pageRecords, search.PageRecord{
				ID:        p.ID,
				CompanyID: p.CompanyID,
				SpaceID:   p.SpaceID,
				Title:     p.Title,
				Content:   p.Content,
				Status:    string(p.Status),
			})
		}
	}
	documentRecords := make([]search.DocumentRecord, 0, len(documents))
	for _, d := range documents {
		if d.IsActive {
			documentRecords = append(documentRecords, documentRecord(d))
		}
	}

	s.search.ReindexAll(articleRecords, pageRecords, documentRecords)
	return nil
}

func documentRecord(doc store.Document) search.DocumentRecord {
	return search.DocumentRecord{
		ID:        doc.ID,
		CompanyID: doc.CompanyID,
		SpaceID:   doc.SpaceID,
		Title:     doc.Title,
		FileName:  doc.FileName,
		IsActive:  doc.IsActive,
	}
}

// Announcements

type AnnouncementInput struct {
	SpaceID  string `json:"spaceId"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	IsPinned *bool  `json:"isPinned"`
}

// ListAnnouncements returns announcements visible to the caller, pinned
// first, newest first within each group.
func (s *Service) ListAnnouncements(ctx context.Context, sess Session) ([]map[string]any, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListAnnouncements(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	visible := authz.VisibleAnnouncements(all, user, memberships)
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].IsPinned != visible[j].IsPinned {
			return visible[i].IsPinned
		}
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})

	acks, err := s.store.ListAcknowledgements(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	ackedByMe := map[string]bool{}
	for _, ack := range acks {
		if ack.UserID == sess.UserID && ack.EntityKind == store.KindAnnouncement {
			ackedByMe[ack.EntityID] = true
		}
	}

	items := make([]map[string]any, 0, len(visible))
	for _, a := range visible {
		items = append(items, map[string]any{
			"id":           a.ID,
			"spaceId":      a.SpaceID,
			"title":        a.Title,
			"body":         a.Body,
			"audience":     a.Audience,
			"isPinned":     a.IsPinned,
			"isActive":     a.IsActive,
			"acknowledged": ackedByMe[a.ID],
			"createdBy":    a.CreatedBy,
			"createdAt":    a.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) CreateAnnouncement(ctx context.Context, sess Session, input AnnouncementInput) (store.Announcement, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return store.Announcement{}, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return store.Announcement{}, errValidation("title is required")
	}

	a := store.Announcement{
		ID:        util.NewID("ann"),
		CompanyID: sess.CompanyID,
		SpaceID:   strings.TrimSpace(input.SpaceID),
		Title:     title,
		Body:      input.Body,
		Audience:  store.AudienceCompanyWide,
		IsPinned:  input.IsPinned != nil && *input.IsPinned,
		IsActive:  true,
		CreatedBy: sess.UserID,
		CreatedAt: s.now(),
	}
	if a.SpaceID != "" {
		a.Audience = store.AudienceSpace
	}
	if !authz.CanEditAnnouncement(a, user, memberships) {
		return store.Announcement{}, errForbidden()
	}
	if err := s.store.InsertAnnouncement(ctx, a); err != nil {
		return store.Announcement{}, err
	}
	s.logActivity(ctx, sess, store.KindAnnouncement, a.ID, "created", a.Title)
	return a, nil
}

func (s *Service) UpdateAnnouncement(ctx context.Context, sess Session, id string, input AnnouncementInput, active *bool) (store.Announcement, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return store.Announcement{}, err
	}
	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return store.Announcement{}, err
	}
	if !authz.CanEditAnnouncement(a, user, memberships) {
		return store.Announcement{}, errForbidden()
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		a.Title = title
	}
	if input.Body != "" {
		a.Body = input.Body
	}
	if input.IsPinned != nil {
		a.IsPinned = *input.IsPinned
	}
	if active != nil {
		a.IsActive = *active
	}
	if err := s.store.UpdateAnnouncement(ctx, a); err != nil {
		return store.Announcement{}, err
	}
	return a, nil
}

// DeleteAnnouncement is a hard delete.
func (s *Service) DeleteAnnouncement(ctx context.Context, sess Session, id string) error {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanEditAnnouncement(a, user, memberships) {
		return errForbidden()
	}
	return s.store.DeleteAnnouncement(ctx, id)
}

// AcknowledgeAnnouncement records that the caller has read the
// announcement. Repeat calls are no-ops.
func (s *Service) AcknowledgeAnnouncement(ctx context.Context, sess Session, id string) error {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanViewAnnouncement(a, user, memberships) {
		return errNotFound()
	}
	return s.store.InsertAcknowledgement(ctx, store.ReadAcknowledgement{
		ID:         util.NewID("ack"),
		CompanyID:  sess.CompanyID,
		UserID:     sess.UserID,
		EntityKind: store.KindAnnouncement,
		EntityID:   id,
		CreatedAt:  s.now(),
	})
}

// Events

type EventInput struct {
	SpaceID     string    `json:"spaceId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
}

// ListEvents returns upcoming and past events the caller can see, sorted by
// start time.
func (s *Service) ListEvents(ctx context.Context, sess Session) ([]store.Event, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListEvents(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	spaceByID, err := s.spacesByID(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}

	visible := make([]store.Event, 0, len(all))
	for _, e := range all {
		if authz.CanViewEvent(e, spaceByID[e.SpaceID], user, memberships) {
			visible = append(visible, e)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].StartsAt.Before(visible[j].StartsAt)
	})
	return visible, nil
}

func (s *Service) CreateEvent(ctx context.Context, sess Session, input EventInput) (store.Event, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return store.Event{}, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return store.Event{}, errValidation("title is required")
	}
	if !input.EndsAt.IsZero() && input.EndsAt.Before(input.StartsAt) {
		return store.Event{}, errValidation("endsAt must not be before startsAt")
	}

	event := store.Event{
		ID:          util.NewID("evt"),
		CompanyID:   sess.CompanyID,
		SpaceID:     strings.TrimSpace(input.SpaceID),
		Title:       title,
		Description: input.Description,
		Location:    input.Location,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		IsActive:    true,
		CreatedBy:   sess.UserID,
		CreatedAt:   s.now(),
	}
	space := store.Space{}
	if event.SpaceID != "" {
		space, err = s.store.GetSpace(ctx, event.SpaceID)
		if err != nil {
			return store.Event{}, errValidation("space not found")
		}
	}
	if !authz.CanEditEvent(event, space, user, memberships) {
		return store.Event{}, errForbidden()
	}
	if err := s.store.InsertEvent(ctx, event); err != nil {
		return store.Event{}, err
	}
	s.logActivity(ctx, sess, store.KindEvent, event.ID, "created", event.Title)
	return event, nil
}

func (s *Service) CancelEvent(ctx context.Context, sess Session, eventID string) error {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	space := store.Space{}
	if event.SpaceID != "" {
		if sp, err := s.store.GetSpace(ctx, event.SpaceID); err == nil {
			space = sp
		}
	}
	if !authz.CanEditEvent(event, space, user, memberships) {
		return errForbidden()
	}
	event.IsActive = false
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return err
	}
	s.logActivity(ctx, sess, store.KindEvent, event.ID, "cancelled", event.Title)
	return nil
}

func (s *Service) spacesByID(ctx context.Context, companyID string) (map[string]store.Space, error) {
	spaces, err := s.store.ListSpaces(ctx, companyID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]store.Space, len(spaces))
	for _, sp := range spaces {
		byID[sp.ID] = sp
	}
	return byID, nil
}

// Knowledge base

type CategoryInput struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
}

type ArticleInput struct {
	CategoryID string `json:"categoryId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	SpaceID    string `json:"spaceId"`
	PageID     string `json:"pageId"`
	IsFeatured bool   `json:"isFeatured"`
}

// KnowledgeBase returns active categories with their active articles,
// featured articles first.
func (s *Service) KnowledgeBase(ctx context.Context, sess Session) ([]map[string]any, error) {
	categories, err := s.store.ListKnowledgeCategories(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	articles, err := s.store.ListKnowledgeArticles(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}

	byCategory := map[string][]store.KnowledgeArticle{}
	for _, a := range articles {
		if !a.IsActive {
			continue
		}
		byCategory[a.CategoryID] = append(byCategory[a.CategoryID], a)
	}

	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].SortOrder < categories[j].SortOrder
	})

	items := make([]map[string]any, 0, len(categories))
	for _, cat := range categories {
		if !cat.IsActive {
			continue
		}
		catArticles := byCategory[cat.ID]
		sort.SliceStable(catArticles, func(i, j int) bool {
			if catArticles[i].IsFeatured != catArticles[j].IsFeatured {
				return catArticles[i].IsFeatured
			}
			return catArticles[i].CreatedAt.Before(catArticles[j].CreatedAt)
		})
		articleItems := make([]map[string]any, 0, len(catArticles))
		for _, a := range catArticles {
			articleItems = append(articleItems, map[string]any{
				"id":         a.ID,
				"question":   a.Question,
				"answer":     a.Answer,
				"spaceId":    a.SpaceID,
				"pageId":     a.PageID,
				"isFeatured": a.IsFeatured,
			})
		}
		items = append(items, map[string]any{
			"id":       cat.ID,
			"name":     cat.Name,
			"articles": articleItems,
		})
	}
	return items, nil
}

func (s *Service) CreateKnowledgeCategory(ctx context.Context, sess Session, input CategoryInput) (store.KnowledgeCategory, error) {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.KnowledgeCategory{}, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return store.KnowledgeCategory{}, errForbidden()
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.KnowledgeCategory{}, errValidation("name is required")
	}

	cat := store.KnowledgeCategory{
		ID:        util.NewID("kc"),
		CompanyID: sess.CompanyID,
		Name:      name,
		SortOrder: input.SortOrder,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertKnowledgeCategory(ctx, cat); err != nil {
		return store.KnowledgeCategory{}, err
	}
	return cat, nil
}

func (s *Service) CreateKnowledgeArticle(ctx context.Context, sess Session, input ArticleInput) (store.KnowledgeArticle, error) {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.KnowledgeArticle{}, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return store.KnowledgeArticle{}, errForbidden()
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return store.KnowledgeArticle{}, errValidation("question is required")
	}
	if _, err := s.store.GetKnowledgeCategory(ctx, input.CategoryID); err != nil {
		return store.KnowledgeArticle{}, errValidation("category not found")
	}

	article := store.KnowledgeArticle{
		ID:         util.NewID("ka"),
		CompanyID:  sess.CompanyID,
		CategoryID: input.CategoryID,
		Question:   question,
		Answer:     input.Answer,
		SpaceID:    strings.TrimSpace(input.SpaceID),
		PageID:     strings.TrimSpace(input.PageID),
		IsActive:   true,
		IsFeatured: input.IsFeatured,
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertKnowledgeArticle(ctx, article); err != nil {
		return store.KnowledgeArticle{}, err
	}
	s.search.IndexArticle(search.ArticleRecord{
		ID:         article.ID,
		CompanyID:  article.CompanyID,
		CategoryID: article.CategoryID,
		SpaceID:    article.SpaceID,
		Title:      article.Question,
		Content:    article.Answer,
		IsActive:   true,
	})
	return article, nil
}

func (s *Service) RetireKnowledgeArticle(ctx context.Context, sess Session, articleID string) error {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return errForbidden()
	}
	article, err := s.store.GetKnowledgeArticle(ctx, articleID)
	if err != nil {
		return err
	}
	if article.CompanyID != sess.CompanyID {
		return errNotFound()
	}
	article.IsActive = false
	if err := s.store.UpdateKnowledgeArticle(ctx, article); err != nil {
		return err
	}
	s.search.DeleteArticle(articleID)
	return nil
}

// Search runs a company-scoped content search. Results are restricted to
// the spaces the caller can view; company admins search everything in their
// tenant. Draft pages never surface in search.
func (s *Service) Search(ctx context.Context, sess Session, q search.Query) (search.Response, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return search.Response{}, err
	}
	q.CompanyID = sess.CompanyID
	if !authz.IsCompanyAdmin(user) {
		spaces, err := s.store.ListSpaces(ctx, sess.CompanyID)
		if err != nil {
			return search.Response{}, err
		}
		visible := authz.VisibleSpaces(spaces, user, memberships)
		ids := make([]string, 0, len(visible))
		for _, sp := range visible {
			ids = append(ids, sp.ID)
		}
		q.VisibleSpaceIDs = ids
	}
	return s.search.Search(ctx, q), nil
}
