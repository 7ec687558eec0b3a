package store

import "context"

// ----- Spaces -----

func (s *Store) ListSpaces(ctx context.Context, companyID string) ([]Space, error) {
	return filterRows(ctx, s, ColSpaces, func(sp Space) bool { return sp.CompanyID == companyID })
}

func (s *Store) GetSpace(ctx context.Context, id string) (Space, error) {
	return getByID[Space](ctx, s, ColSpaces, id)
}

func (s *Store) InsertSpace(ctx context.Context, space Space) error {
	return insertRow(ctx, s, ColSpaces, space)
}

func (s *Store) UpdateSpace(ctx context.Context, space Space) error {
	return updateRow(ctx, s, ColSpaces, space)
}

// DeleteSpace hard-deletes the space row. Membership and content cleanup is
// the service layer's job.
func (s *Store) DeleteSpace(ctx context.Context, id string) error {
	removed, err := removeRows(ctx, s, ColSpaces, func(sp Space) bool { return sp.ID == id })
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// ----- Space members -----

func (s *Store) ListSpaceMembers(ctx context.Context, spaceID string) ([]SpaceMember, error) {
	return filterRows(ctx, s, ColSpaceMembers, func(m SpaceMember) bool { return m.SpaceID == spaceID })
}

// ListMemberships returns every membership row for a user within a company,
// active or not.
func (s *Store) ListMemberships(ctx context.Context, companyID, userID string) ([]SpaceMember, error) {
	return filterRows(ctx, s, ColSpaceMembers, func(m SpaceMember) bool {
		return m.CompanyID == companyID && m.UserID == userID
	})
}

func (s *Store) ListCompanyMemberships(ctx context.Context, companyID string) ([]SpaceMember, error) {
	return filterRows(ctx, s, ColSpaceMembers, func(m SpaceMember) bool { return m.CompanyID == companyID })
}

func (s *Store) GetSpaceMember(ctx context.Context, id string) (SpaceMember, error) {
	return getByID[SpaceMember](ctx, s, ColSpaceMembers, id)
}

func (s *Store) InsertSpaceMember(ctx context.Context, member SpaceMember) error {
	return insertRow(ctx, s, ColSpaceMembers, member)
}

func (s *Store) UpdateSpaceMember(ctx context.Context, member SpaceMember) error {
	return updateRow(ctx, s, ColSpaceMembers, member)
}

// DeleteSpaceMembers hard-deletes all membership rows of a space.
func (s *Store) DeleteSpaceMembers(ctx context.Context, spaceID string) error {
	_, err := removeRows(ctx, s, ColSpaceMembers, func(m SpaceMember) bool { return m.SpaceID == spaceID })
	return err
}

// ----- Pages -----

func (s *Store) ListPages(ctx context.Context, companyID string) ([]Page, error) {
	return filterRows(ctx, s, ColPages, func(p Page) bool { return p.CompanyID == companyID })
}

func (s *Store) ListPagesBySpace(ctx context.Context, spaceID string) ([]Page, error) {
	return filterRows(ctx, s, ColPages, func(p Page) bool { return p.SpaceID == spaceID })
}

func (s *Store) GetPage(ctx context.Context, id string) (Page, error) {
	return getByID[Page](ctx, s, ColPages, id)
}

func (s *Store) InsertPage(ctx context.Context, page Page) error {
	return insertRow(ctx, s, ColPages, page)
}

func (s *Store) UpdatePage(ctx context.Context, page Page) error {
	return updateRow(ctx, s, ColPages, page)
}

// ----- Page comments -----

func (s *Store) ListPageComments(ctx context.Context, pageID string) ([]PageComment, error) {
	return filterRows(ctx, s, ColPageComments, func(c PageComment) bool { return c.PageID == pageID })
}

func (s *Store) InsertPageComment(ctx context.Context, comment PageComment) error {
	return insertRow(ctx, s, ColPageComments, comment)
}

func (s *Store) DeletePageComment(ctx context.Context, id string) error {
	removed, err := removeRows(ctx, s, ColPageComments, func(c PageComment) bool { return c.ID == id })
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// ----- Page widgets -----

func (s *Store) ListPageWidgets(ctx context.Context, pageID string) ([]PageWidget, error) {
	return filterRows(ctx, s, ColPageWidgets, func(w PageWidget) bool { return w.PageID == pageID })
}

func (s *Store) InsertPageWidget(ctx context.Context, widget PageWidget) error {
	return insertRow(ctx, s, ColPageWidgets, widget)
}

func (s *Store) UpdatePageWidget(ctx context.Context, widget PageWidget) error {
	return updateRow(ctx, s, ColPageWidgets, widget)
}

func (s *Store) DeletePageWidget(ctx context.Context, id string) error {
	removed, err := removeRows(ctx, s, ColPageWidgets, func(w PageWidget) bool { return w.ID == id })
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// ----- Page views -----

func (s *Store) InsertPageView(ctx context.Context, view PageView) error {
	return insertRow(ctx, s, ColPageViews, view)
}

func (s *Store) ListPageViews(ctx context.Context, companyID string) ([]PageView, error) {
	return filterRows(ctx, s, ColPageViews, func(v PageView) bool { return v.CompanyID == companyID })
}

// ----- Documents -----

func (s *Store) ListDocuments(ctx context.Context, companyID string) ([]Document, error) {
	return filterRows(ctx, s, ColDocuments, func(d Document) bool { return d.CompanyID == companyID })
}

func (s *Store) ListDocumentsBySpace(ctx context.Context, spaceID string) ([]Document, error) {
	return filterRows(ctx, s, ColDocuments, func(d Document) bool { return d.SpaceID == spaceID })
}

func (s *Store) GetDocument(ctx context.Context, id string) (Document, error) {
	return getByID[Document](ctx, s, ColDocuments, id)
}

func (s *Store) InsertDocument(ctx context.Context, doc Document) error {
	return insertRow(ctx, s, ColDocuments, doc)
}

func (s *Store) UpdateDocument(ctx context.Context, doc Document) error {
	return updateRow(ctx, s, ColDocuments, doc)
}

// DeleteDocument hard-deletes the metadata row. The caller removes the
// stored object first.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	removed, err := removeRows(ctx, s, ColDocuments, func(d Document) bool { return d.ID == id })
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// ----- Announcements -----

func (s *Store) ListAnnouncements(ctx context.Context, companyID string) ([]Announcement, error) {
	return filterRows(ctx, s, ColAnnouncements, func(a Announcement) bool { return a.CompanyID == companyID })
}

func (s *Store) GetAnnouncement(ctx context.Context, id string) (Announcement, error) {
	return getByID[Announcement](ctx, s, ColAnnouncements, id)
}

func (s *Store) InsertAnnouncement(ctx context.Context, a Announcement) error {
	return insertRow(ctx, s, ColAnnouncements, a)
}

func (s *Store) UpdateAnnouncement(ctx context.Context, a Announcement) error {
	return updateRow(ctx, s, ColAnnouncements, a)
}

// DeleteAnnouncement is one of the few hard deletes.
func (s *Store) DeleteAnnouncement(ctx context.Context, id string) error {
	removed, err := removeRows(ctx, s, ColAnnouncements, func(a Announcement) bool { return a.ID == id })
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// ----- Events -----

func (s *Store) ListEvents(ctx context.Context, companyID string) ([]Event, error) {
	return filterRows(ctx, s, ColEvents, func(e Event) bool { return e.CompanyID == companyID })
}

func (s *Store) GetEvent(ctx context.Context, id string) (Event, error) {
	return getByID[Event](ctx, s, ColEvents, id)
}

func (s *Store) InsertEvent(ctx context.Context, event Event) error {
	return insertRow(ctx, s, ColEvents, event)
}

func (s *Store) UpdateEvent(ctx context.Context, event Event) error {
	return updateRow(ctx, s, ColEvents, event)
}

// ----- Knowledge base -----

func (s *Store) ListKnowledgeCategories(ctx context.Context, companyID string) ([]KnowledgeCategory, error) {
	return filterRows(ctx, s, ColKnowledgeCats, func(c KnowledgeCategory) bool { return c.CompanyID == companyID })
}

func (s *Store) GetKnowledgeCategory(ctx context.Context, id string) (KnowledgeCategory, error) {
	return getByID[KnowledgeCategory](ctx, s, ColKnowledgeCats, id)
}

func (s *Store) InsertKnowledgeCategory(ctx context.Context, cat KnowledgeCategory) error {
	return insertRow(ctx, s, ColKnowledgeCats, cat)
}

func (s *Store) UpdateKnowledgeCategory(ctx context.Context, cat KnowledgeCategory) error {
	return updateRow(ctx, s, ColKnowledgeCats, cat)
}

func (s *Store) ListKnowledgeArticles(ctx context.Context, companyID string) ([]KnowledgeArticle, error) {
	return filterRows(ctx, s, ColKnowledgeArts, func(a KnowledgeArticle) bool { return a.CompanyID == companyID })
}

func (s *Store) GetKnowledgeArticle(ctx context.Context, id string) (KnowledgeArticle, error) {
	return getByID[KnowledgeArticle](ctx, s, ColKnowledgeArts, id)
}

func (s *Store) InsertKnowledgeArticle(ctx context.Context, article KnowledgeArticle) error {
	return insertRow(ctx, s, ColKnowledgeArts, article)
}

func (s *Store) UpdateKnowledgeArticle(ctx context.Context, article KnowledgeArticle) error {
	return updateRow(ctx, s, ColKnowledgeArts, article)
}
