package store

import "context"

// ----- Notifications -----

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]Notification, error) {
	return filterRows(ctx, s, ColNotifications, func(n Notification) bool { return n.UserID == userID })
}

func (s *Store) GetNotification(ctx context.Context, id string) (Notification, error) {
	return getByID[Notification](ctx, s, ColNotifications, id)
}

func (s *Store) InsertNotification(ctx context.Context, n Notification) error {
	return insertRow(ctx, s, ColNotifications, n)
}

func (s *Store) UpdateNotification(ctx context.Context, n Notification) error {
	return updateRow(ctx, s, ColNotifications, n)
}

// ----- Activity logs -----

func (s *Store) ListActivityLogs(ctx context.Context, companyID string) ([]ActivityLog, error) {
	return filterRows(ctx, s, ColActivityLogs, func(l ActivityLog) bool { return l.CompanyID == companyID })
}

func (s *Store) InsertActivityLog(ctx context.Context, entry ActivityLog) error {
	return insertRow(ctx, s, ColActivityLogs, entry)
}

// ----- Favorites -----

func (s *Store) ListFavorites(ctx context.Context, userID string) ([]Favorite, error) {
	return filterRows(ctx, s, ColFavorites, func(f Favorite) bool { return f.UserID == userID })
}

// ToggleFavorite inserts a favorite row for (user, kind, id) or removes the
// existing one. Toggling twice restores the original state without
// duplicating rows. Returns true when the entity is now favorited.
func (s *Store) ToggleFavorite(ctx context.Context, fav Favorite) (bool, error) {
	unlock := s.lock(ColFavorites)
	defer unlock()

	rows, err := loadAll[Favorite](ctx, s, ColFavorites)
	if err != nil {
		return false, err
	}
	kept := rows[:0]
	removed := false
	for _, r := range rows {
		if r.UserID == fav.UserID && r.EntityKind == fav.EntityKind && r.EntityID == fav.EntityID {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	if removed {
		return false, saveAll(ctx, s, ColFavorites, kept)
	}
	kept = append(kept, fav)
	return true, saveAll(ctx, s, ColFavorites, kept)
}

// ----- Read acknowledgements -----

func (s *Store) ListAcknowledgements(ctx context.Context, companyID string) ([]ReadAcknowledgement, error) {
	return filterRows(ctx, s, ColAcks, func(a ReadAcknowledgement) bool { return a.CompanyID == companyID })
}

func (s *Store) ListEntityAcknowledgements(ctx context.Context, kind EntityKind, entityID string) ([]ReadAcknowledgement, error) {
	return filterRows(ctx, s, ColAcks, func(a ReadAcknowledgement) bool {
		return a.EntityKind == kind && a.EntityID == entityID
	})
}

// InsertAcknowledgement is idempotent per (user, kind, entity).
func (s *Store) InsertAcknowledgement(ctx context.Context, ack ReadAcknowledgement) error {
	unlock := s.lock(ColAcks)
	defer unlock()

	rows, err := loadAll[ReadAcknowledgement](ctx, s, ColAcks)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.UserID == ack.UserID && r.EntityKind == ack.EntityKind && r.EntityID == ack.EntityID {
			return nil
		}
	}
	rows = append(rows, ack)
	return saveAll(ctx, s, ColAcks, rows)
}

// ----- Page templates -----

func (s *Store) ListTemplates(ctx context.Context, companyID string) ([]PageTemplate, error) {
	return filterRows(ctx, s, ColTemplates, func(t PageTemplate) bool { return t.CompanyID == companyID })
}

func (s *Store) GetTemplate(ctx context.Context, id string) (PageTemplate, error) {
	return getByID[PageTemplate](ctx, s, ColTemplates, id)
}

func (s *Store) InsertTemplate(ctx context.Context, tmpl PageTemplate) error {
	return insertRow(ctx, s, ColTemplates, tmpl)
}

func (s *Store) UpdateTemplate(ctx context.Context, tmpl PageTemplate) error {
	return updateRow(ctx, s, ColTemplates, tmpl)
}

// ----- Nav quick links -----

func (s *Store) ListNavLinks(ctx context.Context, companyID string) ([]NavLink, error) {
	return filterRows(ctx, s, ColNavLinks, func(n NavLink) bool { return n.CompanyID == companyID })
}

func (s *Store) GetNavLink(ctx context.Context, id string) (NavLink, error) {
	return getByID[NavLink](ctx, s, ColNavLinks, id)
}

func (s *Store) InsertNavLink(ctx context.Context, link NavLink) error {
	return insertRow(ctx, s, ColNavLinks, link)
}

func (s *Store) UpdateNavLink(ctx context.Context, link NavLink) error {
	return updateRow(ctx, s, ColNavLinks, link)
}

// ----- AI queries -----

func (s *Store) ListAIQueries(ctx context.Context, companyID string) ([]AIQuery, error) {
	return filterRows(ctx, s, ColAIQueries, func(q AIQuery) bool { return q.CompanyID == companyID })
}

func (s *Store) ListUserAIQueries(ctx context.Context, userID string) ([]AIQuery, error) {
	return filterRows(ctx, s, ColAIQueries, func(q AIQuery) bool { return q.UserID == userID })
}

func (s *Store) GetAIQuery(ctx context.Context, id string) (AIQuery, error) {
	return getByID[AIQuery](ctx, s, ColAIQueries, id)
}

func (s *Store) InsertAIQuery(ctx context.Context, q AIQuery) error {
	return insertRow(ctx, s, ColAIQueries, q)
}

func (s *Store) UpdateAIQuery(ctx context.Context, q AIQuery) error {
	return updateRow(ctx, s, ColAIQueries, q)
}

// ----- Payment orders -----

func (s *Store) ListPaymentOrders(ctx context.Context, companyID string) ([]PaymentOrder, error) {
	return filterRows(ctx, s, ColPaymentOrders, func(o PaymentOrder) bool { return o.CompanyID == companyID })
}

func (s *Store) GetPaymentOrder(ctx context.Context, id string) (PaymentOrder, error) {
	return getByID[PaymentOrder](ctx, s, ColPaymentOrders, id)
}

func (s *Store) InsertPaymentOrder(ctx context.Context, order PaymentOrder) error {
	return insertRow(ctx, s, ColPaymentOrders, order)
}

func (s *Store) UpdatePaymentOrder(ctx context.Context, order PaymentOrder) error {
	return updateRow(ctx, s, ColPaymentOrders, order)
}

// ----- Custom domains -----

func (s *Store) ListCustomDomains(ctx context.Context, companyID string) ([]CustomDomain, error) {
	return filterRows(ctx, s, ColCustomDomains, func(d CustomDomain) bool { return d.CompanyID == companyID })
}

func (s *Store) GetCustomDomain(ctx context.Context, id string) (CustomDomain, error) {
	return getByID[CustomDomain](ctx, s, ColCustomDomains, id)
}

func (s *Store) InsertCustomDomain(ctx context.Context, domain CustomDomain) error {
	return insertRow(ctx, s, ColCustomDomains, domain)
}

func (s *Store) UpdateCustomDomain(ctx context.Context, domain CustomDomain) error {
	return updateRow(ctx, s, ColCustomDomains, domain)
}

func (s *Store) DeleteCustomDomain(ctx context.Context, id string) error {
	removed, err := removeRows(ctx, s, ColCustomDomains, func(d CustomDomain) bool { return d.ID == id })
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}
