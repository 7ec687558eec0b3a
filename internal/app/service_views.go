package app

import (
	"context"
	"sort"
	"strings"

	"atrium/api/internal/authz"
	"atrium/api/internal/store"
)

// AnalyticsSummary is the company-wide dashboard for admins. It is a Pro
// feature.
func (s *Service) AnalyticsSummary(ctx context.Context, sess Session) (map[string]any, error) {
	user, company, _, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return nil, errForbidden()
	}
	if !authz.CanAccessFeature(company, authz.FeatureAnalytics, s.now()) {
		return nil, errPlanRestricted(authz.FeatureAnalytics)
	}

	users, err := s.store.ListUsers(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	spaces, err := s.store.ListSpaces(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	pages, err := s.store.ListPages(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	documents, err := s.store.ListDocuments(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	articles, err := s.store.ListKnowledgeArticles(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	views, err := s.store.ListPageViews(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}

	activeUsers := 0
	for _, u := range users {
		if u.IsActive {
			activeUsers++
		}
	}
	published := 0
	for _, p := range pages {
		if p.Status == store.PagePublished {
			published++
		}
	}

	// Per-page view counts, most viewed first.
	viewsByPage := make(map[string]int)
	for _, v := range views {
		viewsByPage[v.PageID]++
	}
	titleByPage := make(map[string]string, len(pages))
	for _, p := range pages {
		titleByPage[p.ID] = p.Title
	}
	type pageStat struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Views int    `json:"views"`
	}
	top := make([]pageStat, 0, len(viewsByPage))
	for id, n := range viewsByPage {
		title := titleByPage[id]
		if title == "" {
			title = "Unknown"
		}
		top = append(top, pageStat{ID: id, Title: title, Views: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Views != top[j].Views {
			return top[i].Views > top[j].Views
		}
		return top[i].Title < top[j].Title
	})
	if len(top) > 10 {
		top = top[:10]
	}

	return map[string]any{
		"activeUsers":    activeUsers,
		"totalUsers":     len(users),
		"spaces":         len(spaces),
		"publishedPages": published,
		"totalPages":     len(pages),
		"documents":      len(documents),
		"articles":       len(articles),
		"pageViews":      len(views),
		"topPages":       top,
	}, nil
}

// AcknowledgementReport shows, per user, whether an announcement has been
// acknowledged. Space managers can pull it for their spaces' announcements,
// admins for any.
func (s *Service) AcknowledgementReport(ctx context.Context, sess Session, announcementID string) (map[string]any, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	ann, err := s.store.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	if ann.CompanyID != sess.CompanyID {
		return nil, errNotFound()
	}
	if !authz.CanEditAnnouncement(ann, user, memberships) {
		return nil, errForbidden()
	}

	acks, err := s.store.ListEntityAcknowledgements(ctx, store.KindAnnouncement, ann.ID)
	if err != nil {
		return nil, err
	}
	acked := make(map[string]store.ReadAcknowledgement, len(acks))
	for _, a := range acks {
		acked[a.UserID] = a
	}

	users, err := s.store.ListUsers(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	departments, err := s.store.ListDepartments(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	deptName := make(map[string]string, len(departments))
	for _, d := range departments {
		deptName[d.ID] = d.Name
	}

	rows := make([]map[string]any, 0, len(users))
	ackCount := 0
	for _, u := range users {
		if !u.IsActive {
			continue
		}
		dept := deptName[u.DepartmentID]
		if u.DepartmentID != "" && dept == "" {
			dept = "Unknown"
		}
		row := map[string]any{
			"userId":       u.ID,
			"displayName":  u.DisplayName,
			"department":   dept,
			"acknowledged": false,
		}
		if a, ok := acked[u.ID]; ok {
			row["acknowledged"] = true
			row["acknowledgedAt"] = a.CreatedAt
			ackCount++
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i]["displayName"].(string) < rows[j]["displayName"].(string)
	})

	return map[string]any{
		"announcementId": ann.ID,
		"title":          ann.Title,
		"acknowledged":   ackCount,
		"total":          len(rows),
		"rows":           rows,
	}, nil
}

// ActivityFeed returns the company's recent activity, newest first,
// optionally filtered by entity kind or action. Admin-only.
func (s *Service) ActivityFeed(ctx context.Context, sess Session, kind, action string, limit int) ([]map[string]any, error) {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return nil, errForbidden()
	}

	logs, err := s.store.ListActivityLogs(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	nameByID := make(map[string]string, len(users))
	for _, u := range users {
		nameByID[u.ID] = u.DisplayName
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })

	items := make([]map[string]any, 0, limit)
	for _, l := range logs {
		if kind != "" && string(l.EntityKind) != kind {
			continue
		}
		if action != "" && !strings.EqualFold(l.Action, action) {
			continue
		}
		name := nameByID[l.UserID]
		if name == "" {
			name = "Unknown"
		}
		items = append(items, map[string]any{
			"id":         l.ID,
			"userId":     l.UserID,
			"userName":   name,
			"entityKind": l.EntityKind,
			"entityId":   l.EntityID,
			"action":     l.Action,
			"detail":     l.Detail,
			"createdAt":  l.CreatedAt,
		})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}
