package app

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"atrium/api/internal/authpw"
	"atrium/api/internal/authz"
	"atrium/api/internal/store"
	"atrium/api/internal/util"
)

type UserInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	DisplayName  string `json:"displayName"`
	Role         string `json:"role"`
	DepartmentID string `json:"departmentId"`
	AvatarURL    string `json:"avatarUrl"`
}

// Directory lists the active people in the caller's company with their
// department names.
func (s *Service) Directory(ctx context.Context, sess Session) ([]map[string]any, error) {
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

	items := make([]map[string]any, 0, len(users))
	for _, u := range users {
		if !u.IsActive {
			continue
		}
		dept := deptName[u.DepartmentID]
		if u.DepartmentID != "" && dept == "" {
			dept = "Unknown"
		}
		items = append(items, map[string]any{
			"id":          u.ID,
			"displayName": u.DisplayName,
			"email":       u.Email,
			"role":        u.Role,
			"department":  dept,
			"avatarUrl":   u.AvatarURL,
		})
	}
	return items, nil
}

// CreateUser is admin-only direct provisioning (as opposed to invite-code
// self sign-up). Seat limits apply the same way.
func (s *Service) CreateUser(ctx context.Context, sess Session, input UserInput) (store.User, error) {
	admin, company, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.User{}, err
	}
	if !authz.IsCompanyAdmin(admin) && !authz.IsSuperAdmin(admin) {
		return store.User{}, errForbidden()
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" || strings.TrimSpace(input.DisplayName) == "" {
		return store.User{}, errValidation("email, password, and displayName are required")
	}
	role := store.Role(input.Role)
	if role == "" {
		role = store.RoleMember
	}
	if role == store.RoleSuperAdmin && !authz.IsSuperAdmin(admin) {
		return store.User{}, errForbidden()
	}
	if !role.AtLeast(store.RoleMember) {
		return store.User{}, errValidation("invalid role")
	}

	existing, err := s.store.ListUsers(ctx, sess.CompanyID)
	if err != nil {
		return store.User{}, err
	}
	if err := authz.CheckSeatLimit(company, len(existing)); err != nil {
		if errors.Is(err, authz.ErrSeatLimit) {
			return store.User{}, domainError(http.StatusConflict, "SEAT_LIMIT_EXCEEDED", "Company has reached its seat limit", nil)
		}
		return store.User{}, err
	}

	hash, err := authpw.HashPassword(input.Password)
	if err != nil {
		return store.User{}, err
	}
	user := store.User{
		ID:           util.NewID("usr"),
		CompanyID:    sess.CompanyID,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         role,
		DepartmentID: strings.TrimSpace(input.DepartmentID),
		AvatarURL:    strings.TrimSpace(input.AvatarURL),
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return store.User{}, errValidation("email already registered")
		}
		return store.User{}, err
	}
	s.logActivity(ctx, sess, store.KindUser, user.ID, "created", user.DisplayName)
	return user, nil
}

// UpdateUser lets admins change role, department, and activation; users
// can update their own profile fields.
func (s *Service) UpdateUser(ctx context.Context, sess Session, userID string, input UserInput, active *bool) (store.User, error) {
	caller, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.User{}, err
	}
	target, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return store.User{}, err
	}
	isAdmin := authz.IsCompanyAdmin(caller) || authz.IsSuperAdmin(caller)
	if target.CompanyID != caller.CompanyID && !authz.IsSuperAdmin(caller) {
		return store.User{}, errNotFound()
	}
	if target.ID != caller.ID && !isAdmin {
		return store.User{}, errForbidden()
	}

	if name := strings.TrimSpace(input.DisplayName); name != "" {
		target.DisplayName = name
	}
	if input.AvatarURL != "" {
		target.AvatarURL = strings.TrimSpace(input.AvatarURL)
	}
	if isAdmin {
		if input.DepartmentID != "" {
			target.DepartmentID = strings.TrimSpace(input.DepartmentID)
		}
		if input.Role != "" {
			role := store.Role(input.Role)
			if role == store.RoleSuperAdmin && !authz.IsSuperAdmin(caller) {
				return store.User{}, errForbidden()
			}
			target.Role = role
		}
		if active != nil {
			if target.ID == caller.ID && !*active {
				return store.User{}, errValidation("cannot deactivate your own account")
			}
			target.IsActive = *active
		}
	}

	if err := s.store.UpdateUser(ctx, target); err != nil {
		return store.User{}, err
	}
	return target, nil
}

func (s *Service) ChangePassword(ctx context.Context, sess Session, current, next string) error {
	user, err := s.store.GetUser(ctx, sess.UserID)
	if err != nil {
		return err
	}
	if err := s.passwords.ChangePassword(ctx, user, current, next); err != nil {
		return errValidation(err.Error())
	}
	return nil
}

// Departments

type DepartmentInput struct {
	Name string `json:"name"`
}

func (s *Service) ListDepartments(ctx context.Context, sess Session) ([]store.Department, error) {
	departments, err := s.store.ListDepartments(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	active := make([]store.Department, 0, len(departments))
	for _, d := range departments {
		if d.IsActive {
			active = append(active, d)
		}
	}
	return active, nil
}

func (s *Service) CreateDepartment(ctx context.Context, sess Session, input DepartmentInput) (store.Department, error) {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.Department{}, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return store.Department{}, errForbidden()
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.Department{}, errValidation("name is required")
	}

	dept := store.Department{
		ID:        util.NewID("dept"),
		CompanyID: sess.CompanyID,
		Name:      name,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertDepartment(ctx, dept); err != nil {
		return store.Department{}, err
	}
	return dept, nil
}

func (s *Service) RetireDepartment(ctx context.Context, sess Session, departmentID string) error {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return errForbidden()
	}
	dept, err := s.store.GetDepartment(ctx, departmentID)
	if err != nil {
		return err
	}
	if dept.CompanyID != sess.CompanyID {
		return errNotFound()
	}
	dept.IsActive = false
	return s.store.UpdateDepartment(ctx, dept)
}

// Favorites

// ToggleFavorite flips the caller's favorite state for an entity and
// reports the new state.
func (s *Service) ToggleFavorite(ctx context.Context, sess Session, kind store.EntityKind, entityID string) (bool, error) {
	if !kind.Valid() {
		return false, errValidation("invalid entity kind")
	}
	if strings.TrimSpace(entityID) == "" {
		return false, errValidation("entityId is required")
	}
	return s.store.ToggleFavorite(ctx, store.Favorite{
		ID:         util.NewID("fav"),
		CompanyID:  sess.CompanyID,
		UserID:     sess.UserID,
		EntityKind: kind,
		EntityID:   entityID,
		CreatedAt:  s.now(),
	})
}

func (s *Service) ListFavorites(ctx context.Context, sess Session) ([]store.Favorite, error) {
	return s.store.ListFavorites(ctx, sess.UserID)
}

// Notifications

func (s *Service) ListNotifications(ctx context.Context, sess Session) ([]store.Notification, error) {
	return s.store.ListNotifications(ctx, sess.UserID)
}

func (s *Service) MarkNotificationRead(ctx context.Context, sess Session, notificationID string) error {
	n, err := s.store.GetNotification(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != sess.UserID {
		return errNotFound()
	}
	n.IsRead = true
	return s.store.UpdateNotification(ctx, n)
}

// Quick links

type NavLinkInput struct {
	Label     string `json:"label"`
	URL       string `json:"url"`
	SortOrder int    `json:"sortOrder"`
}

func (s *Service) ListNavLinks(ctx context.Context, sess Session) ([]store.NavLink, error) {
	links, err := s.store.ListNavLinks(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	active := make([]store.NavLink, 0, len(links))
	for _, l := range links {
		if l.IsActive {
			active = append(active, l)
		}
	}
	return active, nil
}

func (s *Service) CreateNavLink(ctx context.Context, sess Session, input NavLinkInput) (store.NavLink, error) {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.NavLink{}, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return store.NavLink{}, errForbidden()
	}
	if strings.TrimSpace(input.Label) == "" || strings.TrimSpace(input.URL) == "" {
		return store.NavLink{}, errValidation("label and url are required")
	}

	link := store.NavLink{
		ID:        util.NewID("nav"),
		CompanyID: sess.CompanyID,
		Label:     strings.TrimSpace(input.Label),
		URL:       strings.TrimSpace(input.URL),
		SortOrder: input.SortOrder,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertNavLink(ctx, link); err != nil {
		return store.NavLink{}, err
	}
	return link, nil
}

func (s *Service) RetireNavLink(ctx context.Context, sess Session, linkID string) error {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return errForbidden()
	}
	link, err := s.store.GetNavLink(ctx, linkID)
	if err != nil {
		return err
	}
	if link.CompanyID != sess.CompanyID {
		return errNotFound()
	}
	link.IsActive = false
	return s.store.UpdateNavLink(ctx, link)
}
