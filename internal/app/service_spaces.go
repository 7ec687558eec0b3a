package app

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"atrium/api/internal/authz"
	"atrium/api/internal/store"
	"atrium/api/internal/util"
)

type SpaceInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CoverURL    string `json:"coverUrl"`
}

type SpaceMemberInput struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// ListSpaces returns the spaces the caller can see, with membership counts.
func (s *Service) ListSpaces(ctx context.Context, sess Session) ([]map[string]any, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	spaces, err := s.store.ListSpaces(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	visible := authz.VisibleSpaces(spaces, user, memberships)

	items := make([]map[string]any, 0, len(visible))
	for _, space := range visible {
		members, err := s.store.ListSpaceMembers(ctx, space.ID)
		if err != nil {
			return nil, err
		}
		active := 0
		for _, m := range members {
			if m.IsActive {
				active++
			}
		}
		items = append(items, map[string]any{
			"id":          space.ID,
			"name":        space.Name,
			"description": space.Description,
			"coverUrl":    space.CoverURL,
			"memberCount": active,
			"role":        authz.EffectiveSpaceRole(space, user, memberships),
			"createdAt":   space.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) GetSpace(ctx context.Context, sess Session, spaceID string) (map[string]any, error) {
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

	members, err := s.store.ListSpaceMembers(ctx, space.ID)
	if err != nil {
		return nil, err
	}
	memberItems := make([]map[string]any, 0, len(members))
	for _, m := range members {
		if !m.IsActive {
			continue
		}
		name := "Unknown"
		if u, err := s.store.GetUser(ctx, m.UserID); err == nil {
			name = u.DisplayName
		}
		memberItems = append(memberItems, map[string]any{
			"id":     m.ID,
			"userId": m.UserID,
			"name":   name,
			"role":   m.Role,
		})
	}

	return map[string]any{
		"id":          space.ID,
		"name":        space.Name,
		"description": space.Description,
		"coverUrl":    space.CoverURL,
		"role":        authz.EffectiveSpaceRole(space, user, memberships),
		"members":     memberItems,
		"createdAt":   space.CreatedAt,
	}, nil
}

// CreateSpace is admin-only and enforces the plan's space cap. The creator
// becomes the space manager.
func (s *Service) CreateSpace(ctx context.Context, sess Session, input SpaceInput) (map[string]any, error) {
	user, company, _, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return nil, errForbidden()
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errValidation("name is required")
	}

	spaces, err := s.store.ListSpaces(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := authz.CheckSpaceLimit(company, len(spaces)); err != nil {
		if errors.Is(err, authz.ErrSpaceLimit) {
			return nil, domainError(http.StatusConflict, "SPACE_LIMIT_EXCEEDED", "Company has reached its space limit", nil)
		}
		return nil, err
	}

	space := store.Space{
		ID:          util.NewID("sp"),
		CompanyID:   sess.CompanyID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CoverURL:    strings.TrimSpace(input.CoverURL),
		CreatedBy:   sess.UserID,
		CreatedAt:   s.now(),
	}
	if err := s.store.InsertSpace(ctx, space); err != nil {
		return nil, err
	}
	if err := s.store.InsertSpaceMember(ctx, store.SpaceMember{
		ID:        util.NewID("sm"),
		CompanyID: sess.CompanyID,
		SpaceID:   space.ID,
		UserID:    sess.UserID,
		Role:      store.SpaceRoleManager,
		IsActive:  true,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, err
	}
	s.logActivity(ctx, sess, store.KindSpace, space.ID, "created", space.Name)
	return s.GetSpace(ctx, sess, space.ID)
}

func (s *Service) UpdateSpace(ctx context.Context, sess Session, spaceID string, input SpaceInput) (map[string]any, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	space, err := s.store.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageSpace(space, user, memberships) {
		return nil, errForbidden()
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		space.Name = name
	}
	if input.Description != "" {
		space.Description = strings.TrimSpace(input.Description)
	}
	if input.CoverURL != "" {
		space.CoverURL = strings.TrimSpace(input.CoverURL)
	}
	if err := s.store.UpdateSpace(ctx, space); err != nil {
		return nil, err
	}
	s.logActivity(ctx, sess, store.KindSpace, space.ID, "updated", space.Name)
	return s.GetSpace(ctx, sess, space.ID)
}

// DeleteSpace hard-deletes the space and its membership rows. Content that
// referenced the space keeps its dangling SpaceID.
func (s *Service) DeleteSpace(ctx context.Context, sess Session, spaceID string) error {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	space, err := s.store.GetSpace(ctx, spaceID)
	if err != nil {
		return err
	}
	if !authz.CanManageSpace(space, user, memberships) {
		return errForbidden()
	}
	if err := s.store.DeleteSpace(ctx, spaceID); err != nil {
		return err
	}
	if err := s.store.DeleteSpaceMembers(ctx, spaceID); err != nil {
		return err
	}
	s.logActivity(ctx, sess, store.KindSpace, spaceID, "deleted", space.Name)
	return nil
}

// AddSpaceMember adds or reactivates a membership row.
func (s *Service) AddSpaceMember(ctx context.Context, sess Session, spaceID string, input SpaceMemberInput) (map[string]any, error) {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	space, err := s.store.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageSpace(space, user, memberships) {
		return nil, errForbidden()
	}

	target, err := s.store.GetUser(ctx, input.UserID)
	if err != nil {
		return nil, errValidation("user not found")
	}
	if target.CompanyID != space.CompanyID {
		return nil, errValidation("user belongs to another company")
	}

	role := store.SpaceRole(input.Role)
	if role != store.SpaceRoleMember && role != store.SpaceRoleManager {
		role = store.SpaceRoleMember
	}

	existing, err := s.store.ListSpaceMembers(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	for _, m := range existing {
		if m.UserID != target.ID {
			continue
		}
		m.Role = role
		m.IsActive = true
		if err := s.store.UpdateSpaceMember(ctx, m); err != nil {
			return nil, err
		}
		return s.GetSpace(ctx, sess, spaceID)
	}

	if err := s.store.InsertSpaceMember(ctx, store.SpaceMember{
		ID:        util.NewID("sm"),
		CompanyID: space.CompanyID,
		SpaceID:   spaceID,
		UserID:    target.ID,
		Role:      role,
		IsActive:  true,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, space.CompanyID, target.ID, store.KindSpace, spaceID, "You were added to "+space.Name)
	return s.GetSpace(ctx, sess, spaceID)
}

// RemoveSpaceMember deactivates the membership row rather than deleting it.
func (s *Service) RemoveSpaceMember(ctx context.Context, sess Session, spaceID, userID string) error {
	user, _, memberships, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	space, err := s.store.GetSpace(ctx, spaceID)
	if err != nil {
		return err
	}
	if !authz.CanManageSpace(space, user, memberships) {
		return errForbidden()
	}

	members, err := s.store.ListSpaceMembers(ctx, spaceID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.UserID != userID || !m.IsActive {
			continue
		}
		m.IsActive = false
		return s.store.UpdateSpaceMember(ctx, m)
	}
	return errNotFound()
}
