// Package authz decides what a user may see or change. Every check is a
// pure predicate over rows the caller already loaded: role first (cheap),
// then a linear scan of membership rows. Checks never return errors; an
// unauthorized result is false or SpaceRoleNone and the caller hides or
// redirects.
package authz

import "atrium/api/internal/store"

func IsSuperAdmin(user store.User) bool {
	return user.Role == store.RoleSuperAdmin
}

func IsCompanyAdmin(user store.User) bool {
	return user.Role == store.RoleCompanyAdmin
}

// isAdmin is the shared bypass: CompanyAdmin and SuperAdmin skip
// space-level gating entirely.
func isAdmin(user store.User) bool {
	return IsCompanyAdmin(user) || IsSuperAdmin(user)
}

// sameCompany gates cross-tenant access. SuperAdmin operates across
// companies.
func sameCompany(companyID string, user store.User) bool {
	return companyID == user.CompanyID || IsSuperAdmin(user)
}

// roleInSpace scans membership rows only. Inactive rows grant nothing; the
// admin bypass is applied by the callers, not here.
func roleInSpace(user store.User, spaceID string, memberships []store.SpaceMember) store.SpaceRole {
	role := store.SpaceRoleNone
	for _, m := range memberships {
		if !m.IsActive || m.SpaceID != spaceID || m.UserID != user.ID {
			continue
		}
		if m.Role == store.SpaceRoleManager {
			return store.SpaceRoleManager
		}
		role = store.SpaceRoleMember
	}
	return role
}

// EffectiveSpaceRole is the higher of the user's global role and their
// role-in-space: admins are SpaceManager everywhere in their company,
// regardless of what the membership table says.
func EffectiveSpaceRole(space store.Space, user store.User, memberships []store.SpaceMember) store.SpaceRole {
	if !sameCompany(space.CompanyID, user) {
		return store.SpaceRoleNone
	}
	if isAdmin(user) {
		return store.SpaceRoleManager
	}
	return roleInSpace(user, space.ID, memberships)
}

func CanViewSpace(space store.Space, user store.User, memberships []store.SpaceMember) bool {
	return EffectiveSpaceRole(space, user, memberships) != store.SpaceRoleNone
}

// VisibleSpaces filters a company's spaces down to what the user may see:
// everything for admins, otherwise only spaces with an active membership
// row.
func VisibleSpaces(spaces []store.Space, user store.User, memberships []store.SpaceMember) []store.Space {
	visible := make([]store.Space, 0, len(spaces))
	for _, sp := range spaces {
		if CanViewSpace(sp, user, memberships) {
			visible = append(visible, sp)
		}
	}
	return visible
}

// CanManageSpace reports manager-or-above rights on a space's content.
func CanManageSpace(space store.Space, user store.User, memberships []store.SpaceMember) bool {
	return EffectiveSpaceRole(space, user, memberships) == store.SpaceRoleManager
}

// CanViewPage requires view access to the page's space; drafts are visible
// to space managers and admins only.
func CanViewPage(page store.Page, space store.Space, user store.User, memberships []store.SpaceMember) bool {
	if !sameCompany(page.CompanyID, user) {
		return false
	}
	role := EffectiveSpaceRole(space, user, memberships)
	if role == store.SpaceRoleNone {
		return false
	}
	return page.Status == store.PagePublished || role == store.SpaceRoleManager
}

func CanEditPage(page store.Page, space store.Space, user store.User, memberships []store.SpaceMember) bool {
	if !sameCompany(page.CompanyID, user) {
		return false
	}
	return CanManageSpace(space, user, memberships)
}

// CanViewDocument is the page rule with IsActive in place of the draft
// state: managers see inactive rows too.
func CanViewDocument(doc store.Document, space store.Space, user store.User, memberships []store.SpaceMember) bool {
	if !sameCompany(doc.CompanyID, user) {
		return false
	}
	role := EffectiveSpaceRole(space, user, memberships)
	if role == store.SpaceRoleNone {
		return false
	}
	return doc.IsActive || role == store.SpaceRoleManager
}

func CanEditDocument(doc store.Document, space store.Space, user store.User, memberships []store.SpaceMember) bool {
	if !sameCompany(doc.CompanyID, user) {
		return false
	}
	return CanManageSpace(space, user, memberships)
}

// CanViewEvent: a company-wide event (no space) is visible to everyone in
// the company while active, to admins when cancelled. Space events follow
// the space rules.
func CanViewEvent(event store.Event, space store.Space, user store.User, memberships []store.SpaceMember) bool {
	if !sameCompany(event.CompanyID, user) {
		return false
	}
	if event.SpaceID == "" {
		return event.IsActive || isAdmin(user)
	}
	role := EffectiveSpaceRole(space, user, memberships)
	if role == store.SpaceRoleNone {
		return false
	}
	return event.IsActive || role == store.SpaceRoleManager
}

// CanEditEvent: company-wide events are admin-only; space events follow
// the manager rule.
func CanEditEvent(event store.Event, space store.Space, user store.User, memberships []store.SpaceMember) bool {
	if !sameCompany(event.CompanyID, user) {
		return false
	}
	if event.SpaceID == "" {
		return isAdmin(user)
	}
	return CanManageSpace(space, user, memberships)
}

// CanViewAnnouncement: an active company-wide announcement is visible to
// everyone in the company; a space-scoped one requires space access. An
// inactive announcement is visible to admins and to the managers of its own
// space.
func CanViewAnnouncement(a store.Announcement, user store.User, memberships []store.SpaceMember) bool {
	if !sameCompany(a.CompanyID, user) {
		return false
	}
	if !a.IsActive {
		if isAdmin(user) {
			return true
		}
		return a.SpaceID != "" && roleInSpace(user, a.SpaceID, memberships) == store.SpaceRoleManager
	}
	if a.Audience == store.AudienceCompanyWide || a.SpaceID == "" {
		return true
	}
	return isAdmin(user) || roleInSpace(user, a.SpaceID, memberships) != store.SpaceRoleNone
}

// VisibleAnnouncements filters a company's announcements for one user.
func VisibleAnnouncements(announcements []store.Announcement, user store.User, memberships []store.SpaceMember) []store.Announcement {
	visible := make([]store.Announcement, 0, len(announcements))
	for _, a := range announcements {
		if CanViewAnnouncement(a, user, memberships) {
			visible = append(visible, a)
		}
	}
	return visible
}

// CanEditAnnouncement: company-wide announcements are admin-only; space
// announcements follow the manager rule.
func CanEditAnnouncement(a store.Announcement, user store.User, memberships []store.SpaceMember) bool {
	if !sameCompany(a.CompanyID, user) {
		return false
	}
	if isAdmin(user) {
		return true
	}
	if a.SpaceID == "" {
		return false
	}
	return roleInSpace(user, a.SpaceID, memberships) == store.SpaceRoleManager
}
