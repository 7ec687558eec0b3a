package authz

import (
	"testing"

	"atrium/api/internal/store"
)

var (
	company = "co_1"
	space   = store.Space{ID: "sp_1", CompanyID: company, Name: "Finance"}

	member   = store.User{ID: "usr_member", CompanyID: company, Role: store.RoleMember, IsActive: true}
	manager  = store.User{ID: "usr_manager", CompanyID: company, Role: store.RoleMember, IsActive: true}
	admin    = store.User{ID: "usr_admin", CompanyID: company, Role: store.RoleCompanyAdmin, IsActive: true}
	super    = store.User{ID: "usr_super", CompanyID: "co_platform", Role: store.RoleSuperAdmin, IsActive: true}
	outsider = store.User{ID: "usr_outsider", CompanyID: company, Role: store.RoleMember, IsActive: true}
	stranger = store.User{ID: "usr_stranger", CompanyID: "co_2", Role: store.RoleCompanyAdmin, IsActive: true}
)

func memberships() []store.SpaceMember {
	return []store.SpaceMember{
		{ID: "sm_1", CompanyID: company, SpaceID: "sp_1", UserID: member.ID, Role: store.SpaceRoleMember, IsActive: true},
		{ID: "sm_2", CompanyID: company, SpaceID: "sp_1", UserID: manager.ID, Role: store.SpaceRoleManager, IsActive: true},
		{ID: "sm_3", CompanyID: company, SpaceID: "sp_1", UserID: "usr_inactive", Role: store.SpaceRoleMember, IsActive: false},
	}
}

func TestEffectiveSpaceRole(t *testing.T) {
	cases := []struct {
		name string
		user store.User
		want store.SpaceRole
	}{
		{name: "plain member", user: member, want: store.SpaceRoleMember},
		{name: "space manager", user: manager, want: store.SpaceRoleManager},
		{name: "company admin without membership row", user: admin, want: store.SpaceRoleManager},
		{name: "super admin across companies", user: super, want: store.SpaceRoleManager},
		{name: "no membership", user: outsider, want: store.SpaceRoleNone},
		{name: "admin of another company", user: stranger, want: store.SpaceRoleNone},
		{name: "inactive membership", user: store.User{ID: "usr_inactive", CompanyID: company, Role: store.RoleMember}, want: store.SpaceRoleNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EffectiveSpaceRole(space, tc.user, memberships()); got != tc.want {
				t.Fatalf("EffectiveSpaceRole = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestManagerRowDominatesMemberRow(t *testing.T) {
	rows := []store.SpaceMember{
		{ID: "sm_a", CompanyID: company, SpaceID: "sp_1", UserID: member.ID, Role: store.SpaceRoleMember, IsActive: true},
		{ID: "sm_b", CompanyID: company, SpaceID: "sp_1", UserID: member.ID, Role: store.SpaceRoleManager, IsActive: true},
	}
	if got := EffectiveSpaceRole(space, member, rows); got != store.SpaceRoleManager {
		t.Fatalf("EffectiveSpaceRole = %q, want manager", got)
	}
}

func TestVisibleSpaces(t *testing.T) {
	other := store.Space{ID: "sp_2", CompanyID: company, Name: "Engineering"}
	spaces := []store.Space{space, other}

	got := VisibleSpaces(spaces, member, memberships())
	if len(got) != 1 || got[0].ID != "sp_1" {
		t.Errorf("member should see only sp_1, got %+v", got)
	}

	got = VisibleSpaces(spaces, admin, nil)
	if len(got) != 2 {
		t.Errorf("admin should see all spaces, got %d", len(got))
	}

	got = VisibleSpaces(spaces, outsider, memberships())
	if len(got) != 0 {
		t.Errorf("user without membership should see nothing, got %+v", got)
	}
}

func TestInactiveMembershipExcludedFromVisibleSpaces(t *testing.T) {
	inactive := store.User{ID: "usr_inactive", CompanyID: company, Role: store.RoleMember}
	got := VisibleSpaces([]store.Space{space}, inactive, memberships())
	if len(got) != 0 {
		t.Errorf("inactive membership must not grant visibility, got %+v", got)
	}
}

func TestCanViewPage(t *testing.T) {
	draft := store.Page{ID: "pg_d", CompanyID: company, SpaceID: "sp_1", Status: store.PageDraft}
	published := store.Page{ID: "pg_p", CompanyID: company, SpaceID: "sp_1", Status: store.PagePublished}

	cases := []struct {
		name string
		page store.Page
		user store.User
		want bool
	}{
		{name: "member sees published", page: published, user: member, want: true},
		{name: "member blocked from draft", page: draft, user: member, want: false},
		{name: "manager sees draft", page: draft, user: manager, want: true},
		{name: "admin sees draft", page: draft, user: admin, want: true},
		{name: "outsider blocked from published", page: published, user: outsider, want: false},
		{name: "other company admin blocked", page: published, user: stranger, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanViewPage(tc.page, space, tc.user, memberships()); got != tc.want {
				t.Fatalf("CanViewPage = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanEditContent(t *testing.T) {
	page := store.Page{ID: "pg_1", CompanyID: company, SpaceID: "sp_1", Status: store.PagePublished}
	doc := store.Document{ID: "doc_1", CompanyID: company, SpaceID: "sp_1", IsActive: true}
	event := store.Event{ID: "ev_1", CompanyID: company, SpaceID: "sp_1", IsActive: true}

	for _, tc := range []struct {
		name string
		user store.User
		want bool
	}{
		{name: "member cannot edit", user: member, want: false},
		{name: "manager can edit", user: manager, want: true},
		{name: "admin can edit", user: admin, want: true},
		{name: "outsider cannot edit", user: outsider, want: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanEditPage(page, space, tc.user, memberships()); got != tc.want {
				t.Errorf("CanEditPage = %v, want %v", got, tc.want)
			}
			if got := CanEditDocument(doc, space, tc.user, memberships()); got != tc.want {
				t.Errorf("CanEditDocument = %v, want %v", got, tc.want)
			}
			if got := CanEditEvent(event, space, tc.user, memberships()); got != tc.want {
				t.Errorf("CanEditEvent = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanViewDocument(t *testing.T) {
	inactive := store.Document{ID: "doc_i", CompanyID: company, SpaceID: "sp_1", IsActive: false}

	if CanViewDocument(inactive, space, member, memberships()) {
		t.Error("member should not see inactive document")
	}
	if !CanViewDocument(inactive, space, manager, memberships()) {
		t.Error("manager should see inactive document")
	}
	if !CanViewDocument(inactive, space, admin, memberships()) {
		t.Error("admin should see inactive document")
	}
}

func TestAnnouncementVisibility(t *testing.T) {
	companyWide := store.Announcement{ID: "an_cw", CompanyID: company, Audience: store.AudienceCompanyWide, IsActive: true}
	spaceScoped := store.Announcement{ID: "an_sp", CompanyID: company, SpaceID: "sp_1", Audience: store.AudienceSpace, IsActive: true}
	inactiveSpace := store.Announcement{ID: "an_in", CompanyID: company, SpaceID: "sp_1", Audience: store.AudienceSpace, IsActive: false}

	cases := []struct {
		name string
		a    store.Announcement
		user store.User
		want bool
	}{
		{name: "company-wide visible to everyone", a: companyWide, user: outsider, want: true},
		{name: "company-wide visible to member", a: companyWide, user: member, want: true},
		{name: "space announcement needs membership", a: spaceScoped, user: outsider, want: false},
		{name: "space announcement visible to member", a: spaceScoped, user: member, want: true},
		{name: "inactive hidden from member", a: inactiveSpace, user: member, want: false},
		{name: "inactive visible to admin", a: inactiveSpace, user: admin, want: true},
		{name: "inactive visible to space manager", a: inactiveSpace, user: manager, want: true},
		{name: "other company blocked", a: companyWide, user: stranger, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanViewAnnouncement(tc.a, tc.user, memberships()); got != tc.want {
				t.Fatalf("CanViewAnnouncement = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanEditAnnouncement(t *testing.T) {
	companyWide := store.Announcement{ID: "an_cw", CompanyID: company, Audience: store.AudienceCompanyWide, IsActive: true}
	spaceScoped := store.Announcement{ID: "an_sp", CompanyID: company, SpaceID: "sp_1", Audience: store.AudienceSpace, IsActive: true}

	if CanEditAnnouncement(companyWide, manager, memberships()) {
		t.Error("space manager must not edit company-wide announcements")
	}
	if !CanEditAnnouncement(companyWide, admin, nil) {
		t.Error("admin should edit company-wide announcements")
	}
	if !CanEditAnnouncement(spaceScoped, manager, memberships()) {
		t.Error("space manager should edit their space's announcements")
	}
	if CanEditAnnouncement(spaceScoped, member, memberships()) {
		t.Error("member must not edit announcements")
	}
}

func TestCompanyWideEvents(t *testing.T) {
	active := store.Event{ID: "ev_cw", CompanyID: company, IsActive: true}
	cancelled := store.Event{ID: "ev_cx", CompanyID: company, IsActive: false}

	if !CanViewEvent(active, store.Space{}, member, memberships()) {
		t.Error("member must see an active company-wide event")
	}
	if CanViewEvent(cancelled, store.Space{}, member, memberships()) {
		t.Error("member must not see a cancelled company-wide event")
	}
	if !CanViewEvent(cancelled, store.Space{}, admin, memberships()) {
		t.Error("admin must see a cancelled company-wide event")
	}
	if CanEditEvent(active, store.Space{}, manager, memberships()) {
		t.Error("space manager must not edit company-wide events")
	}
	if !CanEditEvent(active, store.Space{}, admin, memberships()) {
		t.Error("admin must edit company-wide events")
	}
}
