package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"atrium/api/internal/kv"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s := miniredis.RunT(t)
	kvStore, err := kv.New("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create kv store: %v", err)
	}
	t.Cleanup(func() { kvStore.Close() })
	return New(kvStore)
}

func TestPageRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	page := Page{
		ID:        "pg_1",
		CompanyID: "co_1",
		SpaceID:   "sp_1",
		Title:     "Onboarding",
		Content:   "Welcome aboard",
		Status:    PageDraft,
		CreatedBy: "usr_1",
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := s.InsertPage(ctx, page); err != nil {
		t.Fatalf("InsertPage failed: %v", err)
	}

	got, err := s.GetPage(ctx, "pg_1")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if !reflect.DeepEqual(got, page) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, page)
	}
}

func TestGetMissingRowReturnsNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetPage(context.Background(), "pg_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMissingRowReturnsNotFound(t *testing.T) {
	s := setupTestStore(t)

	err := s.UpdateSpace(context.Background(), Space{ID: "sp_missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ids := []string{"an_3", "an_1", "an_2"}
	for _, id := range ids {
		a := Announcement{ID: id, CompanyID: "co_1", Audience: AudienceCompanyWide, IsActive: true}
		if err := s.InsertAnnouncement(ctx, a); err != nil {
			t.Fatalf("InsertAnnouncement %s failed: %v", id, err)
		}
	}

	rows, err := s.ListAnnouncements(ctx, "co_1")
	if err != nil {
		t.Fatalf("ListAnnouncements failed: %v", err)
	}
	if len(rows) != len(ids) {
		t.Fatalf("expected %d rows, got %d", len(ids), len(rows))
	}
	for i, id := range ids {
		if rows[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, rows[i].ID)
		}
	}
}

func TestCompanyScopedListing(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.InsertSpace(ctx, Space{ID: "sp_a", CompanyID: "co_1", Name: "Finance"}); err != nil {
		t.Fatalf("InsertSpace failed: %v", err)
	}
	if err := s.InsertSpace(ctx, Space{ID: "sp_b", CompanyID: "co_2", Name: "Other Tenant"}); err != nil {
		t.Fatalf("InsertSpace failed: %v", err)
	}

	spaces, err := s.ListSpaces(ctx, "co_1")
	if err != nil {
		t.Fatalf("ListSpaces failed: %v", err)
	}
	if len(spaces) != 1 || spaces[0].ID != "sp_a" {
		t.Errorf("cross-tenant leak: %+v", spaces)
	}
}

func TestEmailUniqueAcrossCompanies(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := User{ID: "usr_1", CompanyID: "co_1", Email: "pat@example.com", Role: RoleMember, IsActive: true}
	if err := s.InsertUser(ctx, first); err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}

	dup := User{ID: "usr_2", CompanyID: "co_2", Email: "Pat@Example.com", Role: RoleMember, IsActive: true}
	err := s.InsertUser(ctx, dup)
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists for duplicate email in another company, got %v", err)
	}
}

func TestGetUserByEmailCaseInsensitive(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.InsertUser(ctx, User{ID: "usr_1", CompanyID: "co_1", Email: "pat@example.com"}); err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "PAT@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != "usr_1" {
		t.Errorf("expected usr_1, got %s", got.ID)
	}
}

func TestDeleteSpaceHard(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.InsertSpace(ctx, Space{ID: "sp_1", CompanyID: "co_1"}); err != nil {
		t.Fatalf("InsertSpace failed: %v", err)
	}
	if err := s.InsertSpaceMember(ctx, SpaceMember{ID: "sm_1", CompanyID: "co_1", SpaceID: "sp_1", UserID: "usr_1", Role: SpaceRoleMember, IsActive: true}); err != nil {
		t.Fatalf("InsertSpaceMember failed: %v", err)
	}

	if err := s.DeleteSpace(ctx, "sp_1"); err != nil {
		t.Fatalf("DeleteSpace failed: %v", err)
	}
	if err := s.DeleteSpaceMembers(ctx, "sp_1"); err != nil {
		t.Fatalf("DeleteSpaceMembers failed: %v", err)
	}

	if _, err := s.GetSpace(ctx, "sp_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected space row gone, got %v", err)
	}
	members, err := s.ListSpaceMembers(ctx, "sp_1")
	if err != nil {
		t.Fatalf("ListSpaceMembers failed: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("expected no members after cascade, got %d", len(members))
	}

	if err := s.DeleteSpace(ctx, "sp_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestToggleFavoriteIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	fav := Favorite{ID: "fav_1", CompanyID: "co_1", UserID: "usr_1", EntityKind: KindPage, EntityID: "pg_1"}

	on, err := s.ToggleFavorite(ctx, fav)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if !on {
		t.Error("expected favorited after first toggle")
	}

	off, err := s.ToggleFavorite(ctx, Favorite{ID: "fav_2", CompanyID: "co_1", UserID: "usr_1", EntityKind: KindPage, EntityID: "pg_1"})
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if off {
		t.Error("expected unfavorited after second toggle")
	}

	rows, err := s.ListFavorites(ctx, "usr_1")
	if err != nil {
		t.Fatalf("ListFavorites failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no favorite rows after double toggle, got %d", len(rows))
	}
}

func TestAcknowledgementIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ack := ReadAcknowledgement{ID: "ack_1", CompanyID: "co_1", UserID: "usr_1", EntityKind: KindAnnouncement, EntityID: "an_1"}
	if err := s.InsertAcknowledgement(ctx, ack); err != nil {
		t.Fatalf("first ack failed: %v", err)
	}
	ack.ID = "ack_2"
	if err := s.InsertAcknowledgement(ctx, ack); err != nil {
		t.Fatalf("second ack failed: %v", err)
	}

	rows, err := s.ListEntityAcknowledgements(ctx, KindAnnouncement, "an_1")
	if err != nil {
		t.Fatalf("ListEntityAcknowledgements failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected single ack row, got %d", len(rows))
	}
}

func TestEntityKindValid(t *testing.T) {
	cases := []struct {
		kind  EntityKind
		valid bool
	}{
		{KindPage, true},
		{KindDocument, true},
		{KindAnnouncement, true},
		{EntityKind("proposal"), false},
		{EntityKind(""), false},
	}
	for _, tc := range cases {
		if got := tc.kind.Valid(); got != tc.valid {
			t.Errorf("Valid(%q) = %v, want %v", tc.kind, got, tc.valid)
		}
	}
}

func TestRoleOrdering(t *testing.T) {
	if !RoleSuperAdmin.AtLeast(RoleCompanyAdmin) {
		t.Error("super admin should outrank company admin")
	}
	if !RoleCompanyAdmin.AtLeast(RoleCompanyAdmin) {
		t.Error("ordering should be reflexive")
	}
	if RoleMember.AtLeast(RoleSpaceManager) {
		t.Error("member should not outrank space manager")
	}
	if Role("intruder").AtLeast(RoleMember) {
		t.Error("unknown role should rank below member")
	}
}
