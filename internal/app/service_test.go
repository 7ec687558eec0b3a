package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"atrium/api/internal/ai"
	"atrium/api/internal/authpw"
	"atrium/api/internal/config"
	"atrium/api/internal/kv"
	"atrium/api/internal/search"
	"atrium/api/internal/session"
	"atrium/api/internal/store"
	"atrium/api/internal/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:           "test-secret",
		AccessTTL:           time.Hour,
		RefreshTTL:          24 * time.Hour,
		BootstrapCompany:    "Test Co",
		BootstrapAdminEmail: "admin@test.local",
		BootstrapAdminPass:  "admin-password",
	}
}

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	st := store.New(kv.NewWithClient(client))
	sessions := session.NewRedisStoreWithClient(client)
	passwords := authpw.NewService(st)
	searchSvc := search.NewService(nil, search.NewMemory(st))

	return New(testConfig(), st, sessions, passwords, searchSvc, nil, nil), st
}

// seedCompany creates a company and a user of the given role, returning a
// session for that user.
func seedCompany(t *testing.T, st *store.Store, plan store.Plan) store.Company {
	t.Helper()
	company := store.Company{
		ID:         util.NewID("co"),
		Name:       "Seeded Co",
		Plan:       plan,
		InviteCode: "seedinvite",
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	if plan == store.PlanPro {
		company.SubscriptionLive = true
		company.SubscriptionEnd = time.Now().AddDate(1, 0, 0)
	}
	if err := st.InsertCompany(context.Background(), company); err != nil {
		t.Fatalf("insert company: %v", err)
	}
	return company
}

func seedUser(t *testing.T, st *store.Store, companyID string, role store.Role) (store.User, Session) {
	t.Helper()
	hash, err := authpw.HashPassword("user-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := store.User{
		ID:           util.NewID("usr"),
		CompanyID:    companyID,
		Email:        util.NewID("") + "@test.local",
		PasswordHash: hash,
		DisplayName:  "Test " + string(role),
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := st.InsertUser(context.Background(), user); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	sess := Session{
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Role:      user.Role,
		CompanyID: companyID,
	}
	return user, sess
}

func TestBootstrapSeedsOnce(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}

	companies, err := st.ListCompanies(ctx)
	if err != nil {
		t.Fatalf("list companies: %v", err)
	}
	if len(companies) != 1 {
		t.Fatalf("expected 1 company after double bootstrap, got %d", len(companies))
	}
	if companies[0].InviteCode == "" {
		t.Error("bootstrap company must have an invite code")
	}

	sess, err := svc.Login(ctx, "admin@test.local", "admin-password")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if sess.Role != store.RoleSuperAdmin {
		t.Errorf("bootstrap admin role = %q, want super_admin", sess.Role)
	}

	spaces, err := svc.ListSpaces(ctx, sess)
	if err != nil {
		t.Fatalf("list spaces: %v", err)
	}
	if len(spaces) != 1 {
		t.Fatalf("expected 1 seeded space, got %d", len(spaces))
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	if _, err := svc.Login(ctx, "admin@test.local", "wrong"); err == nil {
		t.Fatal("expected error for wrong password")
	}
	if _, err := svc.Login(ctx, "nobody@test.local", "admin-password"); err == nil {
		t.Fatal("expected error for unknown email")
	}

	_, err := svc.Login(ctx, "admin@test.local", "wrong")
	var de *DomainError
	if !errors.As(err, &de) || de.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 domain error, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	first, err := svc.Login(ctx, "admin@test.local", "admin-password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("refresh must rotate the refresh token")
	}

	if _, err := svc.Refresh(ctx, first.RefreshToken); err == nil {
		t.Fatal("old refresh token must be revoked after rotation")
	}
}

func TestSignUpSeatLimit(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanBasic)
	company.MaxUsers = 2
	if err := st.UpdateCompany(ctx, company); err != nil {
		t.Fatalf("update company: %v", err)
	}
	seedUser(t, st, company.ID, store.RoleCompanyAdmin)

	if _, err := svc.SignUp(ctx, authpw.SignUpRequest{
		InviteCode: company.InviteCode,
		Email:      "second@test.local",
		Password:   "password-123",
		Name:       "Second",
	}); err != nil {
		t.Fatalf("second sign-up within the cap: %v", err)
	}

	_, err := svc.SignUp(ctx, authpw.SignUpRequest{
		InviteCode: company.InviteCode,
		Email:      "third@test.local",
		Password:   "password-123",
		Name:       "Third",
	})
	var de *DomainError
	if !errors.As(err, &de) || de.Code != "SEAT_LIMIT_EXCEEDED" {
		t.Fatalf("expected SEAT_LIMIT_EXCEEDED, got %v", err)
	}
}

func TestSpaceVisibility(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanBasic)
	_, adminSess := seedUser(t, st, company.ID, store.RoleCompanyAdmin)
	_, memberSess := seedUser(t, st, company.ID, store.RoleMember)

	created, err := svc.CreateSpace(ctx, adminSess, SpaceInput{Name: "Leadership"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	spaceID := created["id"].(string)

	adminSpaces, err := svc.ListSpaces(ctx, adminSess)
	if err != nil {
		t.Fatalf("admin list spaces: %v", err)
	}
	if len(adminSpaces) != 1 {
		t.Fatalf("admin should see 1 space, got %d", len(adminSpaces))
	}

	memberSpaces, err := svc.ListSpaces(ctx, memberSess)
	if err != nil {
		t.Fatalf("member list spaces: %v", err)
	}
	if len(memberSpaces) != 0 {
		t.Fatalf("non-member should see 0 spaces, got %d", len(memberSpaces))
	}

	_, err = svc.GetSpace(ctx, memberSess, spaceID)
	var de *DomainError
	if !errors.As(err, &de) || de.Status != http.StatusNotFound {
		t.Fatalf("non-member GetSpace should 404, got %v", err)
	}

	member, _ := st.GetUser(ctx, memberSess.UserID)
	if _, err := svc.AddSpaceMember(ctx, adminSess, spaceID, SpaceMemberInput{UserID: member.ID}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := svc.GetSpace(ctx, memberSess, spaceID); err != nil {
		t.Fatalf("member should see space after being added: %v", err)
	}
}

func TestSpaceLimitOnBasicPlan(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanBasic)
	_, adminSess := seedUser(t, st, company.ID, store.RoleCompanyAdmin)

	for i := 0; i < 5; i++ {
		if _, err := svc.CreateSpace(ctx, adminSess, SpaceInput{Name: "Space " + string(rune('A'+i))}); err != nil {
			t.Fatalf("create space %d: %v", i, err)
		}
	}
	_, err := svc.CreateSpace(ctx, adminSess, SpaceInput{Name: "One Too Many"})
	var de *DomainError
	if !errors.As(err, &de) || de.Code != "SPACE_LIMIT_EXCEEDED" {
		t.Fatalf("expected SPACE_LIMIT_EXCEEDED, got %v", err)
	}
}

func TestDraftPagesHiddenFromMembers(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanBasic)
	_, adminSess := seedUser(t, st, company.ID, store.RoleCompanyAdmin)
	member, memberSess := seedUser(t, st, company.ID, store.RoleMember)

	created, err := svc.CreateSpace(ctx, adminSess, SpaceInput{Name: "Docs"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	spaceID := created["id"].(string)
	if _, err := svc.AddSpaceMember(ctx, adminSess, spaceID, SpaceMemberInput{UserID: member.ID}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	page, err := svc.CreatePage(ctx, adminSess, PageInput{SpaceID: spaceID, Title: "Draft guide", Content: "WIP"})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	pageID := page["id"].(string)

	if _, err := svc.GetPage(ctx, memberSess, pageID); err == nil {
		t.Fatal("member must not see a draft page")
	}

	if _, err := svc.SetPageStatus(ctx, adminSess, pageID, store.PagePublished); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := svc.GetPage(ctx, memberSess, pageID); err != nil {
		t.Fatalf("member should see published page: %v", err)
	}
}

func TestSearchRespectsSpaceVisibility(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanBasic)
	_, adminSess := seedUser(t, st, company.ID, store.RoleCompanyAdmin)
	member, memberSess := seedUser(t, st, company.ID, store.RoleMember)

	created, err := svc.CreateSpace(ctx, adminSess, SpaceInput{Name: "Leadership"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	spaceID := created["id"].(string)

	pages := []store.Page{
		{ID: "pg_pub", CompanyID: company.ID, SpaceID: spaceID, Title: "Reorg overview", Content: "the upcoming restructuring explained", Status: store.PagePublished},
		{ID: "pg_draft", CompanyID: company.ID, SpaceID: spaceID, Title: "Headcount plan", Content: "confidential restructuring details", Status: store.PageDraft},
	}
	for _, p := range pages {
		if err := st.InsertPage(ctx, p); err != nil {
			t.Fatalf("insert page: %v", err)
		}
	}

	// A plain member with no membership in the space gets nothing back,
	// draft or published.
	resp, err := svc.Search(ctx, memberSess, search.Query{Text: "restructuring"})
	if err != nil {
		t.Fatalf("member search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("non-member must not see space content in search, got %+v", resp.Results)
	}

	// The admin sees the published page; the draft never surfaces in search.
	resp, err = svc.Search(ctx, adminSess, search.Query{Text: "restructuring"})
	if err != nil {
		t.Fatalf("admin search: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "pg_pub" {
		t.Fatalf("admin should see only the published page, got %+v", resp.Results)
	}

	// Membership unlocks the published page for the member.
	if _, err := svc.AddSpaceMember(ctx, adminSess, spaceID, SpaceMemberInput{UserID: member.ID}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	resp, err = svc.Search(ctx, memberSess, search.Query{Text: "restructuring"})
	if err != nil {
		t.Fatalf("member search after join: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "pg_pub" {
		t.Fatalf("member should see only the published page, got %+v", resp.Results)
	}
}

func TestUpdateAnnouncementKeepsPinWhenOmitted(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanBasic)
	_, adminSess := seedUser(t, st, company.ID, store.RoleCompanyAdmin)

	pinned := true
	ann, err := svc.CreateAnnouncement(ctx, adminSess, AnnouncementInput{Title: "Office move", Body: "We relocate in June.", IsPinned: &pinned})
	if err != nil {
		t.Fatalf("create announcement: %v", err)
	}
	if !ann.IsPinned {
		t.Fatal("expected announcement to be pinned")
	}

	// A body-only update must not unpin.
	updated, err := svc.UpdateAnnouncement(ctx, adminSess, ann.ID, AnnouncementInput{Body: "We relocate in July."}, nil)
	if err != nil {
		t.Fatalf("update announcement: %v", err)
	}
	if !updated.IsPinned {
		t.Fatal("partial update must keep the pin")
	}

	unpinned := false
	updated, err = svc.UpdateAnnouncement(ctx, adminSess, ann.ID, AnnouncementInput{IsPinned: &unpinned}, nil)
	if err != nil {
		t.Fatalf("unpin: %v", err)
	}
	if updated.IsPinned {
		t.Fatal("explicit unpin must stick")
	}
}

func TestArchiveAndCancelRecordActivity(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanBasic)
	_, adminSess := seedUser(t, st, company.ID, store.RoleCompanyAdmin)

	created, err := svc.CreateSpace(ctx, adminSess, SpaceInput{Name: "Ops"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	spaceID := created["id"].(string)

	doc := store.Document{
		ID: "doc_1", CompanyID: company.ID, SpaceID: spaceID,
		Title: "Runbook", FileName: "runbook.pdf", IsActive: true,
	}
	if err := st.InsertDocument(ctx, doc); err != nil {
		t.Fatalf("insert document: %v", err)
	}
	if err := svc.SetDocumentActive(ctx, adminSess, doc.ID, false); err != nil {
		t.Fatalf("archive document: %v", err)
	}

	event, err := svc.CreateEvent(ctx, adminSess, EventInput{SpaceID: spaceID, Title: "Standup", StartsAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if err := svc.CancelEvent(ctx, adminSess, event.ID); err != nil {
		t.Fatalf("cancel event: %v", err)
	}

	feed, err := svc.ActivityFeed(ctx, adminSess, "", "", 0)
	if err != nil {
		t.Fatalf("activity feed: %v", err)
	}
	actions := map[string]bool{}
	for _, row := range feed {
		actions[row["action"].(string)] = true
	}
	if !actions["archived"] {
		t.Error("expected an archived entry for the document")
	}
	if !actions["cancelled"] {
		t.Error("expected a cancelled entry for the event")
	}
}

func TestAnnouncementVisibilityAndAcknowledgement(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanBasic)
	_, adminSess := seedUser(t, st, company.ID, store.RoleCompanyAdmin)
	_, memberSess := seedUser(t, st, company.ID, store.RoleMember)

	space, err := svc.CreateSpace(ctx, adminSess, SpaceInput{Name: "Private"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	spaceID := space["id"].(string)

	if _, err := svc.CreateAnnouncement(ctx, adminSess, AnnouncementInput{Title: "All hands", Body: "Friday"}); err != nil {
		t.Fatalf("create company-wide announcement: %v", err)
	}
	if _, err := svc.CreateAnnouncement(ctx, adminSess, AnnouncementInput{SpaceID: spaceID, Title: "Space only", Body: "Internal"}); err != nil {
		t.Fatalf("create space announcement: %v", err)
	}

	visible, err := svc.ListAnnouncements(ctx, memberSess)
	if err != nil {
		t.Fatalf("member list announcements: %v", err)
	}
	if len(visible) != 1 {
		t.Fatalf("member should see 1 announcement, got %d", len(visible))
	}
	if visible[0]["title"] != "All hands" {
		t.Errorf("member should only see the company-wide announcement, got %v", visible[0]["title"])
	}

	annID := visible[0]["id"].(string)
	if err := svc.AcknowledgeAnnouncement(ctx, memberSess, annID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	// Idempotent.
	if err := svc.AcknowledgeAnnouncement(ctx, memberSess, annID); err != nil {
		t.Fatalf("second acknowledge: %v", err)
	}

	report, err := svc.AcknowledgementReport(ctx, adminSess, annID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report["acknowledged"] != 1 {
		t.Errorf("expected 1 acknowledgement, got %v", report["acknowledged"])
	}
}

func TestAskAIWithoutKeyStoresPending(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanPro)
	_, sess := seedUser(t, st, company.ID, store.RoleMember)

	query, err := svc.AskAI(ctx, sess, AIQuestionInput{Question: "What is the vacation policy?"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if query.Status != store.AIPending {
		t.Errorf("status = %q, want pending", query.Status)
	}
	if query.AnswerText != "" {
		t.Errorf("answer should be empty without an API key, got %q", query.AnswerText)
	}

	history, err := svc.AIHistory(ctx, sess)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 stored query, got %d", len(history))
	}
}

func TestAskAIRecordsBackendFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer backend.Close()

	svc, st := newTestService(t)
	svc.ai = ai.NewClient(backend.URL, time.Second)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanPro)
	company.AIAPIKey = "key-123"
	if err := st.UpdateCompany(ctx, company); err != nil {
		t.Fatalf("update company: %v", err)
	}
	_, sess := seedUser(t, st, company.ID, store.RoleMember)

	query, err := svc.AskAI(ctx, sess, AIQuestionInput{Question: "Anyone home?"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if query.Status != store.AIError {
		t.Errorf("status = %q, want error", query.Status)
	}
	if query.AnswerText == "" || query.AnswerText[:26] != "Error interacting with AI:" {
		t.Errorf("answer should carry the backend error, got %q", query.AnswerText)
	}
}

func TestAIBlockedOnBasicPlan(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanBasic)
	_, sess := seedUser(t, st, company.ID, store.RoleMember)

	_, err := svc.AskAI(ctx, sess, AIQuestionInput{Question: "Blocked?"})
	var de *DomainError
	if !errors.As(err, &de) || de.Code != "PLAN_RESTRICTED" {
		t.Fatalf("expected PLAN_RESTRICTED, got %v", err)
	}
}

func TestAnalyticsRequiresProPlan(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	basic := seedCompany(t, st, store.PlanBasic)
	_, basicAdmin := seedUser(t, st, basic.ID, store.RoleCompanyAdmin)

	_, err := svc.AnalyticsSummary(ctx, basicAdmin)
	var de *DomainError
	if !errors.As(err, &de) || de.Code != "PLAN_RESTRICTED" {
		t.Fatalf("expected PLAN_RESTRICTED on basic plan, got %v", err)
	}
}

func TestMarkOrderPaidUpgradesPlan(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanBasic)
	_, adminSess := seedUser(t, st, company.ID, store.RoleCompanyAdmin)

	order, err := svc.CreatePaymentOrder(ctx, adminSess, OrderInput{Amount: 49900, Plan: "pro"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	settled, err := svc.MarkOrderPaid(ctx, adminSess, order.ID, true)
	if err != nil {
		t.Fatalf("settle order: %v", err)
	}
	if settled.Status != store.OrderPaid {
		t.Errorf("order status = %q, want paid", settled.Status)
	}

	upgraded, err := st.GetCompany(ctx, company.ID)
	if err != nil {
		t.Fatalf("get company: %v", err)
	}
	if upgraded.Plan != store.PlanPro || !upgraded.SubscriptionLive {
		t.Errorf("company should be on a live pro plan, got plan=%q live=%v", upgraded.Plan, upgraded.SubscriptionLive)
	}

	// Analytics now allowed.
	if _, err := svc.AnalyticsSummary(ctx, adminSess); err != nil {
		t.Fatalf("analytics after upgrade: %v", err)
	}

	// Double settlement rejected.
	if _, err := svc.MarkOrderPaid(ctx, adminSess, order.ID, true); err == nil {
		t.Fatal("settling a paid order must fail")
	}
}

func TestDeactivatedUserCannotAct(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	company := seedCompany(t, st, store.PlanBasic)
	user, sess := seedUser(t, st, company.ID, store.RoleMember)

	user.IsActive = false
	if err := st.UpdateUser(ctx, user); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := svc.ListSpaces(ctx, sess); err == nil {
		t.Fatal("deactivated user must be rejected")
	}
}
