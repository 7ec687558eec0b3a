package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"atrium/api/internal/ai"
	"atrium/api/internal/auth"
	"atrium/api/internal/authpw"
	"atrium/api/internal/authz"
	"atrium/api/internal/config"
	"atrium/api/internal/files"
	"atrium/api/internal/search"
	"atrium/api/internal/session"
	"atrium/api/internal/store"
	"atrium/api/internal/util"
)

// Session is the authenticated caller for one request. Role and CompanyID
// are re-read from the store on every token parse so revoked permissions
// take effect immediately.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         store.Role
	CompanyID    string
	ExpiresAt    time.Time
}

type Service struct {
	cfg       config.Config
	store     *store.Store
	sessions  *session.RedisStore
	passwords *authpw.Service
	search    *search.Service
	files     *files.Service
	ai        *ai.Client
	now       func() time.Time
}

func New(cfg config.Config, st *store.Store, sessions *session.RedisStore, passwords *authpw.Service, searchSvc *search.Service, filesSvc *files.Service, aiClient *ai.Client) *Service {
	return &Service{
		cfg:       cfg,
		store:     st,
		sessions:  sessions,
		passwords: passwords,
		search:    searchSvc,
		files:     filesSvc,
		ai:        aiClient,
		now:       time.Now,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Bootstrap seeds the first tenant on an empty store: one company, one
// super admin, a default department, and a starter space with a welcome
// page.
func (s *Service) Bootstrap(ctx context.Context) error {
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return err
	}
	if len(companies) > 0 {
		return nil
	}

	now := s.now()
	company := store.Company{
		ID:         util.NewID("co"),
		Name:       s.cfg.BootstrapCompany,
		Plan:       store.PlanBasic,
		InviteCode: util.NewID("")[:8],
		IsActive:   true,
		CreatedAt:  now,
	}
	if err := s.store.InsertCompany(ctx, company); err != nil {
		return err
	}

	hash, err := authpw.HashPassword(s.cfg.BootstrapAdminPass)
	if err != nil {
		return err
	}
	admin := store.User{
		ID:           util.NewID("usr"),
		CompanyID:    company.ID,
		Email:        s.cfg.BootstrapAdminEmail,
		PasswordHash: hash,
		DisplayName:  "Administrator",
		Role:         store.RoleSuperAdmin,
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := s.store.InsertUser(ctx, admin); err != nil {
		return err
	}

	if err := s.store.InsertDepartment(ctx, store.Department{
		ID:        util.NewID("dept"),
		CompanyID: company.ID,
		Name:      "General",
		IsActive:  true,
		CreatedAt: now,
	}); err != nil {
		return err
	}

	space := store.Space{
		ID:          util.NewID("sp"),
		CompanyID:   company.ID,
		Name:        "Company Hub",
		Description: "Shared announcements, policies, and onboarding material.",
		CreatedBy:   admin.ID,
		CreatedAt:   now,
	}
	if err := s.store.InsertSpace(ctx, space); err != nil {
		return err
	}
	if err := s.store.InsertSpaceMember(ctx, store.SpaceMember{
		ID:        util.NewID("sm"),
		CompanyID: company.ID,
		SpaceID:   space.ID,
		UserID:    admin.ID,
		Role:      store.SpaceRoleManager,
		IsActive:  true,
		CreatedAt: now,
	}); err != nil {
		return err
	}

	return s.store.InsertPage(ctx, store.Page{
		ID:        util.NewID("pg"),
		CompanyID: company.ID,
		SpaceID:   space.ID,
		Title:     "Welcome",
		Content:   "Welcome to your company intranet. Use spaces to organize pages, documents, and events for each team.",
		Status:    store.PagePublished,
		CreatedBy: admin.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.passwords.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), nil)
	}
	return s.issueSession(ctx, user)
}

// SignUp creates a member account via a company invite code and starts a
// session for it.
func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (Session, error) {
	user, err := s.passwords.SignUp(ctx, req)
	if err != nil {
		if errors.Is(err, authz.ErrSeatLimit) {
			return Session{}, domainError(http.StatusConflict, "SEAT_LIMIT_EXCEEDED", "Company has reached its seat limit", nil)
		}
		return Session{}, errValidation(err.Error())
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	data, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUser(ctx, data.UserID)
	if err != nil {
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, auth.ErrInvalidToken
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTTL)

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:       user.ID,
		Name:      user.DisplayName,
		Role:      string(user.Role),
		CompanyID: user.CompanyID,
		JTI:       util.NewID("jti"),
		Exp:       expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, user.CompanyID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Role:         user.Role,
		CompanyID:    user.CompanyID,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.GetUser(ctx, claims.Sub)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	if !user.IsActive {
		return Session{}, auth.ErrInvalidToken
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		return s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// viewer loads the full user record plus company and membership context for
// authorization checks.
func (s *Service) viewer(ctx context.Context, sess Session) (store.User, store.Company, []store.SpaceMember, error) {
	user, err := s.store.GetUser(ctx, sess.UserID)
	if err != nil {
		return store.User{}, store.Company{}, nil, err
	}
	if !user.IsActive {
		return store.User{}, store.Company{}, nil, auth.ErrInvalidToken
	}
	company, err := s.store.GetCompany(ctx, user.CompanyID)
	if err != nil {
		return store.User{}, store.Company{}, nil, err
	}
	memberships, err := s.store.ListMemberships(ctx, user.CompanyID, user.ID)
	if err != nil {
		return store.User{}, store.Company{}, nil, err
	}
	return user, company, memberships, nil
}

func (s *Service) logActivity(ctx context.Context, sess Session, kind store.EntityKind, entityID, action, detail string) {
	_ = s.store.InsertActivityLog(ctx, store.ActivityLog{
		ID:         util.NewID("act"),
		CompanyID:  sess.CompanyID,
		UserID:     sess.UserID,
		EntityKind: kind,
		EntityID:   entityID,
		Action:     action,
		Detail:     detail,
		CreatedAt:  s.now(),
	})
}

func (s *Service) notify(ctx context.Context, companyID, userID string, kind store.EntityKind, entityID, message string) {
	_ = s.store.InsertNotification(ctx, store.Notification{
		ID:         util.NewID("ntf"),
		CompanyID:  companyID,
		UserID:     userID,
		EntityKind: kind,
		EntityID:   entityID,
		Message:    message,
		CreatedAt:  s.now(),
	})
}
