// Package authpw provides email/password authentication and invite-code
// based sign-up.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"atrium/api/internal/authz"
	"atrium/api/internal/store"
	"atrium/api/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetCompanyByInviteCode(ctx context.Context, code string) (store.Company, error)
	ListUsers(ctx context.Context, companyID string) ([]store.User, error)
	InsertUser(ctx context.Context, user store.User) error
	UpdateUser(ctx context.Context, user store.User) error
}

// Service provides email/password authentication
type Service struct {
	store UserStore
	now   func() time.Time
}

// NewService creates a new auth service
func NewService(st UserStore) *Service {
	return &Service{store: st, now: time.Now}
}

// SignUpRequest contains sign-up parameters
type SignUpRequest struct {
	InviteCode string
	Email      string
	Password   string
	Name       string
}

// SignUp creates a member account in the company that owns the invite code.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (store.User, error) {
	if req.InviteCode == "" || req.Email == "" || req.Password == "" || req.Name == "" {
		return store.User{}, errors.New("invite code, email, password, and name are required")
	}
	if len(req.Password) < 8 {
		return store.User{}, errors.New("password must be at least 8 characters")
	}

	company, err := s.store.GetCompanyByInviteCode(ctx, req.InviteCode)
	if err != nil {
		return store.User{}, errors.New("invalid invite code")
	}

	existing, err := s.store.ListUsers(ctx, company.ID)
	if err != nil {
		return store.User{}, fmt.Errorf("list users: %w", err)
	}
	if err := authz.CheckSeatLimit(company, len(existing)); err != nil {
		return store.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := store.User{
		ID:           util.NewID("usr"),
		CompanyID:    company.ID,
		DisplayName:  req.Name,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		Role:         store.RoleMember,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return store.User{}, errors.New("email already registered")
		}
		return store.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// SignIn authenticates a user by email and password. Deactivated accounts
// cannot sign in.
func (s *Service) SignIn(ctx context.Context, email, password string) (store.User, error) {
	if email == "" || password == "" {
		return store.User{}, errors.New("email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return store.User{}, errors.New("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, errors.New("invalid email or password")
	}
	if !user.IsActive {
		return store.User{}, errors.New("account is deactivated")
	}

	return user, nil
}

// ChangePassword updates a user's password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, user store.User, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return errors.New("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
