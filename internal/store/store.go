// Package store persists portal entities as flat collections in the
// key-value store. Rows keep insertion order; callers re-sort by date as
// needed. There is no referential integrity across collections: a row may
// reference an id that no longer exists, and readers resolve that
// defensively.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"atrium/api/internal/kv"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrEmailExists = errors.New("email already registered")
)

type row interface {
	RowID() string
}

// Store wraps the key-value adapter with typed collection access.
// Read-modify-write cycles are serialized per collection within the
// process; writers in other processes remain last-write-wins.
type Store struct {
	kv    *kv.Store
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(kvStore *kv.Store) *Store {
	return &Store{
		kv:    kvStore,
		locks: make(map[string]*sync.Mutex),
	}
}

// Ping checks the backing store.
func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

func (s *Store) lock(collection string) func() {
	s.mu.Lock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func loadAll[T any](ctx context.Context, s *Store, collection string) ([]T, error) {
	raw, err := s.kv.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []T{}, nil
	}
	var rows []T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", collection, err)
	}
	return rows, nil
}

func saveAll[T any](ctx context.Context, s *Store, collection string, rows []T) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", collection, err)
	}
	return s.kv.SetAll(ctx, collection, raw)
}

func getByID[T row](ctx context.Context, s *Store, collection, id string) (T, error) {
	var zero T
	rows, err := loadAll[T](ctx, s, collection)
	if err != nil {
		return zero, err
	}
	for _, r := range rows {
		if r.RowID() == id {
			return r, nil
		}
	}
	return zero, ErrNotFound
}

func insertRow[T row](ctx context.Context, s *Store, collection string, item T) error {
	unlock := s.lock(collection)
	defer unlock()

	rows, err := loadAll[T](ctx, s, collection)
	if err != nil {
		return err
	}
	rows = append(rows, item)
	return saveAll(ctx, s, collection, rows)
}

func updateRow[T row](ctx context.Context, s *Store, collection string, item T) error {
	unlock := s.lock(collection)
	defer unlock()

	rows, err := loadAll[T](ctx, s, collection)
	if err != nil {
		return err
	}
	for i, r := range rows {
		if r.RowID() == item.RowID() {
			rows[i] = item
			return saveAll(ctx, s, collection, rows)
		}
	}
	return ErrNotFound
}

// removeRows hard-deletes every row matching drop and reports how many went.
func removeRows[T row](ctx context.Context, s *Store, collection string, drop func(T) bool) (int, error) {
	unlock := s.lock(collection)
	defer unlock()

	rows, err := loadAll[T](ctx, s, collection)
	if err != nil {
		return 0, err
	}
	kept := rows[:0]
	removed := 0
	for _, r := range rows {
		if drop(r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, saveAll(ctx, s, collection, kept)
}

func filterRows[T any](ctx context.Context, s *Store, collection string, keep func(T) bool) ([]T, error) {
	rows, err := loadAll[T](ctx, s, collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ----- Companies -----

func (s *Store) ListCompanies(ctx context.Context) ([]Company, error) {
	return loadAll[Company](ctx, s, ColCompanies)
}

func (s *Store) GetCompany(ctx context.Context, id string) (Company, error) {
	return getByID[Company](ctx, s, ColCompanies, id)
}

func (s *Store) GetCompanyByInviteCode(ctx context.Context, code string) (Company, error) {
	companies, err := loadAll[Company](ctx, s, ColCompanies)
	if err != nil {
		return Company{}, err
	}
	for _, c := range companies {
		if c.InviteCode != "" && c.InviteCode == code {
			return c, nil
		}
	}
	return Company{}, ErrNotFound
}

func (s *Store) InsertCompany(ctx context.Context, company Company) error {
	return insertRow(ctx, s, ColCompanies, company)
}

func (s *Store) UpdateCompany(ctx context.Context, company Company) error {
	return updateRow(ctx, s, ColCompanies, company)
}

// ----- Users -----

func (s *Store) ListUsers(ctx context.Context, companyID string) ([]User, error) {
	return filterRows(ctx, s, ColUsers, func(u User) bool { return u.CompanyID == companyID })
}

func (s *Store) ListAllUsers(ctx context.Context) ([]User, error) {
	return loadAll[User](ctx, s, ColUsers)
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	return getByID[User](ctx, s, ColUsers, id)
}

// GetUserByEmail matches case-insensitively across every company.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	users, err := loadAll[User](ctx, s, ColUsers)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// InsertUser enforces the global email uniqueness invariant.
func (s *Store) InsertUser(ctx context.Context, user User) error {
	unlock := s.lock(ColUsers)
	defer unlock()

	users, err := loadAll[User](ctx, s, ColUsers)
	if err != nil {
		return err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailExists
		}
	}
	users = append(users, user)
	return saveAll(ctx, s, ColUsers, users)
}

func (s *Store) UpdateUser(ctx context.Context, user User) error {
	return updateRow(ctx, s, ColUsers, user)
}

// ----- Departments -----

func (s *Store) ListDepartments(ctx context.Context, companyID string) ([]Department, error) {
	return filterRows(ctx, s, ColDepartments, func(d Department) bool { return d.CompanyID == companyID })
}

func (s *Store) GetDepartment(ctx context.Context, id string) (Department, error) {
	return getByID[Department](ctx, s, ColDepartments, id)
}

func (s *Store) InsertDepartment(ctx context.Context, dept Department) error {
	return insertRow(ctx, s, ColDepartments, dept)
}

func (s *Store) UpdateDepartment(ctx context.Context, dept Department) error {
	return updateRow(ctx, s, ColDepartments, dept)
}
