// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/fsrf-audit/internal/config"
)

// Roles known to the authorization policy.
const (
	RoleAdmin   = "admin"
	RoleAuditor = "auditor"
	RoleEditor  = "editor"
	RoleViewer  = "viewer"
)

// BcryptCost is used when hashing plaintext passwords from configuration.
const BcryptCost = 12

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User is an account that may log in.
type User struct {
	ID    string
	Email string
	Role  string

	passwordHash []byte
}

// dummyHash is compared against for unknown emails so they cost the same
// bcrypt work as a wrong password on a real account.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("fsrf-audit-dummy"), BcryptCost)
	if err != nil {
		panic(fmt.Sprintf("auth: dummy hash: %v", err))
	}
	return h
})

// CredentialStore holds accounts keyed by lower-cased email.
type CredentialStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewCredentialStore returns an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{users: make(map[string]*User)}
}

// NewCredentialStoreFromConfig loads the bootstrap administrator and the
// configured users.
func NewCredentialStoreFromConfig(cfg *config.SecurityConfig) (*CredentialStore, error) {
	s := NewCredentialStore()

	if cfg.AdminEmail != "" {
		hash := cfg.AdminPasswordHash
		if cfg.AdminPassword != "" {
			h, err := HashPassword(cfg.AdminPassword)
			if err != nil {
				return nil, err
			}
			hash = h
		}
		if err := s.Add("admin", cfg.AdminEmail, RoleAdmin, hash); err != nil {
			return nil, fmt.Errorf("admin account: %w", err)
		}
	}

	for i, u := range cfg.Users {
		role := u.Role
		if role == "" {
			role = cfg.Casbin.DefaultRole
		}
		if err := s.Add(u.ID, u.Email, role, u.PasswordHash); err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
	}
	return s, nil
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Add registers an account. An empty id is replaced by a random one.
func (s *CredentialStore) Add(id, email, role, passwordHash string) error {
	key := normalizeEmail(email)
	if key == "" {
		return errors.New("email is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return fmt.Errorf("password hash for %s is not a bcrypt hash: %w", key, err)
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[key]; exists {
		return fmt.Errorf("duplicate account %s", key)
	}
	s.users[key] = &User{ID: id, Email: key, Role: role, passwordHash: []byte(passwordHash)}
	return nil
}

// Authenticate checks email and password.
func (s *CredentialStore) Authenticate(email, password string) (*User, error) {
	s.mu.RLock()
	u, ok := s.users[normalizeEmail(email)]
	s.mu.RUnlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Len returns the number of accounts.
func (s *CredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
