// Package users manages dashboard accounts and credential checks.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"calldash/internal/rbac"
)

var (
	ErrNotFound           = errors.New("users: not found")
	ErrDuplicateUsername  = errors.New("users: username already taken")
	ErrInvalidCredentials = errors.New("users: invalid credentials")
)

type Repository interface {
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	GetByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context) ([]User, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Authenticate checks the password and returns the account on success.
// All failures collapse into ErrInvalidCredentials so callers cannot probe
// which usernames exist.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

type CreateInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
	AgentID  string `json:"agent_id"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	if !rbac.ValidRole(in.Role) {
		return User{}, fmt.Errorf("users: invalid role %q", in.Role)
	}
	if in.Role != rbac.RoleAdmin && in.AgentID == "" {
		return User{}, errors.New("users: agent_id required for non-admin accounts")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         in.Role,
		AgentID:      in.AgentID,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// UpdateInput carries the fields an admin may change on an existing
// account. Zero-value fields are left untouched.
type UpdateInput struct {
	Password string `json:"password"`
	Role     string `json:"role"`
	AgentID  string `json:"agent_id"`
}

func (s *Service) Update(ctx context.Context, username string, in UpdateInput) (User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}

	if in.Role != "" {
		if !rbac.ValidRole(in.Role) {
			return User{}, fmt.Errorf("users: invalid role %q", in.Role)
		}
		u.Role = in.Role
	}
	if in.AgentID != "" {
		u.AgentID = in.AgentID
	}
	if in.Password != "" {
		if len(in.Password) < 8 {
			return User{}, errors.New("users: password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	if u.Role != rbac.RoleAdmin && u.AgentID == "" {
		return User{}, errors.New("users: agent_id required for non-admin accounts")
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// SeedDefaults creates the built-in admin and demo accounts when they do
// not exist yet. It is called outside production only.
func (s *Service) SeedDefaults(ctx context.Context, agentID string) error {
	if agentID == "" {
		agentID = "demo_agent"
	}
	seeds := []CreateInput{
		{Username: "admin", Password: "admin-password", Role: rbac.RoleAdmin},
		{Username: "demo", Password: "demo-password", Role: rbac.RoleDemo, AgentID: agentID},
	}
	for _, in := range seeds {
		if _, err := s.repo.GetByUsername(ctx, in.Username); err == nil {
			continue
		}
		if _, err := s.Create(ctx, in); err != nil && !errors.Is(err, ErrDuplicateUsername) {
			return fmt.Errorf("seed %s: %w", in.Username, err)
		}
	}
	return nil
}
