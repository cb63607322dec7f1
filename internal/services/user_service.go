package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/models"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	Register(ctx context.Context, name, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
}

// UserService provides business logic for user accounts and login.
type UserService struct {
	db     *sql.DB
	hasher *auth.Hasher
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, hasher *auth.Hasher) *UserService {
	return &UserService{db: db, hasher: hasher}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	var role string
	row := s.db.QueryRowContext(ctx, "SELECT id, name, email, role, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	if user.Role, err = models.ParseRole(role); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// getUserByEmail retrieves a single user by their email, including the
// password hash. The email column collates case-insensitively.
func (s *UserService) getUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	var role string
	row := s.db.QueryRowContext(ctx, "SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	if user.Role, err = models.ParseRole(role); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Register creates a new user account with the user role, hashing the
// password. The plaintext is never stored or logged.
func (s *UserService) Register(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	switch {
	case name == "":
		return models.User{}, fmt.Errorf("%w: name is required", models.ErrValidation)
	case email == "" || !strings.Contains(email, "@"):
		return models.User{}, fmt.Errorf("%w: a valid email is required", models.ErrValidation)
	case password == "":
		return models.User{}, fmt.Errorf("%w: password is required", models.ErrValidation)
	}

	var exists bool
	row := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", email)
	if err := row.Scan(&exists); err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, models.ErrEmailTaken
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:    uuid.New().String(),
		Name:  name,
		Email: email,
		Role:  models.RoleUser,
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users(id, name, email, password_hash, role) VALUES(?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, hashedPassword, string(user.Role))
	if err != nil {
		return models.User{}, err
	}

	return s.GetUserByID(ctx, user.ID)
}

// Authenticate verifies a user's credentials and returns the account
// with the password hash scrubbed.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.getUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return models.User{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return models.User{}, models.ErrBadPassword
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}
