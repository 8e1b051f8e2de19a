package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/satriajanaka/backend-mart/internal/auth"
	"github.com/satriajanaka/backend-mart/internal/common"
	"github.com/satriajanaka/backend-mart/internal/store"
)

// Repo captures the user queries the service depends on.
type Repo interface {
	CreateUser(ctx context.Context, name, email, passwordHash string, isAdmin bool) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
	UpdateUser(ctx context.Context, id pgtype.UUID, patch store.UserPatch) (store.User, error)
	DeleteUser(ctx context.Context, id pgtype.UUID) (bool, error)
	ListUsers(ctx context.Context, limit, offset int32) ([]store.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// User is the safe subset of the user model returned to clients.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service coordinates account registration, login, and administration.
type Service struct {
	repo Repo
	auth *auth.Service
}

// NewService constructs a user service.
func NewService(repo Repo, authSvc *auth.Service) (*Service, error) {
	if repo == nil {
		return nil, errors.New("user: repo is required")
	}
	if authSvc == nil {
		return nil, errors.New("user: auth service is required")
	}
	return &Service{repo: repo, auth: authSvc}, nil
}

// LoginResult bundles the user payload with its access token.
type LoginResult struct {
	User   User
	Token  string
	Expiry time.Time
}

// Register creates an account and logs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (LoginResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return LoginResult{}, common.BadRequest("name, email and password are required")
	}
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return LoginResult{}, err
	}
	row, err := s.repo.CreateUser(ctx, name, email, hash, false)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return LoginResult{}, common.BadRequest("user already exists")
		}
		return LoginResult{}, err
	}
	return s.loginResult(row)
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	row, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, common.Unauthorized("invalid email or password")
		}
		return LoginResult{}, err
	}
	if !s.auth.VerifyPassword(password, row.PasswordHash) {
		return LoginResult{}, common.Unauthorized("invalid email or password")
	}
	return s.loginResult(row)
}

// Profile returns the caller's account.
func (s *Service) Profile(ctx context.Context, userID string) (User, error) {
	row, err := s.byID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return toUser(row), nil
}

// ProfilePatch carries the caller-editable account fields. Nil means "leave
// unchanged".
type ProfilePatch struct {
	Name     *string
	Email    *string
	Password *string
}

// UpdateProfile applies the patch to the caller's own account.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (User, error) {
	uid, err := store.ToUUID(userID)
	if err != nil {
		return User{}, common.Unauthorized("unauthorized")
	}
	storePatch := store.UserPatch{Name: patch.Name}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email == "" {
			return User{}, common.BadRequest("email cannot be empty")
		}
		storePatch.Email = &email
	}
	if patch.Password != nil {
		hash, err := s.auth.HashPassword(*patch.Password)
		if err != nil {
			return User{}, err
		}
		storePatch.PasswordHash = &hash
	}
	row, err := s.repo.UpdateUser(ctx, uid, storePatch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, common.NotFound("user not found")
		}
		if store.IsUniqueViolation(err) {
			return User{}, common.BadRequest("email already in use")
		}
		return User{}, err
	}
	return toUser(row), nil
}

// AdminPatch extends ProfilePatch with the admin flag.
type AdminPatch struct {
	Name    *string
	Email   *string
	IsAdmin *bool
}

// AdminUpdate applies administrative changes to any account.
func (s *Service) AdminUpdate(ctx context.Context, userID string, patch AdminPatch) (User, error) {
	uid, err := store.ToUUID(userID)
	if err != nil {
		return User{}, common.NotFound("user not found")
	}
	storePatch := store.UserPatch{Name: patch.Name, IsAdmin: patch.IsAdmin}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email == "" {
			return User{}, common.BadRequest("email cannot be empty")
		}
		storePatch.Email = &email
	}
	row, err := s.repo.UpdateUser(ctx, uid, storePatch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, common.NotFound("user not found")
		}
		if store.IsUniqueViolation(err) {
			return User{}, common.BadRequest("email already in use")
		}
		return User{}, err
	}
	return toUser(row), nil
}

// Get returns a single account by id.
func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	row, err := s.byID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return toUser(row), nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, userID string) error {
	uid, err := store.ToUUID(userID)
	if err != nil {
		return common.NotFound("user not found")
	}
	deleted, err := s.repo.DeleteUser(ctx, uid)
	if err != nil {
		return err
	}
	if !deleted {
		return common.NotFound("user not found")
	}
	return nil
}

// List returns a page of accounts plus the total count.
func (s *Service) List(ctx context.Context, page, perPage int) ([]User, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	rows, err := s.repo.ListUsers(ctx, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, 0, err
	}
	users := make([]User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toUser(row))
	}
	return users, total, nil
}

// IdentityByID implements auth.IdentitySource.
func (s *Service) IdentityByID(ctx context.Context, userID string) (common.Identity, error) {
	row, err := s.byID(ctx, userID)
	if err != nil {
		return common.Identity{}, err
	}
	return common.Identity{
		ID:    store.UUIDString(row.ID),
		Name:  row.Name,
		Email: row.Email,
		Admin: row.IsAdmin,
	}, nil
}

func (s *Service) byID(ctx context.Context, userID string) (store.User, error) {
	uid, err := store.ToUUID(userID)
	if err != nil {
		return store.User{}, common.NotFound("user not found")
	}
	row, err := s.repo.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.User{}, common.NotFound("user not found")
		}
		return store.User{}, err
	}
	return row, nil
}

func (s *Service) loginResult(row store.User) (LoginResult, error) {
	token, expiry, err := s.auth.IssueToken(store.UUIDString(row.ID))
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: toUser(row), Token: token, Expiry: expiry}, nil
}

func toUser(row store.User) User {
	return User{
		ID:        store.UUIDString(row.ID),
		Name:      row.Name,
		Email:     row.Email,
		IsAdmin:   row.IsAdmin,
		CreatedAt: row.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
