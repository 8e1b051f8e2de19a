package user_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/satriajanaka/backend-mart/internal/auth"
	"github.com/satriajanaka/backend-mart/internal/common"
	"github.com/satriajanaka/backend-mart/internal/store"
	"github.com/satriajanaka/backend-mart/internal/user"
)

type fakeUserRepo struct {
	users []store.User
}

func (f *fakeUserRepo) CreateUser(_ context.Context, name, email, hash string, admin bool) (store.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return store.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := store.User{
		ID: store.NewUUID(), Name: name, Email: email,
		PasswordHash: hash, IsAdmin: admin, CreatedAt: time.Now(),
	}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return store.User{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id pgtype.UUID) (store.User, error) {
	for _, u := range f.users {
		if store.UUIDEqual(u.ID, id) {
			return u, nil
		}
	}
	return store.User{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, id pgtype.UUID, patch store.UserPatch) (store.User, error) {
	for i := range f.users {
		if !store.UUIDEqual(f.users[i].ID, id) {
			continue
		}
		u := &f.users[i]
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		if patch.PasswordHash != nil {
			u.PasswordHash = *patch.PasswordHash
		}
		if patch.IsAdmin != nil {
			u.IsAdmin = *patch.IsAdmin
		}
		return *u, nil
	}
	return store.User{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id pgtype.UUID) (bool, error) {
	for i := range f.users {
		if store.UUIDEqual(f.users[i].ID, id) {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) ListUsers(_ context.Context, limit, offset int32) ([]store.User, error) {
	if int(offset) >= len(f.users) {
		return nil, nil
	}
	out := f.users[offset:]
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUserRepo) CountUsers(_ context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func newTestService(t *testing.T) (*user.Service, *fakeUserRepo) {
	t.Helper()
	authSvc, err := auth.NewService(auth.Config{Secret: "test-secret-with-enough-length"})
	require.NoError(t, err)
	repo := &fakeUserRepo{}
	svc, err := user.NewService(repo, authSvc)
	require.NoError(t, err)
	return svc, repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo := newTestService(t)

	reg, err := svc.Register(context.Background(), "John Doe", "John@Example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, "john@example.com", reg.User.Email)
	require.False(t, reg.User.IsAdmin)
	require.NotEmpty(t, reg.Token)
	require.NotEqual(t, "secret123", repo.users[0].PasswordHash)

	login, err := svc.Login(context.Background(), "john@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, login.User.ID)
	require.NotEmpty(t, login.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Register(context.Background(), "John", "john@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "john@example.com", "wrong")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 401, appErr.HTTPStatus)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 401, appErr.HTTPStatus)
	require.Equal(t, "invalid email or password", appErr.Message)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Register(context.Background(), "John", "john@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Johnny", "john@example.com", "other456")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 400, appErr.HTTPStatus)
	require.Equal(t, "user already exists", appErr.Message)
}

func TestRegisterRequiredFields(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), "", "john@example.com", "secret123")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 400, appErr.HTTPStatus)
}

func TestUpdateProfilePartial(t *testing.T) {
	svc, repo := newTestService(t)
	reg, err := svc.Register(context.Background(), "John", "john@example.com", "secret123")
	require.NoError(t, err)

	name := "Johnny"
	updated, err := svc.UpdateProfile(context.Background(), reg.User.ID, user.ProfilePatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Johnny", updated.Name)
	require.Equal(t, "john@example.com", updated.Email)

	password := "newpass456"
	oldHash := repo.users[0].PasswordHash
	_, err = svc.UpdateProfile(context.Background(), reg.User.ID, user.ProfilePatch{Password: &password})
	require.NoError(t, err)
	require.NotEqual(t, oldHash, repo.users[0].PasswordHash)

	_, err = svc.Login(context.Background(), "john@example.com", "newpass456")
	require.NoError(t, err)
}

func TestAdminUpdateTogglesAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	reg, err := svc.Register(context.Background(), "John", "john@example.com", "secret123")
	require.NoError(t, err)

	isAdmin := true
	updated, err := svc.AdminUpdate(context.Background(), reg.User.ID, user.AdminPatch{IsAdmin: &isAdmin})
	require.NoError(t, err)
	require.True(t, updated.IsAdmin)

	isAdmin = false
	updated, err = svc.AdminUpdate(context.Background(), reg.User.ID, user.AdminPatch{IsAdmin: &isAdmin})
	require.NoError(t, err)
	require.False(t, updated.IsAdmin)
}

func TestDeleteMissingUser(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Delete(context.Background(), store.UUIDString(store.NewUUID()))
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 404, appErr.HTTPStatus)
}

func TestIdentityByID(t *testing.T) {
	svc, _ := newTestService(t)
	reg, err := svc.Register(context.Background(), "John", "john@example.com", "secret123")
	require.NoError(t, err)

	identity, err := svc.IdentityByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, identity.ID)
	require.Equal(t, "John", identity.Name)
	require.False(t, identity.Admin)
}

func TestListPaging(t *testing.T) {
	svc, _ := newTestService(t)
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err := svc.Register(context.Background(), strings.Split(email, "@")[0], email, "secret123")
		require.NoError(t, err)
	}

	users, total, err := svc.List(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, int64(3), total)

	users, _, err = svc.List(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, users, 1)
}
