package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
	"github.com/pulak-sarmah/e-com-auth-service/internal/repo"
	"github.com/pulak-sarmah/e-com-auth-service/internal/testutil"
)

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return repo.New(testutil.NewDB(t))
}

func seedUser(t *testing.T, r *repo.GormRepo, email string) *models.User {
	t.Helper()
	u := &models.User{
		FirstName:    "Rakesh",
		LastName:     "K",
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Role:         models.RoleCustomer,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	seedUser(t, r, "rakesh@mern.space")

	err := r.CreateUser(ctx, &models.User{
		FirstName: "Other", LastName: "One", Email: "rakesh@mern.space",
		PasswordHash: "x", Role: models.RoleCustomer,
	})
	assert.ErrorIs(t, err, repo.ErrEmailTaken)

	var count int64
	require.NoError(t, r.DB.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUserLookups(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "a@b.io")

	byEmail, err := r.UserByEmail(ctx, "a@b.io")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "$2a$10$hash", byEmail.PasswordHash)

	_, err = r.UserByEmail(ctx, "missing@b.io")
	assert.ErrorIs(t, err, repo.ErrUserNotFound)

	_, err = r.UserByID(ctx, u.ID+100)
	assert.ErrorIs(t, err, repo.ErrUserNotFound)
}

func TestUsersByIDs_KeepsOrderAndSkipsMissing(t *testing.T) {
	r := newRepo(t)
	a := seedUser(t, r, "a@b.io")
	b := seedUser(t, r, "b@b.io")

	users, err := r.UsersByIDs(context.Background(), []uint{b.ID, 999, a.ID})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, b.ID, users[0].ID)
	assert.Equal(t, a.ID, users[1].ID)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "a@b.io")

	updated, err := r.UpdateUser(ctx, u.ID, map[string]any{"first_name": "Neo", "role": models.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, "Neo", updated.FirstName)
	assert.Equal(t, models.RoleManager, updated.Role)

	_, err = r.UpdateUser(ctx, 999, map[string]any{"first_name": "X"})
	assert.ErrorIs(t, err, repo.ErrUserNotFound)

	_, err = r.PersistRefresh(ctx, u.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, r.DeleteUser(ctx, u.ID))
	n, err := r.CountRefresh(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, r.DeleteUser(ctx, u.ID), repo.ErrUserNotFound)
}

func TestListUsers_Paginates(t *testing.T) {
	r := newRepo(t)
	for _, e := range []string{"a@b.io", "b@b.io", "c@b.io"} {
		seedUser(t, r, e)
	}

	users, total, err := r.ListUsers(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, "b@b.io", users[0].Email)
}

func TestAdminExists(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	ok, err := r.AdminExists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	flag := true
	require.NoError(t, r.CreateUser(ctx, &models.User{
		FirstName: "Root", LastName: "Admin", Email: "admin@b.io",
		PasswordHash: "x", Role: models.RoleAdmin, IsAdmin: &flag,
	}))

	ok, err = r.AdminExists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTenantCRUD(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	tn := &models.Tenant{Name: "Acme", Address: "Main st 1"}
	require.NoError(t, r.CreateTenant(ctx, tn))
	require.NotZero(t, tn.ID)

	ok, err := r.TenantExists(ctx, tn.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	u := seedUser(t, r, "a@b.io")
	_, err = r.UpdateUser(ctx, u.ID, map[string]any{"tenant_id": tn.ID})
	require.NoError(t, err)

	got, err := r.UpdateTenant(ctx, tn.ID, map[string]any{"name": "Acme 2"})
	require.NoError(t, err)
	assert.Equal(t, "Acme 2", got.Name)

	list, total, err := r.ListTenants(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	require.NoError(t, r.DeleteTenant(ctx, tn.ID))
	_, err = r.TenantByID(ctx, tn.ID)
	assert.ErrorIs(t, err, repo.ErrTenantNotFound)
	assert.ErrorIs(t, r.DeleteTenant(ctx, tn.ID), repo.ErrTenantNotFound)

	detached, err := r.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, detached.TenantID)
}

func TestRefreshLifecycle(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "a@b.io")

	rec, err := r.PersistRefresh(ctx, u.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rec.ID)

	ok, err := r.RefreshExists(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.DeleteRefresh(ctx, rec.ID))
	require.NoError(t, r.DeleteRefresh(ctx, rec.ID), "delete must be idempotent")

	ok, err = r.RefreshExists(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRotateRefresh(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "a@b.io")
	exp := time.Now().Add(time.Hour)

	old, err := r.PersistRefresh(ctx, u.ID, exp)
	require.NoError(t, err)

	fresh, err := r.RotateRefresh(ctx, u.ID, old.ID, exp)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, fresh.ID)

	ok, err := r.RefreshExists(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = r.RefreshExists(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.RotateRefresh(ctx, u.ID, old.ID, exp)
	assert.ErrorIs(t, err, repo.ErrRefreshNotFound)

	n, err := r.CountRefresh(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "failed rotation must roll back the new record")
}

func TestRotateRefresh_OtherUsersRecord(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	a := seedUser(t, r, "a@b.io")
	b := seedUser(t, r, "b@b.io")
	exp := time.Now().Add(time.Hour)

	rec, err := r.PersistRefresh(ctx, a.ID, exp)
	require.NoError(t, err)

	_, err = r.RotateRefresh(ctx, b.ID, rec.ID, exp)
	assert.ErrorIs(t, err, repo.ErrRefreshNotFound)

	ok, err := r.RefreshExists(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteExpiredRefresh(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "a@b.io")
	now := time.Now()

	_, err := r.PersistRefresh(ctx, u.ID, now.Add(-time.Minute))
	require.NoError(t, err)
	live, err := r.PersistRefresh(ctx, u.ID, now.Add(time.Hour))
	require.NoError(t, err)

	n, err := r.DeleteExpiredRefresh(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ok, err := r.RefreshExists(ctx, live.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
