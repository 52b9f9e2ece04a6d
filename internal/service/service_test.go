package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulak-sarmah/e-com-auth-service/internal/events"
	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
	"github.com/pulak-sarmah/e-com-auth-service/internal/repo"
	"github.com/pulak-sarmah/e-com-auth-service/internal/search"
	"github.com/pulak-sarmah/e-com-auth-service/internal/service"
	"github.com/pulak-sarmah/e-com-auth-service/internal/testutil"
	"github.com/pulak-sarmah/e-com-auth-service/internal/tokens"
	"github.com/pulak-sarmah/e-com-auth-service/internal/transport"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// lockLimiter blocks after max failures, like the redis limiter.
type lockLimiter struct {
	max      int
	failures map[string]int
}

func (l *lockLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.failures[key] < l.max, nil
}

func (l *lockLimiter) Fail(_ context.Context, key string) error {
	l.failures[key]++
	return nil
}

func (l *lockLimiter) Reset(_ context.Context, key string) error {
	delete(l.failures, key)
	return nil
}

type fixture struct {
	repo   *repo.GormRepo
	codec  *tokens.Codec
	pub    *recordingPublisher
	auth   *service.AuthService
	users  *service.UserService
	tenant *service.TenantService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := repo.New(testutil.NewDB(t))
	codec := testutil.NewCodec(t)
	pub := &recordingPublisher{}
	return &fixture{
		repo:   r,
		codec:  codec,
		pub:    pub,
		auth:   service.NewAuthService(r, codec, pub, nil, nil),
		users:  service.NewUserService(r, pub, nil),
		tenant: &service.TenantService{Repo: r},
	}
}

func registerReq() transport.RegisterRequest {
	return transport.RegisterRequest{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "johndoe@x.com",
		Password:  "secret12",
	}
}

func refreshContext(t *testing.T, codec *tokens.Codec, raw string) service.AuthContext {
	t.Helper()
	claims, err := codec.ParseRefresh(raw)
	require.NoError(t, err)
	return service.AuthContext{Subject: claims.Subject, Role: claims.Role, TokenID: claims.ID}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := registerReq()
	req.Email = "  JohnDoe@X.com "
	res, err := f.auth.Register(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, models.RoleCustomer, res.User.Role)
	assert.Equal(t, "johndoe@x.com", res.User.Email)
	assert.Len(t, res.User.PasswordHash, 60)
	assert.True(t, strings.HasPrefix(res.User.PasswordHash, "$2"))
	assert.NotEqual(t, "secret12", res.User.PasswordHash)

	assert.Len(t, strings.Split(res.Tokens.AccessToken, "."), 3)
	assert.Len(t, strings.Split(res.Tokens.RefreshToken, "."), 3)

	n, err := f.repo.CountRefresh(ctx, res.User.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.Equal(t, []string{events.UserRegistered}, f.pub.types())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, registerReq())
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, registerReq())
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.ErrorIs(t, err, repo.ErrEmailTaken)

	var count int64
	require.NoError(t, f.repo.DB.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		edit  func(r *transport.RegisterRequest)
		field string
	}{
		{name: "missing email", edit: func(r *transport.RegisterRequest) { r.Email = "" }, field: "email"},
		{name: "bad email", edit: func(r *transport.RegisterRequest) { r.Email = "not-an-email" }, field: "email"},
		{name: "short password", edit: func(r *transport.RegisterRequest) { r.Password = "short" }, field: "password"},
		{name: "long password", edit: func(r *transport.RegisterRequest) { r.Password = strings.Repeat("x", 21) }, field: "password"},
		{name: "password over 72 bytes", edit: func(r *transport.RegisterRequest) { r.Password = strings.Repeat("😀", 20) }, field: "password"},
		{name: "numeric first name", edit: func(r *transport.RegisterRequest) { r.FirstName = "J0hn" }, field: "firstName"},
		{name: "short last name", edit: func(r *transport.RegisterRequest) { r.LastName = "D" }, field: "lastName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registerReq()
			tt.edit(&req)

			_, err := f.auth.Register(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, service.KindValidation, service.KindOf(err))

			var se *service.Error
			require.ErrorAs(t, err, &se)
			require.NotEmpty(t, se.Fields)
			assert.Equal(t, tt.field, se.Fields[0].Field)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, registerReq())
	require.NoError(t, err)

	res, err := f.auth.Login(ctx, "JOHNDOE@x.com", "secret12")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	claims, err := f.codec.ParseAccess(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, claims.Role)

	n, err := f.repo.CountRefresh(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "login creates exactly one new record")
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, registerReq())
	require.NoError(t, err)

	_, wrongPass := f.auth.Login(ctx, "johndoe@x.com", "nope-nope")
	_, unknown := f.auth.Login(ctx, "ghost@x.com", "secret12")

	require.Error(t, wrongPass)
	require.Error(t, unknown)
	assert.ErrorIs(t, wrongPass, service.ErrAuthentication)
	assert.ErrorIs(t, unknown, service.ErrAuthentication)
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}

func TestLogin_Throttled(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	codec := testutil.NewCodec(t)
	lim := &lockLimiter{max: 2, failures: map[string]int{}}
	auth := service.NewAuthService(r, codec, nil, nil, lim)
	ctx := context.Background()

	_, err := auth.Register(ctx, registerReq())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := auth.Login(ctx, "johndoe@x.com", "wrong-pass")
		require.ErrorIs(t, err, service.ErrAuthentication)
	}

	_, err = auth.Login(ctx, "johndoe@x.com", "secret12")
	assert.ErrorIs(t, err, service.ErrRateLimited)

	delete(lim.failures, "johndoe@x.com")
	_, err = auth.Login(ctx, "johndoe@x.com", "secret12")
	require.NoError(t, err)
}

func TestRefresh_RotatesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, registerReq())
	require.NoError(t, err)
	old := refreshContext(t, f.codec, reg.Tokens.RefreshToken)

	res, err := f.auth.Refresh(ctx, old)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	fresh := refreshContext(t, f.codec, res.Tokens.RefreshToken)
	assert.NotEqual(t, old.TokenID, fresh.TokenID)

	n, err := f.repo.CountRefresh(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.auth.Refresh(ctx, old)
	assert.ErrorIs(t, err, service.ErrAuthentication, "a used refresh token cannot be replayed")
}

func TestRefresh_DeletedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, registerReq())
	require.NoError(t, err)
	ac := refreshContext(t, f.codec, reg.Tokens.RefreshToken)

	require.NoError(t, f.users.Delete(ctx, reg.User.ID))

	_, err = f.auth.Refresh(ctx, ac)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestLogout_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, registerReq())
	require.NoError(t, err)
	ac := refreshContext(t, f.codec, reg.Tokens.RefreshToken)

	require.NoError(t, f.auth.Logout(ctx, ac))
	require.NoError(t, f.auth.Logout(ctx, ac))

	n, err := f.repo.CountRefresh(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, registerReq())
	require.NoError(t, err)
	claims, err := f.codec.ParseAccess(reg.Tokens.AccessToken)
	require.NoError(t, err)

	me, err := f.auth.Self(ctx, service.AuthContext{Subject: claims.Subject, Role: claims.Role})
	require.NoError(t, err)
	assert.Equal(t, "johndoe@x.com", me.Email)

	_, err = f.auth.Self(ctx, service.AuthContext{Subject: "9999", Role: models.RoleCustomer})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, registerReq())
	require.NoError(t, err)
	_, err = f.repo.PersistRefresh(ctx, reg.User.ID, f.codec.Now().Add(-1))
	require.NoError(t, err)

	n, err := f.auth.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUserService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tn, err := f.tenant.Create(ctx, transport.TenantRequest{Name: "Acme", Address: "Main st"})
	require.NoError(t, err)

	u, err := f.users.Create(ctx, transport.CreateUserRequest{
		FirstName: "Mana", LastName: "Ger", Email: "m@x.com", Password: "secret12", TenantID: &tn.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, u.Role)
	require.NotNil(t, u.TenantID)
	assert.Equal(t, tn.ID, *u.TenantID)

	n, err := f.repo.CountRefresh(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "admin-created users get no tokens")

	missing := uint(999)
	_, err = f.users.Create(ctx, transport.CreateUserRequest{
		FirstName: "Mana", LastName: "Ger", Email: "m2@x.com", Password: "secret12", TenantID: &missing,
	})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.users.Create(ctx, transport.CreateUserRequest{
		FirstName: "Mana", LastName: "Ger", Email: "m3@x.com", Password: "secret12", Role: "root",
	})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.users.Create(ctx, transport.CreateUserRequest{
		FirstName: "Mana", LastName: "Ger", Email: "m@x.com", Password: "secret12",
	})
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestUserService_UpdateGetDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Create(ctx, transport.CreateUserRequest{
		FirstName: "Mana", LastName: "Ger", Email: "m@x.com", Password: "secret12", Role: "customer",
	})
	require.NoError(t, err)

	name, role := "Anna", "admin"
	updated, err := f.users.Update(ctx, u.ID, transport.UpdateUserRequest{FirstName: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Anna", updated.FirstName)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	bad := "x1"
	_, err = f.users.Update(ctx, u.ID, transport.UpdateUserRequest{LastName: &bad})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.users.Update(ctx, 999, transport.UpdateUserRequest{FirstName: &name})
	assert.ErrorIs(t, err, service.ErrNotFound)

	got, err := f.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.FirstName)

	require.NoError(t, f.users.Delete(ctx, u.ID))
	_, err = f.users.Get(ctx, u.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, f.users.Delete(ctx, u.ID), service.ErrNotFound)

	assert.Equal(t, []string{events.UserCreated, events.UserUpdated, events.UserDeleted}, f.pub.types())
}

type fakeIndex struct {
	ids []uint
}

func (fakeIndex) IndexUser(context.Context, *models.User) error { return nil }
func (fakeIndex) DeleteUser(context.Context, uint) error { return nil }
func (x fakeIndex) SearchUsers(context.Context, string, int, int) (int64, []uint, error) {
	return int64(len(x.ids)), x.ids, nil
}

func TestUserService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []uint
	for _, e := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		u, err := f.users.Create(ctx, transport.CreateUserRequest{
			FirstName: "Abc", LastName: "Def", Email: e, Password: "secret12",
		})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}

	page, err := f.users.List(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Meta.Total)
	assert.Len(t, page.Data, 2)
	assert.True(t, page.Meta.HasNext)
	assert.EqualValues(t, 2, page.Meta.TotalPages)

	searching := service.NewUserService(f.repo, nil, fakeIndex{ids: []uint{ids[2], ids[0]}})
	hits, err := searching.List(ctx, "abc", 1, 10)
	require.NoError(t, err)
	require.Len(t, hits.Data, 2)
	assert.Equal(t, "c@x.com", hits.Data[0].Email)
	assert.Equal(t, "a@x.com", hits.Data[1].Email)
}

func TestUserService_List_FallsBackToDatabaseWithoutIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := service.NewUserService(f.repo, nil, search.Nop{})

	for _, r := range []transport.CreateUserRequest{
		{FirstName: "Rakesh", LastName: "Kumar", Email: "rk@x.com", Password: "secret12"},
		{FirstName: "Anna", LastName: "Smith", Email: "anna@x.com", Password: "secret12"},
		{FirstName: "Bob", LastName: "Brakes", Email: "bob@x.com", Password: "secret12"},
	} {
		_, err := users.Create(ctx, r)
		require.NoError(t, err)
	}

	page, err := users.List(ctx, "RAK", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Meta.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "rk@x.com", page.Data[0].Email)
	assert.Equal(t, "bob@x.com", page.Data[1].Email)

	page, err = users.List(ctx, "anna@x", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Anna", page.Data[0].FirstName)

	page, err = users.List(ctx, "nobody", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.EqualValues(t, 0, page.Meta.Total)
}

func TestUserService_EnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.users.EnsureAdmin(ctx, "Admin@X.com", "admin-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.users.EnsureAdmin(ctx, "admin@x.com", "admin-pass")
	require.NoError(t, err)
	assert.False(t, created)

	res, err := f.auth.Login(ctx, "admin@x.com", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	require.NotNil(t, res.User.IsAdmin)
	assert.True(t, *res.User.IsAdmin)
}

func TestTenantService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tenant.Create(ctx, transport.TenantRequest{Name: " ", Address: "x"})
	assert.ErrorIs(t, err, service.ErrValidation)

	tn, err := f.tenant.Create(ctx, transport.TenantRequest{Name: "Acme", Address: "Main st"})
	require.NoError(t, err)

	addr := "Second st"
	got, err := f.tenant.Update(ctx, tn.ID, transport.UpdateTenantRequest{Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "Second st", got.Address)
	assert.Equal(t, "Acme", got.Name)

	page, err := f.tenant.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Meta.Total)

	require.NoError(t, f.tenant.Delete(ctx, tn.ID))
	_, err = f.tenant.Get(ctx, tn.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
