package user_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/user"
	"github.com/trezcool/classroom/storage/database/sqlx"
	"github.com/trezcool/classroom/tests"
)

func setup(t *testing.T) (*user.Service, user.Repository) {
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	return user.NewService(db, usrRepo, core.NewValidator()), usrRepo
}

func TestService_Register(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, user.NewUser{
		Email:           "taken@test.cd",
		Password:        "pwd",
		PasswordConfirm: "pwd",
		Role:            "teacher",
	})
	require.NoError(t, err)

	valid := func(mod func(nu *user.NewUser)) user.NewUser {
		nu := user.NewUser{
			Email:           "new@test.cd",
			FullName:        "New User",
			Password:        "pwd",
			PasswordConfirm: "pwd",
			Role:            "student",
		}
		mod(&nu)
		return nu
	}

	tests := []struct {
		name      string
		nu        user.NewUser
		wantErr   func(err error) bool
		wantField string
	}{
		{name: "empty email", nu: valid(func(nu *user.NewUser) { nu.Email = "  " }), wantErr: core.IsValidation, wantField: "email"},
		{name: "malformed email", nu: valid(func(nu *user.NewUser) { nu.Email = "lol" }), wantErr: core.IsValidation, wantField: "email"},
		{name: "email too long", nu: valid(func(nu *user.NewUser) { nu.Email = strings.Repeat("a", 250) + "@x.com" }), wantErr: core.IsValidation, wantField: "email"},
		{name: "empty password", nu: valid(func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "", "" }), wantErr: core.IsValidation, wantField: "password"},
		{name: "passwords mismatch", nu: valid(func(nu *user.NewUser) { nu.PasswordConfirm = "lol" }), wantErr: core.IsValidation, wantField: "password_confirm"},
		{
			name: "password over 72 bytes",
			nu: valid(func(nu *user.NewUser) {
				nu.Password = strings.Repeat("p", 73)
				nu.PasswordConfirm = nu.Password
			}),
			wantErr: core.IsValidation, wantField: "password",
		},
		{
			name: "multibyte password over 72 bytes",
			nu: valid(func(nu *user.NewUser) {
				nu.Password = strings.Repeat("é", 72)
				nu.PasswordConfirm = nu.Password
			}),
			wantErr: core.IsValidation, wantField: "password",
		},
		{
			name: "success with 72 bytes password",
			nu: valid(func(nu *user.NewUser) {
				nu.Email = "long@test.cd"
				nu.Password = strings.Repeat("é", 36)
				nu.PasswordConfirm = nu.Password
			}),
		},
		{name: "unknown role", nu: valid(func(nu *user.NewUser) { nu.Role = "admin" }), wantErr: core.IsValidation, wantField: "role"},
		{name: "empty role", nu: valid(func(nu *user.NewUser) { nu.Role = "" }), wantErr: core.IsValidation, wantField: "role"},
		{name: "full name too long", nu: valid(func(nu *user.NewUser) { nu.FullName = strings.Repeat("a", 101) }), wantErr: core.IsValidation, wantField: "full_name"},
		{name: "email taken", nu: valid(func(nu *user.NewUser) { nu.Email = "taken@test.cd" }), wantErr: core.IsConflict},
		{name: "email taken, other case", nu: valid(func(nu *user.NewUser) { nu.Email = " TAKEN@test.cd " }), wantErr: core.IsConflict},
		{name: "success", nu: valid(func(nu *user.NewUser) {})},
		{name: "success without full name", nu: valid(func(nu *user.NewUser) { nu.Email, nu.FullName, nu.Role = "Other@Test.cd", "", "TEACHER" })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Register(ctx, tt.nu)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error type: %v", err)
				if tt.wantField != "" {
					vErr, ok := err.(*core.ValidationError)
					require.True(t, ok)
					require.NotEmpty(t, vErr.Fields)
					assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
				}
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, usr.ID)
			assert.Equal(t, strings.ToLower(strings.TrimSpace(tt.nu.Email)), usr.Email)
			assert.Equal(t, tt.nu.FullName, usr.FullName)
			assert.NotEqual(t, tt.nu.Password, string(usr.PasswordHash))
			assert.NoError(t, usr.CheckPassword(tt.nu.Password))
		})
	}
}

func TestService_Register_Authenticate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	usr, err := svc.Register(ctx, user.NewUser{
		Email:           "t@x.com",
		Password:        "pw1",
		PasswordConfirm: "pw1",
		Role:            "teacher",
	})
	require.NoError(t, err)
	assert.True(t, usr.IsTeacher())

	got, err := svc.Authenticate(ctx, user.LoginRequest{Email: "t@x.com", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
	assert.Equal(t, user.RoleTeacher, got.Role)

	_, err = svc.Register(ctx, user.NewUser{
		Email:           "t@x.com",
		Password:        "pw2",
		PasswordConfirm: "pw2",
		Role:            "student",
	})
	assert.Equal(t, user.ErrEmailExists, err)
}

func TestService_Authenticate(t *testing.T) {
	svc, usrRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "s@x.com", "pw2", user.RoleStudent)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "unknown email", email: "lol@x.com", pwd: "pw2", wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", email: "s@x.com", pwd: "pw1", wantErr: user.ErrInvalidCredentials},
		{name: "empty password", email: "s@x.com", pwd: "", wantErr: user.ErrInvalidCredentials},
		{name: "empty email", email: "", pwd: "pw2", wantErr: user.ErrInvalidCredentials},
		{name: "password case matters", email: "s@x.com", pwd: "PW2", wantErr: user.ErrInvalidCredentials},
		{name: "success", email: "s@x.com", pwd: "pw2"},
		{name: "success, email case ignored", email: " S@X.com", pwd: "pw2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(ctx, user.LoginRequest{Email: tt.email, Password: tt.pwd})
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.True(t, core.IsAuth(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, usr.ID, got.ID)
		})
	}
}

func TestService_UpdateSettings(t *testing.T) {
	svc, usrRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "s@x.com", "pw", user.RoleStudent, "Old Name")

	tests := []struct {
		name     string
		id       int
		fullName string
		wantErr  func(err error) bool
	}{
		{name: "blank", id: usr.ID, fullName: "   ", wantErr: core.IsValidation},
		{name: "too long", id: usr.ID, fullName: strings.Repeat("a", 101), wantErr: core.IsValidation},
		{name: "not found", id: usr.ID + 100, fullName: "New Name", wantErr: core.IsNotFound},
		{name: "success", id: usr.ID, fullName: " New Name "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.UpdateSettings(ctx, tt.id, user.UpdateSettings{FullName: tt.fullName})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error type: %v", err)

				stored, err := usrRepo.GetUserByID(ctx, usr.ID)
				require.NoError(t, err)
				assert.Equal(t, "Old Name", stored.FullName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "New Name", got.FullName)
			assert.Equal(t, usr.Email, got.Email)
			assert.Equal(t, usr.PasswordHash, got.PasswordHash)
		})
	}
}

func TestService_ResetPassword(t *testing.T) {
	svc, usrRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "s@x.com", "old", user.RoleStudent)

	_, err := svc.ResetPassword(ctx, "lol@x.com", "new")
	assert.Equal(t, user.ErrNotFound, err)

	_, err = svc.ResetPassword(ctx, usr.Email, "")
	assert.True(t, core.IsValidation(err))

	_, err = svc.ResetPassword(ctx, "S@X.COM", "new")
	require.NoError(t, err)

	_, err = svc.ResetPassword(ctx, usr.Email, strings.Repeat("p", 73))
	assert.True(t, core.IsValidation(err))

	_, err = svc.Authenticate(ctx, user.LoginRequest{Email: usr.Email, Password: "old"})
	assert.Equal(t, user.ErrInvalidCredentials, err)
	_, err = svc.Authenticate(ctx, user.LoginRequest{Email: usr.Email, Password: "new"})
	assert.NoError(t, err)
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   user.Role
		wantOk bool
	}{
		{in: "student", want: user.RoleStudent, wantOk: true},
		{in: " Teacher ", want: user.RoleTeacher, wantOk: true},
		{in: "admin"},
		{in: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := user.ParseRole(tt.in)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
