package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/uniadmit/admission/internal/app/auth"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/auth"
)

// cheapHasher keeps bcrypt fast in tests.
var cheapHasher = auth.BcryptHasher{Cost: 4}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserStore, *fakeApplicationStore, *auth.JWTService) {
	t.Helper()
	users := newFakeUserStore()
	apps := newFakeApplicationStore(users)
	jwtSvc := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "uniadmit-test"})
	return NewAuthService(users, apps, jwtSvc, cheapHasher, testLogger), users, apps, jwtSvc
}

func registerRequest() *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Name:     "Asha Rao",
		Email:    "Asha@Example.com",
		Phone:    "9876543210",
		Password: "s3cret!",
		Address:  "12 Lake Road",
		Country:  "India",
		State:    "Karnataka",
		District: "Bengaluru",
		Pincode:  "560001",
	}
}

func TestRegister(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", resp.User.Email)
	assert.Equal(t, []string{"student"}, resp.User.Roles)
	assert.True(t, resp.User.Active)

	stored, err := users.GetByID(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", stored.PasswordHash)
	assert.NotEmpty(t, stored.SessionKey)
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		mod      func(r *dto.RegisterRequest)
		sentinel error
		message  string
	}{
		{"missing fields", func(r *dto.RegisterRequest) { r.State, r.Pincode = "", "" }, apperrors.ErrValidationFailed, "Missing required fields"},
		{"bad email", func(r *dto.RegisterRequest) { r.Email = "asha@" }, apperrors.ErrValidationFailed, "Invalid email format"},
		{"bad phone", func(r *dto.RegisterRequest) { r.Phone = "98765" }, apperrors.ErrValidationFailed, "Phone number must be exactly 10 digits"},
		{"bad pincode", func(r *dto.RegisterRequest) { r.Pincode = "56A001" }, apperrors.ErrValidationFailed, "Pincode must contain only digits"},
		{"short password", func(r *dto.RegisterRequest) { r.Password = "abc" }, apperrors.ErrValidationFailed, "Password must be at least 6 characters"},
		{"email taken", func(r *dto.RegisterRequest) { r.Phone = "9000000000" }, apperrors.ErrConflict, "Email already registered"},
		{"phone taken", func(r *dto.RegisterRequest) { r.Email = "new@example.com" }, apperrors.ErrConflict, "Phone number already registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newAuthFixture(t)
			_, err := svc.Register(context.Background(), registerRequest())
			require.NoError(t, err)

			req := registerRequest()
			tt.mod(req)
			_, err = svc.Register(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	svc, users, _, jwtSvc := newAuthFixture(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "s3cret!"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: " ASHA@example.com ", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.Equal(t, 3600, login.ExpiresIn)

	claims, err := jwtSvc.ValidateToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	before, _ := users.GetByID(ctx, reg.User.ID)
	assert.Equal(t, before.SessionKey, claims.SessionKey)

	_, err = svc.Logout(ctx, appauth.Student{ID: reg.User.ID})
	require.NoError(t, err)
	after, _ := users.GetByID(ctx, reg.User.ID)
	assert.NotEqual(t, claims.SessionKey, after.SessionKey)

	resolver := appauth.NewAuthorizationService(users)
	_, _, err = resolver.ResolveCaller(ctx, claims.UserID, claims.SessionKey)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	require.NoError(t, users.SetActive(ctx, reg.User.ID, false))

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "asha@example.com", Password: "s3cret!"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAccountDisabled))
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.Code(err))
}

func TestEditProfile(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	caller := appauth.Student{ID: reg.User.ID}

	tests := []struct {
		name    string
		req     map[string]interface{}
		wantErr string
	}{
		{"protected email", map[string]interface{}{"email": "x@example.com"}, "Field email cannot be modified"},
		{"protected phone", map[string]interface{}{"phone": "9000000000", "name": "Asha"}, "Field phone cannot be modified"},
		{"empty name", map[string]interface{}{"name": "   "}, "Name cannot be empty"},
		{"empty address", map[string]interface{}{"address": ""}, "Address cannot be empty"},
		{"bad pincode", map[string]interface{}{"pincode": "12-34"}, "Pincode must contain only digits"},
		{"only unknown fields", map[string]interface{}{"favourite_colour": "blue"}, "No valid fields provided for update"},
		{"numeric pincode accepted", map[string]interface{}{"pincode": float64(560002)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.EditProfile(ctx, caller, tt.req)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "560002", resp.User.Pincode)
		})
	}
}

func TestRestrictions(t *testing.T) {
	svc, _, apps, _ := newAuthFixture(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	student := appauth.Student{ID: reg.User.ID}

	r, err := svc.Restrictions(ctx, student)
	require.NoError(t, err)
	assert.False(t, r.HasPendingApplication)
	assert.Equal(t, []string{"address", "country", "district", "name", "pincode", "state"}, r.EditableFields)
	assert.Equal(t, []string{"email", "phone"}, r.ProtectedFields)

	apps.seed(models.Application{StudentID: student.ID, Status: models.StatusPending})
	r, err = svc.Restrictions(ctx, student)
	require.NoError(t, err)
	assert.True(t, r.HasPendingApplication)
	assert.Equal(t, []string{"address", "phone"}, r.EditableFields)
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	svc := NewUserService(users, cheapHasher, testLogger)
	admin := users.add(models.User{Name: "Admin", Email: "admin@example.com", Phone: "9000000001", Active: true}, models.RoleAdmin)
	student := users.add(models.User{Name: "Asha Rao", Email: "asha@example.com", Phone: "9000000002", Active: true, SessionKey: "k1"}, models.RoleStudent)

	t.Run("cannot deactivate self", func(t *testing.T) {
		_, err := svc.ToggleStatus(ctx, appauth.Admin{ID: admin.ID}, admin.ID)
		require.Error(t, err)
		assert.Equal(t, "Cannot deactivate your own account", err.Error())
	})

	t.Run("toggle flips status", func(t *testing.T) {
		resp, err := svc.ToggleStatus(ctx, appauth.Admin{ID: admin.ID}, student.ID)
		require.NoError(t, err)
		assert.False(t, resp.User.Active)
		assert.Equal(t, "User deactivated successfully", resp.Message)

		resp, err = svc.ToggleStatus(ctx, appauth.Admin{ID: admin.ID}, student.ID)
		require.NoError(t, err)
		assert.True(t, resp.User.Active)
	})

	t.Run("update checks uniqueness", func(t *testing.T) {
		_, err := svc.Update(ctx, student.ID, map[string]interface{}{"email": "admin@example.com"})
		require.Error(t, err)
		assert.Equal(t, "Email already registered", err.Error())

		resp, err := svc.Update(ctx, student.ID, map[string]interface{}{"email": "asha.rao@example.com", "phone": "9000000002"})
		require.NoError(t, err)
		assert.Equal(t, "asha.rao@example.com", resp.User.Email)
	})

	t.Run("reset password revokes sessions", func(t *testing.T) {
		_, err := svc.ResetPassword(ctx, student.ID, &dto.ResetPasswordRequest{NewPassword: "abc"})
		require.Error(t, err)

		_, err = svc.ResetPassword(ctx, student.ID, &dto.ResetPasswordRequest{NewPassword: "newpass1"})
		require.NoError(t, err)
		stored, _ := users.GetByID(ctx, student.ID)
		assert.True(t, cheapHasher.Compare(stored.PasswordHash, "newpass1"))
		assert.NotEqual(t, "k1", stored.SessionKey)
	})

	t.Run("create admin", func(t *testing.T) {
		req := &dto.CreateAdminRequest{RegisterRequest: *registerRequest()}
		req.Name, req.Email, req.Phone = "Second Admin", "second.admin@example.com", "9000000003"
		resp, err := svc.CreateAdmin(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"admin"}, resp.User.Roles)
	})

	t.Run("list filters and caps page size", func(t *testing.T) {
		list, err := svc.List(ctx, dto.UserListQuery{Role: "admin", PerPage: 500})
		require.NoError(t, err)
		assert.Equal(t, int64(2), list.Pagination.Total)
		assert.Equal(t, 50, list.Pagination.PerPage)

		list, err = svc.List(ctx, dto.UserListQuery{Search: "asha"})
		require.NoError(t, err)
		require.Len(t, list.Users, 1)

		_, err = svc.List(ctx, dto.UserListQuery{Role: "moderator"})
		require.Error(t, err)
	})
}
