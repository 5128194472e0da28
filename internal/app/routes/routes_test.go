package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/uniadmit/admission/internal/app/auth"
	"github.com/uniadmit/admission/internal/app/controllers"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/repositories"
	"github.com/uniadmit/admission/internal/app/services"
	"github.com/uniadmit/admission/internal/middleware"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/auth"
	"github.com/uniadmit/admission/internal/pkg/document"
	"github.com/uniadmit/admission/internal/pkg/offerletter"
)

const testBodyLimit = 8 << 10

// stubUsers serves the account lookups the auth middleware makes.
type stubUsers struct {
	repositories.UserStore
	byID map[int64]*models.User
}

func (s *stubUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, apperrors.NewResourceNotFoundError("User not found")
}

// stubApps reports no open application for anyone.
type stubApps struct {
	repositories.ApplicationStore
}

func (stubApps) HasApplicationWithStatus(context.Context, int64, models.ApplicationStatus) (bool, error) {
	return false, nil
}

type routerFixture struct {
	router *gin.Engine
	jwt    *auth.JWTService
	users  *stubUsers
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	nop := zerolog.Nop()

	users := &stubUsers{byID: map[int64]*models.User{
		1: {ID: 1, Name: "Asha Rao", Email: "asha@example.com", Active: true, SessionKey: "sk-student", Roles: []models.RoleName{models.RoleStudent}},
		2: {ID: 2, Name: "Admin", Email: "admin@example.com", Active: true, SessionKey: "sk-admin", Roles: []models.RoleName{models.RoleAdmin}},
		3: {ID: 3, Name: "Idle Student", Email: "idle@example.com", Active: false, SessionKey: "sk-idle", Roles: []models.RoleName{models.RoleStudent}},
	}}
	apps := stubApps{}
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "uniadmit-test"})
	hasher := auth.BcryptHasher{Cost: 4}

	docs := services.NewDocumentService(apps, nop)
	ctl := Controllers{
		Auth: controllers.NewAuthController(services.NewAuthService(users, apps, jwtService, hasher, nop), nop),
		Application: controllers.NewApplicationController(
			services.NewApplicationService(apps, users, document.NewCodec(document.DefaultLimits()), nop),
			docs,
			services.NewOfferLetterService(apps, nil, offerletter.DefaultInstitution, nop),
			nop,
		),
		AdminApplication: controllers.NewAdminApplicationController(
			services.NewAdminApplicationService(apps, nop),
			services.NewReviewService(apps, nil, nil, services.ReviewOptions{}, nop),
			docs,
			nop,
		),
		AdminUser: controllers.NewAdminUserController(services.NewUserService(users, hasher, nop), nop),
		Stats:     controllers.NewStatsController(services.NewStatsService(nil, users, nil, nop), nop),
	}

	router := gin.New()
	router.Use(middleware.BodyLimit(testBodyLimit))
	SetupRouter(router, ctl, middleware.NewAuthMiddleware(jwtService, appauth.NewAuthorizationService(users)))

	return &routerFixture{router: router, jwt: jwtService, users: users}
}

func (f *routerFixture) token(t *testing.T, userID int64) string {
	t.Helper()
	u := f.users.byID[userID]
	token, _, err := f.jwt.GenerateToken(auth.TokenSubject{UserID: u.ID, Email: u.Email, SessionKey: u.SessionKey})
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func submitBody(tenth string) string {
	return `{
		"course_applied": "B.Sc Computer Science",
		"tenth_percentage": "` + tenth + `",
		"tenth_board": "CBSE",
		"twelfth_percentage": "88",
		"twelfth_board": "CBSE",
		"previous_qualification": "Higher Secondary",
		"previous_institution": "City Public School",
		"graduation_year": "2024",
		"address": "12 Lake Road",
		"country": "India",
		"state": "Karnataka",
		"district": "Bengaluru",
		"pincode": "560001"
	}`
}

func TestPublicRoutes(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodGet, "/ping", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = f.do(http.MethodGet, "/api/v1/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "healthy", body["database"])
}

func TestAuthGate(t *testing.T) {
	f := newRouterFixture(t)
	revoked, _, err := f.jwt.GenerateToken(auth.TokenSubject{UserID: 1, Email: "asha@example.com", SessionKey: "stale"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		method  string
		path    string
		token   string
		status  int
		message string
	}{
		{"missing token", http.MethodGet, "/api/v1/applications/status", "", http.StatusUnauthorized, "Authentication required"},
		{"garbage token", http.MethodGet, "/api/v1/applications/status", "not-a-jwt", http.StatusUnauthorized, "Invalid token"},
		{"revoked session", http.MethodGet, "/api/v1/auth/verify-token", revoked, http.StatusUnauthorized, "Invalid token"},
		{"deactivated account", http.MethodGet, "/api/v1/auth/profile", f.token(t, 3), http.StatusUnauthorized, "Account is deactivated"},
		{"student on admin route", http.MethodGet, "/api/v1/admin/users", f.token(t, 1), http.StatusForbidden, "Admin access required"},
		{"admin on student route", http.MethodGet, "/api/v1/applications/status", f.token(t, 2), http.StatusForbidden, "Student access required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(tt.method, tt.path, tt.token, "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["error"])
			assert.NotEmpty(t, body["timestamp"])
		})
	}
}

func TestTokenFromQuery(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodGet, "/api/v1/auth/verify-token?token="+f.token(t, 1), "", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSubmitValidation(t *testing.T) {
	f := newRouterFixture(t)
	student := f.token(t, 1)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"percentage out of range", submitBody("150"), "Percentages must be between 0 and 100"},
		{"percentage not a number", submitBody("ninety"), "Invalid numeric values for percentage or year"},
		{"documents missing", submitBody("91.4"), "Both degree certificate and ID proof are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/v1/applications/submit", student, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["error"])
		})
	}

	t.Run("missing fields are listed", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/applications/submit", student, `{"course_applied":"B.Sc"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body["missing_fields"], "tenth_percentage")
		assert.NotContains(t, body["missing_fields"], "course_applied")
	})
}

func TestBodyLimit(t *testing.T) {
	f := newRouterFixture(t)

	big := `{"course_applied":"` + strings.Repeat("x", testBodyLimit) + `"}`
	w := f.do(http.MethodPost, "/api/v1/applications/submit", f.token(t, 1), big)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Request too large", decodeBody(t, w)["error"])
}

func TestBadPathID(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodGet, "/api/v1/admin/users/abc", f.token(t, 2), "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid user ID", decodeBody(t, w)["error"])
}
