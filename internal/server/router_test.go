package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"accounts-be/internal/controllers"
	"accounts-be/internal/jwt"
	"accounts-be/internal/repository"
	"accounts-be/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type outbox struct {
	mu     sync.Mutex
	bodies []string
}

func (o *outbox) Send(_ context.Context, _, _, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bodies = append(o.bodies, body)
	return nil
}

func (o *outbox) last() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.bodies) == 0 {
		return ""
	}
	return o.bodies[len(o.bodies)-1]
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     []string        `json:"errors"`
}

type testServer struct {
	router *gin.Engine
	mail   *outbox
}

func newTestServer() *testServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewMemoryUserRepository()
	tokens := jwt.NewJWTService("access-secret", "refresh-secret", 7*24*time.Hour, 15*time.Minute)
	profiles := service.NewProfileCache(nil, 0, logger)
	mail := &outbox{}

	users := controllers.NewUserController(
		service.NewAccountService(repo, tokens, profiles, logger),
		service.NewRecoveryService(repo, mail, 10*time.Minute, logger),
		true,
	)
	admin := controllers.NewAdminController(service.NewAdminService(repo, profiles, logger))

	return &testServer{
		router: NewRouter(Deps{Users: users, Admin: admin, Verifier: tokens, Logger: logger}),
		mail:   mail,
	}
}

type call struct {
	method, path string
	body         any
	bearer       string
	cookies      []*http.Cookie
}

func (s *testServer) do(t *testing.T, c call) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body io.Reader
	switch b := c.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Content-Type", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

type session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	Cookies      []*http.Cookie
}

func (s *testServer) register(t *testing.T, name, email, password, role string) string {
	t.Helper()
	w, env := s.do(t, call{method: http.MethodPost, path: "/api/v1/user/create", body: gin.H{
		"name": name, "email": email, "password": password, "role": role,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	return user.ID
}

func (s *testServer) login(t *testing.T, email, password, role string) session {
	t.Helper()
	w, env := s.do(t, call{method: http.MethodPost, path: "/api/v1/user/login", body: gin.H{
		"email": email, "password": password, "role": role,
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return session{
		ID:           data.User.ID,
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
		Cookies:      w.Result().Cookies(),
	}
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	w, _ := s.do(t, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer()
	id := s.register(t, "Asha", "asha@example.com", "Valid123", "")

	w, env := s.do(t, call{method: http.MethodPost, path: "/api/v1/user/create", body: gin.H{
		"name": "Asha", "email": "asha@example.com", "password": "Valid123",
	}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "User already exists", env.Message)

	sess := s.login(t, "asha@example.com", "Valid123", "user")
	assert.Equal(t, id, sess.ID)

	access := cookieByName(sess.Cookies, "accessToken")
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, sess.AccessToken, access.Value)

	refresh := cookieByName(sess.Cookies, "refreshToken")
	require.NotNil(t, refresh)
	assert.True(t, refresh.HttpOnly)

	role := cookieByName(sess.Cookies, "role")
	require.NotNil(t, role)
	assert.False(t, role.HttpOnly)
	assert.Equal(t, "user", role.Value)
}

func TestRegister_ResponseHasNoSecrets(t *testing.T) {
	s := newTestServer()
	w, _ := s.do(t, call{method: http.MethodPost, path: "/api/v1/user/create", body: gin.H{
		"name": "Asha", "email": "asha@example.com", "password": "Valid123",
	}})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "otp")
	assert.NotContains(t, w.Body.String(), "refreshToken")
}

func TestRegister_BadRequests(t *testing.T) {
	s := newTestServer()

	w, env := s.do(t, call{method: http.MethodPost, path: "/api/v1/user/create", body: "{not json"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", env.Message)

	w, env = s.do(t, call{method: http.MethodPost, path: "/api/v1/user/create", body: gin.H{"name": "A", "email": "a@x.io"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "All fields are required", env.Message)

	w, env = s.do(t, call{method: http.MethodPost, path: "/api/v1/user/create", body: gin.H{
		"name": "A", "email": "a@x.io", "password": "Valid123", "role": "owner",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid user type provided.", env.Message)
}

func TestLogin_WrongRoleLooksLikeWrongPassword(t *testing.T) {
	s := newTestServer()
	s.register(t, "Asha", "asha@example.com", "Valid123", "")

	w1, env1 := s.do(t, call{method: http.MethodPost, path: "/api/v1/user/login", body: gin.H{
		"email": "asha@example.com", "password": "Valid123", "role": "admin",
	}})
	w2, env2 := s.do(t, call{method: http.MethodPost, path: "/api/v1/user/login", body: gin.H{
		"email": "asha@example.com", "password": "Wrong123", "role": "user",
	}})
	assert.Equal(t, http.StatusUnauthorized, w1.Code)
	assert.Equal(t, w1.Code, w2.Code)
	assert.Equal(t, env1.Message, env2.Message)
	assert.Empty(t, w1.Result().Cookies())
}

func TestProfileLifecycle(t *testing.T) {
	s := newTestServer()
	s.register(t, "Asha", "asha@example.com", "Valid123", "")
	sess := s.login(t, "asha@example.com", "Valid123", "user")

	w, env := s.do(t, call{method: http.MethodGet, path: "/api/v1/user/getUserProfile", cookies: sess.Cookies})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"email":"asha@example.com"`)

	w, env = s.do(t, call{method: http.MethodPatch, path: "/api/v1/user/update", bearer: sess.AccessToken, body: gin.H{"name": "Asha R"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"name":"Asha R"`)

	w, env = s.do(t, call{method: http.MethodPatch, path: "/api/v1/user/update", bearer: sess.AccessToken, body: gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name or profileImage is required", env.Message)

	w, _ = s.do(t, call{method: http.MethodPost, path: "/api/v1/user/logout", bearer: sess.AccessToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cleared := cookieByName(w.Result().Cookies(), "accessToken")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	s := newTestServer()

	w, env := s.do(t, call{method: http.MethodGet, path: "/api/v1/user/getUserProfile"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication token missing", env.Message)

	w, env = s.do(t, call{method: http.MethodGet, path: "/api/v1/user/getUserProfile", bearer: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", env.Message)
}

func TestRefreshToken(t *testing.T) {
	s := newTestServer()
	s.register(t, "Asha", "asha@example.com", "Valid123", "")
	sess := s.login(t, "asha@example.com", "Valid123", "user")

	w, env := s.do(t, call{method: http.MethodPost, path: "/api/v1/user/refresh-token", cookies: []*http.Cookie{
		cookieByName(sess.Cookies, "refreshToken"),
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.NotNil(t, cookieByName(w.Result().Cookies(), "accessToken"))

	w, _ = s.do(t, call{method: http.MethodPost, path: "/api/v1/user/refresh-token", body: gin.H{"refreshToken": sess.RefreshToken}})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.do(t, call{method: http.MethodPost, path: "/api/v1/user/refresh-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Refresh token missing", env.Message)

	w, _ = s.do(t, call{method: http.MethodPost, path: "/api/v1/user/refresh-token", body: gin.H{"refreshToken": sess.AccessToken}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

var otpPattern = regexp.MustCompile(`is ([0-9a-f]{6})\.`)

func TestPasswordRecovery(t *testing.T) {
	s := newTestServer()
	s.register(t, "Asha", "asha@example.com", "Valid123", "")

	w, env := s.do(t, call{method: http.MethodPost, path: "/api/v1/user/forgot-password", body: gin.H{"email": "asha@example.com"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "OTP sent to your email", env.Message)

	m := otpPattern.FindStringSubmatch(s.mail.last())
	require.Len(t, m, 2, s.mail.last())
	code := m[1]

	verify := call{method: http.MethodPost, path: "/api/v1/user/verify-otp", body: gin.H{"email": "asha@example.com", "otp": code}}
	w, _ = s.do(t, verify)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.do(t, verify)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid OTP", env.Message)

	w, env = s.do(t, call{method: http.MethodPost, path: "/api/v1/user/reset-password", body: gin.H{"email": "asha@example.com", "password": "weak"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Password does not meet requirements", env.Message)
	assert.NotEmpty(t, env.Errors)

	w, _ = s.do(t, call{method: http.MethodPost, path: "/api/v1/user/reset-password", body: gin.H{"email": "asha@example.com", "password": "Brandnew9"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	s.login(t, "asha@example.com", "Brandnew9", "user")

	w, _ = s.do(t, call{method: http.MethodPost, path: "/api/v1/user/forgot-password", body: gin.H{"email": "ghost@example.com"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer()
	s.register(t, "Root", "root@example.com", "Valid123", "admin")
	userID := s.register(t, "Asha", "asha@example.com", "Valid123", "")

	admin := s.login(t, "root@example.com", "Valid123", "admin")
	user := s.login(t, "asha@example.com", "Valid123", "user")

	w, env := s.do(t, call{method: http.MethodGet, path: "/api/v1/admin/users", bearer: user.AccessToken})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, env.Success)

	w, env = s.do(t, call{method: http.MethodGet, path: "/api/v1/admin/users", bearer: admin.AccessToken})
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 2)

	w, env = s.do(t, call{method: http.MethodPatch, path: "/api/v1/admin/reset-password/" + userID, bearer: admin.AccessToken, body: gin.H{"newPassword": "changed"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Password updated successfully", env.Message)
	s.login(t, "asha@example.com", "changed", "user")

	w, _ = s.do(t, call{method: http.MethodPatch, path: "/api/v1/admin/reset-password/" + userID, bearer: admin.AccessToken, body: gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, call{method: http.MethodDelete, path: "/api/v1/admin/delete/" + userID, bearer: admin.AccessToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "User soft-deleted successfully.", env.Message)

	w, env = s.do(t, call{method: http.MethodGet, path: "/api/v1/admin/users", bearer: admin.AccessToken})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 1)

	w, env = s.do(t, call{method: http.MethodDelete, path: "/api/v1/admin/delete/unknown", bearer: admin.AccessToken})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found.", env.Message)
}

func TestLogout_AdminRoleIsForbidden(t *testing.T) {
	s := newTestServer()
	s.register(t, "Root", "root@example.com", "Valid123", "admin")
	admin := s.login(t, "root@example.com", "Valid123", "admin")

	w, _ := s.do(t, call{method: http.MethodPost, path: "/api/v1/user/logout", bearer: admin.AccessToken})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
