package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citysafe/citysafe-backend/internal/http/middleware"
	"github.com/citysafe/citysafe-backend/internal/models"
	"github.com/citysafe/citysafe-backend/internal/repository"
	"github.com/citysafe/citysafe-backend/internal/service"
)

// memUserRepo реализует service.AuthRepository в памяти.
type memUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memUserRepo) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func newAuthRouter(t *testing.T, registrationLimit int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := service.NewTokenManager("test-secret-key-at-least-32-bytes!!", 30*time.Minute)
	authService := service.NewAuthService(&memUserRepo{users: make(map[uuid.UUID]*models.User)}, tokens)
	authHandler := NewAuthHandler(authService)

	r := gin.New()
	auth := r.Group("/auth")
	{
		auth.POST("/register", middleware.RateLimitMiddleware(middleware.NewRegistrationLimiter(registrationLimit, time.Minute)), authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.AuthMiddleware(tokens), authHandler.Me)
	}
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthFlow_RegisterLoginMe(t *testing.T) {
	r := newAuthRouter(t, 100)

	w := postJSON(t, r, "/auth/register", gin.H{
		"email":    "flow@example.com",
		"password": "password123",
		"fullName": "Flow User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "flow@example.com", registered.User.Email)

	// Хэш пароля в ответ не попадает.
	assert.NotContains(t, w.Body.String(), "password_hash")

	w = postJSON(t, r, "/auth/login", gin.H{"email": "flow@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)

	var logged struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logged))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+logged.Token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), registered.User.ID)
}

func TestAuthMe_UniformUnauthorized(t *testing.T) {
	r := newAuthRouter(t, 100)

	cases := map[string]string{
		"без заголовка":  "",
		"не Bearer":      "Basic abc",
		"мусорный токен": "Bearer not.a.token",
		"пустой Bearer":  "Bearer ",
	}

	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		assert.Contains(t, rec.Body.String(), "could not validate credentials", name)
	}
}

func TestAuthLogin_BadCredentials(t *testing.T) {
	r := newAuthRouter(t, 100)

	w := postJSON(t, r, "/auth/register", gin.H{
		"email":    "victim@example.com",
		"password": "password123",
		"fullName": "Victim",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, r, "/auth/login", gin.H{"email": "victim@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "incorrect email or password")

	w = postJSON(t, r, "/auth/login", gin.H{"email": "nobody@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "incorrect email or password")
}

func TestAuthRegister_RateLimited(t *testing.T) {
	r := newAuthRouter(t, 2)

	payload := gin.H{"email": "bad", "password": "x", "fullName": ""}
	for i := 0; i < 2; i++ {
		w := postJSON(t, r, "/auth/register", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := postJSON(t, r, "/auth/register", payload)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "too many attempts")
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
}
