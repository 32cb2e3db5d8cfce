package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/siga-api/internal/models"
	"github.com/noah-isme/siga-api/internal/service"
)

type fakeAuthRepo struct {
	user          *models.User
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []*models.AuditLog
}

func (f *fakeAuthRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (f *fakeAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if f.refreshTokens == nil {
		f.refreshTokens = make(map[string]*models.RefreshToken)
	}
	f.refreshTokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := f.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	return nil
}

func (f *fakeAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func newAuthTestHandler(repo *fakeAuthRepo) *AuthHandler {
	svc := service.NewAuthService(repo, nil, nil, service.AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: time.Hour * 24,
	})
	return NewAuthHandler(svc)
}

func studentAccount(password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return &models.User{
		ID:           "u1",
		Email:        "maria@example.com",
		FirstName:    "Maria",
		LastName:     "Perez",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Active:       true,
	}
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	return rec
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeAuthRepo{user: studentAccount("password")}
	handler := newAuthTestHandler(repo)

	rec := postJSON(t, handler.Login, "/auth/login",
		`{"identifier":"maria@example.com","password":"password","role":"STUDENT"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "Maria Perez", envelope.Data.User.FullName)
}

func TestAuthHandlerLoginRoleMismatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeAuthRepo{user: studentAccount("password")}
	handler := newAuthTestHandler(repo)

	rec := postJSON(t, handler.Login, "/auth/login",
		`{"identifier":"maria@example.com","password":"password","role":"DIRECTOR"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "ROLE_MISMATCH")
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionRoleMismatch, repo.auditLogs[0].Action)
}

func TestAuthHandlerLoginMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthTestHandler(&fakeAuthRepo{})

	rec := postJSON(t, handler.Login, "/auth/login", `{"identifier":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerRefresh(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeAuthRepo{
		user: studentAccount("password"),
		refreshTokens: map[string]*models.RefreshToken{
			"token": {ID: "rt1", UserID: "u1", Token: "token", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	handler := newAuthTestHandler(repo)

	rec := postJSON(t, handler.Refresh, "/auth/refresh", `{"refresh_token":"token"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.RefreshTokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEqual(t, "token", envelope.Data.RefreshToken)
}

func TestAuthHandlerRefreshUnknownToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthTestHandler(&fakeAuthRepo{})

	rec := postJSON(t, handler.Refresh, "/auth/refresh", `{"refresh_token":"ghost"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
