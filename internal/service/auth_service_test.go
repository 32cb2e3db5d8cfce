package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/siga-api/internal/models"
	appErrors "github.com/noah-isme/siga-api/pkg/errors"
)

type mockAuthRepo struct {
	user             *models.User
	findErr          error
	refreshTokens    map[string]*models.RefreshToken
	auditLogs        []*models.AuditLog
	lastLoginUpdated bool
	revokedAllFor    []string
}

func (m *mockAuthRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.user != nil && m.user.ID == id {
		m.user.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAllFor = append(m.revokedAllFor, userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: time.Hour * 24,
	})
}

func activeStudent(password string) *models.User {
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

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{user: activeStudent("password")}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "maria@example.com",
		Password:   "password",
		Role:       "student",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleStudent, res.User.Role)
	assert.Equal(t, "Maria Perez", res.User.FullName)
	assert.True(t, repo.lastLoginUpdated)
	assert.NotEmpty(t, repo.refreshTokens)
}

func TestAuthServiceLoginRoleMismatch(t *testing.T) {
	repo := &mockAuthRepo{user: activeStudent("password")}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "maria@example.com",
		Password:   "password",
		Role:       "PROFESSOR",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrRoleMismatch.Code, appErr.Code)

	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionRoleMismatch, repo.auditLogs[0].Action)
	assert.Contains(t, string(repo.auditLogs[0].NewValues), `"claimed_role":"PROFESSOR"`)
	assert.Contains(t, string(repo.auditLogs[0].NewValues), `"actual_role":"STUDENT"`)
}

func TestAuthServiceLoginUnknownRole(t *testing.T) {
	repo := &mockAuthRepo{user: activeStudent("password")}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "maria@example.com",
		Password:   "password",
		Role:       "WIZARD",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{user: activeStudent("password")}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "maria@example.com",
		Password:   "wrong",
		Role:       "STUDENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownIdentifier(t *testing.T) {
	repo := &mockAuthRepo{findErr: sql.ErrNoRows}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "ghost",
		Password:   "password",
		Role:       "STUDENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	user := activeStudent("password")
	user.Active = false
	repo := &mockAuthRepo{user: user}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "maria@example.com",
		Password:   "password",
		Role:       "STUDENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshTokenRotation(t *testing.T) {
	repo := &mockAuthRepo{user: activeStudent("password"), refreshTokens: map[string]*models.RefreshToken{}}
	token := &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	repo.refreshTokens[token.Token] = token
	svc := newTestAuthService(repo)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["token"].Revoked)
}

func TestAuthServiceRefreshTokenRevoked(t *testing.T) {
	repo := &mockAuthRepo{user: activeStudent("password"), refreshTokens: map[string]*models.RefreshToken{}}
	repo.refreshTokens["token"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "token", ExpiresAt: time.Now().Add(time.Hour), Revoked: true}
	svc := newTestAuthService(repo)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutOtherUsersToken(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{}}
	repo.refreshTokens["token"] = &models.RefreshToken{ID: "rt1", UserID: "u2", Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newTestAuthService(repo)

	err := svc.Logout(context.Background(), "token", "u1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePasswordRevokesSessions(t *testing.T) {
	user := activeStudent("old-password")
	repo := &mockAuthRepo{user: user}
	svc := newTestAuthService(repo)

	oldHash := user.PasswordHash
	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "old-password",
		NewPassword: "new-password",
	})
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, user.PasswordHash)
	assert.Contains(t, repo.revokedAllFor, "u1")
}

func TestValidateToken(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newTestAuthService(repo)
	user := activeStudent("password")
	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}
