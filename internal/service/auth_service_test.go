package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/savanapaaa/BE-form-pengajuan/internal/models"
	appErrors "github.com/savanapaaa/BE-form-pengajuan/pkg/errors"
)

type authRepoStub struct {
	users  map[string]*models.User
	tokens map[string]*models.RefreshToken
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		users:  make(map[string]*models.User),
		tokens: make(map[string]*models.RefreshToken),
	}
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if user, ok := s.users[id]; ok {
		user.LastLogin = &ts
	}
	return nil
}

func (s *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.tokens[token.Token] = token
	return nil
}

func (s *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if rt, ok := s.tokens[token]; ok {
		copy := *rt
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, rt := range s.tokens {
		if rt.ID == id {
			rt.Revoked = true
			rt.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (s *authRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	for _, rt := range s.tokens {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			rt.RevokedAt = &now
		}
	}
	return nil
}

func newAuthTestService(t *testing.T, repo *authRepoStub) *AuthService {
	t.Helper()
	return NewAuthService(repo, &auditStub{}, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "test",
	})
}

func seedUser(repo *authRepoStub, t *testing.T, id, email, password string, role models.UserRole, active bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo.users[id] = &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test User",
		Role:         role,
		Active:       active,
	}
}

func TestAuthLoginIssuesTokens(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(repo, t, "user-1", "user@example.com", "rahasia1", models.RoleForm, true)
	svc := newAuthTestService(t, repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "rahasia1"})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.Equal(t, "user-1", res.User.ID)
	require.Len(t, repo.tokens, 1)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleForm, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(repo, t, "user-1", "user@example.com", "rahasia1", models.RoleForm, true)
	svc := newAuthTestService(t, repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "salah"})
	requireAppError(t, err, appErrors.ErrInvalidCredentials.Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc := newAuthTestService(t, newAuthRepoStub())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	requireAppError(t, err, appErrors.ErrInvalidCredentials.Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(repo, t, "user-1", "user@example.com", "rahasia1", models.RoleForm, false)
	svc := newAuthTestService(t, repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "rahasia1"})
	requireAppError(t, err, appErrors.ErrInactiveAccount.Code)
}

func TestAuthRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(repo, t, "user-1", "user@example.com", "rahasia1", models.RoleForm, true)
	svc := newAuthTestService(t, repo)
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "user@example.com", Password: "rahasia1"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.True(t, repo.tokens[login.RefreshToken].Revoked)

	// The old token cannot be used again.
	_, err = svc.Refresh(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	requireAppError(t, err, appErrors.ErrUnauthorized.Code)
}

func TestAuthLogoutRevokesAllTokens(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(repo, t, "user-1", "user@example.com", "rahasia1", models.RoleForm, true)
	svc := newAuthTestService(t, repo)
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "user@example.com", Password: "rahasia1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, &models.JWTClaims{UserID: "user-1"}))
	require.True(t, repo.tokens[login.RefreshToken].Revoked)
}

func TestAuthValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthTestService(t, newAuthRepoStub())

	_, err := svc.ValidateToken("not-a-jwt")
	requireAppError(t, err, appErrors.ErrUnauthorized.Code)
}
