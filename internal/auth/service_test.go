package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/agilaxstudios/agilax-backend/pkg/auth"
	"github.com/agilaxstudios/agilax-backend/pkg/config"
	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
	"github.com/agilaxstudios/agilax-backend/pkg/security"
)

func TestServiceLoginIssuesTokenPair(t *testing.T) {
	password := "buyer-secret"
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Buyer One",
		Email:        "buyer@example.com",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleUser,
	}
	cfg := testJWTConfig()

	svc, repo := buildTestService(t, user, cfg)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  Buyer@Example.com ",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s in claims, got %s", user.ID, claims.UserID)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be set")
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}
	if resp.LandingPath != "/" {
		t.Fatalf("expected buyer landing path /, got %s", resp.LandingPath)
	}
	if repo.lastLogin == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginWrongPasswordUnauthorized(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "buyer@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
		Role:         enums.UserRoleUser,
	}

	svc, _ := buildTestService(t, user, testJWTConfig())

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})
	if err == nil {
		t.Fatalf("expected unauthorized for wrong password")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestLandingPathRedirectWins(t *testing.T) {
	cases := []struct {
		name       string
		redirectTo string
		role       enums.UserRole
		want       string
	}{
		{"remembered destination wins", "/checkout", enums.UserRoleAdmin, "/checkout"},
		{"external url ignored", "https://evil.example.com", enums.UserRoleAdmin, "/admin"},
		{"admin default", "", enums.UserRoleAdmin, "/admin"},
		{"affiliate default", "  ", enums.UserRoleAffiliate, "/affiliate"},
		{"buyer default", "", enums.UserRoleUser, "/"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := landingPath(tc.redirectTo, tc.role); got != tc.want {
				t.Fatalf("landingPath(%q, %s) = %q, want %q", tc.redirectTo, tc.role, got, tc.want)
			}
		})
	}
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "buyer@example.com",
		PasswordHash: mustHashPassword(t, "pw"),
		Role:         enums.UserRoleUser,
	}
	svc, _ := buildTestService(t, user, testJWTConfig())

	if err := svc.Logout(context.Background(), "access-id"); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if err := svc.Logout(context.Background(), "  "); err == nil {
		t.Fatalf("expected unauthorized for blank access id")
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "agilax",
		ExpirationMinutes: 30,
	}
}

func buildTestService(t *testing.T, user *models.User, jwtCfg config.JWTConfig) (Service, *stubUserRepo) {
	t.Helper()
	repo := &stubUserRepo{user: user}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: &stubSessionManager{refreshToken: "refresh-token"},
		JWTConfig:      jwtCfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user      *models.User
	lastLogin *time.Time
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin = &at
	return nil
}

type stubSessionManager struct {
	refreshToken string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	return s.refreshToken, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "rotated-access-id", s.refreshToken, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}
