package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/internal/users"
	"github.com/agilaxstudios/agilax-backend/pkg/config"
	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterUserRepo struct {
	data    map[string]*models.User
	created *models.User
}

func newStubRegisterUserRepo() *stubRegisterUserRepo {
	return &stubRegisterUserRepo{data: map[string]*models.User{}}
}

func (s *stubRegisterUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New(),
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: dto.PasswordHash,
		Role:         dto.Role,
		UPIID:        dto.UPIID,
		ReferralCode: dto.ReferralCode,
	}
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

func newRegisterTestService(t *testing.T, repo *stubRegisterUserRepo) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		DB: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return repo
		},
		PasswordConfig: config.PasswordConfig{},
		AuthConfig: config.AuthConfig{
			AdminEmail:         "agilaxstudios@gmail.com",
			ReferralCodePrefix: "AGX",
		},
	})
	if err != nil {
		t.Fatalf("build register service: %v", err)
	}
	return svc
}

func TestRegisterBuyerDefaults(t *testing.T) {
	repo := newStubRegisterUserRepo()
	svc := newRegisterTestService(t, repo)

	dto, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Buyer One",
		Email:    " Buyer@Example.com ",
		Password: "long-enough-pw",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if dto.Role != enums.UserRoleUser {
		t.Fatalf("expected user role, got %s", dto.Role)
	}
	if dto.Email != "buyer@example.com" {
		t.Fatalf("expected lowered trimmed email, got %s", dto.Email)
	}
	if repo.created.ReferralCode != nil {
		t.Fatalf("buyers must not get a referral code")
	}
	if repo.created.UPIID != "" {
		t.Fatalf("buyers must not carry a upi id")
	}
	if repo.created.PasswordHash == "long-enough-pw" {
		t.Fatalf("password must be stored hashed")
	}
}

func TestRegisterAdminEmailAlwaysAdmin(t *testing.T) {
	repo := newStubRegisterUserRepo()
	svc := newRegisterTestService(t, repo)

	dto, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Owner",
		Email:    "AgilaxStudios@Gmail.com",
		Password: "long-enough-pw",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if dto.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role for configured email, got %s", dto.Role)
	}
}

func TestRegisterAffiliateGetsReferralCode(t *testing.T) {
	repo := newStubRegisterUserRepo()
	svc := newRegisterTestService(t, repo)

	dto, err := svc.Register(context.Background(), RegisterRequest{
		Name:        "Partner",
		Email:       "partner@example.com",
		Password:    "long-enough-pw",
		IsAffiliate: true,
		UPIID:       "partner@upi",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if dto.Role != enums.UserRoleAffiliate {
		t.Fatalf("expected affiliate role, got %s", dto.Role)
	}
	if dto.ReferralCode == nil {
		t.Fatalf("affiliates must get a referral code")
	}
	code := *dto.ReferralCode
	if !strings.HasPrefix(code, "AGX") || len(code) != len("AGX")+4 {
		t.Fatalf("expected AGX + 4 digits, got %q", code)
	}
	for _, r := range code[len("AGX"):] {
		if r < '0' || r > '9' {
			t.Fatalf("expected digits after prefix, got %q", code)
		}
	}
}

func TestRegisterAffiliateRequiresUPI(t *testing.T) {
	repo := newStubRegisterUserRepo()
	svc := newRegisterTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:        "Partner",
		Email:       "partner@example.com",
		Password:    "long-enough-pw",
		IsAffiliate: true,
	})
	if err == nil {
		t.Fatalf("expected validation error without upi_id")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.created != nil {
		t.Fatalf("no user row may be written when validation fails")
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	repo := newStubRegisterUserRepo()
	repo.data["taken@example.com"] = &models.User{ID: uuid.New(), Email: "taken@example.com"}
	svc := newRegisterTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Dup",
		Email:    "taken@example.com",
		Password: "long-enough-pw",
	})
	if err == nil {
		t.Fatalf("expected conflict for duplicate email")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
