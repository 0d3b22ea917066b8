package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
)

type stubProfileRepo struct {
	users   map[uuid.UUID]*models.User
	updates map[string]any
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{users: map[uuid.UUID]*models.User{}}
}

func (s *stubProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProfileRepo) UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	user, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.updates = cols
	if v, ok := cols["name"]; ok {
		user.Name = v.(string)
	}
	if v, ok := cols["upi_id"]; ok {
		user.UPIID = v.(string)
	}
	return nil
}

func strPtr(v string) *string { return &v }

func TestGetOmitsAffiliateFieldsForBuyers(t *testing.T) {
	repo := newStubProfileRepo()
	buyer := &models.User{ID: uuid.New(), Name: "Buyer", Email: "b@example.com", Role: enums.UserRoleUser}
	repo.users[buyer.ID] = buyer

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	dto, err := svc.Get(context.Background(), buyer.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.ReferralCode != nil || dto.UPIID != nil || dto.PendingPayout != nil {
		t.Fatalf("buyer dto must omit affiliate fields: %+v", dto)
	}
}

func TestUpdateProfileName(t *testing.T) {
	repo := newStubProfileRepo()
	user := &models.User{ID: uuid.New(), Name: "Old Name", Role: enums.UserRoleUser}
	repo.users[user.ID] = user

	svc, _ := NewService(repo)

	dto, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{Name: strPtr(" New Name ")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Name != "New Name" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
}

func TestUpdateProfileUPIOnlyForAffiliates(t *testing.T) {
	repo := newStubProfileRepo()
	buyer := &models.User{ID: uuid.New(), Name: "Buyer", Role: enums.UserRoleUser}
	repo.users[buyer.ID] = buyer

	svc, _ := NewService(repo)

	_, err := svc.UpdateProfile(context.Background(), buyer.ID, UpdateProfileRequest{UPIID: strPtr("buyer@upi")})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for buyer upi edit, got %v", err)
	}

	code := "AGX1234"
	affiliate := &models.User{ID: uuid.New(), Name: "Partner", Role: enums.UserRoleAffiliate, UPIID: "old@upi", ReferralCode: &code}
	repo.users[affiliate.ID] = affiliate

	dto, err := svc.UpdateProfile(context.Background(), affiliate.ID, UpdateProfileRequest{UPIID: strPtr("new@upi")})
	if err != nil {
		t.Fatalf("affiliate upi update: %v", err)
	}
	if dto.UPIID == nil || *dto.UPIID != "new@upi" {
		t.Fatalf("expected updated upi, got %v", dto.UPIID)
	}
}

func TestUpdateProfileEmptyPatchIsNoop(t *testing.T) {
	repo := newStubProfileRepo()
	user := &models.User{ID: uuid.New(), Name: "Keep", Role: enums.UserRoleUser}
	repo.users[user.ID] = user

	svc, _ := NewService(repo)

	dto, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Name != "Keep" {
		t.Fatalf("no-op patch must return the current profile")
	}
	if repo.updates != nil {
		t.Fatalf("no-op patch must not write")
	}
}

func TestUpdateProfileEmptyValuesRejected(t *testing.T) {
	repo := newStubProfileRepo()
	code := "AGX1234"
	affiliate := &models.User{ID: uuid.New(), Name: "Partner", Role: enums.UserRoleAffiliate, ReferralCode: &code}
	repo.users[affiliate.ID] = affiliate

	svc, _ := NewService(repo)

	for _, req := range []UpdateProfileRequest{
		{Name: strPtr("   ")},
		{UPIID: strPtr("")},
	} {
		_, err := svc.UpdateProfile(context.Background(), affiliate.ID, req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
}
