package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
)

// UpdateProfileRequest is a merge-patch: absent fields stay untouched.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	UPIID *string `json:"upi_id,omitempty"`
}

// Service exposes the profile operations behind /me.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
}

type profileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error
}

type service struct {
	repo profileRepository
}

// NewService wires the profile service to a users repository.
func NewService(repo profileRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cols := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		cols["name"] = name
	}
	if req.UPIID != nil {
		if !user.IsAffiliate() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "upi_id is editable only on affiliate accounts")
		}
		upi := strings.TrimSpace(*req.UPIID)
		if upi == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "upi_id cannot be empty")
		}
		cols["upi_id"] = upi
	}

	if len(cols) == 0 {
		return FromModel(user), nil
	}
	cols["updated_at"] = time.Now().UTC()

	if err := s.repo.UpdateColumns(ctx, userID, cols); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}

	updated, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) findUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return user, nil
}
