// Package affiliates assembles the affiliate-facing dashboard and the
// admin affiliate roster.
package affiliates

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/internal/payouts"
	"github.com/agilaxstudios/agilax-backend/internal/users"
	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
)

// DashboardDTO is the affiliate's own view: profile counters, their payout
// history, and how many orders their code has referred.
type DashboardDTO struct {
	Profile        *users.UserDTO      `json:"profile"`
	Payouts        []payouts.PayoutDTO `json:"payouts"`
	ReferredOrders int64               `json:"referred_orders"`
}

// Service defines the affiliate read operations.
type Service interface {
	Dashboard(ctx context.Context, affiliateID uuid.UUID) (*DashboardDTO, error)
	List(ctx context.Context) ([]users.UserDTO, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListAffiliates(ctx context.Context) ([]models.User, error)
}

type payoutRepository interface {
	ListByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]models.PayoutRequest, error)
}

type orderCounter interface {
	CountReferredBy(ctx context.Context, code string) (int64, error)
}

type service struct {
	users   userRepository
	payouts payoutRepository
	orders  orderCounter
}

// NewService constructs the affiliate service with the provided repositories.
func NewService(userRepo userRepository, payoutRepo payoutRepository, orderRepo orderCounter) (Service, error) {
	if userRepo == nil || payoutRepo == nil || orderRepo == nil {
		return nil, fmt.Errorf("users, payouts and orders repositories are required")
	}
	return &service{users: userRepo, payouts: payoutRepo, orders: orderRepo}, nil
}

func (s *service) Dashboard(ctx context.Context, affiliateID uuid.UUID) (*DashboardDTO, error) {
	user, err := s.users.FindByID(ctx, affiliateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup affiliate")
	}
	if !user.IsAffiliate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not an affiliate account")
	}

	history, err := s.payouts.ListByAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}

	var referred int64
	if user.ReferralCode != nil {
		referred, err = s.orders.CountReferredBy(ctx, *user.ReferralCode)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count referred orders")
		}
	}

	return &DashboardDTO{
		Profile:        users.FromModel(user),
		Payouts:        payouts.FromModels(history),
		ReferredOrders: referred,
	}, nil
}

func (s *service) List(ctx context.Context) ([]users.UserDTO, error) {
	affiliates, err := s.users.ListAffiliates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list affiliates")
	}
	out := make([]users.UserDTO, 0, len(affiliates))
	for i := range affiliates {
		out = append(out, *users.FromModel(&affiliates[i]))
	}
	return out, nil
}
