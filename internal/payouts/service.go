package payouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
)

// Service defines the payout operations used by the controllers.
type Service interface {
	List(ctx context.Context) ([]PayoutDTO, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*PayoutDTO, error)
	Stats(ctx context.Context) (*StatsDTO, error)
}

type payoutRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	List(ctx context.Context) ([]models.PayoutRequest, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error
}

type orderLister interface {
	List(ctx context.Context) ([]models.Order, error)
}

type service struct {
	repo   payoutRepository
	orders orderLister
}

// NewService constructs a payout service with the provided dependencies.
func NewService(repo payoutRepository, orders orderLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	return &service{repo: repo, orders: orders}, nil
}

func (s *service) List(ctx context.Context) ([]PayoutDTO, error) {
	payouts, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return FromModels(payouts), nil
}

// MarkPaid moves a payout pending -> paid. The transition is one-way and
// repeat calls are no-ops.
func (s *service) MarkPaid(ctx context.Context, id uuid.UUID) (*PayoutDTO, error) {
	payout, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup payout")
	}

	if payout.Status == enums.PayoutStatusPaid {
		return FromModel(payout), nil
	}

	cols := map[string]any{
		"status":     enums.PayoutStatusPaid,
		"updated_at": time.Now().UTC(),
	}
	if err := s.repo.UpdateColumns(ctx, id, cols); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark payout paid")
	}

	payout.Status = enums.PayoutStatusPaid
	return FromModel(payout), nil
}

// Stats derives the back-office numbers from the full order and payout
// sets: total sales, order counts and net profit after paid payouts.
func (s *service) Stats(ctx context.Context) (*StatsDTO, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	payouts, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}

	totalSales := decimal.Zero
	pendingOrders := 0
	for i := range orders {
		totalSales = totalSales.Add(orders[i].Amount)
		if !orders[i].IsBundleSent {
			pendingOrders++
		}
	}

	paidOut := decimal.Zero
	for i := range payouts {
		if payouts[i].Status == enums.PayoutStatusPaid {
			paidOut = paidOut.Add(payouts[i].Amount)
		}
	}

	return &StatsDTO{
		TotalSales:    totalSales,
		TotalOrders:   len(orders),
		PendingOrders: pendingOrders,
		NetProfit:     totalSales.Sub(paidOut),
	}, nil
}
