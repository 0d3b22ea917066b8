package payouts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
)

type stubPayoutRepo struct {
	payouts map[uuid.UUID]*models.PayoutRequest
	updates map[string]any
}

func newStubPayoutRepo() *stubPayoutRepo {
	return &stubPayoutRepo{payouts: map[uuid.UUID]*models.PayoutRequest{}}
}

func (s *stubPayoutRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	if payout, ok := s.payouts[id]; ok {
		copied := *payout
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPayoutRepo) List(ctx context.Context) ([]models.PayoutRequest, error) {
	out := make([]models.PayoutRequest, 0, len(s.payouts))
	for _, p := range s.payouts {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubPayoutRepo) UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	payout, ok := s.payouts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.updates = cols
	if v, ok := cols["status"]; ok {
		payout.Status = v.(enums.PayoutStatus)
	}
	return nil
}

type stubOrderLister struct {
	orders []models.Order
}

func (s stubOrderLister) List(ctx context.Context) ([]models.Order, error) {
	return s.orders, nil
}

func TestMarkPaidOneWayIdempotent(t *testing.T) {
	repo := newStubPayoutRepo()
	payout := &models.PayoutRequest{
		ID:     uuid.New(),
		Amount: decimal.NewFromInt(500),
		Status: enums.PayoutStatusPending,
	}
	repo.payouts[payout.ID] = payout

	svc, err := NewService(repo, stubOrderLister{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	dto, err := svc.MarkPaid(context.Background(), payout.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if dto.Status != enums.PayoutStatusPaid {
		t.Fatalf("expected paid status, got %s", dto.Status)
	}

	repo.updates = nil
	again, err := svc.MarkPaid(context.Background(), payout.ID)
	if err != nil {
		t.Fatalf("repeat mark paid: %v", err)
	}
	if again.Status != enums.PayoutStatusPaid {
		t.Fatalf("repeat call must keep paid status")
	}
	if repo.updates != nil {
		t.Fatalf("repeat call must not write")
	}
}

func TestMarkPaidUnknownPayout(t *testing.T) {
	svc, err := NewService(newStubPayoutRepo(), stubOrderLister{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.MarkPaid(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatsDerivedFromOrdersAndPayouts(t *testing.T) {
	repo := newStubPayoutRepo()
	paid := &models.PayoutRequest{ID: uuid.New(), Amount: decimal.NewFromInt(300), Status: enums.PayoutStatusPaid}
	pending := &models.PayoutRequest{ID: uuid.New(), Amount: decimal.NewFromInt(150), Status: enums.PayoutStatusPending}
	repo.payouts[paid.ID] = paid
	repo.payouts[pending.ID] = pending

	orders := stubOrderLister{orders: []models.Order{
		{Amount: decimal.NewFromInt(999), IsBundleSent: true},
		{Amount: decimal.NewFromInt(999), IsBundleSent: false},
		{Amount: decimal.NewFromInt(999), IsBundleSent: false},
	}}

	svc, err := NewService(repo, orders)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if !stats.TotalSales.Equal(decimal.NewFromInt(2997)) {
		t.Fatalf("expected total sales 2997, got %s", stats.TotalSales)
	}
	if stats.TotalOrders != 3 {
		t.Fatalf("expected 3 total orders, got %d", stats.TotalOrders)
	}
	if stats.PendingOrders != 2 {
		t.Fatalf("expected 2 pending orders, got %d", stats.PendingOrders)
	}
	// Paid-out money reduces profit; pending requests do not.
	if !stats.NetProfit.Equal(decimal.NewFromInt(2697)) {
		t.Fatalf("expected net profit 2697, got %s", stats.NetProfit)
	}
}

func TestStatsEmptyStores(t *testing.T) {
	svc, err := NewService(newStubPayoutRepo(), stubOrderLister{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !stats.TotalSales.IsZero() || stats.TotalOrders != 0 || stats.PendingOrders != 0 || !stats.NetProfit.IsZero() {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
}
