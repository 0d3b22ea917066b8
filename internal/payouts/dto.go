package payouts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
)

// PayoutDTO is the transport shape of a payout request.
type PayoutDTO struct {
	ID            uuid.UUID          `json:"id"`
	AffiliateID   uuid.UUID          `json:"affiliate_id"`
	AffiliateName string             `json:"affiliate_name"`
	AffiliateUPI  string             `json:"affiliate_upi"`
	Amount        decimal.Decimal    `json:"amount"`
	Status        enums.PayoutStatus `json:"status"`
	RequestDate   time.Time          `json:"request_date"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// StatsDTO carries the derived back-office numbers. Everything here is
// recomputed from the stores on every read.
type StatsDTO struct {
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalOrders   int             `json:"total_orders"`
	PendingOrders int             `json:"pending_orders"`
	NetProfit     decimal.Decimal `json:"net_profit"`
}

func FromModel(p *models.PayoutRequest) *PayoutDTO {
	if p == nil {
		return nil
	}
	return &PayoutDTO{
		ID:            p.ID,
		AffiliateID:   p.AffiliateID,
		AffiliateName: p.AffiliateName,
		AffiliateUPI:  p.AffiliateUPI,
		Amount:        p.Amount,
		Status:        p.Status,
		RequestDate:   p.RequestDate,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func FromModels(models []models.PayoutRequest) []PayoutDTO {
	out := make([]PayoutDTO, 0, len(models))
	for i := range models {
		out = append(out, *FromModel(&models[i]))
	}
	return out
}
