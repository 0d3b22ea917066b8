package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
)

// OrderDTO is the transport shape of an order.
type OrderDTO struct {
	ID            uuid.UUID         `json:"id"`
	BuyerEmail    string            `json:"buyer_email"`
	Amount        decimal.Decimal   `json:"amount"`
	ScreenshotURL string            `json:"screenshot_url"`
	Status        enums.OrderStatus `json:"status"`
	OrderDate     time.Time         `json:"order_date"`
	IsBundleSent  bool              `json:"is_bundle_sent"`
	ReferredBy    *string           `json:"referred_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// SubmitOrderInput carries a checkout submission. The screenshot is the
// raw multipart file content; VisitorID links the buyer to a prior
// referral capture.
type SubmitOrderInput struct {
	BuyerEmail            string
	VisitorID             string
	ScreenshotFilename    string
	ScreenshotContentType string
	Screenshot            []byte
}

// UpdateOrderRequest is the admin merge-patch surface.
type UpdateOrderRequest struct {
	BuyerEmail   *string            `json:"buyer_email,omitempty" validate:"omitempty,email"`
	Status       *enums.OrderStatus `json:"status,omitempty"`
	IsBundleSent *bool              `json:"is_bundle_sent,omitempty"`
	ReferredBy   *string            `json:"referred_by,omitempty"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		ID:            o.ID,
		BuyerEmail:    o.BuyerEmail,
		Amount:        o.Amount,
		ScreenshotURL: o.ScreenshotURL,
		Status:        o.Status,
		OrderDate:     o.OrderDate,
		IsBundleSent:  o.IsBundleSent,
		ReferredBy:    o.ReferredBy,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func FromModels(models []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(models))
	for i := range models {
		out = append(out, *FromModel(&models[i]))
	}
	return out
}
