package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/pkg/enums"
)

// Order records a manual-payment checkout submission. Orders are never
// deleted; the admin flips is_bundle_sent exactly once.
type Order struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	BuyerEmail    string            `gorm:"column:buyer_email;not null"`
	Amount        decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	ScreenshotURL string            `gorm:"column:screenshot_url;not null"`
	Status        enums.OrderStatus `gorm:"type:text;not null"`
	OrderDate     time.Time         `gorm:"column:order_date;not null"`
	IsBundleSent  bool              `gorm:"column:is_bundle_sent;not null;default:false"`
	ReferredBy    *string           `gorm:"column:referred_by"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
