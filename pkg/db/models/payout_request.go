package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/pkg/enums"
)

// PayoutRequest is a scheduled transfer of accumulated affiliate earnings.
// The affiliate name and UPI are denormalized at creation time so the admin
// view survives later profile edits.
type PayoutRequest struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey"`
	AffiliateID   uuid.UUID          `gorm:"column:affiliate_id;type:uuid;not null;index"`
	AffiliateName string             `gorm:"column:affiliate_name;not null"`
	AffiliateUPI  string             `gorm:"column:affiliate_upi;not null"`
	Amount        decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Status        enums.PayoutStatus `gorm:"type:text;not null"`
	RequestDate   time.Time          `gorm:"column:request_date;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PayoutRequest) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
