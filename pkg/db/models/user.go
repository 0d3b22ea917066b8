package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/pkg/enums"
)

// User is the canonical identity entity. The role column discriminates the
// tagged variant: the affiliate columns carry meaning only for role=affiliate
// and stay at their zero values for plain users and admins.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"type:text;not null"`

	UPIID          string          `gorm:"column:upi_id"`
	ReferralCode   *string         `gorm:"column:referral_code;uniqueIndex"`
	TotalReferrals int             `gorm:"column:total_referrals;not null;default:0"`
	TotalEarnings  decimal.Decimal `gorm:"column:total_earnings;type:numeric(12,2);not null;default:0"`
	PendingPayout  decimal.Decimal `gorm:"column:pending_payout;type:numeric(12,2);not null;default:0"`
	PaidAmount     decimal.Decimal `gorm:"column:paid_amount;type:numeric(12,2);not null;default:0"`

	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the identifier in-process so the model works on both
// the postgres and sqlite drivers.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsAffiliate reports whether the affiliate columns are meaningful.
func (u *User) IsAffiliate() bool {
	return u.Role == enums.UserRoleAffiliate
}
