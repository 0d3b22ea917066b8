package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials. The
// affiliate fields render only for role=affiliate.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Role        enums.UserRole `json:"role"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	UPIID          *string          `json:"upi_id,omitempty"`
	ReferralCode   *string          `json:"referral_code,omitempty"`
	TotalReferrals *int             `json:"total_referrals,omitempty"`
	TotalEarnings  *decimal.Decimal `json:"total_earnings,omitempty"`
	PendingPayout  *decimal.Decimal `json:"pending_payout,omitempty"`
	PaidAmount     *decimal.Decimal `json:"paid_amount,omitempty"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Role         enums.UserRole
	UPIID        string
	ReferralCode *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	dto := &UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}

	if u.IsAffiliate() {
		upi := u.UPIID
		totalReferrals := u.TotalReferrals
		totalEarnings := u.TotalEarnings
		pendingPayout := u.PendingPayout
		paidAmount := u.PaidAmount

		dto.UPIID = &upi
		dto.ReferralCode = u.ReferralCode
		dto.TotalReferrals = &totalReferrals
		dto.TotalEarnings = &totalEarnings
		dto.PendingPayout = &pendingPayout
		dto.PaidAmount = &paidAmount
	}

	return dto
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         c.Role,
		UPIID:        c.UPIID,
		ReferralCode: c.ReferralCode,
	}
}
