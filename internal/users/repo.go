package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByReferralCode resolves the affiliate owning a referral code.
func (r *Repository) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("referral_code = ? AND role = ?", code, enums.UserRoleAffiliate).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdateColumns applies a sparse column update to the user row.
func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(cols).Error
}

// ListAffiliates returns every affiliate account ordered by signup time.
func (r *Repository) ListAffiliates(ctx context.Context) ([]models.User, error) {
	var affiliates []models.User
	if err := r.db.WithContext(ctx).
		Where("role = ?", enums.UserRoleAffiliate).
		Order("created_at DESC").
		Find(&affiliates).Error; err != nil {
		return nil, err
	}
	return affiliates, nil
}

// ListAffiliatesWithPendingPayout returns affiliates whose accrued pending
// payout has reached the sweep minimum.
func (r *Repository) ListAffiliatesWithPendingPayout(ctx context.Context, min decimal.Decimal) ([]models.User, error) {
	var affiliates []models.User
	if err := r.db.WithContext(ctx).
		Where("role = ? AND pending_payout >= ?", enums.UserRoleAffiliate, min).
		Order("created_at ASC").
		Find(&affiliates).Error; err != nil {
		return nil, err
	}
	return affiliates, nil
}
