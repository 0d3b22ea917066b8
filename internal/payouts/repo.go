package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
)

// Repository exposes payout-request persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a payouts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new payout request and returns the persisted model.
func (r *Repository) Create(ctx context.Context, payout *models.PayoutRequest) (*models.PayoutRequest, error) {
	if err := r.db.WithContext(ctx).Create(payout).Error; err != nil {
		return nil, err
	}
	return payout, nil
}

// FindByID loads a payout request by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	if err := r.db.WithContext(ctx).First(&payout, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

// List returns every payout request, newest first.
func (r *Repository) List(ctx context.Context) ([]models.PayoutRequest, error) {
	var payouts []models.PayoutRequest
	if err := r.db.WithContext(ctx).Order("request_date DESC").Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

// ListByAffiliate returns one affiliate's payout requests, newest first.
func (r *Repository) ListByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]models.PayoutRequest, error) {
	var payouts []models.PayoutRequest
	if err := r.db.WithContext(ctx).
		Where("affiliate_id = ?", affiliateID).
		Order("request_date DESC").
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

// HasPendingForAffiliate reports whether the affiliate already has an open
// payout request.
func (r *Repository) HasPendingForAffiliate(ctx context.Context, affiliateID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("affiliate_id = ? AND status = ?", affiliateID, enums.PayoutStatusPending).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateColumns applies a sparse column update to the payout row.
func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("id = ?", id).
		UpdateColumns(cols).Error
}
