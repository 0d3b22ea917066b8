package orders

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilaxstudios/agilax-backend/pkg/config"
	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
	"github.com/agilaxstudios/agilax-backend/pkg/logger"
	"github.com/agilaxstudios/agilax-backend/pkg/storage"
)

// placeholderScreenshot is recorded when the buyer submits no screenshot.
const placeholderScreenshot = "no-image.jpg"

// Service defines the order operations used by the controllers.
type Service interface {
	Submit(ctx context.Context, input SubmitOrderInput) (*OrderDTO, error)
	List(ctx context.Context) ([]OrderDTO, error)
	MarkBundleSent(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*OrderDTO, error)
	EarningsByWeekday(ctx context.Context) ([]WeekdayEarnings, error)
}

type orderRepository interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error
}

type referralLookup interface {
	Lookup(ctx context.Context, visitorID string) (string, error)
}

type affiliateResolver interface {
	FindByReferralCode(ctx context.Context, code string) (*models.User, error)
}

type service struct {
	repo        orderRepository
	referrals   referralLookup
	affiliates  affiliateResolver
	storage     storage.Storage
	logg        *logger.Logger
	bundlePrice decimal.Decimal
	objectDir   string
}

// ServiceParams bundles the dependencies required to build an order service.
type ServiceParams struct {
	Repo           orderRepository
	Referrals      referralLookup
	Affiliates     affiliateResolver
	Storage        storage.Storage
	Logger         *logger.Logger
	CheckoutConfig config.CheckoutConfig
	StorageConfig  config.StorageConfig
}

// NewService constructs an order service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("storage client is required")
	}

	price, err := decimal.NewFromString(params.CheckoutConfig.BundlePrice)
	if err != nil {
		return nil, fmt.Errorf("invalid bundle price %q: %w", params.CheckoutConfig.BundlePrice, err)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("bundle price must not be negative")
	}

	objectDir := strings.Trim(params.StorageConfig.ScreenshotPrefix, "/")
	if objectDir == "" {
		objectDir = "payment_screenshots"
	}

	return &service{
		repo:        params.Repo,
		referrals:   params.Referrals,
		affiliates:  params.Affiliates,
		storage:     params.Storage,
		logg:        params.Logger,
		bundlePrice: price,
		objectDir:   objectDir,
	}, nil
}

// Submit records a checkout: every order is the single bundle SKU at the
// configured price, created pending and unfulfilled. Attribution comes from
// the visitor's captured referral code, which is left in place afterwards.
func (s *service) Submit(ctx context.Context, input SubmitOrderInput) (*OrderDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.BuyerEmail))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	screenshotURL := placeholderScreenshot
	if len(input.Screenshot) > 0 {
		url, err := s.uploadScreenshot(ctx, input)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload screenshot")
		}
		screenshotURL = url
	}

	var referredBy *string
	if s.referrals != nil && input.VisitorID != "" {
		code, err := s.referrals.Lookup(ctx, input.VisitorID)
		if err != nil {
			// Attribution is best effort; the sale still lands.
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "visitor_id", input.VisitorID), "checkout.referral_lookup_failed")
			}
		} else if code != "" && s.resolveAttribution(ctx, code) {
			referredBy = &code
		}
	}

	order := &models.Order{
		BuyerEmail:    email,
		Amount:        s.bundlePrice,
		ScreenshotURL: screenshotURL,
		Status:        enums.OrderStatusPending,
		OrderDate:     time.Now().UTC(),
		IsBundleSent:  false,
		ReferredBy:    referredBy,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}
	return FromModel(created), nil
}

// resolveAttribution checks the captured code against the affiliate roster.
// A code that no longer resolves does not attribute; transient lookup
// failures keep the attribution rather than losing a valid referral.
func (s *service) resolveAttribution(ctx context.Context, code string) bool {
	if s.affiliates == nil {
		return true
	}
	if _, err := s.affiliates.FindByReferralCode(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "referral_code", code), "checkout.referral_code_unknown")
			}
			return false
		}
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "referral_code", code), "checkout.referral_resolve_failed")
		}
	}
	return true
}

func (s *service) uploadScreenshot(ctx context.Context, input SubmitOrderInput) (string, error) {
	name := path.Base(strings.TrimSpace(input.ScreenshotFilename))
	if name == "" || name == "." || name == "/" {
		name = "screenshot"
	}
	objectPath := fmt.Sprintf("%s/%d_%s", s.objectDir, time.Now().UTC().UnixNano(), name)
	return s.storage.Upload(ctx, objectPath, input.ScreenshotContentType, input.Screenshot)
}

func (s *service) List(ctx context.Context) ([]OrderDTO, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return FromModels(orders), nil
}

// MarkBundleSent flips fulfillment and completes the order in one step.
// Calling it on an already-sent order changes nothing.
func (s *service) MarkBundleSent(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.IsBundleSent && order.Status == enums.OrderStatusCompleted {
		return FromModel(order), nil
	}

	cols := map[string]any{
		"is_bundle_sent": true,
		"status":         enums.OrderStatusCompleted,
		"updated_at":     time.Now().UTC(),
	}
	if err := s.repo.UpdateColumns(ctx, id, cols); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark bundle sent")
	}

	order.IsBundleSent = true
	order.Status = enums.OrderStatusCompleted
	return FromModel(order), nil
}

// Update applies an admin merge-patch. Status only moves forward and
// fulfillment never reverts.
func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	cols := map[string]any{}
	if req.BuyerEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*req.BuyerEmail))
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer_email cannot be empty")
		}
		cols["buyer_email"] = email
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		if order.Status == enums.OrderStatusCompleted && *req.Status == enums.OrderStatusPending {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "completed orders cannot return to pending")
		}
		cols["status"] = *req.Status
	}
	if req.IsBundleSent != nil {
		if order.IsBundleSent && !*req.IsBundleSent {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "fulfillment cannot be reverted")
		}
		cols["is_bundle_sent"] = *req.IsBundleSent
	}
	if req.ReferredBy != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.ReferredBy))
		if code == "" {
			cols["referred_by"] = nil
		} else {
			cols["referred_by"] = code
		}
	}

	if len(cols) == 0 {
		return FromModel(order), nil
	}
	cols["updated_at"] = time.Now().UTC()

	if err := s.repo.UpdateColumns(ctx, id, cols); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
	}

	updated, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) EarningsByWeekday(ctx context.Context) ([]WeekdayEarnings, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return BucketByWeekday(orders), nil
}

func (s *service) findOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup order")
	}
	return order, nil
}
