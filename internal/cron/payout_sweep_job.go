package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/agilaxstudios/agilax-backend/pkg/db/models"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
	"github.com/agilaxstudios/agilax-backend/pkg/logger"
)

// PayoutSweepJobParams configure the payout materialization sweep.
type PayoutSweepJobParams struct {
	Logger     *logger.Logger
	Affiliates affiliateSource
	Payouts    payoutSweepRepo
	MinAmount  decimal.Decimal
}

type affiliateSource interface {
	ListAffiliatesWithPendingPayout(ctx context.Context, min decimal.Decimal) ([]models.User, error)
}

type payoutSweepRepo interface {
	HasPendingForAffiliate(ctx context.Context, affiliateID uuid.UUID) (bool, error)
	Create(ctx context.Context, payout *models.PayoutRequest) (*models.PayoutRequest, error)
}

// NewPayoutSweepJob builds the job that turns accrued affiliate balances
// into pending payout requests.
func NewPayoutSweepJob(params PayoutSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Affiliates == nil {
		return nil, fmt.Errorf("affiliates source required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	min := params.MinAmount
	if min.LessThanOrEqual(decimal.Zero) {
		min = decimal.NewFromInt(1)
	}
	return &payoutSweepJob{
		logg:       params.Logger,
		affiliates: params.Affiliates,
		payouts:    params.Payouts,
		minAmount:  min,
		now:        time.Now,
	}, nil
}

type payoutSweepJob struct {
	logg       *logger.Logger
	affiliates affiliateSource
	payouts    payoutSweepRepo
	minAmount  decimal.Decimal
	now        func() time.Time
}

func (j *payoutSweepJob) Name() string { return "payout-sweep" }

// Run creates at most one pending payout request per affiliate per cycle:
// affiliates that already have an open request are skipped, which keeps the
// sweep idempotent across retries.
func (j *payoutSweepJob) Run(ctx context.Context) error {
	affiliates, err := j.affiliates.ListAffiliatesWithPendingPayout(ctx, j.minAmount)
	if err != nil {
		return fmt.Errorf("list affiliates with pending payout: %w", err)
	}

	created := 0
	skipped := 0
	var errs []error
	for i := range affiliates {
		affiliate := &affiliates[i]

		hasPending, err := j.payouts.HasPendingForAffiliate(ctx, affiliate.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("check pending payout for %s: %w", affiliate.ID, err))
			continue
		}
		if hasPending {
			skipped++
			continue
		}

		payout := &models.PayoutRequest{
			AffiliateID:   affiliate.ID,
			AffiliateName: affiliate.Name,
			AffiliateUPI:  affiliate.UPIID,
			Amount:        affiliate.PendingPayout,
			Status:        enums.PayoutStatusPending,
			RequestDate:   j.now().UTC(),
		}
		if _, err := j.payouts.Create(ctx, payout); err != nil {
			errs = append(errs, fmt.Errorf("create payout for %s: %w", affiliate.ID, err))
			continue
		}
		created++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"affiliates": len(affiliates),
		"created":    created,
		"skipped":    skipped,
		"min_amount": j.minAmount.String(),
	})
	j.logg.Info(logCtx, "payout sweep complete")

	return multierr.Combine(errs...)
}
