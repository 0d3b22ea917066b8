// Package referrals persists the landing-page referral capture: a visitor
// id mapped to the affiliate code that referred them.
package referrals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
)

type captureStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

type captureKeyer interface {
	ReferralCaptureKey(visitorID string) string
}

// Store records and resolves referral captures in Redis.
type Store struct {
	store captureStore
	keyer captureKeyer
	ttl   time.Duration
}

// CaptureRequest is the public capture payload.
type CaptureRequest struct {
	VisitorID string `json:"visitor_id" validate:"required"`
	Code      string `json:"code" validate:"required"`
}

// NewStore builds a referral capture store with the given TTL.
func NewStore(store captureStore, keyer captureKeyer, ttl time.Duration) (*Store, error) {
	if store == nil || keyer == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("capture ttl must be positive")
	}
	return &Store{store: store, keyer: keyer, ttl: ttl}, nil
}

// Capture stores the referral code for a visitor. A later capture for the
// same visitor overwrites the earlier one.
func (s *Store) Capture(ctx context.Context, req CaptureRequest) error {
	visitorID := strings.TrimSpace(req.VisitorID)
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if visitorID == "" || code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "visitor_id and code are required")
	}
	if err := s.store.Set(ctx, s.keyer.ReferralCaptureKey(visitorID), code, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store referral capture")
	}
	return nil
}

// Lookup returns the captured code for a visitor, or empty when none is
// held. The capture is intentionally not cleared after an order, matching
// the storefront's attribution behavior.
func (s *Store) Lookup(ctx context.Context, visitorID string) (string, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return "", nil
	}
	code, err := s.store.Get(ctx, s.keyer.ReferralCaptureKey(visitorID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup referral capture")
	}
	return code, nil
}
