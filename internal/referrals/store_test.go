package referrals

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
)

type stubCaptureStore struct {
	data    map[string]string
	lastTTL time.Duration
}

func newStubCaptureStore() *stubCaptureStore {
	return &stubCaptureStore{data: map[string]string{}}
}

func (s *stubCaptureStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.data[key] = value.(string)
	s.lastTTL = ttl
	return nil
}

func (s *stubCaptureStore) Get(ctx context.Context, key string) (string, error) {
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", redislib.Nil
}

type stubKeyer struct{}

func (stubKeyer) ReferralCaptureKey(visitorID string) string {
	return "agx:referral:" + visitorID
}

func newTestStore(t *testing.T) (*Store, *stubCaptureStore) {
	t.Helper()
	backend := newStubCaptureStore()
	store, err := NewStore(backend, stubKeyer{}, time.Hour)
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	return store, backend
}

func TestCaptureNormalizesAndStores(t *testing.T) {
	store, backend := newTestStore(t)

	err := store.Capture(context.Background(), CaptureRequest{
		VisitorID: " visitor-1 ",
		Code:      " agx1234 ",
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	if got := backend.data["agx:referral:visitor-1"]; got != "AGX1234" {
		t.Fatalf("expected uppercased code stored, got %q", got)
	}
	if backend.lastTTL != time.Hour {
		t.Fatalf("expected configured ttl, got %s", backend.lastTTL)
	}
}

func TestCaptureLatestWins(t *testing.T) {
	store, backend := newTestStore(t)

	for _, code := range []string{"AGX1111", "AGX2222"} {
		if err := store.Capture(context.Background(), CaptureRequest{VisitorID: "v", Code: code}); err != nil {
			t.Fatalf("capture %s: %v", code, err)
		}
	}
	if got := backend.data["agx:referral:v"]; got != "AGX2222" {
		t.Fatalf("expected last capture to win, got %q", got)
	}
}

func TestCaptureValidation(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Capture(context.Background(), CaptureRequest{VisitorID: "", Code: "AGX1234"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLookupSurvivesOrders(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Capture(context.Background(), CaptureRequest{VisitorID: "v", Code: "AGX1234"}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	// The capture stays readable across repeated lookups; nothing clears it.
	for i := 0; i < 2; i++ {
		code, err := store.Lookup(context.Background(), "v")
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if code != "AGX1234" {
			t.Fatalf("lookup %d: expected AGX1234, got %q", i, code)
		}
	}
}

func TestLookupMissingIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	code, err := store.Lookup(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if code != "" {
		t.Fatalf("expected empty code for unknown visitor, got %q", code)
	}

	code, err = store.Lookup(context.Background(), "  ")
	if err != nil || code != "" {
		t.Fatalf("expected empty result for blank visitor id, got %q %v", code, err)
	}
}
