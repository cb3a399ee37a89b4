package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"faregate/internal/carduid"
	"faregate/internal/config"
	"faregate/internal/domain"
	"faregate/internal/fare"
	"faregate/internal/service"
)

const testCardUID = "AA:BB:CC:DD"

type tapFixture struct {
	users    *MockUserRepository
	rides    *MockRideRepository
	payments *MockPaymentRepository
	service  *service.TapService
}

// newTapFixture wires a TapService against mock repositories with a
// fixed trip distance. locker may be nil to disable debouncing.
func newTapFixture(distanceKm float64, locker service.TapLocker) *tapFixture {
	users := NewMockUserRepository()
	rides := NewMockRideRepository()
	payments := NewMockPaymentRepository()

	runner := newTxRunner(service.Repos{
		Users:    users,
		Rides:    rides,
		Payments: payments,
	})

	cfg := config.TapConfig{
		DefaultLat: 12.9716,
		DefaultLng: 77.5946,
	}
	if locker != nil {
		cfg.DebounceTTL = 5 * time.Second
	}

	return &tapFixture{
		users:    users,
		rides:    rides,
		payments: payments,
		service:  service.NewTapServiceWithRunner(runner, fare.DefaultTariff(), fixedDistanceEstimator{km: distanceKm}, locker, cfg),
	}
}

func (f *tapFixture) addUser(balance string) *domain.User {
	user := &domain.User{
		ID:         "user-1",
		Email:      "rider@example.com",
		CardUID:    testCardUID,
		Balance:    decimal.RequireFromString(balance),
		TotalSpent: decimal.Zero,
		CreatedAt:  time.Now(),
	}
	f.users.AddUser(user)
	return user
}

func (f *tapFixture) addOpenRide(userID string, startedAgo time.Duration) *domain.Ride {
	ride := &domain.Ride{
		ID:            "ride-1",
		UserID:        userID,
		Status:        domain.RideStatusInProgress,
		StartTime:     time.Now().Add(-startedAgo),
		StartLat:      12.9716,
		StartLng:      77.5946,
		PaymentStatus: domain.PaymentStatusPending,
	}
	f.rides.AddRide(ride)
	return ride
}

func TestTap_EntryOpensRide(t *testing.T) {
	t.Parallel()

	f := newTapFixture(8, nil)
	f.addUser("0")

	result, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Action != domain.TapActionEntry {
		t.Errorf("expected action ENTRY, got %s", result.Action)
	}

	stored := f.rides.GetRide(result.Ride.ID)
	if stored == nil {
		t.Fatal("ride not persisted")
	}
	if stored.Status != domain.RideStatusInProgress {
		t.Errorf("expected status IN_PROGRESS, got %s", stored.Status)
	}
	if stored.PaymentStatus != domain.PaymentStatusPending {
		t.Errorf("expected payment status PENDING, got %s", stored.PaymentStatus)
	}
	if f.payments.CountPayments() != 0 {
		t.Errorf("entry tap must not write payments, got %d", f.payments.CountPayments())
	}
}

func TestTap_EntryUsesDefaultCoordinatesWhenAbsent(t *testing.T) {
	t.Parallel()

	f := newTapFixture(8, nil)
	f.addUser("0")

	result, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Ride.StartLat != 12.9716 || result.Ride.StartLng != 77.5946 {
		t.Errorf("expected configured default coordinates, got (%v, %v)", result.Ride.StartLat, result.Ride.StartLng)
	}
}

func TestTap_ExitSettlesRide(t *testing.T) {
	t.Parallel()

	// Balance 200, 8 km over 10 minutes: 10 + 8*5 + 5*0.5 = 52.5.
	f := newTapFixture(8, nil)
	user := f.addUser("200")
	ride := f.addOpenRide(user.ID, 10*time.Minute)

	result, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Action != domain.TapActionExit {
		t.Fatalf("expected action EXIT, got %s", result.Action)
	}
	if !result.Settled {
		t.Fatal("expected settled result")
	}

	wantFare := decimal.RequireFromString("52.5")
	if !result.Fare.Equal(wantFare) {
		t.Errorf("fare = %s, want %s", result.Fare, wantFare)
	}
	if want := decimal.RequireFromString("147.5"); !result.Balance.Equal(want) {
		t.Errorf("balance = %s, want %s", result.Balance, want)
	}

	stored := f.rides.GetRide(ride.ID)
	if stored.Status != domain.RideStatusCompleted {
		t.Errorf("expected status COMPLETED, got %s", stored.Status)
	}
	if stored.PaymentStatus != domain.PaymentStatusSuccess {
		t.Errorf("expected payment status SUCCESS, got %s", stored.PaymentStatus)
	}
	if stored.EndTime.IsZero() {
		t.Error("end time not set")
	}

	if got := f.users.GetUser(user.ID).TotalSpent; !got.Equal(wantFare) {
		t.Errorf("total spent = %s, want %s", got, wantFare)
	}
}

func TestTap_ExitWithInsufficientBalance(t *testing.T) {
	t.Parallel()

	// Balance 0: the ride still closes, payment is recorded FAILED, and
	// the deficit equals the full fare.
	f := newTapFixture(8, nil)
	user := f.addUser("0")
	ride := f.addOpenRide(user.ID, 10*time.Minute)

	result, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID})
	if err != nil {
		t.Fatalf("insufficient balance is an outcome, not an error: %v", err)
	}

	if result.Settled {
		t.Fatal("expected unsettled result")
	}
	if want := decimal.RequireFromString("52.5"); !result.Deficit.Equal(want) {
		t.Errorf("deficit = %s, want %s", result.Deficit, want)
	}

	stored := f.rides.GetRide(ride.ID)
	if stored.Status != domain.RideStatusInsufficientBalance {
		t.Errorf("expected status INSUFFICIENT_BALANCE, got %s", stored.Status)
	}
	if stored.PaymentStatus != domain.PaymentStatusFailed {
		t.Errorf("expected payment status FAILED, got %s", stored.PaymentStatus)
	}

	if got := f.users.GetUser(user.ID).Balance; !got.IsZero() {
		t.Errorf("balance must be untouched, got %s", got)
	}
}

func TestTap_ImmediateExitChargesMinimumFare(t *testing.T) {
	t.Parallel()

	f := newTapFixture(0, nil)
	user := f.addUser("100")
	f.addOpenRide(user.ID, 0)

	result, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := fare.DefaultTariff().MinimumFare; !result.Fare.Equal(want) {
		t.Errorf("fare = %s, want minimum fare %s", result.Fare, want)
	}
}

func TestTap_UnregisteredCardRejected(t *testing.T) {
	t.Parallel()

	f := newTapFixture(8, nil)

	_, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: "DE:AD:BE:EF"})
	if !errors.Is(err, service.ErrCardNotRegistered) {
		t.Fatalf("expected ErrCardNotRegistered, got %v", err)
	}

	if f.rides.CreateCallCount != 0 {
		t.Error("no ride must be created for an unregistered card")
	}
	if f.payments.CountPayments() != 0 {
		t.Error("no payment must be written for an unregistered card")
	}
}

func TestTap_MalformedUIDRejected(t *testing.T) {
	t.Parallel()

	f := newTapFixture(8, nil)
	f.addUser("100")

	_, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: "not-a-uid"})
	if !errors.Is(err, carduid.ErrMalformedUID) {
		t.Fatalf("expected ErrMalformedUID, got %v", err)
	}

	if f.rides.CreateCallCount != 0 {
		t.Error("no ride must be created for a malformed identifier")
	}
}

func TestTap_GarbledUIDStillResolves(t *testing.T) {
	t.Parallel()

	f := newTapFixture(8, nil)
	user := &domain.User{
		ID:      "user-1",
		Email:   "rider@example.com",
		CardUID: "B3:9E:38:F6",
		Balance: decimal.RequireFromString("100"),
	}
	f.users.AddUser(user)

	result, err := f.service.HandleTap(context.Background(), service.TapRequest{
		RawUID: "B3:9E:38:F6ENTRY0.0000000.000000\x00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Action != domain.TapActionEntry {
		t.Errorf("expected action ENTRY, got %s", result.Action)
	}
}

func TestTap_MultipleOpenRidesIsIntegrityFault(t *testing.T) {
	t.Parallel()

	f := newTapFixture(8, nil)
	user := f.addUser("100")

	// Two open rides must never exist; if they do, the tap aborts
	// instead of guessing which one to close.
	f.rides.AddRide(&domain.Ride{
		ID: "ride-1", UserID: user.ID,
		Status:    domain.RideStatusInProgress,
		StartTime: time.Now().Add(-20 * time.Minute),
	})
	f.rides.AddRide(&domain.Ride{
		ID: "ride-2", UserID: user.ID,
		Status:    domain.RideStatusInProgress,
		StartTime: time.Now().Add(-10 * time.Minute),
	})

	_, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID})
	if !errors.Is(err, service.ErrOpenRideConflict) {
		t.Fatalf("expected ErrOpenRideConflict, got %v", err)
	}

	if f.payments.CountPayments() != 0 {
		t.Error("no settlement may happen on an integrity fault")
	}
	if f.rides.SettleCallCount != 0 {
		t.Error("no ride may be closed on an integrity fault")
	}
}

func TestTap_AlternatingTapsKeepInvariant(t *testing.T) {
	t.Parallel()

	f := newTapFixture(2, nil)
	user := f.addUser("1000")

	// Any sequence of taps leaves at most one open ride.
	for i := 0; i < 10; i++ {
		_, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID})
		if err != nil {
			t.Fatalf("tap %d: unexpected error: %v", i, err)
		}
		if open := f.rides.CountOpenRides(user.ID); open > 1 {
			t.Fatalf("tap %d: %d open rides, invariant broken", i, open)
		}
	}
}

func TestTap_DebounceRejectsDoubleFire(t *testing.T) {
	t.Parallel()

	f := newTapFixture(8, newMockTapLocker())
	f.addUser("100")

	if _, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID}); err != nil {
		t.Fatalf("first tap: unexpected error: %v", err)
	}

	_, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID})
	if !errors.Is(err, service.ErrDuplicateTap) {
		t.Fatalf("expected ErrDuplicateTap, got %v", err)
	}

	if f.rides.CreateCallCount != 1 {
		t.Errorf("expected exactly 1 ride, got %d", f.rides.CreateCallCount)
	}
}
