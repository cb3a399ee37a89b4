package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"faregate/internal/domain"
	"faregate/internal/service"
)

// ──────────────────────────────────────────────
// SETTLEMENT CONSERVATION
// ──────────────────────────────────────────────

func TestSettlement_SuccessConservesBalance(t *testing.T) {
	t.Parallel()

	f := newTapFixture(8, nil)
	user := f.addUser("200")
	f.addOpenRide(user.ID, 10*time.Minute)

	result, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payment := f.payments.LastPayment()
	if payment == nil {
		t.Fatal("no payment recorded")
	}

	if payment.Status != domain.PaymentStatusSuccess {
		t.Errorf("payment status = %s, want SUCCESS", payment.Status)
	}
	if !payment.BalanceAfter.Equal(payment.BalanceBefore.Sub(payment.Amount)) {
		t.Errorf("conservation broken: %s != %s - %s", payment.BalanceAfter, payment.BalanceBefore, payment.Amount)
	}
	if !payment.BalanceAfter.Equal(result.Balance) {
		t.Errorf("payment after-balance %s disagrees with result balance %s", payment.BalanceAfter, result.Balance)
	}
	if f.payments.CountPayments() != 1 {
		t.Errorf("expected exactly 1 payment, got %d", f.payments.CountPayments())
	}
}

func TestSettlement_FailureLeavesBalanceUntouched(t *testing.T) {
	t.Parallel()

	f := newTapFixture(8, nil)
	user := f.addUser("10")
	f.addOpenRide(user.ID, 10*time.Minute)

	result, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payment := f.payments.LastPayment()
	if payment == nil {
		t.Fatal("no payment recorded")
	}

	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("payment status = %s, want FAILED", payment.Status)
	}
	if !payment.BalanceAfter.Equal(payment.BalanceBefore) {
		t.Errorf("failed settlement must not move balance: %s -> %s", payment.BalanceBefore, payment.BalanceAfter)
	}
	if payment.Reason == "" {
		t.Error("failed payment must carry a reason")
	}

	// 52.5 fare against balance 10.
	if want := decimal.RequireFromString("42.5"); !result.Deficit.Equal(want) {
		t.Errorf("deficit = %s, want %s", result.Deficit, want)
	}
	if f.users.UpdateBalanceCallCount != 0 {
		t.Error("balance must not be written on a failed settlement")
	}
	if f.payments.CountPayments() != 1 {
		t.Errorf("expected exactly 1 payment, got %d", f.payments.CountPayments())
	}
}

func TestSettlement_PaymentLinksRideAndUser(t *testing.T) {
	t.Parallel()

	f := newTapFixture(8, nil)
	user := f.addUser("200")
	ride := f.addOpenRide(user.ID, 10*time.Minute)

	if _, err := f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payment := f.payments.LastPayment()
	if payment.UserID != user.ID {
		t.Errorf("payment user = %s, want %s", payment.UserID, user.ID)
	}
	if payment.RideID != ride.ID {
		t.Errorf("payment ride = %s, want %s", payment.RideID, ride.ID)
	}
}

// ──────────────────────────────────────────────
// CONCURRENT EXIT TAPS
// ──────────────────────────────────────────────

func TestSettlement_ConcurrentExitTapsSettleOnce(t *testing.T) {
	t.Parallel()

	f := newTapFixture(8, newMockTapLocker())
	user := f.addUser("200")
	f.addOpenRide(user.ID, 10*time.Minute)

	const taps = 2
	results := make([]*service.TapResult, taps)
	errs := make([]error, taps)

	var wg sync.WaitGroup
	for i := 0; i < taps; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.service.HandleTap(context.Background(), service.TapRequest{RawUID: testCardUID})
		}(i)
	}
	wg.Wait()

	var settled, rejected int
	for i := 0; i < taps; i++ {
		switch {
		case errs[i] == nil && results[i].Settled:
			settled++
		case errors.Is(errs[i], service.ErrDuplicateTap):
			rejected++
		default:
			t.Fatalf("tap %d: unexpected outcome result=%+v err=%v", i, results[i], errs[i])
		}
	}

	if settled != 1 {
		t.Errorf("expected exactly 1 settlement, got %d", settled)
	}
	if rejected != 1 {
		t.Errorf("expected 1 rejected duplicate, got %d", rejected)
	}
	if f.payments.CountPayments() != 1 {
		t.Errorf("expected exactly 1 payment row, got %d", f.payments.CountPayments())
	}

	if got := f.users.GetUser(user.ID).Balance; !got.Equal(decimal.RequireFromString("147.5")) {
		t.Errorf("balance = %s, want 147.5 (single debit)", got)
	}
}
