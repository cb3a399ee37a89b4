package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"faregate/internal/carduid"
	"faregate/internal/domain"
	"faregate/internal/repository"
	"faregate/internal/service"
)

type accountFixture struct {
	users    *MockUserRepository
	rides    *MockRideRepository
	payments *MockPaymentRepository
	service  *service.AccountService
}

func newAccountFixture() *accountFixture {
	users := NewMockUserRepository()
	rides := NewMockRideRepository()
	payments := NewMockPaymentRepository()

	runner := newTxRunner(service.Repos{
		Users:    users,
		Rides:    rides,
		Payments: payments,
	})

	return &accountFixture{
		users:    users,
		rides:    rides,
		payments: payments,
		service:  service.NewAccountServiceWithRunner(runner, users, rides, payments),
	}
}

func TestAccount_Register(t *testing.T) {
	t.Parallel()

	f := newAccountFixture()

	user, err := f.service.Register(context.Background(), service.RegisterRequest{
		Email:          "rider@example.com",
		Name:           "Rider",
		OpeningBalance: decimal.RequireFromString("50"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.ID == "" {
		t.Error("user id not assigned")
	}
	if !user.Balance.Equal(decimal.RequireFromString("50")) {
		t.Errorf("balance = %s, want 50", user.Balance)
	}
	if !user.TotalSpent.IsZero() {
		t.Errorf("total spent = %s, want 0", user.TotalSpent)
	}
}

func TestAccount_RegisterRejectsEmptyEmail(t *testing.T) {
	t.Parallel()

	f := newAccountFixture()

	_, err := f.service.Register(context.Background(), service.RegisterRequest{Email: "   "})
	if !errors.Is(err, service.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestAccount_LinkCardNormalizesUID(t *testing.T) {
	t.Parallel()

	f := newAccountFixture()
	f.users.AddUser(&domain.User{ID: "user-1", Email: "a@example.com"})

	cardUID, err := f.service.LinkCard(context.Background(), "user-1", "b3:9e:38:f6\x00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cardUID != "B3:9E:38:F6" {
		t.Errorf("card uid = %s, want B3:9E:38:F6", cardUID)
	}
	if got := f.users.GetUser("user-1").CardUID; got != "B3:9E:38:F6" {
		t.Errorf("stored card uid = %s, want B3:9E:38:F6", got)
	}
}

func TestAccount_LinkCardConflict(t *testing.T) {
	t.Parallel()

	f := newAccountFixture()
	f.users.AddUser(&domain.User{ID: "user-1", Email: "a@example.com", CardUID: "AA:BB:CC:DD"})
	f.users.AddUser(&domain.User{ID: "user-2", Email: "b@example.com"})

	_, err := f.service.LinkCard(context.Background(), "user-2", "AA:BB:CC:DD")
	if !errors.Is(err, repository.ErrCardTaken) {
		t.Fatalf("expected ErrCardTaken, got %v", err)
	}
}

func TestAccount_LinkCardRejectsMalformedUID(t *testing.T) {
	t.Parallel()

	f := newAccountFixture()
	f.users.AddUser(&domain.User{ID: "user-1", Email: "a@example.com"})

	_, err := f.service.LinkCard(context.Background(), "user-1", "junk")
	if !errors.Is(err, carduid.ErrMalformedUID) {
		t.Fatalf("expected ErrMalformedUID, got %v", err)
	}
}

func TestAccount_RechargeCreditsBalanceAndRecordsPayment(t *testing.T) {
	t.Parallel()

	f := newAccountFixture()
	f.users.AddUser(&domain.User{
		ID:      "user-1",
		Email:   "a@example.com",
		Balance: decimal.RequireFromString("10"),
	})

	result, err := f.service.Recharge(context.Background(), "user-1", decimal.RequireFromString("90"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := decimal.RequireFromString("100"); !result.User.Balance.Equal(want) {
		t.Errorf("balance = %s, want %s", result.User.Balance, want)
	}

	payment := f.payments.LastPayment()
	if payment == nil {
		t.Fatal("no payment recorded")
	}
	if payment.Status != domain.PaymentStatusSuccess {
		t.Errorf("payment status = %s, want SUCCESS", payment.Status)
	}
	if payment.RideID != "" {
		t.Errorf("recharge payment must not reference a ride, got %s", payment.RideID)
	}
	if !payment.BalanceAfter.Equal(payment.BalanceBefore.Add(payment.Amount)) {
		t.Errorf("recharge conservation broken: %s != %s + %s", payment.BalanceAfter, payment.BalanceBefore, payment.Amount)
	}
}

func TestAccount_RechargeRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	f := newAccountFixture()
	f.users.AddUser(&domain.User{ID: "user-1", Email: "a@example.com"})

	for _, amount := range []string{"0", "-5"} {
		_, err := f.service.Recharge(context.Background(), "user-1", decimal.RequireFromString(amount))
		if !errors.Is(err, service.ErrInvalidAmount) {
			t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}
