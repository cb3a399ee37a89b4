package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"faregate/internal/carduid"
	"faregate/internal/domain"
	"faregate/internal/repository"
)

// AccountService handles account registration, card linking, and
// balance recharges.
type AccountService struct {
	run         TxRunner
	userRepo    repository.UserRepository
	rideRepo    repository.RideRepository
	paymentRepo repository.PaymentRepository
}

// NewAccountService creates an AccountService. The non-transactional
// repositories serve the read paths; mutations go through the runner.
func NewAccountService(db *sql.DB, userRepo repository.UserRepository, rideRepo repository.RideRepository, paymentRepo repository.PaymentRepository) *AccountService {
	return NewAccountServiceWithRunner(NewSQLTxRunner(db), userRepo, rideRepo, paymentRepo)
}

// NewAccountServiceWithRunner creates an AccountService using the given
// transaction runner.
func NewAccountServiceWithRunner(run TxRunner, userRepo repository.UserRepository, rideRepo repository.RideRepository, paymentRepo repository.PaymentRepository) *AccountService {
	return &AccountService{
		run:         run,
		userRepo:    userRepo,
		rideRepo:    rideRepo,
		paymentRepo: paymentRepo,
	}
}

// RegisterRequest contains the parameters for creating an account.
type RegisterRequest struct {
	Email          string
	Name           string
	OpeningBalance decimal.Decimal
}

// Register creates a new account. The opening balance may be zero.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}

	if req.OpeningBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}

	user := &domain.User{
		ID:         uuid.New().String(),
		Email:      email,
		Name:       req.Name,
		Balance:    req.OpeningBalance,
		TotalSpent: decimal.Zero,
		CreatedAt:  time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// LinkCard normalizes the raw identifier and assigns it to the user.
// Linking a card owned by another account fails with
// repository.ErrCardTaken; re-linking to the same account is a no-op.
func (s *AccountService) LinkCard(ctx context.Context, userID, rawUID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidUserID
	}

	cardUID, err := carduid.Normalize(rawUID)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.LinkCard(ctx, userID, cardUID); err != nil {
		return "", err
	}

	return cardUID, nil
}

// RechargeResult contains the outcome of a balance credit.
type RechargeResult struct {
	User    *domain.User
	Payment *domain.Payment
}

// Recharge credits the user's balance and appends a payment record, in
// one transaction with the user row locked so a recharge cannot race a
// concurrent fare debit.
func (s *AccountService) Recharge(ctx context.Context, userID string, amount decimal.Decimal) (*RechargeResult, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var result *RechargeResult
	err := s.run(ctx, func(r Repos) error {
		user, err := r.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		balanceBefore := user.Balance
		user.Balance = balanceBefore.Add(amount)

		if err := r.Users.UpdateBalance(ctx, user.ID, user.Balance, user.TotalSpent); err != nil {
			return err
		}

		payment := &domain.Payment{
			ID:            uuid.New().String(),
			UserID:        user.ID,
			Amount:        amount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  user.Balance,
			Status:        domain.PaymentStatusSuccess,
			Reason:        "balance recharge",
			CreatedAt:     time.Now(),
		}

		if err := r.Payments.Create(ctx, payment); err != nil {
			return err
		}

		result = &RechargeResult{User: user, Payment: payment}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetUser retrieves an account by ID.
func (s *AccountService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	return s.userRepo.GetByID(ctx, userID)
}

// Rides retrieves a user's ride history, newest first.
func (s *AccountService) Rides(ctx context.Context, userID string) ([]*domain.Ride, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	return s.rideRepo.ListByUserID(ctx, userID)
}

// Payments retrieves a user's payment history, newest first.
func (s *AccountService) Payments(ctx context.Context, userID string) ([]*domain.Payment, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	return s.paymentRepo.ListByUserID(ctx, userID)
}
