package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"faregate/internal/carduid"
	"faregate/internal/config"
	"faregate/internal/domain"
	"faregate/internal/fare"
	"faregate/internal/repository"
)

// TapLocker debounces repeat taps of the same card. Implementations
// are expected to expire the lock on their own; it is never released
// explicitly.
type TapLocker interface {
	AcquireTapLock(ctx context.Context, cardUID string, ttl time.Duration) (bool, error)
}

// TapService is the ride ledger: it decides whether a tap opens or
// closes a ride and settles fares against the prepaid balance.
type TapService struct {
	run       TxRunner
	tariff    fare.Tariff
	estimator DistanceEstimator
	locker    TapLocker
	cfg       config.TapConfig
	now       func() time.Time
}

// NewTapService creates a TapService backed by database transactions.
// locker may be nil, which disables tap debouncing.
func NewTapService(db *sql.DB, tariff fare.Tariff, estimator DistanceEstimator, locker TapLocker, cfg config.TapConfig) *TapService {
	return NewTapServiceWithRunner(NewSQLTxRunner(db), tariff, estimator, locker, cfg)
}

// NewTapServiceWithRunner creates a TapService using the given
// transaction runner. Used directly by tests to run the lifecycle
// against in-memory repositories.
func NewTapServiceWithRunner(run TxRunner, tariff fare.Tariff, estimator DistanceEstimator, locker TapLocker, cfg config.TapConfig) *TapService {
	return &TapService{
		run:       run,
		tariff:    tariff,
		estimator: estimator,
		locker:    locker,
		cfg:       cfg,
		now:       time.Now,
	}
}

// TapRequest contains the parameters of a single tap event.
type TapRequest struct {
	RawUID string
	Coords *domain.Coordinates
}

// TapResult is the outcome of a tap. An EXIT with insufficient balance
// is a normal result, not an error: the ride is closed, a FAILED
// payment is recorded, and Settled is false with the Deficit set.
type TapResult struct {
	Action  domain.TapAction
	Ride    *domain.Ride
	Fare    decimal.Decimal
	Balance decimal.Decimal
	Deficit decimal.Decimal
	Settled bool
}

// HandleTap processes one tap event. The whole decision — resolve
// user, determine ENTRY/EXIT, settle — runs in a single transaction
// with the user row locked, so concurrent taps for the same user are
// serialized and the open-ride invariant holds.
func (s *TapService) HandleTap(ctx context.Context, req TapRequest) (*TapResult, error) {
	cardUID, err := carduid.Normalize(req.RawUID)
	if err != nil {
		return nil, err
	}

	if s.locker != nil && s.cfg.DebounceTTL > 0 {
		acquired, err := s.locker.AcquireTapLock(ctx, cardUID, s.cfg.DebounceTTL)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, ErrDuplicateTap
		}
	}

	var result *TapResult
	err = s.run(ctx, func(r Repos) error {
		user, err := r.Users.GetByCardUIDForUpdate(ctx, cardUID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCardNotRegistered
			}
			return err
		}

		open, err := r.Rides.FindOpenByUserID(ctx, user.ID)
		if err != nil {
			return err
		}

		switch len(open) {
		case 0:
			result, err = s.openRide(ctx, r, user, req.Coords)
		case 1:
			result, err = s.settleRide(ctx, r, user, open[0], req.Coords)
		default:
			log.Printf("INTEGRITY VIOLATION: user %s has %d open rides", user.ID, len(open))
			err = ErrOpenRideConflict
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// openRide handles an ENTRY tap: a new IN_PROGRESS ride is created at
// the tap coordinates, or the configured gate default when the reader
// reports none.
func (s *TapService) openRide(ctx context.Context, r Repos, user *domain.User, coords *domain.Coordinates) (*TapResult, error) {
	start := s.coordsOrDefault(coords)
	now := s.now()

	ride := &domain.Ride{
		ID:            uuid.New().String(),
		UserID:        user.ID,
		Status:        domain.RideStatusInProgress,
		StartTime:     now,
		StartLat:      start.Lat,
		StartLng:      start.Lng,
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     now,
	}

	if err := r.Rides.Create(ctx, ride); err != nil {
		return nil, err
	}

	return &TapResult{
		Action:  domain.TapActionEntry,
		Ride:    ride,
		Balance: user.Balance,
	}, nil
}

// settleRide handles an EXIT tap: it computes duration, distance and
// fare, then atomically debits the balance (or records the shortfall),
// closes the ride, and appends the payment record. All writes share
// the enclosing transaction.
func (s *TapService) settleRide(ctx context.Context, r Repos, user *domain.User, ride *domain.Ride, coords *domain.Coordinates) (*TapResult, error) {
	end := s.coordsOrDefault(coords)
	endTime := s.now()

	durationMin := endTime.Sub(ride.StartTime).Minutes()
	if durationMin < 0 {
		durationMin = 0
	}

	start := domain.Coordinates{Lat: ride.StartLat, Lng: ride.StartLng}
	distanceKm, err := s.estimator.Estimate(ctx, start, end, durationMin)
	if err != nil {
		return nil, err
	}

	amount := s.tariff.Calculate(distanceKm, durationMin)
	balanceBefore := user.Balance

	ride.EndTime = endTime
	ride.EndLat = end.Lat
	ride.EndLng = end.Lng
	ride.DistanceKm = distanceKm
	ride.DurationMin = durationMin
	ride.Fare = amount

	payment := &domain.Payment{
		ID:            uuid.New().String(),
		UserID:        user.ID,
		RideID:        ride.ID,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		CreatedAt:     endTime,
	}

	result := &TapResult{
		Action: domain.TapActionExit,
		Ride:   ride,
		Fare:   amount,
	}

	if balanceBefore.GreaterThanOrEqual(amount) {
		newBalance := balanceBefore.Sub(amount)
		if err := r.Users.UpdateBalance(ctx, user.ID, newBalance, user.TotalSpent.Add(amount)); err != nil {
			return nil, err
		}

		ride.Status = domain.RideStatusCompleted
		ride.PaymentStatus = domain.PaymentStatusSuccess
		payment.BalanceAfter = newBalance
		payment.Status = domain.PaymentStatusSuccess
		payment.Reason = "payment processed"

		result.Balance = newBalance
		result.Settled = true
	} else {
		deficit := amount.Sub(balanceBefore)

		ride.Status = domain.RideStatusInsufficientBalance
		ride.PaymentStatus = domain.PaymentStatusFailed
		payment.BalanceAfter = balanceBefore
		payment.Status = domain.PaymentStatusFailed
		payment.Reason = fmt.Sprintf("insufficient balance: required %s, available %s", amount, balanceBefore)

		result.Balance = balanceBefore
		result.Deficit = deficit
	}

	if err := r.Rides.Settle(ctx, ride); err != nil {
		return nil, err
	}

	if err := r.Payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *TapService) coordsOrDefault(coords *domain.Coordinates) domain.Coordinates {
	if coords != nil {
		return *coords
	}
	return domain.Coordinates{Lat: s.cfg.DefaultLat, Lng: s.cfg.DefaultLng}
}
