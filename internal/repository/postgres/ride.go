package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"faregate/internal/domain"
	"faregate/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `id, user_id, status, start_time, start_lat, start_lng,
	end_time, end_lat, end_lng, distance_km, duration_min, fare, payment_status, created_at`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, user_id, status, start_time, start_lat, start_lng, payment_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.UserID,
		ride.Status,
		ride.StartTime,
		ride.StartLat,
		ride.StartLng,
		ride.PaymentStatus,
		ride.CreatedAt,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRideRow(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return ride, nil
}

// FindOpenByUserID retrieves all IN_PROGRESS rides for a user, newest first.
func (r *RideRepository) FindOpenByUserID(ctx context.Context, userID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides
		WHERE user_id = $1 AND status = $2 ORDER BY start_time DESC`

	return r.queryRides(ctx, query, userID, domain.RideStatusInProgress)
}

// Settle closes a ride. The WHERE clause guards against settling a ride
// twice: only an IN_PROGRESS row is updated.
func (r *RideRepository) Settle(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET status = $1, end_time = $2, end_lat = $3, end_lng = $4,
			distance_km = $5, duration_min = $6, fare = $7, payment_status = $8
		WHERE id = $9 AND status = $10
	`

	result, err := r.q.ExecContext(ctx, query,
		ride.Status,
		ride.EndTime,
		ride.EndLat,
		ride.EndLng,
		ride.DistanceKm,
		ride.DurationMin,
		ride.Fare,
		ride.PaymentStatus,
		ride.ID,
		domain.RideStatusInProgress,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListByUserID retrieves a user's rides, newest first.
func (r *RideRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides
		WHERE user_id = $1 ORDER BY start_time DESC LIMIT 100`

	return r.queryRides(ctx, query, userID)
}

// GetAll retrieves recent rides.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY start_time DESC LIMIT 100`

	return r.queryRides(ctx, query)
}

func (r *RideRepository) queryRides(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRideRow(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func scanRideRow(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var endTime sql.NullTime
	var endLat, endLng, distanceKm, durationMin sql.NullFloat64
	var fareAmount decimal.NullDecimal

	if err := row.Scan(
		&ride.ID,
		&ride.UserID,
		&ride.Status,
		&ride.StartTime,
		&ride.StartLat,
		&ride.StartLng,
		&endTime,
		&endLat,
		&endLng,
		&distanceKm,
		&durationMin,
		&fareAmount,
		&ride.PaymentStatus,
		&ride.CreatedAt,
	); err != nil {
		return nil, err
	}

	if endTime.Valid {
		ride.EndTime = endTime.Time
	}
	if endLat.Valid {
		ride.EndLat = endLat.Float64
	}
	if endLng.Valid {
		ride.EndLng = endLng.Float64
	}
	if distanceKm.Valid {
		ride.DistanceKm = distanceKm.Float64
	}
	if durationMin.Valid {
		ride.DurationMin = durationMin.Float64
	}
	if fareAmount.Valid {
		ride.Fare = fareAmount.Decimal
	}

	return &ride, nil
}
