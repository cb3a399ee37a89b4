package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"faregate/internal/domain"
	"faregate/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = "id, email, name, card_uid, balance, total_spent, created_at"

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, card_uid, balance, total_spent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var cardUID sql.NullString
	if user.CardUID != "" {
		cardUID = sql.NullString{String: user.CardUID, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		cardUID,
		user.Balance,
		user.TotalSpent,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrCardTaken
	}

	return err
}

// GetByID retrieves a user by account ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a user by account ID and locks the row
// until the enclosing transaction commits or rolls back.
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return r.scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByCardUID retrieves the user owning the given card identifier.
func (r *UserRepository) GetByCardUID(ctx context.Context, cardUID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE card_uid = $1`
	return r.scanUser(r.q.QueryRowContext(ctx, query, cardUID))
}

// GetByCardUIDForUpdate retrieves the card owner and locks the user row
// until the enclosing transaction commits or rolls back.
func (r *UserRepository) GetByCardUIDForUpdate(ctx context.Context, cardUID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE card_uid = $1 FOR UPDATE`
	return r.scanUser(r.q.QueryRowContext(ctx, query, cardUID))
}

// LinkCard assigns a card identifier to a user.
func (r *UserRepository) LinkCard(ctx context.Context, userID, cardUID string) error {
	query := `UPDATE users SET card_uid = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, cardUID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrCardTaken
		}
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

// UpdateBalance sets a user's balance and lifetime total spent.
func (r *UserRepository) UpdateBalance(ctx context.Context, userID string, balance, totalSpent decimal.Decimal) error {
	query := `UPDATE users SET balance = $1, total_spent = $2 WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, balance, totalSpent, userID)
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

// GetAll retrieves all users.
func (r *UserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user, err := scanUserRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUserRow(row rowScanner) (*domain.User, error) {
	var user domain.User
	var name sql.NullString
	var cardUID sql.NullString

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&name,
		&cardUID,
		&user.Balance,
		&user.TotalSpent,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}

	if name.Valid {
		user.Name = name.String
	}
	if cardUID.Valid {
		user.CardUID = cardUID.String
	}

	return &user, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
