package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"faregate/internal/domain"
	"faregate/internal/repository"
	"faregate/internal/service"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	UpdateBalanceCallCount int32

	// Error injection
	UpdateBalanceError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.CardUID != "" {
		for _, u := range m.users {
			if u.CardUID == user.CardUID {
				return repository.ErrCardTaken
			}
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	return m.GetByID(ctx, id)
}

func (m *MockUserRepository) GetByCardUID(ctx context.Context, cardUID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.CardUID == cardUID {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByCardUIDForUpdate(ctx context.Context, cardUID string) (*domain.User, error) {
	return m.GetByCardUID(ctx, cardUID)
}

func (m *MockUserRepository) LinkCard(ctx context.Context, userID, cardUID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.CardUID == cardUID && u.ID != userID {
			return repository.ErrCardTaken
		}
	}
	user, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.CardUID = cardUID
	return nil
}

func (m *MockUserRepository) UpdateBalance(ctx context.Context, userID string, balance, totalSpent decimal.Decimal) error {
	atomic.AddInt32(&m.UpdateBalanceCallCount, 1)
	if m.UpdateBalanceError != nil {
		return m.UpdateBalanceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Balance = balance
	user.TotalSpent = totalSpent
	return nil
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

// GetUser returns a user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount int32
	SettleCallCount int32

	// Error injection
	CreateError error
	SettleError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) FindOpenByUserID(ctx context.Context, userID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var open []*domain.Ride
	for _, r := range m.rides {
		if r.UserID == userID && r.Status == domain.RideStatusInProgress {
			copy := *r
			open = append(open, &copy)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		return open[i].StartTime.After(open[j].StartTime)
	})
	return open, nil
}

func (m *MockRideRepository) Settle(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.SettleCallCount, 1)
	if m.SettleError != nil {
		return m.SettleError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rides[ride.ID]
	if !ok || stored.Status != domain.RideStatusInProgress {
		return repository.ErrNotFound
	}
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.UserID == userID {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.After(result[j].StartTime)
	})
	return result, nil
}

func (m *MockRideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0, len(m.rides))
	for _, r := range m.rides {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

// CountOpenRides returns the number of IN_PROGRESS rides for a user.
func (m *MockRideRepository) CountOpenRides(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, r := range m.rides {
		if r.UserID == userID && r.Status == domain.RideStatusInProgress {
			count++
		}
	}
	return count
}

// GetRide returns a ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments []*domain.Payment

	// Error injection
	CreateError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payment
	m.payments = append(m.payments, &copy)
	return nil
}

func (m *MockPaymentRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Payment
	for _, p := range m.payments {
		if p.UserID == userID {
			copy := *p
			result = append(result, &copy)
		}
	}
	return result, nil
}

// CountPayments returns the number of payment rows recorded.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

// LastPayment returns the most recently recorded payment.
func (m *MockPaymentRepository) LastPayment() *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.payments) == 0 {
		return nil
	}
	return m.payments[len(m.payments)-1]
}

// ──────────────────────────────────────────────
// TEST WIRING HELPERS
// ──────────────────────────────────────────────

// newTxRunner returns a TxRunner over the given mock repositories.
// Transactions are serialized through a mutex, mirroring the per-user
// row lock the production runner relies on.
func newTxRunner(repos service.Repos) service.TxRunner {
	var mu sync.Mutex
	return func(ctx context.Context, fn func(service.Repos) error) error {
		mu.Lock()
		defer mu.Unlock()
		return fn(repos)
	}
}

// fixedDistanceEstimator always reports the same trip distance.
type fixedDistanceEstimator struct {
	km float64
}

func (e fixedDistanceEstimator) Estimate(_ context.Context, _, _ domain.Coordinates, _ float64) (float64, error) {
	return e.km, nil
}

// mockTapLocker grants the first acquisition per card and rejects the
// rest, emulating an unexpired debounce window.
type mockTapLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMockTapLocker() *mockTapLocker {
	return &mockTapLocker{held: make(map[string]bool)}
}

func (l *mockTapLocker) AcquireTapLock(ctx context.Context, cardUID string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[cardUID] {
		return false, nil
	}
	l.held[cardUID] = true
	return true, nil
}
