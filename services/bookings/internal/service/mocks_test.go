package service

import (
	"context"
	"errors"
	"sync"

	"github.com/diagnosis/provence-bookings/internal/availability"
	"github.com/diagnosis/provence-bookings/pkg/events"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/domain"
)

// ---------- Mocks ----------

type mockBookingRepo struct {
	mu               sync.Mutex
	bookings         map[int64]*domain.Booking
	confirmed        []availability.ConfirmedBooking
	nextID           int64
	createErr        error
	listErr          error
	confirmedIntents []string
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[int64]*domain.Booking)}
}

func (m *mockBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	stored := *b
	stored.ID = m.nextID
	m.bookings[stored.ID] = &stored
	return &stored, nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id], nil
}

func (m *mockBookingRepo) ListConfirmed(_ context.Context) ([]availability.ConfirmedBooking, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.confirmed, nil
}

func (m *mockBookingRepo) ConfirmByPaymentIntent(_ context.Context, paymentIntentID string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmedIntents = append(m.confirmedIntents, paymentIntentID)
	var ids []int64
	for id, b := range m.bookings {
		if b.PaymentIntentID == paymentIntentID && b.Status == domain.BookingPending {
			b.Status = domain.BookingConfirmed
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type mockIdempotencyRepo struct {
	keys      map[string]int64
	lookupErr error
}

func newMockIdempotencyRepo() *mockIdempotencyRepo {
	return &mockIdempotencyRepo{keys: make(map[string]int64)}
}

func (m *mockIdempotencyRepo) Lookup(_ context.Context, key string) (int64, error) {
	if m.lookupErr != nil {
		return 0, m.lookupErr
	}
	return m.keys[key], nil
}

func (m *mockIdempotencyRepo) Save(_ context.Context, key string, bookingID int64) error {
	m.keys[key] = bookingID
	return nil
}

func (m *mockIdempotencyRepo) CleanupExpired(context.Context) (int64, error) {
	return 0, nil
}

type published struct {
	subject string
	data    interface{}
}

type mockPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, published{subject: subject, data: data})
	return m.err
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) last() (published, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return published{}, false
	}
	return m.events[len(m.events)-1], true
}

var _ events.Publisher = (*mockPublisher)(nil)

type mockVerifier struct {
	enabled bool
	ok      bool
	err     error
	gotMin  int64
}

func (m *mockVerifier) Enabled() bool { return m.enabled }

func (m *mockVerifier) VerifyDeposit(_ context.Context, _ string, minAmount int64) (bool, error) {
	m.gotMin = minAmount
	return m.ok, m.err
}

type mockReviewRepo struct {
	created []*domain.ReviewRequest
	status  map[int64]domain.ReviewStatus
	listed  domain.ReviewStatus
}

func (m *mockReviewRepo) Create(_ context.Context, req *domain.ReviewRequest) (*domain.Review, error) {
	m.created = append(m.created, req)
	return &domain.Review{ID: int64(len(m.created)), Name: req.Name, Rating: req.Rating, Text: req.Text, Status: domain.ReviewPending}, nil
}

func (m *mockReviewRepo) ListByStatus(_ context.Context, status domain.ReviewStatus, _ int) ([]domain.Review, error) {
	m.listed = status
	return []domain.Review{}, nil
}

func (m *mockReviewRepo) SetStatus(_ context.Context, id int64, status domain.ReviewStatus) (bool, error) {
	if _, ok := m.status[id]; !ok {
		return false, nil
	}
	m.status[id] = status
	return true, nil
}

type mockCustomRequestRepo struct {
	err error
}

func (m *mockCustomRequestRepo) Create(_ context.Context, in *domain.CustomRequestInput) (*domain.CustomRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.CustomRequest{ID: 9, Name: in.Name, Email: in.Email, Message: in.Message, Status: domain.CustomRequestNew}, nil
}

var errDB = errors.New("db unavailable")
