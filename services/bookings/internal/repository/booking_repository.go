package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/provence-bookings/internal/availability"
	"github.com/diagnosis/provence-bookings/internal/dates"
	"github.com/diagnosis/provence-bookings/internal/pricing"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListConfirmed(ctx context.Context) ([]availability.ConfirmedBooking, error)
	ConfirmByPaymentIntent(ctx context.Context, paymentIntentID string) ([]int64, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, manage_token::text, status, experience_id,
first_name, last_name, customer_email, customer_phone, customer_address,
to_char(check_in, 'YYYY-MM-DD'), to_char(check_out, 'YYYY-MM-DD'), nights,
to_char(extra_before_from, 'YYYY-MM-DD'), to_char(extra_before_to, 'YYYY-MM-DD'), extra_before_nights,
to_char(extra_after_from, 'YYYY-MM-DD'), to_char(extra_after_to, 'YYYY-MM-DD'), extra_after_nights,
occupancy, total_guests, companions, add_ons, notes, answers, details, recommended,
coalesce(payment_intent_id, ''), deposit_paid,
nightly_rate_cents, trip_total_cents, extra_days_cents, add_ons_cents,
total_cents, deposit_cents, remaining_cents, created_at, updated_at`

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
		manage_token, status, experience_id,
		first_name, last_name, customer_email, customer_phone, customer_address,
		check_in, check_out, nights,
		extra_before_from, extra_before_to, extra_before_nights,
		extra_after_from, extra_after_to, extra_after_nights,
		occupancy, total_guests, companions, add_ons, notes, answers, details, recommended,
		payment_intent_id, deposit_paid,
		nightly_rate_cents, trip_total_cents, extra_days_cents, add_ons_cents,
		total_cents, deposit_cents, remaining_cents
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34)
	RETURNING ` + bookingCols

	checkIn, err := dates.Parse(b.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := dates.Parse(b.CheckOut)
	if err != nil {
		return nil, err
	}
	beforeFrom, beforeTo, beforeNights := extraArgs(b.ExtraBefore)
	afterFrom, afterTo, afterNights := extraArgs(b.ExtraAfter)

	companions := b.Companions
	if companions == nil {
		companions = []domain.Companion{}
	}

	var paymentIntent *string
	if b.PaymentIntentID != "" {
		paymentIntent = &b.PaymentIntentID
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p := b.Pricing
	row := r.pool.QueryRow(ctx, q,
		uuid.NewString(), string(b.Status), b.ExperienceID,
		b.Guest.FirstName, b.Guest.LastName, b.Guest.Email, b.Guest.Phone, b.Guest.Address,
		checkIn, checkOut, b.Nights,
		beforeFrom, beforeTo, beforeNights,
		afterFrom, afterTo, afterNights,
		string(b.Occupancy), b.TotalGuests, companions, nonNil(b.AddOns), b.Notes, b.Answers, b.Details, nonNil(b.Recommended),
		paymentIntent, p.DepositPaid,
		p.NightlyRate, p.TripTotal, p.ExtraDaysTotal, p.AddOnsTotal,
		p.TotalAmount, p.DepositAmount, p.RemainingBalance,
	)
	return scanBooking(row)
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// ListConfirmed returns the date fields of every confirmed booking.
func (r *bookingRepository) ListConfirmed(ctx context.Context) ([]availability.ConfirmedBooking, error) {
	const q = `SELECT to_char(check_in, 'YYYY-MM-DD'), to_char(check_out, 'YYYY-MM-DD'), status
		FROM bookings WHERE status='confirmed' ORDER BY check_in`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []availability.ConfirmedBooking{}
	for rows.Next() {
		var c availability.ConfirmedBooking
		if err := rows.Scan(&c.CheckIn, &c.CheckOut, &c.Status); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ConfirmByPaymentIntent moves pending bookings paid with the intent to
// confirmed and returns their ids.
func (r *bookingRepository) ConfirmByPaymentIntent(ctx context.Context, paymentIntentID string) ([]int64, error) {
	const q = `UPDATE bookings
		SET status='confirmed', deposit_paid=TRUE,
			remaining_cents=GREATEST(total_cents - deposit_cents, 0), updated_at=now()
		WHERE payment_intent_id=$1 AND status='pending'
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, paymentIntentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b                    domain.Booking
		status, occupancy    string
		beforeFrom, beforeTo *string
		afterFrom, afterTo   *string
		beforeN, afterN      int
	)
	err := row.Scan(
		&b.ID, &b.ManageToken, &status, &b.ExperienceID,
		&b.Guest.FirstName, &b.Guest.LastName, &b.Guest.Email, &b.Guest.Phone, &b.Guest.Address,
		&b.CheckIn, &b.CheckOut, &b.Nights,
		&beforeFrom, &beforeTo, &beforeN,
		&afterFrom, &afterTo, &afterN,
		&occupancy, &b.TotalGuests, &b.Companions, &b.AddOns, &b.Notes, &b.Answers, &b.Details, &b.Recommended,
		&b.PaymentIntentID, &b.Pricing.DepositPaid,
		&b.Pricing.NightlyRate, &b.Pricing.TripTotal, &b.Pricing.ExtraDaysTotal, &b.Pricing.AddOnsTotal,
		&b.Pricing.TotalAmount, &b.Pricing.DepositAmount, &b.Pricing.RemainingBalance,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = domain.BookingStatus(status)
	b.Occupancy = pricing.Occupancy(occupancy)
	b.ExtraBefore = extraDays(beforeFrom, beforeTo, beforeN)
	b.ExtraAfter = extraDays(afterFrom, afterTo, afterN)
	b.Pricing.Nights = b.Nights
	b.Pricing.ExtraNights = beforeN + afterN
	return &b, nil
}
