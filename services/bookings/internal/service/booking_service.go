package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/provence-bookings/internal/availability"
	"github.com/diagnosis/provence-bookings/internal/catalog"
	"github.com/diagnosis/provence-bookings/internal/dates"
	"github.com/diagnosis/provence-bookings/internal/pricing"
	"github.com/diagnosis/provence-bookings/internal/recommend"
	"github.com/diagnosis/provence-bookings/internal/utils"
	"github.com/diagnosis/provence-bookings/pkg/events"
	"github.com/diagnosis/provence-bookings/pkg/logger"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/domain"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/repository"
)

// DepositVerifier checks a payment reference with the payment provider.
type DepositVerifier interface {
	Enabled() bool
	VerifyDeposit(ctx context.Context, paymentIntentID string, minAmount int64) (bool, error)
}

type BookingService interface {
	Availability(ctx context.Context) ([]dates.Range, error)
	Quote(ctx context.Context, req *domain.QuoteRequest) (pricing.Breakdown, error)
	CreateBooking(ctx context.Context, req *domain.BookingRequest, idempotencyKey string) (*domain.BookingResult, error)
	ConfirmPayment(ctx context.Context, paymentIntentID string) ([]int64, error)
	HandlePaymentCaptured(msg *events.Message)
}

type bookingService struct {
	bookingRepo     repository.BookingRepository
	idempotencyRepo repository.IdempotencyRepository
	catalog         *catalog.Catalog
	engine          *pricing.Engine
	deposits        DepositVerifier
	publisher       events.Publisher
	loc             *time.Location
	now             func() time.Time
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	idempotencyRepo repository.IdempotencyRepository,
	cat *catalog.Catalog,
	engine *pricing.Engine,
	deposits DepositVerifier,
	publisher events.Publisher,
	loc *time.Location,
) BookingService {
	if loc == nil {
		loc = time.Local
	}
	return &bookingService{
		bookingRepo:     bookingRepo,
		idempotencyRepo: idempotencyRepo,
		catalog:         cat,
		engine:          engine,
		deposits:        deposits,
		publisher:       publisher,
		loc:             loc,
		now:             time.Now,
	}
}

func (s *bookingService) Availability(ctx context.Context) ([]dates.Range, error) {
	confirmed, err := s.bookingRepo.ListConfirmed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed bookings: %w", err)
	}
	return availability.BlockedRanges(confirmed), nil
}

func (s *bookingService) Quote(ctx context.Context, req *domain.QuoteRequest) (pricing.Breakdown, error) {
	pr, err := req.BookingRequest().PricingRequest(req.DepositPaid)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return s.engine.Quote(pr)
}

func (s *bookingService) CreateBooking(ctx context.Context, req *domain.BookingRequest, idempotencyKey string) (*domain.BookingResult, error) {
	req.Normalize()
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	if err := req.CheckCompanions(); err != nil {
		return nil, err
	}

	exp, ok := s.catalog.Lookup(req.ExperienceID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownExperience, req.ExperienceID)
	}

	// Today is the business's calendar day, not the UTC one.
	today := dates.ISODate(s.now().In(s.loc))
	if req.DateRange.CheckIn <= today {
		return nil, domain.NewValidationError("date_range.check_in", "must be after today")
	}

	// Replays return the stored booking without charging or notifying again.
	if idempotencyKey != "" {
		if existing := s.replay(ctx, idempotencyKey); existing != nil {
			return &domain.BookingResult{Booking: existing, Pricing: existing.Pricing, Replayed: true}, nil
		}
	}

	depositPaid, verified := s.depositStatus(ctx, req)

	pr, err := req.PricingRequest(depositPaid)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.engine.Quote(pr)
	if err != nil {
		return nil, err
	}

	blocked, err := s.Availability(ctx)
	if err != nil {
		return nil, err
	}
	if availability.Overlaps(dates.Range{From: req.DateRange.CheckIn, To: req.DateRange.CheckOut}, blocked) {
		return nil, availability.ErrDatesUnavailable
	}

	var recommended []string
	if req.QuestionnaireAnswers != nil && !req.QuestionnaireAnswers.IsEmpty() {
		recommended = recommend.IDs(recommend.Recommend(s.catalog.Experiences, *req.QuestionnaireAnswers))
	}

	status := domain.BookingPending
	if verified {
		status = domain.BookingConfirmed
	}

	booking := &domain.Booking{
		Status:          status,
		ExperienceID:    exp.ID,
		Guest:           req.PrimaryGuest,
		CheckIn:         req.DateRange.CheckIn,
		CheckOut:        req.DateRange.CheckOut,
		Nights:          breakdown.Nights,
		ExtraBefore:     req.ExtraDaysBefore,
		ExtraAfter:      req.ExtraDaysAfter,
		Occupancy:       req.Occupancy,
		TotalGuests:     req.TotalGuests,
		Companions:      req.TravelCompanions,
		AddOns:          req.AddOns,
		Notes:           req.Notes,
		Answers:         req.QuestionnaireAnswers,
		Details:         req.Details(),
		Recommended:     recommended,
		PaymentIntentID: req.PaymentReference,
		Pricing:         breakdown,
		CreatedAt:       s.now(),
	}

	// Persistence is best effort: the customer has paid the deposit, so a
	// storage failure must not lose the notification.
	stored, err := s.bookingRepo.Create(ctx, booking)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to store booking",
			"error", err,
			"experience_id", exp.ID,
			"email", utils.MaskEmail(req.PrimaryGuest.Email),
		)
	} else {
		booking = stored
		ctx = logger.WithBookingID(ctx, fmt.Sprint(stored.ID))
		if idempotencyKey != "" {
			if err := s.idempotencyRepo.Save(ctx, idempotencyKey, stored.ID); err != nil {
				logger.ErrorContext(ctx, "Failed to store idempotency record", "error", err)
			}
		}
	}

	s.publishCreated(ctx, booking, exp, stored != nil)

	logger.InfoContext(ctx, "Booking submitted",
		"experience_id", exp.ID,
		"status", booking.Status,
		"total_cents", breakdown.TotalAmount,
		"stored", stored != nil,
	)

	result := &domain.BookingResult{Pricing: breakdown}
	if stored != nil {
		result.Booking = stored
	}
	return result, nil
}

func (s *bookingService) replay(ctx context.Context, key string) *domain.Booking {
	id, err := s.idempotencyRepo.Lookup(ctx, key)
	if err != nil {
		logger.WarnContext(ctx, "Idempotency lookup failed", "error", err)
		return nil
	}
	if id == 0 {
		return nil
	}
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		logger.WarnContext(ctx, "Failed to load replayed booking", "error", err, "booking_id", id)
		return nil
	}
	return b
}

// depositStatus returns whether the deposit counts as paid and whether the
// payment provider confirmed it. Without a provider the client flag is
// trusted but never confirms the booking.
func (s *bookingService) depositStatus(ctx context.Context, req *domain.BookingRequest) (paid, verified bool) {
	if req.PaymentReference == "" || s.deposits == nil || !s.deposits.Enabled() {
		return req.DepositPaid, false
	}

	ok, err := s.deposits.VerifyDeposit(ctx, req.PaymentReference, s.engine.Policy().DepositCents)
	if err != nil {
		logger.WarnContext(ctx, "Deposit verification failed, booking stays pending",
			"error", err,
			"payment_intent_id", req.PaymentReference,
		)
		return false, false
	}
	return ok, ok
}

func (s *bookingService) publishCreated(ctx context.Context, b *domain.Booking, exp catalog.Experience, stored bool) {
	companions := make([]events.Companion, 0, len(b.Companions))
	for _, c := range b.Companions {
		companions = append(companions, events.Companion{Name: c.Name, Email: c.Email})
	}
	addOns := make([]string, 0, len(b.AddOns))
	for _, id := range b.AddOns {
		addOns = append(addOns, s.catalog.AddOnName(id))
	}

	event := events.BookingCreatedEvent{
		Status:          string(b.Status),
		ExperienceID:    exp.ID,
		ExperienceName:  exp.Name,
		CustomerName:    b.Guest.FullName(),
		CustomerEmail:   b.Guest.Email,
		CustomerPhone:   b.Guest.Phone,
		CustomerAddress: b.Guest.Address,
		CheckIn:         b.CheckIn,
		CheckOut:        b.CheckOut,
		ExtraBefore:     extraEvent(b.ExtraBefore),
		ExtraAfter:      extraEvent(b.ExtraAfter),
		Occupancy:       string(b.Occupancy),
		TotalGuests:     b.TotalGuests,
		Companions:      companions,
		AddOns:          addOns,
		Notes:           b.Notes,
		PhysicalAbility: b.Details.PhysicalAbility,
		BathroomAck:     b.Details.BathroomAck,
		RoomingWith:     b.Details.RoomingWith,
		MarketingSource: b.Details.MarketingSource,
		AdditionalInfo:  b.Details.AdditionalInfo,
		Recommended:     b.Recommended,
		PaymentIntentID: b.PaymentIntentID,
		Pricing:         b.Pricing,
		CreatedAt:       b.CreatedAt,
	}
	if stored {
		event.BookingID = b.ID
	}

	if err := s.publisher.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err)
	}
}

func extraEvent(e *domain.ExtraDays) *events.ExtraDays {
	if e == nil {
		return nil
	}
	n, _ := e.NightCount()
	if n == 0 {
		return nil
	}
	return &events.ExtraDays{From: e.CheckIn, To: e.CheckOut, Nights: n}
}

func (s *bookingService) ConfirmPayment(ctx context.Context, paymentIntentID string) ([]int64, error) {
	if paymentIntentID == "" {
		return nil, errors.New("payment intent id is required")
	}
	ids, err := s.bookingRepo.ConfirmByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm bookings for %s: %w", paymentIntentID, err)
	}
	for _, id := range ids {
		logger.InfoContext(ctx, "Booking confirmed", "booking_id", id, "payment_intent_id", paymentIntentID)
	}
	return ids, nil
}

// HandlePaymentCaptured consumes payment.captured events.
func (s *bookingService) HandlePaymentCaptured(msg *events.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ctx = logger.WithService(ctx, "bookings")

	var evt events.PaymentCapturedEvent
	if err := msg.Decode(&evt); err != nil {
		logger.ErrorContext(ctx, "Invalid payment captured event", "error", err)
		return
	}
	ids, err := s.ConfirmPayment(ctx, evt.PaymentIntentID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to confirm payment", "error", err)
		return
	}
	if len(ids) == 0 {
		logger.WarnContext(ctx, "No pending booking for captured payment", "payment_intent_id", evt.PaymentIntentID)
	}
}
