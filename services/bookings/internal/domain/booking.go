package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/provence-bookings/internal/dates"
	"github.com/diagnosis/provence-bookings/internal/pricing"
	"github.com/diagnosis/provence-bookings/internal/recommend"
	"github.com/diagnosis/provence-bookings/internal/utils"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCanceled  BookingStatus = "cancelled"
)

type Guest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone" validate:"omitempty,max=40,phone"`
	Address   string `json:"address" validate:"omitempty,max=500"`
}

func (g Guest) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

type DateRange struct {
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

// ExtraDays is an optional block of nights before or after the core trip.
// A block with only a check-in date counts as one night.
type ExtraDays struct {
	CheckIn  string `json:"check_in" validate:"omitempty,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"omitempty,datetime=2006-01-02"`
	Nights   int    `json:"nights" validate:"gte=0,lte=30"`
}

// UnmarshalJSON accepts the object form, a bare night count (2 or "2"),
// a "YYYY-MM-DD to YYYY-MM-DD" string, and the calendar widget's
// {"dates": ["from", "to"], "nights": n} shape.
func (e *ExtraDays) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		e.setLegacy(s)
		return nil
	case '{':
		type plain ExtraDays
		var aux struct {
			plain
			Dates json.RawMessage `json:"dates"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return err
		}
		*e = ExtraDays(aux.plain)
		if len(aux.Dates) == 0 || e.CheckIn != "" {
			return nil
		}
		var list []string
		if err := json.Unmarshal(aux.Dates, &list); err == nil {
			if len(list) > 0 {
				e.CheckIn = strings.TrimSpace(list[0])
			}
			if len(list) > 1 {
				e.CheckOut = strings.TrimSpace(list[1])
			}
			return nil
		}
		var s string
		if err := json.Unmarshal(aux.Dates, &s); err != nil {
			return fmt.Errorf("extra days dates: %w", err)
		}
		e.CheckIn, e.CheckOut = dates.SplitLegacyRange(s)
		return nil
	default:
		return json.Unmarshal(data, &e.Nights)
	}
}

func (e *ExtraDays) setLegacy(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if n, err := strconv.Atoi(s); err == nil {
		e.Nights = n
		return
	}
	e.CheckIn, e.CheckOut = dates.SplitLegacyRange(s)
}

// NightCount prefers the date range; Nights is used when no dates were picked.
func (e *ExtraDays) NightCount() (int, error) {
	if e == nil {
		return 0, nil
	}
	switch {
	case e.CheckIn != "" && e.CheckOut != "":
		return dates.NightsBetween(e.CheckIn, e.CheckOut)
	case e.CheckIn != "":
		return 1, nil
	default:
		return e.Nights, nil
	}
}

type Companion struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
}

// GuestDetails are the optional questionnaire extras the business reads
// before confirming a trip.
type GuestDetails struct {
	PhysicalAbility string `json:"physical_ability,omitempty" validate:"max=1000"`
	BathroomAck     bool   `json:"bathroom_ack,omitempty"`
	RoomingWith     string `json:"rooming_with,omitempty" validate:"max=500"`
	MarketingSource string `json:"marketing_source,omitempty" validate:"max=200"`
	AdditionalInfo  string `json:"additional_info,omitempty" validate:"max=4000"`
}

func (d GuestDetails) IsEmpty() bool {
	return d == GuestDetails{}
}

// BookingRequest is the booking form submission. QuestionnaireAnswers is
// passed explicitly when the customer filled in the questionnaire. Dates is
// the calendar widget's "YYYY-MM-DD to YYYY-MM-DD" value and is only read
// when DateRange is empty.
type BookingRequest struct {
	PrimaryGuest         Guest              `json:"primary_guest"`
	ExperienceID         string             `json:"experience_id" validate:"required,max=100"`
	Occupancy            pricing.Occupancy  `json:"occupancy" validate:"required"`
	TotalGuests          int                `json:"total_guests" validate:"gte=1,lte=12"`
	DateRange            DateRange          `json:"date_range"`
	Dates                string             `json:"dates,omitempty" validate:"max=40"`
	ExtraDaysBefore      *ExtraDays         `json:"extra_days_before,omitempty"`
	ExtraDaysAfter       *ExtraDays         `json:"extra_days_after,omitempty"`
	AddOns               []string           `json:"add_ons" validate:"max=20,dive,max=100"`
	TravelCompanions     []Companion        `json:"travel_companions" validate:"max=11,dive"`
	Notes                string             `json:"notes" validate:"max=4000"`
	QuestionnaireAnswers *recommend.Answers `json:"questionnaire_answers,omitempty"`
	PhysicalAbility      string             `json:"physical_ability" validate:"max=1000"`
	BathroomAck          bool               `json:"bathroom_ack"`
	RoomingWith          string             `json:"rooming_with" validate:"max=500"`
	MarketingSource      string             `json:"marketing_source" validate:"max=200"`
	AdditionalInfo       string             `json:"additional_info" validate:"max=4000"`
	DepositPaid          bool               `json:"deposit_paid"`
	PaymentReference     string             `json:"payment_reference" validate:"max=255"`
}

func (r *BookingRequest) Details() GuestDetails {
	return GuestDetails{
		PhysicalAbility: r.PhysicalAbility,
		BathroomAck:     r.BathroomAck,
		RoomingWith:     r.RoomingWith,
		MarketingSource: r.MarketingSource,
		AdditionalInfo:  r.AdditionalInfo,
	}
}

// Normalize trims free text and canonicalises the email before validation.
func (r *BookingRequest) Normalize() {
	r.PrimaryGuest.FirstName = strings.TrimSpace(r.PrimaryGuest.FirstName)
	r.PrimaryGuest.LastName = strings.TrimSpace(r.PrimaryGuest.LastName)
	r.PrimaryGuest.Email = utils.NormalizeEmail(r.PrimaryGuest.Email)
	r.PrimaryGuest.Phone = strings.TrimSpace(r.PrimaryGuest.Phone)
	r.PrimaryGuest.Address = strings.TrimSpace(r.PrimaryGuest.Address)
	r.ExperienceID = strings.TrimSpace(r.ExperienceID)
	r.Dates = strings.TrimSpace(r.Dates)
	if r.DateRange == (DateRange{}) && r.Dates != "" {
		r.DateRange.CheckIn, r.DateRange.CheckOut = dates.SplitLegacyRange(r.Dates)
	}
	r.Occupancy = pricing.Occupancy(strings.ToLower(strings.TrimSpace(string(r.Occupancy))))
	r.AddOns = utils.CleanList(r.AddOns)
	r.Notes = strings.TrimSpace(r.Notes)
	r.PhysicalAbility = strings.TrimSpace(r.PhysicalAbility)
	r.RoomingWith = strings.TrimSpace(r.RoomingWith)
	r.MarketingSource = strings.TrimSpace(r.MarketingSource)
	r.AdditionalInfo = strings.TrimSpace(r.AdditionalInfo)
	r.PaymentReference = strings.TrimSpace(r.PaymentReference)
	if r.QuestionnaireAnswers != nil {
		a := r.QuestionnaireAnswers.Normalized()
		r.QuestionnaireAnswers = &a
	}
	for i := range r.TravelCompanions {
		r.TravelCompanions[i].Name = strings.TrimSpace(r.TravelCompanions[i].Name)
		r.TravelCompanions[i].Email = utils.NormalizeEmail(r.TravelCompanions[i].Email)
	}
}

// CheckCompanions enforces at most TotalGuests-1 companions.
func (r *BookingRequest) CheckCompanions() error {
	if limit := r.TotalGuests - 1; len(r.TravelCompanions) > limit {
		return &ValidationError{Fields: map[string]string{
			"travel_companions": fmt.Sprintf("at most %d travel companions for %d guests", limit, r.TotalGuests),
		}}
	}
	return nil
}

// PricingRequest converts the submission into engine input.
func (r *BookingRequest) PricingRequest(depositPaid bool) (pricing.Request, error) {
	nights, err := dates.NightsBetween(r.DateRange.CheckIn, r.DateRange.CheckOut)
	if err != nil {
		return pricing.Request{}, err
	}
	before, err := r.ExtraDaysBefore.NightCount()
	if err != nil {
		return pricing.Request{}, fmt.Errorf("extra days before: %w", err)
	}
	after, err := r.ExtraDaysAfter.NightCount()
	if err != nil {
		return pricing.Request{}, fmt.Errorf("extra days after: %w", err)
	}
	return pricing.Request{
		Occupancy:         r.Occupancy,
		TotalGuests:       r.TotalGuests,
		Nights:            nights,
		ExtraNightsBefore: before,
		ExtraNightsAfter:  after,
		AddOns:            r.AddOns,
		DepositPaid:       depositPaid,
	}, nil
}

type Booking struct {
	ID              int64              `json:"id"`
	ManageToken     string             `json:"-"`
	Status          BookingStatus      `json:"status"`
	ExperienceID    string             `json:"experience_id"`
	Guest           Guest              `json:"primary_guest"`
	CheckIn         string             `json:"check_in"`
	CheckOut        string             `json:"check_out"`
	Nights          int                `json:"nights"`
	ExtraBefore     *ExtraDays         `json:"extra_days_before,omitempty"`
	ExtraAfter      *ExtraDays         `json:"extra_days_after,omitempty"`
	Occupancy       pricing.Occupancy  `json:"occupancy"`
	TotalGuests     int                `json:"total_guests"`
	Companions      []Companion        `json:"travel_companions"`
	AddOns          []string           `json:"add_ons"`
	Notes           string             `json:"notes"`
	Answers         *recommend.Answers `json:"questionnaire_answers,omitempty"`
	Details         GuestDetails       `json:"details"`
	Recommended     []string           `json:"recommended"`
	PaymentIntentID string             `json:"payment_reference,omitempty"`
	Pricing         pricing.Breakdown  `json:"pricing"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// BookingResult is what a submission produced. Booking is nil when the
// row could not be stored; the submission still succeeds.
type BookingResult struct {
	Booking  *Booking
	Pricing  pricing.Breakdown
	Replayed bool
}

func (r *BookingResult) BookingID() *int64 {
	if r == nil || r.Booking == nil {
		return nil
	}
	id := r.Booking.ID
	return &id
}

// QuoteRequest is the estimator input; contact details are not needed.
type QuoteRequest struct {
	Occupancy       pricing.Occupancy `json:"occupancy"`
	TotalGuests     int               `json:"total_guests"`
	DateRange       DateRange         `json:"date_range"`
	Dates           string            `json:"dates,omitempty"`
	ExtraDaysBefore *ExtraDays        `json:"extra_days_before,omitempty"`
	ExtraDaysAfter  *ExtraDays        `json:"extra_days_after,omitempty"`
	AddOns          []string          `json:"add_ons"`
	DepositPaid     bool              `json:"deposit_paid"`
}

// BookingRequest goes through the same normalization as a submission so the
// estimate and the booking price agree.
func (q QuoteRequest) BookingRequest() *BookingRequest {
	r := &BookingRequest{
		Occupancy:       q.Occupancy,
		TotalGuests:     q.TotalGuests,
		DateRange:       q.DateRange,
		Dates:           q.Dates,
		ExtraDaysBefore: q.ExtraDaysBefore,
		ExtraDaysAfter:  q.ExtraDaysAfter,
		AddOns:          q.AddOns,
	}
	r.Normalize()
	return r
}
