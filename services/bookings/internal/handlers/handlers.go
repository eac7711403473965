package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/provence-bookings/internal/availability"
	"github.com/diagnosis/provence-bookings/internal/catalog"
	"github.com/diagnosis/provence-bookings/internal/dates"
	"github.com/diagnosis/provence-bookings/internal/http/response"
	"github.com/diagnosis/provence-bookings/internal/pricing"
	"github.com/diagnosis/provence-bookings/pkg/logger"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/domain"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/service"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	bookings    service.BookingService
	experiences service.ExperienceService
	reviews     service.ReviewService
	inquiries   service.InquiryService
}

func New(
	bookings service.BookingService,
	experiences service.ExperienceService,
	reviews service.ReviewService,
	inquiries service.InquiryService,
) *Handlers {
	return &Handlers{
		bookings:    bookings,
		experiences: experiences,
		reviews:     reviews,
		inquiries:   inquiries,
	}
}

// Mount registers the public API under /api. limit wraps the form posts and
// may be nil.
func (h *Handlers) Mount(r chi.Router, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/availability", h.GetAvailability)
		r.Post("/quote", h.Quote)
		r.Post("/recommendations", h.Recommend)

		r.Get("/experiences", h.ListExperiences)
		r.Get("/experiences/{id}/schedule", h.GetSchedule)

		r.Get("/reviews", h.ListReviews)

		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/booking", h.CreateBooking)
			r.Post("/reviews", h.SubmitReview)
			r.Post("/custom-request", h.SubmitCustomRequest)
		})
	})
}

// decode reads a JSON body. It writes the error response itself and reports
// whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return false
	}
	return true
}

// writeServiceError maps domain errors to status codes and stable codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		response.WriteErrorWithDetails(w, http.StatusBadRequest, "Invalid input", response.CodeInvalidInput, verr.Error())
	case errors.Is(err, catalog.ErrUnknownExperience):
		response.BadRequest(w, "Unknown experience")
	case errors.Is(err, dates.ErrInvalidRange):
		response.Invalid(w, "Check-out must be after check-in", response.CodeInvalidRange)
	case errors.Is(err, pricing.ErrInvalidNights):
		response.Invalid(w, err.Error(), response.CodeInvalidNights)
	case errors.Is(err, pricing.ErrInvalidGuestCount):
		response.Invalid(w, "At least one guest is required", response.CodeInvalidGuestCount)
	case errors.Is(err, availability.ErrDatesUnavailable):
		response.Conflict(w, "Selected dates are no longer available", response.CodeDatesUnavailable)
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		response.InternalError(w, "Something went wrong, please try again")
	}
}

func (h *Handlers) GetAvailability(w http.ResponseWriter, r *http.Request) {
	blocked, err := h.bookings.Availability(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to load availability", "error", err)
		response.ServiceUnavailable(w, "Availability is temporarily unavailable")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"blocked": blocked})
}

type bookingResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	BookingID *int64            `json:"bookingId,omitempty"`
	Pricing   pricing.Breakdown `json:"pricing"`
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.bookings.CreateBooking(r.Context(), &req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	response.WriteJSON(w, status, bookingResponse{
		Success:   true,
		Message:   "Booking request received. A confirmation email is on its way.",
		BookingID: res.BookingID(),
		Pricing:   res.Pricing,
	})
}

func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteRequest
	if !decode(w, r, &req) {
		return
	}

	breakdown, err := h.bookings.Quote(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, breakdown)
}

func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var answers recommendRequest
	if !decode(w, r, &answers) {
		return
	}
	response.WriteJSON(w, http.StatusOK, h.experiences.Recommend(answers.toAnswers()))
}

func (h *Handlers) ListExperiences(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"experiences": h.experiences.List(),
		"add_ons":     h.experiences.AddOns(),
	})
}

func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slots, err := h.experiences.Schedule(id)
	if errors.Is(err, catalog.ErrUnknownExperience) {
		response.NotFound(w, "Experience not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"experience_id": id,
		"slots":         slots,
	})
}

func (h *Handlers) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req domain.ReviewRequest
	if !decode(w, r, &req) {
		return
	}

	if _, err := h.reviews.Submit(r.Context(), &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Thank you! Your review will appear once approved.",
	})
}

func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	reviews, err := h.reviews.ListApproved(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"reviews": reviews,
	})
}

func (h *Handlers) SubmitCustomRequest(w http.ResponseWriter, r *http.Request) {
	var in domain.CustomRequestInput
	if !decode(w, r, &in) {
		return
	}

	cr, err := h.inquiries.SubmitCustomRequest(r.Context(), &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	body := map[string]any{
		"success": true,
		"message": "Thank you! We will get back to you within two days.",
	}
	if cr.ID != 0 {
		body["id"] = cr.ID
	}
	response.WriteJSON(w, http.StatusCreated, body)
}
