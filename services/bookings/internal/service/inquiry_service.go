package service

import (
	"context"
	"time"

	"github.com/diagnosis/provence-bookings/internal/utils"
	"github.com/diagnosis/provence-bookings/pkg/events"
	"github.com/diagnosis/provence-bookings/pkg/logger"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/domain"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/repository"
)

type InquiryService interface {
	SubmitCustomRequest(ctx context.Context, in *domain.CustomRequestInput) (*domain.CustomRequest, error)
}

type inquiryService struct {
	repo      repository.CustomRequestRepository
	publisher events.Publisher
}

func NewInquiryService(repo repository.CustomRequestRepository, publisher events.Publisher) InquiryService {
	return &inquiryService{repo: repo, publisher: publisher}
}

// SubmitCustomRequest stores the inquiry with status "new" and notifies the
// business. As with bookings, a storage failure is logged and the
// notification still goes out.
func (s *inquiryService) SubmitCustomRequest(ctx context.Context, in *domain.CustomRequestInput) (*domain.CustomRequest, error) {
	in.Normalize()
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	cr, err := s.repo.Create(ctx, in)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to store custom request", "error", err, "email", utils.MaskEmail(in.Email))
		cr = &domain.CustomRequest{
			Name:           in.Name,
			Email:          in.Email,
			Phone:          in.Phone,
			PreferredDates: in.PreferredDates,
			GroupSize:      in.GroupSize,
			Interests:      in.Interests,
			Message:        in.Message,
			Status:         domain.CustomRequestNew,
			CreatedAt:      time.Now(),
		}
	}

	event := events.CustomRequestCreatedEvent{
		RequestID:      cr.ID,
		Name:           cr.Name,
		Email:          cr.Email,
		Phone:          cr.Phone,
		PreferredDates: cr.PreferredDates,
		GroupSize:      cr.GroupSize,
		Interests:      cr.Interests,
		Message:        cr.Message,
		CreatedAt:      cr.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, events.CustomRequestCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish custom request event", "error", err)
	}

	return cr, nil
}
