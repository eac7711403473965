package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/provence-bookings/pkg/logger"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/domain"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/repository"
)

type ReviewService interface {
	Submit(ctx context.Context, req *domain.ReviewRequest) (*domain.Review, error)
	ListApproved(ctx context.Context, limit int) ([]domain.Review, error)
	ListPending(ctx context.Context, limit int) ([]domain.Review, error)
	Moderate(ctx context.Context, id int64, status domain.ReviewStatus) (bool, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository) ReviewService {
	return &reviewService{reviewRepo: reviewRepo}
}

// Submit stores the review as pending; it is not visible until approved.
func (s *reviewService) Submit(ctx context.Context, req *domain.ReviewRequest) (*domain.Review, error) {
	req.Normalize()
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to store review: %w", err)
	}
	logger.InfoContext(ctx, "Review submitted", "review_id", review.ID, "rating", review.Rating)
	return review, nil
}

func (s *reviewService) ListApproved(ctx context.Context, limit int) ([]domain.Review, error) {
	return s.reviewRepo.ListByStatus(ctx, domain.ReviewApproved, limit)
}

func (s *reviewService) ListPending(ctx context.Context, limit int) ([]domain.Review, error) {
	return s.reviewRepo.ListByStatus(ctx, domain.ReviewPending, limit)
}

func (s *reviewService) Moderate(ctx context.Context, id int64, status domain.ReviewStatus) (bool, error) {
	if status == domain.ReviewPending {
		return false, domain.NewValidationError("status", "must be approved or rejected")
	}
	ok, err := s.reviewRepo.SetStatus(ctx, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to update review %d: %w", id, err)
	}
	return ok, nil
}
