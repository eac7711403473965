package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/provence-bookings/internal/catalog"
	"github.com/diagnosis/provence-bookings/internal/recommend"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/domain"
)

func TestExperienceService(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	svc := NewExperienceService(cat).(*experienceService)
	svc.now = func() time.Time { return time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC) }

	assert.Len(t, svc.List(), len(cat.Experiences))
	assert.NotEmpty(t, svc.AddOns())

	slots, err := svc.Schedule("lavender-workshop")
	require.NoError(t, err)
	assert.Len(t, slots, 8, "four weeks in June and July")

	_, err = svc.Schedule("nope")
	assert.ErrorIs(t, err, catalog.ErrUnknownExperience)

	recs := svc.Recommend(recommend.Answers{})
	assert.True(t, recs.ShowAll)
	assert.Empty(t, recs.Matches)

	recs = svc.Recommend(recommend.Answers{Interests: []string{"solitude"}})
	assert.False(t, recs.ShowAll)
	assert.NotEmpty(t, recs.Matches)
}

func TestReviewService(t *testing.T) {
	repo := &mockReviewRepo{status: map[int64]domain.ReviewStatus{1: domain.ReviewPending}}
	svc := NewReviewService(repo)
	ctx := context.Background()

	rv, err := svc.Submit(ctx, &domain.ReviewRequest{Name: " Jo ", Rating: 5, Text: "Wonderful week"})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPending, rv.Status)
	assert.Equal(t, "Jo", repo.created[0].Name)

	_, err = svc.Submit(ctx, &domain.ReviewRequest{Name: "Jo", Rating: 0, Text: "x"})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.ListApproved(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, repo.listed, "only approved reviews are public")

	ok, err := svc.Moderate(ctx, 1, domain.ReviewApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Moderate(ctx, 42, domain.ReviewApproved)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Moderate(ctx, 1, domain.ReviewPending)
	assert.Error(t, err)
}

func TestInquiryService(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewInquiryService(&mockCustomRequestRepo{}, pub)

	cr, err := svc.SubmitCustomRequest(context.Background(), &domain.CustomRequestInput{Name: "Lee", Email: "LEE@example.com", Message: "Family trip"})
	require.NoError(t, err)
	assert.Equal(t, domain.CustomRequestNew, cr.Status)
	assert.Equal(t, int64(9), cr.ID)

	evt, ok := pub.last()
	require.True(t, ok)
	assert.Equal(t, "custom_request.created", evt.subject)

	// Storage failure still notifies.
	pub = &mockPublisher{}
	svc = NewInquiryService(&mockCustomRequestRepo{err: errDB}, pub)
	cr, err = svc.SubmitCustomRequest(context.Background(), &domain.CustomRequestInput{Name: "Lee", Email: "lee@example.com", Message: "Family trip"})
	require.NoError(t, err)
	assert.Zero(t, cr.ID)
	assert.Len(t, pub.events, 1)

	_, err = svc.SubmitCustomRequest(context.Background(), &domain.CustomRequestInput{Name: "Lee", Email: "bad"})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}
