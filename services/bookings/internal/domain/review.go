package domain

import (
	"strings"
	"time"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

func ParseReviewStatus(s string) (ReviewStatus, bool) {
	switch ReviewStatus(s) {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return ReviewStatus(s), true
	default:
		return "", false
	}
}

type Review struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Location     string       `json:"location,omitempty"`
	ExperienceID string       `json:"experience_id,omitempty"`
	Rating       int          `json:"rating"`
	Text         string       `json:"text"`
	Status       ReviewStatus `json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
}

type ReviewRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Location     string `json:"location" validate:"max=120"`
	ExperienceID string `json:"experience_id" validate:"max=100"`
	Rating       int    `json:"rating" validate:"required,gte=1,lte=5"`
	Text         string `json:"text" validate:"required,max=4000"`
}

func (r *ReviewRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)
	r.ExperienceID = strings.TrimSpace(r.ExperienceID)
	r.Text = strings.TrimSpace(r.Text)
}
