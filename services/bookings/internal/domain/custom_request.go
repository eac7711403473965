package domain

import (
	"strings"
	"time"

	"github.com/diagnosis/provence-bookings/internal/utils"
)

const CustomRequestNew = "new"

// CustomRequest is a free-form inquiry for a trip outside the catalog.
type CustomRequest struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	PreferredDates string    `json:"preferred_dates,omitempty"`
	GroupSize      int       `json:"group_size"`
	Interests      []string  `json:"interests"`
	Message        string    `json:"message"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type CustomRequestInput struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Email          string   `json:"email" validate:"required,email,max=254"`
	Phone          string   `json:"phone" validate:"omitempty,max=40,phone"`
	PreferredDates string   `json:"preferred_dates" validate:"max=200"`
	GroupSize      int      `json:"group_size" validate:"gte=0,lte=50"`
	Interests      []string `json:"interests" validate:"max=20,dive,max=100"`
	Message        string   `json:"message" validate:"required,max=4000"`
}

func (in *CustomRequestInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.PreferredDates = strings.TrimSpace(in.PreferredDates)
	in.Interests = utils.CleanList(in.Interests)
	in.Message = strings.TrimSpace(in.Message)
	if in.GroupSize == 0 {
		in.GroupSize = 1
	}
}
