package service

import (
	"fmt"
	"time"

	"github.com/diagnosis/provence-bookings/internal/catalog"
	"github.com/diagnosis/provence-bookings/internal/recommend"
	"github.com/diagnosis/provence-bookings/internal/schedule"
)

// Recommendations is the questionnaire result. ShowAll tells the client to
// fall back to the full catalog because nothing matched.
type Recommendations struct {
	Matches []recommend.Match `json:"matches"`
	ShowAll bool              `json:"show_all"`
}

type ExperienceService interface {
	List() []catalog.Experience
	AddOns() []catalog.AddOn
	Schedule(id string) ([]schedule.Slot, error)
	Recommend(answers recommend.Answers) Recommendations
}

type experienceService struct {
	catalog *catalog.Catalog
	now     func() time.Time
}

func NewExperienceService(cat *catalog.Catalog) ExperienceService {
	return &experienceService{catalog: cat, now: time.Now}
}

func (s *experienceService) List() []catalog.Experience {
	return s.catalog.Experiences
}

func (s *experienceService) AddOns() []catalog.AddOn {
	return s.catalog.AddOns
}

func (s *experienceService) Schedule(id string) ([]schedule.Slot, error) {
	if _, ok := s.catalog.Lookup(id); !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownExperience, id)
	}
	return schedule.ForExperience(s.catalog.Experiences, id, s.now()), nil
}

func (s *experienceService) Recommend(answers recommend.Answers) Recommendations {
	matches := recommend.Recommend(s.catalog.Experiences, answers)
	return Recommendations{Matches: matches, ShowAll: len(matches) == 0}
}
