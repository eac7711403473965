package handlers

import (
	"encoding/json"
	"strings"

	"github.com/diagnosis/provence-bookings/internal/recommend"
	"github.com/diagnosis/provence-bookings/internal/utils"
)

// recommendRequest is the questionnaire form. Interests may arrive as a list
// or as a single comma separated string.
type recommendRequest struct {
	Interests       interests `json:"interests"`
	ActivityLevel   string    `json:"activity_level"`
	GroupPreference string    `json:"group_preference"`
}

func (q recommendRequest) toAnswers() recommend.Answers {
	return recommend.Answers{
		Interests:       utils.CleanList(q.Interests),
		ActivityLevel:   strings.TrimSpace(q.ActivityLevel),
		GroupPreference: strings.TrimSpace(q.GroupPreference),
	}
}

type interests []string

func (i *interests) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*i = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*i = strings.Split(s, ",")
	return nil
}
