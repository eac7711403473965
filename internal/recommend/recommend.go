package recommend

import (
	"sort"
	"strings"

	"github.com/diagnosis/provence-bookings/internal/catalog"
	"github.com/diagnosis/provence-bookings/internal/utils"
)

const (
	interestPoints = 3
	activityPoints = 2
	groupPoints    = 2
)

type Answers struct {
	Interests       []string `json:"interests"`
	ActivityLevel   string   `json:"activity_level"`
	GroupPreference string   `json:"group_preference"`
}

// IsEmpty reports whether nothing was answered.
func (a Answers) IsEmpty() bool {
	return len(a.Interests) == 0 && a.ActivityLevel == "" && a.GroupPreference == ""
}

// Normalized trims the answers and drops repeated interests.
func (a Answers) Normalized() Answers {
	return Answers{
		Interests:       utils.CleanList(a.Interests),
		ActivityLevel:   strings.TrimSpace(a.ActivityLevel),
		GroupPreference: strings.TrimSpace(a.GroupPreference),
	}
}

type Match struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Recommend scores every experience against the answers and returns those
// with a positive score, best first. Equal scores keep catalog order. An
// empty result means no strong match; callers show the full catalog.
func Recommend(experiences []catalog.Experience, answers Answers) []Match {
	matches := make([]Match, 0, len(experiences))
	for _, e := range experiences {
		if score := Score(e, answers); score > 0 {
			matches = append(matches, Match{ID: e.ID, Name: e.Name, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Score treats interests as a set: a repeated interest counts once.
func Score(e catalog.Experience, answers Answers) int {
	score := 0
	seen := make(map[string]struct{}, len(answers.Interests))
	for _, interest := range answers.Interests {
		if _, dup := seen[interest]; dup {
			continue
		}
		seen[interest] = struct{}{}
		if contains(e.Interests, interest) {
			score += interestPoints
		}
	}
	if answers.ActivityLevel != "" && contains(e.Activity, answers.ActivityLevel) {
		score += activityPoints
	}
	if answers.GroupPreference != "" && contains(e.Group, answers.GroupPreference) {
		score += groupPoints
	}
	return score
}

func IDs(matches []Match) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
