package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrUnknownExperience = errors.New("unknown experience")

type RuleKind string

const (
	FixedWeekOfMonth   RuleKind = "fixed_week_of_month"
	AllWeeksInMonths   RuleKind = "all_weeks_in_months"
	FillRemainingWeeks RuleKind = "fill_remaining_weeks"
)

// WeeksPerMonth is the number of Monday-anchored weeks offered in a month.
const WeeksPerMonth = 4

type ScheduleRule struct {
	Kind   RuleKind `yaml:"kind" json:"kind"`
	Week   int      `yaml:"week,omitempty" json:"week,omitempty"`
	Months []int    `yaml:"months,omitempty" json:"months,omitempty"`
}

type Experience struct {
	ID        string       `yaml:"id" json:"id"`
	Name      string       `yaml:"name" json:"name"`
	Summary   string       `yaml:"summary" json:"summary,omitempty"`
	Interests []string     `yaml:"interests" json:"interests"`
	Activity  []string     `yaml:"activity" json:"activity"`
	Group     []string     `yaml:"group" json:"group"`
	Schedule  ScheduleRule `yaml:"schedule" json:"schedule"`
}

type AddOn struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	PriceCents int64  `yaml:"price_cents" json:"price_cents"`
}

// Catalog is read-only once loaded.
type Catalog struct {
	Experiences []Experience `yaml:"experiences" json:"experiences"`
	AddOns      []AddOn      `yaml:"add_ons" json:"add_ons"`

	experiences map[string]int
	addOns      map[string]int
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.index()
	return &c, nil
}

func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Experiences))
	fills := 0
	for _, e := range c.Experiences {
		if e.ID == "" {
			return fmt.Errorf("catalog: experience %q has no id", e.Name)
		}
		if seen[e.ID] {
			return fmt.Errorf("catalog: duplicate experience id %q", e.ID)
		}
		seen[e.ID] = true

		rule := e.Schedule
		switch rule.Kind {
		case FixedWeekOfMonth:
			if rule.Week < 1 || rule.Week > WeeksPerMonth {
				return fmt.Errorf("catalog: %s: week must be between 1 and %d", e.ID, WeeksPerMonth)
			}
		case AllWeeksInMonths:
		case FillRemainingWeeks:
			fills++
			if fills > 1 {
				return fmt.Errorf("catalog: %s: only one experience may fill remaining weeks", e.ID)
			}
		default:
			return fmt.Errorf("catalog: %s: unknown schedule rule %q", e.ID, rule.Kind)
		}
		for _, m := range rule.Months {
			if m < 1 || m > 12 {
				return fmt.Errorf("catalog: %s: month %d out of range", e.ID, m)
			}
		}
	}

	addOns := make(map[string]bool, len(c.AddOns))
	for _, a := range c.AddOns {
		if a.ID == "" || addOns[a.ID] {
			return fmt.Errorf("catalog: missing or duplicate add-on id %q", a.ID)
		}
		if a.PriceCents < 0 {
			return fmt.Errorf("catalog: add-on %s has a negative price", a.ID)
		}
		addOns[a.ID] = true
	}
	return nil
}

func (c *Catalog) index() {
	c.experiences = make(map[string]int, len(c.Experiences))
	for i, e := range c.Experiences {
		c.experiences[e.ID] = i
	}
	c.addOns = make(map[string]int, len(c.AddOns))
	for i, a := range c.AddOns {
		c.addOns[a.ID] = i
	}
}

func (c *Catalog) Lookup(id string) (Experience, bool) {
	i, ok := c.experiences[id]
	if !ok {
		return Experience{}, false
	}
	return c.Experiences[i], true
}

func (c *Catalog) AddOnPrice(id string) (int64, bool) {
	i, ok := c.addOns[id]
	if !ok {
		return 0, false
	}
	return c.AddOns[i].PriceCents, true
}

// AddOnName returns the display name, or id itself when unknown.
func (c *Catalog) AddOnName(id string) string {
	if i, ok := c.addOns[id]; ok {
		return c.AddOns[i].Name
	}
	return id
}
