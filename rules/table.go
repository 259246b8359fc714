package rules

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/terms"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBoostWeight   = 0.05
	DefaultMaxBoost      = 0.25
	DefaultPenaltyWeight = 0.2
	DefaultScoreFloor    = -2.0
)

// Condition adds penalties or exclusions when the query mentions any trigger.
type Condition struct {
	Triggers       []string `yaml:"triggers"`
	PenaltyTerms   []string `yaml:"penalty_terms,omitempty"`
	HardExclusions []string `yaml:"hard_exclusions,omitempty"`
}

// Domain is one entry of the rule table. In a YAML table an omitted weight
// takes its default and an explicit 0 is kept; in a table built in Go a zero
// weight means unset and is replaced by the default.
type Domain struct {
	Name           string      `yaml:"name"`
	Keywords       []string    `yaml:"keywords"`
	BoostTerms     []string    `yaml:"boost_terms,omitempty"`
	PenaltyTerms   []string    `yaml:"penalty_terms,omitempty"`
	HardExclusions []string    `yaml:"hard_exclusions,omitempty"`
	BoostWeight    float64     `yaml:"boost_weight"`
	MaxBoost       float64     `yaml:"max_boost"`
	PenaltyWeight  float64     `yaml:"penalty_weight"`
	Conditions     []Condition `yaml:"conditions,omitempty"`
}

// Table is the ordered set of domains. Order breaks detection ties.
type Table struct {
	ScoreFloor float64  `yaml:"score_floor"`
	Domains    []Domain `yaml:"domains"`
}

// UnmarshalYAML presets the default weights so only keys present in the
// document override them.
func (d *Domain) UnmarshalYAML(node *yaml.Node) error {
	type plain Domain
	p := plain{
		BoostWeight:   DefaultBoostWeight,
		MaxBoost:      DefaultMaxBoost,
		PenaltyWeight: DefaultPenaltyWeight,
	}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = Domain(p)
	return nil
}

// UnmarshalYAML presets the default score floor.
func (t *Table) UnmarshalYAML(node *yaml.Node) error {
	type plain Table
	p := plain{ScoreFloor: DefaultScoreFloor}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*t = Table(p)
	return nil
}

// Validate checks names and weights.
func (t *Table) Validate() error {
	if len(t.Domains) == 0 {
		return ErrEmptyTable
	}
	if t.ScoreFloor > 0 || math.IsNaN(t.ScoreFloor) {
		return fmt.Errorf("%w: score floor must not be positive", ErrInvalidDomain)
	}
	seen := make(map[string]bool)
	for _, d := range t.Domains {
		name := strings.ToLower(strings.TrimSpace(d.Name))
		if name == "" || name == core.DomainGeneral {
			return fmt.Errorf("%w: name %q", ErrInvalidDomain, d.Name)
		}
		if seen[name] {
			return fmt.Errorf("%w: %s", ErrDuplicateDomain, name)
		}
		seen[name] = true
		if len(d.Keywords) == 0 {
			return fmt.Errorf("%w: %s has no keywords", ErrInvalidDomain, name)
		}
		if d.BoostWeight < 0 || d.MaxBoost < 0 || d.PenaltyWeight < 0 {
			return fmt.Errorf("%w: %s has a negative weight", ErrInvalidDomain, name)
		}
	}
	return nil
}

func (t *Table) normalizeNames() {
	for i := range t.Domains {
		t.Domains[i].Name = strings.ToLower(strings.TrimSpace(t.Domains[i].Name))
	}
}

// normalize lowercases names and fills zero weights with defaults.
func (t *Table) normalize() {
	t.normalizeNames()
	if t.ScoreFloor == 0 {
		t.ScoreFloor = DefaultScoreFloor
	}
	for i := range t.Domains {
		d := &t.Domains[i]
		if d.BoostWeight == 0 {
			d.BoostWeight = DefaultBoostWeight
		}
		if d.MaxBoost == 0 {
			d.MaxBoost = DefaultMaxBoost
		}
		if d.PenaltyWeight == 0 {
			d.PenaltyWeight = DefaultPenaltyWeight
		}
	}
}

// Domain returns the named domain.
func (t *Table) Domain(name string) (*Domain, bool) {
	for i := range t.Domains {
		if t.Domains[i].Name == name {
			return &t.Domains[i], true
		}
	}
	return nil, false
}

// Names returns the domain names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Domains))
	for i, d := range t.Domains {
		names[i] = d.Name
	}
	return names
}

// Detect picks the domain whose keywords have the most distinct matches in
// text. Ties go to the domain declared first; no matches yields
// core.DomainGeneral.
func (t *Table) Detect(text string) string {
	m := terms.NewMatcher(text)
	best, bestCount := core.DomainGeneral, 0
	for _, d := range t.Domains {
		if n := m.Count(d.Keywords); n > bestCount {
			best, bestCount = d.Name, n
		}
	}
	return best
}

// ParseTable decodes a YAML rule table, applies default weights and validates it.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	t.normalizeNames()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	return &t, nil
}

// LoadTable reads a YAML rule table from path.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	return ParseTable(data)
}

// Encode renders the table in the format ParseTable reads.
func (t *Table) Encode() ([]byte, error) {
	return yaml.Marshal(t)
}
