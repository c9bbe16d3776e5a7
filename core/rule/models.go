package rule

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core/workshop"
)

// Kinds, as stored and exchanged.
const (
	KindBelegung  = "belegung"
	KindFolgekurs = "folgekurs"
)

// Rule is either a Belegung or a Folgekurs.
type Rule interface {
	RuleName() string
	Kind() string
	// References reports whether the rule names the given workshop.
	References(ws string) bool
	sealed()
}

// Belegung is a coverage requirement: every listed workshop must have been taken at least once.
type Belegung struct {
	Name      string
	Workshops []string
}

// Folgekurs obliges students who took From in the previous trimester to take To in the current one.
// With SameBand, To must be taken in the band From was taken in.
type Folgekurs struct {
	Name     string
	From     string
	To       string
	SameBand bool
}

func (b Belegung) RuleName() string { return b.Name }
func (b Belegung) Kind() string     { return KindBelegung }
func (b Belegung) sealed()          {}

func (b Belegung) References(ws string) bool {
	ws = workshop.NormalizeName(ws)
	for _, w := range b.Workshops {
		if workshop.NormalizeName(w) == ws {
			return true
		}
	}
	return false
}

func (f Folgekurs) RuleName() string { return f.Name }
func (f Folgekurs) Kind() string     { return KindFolgekurs }
func (f Folgekurs) sealed()          {}

func (f Folgekurs) References(ws string) bool {
	ws = workshop.NormalizeName(ws)
	return workshop.NormalizeName(f.From) == ws || workshop.NormalizeName(f.To) == ws
}

// Envelope is the flat wire and storage form of a Rule.
type Envelope struct {
	Kind      string   `json:"kind"`
	Name      string   `json:"name"`
	Workshops []string `json:"workshops,omitempty"`
	From      string   `json:"from,omitempty"`
	To        string   `json:"to,omitempty"`
	SameBand  bool     `json:"same_band,omitempty"`
}

var ErrUnknownKind = errors.New("unknown rule kind")

func Wrap(r Rule) Envelope {
	switch r := r.(type) {
	case Belegung:
		return Envelope{Kind: KindBelegung, Name: r.Name, Workshops: r.Workshops}
	case Folgekurs:
		return Envelope{Kind: KindFolgekurs, Name: r.Name, From: r.From, To: r.To, SameBand: r.SameBand}
	}
	panic("rule: unhandled rule type")
}

func (env Envelope) Rule() (Rule, error) {
	switch env.Kind {
	case KindBelegung:
		return Belegung{Name: env.Name, Workshops: env.Workshops}, nil
	case KindFolgekurs:
		return Folgekurs{Name: env.Name, From: env.From, To: env.To, SameBand: env.SameBand}, nil
	}
	return nil, errors.Wrapf(ErrUnknownKind, "%q", env.Kind)
}

// Set is an ordered list of rules which (de)serializes as envelopes.
type Set []Rule

func (s Set) MarshalJSON() ([]byte, error) {
	envs := make([]Envelope, 0, len(s))
	for _, r := range s {
		envs = append(envs, Wrap(r))
	}
	return json.Marshal(envs)
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var envs []Envelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return err
	}
	res := make(Set, 0, len(envs))
	for _, env := range envs {
		r, err := env.Rule()
		if err != nil {
			return err
		}
		res = append(res, r)
	}
	*s = res
	return nil
}

func (s Set) Folgekurse() []Folgekurs {
	var res []Folgekurs
	for _, r := range s {
		if f, ok := r.(Folgekurs); ok {
			res = append(res, f)
		}
	}
	return res
}

func (s Set) Belegungen() []Belegung {
	var res []Belegung
	for _, r := range s {
		if b, ok := r.(Belegung); ok {
			res = append(res, b)
		}
	}
	return res
}

// Compliance is the result of checking one Belegung against a student's record.
type Compliance struct {
	Rule      string   `json:"rule"`
	Satisfied bool     `json:"satisfied"`
	Missing   []string `json:"missing"`
}

// Coverage checks every Belegung rule of the set against the workshops a student has ever taken.
// All listed workshops are required.
func (s Set) Coverage(taken map[string]bool) []Compliance {
	norm := make(map[string]bool, len(taken))
	for w, ok := range taken {
		norm[workshop.NormalizeName(w)] = ok
	}
	res := make([]Compliance, 0)
	for _, b := range s.Belegungen() {
		missing := make([]string, 0)
		for _, w := range b.Workshops {
			if !norm[workshop.NormalizeName(w)] {
				missing = append(missing, w)
			}
		}
		sort.Strings(missing)
		res = append(res, Compliance{Rule: b.Name, Satisfied: len(missing) == 0, Missing: missing})
	}
	return res
}

// NewRule contains information needed to create a new Rule.
type NewRule struct {
	Kind      string   `json:"kind" validate:"required,oneof=belegung folgekurs"`
	Name      string   `json:"name" validate:"required,max=255"`
	Workshops []string `json:"workshops" validate:"omitempty,dive,required"`
	From      string   `json:"from" validate:"max=255"`
	To        string   `json:"to" validate:"max=255"`
	SameBand  bool     `json:"same_band"`
}

func (nr NewRule) Rule() Rule {
	r, _ := Envelope{
		Kind:      nr.Kind,
		Name:      nr.Name,
		Workshops: nr.Workshops,
		From:      nr.From,
		To:        nr.To,
		SameBand:  nr.SameBand,
	}.Rule()
	return r
}
