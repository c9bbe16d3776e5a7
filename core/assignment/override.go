package assignment

import (
	"sort"
	"time"

	"github.com/trezcool/kurswahl/core/workshop"
)

// Violation is an advisory constraint breach left by a manual placement.
type Violation struct {
	Band     workshop.Band `json:"band"`
	Workshop string        `json:"workshop"`
	Student  string        `json:"student"`
	Check    Check         `json:"check"`
	Reason   string        `json:"reason"`
}

// Draft is the working assignment of a trimester until it is finalized.
type Draft struct {
	Key SlotKey `json:"key"`
	Assignment
	Choices            ChoiceSet   `json:"choices"`
	Problems           []Problem   `json:"problems"`
	Violations         []Violation `json:"violations"`
	FirstChoiceCount   int         `json:"first_choice_count"`
	SecondChoiceCount  int         `json:"second_choice_count"`
	FirstChoicePercent float64     `json:"first_choice_percent"`
	UpdatedAt          time.Time   `json:"updated_at"` // UTC
}

func NewDraft(key SlotKey) Draft {
	return Draft{
		Key:        key,
		Assignment: NewAssignment(),
		Choices:    ChoiceSet{Band1: map[string][]string{}, Band2: map[string][]string{}},
		Problems:   make([]Problem, 0),
		Violations: make([]Violation, 0),
	}
}

// Apply replaces the draft placements and statistics by an allocation result.
func (d Draft) Apply(res Result) Draft {
	d.Assignment = res.Assignment.Clone()
	d.Problems = res.Problems
	d.Violations = make([]Violation, 0)
	d.FirstChoiceCount = res.FirstChoiceCount
	d.SecondChoiceCount = res.SecondChoiceCount
	d.FirstChoicePercent = res.FirstChoicePercent
	return d
}

// Move places the student into the workshop in band b (an empty workshop unassigns) without
// refusing anything. Violations are then recomputed against the resulting state: the stored ones
// and both placements of the moved student.
func Move(snap *Snapshot, d Draft, studentName string, b workshop.Band, ws string) Draft {
	st := newState(newIndex(snap), d.Assignment)
	st.place(studentName, b, ws)

	type target struct {
		band    workshop.Band
		student string
	}
	targets := make([]target, 0, len(d.Violations)+2)
	seen := make(map[target]bool)
	add := func(t target) {
		if !seen[t] {
			seen[t] = true
			targets = append(targets, t)
		}
	}
	for _, v := range d.Violations {
		add(target{band: v.Band, student: v.Student})
	}
	for _, band := range workshop.AllBands {
		add(target{band: band, student: studentName})
	}

	violations := make([]Violation, 0)
	for _, t := range targets {
		placedIn := st.assignment.In(t.band)[t.student]
		if placedIn == "" {
			continue
		}
		v := st.evaluate(t.student, placedIn, t.band, evalOpts{identical: true})
		if v.OK {
			continue
		}
		violations = append(violations, Violation{
			Band:     t.band,
			Workshop: placedIn,
			Student:  t.student,
			Check:    v.Check,
			Reason:   v.Reason,
		})
	}
	sortViolations(violations)

	d.Assignment = st.Assignment()
	d.Violations = violations
	return d
}

func sortViolations(vs []Violation) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Band != vs[j].Band {
			return vs[i].Band < vs[j].Band
		}
		if vs[i].Workshop != vs[j].Workshop {
			return vs[i].Workshop < vs[j].Workshop
		}
		return vs[i].Student < vs[j].Student
	})
}
