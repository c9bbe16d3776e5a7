package assignment

import (
	"fmt"
	"sort"
	"time"

	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

// BandBoth tags problems which concern the placements of both bands.
const BandBoth = "both"

// Placements maps student names to workshop names. A student without entry is unassigned.
type Placements map[string]string

func (p Placements) Clone() Placements {
	res := make(Placements, len(p))
	for s, w := range p {
		res[s] = w
	}
	return res
}

// Count returns the number of students placed in each workshop.
func (p Placements) Count() map[string]int {
	res := make(map[string]int)
	for _, w := range p {
		if w != "" {
			res[w]++
		}
	}
	return res
}

// StudentsMatching returns the sorted names of the students placed in a workshop
// whose normalized name is norm.
func (p Placements) StudentsMatching(norm string) []string {
	res := make([]string, 0)
	for s, w := range p {
		if workshop.NormalizeName(w) == norm {
			res = append(res, s)
		}
	}
	sort.Strings(res)
	return res
}

// Students returns the sorted names of the students placed in the workshop.
func (p Placements) Students(ws string) []string {
	res := make([]string, 0)
	for s, w := range p {
		if w == ws {
			res = append(res, s)
		}
	}
	sort.Strings(res)
	return res
}

type Assignment struct {
	Band1 Placements `json:"band1"`
	Band2 Placements `json:"band2"`
}

func NewAssignment() Assignment {
	return Assignment{Band1: make(Placements), Band2: make(Placements)}
}

func (a Assignment) In(b workshop.Band) Placements {
	if b == workshop.Band2 {
		return a.Band2
	}
	return a.Band1
}

func (a Assignment) Clone() Assignment {
	return Assignment{Band1: a.Band1.Clone(), Band2: a.Band2.Clone()}
}

// Place sets (or clears, with an empty workshop) the student's placement in a band.
func (a Assignment) Place(studentName string, b workshop.Band, ws string) {
	p := a.In(b)
	if ws == "" {
		delete(p, studentName)
		return
	}
	p[studentName] = ws
}

// Slot is the confirmed assignment of one trimester.
type Slot struct {
	Key SlotKey `json:"key"`
	Assignment
	SavedAt time.Time `json:"saved_at"` // UTC
}

// ChoiceSet holds the ranked choices of every student, per band.
type ChoiceSet struct {
	Band1 map[string][]string `json:"band1"`
	Band2 map[string][]string `json:"band2"`
}

func (cs ChoiceSet) In(b workshop.Band) map[string][]string {
	if b == workshop.Band2 {
		return cs.Band2
	}
	return cs.Band1
}

func (cs ChoiceSet) IsEmpty() bool {
	return len(cs.Band1) == 0 && len(cs.Band2) == 0
}

// Problem is a non-fatal data issue found while importing or allocating.
type Problem struct {
	Band    string `json:"band,omitempty"` // band1, band2, both or empty
	Student string `json:"student,omitempty"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	s := p.Message
	if p.Student != "" {
		s = p.Student + ": " + s
	}
	if p.Band != "" {
		s = "[" + p.Band + "] " + s
	}
	return s
}

func bandProblem(b workshop.Band, studentName, format string, args ...interface{}) Problem {
	return Problem{Band: b.String(), Student: studentName, Message: fmt.Sprintf(format, args...)}
}

// Snapshot is the immutable input of one engine call.
type Snapshot struct {
	Key       SlotKey
	Students  []student.Student   // roster order
	Workshops []workshop.Workshop // active workshops
	Rules     rule.Set
	History   []Slot // confirmed slots, the current key included or not
	Choices   ChoiceSet
}
