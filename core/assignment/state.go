package assignment

import (
	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

// index holds the lookups derived from a Snapshot.
type index struct {
	snap        *Snapshot
	students    map[string]student.Student
	workshops   map[string]workshop.Workshop
	prior       map[string]map[string]bool // student -> normalized names of workshops taken before the key
	obligations map[string][]obligation
}

// obligation is a Folgekurs rule triggered for one student by the previous trimester.
type obligation struct {
	rule rule.Folgekurs
	band workshop.Band // band From was taken in
	key  SlotKey       // triggering trimester
}

func newIndex(snap *Snapshot) *index {
	ix := &index{
		snap:        snap,
		students:    make(map[string]student.Student, len(snap.Students)),
		workshops:   make(map[string]workshop.Workshop, len(snap.Workshops)),
		prior:       make(map[string]map[string]bool),
		obligations: make(map[string][]obligation),
	}
	for _, s := range snap.Students {
		ix.students[s.Name] = s
		if s.LastYearWorkshop != "" {
			ix.addPrior(s.Name, s.LastYearWorkshop)
		}
	}
	canonical := make(map[string]string, len(snap.Workshops))
	for _, w := range snap.Workshops {
		ix.workshops[w.Name] = w
		canonical[workshop.NormalizeName(w.Name)] = w.Name
	}

	var previous *Slot
	prevKey := snap.Key.Previous()
	for i := range snap.History {
		slot := &snap.History[i]
		if slot.Key == prevKey {
			previous = slot
		}
		if !slot.Key.Before(snap.Key) {
			continue
		}
		for _, b := range workshop.AllBands {
			for s, w := range slot.In(b) {
				ix.addPrior(s, w)
			}
		}
	}

	if previous != nil {
		for _, f := range snap.Rules.Folgekurse() {
			// an obligation towards an unknown or archived course cannot be fulfilled
			to, ok := canonical[workshop.NormalizeName(f.To)]
			if !ok {
				continue
			}
			f.To = to
			from := workshop.NormalizeName(f.From)
			for _, b := range workshop.AllBands {
				for _, s := range previous.In(b).StudentsMatching(from) {
					ix.obligations[s] = append(ix.obligations[s], obligation{rule: f, band: b, key: prevKey})
				}
			}
		}
	}
	return ix
}

func (ix *index) addPrior(studentName, ws string) {
	if ws == "" {
		return
	}
	taken, ok := ix.prior[studentName]
	if !ok {
		taken = make(map[string]bool)
		ix.prior[studentName] = taken
	}
	taken[workshop.NormalizeName(ws)] = true
}

func (ix *index) hasTaken(studentName, ws string) bool {
	return ix.prior[studentName][workshop.NormalizeName(ws)]
}

func (ix *index) student(name string) student.Student {
	if s, ok := ix.students[name]; ok {
		return s
	}
	return student.Student{Name: name, Priority: student.DefaultPriority}
}

// applies tells whether the obligation constrains placements in band b.
func (o obligation) applies(ix *index, b workshop.Band) bool {
	if o.rule.SameBand {
		return b == o.band
	}
	return ix.workshops[o.rule.To].OfferedIn(b)
}

func (o obligation) fulfilled(a Assignment, studentName string) bool {
	if o.rule.SameBand {
		return a.In(o.band)[studentName] == o.rule.To
	}
	return a.Band1[studentName] == o.rule.To || a.Band2[studentName] == o.rule.To
}

// pendingObligation returns the first unfulfilled obligation of the student which applies to band b.
func (ix *index) pendingObligation(a Assignment, studentName string, b workshop.Band) (obligation, bool) {
	for _, o := range ix.obligations[studentName] {
		if o.applies(ix, b) && !o.fulfilled(a, studentName) {
			return o, true
		}
	}
	return obligation{}, false
}

// State is the placement state constraints are evaluated against.
type State struct {
	ix         *index
	assignment Assignment
	occupancy  map[workshop.Band]map[string]int
}

// NewState returns the evaluation state of the given placements. The assignment is copied.
func NewState(snap *Snapshot, a Assignment) *State {
	return newState(newIndex(snap), a)
}

func newState(ix *index, a Assignment) *State {
	a = a.Clone()
	return &State{
		ix:         ix,
		assignment: a,
		occupancy: map[workshop.Band]map[string]int{
			workshop.Band1: a.Band1.Count(),
			workshop.Band2: a.Band2.Count(),
		},
	}
}

// Assignment returns a copy of the current placements.
func (st *State) Assignment() Assignment {
	return st.assignment.Clone()
}

func (st *State) Occupancy(b workshop.Band, ws string) int {
	return st.occupancy[b][ws]
}

func (st *State) place(studentName string, b workshop.Band, ws string) {
	if old := st.assignment.In(b)[studentName]; old != "" {
		st.occupancy[b][old]--
	}
	st.assignment.Place(studentName, b, ws)
	if ws != "" {
		st.occupancy[b][ws]++
	}
}
