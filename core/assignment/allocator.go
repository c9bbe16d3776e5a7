package assignment

import (
	"math"
	"sort"

	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

// BandResult is the outcome of allocating one band.
type BandResult struct {
	Band               workshop.Band  `json:"band"`
	Placements         Placements     `json:"placements"`
	Problems           []Problem      `json:"problems"`
	RemainingCapacity  map[string]int `json:"remaining_capacity"`
	PoolSize           int            `json:"pool_size"`
	FirstChoiceCount   int            `json:"first_choice_count"`
	SecondChoiceCount  int            `json:"second_choice_count"`
	FirstChoicePercent float64        `json:"first_choice_percent"`

	ranks map[string]int // student -> 1 or 2 when placed in a choice
}

type candidate struct {
	student   student.Student
	choices   []string // sanitized, at most 2
	obligated bool
	opts      evalOpts
	done      bool // nothing left to try
}

type bandAllocator struct {
	ix           *index
	band         workshop.Band
	st           *State
	support      []*candidate
	regular      []*candidate
	supportCount map[string]int
	ranks        map[string]int
	problems     []Problem
}

// AllocateBand runs the greedy allocation of one band in isolation.
// Placements of the other band are read from placed, the band itself starts empty.
func AllocateBand(snap *Snapshot, placed Assignment, b workshop.Band) BandResult {
	return allocateBand(newIndex(snap), snap.Students, snap.Choices.In(b), placed, b)
}

func allocateBand(ix *index, roster []student.Student, choices map[string][]string, placed Assignment, b workshop.Band) BandResult {
	a := placed.Clone()
	if b == workshop.Band2 {
		a.Band2 = make(Placements)
	} else {
		a.Band1 = make(Placements)
	}

	al := &bandAllocator{
		ix:           ix,
		band:         b,
		st:           newState(ix, a),
		supportCount: make(map[string]int),
		ranks:        make(map[string]int),
	}
	al.buildPool(roster, choices)
	al.supportPass()
	al.regularPass()
	al.fallbackPass()
	return al.result()
}

// buildPool filters and sanitizes the choices of the band, then orders the candidates:
// Folgekurs obligations first, then by descending priority.
func (al *bandAllocator) buildPool(roster []student.Student, choices map[string][]string) {
	for _, s := range roster {
		raw := choices[s.Name]
		_, obligated := al.ix.pendingObligation(al.st.assignment, s.Name, al.band)
		if len(raw) == 0 && !obligated {
			continue
		}

		offered := make([]string, 0, len(raw))
		for _, ws := range raw {
			if w, ok := al.ix.workshops[ws]; ok && w.OfferedIn(al.band) {
				offered = append(offered, ws)
				continue
			}
			al.problem(s.Name, "choice %q is not offered in this band", ws)
		}
		if len(raw) > 0 && len(offered) == 0 {
			al.problem(s.Name, "none of the choices is offered in this band")
			if !obligated {
				continue
			}
		}

		sanitized := al.sanitize(s, offered)
		if len(offered) > 0 && len(sanitized) == 0 && !obligated {
			al.problem(s.Name, "no valid choice left")
			continue
		}

		c := &candidate{student: s, choices: sanitized, obligated: obligated}
		if s.NeedsSupport {
			al.support = append(al.support, c)
		} else {
			al.regular = append(al.regular, c)
		}
	}
	sortCandidates(al.support)
	sortCandidates(al.regular)
}

func sortCandidates(cs []*candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].obligated != cs[j].obligated {
			return cs[i].obligated
		}
		return cs[i].student.Priority > cs[j].student.Priority
	})
}

// sanitize collapses duplicate choices and strips the workshop taken last year.
func (al *bandAllocator) sanitize(s student.Student, choices []string) []string {
	res := make([]string, 0, len(choices))
	seen := make(map[string]bool, len(choices))
	for _, ws := range choices {
		norm := workshop.NormalizeName(ws)
		if seen[norm] {
			al.problem(s.Name, "duplicate choice %q collapsed", ws)
			continue
		}
		seen[norm] = true
		if s.LastYearWorkshop != "" && norm == workshop.NormalizeName(s.LastYearWorkshop) {
			al.problem(s.Name, "choice %q was taken last year and is ignored", ws)
			continue
		}
		res = append(res, ws)
	}
	if len(res) > 2 {
		res = res[:2]
	}
	return res
}

// force places an obligated student into the required course.
// When that fails, the following choice checks ignore the obligation.
func (al *bandAllocator) force(c *candidate) bool {
	o, pending := al.ix.pendingObligation(al.st.assignment, c.student.Name, al.band)
	if !pending {
		return false
	}
	if v := al.st.evaluate(c.student.Name, o.rule.To, al.band, evalOpts{}); !v.OK {
		al.problem(c.student.Name, "cannot place in %q required by rule %q: %s", o.rule.To, o.rule.Name, v.Reason)
		c.opts.skipFolgekurs = true
		return false
	}
	al.assign(c, o.rule.To)
	return true
}

func (al *bandAllocator) try(c *candidate, ws string) bool {
	if v := al.st.evaluate(c.student.Name, ws, al.band, c.opts); !v.OK {
		return false
	}
	al.assign(c, ws)
	return true
}

func (al *bandAllocator) assign(c *candidate, ws string) {
	al.st.place(c.student.Name, al.band, ws)
	if c.student.NeedsSupport {
		al.supportCount[ws]++
	}
	for i, choice := range c.choices {
		if choice == ws {
			al.ranks[c.student.Name] = i + 1
			break
		}
	}
	c.done = true
}

func (al *bandAllocator) placed(c *candidate) bool {
	return al.st.assignment.In(al.band)[c.student.Name] != ""
}

// supportPass spreads support students evenly over their choices.
func (al *bandAllocator) supportPass() {
	for _, c := range al.support {
		if al.force(c) {
			continue
		}
		if len(c.choices) == 0 {
			al.problem(c.student.Name, "no valid choice left")
			c.done = true
			continue
		}

		pick := c.choices[0]
		for _, ws := range c.choices[1:] {
			if al.supportCount[ws] < al.supportCount[pick] {
				pick = ws
			}
		}
		if al.try(c, pick) {
			continue
		}
		for _, ws := range c.choices {
			if ws != pick && al.try(c, ws) {
				break
			}
		}
	}
}

// regularPass only tries first choices.
func (al *bandAllocator) regularPass() {
	for _, c := range al.regular {
		if al.force(c) {
			continue
		}
		if len(c.choices) == 0 {
			al.problem(c.student.Name, "no valid choice left")
			c.done = true
			continue
		}

		first := c.choices[0]
		v := al.st.evaluate(c.student.Name, first, al.band, c.opts)
		if v.OK {
			al.assign(c, first)
		} else if v.Check != CheckCapacity {
			al.problem(c.student.Name, "first choice %q not possible: %s", first, v.Reason)
		}
	}
}

// fallbackPass tries the second choice of everyone still unassigned.
func (al *bandAllocator) fallbackPass() {
	for _, cs := range [][]*candidate{al.support, al.regular} {
		for _, c := range cs {
			if c.done || al.placed(c) {
				continue
			}
			if len(c.choices) < 2 {
				al.problem(c.student.Name, "got neither choice")
				continue
			}
			second := c.choices[1]
			if v := al.st.evaluate(c.student.Name, second, al.band, c.opts); !v.OK {
				al.problem(c.student.Name, "got neither choice, second choice %q not possible: %s", second, v.Reason)
				continue
			}
			al.assign(c, second)
		}
	}
}

func (al *bandAllocator) problem(studentName, format string, args ...interface{}) {
	al.problems = append(al.problems, bandProblem(al.band, studentName, format, args...))
}

func (al *bandAllocator) result() BandResult {
	res := BandResult{
		Band:              al.band,
		Placements:        al.st.assignment.In(al.band).Clone(),
		Problems:          al.problems,
		RemainingCapacity: make(map[string]int),
		PoolSize:          len(al.support) + len(al.regular),
		ranks:             al.ranks,
	}
	if res.Problems == nil {
		res.Problems = make([]Problem, 0)
	}
	for name, w := range al.ix.workshops {
		if w.OfferedIn(al.band) {
			res.RemainingCapacity[name] = w.Capacity - al.st.Occupancy(al.band, name)
		}
	}
	res.countRanks()
	return res
}

func (res *BandResult) countRanks() {
	res.FirstChoiceCount, res.SecondChoiceCount = 0, 0
	for _, rank := range res.ranks {
		switch rank {
		case 1:
			res.FirstChoiceCount++
		case 2:
			res.SecondChoiceCount++
		}
	}
	res.FirstChoicePercent = percent(res.FirstChoiceCount, res.PoolSize)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
