package assignment

import (
	"fmt"
	"sort"

	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

// Result is the outcome of allocating both bands.
type Result struct {
	Assignment         Assignment `json:"assignment"`
	Band1              BandResult `json:"band1"`
	Band2              BandResult `json:"band2"`
	Problems           []Problem  `json:"problems"`
	FirstChoiceCount   int        `json:"first_choice_count"`
	SecondChoiceCount  int        `json:"second_choice_count"`
	FirstChoicePercent float64    `json:"first_choice_percent"`
}

// Allocate runs band 1, then band 2 with the band-1 placements folded in, and reconciles both.
func Allocate(snap *Snapshot) Result {
	ix := newIndex(snap)

	roster := make([]student.Student, len(snap.Students))
	copy(roster, snap.Students)
	sort.SliceStable(roster, func(i, j int) bool { return roster[i].Priority > roster[j].Priority })

	b1 := allocateBand(ix, roster, snap.Choices.Band1, NewAssignment(), workshop.Band1)

	placed := Assignment{Band1: b1.Placements, Band2: make(Placements)}
	filtered, dropped := band2Choices(ix, roster, snap.Choices.Band2, b1.Placements)
	b2 := allocateBand(ix, roster, filtered, placed, workshop.Band2)
	b2.Problems = append(dropped, b2.Problems...)

	res := Result{
		Assignment: Assignment{Band1: b1.Placements.Clone(), Band2: b2.Placements.Clone()},
		Band1:      b1,
	}
	conflicts := reconcile(ix, roster, res.Assignment, &b2)
	res.Band2 = b2

	res.Problems = make([]Problem, 0, len(b1.Problems)+len(b2.Problems)+len(conflicts))
	res.Problems = append(res.Problems, b1.Problems...)
	res.Problems = append(res.Problems, b2.Problems...)
	res.Problems = append(res.Problems, conflicts...)

	res.FirstChoiceCount = b1.FirstChoiceCount + b2.FirstChoiceCount
	res.SecondChoiceCount = b1.SecondChoiceCount + b2.SecondChoiceCount
	res.FirstChoicePercent = percent(res.FirstChoiceCount, b1.PoolSize+b2.PoolSize)
	return res
}

// band2Choices drops the band-1 workshop, and whatever cannot run parallel to it, from the band-2 choices.
// Students without a band-1 placement keep their choices.
// Students left without any band-2 choice are reported as problems.
func band2Choices(ix *index, roster []student.Student, choices map[string][]string, band1 Placements) (map[string][]string, []Problem) {
	res := make(map[string][]string, len(choices))
	dropped := make([]Problem, 0)
	for _, s := range roster {
		raw, ok := choices[s.Name]
		if !ok {
			continue
		}
		held := band1[s.Name]
		if held == "" {
			res[s.Name] = raw
			continue
		}
		filtered := make([]string, 0, len(raw))
		for _, ws := range raw {
			if !conflicting(ix, held, ws) {
				filtered = append(filtered, ws)
			}
		}
		res[s.Name] = filtered
		if len(raw) > 0 && len(filtered) == 0 {
			dropped = append(dropped, bandProblem(workshop.Band2, s.Name,
				"no valid choice left, every choice clashes with %q held in band1", held))
		}
	}
	return res, dropped
}

// conflicting tells whether two workshops cannot be held in parallel bands.
func conflicting(ix *index, a, b string) bool {
	if a == b {
		return true
	}
	return ix.workshops[a].Excludes(b) || ix.workshops[b].Excludes(a)
}

// reconcile removes band-2 placements which are identical to, or excluded by, the band-1 placement.
// Displaced students are left unassigned for manual reassignment.
func reconcile(ix *index, roster []student.Student, a Assignment, b2 *BandResult) []Problem {
	problems := make([]Problem, 0)
	for _, s := range roster {
		w1, w2 := a.Band1[s.Name], a.Band2[s.Name]
		if w1 == "" || w2 == "" || !conflicting(ix, w1, w2) {
			continue
		}

		delete(a.Band2, s.Name)
		delete(b2.Placements, s.Name)
		if _, ok := b2.RemainingCapacity[w2]; ok {
			b2.RemainingCapacity[w2]++
		}
		delete(b2.ranks, s.Name)

		p := Problem{Band: BandBoth, Student: s.Name}
		if w1 == w2 {
			p.Message = fmt.Sprintf("placed in %q in both bands, band2 placement removed, please reassign manually", w1)
		} else {
			p.Message = fmt.Sprintf("%q in band1 cannot run parallel to %q in band2, band2 placement removed, please reassign manually", w1, w2)
		}
		problems = append(problems, p)
	}
	b2.countRanks()
	return problems
}
