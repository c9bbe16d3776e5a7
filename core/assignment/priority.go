package assignment

import (
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

const (
	deltaFirstChoice  = -1.0
	deltaSecondChoice = -0.5
	deltaNeitherOfOne = 1.0
	deltaNeitherOfTwo = 1.25
)

// UpdateScores computes the priority scores after a finalized assignment.
// Each band where the student submitted choices and got a workshop contributes a delta,
// the mean of those deltas is added to the current score. Scores missing from current
// default to the student's stored priority.
func UpdateScores(students []student.Student, a Assignment, choices ChoiceSet, current map[string]float64) map[string]float64 {
	res := make(map[string]float64, len(students))
	for _, s := range students {
		score, ok := current[s.Name]
		if !ok {
			score = s.Priority
		}
		if score == 0 {
			score = student.DefaultPriority
		}

		var sum float64
		var n int
		for _, b := range workshop.AllBands {
			delta, ok := bandDelta(choices.In(b)[s.Name], a.In(b)[s.Name])
			if !ok {
				continue
			}
			sum += delta
			n++
		}
		if n == 0 {
			res[s.Name] = score
			continue
		}
		res[s.Name] = student.ClampPriority(score + sum/float64(n))
	}
	return res
}

func bandDelta(choices []string, placed string) (float64, bool) {
	choices = distinct(choices)
	if len(choices) == 0 || placed == "" {
		return 0, false
	}
	switch {
	case placed == choices[0]:
		return deltaFirstChoice, true
	case len(choices) > 1 && placed == choices[1]:
		return deltaSecondChoice, true
	case len(choices) == 1:
		return deltaNeitherOfOne, true
	}
	return deltaNeitherOfTwo, true
}

func distinct(choices []string) []string {
	res := make([]string, 0, len(choices))
	seen := make(map[string]bool, len(choices))
	for _, c := range choices {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		res = append(res, c)
	}
	return res
}
