package assignment

import (
	"fmt"

	"github.com/trezcool/kurswahl/core/workshop"
)

// Check names the constraint a placement failed.
type Check string

const (
	CheckNone         Check = ""
	CheckBand         Check = "band"
	CheckIdentical    Check = "identical"
	CheckExclusion    Check = "exclusion"
	CheckCapacity     Check = "capacity"
	CheckRepeat       Check = "repeat"
	CheckPrerequisite Check = "prerequisite"
	CheckFolgekurs    Check = "folgekurs"
)

type Verdict struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Check  Check  `json:"check,omitempty"`
}

var okVerdict = Verdict{OK: true}

func fail(check Check, format string, args ...interface{}) Verdict {
	return Verdict{Check: check, Reason: fmt.Sprintf(format, args...)}
}

type evalOpts struct {
	identical     bool // also refuse the workshop the student holds in the other band
	skipFolgekurs bool
}

// CanAssign tells whether the student may be placed into the workshop in band b, given the state.
// Checks run in a fixed order and the first failure wins.
// The student's own placement is not counted against the capacity.
func CanAssign(st *State, studentName, ws string, b workshop.Band) Verdict {
	return st.evaluate(studentName, ws, b, evalOpts{})
}

func (st *State) evaluate(studentName, ws string, b workshop.Band, opts evalOpts) Verdict {
	ix := st.ix
	w, ok := ix.workshops[ws]
	if !ok {
		return fail(CheckBand, "%q is not an active workshop", ws)
	}
	if !w.OfferedIn(b) {
		return fail(CheckBand, "%q is not offered in %s", ws, b)
	}

	if other := st.assignment.In(b.Other())[studentName]; other != "" {
		if opts.identical && other == ws {
			return fail(CheckIdentical, "already placed in %q in %s", ws, b.Other())
		}
		ow := ix.workshops[other]
		if w.Excludes(other) || ow.Excludes(ws) {
			return fail(CheckExclusion, "%q cannot run parallel to %q (%s)", ws, other, b.Other())
		}
	}

	occupied := st.occupancy[b][ws]
	if st.assignment.In(b)[studentName] == ws {
		occupied--
	}
	if occupied >= w.Capacity {
		return fail(CheckCapacity, "%q is full (%d/%d)", ws, occupied, w.Capacity)
	}

	s := ix.student(studentName)
	if s.LastYearWorkshop != "" && workshop.NormalizeName(s.LastYearWorkshop) == workshop.NormalizeName(ws) {
		return fail(CheckRepeat, "%q was already taken last year", ws)
	}

	for _, pre := range w.Prerequisites {
		if !ix.hasTaken(studentName, pre) {
			return fail(CheckPrerequisite, "%q requires %q", ws, pre)
		}
	}

	if !opts.skipFolgekurs {
		if o, pending := ix.pendingObligation(st.assignment, studentName, b); pending && ws != o.rule.To {
			if o.rule.SameBand {
				return fail(CheckFolgekurs, "must take %q in %s after %q in %s (rule %q)",
					o.rule.To, o.band, o.rule.From, o.key, o.rule.Name)
			}
			return fail(CheckFolgekurs, "must take %q after %q in %s (rule %q)",
				o.rule.To, o.rule.From, o.key, o.rule.Name)
		}
	}
	return okVerdict
}
