package student

import (
	"math"
	"time"

	"github.com/trezcool/kurswahl/core"
)

const (
	MinPriority     = 1.0
	MaxPriority     = 10.0
	DefaultPriority = 5.0
)

type Student struct {
	Name             string    `json:"name"`
	Class            string    `json:"class"`
	NeedsSupport     bool      `json:"needs_support"`
	Priority         float64   `json:"priority"`
	Comment          string    `json:"comment"`
	Trimester        string    `json:"trimester"`
	LastYearWorkshop string    `json:"last_year_workshop,omitempty"` // most recent prior-year assignment
	CreatedAt        time.Time `json:"created_at"`                   // UTC
	UpdatedAt        time.Time `json:"updated_at"`                   // UTC
}

// ClampPriority bounds a score to [MinPriority, MaxPriority] and rounds it to one decimal.
func ClampPriority(score float64) float64 {
	score = math.Max(MinPriority, math.Min(MaxPriority, score))
	return math.Round(score*10) / 10
}

// NewStudent contains information needed to add a Student to the roster.
type NewStudent struct {
	Name             string   `json:"name" validate:"required,max=255"`
	Class            string   `json:"class" validate:"max=50"`
	NeedsSupport     bool     `json:"needs_support"`
	Priority         *float64 `json:"priority" validate:"omitempty,priority"`
	Comment          string   `json:"comment"`
	Trimester        string   `json:"trimester" validate:"max=20"`
	LastYearWorkshop string   `json:"last_year_workshop" validate:"max=255,nocolon"`
}

func (ns *NewStudent) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Class = core.CleanString(ns.Class)
	ns.Comment = core.CleanString(ns.Comment)
	ns.Trimester = core.CleanString(ns.Trimester)
	ns.LastYearWorkshop = core.CleanString(ns.LastYearWorkshop)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// nil fields are left untouched.
type UpdateStudent struct {
	Class            *string  `json:"class" validate:"omitempty,max=50"`
	NeedsSupport     *bool    `json:"needs_support"`
	Priority         *float64 `json:"priority" validate:"omitempty,priority"`
	Comment          *string  `json:"comment"`
	Trimester        *string  `json:"trimester" validate:"omitempty,max=20"`
	LastYearWorkshop *string  `json:"last_year_workshop" validate:"omitempty,max=255,nocolon"`
}

func (us *UpdateStudent) apply(s *Student) {
	if us.Class != nil {
		s.Class = core.CleanString(*us.Class)
	}
	if us.NeedsSupport != nil {
		s.NeedsSupport = *us.NeedsSupport
	}
	if us.Priority != nil {
		s.Priority = ClampPriority(*us.Priority)
	}
	if us.Comment != nil {
		s.Comment = core.CleanString(*us.Comment)
	}
	if us.Trimester != nil {
		s.Trimester = core.CleanString(*us.Trimester)
	}
	if us.LastYearWorkshop != nil {
		s.LastYearWorkshop = core.CleanString(*us.LastYearWorkshop)
	}
}

type QueryFilter struct {
	Search       string `query:"search"`
	Class        string `query:"class"`
	NeedsSupport *bool  `query:"needs_support"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (qf.Search == "" && qf.Class == "" && qf.NeedsSupport == nil)
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Class = core.CleanString(qf.Class)
}
