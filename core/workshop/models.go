package workshop

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core"
)

// Band is one of the two parallel weekly time-slots.
type Band string

const (
	Band1 Band = "band1"
	Band2 Band = "band2"
)

var AllBands = Bands{Band1, Band2}

func (b Band) Valid() bool { return b == Band1 || b == Band2 }

// Other returns the parallel band.
func (b Band) Other() Band {
	if b == Band1 {
		return Band2
	}
	return Band1
}

func (b Band) String() string { return string(b) }

type Bands []Band

func (bs Bands) Has(b Band) bool {
	for _, band := range bs {
		if band == b {
			return true
		}
	}
	return false
}

// Normalized returns the valid bands in canonical order, without duplicates.
func (bs Bands) Normalized() Bands {
	res := make(Bands, 0, 2)
	for _, b := range AllBands {
		if bs.Has(b) {
			res = append(res, b)
		}
	}
	return res
}

type Workshop struct {
	Name          string    `json:"name"`
	Capacity      int       `json:"capacity"`
	Bands         Bands     `json:"bands"`
	Teacher       string    `json:"teacher,omitempty"`
	TeacherEmail  string    `json:"teacher_email,omitempty"`
	Room          string    `json:"room,omitempty"`
	Color         string    `json:"color,omitempty"`
	Prerequisites []string  `json:"prerequisites"`
	NotParallel   []string  `json:"not_parallel"`
	ArchivedAt    time.Time `json:"archived_at,omitempty"` // UTC; zero while active
	CreatedAt     time.Time `json:"created_at"`            // UTC
	UpdatedAt     time.Time `json:"updated_at"`            // UTC
}

func (w Workshop) OfferedIn(b Band) bool { return w.Bands.Has(b) }

func (w Workshop) IsArchived() bool { return !w.ArchivedAt.IsZero() }

// Excludes tells whether `other` is on this workshop's cannot-be-parallel list, ignoring case and spacing.
// The lists are stored per side; callers check both directions.
func (w Workshop) Excludes(other string) bool {
	other = NormalizeName(other)
	for _, name := range w.NotParallel {
		if NormalizeName(name) == other {
			return true
		}
	}
	return false
}

// NormalizeName returns the comparison form of a workshop name: lower case, single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// CleanName trims and collapses inner whitespace, keeping the case.
func CleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Availability is one entry of the workshop table: how many students fit, and in which bands.
type Availability struct {
	Capacity int   `json:"capacity"`
	Bands    Bands `json:"bands"`
}

// UnmarshalJSON accepts the structured form and the legacy bare integer capacity,
// which implies that the workshop is offered in both bands.
func (a *Availability) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var capacity int
		if err := json.Unmarshal(data, &capacity); err != nil {
			return errors.Wrap(err, "decoding legacy capacity")
		}
		a.Capacity = capacity
		a.Bands = AllBands
		return nil
	}

	var raw struct {
		Capacity int   `json:"capacity"`
		Bands    Bands `json:"bands"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decoding availability")
	}
	a.Capacity = raw.Capacity
	a.Bands = raw.Bands.Normalized()
	return nil
}

// Table maps workshop names to their availability.
type Table map[string]Availability

// ParseTable decodes a workshop table, normalizing legacy entries.
func ParseTable(data []byte) (Table, error) {
	var tbl Table
	if err := json.Unmarshal(data, &tbl); err != nil {
		return nil, err
	}
	for name, a := range tbl {
		if a.Capacity < 0 {
			return nil, core.NewFieldError(name, "capacity must be 0 or greater")
		}
	}
	return tbl, nil
}

// Names returns the table's workshop names in sorted order.
func (tbl Table) Names() []string {
	names := make([]string, 0, len(tbl))
	for name := range tbl {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewWorkshop contains information needed to create a new Workshop.
type NewWorkshop struct {
	Name          string   `json:"name" validate:"required,max=255,nocolon"`
	Capacity      int      `json:"capacity" validate:"min=0"`
	Bands         Bands    `json:"bands" validate:"required,min=1,max=2,dive,band"`
	Teacher       string   `json:"teacher" validate:"max=255"`
	TeacherEmail  string   `json:"teacher_email" validate:"omitempty,email"`
	Room          string   `json:"room" validate:"max=100"`
	Color         string   `json:"color" validate:"omitempty,hexcolor"`
	Prerequisites []string `json:"prerequisites" validate:"dive,required,nocolon"`
	NotParallel   []string `json:"not_parallel" validate:"dive,required,nocolon"`
}

func (nw *NewWorkshop) Clean() {
	nw.Name = CleanName(nw.Name)
	nw.Teacher = core.CleanString(nw.Teacher)
	nw.TeacherEmail = core.CleanString(nw.TeacherEmail, true /* lower */)
	nw.Room = core.CleanString(nw.Room)
	nw.Color = core.CleanString(nw.Color, true /* lower */)
	nw.Bands = nw.Bands.Normalized()
	nw.Prerequisites = cleanNames(nw.Prerequisites)
	nw.NotParallel = cleanNames(nw.NotParallel)
}

// UpdateWorkshop defines what information may be provided to modify an existing Workshop.
// nil fields are left untouched.
type UpdateWorkshop struct {
	Capacity      *int     `json:"capacity" validate:"omitempty,min=0"`
	Bands         Bands    `json:"bands" validate:"omitempty,min=1,max=2,dive,band"`
	Teacher       *string  `json:"teacher" validate:"omitempty,max=255"`
	TeacherEmail  *string  `json:"teacher_email" validate:"omitempty,email"`
	Room          *string  `json:"room" validate:"omitempty,max=100"`
	Color         *string  `json:"color" validate:"omitempty,hexcolor"`
	Prerequisites []string `json:"prerequisites" validate:"omitempty,dive,required,nocolon"`
	NotParallel   []string `json:"not_parallel" validate:"omitempty,dive,required,nocolon"`
}

func (uw *UpdateWorkshop) apply(w *Workshop) {
	if uw.Capacity != nil {
		w.Capacity = *uw.Capacity
	}
	if uw.Bands != nil {
		w.Bands = uw.Bands.Normalized()
	}
	if uw.Teacher != nil {
		w.Teacher = core.CleanString(*uw.Teacher)
	}
	if uw.TeacherEmail != nil {
		w.TeacherEmail = core.CleanString(*uw.TeacherEmail, true /* lower */)
	}
	if uw.Room != nil {
		w.Room = core.CleanString(*uw.Room)
	}
	if uw.Color != nil {
		w.Color = core.CleanString(*uw.Color, true /* lower */)
	}
	if uw.Prerequisites != nil {
		w.Prerequisites = cleanNames(uw.Prerequisites)
	}
	if uw.NotParallel != nil {
		w.NotParallel = cleanNames(uw.NotParallel)
	}
}

func cleanNames(names []string) []string {
	res := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = CleanName(name)
		if name == "" || seen[NormalizeName(name)] {
			continue
		}
		seen[NormalizeName(name)] = true
		res = append(res, name)
	}
	return res
}
