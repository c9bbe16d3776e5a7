package assignment

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

var (
	// errors
	ErrSlotNotFound  = errors.New("slot not found")
	ErrDraftNotFound = errors.New("no draft for this slot")
	ErrNoChoices     = errors.New("no choices were imported for this slot")
)

type (
	Repository interface {
		// SaveSlot creates or overwrites the slot of the key.
		SaveSlot(ctx context.Context, slot Slot) error
		// QuerySlots returns all slots sorted by key.
		QuerySlots(ctx context.Context) ([]Slot, error)
		GetSlot(ctx context.Context, key SlotKey) (Slot, error)
		SaveDraft(ctx context.Context, d Draft) error
		QueryDrafts(ctx context.Context) ([]Draft, error)
		GetDraft(ctx context.Context, key SlotKey) (Draft, error)
		DeleteDraft(ctx context.Context, key SlotKey) error
	}

	ServiceInterface interface {
		ImportChoices(ctx context.Context, key SlotKey, up Upload) (Draft, error)
		Allocate(ctx context.Context, key SlotKey) (Draft, error)
		GetDraft(ctx context.Context, key SlotKey) (Draft, error)
		Move(ctx context.Context, key SlotKey, mv MoveRequest) (Draft, error)
		Finalize(ctx context.Context, key SlotKey) (Slot, error)
		QuerySlots(ctx context.Context) ([]Slot, error)
		GetSlot(ctx context.Context, key SlotKey) (Slot, error)
		Coverage(ctx context.Context, studentName string) ([]rule.Compliance, error)
		WorkshopHasHistory(ctx context.Context, name string) (bool, error)
		PurgeWorkshop(ctx context.Context, name string) error
	}

	// MoveRequest is one manual placement. An empty Workshop unassigns the student.
	MoveRequest struct {
		Student  string        `json:"student" validate:"required"`
		Band     workshop.Band `json:"band" validate:"required,band"`
		Workshop string        `json:"workshop"`
	}

	Service struct {
		repo      Repository
		students  student.Repository
		workshops workshop.Repository
		rules     rule.Repository
		mailSvc   core.EmailService
		logger    core.Logger
		conf      *core.Config
		nowFunc   func() time.Time

		mu sync.Mutex // serializes draft mutations
	}
)

var (
	_ ServiceInterface       = (*Service)(nil)
	_ workshop.HistoryKeeper = (*Service)(nil)
)

func NewService(
	repo Repository,
	students student.Repository,
	workshops workshop.Repository,
	rules rule.Repository,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:      repo,
		students:  students,
		workshops: workshops,
		rules:     rules,
		mailSvc:   mailSvc,
		logger:    logger,
		conf:      conf,
		nowFunc:   time.Now,
	}
}

func (mv *MoveRequest) Clean() {
	mv.Student = core.CleanString(mv.Student)
	mv.Workshop = workshop.CleanName(mv.Workshop)
}

func (svc *Service) snapshot(ctx context.Context, key SlotKey, choices ChoiceSet) (*Snapshot, error) {
	students, err := svc.students.QueryStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	workshops, err := svc.workshops.QueryWorkshops(ctx, false)
	if err != nil {
		return nil, errors.Wrap(err, "querying workshops")
	}
	rules, err := svc.rules.QueryRules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying rules")
	}
	history, err := svc.repo.QuerySlots(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying slots")
	}
	return &Snapshot{
		Key:       key,
		Students:  students,
		Workshops: workshops,
		Rules:     rules,
		History:   history,
		Choices:   choices,
	}, nil
}

func (svc *Service) getOrNewDraft(ctx context.Context, key SlotKey) (Draft, error) {
	d, err := svc.repo.GetDraft(ctx, key)
	if errors.Cause(err) == ErrDraftNotFound {
		return NewDraft(key), nil
	}
	return d, err
}

// ImportChoices stores the uploaded choices in the draft of the slot, creating unknown students and workshops.
func (svc *Service) ImportChoices(ctx context.Context, key SlotKey, up Upload) (Draft, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	students, err := svc.students.QueryStudents(ctx)
	if err != nil {
		return Draft{}, errors.Wrap(err, "querying students")
	}
	active, err := svc.workshops.QueryWorkshops(ctx, false)
	if err != nil {
		return Draft{}, errors.Wrap(err, "querying workshops")
	}
	archived, err := svc.workshops.QueryWorkshops(ctx, true)
	if err != nil {
		return Draft{}, errors.Wrap(err, "querying archived workshops")
	}

	res := NormalizeUpload(up, students, append(active, archived...))
	now := svc.nowFunc().UTC()
	for _, name := range res.NewStudents {
		s := student.Student{
			Name:      name,
			Priority:  svc.defaultPriority(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err = svc.students.CreateStudent(ctx, s); err != nil {
			return Draft{}, errors.Wrapf(err, "creating student %q", name)
		}
	}
	for _, w := range res.NewWorkshops {
		w.Capacity = svc.defaultCapacity()
		w.Prerequisites = []string{}
		w.NotParallel = []string{}
		w.CreatedAt = now
		w.UpdatedAt = now
		if _, err = svc.workshops.CreateWorkshop(ctx, w); err != nil {
			return Draft{}, errors.Wrapf(err, "creating workshop %q", w.Name)
		}
	}

	d, err := svc.getOrNewDraft(ctx, key)
	if err != nil {
		return Draft{}, err
	}
	d.Choices = res.Choices
	d.Problems = res.Problems
	d.UpdatedAt = now
	if err = svc.repo.SaveDraft(ctx, d); err != nil {
		return Draft{}, errors.Wrap(err, "saving draft")
	}

	svc.logger.Info(fmt.Sprintf("imported choices for %s: %d new students, %d new workshops, %d problems",
		key, len(res.NewStudents), len(res.NewWorkshops), len(res.Problems)))
	return d, nil
}

// Allocate replaces the draft placements by a fresh automatic allocation.
func (svc *Service) Allocate(ctx context.Context, key SlotKey) (Draft, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	d, err := svc.repo.GetDraft(ctx, key)
	if err != nil {
		if errors.Cause(err) == ErrDraftNotFound {
			return Draft{}, ErrNoChoices
		}
		return Draft{}, err
	}
	if d.Choices.IsEmpty() {
		return Draft{}, ErrNoChoices
	}

	snap, err := svc.snapshot(ctx, key, d.Choices)
	if err != nil {
		return Draft{}, err
	}
	res := Allocate(snap)
	d = d.Apply(res)
	d.UpdatedAt = svc.nowFunc().UTC()
	if err = svc.repo.SaveDraft(ctx, d); err != nil {
		return Draft{}, errors.Wrap(err, "saving draft")
	}

	svc.logger.Info(fmt.Sprintf("allocated %s: %.1f%% first choices, %d problems", key, res.FirstChoicePercent, len(res.Problems)))
	return d, nil
}

func (svc *Service) GetDraft(ctx context.Context, key SlotKey) (Draft, error) {
	return svc.repo.GetDraft(ctx, key)
}

// Move applies a manual placement to the draft. The placement is never refused,
// broken constraints are recorded as violations of the draft.
func (svc *Service) Move(ctx context.Context, key SlotKey, mv MoveRequest) (Draft, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	d, err := svc.repo.GetDraft(ctx, key)
	if err != nil {
		return Draft{}, err
	}
	if _, err = svc.students.GetStudent(ctx, mv.Student); err != nil {
		return Draft{}, err
	}
	if mv.Workshop != "" {
		w, err := svc.workshops.GetWorkshop(ctx, mv.Workshop)
		if err != nil {
			return Draft{}, err
		}
		if w.IsArchived() {
			return Draft{}, workshop.ErrNotFound
		}
	}

	snap, err := svc.snapshot(ctx, key, d.Choices)
	if err != nil {
		return Draft{}, err
	}
	d = Move(snap, d, mv.Student, mv.Band, mv.Workshop)
	d.UpdatedAt = svc.nowFunc().UTC()
	if err = svc.repo.SaveDraft(ctx, d); err != nil {
		return Draft{}, errors.Wrap(err, "saving draft")
	}
	return d, nil
}

// Finalize confirms the draft as the slot of its key, updates the priority scores
// and sends the rosters to the workshop teachers.
// The draft is consumed before any score changes, so a failed call is never replayed on the same draft.
func (svc *Service) Finalize(ctx context.Context, key SlotKey) (Slot, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	d, err := svc.repo.GetDraft(ctx, key)
	if err != nil {
		return Slot{}, err
	}

	slot := Slot{Key: key, Assignment: d.Assignment.Clone(), SavedAt: svc.nowFunc().UTC()}
	if err = svc.repo.SaveSlot(ctx, slot); err != nil {
		return Slot{}, errors.Wrap(err, "saving slot")
	}
	if err = svc.repo.DeleteDraft(ctx, key); err != nil {
		return Slot{}, errors.Wrap(err, "deleting draft")
	}

	students, err := svc.students.QueryStudents(ctx)
	if err != nil {
		return Slot{}, errors.Wrap(err, "querying students")
	}
	current := make(map[string]float64, len(students))
	for _, s := range students {
		current[s.Name] = s.Priority
	}
	scores := UpdateScores(students, slot.Assignment, d.Choices, current)
	changed := make(map[string]float64)
	for name, score := range scores {
		if score != current[name] {
			changed[name] = score
		}
	}
	if err = svc.students.SetPriorities(ctx, changed); err != nil {
		return Slot{}, errors.Wrap(err, "updating priorities")
	}

	label := key.String()
	for _, s := range students {
		if (slot.Band1[s.Name] == "" && slot.Band2[s.Name] == "") || s.Trimester == label {
			continue
		}
		s.Priority = scores[s.Name]
		s.Trimester = label
		s.UpdatedAt = slot.SavedAt
		if _, err = svc.students.UpdateStudent(ctx, s); err != nil {
			return Slot{}, errors.Wrapf(err, "updating student %q", s.Name)
		}
	}

	svc.notifyTeachers(ctx, slot)
	svc.logger.Info(fmt.Sprintf("finalized %s: %d priorities changed", key, len(changed)))
	return slot, nil
}

// RosterData is the data of the "roster" email template.
type RosterData struct {
	AppName  string
	Teacher  string
	Workshop string
	Slot     string
	Band     string
	Students []string
	Capacity int
}

func (svc *Service) notifyTeachers(ctx context.Context, slot Slot) {
	if svc.mailSvc == nil || svc.conf == nil {
		return
	}
	workshops, err := svc.workshops.QueryWorkshops(ctx, false)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("notifying teachers: %v", err), err)
		return
	}

	messages := make([]*core.EmailMessage, 0)
	for _, w := range workshops {
		if w.TeacherEmail == "" {
			continue
		}
		for _, b := range w.Bands {
			names := slot.In(b).Students(w.Name)
			if len(names) == 0 {
				continue
			}
			messages = append(messages, &core.EmailMessage{
				To:           []mail.Address{{Name: w.Teacher, Address: w.TeacherEmail}},
				Subject:      fmt.Sprintf("%s: %s (%s)", w.Name, slot.Key, b),
				TemplateName: "roster",
				TemplateData: RosterData{
					AppName:  svc.conf.AppName,
					Teacher:  w.Teacher,
					Workshop: w.Name,
					Slot:     slot.Key.String(),
					Band:     b.String(),
					Students: names,
					Capacity: w.Capacity,
				},
			})
		}
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
}

func (svc *Service) QuerySlots(ctx context.Context) ([]Slot, error) {
	return svc.repo.QuerySlots(ctx)
}

func (svc *Service) GetSlot(ctx context.Context, key SlotKey) (Slot, error) {
	return svc.repo.GetSlot(ctx, key)
}

// Coverage checks the Belegung rules against everything the student ever took or currently holds.
func (svc *Service) Coverage(ctx context.Context, studentName string) ([]rule.Compliance, error) {
	s, err := svc.students.GetStudent(ctx, studentName)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool)
	if s.LastYearWorkshop != "" {
		taken[s.LastYearWorkshop] = true
	}
	err = svc.eachAssignment(ctx, func(a Assignment) {
		for _, b := range workshop.AllBands {
			if ws := a.In(b)[s.Name]; ws != "" {
				taken[ws] = true
			}
		}
	})
	if err != nil {
		return nil, err
	}

	rules, err := svc.rules.QueryRules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying rules")
	}
	return rules.Coverage(taken), nil
}

// WorkshopHasHistory tells whether any confirmed slot, draft or prior-year record references the workshop.
func (svc *Service) WorkshopHasHistory(ctx context.Context, name string) (bool, error) {
	var found bool
	err := svc.eachAssignment(ctx, func(a Assignment) {
		for _, b := range workshop.AllBands {
			for _, ws := range a.In(b) {
				found = found || ws == name
			}
		}
	})
	if err != nil || found {
		return found, err
	}

	students, err := svc.students.QueryStudents(ctx)
	if err != nil {
		return false, errors.Wrap(err, "querying students")
	}
	for _, s := range students {
		if s.LastYearWorkshop != "" && workshop.NormalizeName(s.LastYearWorkshop) == workshop.NormalizeName(name) {
			return true, nil
		}
	}
	return false, nil
}

func (svc *Service) eachAssignment(ctx context.Context, fn func(a Assignment)) error {
	slots, err := svc.repo.QuerySlots(ctx)
	if err != nil {
		return errors.Wrap(err, "querying slots")
	}
	for _, slot := range slots {
		fn(slot.Assignment)
	}
	drafts, err := svc.repo.QueryDrafts(ctx)
	if err != nil {
		return errors.Wrap(err, "querying drafts")
	}
	for _, d := range drafts {
		fn(d.Assignment)
	}
	return nil
}

// PurgeWorkshop turns every placement in the workshop into unassigned and forgets it as a prior-year record.
func (svc *Service) PurgeWorkshop(ctx context.Context, name string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	slots, err := svc.repo.QuerySlots(ctx)
	if err != nil {
		return errors.Wrap(err, "querying slots")
	}
	for _, slot := range slots {
		if removePlacements(slot.Assignment, name) {
			if err = svc.repo.SaveSlot(ctx, slot); err != nil {
				return errors.Wrapf(err, "saving slot %s", slot.Key)
			}
		}
	}

	drafts, err := svc.repo.QueryDrafts(ctx)
	if err != nil {
		return errors.Wrap(err, "querying drafts")
	}
	for _, d := range drafts {
		if !removePlacements(d.Assignment, name) {
			continue
		}
		violations := make([]Violation, 0, len(d.Violations))
		for _, v := range d.Violations {
			if v.Workshop != name {
				violations = append(violations, v)
			}
		}
		d.Violations = violations
		if err = svc.repo.SaveDraft(ctx, d); err != nil {
			return errors.Wrapf(err, "saving draft %s", d.Key)
		}
	}

	students, err := svc.students.QueryStudents(ctx)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	for _, s := range students {
		if s.LastYearWorkshop == "" || workshop.NormalizeName(s.LastYearWorkshop) != workshop.NormalizeName(name) {
			continue
		}
		s.LastYearWorkshop = ""
		s.UpdatedAt = svc.nowFunc().UTC()
		if _, err = svc.students.UpdateStudent(ctx, s); err != nil {
			return errors.Wrapf(err, "updating student %q", s.Name)
		}
	}
	return nil
}

// removePlacements unassigns everyone placed in the workshop and reports whether anything changed.
func removePlacements(a Assignment, ws string) bool {
	var changed bool
	for _, b := range workshop.AllBands {
		p := a.In(b)
		for s, w := range p {
			if w == ws {
				delete(p, s)
				changed = true
			}
		}
	}
	return changed
}

func (svc *Service) defaultCapacity() int {
	if svc.conf != nil && svc.conf.Allocation.DefaultCapacity > 0 {
		return svc.conf.Allocation.DefaultCapacity
	}
	return 15
}

func (svc *Service) defaultPriority() float64 {
	if svc.conf != nil && svc.conf.Allocation.DefaultPriority > 0 {
		return student.ClampPriority(svc.conf.Allocation.DefaultPriority)
	}
	return student.DefaultPriority
}
