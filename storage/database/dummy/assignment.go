package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/kurswahl/core/assignment"
)

type assignmentRepository struct {
	slots  *slotTable
	drafts *draftTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{slots: db.slot, drafts: db.draft}
}

func cloneChoices(choices map[string][]string) map[string][]string {
	res := make(map[string][]string, len(choices))
	for s, c := range choices {
		res[s] = copyStrings(c)
	}
	return res
}

func cloneDraft(d assignment.Draft) *assignment.Draft {
	d.Assignment = d.Assignment.Clone()
	d.Choices = assignment.ChoiceSet{Band1: cloneChoices(d.Choices.Band1), Band2: cloneChoices(d.Choices.Band2)}
	d.Problems = append(make([]assignment.Problem, 0, len(d.Problems)), d.Problems...)
	d.Violations = append(make([]assignment.Violation, 0, len(d.Violations)), d.Violations...)
	return &d
}

func (repo *assignmentRepository) SaveSlot(_ context.Context, slot assignment.Slot) error {
	repo.slots.Lock()
	defer repo.slots.Unlock()

	slot.Assignment = slot.Assignment.Clone()
	repo.slots.table[slot.Key] = &slot
	return nil
}

func (repo *assignmentRepository) QuerySlots(_ context.Context) ([]assignment.Slot, error) {
	repo.slots.RLock()
	defer repo.slots.RUnlock()

	slots := make([]assignment.Slot, 0, len(repo.slots.table))
	for _, slot := range repo.slots.table {
		s := *slot
		s.Assignment = s.Assignment.Clone()
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Key.Before(slots[j].Key) })
	return slots, nil
}

func (repo *assignmentRepository) GetSlot(_ context.Context, key assignment.SlotKey) (assignment.Slot, error) {
	repo.slots.RLock()
	defer repo.slots.RUnlock()

	if slot, ok := repo.slots.table[key]; ok {
		s := *slot
		s.Assignment = s.Assignment.Clone()
		return s, nil
	}
	return assignment.Slot{}, assignment.ErrSlotNotFound
}

func (repo *assignmentRepository) SaveDraft(_ context.Context, d assignment.Draft) error {
	repo.drafts.Lock()
	defer repo.drafts.Unlock()

	repo.drafts.table[d.Key] = cloneDraft(d)
	return nil
}

func (repo *assignmentRepository) QueryDrafts(_ context.Context) ([]assignment.Draft, error) {
	repo.drafts.RLock()
	defer repo.drafts.RUnlock()

	drafts := make([]assignment.Draft, 0, len(repo.drafts.table))
	for _, d := range repo.drafts.table {
		drafts = append(drafts, *cloneDraft(*d))
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].Key.Before(drafts[j].Key) })
	return drafts, nil
}

func (repo *assignmentRepository) GetDraft(_ context.Context, key assignment.SlotKey) (assignment.Draft, error) {
	repo.drafts.RLock()
	defer repo.drafts.RUnlock()

	if d, ok := repo.drafts.table[key]; ok {
		return *cloneDraft(*d), nil
	}
	return assignment.Draft{}, assignment.ErrDraftNotFound
}

func (repo *assignmentRepository) DeleteDraft(_ context.Context, key assignment.SlotKey) error {
	repo.drafts.Lock()
	defer repo.drafts.Unlock()

	if _, ok := repo.drafts.table[key]; !ok {
		return assignment.ErrDraftNotFound
	}
	delete(repo.drafts.table, key)
	return nil
}
