package assignment_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kurswahl/core/assignment"
	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
	"github.com/trezcool/kurswahl/tests"
)

var key = assignment.SlotKey{StartYear: 2025, Trimester: 2}

func TestService_trimesterWorkflow(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp(t)
	svc := app.Assignments

	holz := testutil.CreateWorkshop(t, app.WorkshopRepo, "Holz", 1)
	holz.Teacher, holz.TeacherEmail = "Frau Holz", "holz@school.test"
	_, err := app.WorkshopRepo.UpdateWorkshop(ctx, holz)
	require.NoError(t, err)
	testutil.CreateWorkshop(t, app.WorkshopRepo, "Glas", 5)
	testutil.CreateWorkshop(t, app.WorkshopRepo, "Metall", 5)
	testutil.CreateStudent(t, app.StudentRepo, "Anna", 7, false)

	_, err = svc.Allocate(ctx, key)
	assert.Equal(t, assignment.ErrNoChoices, errors.Cause(err))

	// import
	d, err := svc.ImportChoices(ctx, key, assignment.Upload{
		Band1: []assignment.UploadRow{
			{Student: "anna", Choices: []string{"Holz: Mo", "Glas"}},
			{Student: "Ben", Choices: []string{"holz", "Glas"}},
		},
		Band2: []assignment.UploadRow{
			{Student: "Anna", Choices: []string{"Metall"}},
			{Student: "Ben", Choices: []string{"Keramik"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Holz", "Glas"}, d.Choices.Band1["Anna"])
	assert.Equal(t, []string{"Keramik"}, d.Choices.Band2["Ben"])

	ben, err := app.StudentRepo.GetStudent(ctx, "Ben")
	require.NoError(t, err)
	assert.Equal(t, app.Conf.Allocation.DefaultPriority, ben.Priority)
	keramik, err := app.WorkshopRepo.GetWorkshop(ctx, "Keramik")
	require.NoError(t, err)
	assert.Equal(t, app.Conf.Allocation.DefaultCapacity, keramik.Capacity)
	assert.Equal(t, workshop.Bands{workshop.Band2}, keramik.Bands)

	// allocate
	d, err = svc.Allocate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, assignment.Placements{"Anna": "Holz", "Ben": "Glas"}, d.Band1)
	assert.Equal(t, assignment.Placements{"Anna": "Metall", "Ben": "Keramik"}, d.Band2)
	assert.Equal(t, 3, d.FirstChoiceCount)
	assert.Equal(t, 1, d.SecondChoiceCount)

	// manual override
	_, err = svc.Move(ctx, key, assignment.MoveRequest{Student: "Nobody", Band: workshop.Band1, Workshop: "Holz"})
	assert.Equal(t, student.ErrNotFound, errors.Cause(err))
	_, err = svc.Move(ctx, key, assignment.MoveRequest{Student: "Ben", Band: workshop.Band1, Workshop: "Papier"})
	assert.Equal(t, workshop.ErrNotFound, errors.Cause(err))

	d, err = svc.Move(ctx, key, assignment.MoveRequest{Student: "Ben", Band: workshop.Band1, Workshop: "Holz"})
	require.NoError(t, err)
	assert.Equal(t, "Holz", d.Band1["Ben"])
	require.Len(t, d.Violations, 1)
	assert.Equal(t, assignment.CheckCapacity, d.Violations[0].Check)

	stored, err := svc.GetDraft(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, d.Violations, stored.Violations)

	// finalize
	slot, err := svc.Finalize(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, key, slot.Key)
	assert.Equal(t, assignment.Placements{"Anna": "Holz", "Ben": "Holz"}, slot.Band1)

	_, err = svc.GetDraft(ctx, key)
	assert.Equal(t, assignment.ErrDraftNotFound, errors.Cause(err))
	_, err = svc.Finalize(ctx, key)
	assert.Equal(t, assignment.ErrDraftNotFound, errors.Cause(err), "scores are only applied once")

	slots, err := svc.QuerySlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 1)

	students, err := app.StudentRepo.QueryStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, 6.0, students[0].Priority)
	assert.Equal(t, 4.0, students[1].Priority)
	for _, s := range students {
		assert.Equal(t, "2025-2026 T2", s.Trimester)
	}

	sent := app.Mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "holz@school.test", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Anna")
	assert.Contains(t, sent[0].TextContent, "Ben")
	assert.Contains(t, sent[0].TextContent, "2 of 1 places")
}

func TestService_history(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp(t)
	svc := app.Assignments

	testutil.CreateWorkshop(t, app.WorkshopRepo, "Holz", 5)
	testutil.CreateWorkshop(t, app.WorkshopRepo, "Metall", 5)
	testutil.CreateWorkshop(t, app.WorkshopRepo, "Glas", 5)
	anna := testutil.CreateStudent(t, app.StudentRepo, "Anna", 5, false)
	anna.LastYearWorkshop = "glas"
	_, err := app.StudentRepo.UpdateStudent(ctx, anna)
	require.NoError(t, err)

	_, err = app.RuleRepo.CreateRule(ctx, rule.Belegung{Name: "Handwerk", Workshops: []string{"Holz", "Metall"}})
	require.NoError(t, err)
	_, err = app.RuleRepo.CreateRule(ctx, rule.Belegung{Name: "Kunst", Workshops: []string{"Glas"}})
	require.NoError(t, err)

	_, err = svc.ImportChoices(ctx, key, assignment.Upload{
		Band1: []assignment.UploadRow{{Student: "Anna", Choices: []string{"Holz"}}},
	})
	require.NoError(t, err)
	_, err = svc.Allocate(ctx, key)
	require.NoError(t, err)
	_, err = svc.Finalize(ctx, key)
	require.NoError(t, err)

	compliance, err := svc.Coverage(ctx, "Anna")
	require.NoError(t, err)
	assert.Equal(t, []rule.Compliance{
		{Rule: "Handwerk", Satisfied: false, Missing: []string{"Metall"}},
		{Rule: "Kunst", Satisfied: true, Missing: []string{}},
	}, compliance)

	for name, want := range map[string]bool{"Holz": true, "Glas": true, "Metall": false} {
		has, err := svc.WorkshopHasHistory(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, want, has, name)
	}

	// deleting a workshop with history archives it, purging clears every reference
	archived, err := app.Workshops.Delete(ctx, "Holz")
	require.NoError(t, err)
	assert.True(t, archived)
	archived, err = app.Workshops.Delete(ctx, "Metall")
	require.NoError(t, err)
	assert.False(t, archived)
	_, err = app.WorkshopRepo.GetWorkshop(ctx, "Metall")
	assert.Equal(t, workshop.ErrNotFound, errors.Cause(err))

	require.NoError(t, app.Workshops.Purge(ctx, "Holz"))
	slot, err := svc.GetSlot(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, slot.Band1)

	_, err = app.Workshops.Delete(ctx, "Glas")
	require.NoError(t, err)
	require.NoError(t, app.Workshops.Purge(ctx, "Glas"))
	anna, err = app.StudentRepo.GetStudent(ctx, "Anna")
	require.NoError(t, err)
	assert.Empty(t, anna.LastYearWorkshop)
}

// failingScores fails the first SetPriorities call.
type failingScores struct {
	student.Repository
	failed bool
}

func (r *failingScores) SetPriorities(ctx context.Context, scores map[string]float64) error {
	if !r.failed {
		r.failed = true
		return errors.New("connection reset")
	}
	return r.Repository.SetPriorities(ctx, scores)
}

func TestService_finalizeAppliesScoresOnce(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp(t)
	students := &failingScores{Repository: app.StudentRepo}
	svc := assignment.NewService(app.AssignmentRepo, students, app.WorkshopRepo, app.RuleRepo, app.Mail, app.Logger, app.Conf)

	testutil.CreateWorkshop(t, app.WorkshopRepo, "Holz", 5)
	testutil.CreateStudent(t, app.StudentRepo, "Anna", 5, false)
	_, err := svc.ImportChoices(ctx, key, assignment.Upload{
		Band1: []assignment.UploadRow{{Student: "Anna", Choices: []string{"Holz"}}},
	})
	require.NoError(t, err)
	_, err = svc.Allocate(ctx, key)
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, key)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updating priorities")

	slot, err := svc.GetSlot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, assignment.Placements{"Anna": "Holz"}, slot.Band1)

	_, err = svc.Finalize(ctx, key)
	assert.Equal(t, assignment.ErrDraftNotFound, errors.Cause(err))
	anna, err := app.StudentRepo.GetStudent(ctx, "Anna")
	require.NoError(t, err)
	assert.Equal(t, 5.0, anna.Priority, "a retried finalize does not touch the scores")
}
