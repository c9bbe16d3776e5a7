package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

func TestAllocateBand_basicTwoChoiceSuccess(t *testing.T) {
	snap := newSnap(ws("Holz", 1), ws("Metall", 1)).
		student(stud("Anna", 5), choices("Holz", "Metall"), nil).
		build()

	res := AllocateBand(snap, NewAssignment(), workshop.Band1)
	assert.Equal(t, Placements{"Anna": "Holz"}, res.Placements)
	assert.Equal(t, 1, res.FirstChoiceCount)
	assert.Equal(t, 0, res.SecondChoiceCount)
	assert.Equal(t, 100.0, res.FirstChoicePercent)
	assert.Equal(t, 1, res.PoolSize)
	assert.Equal(t, 0, res.RemainingCapacity["Holz"])
	assert.Equal(t, 1, res.RemainingCapacity["Metall"])
	assert.Empty(t, res.Problems)
}

func TestAllocateBand_capacityOverflow(t *testing.T) {
	t.Run("falls to second choice", func(t *testing.T) {
		snap := newSnap(ws("Holz", 1), ws("Metall", 1)).
			student(stud("Ben", 5), choices("Holz", "Metall"), nil).
			student(stud("Anna", 7), choices("Holz", "Metall"), nil).
			build()

		res := AllocateBand(snap, NewAssignment(), workshop.Band1)
		assert.Equal(t, Placements{"Anna": "Holz", "Ben": "Metall"}, res.Placements)
		assert.Equal(t, 1, res.FirstChoiceCount)
		assert.Equal(t, 1, res.SecondChoiceCount)
		assert.Equal(t, 50.0, res.FirstChoicePercent)
		assert.Empty(t, res.Problems)
	})

	t.Run("second choice full too", func(t *testing.T) {
		snap := newSnap(ws("Holz", 1), ws("Metall", 0)).
			student(stud("Ben", 5), choices("Holz", "Metall"), nil).
			student(stud("Anna", 7), choices("Holz", "Metall"), nil).
			build()

		res := AllocateBand(snap, NewAssignment(), workshop.Band1)
		assert.Equal(t, Placements{"Anna": "Holz"}, res.Placements)
		assert.True(t, hasProblem(res.Problems, "band1", "Ben", "got neither choice"), res.Problems)
	})

	t.Run("equal priorities keep roster order", func(t *testing.T) {
		snap := newSnap(ws("Holz", 1)).
			student(stud("Ben", 5), choices("Holz"), nil).
			student(stud("Anna", 5), choices("Holz"), nil).
			build()

		res := AllocateBand(snap, NewAssignment(), workshop.Band1)
		assert.Equal(t, Placements{"Ben": "Holz"}, res.Placements)
		assert.True(t, hasProblem(res.Problems, "band1", "Anna", "got neither choice"))
	})
}

func TestAllocateBand_repeatOfLastYearStripped(t *testing.T) {
	carl := stud("Carl", 5)
	carl.LastYearWorkshop = "Holz"
	snap := newSnap(ws("Holz", 5), ws("Metall", 5)).
		student(carl, choices("Holz", "Metall"), nil).
		build()

	res := AllocateBand(snap, NewAssignment(), workshop.Band1)
	assert.Equal(t, Placements{"Carl": "Metall"}, res.Placements)
	assert.Equal(t, 1, res.FirstChoiceCount, "sanitized choices rank Metall first")
	assert.True(t, hasProblem(res.Problems, "band1", "Carl", `"Holz"`), res.Problems)

	st := NewState(snap, Assignment{Band1: res.Placements, Band2: Placements{}})
	assert.False(t, CanAssign(st, "Carl", "Holz", workshop.Band2).OK)
}

func TestAllocateBand_choiceFiltering(t *testing.T) {
	snap := newSnap(ws("Holz", 5), ws("Textil", 5, workshop.Band1)).
		student(stud("Anna", 5), nil, choices("Textil")).
		student(stud("Ben", 5), nil, choices("Textil", "Holz")).
		student(stud("Carl", 5), nil, choices("Holz", "Holz")).
		build()

	res := AllocateBand(snap, NewAssignment(), workshop.Band2)
	assert.Equal(t, Placements{"Ben": "Holz", "Carl": "Holz"}, res.Placements)
	assert.Equal(t, 2, res.PoolSize, "Anna has no choice offered in band2")
	assert.True(t, hasProblem(res.Problems, "band2", "Anna", "none of the choices"))
	assert.True(t, hasProblem(res.Problems, "band2", "Ben", `"Textil" is not offered`))
	assert.True(t, hasProblem(res.Problems, "band2", "Carl", "duplicate choice"))
	assert.NotContains(t, res.RemainingCapacity, "Textil")
}

func TestAllocateBand_supportStudentsSpread(t *testing.T) {
	support := func(name string) student.Student {
		s := stud(name, 5)
		s.NeedsSupport = true
		return s
	}
	d := ws("Schmuck", 5)
	d.Prerequisites = []string{"Metall"}

	snap := newSnap(ws("Holz", 10), ws("Glas", 10), ws("Metall", 10), d).
		student(support("S1"), choices("Holz", "Glas"), nil).
		student(support("S2"), choices("Holz", "Glas"), nil).
		student(support("S3"), choices("Holz", "Glas"), nil).
		student(support("S4"), choices("Schmuck", "Metall"), nil).
		student(stud("R1", 5), choices("Holz"), nil).
		build()

	res := AllocateBand(snap, NewAssignment(), workshop.Band1)
	assert.Equal(t, Placements{
		"S1": "Holz",
		"S2": "Glas",
		"S3": "Holz",
		"S4": "Metall",
		"R1": "Holz",
	}, res.Placements)
	assert.Equal(t, 3, res.FirstChoiceCount)
	assert.Equal(t, 2, res.SecondChoiceCount)
}

func TestAllocateBand_regularPrerequisiteFailure(t *testing.T) {
	d := ws("Schmuck", 5)
	d.Prerequisites = []string{"Metall"}
	snap := newSnap(ws("Holz", 5), d).
		student(stud("Anna", 5), choices("Schmuck", "Holz"), nil).
		build()

	res := AllocateBand(snap, NewAssignment(), workshop.Band1)
	assert.Equal(t, Placements{"Anna": "Holz"}, res.Placements)
	assert.True(t, hasProblem(res.Problems, "band1", "Anna", `first choice "Schmuck" not possible`))
	assert.Equal(t, 1, res.SecondChoiceCount)
}

func TestAllocateBand_folgekurs(t *testing.T) {
	kunst := rule.Folgekurs{Name: "Kunst", From: "Kunst I", To: "Kunst II", SameBand: true}
	previous := key2526T2.Previous()

	t.Run("obligated students go first", func(t *testing.T) {
		snap := newSnap(ws("Kunst I", 5), ws("Kunst II", 1), ws("Holz", 5)).
			student(stud("Anna", 9), choices("Kunst II"), nil).
			student(stud("Ben", 1), choices("Holz"), nil).
			rules(kunst).
			history(previous, Placements{"Ben": "Kunst I"}, nil).
			build()

		res := AllocateBand(snap, NewAssignment(), workshop.Band1)
		assert.Equal(t, Placements{"Ben": "Kunst II"}, res.Placements)
		assert.True(t, hasProblem(res.Problems, "band1", "Anna", "got neither choice"))
		assert.Equal(t, 0, res.FirstChoiceCount)
	})

	t.Run("obligated student without choices", func(t *testing.T) {
		snap := newSnap(ws("Kunst I", 5), ws("Kunst II", 5)).
			student(stud("Ben", 5), nil, nil).
			rules(kunst).
			history(previous, Placements{"Ben": "Kunst I"}, nil).
			build()

		res := AllocateBand(snap, NewAssignment(), workshop.Band1)
		assert.Equal(t, Placements{"Ben": "Kunst II"}, res.Placements)
		assert.Equal(t, 1, res.PoolSize)

		res = AllocateBand(snap, NewAssignment(), workshop.Band2)
		assert.Empty(t, res.Placements, "the rule binds band1 only")
	})

	t.Run("forced placement fails", func(t *testing.T) {
		snap := newSnap(ws("Kunst I", 5), ws("Kunst II", 0), ws("Holz", 5)).
			student(stud("Ben", 5), choices("Holz"), nil).
			rules(kunst).
			history(previous, Placements{"Ben": "Kunst I"}, nil).
			build()

		res := AllocateBand(snap, NewAssignment(), workshop.Band1)
		assert.Equal(t, Placements{"Ben": "Holz"}, res.Placements)
		assert.True(t, hasProblem(res.Problems, "band1", "Ben", `required by rule "Kunst"`), res.Problems)
	})
}

func TestAllocateBand_keepsOtherBand(t *testing.T) {
	metall := ws("Metall", 5)
	metall.NotParallel = []string{"Holz"}
	snap := newSnap(ws("Holz", 5), metall, ws("Glas", 5)).
		student(stud("Anna", 5), nil, choices("Metall", "Glas")).
		build()
	placed := Assignment{Band1: Placements{"Anna": "Holz"}, Band2: Placements{"Anna": "Metall"}}

	res := AllocateBand(snap, placed, workshop.Band2)
	require.Equal(t, Placements{"Anna": "Glas"}, res.Placements)
	assert.Equal(t, Placements{"Anna": "Metall"}, placed.Band2, "input is not modified")
}
