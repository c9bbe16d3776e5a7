package assignment

import (
	"strings"

	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

var key2526T2 = SlotKey{StartYear: 2025, Trimester: 2}

func ws(name string, capacity int, bands ...workshop.Band) workshop.Workshop {
	if len(bands) == 0 {
		bands = workshop.AllBands
	}
	return workshop.Workshop{
		Name:          name,
		Capacity:      capacity,
		Bands:         bands,
		Prerequisites: []string{},
		NotParallel:   []string{},
	}
}

func stud(name string, priority float64) student.Student {
	return student.Student{Name: name, Priority: priority}
}

type snapBuilder struct {
	snap Snapshot
}

func newSnap(workshops ...workshop.Workshop) *snapBuilder {
	return &snapBuilder{snap: Snapshot{
		Key:       key2526T2,
		Workshops: workshops,
		Rules:     rule.Set{},
		Choices:   ChoiceSet{Band1: map[string][]string{}, Band2: map[string][]string{}},
	}}
}

func (sb *snapBuilder) student(s student.Student, band1, band2 []string) *snapBuilder {
	sb.snap.Students = append(sb.snap.Students, s)
	if band1 != nil {
		sb.snap.Choices.Band1[s.Name] = band1
	}
	if band2 != nil {
		sb.snap.Choices.Band2[s.Name] = band2
	}
	return sb
}

func (sb *snapBuilder) rules(rs ...rule.Rule) *snapBuilder {
	sb.snap.Rules = append(sb.snap.Rules, rs...)
	return sb
}

func (sb *snapBuilder) history(key SlotKey, band1, band2 Placements) *snapBuilder {
	if band1 == nil {
		band1 = Placements{}
	}
	if band2 == nil {
		band2 = Placements{}
	}
	sb.snap.History = append(sb.snap.History, Slot{Key: key, Assignment: Assignment{Band1: band1, Band2: band2}})
	return sb
}

func (sb *snapBuilder) build() *Snapshot {
	snap := sb.snap
	return &snap
}

func choices(names ...string) []string { return names }

func hasProblem(problems []Problem, band, studentName, substr string) bool {
	for _, p := range problems {
		if p.Band == band && p.Student == studentName && strings.Contains(p.Message, substr) {
			return true
		}
	}
	return false
}
