package dummydb

import (
	"sync"

	"github.com/trezcool/kurswahl/core/assignment"
	"github.com/trezcool/kurswahl/core/operator"
	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

type (
	DB struct {
		operator *operatorTable
		student  *studentTable
		workshop *workshopTable
		rule     *ruleTable
		slot     *slotTable
		draft    *draftTable
	}

	operatorTable struct {
		sync.RWMutex
		table map[string]*operator.Operator
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
		order []string // insertion order
	}

	workshopTable struct {
		sync.RWMutex
		table map[string]*workshop.Workshop
	}

	ruleTable struct {
		sync.RWMutex
		rows rule.Set
	}

	slotTable struct {
		sync.RWMutex
		table map[assignment.SlotKey]*assignment.Slot
	}

	draftTable struct {
		sync.RWMutex
		table map[assignment.SlotKey]*assignment.Draft
	}
)

func Open() (*DB, error) {
	db := &DB{
		operator: &operatorTable{table: make(map[string]*operator.Operator)},
		student:  &studentTable{table: make(map[string]*student.Student)},
		workshop: &workshopTable{table: make(map[string]*workshop.Workshop)},
		rule:     &ruleTable{rows: make(rule.Set, 0)},
		slot:     &slotTable{table: make(map[assignment.SlotKey]*assignment.Slot)},
		draft:    &draftTable{table: make(map[assignment.SlotKey]*assignment.Draft)},
	}
	return db, nil
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	res := make([]string, len(s))
	copy(res, s)
	return res
}
