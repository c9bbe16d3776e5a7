package dummydb

import (
	"context"

	"github.com/trezcool/kurswahl/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[s.Name]; ok {
		return student.Student{}, student.ErrExists
	}
	repo.db.table[s.Name] = &s
	repo.db.order = append(repo.db.order, s.Name)
	return s, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0, len(repo.db.order))
	for _, name := range repo.db.order {
		students = append(students, *repo.db.table[name])
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, name string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[name]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[s.Name]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.table[s.Name] = &s
	return s, nil
}

func (repo *studentRepository) SetPriorities(_ context.Context, scores map[string]float64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for name, score := range scores {
		if s, ok := repo.db.table[name]; ok {
			s.Priority = score
		}
	}
	return nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, name string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[name]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, name)
	for i, n := range repo.db.order {
		if n == name {
			repo.db.order = append(repo.db.order[:i], repo.db.order[i+1:]...)
			break
		}
	}
	return nil
}
