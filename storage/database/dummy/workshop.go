package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/kurswahl/core/workshop"
)

type workshopRepository struct {
	db *workshopTable
}

var _ workshop.Repository = (*workshopRepository)(nil) // interface compliance check

func NewWorkshopRepository(db *DB) workshop.Repository {
	return &workshopRepository{db: db.workshop}
}

func cloneWorkshop(w workshop.Workshop) *workshop.Workshop {
	w.Bands = append(workshop.Bands(nil), w.Bands...)
	w.Prerequisites = copyStrings(w.Prerequisites)
	w.NotParallel = copyStrings(w.NotParallel)
	return &w
}

func (repo *workshopRepository) CreateWorkshop(_ context.Context, w workshop.Workshop) (workshop.Workshop, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[w.Name]; ok {
		return workshop.Workshop{}, workshop.ErrExists
	}
	repo.db.table[w.Name] = cloneWorkshop(w)
	return w, nil
}

func (repo *workshopRepository) QueryWorkshops(_ context.Context, archived bool) ([]workshop.Workshop, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	workshops := make([]workshop.Workshop, 0, len(repo.db.table))
	for _, w := range repo.db.table {
		if w.IsArchived() == archived {
			workshops = append(workshops, *cloneWorkshop(*w))
		}
	}
	sort.Slice(workshops, func(i, j int) bool { return workshops[i].Name < workshops[j].Name })
	return workshops, nil
}

func (repo *workshopRepository) GetWorkshop(_ context.Context, name string) (workshop.Workshop, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if w, ok := repo.db.table[name]; ok {
		return *cloneWorkshop(*w), nil
	}
	return workshop.Workshop{}, workshop.ErrNotFound
}

func (repo *workshopRepository) UpdateWorkshop(_ context.Context, w workshop.Workshop) (workshop.Workshop, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[w.Name]; !ok {
		return workshop.Workshop{}, workshop.ErrNotFound
	}
	repo.db.table[w.Name] = cloneWorkshop(w)
	return w, nil
}

func (repo *workshopRepository) DeleteWorkshop(_ context.Context, name string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[name]; !ok {
		return workshop.ErrNotFound
	}
	delete(repo.db.table, name)
	return nil
}
