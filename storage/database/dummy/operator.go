package dummydb

import (
	"context"

	"github.com/trezcool/kurswahl/core/operator"
)

type operatorRepository struct {
	db *operatorTable
}

var _ operator.Repository = (*operatorRepository)(nil) // interface compliance check

func NewOperatorRepository(db *DB) operator.Repository {
	return &operatorRepository{db: db.operator}
}

func (repo *operatorRepository) CreateOperator(_ context.Context, o operator.Operator) (operator.Operator, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.Username == o.Username {
			return operator.Operator{}, operator.ErrUsernameExists
		}
	}
	repo.db.table[o.ID] = &o
	return o, nil
}

func (repo *operatorRepository) GetOperatorByID(_ context.Context, id string) (operator.Operator, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if o, ok := repo.db.table[id]; ok {
		return *o, nil
	}
	return operator.Operator{}, operator.ErrNotFound
}

func (repo *operatorRepository) GetOperatorByUsername(_ context.Context, username string) (operator.Operator, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, o := range repo.db.table {
		if o.Username == username {
			return *o, nil
		}
	}
	return operator.Operator{}, operator.ErrNotFound
}

func (repo *operatorRepository) UpdateOperator(_ context.Context, o operator.Operator) (operator.Operator, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[o.ID]; !ok {
		return operator.Operator{}, operator.ErrNotFound
	}
	repo.db.table[o.ID] = &o
	return o, nil
}
