package dummydb

import (
	"context"

	"github.com/trezcool/kurswahl/core/rule"
)

type ruleRepository struct {
	db *ruleTable
}

var _ rule.Repository = (*ruleRepository)(nil) // interface compliance check

func NewRuleRepository(db *DB) rule.Repository {
	return &ruleRepository{db: db.rule}
}

func (repo *ruleRepository) CreateRule(_ context.Context, r rule.Rule) (rule.Rule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.rows {
		if existing.RuleName() == r.RuleName() {
			return nil, rule.ErrExists
		}
	}
	repo.db.rows = append(repo.db.rows, r)
	return r, nil
}

func (repo *ruleRepository) QueryRules(_ context.Context) (rule.Set, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rules := make(rule.Set, len(repo.db.rows))
	copy(rules, repo.db.rows)
	return rules, nil
}

func (repo *ruleRepository) DeleteRule(_ context.Context, name string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i, r := range repo.db.rows {
		if r.RuleName() == name {
			repo.db.rows = append(repo.db.rows[:i:i], repo.db.rows[i+1:]...)
			return nil
		}
	}
	return rule.ErrNotFound
}
