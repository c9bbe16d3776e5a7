package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kurswahl/core/rule"
)

type ruleRow struct {
	Name      string         `db:"name"`
	Kind      string         `db:"kind"`
	Workshops pq.StringArray `db:"workshops"`
	From      null.String    `db:"from_course"`
	To        null.String    `db:"to_course"`
	SameBand  bool           `db:"same_band"`
	CreatedAt time.Time      `db:"created_at"`
}

type ruleRepository struct {
	db *sqlx.DB
}

var _ rule.Repository = (*ruleRepository)(nil) // interface compliance check

func NewRuleRepository(db *sqlx.DB) rule.Repository {
	return &ruleRepository{db: db}
}

func (repo *ruleRepository) CreateRule(ctx context.Context, r rule.Rule) (rule.Rule, error) {
	env := rule.Wrap(r)
	row := ruleRow{
		Name:      env.Name,
		Kind:      env.Kind,
		Workshops: stringArray(env.Workshops),
		From:      nullString(env.From),
		To:        nullString(env.To),
		SameBand:  env.SameBand,
		CreatedAt: time.Now().UTC(),
	}
	q := `INSERT INTO rule (name, kind, workshops, from_course, to_course, same_band, created_at)
		VALUES (:name, :kind, :workshops, :from_course, :to_course, :same_band, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return nil, rule.ErrExists
		}
		return nil, errors.Wrap(err, "inserting rule")
	}
	return r, nil
}

func (repo *ruleRepository) QueryRules(ctx context.Context) (rule.Set, error) {
	var rows []ruleRow
	q := `SELECT name, kind, workshops, from_course, to_course, same_band, created_at FROM rule ORDER BY created_at, name`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting rules")
	}
	rules := make(rule.Set, 0, len(rows))
	for _, row := range rows {
		r, err := rule.Envelope{
			Kind:      row.Kind,
			Name:      row.Name,
			Workshops: []string(row.Workshops),
			From:      row.From.String,
			To:        row.To.String,
			SameBand:  row.SameBand,
		}.Rule()
		if err != nil {
			return nil, errors.Wrapf(err, "decoding rule %q", row.Name)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (repo *ruleRepository) DeleteRule(ctx context.Context, name string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM rule WHERE name = $1`, name)
	if err != nil {
		return errors.Wrap(err, "deleting rule")
	}
	return checkAffected(res, rule.ErrNotFound)
}
