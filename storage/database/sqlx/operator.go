package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kurswahl/core/operator"
)

type operatorRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (r operatorRow) operator() operator.Operator {
	return operator.Operator{
		ID:           r.ID,
		Username:     r.Username,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		LastLogin:    r.LastLogin.Time.UTC(),
	}
}

func newOperatorRow(o operator.Operator) operatorRow {
	return operatorRow{
		ID:           o.ID,
		Username:     o.Username,
		IsActive:     o.IsActive,
		PasswordHash: o.PasswordHash,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		LastLogin:    null.NewTime(o.LastLogin, !o.LastLogin.IsZero()),
	}
}

type operatorRepository struct {
	db *sqlx.DB
}

var _ operator.Repository = (*operatorRepository)(nil) // interface compliance check

func NewOperatorRepository(db *sqlx.DB) operator.Repository {
	return &operatorRepository{db: db}
}

const operatorColumns = `id, username, is_active, password_hash, created_at, updated_at, last_login`

func (repo *operatorRepository) CreateOperator(ctx context.Context, o operator.Operator) (operator.Operator, error) {
	q := `INSERT INTO operator (` + operatorColumns + `)
		VALUES (:id, :username, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, newOperatorRow(o)); err != nil {
		if isUniqueViolation(err) {
			return operator.Operator{}, operator.ErrUsernameExists
		}
		return operator.Operator{}, errors.Wrap(err, "inserting operator")
	}
	return o, nil
}

func (repo *operatorRepository) get(ctx context.Context, where string, arg interface{}) (operator.Operator, error) {
	var row operatorRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+operatorColumns+` FROM operator WHERE `+where, arg); err != nil {
		if isNoRows(err) {
			return operator.Operator{}, operator.ErrNotFound
		}
		return operator.Operator{}, errors.Wrap(err, "selecting operator")
	}
	return row.operator(), nil
}

func (repo *operatorRepository) GetOperatorByID(ctx context.Context, id string) (operator.Operator, error) {
	return repo.get(ctx, "id = $1", id)
}

func (repo *operatorRepository) GetOperatorByUsername(ctx context.Context, username string) (operator.Operator, error) {
	return repo.get(ctx, "username = $1", username)
}

func (repo *operatorRepository) UpdateOperator(ctx context.Context, o operator.Operator) (operator.Operator, error) {
	q := `UPDATE operator SET username = :username, is_active = :is_active, password_hash = :password_hash,
		updated_at = :updated_at, last_login = :last_login WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newOperatorRow(o))
	if err != nil {
		return operator.Operator{}, errors.Wrap(err, "updating operator")
	}
	if err = checkAffected(res, operator.ErrNotFound); err != nil {
		return operator.Operator{}, err
	}
	return o, nil
}
