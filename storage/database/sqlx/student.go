package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kurswahl/core/student"
)

type studentRow struct {
	Name             string      `db:"name"`
	Class            string      `db:"class"`
	NeedsSupport     bool        `db:"needs_support"`
	Priority         float64     `db:"priority"`
	Comment          string      `db:"comment"`
	Trimester        string      `db:"trimester"`
	LastYearWorkshop null.String `db:"last_year_workshop"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

func (r studentRow) student() student.Student {
	return student.Student{
		Name:             r.Name,
		Class:            r.Class,
		NeedsSupport:     r.NeedsSupport,
		Priority:         r.Priority,
		Comment:          r.Comment,
		Trimester:        r.Trimester,
		LastYearWorkshop: r.LastYearWorkshop.String,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

func newStudentRow(s student.Student) studentRow {
	return studentRow{
		Name:             s.Name,
		Class:            s.Class,
		NeedsSupport:     s.NeedsSupport,
		Priority:         s.Priority,
		Comment:          s.Comment,
		Trimester:        s.Trimester,
		LastYearWorkshop: nullString(s.LastYearWorkshop),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

const studentColumns = `name, class, needs_support, priority, comment, trimester, last_year_workshop, created_at, updated_at`

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `INSERT INTO student (` + studentColumns + `)
		VALUES (:name, :class, :needs_support, :priority, :comment, :trimester, :last_year_workshop, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newStudentRow(s)); err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context) ([]student.Student, error) {
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+studentColumns+` FROM student ORDER BY position`); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, name string) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+studentColumns+` FROM student WHERE name = $1`, name); err != nil {
		if isNoRows(err) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "selecting student")
	}
	return row.student(), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `UPDATE student SET class = :class, needs_support = :needs_support, priority = :priority,
		comment = :comment, trimester = :trimester, last_year_workshop = :last_year_workshop, updated_at = :updated_at
		WHERE name = :name`
	res, err := repo.db.NamedExecContext(ctx, q, newStudentRow(s))
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if err = checkAffected(res, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo *studentRepository) SetPriorities(ctx context.Context, scores map[string]float64) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	for name, score := range scores {
		if _, err = tx.ExecContext(ctx, `UPDATE student SET priority = $1, updated_at = $2 WHERE name = $3`,
			score, time.Now().UTC(), name); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "updating priority of %q", name)
		}
	}
	return errors.Wrap(tx.Commit(), "committing priorities")
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, name string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE name = $1`, name)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return checkAffected(res, student.ErrNotFound)
}
