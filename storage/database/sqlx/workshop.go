package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kurswahl/core/workshop"
)

type workshopRow struct {
	Name          string         `db:"name"`
	Capacity      int            `db:"capacity"`
	Bands         pq.StringArray `db:"bands"`
	Teacher       null.String    `db:"teacher"`
	TeacherEmail  null.String    `db:"teacher_email"`
	Room          null.String    `db:"room"`
	Color         null.String    `db:"color"`
	Prerequisites pq.StringArray `db:"prerequisites"`
	NotParallel   pq.StringArray `db:"not_parallel"`
	ArchivedAt    null.Time      `db:"archived_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r workshopRow) workshop() workshop.Workshop {
	bands := make(workshop.Bands, 0, len(r.Bands))
	for _, b := range r.Bands {
		bands = append(bands, workshop.Band(b))
	}
	w := workshop.Workshop{
		Name:          r.Name,
		Capacity:      r.Capacity,
		Bands:         bands.Normalized(),
		Teacher:       r.Teacher.String,
		TeacherEmail:  r.TeacherEmail.String,
		Room:          r.Room.String,
		Color:         r.Color.String,
		Prerequisites: []string(r.Prerequisites),
		NotParallel:   []string(r.NotParallel),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if r.ArchivedAt.Valid {
		w.ArchivedAt = r.ArchivedAt.Time.UTC()
	}
	return w
}

func newWorkshopRow(w workshop.Workshop) workshopRow {
	bands := make(pq.StringArray, 0, len(w.Bands))
	for _, b := range w.Bands.Normalized() {
		bands = append(bands, b.String())
	}
	return workshopRow{
		Name:          w.Name,
		Capacity:      w.Capacity,
		Bands:         bands,
		Teacher:       nullString(w.Teacher),
		TeacherEmail:  nullString(w.TeacherEmail),
		Room:          nullString(w.Room),
		Color:         nullString(w.Color),
		Prerequisites: stringArray(w.Prerequisites),
		NotParallel:   stringArray(w.NotParallel),
		ArchivedAt:    null.NewTime(w.ArchivedAt, !w.ArchivedAt.IsZero()),
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

type workshopRepository struct {
	db *sqlx.DB
}

var _ workshop.Repository = (*workshopRepository)(nil) // interface compliance check

func NewWorkshopRepository(db *sqlx.DB) workshop.Repository {
	return &workshopRepository{db: db}
}

const workshopColumns = `name, capacity, bands, teacher, teacher_email, room, color, prerequisites, not_parallel,
	archived_at, created_at, updated_at`

func (repo *workshopRepository) CreateWorkshop(ctx context.Context, w workshop.Workshop) (workshop.Workshop, error) {
	q := `INSERT INTO workshop (` + workshopColumns + `)
		VALUES (:name, :capacity, :bands, :teacher, :teacher_email, :room, :color, :prerequisites, :not_parallel,
		:archived_at, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newWorkshopRow(w)); err != nil {
		if isUniqueViolation(err) {
			return workshop.Workshop{}, workshop.ErrExists
		}
		return workshop.Workshop{}, errors.Wrap(err, "inserting workshop")
	}
	return w, nil
}

func (repo *workshopRepository) QueryWorkshops(ctx context.Context, archived bool) ([]workshop.Workshop, error) {
	where := "archived_at IS NULL"
	if archived {
		where = "archived_at IS NOT NULL"
	}
	var rows []workshopRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+workshopColumns+` FROM workshop WHERE `+where+` ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "selecting workshops")
	}
	workshops := make([]workshop.Workshop, 0, len(rows))
	for _, r := range rows {
		workshops = append(workshops, r.workshop())
	}
	return workshops, nil
}

func (repo *workshopRepository) GetWorkshop(ctx context.Context, name string) (workshop.Workshop, error) {
	var row workshopRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+workshopColumns+` FROM workshop WHERE name = $1`, name); err != nil {
		if isNoRows(err) {
			return workshop.Workshop{}, workshop.ErrNotFound
		}
		return workshop.Workshop{}, errors.Wrap(err, "selecting workshop")
	}
	return row.workshop(), nil
}

func (repo *workshopRepository) UpdateWorkshop(ctx context.Context, w workshop.Workshop) (workshop.Workshop, error) {
	q := `UPDATE workshop SET capacity = :capacity, bands = :bands, teacher = :teacher, teacher_email = :teacher_email,
		room = :room, color = :color, prerequisites = :prerequisites, not_parallel = :not_parallel,
		archived_at = :archived_at, updated_at = :updated_at
		WHERE name = :name`
	res, err := repo.db.NamedExecContext(ctx, q, newWorkshopRow(w))
	if err != nil {
		return workshop.Workshop{}, errors.Wrap(err, "updating workshop")
	}
	if err = checkAffected(res, workshop.ErrNotFound); err != nil {
		return workshop.Workshop{}, err
	}
	return w, nil
}

func (repo *workshopRepository) DeleteWorkshop(ctx context.Context, name string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM workshop WHERE name = $1`, name)
	if err != nil {
		return errors.Wrap(err, "deleting workshop")
	}
	return checkAffected(res, workshop.ErrNotFound)
}
