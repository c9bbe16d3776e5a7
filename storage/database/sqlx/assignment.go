package sqlxrepos

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core/assignment"
)

type slotRow struct {
	Key     string         `db:"key"`
	Band1   types.JSONText `db:"band1"`
	Band2   types.JSONText `db:"band2"`
	SavedAt time.Time      `db:"saved_at"`
}

func (r slotRow) slot() (assignment.Slot, error) {
	key, err := assignment.ParseSlotKey(r.Key)
	if err != nil {
		return assignment.Slot{}, err
	}
	slot := assignment.Slot{Key: key, Assignment: assignment.NewAssignment(), SavedAt: r.SavedAt.UTC()}
	if err = r.Band1.Unmarshal(&slot.Band1); err != nil {
		return assignment.Slot{}, errors.Wrap(err, "decoding band1")
	}
	if err = r.Band2.Unmarshal(&slot.Band2); err != nil {
		return assignment.Slot{}, errors.Wrap(err, "decoding band2")
	}
	return slot, nil
}

type draftRow struct {
	Key       string         `db:"key"`
	Payload   types.JSONText `db:"payload"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r draftRow) draft() (assignment.Draft, error) {
	var d assignment.Draft
	if err := r.Payload.Unmarshal(&d); err != nil {
		return assignment.Draft{}, errors.Wrapf(err, "decoding draft %s", r.Key)
	}
	return d, nil
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) SaveSlot(ctx context.Context, slot assignment.Slot) error {
	band1, err := json.Marshal(slot.Band1)
	if err != nil {
		return errors.Wrap(err, "encoding band1")
	}
	band2, err := json.Marshal(slot.Band2)
	if err != nil {
		return errors.Wrap(err, "encoding band2")
	}
	q := `INSERT INTO slot (key, band1, band2, saved_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET band1 = EXCLUDED.band1, band2 = EXCLUDED.band2, saved_at = EXCLUDED.saved_at`
	if _, err = repo.db.ExecContext(ctx, q, slot.Key.String(), types.JSONText(band1), types.JSONText(band2), slot.SavedAt); err != nil {
		return errors.Wrap(err, "saving slot")
	}
	return nil
}

func (repo *assignmentRepository) QuerySlots(ctx context.Context) ([]assignment.Slot, error) {
	var rows []slotRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT key, band1, band2, saved_at FROM slot`); err != nil {
		return nil, errors.Wrap(err, "selecting slots")
	}
	slots := make([]assignment.Slot, 0, len(rows))
	for _, r := range rows {
		slot, err := r.slot()
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Key.Before(slots[j].Key) })
	return slots, nil
}

func (repo *assignmentRepository) GetSlot(ctx context.Context, key assignment.SlotKey) (assignment.Slot, error) {
	var row slotRow
	if err := repo.db.GetContext(ctx, &row, `SELECT key, band1, band2, saved_at FROM slot WHERE key = $1`, key.String()); err != nil {
		if isNoRows(err) {
			return assignment.Slot{}, assignment.ErrSlotNotFound
		}
		return assignment.Slot{}, errors.Wrap(err, "selecting slot")
	}
	return row.slot()
}

func (repo *assignmentRepository) SaveDraft(ctx context.Context, d assignment.Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "encoding draft")
	}
	q := `INSERT INTO draft (key, payload, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err = repo.db.ExecContext(ctx, q, d.Key.String(), types.JSONText(payload), time.Now().UTC()); err != nil {
		return errors.Wrap(err, "saving draft")
	}
	return nil
}

func (repo *assignmentRepository) QueryDrafts(ctx context.Context) ([]assignment.Draft, error) {
	var rows []draftRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT key, payload, updated_at FROM draft`); err != nil {
		return nil, errors.Wrap(err, "selecting drafts")
	}
	drafts := make([]assignment.Draft, 0, len(rows))
	for _, r := range rows {
		d, err := r.draft()
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].Key.Before(drafts[j].Key) })
	return drafts, nil
}

func (repo *assignmentRepository) GetDraft(ctx context.Context, key assignment.SlotKey) (assignment.Draft, error) {
	var row draftRow
	if err := repo.db.GetContext(ctx, &row, `SELECT key, payload, updated_at FROM draft WHERE key = $1`, key.String()); err != nil {
		if isNoRows(err) {
			return assignment.Draft{}, assignment.ErrDraftNotFound
		}
		return assignment.Draft{}, errors.Wrap(err, "selecting draft")
	}
	return row.draft()
}

func (repo *assignmentRepository) DeleteDraft(ctx context.Context, key assignment.SlotKey) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM draft WHERE key = $1`, key.String())
	if err != nil {
		return errors.Wrap(err, "deleting draft")
	}
	return checkAffected(res, assignment.ErrDraftNotFound)
}
