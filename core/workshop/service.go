package workshop

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core"
)

var (
	// errors
	ErrNotFound    = errors.New("workshop not found")
	ErrExists      = errors.New("a workshop with this name already exists")
	ErrNotArchived = errors.New("workshop is not archived")
)

type (
	Repository interface {
		CreateWorkshop(ctx context.Context, w Workshop) (Workshop, error)
		// QueryWorkshops returns active or archived workshops, sorted by name.
		QueryWorkshops(ctx context.Context, archived bool) ([]Workshop, error)
		// GetWorkshop finds an active or archived workshop by its exact name.
		GetWorkshop(ctx context.Context, name string) (Workshop, error)
		UpdateWorkshop(ctx context.Context, w Workshop) (Workshop, error)
		DeleteWorkshop(ctx context.Context, name string) error
	}

	// HistoryKeeper knows about past and current assignments referencing workshops.
	HistoryKeeper interface {
		WorkshopHasHistory(ctx context.Context, name string) (bool, error)
		PurgeWorkshop(ctx context.Context, name string) error
	}

	ServiceInterface interface {
		CheckUniqueness(name string, excluded ...string) error
		Create(ctx context.Context, nw NewWorkshop) (Workshop, error)
		Query(ctx context.Context) ([]Workshop, error)
		QueryArchive(ctx context.Context) ([]Workshop, error)
		Get(ctx context.Context, name string) (Workshop, error)
		Update(ctx context.Context, name string, uw UpdateWorkshop) (Workshop, error)
		Delete(ctx context.Context, name string) (archived bool, err error)
		Reactivate(ctx context.Context, name string) (Workshop, error)
		Purge(ctx context.Context, name string) error
		ImportTable(ctx context.Context, tbl Table) ([]Workshop, error)
	}

	Service struct {
		repo    Repository
		history HistoryKeeper
		nowFunc func() time.Time
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, history HistoryKeeper) *Service {
	return &Service{repo: repo, history: history, nowFunc: time.Now}
}

// CheckUniqueness compares normalized names of active and archived workshops.
func (svc *Service) CheckUniqueness(name string, excluded ...string) error {
	ctx := context.Background()
	norm := NormalizeName(name)
	for _, archived := range []bool{false, true} {
		workshops, err := svc.repo.QueryWorkshops(ctx, archived)
		if err != nil {
			return errors.Wrap(err, "querying workshops")
		}
		for _, w := range workshops {
			if NormalizeName(w.Name) != norm || isExcluded(w.Name, excluded) {
				continue
			}
			return core.NewConflictError("name", ErrExists)
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nw NewWorkshop) (Workshop, error) {
	now := svc.nowFunc().UTC()
	w := Workshop{
		Name:          nw.Name,
		Capacity:      nw.Capacity,
		Bands:         nw.Bands.Normalized(),
		Teacher:       nw.Teacher,
		TeacherEmail:  nw.TeacherEmail,
		Room:          nw.Room,
		Color:         nw.Color,
		Prerequisites: nonNil(nw.Prerequisites),
		NotParallel:   nonNil(nw.NotParallel),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateWorkshop(ctx, w)
}

func (svc *Service) Query(ctx context.Context) ([]Workshop, error) {
	return svc.repo.QueryWorkshops(ctx, false)
}

func (svc *Service) QueryArchive(ctx context.Context) ([]Workshop, error) {
	return svc.repo.QueryWorkshops(ctx, true)
}

func (svc *Service) Get(ctx context.Context, name string) (Workshop, error) {
	return svc.repo.GetWorkshop(ctx, name)
}

func (svc *Service) Update(ctx context.Context, name string, uw UpdateWorkshop) (Workshop, error) {
	w, err := svc.repo.GetWorkshop(ctx, name)
	if err != nil {
		return Workshop{}, err
	}
	uw.apply(&w)
	w.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateWorkshop(ctx, w)
}

// Delete archives the workshop when any student was ever assigned to it, else removes it for good.
func (svc *Service) Delete(ctx context.Context, name string) (bool, error) {
	w, err := svc.repo.GetWorkshop(ctx, name)
	if err != nil {
		return false, err
	}
	if w.IsArchived() {
		return true, nil
	}

	hasHistory, err := svc.history.WorkshopHasHistory(ctx, w.Name)
	if err != nil {
		return false, errors.Wrap(err, "checking workshop history")
	}
	if !hasHistory {
		return false, svc.repo.DeleteWorkshop(ctx, w.Name)
	}

	now := svc.nowFunc().UTC()
	w.ArchivedAt = now
	w.UpdatedAt = now
	if _, err = svc.repo.UpdateWorkshop(ctx, w); err != nil {
		return false, errors.Wrap(err, "archiving workshop")
	}
	return true, nil
}

func (svc *Service) Reactivate(ctx context.Context, name string) (Workshop, error) {
	w, err := svc.repo.GetWorkshop(ctx, name)
	if err != nil {
		return Workshop{}, err
	}
	if !w.IsArchived() {
		return Workshop{}, ErrNotArchived
	}
	w.ArchivedAt = time.Time{}
	w.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateWorkshop(ctx, w)
}

// Purge removes an archived workshop and unassigns every placement referencing it.
func (svc *Service) Purge(ctx context.Context, name string) error {
	w, err := svc.repo.GetWorkshop(ctx, name)
	if err != nil {
		return err
	}
	if !w.IsArchived() {
		return ErrNotArchived
	}
	if err = svc.history.PurgeWorkshop(ctx, w.Name); err != nil {
		return errors.Wrap(err, "purging workshop history")
	}
	return svc.repo.DeleteWorkshop(ctx, w.Name)
}

// ImportTable creates or updates capacities and bands from a (possibly legacy) workshop table.
// Names are matched case- and whitespace-insensitively against existing workshops.
func (svc *Service) ImportTable(ctx context.Context, tbl Table) ([]Workshop, error) {
	existing, err := svc.repo.QueryWorkshops(ctx, false)
	if err != nil {
		return nil, errors.Wrap(err, "querying workshops")
	}
	byNorm := make(map[string]Workshop, len(existing))
	for _, w := range existing {
		byNorm[NormalizeName(w.Name)] = w
	}

	res := make([]Workshop, 0, len(tbl))
	now := svc.nowFunc().UTC()
	for _, name := range tbl.Names() {
		a := tbl[name]
		bands := a.Bands.Normalized()
		if len(bands) == 0 {
			bands = AllBands
		}

		if w, ok := byNorm[NormalizeName(name)]; ok {
			w.Capacity = a.Capacity
			w.Bands = bands
			w.UpdatedAt = now
			if w, err = svc.repo.UpdateWorkshop(ctx, w); err != nil {
				return nil, errors.Wrapf(err, "updating workshop %q", name)
			}
			res = append(res, w)
			continue
		}

		cleaned := CleanName(name)
		if cleaned == "" {
			continue
		}
		w, err := svc.repo.CreateWorkshop(ctx, Workshop{
			Name:          cleaned,
			Capacity:      a.Capacity,
			Bands:         bands,
			Prerequisites: []string{},
			NotParallel:   []string{},
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "creating workshop %q", name)
		}
		byNorm[NormalizeName(cleaned)] = w
		res = append(res, w)
	}
	return res, nil
}

func isExcluded(name string, excluded []string) bool {
	for _, e := range excluded {
		if e == name {
			return true
		}
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
