package student

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
	ErrExists   = errors.New("a student with this name already exists")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		// QueryStudents returns the roster in insertion order.
		QueryStudents(ctx context.Context) ([]Student, error)
		GetStudent(ctx context.Context, name string) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		// SetPriorities persists several scores at once, keyed by student name.
		SetPriorities(ctx context.Context, scores map[string]float64) error
		DeleteStudent(ctx context.Context, name string) error
	}

	ServiceInterface interface {
		CheckUniqueness(name string) error
		Create(ctx context.Context, ns NewStudent) (Student, error)
		QueryAll(ctx context.Context) ([]Student, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Student, error)
		Get(ctx context.Context, name string) (Student, error)
		Update(ctx context.Context, name string, us UpdateStudent) (Student, error)
		SetPriorities(ctx context.Context, scores map[string]float64) error
		Delete(ctx context.Context, name string) error
	}

	Service struct {
		repo            Repository
		defaultPriority float64
		nowFunc         func() time.Time
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, conf *core.Config) *Service {
	prio := DefaultPriority
	if conf != nil && conf.Allocation.DefaultPriority > 0 {
		prio = ClampPriority(conf.Allocation.DefaultPriority)
	}
	return &Service{repo: repo, defaultPriority: prio, nowFunc: time.Now}
}

// DefaultPriority returns the score given to students who were never allocated.
func (svc *Service) DefaultPriority() float64 {
	return svc.defaultPriority
}

// CheckUniqueness compares names case-insensitively.
func (svc *Service) CheckUniqueness(name string) error {
	students, err := svc.repo.QueryStudents(context.Background())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	for _, s := range students {
		if strings.EqualFold(s.Name, name) {
			return core.NewConflictError("name", ErrExists)
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := svc.nowFunc().UTC()
	s := Student{
		Name:             ns.Name,
		Class:            ns.Class,
		NeedsSupport:     ns.NeedsSupport,
		Priority:         svc.defaultPriority,
		Comment:          ns.Comment,
		Trimester:        ns.Trimester,
		LastYearWorkshop: ns.LastYearWorkshop,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if ns.Priority != nil {
		s.Priority = ClampPriority(*ns.Priority)
	}
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx)
}

// Filter applies AND operation on the provided QueryFilter fields.
// QueryFilter.Search does a case-insensitive match on Student.Name or Student.Comment.
func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Student, error) {
	students, err := svc.repo.QueryStudents(ctx)
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return students, nil
	}

	search := strings.ToLower(filter.Search)
	res := make([]Student, 0, len(students))
	for _, s := range students {
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.Comment), search) {
			continue
		}
		if filter.Class != "" && !strings.EqualFold(s.Class, filter.Class) {
			continue
		}
		if filter.NeedsSupport != nil && s.NeedsSupport != *filter.NeedsSupport {
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

func (svc *Service) Get(ctx context.Context, name string) (Student, error) {
	return svc.repo.GetStudent(ctx, core.CleanString(name))
}

func (svc *Service) Update(ctx context.Context, name string, us UpdateStudent) (Student, error) {
	s, err := svc.Get(ctx, name)
	if err != nil {
		return Student{}, err
	}
	us.apply(&s)
	s.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *Service) SetPriorities(ctx context.Context, scores map[string]float64) error {
	clamped := make(map[string]float64, len(scores))
	for name, score := range scores {
		clamped[name] = ClampPriority(score)
	}
	return svc.repo.SetPriorities(ctx, clamped)
}

func (svc *Service) Delete(ctx context.Context, name string) error {
	return svc.repo.DeleteStudent(ctx, core.CleanString(name))
}

// Sort orders students in place by name, class or priority. Ties keep the roster order.
func Sort(students []Student, ordering []core.Ordering) {
	ordering = core.FilterOrderings(ordering, "name", "class", "priority")
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(students, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareField(students[i], students[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareField(a, b Student, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "class":
		return strings.Compare(strings.ToLower(a.Class), strings.ToLower(b.Class))
	case "priority":
		switch {
		case a.Priority < b.Priority:
			return -1
		case a.Priority > b.Priority:
			return 1
		}
	}
	return 0
}
