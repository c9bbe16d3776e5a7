package rule

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core"
)

var (
	// errors
	ErrNotFound = errors.New("rule not found")
	ErrExists   = errors.New("a rule with this name already exists")
)

type (
	Repository interface {
		CreateRule(ctx context.Context, r Rule) (Rule, error)
		// QueryRules returns rules in creation order.
		QueryRules(ctx context.Context) (Set, error)
		DeleteRule(ctx context.Context, name string) error
	}

	ServiceInterface interface {
		CheckUniqueness(name string) error
		Create(ctx context.Context, nr NewRule) (Rule, error)
		QueryAll(ctx context.Context) (Set, error)
		Referencing(ctx context.Context, ws string) (Set, error)
		Delete(ctx context.Context, name string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(name string) error {
	rules, err := svc.repo.QueryRules(context.Background())
	if err != nil {
		return errors.Wrap(err, "querying rules")
	}
	for _, r := range rules {
		if strings.EqualFold(r.RuleName(), name) {
			return core.NewConflictError("name", ErrExists)
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nr NewRule) (Rule, error) {
	r := nr.Rule()
	if r == nil {
		return nil, ErrUnknownKind
	}
	return svc.repo.CreateRule(ctx, r)
}

func (svc *Service) QueryAll(ctx context.Context) (Set, error) {
	return svc.repo.QueryRules(ctx)
}

// Referencing returns the rules naming the workshop.
func (svc *Service) Referencing(ctx context.Context, ws string) (Set, error) {
	rules, err := svc.repo.QueryRules(ctx)
	if err != nil {
		return nil, err
	}
	res := make(Set, 0)
	for _, r := range rules {
		if r.References(ws) {
			res = append(res, r)
		}
	}
	return res, nil
}

func (svc *Service) Delete(ctx context.Context, name string) error {
	return svc.repo.DeleteRule(ctx, core.CleanString(name))
}
