package operator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core"
)

var (
	// errors
	ErrNotFound       = errors.New("operator not found")
	ErrUsernameExists = errors.New("an operator with this username already exists")
	ErrInvalidCreds   = errors.New("invalid credentials")
)

type (
	Repository interface {
		CreateOperator(ctx context.Context, o Operator) (Operator, error)
		GetOperatorByID(ctx context.Context, id string) (Operator, error)
		GetOperatorByUsername(ctx context.Context, username string) (Operator, error)
		UpdateOperator(ctx context.Context, o Operator) (Operator, error)
	}

	ServiceInterface interface {
		CheckUniqueness(username string) error
		Create(ctx context.Context, no NewOperator) (Operator, error)
		GetByID(ctx context.Context, id string) (Operator, error)
		GetByUsername(ctx context.Context, username string) (Operator, error)
		Login(ctx context.Context, lc LoginCredentials) (Operator, error)
		SetPassword(ctx context.Context, username, pwd string) (Operator, error)
	}

	Service struct {
		repo    Repository
		nowFunc func() time.Time
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, nowFunc: time.Now}
}

func (svc *Service) CheckUniqueness(username string) error {
	_, err := svc.repo.GetOperatorByUsername(context.Background(), username)
	switch errors.Cause(err) {
	case nil:
		return core.NewConflictError("username", ErrUsernameExists)
	case ErrNotFound:
		return nil
	}
	return err
}

func (svc *Service) Create(ctx context.Context, no NewOperator) (Operator, error) {
	now := svc.nowFunc().UTC()
	o := Operator{
		ID:        uuid.New().String(),
		Username:  no.Username,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.SetPassword(no.Password); err != nil {
		return Operator{}, err
	}
	return svc.repo.CreateOperator(ctx, o)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Operator, error) {
	return svc.repo.GetOperatorByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, username string) (Operator, error) {
	return svc.repo.GetOperatorByUsername(ctx, core.CleanString(username, true /* lower */))
}

// Login checks the credentials of an active operator and records the login time.
func (svc *Service) Login(ctx context.Context, lc LoginCredentials) (Operator, error) {
	o, err := svc.GetByUsername(ctx, lc.Username)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Operator{}, ErrInvalidCreds
		}
		return Operator{}, err
	}
	if !o.IsActive || o.CheckPassword(lc.Password) != nil {
		return Operator{}, ErrInvalidCreds
	}
	o.LastLogin = svc.nowFunc().UTC()
	return svc.repo.UpdateOperator(ctx, o)
}

// SetPassword updates or creates an active operator with the given password.
func (svc *Service) SetPassword(ctx context.Context, username, pwd string) (Operator, error) {
	now := svc.nowFunc().UTC()
	o, err := svc.GetByUsername(ctx, username)
	create := false
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Operator{}, err
		}
		create = true
		o = Operator{
			ID:        uuid.New().String(),
			Username:  core.CleanString(username, true /* lower */),
			CreatedAt: now,
		}
	}
	o.IsActive = true
	o.UpdatedAt = now
	if err = o.SetPassword(pwd); err != nil {
		return Operator{}, err
	}
	if create {
		return svc.repo.CreateOperator(ctx, o)
	}
	return svc.repo.UpdateOperator(ctx, o)
}
