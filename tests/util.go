// Package testutil wires the services on the in-memory repositories for tests.
package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/assignment"
	"github.com/trezcool/kurswahl/core/operator"
	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
	"github.com/trezcool/kurswahl/services/email"
	"github.com/trezcool/kurswahl/services/logger"
	"github.com/trezcool/kurswahl/storage/database/dummy"
)

type App struct {
	Conf       *core.Config
	Logger     core.Logger
	Mail       *emailsvc.ConsoleService
	Validate   *validator.Validate
	Translator ut.Translator

	OperatorRepo   operator.Repository
	StudentRepo    student.Repository
	WorkshopRepo   workshop.Repository
	RuleRepo       rule.Repository
	AssignmentRepo assignment.Repository

	Operators   *operator.Service
	Students    *student.Service
	Workshops   *workshop.Service
	Rules       *rule.Service
	Assignments *assignment.Service
}

// NewApp returns fresh services over an empty in-memory database.
func NewApp(t *testing.T) *App {
	t.Helper()

	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	core.ParseEmailTemplates(logger, true /* strict */)

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}

	validate, translator := NewValidator()
	app := &App{
		Conf:           conf,
		Logger:         logger,
		Mail:           emailsvc.NewConsoleServiceMock(logger, conf),
		Validate:       validate,
		Translator:     translator,
		OperatorRepo:   dummydb.NewOperatorRepository(db),
		StudentRepo:    dummydb.NewStudentRepository(db),
		WorkshopRepo:   dummydb.NewWorkshopRepository(db),
		RuleRepo:       dummydb.NewRuleRepository(db),
		AssignmentRepo: dummydb.NewAssignmentRepository(db),
	}
	app.Operators = operator.NewService(app.OperatorRepo)
	app.Students = student.NewService(app.StudentRepo, conf)
	app.Rules = rule.NewService(app.RuleRepo)
	app.Assignments = assignment.NewService(
		app.AssignmentRepo, app.StudentRepo, app.WorkshopRepo, app.RuleRepo, app.Mail, logger, conf,
	)
	app.Workshops = workshop.NewService(app.WorkshopRepo, app.Assignments)
	return app
}

// NewValidator returns a validator with every custom tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	operator.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	workshop.InitValidators(validate, translator)
	rule.InitValidators(validate, translator)
	return validate, translator
}

func CreateStudent(t *testing.T, repo student.Repository, name string, priority float64, needsSupport bool) student.Student {
	t.Helper()
	now := time.Now().UTC()
	s, err := repo.CreateStudent(context.Background(), student.Student{
		Name:         name,
		Priority:     priority,
		NeedsSupport: needsSupport,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateWorkshop(t *testing.T, repo workshop.Repository, name string, capacity int, bands ...workshop.Band) workshop.Workshop {
	t.Helper()
	if len(bands) == 0 {
		bands = workshop.AllBands
	}
	now := time.Now().UTC()
	w, err := repo.CreateWorkshop(context.Background(), workshop.Workshop{
		Name:          name,
		Capacity:      capacity,
		Bands:         bands,
		Prerequisites: []string{},
		NotParallel:   []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateWorkshop() failed: %v", err)
	}
	return w
}

func CreateOperator(t *testing.T, repo operator.Repository, username, pwd string, isActive bool) operator.Operator {
	t.Helper()
	now := time.Now().UTC()
	o := operator.Operator{
		ID:        uuid.New().String(),
		Username:  username,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	o, err := repo.CreateOperator(context.Background(), o)
	if err != nil {
		t.Fatalf("CreateOperator() failed: %v", err)
	}
	return o
}
