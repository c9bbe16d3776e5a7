package dig_container

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/kurswahl/apps/api/echo"
	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/assignment"
	"github.com/trezcool/kurswahl/core/operator"
	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
	"github.com/trezcool/kurswahl/services/email"
	"github.com/trezcool/kurswahl/services/logger"
	"github.com/trezcool/kurswahl/storage/database"
	"github.com/trezcool/kurswahl/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	OperatorSvc   operator.ServiceInterface
	StudentSvc    student.ServiceInterface
	WorkshopSvc   workshop.ServiceInterface
	RuleSvc       rule.ServiceInterface
	AssignmentSvc assignment.ServiceInterface
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sql.DB, *sqlx.DB) {
	setUp := func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, sqlxrepos.NewDB(db)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(os.Stdout, logger, conf)
	}
	return emailsvc.NewSendgridService(logger, conf)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	operator.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	workshop.InitValidators(validate, translator)
	rule.InitValidators(validate, translator)
	return validate
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		OperatorSvc:   p.OperatorSvc,
		StudentSvc:    p.StudentSvc,
		WorkshopSvc:   p.WorkshopSvc,
		RuleSvc:       p.RuleSvc,
		AssignmentSvc: p.AssignmentSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))

	// repositories
	must(c.Provide(sqlxrepos.NewOperatorRepository))
	must(c.Provide(sqlxrepos.NewStudentRepository))
	must(c.Provide(sqlxrepos.NewWorkshopRepository))
	must(c.Provide(sqlxrepos.NewRuleRepository))
	must(c.Provide(sqlxrepos.NewAssignmentRepository))

	// services
	must(c.Provide(operator.NewService, dig.As(new(operator.ServiceInterface))))
	must(c.Provide(student.NewService, dig.As(new(student.ServiceInterface))))
	must(c.Provide(rule.NewService, dig.As(new(rule.ServiceInterface))))
	must(c.Provide(
		assignment.NewService,
		dig.As(new(assignment.ServiceInterface), new(workshop.HistoryKeeper)),
	))
	must(c.Provide(workshop.NewService, dig.As(new(workshop.ServiceInterface))))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
