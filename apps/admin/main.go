package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/operator"
	"github.com/trezcool/kurswahl/services/logger"
	"github.com/trezcool/kurswahl/storage/database"
	"github.com/trezcool/kurswahl/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()
	if err = db.Ping(); err != nil {
		logger.Fatal("pinging database", err)
	}

	validate, translator := validator.New(), core.NewTranslator()
	core.InitValidators(validate, translator)
	operator.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:       db,
		opSvc:    operator.NewService(sqlxrepos.NewOperatorRepository(sqlxrepos.NewDB(db))),
		validate: validate,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}
