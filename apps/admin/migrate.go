package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	appfs "github.com/trezcool/kurswahl/fs"
	"github.com/trezcool/kurswahl/storage/database"
)

var (
	gooseRunFunc    = goose.RunFS          // mockable
	checkSchemaFunc = database.CheckSchema // mockable

	errSQLOnly = errors.New("migrations are embedded into the binaries, only sql migrations can be created")

	migrateCommands = map[string]bool{
		"up": true, "up-by-one": true, "up-to": true,
		"down": true, "down-to": true, "redo": true, "reset": true,
		"status": true, "version": true, "create": true, "fix": true,
	}
)

// migrate runs a goose command on the embedded migrations.
// After "up" the database must hold every table the service works on.
func (cli *commandLine) migrate(args []string) error {
	command, arguments := args[0], args[1:]
	if !migrateCommands[command] {
		fmt.Printf("unknown migrate command %q\n", command)
		cli.printUsage()
		return errHelp
	}
	if command == "create" && len(arguments) > 1 && arguments[1] != "sql" {
		return errSQLOnly
	}

	if err := gooseRunFunc(command, cli.db, appfs.FS, database.MigrationsDir, arguments...); err != nil {
		return err
	}
	if command == "up" {
		return checkSchemaFunc(cli.db)
	}
	return nil
}
