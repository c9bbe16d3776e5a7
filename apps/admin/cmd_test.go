package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/operator"
	"github.com/trezcool/kurswahl/storage/database"
	"github.com/trezcool/kurswahl/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.App) {
	app := testutil.NewApp(t)
	return &commandLine{
		opSvc:    app.Operators,
		validate: app.Validate,
	}, app
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantTag    string
	extra      interface{}
}

type extra struct {
	pwd string
}

func mockPassword(tt cliTest) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(extra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
}

func checkErr(t *testing.T, err error, tt cliTest) bool {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Equal(t, tt.wantErrStr, err.Error())
	case tt.wantTag != "":
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs), "got %v", err)
		assert.Equal(t, tt.wantTag, verrs[0].Tag())
	default:
		require.NoError(t, err)
		return true
	}
	return false
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	schemaChecks := 0
	checkSchemaFunc = func(db *sql.DB) error {
		schemaChecks++
		return nil
	}

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		if dir != "migrations" {
			return fmt.Errorf("unexpected dir %q", dir)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErr: errHelp},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_rooms", "sql"}},
		{name: "create: go migration", args: []string{"migrate", "create", "add_rooms", "go"}, wantErr: errSQLOnly},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, cli.run(args), tt)
		})
	}
	assert.Equal(t, 1, schemaChecks, "only a full upgrade checks the schema")

	t.Run("incomplete schema", func(t *testing.T) {
		checkSchemaFunc = func(db *sql.DB) error {
			return errors.Wrap(database.ErrSchemaIncomplete, "missing draft")
		}
		err := cli.run([]string{"admin", "migrate", "up"})
		assert.Equal(t, database.ErrSchemaIncomplete, errors.Cause(err))
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli, app := setup(t)
	testutil.CreateOperator(t, app.OperatorRepo, "sekretariat", "Pa$$w0rd!", true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "leitung"}, wantErr: errHelp},
		{name: "weak password", args: []string{"adduser", "-username", "leitung"}, extra: extra{pwd: "password1"}, wantTag: "pwdcplx"},
		{name: "username taken", args: []string{"adduser", "-username", "Sekretariat"}, extra: extra{pwd: "Pa$$w0rd!"}, wantErr: operator.ErrUsernameExists},
		{name: "create", args: []string{"adduser", "-username", " Leitung "}, extra: extra{pwd: "Tr0ub4dor&3"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr == operator.ErrUsernameExists {
				var verr *core.ValidationError
				require.True(t, errors.As(err, &verr), "got %v", err)
				assert.Equal(t, tt.wantErr, verr.Err)
				return
			}
			if checkErr(t, err, tt) {
				o, err := app.Operators.GetByUsername(context.Background(), "leitung")
				require.NoError(t, err)
				assert.True(t, o.IsActive)
				assert.NoError(t, o.CheckPassword("Tr0ub4dor&3"))
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, app := setup(t)
	op := testutil.CreateOperator(t, app.OperatorRepo, "sekretariat", "Pa$$w0rd!", false)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "operator not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "Tr0ub4dor&3"}, wantErr: operator.ErrNotFound},
		{name: "too short", args: []string{"resetpassword", "-username", op.Username}, extra: extra{pwd: "Ab1!"}, wantTag: "pwdminlen"},
		{name: "reset", args: []string{"resetpassword", "-username", "SEKRETARIAT"}, extra: extra{pwd: "Tr0ub4dor&3"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			if checkErr(t, cli.run(args), tt) {
				refreshed, err := app.Operators.GetByID(context.Background(), op.ID)
				require.NoError(t, err)
				assert.NotEqual(t, op.PasswordHash, refreshed.PasswordHash)
				assert.NoError(t, refreshed.CheckPassword("Tr0ub4dor&3"))
				assert.True(t, refreshed.IsActive, "reset reactivates the operator")
			}
		})
	}
}
