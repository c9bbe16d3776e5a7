package main

import (
	"context"

	"github.com/trezcool/kurswahl/core/operator"
)

// addUser creates a new active operator, enforcing the password policy.
func (cli *commandLine) addUser(uname, pwd string) error {
	no := operator.NewOperator{Username: uname, Password: pwd, PasswordConfirm: pwd}
	if err := no.Validate(cli.validate, cli.opSvc); err != nil {
		return err
	}
	_, err := cli.opSvc.Create(context.Background(), no)
	return err
}

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	o, err := cli.opSvc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err = cli.validate.Struct(operator.NewOperator{Username: o.Username, Password: pwd, PasswordConfirm: pwd}); err != nil {
		return err
	}
	_, err = cli.opSvc.SetPassword(ctx, o.Username, pwd)
	return err
}
