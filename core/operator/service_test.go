package operator_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/operator"
	"github.com/trezcool/kurswahl/tests"
)

func TestNewOperator_Validate(t *testing.T) {
	app := testutil.NewApp(t)
	testutil.CreateOperator(t, app.OperatorRepo, "taken", "Pwd-1234567", true)

	tests := []struct {
		name    string
		no      operator.NewOperator
		wantTag string
		wantErr error
	}{
		{name: "valid", no: operator.NewOperator{Username: " Admin_1 ", Password: "Tr0ub4dor&3", PasswordConfirm: "Tr0ub4dor&3"}},
		{name: "short username", no: operator.NewOperator{Username: "abc", Password: "Tr0ub4dor&3", PasswordConfirm: "Tr0ub4dor&3"}, wantTag: "min"},
		{name: "bad username", no: operator.NewOperator{Username: "ad-min", Password: "Tr0ub4dor&3", PasswordConfirm: "Tr0ub4dor&3"}, wantTag: "alphanum_"},
		{name: "mismatch", no: operator.NewOperator{Username: "admin", Password: "Tr0ub4dor&3", PasswordConfirm: "Tr0ub4dor&4"}, wantTag: "eqfield"},
		{name: "too short", no: operator.NewOperator{Username: "admin", Password: "Ab1!", PasswordConfirm: "Ab1!"}, wantTag: "pwdminlen"},
		{name: "whitespace", no: operator.NewOperator{Username: "admin", Password: "Tr0ub 4dor&3", PasswordConfirm: "Tr0ub 4dor&3"}, wantTag: "pwdnospace"},
		{name: "all numeric", no: operator.NewOperator{Username: "admin", Password: "1234567890", PasswordConfirm: "1234567890"}, wantTag: "pwdnotallnum"},
		{name: "not complex", no: operator.NewOperator{Username: "admin", Password: "password1", PasswordConfirm: "password1"}, wantTag: "pwdcplx"},
		{name: "similar to username", no: operator.NewOperator{Username: "frieda", Password: "Frieda1!", PasswordConfirm: "Frieda1!"}, wantTag: "pwdtoosim"},
		{name: "username taken", no: operator.NewOperator{Username: "TAKEN", Password: "Tr0ub4dor&3", PasswordConfirm: "Tr0ub4dor&3"}, wantErr: operator.ErrUsernameExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.no.Validate(app.Validate, app.Operators)
			switch {
			case tt.wantTag != "":
				var verrs validator.ValidationErrors
				require.True(t, errors.As(err, &verrs), "got %v", err)
				assert.Equal(t, tt.wantTag, verrs[0].Tag())
			case tt.wantErr != nil:
				var verr *core.ValidationError
				require.True(t, errors.As(err, &verr), "got %v", err)
				assert.Equal(t, tt.wantErr, verr.Err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp(t)
	testutil.CreateOperator(t, app.OperatorRepo, "admin", "Tr0ub4dor&3", true)
	testutil.CreateOperator(t, app.OperatorRepo, "gone", "Tr0ub4dor&3", false)

	tests := []struct {
		name    string
		lc      operator.LoginCredentials
		wantErr error
	}{
		{name: "ok", lc: operator.LoginCredentials{Username: " Admin", Password: "Tr0ub4dor&3"}},
		{name: "wrong password", lc: operator.LoginCredentials{Username: "admin", Password: "nope"}, wantErr: operator.ErrInvalidCreds},
		{name: "unknown", lc: operator.LoginCredentials{Username: "root", Password: "Tr0ub4dor&3"}, wantErr: operator.ErrInvalidCreds},
		{name: "inactive", lc: operator.LoginCredentials{Username: "gone", Password: "Tr0ub4dor&3"}, wantErr: operator.ErrInvalidCreds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := app.Operators.Login(ctx, tt.lc)
			assert.Equal(t, tt.wantErr, errors.Cause(err))
			if tt.wantErr == nil {
				assert.False(t, o.LastLogin.IsZero())
			}
		})
	}
}

func TestService_SetPassword(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp(t)
	testutil.CreateOperator(t, app.OperatorRepo, "gone", "Tr0ub4dor&3", false)

	created, err := app.Operators.SetPassword(ctx, "NewAdmin", "S3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "newadmin", created.Username)
	assert.NotEmpty(t, created.ID)

	_, err = app.Operators.SetPassword(ctx, "gone", "An0ther-pass")
	require.NoError(t, err)

	_, err = app.Operators.Login(ctx, operator.LoginCredentials{Username: "gone", Password: "An0ther-pass"})
	assert.NoError(t, err, "reset operators are active again")
	_, err = app.Operators.Login(ctx, operator.LoginCredentials{Username: "newadmin", Password: "S3cret-pass"})
	assert.NoError(t, err)
}
