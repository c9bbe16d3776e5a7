package operator

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/kurswahl/core"
)

// Operator is a staff account allowed to run allocations and edit drafts.
type Operator struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (o *Operator) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	o.PasswordHash = hash
	return nil
}

func (o *Operator) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(o.PasswordHash, []byte(pwd))
}

// NewOperator contains information needed to create a new Operator.
type NewOperator struct {
	Username        string `json:"username" validate:"required,min=4,max=50,alphanum_"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (no *NewOperator) Clean() {
	no.Username = core.CleanString(no.Username, true /* lower */)
}

// LoginCredentials are exchanged for a JWT.
type LoginCredentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
