package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/operator"
)

var (
	contextTokenKey    = "operatorToken"
	contextOperatorKey = "operator"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
}

type tokenAuth struct {
	conf   *core.Config
	svc    operator.ServiceInterface
	config middleware.JWTConfig
}

func newTokenAuth(conf *core.Config, svc operator.ServiceInterface) *tokenAuth {
	return &tokenAuth{
		conf: conf,
		svc:  svc,
		config: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

func (a *tokenAuth) operatorClaims(op operator.Operator, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   op.ID,
			Audience:  "Operators",
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     op.Username,
	}
}

// generateToken generates a signed JWT token string representing the operator Claims.
func (a *tokenAuth) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.config.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.config.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *tokenAuth) login(ctx echo.Context, lc operator.LoginCredentials) (string, error) {
	op, err := a.svc.Login(ctx.Request().Context(), lc)
	if err != nil {
		return "", err
	}
	return a.generateToken(a.operatorClaims(op))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func (a *tokenAuth) contextOperator(ctx echo.Context, clms ...Claims) (operator.Operator, error) {
	if op, ok := ctx.Get(contextOperatorKey).(operator.Operator); ok {
		return op, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return operator.Operator{}, err
		}
	}

	op, err := a.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == operator.ErrNotFound {
			return operator.Operator{}, errUnauthorized
		}
		return operator.Operator{}, errors.Wrap(err, "finding operator by ID")
	}
	ctx.Set(contextOperatorKey, op)
	return op, nil
}

func (a *tokenAuth) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}

	op, err := a.contextOperator(ctx, claims)
	if err != nil {
		return "", err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	return a.generateToken(a.operatorClaims(op, claims.OrigIssuedAt))
}
