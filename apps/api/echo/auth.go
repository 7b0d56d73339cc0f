package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/user"
)

const contextTokenKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Login        string `json:"login"`
	Email        string `json:"email,omitempty"`
	Permission   string `json:"permission"`
	SGC          string `json:"sgc_code"`
	MemberName   string `json:"member_name"`
	UnitID       int    `json:"unit_id"`
	Role         string `json:"role"`
}

func (c Claims) UserID() int {
	id, _ := strconv.Atoi(c.Subject)
	return id
}

func (c Claims) person() core.Person {
	return core.Person{ID: c.Subject, Login: c.Login, Email: c.Email}
}

type authenticator struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

// NewClaims builds the claims of a logged in session.
// origIat carries the original issue time over token refreshes.
func NewClaims(conf *core.Config, sess user.Session, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(sess.User.ID),
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Login:        sess.User.Login,
		Email:        sess.User.Email,
		Permission:   sess.User.Permission,
		SGC:          sess.Member.SGC,
		MemberName:   sess.Member.Name,
		UnitID:       sess.Member.UnitID,
		Role:         sess.Member.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func (a *authenticator) refreshToken(ctx echo.Context, svc user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	// the user or its member may be gone since login
	sess, err := svc.GetSession(ctx.Request().Context(), claims.UserID())
	if err != nil {
		if err == user.ErrNotFound || err == user.ErrNoMember {
			return "", errUnauthorized
		}
		return "", errors.Wrap(err, "getting session")
	}

	token, err := GenerateToken(a.conf, NewClaims(a.conf, sess, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
