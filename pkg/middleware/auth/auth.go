package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/levelupgamer/levelup_shop/pkg/logging"
	"github.com/levelupgamer/levelup_shop/pkg/tokens"
)

const (
	ContextUserID   = "user_id"
	ContextRole     = "role"
	ContextUsername = "username"

	adminRole = "admin"
)

// BearerMiddleware verifies "Authorization: Bearer <token>" headers.
type BearerMiddleware struct {
	verify echo.MiddlewareFunc
}

func NewBearerMiddleware(secret []byte) *BearerMiddleware {
	return &BearerMiddleware{
		verify: echojwt.WithConfig(echojwt.Config{
			SigningKey:    secret,
			SigningMethod: jwt.SigningMethodHS256.Alg(),
			TokenLookup:   "header:Authorization:Bearer ",
			NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.AccessClaims) },
			SuccessHandler: func(c echo.Context) {
				tkn, ok := c.Get("user").(*jwt.Token)
				if !ok {
					return
				}
				if claims, ok := tkn.Claims.(*tokens.AccessClaims); ok {
					setUserContext(c, claims)
				}
			},
			ErrorHandler: func(c echo.Context, err error) error {
				logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 401, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
			},
		}),
	}
}

type ValidatorFunc func(c echo.Context) error

func (m *BearerMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.verify(next)
}

func (m *BearerMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.verify(withValidator(next, func(c echo.Context) error {
		if role, _ := c.Get(ContextRole).(string); role != adminRole {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	}))
}

func withValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := validator(c); err != nil {
			return err
		}
		return next(c)
	}
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(ContextUserID, claims.Subject)
	c.Set(ContextRole, claims.Role)
	c.Set(ContextUsername, claims.Username)
}
