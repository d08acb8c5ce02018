package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/levelupgamer/levelup_shop/internal/models"
	"github.com/levelupgamer/levelup_shop/internal/service"
	middleware "github.com/levelupgamer/levelup_shop/pkg/middleware/auth"
)

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidTransition):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username or password"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

// fail logs err under event and converts it into the HTTP error sent to the client.
func fail(l *slog.Logger, event string, err error) error {
	code, msg := statusOf(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "reason", "internal error", "error", err)
	} else {
		l.Warn(event, "status", code, "reason", msg)
	}
	return echo.NewHTTPError(code, msg)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func principal(c echo.Context) (service.Principal, error) {
	sub, _ := c.Get(middleware.ContextUserID).(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return service.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	role, _ := c.Get(middleware.ContextRole).(string)
	if !models.Role(role).Valid() {
		return service.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token role")
	}
	username, _ := c.Get(middleware.ContextUsername).(string)
	return service.Principal{UserID: id, Username: username, Role: models.Role(role)}, nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
