package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/levelupgamer/levelup_shop/internal/service"
	"github.com/levelupgamer/levelup_shop/internal/transport"
	"github.com/levelupgamer/levelup_shop/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func sessionOf(res *service.AuthResult, withPoints bool) transport.AuthResponse {
	out := transport.AuthResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User: transport.SessionUser{
			ID:       res.User.ID,
			Username: res.User.Username,
			Role:     res.User.Role,
		},
	}
	if withPoints {
		points := res.User.Points
		out.User.Points = &points
	}
	return out
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_failed", "invalid body", err)
	}

	res, err := h.Svc.Register(ctx, service.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Birthdate:    req.Birthdate,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		return fail(l, "register_failed", err)
	}

	l.Info("register_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, sessionOf(res, false))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_failed", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.UsernameOrEmail, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, sessionOf(res, true))
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	p, err := principal(c)
	if err != nil {
		return err
	}
	u, err := h.Svc.GetSelf(ctx, p)
	if err != nil {
		return fail(l, "get_self_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.update_profile")

	p, err := principal(c)
	if err != nil {
		return err
	}
	var req transport.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_profile_failed", "invalid body", err)
	}

	u, err := h.Svc.UpdateProfile(ctx, p, service.ProfileUpdate{
		Username:  req.Username,
		Email:     req.Email,
		Birthdate: req.Birthdate,
	})
	if err != nil {
		return fail(l, "update_profile_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHTTP) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.add_address")

	p, err := principal(c)
	if err != nil {
		return err
	}
	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_address_failed", "invalid body", err)
	}

	list, err := h.Svc.AddAddress(ctx, p, service.AddressInput{
		Alias:      req.Alias,
		Street:     req.Street,
		City:       req.City,
		Region:     req.Region,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		return fail(l, "add_address_failed", err)
	}
	return c.JSON(http.StatusCreated, list)
}

func (h *AuthHTTP) RemoveAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.remove_address")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	list, err := h.Svc.RemoveAddress(ctx, p, id)
	if err != nil {
		return fail(l, "remove_address_failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AuthHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.list_users")

	p, err := principal(c)
	if err != nil {
		return err
	}
	users, err := h.Svc.ListUsers(ctx, p)
	if err != nil {
		return fail(l, "list_users_failed", err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AuthHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.update_user")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req transport.AdminUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_user_failed", "invalid body", err)
	}

	u, err := h.Svc.UpdateUser(ctx, p, id, service.AdminUserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
		Points:   req.Points,
	})
	if err != nil {
		return fail(l, "update_user_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.delete_user")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteUser(ctx, p, id); err != nil {
		return fail(l, "delete_user_failed", err)
	}

	l.Info("user_deleted", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Referrals(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.referrals")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	refs, err := h.Svc.ListReferrals(ctx, p, id)
	if err != nil {
		return fail(l, "list_referrals_failed", err)
	}
	return c.JSON(http.StatusOK, refs)
}
