package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/levelupgamer/levelup_shop/internal/service"
	"github.com/levelupgamer/levelup_shop/internal/transport"
	"github.com/levelupgamer/levelup_shop/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	p, err := principal(c)
	if err != nil {
		return err
	}
	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_failed", "invalid body", err)
	}

	lines := make([]service.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, service.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := h.Svc.PlaceOrder(ctx, p, lines, req.ShippingAddress)
	if err != nil {
		return fail(l, "create_order_failed", err)
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_mine")

	p, err := principal(c)
	if err != nil {
		return err
	}
	orders, err := h.Svc.ListMine(ctx, p)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all")

	p, err := principal(c)
	if err != nil {
		return err
	}
	orders, err := h.Svc.ListAll(ctx, p)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewAdminOrders(orders))
}

func (h *OrderHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.set_status")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req transport.StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_status_failed", "invalid body", err)
	}

	order, err := h.Svc.SetStatus(ctx, p, id, req.Status)
	if err != nil {
		return fail(l, "set_status_failed", err)
	}

	l.Info("set_status_success", "order_id", id, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteOrder(ctx, p, id); err != nil {
		return fail(l, "delete_order_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
