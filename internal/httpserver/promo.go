package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/levelupgamer/levelup_shop/internal/service"
	"github.com/levelupgamer/levelup_shop/internal/transport"
	"github.com/levelupgamer/levelup_shop/pkg/logging"
)

type PromoHTTP struct {
	Svc *service.PromoService
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

func (h *PromoHTTP) ListOffers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "promo.list_offers")

	offers, err := h.Svc.ListOffers(ctx)
	if err != nil {
		return fail(l, "list_offers_failed", err)
	}
	return c.JSON(http.StatusOK, offers)
}

// ActiveOffer answers with JSON null when nothing is active.
func (h *PromoHTTP) ActiveOffer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "promo.active_offer")

	offer, err := h.Svc.ActiveOffer(ctx)
	if err != nil {
		return fail(l, "active_offer_failed", err)
	}
	return c.JSON(http.StatusOK, offer)
}

func (h *PromoHTTP) CreateOffer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "promo.create_offer")

	p, err := principal(c)
	if err != nil {
		return err
	}
	var req transport.OfferRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_offer_failed", "invalid body", err)
	}

	offer, err := h.Svc.CreateOffer(ctx, p, service.OfferInput{
		Title:       deref(req.Title),
		Description: deref(req.Description),
		Price:       deref[decimal.Decimal](req.Price),
		Image:       deref(req.Image),
		Active:      deref(req.Active),
	})
	if err != nil {
		return fail(l, "create_offer_failed", err)
	}
	return c.JSON(http.StatusCreated, offer)
}

func (h *PromoHTTP) UpdateOffer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "promo.update_offer")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req transport.OfferRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_offer_failed", "invalid body", err)
	}

	offer, err := h.Svc.UpdateOffer(ctx, p, id, service.OfferUpdate{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Active:      req.Active,
	})
	if err != nil {
		return fail(l, "update_offer_failed", err)
	}
	return c.JSON(http.StatusOK, offer)
}

func (h *PromoHTTP) DeleteOffer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "promo.delete_offer")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteOffer(ctx, p, id); err != nil {
		return fail(l, "delete_offer_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PromoHTTP) ListEvents(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "promo.list_events")

	events, err := h.Svc.ListEvents(ctx)
	if err != nil {
		return fail(l, "list_events_failed", err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *PromoHTTP) CreateEvent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "promo.create_event")

	p, err := principal(c)
	if err != nil {
		return err
	}
	var req transport.EventRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_event_failed", "invalid body", err)
	}

	ev, err := h.Svc.CreateEvent(ctx, p, service.EventInput{
		Title:    deref(req.Title),
		Date:     deref[time.Time](req.Date),
		Location: deref(req.Location),
		Image:    deref(req.Image),
		Tags:     req.Tags,
		Excerpt:  deref(req.Excerpt),
		Details:  deref(req.Details),
		Lat:      deref(req.Lat),
		Lng:      deref(req.Lng),
	})
	if err != nil {
		return fail(l, "create_event_failed", err)
	}
	return c.JSON(http.StatusCreated, ev)
}

func (h *PromoHTTP) UpdateEvent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "promo.update_event")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req transport.EventRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_event_failed", "invalid body", err)
	}

	ev, err := h.Svc.UpdateEvent(ctx, p, id, service.EventUpdate{
		Title:    req.Title,
		Date:     req.Date,
		Location: req.Location,
		Image:    req.Image,
		Tags:     req.Tags,
		Excerpt:  req.Excerpt,
		Details:  req.Details,
		Lat:      req.Lat,
		Lng:      req.Lng,
	})
	if err != nil {
		return fail(l, "update_event_failed", err)
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *PromoHTTP) DeleteEvent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "promo.delete_event")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteEvent(ctx, p, id); err != nil {
		return fail(l, "delete_event_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
