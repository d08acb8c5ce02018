package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/levelupgamer/levelup_shop/internal/models"
	"github.com/levelupgamer/levelup_shop/internal/repo"
)

type PromoService struct {
	Repo *repo.GormRepo
	// ExclusiveActive keeps at most one offer active at a time.
	ExclusiveActive bool
}

type OfferInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Image       string
	Active      bool
}

type OfferUpdate struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	Image       *string
	Active      *bool
}

type EventInput struct {
	Title    string
	Date     time.Time
	Location string
	Image    string
	Tags     []string
	Excerpt  string
	Details  string
	Lat      float64
	Lng      float64
}

type EventUpdate struct {
	Title    *string
	Date     *time.Time
	Location *string
	Image    *string
	Tags     []string
	Excerpt  *string
	Details  *string
	Lat      *float64
	Lng      *float64
}

type field struct {
	name, value string
}

// required reports the first blank field in the order given.
func required(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return validation("%s is required", f.name)
		}
	}
	return nil
}

func (s *PromoService) ListOffers(ctx context.Context) ([]models.Offer, error) {
	return s.Repo.ListOffers(ctx)
}

// ActiveOffer returns nil, nil when no offer is active.
func (s *PromoService) ActiveOffer(ctx context.Context) (*models.Offer, error) {
	return s.Repo.ActiveOffer(ctx)
}

func (s *PromoService) CreateOffer(ctx context.Context, p Principal, in OfferInput) (*models.Offer, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := required(field{"title", in.Title}, field{"description", in.Description}, field{"image", in.Image}); err != nil {
		return nil, err
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}

	o := &models.Offer{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       in.Price,
		Image:       strings.TrimSpace(in.Image),
		Active:      in.Active,
	}
	if err := s.Repo.CreateOffer(ctx, o, s.ExclusiveActive); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PromoService) UpdateOffer(ctx context.Context, p Principal, id uuid.UUID, in OfferUpdate) (*models.Offer, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	for _, f := range []struct {
		name  string
		value *string
	}{{"title", in.Title}, {"description", in.Description}, {"image", in.Image}} {
		if f.value == nil {
			continue
		}
		if strings.TrimSpace(*f.value) == "" {
			return nil, validation("%s is required", f.name)
		}
		updates[f.name] = strings.TrimSpace(*f.value)
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, err
		}
		updates["price"] = *in.Price
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}

	return s.Repo.UpdateOffer(ctx, id, updates, s.ExclusiveActive)
}

func (s *PromoService) DeleteOffer(ctx context.Context, p Principal, id uuid.UUID) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	return s.Repo.DeleteOffer(ctx, id)
}

func (s *PromoService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.Repo.ListEvents(ctx)
}

func validateEvent(ev *models.Event) error {
	err := required(
		field{"title", ev.Title},
		field{"location", ev.Location},
		field{"excerpt", ev.Excerpt},
		field{"details", ev.Details},
	)
	if err != nil {
		return err
	}
	if ev.Date.IsZero() {
		return validation("date is required")
	}
	if ev.Lat < -90 || ev.Lat > 90 {
		return validation("lat must be between -90 and 90")
	}
	if ev.Lng < -180 || ev.Lng > 180 {
		return validation("lng must be between -180 and 180")
	}
	return nil
}

func (s *PromoService) CreateEvent(ctx context.Context, p Principal, in EventInput) (*models.Event, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	ev := &models.Event{
		Title:    strings.TrimSpace(in.Title),
		Date:     in.Date.UTC(),
		Location: strings.TrimSpace(in.Location),
		Image:    strings.TrimSpace(in.Image),
		Tags:     pq.StringArray(in.Tags),
		Excerpt:  in.Excerpt,
		Details:  in.Details,
		Lat:      in.Lat,
		Lng:      in.Lng,
	}
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateEvent(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *PromoService) UpdateEvent(ctx context.Context, p Principal, id uuid.UUID, in EventUpdate) (*models.Event, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	ev, err := s.Repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		ev.Title = strings.TrimSpace(*in.Title)
	}
	if in.Date != nil {
		ev.Date = in.Date.UTC()
	}
	if in.Location != nil {
		ev.Location = strings.TrimSpace(*in.Location)
	}
	if in.Image != nil {
		ev.Image = strings.TrimSpace(*in.Image)
	}
	if in.Tags != nil {
		ev.Tags = pq.StringArray(in.Tags)
	}
	if in.Excerpt != nil {
		ev.Excerpt = *in.Excerpt
	}
	if in.Details != nil {
		ev.Details = *in.Details
	}
	if in.Lat != nil {
		ev.Lat = *in.Lat
	}
	if in.Lng != nil {
		ev.Lng = *in.Lng
	}

	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveEvent(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *PromoService) DeleteEvent(ctx context.Context, p Principal, id uuid.UUID) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	return s.Repo.DeleteEvent(ctx, id)
}
