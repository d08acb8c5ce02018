package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/levelupgamer/levelup_shop/internal/models"
)

func (r *GormRepo) ListOffers(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&offers).Error
	return offers, err
}

// ActiveOffer returns the newest active offer, or nil when none is active.
func (r *GormRepo) ActiveOffer(ctx context.Context) (*models.Offer, error) {
	var offers []models.Offer
	err := r.DB.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Limit(1).
		Find(&offers).Error
	if err != nil || len(offers) == 0 {
		return nil, err
	}
	return &offers[0], nil
}

func deactivateOthers(tx *gorm.DB, keep uuid.UUID) error {
	return tx.Model(&models.Offer{}).
		Where("active = ? AND id <> ?", true, keep).
		Update("active", false).Error
}

// CreateOffer stores o. With exclusive set, an active o
// deactivates every other offer.
func (r *GormRepo) CreateOffer(ctx context.Context, o *models.Offer, exclusive bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		if exclusive && o.Active {
			return deactivateOthers(tx, o.ID)
		}
		return nil
	})
}

func (r *GormRepo) UpdateOffer(ctx context.Context, id uuid.UUID, updates map[string]any, exclusive bool) (*models.Offer, error) {
	var o models.Offer
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			res := tx.Model(&models.Offer{}).Where("id = ?", id).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrNotFound
			}
		}
		if err := tx.First(&o, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if exclusive && o.Active {
			return deactivateOthers(tx, o.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Offer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.DB.WithContext(ctx).Order("date ASC").Find(&events).Error
	return events, err
}

func (r *GormRepo) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var ev models.Event
	if err := r.DB.WithContext(ctx).First(&ev, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ev, nil
}

func (r *GormRepo) CreateEvent(ctx context.Context, ev *models.Event) error {
	return r.DB.WithContext(ctx).Create(ev).Error
}

// SaveEvent overwrites every column of an existing event.
func (r *GormRepo) SaveEvent(ctx context.Context, ev *models.Event) error {
	res := r.DB.WithContext(ctx).Model(ev).Select("*").Omit("id", "created_at").Updates(ev)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Event{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
