package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/levelupgamer/levelup_shop/internal/models"
)

func withAddresses(db *gorm.DB) *gorm.DB {
	return db.Preload("Addresses", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
}

// CreateUser inserts u and, when referrer names an existing user, credits that
// user with bonus points in the same transaction.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User, referrer string, bonus int) (credited bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return translate(err)
		}
		if referrer == "" || referrer == u.Username {
			return nil
		}
		res := tx.Model(&models.User{}).
			Where("username = ?", referrer).
			UpdateColumn("points", gorm.Expr("points + ?", bonus))
		if res.Error != nil {
			return res.Error
		}
		credited = res.RowsAffected > 0
		return nil
	})
	return credited, err
}

func (r *GormRepo) UserByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).
		Where("username = ? OR email = ?", usernameOrEmail, usernameOrEmail).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormRepo) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := withAddresses(r.DB.WithContext(ctx)).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormRepo) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "username = ?", username).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// IdentityTaken reports whether username or email belong to a user other than except.
func (r *GormRepo) IdentityTaken(ctx context.Context, username, email string, except uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("(username = ? OR email = ?) AND id <> ?", username, email, except).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := withAddresses(r.DB.WithContext(ctx)).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) UpdateUser(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.User, error) {
	if len(updates) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.UserByID(ctx, id)
}

func (r *GormRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Delete(&models.Address{}, "user_id = ?", id).Error
	})
}

func (r *GormRepo) PromoteByEmail(ctx context.Context, email string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Update("role", models.RoleAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, email)
	}
	return nil
}

func (r *GormRepo) UsersReferredBy(ctx context.Context, username string) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).
		Where("referred_by = ?", username).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *GormRepo) AddAddress(ctx context.Context, a *models.Address) error {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", a.UserID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormRepo) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Address{}, "id = ? AND user_id = ?", addressID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
