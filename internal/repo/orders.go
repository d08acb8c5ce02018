package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/levelupgamer/levelup_shop/internal/models"
)

type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items")
}

// reserve takes quantity units of a product only if that many are in stock.
func reserve(tx *gorm.DB, productID uuid.UUID, quantity int) (bool, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	return res.RowsAffected == 1, res.Error
}

func release(tx *gorm.DB, productID uuid.UUID, quantity int) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error
}

// PlaceOrder reserves stock for every line and stores the order with snapshot
// items. Either every line is reserved and the order exists, or nothing changes.
func (r *GormRepo) PlaceOrder(ctx context.Context, userID uuid.UUID, lines []OrderLine, address string, status models.OrderStatus) (*models.Order, error) {
	order := &models.Order{
		UserID:          userID,
		ShippingAddress: address,
		Status:          status,
		Total:           decimal.Zero,
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			var p models.Product
			if err := tx.First(&p, "id = ?", line.ProductID).Error; err != nil {
				return fmt.Errorf("%w: product %s", translate(err), line.ProductID)
			}
			if p.Stock < line.Quantity {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
			}
			ok, err := reserve(tx, p.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
			}

			item := models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Price:     p.Price,
				Quantity:  line.Quantity,
			}
			order.Items = append(order.Items, item)
			order.Total = order.Total.Add(item.LineTotal())
		}
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := withItems(r.DB.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *GormRepo) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := withItems(r.DB.WithContext(ctx)).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "email")
		}).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := withItems(r.DB.WithContext(ctx)).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// UpdateOrderStatus moves an order to next. check runs inside the transaction
// with the current order and may veto the change. With restock set, an order
// entering cancelled from a stock-holding status returns its lines to stock.
//
// The status write is conditional on the status that was read, so of two
// concurrent updates from the same status only one commits; the other gets
// ErrStale and its transaction, restock included, rolls back.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, next models.OrderStatus, restock bool, check func(*models.Order) error) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := withItems(tx).First(&order, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if check != nil {
			if err := check(&order); err != nil {
				return err
			}
		}
		if order.Status == next {
			return nil
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, order.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %s", ErrStale, id)
		}

		if restock && next == models.OrderStatusCancelled && order.Status.Reserved() {
			for _, it := range order.Items {
				if err := release(tx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}

		order.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Delete(&models.OrderItem{}, "order_id = ?", id).Error
	})
}
