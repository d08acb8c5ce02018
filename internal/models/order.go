package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: nil,
	OrderStatusCancelled: nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reserved reports whether an order in this status holds its stock.
func (s OrderStatus) Reserved() bool {
	return s != OrderStatusCancelled
}

type Order struct {
	Base
	UserID          uuid.UUID       `gorm:"type:uuid;index;not null"     json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID"            json:"user,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"           json:"items"`
	Total           decimal.Decimal `gorm:"type:numeric(14,2);not null"  json:"total"`
	ShippingAddress string          `gorm:"not null"                     json:"shipping_address"`
	Status          OrderStatus     `gorm:"not null;index"               json:"status"`
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"-"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"     json:"-"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"           json:"product_id"`
	Name      string          `gorm:"not null"                     json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(14,2);not null"  json:"price"`
	Quantity  int             `gorm:"not null"                     json:"quantity"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
