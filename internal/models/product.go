package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	Base
	Code        string          `gorm:"index"                  json:"code"`
	Category    string          `gorm:"index"                  json:"category"`
	Name        string          `gorm:"not null"               json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Images      pq.StringArray  `gorm:"type:text"              json:"images"`
	Stock       int             `gorm:"not null;default:0"     json:"stock"`
	Rating      float64         `gorm:"not null;default:0"     json:"rating"`
	Reviews     []Review        `gorm:"foreignKey:ProductID"   json:"reviews"`
}

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"       json:"user_id"`
	Username  string    `json:"username"`
	Rating    int       `gorm:"not null"                 json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
