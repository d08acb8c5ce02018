package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Offer struct {
	Base
	Title       string          `gorm:"not null"                    json:"title"`
	Description string          `gorm:"not null"                    json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Image       string          `gorm:"not null"                    json:"image"`
	Active      bool            `gorm:"not null;default:false;index" json:"active"`
}

type Event struct {
	Base
	Title    string         `gorm:"not null"       json:"title"`
	Date     time.Time      `gorm:"not null;index" json:"date"`
	Location string         `gorm:"not null"       json:"location"`
	Image    string         `json:"image"`
	Tags     pq.StringArray `gorm:"type:text"      json:"tags"`
	Excerpt  string         `gorm:"not null"       json:"excerpt"`
	Details  string         `gorm:"not null"       json:"details"`
	Lat      float64        `gorm:"not null"       json:"lat"`
	Lng      float64        `gorm:"not null"       json:"lng"`
}
