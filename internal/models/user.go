package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	Base
	Username     string    `gorm:"uniqueIndex;not null"      json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Birthdate    time.Time `gorm:"not null"                  json:"birthdate"`
	Role         Role      `gorm:"not null;default:user"     json:"role"`
	Points       int       `gorm:"not null;default:0"        json:"points"`
	ReferredBy   string    `gorm:"index"                     json:"referred_by,omitempty"`
	Addresses    []Address `gorm:"foreignKey:UserID"         json:"addresses"`
}

type Address struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	Alias      string    `json:"alias"`
	Street     string    `gorm:"not null" json:"street"`
	City       string    `gorm:"not null" json:"city"`
	Region     string    `json:"region"`
	PostalCode string    `json:"postal_code"`
	CreatedAt  time.Time `json:"created_at"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Line renders the address as a single shipping line.
func (a Address) Line() string {
	s := a.Street + ", " + a.City
	if a.Region != "" {
		s += ", " + a.Region
	}
	if a.PostalCode != "" {
		s += " " + a.PostalCode
	}
	return s
}

// AgeOn returns the number of full years between birth and now.
func AgeOn(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
