package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/levelupgamer/levelup_shop/internal/models"
)

type RegisterRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Birthdate    string `json:"birthdate"`
	ReferralCode string `json:"referral_code"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

type SessionUser struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Points   *int        `json:"points,omitempty"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      SessionUser `json:"user"`
}

type ProfileRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Birthdate *string `json:"birthdate"`
}

type AddressRequest struct {
	Alias      string `json:"alias"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
}

type AdminUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Points   *int    `json:"points"`
}

type CreateProductRequest struct {
	Code        string          `json:"code"`
	Category    string          `json:"category"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Stock       int             `json:"stock"`
}

type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Description *string          `json:"description"`
	Code        *string          `json:"code"`
	Images      []string         `json:"images"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type OrderLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CreateOrderRequest struct {
	Items           []OrderLineRequest `json:"items"`
	ShippingAddress string             `json:"shipping_address"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type OfferRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
	Active      *bool            `json:"active"`
}

type EventRequest struct {
	Title    *string    `json:"title"`
	Date     *time.Time `json:"date"`
	Location *string    `json:"location"`
	Image    *string    `json:"image"`
	Tags     []string   `json:"tags"`
	Excerpt  *string    `json:"excerpt"`
	Details  *string    `json:"details"`
	Lat      *float64   `json:"lat"`
	Lng      *float64   `json:"lng"`
}

type SearchResponse struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	Size     int   `json:"size"`
	Products any   `json:"products"`
}

// OrderOwner is the slice of the buyer shown on the admin order list.
type OrderOwner struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// AdminOrder replaces the embedded order's user with OrderOwner.
type AdminOrder struct {
	models.Order
	User *OrderOwner `json:"user,omitempty"`
}

func NewAdminOrders(orders []models.Order) []AdminOrder {
	out := make([]AdminOrder, 0, len(orders))
	for _, o := range orders {
		ao := AdminOrder{Order: o}
		if o.User != nil {
			ao.User = &OrderOwner{ID: o.User.ID, Username: o.User.Username, Email: o.User.Email}
		}
		out = append(out, ao)
	}
	return out
}
