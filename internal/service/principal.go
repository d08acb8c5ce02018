package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/levelupgamer/levelup_shop/internal/models"
)

// Principal is the verified caller of a service operation.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

func (p Principal) RequireAdmin() error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}
