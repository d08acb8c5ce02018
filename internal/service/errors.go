package service

import (
	"errors"
	"fmt"

	"github.com/levelupgamer/levelup_shop/internal/repo"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrConflict           = errors.New("conflict")            // 400
	ErrInvalidTransition  = errors.New("invalid transition")  // 400
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
	ErrForbidden          = errors.New("forbidden")           // 403

	ErrNotFound          = repo.ErrNotFound          // 404
	ErrInsufficientStock = repo.ErrInsufficientStock // 400
)

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// fromRepo maps storage errors that carry no business meaning of their own.
func fromRepo(err error, conflictMsg string) error {
	if errors.Is(err, repo.ErrDuplicate) {
		return fmt.Errorf("%w: %s", ErrConflict, conflictMsg)
	}
	return err
}
