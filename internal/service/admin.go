package service

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/Skotchmaster/gig_board/internal/domain"
)

// AdminGuard checks the shared admin key sent with privileged requests.
type AdminGuard struct {
	key []byte
}

func NewAdminGuard(key string) (*AdminGuard, error) {
	if key == "" {
		return nil, errors.New("admin api key is empty")
	}
	return &AdminGuard{key: []byte(key)}, nil
}

func (g *AdminGuard) Check(provided string) error {
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), g.key) != 1 {
		return fmt.Errorf("invalid admin api key: %w", domain.ErrUnauthenticated)
	}
	return nil
}
