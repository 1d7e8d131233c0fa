package auth

import (
	"context"

	"github.com/keveinliu/inkwell/internal/models"
)

// AdminCounter is the storage view the bootstrap policy needs.
type AdminCounter interface {
	CountAdmins(ctx context.Context) (int, error)
}

// ResolveRole decides the role for a newly registering user: admin when
// no admin exists yet, user otherwise. The first registration against
// an empty user table is implicitly privileged as a first-boot
// convenience, with no extra secret guarding it.
//
// Two registrations racing on an empty table can both read "no admin"
// and both become admin. Accepted as documented behavior; registration
// is a one-person first-run flow in practice.
func ResolveRole(ctx context.Context, store AdminCounter) (string, error) {
	admins, err := store.CountAdmins(ctx)
	if err != nil {
		return "", err
	}
	if admins == 0 {
		return models.RoleAdmin, nil
	}
	return models.RoleUser, nil
}
