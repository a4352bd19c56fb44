// Package seed creates the data the handbook needs before serving requests.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/handbook/internal/app/models"
	"github.com/yigit/handbook/internal/pkg/apperrors"
	"github.com/yigit/handbook/internal/pkg/auth"
)

// AdminStore is the part of the participant repository seeding needs
type AdminStore interface {
	FindCanonicalAdmin(ctx context.Context) (*appModels.User, error)
	CreateAdmin(ctx context.Context, admin *appModels.User) error
}

// AdminInvalidator drops any cached view of the canonical admin
type AdminInvalidator interface {
	InvalidateAdmin(ctx context.Context)
}

// AdminAccount is the configured default admin
type AdminAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// EnsureAdmin creates the canonical admin when the admins table is empty.
// Returns true when an account was created.
func EnsureAdmin(ctx context.Context, store AdminStore, cache AdminInvalidator, account AdminAccount, lgr zerolog.Logger) (bool, error) {
	existing, err := store.FindCanonicalAdmin(ctx)
	switch {
	case err == nil:
		lgr.Info().Str("adminID", existing.ID).Msg("Admin account already exists, skipping creation")
		return false, nil
	case !errors.Is(err, apperrors.ErrResourceNotFound):
		return false, fmt.Errorf("checking admin account: %w", err)
	}

	if strings.TrimSpace(account.Email) == "" || account.Password == "" {
		lgr.Warn().Msg("No admin account configured, messaging will reject admin-side requests until one exists")
		return false, nil
	}

	hashed, err := auth.HashPassword(account.Password)
	if err != nil {
		return false, fmt.Errorf("hashing admin password: %w", err)
	}

	admin := &appModels.User{
		ID:        uuid.New().String(),
		Email:     strings.TrimSpace(account.Email),
		Password:  hashed,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		CreatedAt: time.Now(),
	}
	if err := store.CreateAdmin(ctx, admin); err != nil {
		return false, fmt.Errorf("creating admin account: %w", err)
	}

	if cache != nil {
		cache.InvalidateAdmin(ctx)
	}
	lgr.Info().Str("adminID", admin.ID).Str("email", admin.Email).Msg("Default admin account created")
	return true, nil
}
