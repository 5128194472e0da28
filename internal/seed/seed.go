package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appModels "github.com/uniadmit/admission/internal/app/models"
	appRepos "github.com/uniadmit/admission/internal/app/repositories"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/auth"
)

// AdminAccount describes the administrator created on first start.
type AdminAccount struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Address  string
	Country  string
	State    string
	District string
	Pincode  string
}

// CreateDefaultData ensures the default roles and the configured admin exist.
// It is safe to run on every start; failures are collected rather than
// stopping at the first one.
func CreateDefaultData(ctx context.Context, users appRepos.UserStore, hasher auth.PasswordHasher, admin AdminAccount, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (roles/admin)...")
	var finalErr error

	for _, role := range appModels.DefaultRoles {
		if _, err := users.EnsureRole(ctx, role); err != nil {
			lgr.Error().Err(err).Str("role", string(role.Name)).Msg("Error ensuring role")
			finalErr = errors.Join(finalErr, err)
		}
	}
	if finalErr != nil {
		// Accounts cannot be granted roles that are missing.
		return finalErr
	}

	email := strings.TrimSpace(admin.Email)
	if email == "" || admin.Password == "" {
		lgr.Warn().Msg("No default admin configured, skipping creation")
		return nil
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.HasRole(appModels.RoleAdmin) {
			if err := users.AssignRole(ctx, existing.ID, appModels.RoleAdmin); err != nil {
				lgr.Error().Err(err).Msg("Error granting admin role to existing user")
				return err
			}
			lgr.Info().Int64("userID", existing.ID).Msg("Granted admin role to existing user")
			return nil
		}
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil
	case !errors.Is(err, apperrors.ErrResourceNotFound):
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}

	lgr.Info().Msg("Creating default admin user...")
	hash, err := hasher.Hash(admin.Password)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return err
	}

	user := &appModels.User{
		Name:         strings.TrimSpace(admin.Name),
		Email:        email,
		Phone:        strings.TrimSpace(admin.Phone),
		PasswordHash: hash,
		Address:      admin.Address,
		Country:      admin.Country,
		State:        admin.State,
		District:     admin.District,
		Pincode:      admin.Pincode,
		Active:       true,
		SessionKey:   uuid.NewString(),
	}
	if err := users.Create(ctx, user, appModels.RoleAdmin); err != nil {
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}
	lgr.Info().Int64("adminID", user.ID).Msg("Default admin user created successfully")

	lgr.Info().Msg("Default data check/creation finished.")
	return nil
}
