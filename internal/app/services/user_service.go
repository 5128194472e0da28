package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/uniadmit/admission/internal/app/auth"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/models/dto"
	"github.com/uniadmit/admission/internal/app/repositories"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/auth"
	"github.com/uniadmit/admission/internal/pkg/helpers"
)

// UserService defines the interface for admin user management
type UserService interface {
	List(ctx context.Context, query dto.UserListQuery) (*dto.UserListResponse, error)
	Get(ctx context.Context, id int64) (*dto.UserEnvelope, error)
	Update(ctx context.Context, id int64, req map[string]interface{}) (*dto.UserEnvelope, error)
	ToggleStatus(ctx context.Context, admin appauth.Admin, id int64) (*dto.UserEnvelope, error)
	ResetPassword(ctx context.Context, id int64, req *dto.ResetPasswordRequest) (*dto.MessageResponse, error)
	CreateAdmin(ctx context.Context, req *dto.CreateAdminRequest) (*dto.UserEnvelope, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo repositories.UserStore
	hasher   auth.PasswordHasher
	logger   zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.UserStore, hasher auth.PasswordHasher, logger zerolog.Logger) UserService {
	if hasher == nil {
		hasher = auth.BcryptHasher{}
	}
	return &userServiceImpl{
		userRepo: userRepo,
		hasher:   hasher,
		logger:   logger,
	}
}

// List pages through users, newest first
func (s *userServiceImpl) List(ctx context.Context, query dto.UserListQuery) (*dto.UserListResponse, error) {
	filter := models.UserFilter{Search: strings.TrimSpace(query.Search)}
	if raw := strings.ToLower(strings.TrimSpace(query.Role)); raw != "" && raw != "all" {
		role := models.RoleName(raw)
		if !role.Valid() {
			return nil, apperrors.NewValidationError("Invalid role filter. Must be student or admin")
		}
		filter.Role = role
	}
	filter.Page, filter.PerPage = helpers.NormalizePage(query.Page, query.PerPage, helpers.MaxUserPerPage)

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.UserListResponse{
		Users:      toUserResponses(users),
		Pagination: helpers.NewPaginationInfo(total, filter.Page, filter.PerPage),
	}, nil
}

// Get returns one user
func (s *userServiceImpl) Get(ctx context.Context, id int64) (*dto.UserEnvelope, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.UserEnvelope{User: toUserResponse(user)}, nil
}

// Update edits any profile field of a user. Email and phone must stay unique.
func (s *userServiceImpl) Update(ctx context.Context, id int64, req map[string]interface{}) (*dto.UserEnvelope, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *user
	applied, err := applyFields(&updated, req, adminUserFields, func(field string) error {
		return apperrors.NewValidationError(fmt.Sprintf("Field %s cannot be modified", field))
	})
	if err != nil {
		return nil, err
	}

	var email, phone string
	if updated.Email != user.Email {
		email = updated.Email
	}
	if updated.Phone != user.Phone {
		phone = updated.Phone
	}
	if err := ensureContactsFree(ctx, s.userRepo, email, phone, user.ID); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", id).Strs("fields", applied).Msg("User updated by admin")
	return &dto.UserEnvelope{Message: "User updated successfully", User: toUserResponse(&updated)}, nil
}

// ToggleStatus flips a user between active and inactive.
func (s *userServiceImpl) ToggleStatus(ctx context.Context, admin appauth.Admin, id int64) (*dto.UserEnvelope, error) {
	if err := appauth.CanToggleStatus(admin, id); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Active = !user.Active
	if err := s.userRepo.SetActive(ctx, id, user.Active); err != nil {
		return nil, err
	}

	state := "deactivated"
	if user.Active {
		state = "activated"
	}
	s.logger.Info().Int64("userID", id).Int64("adminID", admin.ID).Bool("active", user.Active).Msg("User status toggled")
	return &dto.UserEnvelope{Message: "User " + state + " successfully", User: toUserResponse(user)}, nil
}

// ResetPassword sets a new password and revokes the user's tokens.
func (s *userServiceImpl) ResetPassword(ctx context.Context, id int64, req *dto.ResetPasswordRequest) (*dto.MessageResponse, error) {
	if err := validatePassword(req.NewPassword); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetPassword(ctx, id, hash); err != nil {
		return nil, err
	}
	if err := s.userRepo.RotateSessionKey(ctx, id, uuid.NewString()); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", id).Msg("Password reset by admin")
	return &dto.MessageResponse{Message: "Password reset successfully"}, nil
}

// CreateAdmin creates another administrator account.
func (s *userServiceImpl) CreateAdmin(ctx context.Context, req *dto.CreateAdminRequest) (*dto.UserEnvelope, error) {
	user, err := newAccount(ctx, s.userRepo, s.hasher, &req.RegisterRequest, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userID", user.ID).Str("email", user.Email).Msg("Admin account created")
	return &dto.UserEnvelope{Message: "Admin user created successfully", User: toUserResponse(user)}, nil
}
