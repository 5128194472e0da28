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
	"github.com/uniadmit/admission/internal/pkg/validation"
)

const (
	msgEmailTaken = "Email already registered"
	msgPhoneTaken = "Phone number already registered"
)

// AuthService handles authentication and self-service profile operations
type AuthService struct {
	userRepo   repositories.UserStore
	appRepo    repositories.ApplicationStore
	jwtService *auth.JWTService
	hasher     auth.PasswordHasher
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.UserStore,
	appRepo repositories.ApplicationStore,
	jwtService *auth.JWTService,
	hasher auth.PasswordHasher,
	logger zerolog.Logger,
) *AuthService {
	if hasher == nil {
		hasher = auth.BcryptHasher{}
	}
	return &AuthService{
		userRepo:   userRepo,
		appRepo:    appRepo,
		jwtService: jwtService,
		hasher:     hasher,
		logger:     logger,
	}
}

func validatePassword(password string) error {
	if len(password) < validation.PasswordMinLength {
		return apperrors.NewValidationError(fmt.Sprintf("Password must be at least %d characters", validation.PasswordMinLength))
	}
	return nil
}

// newAccount validates req and creates a user holding role.
func newAccount(ctx context.Context, users repositories.UserStore, hasher auth.PasswordHasher, req *dto.RegisterRequest, role models.RoleName) (*models.User, error) {
	values := map[string]string{
		"name":     req.Name,
		"email":    req.Email,
		"phone":    req.Phone,
		"password": req.Password,
		"address":  req.Address,
		"country":  req.Country,
		"state":    req.State,
		"district": req.District,
		"pincode":  req.Pincode,
	}
	if missing := validation.MissingFields(values, []string{
		"name", "email", "phone", "password", "address", "country", "state", "district", "pincode",
	}); len(missing) > 0 {
		return nil, apperrors.NewMissingFieldsError(missing)
	}

	user := &models.User{Active: true}
	for _, step := range []struct {
		set   fieldSetter
		value string
	}{
		{setName, req.Name},
		{setEmail, req.Email},
		{setPhone, req.Phone},
		{setAddress, req.Address},
		{setCountry, req.Country},
		{setState, req.State},
		{setDistrict, req.District},
		{setPincode, req.Pincode},
	} {
		if err := step.set(user, step.value); err != nil {
			return nil, err
		}
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	if err := ensureContactsFree(ctx, users, user.Email, user.Phone, 0); err != nil {
		return nil, err
	}

	hash, err := hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.SessionKey = uuid.NewString()

	if err := users.Create(ctx, user, role); err != nil {
		return nil, err
	}
	return user, nil
}

// ensureContactsFree rejects an email or phone held by another account. An
// empty value is not checked.
func ensureContactsFree(ctx context.Context, users repositories.UserStore, email, phone string, excludeID int64) error {
	if email != "" {
		taken, err := users.EmailExists(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.NewConflictError(msgEmailTaken)
		}
	}
	if phone != "" {
		taken, err := users.PhoneExists(ctx, phone, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.NewConflictError(msgPhoneTaken)
		}
	}
	return nil
}

// Register creates a student account
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	user, err := newAccount(ctx, s.userRepo, s.hasher, req, models.RoleStudent)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("email", user.Email).Msg("Student registered")
	return &dto.AuthResponse{
		Message: "User registered successfully",
		User:    toUserResponse(user),
	}, nil
}

func invalidCredentials() error {
	return apperrors.NewUnauthorizedError(apperrors.ErrInvalidCredentials, "Invalid email or password")
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, apperrors.NewValidationError("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		s.logger.Warn().Str("email", email).Msg("Failed login attempt")
		return nil, invalidCredentials()
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorizedError(apperrors.ErrAccountDisabled, "Account is deactivated")
	}

	// Accounts created outside the service may lack a session key.
	if user.SessionKey == "" {
		user.SessionKey = uuid.NewString()
		if err := s.userRepo.RotateSessionKey(ctx, user.ID, user.SessionKey); err != nil {
			return nil, err
		}
	}

	token, expiresIn, err := s.jwtService.GenerateToken(auth.TokenSubject{
		UserID:     user.ID,
		Email:      user.Email,
		SessionKey: user.SessionKey,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Token generation failed")
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Msg("User logged in")
	return &dto.AuthResponse{
		Message:     "Login successful",
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		User:        toUserResponse(user),
	}, nil
}

// Logout revokes every token issued to the caller
func (s *AuthService) Logout(ctx context.Context, caller appauth.Caller) (*dto.MessageResponse, error) {
	if err := s.userRepo.RotateSessionKey(ctx, caller.UserID(), uuid.NewString()); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userID", caller.UserID()).Msg("User logged out")
	return &dto.MessageResponse{Message: "Logged out successfully"}, nil
}

// VerifyToken echoes the authenticated caller
func (s *AuthService) VerifyToken(caller appauth.Caller, user *models.User) *dto.TokenVerifyResponse {
	return &dto.TokenVerifyResponse{
		Valid: true,
		Role:  string(caller.Role()),
		User:  toUserResponse(user),
	}
}

// Profile returns the caller's account
func (s *AuthService) Profile(ctx context.Context, caller appauth.Caller) (*dto.UserEnvelope, error) {
	user, err := s.userRepo.GetByID(ctx, caller.UserID())
	if err != nil {
		return nil, err
	}
	return &dto.UserEnvelope{User: toUserResponse(user)}, nil
}

// EditProfile updates the caller's own profile. Email and phone are protected.
func (s *AuthService) EditProfile(ctx context.Context, caller appauth.Caller, req map[string]interface{}) (*dto.UserEnvelope, error) {
	user, err := s.userRepo.GetByID(ctx, caller.UserID())
	if err != nil {
		return nil, err
	}

	updated := *user
	applied, err := applyFields(&updated, req, selfProfileFields, func(field string) error {
		if containsField(selfProtectedFields, field) {
			return apperrors.NewValidationError(fmt.Sprintf("Field %s cannot be modified", field)).
				WithDetails(map[string]interface{}{"protected_fields": selfProtectedFields})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Strs("fields", applied).Msg("Profile updated")
	return &dto.UserEnvelope{Message: "Profile updated successfully", User: toUserResponse(&updated)}, nil
}

// Restrictions describes what the caller may edit right now.
func (s *AuthService) Restrictions(ctx context.Context, caller appauth.Caller) (*dto.ProfileRestrictionsResponse, error) {
	resp := &dto.ProfileRestrictionsResponse{
		EditableFields:  fieldNames(selfProfileFields),
		ProtectedFields: selfProtectedFields,
		Message:         "You can edit your profile",
	}

	student, ok := caller.(appauth.Student)
	if !ok || s.appRepo == nil {
		return resp, nil
	}
	pending, err := s.appRepo.HasApplicationWithStatus(ctx, student.ID, models.StatusPending)
	if err != nil {
		return nil, err
	}
	if pending {
		resp.HasPendingApplication = true
		resp.EditableFields = fieldNames(applicantPendingFields)
		resp.Message = "Only phone and address can be modified while your application is pending"
	}
	return resp, nil
}
