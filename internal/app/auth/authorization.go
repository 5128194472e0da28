package auth

import (
	"context"
	"fmt"

	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/repositories"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/logger"
)

// Caller is the authenticated identity behind a request. The concrete type
// decides which operations it may perform.
type Caller interface {
	UserID() int64
	Role() models.RoleName
	isCaller()
}

// Student is a caller acting as an applicant.
type Student struct{ ID int64 }

// Admin is a caller acting as an administrator.
type Admin struct{ ID int64 }

func (s Student) UserID() int64         { return s.ID }
func (s Student) Role() models.RoleName { return models.RoleStudent }
func (Student) isCaller()               {}

func (a Admin) UserID() int64         { return a.ID }
func (a Admin) Role() models.RoleName { return models.RoleAdmin }
func (Admin) isCaller()               {}

// NewCaller picks the variant for a user holding roles. Admin wins over student.
func NewCaller(userID int64, roles []models.RoleName) (Caller, error) {
	var student bool
	for _, r := range roles {
		switch r {
		case models.RoleAdmin:
			return Admin{ID: userID}, nil
		case models.RoleStudent:
			student = true
		}
	}
	if student {
		return Student{ID: userID}, nil
	}
	return nil, apperrors.NewForbiddenError("Account has no recognised role")
}

// RequireStudent narrows caller to a Student.
func RequireStudent(caller Caller) (Student, error) {
	if s, ok := caller.(Student); ok {
		return s, nil
	}
	return Student{}, apperrors.NewForbiddenError("Student access required")
}

// RequireAdmin narrows caller to an Admin.
func RequireAdmin(caller Caller) (Admin, error) {
	if a, ok := caller.(Admin); ok {
		return a, nil
	}
	return Admin{}, apperrors.NewForbiddenError("Admin access required")
}

// ScopeToOwner hides resources the student does not own behind NotFound.
func ScopeToOwner(student Student, ownerID int64) error {
	if student.ID != ownerID {
		return apperrors.NewResourceNotFoundError("Application not found or access denied")
	}
	return nil
}

// CanToggleStatus rejects an admin deactivating their own account.
func CanToggleStatus(admin Admin, targetID int64) error {
	if admin.ID == targetID {
		return apperrors.NewValidationError("Cannot deactivate your own account")
	}
	return nil
}

// AuthorizationService resolves token subjects into callers
type AuthorizationService struct {
	userRepo repositories.UserStore
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(userRepo repositories.UserStore) *AuthorizationService {
	return &AuthorizationService{userRepo: userRepo}
}

// ResolveCaller loads the user behind a verified token and checks that the
// account is active and the session key is still current.
func (s *AuthorizationService) ResolveCaller(ctx context.Context, userID int64, sessionKey string) (Caller, *models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, nil, fmt.Errorf("%w: user no longer exists", apperrors.ErrTokenInvalid)
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error loading user for token")
		return nil, nil, err
	}
	if !user.Active {
		return nil, nil, apperrors.ErrAccountDisabled
	}
	if user.SessionKey != sessionKey {
		return nil, nil, fmt.Errorf("%w: session has been revoked", apperrors.ErrTokenInvalid)
	}

	caller, err := NewCaller(user.ID, user.Roles)
	if err != nil {
		return nil, nil, err
	}
	return caller, user, nil
}
