package repositories

import (
	"context"
	"time"

	"github.com/uniadmit/admission/internal/app/models"
)

// ApplicationStore is the persistence surface of the application lifecycle.
type ApplicationStore interface {
	// WithinTransaction runs fn against a store bound to a single transaction.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, store ApplicationStore) error) error

	HasApplicationWithStatus(ctx context.Context, studentID int64, status models.ApplicationStatus) (bool, error)
	// FindByStudentAndStatus returns nil, nil when the student has no
	// application in status.
	FindByStudentAndStatus(ctx context.Context, studentID int64, status models.ApplicationStatus) (*models.Application, error)
	Create(ctx context.Context, app *models.Application) error
	Update(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	GetRecordByID(ctx context.Context, id int64) (*models.ApplicationRecord, error)
	LatestForStudent(ctx context.Context, studentID int64) (*models.ApplicationRecord, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.ApplicationRecord, error)
	Search(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationRecord, int64, error)
	GetRecordsByIDs(ctx context.Context, ids []int64) (map[int64]models.ApplicationRecord, error)
	UpdateReview(ctx context.Context, decision models.ReviewDecision) error
	// UpdateReviewIfPending applies decision only while the row is pending
	// and reports whether it did.
	UpdateReviewIfPending(ctx context.Context, decision models.ReviewDecision) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	SetAdmissionLetterPath(ctx context.Context, id int64, path string) error
}

// ApplicationStatsReader serves the reporting queries.
type ApplicationStatsReader interface {
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
	CountByCourse(ctx context.Context, limit int) ([]models.CourseCounts, error)
	CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error)
	OldestPending(ctx context.Context, limit int) ([]models.PendingItem, error)
}

// UserStore is the persistence surface for accounts.
type UserStore interface {
	// Create inserts user and grants roles in one transaction.
	Create(ctx context.Context, user *models.User, roles ...models.RoleName) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error)
	Update(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetPassword(ctx context.Context, id int64, hash string) error
	RotateSessionKey(ctx context.Context, id int64, key string) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error)
	Stats(ctx context.Context, since time.Time) (models.UserStats, error)
	Newest(ctx context.Context, limit int) ([]models.User, error)
	CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error)
	EnsureRole(ctx context.Context, role models.Role) (int64, error)
	AssignRole(ctx context.Context, userID int64, role models.RoleName) error
}
