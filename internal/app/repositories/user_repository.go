package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/db"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/dberrors"
	"github.com/uniadmit/admission/internal/pkg/helpers"
	"github.com/uniadmit/admission/internal/pkg/logger"
)

const (
	userEmailIndex = "uq_users_email"
	userPhoneIndex = "uq_users_phone"
)

// UserRepository handles user and role database operations
type UserRepository struct {
	pool *pgxpool.Pool
	q    db.DBTX
	sb   squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		pool: pool,
		q:    pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var userColumns = []string{
	"u.id", "u.name", "u.email", "u.phone", "u.password_hash",
	"u.address", "u.country", "u.state", "u.district", "u.pincode",
	"u.active", "u.session_key", "u.date_created",
	"COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}') AS roles",
}

func (r *UserRepository) userSelect() squirrel.SelectBuilder {
	return r.sb.Select(userColumns...).
		From("users u").
		LeftJoin("roles_users ru ON ru.user_id = u.id").
		LeftJoin("roles r ON r.id = ru.role_id").
		GroupBy("u.id")
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u     models.User
		roles []string
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Address, &u.Country, &u.State, &u.District, &u.Pincode,
		&u.Active, &u.SessionKey, &u.DateCreated, &roles,
	)
	if err != nil {
		return nil, err
	}
	u.Roles = make([]models.RoleName, 0, len(roles))
	for _, name := range roles {
		u.Roles = append(u.Roles, models.RoleName(name))
	}
	return &u, nil
}

func translateUserWriteError(err error, op string) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, userEmailIndex):
		return apperrors.NewConflictError("Email already registered")
	case dberrors.IsDuplicateConstraintError(err, userPhoneIndex):
		return apperrors.NewConflictError("Phone number already registered")
	}
	logger.Error().Err(err).Str("op", op).Msg("Error writing user")
	return apperrors.NewStorageError(op, err)
}

// Create inserts user and grants roles in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *models.User, roles ...models.RoleName) error {
	return db.RunInTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		sqlQuery, args, err := r.sb.Insert("users").
			Columns("name", "email", "phone", "password_hash", "address", "country", "state", "district", "pincode", "active", "session_key").
			Values(user.Name, user.Email, user.Phone, user.PasswordHash, user.Address, user.Country, user.State, user.District, user.Pincode, user.Active, user.SessionKey).
			Suffix("RETURNING id, date_created").
			ToSql()
		if err != nil {
			return apperrors.NewStorageError("create user", err)
		}
		if err := tx.QueryRow(ctx, sqlQuery, args...).Scan(&user.ID, &user.DateCreated); err != nil {
			return translateUserWriteError(err, "create user")
		}

		for _, role := range roles {
			tag, err := tx.Exec(ctx,
				`INSERT INTO roles_users (user_id, role_id) SELECT $1, id FROM roles WHERE name = $2`,
				user.ID, string(role))
			if err != nil {
				logger.Error().Err(err).Str("role", string(role)).Msg("Error assigning role")
				return apperrors.NewStorageError("assign role", err)
			}
			if tag.RowsAffected() == 0 {
				return apperrors.NewStorageError("assign role", fmt.Errorf("role %q is not seeded", role))
			}
		}
		user.Roles = append([]models.RoleName(nil), roles...)
		return nil
	})
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer, op string) (*models.User, error) {
	sqlQuery, args, err := r.userSelect().Where(where).ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}

	u, err := scanUser(r.q.QueryRow(ctx, sqlQuery, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewResourceNotFoundError("User not found")
		}
		logger.Error().Err(err).Str("op", op).Msg("Error loading user")
		return nil, apperrors.NewStorageError(op, err)
	}
	return u, nil
}

// GetByID loads a user with roles.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.id": id}, "get user")
}

// GetByEmail loads a user by case-insensitive email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Expr("LOWER(u.email) = LOWER(?)", strings.TrimSpace(email)), "get user by email")
}

func (r *UserRepository) exists(ctx context.Context, cond squirrel.Sqlizer, excludeID int64, op string) (bool, error) {
	query := r.sb.Select("1").Prefix("SELECT EXISTS (").From("users").Where(cond)
	if excludeID > 0 {
		query = query.Where(squirrel.NotEq{"id": excludeID})
	}
	sqlQuery, args, err := query.Suffix(")").ToSql()
	if err != nil {
		return false, apperrors.NewStorageError(op, err)
	}

	var exists bool
	if err := r.q.QueryRow(ctx, sqlQuery, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error checking user uniqueness")
		return false, apperrors.NewStorageError(op, err)
	}
	return exists, nil
}

// EmailExists reports whether another account uses email.
func (r *UserRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, squirrel.Expr("LOWER(email) = LOWER(?)", strings.TrimSpace(email)), excludeID, "email exists")
}

// PhoneExists reports whether another account uses phone.
func (r *UserRepository) PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"phone": strings.TrimSpace(phone)}, excludeID, "phone exists")
}

// Update writes the profile columns of user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	sqlQuery, args, err := r.sb.Update("users").
		SetMap(map[string]interface{}{
			"name":     user.Name,
			"email":    user.Email,
			"phone":    user.Phone,
			"address":  user.Address,
			"country":  user.Country,
			"state":    user.State,
			"district": user.District,
			"pincode":  user.Pincode,
		}).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return apperrors.NewStorageError("update user", err)
	}
	return r.execOne(ctx, sqlQuery, args, "update user")
}

func (r *UserRepository) execOne(ctx context.Context, sqlQuery string, args []interface{}, op string) error {
	tag, err := r.q.Exec(ctx, sqlQuery, args...)
	if err != nil {
		return translateUserWriteError(err, op)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("User not found")
	}
	return nil
}

func (r *UserRepository) setColumn(ctx context.Context, id int64, column string, value interface{}, op string) error {
	sqlQuery, args, err := r.sb.Update("users").Set(column, value).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return apperrors.NewStorageError(op, err)
	}
	return r.execOne(ctx, sqlQuery, args, op)
}

// SetActive enables or disables an account.
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.setColumn(ctx, id, "active", active, "set user active")
}

// SetPassword stores a new password hash.
func (r *UserRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	return r.setColumn(ctx, id, "password_hash", hash, "set user password")
}

// RotateSessionKey replaces the key embedded in issued tokens.
func (r *UserRepository) RotateSessionKey(ctx context.Context, id int64, key string) error {
	return r.setColumn(ctx, id, "session_key", key, "rotate session key")
}

func userConditions(filter models.UserFilter) squirrel.And {
	where := squirrel.And{}
	if filter.Role != "" {
		where = append(where, squirrel.Expr(
			"EXISTS (SELECT 1 FROM roles_users fru JOIN roles fr ON fr.id = fru.role_id WHERE fru.user_id = u.id AND fr.name = ?)",
			string(filter.Role)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := helpers.ContainsPattern(s)
		where = append(where, squirrel.Or{
			squirrel.ILike{"u.name": pattern},
			squirrel.ILike{"u.email": pattern},
			squirrel.ILike{"u.phone": pattern},
		})
	}
	return where
}

// List returns one page of users, newest first, with the total match count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	where := userConditions(filter)

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("users u").Where(where).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count users SQL")
		return nil, 0, apperrors.NewStorageError("count users", err)
	}

	var total int64
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count users query")
		return nil, 0, apperrors.NewStorageError("count users", err)
	}
	if total == 0 {
		return []models.User{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PerPage)
	users, err := r.queryUsers(ctx, r.userSelect().
		Where(where).
		OrderBy("u.date_created DESC", "u.id DESC").
		Offset(offset).
		Limit(limit), "list users")
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query squirrel.SelectBuilder, op string) ([]models.User, error) {
	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}

	rows, err := r.q.Query(ctx, sqlQuery, args...)
	if err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error querying users")
		return nil, apperrors.NewStorageError(op, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.NewStorageError(op, err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}
	return users, nil
}

// Newest returns the most recently registered users.
func (r *UserRepository) Newest(ctx context.Context, limit int) ([]models.User, error) {
	return r.queryUsers(ctx, r.userSelect().OrderBy("u.date_created DESC", "u.id DESC").Limit(uint64(limit)), "newest users")
}

// Stats aggregates account counts; Recent counts registrations since since.
func (r *UserRepository) Stats(ctx context.Context, since time.Time) (models.UserStats, error) {
	stats := models.UserStats{ByRole: map[models.RoleName]int64{}}

	sqlQuery, args, err := r.sb.Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE active)",
		"COUNT(*) FILTER (WHERE NOT active)",
	).
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE date_created >= ?)", since)).
		From("users").
		ToSql()
	if err != nil {
		return stats, apperrors.NewStorageError("user stats", err)
	}
	if err := r.q.QueryRow(ctx, sqlQuery, args...).Scan(&stats.Total, &stats.Active, &stats.Inactive, &stats.Recent); err != nil {
		logger.Error().Err(err).Msg("Error computing user stats")
		return stats, apperrors.NewStorageError("user stats", err)
	}

	roleSQL, roleArgs, err := r.sb.Select("r.name", "COUNT(ru.user_id)").
		From("roles r").
		LeftJoin("roles_users ru ON ru.role_id = r.id").
		GroupBy("r.name").
		ToSql()
	if err != nil {
		return stats, apperrors.NewStorageError("user role stats", err)
	}

	rows, err := r.q.Query(ctx, roleSQL, roleArgs...)
	if err != nil {
		logger.Error().Err(err).Msg("Error computing role breakdown")
		return stats, apperrors.NewStorageError("user role stats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name string
			n    int64
		)
		if err := rows.Scan(&name, &n); err != nil {
			return stats, apperrors.NewStorageError("user role stats", err)
		}
		stats.ByRole[models.RoleName(name)] = n
	}
	if err := rows.Err(); err != nil {
		return stats, apperrors.NewStorageError("user role stats", err)
	}
	return stats, nil
}

// CreatedSince returns registration times at or after since.
func (r *UserRepository) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	return createdSince(ctx, r.q, r.sb, "users", since)
}

// EnsureRole inserts role when missing and returns its id.
func (r *UserRepository) EnsureRole(ctx context.Context, role models.Role) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO roles (name, description) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id`, string(role.Name), role.Description).Scan(&id)
	if err != nil {
		logger.Error().Err(err).Str("role", string(role.Name)).Msg("Error ensuring role")
		return 0, apperrors.NewStorageError("ensure role", err)
	}
	return id, nil
}

// AssignRole grants role to userID; granting twice is a no-op.
func (r *UserRepository) AssignRole(ctx context.Context, userID int64, role models.RoleName) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO roles_users (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT DO NOTHING`, userID, string(role))
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Str("role", string(role)).Msg("Error assigning role")
		return apperrors.NewStorageError("assign role", err)
	}
	return nil
}
