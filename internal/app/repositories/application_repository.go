package repositories

import (
	"context"
	"fmt"
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
	openApplicationIndex = "uq_applications_student_open"
	documentsCheck       = "ck_applications_documents"

	msgOpenExists = "You already have a pending application"
)

// ApplicationRepository handles application database operations
type ApplicationRepository struct {
	pool *pgxpool.Pool
	q    db.DBTX
	sb   squirrel.StatementBuilderType
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{
		pool: pool,
		q:    pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithinTransaction runs fn with a repository bound to one transaction.
func (r *ApplicationRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store ApplicationStore) error) error {
	if _, inTx := r.q.(pgx.Tx); inTx {
		return fn(ctx, r)
	}
	return db.RunInTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &ApplicationRepository{pool: r.pool, q: tx, sb: r.sb})
	})
}

var applicationColumns = []string{
	"a.id", "a.student_id", "a.course_applied",
	"a.tenth_percentage", "a.tenth_board", "a.twelfth_percentage", "a.twelfth_board",
	"a.previous_qualification", "a.previous_institution", "a.graduation_year",
	"a.address", "a.country", "a.state", "a.district", "a.pincode",
	"a.degree_certificate_filename", "a.id_proof_filename",
	"a.status", "a.reviewed_by", "a.review_comments", "a.reviewed_at",
	"a.admission_letter_path", "a.date_created",
}

// scanTargets returns the destinations matching applicationColumns.
func scanTargets(a *models.Application, status *string) []any {
	return []any{
		&a.ID, &a.StudentID, &a.CourseApplied,
		&a.TenthPercentage, &a.TenthBoard, &a.TwelfthPercentage, &a.TwelfthBoard,
		&a.PreviousQualification, &a.PreviousInstitution, &a.GraduationYear,
		&a.Address, &a.Country, &a.State, &a.District, &a.Pincode,
		&a.DegreeCertificate.Filename, &a.IDProof.Filename,
		status, &a.ReviewedBy, &a.ReviewComments, &a.ReviewedAt,
		&a.AdmissionLetterPath, &a.DateCreated,
	}
}

func (r *ApplicationRepository) fullSelect() squirrel.SelectBuilder {
	cols := append(append([]string{}, applicationColumns...), "a.degree_certificate", "a.id_proof")
	return r.sb.Select(cols...).From("applications a")
}

func (r *ApplicationRepository) recordSelect() squirrel.SelectBuilder {
	cols := append(append([]string{}, applicationColumns...),
		"octet_length(a.degree_certificate) > 0 AS has_degree_certificate",
		"octet_length(a.id_proof) > 0 AS has_id_proof",
		"u.name", "u.email", "u.phone",
		"rv.name", "rv.email",
	)
	return r.sb.Select(cols...).
		From("applications a").
		Join("users u ON u.id = a.student_id").
		LeftJoin("users rv ON rv.id = a.reviewed_by")
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var (
		app    models.Application
		status string
	)
	dest := append(scanTargets(&app, &status), &app.DegreeCertificate.Data, &app.IDProof.Data)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	app.Status = models.ApplicationStatus(status)
	return &app, nil
}

func scanRecord(row pgx.Row) (*models.ApplicationRecord, error) {
	var (
		rec    models.ApplicationRecord
		status string
	)
	dest := append(scanTargets(&rec.Application, &status),
		&rec.HasDegreeCertificate, &rec.HasIDProof,
		&rec.StudentName, &rec.StudentEmail, &rec.StudentPhone,
		&rec.ReviewerName, &rec.ReviewerEmail,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	rec.Status = models.ApplicationStatus(status)
	return &rec, nil
}

func (r *ApplicationRepository) queryRecords(ctx context.Context, query squirrel.SelectBuilder, op string) ([]models.ApplicationRecord, error) {
	sqlQuery, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error building application query")
		return nil, apperrors.NewStorageError(op, err)
	}

	rows, err := r.q.Query(ctx, sqlQuery, args...)
	if err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error executing application query")
		return nil, apperrors.NewStorageError(op, err)
	}
	defer rows.Close()

	records := []models.ApplicationRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			logger.Error().Err(err).Str("op", op).Msg("Error scanning application row")
			return nil, apperrors.NewStorageError(op, err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}
	return records, nil
}

// HasApplicationWithStatus reports whether the student has any application in status.
func (r *ApplicationRepository) HasApplicationWithStatus(ctx context.Context, studentID int64, status models.ApplicationStatus) (bool, error) {
	sqlQuery, args, err := r.sb.Select("1").
		Prefix("SELECT EXISTS (").
		From("applications").
		Where(squirrel.Eq{"student_id": studentID, "status": string(status)}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, apperrors.NewStorageError("check application status", err)
	}

	var exists bool
	if err := r.q.QueryRow(ctx, sqlQuery, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error checking application status")
		return false, apperrors.NewStorageError("check application status", err)
	}
	return exists, nil
}

// FindByStudentAndStatus loads the student's newest application in status, documents included.
func (r *ApplicationRepository) FindByStudentAndStatus(ctx context.Context, studentID int64, status models.ApplicationStatus) (*models.Application, error) {
	sqlQuery, args, err := r.fullSelect().
		Where(squirrel.Eq{"a.student_id": studentID, "a.status": string(status)}).
		OrderBy("a.date_created DESC", "a.id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("find application", err)
	}

	app, err := scanApplication(r.q.QueryRow(ctx, sqlQuery, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		logger.Error().Err(err).Int64("studentID", studentID).Str("status", string(status)).Msg("Error finding application")
		return nil, apperrors.NewStorageError("find application", err)
	}
	return app, nil
}

func (r *ApplicationRepository) translateWriteError(err error, op string) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, openApplicationIndex):
		return apperrors.NewConflictError(msgOpenExists)
	case dberrors.IsCheckViolation(err, documentsCheck):
		return apperrors.NewConflictError("Both documents are required before an application leaves draft")
	}
	logger.Error().Err(err).Str("op", op).Msg("Error writing application")
	return apperrors.NewStorageError(op, err)
}

// Create inserts app and fills in its ID and DateCreated.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	sqlQuery, args, err := r.sb.Insert("applications").
		Columns(
			"student_id", "course_applied",
			"tenth_percentage", "tenth_board", "twelfth_percentage", "twelfth_board",
			"previous_qualification", "previous_institution", "graduation_year",
			"address", "country", "state", "district", "pincode",
			"degree_certificate", "degree_certificate_filename", "id_proof", "id_proof_filename",
			"status",
		).
		Values(
			app.StudentID, app.CourseApplied,
			app.TenthPercentage, app.TenthBoard, app.TwelfthPercentage, app.TwelfthBoard,
			app.PreviousQualification, app.PreviousInstitution, app.GraduationYear,
			app.Address, app.Country, app.State, app.District, app.Pincode,
			blob(app.DegreeCertificate.Data), app.DegreeCertificate.Filename,
			blob(app.IDProof.Data), app.IDProof.Filename,
			string(app.Status),
		).
		Suffix("RETURNING id, date_created").
		ToSql()
	if err != nil {
		return apperrors.NewStorageError("create application", err)
	}

	if err := r.q.QueryRow(ctx, sqlQuery, args...).Scan(&app.ID, &app.DateCreated); err != nil {
		return r.translateWriteError(err, "create application")
	}
	return nil
}

// Update overwrites every editable column of app while the stored row is
// still a draft. A row that has left draft yields a Conflict.
func (r *ApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	sqlQuery, args, err := draftUpdate(r.sb, app).ToSql()
	if err != nil {
		return apperrors.NewStorageError("update application", err)
	}

	tag, err := r.q.Exec(ctx, sqlQuery, args...)
	if err != nil {
		return r.translateWriteError(err, "update application")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError(msgOpenExists)
	}
	return nil
}

func draftUpdate(sb squirrel.StatementBuilderType, app *models.Application) squirrel.UpdateBuilder {
	return sb.Update("applications").
		SetMap(map[string]interface{}{
			"course_applied":              app.CourseApplied,
			"tenth_percentage":            app.TenthPercentage,
			"tenth_board":                 app.TenthBoard,
			"twelfth_percentage":          app.TwelfthPercentage,
			"twelfth_board":               app.TwelfthBoard,
			"previous_qualification":      app.PreviousQualification,
			"previous_institution":        app.PreviousInstitution,
			"graduation_year":             app.GraduationYear,
			"address":                     app.Address,
			"country":                     app.Country,
			"state":                       app.State,
			"district":                    app.District,
			"pincode":                     app.Pincode,
			"degree_certificate":          blob(app.DegreeCertificate.Data),
			"degree_certificate_filename": app.DegreeCertificate.Filename,
			"id_proof":                    blob(app.IDProof.Data),
			"id_proof_filename":           app.IDProof.Filename,
			"status":                      string(app.Status),
		}).
		Where(squirrel.Eq{"id": app.ID, "status": string(models.StatusDraft)})
}

// GetByID loads one application with its document bytes.
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	sqlQuery, args, err := r.fullSelect().Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("get application", err)
	}

	app, err := scanApplication(r.q.QueryRow(ctx, sqlQuery, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewResourceNotFoundError("Application not found")
		}
		logger.Error().Err(err).Int64("applicationID", id).Msg("Error getting application")
		return nil, apperrors.NewStorageError("get application", err)
	}
	return app, nil
}

// GetRecordByID loads one application joined with its student and reviewer.
func (r *ApplicationRepository) GetRecordByID(ctx context.Context, id int64) (*models.ApplicationRecord, error) {
	sqlQuery, args, err := r.recordSelect().Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("get application record", err)
	}

	rec, err := scanRecord(r.q.QueryRow(ctx, sqlQuery, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewResourceNotFoundError("Application not found")
		}
		logger.Error().Err(err).Int64("applicationID", id).Msg("Error getting application record")
		return nil, apperrors.NewStorageError("get application record", err)
	}
	return rec, nil
}

// LatestForStudent returns the student's most recent application, or nil.
func (r *ApplicationRepository) LatestForStudent(ctx context.Context, studentID int64) (*models.ApplicationRecord, error) {
	records, err := r.queryRecords(ctx, r.recordSelect().
		Where(squirrel.Eq{"a.student_id": studentID}).
		OrderBy("a.date_created DESC", "a.id DESC").
		Limit(1), "latest application")
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

// ListByStudent returns the student's applications, newest first.
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.ApplicationRecord, error) {
	return r.queryRecords(ctx, r.recordSelect().
		Where(squirrel.Eq{"a.student_id": studentID}).
		OrderBy("a.date_created DESC", "a.id DESC"), "list student applications")
}

func applicationConditions(filter models.ApplicationFilter) squirrel.And {
	where := squirrel.And{}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"a.status": string(filter.Status)})
	}
	if filter.Course != "" {
		where = append(where, squirrel.ILike{"a.course_applied": helpers.ContainsPattern(filter.Course)})
	}
	if filter.StudentName != "" {
		where = append(where, squirrel.ILike{"u.name": helpers.ContainsPattern(filter.StudentName)})
	}
	if filter.StartDate != nil {
		where = append(where, squirrel.GtOrEq{"a.date_created": *filter.StartDate})
	}
	if filter.EndDate != nil {
		// inclusive end day
		where = append(where, squirrel.Lt{"a.date_created": filter.EndDate.Add(24 * time.Hour)})
	}
	if filter.MinTwelfthPercentage != nil {
		where = append(where, squirrel.GtOrEq{"a.twelfth_percentage": *filter.MinTwelfthPercentage})
	}
	if filter.MaxTwelfthPercentage != nil {
		where = append(where, squirrel.LtOrEq{"a.twelfth_percentage": *filter.MaxTwelfthPercentage})
	}
	return where
}

// Search returns one page of applications matching filter plus the total match count.
func (r *ApplicationRepository) Search(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationRecord, int64, error) {
	where := applicationConditions(filter)

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("applications a").
		Join("users u ON u.id = a.student_id").
		Where(where).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count applications SQL")
		return nil, 0, apperrors.NewStorageError("count applications", err)
	}

	var total int64
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count applications query")
		return nil, 0, apperrors.NewStorageError("count applications", err)
	}
	if total == 0 {
		return []models.ApplicationRecord{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PerPage)
	records, err := r.queryRecords(ctx, r.recordSelect().
		Where(where).
		OrderBy("a.date_created DESC", "a.id DESC").
		Offset(offset).
		Limit(limit), "search applications")
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// GetRecordsByIDs loads the applications among ids that exist, keyed by id.
func (r *ApplicationRepository) GetRecordsByIDs(ctx context.Context, ids []int64) (map[int64]models.ApplicationRecord, error) {
	out := make(map[int64]models.ApplicationRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	records, err := r.queryRecords(ctx, r.recordSelect().Where(squirrel.Eq{"a.id": ids}), "get applications by ids")
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		out[rec.ID] = rec
	}
	return out, nil
}

func (r *ApplicationRepository) reviewUpdate(decision models.ReviewDecision) squirrel.UpdateBuilder {
	return r.sb.Update("applications").
		Set("status", string(decision.Status)).
		Set("reviewed_by", decision.ReviewerID).
		Set("review_comments", decision.Comments).
		Set("reviewed_at", decision.ReviewedAt).
		Where(squirrel.Eq{"id": decision.ApplicationID})
}

// UpdateReview records decision regardless of the current status.
func (r *ApplicationRepository) UpdateReview(ctx context.Context, decision models.ReviewDecision) error {
	sqlQuery, args, err := r.reviewUpdate(decision).ToSql()
	if err != nil {
		return apperrors.NewStorageError("review application", err)
	}

	tag, err := r.q.Exec(ctx, sqlQuery, args...)
	if err != nil {
		return r.translateWriteError(err, "review application")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("Application not found")
	}
	return nil
}

// UpdateReviewIfPending records decision only when the row is still pending.
func (r *ApplicationRepository) UpdateReviewIfPending(ctx context.Context, decision models.ReviewDecision) (bool, error) {
	sqlQuery, args, err := r.reviewUpdate(decision).
		Where(squirrel.Eq{"status": string(models.StatusPending)}).
		ToSql()
	if err != nil {
		return false, apperrors.NewStorageError("review pending application", err)
	}

	tag, err := r.q.Exec(ctx, sqlQuery, args...)
	if err != nil {
		return false, r.translateWriteError(err, "review pending application")
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes the application and reports whether it existed.
func (r *ApplicationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	sqlQuery, args, err := r.sb.Delete("applications").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return false, apperrors.NewStorageError("delete application", err)
	}

	tag, err := r.q.Exec(ctx, sqlQuery, args...)
	if err != nil {
		logger.Error().Err(err).Int64("applicationID", id).Msg("Error deleting application")
		return false, apperrors.NewStorageError("delete application", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetAdmissionLetterPath stores where the generated offer letter was archived.
func (r *ApplicationRepository) SetAdmissionLetterPath(ctx context.Context, id int64, path string) error {
	sqlQuery, args, err := r.sb.Update("applications").
		Set("admission_letter_path", path).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return apperrors.NewStorageError("set admission letter path", err)
	}

	if _, err := r.q.Exec(ctx, sqlQuery, args...); err != nil {
		logger.Error().Err(err).Int64("applicationID", id).Msg("Error saving admission letter path")
		return apperrors.NewStorageError("set admission letter path", err)
	}
	return nil
}

// CountByStatus totals applications per status.
func (r *ApplicationRepository) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	var counts models.StatusCounts

	sqlQuery, args, err := r.sb.Select("status", "COUNT(*)").From("applications").GroupBy("status").ToSql()
	if err != nil {
		return counts, apperrors.NewStorageError("count by status", err)
	}

	rows, err := r.q.Query(ctx, sqlQuery, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error counting applications by status")
		return counts, apperrors.NewStorageError("count by status", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return counts, apperrors.NewStorageError("count by status", err)
		}
		counts.Add(models.ApplicationStatus(status), n)
	}
	if err := rows.Err(); err != nil {
		return counts, apperrors.NewStorageError("count by status", err)
	}
	return counts, nil
}

// CountByCourse returns per-course status totals for the busiest courses.
func (r *ApplicationRepository) CountByCourse(ctx context.Context, limit int) ([]models.CourseCounts, error) {
	query := r.sb.Select(
		"course_applied",
		"COUNT(*) FILTER (WHERE status = 'draft')",
		"COUNT(*) FILTER (WHERE status = 'pending')",
		"COUNT(*) FILTER (WHERE status = 'approved')",
		"COUNT(*) FILTER (WHERE status = 'rejected')",
	).
		From("applications").
		GroupBy("course_applied").
		OrderBy("COUNT(*) DESC", "course_applied ASC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("count by course", err)
	}

	rows, err := r.q.Query(ctx, sqlQuery, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error counting applications by course")
		return nil, apperrors.NewStorageError("count by course", err)
	}
	defer rows.Close()

	out := []models.CourseCounts{}
	for rows.Next() {
		var cc models.CourseCounts
		if err := rows.Scan(&cc.Course, &cc.Draft, &cc.Pending, &cc.Approved, &cc.Rejected); err != nil {
			return nil, apperrors.NewStorageError("count by course", err)
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("count by course", err)
	}
	return out, nil
}

// CreatedSince returns the creation times of applications created at or after since.
func (r *ApplicationRepository) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	return createdSince(ctx, r.q, r.sb, "applications", since)
}

// OldestPending returns the pending applications that have waited longest.
func (r *ApplicationRepository) OldestPending(ctx context.Context, limit int) ([]models.PendingItem, error) {
	sqlQuery, args, err := r.sb.Select("a.id", "u.name", "a.course_applied", "a.date_created").
		From("applications a").
		Join("users u ON u.id = a.student_id").
		Where(squirrel.Eq{"a.status": string(models.StatusPending)}).
		OrderBy("a.date_created ASC", "a.id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("oldest pending", err)
	}

	rows, err := r.q.Query(ctx, sqlQuery, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing oldest pending applications")
		return nil, apperrors.NewStorageError("oldest pending", err)
	}
	defer rows.Close()

	out := []models.PendingItem{}
	for rows.Next() {
		var item models.PendingItem
		if err := rows.Scan(&item.ID, &item.StudentName, &item.Course, &item.DateCreated); err != nil {
			return nil, apperrors.NewStorageError("oldest pending", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("oldest pending", err)
	}
	return out, nil
}

func createdSince(ctx context.Context, q db.DBTX, sb squirrel.StatementBuilderType, table string, since time.Time) ([]time.Time, error) {
	op := fmt.Sprintf("%s created since", table)
	sqlQuery, args, err := sb.Select("date_created").
		From(table).
		Where(squirrel.GtOrEq{"date_created": since}).
		OrderBy("date_created ASC").
		ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}

	rows, err := q.Query(ctx, sqlQuery, args...)
	if err != nil {
		logger.Error().Err(err).Str("table", table).Msg("Error loading creation times")
		return nil, apperrors.NewStorageError(op, err)
	}
	defer rows.Close()

	out := []time.Time{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, apperrors.NewStorageError(op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}
	return out, nil
}

// blob keeps an absent document as an empty bytea instead of NULL.
func blob(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
