package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/uniadmit/admission/internal/app/models"
	"github.com/uniadmit/admission/internal/app/repositories"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
	"github.com/uniadmit/admission/internal/pkg/email"
)

var testLogger = zerolog.Nop()

func pdfBytes(size int) []byte {
	data := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("A"), size)...)
	return data[:size]
}

func pdfPayload(size int) string {
	return base64.StdEncoding.EncodeToString(pdfBytes(size))
}

// fakeUserStore is an in-memory UserStore with the unique email and phone
// rules of the users table.
type fakeUserStore struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	nextID int64
	now    func() time.Time
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]*models.User{}, now: time.Now}
}

func (f *fakeUserStore) add(u models.User, roles ...models.RoleName) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	u.Roles = roles
	if u.DateCreated.IsZero() {
		u.DateCreated = f.now().UTC()
	}
	f.users[u.ID] = &u
	cp := u
	return &cp
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User, roles ...models.RoleName) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperrors.NewConflictError(msgEmailTaken)
		}
		if u.Phone == user.Phone {
			return apperrors.NewConflictError(msgPhoneTaken)
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.DateCreated = f.now().UTC()
	user.Roles = append([]models.RoleName(nil), roles...)
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("User not found")
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NewResourceNotFoundError("User not found")
}

func (f *fakeUserStore) exists(match func(u *models.User) bool, excludeID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.users {
		if id != excludeID && match(u) {
			return true
		}
	}
	return false
}

func (f *fakeUserStore) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	return f.exists(func(u *models.User) bool { return u.Email == email }, excludeID), nil
}

func (f *fakeUserStore) PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error) {
	return f.exists(func(u *models.User) bool { return u.Phone == phone }, excludeID), nil
}

func (f *fakeUserStore) mutate(id int64, fn func(u *models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperrors.NewResourceNotFoundError("User not found")
	}
	fn(u)
	return nil
}

func (f *fakeUserStore) Update(ctx context.Context, user *models.User) error {
	return f.mutate(user.ID, func(u *models.User) {
		roles, created := u.Roles, u.DateCreated
		*u = *user
		u.Roles, u.DateCreated = roles, created
	})
}

func (f *fakeUserStore) SetActive(ctx context.Context, id int64, active bool) error {
	return f.mutate(id, func(u *models.User) { u.Active = active })
}

func (f *fakeUserStore) SetPassword(ctx context.Context, id int64, hash string) error {
	return f.mutate(id, func(u *models.User) { u.PasswordHash = hash })
}

func (f *fakeUserStore) RotateSessionKey(ctx context.Context, id int64, key string) error {
	return f.mutate(id, func(u *models.User) { u.SessionKey = key })
}

func (f *fakeUserStore) sorted() []models.User {
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateCreated.Equal(out[j].DateCreated) {
			return out[i].DateCreated.After(out[j].DateCreated)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakeUserStore) List(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.User
	search := strings.ToLower(filter.Search)
	for _, u := range f.sorted() {
		if filter.Role != "" && !u.HasRole(filter.Role) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Name+" "+u.Email+" "+u.Phone), search) {
			continue
		}
		matched = append(matched, u)
	}
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.PerPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeUserStore) Stats(ctx context.Context, since time.Time) (models.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := models.UserStats{ByRole: map[models.RoleName]int64{}}
	for _, u := range f.users {
		s.Total++
		if u.Active {
			s.Active++
		} else {
			s.Inactive++
		}
		for _, r := range u.Roles {
			s.ByRole[r]++
		}
		if !u.DateCreated.Before(since) {
			s.Recent++
		}
	}
	return s, nil
}

func (f *fakeUserStore) Newest(ctx context.Context, limit int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted()
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeUserStore) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []time.Time
	for _, u := range f.users {
		if !u.DateCreated.Before(since) {
			out = append(out, u.DateCreated)
		}
	}
	return out, nil
}

func (f *fakeUserStore) EnsureRole(ctx context.Context, role models.Role) (int64, error) {
	for i, r := range models.DefaultRoles {
		if r.Name == role.Name {
			return int64(i + 1), nil
		}
	}
	return 0, errors.New("unknown role")
}

func (f *fakeUserStore) AssignRole(ctx context.Context, userID int64, role models.RoleName) error {
	return f.mutate(userID, func(u *models.User) {
		if !u.HasRole(role) {
			u.Roles = append(u.Roles, role)
		}
	})
}

// fakeApplicationStore is an in-memory ApplicationStore. Like the database it
// allows one open (draft or pending) application per student and requires
// both documents outside draft. Transactions are serialised and roll back on
// error.
type fakeApplicationStore struct {
	txMu   sync.Mutex
	mu     sync.Mutex
	apps   map[int64]*models.Application
	nextID int64
	users  *fakeUserStore
	now    func() time.Time

	failUpdate error
	failDelete map[int64]error

	// beforeUpdate runs at the start of Update, outside the store lock.
	beforeUpdate func()
	// committed holds rows written by commitOutside; rollbacks keep them.
	committed map[int64]*models.Application
}

func newFakeApplicationStore(users *fakeUserStore) *fakeApplicationStore {
	return &fakeApplicationStore{
		apps:       map[int64]*models.Application{},
		users:      users,
		now:        time.Now,
		failDelete: map[int64]error{},
		committed:  map[int64]*models.Application{},
	}
}

// commitOutside stores app as if another transaction had committed it.
func (f *fakeApplicationStore) commitOutside(app *models.Application) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := copyApp(app)
	f.apps[app.ID] = cp
	f.committed[app.ID] = copyApp(cp)
}

func isOpen(s models.ApplicationStatus) bool {
	return s == models.StatusDraft || s == models.StatusPending
}

func copyApp(a *models.Application) *models.Application {
	cp := *a
	cp.DegreeCertificate.Data = append([]byte(nil), a.DegreeCertificate.Data...)
	cp.IDProof.Data = append([]byte(nil), a.IDProof.Data...)
	return &cp
}

// seed stores app as-is, bypassing the constraints.
func (f *fakeApplicationStore) seed(app models.Application) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	app.ID = f.nextID
	if app.DateCreated.IsZero() {
		app.DateCreated = f.now().UTC()
	}
	f.apps[app.ID] = copyApp(&app)
	return app.ID
}

func (f *fakeApplicationStore) get(id int64) *models.Application {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.apps[id]; ok {
		return copyApp(a)
	}
	return nil
}

func (f *fakeApplicationStore) countFor(studentID int64, status models.ApplicationStatus) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.apps {
		if a.StudentID == studentID && a.Status == status {
			n++
		}
	}
	return n
}

func (f *fakeApplicationStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store repositories.ApplicationStore) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	snapshot := make(map[int64]*models.Application, len(f.apps))
	for id, a := range f.apps {
		snapshot[id] = copyApp(a)
	}
	nextID := f.nextID
	f.mu.Unlock()

	if err := fn(ctx, f); err != nil {
		f.mu.Lock()
		for id, a := range f.committed {
			snapshot[id] = copyApp(a)
		}
		f.apps, f.nextID = snapshot, nextID
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeApplicationStore) HasApplicationWithStatus(ctx context.Context, studentID int64, status models.ApplicationStatus) (bool, error) {
	return f.countFor(studentID, status) > 0, nil
}

func (f *fakeApplicationStore) FindByStudentAndStatus(ctx context.Context, studentID int64, status models.ApplicationStatus) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *models.Application
	for _, a := range f.apps {
		if a.StudentID == studentID && a.Status == status && (found == nil || a.ID > found.ID) {
			found = a
		}
	}
	if found == nil {
		return nil, nil
	}
	return copyApp(found), nil
}

func (f *fakeApplicationStore) checkConstraints(app *models.Application) error {
	if isOpen(app.Status) {
		for _, other := range f.apps {
			if other.ID != app.ID && other.StudentID == app.StudentID && isOpen(other.Status) {
				return apperrors.NewConflictError(msgPendingExists)
			}
		}
	}
	if app.Status != models.StatusDraft && (!app.DegreeCertificate.Present() || !app.IDProof.Present()) {
		return apperrors.NewConflictError("Both documents are required before an application leaves draft")
	}
	return nil
}

func (f *fakeApplicationStore) Create(ctx context.Context, app *models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkConstraints(app); err != nil {
		return err
	}
	f.nextID++
	app.ID = f.nextID
	app.DateCreated = f.now().UTC()
	f.apps[app.ID] = copyApp(app)
	return nil
}

func (f *fakeApplicationStore) Update(ctx context.Context, app *models.Application) error {
	if f.beforeUpdate != nil {
		f.beforeUpdate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return f.failUpdate
	}
	existing, ok := f.apps[app.ID]
	if !ok || existing.Status != models.StatusDraft {
		return apperrors.NewConflictError(msgPendingExists)
	}
	if err := f.checkConstraints(app); err != nil {
		return err
	}
	next := copyApp(app)
	next.ReviewedBy, next.ReviewComments, next.ReviewedAt = existing.ReviewedBy, existing.ReviewComments, existing.ReviewedAt
	next.AdmissionLetterPath, next.DateCreated = existing.AdmissionLetterPath, existing.DateCreated
	f.apps[app.ID] = next
	return nil
}

func (f *fakeApplicationStore) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	if a := f.get(id); a != nil {
		return a, nil
	}
	return nil, apperrors.NewResourceNotFoundError("Application not found")
}

func (f *fakeApplicationStore) record(a *models.Application) models.ApplicationRecord {
	rec := models.ApplicationRecord{
		Application:          *copyApp(a),
		HasDegreeCertificate: a.DegreeCertificate.Present(),
		HasIDProof:           a.IDProof.Present(),
	}
	rec.DegreeCertificate.Data, rec.IDProof.Data = nil, nil
	if f.users != nil {
		if u, err := f.users.GetByID(context.Background(), a.StudentID); err == nil {
			rec.StudentName, rec.StudentEmail, rec.StudentPhone = u.Name, u.Email, u.Phone
		}
		if a.ReviewedBy != nil {
			if u, err := f.users.GetByID(context.Background(), *a.ReviewedBy); err == nil {
				rec.ReviewerName, rec.ReviewerEmail = &u.Name, &u.Email
			}
		}
	}
	return rec
}

// newestFirst returns matching records ordered like the repository.
func (f *fakeApplicationStore) newestFirst(match func(a *models.Application) bool) []models.ApplicationRecord {
	f.mu.Lock()
	var picked []*models.Application
	for _, a := range f.apps {
		if match(a) {
			picked = append(picked, copyApp(a))
		}
	}
	f.mu.Unlock()

	sort.Slice(picked, func(i, j int) bool {
		if !picked[i].DateCreated.Equal(picked[j].DateCreated) {
			return picked[i].DateCreated.After(picked[j].DateCreated)
		}
		return picked[i].ID > picked[j].ID
	})
	out := make([]models.ApplicationRecord, 0, len(picked))
	for _, a := range picked {
		out = append(out, f.record(a))
	}
	return out
}

func (f *fakeApplicationStore) GetRecordByID(ctx context.Context, id int64) (*models.ApplicationRecord, error) {
	a := f.get(id)
	if a == nil {
		return nil, apperrors.NewResourceNotFoundError("Application not found")
	}
	rec := f.record(a)
	return &rec, nil
}

func (f *fakeApplicationStore) LatestForStudent(ctx context.Context, studentID int64) (*models.ApplicationRecord, error) {
	recs := f.newestFirst(func(a *models.Application) bool { return a.StudentID == studentID })
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (f *fakeApplicationStore) ListByStudent(ctx context.Context, studentID int64) ([]models.ApplicationRecord, error) {
	return f.newestFirst(func(a *models.Application) bool { return a.StudentID == studentID }), nil
}

func (f *fakeApplicationStore) Search(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationRecord, int64, error) {
	recs := f.newestFirst(func(a *models.Application) bool {
		if filter.Status != "" && a.Status != filter.Status {
			return false
		}
		if filter.Course != "" && !strings.Contains(strings.ToLower(a.CourseApplied), strings.ToLower(filter.Course)) {
			return false
		}
		if filter.StartDate != nil && a.DateCreated.Before(*filter.StartDate) {
			return false
		}
		if filter.EndDate != nil && !a.DateCreated.Before(filter.EndDate.Add(24*time.Hour)) {
			return false
		}
		if filter.MinTwelfthPercentage != nil && a.TwelfthPercentage < *filter.MinTwelfthPercentage {
			return false
		}
		if filter.MaxTwelfthPercentage != nil && a.TwelfthPercentage > *filter.MaxTwelfthPercentage {
			return false
		}
		return true
	})
	if filter.StudentName != "" {
		kept := recs[:0]
		for _, r := range recs {
			if strings.Contains(strings.ToLower(r.StudentName), strings.ToLower(filter.StudentName)) {
				kept = append(kept, r)
			}
		}
		recs = kept
	}
	total := int64(len(recs))
	start := (filter.Page - 1) * filter.PerPage
	if start > len(recs) {
		start = len(recs)
	}
	end := start + filter.PerPage
	if end > len(recs) {
		end = len(recs)
	}
	return recs[start:end], total, nil
}

func (f *fakeApplicationStore) GetRecordsByIDs(ctx context.Context, ids []int64) (map[int64]models.ApplicationRecord, error) {
	out := map[int64]models.ApplicationRecord{}
	for _, id := range ids {
		if a := f.get(id); a != nil {
			out[id] = f.record(a)
		}
	}
	return out, nil
}

func (f *fakeApplicationStore) applyReview(a *models.Application, d models.ReviewDecision) {
	reviewer, at := d.ReviewerID, d.ReviewedAt
	a.Status = d.Status
	a.ReviewedBy = &reviewer
	a.ReviewComments = d.Comments
	a.ReviewedAt = &at
}

func (f *fakeApplicationStore) UpdateReview(ctx context.Context, d models.ReviewDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[d.ApplicationID]
	if !ok {
		return apperrors.NewResourceNotFoundError("Application not found")
	}
	next := copyApp(a)
	f.applyReview(next, d)
	if err := f.checkConstraints(next); err != nil {
		return err
	}
	f.apps[d.ApplicationID] = next
	return nil
}

func (f *fakeApplicationStore) UpdateReviewIfPending(ctx context.Context, d models.ReviewDecision) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[d.ApplicationID]
	if !ok || a.Status != models.StatusPending {
		return false, nil
	}
	f.applyReview(a, d)
	return true, nil
}

func (f *fakeApplicationStore) Delete(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failDelete[id]; err != nil {
		return false, err
	}
	if _, ok := f.apps[id]; !ok {
		return false, nil
	}
	delete(f.apps, id)
	return true, nil
}

func (f *fakeApplicationStore) SetAdmissionLetterPath(ctx context.Context, id int64, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok {
		return apperrors.NewResourceNotFoundError("Application not found")
	}
	p := path
	a.AdmissionLetterPath = &p
	return nil
}

func (f *fakeApplicationStore) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c models.StatusCounts
	for _, a := range f.apps {
		c.Add(a.Status, 1)
	}
	return c, nil
}

func (f *fakeApplicationStore) CountByCourse(ctx context.Context, limit int) ([]models.CourseCounts, error) {
	f.mu.Lock()
	byCourse := map[string]*models.CourseCounts{}
	for _, a := range f.apps {
		cc, ok := byCourse[a.CourseApplied]
		if !ok {
			cc = &models.CourseCounts{Course: a.CourseApplied}
			byCourse[a.CourseApplied] = cc
		}
		cc.Add(a.Status, 1)
	}
	f.mu.Unlock()

	out := make([]models.CourseCounts, 0, len(byCourse))
	for _, cc := range byCourse {
		out = append(out, *cc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total() != out[j].Total() {
			return out[i].Total() > out[j].Total()
		}
		return out[i].Course < out[j].Course
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeApplicationStore) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []time.Time
	for _, a := range f.apps {
		if !a.DateCreated.Before(since) {
			out = append(out, a.DateCreated)
		}
	}
	return out, nil
}

func (f *fakeApplicationStore) OldestPending(ctx context.Context, limit int) ([]models.PendingItem, error) {
	recs := f.newestFirst(func(a *models.Application) bool { return a.Status == models.StatusPending })
	out := []models.PendingItem{}
	for i := len(recs) - 1; i >= 0 && len(out) < limit; i-- {
		r := recs[i]
		out = append(out, models.PendingItem{ID: r.ID, StudentName: r.StudentName, Course: r.CourseApplied, DateCreated: r.DateCreated})
	}
	return out, nil
}

// recordingNotifier captures decision emails.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []email.Decision
	err  error
}

func (n *recordingNotifier) SendDecision(d email.Decision) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, d)
	return n.err
}

func (n *recordingNotifier) decisions() []email.Decision {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]email.Decision(nil), n.sent...)
}

var (
	_ repositories.ApplicationStore       = (*fakeApplicationStore)(nil)
	_ repositories.ApplicationStatsReader = (*fakeApplicationStore)(nil)
	_ repositories.UserStore              = (*fakeUserStore)(nil)
	_ email.Notifier                      = (*recordingNotifier)(nil)
)
