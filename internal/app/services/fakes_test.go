package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/filestorage"
)

// memAlumniRepo is an in-memory alumni store with a unique registration number
type memAlumniRepo struct {
	mu      sync.Mutex
	records map[string]models.Alumni

	// existsOverride makes the pre-check report "free" so the insert decides
	existsOverride *bool
	failList       error
}

func newMemAlumniRepo() *memAlumniRepo {
	return &memAlumniRepo{records: map[string]models.Alumni{}}
}

func (r *memAlumniRepo) takenLocked(regNo, exceptID string) bool {
	for id, a := range r.records {
		if id != exceptID && a.RegistrationNumber == regNo {
			return true
		}
	}
	return false
}

func (r *memAlumniRepo) Create(_ context.Context, alumni *models.Alumni) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.takenLocked(alumni.RegistrationNumber, "") {
		return apperrors.ErrRegistrationNumberDuplicated
	}
	if alumni.ID == "" {
		alumni.ID = uuid.New().String()
	}
	r.records[alumni.ID] = *alumni
	return nil
}

func (r *memAlumniRepo) GetByID(_ context.Context, id string) (*models.Alumni, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.records[id]
	if !ok {
		return nil, apperrors.ErrAlumniNotFound
	}
	return &a, nil
}

func (r *memAlumniRepo) ExistsByRegistrationNumber(_ context.Context, regNo string) (bool, error) {
	if r.existsOverride != nil {
		return *r.existsOverride, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.takenLocked(regNo, ""), nil
}

func (r *memAlumniRepo) Update(_ context.Context, alumni *models.Alumni) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[alumni.ID]; !ok {
		return apperrors.ErrAlumniNotFound
	}
	if r.takenLocked(alumni.RegistrationNumber, alumni.ID) {
		return apperrors.ErrRegistrationNumberDuplicated
	}
	r.records[alumni.ID] = *alumni
	return nil
}

func (r *memAlumniRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return apperrors.ErrAlumniNotFound
	}
	delete(r.records, id)
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (r *memAlumniRepo) List(_ context.Context, filter models.AlumniFilter, offset uint64, limit int) ([]*models.Alumni, int64, error) {
	if r.failList != nil {
		return nil, 0, r.failList
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Alumni
	for _, a := range r.records {
		a := a
		switch {
		case filter.AcademicUnit != "" && a.AcademicUnit != filter.AcademicUnit:
			continue
		case filter.PassingYear != "" && a.PassingYear != filter.PassingYear:
			continue
		case filter.Program != "" && !containsFold(a.Program, filter.Program):
			continue
		case filter.Query != "" && !containsFold(a.Name, filter.Query) &&
			!containsFold(a.RegistrationNumber, filter.Query) && !containsFold(a.Program, filter.Query):
			continue
		}
		matched = append(matched, &a)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := int(offset)
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// memStorage records saved uploads; fail makes Save return an error for that slot's filename
type memStorage struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
	fail    map[string]error
	seq     atomic.Int64
}

func (s *memStorage) Save(ctx context.Context, upload filestorage.Upload, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.fail[upload.Filename]; err != nil {
		return "", err
	}
	url := fmt.Sprintf("https://files.test/%s/%d-%s", folder, s.seq.Add(1), upload.Filename)
	s.mu.Lock()
	s.saved = append(s.saved, url)
	s.mu.Unlock()
	return url, nil
}

func (s *memStorage) Delete(_ context.Context, fileURL string) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, fileURL)
	s.mu.Unlock()
	return nil
}

type fakeUnits struct {
	names map[string]bool
	err   error
}

func (f fakeUnits) ExistsByName(_ context.Context, name string) (bool, error) {
	return f.names[name], f.err
}

// memUserRepo is an in-memory IUserRepository
type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
	// passwordErr fails UpdatePassword when set
	passwordErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int64]*models.User{}}
}

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == strings.ToLower(user.Email) {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *memUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrResourceNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *memUserRepo) update(id int64, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *memUserRepo) UpdateProfile(_ context.Context, id int64, name, email string) error {
	return r.update(id, func(u *models.User) { u.Name, u.Email = name, strings.ToLower(email) })
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	err := r.passwordErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.update(id, func(u *models.User) { u.Password = hash })
}

func (r *memUserRepo) UpdateRole(_ context.Context, id int64, role models.RoleType) error {
	return r.update(id, func(u *models.User) { u.Role = role })
}

func (r *memUserRepo) UpdateProfilePhotoURL(_ context.Context, id int64, url *string) error {
	return r.update(id, func(u *models.User) { u.ProfilePhotoURL = url })
}

func (r *memUserRepo) UpdateLastLogin(_ context.Context, id int64) error {
	return r.update(id, func(u *models.User) {
		now := time.Now()
		u.LastLoginAt = &now
	})
}

func (r *memUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) List(_ context.Context, filter models.UserFilter, offset uint64, limit int) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for id := int64(1); id <= r.nextID; id++ {
		u, ok := r.users[id]
		if !ok || (filter.Role != "" && u.Role != filter.Role) {
			continue
		}
		if filter.Search != "" && !containsFold(u.Name, filter.Search) && !containsFold(u.Email, filter.Search) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	total := int64(len(out))
	start := min(int(offset), len(out))
	end := min(start+limit, len(out))
	return out[start:end], total, nil
}

// memTokenRepo mirrors the refresh token table, including its "revoke only once" update
type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: map[string]*models.RefreshToken{}}
}

func (r *memTokenRepo) CreateToken(_ context.Context, token string, userID int64, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = &models.RefreshToken{Token: token, UserID: userID, ExpiryDate: expiry, CreatedAt: time.Now()}
	return nil
}

func (r *memTokenRepo) GetToken(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTokenRepo) DeleteStaleTokens(_ context.Context, now time.Time, revokedBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.tokens {
		// the fake has no revoked_at; creation time stands in for it
		if t.ExpiryDate.Before(now) || (t.Revoked && t.CreatedAt.Before(revokedBefore)) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r *memTokenRepo) RevokeToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.Revoked {
		return apperrors.ErrTokenNotFound
	}
	t.Revoked = true
	return nil
}

func (r *memTokenRepo) RevokeAllUserTokens(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (r *memTokenRepo) active(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID && !t.Revoked {
			n++
		}
	}
	return n
}

type memResetTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.PasswordResetToken
}

func newMemResetTokenRepo() *memResetTokenRepo {
	return &memResetTokenRepo{tokens: map[string]*models.PasswordResetToken{}}
}

func (r *memResetTokenRepo) CreateToken(_ context.Context, userID int64, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = &models.PasswordResetToken{UserID: userID, Token: token, ExpiryDate: expiry}
	return nil
}

func (r *memResetTokenRepo) GetToken(_ context.Context, token string) (*models.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memResetTokenRepo) MarkTokenAsUsed(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.Used {
		return apperrors.ErrTokenNotFound
	}
	t.Used = true
	return nil
}

func (r *memResetTokenRepo) ReleaseToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[token]; ok {
		t.Used = false
	}
	return nil
}

func (r *memResetTokenRepo) DeleteExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.tokens {
		if t.ExpiryDate.Before(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r *memResetTokenRepo) only() *models.PasswordResetToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		cp := *t
		return &cp
	}
	return nil
}

type sentEmail struct {
	to, name, payload string
}

type fakeEmail struct {
	mu     sync.Mutex
	resets []sentEmail
	err    error
}

func (f *fakeEmail) SendPasswordResetEmail(toEmail, toName, resetURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, sentEmail{toEmail, toName, resetURL})
	return f.err
}

func (f *fakeEmail) SendContactAcknowledgement(string, string, string) error {
	return f.err
}

// mockMailer is a testify mock of email.EmailService
type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendPasswordResetEmail(toEmail, toName, resetURL string) error {
	return m.Called(toEmail, toName, resetURL).Error(0)
}

func (m *mockMailer) SendContactAcknowledgement(toEmail, toName, subject string) error {
	return m.Called(toEmail, toName, subject).Error(0)
}

type memSettingsRepo struct {
	mu   sync.Mutex
	rows map[int64]models.UserSettings
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{rows: map[int64]models.UserSettings{}}
}

func (r *memSettingsRepo) Get(_ context.Context, userID int64) (*models.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[userID]
	if !ok {
		return nil, apperrors.ErrResourceNotFound
	}
	return &s, nil
}

func (r *memSettingsRepo) Upsert(_ context.Context, s *models.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.UpdatedAt = time.Now()
	r.rows[s.UserID] = *s
	return nil
}

func (r *memSettingsRepo) Delete(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, userID)
	return nil
}

type memUnitRepo struct {
	mu     sync.Mutex
	nextID int64
	units  map[int64]models.AcademicUnit
}

func newMemUnitRepo() *memUnitRepo {
	return &memUnitRepo{units: map[int64]models.AcademicUnit{}}
}

func (r *memUnitRepo) conflictLocked(u *models.AcademicUnit) bool {
	for id, other := range r.units {
		if id != u.ID && (other.Name == u.Name || other.Code == u.Code) {
			return true
		}
	}
	return false
}

func (r *memUnitRepo) Create(_ context.Context, u *models.AcademicUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictLocked(u) {
		return apperrors.ErrAcademicUnitAlreadyExists
	}
	r.nextID++
	u.ID = r.nextID
	r.units[u.ID] = *u
	return nil
}

func (r *memUnitRepo) GetByID(_ context.Context, id int64) (*models.AcademicUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return nil, apperrors.ErrAcademicUnitNotFound
	}
	return &u, nil
}

func (r *memUnitRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.units {
		if u.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUnitRepo) GetAll(_ context.Context) ([]*models.AcademicUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.AcademicUnit, 0, len(r.units))
	for id := int64(1); id <= r.nextID; id++ {
		if u, ok := r.units[id]; ok {
			out = append(out, &u)
		}
	}
	return out, nil
}

func (r *memUnitRepo) Update(_ context.Context, u *models.AcademicUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.units[u.ID]; !ok {
		return apperrors.ErrAcademicUnitNotFound
	}
	if r.conflictLocked(u) {
		return apperrors.ErrAcademicUnitAlreadyExists
	}
	r.units[u.ID] = *u
	return nil
}

func (r *memUnitRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.units[id]; !ok {
		return apperrors.ErrAcademicUnitNotFound
	}
	delete(r.units, id)
	return nil
}

type memContactRepo struct {
	mu     sync.Mutex
	nextID int64
	msgs   map[int64]models.ContactMessage
}

func newMemContactRepo() *memContactRepo {
	return &memContactRepo{msgs: map[int64]models.ContactMessage{}}
}

func (r *memContactRepo) Create(_ context.Context, m *models.ContactMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	m.CreatedAt = time.Now()
	r.msgs[m.ID] = *m
	return nil
}

func (r *memContactRepo) GetByID(_ context.Context, id int64) (*models.ContactMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok {
		return nil, apperrors.ErrContactMessageNotFound
	}
	return &m, nil
}

func (r *memContactRepo) List(_ context.Context, filter models.ContactMessageFilter, offset uint64, limit int) ([]*models.ContactMessage, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ContactMessage
	for id := r.nextID; id >= 1; id-- {
		m, ok := r.msgs[id]
		if !ok || (filter.UnreadOnly && m.IsRead) {
			continue
		}
		out = append(out, &m)
	}
	total := int64(len(out))
	start := min(int(offset), len(out))
	end := min(start+limit, len(out))
	return out[start:end], total, nil
}

func (r *memContactRepo) MarkRead(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok {
		return apperrors.ErrContactMessageNotFound
	}
	m.IsRead = true
	r.msgs[id] = m
	return nil
}

func (r *memContactRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.msgs[id]; !ok {
		return apperrors.ErrContactMessageNotFound
	}
	delete(r.msgs, id)
	return nil
}
