package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/filestorage"
)

func sp(s string) *string { return &s }

// steppingClock advances one second per call
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestAlumniService(repo *memAlumniRepo, storage filestorage.FileStorage, opts AlumniOptions) AlumniService {
	if opts.Now == nil {
		opts.Now = steppingClock()
	}
	return NewAlumniService(repo, storage, nil, opts, zerolog.Nop())
}

func janeRequest(regNo string) *dto.AlumniRequest {
	return &dto.AlumniRequest{
		Name:               sp("Jane Doe"),
		Program:            sp("B.Tech CS"),
		PassingYear:        sp("2019-20"),
		RegistrationNumber: sp(regNo),
	}
}

func fileUpload(name string, size int) filestorage.Upload {
	data := bytes.Repeat([]byte("x"), size)
	return filestorage.Upload{
		Filename:    name,
		ContentType: "application/octet-stream",
		Size:        int64(size),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func TestAlumniService_CreateUpdateScenario(t *testing.T) {
	ctx := context.Background()
	repo := newMemAlumniRepo()
	svc := newTestAlumniService(repo, &memStorage{}, AlumniOptions{})

	created, err := svc.CreateAlumni(ctx, janeRequest("REG-001"), nil, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, created.QualifiedExams.CertificateURL)
	assert.Nil(t, created.CreatedBy)

	_, err = svc.CreateAlumni(ctx, janeRequest("REG-001"), nil, 0)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)

	update := &dto.AlumniRequest{
		Employment: dto.NestedFromValue(map[string]string{"type": "Employed", "employerName": "Acme"}),
	}
	updated, err := svc.UpdateAlumni(ctx, created.ID, update, nil)
	require.NoError(t, err)

	assert.Equal(t, "Employed", updated.Employment.Type)
	assert.Equal(t, "Acme", updated.Employment.EmployerName)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Program, updated.Program)
	assert.Equal(t, created.PassingYear, updated.PassingYear)
	assert.Equal(t, created.RegistrationNumber, updated.RegistrationNumber)
	assert.Equal(t, created.ContactDetails, updated.ContactDetails)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	stored, err := svc.GetAlumni(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestAlumniService_CreateRecordsActorAndTrims(t *testing.T) {
	svc := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{})
	req := janeRequest("  REG-002  ")
	req.Name = sp("  Jane Doe ")

	a, err := svc.CreateAlumni(context.Background(), req, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, "REG-002", a.RegistrationNumber)
	assert.Equal(t, "Jane Doe", a.Name)
	require.NotNil(t, a.CreatedBy)
	assert.Equal(t, int64(7), *a.CreatedBy)
}

func TestAlumniService_ConcurrentCreatesSameRegistrationNumber(t *testing.T) {
	repo := newMemAlumniRepo()
	free := false
	// every pre-check passes, so only the store's uniqueness decides
	repo.existsOverride = &free
	svc := newTestAlumniService(repo, &memStorage{}, AlumniOptions{})

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateAlumni(context.Background(), janeRequest("REG-RACE"), nil, 0)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperrors.ErrDuplicateKey):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, dupes)
	assert.Len(t, repo.records, 1)
}

func TestAlumniService_PartialUpdateKeepsUntouchedLeaves(t *testing.T) {
	ctx := context.Background()
	svc := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{})

	req := janeRequest("REG-010")
	req.Employment = dto.NestedFromValue(map[string]string{"type": "Employed", "employerName": "Acme"})
	req.ContactDetails = dto.NestedFromValue(map[string]string{"email": "jane@example.com", "phone": "555"})
	a, err := svc.CreateAlumni(ctx, req, nil, 0)
	require.NoError(t, err)

	updated, err := svc.UpdateAlumni(ctx, a.ID, &dto.AlumniRequest{
		Employment:     dto.NestedFromValue(map[string]string{"type": "Unemployed"}),
		ContactDetails: dto.NestedFromString(`{"phone": ""}`),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Unemployed", updated.Employment.Type)
	assert.Equal(t, "Acme", updated.Employment.EmployerName)
	assert.Equal(t, "jane@example.com", updated.ContactDetails.Email)
	assert.Empty(t, updated.ContactDetails.Phone)
}

func TestAlumniService_UploadedFileWinsOverPayloadURL(t *testing.T) {
	ctx := context.Background()
	storage := &memStorage{}
	svc := newTestAlumniService(newMemAlumniRepo(), storage, AlumniOptions{})

	a, err := svc.CreateAlumni(ctx, janeRequest("REG-020"), nil, 0)
	require.NoError(t, err)

	update := &dto.AlumniRequest{
		QualifiedExams: dto.NestedFromValue(map[string]string{
			"examName":       "GATE",
			"certificateUrl": "https://elsewhere/fake.png",
		}),
	}
	files := map[models.AttachmentField]filestorage.Upload{
		models.AttachmentQualificationImage: fileUpload("gate.png", 10),
	}
	updated, err := svc.UpdateAlumni(ctx, a.ID, update, files)
	require.NoError(t, err)

	require.Len(t, storage.saved, 1)
	assert.Equal(t, storage.saved[0], updated.QualifiedExams.CertificateURL)
	assert.Contains(t, updated.QualifiedExams.CertificateURL, "/alumni/")
	assert.Equal(t, "GATE", updated.QualifiedExams.ExamName)
}

func TestAlumniService_DocumentURLPrecedence(t *testing.T) {
	ctx := context.Background()
	svc := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{})

	req := janeRequest("REG-021")
	req.HigherEducation = dto.NestedFromValue(map[string]string{"documentUrl": "https://docs/admit.pdf"})
	a, err := svc.CreateAlumni(ctx, req, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "https://docs/admit.pdf", a.HigherEducation.DocumentURL)
	assert.Empty(t, a.Employment.DocumentURL)

	// no upload and no payload value keeps the stored URL
	updated, err := svc.UpdateAlumni(ctx, a.ID, &dto.AlumniRequest{
		HigherEducation: dto.NestedFromValue(map[string]string{"institutionName": "MIT"}),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://docs/admit.pdf", updated.HigherEducation.DocumentURL)
	assert.Equal(t, "MIT", updated.HigherEducation.InstitutionName)
}

func TestAlumniService_CreateWithAllAttachments(t *testing.T) {
	storage := &memStorage{}
	svc := newTestAlumniService(newMemAlumniRepo(), storage, AlumniOptions{UploadFolder: "records"})

	files := map[models.AttachmentField]filestorage.Upload{
		models.AttachmentQualificationImage:      fileUpload("cert.png", 5),
		models.AttachmentEmploymentDocument:      fileUpload("offer.pdf", 5),
		models.AttachmentHigherEducationDocument: fileUpload("admit.pdf", 5),
	}
	a, err := svc.CreateAlumni(context.Background(), janeRequest("REG-030"), files, 0)
	require.NoError(t, err)

	assert.Len(t, storage.saved, 3)
	assert.Contains(t, a.QualifiedExams.CertificateURL, "/records/")
	assert.Contains(t, a.QualifiedExams.CertificateURL, "cert.png")
	assert.Contains(t, a.Employment.DocumentURL, "offer.pdf")
	assert.Contains(t, a.HigherEducation.DocumentURL, "admit.pdf")
}

func TestAlumniService_UploadFailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	repo := newMemAlumniRepo()
	storage := &memStorage{fail: map[string]error{"offer.pdf": errors.New("bucket unavailable")}}
	svc := newTestAlumniService(repo, storage, AlumniOptions{})

	files := map[models.AttachmentField]filestorage.Upload{
		models.AttachmentEmploymentDocument: fileUpload("offer.pdf", 5),
	}
	_, err := svc.CreateAlumni(ctx, janeRequest("REG-040"), files, 0)
	require.ErrorIs(t, err, apperrors.ErrUploadFailure)
	assert.Empty(t, repo.records)

	// the registration number is still free after the failed create
	_, err = svc.CreateAlumni(ctx, janeRequest("REG-040"), nil, 0)
	assert.NoError(t, err)
}

func TestAlumniService_UploadsWithoutStorage(t *testing.T) {
	svc := newTestAlumniService(newMemAlumniRepo(), nil, AlumniOptions{})
	files := map[models.AttachmentField]filestorage.Upload{
		models.AttachmentQualificationImage: fileUpload("cert.png", 5),
	}
	_, err := svc.CreateAlumni(context.Background(), janeRequest("REG-041"), files, 0)
	assert.ErrorIs(t, err, apperrors.ErrUploadFailure)
}

func TestAlumniService_RejectsBadFiles(t *testing.T) {
	svc := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{MaxUploadBytes: 8})

	tests := []struct {
		name  string
		files map[models.AttachmentField]filestorage.Upload
		field string
	}{
		{
			name:  "unknown slot",
			files: map[models.AttachmentField]filestorage.Upload{"resume": fileUpload("cv.pdf", 1)},
			field: "resume",
		},
		{
			name:  "too large",
			files: map[models.AttachmentField]filestorage.Upload{models.AttachmentEmploymentDocument: fileUpload("big.pdf", 9)},
			field: "employmentDocument",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAlumni(context.Background(), janeRequest("REG-050"), tt.files, 0)
			require.ErrorIs(t, err, apperrors.ErrValidationFailed)
			assert.Equal(t, tt.field, apperrors.FieldOf(err))
		})
	}
}

func TestAlumniService_RequiredFields(t *testing.T) {
	svc := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{})

	tests := []struct {
		name    string
		mutate  func(r *dto.AlumniRequest)
		field   string
		message string
	}{
		{"missing name", func(r *dto.AlumniRequest) { r.Name = nil }, "name", "name is required"},
		{"missing program", func(r *dto.AlumniRequest) { r.Program = nil }, "program", "program is required"},
		{"missing passing year", func(r *dto.AlumniRequest) { r.PassingYear = nil }, "passingYear", "passingYear is required"},
		{"missing registration number", func(r *dto.AlumniRequest) { r.RegistrationNumber = nil }, "registrationNumber", "registrationNumber is required"},
		{"blank name", func(r *dto.AlumniRequest) { r.Name = sp("   ") }, "name", "name cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := janeRequest("REG-060")
			tt.mutate(req)
			_, err := svc.CreateAlumni(context.Background(), req, nil, 0)
			require.ErrorIs(t, err, apperrors.ErrValidationFailed)
			assert.Equal(t, tt.field, apperrors.FieldOf(err))
			assert.Equal(t, tt.message, apperrors.UserMessage(err, ""))
		})
	}

	_, err := svc.CreateAlumni(context.Background(), nil, nil, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAlumniService_UpdateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{})
	a, err := svc.CreateAlumni(ctx, janeRequest("REG-070"), nil, 0)
	require.NoError(t, err)
	b, err := svc.CreateAlumni(ctx, janeRequest("REG-071"), nil, 0)
	require.NoError(t, err)

	_, err = svc.UpdateAlumni(ctx, a.ID, &dto.AlumniRequest{Program: sp("")}, nil)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, "program", apperrors.FieldOf(err))

	_, err = svc.UpdateAlumni(ctx, a.ID, &dto.AlumniRequest{RegistrationNumber: sp(b.RegistrationNumber)}, nil)
	assert.ErrorIs(t, err, apperrors.ErrRegistrationNumberDuplicated)

	// keeping its own number is not a conflict
	_, err = svc.UpdateAlumni(ctx, a.ID, &dto.AlumniRequest{RegistrationNumber: sp(a.RegistrationNumber)}, nil)
	assert.NoError(t, err)

	_, err = svc.UpdateAlumni(ctx, "missing-id", &dto.AlumniRequest{Name: sp("X")}, nil)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestAlumniService_FieldLengthLimits(t *testing.T) {
	ctx := context.Background()
	svc := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{})

	tests := []struct {
		field  string
		limit  int
		assign func(r *dto.AlumniRequest, v string)
	}{
		{"name", MaxAlumniNameLength, func(r *dto.AlumniRequest, v string) { r.Name = &v }},
		{"academicUnit", MaxAcademicUnitLength, func(r *dto.AlumniRequest, v string) { r.AcademicUnit = &v }},
		{"program", MaxProgramLength, func(r *dto.AlumniRequest, v string) { r.Program = &v }},
		{"passingYear", MaxPassingYearLength, func(r *dto.AlumniRequest, v string) { r.PassingYear = &v }},
		{"registrationNumber", MaxRegistrationNumberLength, func(r *dto.AlumniRequest, v string) { r.RegistrationNumber = &v }},
	}
	for i, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			req := janeRequest(fmt.Sprintf("REG-LEN-%d", i))
			tt.assign(req, strings.Repeat("x", tt.limit+1))
			_, err := svc.CreateAlumni(ctx, req, nil, 0)
			require.ErrorIs(t, err, apperrors.ErrValidationFailed)
			assert.Equal(t, tt.field, apperrors.FieldOf(err))

			// multi-byte characters count once
			req = janeRequest(fmt.Sprintf("REG-LEN-%d", i))
			tt.assign(req, strings.Repeat("é", tt.limit))
			created, err := svc.CreateAlumni(ctx, req, nil, 0)
			require.NoError(t, err)

			_, err = svc.UpdateAlumni(ctx, created.ID, func() *dto.AlumniRequest {
				r := &dto.AlumniRequest{}
				tt.assign(r, strings.Repeat("y", tt.limit+1))
				return r
			}(), nil)
			require.ErrorIs(t, err, apperrors.ErrValidationFailed)
			assert.Equal(t, tt.field, apperrors.FieldOf(err))
		})
	}
}

func TestAlumniService_StrictValidation(t *testing.T) {
	repo := newMemAlumniRepo()
	units := fakeUnits{names: map[string]bool{"School of Engineering": true}}
	svc := NewAlumniService(repo, &memStorage{}, units, AlumniOptions{StrictValidation: true}, zerolog.Nop())
	ctx := context.Background()

	req := janeRequest("REG-080")
	req.PassingYear = sp("2019")
	_, err := svc.CreateAlumni(ctx, req, nil, 0)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, "passingYear", apperrors.FieldOf(err))

	req = janeRequest("REG-080")
	req.AcademicUnit = sp("School of Magic")
	_, err = svc.CreateAlumni(ctx, req, nil, 0)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, "academicUnit", apperrors.FieldOf(err))

	req = janeRequest("REG-080")
	req.AcademicUnit = sp("School of Engineering")
	_, err = svc.CreateAlumni(ctx, req, nil, 0)
	assert.NoError(t, err)

	broken := NewAlumniService(repo, &memStorage{}, fakeUnits{err: errors.New("db down")}, AlumniOptions{StrictValidation: true}, zerolog.Nop())
	req = janeRequest("REG-081")
	req.AcademicUnit = sp("School of Engineering")
	_, err = broken.CreateAlumni(ctx, req, nil, 0)
	assert.ErrorIs(t, err, apperrors.ErrStorageFailure)
}

func TestAlumniService_LenientPassingYearByDefault(t *testing.T) {
	svc := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{})
	req := janeRequest("REG-085")
	req.PassingYear = sp("2020")

	a, err := svc.CreateAlumni(context.Background(), req, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "2020", a.PassingYear)
}

func TestAlumniService_MalformedNestedSection(t *testing.T) {
	ctx := context.Background()

	lenient := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{})
	req := janeRequest("REG-090")
	req.ContactDetails = dto.NestedFromString(`{"email": `)
	req.Employment = dto.NestedFromString(`{"type": "Employed"}`)
	a, err := lenient.CreateAlumni(ctx, req, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, models.ContactDetails{}, a.ContactDetails)
	assert.Equal(t, "Employed", a.Employment.Type)

	strict := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{StrictNestedJSON: true})
	req = janeRequest("REG-091")
	req.ContactDetails = dto.NestedFromString(`[1, 2]`)
	_, err = strict.CreateAlumni(ctx, req, nil, 0)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, "contactDetails", apperrors.FieldOf(err))
}

func TestAlumniService_DoubleDeleteReportsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{})
	a, err := svc.CreateAlumni(ctx, janeRequest("REG-100"), nil, 0)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAlumni(ctx, a.ID))
	assert.ErrorIs(t, svc.DeleteAlumni(ctx, a.ID), apperrors.ErrResourceNotFound)

	_, err = svc.GetAlumni(ctx, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestAlumniService_ListPagination(t *testing.T) {
	ctx := context.Background()
	repo := newMemAlumniRepo()
	svc := newTestAlumniService(repo, &memStorage{}, AlumniOptions{})

	const n = 23
	for i := 0; i < n; i++ {
		_, err := svc.CreateAlumni(ctx, janeRequest(fmt.Sprintf("REG-%03d", i)), nil, 0)
		require.NoError(t, err)
	}

	tests := []struct {
		page, size int
		wantItems  int
		wantPages  int
	}{
		{1, 10, 10, 3},
		{2, 10, 10, 3},
		{3, 10, 3, 3},
		{4, 10, 0, 3},
		{1, 5, 5, 5},
		{5, 5, 3, 5},
		{1, 100, 23, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d,size=%d", tt.page, tt.size), func(t *testing.T) {
			items, info, err := svc.ListAlumni(ctx, models.AlumniFilter{}, tt.page, tt.size)
			require.NoError(t, err)
			assert.Len(t, items, tt.wantItems)
			assert.Equal(t, tt.wantPages, info.TotalPages)
			assert.Equal(t, int64(n), info.TotalItems)
			assert.Equal(t, tt.page, info.CurrentPage)
		})
	}

	items, _, err := svc.ListAlumni(ctx, models.AlumniFilter{}, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "REG-022", items[0].RegistrationNumber, "newest first")
}

func TestAlumniService_ListFilterAndSearch(t *testing.T) {
	ctx := context.Background()
	svc := newTestAlumniService(newMemAlumniRepo(), &memStorage{}, AlumniOptions{})

	seed := []struct {
		name, unit, program, year, reg string
	}{
		{"Jane Doe", "School of Engineering", "B.Tech CS", "2019-20", "ENG-1"},
		{"John Roe", "School of Engineering", "B.Tech ECE", "2020-21", "ENG-2"},
		{"Asha Rao", "School of Sciences", "B.Sc Physics", "2019-20", "SCI-1"},
	}
	for _, s := range seed {
		_, err := svc.CreateAlumni(ctx, &dto.AlumniRequest{
			Name: sp(s.name), AcademicUnit: sp(s.unit), Program: sp(s.program),
			PassingYear: sp(s.year), RegistrationNumber: sp(s.reg),
		}, nil, 0)
		require.NoError(t, err)
	}

	items, info, err := svc.ListAlumni(ctx, models.AlumniFilter{AcademicUnit: "School of Engineering", PassingYear: "2019-20"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ENG-1", items[0].RegistrationNumber)
	assert.Equal(t, int64(1), info.TotalItems)

	items, _, err = svc.ListAlumni(ctx, models.AlumniFilter{Program: "b.tech"}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, _, err = svc.SearchAlumni(ctx, "  rao ", models.AlumniFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SCI-1", items[0].RegistrationNumber)

	items, _, err = svc.SearchAlumni(ctx, "eng-", models.AlumniFilter{PassingYear: "2020-21"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "John Roe", items[0].Name)
}

func TestAlumniService_ListStorageFailure(t *testing.T) {
	repo := newMemAlumniRepo()
	repo.failList = errors.New("connection reset")
	svc := newTestAlumniService(repo, &memStorage{}, AlumniOptions{})

	_, _, err := svc.ListAlumni(context.Background(), models.AlumniFilter{}, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrStorageFailure)
}
