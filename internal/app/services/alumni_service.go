package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/app/repositories"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/filestorage"
	"github.com/yigit/alumnisphere/internal/pkg/helpers"
	"github.com/yigit/alumnisphere/internal/pkg/validation"
	"golang.org/x/sync/errgroup"
)

// Column widths of the alumni table
const (
	MaxAlumniNameLength         = 255
	MaxAcademicUnitLength       = 255
	MaxProgramLength            = 255
	MaxPassingYearLength        = 20
	MaxRegistrationNumberLength = 100
)

// AlumniService defines the alumni record operations
type AlumniService interface {
	CreateAlumni(ctx context.Context, req *dto.AlumniRequest, files map[models.AttachmentField]filestorage.Upload, actorID int64) (*models.Alumni, error)
	UpdateAlumni(ctx context.Context, id string, req *dto.AlumniRequest, files map[models.AttachmentField]filestorage.Upload) (*models.Alumni, error)
	DeleteAlumni(ctx context.Context, id string) error
	GetAlumni(ctx context.Context, id string) (*models.Alumni, error)
	ListAlumni(ctx context.Context, filter models.AlumniFilter, page, size int) ([]*models.Alumni, dto.PaginationInfo, error)
	SearchAlumni(ctx context.Context, query string, filter models.AlumniFilter, page, size int) ([]*models.Alumni, dto.PaginationInfo, error)
}

// AcademicUnitLookup answers whether an academic unit name is known
type AcademicUnitLookup interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// AlumniOptions tunes input handling of the alumni service
type AlumniOptions struct {
	// StrictValidation enforces the YYYY-YY passing year and a known academic unit
	StrictValidation bool
	// StrictNestedJSON rejects malformed nested sections instead of ignoring them
	StrictNestedJSON bool
	// MaxUploadBytes limits each attachment; zero disables the check
	MaxUploadBytes int64
	UploadFolder   string
	// Now defaults to time.Now
	Now func() time.Time
}

type alumniServiceImpl struct {
	repo    repositories.AlumniRepository
	storage filestorage.FileStorage
	units   AcademicUnitLookup
	opts    AlumniOptions
	logger  zerolog.Logger
}

// NewAlumniService creates a new AlumniService
func NewAlumniService(
	repo repositories.AlumniRepository,
	storage filestorage.FileStorage,
	units AcademicUnitLookup,
	opts AlumniOptions,
	logger zerolog.Logger,
) AlumniService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.UploadFolder == "" {
		opts.UploadFolder = "alumni"
	}
	return &alumniServiceImpl{
		repo:    repo,
		storage: storage,
		units:   units,
		opts:    opts,
		logger:  logger,
	}
}

// CreateAlumni validates the payload, uploads attachments and stores a new record
func (s *alumniServiceImpl) CreateAlumni(ctx context.Context, req *dto.AlumniRequest, files map[models.AttachmentField]filestorage.Upload, actorID int64) (*models.Alumni, error) {
	patch, err := s.normalize(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if err := s.checkFiles(files); err != nil {
		return nil, err
	}

	if err := s.ensureRegistrationNumberFree(ctx, *patch.RegistrationNumber); err != nil {
		return nil, err
	}

	urls, err := s.uploadAttachments(ctx, files)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	alumni := &models.Alumni{CreatedAt: now, UpdatedAt: now}
	alumni.Apply(patch)
	for field, url := range urls {
		alumni.SetAttachmentURL(field, url)
	}
	if actorID > 0 {
		createdBy := actorID
		alumni.CreatedBy = &createdBy
	}

	if err := s.repo.Create(ctx, alumni); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			s.logger.Info().Str("registrationNumber", alumni.RegistrationNumber).Msg("Registration number taken by a concurrent create")
			return nil, err
		}
		s.logger.Error().Err(err).Str("registrationNumber", alumni.RegistrationNumber).Msg("Failed to store alumni record")
		return nil, storageError(err)
	}

	s.logger.Info().
		Str("alumniID", alumni.ID).
		Str("registrationNumber", alumni.RegistrationNumber).
		Int("attachments", len(urls)).
		Msg("Alumni record created")
	return alumni, nil
}

// UpdateAlumni merges the payload into the stored record leaf by leaf
func (s *alumniServiceImpl) UpdateAlumni(ctx context.Context, id string, req *dto.AlumniRequest, files map[models.AttachmentField]filestorage.Upload) (*models.Alumni, error) {
	patch, err := s.normalize(ctx, req, false)
	if err != nil {
		return nil, err
	}
	if err := s.checkFiles(files); err != nil {
		return nil, err
	}

	alumni, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}

	if patch.RegistrationNumber != nil && *patch.RegistrationNumber != alumni.RegistrationNumber {
		if err := s.ensureRegistrationNumberFree(ctx, *patch.RegistrationNumber); err != nil {
			return nil, err
		}
	}

	urls, err := s.uploadAttachments(ctx, files)
	if err != nil {
		return nil, err
	}

	alumni.Apply(patch)
	for field, url := range urls {
		alumni.SetAttachmentURL(field, url)
	}
	alumni.UpdatedAt = s.opts.Now()

	if err := s.repo.Update(ctx, alumni); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) || errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("alumniID", id).Msg("Failed to update alumni record")
		return nil, storageError(err)
	}

	s.logger.Info().Str("alumniID", id).Int("attachments", len(urls)).Msg("Alumni record updated")
	return alumni, nil
}

// DeleteAlumni removes a record. Files it references are left in storage.
func (s *alumniServiceImpl) DeleteAlumni(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err)
	}
	s.logger.Info().Str("alumniID", id).Msg("Alumni record deleted")
	return nil
}

// GetAlumni returns a single record
func (s *alumniServiceImpl) GetAlumni(ctx context.Context, id string) (*models.Alumni, error) {
	alumni, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return alumni, nil
}

// ListAlumni returns a page of records matching filter, newest first
func (s *alumniServiceImpl) ListAlumni(ctx context.Context, filter models.AlumniFilter, page, size int) ([]*models.Alumni, dto.PaginationInfo, error) {
	page, size = helpers.NormalizePage(page, size)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	items, total, err := s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list alumni")
		return nil, dto.PaginationInfo{}, storageError(err)
	}
	return items, helpers.NewPaginationInfo(total, page, size), nil
}

// SearchAlumni matches query against name, registration number and program
func (s *alumniServiceImpl) SearchAlumni(ctx context.Context, query string, filter models.AlumniFilter, page, size int) ([]*models.Alumni, dto.PaginationInfo, error) {
	filter.Query = strings.TrimSpace(query)
	return s.ListAlumni(ctx, filter, page, size)
}

// normalize turns a request into a patch and applies the field rules. On
// create the required scalars must be present and non-blank; on update a
// present required scalar must not be blank.
func (s *alumniServiceImpl) normalize(ctx context.Context, req *dto.AlumniRequest, create bool) (models.AlumniPatch, error) {
	if req == nil {
		req = &dto.AlumniRequest{}
	}

	patch := models.AlumniPatch{
		Name:               trimmed(req.Name),
		AcademicUnit:       trimmed(req.AcademicUnit),
		Program:            trimmed(req.Program),
		PassingYear:        trimmed(req.PassingYear),
		RegistrationNumber: trimmed(req.RegistrationNumber),
	}

	scalars := []struct {
		field    string
		value    *string
		required bool
		maxLen   int
	}{
		{"name", patch.Name, true, MaxAlumniNameLength},
		{"academicUnit", patch.AcademicUnit, false, MaxAcademicUnitLength},
		{"program", patch.Program, true, MaxProgramLength},
		{"passingYear", patch.PassingYear, true, MaxPassingYearLength},
		{"registrationNumber", patch.RegistrationNumber, true, MaxRegistrationNumberLength},
	}
	for _, f := range scalars {
		switch {
		case f.value == nil && f.required && create:
			return patch, apperrors.NewValidationError(f.field, f.field+" is required")
		case f.value != nil && f.required && *f.value == "":
			return patch, apperrors.NewValidationError(f.field, f.field+" cannot be empty")
		case f.value != nil && !validation.MaxLength(*f.value, f.maxLen):
			return patch, apperrors.NewValidationError(f.field, fmt.Sprintf("%s must be at most %d characters", f.field, f.maxLen))
		}
	}

	if s.opts.StrictValidation {
		if err := s.validateStrict(ctx, patch); err != nil {
			return patch, err
		}
	}

	var err error
	if patch.ContactDetails, err = decodeSection[models.ContactDetailsPatch](s, "contactDetails", req.ContactDetails); err != nil {
		return patch, err
	}
	if patch.QualifiedExams, err = decodeSection[models.QualifiedExamsPatch](s, "qualifiedExams", req.QualifiedExams); err != nil {
		return patch, err
	}
	if patch.Employment, err = decodeSection[models.EmploymentPatch](s, "employment", req.Employment); err != nil {
		return patch, err
	}
	if patch.HigherEducation, err = decodeSection[models.HigherEducationPatch](s, "higherEducation", req.HigherEducation); err != nil {
		return patch, err
	}

	return patch, nil
}

func (s *alumniServiceImpl) validateStrict(ctx context.Context, patch models.AlumniPatch) error {
	if patch.PassingYear != nil && !validation.IsPassingYear(*patch.PassingYear) {
		return apperrors.NewValidationError("passingYear", "passingYear must look like 2019-20")
	}

	if patch.AcademicUnit != nil && *patch.AcademicUnit != "" && s.units != nil {
		exists, err := s.units.ExistsByName(ctx, *patch.AcademicUnit)
		if err != nil {
			s.logger.Error().Err(err).Str("academicUnit", *patch.AcademicUnit).Msg("Failed to look up academic unit")
			return storageError(err)
		}
		if !exists {
			return apperrors.NewValidationError("academicUnit", "unknown academic unit")
		}
	}
	return nil
}

// decodeSection parses one nested section. A malformed section is treated as
// absent unless StrictNestedJSON is set.
func decodeSection[T any](s *alumniServiceImpl, field string, raw dto.NestedField) (*T, error) {
	var section T
	ok, err := raw.Decode(&section)
	if err != nil {
		if s.opts.StrictNestedJSON {
			return nil, apperrors.NewValidationError(field, field+" must be a JSON object")
		}
		s.logger.Warn().Err(err).Str("field", field).Msg("Ignoring malformed nested alumni section")
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return &section, nil
}

func (s *alumniServiceImpl) checkFiles(files map[models.AttachmentField]filestorage.Upload) error {
	for field, upload := range files {
		if !field.IsValid() {
			return apperrors.NewValidationError(string(field), "unexpected file field "+string(field))
		}
		if s.opts.MaxUploadBytes > 0 && upload.Size > s.opts.MaxUploadBytes {
			return apperrors.NewValidationError(string(field), filestorage.ErrFileTooLarge.Error())
		}
	}
	return nil
}

// ensureRegistrationNumberFree gives a friendly error early. The unique
// constraint in the store still decides races.
func (s *alumniServiceImpl) ensureRegistrationNumberFree(ctx context.Context, registrationNumber string) error {
	exists, err := s.repo.ExistsByRegistrationNumber(ctx, registrationNumber)
	if err != nil {
		s.logger.Error().Err(err).Str("registrationNumber", registrationNumber).Msg("Failed to check registration number")
		return storageError(err)
	}
	if exists {
		return apperrors.ErrRegistrationNumberDuplicated
	}
	return nil
}

// uploadAttachments stores every file concurrently and returns the URL per slot
func (s *alumniServiceImpl) uploadAttachments(ctx context.Context, files map[models.AttachmentField]filestorage.Upload) (map[models.AttachmentField]string, error) {
	urls := make(map[models.AttachmentField]string, len(files))
	if len(files) == 0 {
		return urls, nil
	}
	if s.storage == nil {
		return nil, fmt.Errorf("%w: no file storage configured", apperrors.ErrUploadFailure)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for field, upload := range files {
		g.Go(func() error {
			url, err := s.storage.Save(gctx, upload, s.opts.UploadFolder)
			if err != nil {
				s.logger.Error().Err(err).Str("field", string(field)).Str("filename", upload.Filename).Msg("Attachment upload failed")
				return fmt.Errorf("%w: %s: %w", apperrors.ErrUploadFailure, field, err)
			}
			mu.Lock()
			urls[field] = url
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

// storageError passes through classified errors and tags anything else as a storage failure
func storageError(err error) error {
	if apperrors.Is(err, apperrors.ErrStorageFailure,
		apperrors.ErrResourceNotFound, apperrors.ErrDuplicateKey, apperrors.ErrValidationFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", apperrors.ErrStorageFailure, err)
}
