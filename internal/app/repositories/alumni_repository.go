package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/dberrors"
	"github.com/yigit/alumnisphere/internal/pkg/logger"
)

// AlumniRegistrationNumberConstraint is the unique constraint on alumni.registration_number
const AlumniRegistrationNumberConstraint = "alumni_registration_number_key"

// AlumniRepository persists alumni records.
//
// Create and Update must report a registration number collision detected by
// the store itself as apperrors.ErrRegistrationNumberDuplicated. Update replaces
// the whole record; callers merge beforehand.
type AlumniRepository interface {
	Create(ctx context.Context, alumni *models.Alumni) error
	GetByID(ctx context.Context, id string) (*models.Alumni, error)
	ExistsByRegistrationNumber(ctx context.Context, registrationNumber string) (bool, error)
	Update(ctx context.Context, alumni *models.Alumni) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.AlumniFilter, offset uint64, limit int) ([]*models.Alumni, int64, error)
}

var alumniColumns = []string{
	"id", "name", "academic_unit", "program", "passing_year", "registration_number",
	"contact_details", "qualified_exams", "employment", "higher_education",
	"created_by", "created_at", "updated_at",
}

// PostgresAlumniRepository stores alumni in Postgres with nested sections as JSONB
type PostgresAlumniRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPostgresAlumniRepository creates a new PostgresAlumniRepository
func NewPostgresAlumniRepository(db *pgxpool.Pool) *PostgresAlumniRepository {
	return &PostgresAlumniRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type alumniSections struct {
	contact, exams, employment, higher json.RawMessage
}

func encodeSections(a *models.Alumni) (alumniSections, error) {
	var s alumniSections
	var err error
	if s.contact, err = json.Marshal(a.ContactDetails); err != nil {
		return s, err
	}
	if s.exams, err = json.Marshal(a.QualifiedExams); err != nil {
		return s, err
	}
	if s.employment, err = json.Marshal(a.Employment); err != nil {
		return s, err
	}
	if s.higher, err = json.Marshal(a.HigherEducation); err != nil {
		return s, err
	}
	return s, nil
}

func scanAlumni(row pgx.Row) (*models.Alumni, error) {
	a := &models.Alumni{}
	var id uuid.UUID
	err := row.Scan(
		&id, &a.Name, &a.AcademicUnit, &a.Program, &a.PassingYear, &a.RegistrationNumber,
		&a.ContactDetails, &a.QualifiedExams, &a.Employment, &a.HigherEducation,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ID = id.String()
	return a, nil
}

// Create inserts a new record, assigning an id when none is set
func (r *PostgresAlumniRepository) Create(ctx context.Context, alumni *models.Alumni) error {
	if alumni.ID == "" {
		alumni.ID = uuid.New().String()
	}

	sections, err := encodeSections(alumni)
	if err != nil {
		return fmt.Errorf("%w: encoding alumni sections: %w", apperrors.ErrStorageFailure, err)
	}

	sql, args, err := r.sb.Insert("alumni").
		Columns(alumniColumns...).
		Values(
			alumni.ID, alumni.Name, alumni.AcademicUnit, alumni.Program, alumni.PassingYear, alumni.RegistrationNumber,
			sections.contact, sections.exams, sections.employment, sections.higher,
			alumni.CreatedBy, alumni.CreatedAt, alumni.UpdatedAt,
		).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create alumni SQL")
		return fmt.Errorf("%w: failed to build create alumni query: %w", apperrors.ErrStorageFailure, err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, AlumniRegistrationNumberConstraint) {
			return apperrors.ErrRegistrationNumberDuplicated
		}
		logger.Error().Err(err).Str("registrationNumber", alumni.RegistrationNumber).Msg("Error executing create alumni query")
		return fmt.Errorf("%w: error creating alumni: %w", apperrors.ErrStorageFailure, err)
	}

	return nil
}

// GetByID retrieves a record by id; malformed ids are reported as not found
func (r *PostgresAlumniRepository) GetByID(ctx context.Context, id string) (*models.Alumni, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.ErrAlumniNotFound
	}

	sql, args, err := r.sb.Select(alumniColumns...).
		From("alumni").
		Where(squirrel.Eq{"id": uid}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build get alumni query: %w", apperrors.ErrStorageFailure, err)
	}

	alumni, err := scanAlumni(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAlumniNotFound
		}
		logger.Error().Err(err).Str("alumniID", id).Msg("Error scanning alumni row")
		return nil, fmt.Errorf("%w: error getting alumni by ID: %w", apperrors.ErrStorageFailure, err)
	}

	return alumni, nil
}

// ExistsByRegistrationNumber reports whether any record uses registrationNumber
func (r *PostgresAlumniRepository) ExistsByRegistrationNumber(ctx context.Context, registrationNumber string) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("alumni").
		Where(squirrel.Eq{"registration_number": registrationNumber}).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: failed to build alumni existence query: %w", apperrors.ErrStorageFailure, err)
	}

	var exists bool
	if err = r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Str("registrationNumber", registrationNumber).Msg("Error checking alumni existence")
		return false, fmt.Errorf("%w: error checking alumni existence: %w", apperrors.ErrStorageFailure, err)
	}

	return exists, nil
}

// Update replaces every mutable column of the record; created_by and created_at are left alone
func (r *PostgresAlumniRepository) Update(ctx context.Context, alumni *models.Alumni) error {
	uid, err := uuid.Parse(alumni.ID)
	if err != nil {
		return apperrors.ErrAlumniNotFound
	}

	sections, err := encodeSections(alumni)
	if err != nil {
		return fmt.Errorf("%w: encoding alumni sections: %w", apperrors.ErrStorageFailure, err)
	}

	sql, args, err := r.sb.Update("alumni").
		SetMap(map[string]interface{}{
			"name":                alumni.Name,
			"academic_unit":       alumni.AcademicUnit,
			"program":             alumni.Program,
			"passing_year":        alumni.PassingYear,
			"registration_number": alumni.RegistrationNumber,
			"contact_details":     sections.contact,
			"qualified_exams":     sections.exams,
			"employment":          sections.employment,
			"higher_education":    sections.higher,
			"updated_at":          alumni.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": uid}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: failed to build update alumni query: %w", apperrors.ErrStorageFailure, err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, AlumniRegistrationNumberConstraint) {
			return apperrors.ErrRegistrationNumberDuplicated
		}
		logger.Error().Err(err).Str("alumniID", alumni.ID).Msg("Error executing update alumni query")
		return fmt.Errorf("%w: error updating alumni: %w", apperrors.ErrStorageFailure, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAlumniNotFound
	}

	return nil
}

// Delete removes a record by id
func (r *PostgresAlumniRepository) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return apperrors.ErrAlumniNotFound
	}

	sql, args, err := r.sb.Delete("alumni").
		Where(squirrel.Eq{"id": uid}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: failed to build delete alumni query: %w", apperrors.ErrStorageFailure, err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("alumniID", id).Msg("Error executing delete alumni query")
		return fmt.Errorf("%w: error deleting alumni: %w", apperrors.ErrStorageFailure, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAlumniNotFound
	}

	return nil
}

// alumniWhere translates a filter into a squirrel condition
func alumniWhere(filter models.AlumniFilter) squirrel.And {
	where := squirrel.And{}
	if v := strings.TrimSpace(filter.AcademicUnit); v != "" {
		where = append(where, squirrel.Eq{"academic_unit": v})
	}
	if v := strings.TrimSpace(filter.PassingYear); v != "" {
		where = append(where, squirrel.Eq{"passing_year": v})
	}
	if v := strings.TrimSpace(filter.Program); v != "" {
		where = append(where, squirrel.ILike{"program": containsPattern(v)})
	}
	if v := strings.TrimSpace(filter.Query); v != "" {
		pattern := containsPattern(v)
		where = append(where, squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"registration_number": pattern},
			squirrel.ILike{"program": pattern},
		})
	}
	return where
}

// List returns one page of matching records, newest first, and the total match count.
// The count and the page are read separately and may disagree under concurrent writes.
func (r *PostgresAlumniRepository) List(ctx context.Context, filter models.AlumniFilter, offset uint64, limit int) ([]*models.Alumni, int64, error) {
	where := alumniWhere(filter)

	countSql, countArgs, err := r.sb.Select("COUNT(*)").From("alumni").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to build count alumni query: %w", apperrors.ErrStorageFailure, err)
	}

	var total int64
	if err = r.db.QueryRow(ctx, countSql, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count alumni query")
		return nil, 0, fmt.Errorf("%w: failed to count alumni: %w", apperrors.ErrStorageFailure, err)
	}

	if total == 0 || offset >= uint64(total) {
		return []*models.Alumni{}, total, nil
	}

	querySql, queryArgs, err := r.sb.Select(alumniColumns...).
		From("alumni").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to build list alumni query: %w", apperrors.ErrStorageFailure, err)
	}

	rows, err := r.db.Query(ctx, querySql, queryArgs...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list alumni query")
		return nil, 0, fmt.Errorf("%w: failed to query alumni: %w", apperrors.ErrStorageFailure, err)
	}
	defer rows.Close()

	result := make([]*models.Alumni, 0, limit)
	for rows.Next() {
		alumni, err := scanAlumni(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning alumni row")
			return nil, 0, fmt.Errorf("%w: failed to scan alumni row: %w", apperrors.ErrStorageFailure, err)
		}
		result = append(result, alumni)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: error iterating alumni rows: %w", apperrors.ErrStorageFailure, err)
	}

	return result, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
