package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/dberrors"
	"github.com/yigit/alumnisphere/internal/pkg/logger"
)

var academicUnitColumns = []string{"id", "name", "code", "description", "programs", "created_at", "updated_at"}

// IAcademicUnitRepository defines academic unit persistence
type IAcademicUnitRepository interface {
	Create(ctx context.Context, unit *models.AcademicUnit) error
	GetByID(ctx context.Context, id int64) (*models.AcademicUnit, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	GetAll(ctx context.Context) ([]*models.AcademicUnit, error)
	Update(ctx context.Context, unit *models.AcademicUnit) error
	Delete(ctx context.Context, id int64) error
}

// AcademicUnitRepository handles academic unit database operations
type AcademicUnitRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAcademicUnitRepository creates a new AcademicUnitRepository
func NewAcademicUnitRepository(db *pgxpool.Pool) *AcademicUnitRepository {
	return &AcademicUnitRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanAcademicUnit(row pgx.Row) (*models.AcademicUnit, error) {
	u := &models.AcademicUnit{}
	err := row.Scan(&u.ID, &u.Name, &u.Code, &u.Description, &u.Programs, &u.CreatedAt, &u.UpdatedAt)
	if u.Programs == nil {
		u.Programs = []string{}
	}
	return u, err
}

// Create creates a new academic unit
func (r *AcademicUnitRepository) Create(ctx context.Context, unit *models.AcademicUnit) error {
	if unit.Programs == nil {
		unit.Programs = []string{}
	}
	now := time.Now()
	sql, args, err := r.sb.Insert("academic_units").
		Columns("name", "code", "description", "programs", "created_at", "updated_at").
		Values(unit.Name, unit.Code, unit.Description, unit.Programs, now, now).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create academic unit SQL")
		return fmt.Errorf("failed to build create academic unit query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&unit.ID, &unit.CreatedAt, &unit.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return apperrors.ErrAcademicUnitAlreadyExists
		}
		logger.Error().Err(err).Msg("Error executing create academic unit query")
		return fmt.Errorf("error creating academic unit: %w", err)
	}

	return nil
}

// GetByID retrieves an academic unit by ID
func (r *AcademicUnitRepository) GetByID(ctx context.Context, id int64) (*models.AcademicUnit, error) {
	sql, args, err := r.sb.Select(academicUnitColumns...).
		From("academic_units").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get academic unit query: %w", err)
	}

	unit, err := scanAcademicUnit(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAcademicUnitNotFound
		}
		logger.Error().Err(err).Int64("academicUnitID", id).Msg("Error scanning academic unit row")
		return nil, fmt.Errorf("error getting academic unit by ID: %w", err)
	}

	return unit, nil
}

// ExistsByName reports whether a unit with this exact name exists
func (r *AcademicUnitRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("academic_units").
		Where(squirrel.Eq{"name": name}).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build academic unit existence query: %w", err)
	}

	var exists bool
	if err = r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking academic unit existence: %w", err)
	}
	return exists, nil
}

// GetAll retrieves all academic units ordered by name
func (r *AcademicUnitRepository) GetAll(ctx context.Context) ([]*models.AcademicUnit, error) {
	sql, args, err := r.sb.Select(academicUnitColumns...).
		From("academic_units").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get all academic units query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing get all academic units query")
		return nil, fmt.Errorf("error querying academic units: %w", err)
	}
	defer rows.Close()

	units := []*models.AcademicUnit{}
	for rows.Next() {
		unit, err := scanAcademicUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning academic unit row: %w", err)
		}
		units = append(units, unit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating academic unit rows: %w", err)
	}

	return units, nil
}

// Update replaces the mutable fields of an academic unit
func (r *AcademicUnitRepository) Update(ctx context.Context, unit *models.AcademicUnit) error {
	if unit.Programs == nil {
		unit.Programs = []string{}
	}
	unit.UpdatedAt = time.Now()
	sql, args, err := r.sb.Update("academic_units").
		SetMap(map[string]interface{}{
			"name":        unit.Name,
			"code":        unit.Code,
			"description": unit.Description,
			"programs":    unit.Programs,
			"updated_at":  unit.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": unit.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update academic unit query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return apperrors.ErrAcademicUnitAlreadyExists
		}
		logger.Error().Err(err).Int64("academicUnitID", unit.ID).Msg("Error executing update academic unit query")
		return fmt.Errorf("error updating academic unit: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAcademicUnitNotFound
	}

	return nil
}

// Delete deletes an academic unit by ID. Alumni keep the unit name they were saved with.
func (r *AcademicUnitRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("academic_units").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete academic unit query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("academicUnitID", id).Msg("Error executing delete academic unit query")
		return fmt.Errorf("error deleting academic unit: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAcademicUnitNotFound
	}

	return nil
}
