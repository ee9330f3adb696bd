package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/dberrors"
	"github.com/yigit/alumnisphere/internal/pkg/logger"
)

// UserEmailConstraint is the unique constraint on users.email
const UserEmailConstraint = "users_email_key"

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, userID int64, name, email string) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateRole(ctx context.Context, userID int64, role models.RoleType) error
	UpdateProfilePhotoURL(ctx context.Context, userID int64, url *string) error
	UpdateLastLogin(ctx context.Context, userID int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.UserFilter, offset uint64, limit int) ([]*models.User, int64, error)
}

var userColumns = []string{
	"id", "name", "email", "password", "role", "is_active",
	"profile_photo_url", "last_login_at", "created_at", "updated_at",
}

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.IsActive,
		&u.ProfilePhotoURL, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// Create inserts a user and sets its generated ID
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	sql, args, err := r.sb.Insert("users").
		Columns("name", "email", "password", "role", "is_active", "created_at", "updated_at").
		Values(user.Name, strings.ToLower(user.Email), user.Password, user.Role, user.IsActive, now, now).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, UserEmailConstraint) {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}

	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": strings.ToLower(email)})
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("users").
		Where(squirrel.Eq{"email": strings.ToLower(email)}).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build email exists query: %w", err)
	}

	var exists bool
	if err = r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) updateFields(ctx context.Context, userID int64, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	sql, args, err := r.sb.Update("users").SetMap(fields).Where(squirrel.Eq{"id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, UserEmailConstraint) {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateProfile updates a user's name and email
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, name, email string) error {
	return r.updateFields(ctx, userID, map[string]interface{}{
		"name":  name,
		"email": strings.ToLower(email),
	})
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.updateFields(ctx, userID, map[string]interface{}{"password": passwordHash})
}

// UpdateRole changes the role of a user
func (r *UserRepository) UpdateRole(ctx context.Context, userID int64, role models.RoleType) error {
	return r.updateFields(ctx, userID, map[string]interface{}{"role": role})
}

// UpdateProfilePhotoURL sets or clears the profile photo
func (r *UserRepository) UpdateProfilePhotoURL(ctx context.Context, userID int64, url *string) error {
	return r.updateFields(ctx, userID, map[string]interface{}{"profile_photo_url": url})
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update("users").
		Set("last_login_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update last login query: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to update last login time: %w", err)
	}
	return nil
}

// Delete removes a user; their alumni records keep a NULL creator
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete user query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", id).Msg("Error executing delete user query")
		return fmt.Errorf("error deleting user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// List returns a page of users ordered by id and the total match count
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter, offset uint64, limit int) ([]*models.User, int64, error) {
	where := squirrel.And{}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := containsPattern(s)
		where = append(where, squirrel.Or{squirrel.ILike{"name": pattern}, squirrel.ILike{"email": pattern}})
	}
	if filter.Role != "" {
		where = append(where, squirrel.Eq{"role": filter.Role})
	}

	countSql, countArgs, err := r.sb.Select("COUNT(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count users query: %w", err)
	}

	var total int64
	if err = r.db.QueryRow(ctx, countSql, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if total == 0 {
		return []*models.User{}, 0, nil
	}

	sql, args, err := r.sb.Select(userColumns...).
		From("users").
		Where(where).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, total, nil
}
