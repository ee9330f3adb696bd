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
	"github.com/yigit/alumnisphere/internal/pkg/logger"
)

var contactMessageColumns = []string{"id", "name", "email", "subject", "message", "is_read", "created_at"}

// IContactMessageRepository defines contact message persistence
type IContactMessageRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	GetByID(ctx context.Context, id int64) (*models.ContactMessage, error)
	List(ctx context.Context, filter models.ContactMessageFilter, offset uint64, limit int) ([]*models.ContactMessage, int64, error)
	MarkRead(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// ContactMessageRepository handles contact message database operations
type ContactMessageRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewContactMessageRepository creates a new ContactMessageRepository
func NewContactMessageRepository(db *pgxpool.Pool) *ContactMessageRepository {
	return &ContactMessageRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanContactMessage(row pgx.Row) (*models.ContactMessage, error) {
	m := &models.ContactMessage{}
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.IsRead, &m.CreatedAt)
	return m, err
}

// Create stores a new message
func (r *ContactMessageRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	msg.CreatedAt = time.Now()
	sql, args, err := r.sb.Insert("contact_messages").
		Columns("name", "email", "subject", "message", "is_read", "created_at").
		Values(msg.Name, msg.Email, msg.Subject, msg.Message, false, msg.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create contact message query: %w", err)
	}

	if err = r.db.QueryRow(ctx, sql, args...).Scan(&msg.ID); err != nil {
		logger.Error().Err(err).Msg("Error executing create contact message query")
		return fmt.Errorf("error creating contact message: %w", err)
	}
	return nil
}

// GetByID retrieves a message by ID
func (r *ContactMessageRepository) GetByID(ctx context.Context, id int64) (*models.ContactMessage, error) {
	sql, args, err := r.sb.Select(contactMessageColumns...).
		From("contact_messages").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get contact message query: %w", err)
	}

	msg, err := scanContactMessage(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrContactMessageNotFound
		}
		return nil, fmt.Errorf("error getting contact message: %w", err)
	}
	return msg, nil
}

// List returns a page of messages, newest first, and the total match count
func (r *ContactMessageRepository) List(ctx context.Context, filter models.ContactMessageFilter, offset uint64, limit int) ([]*models.ContactMessage, int64, error) {
	where := squirrel.And{}
	if filter.UnreadOnly {
		where = append(where, squirrel.Eq{"is_read": false})
	}

	countSql, countArgs, err := r.sb.Select("COUNT(*)").From("contact_messages").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count contact messages query: %w", err)
	}

	var total int64
	if err = r.db.QueryRow(ctx, countSql, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contact messages: %w", err)
	}
	if total == 0 {
		return []*models.ContactMessage{}, 0, nil
	}

	sql, args, err := r.sb.Select(contactMessageColumns...).
		From("contact_messages").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list contact messages query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query contact messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.ContactMessage{}
	for rows.Next() {
		msg, err := scanContactMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan contact message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating contact message rows: %w", err)
	}

	return messages, total, nil
}

// MarkRead flags a message as read
func (r *ContactMessageRepository) MarkRead(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("contact_messages").
		Set("is_read", true).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark contact message read query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error marking contact message read: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrContactMessageNotFound
	}
	return nil
}

// Delete removes a message
func (r *ContactMessageRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("contact_messages").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete contact message query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting contact message: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrContactMessageNotFound
	}
	return nil
}
