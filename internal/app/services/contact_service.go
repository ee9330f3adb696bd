package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/app/repositories"
	"github.com/yigit/alumnisphere/internal/pkg/email"
	"github.com/yigit/alumnisphere/internal/pkg/helpers"
)

// ContactService stores contact form messages
type ContactService struct {
	repo         repositories.IContactMessageRepository
	emailService email.EmailService
	logger       zerolog.Logger
}

// NewContactService creates a new ContactService
func NewContactService(repo repositories.IContactMessageRepository, emailService email.EmailService, logger zerolog.Logger) *ContactService {
	return &ContactService{repo: repo, emailService: emailService, logger: logger}
}

// Submit stores a message and sends an acknowledgement. A failed
// acknowledgement is logged only.
func (s *ContactService) Submit(ctx context.Context, req *dto.CreateContactMessageRequest) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   normalizeEmail(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.emailService != nil {
		if err := s.emailService.SendContactAcknowledgement(msg.Email, msg.Name, msg.Subject); err != nil {
			s.logger.Warn().Err(err).Int64("contactMessageID", msg.ID).Msg("Failed to send contact acknowledgement")
		}
	}
	return msg, nil
}

// List returns a page of messages, newest first
func (s *ContactService) List(ctx context.Context, filter models.ContactMessageFilter, page, size int) ([]*models.ContactMessage, dto.PaginationInfo, error) {
	page, size = helpers.NormalizePage(page, size)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	items, total, err := s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, dto.PaginationInfo{}, err
	}
	return items, helpers.NewPaginationInfo(total, page, size), nil
}

// Get returns one message
func (s *ContactService) Get(ctx context.Context, id int64) (*models.ContactMessage, error) {
	return s.repo.GetByID(ctx, id)
}

// MarkRead flags a message as read
func (s *ContactService) MarkRead(ctx context.Context, id int64) error {
	return s.repo.MarkRead(ctx, id)
}

// Delete removes a message
func (s *ContactService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
