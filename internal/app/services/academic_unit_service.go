package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/app/repositories"
)

// AcademicUnitService handles academic unit operations
type AcademicUnitService struct {
	repo   repositories.IAcademicUnitRepository
	logger zerolog.Logger
}

// NewAcademicUnitService creates a new AcademicUnitService
func NewAcademicUnitService(repo repositories.IAcademicUnitRepository, logger zerolog.Logger) *AcademicUnitService {
	return &AcademicUnitService{repo: repo, logger: logger}
}

// cleanPrograms trims names and drops blanks and repeats, keeping order
func cleanPrograms(programs []string) []string {
	seen := make(map[string]struct{}, len(programs))
	out := make([]string, 0, len(programs))
	for _, p := range programs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Create adds a new academic unit
func (s *AcademicUnitService) Create(ctx context.Context, req *dto.CreateAcademicUnitRequest) (*models.AcademicUnit, error) {
	unit := &models.AcademicUnit{
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Description: strings.TrimSpace(req.Description),
		Programs:    cleanPrograms(req.Programs),
	}
	if err := s.repo.Create(ctx, unit); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("academicUnitID", unit.ID).Str("code", unit.Code).Msg("Academic unit created")
	return unit, nil
}

// GetByID returns one academic unit
func (s *AcademicUnitService) GetByID(ctx context.Context, id int64) (*models.AcademicUnit, error) {
	return s.repo.GetByID(ctx, id)
}

// GetAll returns every academic unit ordered by name
func (s *AcademicUnitService) GetAll(ctx context.Context) ([]*models.AcademicUnit, error) {
	return s.repo.GetAll(ctx)
}

// GetPrograms returns the programs of one academic unit
func (s *AcademicUnitService) GetPrograms(ctx context.Context, id int64) (*dto.ProgramsResponse, error) {
	unit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ProgramsResponse{AcademicUnitID: unit.ID, Programs: unit.Programs}, nil
}

// Update changes the fields present in req
func (s *AcademicUnitService) Update(ctx context.Context, id int64, req *dto.UpdateAcademicUnitRequest) (*models.AcademicUnit, error) {
	unit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		unit.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		unit.Code = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if req.Description != nil {
		unit.Description = strings.TrimSpace(*req.Description)
	}
	if req.Programs != nil {
		unit.Programs = cleanPrograms(*req.Programs)
	}

	if err := s.repo.Update(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// Delete removes an academic unit
func (s *AcademicUnitService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("academicUnitID", id).Msg("Academic unit deleted")
	return nil
}
