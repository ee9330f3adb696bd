package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
)

func TestAcademicUnitService_CreateCleansInput(t *testing.T) {
	svc := NewAcademicUnitService(newMemUnitRepo(), zerolog.Nop())

	unit, err := svc.Create(context.Background(), &dto.CreateAcademicUnitRequest{
		Name:     " School of Engineering ",
		Code:     "eng",
		Programs: []string{" B.Tech CS", "", "B.Tech CS", "B.Tech ECE "},
	})
	require.NoError(t, err)
	assert.Equal(t, "School of Engineering", unit.Name)
	assert.Equal(t, "ENG", unit.Code)
	assert.Equal(t, []string{"B.Tech CS", "B.Tech ECE"}, unit.Programs)

	_, err = svc.Create(context.Background(), &dto.CreateAcademicUnitRequest{Name: "Engineering", Code: "ENG"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)
}

func TestAcademicUnitService_UpdateAndPrograms(t *testing.T) {
	ctx := context.Background()
	svc := NewAcademicUnitService(newMemUnitRepo(), zerolog.Nop())
	eng, err := svc.Create(ctx, &dto.CreateAcademicUnitRequest{Name: "School of Engineering", Code: "ENG", Description: "Tech", Programs: []string{"B.Tech CS"}})
	require.NoError(t, err)
	sci, err := svc.Create(ctx, &dto.CreateAcademicUnitRequest{Name: "School of Sciences", Code: "SCI"})
	require.NoError(t, err)

	programs := []string{"B.Tech CS", "M.Tech CS"}
	updated, err := svc.Update(ctx, eng.ID, &dto.UpdateAcademicUnitRequest{Programs: &programs})
	require.NoError(t, err)
	assert.Equal(t, "Tech", updated.Description)
	assert.Equal(t, programs, updated.Programs)

	resp, err := svc.GetPrograms(ctx, eng.ID)
	require.NoError(t, err)
	assert.Equal(t, eng.ID, resp.AcademicUnitID)
	assert.Equal(t, programs, resp.Programs)

	_, err = svc.Update(ctx, sci.ID, &dto.UpdateAcademicUnitRequest{Code: sp("eng")})
	assert.ErrorIs(t, err, apperrors.ErrAcademicUnitAlreadyExists)

	_, err = svc.GetPrograms(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.Delete(ctx, sci.ID))
	assert.ErrorIs(t, svc.Delete(ctx, sci.ID), apperrors.ErrAcademicUnitNotFound)
}
