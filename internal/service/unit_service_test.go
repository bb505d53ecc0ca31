package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/repository"
)

func newUnitService(t *testing.T) (*UnitService, func() error) {
	db := setupTestDB(t)
	svc := NewUnitService(repository.NewUnitRepository(db), zap.NewNop())
	seed := func() error {
		for _, name := range []string{"m2", "m3", "kg", "pcs"} {
			if err := db.Create(&domain.Unit{Name: name}).Error; err != nil {
				return err
			}
		}
		return nil
	}
	return svc, seed
}

func TestCreateUnit_TrimsAndRejectsDuplicates(t *testing.T) {
	svc, _ := newUnitService(t)
	ctx := context.Background()

	unit, err := svc.Create(ctx, &domain.CreateUnitRequest{Name: "  ml "})
	require.NoError(t, err)
	assert.Equal(t, "ml", unit.Name)
	assert.NotZero(t, unit.ID)

	_, err = svc.Create(ctx, &domain.CreateUnitRequest{Name: "ml"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(ctx, &domain.CreateUnitRequest{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMatchUnit_HitAndMiss(t *testing.T) {
	svc, seed := newUnitService(t)
	require.NoError(t, seed())
	ctx := context.Background()

	result, err := svc.Match(ctx, &domain.MatchUnitRequest{Input: "M²"})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	require.NotNil(t, result.Unit)
	assert.Equal(t, "m2", result.Unit.Name)

	result, err = svc.Match(ctx, &domain.MatchUnitRequest{Input: "square meter"})
	require.NoError(t, err)
	require.NotNil(t, result.Unit)
	assert.Equal(t, "m2", result.Unit.Name)

	// A miss is a result, not an error
	result, err = svc.Match(ctx, &domain.MatchUnitRequest{Input: "xyz-unknown-unit"})
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Nil(t, result.Unit)
}
