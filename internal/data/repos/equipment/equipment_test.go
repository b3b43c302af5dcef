package equipment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/labflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/labflow-backend/internal/domain"
)

func TestEquipmentRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewEquipmentRepo(db, testutil.Logger(t))
	ctx := context.Background()

	utm := &types.Equipment{Name: " UTM 1000kN ", Range: "0-1000 kN", CertificateNo: "C-77", DueDate: "2025-01-31"}
	balance := &types.Equipment{Name: "Balance", Range: "0-220 g"}
	require.NoError(t, repo.Create(ctx, nil, utm))
	require.NoError(t, repo.Create(ctx, nil, balance))
	assert.Equal(t, "UTM 1000kN", utm.Name)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Balance", all[0].Name)

	got, err := repo.GetByIDs(ctx, nil, []uuid.UUID{utm.ID, uuid.New(), balance.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, utm.ID, got[0].ID, "order follows the requested ids")
	assert.Equal(t, balance.ID, got[1].ID)

	utm.CalibratedBy = "NPL"
	require.NoError(t, repo.Update(ctx, nil, utm))
	again, err := repo.GetByID(ctx, nil, utm.ID)
	require.NoError(t, err)
	assert.Equal(t, "NPL", again.CalibratedBy)

	err = repo.Update(ctx, nil, &types.Equipment{ID: uuid.New(), Name: "ghost"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
