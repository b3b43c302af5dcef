package scope

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/labflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/labflow-backend/internal/domain"
)

func TestScopeRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewScopeRepo(db, testutil.Logger(t))
	ctx := context.Background()

	second := &types.Scope{SerialNo: 2, MaterialTested: "TMT bars", Parameters: "Tensile strength"}
	first := &types.Scope{SerialNo: 1, MaterialTested: " Cement ", TestMethod: "IS 4031"}
	require.NoError(t, repo.Create(ctx, nil, second))
	require.NoError(t, repo.Create(ctx, nil, first))
	require.Error(t, repo.Create(ctx, nil, &types.Scope{SerialNo: 1, MaterialTested: "dup"}), "s_no must be unique")

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].SerialNo)
	assert.Equal(t, "Cement", all[0].MaterialTested)

	dup, err := repo.SerialExists(ctx, nil, 1, second.ID)
	require.NoError(t, err)
	assert.True(t, dup)
	self, err := repo.SerialExists(ctx, nil, 1, first.ID)
	require.NoError(t, err)
	assert.False(t, self)

	require.NoError(t, repo.Upsert(ctx, nil, []*types.Scope{
		{SerialNo: 2, MaterialTested: "TMT bars", Parameters: "Elongation"},
		{SerialNo: 3, MaterialTested: "Aggregate"},
	}))
	all, err = repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, second.ID, all[1].ID, "upsert keeps the existing row")
	assert.Equal(t, "Elongation", all[1].Parameters)

	require.NoError(t, repo.Delete(ctx, nil, first.ID))
	assert.Error(t, repo.Delete(ctx, nil, uuid.New()))
}
