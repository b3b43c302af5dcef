package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/labflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/labflow-backend/internal/domain"
)

func TestClientRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewClientRepo(db, testutil.Logger(t))
	ctx := context.Background()

	c := &types.Client{Name: " Acme Infra ", ContactNo: "98765", Email: "QA@Acme.test", Address: "Pune"}
	require.NoError(t, repo.Create(ctx, nil, c))
	assert.Equal(t, "qa@acme.test", c.Email)
	assert.Equal(t, "Acme Infra", c.Name)

	dup := &types.Client{Name: "Other", ContactNo: "1", Email: "qa@acme.test", Address: "x"}
	require.Error(t, repo.Create(ctx, nil, dup), "email must be unique")

	got, err := repo.GetByID(ctx, nil, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Email, got.Email)

	found, err := repo.List(ctx, nil, "acme")
	require.NoError(t, err)
	require.Len(t, found, 1)

	got.Address = "Mumbai"
	require.NoError(t, repo.Update(ctx, nil, got))
	again, err := repo.GetByID(ctx, nil, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", again.Address)

	n, err := repo.CountCreatedBetween(ctx, nil, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
