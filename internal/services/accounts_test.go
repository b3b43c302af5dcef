package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/labflow-backend/internal/data/repos"
	"github.com/yungbote/labflow-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/user"
	"github.com/yungbote/labflow-backend/internal/platform/ctxutil"
)

func TestClientServiceRejectsDuplicateEmail(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	svc := NewClientService(log, repos.NewClientRepo(db, log))

	in := ClientInput{Name: " Builder Co ", ContactNo: "9876543210", Email: "Ops@Builder.test", Address: "Plot 4"}
	c, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Builder Co", c.Name)
	assert.Equal(t, "ops@builder.test", c.Email)

	in.Email = "ops@builder.test "
	_, err = svc.Create(ctx, in)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeConflict), "got %v", err)

	other, err := svc.Create(ctx, ClientInput{Name: "Other", ContactNo: "1", Email: "other@x.test", Address: "A"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, other.ID, ClientInput{Name: "Other", ContactNo: "1", Email: "ops@builder.test", Address: "A"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeConflict))

	updated, err := svc.Update(ctx, c.ID, ClientInput{Name: "Builder Co Ltd", ContactNo: "9876543210", Email: "ops@builder.test", Address: "Plot 4"})
	require.NoError(t, err, "keeping your own email is not a conflict")
	assert.Equal(t, "Builder Co Ltd", updated.Name)

	_, err = svc.Create(ctx, ClientInput{Name: "Bad", ContactNo: "1", Email: "not-an-email", Address: "A"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))

	list, err := svc.List(ctx, "builder")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, other.ID))
	_, err = svc.Get(ctx, other.ID)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))
	assert.True(t, domainagg.IsCode(svc.Delete(ctx, uuid.New()), domainagg.CodeNotFound))
}

func TestUserServiceCreateAndMe(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	svc := NewUserService(log, repos.NewUserRepo(db, log))

	in := NewUser{FirstName: "Asha", LastName: "Rao", Email: "Asha@Lab.test", Username: "asha", Password: "secret1", Role: user.RoleChemicalTester}
	u, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "asha@lab.test", u.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret1")))

	_, err = svc.Create(ctx, in)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeConflict))

	bad := in
	bad.Username, bad.Email, bad.Role = "other", "other@lab.test", user.Role(9)
	_, err = svc.Create(ctx, bad)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))

	_, err = svc.GetMe(ctx)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeUnauthorized))
	me, err := svc.GetMe(ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: u.ID}))
	require.NoError(t, err)
	assert.Equal(t, "asha", me.Username)

	role := user.RoleChemicalSectionHead
	updated, err := svc.Update(ctx, u.ID, UserPatch{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, role, updated.Role)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
