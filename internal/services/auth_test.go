package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/labflow-backend/internal/data/repos"
	"github.com/yungbote/labflow-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/user"
	"github.com/yungbote/labflow-backend/internal/platform/ctxutil"
)

func TestLoginIssuesClaims(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db, "reception", "s3cret!", user.RoleReceptionist)
	auth := NewAuthService(log, repos.NewUserRepo(db, log), "test-secret", 0)
	assert.Equal(t, 24*time.Hour, auth.GetAccessTTL())

	token, got, err := auth.Login(ctx, "reception", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims := &JWTClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, "reception", claims.Username)
	assert.Equal(t, int(user.RoleReceptionist), claims.Role)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	authed, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(authed)
	require.NotNil(t, rd)
	assert.Equal(t, u.ID, rd.UserID)
	assert.Equal(t, int(user.RoleReceptionist), rd.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	testutil.SeedUser(t, ctx, db, "head", "right-pass", user.RoleChemicalSectionHead)
	auth := NewAuthService(log, repos.NewUserRepo(db, log), "test-secret", time.Hour)

	_, _, err := auth.Login(ctx, "head", "wrong-pass")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeUnauthorized))
	_, _, err = auth.Login(ctx, "nobody", "right-pass")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeUnauthorized))
	_, _, err = auth.Login(ctx, "", "")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
}

func TestAuthenticateRejectsForeignAndExpiredTokens(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	testutil.SeedUser(t, ctx, db, "tester", "pw-123456", user.RoleMechanicalTester)
	users := repos.NewUserRepo(db, log)

	other := NewAuthService(log, users, "other-secret", time.Hour)
	token, _, err := other.Login(ctx, "tester", "pw-123456")
	require.NoError(t, err)

	auth := NewAuthService(log, users, "test-secret", time.Hour)
	_, err = auth.Authenticate(ctx, token)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeUnauthorized))

	short := NewAuthService(log, users, "test-secret", time.Hour).(*authService)
	short.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := short.Login(ctx, "tester", "pw-123456")
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, stale)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeUnauthorized))

	_, err = auth.Authenticate(ctx, "")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeUnauthorized))
}
