package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/labflow-backend/internal/data/repos"
	"github.com/yungbote/labflow-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/user"
)

var otpInMail = regexp.MustCompile(`<strong>(\d{6})</strong>`)

type resetFixture struct {
	svc    *passwordResetService
	auth   AuthService
	mailer *fakeMailer
	email  string
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	u := testutil.SeedUser(t, context.Background(), db, "engineer", "old-pass", user.RoleReceptionist)
	users := repos.NewUserRepo(db, log)
	mailer := &fakeMailer{}
	return &resetFixture{
		svc:    NewPasswordResetService(log, users, mailer).(*passwordResetService),
		auth:   NewAuthService(log, users, "test-secret", 0),
		mailer: mailer,
		email:  u.Email,
	}
}

// sentCode pulls the code out of the last mail.
func (f *resetFixture) sentCode(t *testing.T) string {
	t.Helper()
	f.mailer.mu.Lock()
	defer f.mailer.mu.Unlock()
	require.NotEmpty(t, f.mailer.sent)
	m := otpInMail.FindStringSubmatch(f.mailer.sent[len(f.mailer.sent)-1].HTML)
	require.Len(t, m, 2)
	return m[1]
}

func TestPasswordResetFlow(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, "  ENGINEER@lab.test "))
	require.Equal(t, 1, f.mailer.count())
	sent := f.mailer.sent[0]
	assert.True(t, sent.Private)
	assert.Equal(t, []string{f.email}, sent.To)
	assert.Equal(t, "ATL - Password Reset OTP", sent.Subject)
	code := f.sentCode(t)

	require.NoError(t, f.svc.VerifyOTP(ctx, f.email, code))

	err := f.svc.ResetPassword(ctx, f.email, code, "short")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "got %v", err)

	require.NoError(t, f.svc.ResetPassword(ctx, f.email, code, "new-pass"))
	_, _, err = f.auth.Login(ctx, "engineer", "new-pass")
	require.NoError(t, err)
	_, _, err = f.auth.Login(ctx, "engineer", "old-pass")
	assert.Error(t, err)

	err = f.svc.VerifyOTP(ctx, f.email, code)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "a used code is cleared: %v", err)
}

func TestPasswordResetRejectsWrongAndExpiredCodes(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SendOTP(ctx, f.email))
	code := f.sentCode(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err := f.svc.VerifyOTP(ctx, f.email, wrong)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "got %v", err)

	err = f.svc.VerifyOTP(ctx, f.email, "")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "got %v", err)

	f.svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	err = f.svc.VerifyOTP(ctx, f.email, code)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "got %v", err)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := newResetFixture(t)
	err := f.svc.SendOTP(context.Background(), "nobody@lab.test")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "got %v", err)
	assert.Zero(t, f.mailer.count())
}
