package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

func TestOpenNoneIsNop(t *testing.T) {
	a, err := Open(context.Background(), logger.Nop(), Config{})
	require.NoError(t, err)
	assert.Equal(t, BackendNone, a.Backend())
	assert.NoError(t, a.Put(context.Background(), "reports/x.pdf", "application/pdf", []byte("x")))
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), logger.Nop(), Config{Backend: "ftp"})
	assert.Error(t, err)
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "reports/24/05/a.pdf", joinKey("", "/reports/24/05/a.pdf"))
	assert.Equal(t, "lab/reports/a.pdf", joinKey("/lab/", "reports/a.pdf"))
}

func TestS3PutUsesPathStyleKey(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		ctype  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path, ctype = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, err := NewS3(context.Background(), logger.Nop(), Config{
		Backend:   BackendS3,
		Bucket:    "lab-archive",
		Prefix:    "prod",
		Endpoint:  srv.URL,
		PathStyle: true,
	}, WithStaticCredentials("AKIA", "SECRET"))
	require.NoError(t, err)

	require.NoError(t, a.Put(context.Background(), "reports/24/05/ROR_1.pdf", "application/pdf", []byte("%PDF-1.4")))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/lab-archive/prod/reports/24/05/ROR_1.pdf", path)
	assert.Equal(t, "application/pdf", ctype)
}

func TestS3StatMissingIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a, err := NewS3(context.Background(), logger.Nop(), Config{
		Backend:   BackendS3,
		Bucket:    "lab-archive",
		Endpoint:  srv.URL,
		PathStyle: true,
	}, WithStaticCredentials("AKIA", "SECRET"))
	require.NoError(t, err)

	_, err = a.Stat(context.Background(), "reports/24/05/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, logger.Nop(), Config{Backend: BackendFS, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, BackendFS, a.Backend())

	require.NoError(t, a.Put(ctx, "reports/24/05/Report_A.pdf", "application/pdf", []byte("%PDF-1.4")))

	info, err := a.Stat(ctx, "reports/24/05/Report_A.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)

	obj, err := a.Get(ctx, "reports/24/05/Report_A.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), obj.Body)

	_, err = a.Get(ctx, "reports/24/05/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.Get(ctx, "reports")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSRejectsEscapingKeys(t *testing.T) {
	a, err := NewFS(logger.Nop(), Config{Dir: t.TempDir()})
	require.NoError(t, err)
	err = a.Put(context.Background(), "../outside.pdf", "application/pdf", []byte("x"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
