package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/labflow-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/platform/objectstore"
)

func TestReportArchiveOpenAndCheck(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	svc := NewReportArchiveService(testutil.Logger(t), l.archive)
	require.NoError(t, l.archive.Put(ctx, "reports/24/05/Report_ATL_24_05_1.pdf", "application/pdf", []byte("%PDF-1.4")))

	f, err := svc.Open(ctx, "24", "05", "Report_ATL_24_05_1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Report_ATL_24_05_1.pdf", f.Filename)
	assert.Equal(t, []byte("%PDF-1.4"), f.Content)

	info, err := svc.Check(ctx, "24", "05", "Report_ATL_24_05_1.pdf")
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, int64(8), info.Size)

	_, err = svc.Check(ctx, "24", "05", "Report_ATL_24_05_9.pdf")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "got %v", err)
}

func TestReportArchiveRejectsBadPaths(t *testing.T) {
	svc := NewReportArchiveService(testutil.Logger(t), objectstore.Nop{})
	ctx := context.Background()
	bad := [][3]string{
		{"2024", "05", "a.pdf"},
		{"24", "5", "a.pdf"},
		{"24", "00", "a.pdf"},
		{"24", "05", "a.txt"},
		{"24", "05", "..pdf"},
		{"24", "05", ".hidden.pdf"},
	}
	for _, p := range bad {
		_, err := svc.Open(ctx, p[0], p[1], p[2])
		assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "%v: got %v", p, err)
	}
	_, err := svc.Open(ctx, "24", "05", "a.pdf")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "nop archive holds nothing: %v", err)
}

func TestMailedReportQRLinksToArchivedCopy(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)
	key := keyOf(r.SubTests[0])
	l.approvedReport(t, r.ID, key)

	_, err := l.workflow.MailReport(ctx, r.ID, key, nil)
	require.NoError(t, err)
	assert.Contains(t, l.printer.Last(), "https://lab.example/api/reports/24/05/Report_ATL_24_05_1.pdf")

	svc := NewReportArchiveService(testutil.Logger(t), l.archive)
	f, err := svc.Open(ctx, "24", "05", "Report_ATL_24_05_1.pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, f.Content)
}

func TestReportURL(t *testing.T) {
	assert.Equal(t, "https://lab.example/api/reports/24/05/a.pdf", reportURL("https://lab.example/", "reports/24/05/a.pdf"))
	assert.Equal(t, "/api/reports/a.pdf", reportURL("", "/reports/a.pdf"))
}
