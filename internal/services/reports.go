package services

import (
	"context"
	"errors"
	"path"
	"regexp"
	"time"

	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/platform/objectstore"
)

var (
	reportYearRe  = regexp.MustCompile(`^[0-9]{2}$`)
	reportMonthRe = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
	reportFileRe  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*\.pdf$`)
)

// ReportInfo answers a verification lookup for an archived report.
type ReportInfo struct {
	Exists   bool      `json:"exists"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// ReportFile is an archived PDF ready to be served inline.
type ReportFile struct {
	Filename string
	Content  []byte
}

// ReportArchiveService reads back the PDFs mailed to clients. A report's QR
// code points at Open through the public reports route.
type ReportArchiveService interface {
	Open(ctx context.Context, year, month, file string) (*ReportFile, error)
	Check(ctx context.Context, year, month, file string) (*ReportInfo, error)
}

type reportArchiveService struct {
	log     *logger.Logger
	archive objectstore.Archive
}

func NewReportArchiveService(log *logger.Logger, archive objectstore.Archive) ReportArchiveService {
	if archive == nil {
		archive = objectstore.Nop{}
	}
	return &reportArchiveService{log: log.With("service", "ReportArchiveService"), archive: archive}
}

func reportKey(op, year, month, file string) (string, error) {
	switch {
	case !reportYearRe.MatchString(year):
		return "", domainagg.Validation(op, "year must be two digits")
	case !reportMonthRe.MatchString(month):
		return "", domainagg.Validation(op, "month must be 01-12")
	case !reportFileRe.MatchString(file):
		return "", domainagg.Validation(op, "invalid report file name")
	}
	return path.Join("reports", year, month, file), nil
}

func (s *reportArchiveService) Open(ctx context.Context, year, month, file string) (*ReportFile, error) {
	const op = "report_archive.open"
	key, err := reportKey(op, year, month, file)
	if err != nil {
		return nil, err
	}
	obj, err := s.archive.Get(ctx, key)
	if err != nil {
		return nil, archiveError(op, key, err)
	}
	return &ReportFile{Filename: file, Content: obj.Body}, nil
}

func (s *reportArchiveService) Check(ctx context.Context, year, month, file string) (*ReportInfo, error) {
	const op = "report_archive.check"
	key, err := reportKey(op, year, month, file)
	if err != nil {
		return nil, err
	}
	info, err := s.archive.Stat(ctx, key)
	if err != nil {
		return nil, archiveError(op, key, err)
	}
	// Archives keep a single timestamp; a report is never rewritten after mailing.
	return &ReportInfo{Exists: true, Size: info.Size, Created: info.Modified, Modified: info.Modified}, nil
}

func archiveError(op, key string, err error) error {
	if errors.Is(err, objectstore.ErrNotFound) {
		return domainagg.NotFound(op, "report %s not found", key)
	}
	return domainagg.Dependency(op, err)
}
