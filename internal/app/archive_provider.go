package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/platform/objectstore"
)

var openArchive = objectstore.Open

type ArchiveBootstrapErrorCode string

const (
	ArchiveBootstrapErrorInvalidBackend ArchiveBootstrapErrorCode = "invalid_backend"
	ArchiveBootstrapErrorMissingBucket  ArchiveBootstrapErrorCode = "missing_bucket"
	ArchiveBootstrapErrorConnectFailed  ArchiveBootstrapErrorCode = "connect_failed"
)

type ArchiveBootstrapError struct {
	Code    ArchiveBootstrapErrorCode
	Backend string
	Bucket  string
	Cause   error
}

func (e *ArchiveBootstrapError) Error() string {
	if e == nil {
		return "archive bootstrap failed"
	}
	return fmt.Sprintf(
		"archive bootstrap failed (code=%s backend=%q bucket=%q): %v",
		e.Code,
		e.Backend,
		e.Bucket,
		e.Cause,
	)
}

func (e *ArchiveBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func validArchiveBackend(b objectstore.Backend) bool {
	switch b {
	case "", objectstore.BackendNone, objectstore.BackendFS, objectstore.BackendGCS, objectstore.BackendGCSEmulator, objectstore.BackendS3:
		return true
	}
	return false
}

func resolveArchive(ctx context.Context, log *logger.Logger, cfg objectstore.Config) (objectstore.Archive, error) {
	cfg.Backend = objectstore.Backend(strings.ToLower(strings.TrimSpace(string(cfg.Backend))))
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)

	if !validArchiveBackend(cfg.Backend) {
		err := &ArchiveBootstrapError{
			Code:    ArchiveBootstrapErrorInvalidBackend,
			Backend: string(cfg.Backend),
			Bucket:  cfg.Bucket,
			Cause:   fmt.Errorf("unsupported archive backend %q", cfg.Backend),
		}
		log.Error("Archive backend selection failed", "backend", cfg.Backend, "error_code", err.Code, "error", err)
		return nil, err
	}
	needsBucket := cfg.Backend != "" && cfg.Backend != objectstore.BackendNone && cfg.Backend != objectstore.BackendFS
	if needsBucket && cfg.Bucket == "" {
		err := &ArchiveBootstrapError{
			Code:    ArchiveBootstrapErrorMissingBucket,
			Backend: string(cfg.Backend),
			Cause:   errors.New("ARCHIVE_BUCKET is required"),
		}
		log.Error("Archive backend selection failed", "backend", cfg.Backend, "error_code", err.Code, "error", err)
		return nil, err
	}

	log.Info("Selecting archive backend", "backend", cfg.Backend, "bucket", cfg.Bucket, "prefix", cfg.Prefix)
	archive, err := openArchive(ctx, log, cfg)
	if err != nil {
		classified := &ArchiveBootstrapError{
			Code:    ArchiveBootstrapErrorConnectFailed,
			Backend: string(cfg.Backend),
			Bucket:  cfg.Bucket,
			Cause:   err,
		}
		log.Error("Archive bootstrap failed", "backend", cfg.Backend, "error_code", classified.Code, "error", classified)
		return nil, classified
	}
	return archive, nil
}
