package services

import (
	"context"
	"html/template"
	"path"
	"strings"

	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/platform/objectstore"
)

var fileSafeReplacer = strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")

// FileSafe turns an identifier such as ATL/24/05/T_3 into a filename fragment.
func FileSafe(id string) string {
	return fileSafeReplacer.Replace(strings.TrimSpace(id))
}

// archiveKey lays documents out as reports/YY/MM/<filename>, falling back to
// reports/<filename> when the request date is unusable.
func archiveKey(requestDate, filename string) string {
	yy, mm, err := labtest.YearMonth(requestDate)
	if err != nil {
		return path.Join("reports", filename)
	}
	return path.Join("reports", yy, mm, filename)
}

// reportURL is where the public reports route serves the archived key.
// Without a base URL the link is host-relative.
func reportURL(baseURL, key string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/api/" + strings.TrimLeft(key, "/")
}

func archivePDF(ctx context.Context, log *logger.Logger, archive objectstore.Archive, key string, pdf []byte) {
	if archive == nil || archive.Backend() == objectstore.BackendNone {
		return
	}
	if err := archive.Put(ctx, key, "application/pdf", pdf); err != nil {
		log.Warn("archive put failed", "key", key, "backend", archive.Backend(), "error", err)
		return
	}
	log.Debug("archived", "key", key, "size", len(pdf))
}

// trustedHTML marks staff-authored report markup for verbatim embedding.
func trustedHTML(s string) template.HTML {
	return template.HTML(s)
}
