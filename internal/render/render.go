package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/labflow-backend/internal/observability"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names an embedded HTML template.
type Template string

const (
	TemplateROR            Template = "ror.html"
	TemplateProforma       Template = "proforma.html"
	TemplateReport         Template = "report.html"
	TemplateEquipmentTable Template = "equipment_table.html"
	TemplateMailDocs       Template = "mail_documents.html"
	TemplateMailReport     Template = "mail_report.html"
	TemplateMailNotice     Template = "mail_notice.html"
	TemplateMailOTP        Template = "mail_otp.html"
)

var (
	parseOnce sync.Once
	parsed    *template.Template
	parseErr  error
)

func templates() (*template.Template, error) {
	parseOnce.Do(func() {
		parsed, parseErr = template.New("labflow").Funcs(template.FuncMap{
			"join": strings.Join,
			"yesno": func(b bool) string {
				if b {
					return "Yes"
				}
				return "No"
			},
		}).ParseFS(templateFS, "templates/*.html")
	})
	return parsed, parseErr
}

// HTML executes tpl against data.
func HTML(tpl Template, data any) (string, error) {
	t, err := templates()
	if err != nil {
		return "", fmt.Errorf("parse templates: %w", err)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, string(tpl), data); err != nil {
		return "", fmt.Errorf("execute %s: %w", tpl, err)
	}
	return buf.String(), nil
}

// Printer turns a complete HTML document into PDF bytes.
type Printer interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// Renderer produces PDFs from embedded templates or caller supplied HTML.
type Renderer interface {
	Render(ctx context.Context, tpl Template, data any) ([]byte, error)
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

type renderer struct {
	log     *logger.Logger
	printer Printer
	timeout time.Duration
	metrics *observability.Metrics
}

func New(log *logger.Logger, printer Printer, timeout time.Duration, metrics *observability.Metrics) (Renderer, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if printer == nil {
		return nil, fmt.Errorf("printer required")
	}
	if _, err := templates(); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &renderer{
		log:     log.With("component", "Renderer"),
		printer: printer,
		timeout: timeout,
		metrics: metrics,
	}, nil
}

func (r *renderer) Render(ctx context.Context, tpl Template, data any) ([]byte, error) {
	html, err := HTML(tpl, data)
	if err != nil {
		r.metrics.IncRender(string(tpl), err)
		return nil, err
	}
	return r.print(ctx, string(tpl), html)
}

func (r *renderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("empty html")
	}
	return r.print(ctx, "raw", html)
}

func (r *renderer) print(ctx context.Context, kind, html string) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "render.pdf", attribute.String("render.kind", kind))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	pdf, err := r.printer.PrintPDF(ctx, html)
	r.metrics.IncRender(kind, err)
	if err != nil {
		span.RecordError(err)
		r.log.Warn("pdf render failed", "kind", kind, "error", err)
		return nil, err
	}
	r.log.Debug("pdf rendered", "kind", kind, "pdf", pdf, "elapsed", time.Since(start).String())
	return pdf, nil
}
