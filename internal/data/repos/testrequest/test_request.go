package testrequest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

const TestRequestTable = "test_request"

type TestRequestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, req *labtest.TestRequest) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*labtest.TestRequest, error)
	List(ctx context.Context, tx *gorm.DB, filter labtest.Filter, sort labtest.Sort) ([]*labtest.TestRequest, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	ListAtlIDs(ctx context.Context, tx *gorm.DB) ([]string, error)
	ListRequestIDs(ctx context.Context, tx *gorm.DB) ([]string, error)
}

type testRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestRequestRepo(db *gorm.DB, baseLog *logger.Logger) TestRequestRepo {
	return &testRequestRepo{db: db, log: baseLog.With("repo", "TestRequestRepo")}
}

func (r *testRequestRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx)
}

func (r *testRequestRepo) Create(ctx context.Context, tx *gorm.DB, req *labtest.TestRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	return r.conn(ctx, tx).Create(req).Error
}

func (r *testRequestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*labtest.TestRequest, error) {
	var out labtest.TestRequest
	if err := r.conn(ctx, tx).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// List omits the rendered document blobs; fetch a single request for those.
func (r *testRequestRepo) List(ctx context.Context, tx *gorm.DB, filter labtest.Filter, sort labtest.Sort) ([]*labtest.TestRequest, error) {
	q := r.conn(ctx, tx).Model(&labtest.TestRequest{}).Omit("ror_blob", "proforma_blob")
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.ClientID != uuid.Nil {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if !filter.CreatedFrom.IsZero() {
		q = q.Where("created_at >= ?", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		q = q.Where("created_at < ?", filter.CreatedTo)
	}
	order := sort.Column()
	if sort.Desc {
		order += " DESC"
	}
	q = q.Order(order).Order("sequence_number")

	// Department and report state live inside the sub-test JSON, so paging
	// happens after filtering.
	postFilter := filter.Department != "" || len(filter.ReportStates) > 0
	if !postFilter {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}

	var rows []*labtest.TestRequest
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	if !postFilter {
		return rows, nil
	}
	out := rows[:0]
	for _, row := range rows {
		if filter.Department != "" && !row.Touches(filter.Department) {
			continue
		}
		if len(filter.ReportStates) > 0 && !row.HasReportIn(filter.ReportStates...) {
			continue
		}
		out = append(out, row)
	}
	return page(out, filter.Offset, filter.Limit), nil
}

func page(rows []*labtest.TestRequest, offset, limit int) []*labtest.TestRequest {
	if offset > 0 {
		if offset >= len(rows) {
			return []*labtest.TestRequest{}
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func (r *testRequestRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var n int64
	err := r.conn(ctx, tx).Model(&labtest.TestRequest{}).Count(&n).Error
	return n, err
}

func (r *testRequestRepo) ListAtlIDs(ctx context.Context, tx *gorm.DB) ([]string, error) {
	var rows []labtest.TestRequest
	if err := r.conn(ctx, tx).Select("id", "sub_tests").Find(&rows).Error; err != nil {
		return nil, err
	}
	var out []string
	for i := range rows {
		out = append(out, rows[i].AtlIDs()...)
	}
	return out, nil
}

func (r *testRequestRepo) ListRequestIDs(ctx context.Context, tx *gorm.DB) ([]string, error) {
	var out []string
	err := r.conn(ctx, tx).Model(&labtest.TestRequest{}).Pluck("request_id", &out).Error
	return out, err
}

// Columns is the full column set written on every aggregate replace.
func Columns(req *labtest.TestRequest, now time.Time) map[string]any {
	return map[string]any{
		"client_id":                    req.ClientID,
		"client_name":                  req.ClientName,
		"contact_no":                   req.ContactNo,
		"email":                        req.Email,
		"address":                      req.Address,
		"request_date":                 req.RequestDate,
		"completion_date":              req.CompletionDate,
		"sub_tests":                    req.SubTests,
		"req_test_methods":             req.Requirements.TestMethods,
		"req_laboratory_capability":    req.Requirements.LaboratoryCapability,
		"req_appropriate_test_methods": req.Requirements.AppropriateTestMethods,
		"req_decision_rule":            req.Requirements.DecisionRule,
		"req_external_provider":        req.Requirements.ExternalProvider,
		"material_received":            req.MaterialReceived,
		"payment_received":             req.PaymentReceived,
		"required_departments":         req.RequiredDepartments,
		"job_cards":                    req.JobCards,
		"ror_status":                   req.ROR.StatusFlag,
		"ror_number":                   req.ROR.Number,
		"ror_blob":                     req.ROR.BlobRef,
		"ror_generated_at":             req.ROR.GeneratedAt,
		"proforma_status":              req.Proforma.StatusFlag,
		"proforma_number":              req.Proforma.Number,
		"proforma_blob":                req.Proforma.BlobRef,
		"proforma_generated_at":        req.Proforma.GeneratedAt,
		"status":                       req.Status,
		"report_status":                req.ReportStatus,
		"version":                      req.Version,
		"updated_at":                   now,
	}
}
