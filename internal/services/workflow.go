package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/observability"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/platform/objectstore"
	"github.com/yungbote/labflow-backend/internal/render"
)

// ReportArtifacts is what a tester uploads for one sub-test. EquipmentIDs
// builds the equipment table from the registry when EquipmentTable is empty.
type ReportArtifacts struct {
	ReportHTML     string      `json:"report_html"`
	EquipmentTable string      `json:"equipment_table"`
	EquipmentIDs   []uuid.UUID `json:"equipment_ids"`
	ResultTable    string      `json:"result_table"`
	FromDate       string      `json:"from_date"`
	ToDate         string      `json:"to_date"`
}

// TableUpdate edits the tables of a sub-test. Nil or blank fields are left alone.
type TableUpdate struct {
	EquipmentTable *string `json:"equipment_table"`
	ResultTable    *string `json:"result_table"`
}

type WorkflowService interface {
	CreateJobCards(ctx context.Context, id uuid.UUID) (*labtest.TestRequest, error)
	SendJobCardsForApproval(ctx context.Context, id uuid.UUID) (*labtest.TestRequest, error)
	ApproveJobCard(ctx context.Context, id uuid.UUID, dept labtest.Department, assignee, remark string) (*labtest.TestRequest, error)
	RejectJobCard(ctx context.Context, id uuid.UUID, dept labtest.Department, remark string) (*labtest.TestRequest, error)

	SubmitResult(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, results []labtest.Measurement) (*labtest.TestRequest, error)
	ApproveResult(ctx context.Context, id uuid.UUID, key labtest.SubTestKey) (*labtest.TestRequest, error)
	RejectResult(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, remark string) (*labtest.TestRequest, error)

	UploadReport(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, in ReportArtifacts) (*labtest.TestRequest, error)
	UpdateTables(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, in TableUpdate) (*labtest.TestRequest, error)
	SendReportForApproval(ctx context.Context, id uuid.UUID, key labtest.SubTestKey) (*labtest.TestRequest, error)
	ApproveReport(ctx context.Context, id uuid.UUID, key labtest.SubTestKey) (*labtest.TestRequest, error)
	RejectReport(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, remark string) (*labtest.TestRequest, error)
	MailReport(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, cc []string) (*labtest.TestRequest, error)

	Complete(ctx context.Context, id uuid.UUID) (*labtest.TestRequest, error)
	SetReceiptFlags(ctx context.Context, id uuid.UUID, material, payment *bool) (*labtest.TestRequest, error)
}

type workflowService struct {
	log       *logger.Logger
	store     labtest.Store
	renderer  render.Renderer
	mailer    Mailer
	archive   objectstore.Archive
	notifier  Notifier
	equipment EquipmentTables
	metrics   *observability.Metrics
	now       func() time.Time
	baseURL   string
}

// LabDeps are the collaborators shared by the workflow and document services.
type LabDeps struct {
	Store     labtest.Store
	Renderer  render.Renderer
	Mailer    Mailer
	Archive   objectstore.Archive
	Notifier  Notifier
	Equipment EquipmentTables
	Metrics   *observability.Metrics
	Now       func() time.Time
	// PublicBaseURL prefixes the report links encoded in QR codes.
	PublicBaseURL string
}

func NewWorkflowService(log *logger.Logger, deps LabDeps) WorkflowService {
	if deps.Archive == nil {
		deps.Archive = objectstore.Nop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &workflowService{
		log:       log.With("service", "WorkflowService"),
		store:     deps.Store,
		renderer:  deps.Renderer,
		mailer:    deps.Mailer,
		archive:   deps.Archive,
		notifier:  deps.Notifier,
		equipment: deps.Equipment,
		metrics:   deps.Metrics,
		now:       deps.Now,
		baseURL:   deps.PublicBaseURL,
	}
}

// transition runs one guarded mutation and records the resulting status.
func (s *workflowService) transition(ctx context.Context, op string, id uuid.UUID, mutate labtest.MutateFunc) (*labtest.TestRequest, error) {
	out, err := s.store.Update(ctx, op, id, mutate)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(op, string(out.Status))
	return out, nil
}

// withSubTest resolves key inside r before calling fn.
func withSubTest(op string, key labtest.SubTestKey, fn func(r *labtest.TestRequest, st *labtest.SubTest) error) labtest.MutateFunc {
	return func(r *labtest.TestRequest) error {
		if err := key.Validate(); err != nil {
			return domainagg.Wrap(domainagg.CodeValidation, op, err)
		}
		i := r.FindSubTest(key)
		if i < 0 {
			return domainagg.NotFound(op, "sub-test %s not found", key)
		}
		return fn(r, &r.SubTests[i])
	}
}

// ---------------- Job cards ----------------

func (s *workflowService) CreateJobCards(ctx context.Context, id uuid.UUID) (*labtest.TestRequest, error) {
	const op = "job_card.create"
	out, err := s.transition(ctx, op, id, func(r *labtest.TestRequest) error {
		// Sub-tests outside both departments yield no cards; the request
		// still moves on to JobCardCreated.
		depts := labtest.DepartmentsFor(r.SubTests)
		r.RequiredDepartments = depts
		r.JobCards = make([]labtest.JobCard, 0, len(depts))
		for _, d := range depts {
			r.JobCards = append(r.JobCards, labtest.JobCard{Department: d, Status: labtest.JobCardPending})
		}
		r.Status = labtest.StatusJobCardCreated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("job cards created", "request_id", out.RequestID, "departments", out.RequiredDepartments)
	return out, nil
}

func (s *workflowService) SendJobCardsForApproval(ctx context.Context, id uuid.UUID) (*labtest.TestRequest, error) {
	const op = "job_card.send"
	out, err := s.transition(ctx, op, id, func(r *labtest.TestRequest) error {
		if len(r.RequiredDepartments) == 0 {
			r.RequiredDepartments = labtest.DepartmentsFor(r.SubTests)
		}
		for _, d := range r.RequiredDepartments {
			if r.JobCard(d) == nil {
				r.JobCards = append(r.JobCards, labtest.JobCard{Department: d, Status: labtest.JobCardPending})
			}
		}
		r.Status = labtest.StatusJobCardSentForApproval
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, Notice{
		Departments: out.RequiredDepartments,
		Headline:    "Job card awaiting approval",
		RequestID:   out.RequestID,
		ClientName:  out.ClientName,
		Lines:       out.AtlIDs(),
	})
	return out, nil
}

func (s *workflowService) ApproveJobCard(ctx context.Context, id uuid.UUID, dept labtest.Department, assignee, remark string) (*labtest.TestRequest, error) {
	const op = "job_card.approve"
	if !dept.Valid() {
		return nil, domainagg.Validation(op, "unknown department %q", dept)
	}
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return nil, domainagg.Validation(op, "assigned_to is required")
	}
	return s.transition(ctx, op, id, func(r *labtest.TestRequest) error {
		jc, err := jobCardFor(op, r, dept)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		jc.Status = labtest.JobCardApproved
		jc.AssignedTo = assignee
		jc.Remark = strings.TrimSpace(remark)
		jc.UpdatedAt = &now
		if r.AllJobCardsApproved() {
			r.Status = labtest.StatusJobCardsAssigned
		}
		return nil
	})
}

func (s *workflowService) RejectJobCard(ctx context.Context, id uuid.UUID, dept labtest.Department, remark string) (*labtest.TestRequest, error) {
	const op = "job_card.reject"
	if !dept.Valid() {
		return nil, domainagg.Validation(op, "unknown department %q", dept)
	}
	return s.transition(ctx, op, id, func(r *labtest.TestRequest) error {
		jc, err := jobCardFor(op, r, dept)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		jc.Status = labtest.JobCardRejected
		jc.Remark = strings.TrimSpace(remark)
		jc.UpdatedAt = &now
		r.Status = labtest.StatusJobCardRejected
		return nil
	})
}

func jobCardFor(op string, r *labtest.TestRequest, dept labtest.Department) (*labtest.JobCard, error) {
	jc := r.JobCard(dept)
	if jc == nil {
		return nil, domainagg.NotFound(op, "no %s job card on %s", dept, r.RequestID)
	}
	return jc, nil
}

// ---------------- Results ----------------

// SubmitResult sends a sub-test's results for approval. Measured values in
// results are merged onto the matching measurements first.
func (s *workflowService) SubmitResult(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, results []labtest.Measurement) (*labtest.TestRequest, error) {
	const op = "result.submit"
	return s.transition(ctx, op, id, withSubTest(op, key, func(r *labtest.TestRequest, st *labtest.SubTest) error {
		if err := mergeResults(op, st, results); err != nil {
			return err
		}
		if !st.HasTables() {
			return domainagg.Precondition(op, "both equipment and result tables must be completed before sending for approval")
		}
		// The overall status stays put until every result is approved.
		st.ResultStatus = labtest.ResultSentForApproval
		st.ResultRemark = ""
		return nil
	}))
}

// mergeResults copies measured values onto the matching measurements by name.
func mergeResults(op string, st *labtest.SubTest, results []labtest.Measurement) error {
	for _, in := range results {
		name := strings.TrimSpace(in.Name)
		found := false
		for i := range st.Measurements {
			if st.Measurements[i].Name != name {
				continue
			}
			st.Measurements[i].Result = strings.TrimSpace(in.Result)
			st.Measurements[i].Unit = strings.TrimSpace(in.Unit)
			if len(in.Values) > 0 {
				st.Measurements[i].Values = in.Values
			}
			found = true
			break
		}
		if !found {
			return domainagg.Validation(op, "sub-test %s has no measurement %q", st.AtlID, name)
		}
	}
	return nil
}

func (s *workflowService) ApproveResult(ctx context.Context, id uuid.UUID, key labtest.SubTestKey) (*labtest.TestRequest, error) {
	const op = "result.approve"
	return s.transition(ctx, op, id, withSubTest(op, key, func(r *labtest.TestRequest, st *labtest.SubTest) error {
		st.ResultStatus = labtest.ResultApproved
		st.ResultRemark = ""
		if r.AllSubTests(func(x labtest.SubTest) bool { return x.ResultStatus == labtest.ResultApproved }) {
			r.Status = labtest.StatusReportGenerated
		}
		return nil
	}))
}

func (s *workflowService) RejectResult(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, remark string) (*labtest.TestRequest, error) {
	const op = "result.reject"
	remark = strings.TrimSpace(remark)
	if remark == "" {
		return nil, domainagg.Validation(op, "a remark is required to reject results")
	}
	return s.transition(ctx, op, id, withSubTest(op, key, func(r *labtest.TestRequest, st *labtest.SubTest) error {
		st.ResultStatus = labtest.ResultRejected
		st.ResultRemark = remark
		r.Status = labtest.StatusResultsRejected
		return nil
	}))
}

// ---------------- Reports ----------------

// UploadReport attaches report artifacts to a sub-test. Empty fields keep
// their stored value; the overall status is not touched.
func (s *workflowService) UploadReport(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, in ReportArtifacts) (*labtest.TestRequest, error) {
	const op = "report.upload"
	if strings.TrimSpace(in.ReportHTML) == "" && strings.TrimSpace(in.EquipmentTable) == "" &&
		strings.TrimSpace(in.ResultTable) == "" && len(in.EquipmentIDs) == 0 {
		return nil, domainagg.Validation(op, "report_html, equipment_table, equipment_ids or result_table is required")
	}
	for _, d := range []string{in.FromDate, in.ToDate} {
		if d != "" {
			if err := labtest.ValidateDate(d); err != nil {
				return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
			}
		}
	}
	if in.EquipmentTable == "" && len(in.EquipmentIDs) > 0 {
		if s.equipment == nil {
			return nil, domainagg.Precondition(op, "equipment registry is not configured")
		}
		table, err := s.equipment.Table(ctx, in.EquipmentIDs)
		if err != nil {
			return nil, err
		}
		in.EquipmentTable = table
	}
	return s.transition(ctx, op, id, withSubTest(op, key, func(_ *labtest.TestRequest, st *labtest.SubTest) error {
		if in.ReportHTML != "" {
			st.ReportHTML = in.ReportHTML
		}
		if in.EquipmentTable != "" {
			st.EquipmentTable = in.EquipmentTable
		}
		if in.ResultTable != "" {
			st.ResultTable = in.ResultTable
		}
		if in.FromDate != "" {
			st.FromDate = in.FromDate
		}
		if in.ToDate != "" {
			st.ToDate = in.ToDate
		}
		return nil
	}))
}

func (s *workflowService) UpdateTables(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, in TableUpdate) (*labtest.TestRequest, error) {
	const op = "report.tables"
	if blank(in.EquipmentTable) && blank(in.ResultTable) {
		return nil, domainagg.Validation(op, "no table data provided to update")
	}
	return s.transition(ctx, op, id, withSubTest(op, key, func(_ *labtest.TestRequest, st *labtest.SubTest) error {
		if !blank(in.EquipmentTable) {
			st.EquipmentTable = *in.EquipmentTable
		}
		if !blank(in.ResultTable) {
			st.ResultTable = *in.ResultTable
		}
		return nil
	}))
}

func (s *workflowService) SendReportForApproval(ctx context.Context, id uuid.UUID, key labtest.SubTestKey) (*labtest.TestRequest, error) {
	const op = "report.send"
	out, err := s.transition(ctx, op, id, withSubTest(op, key, func(r *labtest.TestRequest, st *labtest.SubTest) error {
		if !st.ReportApproval.CanSend() {
			return domainagg.Precondition(op, "only rejected or new reports can be sent for approval")
		}
		if !st.HasReport() {
			return domainagg.Precondition(op, "sub-test %s has no report", key)
		}
		st.ReportApproval = labtest.ReportSentForApproval()
		r.ReportStatus = labtest.ReportStatusPending
		if r.AllSubTests(func(x labtest.SubTest) bool { return x.ReportApproval.Is(labtest.ApprovalSentForApproval) }) {
			r.Status = labtest.StatusReportSentForApproval
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	if d, ok := labtest.DepartmentOf(key.TestType); ok {
		s.notify(ctx, Notice{
			Departments: []labtest.Department{d},
			Headline:    "Report awaiting approval",
			RequestID:   out.RequestID,
			ClientName:  out.ClientName,
			Lines:       []string{key.String()},
		})
	}
	return out, nil
}

func (s *workflowService) ApproveReport(ctx context.Context, id uuid.UUID, key labtest.SubTestKey) (*labtest.TestRequest, error) {
	const op = "report.approve"
	return s.transition(ctx, op, id, withSubTest(op, key, func(r *labtest.TestRequest, st *labtest.SubTest) error {
		st.ReportApproval = labtest.ReportApproved()
		if r.AllSubTests(func(x labtest.SubTest) bool { return x.ReportApproval.Is(labtest.ApprovalApproved) }) {
			r.Status = labtest.StatusReportApproved
			r.ReportStatus = labtest.ReportStatusApproved
		}
		return nil
	}))
}

func (s *workflowService) RejectReport(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, remark string) (*labtest.TestRequest, error) {
	const op = "report.reject"
	remark = strings.TrimSpace(remark)
	if remark == "" {
		return nil, domainagg.Validation(op, "a remark is required to reject a report")
	}
	return s.transition(ctx, op, id, withSubTest(op, key, func(r *labtest.TestRequest, st *labtest.SubTest) error {
		st.ReportApproval = labtest.ReportRejected(remark)
		r.Status = labtest.StatusReportRejected
		r.ReportStatus = labtest.ReportStatusRejected
		return nil
	}))
}

// MailReport renders the approved report with a QR code linking to its
// archived copy, mails it to the client and then records the delivery.
// Archiving is best-effort.
func (s *workflowService) MailReport(ctx context.Context, id uuid.UUID, key labtest.SubTestKey, cc []string) (*labtest.TestRequest, error) {
	const op = "report.mail"
	if err := key.Validate(); err != nil {
		return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	i := r.FindSubTest(key)
	if i < 0 {
		return nil, domainagg.NotFound(op, "sub-test %s not found", key)
	}
	st := r.SubTests[i]
	if err := mailableReport(op, st); err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("Report_%s.pdf", FileSafe(st.AtlID))
	archKey := archiveKey(r.RequestDate, filename)
	verifyURL := reportURL(s.baseURL, archKey)
	qr, err := render.QRDataURI(verifyURL, 256)
	if err != nil {
		return nil, domainagg.Dependency(op, err)
	}
	pdf, err := s.renderer.Render(ctx, render.TemplateReport, render.ReportView{
		RequestID: r.RequestID,
		AtlID:     st.AtlID,
		Body:      trustedHTML(st.ReportHTML),
		QR:        qr,
		VerifyURL: verifyURL,
	})
	if err != nil {
		return nil, domainagg.Dependency(op, err)
	}
	body, err := render.HTML(render.TemplateMailReport, render.MailView{
		ClientName: r.ClientName,
		RequestID:  r.RequestID,
		AtlID:      st.AtlID,
		Material:   st.Material,
		TestType:   st.TestType,
	})
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "render mail body", err)
	}
	if err := s.mailer.Send(ctx, Mail{
		Kind:        "report",
		To:          []string{r.Email},
		CC:          cc,
		Subject:     fmt.Sprintf("Test Report - %s", st.AtlID),
		HTML:        body,
		Attachments: []Attachment{{Filename: filename, MIMEType: "application/pdf", Content: pdf}},
	}); err != nil {
		return nil, domainagg.Dependency(op, err)
	}
	s.archivePDF(ctx, archKey, pdf)

	return s.transition(ctx, op, id, withSubTest(op, key, func(r *labtest.TestRequest, st *labtest.SubTest) error {
		if err := mailableReport(op, *st); err != nil {
			return err
		}
		st.ReportMailed = true
		if r.AllSubTests(func(x labtest.SubTest) bool {
			return !x.ReportApproval.Is(labtest.ApprovalApproved) || x.ReportMailed
		}) {
			r.Status = labtest.StatusReportMailed
		}
		return nil
	}))
}

func blank(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }

func mailableReport(op string, st labtest.SubTest) error {
	if !st.ReportApproval.Is(labtest.ApprovalApproved) {
		return domainagg.Precondition(op, "report for %s is not approved", st.AtlID)
	}
	if !st.HasReport() {
		return domainagg.Precondition(op, "sub-test %s has no report", st.AtlID)
	}
	return nil
}

// ---------------- Closure ----------------

func (s *workflowService) Complete(ctx context.Context, id uuid.UUID) (*labtest.TestRequest, error) {
	const op = "test_request.complete"
	return s.transition(ctx, op, id, func(r *labtest.TestRequest) error {
		if r.Status != labtest.StatusReportMailed {
			return domainagg.Precondition(op, "cannot complete from status %q", r.Status)
		}
		r.Status = labtest.StatusCompleted
		return nil
	})
}

func (s *workflowService) SetReceiptFlags(ctx context.Context, id uuid.UUID, material, payment *bool) (*labtest.TestRequest, error) {
	const op = "test_request.receipt"
	if material == nil && payment == nil {
		return nil, domainagg.Validation(op, "nothing to update")
	}
	return s.store.Update(ctx, op, id, func(r *labtest.TestRequest) error {
		if material != nil {
			r.MaterialReceived = *material
		}
		if payment != nil {
			r.PaymentReceived = *payment
		}
		return nil
	})
}

// ---------------- Side effects ----------------

func (s *workflowService) notify(ctx context.Context, n Notice) {
	if s.notifier == nil || len(n.Departments) == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn("section head notice failed", "request_id", n.RequestID, "error", err)
	}
}

func (s *workflowService) archivePDF(ctx context.Context, key string, pdf []byte) {
	archivePDF(ctx, s.log, s.archive, key, pdf)
}
