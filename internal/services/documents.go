package services

import (
	"context"
	"encoding/base64"
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

// RORInput carries the review-of-request form. Blank contact fields fall back
// to the request's own values; Remarks is keyed by ATL id.
type RORInput struct {
	CompletionDate string            `json:"completion_date"`
	CustomerName   string            `json:"customer_name"`
	ProjectName    string            `json:"project_name"`
	SiteAddress    string            `json:"site_address"`
	BillingAddress string            `json:"billing_address"`
	EmailID        string            `json:"email_id"`
	ContactNo      string            `json:"contact_no"`
	DaysRequired   string            `json:"days_required"`
	Remarks        map[string]string `json:"remarks"`
}

// DocumentFile is a decoded document ready for download.
type DocumentFile struct {
	Filename string
	Content  []byte
}

type DocumentService interface {
	GenerateROR(ctx context.Context, id uuid.UUID, in RORInput) (*labtest.TestRequest, error)
	GenerateProforma(ctx context.Context, id uuid.UUID, in ProformaInput) (*labtest.TestRequest, error)
	DeleteDocument(ctx context.Context, id uuid.UUID, kind labtest.DocumentKind) (*labtest.TestRequest, error)
	MailDocuments(ctx context.Context, id uuid.UUID, cc []string) (*labtest.TestRequest, error)
	Document(ctx context.Context, id uuid.UUID, kind labtest.DocumentKind) (*DocumentFile, error)
}

type documentService struct {
	log      *logger.Logger
	store    labtest.Store
	renderer render.Renderer
	mailer   Mailer
	archive  objectstore.Archive
	notifier Notifier
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewDocumentService(log *logger.Logger, deps LabDeps) DocumentService {
	if deps.Archive == nil {
		deps.Archive = objectstore.Nop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &documentService{
		log:      log.With("service", "DocumentService"),
		store:    deps.Store,
		renderer: deps.Renderer,
		mailer:   deps.Mailer,
		archive:  deps.Archive,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		now:      deps.Now,
	}
}

func (s *documentService) GenerateROR(ctx context.Context, id uuid.UUID, in RORInput) (*labtest.TestRequest, error) {
	const op = "ror.generate"
	in.CompletionDate = strings.TrimSpace(in.CompletionDate)
	if err := labtest.ValidateDate(in.CompletionDate); err != nil {
		return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	number, err := labtest.RORNumber(r.RequestID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
	}

	now := s.now()
	pdf, err := s.renderer.Render(ctx, render.TemplateROR, rorView(r, in, number, now))
	if err != nil {
		return nil, domainagg.Dependency(op, err)
	}

	out, err := s.transition(ctx, op, id, func(r *labtest.TestRequest) error {
		at := now.UTC()
		r.CompletionDate = in.CompletionDate
		r.ROR = labtest.Document{
			StatusFlag:  1,
			Number:      number,
			BlobRef:     base64.StdEncoding.EncodeToString(pdf),
			GeneratedAt: &at,
		}
		r.Status = labtest.StatusRORGenerated
		return nil
	})
	if err != nil {
		return nil, err
	}
	archivePDF(ctx, s.log, s.archive, archiveKey(out.RequestDate, documentFilename(labtest.DocumentROR, out.RequestID)), pdf)
	if s.notifier != nil {
		depts := labtest.DepartmentsFor(out.SubTests)
		if len(depts) > 0 {
			if err := s.notifier.Notify(ctx, Notice{
				Departments: depts,
				Headline:    "New test request",
				RequestID:   out.RequestID,
				ClientName:  out.ClientName,
				Lines:       out.AtlIDs(),
			}); err != nil {
				s.log.Warn("section head notice failed", "request_id", out.RequestID, "error", err)
			}
		}
	}
	return out, nil
}

var requirementLabels = []string{
	"Test methods",
	"Laboratory capability",
	"Appropriate test methods",
	"Decision rule",
	"External provider",
}

func rorView(r *labtest.TestRequest, in RORInput, number string, now time.Time) render.RORView {
	v := render.RORView{
		RORNo:          number,
		Date:           now.Format("02/01/2006"),
		CustomerName:   firstNonEmpty(in.CustomerName, r.ClientName),
		ProjectName:    strings.TrimSpace(in.ProjectName),
		SiteAddress:    firstNonEmpty(in.SiteAddress, r.Address),
		BillingAddress: firstNonEmpty(in.BillingAddress, r.Address),
		EmailID:        firstNonEmpty(in.EmailID, r.Email),
		ContactNo:      firstNonEmpty(in.ContactNo, r.ContactNo),
		DaysRequired:   firstNonEmpty(in.DaysRequired, "N/A"),
	}
	for i, st := range r.SubTests {
		row := render.RORTestRow{
			SrNo:       i + 1,
			Material:   st.Material,
			Quantity:   st.Quantity,
			MaterialID: st.MaterialID,
			AtlID:      st.AtlID,
			Remarks:    strings.TrimSpace(in.Remarks[st.AtlID]),
		}
		for _, m := range st.Measurements {
			row.Tests = append(row.Tests, m.Name)
			row.Standards = append(row.Standards, m.Standard)
		}
		v.Tests = append(v.Tests, row)
	}
	req := r.Requirements
	for i, val := range []bool{req.TestMethods, req.LaboratoryCapability, req.AppropriateTestMethods, req.DecisionRule, req.ExternalProvider} {
		v.Requirements = append(v.Requirements, render.RequirementRow{Label: requirementLabels[i], Value: val})
	}
	return v
}

func (s *documentService) GenerateProforma(ctx context.Context, id uuid.UUID, in ProformaInput) (*labtest.TestRequest, error) {
	const op = "proforma.generate"
	if err := in.Validate(op); err != nil {
		return nil, err
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	number, err := labtest.InvoiceNumber(r.RequestID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
	}

	now := s.now()
	pdf, err := s.renderer.Render(ctx, render.TemplateProforma, proformaView(in, number, now))
	if err != nil {
		return nil, domainagg.Dependency(op, err)
	}

	out, err := s.transition(ctx, op, id, func(r *labtest.TestRequest) error {
		at := now.UTC()
		r.Proforma = labtest.Document{
			StatusFlag:  1,
			Number:      number,
			BlobRef:     base64.StdEncoding.EncodeToString(pdf),
			GeneratedAt: &at,
		}
		r.Status = labtest.StatusProformaGenerated
		return nil
	})
	if err != nil {
		return nil, err
	}
	archivePDF(ctx, s.log, s.archive, archiveKey(out.RequestDate, documentFilename(labtest.DocumentProforma, out.RequestID)), pdf)
	return out, nil
}

func proformaView(in ProformaInput, number string, now time.Time) render.ProformaView {
	t := ComputeProforma(in.Items, in.SGST, in.CGST)
	v := render.ProformaView{
		InvoiceNo:          number,
		Date:               now.Format("02/01/2006"),
		Mode:               firstNonEmpty(in.Mode, "CASH"),
		Destination:        in.Destination,
		DispatchedThrough:  in.DispatchedThrough,
		DeliveryNote:       in.DeliveryNote,
		DeliveryNoteDate:   in.DeliveryNoteDate,
		DispatchDocumentNo: in.DispatchDocumentNo,
		BuyerOrderNo:       in.BuyerOrderNo,
		Dated:              in.Dated,
		SupplierRef:        in.SupplierRef,
		OtherReferences:    in.OtherReferences,
		Buyer: render.Buyer{
			Name:    in.Buyer.Name,
			Address: in.Buyer.Address,
			GSTIN:   in.Buyer.GSTIN,
			PAN:     in.Buyer.PAN,
		},
		HSN:           in.HSN,
		TotalAmount:   money(t.Total),
		SGSTPercent:   in.SGST.String(),
		SGSTAmount:    money(t.SGSTAmount),
		CGSTPercent:   in.CGST.String(),
		CGSTAmount:    money(t.CGSTAmount),
		TotalTax:      money(t.TotalTax),
		Rounding:      money(t.Rounding),
		FinalAmount:   money(t.Payable),
		AmountInWords: RupeesInWords(t.Payable.IntPart()),
		TaxInWords:    RupeesInWords(t.TotalTax.Round(0).IntPart()),
	}
	for i, it := range in.Items {
		v.Items = append(v.Items, render.ProformaItem{
			SrNo:        i + 1,
			Description: strings.TrimSpace(it.Description),
			HSNSAC:      in.HSN,
			Qty:         it.Quantity.String(),
			Rate:        money(it.Rate),
			Per:         "unit",
			Amount:      money(t.Amounts[i]),
		})
	}
	return v
}

// DeleteDocument clears one document and sends the request back to intake,
// whatever state the other document is in.
func (s *documentService) DeleteDocument(ctx context.Context, id uuid.UUID, kind labtest.DocumentKind) (*labtest.TestRequest, error) {
	op := string(kind) + ".delete"
	if kind != labtest.DocumentROR && kind != labtest.DocumentProforma {
		return nil, domainagg.Validation("document.delete", "unknown document kind %q", kind)
	}
	return s.transition(ctx, op, id, func(r *labtest.TestRequest) error {
		r.Document(kind).Reset()
		r.Status = labtest.StatusIntakeEntered
		return nil
	})
}

func (s *documentService) MailDocuments(ctx context.Context, id uuid.UUID, cc []string) (*labtest.TestRequest, error) {
	const op = "documents.mail"
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.ROR.Generated() || !r.Proforma.Generated() {
		return nil, domainagg.Precondition(op, "both ROR and proforma must be generated before mailing")
	}
	ror, err := decodeBlob(op, r.ROR)
	if err != nil {
		return nil, err
	}
	proforma, err := decodeBlob(op, r.Proforma)
	if err != nil {
		return nil, err
	}
	body, err := render.HTML(render.TemplateMailDocs, render.MailView{ClientName: r.ClientName, RequestID: r.RequestID})
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "render mail body", err)
	}
	if err := s.mailer.Send(ctx, Mail{
		Kind:    "documents",
		To:      []string{r.Email},
		CC:      cc,
		Subject: fmt.Sprintf("Test Documents - %s", r.RequestID),
		HTML:    body,
		Attachments: []Attachment{
			{Filename: documentFilename(labtest.DocumentROR, r.RequestID), MIMEType: "application/pdf", Content: ror},
			{Filename: documentFilename(labtest.DocumentProforma, r.RequestID), MIMEType: "application/pdf", Content: proforma},
		},
	}); err != nil {
		return nil, domainagg.Dependency(op, err)
	}
	return s.transition(ctx, op, id, func(r *labtest.TestRequest) error {
		r.Status = labtest.StatusDocumentsMailed
		return nil
	})
}

func (s *documentService) Document(ctx context.Context, id uuid.UUID, kind labtest.DocumentKind) (*DocumentFile, error) {
	op := string(kind) + ".download"
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc := r.Document(kind)
	if doc == nil {
		return nil, domainagg.Validation("document.download", "unknown document kind %q", kind)
	}
	if !doc.Generated() {
		return nil, domainagg.NotFound(op, "%s has not been generated for %s", kind, r.RequestID)
	}
	content, err := decodeBlob(op, *doc)
	if err != nil {
		return nil, err
	}
	return &DocumentFile{Filename: documentFilename(kind, r.RequestID), Content: content}, nil
}

func (s *documentService) transition(ctx context.Context, op string, id uuid.UUID, mutate labtest.MutateFunc) (*labtest.TestRequest, error) {
	out, err := s.store.Update(ctx, op, id, mutate)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(op, string(out.Status))
	return out, nil
}

func documentFilename(kind labtest.DocumentKind, requestID string) string {
	prefix := "ROR"
	if kind == labtest.DocumentProforma {
		prefix = "Proforma"
	}
	return prefix + "_" + FileSafe(requestID) + ".pdf"
}

func decodeBlob(op string, d labtest.Document) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(d.BlobRef)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "stored document is not valid base64", err)
	}
	return b, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
