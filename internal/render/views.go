package render

import "html/template"

// RORView feeds ror.html.
type RORView struct {
	RORNo          string
	Date           string
	CustomerName   string
	ProjectName    string
	SiteAddress    string
	BillingAddress string
	EmailID        string
	ContactNo      string
	Tests          []RORTestRow
	Requirements   []RequirementRow
	DaysRequired   string
}

type RORTestRow struct {
	SrNo       int
	Material   string
	Quantity   string
	Tests      []string
	MaterialID string
	AtlID      string
	Standards  []string
	Remarks    string
}

type RequirementRow struct {
	Label string
	Value bool
}

// ProformaView feeds proforma.html. Money fields are preformatted to two places.
type ProformaView struct {
	InvoiceNo          string
	Date               string
	Mode               string
	Destination        string
	DispatchedThrough  string
	DeliveryNote       string
	DeliveryNoteDate   string
	DispatchDocumentNo string
	BuyerOrderNo       string
	Dated              string
	SupplierRef        string
	OtherReferences    string
	Buyer              Buyer
	HSN                string
	Items              []ProformaItem
	TotalAmount        string
	SGSTPercent        string
	SGSTAmount         string
	CGSTPercent        string
	CGSTAmount         string
	TotalTax           string
	Rounding           string
	FinalAmount        string
	AmountInWords      string
	TaxInWords         string
}

type Buyer struct {
	Name    string
	Address string
	GSTIN   string
	PAN     string
}

type ProformaItem struct {
	SrNo        int
	Description string
	HSNSAC      string
	Qty         string
	Rate        string
	Per         string
	Amount      string
}

// ReportView wraps a stored report body with the verification QR. VerifyURL
// is what the QR encodes and is printed under it.
type ReportView struct {
	RequestID string
	AtlID     string
	Body      template.HTML
	QR        template.URL
	VerifyURL string
}

// EquipmentTableView feeds equipment_table.html.
type EquipmentTableView struct {
	Rows []EquipmentRow
}

type EquipmentRow struct {
	SrNo            int
	Name            string
	Range           string
	CertificateNo   string
	CalibrationDate string
	DueDate         string
	CalibratedBy    string
}

// OTPView feeds mail_otp.html.
type OTPView struct {
	Name         string
	Code         string
	ValidMinutes int
}

// MailView feeds the mail_*.html bodies.
type MailView struct {
	ClientName string
	RequestID  string
	AtlID      string
	Material   string
	TestType   string
	Headline   string
	Lines      []string
}
