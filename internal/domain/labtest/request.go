package labtest

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TestRequest is the aggregate root: one client request holding ordered sub-tests.
type TestRequest struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SequenceNumber int64     `gorm:"column:sequence_number;uniqueIndex;not null" json:"sequence_number"`

	ClientID   uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id" validate:"required"`
	ClientName string    `gorm:"column:client_name" json:"client_name"`
	ContactNo  string    `gorm:"column:contact_no;not null" json:"contact_no" validate:"required"`
	Email      string    `gorm:"column:email;not null" json:"email" validate:"required,email"`
	Address    string    `gorm:"column:address;not null" json:"address" validate:"required"`

	RequestID      string `gorm:"column:request_id;uniqueIndex;not null" json:"request_id" validate:"required,request_id"`
	RequestDate    string `gorm:"column:request_date;not null" json:"request_date" validate:"required,ymd_date"`
	CompletionDate string `gorm:"column:completion_date" json:"completion_date,omitempty" validate:"omitempty,ymd_date"`

	SubTests     datatypes.JSONSlice[SubTest] `gorm:"column:sub_tests" json:"sub_tests" validate:"dive"`
	Requirements Requirements                 `gorm:"embedded;embeddedPrefix:req_" json:"requirements"`

	MaterialReceived bool `gorm:"column:material_received;not null;default:false" json:"material_received"`
	PaymentReceived  bool `gorm:"column:payment_received;not null;default:false" json:"payment_received"`

	RequiredDepartments datatypes.JSONSlice[Department] `gorm:"column:required_departments" json:"required_departments"`
	JobCards            datatypes.JSONSlice[JobCard]    `gorm:"column:job_cards" json:"job_cards"`

	ROR      Document `gorm:"embedded;embeddedPrefix:ror_" json:"ror"`
	Proforma Document `gorm:"embedded;embeddedPrefix:proforma_" json:"proforma"`

	Status       Status       `gorm:"column:status;index;not null" json:"status"`
	ReportStatus ReportStatus `gorm:"column:report_status;not null;default:0" json:"report_status"`

	Version   int       `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TestRequest) TableName() string { return "test_request" }

// Requirements is the intake questionnaire. Advisory only.
type Requirements struct {
	TestMethods            bool `gorm:"column:test_methods" json:"test_methods"`
	LaboratoryCapability   bool `gorm:"column:laboratory_capability" json:"laboratory_capability"`
	AppropriateTestMethods bool `gorm:"column:appropriate_test_methods" json:"appropriate_test_methods"`
	DecisionRule           bool `gorm:"column:decision_rule" json:"decision_rule"`
	ExternalProvider       bool `gorm:"column:external_provider" json:"external_provider"`
}

// ReportStatus mirrors the overall report approval sub-flow.
type ReportStatus int

const (
	ReportStatusNone     ReportStatus = 0
	ReportStatusPending  ReportStatus = 1
	ReportStatusApproved ReportStatus = 2
	ReportStatusRejected ReportStatus = 3
)

type JobCardStatus int

const (
	JobCardPending  JobCardStatus = 0
	JobCardApproved JobCardStatus = 1
	JobCardRejected JobCardStatus = 2
)

type JobCard struct {
	Department Department    `json:"department"`
	Status     JobCardStatus `json:"status"`
	AssignedTo string        `json:"assigned_to,omitempty"`
	Remark     string        `json:"remark"`
	UpdatedAt  *time.Time    `json:"updated_at,omitempty"`
}

// Document is the generated-artifact state of the ROR or the Proforma.
// BlobRef holds the base64 PDF and is served through the download endpoints.
type Document struct {
	StatusFlag  int        `gorm:"column:status;not null;default:0" json:"status"`
	Number      string     `gorm:"column:number" json:"number,omitempty"`
	BlobRef     string     `gorm:"column:blob;type:text" json:"-"`
	GeneratedAt *time.Time `gorm:"column:generated_at" json:"generated_at,omitempty"`
}

func (d Document) Generated() bool { return d.StatusFlag == 1 && d.BlobRef != "" }

func (d *Document) Reset() {
	*d = Document{}
}

type DocumentKind string

const (
	DocumentROR      DocumentKind = "ror"
	DocumentProforma DocumentKind = "proforma"
)

// FindSubTest returns the index of the sub-test addressed by key, or -1.
func (r *TestRequest) FindSubTest(key SubTestKey) int {
	for i, st := range r.SubTests {
		if key.Matches(st) {
			return i
		}
	}
	return -1
}

// JobCard returns the card for dept, or nil.
func (r *TestRequest) JobCard(dept Department) *JobCard {
	for i := range r.JobCards {
		if r.JobCards[i].Department == dept {
			return &r.JobCards[i]
		}
	}
	return nil
}

func (r *TestRequest) HasDepartment(dept Department) bool {
	for _, d := range r.RequiredDepartments {
		if d == dept {
			return true
		}
	}
	return false
}

// AllJobCardsApproved is true when every required department has an approved card.
func (r *TestRequest) AllJobCardsApproved() bool {
	if len(r.RequiredDepartments) == 0 {
		return false
	}
	for _, d := range r.RequiredDepartments {
		jc := r.JobCard(d)
		if jc == nil || jc.Status != JobCardApproved {
			return false
		}
	}
	return true
}

// AllSubTests reports whether pred holds for every sub-test. False when there are none.
func (r *TestRequest) AllSubTests(pred func(SubTest) bool) bool {
	if len(r.SubTests) == 0 {
		return false
	}
	for _, st := range r.SubTests {
		if !pred(st) {
			return false
		}
	}
	return true
}

func (r *TestRequest) AtlIDs() []string {
	out := make([]string, 0, len(r.SubTests))
	for _, st := range r.SubTests {
		out = append(out, st.AtlID)
	}
	return out
}

func (r *TestRequest) Document(kind DocumentKind) *Document {
	switch kind {
	case DocumentROR:
		return &r.ROR
	case DocumentProforma:
		return &r.Proforma
	default:
		return nil
	}
}
