package labtest

import (
	"encoding/json"
	"errors"
	"strings"
)

// SubTest is one material/test-type line item of a TestRequest. It has no
// identity outside its request; callers address it with a SubTestKey.
type SubTest struct {
	AtlID          string         `json:"atl_id" validate:"required,atl_id"`
	Material       string         `json:"material" validate:"required"`
	MaterialID     string         `json:"material_id" validate:"required"`
	Date           string         `json:"date" validate:"required,ymd_date"`
	Quantity       string         `json:"quantity" validate:"required"`
	TestType       string         `json:"test_type" validate:"required"`
	Measurements   []Measurement  `json:"measurements" validate:"dive"`
	EquipmentTable string         `json:"equipment_table,omitempty"`
	ResultTable    string         `json:"result_table,omitempty"`
	ReportHTML     string         `json:"report_html,omitempty"`
	FromDate       string         `json:"from_date,omitempty" validate:"omitempty,ymd_date"`
	ToDate         string         `json:"to_date,omitempty" validate:"omitempty,ymd_date"`
	ResultStatus   ResultStatus   `json:"result_status"`
	ResultRemark   string         `json:"result_remark,omitempty"`
	ReportApproval ReportApproval `json:"report_approval"`
	ReportMailed   bool           `json:"report_mailed"`
}

// Measurement is a single test entry; Values is a schema-free payload.
type Measurement struct {
	Name     string          `json:"test" validate:"required"`
	Standard string          `json:"standard" validate:"required"`
	Result   string          `json:"test_result,omitempty"`
	Unit     string          `json:"unit,omitempty"`
	Values   json.RawMessage `json:"test_values,omitempty"`
}

func (s SubTest) Department() (Department, bool) { return DepartmentOf(s.TestType) }

func (s SubTest) HasTables() bool {
	return strings.TrimSpace(s.EquipmentTable) != "" && strings.TrimSpace(s.ResultTable) != ""
}

func (s SubTest) HasReport() bool { return strings.TrimSpace(s.ReportHTML) != "" }

type ResultStatus string

const (
	ResultPending         ResultStatus = "Pending"
	ResultSentForApproval ResultStatus = "Sent for Approval"
	ResultApproved        ResultStatus = "Results Approved"
	ResultRejected        ResultStatus = "Results Rejected"
)

type ApprovalState string

const (
	ApprovalNotSent         ApprovalState = "not_sent"
	ApprovalSentForApproval ApprovalState = "sent_for_approval"
	ApprovalApproved        ApprovalState = "approved"
	ApprovalRejected        ApprovalState = "rejected"
)

// ReportApproval is the per-report approval state. Only Rejected carries a remark.
type ReportApproval struct {
	State  ApprovalState
	Remark string
}

func ReportNotSent() ReportApproval         { return ReportApproval{State: ApprovalNotSent} }
func ReportSentForApproval() ReportApproval { return ReportApproval{State: ApprovalSentForApproval} }
func ReportApproved() ReportApproval        { return ReportApproval{State: ApprovalApproved} }
func ReportRejected(remark string) ReportApproval {
	return ReportApproval{State: ApprovalRejected, Remark: strings.TrimSpace(remark)}
}

func (a ReportApproval) normalized() ApprovalState {
	if a.State == "" {
		return ApprovalNotSent
	}
	return a.State
}

func (a ReportApproval) Is(state ApprovalState) bool { return a.normalized() == state }

// CanSend is true for reports never sent or sent back with a rejection.
func (a ReportApproval) CanSend() bool {
	s := a.normalized()
	return s == ApprovalNotSent || s == ApprovalRejected
}

// Code is the legacy integer form: -1 rejected, 0 not sent, 1 sent, 2 approved.
func (a ReportApproval) Code() int {
	switch a.normalized() {
	case ApprovalRejected:
		return -1
	case ApprovalSentForApproval:
		return 1
	case ApprovalApproved:
		return 2
	default:
		return 0
	}
}

type reportApprovalJSON struct {
	State  ApprovalState `json:"state"`
	Code   int           `json:"code"`
	Remark string        `json:"remark,omitempty"`
}

func (a ReportApproval) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportApprovalJSON{State: a.normalized(), Code: a.Code(), Remark: a.Remark})
}

func (a *ReportApproval) UnmarshalJSON(b []byte) error {
	var raw reportApprovalJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch raw.State {
	case "":
		*a = approvalFromCode(raw.Code, raw.Remark)
	case ApprovalNotSent, ApprovalSentForApproval, ApprovalApproved, ApprovalRejected:
		*a = ReportApproval{State: raw.State, Remark: raw.Remark}
	default:
		return errors.New("unknown report approval state " + string(raw.State))
	}
	return nil
}

func approvalFromCode(code int, remark string) ReportApproval {
	switch code {
	case -1:
		return ReportRejected(remark)
	case 1:
		return ReportSentForApproval()
	case 2:
		return ReportApproved()
	default:
		return ReportNotSent()
	}
}

// SubTestKey addresses a SubTest. All three parts are required.
type SubTestKey struct {
	AtlID    string `json:"atl_id"`
	TestType string `json:"test_type"`
	Material string `json:"material"`
}

func (k SubTestKey) Validate() error {
	var missing []string
	if strings.TrimSpace(k.AtlID) == "" {
		missing = append(missing, "atl_id")
	}
	if strings.TrimSpace(k.TestType) == "" {
		missing = append(missing, "test_type")
	}
	if strings.TrimSpace(k.Material) == "" {
		missing = append(missing, "material")
	}
	if len(missing) > 0 {
		return errors.New("missing sub-test key fields: " + strings.Join(missing, ", "))
	}
	return nil
}

func (k SubTestKey) Matches(s SubTest) bool {
	return s.AtlID == strings.TrimSpace(k.AtlID) &&
		s.TestType == strings.TrimSpace(k.TestType) &&
		s.Material == strings.TrimSpace(k.Material)
}

func (k SubTestKey) String() string {
	return k.AtlID + " / " + k.TestType + " / " + k.Material
}
