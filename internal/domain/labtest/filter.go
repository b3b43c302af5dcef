package labtest

import (
	"time"

	"github.com/google/uuid"
)

// Filter narrows TestRequest listings. Zero values mean "any".
type Filter struct {
	Statuses   []Status
	ClientID   uuid.UUID
	Department Department
	// ReportStates keeps requests with at least one sub-test report in one of these states.
	ReportStates []ApprovalState
	CreatedFrom  time.Time
	CreatedTo    time.Time
	Limit        int
	Offset       int
}

type SortField string

const (
	SortBySequence    SortField = "sequence_number"
	SortByRequestDate SortField = "request_date"
	SortByCreatedAt   SortField = "created_at"
	SortByUpdatedAt   SortField = "updated_at"
)

type Sort struct {
	Field SortField
	Desc  bool
}

func (s Sort) Column() string {
	switch s.Field {
	case SortByRequestDate, SortByCreatedAt, SortByUpdatedAt:
		return string(s.Field)
	default:
		return string(SortBySequence)
	}
}

// HasReportIn reports whether any sub-test report is in one of states.
func (r *TestRequest) HasReportIn(states ...ApprovalState) bool {
	for _, st := range r.SubTests {
		for _, s := range states {
			if st.ReportApproval.Is(s) {
				return true
			}
		}
	}
	return false
}

// Touches reports whether the request has a sub-test for dept.
func (r *TestRequest) Touches(dept Department) bool {
	if r.HasDepartment(dept) {
		return true
	}
	for _, st := range r.SubTests {
		if d, ok := st.Department(); ok && d == dept {
			return true
		}
	}
	return false
}
