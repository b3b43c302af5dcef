package labtest

// Status is the authoritative top-level workflow state of a TestRequest.
// Values are persisted verbatim and shown to users.
type Status string

const (
	StatusIntakeEntered          Status = "Test Data Entered"
	StatusRORGenerated           Status = "ROR Generated"
	StatusProformaGenerated      Status = "Proforma Generated"
	StatusDocumentsMailed        Status = "ROR and Proforma Mailed to Client"
	StatusJobCardCreated         Status = "Job Card Created"
	StatusJobCardSentForApproval Status = "Job Card Sent for Approval"
	StatusJobCardsAssigned       Status = "Job Assigned to Testers"
	StatusResultsEntered         Status = "Test Values Added"
	StatusResultsApproved        Status = "Test Values Approved"
	StatusReportGenerated        Status = "Report Generated"
	StatusReportSentForApproval  Status = "Report Sent for Approval"
	StatusReportApproved         Status = "Report Approved"
	StatusReportMailed           Status = "Report Mailed to Client"
	StatusCompleted              Status = "Completed"

	StatusJobCardRejected Status = "Job Card Rejected"
	StatusResultsRejected Status = "Test Values Rejected"
	StatusReportRejected  Status = "Report Rejected"
)

var ladder = []Status{
	StatusIntakeEntered,
	StatusRORGenerated,
	StatusProformaGenerated,
	StatusDocumentsMailed,
	StatusJobCardCreated,
	StatusJobCardSentForApproval,
	StatusJobCardsAssigned,
	StatusResultsEntered,
	StatusResultsApproved,
	StatusReportGenerated,
	StatusReportSentForApproval,
	StatusReportApproved,
	StatusReportMailed,
	StatusCompleted,
}

// Rework states rank at the approval step they branch from.
var sideBranches = map[Status]Status{
	StatusJobCardRejected: StatusJobCardSentForApproval,
	StatusResultsRejected: StatusResultsEntered,
	StatusReportRejected:  StatusReportSentForApproval,
}

var ranks = func() map[Status]int {
	m := make(map[Status]int, len(ladder)+len(sideBranches))
	for i, s := range ladder {
		m[s] = i
	}
	for side, from := range sideBranches {
		m[side] = m[from]
	}
	return m
}()

// Rank is the ladder position, or -1 for an unknown status.
func (s Status) Rank() int {
	if r, ok := ranks[s]; ok {
		return r
	}
	return -1
}

func (s Status) Valid() bool { return s.Rank() >= 0 }

func (s Status) IsRework() bool {
	_, ok := sideBranches[s]
	return ok
}

// Statuses lists every known status, ladder first.
func Statuses() []Status {
	out := append([]Status(nil), ladder...)
	return append(out, StatusJobCardRejected, StatusResultsRejected, StatusReportRejected)
}

type Bucket string

const (
	BucketPending    Bucket = "pending"
	BucketInProgress Bucket = "in_progress"
	BucketCompleted  Bucket = "completed"
)

// Bucket groups a status for dashboards: Pending up to and including
// JobCardCreated, Completed only for Completed, InProgress in between.
func (s Status) Bucket() Bucket {
	switch {
	case s == StatusCompleted:
		return BucketCompleted
	case s.Rank() <= StatusJobCardCreated.Rank():
		return BucketPending
	default:
		return BucketInProgress
	}
}
