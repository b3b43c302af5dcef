package labtest

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
)

// MutateFunc edits a freshly loaded aggregate in place. Returning an error
// aborts the write.
type MutateFunc func(req *TestRequest) error

// Store is the write boundary for TestRequest aggregates.
type Store interface {
	domainagg.Aggregate

	Create(ctx context.Context, draft *TestRequest) (*TestRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*TestRequest, error)
	List(ctx context.Context, filter Filter, sort Sort) ([]*TestRequest, error)
	// Update reloads the aggregate, applies mutate and persists the whole
	// record guarded by its version. op labels the write in logs and metrics.
	Update(ctx context.Context, op string, id uuid.UUID, mutate MutateFunc) (*TestRequest, error)
	Patch(ctx context.Context, id uuid.UUID, patch IntakePatch) (*TestRequest, error)

	NextAtlSequence(ctx context.Context, yy, mm string) (int, error)
	NextRequestSequence(ctx context.Context, yy, mm string) (int, error)
}

// IntakePatch carries receptionist edits. Nil fields are left alone.
type IntakePatch struct {
	ClientName       *string       `json:"client_name"`
	ContactNo        *string       `json:"contact_no"`
	Email            *string       `json:"email"`
	Address          *string       `json:"address"`
	RequestDate      *string       `json:"request_date"`
	CompletionDate   *string       `json:"completion_date"`
	MaterialReceived *bool         `json:"material_received"`
	PaymentReceived  *bool         `json:"payment_received"`
	Requirements     *Requirements `json:"requirements"`
	SubTests         []SubTest     `json:"sub_tests"`
}

// Apply copies the set fields onto r. Sub-tests can only be replaced while no
// job card or department routing exists, and a replacement may not reorder
// the sub-tests already on the request. Required departments are never
// touched here.
func (p IntakePatch) Apply(r *TestRequest) error {
	const op = "labtest.patch"
	if p.SubTests != nil {
		if SubTestsFrozen(r) {
			return domainagg.Precondition(op, "sub-tests are frozen once job cards are created (status %q)", r.Status)
		}
		if !preservesOrder(r.SubTests, p.SubTests) {
			return domainagg.Precondition(op, "sub-tests may be added or removed but not reordered")
		}
	}
	setString(&r.ClientName, p.ClientName)
	setString(&r.ContactNo, p.ContactNo)
	if p.Email != nil {
		r.Email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	setString(&r.Address, p.Address)
	setString(&r.RequestDate, p.RequestDate)
	setString(&r.CompletionDate, p.CompletionDate)
	if p.MaterialReceived != nil {
		r.MaterialReceived = *p.MaterialReceived
	}
	if p.PaymentReceived != nil {
		r.PaymentReceived = *p.PaymentReceived
	}
	if p.Requirements != nil {
		r.Requirements = *p.Requirements
	}
	if p.SubTests != nil {
		r.SubTests = IntakeSubTests(p.SubTests)
	}
	return nil
}

// SubTestsFrozen reports whether the sub-test list is pinned by job cards.
// Deleting the ROR rewinds the status but leaves the cards, so both the
// cards and the routing are checked alongside the rank.
func SubTestsFrozen(r *TestRequest) bool {
	return len(r.JobCards) > 0 ||
		len(r.RequiredDepartments) > 0 ||
		r.Status.Rank() >= StatusJobCardCreated.Rank()
}

// preservesOrder holds when the sub-tests kept from old appear in the same
// relative order in next, with any new ones after them.
func preservesOrder(old, next []SubTest) bool {
	pos := make(map[SubTestKey]int, len(old))
	for i, st := range old {
		pos[keyOf(st)] = i
	}
	last, seenNew := -1, false
	for _, st := range next {
		i, kept := pos[keyOf(st)]
		if !kept {
			seenNew = true
			continue
		}
		if seenNew || i < last {
			return false
		}
		last = i
	}
	return true
}

func keyOf(st SubTest) SubTestKey {
	return SubTestKey{
		AtlID:    strings.TrimSpace(st.AtlID),
		TestType: strings.TrimSpace(st.TestType),
		Material: strings.TrimSpace(st.Material),
	}
}

// IntakeSubTests accepts sub-tests from the front desk. Identifying fields are
// trimmed; results, tables, report and approval state are reset because only
// the workflow may set them.
func IntakeSubTests(in []SubTest) []SubTest {
	out := make([]SubTest, len(in))
	for i, st := range in {
		measurements := make([]Measurement, len(st.Measurements))
		for j, m := range st.Measurements {
			m.Name = strings.TrimSpace(m.Name)
			m.Result = ""
			measurements[j] = m
		}
		out[i] = SubTest{
			AtlID:          strings.TrimSpace(st.AtlID),
			Material:       strings.TrimSpace(st.Material),
			MaterialID:     strings.TrimSpace(st.MaterialID),
			Date:           st.Date,
			Quantity:       st.Quantity,
			TestType:       strings.TrimSpace(st.TestType),
			Measurements:   measurements,
			ResultStatus:   ResultPending,
			ReportApproval: ReportNotSent(),
		}
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
