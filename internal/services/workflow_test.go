package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/labflow-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
)

func TestWorkflowHappyPathTwoDepartments(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)
	cement, steel := keyOf(r.SubTests[0]), keyOf(r.SubTests[1])

	r, err := l.workflow.CreateJobCards(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusJobCardCreated, r.Status)
	assert.Equal(t, []labtest.Department{labtest.DepartmentChemical, labtest.DepartmentMechanical}, []labtest.Department(r.RequiredDepartments))
	require.Len(t, r.JobCards, 2)

	r, err = l.workflow.SendJobCardsForApproval(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusJobCardSentForApproval, r.Status)
	require.Len(t, l.notifier.notices, 1)
	assert.Len(t, l.notifier.notices[0].Departments, 2)

	r, err = l.workflow.ApproveJobCard(ctx, r.ID, labtest.DepartmentChemical, "tester-a", "")
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusJobCardSentForApproval, r.Status, "one approval is not enough")
	r, err = l.workflow.ApproveJobCard(ctx, r.ID, labtest.DepartmentMechanical, "tester-b", "ok")
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusJobCardsAssigned, r.Status)
	assert.Equal(t, "tester-b", r.JobCard(labtest.DepartmentMechanical).AssignedTo)

	_, err = l.workflow.SubmitResult(ctx, r.ID, cement, nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodePreconditionFailed), "tables are required: %v", err)

	for _, k := range []labtest.SubTestKey{cement, steel} {
		_, err = l.workflow.UploadReport(ctx, r.ID, k, ReportArtifacts{
			ReportHTML:     "<p>report " + k.AtlID + "</p>",
			EquipmentTable: "<table><tr><td>UTM</td></tr></table>",
			ResultTable:    "<table><tr><td>ok</td></tr></table>",
			FromDate:       "2024-05-03",
			ToDate:         "2024-05-06",
		})
		require.NoError(t, err)
	}
	r, err = l.workflow.SubmitResult(ctx, r.ID, cement, []labtest.Measurement{{Name: "Loss on ignition", Result: "2.1", Unit: "%"}})
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusJobCardsAssigned, r.Status, "submitting a result leaves the overall status alone")
	assert.Equal(t, labtest.ResultSentForApproval, r.SubTests[0].ResultStatus)
	assert.Equal(t, "2.1", r.SubTests[0].Measurements[0].Result)
	_, err = l.workflow.SubmitResult(ctx, r.ID, steel, nil)
	require.NoError(t, err)

	r, err = l.workflow.ApproveResult(ctx, r.ID, cement)
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusJobCardsAssigned, r.Status)
	r, err = l.workflow.ApproveResult(ctx, r.ID, steel)
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusReportGenerated, r.Status)

	for _, k := range []labtest.SubTestKey{cement, steel} {
		r, err = l.workflow.SendReportForApproval(ctx, r.ID, k)
		require.NoError(t, err)
	}
	assert.Equal(t, labtest.StatusReportSentForApproval, r.Status)
	assert.Equal(t, labtest.ReportStatusPending, r.ReportStatus)

	for _, k := range []labtest.SubTestKey{cement, steel} {
		r, err = l.workflow.ApproveReport(ctx, r.ID, k)
		require.NoError(t, err)
	}
	assert.Equal(t, labtest.StatusReportApproved, r.Status)
	assert.Equal(t, labtest.ReportStatusApproved, r.ReportStatus)

	r, err = l.workflow.MailReport(ctx, r.ID, cement, []string{"qa@lab.test"})
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusReportApproved, r.Status, "steel report not mailed yet")
	assert.True(t, r.SubTests[0].ReportMailed)
	r, err = l.workflow.MailReport(ctx, r.ID, steel, nil)
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusReportMailed, r.Status)

	require.Equal(t, 2, l.mailer.count())
	first := l.mailer.sent[0]
	assert.Equal(t, "Test Report - ATL/24/05/1", first.Subject)
	assert.Equal(t, []string{"site@builder.test"}, first.To)
	require.Len(t, first.Attachments, 1)
	assert.Equal(t, "Report_ATL_24_05_1.pdf", first.Attachments[0].Filename)
	assert.Contains(t, l.printer.Last(), "report ATL/24/05/2")
	assert.Equal(t, []string{"reports/24/05/Report_ATL_24_05_1.pdf", "reports/24/05/Report_ATL_24_05_2.pdf"}, l.archive.keys)

	r, err = l.workflow.Complete(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusCompleted, r.Status)
}

func TestJobCardValidation(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)

	_, err := l.workflow.ApproveJobCard(ctx, r.ID, labtest.Department("civil"), "x", "")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
	_, err = l.workflow.ApproveJobCard(ctx, r.ID, labtest.DepartmentChemical, "  ", "")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
	_, err = l.workflow.ApproveJobCard(ctx, r.ID, labtest.DepartmentChemical, "tester-a", "")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "no cards yet: %v", err)

	_, err = l.workflow.CreateJobCards(ctx, r.ID)
	require.NoError(t, err)
	got, err := l.workflow.RejectJobCard(ctx, r.ID, labtest.DepartmentMechanical, "wrong sample")
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusJobCardRejected, got.Status)
	assert.Equal(t, labtest.JobCardRejected, got.JobCard(labtest.DepartmentMechanical).Status)
	assert.Equal(t, "wrong sample", got.JobCard(labtest.DepartmentMechanical).Remark)
}

func TestRejectWithoutRemarkPersistsNothing(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)
	key := keyOf(r.SubTests[0])

	_, err := l.workflow.RejectResult(ctx, r.ID, key, "   ")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
	_, err = l.workflow.RejectReport(ctx, r.ID, key, "")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))

	got, err := l.store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Version, got.Version)
	assert.Equal(t, labtest.StatusIntakeEntered, got.Status)
}

func TestRejectResultKeepsRemark(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)

	got, err := l.workflow.RejectResult(ctx, r.ID, keyOf(r.SubTests[1]), " redo tensile ")
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusResultsRejected, got.Status)
	assert.Equal(t, labtest.ResultRejected, got.SubTests[1].ResultStatus)
	assert.Equal(t, "redo tensile", got.SubTests[1].ResultRemark)
}

func TestReportRejectionAndResend(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)
	key := keyOf(r.SubTests[0])

	_, err := l.workflow.SendReportForApproval(ctx, r.ID, key)
	assert.True(t, domainagg.IsCode(err, domainagg.CodePreconditionFailed), "no report yet: %v", err)

	_, err = l.workflow.UploadReport(ctx, r.ID, key, ReportArtifacts{ReportHTML: "<p>r</p>"})
	require.NoError(t, err)
	_, err = l.workflow.SendReportForApproval(ctx, r.ID, key)
	require.NoError(t, err)
	_, err = l.workflow.SendReportForApproval(ctx, r.ID, key)
	assert.True(t, domainagg.IsCode(err, domainagg.CodePreconditionFailed), "already sent: %v", err)

	got, err := l.workflow.RejectReport(ctx, r.ID, key, "fix units")
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusReportRejected, got.Status)
	assert.Equal(t, labtest.ReportStatusRejected, got.ReportStatus)
	assert.True(t, got.SubTests[0].ReportApproval.Is(labtest.ApprovalRejected))
	assert.Equal(t, "fix units", got.SubTests[0].ReportApproval.Remark)

	_, err = l.workflow.SendReportForApproval(ctx, r.ID, key)
	require.NoError(t, err, "rejected reports can be resent")
}

func TestMailReportRequiresApproval(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)
	key := keyOf(r.SubTests[0])
	_, err := l.workflow.UploadReport(ctx, r.ID, key, ReportArtifacts{ReportHTML: "<p>r</p>"})
	require.NoError(t, err)

	_, err = l.workflow.MailReport(ctx, r.ID, key, nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodePreconditionFailed))
	assert.Zero(t, l.mailer.count())
}

func TestMailFailureLeavesRequestUntouched(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)
	key := keyOf(r.SubTests[0])
	_, err := l.workflow.UploadReport(ctx, r.ID, key, ReportArtifacts{ReportHTML: "<p>r</p>"})
	require.NoError(t, err)
	_, err = l.workflow.SendReportForApproval(ctx, r.ID, key)
	require.NoError(t, err)
	before, err := l.workflow.ApproveReport(ctx, r.ID, key)
	require.NoError(t, err)

	l.mailer.err = errors.New("smtp down")
	_, err = l.workflow.MailReport(ctx, r.ID, key, nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeDependency))

	got, err := l.store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Version, got.Version)
	assert.False(t, got.SubTests[0].ReportMailed)
	assert.Empty(t, l.archive.keys)
}

func TestCompleteRequiresMailedReport(t *testing.T) {
	l := newLab(t)
	r := l.newRequest(t)
	_, err := l.workflow.Complete(context.Background(), r.ID)
	assert.True(t, domainagg.IsCode(err, domainagg.CodePreconditionFailed))
}

func TestUnknownSubTest(t *testing.T) {
	l := newLab(t)
	r := l.newRequest(t)
	_, err := l.workflow.ApproveResult(context.Background(), r.ID, labtest.SubTestKey{AtlID: "ATL/24/05/9", TestType: "CHEMICAL", Material: "Cement"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))
	_, err = l.workflow.ApproveResult(context.Background(), r.ID, labtest.SubTestKey{AtlID: "ATL/24/05/1"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
}

func TestUpdateTablesAndReceiptFlags(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)
	key := keyOf(r.SubTests[0])

	blankTable := " "
	_, err := l.workflow.UpdateTables(ctx, r.ID, key, TableUpdate{EquipmentTable: &blankTable})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))

	eq := "<table>eq</table>"
	got, err := l.workflow.UpdateTables(ctx, r.ID, key, TableUpdate{EquipmentTable: &eq})
	require.NoError(t, err)
	assert.Equal(t, eq, got.SubTests[0].EquipmentTable)
	assert.Equal(t, labtest.StatusIntakeEntered, got.Status)

	_, err = l.workflow.SetReceiptFlags(ctx, r.ID, nil, nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
	yes := true
	got, err = l.workflow.SetReceiptFlags(ctx, r.ID, nil, &yes)
	require.NoError(t, err)
	assert.True(t, got.PaymentReceived)
	assert.False(t, got.MaterialReceived)
	assert.Equal(t, labtest.StatusIntakeEntered, got.Status)
}

// forgedDraft claims an approved, ready-to-mail report at intake.
func forgedDraft(clientID uuid.UUID) *labtest.TestRequest {
	d := testutil.Draft(clientID)
	st := &d.SubTests[0]
	st.ResultStatus = labtest.ResultApproved
	st.ResultRemark = "looks fine"
	st.ReportApproval = labtest.ReportApproved()
	st.ReportHTML = "<p>forged</p>"
	st.EquipmentTable = "<table>eq</table>"
	st.ResultTable = "<table>res</table>"
	return d
}

func TestIntakeCannotForgeApprovedReport(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	c := testutil.SeedClient(t, ctx, l.db, "forge@builder.test")

	r, err := l.intake.Create(ctx, forgedDraft(c.ID))
	require.NoError(t, err)
	st := r.SubTests[0]
	assert.Equal(t, labtest.ResultPending, st.ResultStatus)
	assert.Empty(t, st.ResultRemark)
	assert.True(t, st.ReportApproval.Is(labtest.ApprovalNotSent))
	assert.False(t, st.ReportMailed)
	assert.Empty(t, st.ReportHTML)
	assert.Empty(t, st.EquipmentTable)
	assert.Empty(t, st.ResultTable)

	_, err = l.workflow.MailReport(ctx, r.ID, keyOf(st), nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodePreconditionFailed), "got %v", err)

	// the same forgery through a patch
	patched, err := l.intake.Patch(ctx, r.ID, labtest.IntakePatch{SubTests: forgedDraft(c.ID).SubTests})
	require.NoError(t, err)
	assert.True(t, patched.SubTests[0].ReportApproval.Is(labtest.ApprovalNotSent))
	assert.Empty(t, patched.SubTests[0].ReportHTML)
	_, err = l.workflow.MailReport(ctx, r.ID, keyOf(patched.SubTests[0]), nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodePreconditionFailed), "got %v", err)

	assert.Zero(t, l.mailer.count())
}

func TestSubTestsStayFrozenAfterRORDelete(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)

	_, err := l.workflow.CreateJobCards(ctx, r.ID)
	require.NoError(t, err)
	_, err = l.docs.GenerateROR(ctx, r.ID, RORInput{CompletionDate: "2024-05-31"})
	require.NoError(t, err)
	r, err = l.docs.DeleteDocument(ctx, r.ID, labtest.DocumentROR)
	require.NoError(t, err)
	require.Equal(t, labtest.StatusIntakeEntered, r.Status)

	reversed := []labtest.SubTest{r.SubTests[1], r.SubTests[0]}
	_, err = l.intake.Patch(ctx, r.ID, labtest.IntakePatch{SubTests: reversed})
	assert.True(t, domainagg.IsCode(err, domainagg.CodePreconditionFailed), "got %v", err)

	got, err := l.store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "ATL/24/05/1", got.SubTests[0].AtlID)
	assert.Equal(t, r.Version, got.Version)
}

func TestJobCardsWithoutDepartments(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	c := testutil.SeedClient(t, ctx, l.db, "soil@builder.test")
	d := testutil.Draft(c.ID)
	for i := range d.SubTests {
		d.SubTests[i].TestType = "Civil - Soil"
	}
	r, err := l.intake.Create(ctx, d)
	require.NoError(t, err)

	r, err = l.workflow.CreateJobCards(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusJobCardCreated, r.Status)
	assert.Empty(t, r.RequiredDepartments)
	assert.Empty(t, r.JobCards)

	r, err = l.workflow.SendJobCardsForApproval(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusJobCardSentForApproval, r.Status)
	assert.Empty(t, l.notifier.notices)
}

// approvedReport uploads, sends and approves the report of key.
func (l *lab) approvedReport(t *testing.T, id uuid.UUID, key labtest.SubTestKey) {
	t.Helper()
	ctx := context.Background()
	_, err := l.workflow.UploadReport(ctx, id, key, ReportArtifacts{ReportHTML: "<p>" + key.AtlID + "</p>"})
	require.NoError(t, err)
	_, err = l.workflow.SendReportForApproval(ctx, id, key)
	require.NoError(t, err)
	_, err = l.workflow.ApproveReport(ctx, id, key)
	require.NoError(t, err)
}

func TestApproveOneRejectOtherIsRejected(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)
	a, b := keyOf(r.SubTests[0]), keyOf(r.SubTests[1])

	l.approvedReport(t, r.ID, a)
	_, err := l.workflow.UploadReport(ctx, r.ID, b, ReportArtifacts{ReportHTML: "<p>b</p>"})
	require.NoError(t, err)
	_, err = l.workflow.SendReportForApproval(ctx, r.ID, b)
	require.NoError(t, err)

	got, err := l.workflow.RejectReport(ctx, r.ID, b, "wrong standard")
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusReportRejected, got.Status)
	assert.Equal(t, labtest.ReportStatusRejected, got.ReportStatus)
	assert.True(t, got.SubTests[0].ReportApproval.Is(labtest.ApprovalApproved))
}

func TestMailingOnlyApprovedReportMarksMailed(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	r := l.newRequest(t)
	a := keyOf(r.SubTests[0])

	l.approvedReport(t, r.ID, a)
	got, err := l.workflow.MailReport(ctx, r.ID, a, nil)
	require.NoError(t, err)
	assert.Equal(t, labtest.StatusReportMailed, got.Status, "an unapproved sibling does not hold the request back")
	assert.True(t, got.SubTests[0].ReportMailed)
	assert.False(t, got.SubTests[1].ReportMailed)
}
