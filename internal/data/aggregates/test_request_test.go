package aggregates

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/labflow-backend/internal/data/repos"
	"github.com/yungbote/labflow-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/client"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
)

func newStore(t *testing.T) (labtest.Store, *gorm.DB, *spyHooks) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	hooks := &spyHooks{}
	store := NewTestRequestAggregate(TestRequestAggregateDeps{
		Base:     BaseDeps{DB: db, Log: log, Hooks: hooks},
		Requests: repos.NewTestRequestRepo(db, log),
		Counter:  repos.NewCounterRepo(db, log),
		Clients:  repos.NewClientRepo(db, log),
	})
	return store, db, hooks
}

func draft(clientID uuid.UUID) *labtest.TestRequest {
	return &labtest.TestRequest{
		ClientID:    clientID,
		ContactNo:   "9876543210",
		Email:       "Site@Builder.test",
		Address:     "Plot 4, Ring Road",
		RequestDate: "2024-05-02",
		SubTests: []labtest.SubTest{
			{AtlID: "ATL/24/05/1", Material: "Cement", MaterialID: "C-1", Date: "2024-05-02", Quantity: "2 bags", TestType: "CHEMICAL"},
			{AtlID: "ATL/24/05/2", Material: "Steel", MaterialID: "S-1", Date: "2024-05-02", Quantity: "3 rods", TestType: "MECHANICAL-NDT"},
		},
	}
}

func TestCreateAssignsIdentifiersAndDefaults(t *testing.T) {
	store, db, _ := newStore(t)
	ctx := context.Background()
	c := &client.Client{ID: uuid.New(), Name: "Builder Co", Email: "b@builder.test"}
	require.NoError(t, db.Create(c).Error)

	got, err := store.Create(ctx, draft(c.ID))
	require.NoError(t, err)
	assert.Equal(t, "ATL/24/05/T_1", got.RequestID)
	assert.Equal(t, int64(1), got.SequenceNumber)
	assert.Equal(t, "Builder Co", got.ClientName)
	assert.Equal(t, "site@builder.test", got.Email)
	assert.Equal(t, labtest.StatusIntakeEntered, got.Status)
	assert.Equal(t, 1, got.Version)
	for _, st := range got.SubTests {
		assert.Equal(t, labtest.ResultPending, st.ResultStatus)
		assert.True(t, st.ReportApproval.Is(labtest.ApprovalNotSent))
	}

	second, err := store.Create(ctx, draft(c.ID))
	require.NoError(t, err)
	assert.Equal(t, "ATL/24/05/T_2", second.RequestID)
	assert.Equal(t, int64(2), second.SequenceNumber)
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	store, _, _ := newStore(t)
	in := draft(uuid.New())
	in.ClientName = "Walk-in"
	in.SubTests[1].AtlID = "ATL-24-05-2"

	_, err := store.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "got %v", err)
}

func TestCreateUnknownClientIsValidation(t *testing.T) {
	store, _, _ := newStore(t)
	_, err := store.Create(context.Background(), draft(uuid.New()))
	require.Error(t, err)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "got %v", err)
}

func TestSequenceNumbersAreUniqueUnderConcurrency(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	seqs := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := draft(uuid.New())
			in.ClientName = "Walk-in"
			in.RequestID = labtest.FormatRequestID("24", "05", 100+i)
			got, err := store.Create(ctx, in)
			if err == nil {
				seqs <- got.SequenceNumber
			}
		}(i)
	}
	wg.Wait()
	close(seqs)

	seen := map[int64]bool{}
	for s := range seqs {
		assert.False(t, seen[s], "duplicate sequence %d", s)
		seen[s] = true
	}
	assert.Len(t, seen, n)
}

func TestUpdateBumpsVersionAndKeepsIdentity(t *testing.T) {
	store, _, hooks := newStore(t)
	ctx := context.Background()
	in := draft(uuid.New())
	in.ClientName = "Walk-in"
	created, err := store.Create(ctx, in)
	require.NoError(t, err)

	updated, err := store.Update(ctx, "test_request.set_receipt_flags", created.ID, func(r *labtest.TestRequest) error {
		r.MaterialReceived = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.True(t, updated.MaterialReceived)

	reloaded, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.MaterialReceived)
	assert.Equal(t, 2, reloaded.Version)

	_, err = store.Update(ctx, "test_request.rename", created.ID, func(r *labtest.TestRequest) error {
		r.RequestID = "ATL/24/05/T_99"
		return nil
	})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "got %v", err)

	require.NotEmpty(t, hooks.Operations)
	assert.Equal(t, "test_request.set_receipt_flags", hooks.Operations[1].Name)
	assert.Equal(t, "success", hooks.Operations[1].Status)
}

// racingRepo bumps the stored version right after each read, standing in for
// a writer that commits between our read and our write.
type racingRepo struct {
	repos.TestRequestRepo
}

func (r racingRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*labtest.TestRequest, error) {
	row, err := r.TestRequestRepo.GetByID(ctx, tx, id)
	if err != nil || tx == nil {
		return row, err
	}
	return row, tx.Exec("UPDATE test_request SET version = version + 1 WHERE id = ?", id).Error
}

func TestUpdateStaleVersionIsConflict(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	hooks := &spyHooks{}
	requests := repos.NewTestRequestRepo(db, log)
	store := NewTestRequestAggregate(TestRequestAggregateDeps{
		Base:     BaseDeps{DB: db, Log: log, Hooks: hooks},
		Requests: racingRepo{requests},
		Counter:  repos.NewCounterRepo(db, log),
	})
	ctx := context.Background()
	in := draft(uuid.New())
	in.ClientName = "Walk-in"
	created, err := store.Create(ctx, in)
	require.NoError(t, err)

	_, err = store.Update(ctx, "test_request.reject_result", created.ID, func(r *labtest.TestRequest) error {
		r.SubTests[0].ResultStatus = labtest.ResultRejected
		return nil
	})
	require.Error(t, err)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeConflict), "got %v", err)
	assert.Contains(t, hooks.Conflicts, "test_request.reject_result")
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	store, _, _ := newStore(t)
	_, err := store.Update(context.Background(), "", uuid.New(), func(*labtest.TestRequest) error { return nil })
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "got %v", err)

	_, err = store.Get(context.Background(), uuid.New())
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "got %v", err)
}

func TestPatchFreezesSubTestsAfterJobCards(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()
	in := draft(uuid.New())
	in.ClientName = "Walk-in"
	created, err := store.Create(ctx, in)
	require.NoError(t, err)

	addr := "  New Address  "
	patched, err := store.Patch(ctx, created.ID, labtest.IntakePatch{Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "New Address", patched.Address)

	_, err = store.Update(ctx, "test_request.create_job_cards", created.ID, func(r *labtest.TestRequest) error {
		r.Status = labtest.StatusJobCardCreated
		return nil
	})
	require.NoError(t, err)

	_, err = store.Patch(ctx, created.ID, labtest.IntakePatch{SubTests: created.SubTests[:1]})
	assert.True(t, domainagg.IsCode(err, domainagg.CodePreconditionFailed), "got %v", err)
}

func TestStoreNextSequences(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()
	in := draft(uuid.New())
	in.ClientName = "Walk-in"
	_, err := store.Create(ctx, in)
	require.NoError(t, err)

	n, err := store.NextAtlSequence(ctx, "24", "05")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = store.NextRequestSequence(ctx, "24", "06")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateDuplicateRequestIDIsConflict(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()

	first := draft(uuid.New())
	first.ClientName = "Walk-in"
	first.RequestID = "ATL/24/05/T_7"
	_, err := store.Create(ctx, first)
	require.NoError(t, err)

	dup := draft(uuid.New())
	dup.ClientName = "Walk-in"
	dup.RequestID = "ATL/24/05/T_7"
	_, err = store.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeConflict), "got %v", err)
}

func TestStoreDeclaresVersionCASContract(t *testing.T) {
	store, _, _ := newStore(t)
	c := store.Contract()
	assert.Equal(t, domainagg.TestRequestAggregateContract, c)
	assert.True(t, c.RequiresAggregateOwnedTx())
	assert.Equal(t, domainagg.ConcurrencyVersionCAS, c.Concurrency)
}
