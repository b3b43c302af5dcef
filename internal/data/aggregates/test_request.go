package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/labflow-backend/internal/data/repos"
	"github.com/yungbote/labflow-backend/internal/data/repos/testrequest"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/domain/sequence"
	"github.com/yungbote/labflow-backend/internal/platform/dbctx"
)

type TestRequestAggregateDeps struct {
	Base BaseDeps

	Requests repos.TestRequestRepo
	Counter  repos.CounterRepo
	// Clients is optional; when set, Create fills the denormalized client name.
	Clients repos.ClientRepo
	Now     func() time.Time
}

type testRequestAggregate struct {
	deps TestRequestAggregateDeps
}

func NewTestRequestAggregate(deps TestRequestAggregateDeps) labtest.Store {
	deps.Base = deps.Base.withDefaults()
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &testRequestAggregate{deps: deps}
}

func (a *testRequestAggregate) Contract() domainagg.Contract {
	return domainagg.TestRequestAggregateContract
}

func (a *testRequestAggregate) Create(ctx context.Context, draft *labtest.TestRequest) (*labtest.TestRequest, error) {
	const op = "test_request.create"
	if draft == nil {
		return nil, domainagg.Validation(op, "missing test request")
	}
	if a.deps.Requests == nil || a.deps.Counter == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "test request aggregate repos not configured", nil)
	}
	req := *draft
	req.ID = uuid.New()
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.ContactNo = strings.TrimSpace(req.ContactNo)
	req.Address = strings.TrimSpace(req.Address)
	req.RequestID = strings.TrimSpace(req.RequestID)
	req.SubTests = labtest.IntakeSubTests(req.SubTests)
	req.Status = labtest.StatusIntakeEntered
	req.ReportStatus = labtest.ReportStatusNone
	req.RequiredDepartments = nil
	req.JobCards = nil
	req.ROR.Reset()
	req.Proforma.Reset()
	req.Version = 1
	now := a.deps.Now()
	req.CreatedAt, req.UpdatedAt = now, now

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if req.ClientName == "" && a.deps.Clients != nil && req.ClientID != uuid.Nil {
			c, err := a.deps.Clients.GetByID(dbc.Ctx, dbc.Tx, req.ClientID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainagg.Validation(op, "unknown client %s", req.ClientID)
			}
			if err != nil {
				return err
			}
			req.ClientName = c.Name
		}
		if req.RequestID == "" {
			yy, mm, err := labtest.YearMonth(req.RequestDate)
			if err != nil {
				return err
			}
			ids, err := a.deps.Requests.ListRequestIDs(dbc.Ctx, dbc.Tx)
			if err != nil {
				return err
			}
			req.RequestID = labtest.FormatRequestID(yy, mm, labtest.NextRequestSequence(ids, yy, mm))
		}
		if err := req.Validate(); err != nil {
			return err
		}
		seq, err := a.deps.Counter.Next(dbc.Ctx, dbc.Tx, sequence.TestRequestCounter)
		if err != nil {
			return err
		}
		req.SequenceNumber = seq
		return a.deps.Requests.Create(dbc.Ctx, dbc.Tx, &req)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (a *testRequestAggregate) Get(ctx context.Context, id uuid.UUID) (*labtest.TestRequest, error) {
	const op = "test_request.get"
	if id == uuid.Nil {
		return nil, domainagg.Validation(op, "missing test request id")
	}
	req, err := a.deps.Requests.GetByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainagg.NotFound(op, "test request %s not found", id)
	}
	if err != nil {
		return nil, MapError(op, err)
	}
	return req, nil
}

func (a *testRequestAggregate) List(ctx context.Context, filter labtest.Filter, sort labtest.Sort) ([]*labtest.TestRequest, error) {
	rows, err := a.deps.Requests.List(ctx, nil, filter, sort)
	if err != nil {
		return nil, MapError("test_request.list", err)
	}
	return rows, nil
}

func (a *testRequestAggregate) Update(ctx context.Context, op string, id uuid.UUID, mutate labtest.MutateFunc) (*labtest.TestRequest, error) {
	op = strings.TrimSpace(op)
	if op == "" {
		op = "test_request.update"
	}
	if id == uuid.Nil {
		return nil, domainagg.Validation(op, "missing test request id")
	}
	if mutate == nil {
		return nil, domainagg.Validation(op, "missing mutation")
	}
	var out *labtest.TestRequest
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		cur, err := a.deps.Requests.GetByID(dbc.Ctx, dbc.Tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainagg.NotFound(op, "test request %s not found", id)
		}
		if err != nil {
			return err
		}
		expected := cur.Version
		requestID, seq, createdAt := cur.RequestID, cur.SequenceNumber, cur.CreatedAt

		if err := mutate(cur); err != nil {
			return err
		}
		if cur.RequestID != requestID || cur.SequenceNumber != seq {
			return domainagg.Validation(op, "request id and sequence number are immutable")
		}
		cur.ID, cur.CreatedAt = id, createdAt
		if err := cur.Validate(); err != nil {
			return err
		}

		now := a.deps.Now()
		if err := a.deps.Base.CASGuard.Swap(dbc, testrequest.TestRequestTable, id, expected, testrequest.Columns(cur, now)); err != nil {
			return err
		}
		cur.Version = expected + 1
		cur.UpdatedAt = now
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	if a.deps.Base.Log != nil {
		a.deps.Base.Log.Debug("test request updated", "op", op, "id", id, "status", out.Status, "version", out.Version)
	}
	return out, nil
}

func (a *testRequestAggregate) Patch(ctx context.Context, id uuid.UUID, patch labtest.IntakePatch) (*labtest.TestRequest, error) {
	return a.Update(ctx, "test_request.patch", id, patch.Apply)
}

func (a *testRequestAggregate) NextAtlSequence(ctx context.Context, yy, mm string) (int, error) {
	ids, err := a.deps.Requests.ListAtlIDs(ctx, nil)
	if err != nil {
		return 0, MapError("test_request.next_atl_sequence", err)
	}
	return labtest.NextAtlSequence(ids, yy, mm), nil
}

func (a *testRequestAggregate) NextRequestSequence(ctx context.Context, yy, mm string) (int, error) {
	ids, err := a.deps.Requests.ListRequestIDs(ctx, nil)
	if err != nil {
		return 0, MapError("test_request.next_request_sequence", err)
	}
	return labtest.NextRequestSequence(ids, yy, mm), nil
}
