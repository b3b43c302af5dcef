package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/observability"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

// IntakeService is the receptionist side of a test request: creating,
// listing and editing before the lab picks it up.
type IntakeService interface {
	Create(ctx context.Context, draft *labtest.TestRequest) (*labtest.TestRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*labtest.TestRequest, error)
	List(ctx context.Context, filter labtest.Filter, sort labtest.Sort) ([]*labtest.TestRequest, error)
	Patch(ctx context.Context, id uuid.UUID, patch labtest.IntakePatch) (*labtest.TestRequest, error)
	// NextAtlID suggests the next free ATL id for the given calendar month.
	NextAtlID(ctx context.Context, year, month int) (string, error)
}

type intakeService struct {
	log     *logger.Logger
	store   labtest.Store
	metrics *observability.Metrics
}

func NewIntakeService(log *logger.Logger, store labtest.Store, metrics *observability.Metrics) IntakeService {
	return &intakeService{log: log.With("service", "IntakeService"), store: store, metrics: metrics}
}

func (s *intakeService) Create(ctx context.Context, draft *labtest.TestRequest) (*labtest.TestRequest, error) {
	out, err := s.store.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("test_request.create", string(out.Status))
	s.log.Info("test request created",
		"request_id", out.RequestID,
		"sequence_number", out.SequenceNumber,
		"sub_tests", len(out.SubTests),
	)
	return out, nil
}

func (s *intakeService) Get(ctx context.Context, id uuid.UUID) (*labtest.TestRequest, error) {
	return s.store.Get(ctx, id)
}

func (s *intakeService) List(ctx context.Context, filter labtest.Filter, sort labtest.Sort) ([]*labtest.TestRequest, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, domainagg.Validation("test_request.list", "limit and offset must not be negative")
	}
	if filter.Department != "" && !filter.Department.Valid() {
		return nil, domainagg.Validation("test_request.list", "unknown department %q", filter.Department)
	}
	return s.store.List(ctx, filter, sort)
}

func (s *intakeService) Patch(ctx context.Context, id uuid.UUID, patch labtest.IntakePatch) (*labtest.TestRequest, error) {
	return s.store.Patch(ctx, id, patch)
}

func (s *intakeService) NextAtlID(ctx context.Context, year, month int) (string, error) {
	const op = "test_request.next_atl_id"
	if year < 2000 || year > 2099 || month < 1 || month > 12 {
		return "", domainagg.Validation(op, "year must be 2000-2099 and month 1-12")
	}
	yy, mm := fmt.Sprintf("%02d", year%100), fmt.Sprintf("%02d", month)
	seq, err := s.store.NextAtlSequence(ctx, yy, mm)
	if err != nil {
		return "", err
	}
	return labtest.FormatAtlID(yy, mm, seq), nil
}
