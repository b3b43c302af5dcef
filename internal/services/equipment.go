package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	dataagg "github.com/yungbote/labflow-backend/internal/data/aggregates"
	"github.com/yungbote/labflow-backend/internal/data/repos"
	types "github.com/yungbote/labflow-backend/internal/domain"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/render"
)

type EquipmentInput struct {
	Name            string `json:"equipment_name" validate:"required"`
	Range           string `json:"range"`
	CertificateNo   string `json:"certificate_no"`
	CalibrationDate string `json:"calibration_date" validate:"omitempty,ymd_date"`
	DueDate         string `json:"due_date" validate:"omitempty,ymd_date"`
	CalibratedBy    string `json:"calibrated_by"`
}

// EquipmentTables renders the equipment table of a report.
type EquipmentTables interface {
	Table(ctx context.Context, ids []uuid.UUID) (string, error)
}

type EquipmentService interface {
	EquipmentTables

	Create(ctx context.Context, in EquipmentInput) (*types.Equipment, error)
	List(ctx context.Context) ([]*types.Equipment, error)
	Update(ctx context.Context, id uuid.UUID, in EquipmentInput) (*types.Equipment, error)
	ByIDs(ctx context.Context, ids []uuid.UUID) ([]*types.Equipment, error)
}

type equipmentService struct {
	log  *logger.Logger
	repo repos.EquipmentRepo
}

func NewEquipmentService(log *logger.Logger, repo repos.EquipmentRepo) EquipmentService {
	return &equipmentService{log: log.With("service", "EquipmentService"), repo: repo}
}

func (in *EquipmentInput) normalize(op string) error {
	in.Name = strings.TrimSpace(in.Name)
	in.CalibrationDate = strings.TrimSpace(in.CalibrationDate)
	in.DueDate = strings.TrimSpace(in.DueDate)
	if err := labtest.Validator().Struct(in); err != nil {
		return dataagg.MapError(op, err)
	}
	if in.CalibrationDate != "" && in.DueDate != "" && in.DueDate < in.CalibrationDate {
		return domainagg.Validation(op, "due_date %s is before calibration_date %s", in.DueDate, in.CalibrationDate)
	}
	return nil
}

func (in EquipmentInput) model(id uuid.UUID) *types.Equipment {
	return &types.Equipment{
		ID:              id,
		Name:            in.Name,
		Range:           in.Range,
		CertificateNo:   in.CertificateNo,
		CalibrationDate: in.CalibrationDate,
		DueDate:         in.DueDate,
		CalibratedBy:    in.CalibratedBy,
	}
}

func (es *equipmentService) Create(ctx context.Context, in EquipmentInput) (*types.Equipment, error) {
	const op = "equipment.create"
	if err := in.normalize(op); err != nil {
		return nil, err
	}
	e := in.model(uuid.Nil)
	if err := es.repo.Create(ctx, nil, e); err != nil {
		return nil, dataagg.MapError(op, err)
	}
	es.log.Info("equipment created", "equipment_id", e.ID, "equipment_name", e.Name)
	return e, nil
}

func (es *equipmentService) List(ctx context.Context) ([]*types.Equipment, error) {
	out, err := es.repo.List(ctx, nil)
	if err != nil {
		return nil, dataagg.MapError("equipment.list", err)
	}
	return out, nil
}

func (es *equipmentService) Update(ctx context.Context, id uuid.UUID, in EquipmentInput) (*types.Equipment, error) {
	const op = "equipment.update"
	if err := in.normalize(op); err != nil {
		return nil, err
	}
	if err := es.repo.Update(ctx, nil, in.model(id)); err != nil {
		return nil, dataagg.MapError(op, err)
	}
	out, err := es.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return out, nil
}

func (es *equipmentService) ByIDs(ctx context.Context, ids []uuid.UUID) ([]*types.Equipment, error) {
	const op = "equipment.by_ids"
	if len(ids) == 0 {
		return nil, domainagg.Validation(op, "ids must be a non-empty list")
	}
	out, err := es.repo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return out, nil
}

// Table renders the rows for ids in the given order. Every id must exist.
func (es *equipmentService) Table(ctx context.Context, ids []uuid.UUID) (string, error) {
	const op = "equipment.table"
	rows, err := es.ByIDs(ctx, ids)
	if err != nil {
		return "", err
	}
	if len(rows) != len(uniqueIDs(ids)) {
		return "", domainagg.NotFound(op, "%d of %d equipment ids are unknown", len(uniqueIDs(ids))-len(rows), len(uniqueIDs(ids)))
	}
	view := render.EquipmentTableView{Rows: make([]render.EquipmentRow, len(rows))}
	for i, e := range rows {
		view.Rows[i] = render.EquipmentRow{
			SrNo:            i + 1,
			Name:            e.Name,
			Range:           e.Range,
			CertificateNo:   e.CertificateNo,
			CalibrationDate: e.CalibrationDate,
			DueDate:         e.DueDate,
			CalibratedBy:    e.CalibratedBy,
		}
	}
	html, err := render.HTML(render.TemplateEquipmentTable, view)
	if err != nil {
		return "", domainagg.NewError(domainagg.CodeInternal, op, "render equipment table", err)
	}
	return html, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
