package equipment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/labflow-backend/internal/domain"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type EquipmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, e *types.Equipment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Equipment, error)
	// GetByIDs returns the rows in the order of ids; unknown ids are skipped.
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Equipment, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Equipment, error)
	Update(ctx context.Context, tx *gorm.DB, e *types.Equipment) error
}

type equipmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEquipmentRepo(db *gorm.DB, baseLog *logger.Logger) EquipmentRepo {
	return &equipmentRepo{db: db, log: baseLog.With("repo", "EquipmentRepo")}
}

func (r *equipmentRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx)
}

func normalize(e *types.Equipment) {
	e.Name = strings.TrimSpace(e.Name)
	e.Range = strings.TrimSpace(e.Range)
	e.CertificateNo = strings.TrimSpace(e.CertificateNo)
	e.CalibrationDate = strings.TrimSpace(e.CalibrationDate)
	e.DueDate = strings.TrimSpace(e.DueDate)
	e.CalibratedBy = strings.TrimSpace(e.CalibratedBy)
}

func (r *equipmentRepo) Create(ctx context.Context, tx *gorm.DB, e *types.Equipment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	normalize(e)
	return r.conn(ctx, tx).Create(e).Error
}

func (r *equipmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Equipment, error) {
	var out types.Equipment
	if err := r.conn(ctx, tx).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *equipmentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Equipment, error) {
	if len(ids) == 0 {
		return []*types.Equipment{}, nil
	}
	var rows []*types.Equipment
	if err := r.conn(ctx, tx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Equipment, len(rows))
	for _, e := range rows {
		byID[e.ID] = e
	}
	out := make([]*types.Equipment, 0, len(rows))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
			delete(byID, id)
		}
	}
	return out, nil
}

func (r *equipmentRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Equipment, error) {
	var out []*types.Equipment
	if err := r.conn(ctx, tx).Order("equipment_name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *equipmentRepo) Update(ctx context.Context, tx *gorm.DB, e *types.Equipment) error {
	normalize(e)
	res := r.conn(ctx, tx).Model(&types.Equipment{}).Where("id = ?", e.ID).Updates(map[string]any{
		"equipment_name":   e.Name,
		"measuring_range":  e.Range,
		"certificate_no":   e.CertificateNo,
		"calibration_date": e.CalibrationDate,
		"due_date":         e.DueDate,
		"calibrated_by":    e.CalibratedBy,
		"updated_at":       time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
