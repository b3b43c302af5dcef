package scope

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/labflow-backend/internal/domain"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type ScopeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, s *types.Scope) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Scope, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Scope, error)
	Update(ctx context.Context, tx *gorm.DB, s *types.Scope) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	SerialExists(ctx context.Context, tx *gorm.DB, serial int, except uuid.UUID) (bool, error)
	// Upsert inserts rows or overwrites the ones whose s_no already exists.
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Scope) error
}

type scopeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScopeRepo(db *gorm.DB, baseLog *logger.Logger) ScopeRepo {
	return &scopeRepo{db: db, log: baseLog.With("repo", "ScopeRepo")}
}

func (r *scopeRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx)
}

func normalize(s *types.Scope) {
	s.Group = strings.TrimSpace(s.Group)
	s.MainGroup = strings.TrimSpace(s.MainGroup)
	s.SubGroup = strings.TrimSpace(s.SubGroup)
	s.MaterialTested = strings.TrimSpace(s.MaterialTested)
	s.Parameters = strings.TrimSpace(s.Parameters)
	s.TestMethod = strings.TrimSpace(s.TestMethod)
}

func (r *scopeRepo) Create(ctx context.Context, tx *gorm.DB, s *types.Scope) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	normalize(s)
	return r.conn(ctx, tx).Create(s).Error
}

func (r *scopeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Scope, error) {
	var out types.Scope
	if err := r.conn(ctx, tx).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *scopeRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Scope, error) {
	var out []*types.Scope
	if err := r.conn(ctx, tx).Order("s_no").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scopeRepo) Update(ctx context.Context, tx *gorm.DB, s *types.Scope) error {
	normalize(s)
	res := r.conn(ctx, tx).Model(&types.Scope{}).Where("id = ?", s.ID).Updates(map[string]any{
		"s_no":            s.SerialNo,
		"scope_group":     s.Group,
		"main_group":      s.MainGroup,
		"sub_group":       s.SubGroup,
		"material_tested": s.MaterialTested,
		"parameters":      s.Parameters,
		"test_method":     s.TestMethod,
		"updated_at":      time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *scopeRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	res := r.conn(ctx, tx).Where("id = ?", id).Delete(&types.Scope{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *scopeRepo) SerialExists(ctx context.Context, tx *gorm.DB, serial int, except uuid.UUID) (bool, error) {
	q := r.conn(ctx, tx).Model(&types.Scope{}).Where("s_no = ?", serial)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *scopeRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Scope) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, s := range rows {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		normalize(s)
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		s.UpdatedAt = now
	}
	return r.conn(ctx, tx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "s_no"}},
		DoUpdates: clause.AssignmentColumns([]string{"scope_group", "main_group", "sub_group", "material_tested", "parameters", "test_method", "updated_at"}),
	}).Create(&rows).Error
}
