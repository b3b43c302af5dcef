package client

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/labflow-backend/internal/domain"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type ClientRepo interface {
	Create(ctx context.Context, tx *gorm.DB, c *types.Client) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Client, error)
	List(ctx context.Context, tx *gorm.DB, search string) ([]*types.Client, error)
	Update(ctx context.Context, tx *gorm.DB, c *types.Client) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	EmailExists(ctx context.Context, tx *gorm.DB, email string, except uuid.UUID) (bool, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	CountCreatedBetween(ctx context.Context, tx *gorm.DB, from, to time.Time) (int64, error)
}

type clientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClientRepo(db *gorm.DB, baseLog *logger.Logger) ClientRepo {
	return &clientRepo{db: db, log: baseLog.With("repo", "ClientRepo")}
}

func (r *clientRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx)
}

func normalize(c *types.Client) {
	c.Name = strings.TrimSpace(c.Name)
	c.ContactNo = strings.TrimSpace(c.ContactNo)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Address = strings.TrimSpace(c.Address)
}

func (r *clientRepo) Create(ctx context.Context, tx *gorm.DB, c *types.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	normalize(c)
	return r.conn(ctx, tx).Create(c).Error
}

func (r *clientRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Client, error) {
	var out types.Client
	if err := r.conn(ctx, tx).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *clientRepo) List(ctx context.Context, tx *gorm.DB, search string) ([]*types.Client, error) {
	q := r.conn(ctx, tx).Order("client_name")
	if s := strings.ToLower(strings.TrimSpace(search)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(client_name) LIKE ? OR email LIKE ?", like, like)
	}
	var out []*types.Client
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clientRepo) Update(ctx context.Context, tx *gorm.DB, c *types.Client) error {
	normalize(c)
	res := r.conn(ctx, tx).Model(&types.Client{}).Where("id = ?", c.ID).Updates(map[string]any{
		"client_name": c.Name,
		"contact_no":  c.ContactNo,
		"email":       c.Email,
		"address":     c.Address,
		"updated_at":  time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *clientRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	res := r.conn(ctx, tx).Where("id = ?", id).Delete(&types.Client{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EmailExists reports whether another client (not except) already uses email.
func (r *clientRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string, except uuid.UUID) (bool, error) {
	q := r.conn(ctx, tx).Model(&types.Client{}).Where("email = ?", strings.ToLower(strings.TrimSpace(email)))
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *clientRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var n int64
	err := r.conn(ctx, tx).Model(&types.Client{}).Count(&n).Error
	return n, err
}

func (r *clientRepo) CountCreatedBetween(ctx context.Context, tx *gorm.DB, from, to time.Time) (int64, error) {
	var n int64
	err := r.conn(ctx, tx).Model(&types.Client{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	return n, err
}
