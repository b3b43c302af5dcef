package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/labflow-backend/internal/domain"
	"github.com/yungbote/labflow-backend/internal/domain/user"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	// SetResetOTP stores hash and expiry; an empty hash clears the pending code.
	SetResetOTP(ctx context.Context, tx *gorm.DB, id uuid.UUID, hash string, expiry *time.Time) error
	// ResetPassword sets the password hash and clears any pending code.
	ResetPassword(ctx context.Context, tx *gorm.DB, id uuid.UUID, passwordHash string) error
	EmailOrUsernameExists(ctx context.Context, tx *gorm.DB, email, username string) (bool, error)
	ListByRoles(ctx context.Context, tx *gorm.DB, roles []user.Role) ([]*types.User, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.User, error)
	Update(ctx context.Context, tx *gorm.DB, u *types.User) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		u.Username = strings.TrimSpace(u.Username)
	}
	if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var out types.User
	if err := transaction.WithContext(ctx).
		Where("username = ?", strings.TrimSpace(username)).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (ur *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var out types.User
	if err := transaction.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (ur *userRepo) SetResetOTP(ctx context.Context, tx *gorm.DB, id uuid.UUID, hash string, expiry *time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	res := transaction.WithContext(ctx).Model(&types.User{}).Where("id = ?", id).Updates(map[string]any{
		"reset_otp":        hash,
		"reset_otp_expiry": expiry,
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

func (ur *userRepo) ResetPassword(ctx context.Context, tx *gorm.DB, id uuid.UUID, passwordHash string) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	res := transaction.WithContext(ctx).Model(&types.User{}).Where("id = ?", id).Updates(map[string]any{
		"password":         passwordHash,
		"reset_otp":        "",
		"reset_otp_expiry": nil,
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

func (ur *userRepo) EmailOrUsernameExists(ctx context.Context, tx *gorm.DB, email, username string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("email = ? OR username = ?", strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(username)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) ListByRoles(ctx context.Context, tx *gorm.DB, roles []user.Role) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var results []*types.User
	if len(roles) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("role IN ?", roles).
		Order("username").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var results []*types.User
	if err := transaction.WithContext(ctx).Order("created_at").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) Update(ctx context.Context, tx *gorm.DB, u *types.User) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	res := transaction.WithContext(ctx).Model(&types.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"first_name": strings.TrimSpace(u.FirstName),
		"last_name":  strings.TrimSpace(u.LastName),
		"email":      strings.ToLower(strings.TrimSpace(u.Email)),
		"username":   strings.TrimSpace(u.Username),
		"password":   u.Password,
		"role":       u.Role,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
