package testrequest

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/labflow-backend/internal/domain/sequence"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

// CounterRepo hands out strictly increasing numbers per counter name.
type CounterRepo interface {
	Next(ctx context.Context, tx *gorm.DB, name string) (int64, error)
}

type counterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCounterRepo(db *gorm.DB, baseLog *logger.Logger) CounterRepo {
	return &counterRepo{db: db, log: baseLog.With("repo", "CounterRepo")}
}

// Next increments and reads back under the row lock taken by the UPDATE, so
// concurrent callers serialise on the counter row. When tx is nil a
// transaction is opened for the pair.
func (r *counterRepo) Next(ctx context.Context, tx *gorm.DB, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("counter name required")
	}
	if tx == nil {
		var seq int64
		err := r.db.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
			var err error
			seq, err = r.next(ctx, inner, name)
			return err
		})
		return seq, err
	}
	return r.next(ctx, tx, name)
}

func (r *counterRepo) next(ctx context.Context, tx *gorm.DB, name string) (int64, error) {
	db := tx.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&sequence.Counter{Name: name, Seq: 0}).Error; err != nil {
		return 0, err
	}
	res := db.Model(&sequence.Counter{}).
		Where("name = ?", name).
		UpdateColumn("seq", gorm.Expr("seq + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected != 1 {
		return 0, fmt.Errorf("counter %q not incremented", name)
	}
	var c sequence.Counter
	if err := db.Where("name = ?", name).Take(&c).Error; err != nil {
		return 0, err
	}
	return c.Seq, nil
}

type redisCounterRepo struct {
	rdb    redis.UniversalClient
	prefix string
	log    *logger.Logger
}

// NewRedisCounterRepo backs counters with INCR. The number is taken outside
// the database transaction, so a failed insert leaves a gap.
func NewRedisCounterRepo(rdb redis.UniversalClient, prefix string, baseLog *logger.Logger) CounterRepo {
	if prefix == "" {
		prefix = "labflow:counter:"
	}
	return &redisCounterRepo{rdb: rdb, prefix: prefix, log: baseLog.With("repo", "RedisCounterRepo")}
}

func (r *redisCounterRepo) Next(ctx context.Context, _ *gorm.DB, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("counter name required")
	}
	return r.rdb.Incr(ctx, r.prefix+name).Result()
}
