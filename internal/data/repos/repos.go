package repos

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/labflow-backend/internal/data/repos/client"
	"github.com/yungbote/labflow-backend/internal/data/repos/equipment"
	"github.com/yungbote/labflow-backend/internal/data/repos/scope"
	"github.com/yungbote/labflow-backend/internal/data/repos/testrequest"
	"github.com/yungbote/labflow-backend/internal/data/repos/user"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type ClientRepo = client.ClientRepo
type TestRequestRepo = testrequest.TestRequestRepo
type CounterRepo = testrequest.CounterRepo
type EquipmentRepo = equipment.EquipmentRepo
type ScopeRepo = scope.ScopeRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewClientRepo(db *gorm.DB, log *logger.Logger) ClientRepo { return client.NewClientRepo(db, log) }

func NewTestRequestRepo(db *gorm.DB, log *logger.Logger) TestRequestRepo {
	return testrequest.NewTestRequestRepo(db, log)
}

func NewCounterRepo(db *gorm.DB, log *logger.Logger) CounterRepo {
	return testrequest.NewCounterRepo(db, log)
}

func NewRedisCounterRepo(rdb redis.UniversalClient, prefix string, log *logger.Logger) CounterRepo {
	return testrequest.NewRedisCounterRepo(rdb, prefix, log)
}

func NewEquipmentRepo(db *gorm.DB, log *logger.Logger) EquipmentRepo {
	return equipment.NewEquipmentRepo(db, log)
}

func NewScopeRepo(db *gorm.DB, log *logger.Logger) ScopeRepo { return scope.NewScopeRepo(db, log) }
