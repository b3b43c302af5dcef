package app

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/labflow-backend/internal/data/repos"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type Repos struct {
	User        repos.UserRepo
	Client      repos.ClientRepo
	TestRequest repos.TestRequestRepo
	Counter     repos.CounterRepo
	Equipment   repos.EquipmentRepo
	Scope       repos.ScopeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients) Repos {
	log.Info("Wiring repos...")
	counter := repos.NewCounterRepo(db, log)
	if strings.EqualFold(strings.TrimSpace(cfg.SequenceBackend), "redis") && clients.Redis != nil {
		counter = repos.NewRedisCounterRepo(clients.Redis, "", log)
	}
	return Repos{
		User:        repos.NewUserRepo(db, log),
		Client:      repos.NewClientRepo(db, log),
		TestRequest: repos.NewTestRequestRepo(db, log),
		Counter:     counter,
		Equipment:   repos.NewEquipmentRepo(db, log),
		Scope:       repos.NewScopeRepo(db, log),
	}
}
