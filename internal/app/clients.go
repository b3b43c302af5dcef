package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/platform/objectstore"
	"github.com/yungbote/labflow-backend/internal/platform/sendgrid"
	"github.com/yungbote/labflow-backend/internal/render"
)

type Clients struct {
	Redis    redis.UniversalClient
	SendGrid sendgrid.Client
	Archive  objectstore.Archive
	Chrome   *render.ChromePrinter
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if strings.EqualFold(strings.TrimSpace(cfg.SequenceBackend), "redis") {
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return Clients{}, fmt.Errorf("SEQUENCE_BACKEND=redis requires REDIS_ADDR")
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
	}

	// SendGrid
	if strings.TrimSpace(cfg.Mail.APIKey) != "" {
		sg, err := sendgrid.New(log, cfg.Mail)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init sendgrid: %w", err)
		}
		out.SendGrid = sg
	} else {
		log.Warn("SENDGRID_API_KEY not set, outbound mail disabled")
	}

	// Archive
	archive, err := resolveArchive(ctx, log, cfg.Archive)
	if err != nil {
		out.Close()
		return Clients{}, err
	}
	out.Archive = archive

	// Chrome
	chrome, err := render.NewChromePrinter(log, cfg.Chrome)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init chrome printer: %w", err)
	}
	out.Chrome = chrome

	return out, nil
}

func (c Clients) Close() {
	if c.Chrome != nil {
		c.Chrome.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
