package app

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/labflow-backend/internal/data/db"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/platform/envutil"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/platform/objectstore"
	"github.com/yungbote/labflow-backend/internal/platform/sendgrid"
	"github.com/yungbote/labflow-backend/internal/render"
)

type Config struct {
	Port           string
	Environment    string
	JWTSecretKey   string
	AccessTokenTTL time.Duration

	DB db.Config

	// SequenceBackend is "db" or "redis".
	SequenceBackend string
	RedisAddr       string
	RedisPassword   string

	Mail             sendgrid.Config
	MailCC           []string
	SectionHeadMails map[labtest.Department][]string

	Archive       objectstore.Config
	Chrome        render.ChromeConfig
	RenderTimeout time.Duration

	CORSOrigins []string
	TimeZone    string

	// PublicBaseURL is the externally reachable origin of this service.
	PublicBaseURL string
	// ScopeSeedPath names a YAML file of NABL scopes upserted at startup.
	ScopeSeedPath string
}

// LoadEnv reads .env files when present. Missing files are not an error.
func LoadEnv(log *logger.Logger, files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			log.Info("Loaded env file", "file", f)
		}
	}
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:           envutil.String("PORT", "8080"),
		Environment:    envutil.String("APP_ENV", "development"),
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", 24*time.Hour),
		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", "postgres"),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "labflow"),
			SSLMode:    envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath: envutil.String("SQLITE_PATH", "labflow.db"),
			MaxOpen:    envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdle:    envutil.Int("POSTGRES_MAX_IDLE_CONNS", 5),
		},
		SequenceBackend: envutil.String("SEQUENCE_BACKEND", "db"),
		RedisAddr:       envutil.String("REDIS_ADDR", ""),
		RedisPassword:   envutil.String("REDIS_PASSWORD", ""),
		Mail:            sendgrid.ConfigFromEnv(),
		MailCC:          envutil.List("MAIL_CC"),
		SectionHeadMails: map[labtest.Department][]string{
			labtest.DepartmentChemical:   envutil.List("SECTION_HEAD_EMAILS_CHEMICAL"),
			labtest.DepartmentMechanical: envutil.List("SECTION_HEAD_EMAILS_MECHANICAL"),
		},
		Archive:       objectstore.ConfigFromEnv(),
		Chrome:        render.ChromeConfigFromEnv(),
		RenderTimeout: envutil.Duration("RENDER_TIMEOUT", 60*time.Second),
		CORSOrigins:   envutil.List("CORS_ALLOWED_ORIGINS"),
		TimeZone:      envutil.String("LAB_TIMEZONE", "Asia/Kolkata"),
		PublicBaseURL: envutil.String("PUBLIC_BASE_URL", ""),
		ScopeSeedPath: envutil.String("NABL_SCOPE_SEED", ""),
	}
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set, using insecure default")
	}
	if cfg.PublicBaseURL == "" {
		log.Warn("PUBLIC_BASE_URL not set, report QR codes will carry host-relative links")
	}
	return cfg
}

// Location resolves TimeZone, falling back to UTC.
func (c Config) Location(log *logger.Logger) *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Warn("unknown LAB_TIMEZONE, using UTC", "tz", c.TimeZone, "error", err)
		return time.UTC
	}
	return loc
}
