package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/labflow-backend/internal/data/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/observability"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/render"
	"github.com/yungbote/labflow-backend/internal/services"
)

type Services struct {
	Auth   services.AuthService
	User   services.UserService
	Client services.ClientService

	Store     labtest.Store
	Intake    services.IntakeService
	Workflow  services.WorkflowService
	Documents services.DocumentService
	Dashboard services.DashboardService

	Equipment     services.EquipmentService
	Scope         services.ScopeService
	ReportArchive services.ReportArchiveService
	PasswordReset services.PasswordResetService

	Mailer   services.Mailer
	Notifier services.Notifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	store := aggregates.NewTestRequestAggregate(aggregates.TestRequestAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics, log),
		},
		Requests: repos.TestRequest,
		Counter:  repos.Counter,
		Clients:  repos.Client,
	})
	contract := store.Contract()
	log.Info("Aggregate store ready",
		"aggregate", contract.Name,
		"write_tx", contract.WriteTxOwnership,
		"concurrency", contract.Concurrency,
	)

	renderer, err := render.New(log, clients.Chrome, cfg.RenderTimeout, metrics)
	if err != nil {
		return Services{}, fmt.Errorf("init renderer: %w", err)
	}

	var mailer services.Mailer
	if clients.SendGrid != nil {
		mailer = services.NewSendgridMailer(log, clients.SendGrid, cfg.MailCC, metrics)
	} else {
		mailer = services.NewDisabledMailer(log)
	}
	notifier := services.NewSectionHeadNotifier(log, repos.User, mailer, cfg.SectionHeadMails)
	equipment := services.NewEquipmentService(log, repos.Equipment)

	scopes := services.NewScopeService(log, repos.Scope)
	if err := seedScopes(context.Background(), log, scopes, cfg.ScopeSeedPath); err != nil {
		return Services{}, err
	}

	deps := services.LabDeps{
		Store:         store,
		Renderer:      renderer,
		Mailer:        mailer,
		Archive:       clients.Archive,
		Notifier:      notifier,
		Equipment:     equipment,
		Metrics:       metrics,
		PublicBaseURL: cfg.PublicBaseURL,
	}

	return Services{
		Auth:      services.NewAuthService(log, repos.User, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		User:      services.NewUserService(log, repos.User),
		Client:    services.NewClientService(log, repos.Client),
		Store:     store,
		Intake:    services.NewIntakeService(log, store, metrics),
		Workflow:  services.NewWorkflowService(log, deps),
		Documents: services.NewDocumentService(log, deps),
		Dashboard: services.NewDashboardService(log, store, repos.Client, cfg.Location(log)),

		Equipment:     equipment,
		Scope:         scopes,
		ReportArchive: services.NewReportArchiveService(log, clients.Archive),
		PasswordReset: services.NewPasswordResetService(log, repos.User, mailer),

		Mailer:   mailer,
		Notifier: notifier,
	}, nil
}

// seedScopes upserts the NABL scope file at path; an empty path is a no-op.
func seedScopes(ctx context.Context, log *logger.Logger, scopes services.ScopeService, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open scope seed: %w", err)
	}
	defer f.Close()
	n, err := scopes.Seed(ctx, f)
	if err != nil {
		return fmt.Errorf("seed scopes from %s: %w", path, err)
	}
	log.Info("NABL scopes seeded", "file", path, "rows", n)
	return nil
}
