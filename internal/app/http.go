package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/labflow-backend/internal/http"
	httpH "github.com/yungbote/labflow-backend/internal/http/handlers"
	httpMW "github.com/yungbote/labflow-backend/internal/http/middleware"
	"github.com/yungbote/labflow-backend/internal/observability"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Auth        *httpH.AuthHandler
	User        *httpH.UserHandler
	Client      *httpH.ClientHandler
	TestRequest *httpH.TestRequestHandler
	Workflow    *httpH.WorkflowHandler
	Document    *httpH.DocumentHandler
	Dashboard   *httpH.DashboardHandler
	Equipment   *httpH.EquipmentHandler
	Scope       *httpH.ScopeHandler
	Reports     *httpH.ReportArchiveHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(),
		Auth:        httpH.NewAuthHandler(services.Auth, services.PasswordReset),
		User:        httpH.NewUserHandler(services.User),
		Client:      httpH.NewClientHandler(services.Client),
		TestRequest: httpH.NewTestRequestHandler(services.Intake, services.Workflow),
		Workflow:    httpH.NewWorkflowHandler(services.Workflow),
		Document:    httpH.NewDocumentHandler(services.Documents),
		Dashboard:   httpH.NewDashboardHandler(services.Dashboard),
		Equipment:   httpH.NewEquipmentHandler(services.Equipment),
		Scope:       httpH.NewScopeHandler(services.Scope),
		Reports:     httpH.NewReportArchiveHandler(services.ReportArchive),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics, tracing bool) *gin.Engine {
	rc := http.RouterConfig{
		Log:                log,
		AuthMiddleware:     middleware.Auth,
		Metrics:            metrics,
		CORSOrigins:        cfg.CORSOrigins,
		HealthHandler:      handlers.Health,
		AuthHandler:        handlers.Auth,
		UserHandler:        handlers.User,
		ClientHandler:      handlers.Client,
		TestRequestHandler: handlers.TestRequest,
		WorkflowHandler:    handlers.Workflow,
		DocumentHandler:    handlers.Document,
		DashboardHandler:   handlers.Dashboard,
		EquipmentHandler:   handlers.Equipment,
		ScopeHandler:       handlers.Scope,
		ReportHandler:      handlers.Reports,
	}
	if tracing {
		rc.TracingService = serviceName
	}
	return http.NewRouter(rc)
}
