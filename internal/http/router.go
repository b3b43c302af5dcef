package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/domain/user"
	httpH "github.com/yungbote/labflow-backend/internal/http/handlers"
	httpMW "github.com/yungbote/labflow-backend/internal/http/middleware"
	"github.com/yungbote/labflow-backend/internal/observability"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware
	Metrics        *observability.Metrics
	CORSOrigins    []string
	// TracingService enables otelgin spans when set.
	TracingService string

	HealthHandler      *httpH.HealthHandler
	AuthHandler        *httpH.AuthHandler
	UserHandler        *httpH.UserHandler
	ClientHandler      *httpH.ClientHandler
	TestRequestHandler *httpH.TestRequestHandler
	WorkflowHandler    *httpH.WorkflowHandler
	DocumentHandler    *httpH.DocumentHandler
	DashboardHandler   *httpH.DashboardHandler
	EquipmentHandler   *httpH.EquipmentHandler
	ScopeHandler       *httpH.ScopeHandler
	ReportHandler      *httpH.ReportArchiveHandler
}

var (
	frontDesk    = []user.Role{user.RoleReceptionist}
	sectionHeads = []user.Role{user.RoleChemicalSectionHead, user.RoleMechanicalSectionHead}
	labStaff     = []user.Role{
		user.RoleChemicalSectionHead, user.RoleMechanicalSectionHead,
		user.RoleChemicalTester, user.RoleMechanicalTester,
	}
	mailers = []user.Role{user.RoleReceptionist, user.RoleChemicalSectionHead, user.RoleMechanicalSectionHead}
)

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if h := cfg.AuthHandler; h != nil {
		api.POST("/auth/login", h.Login)
		api.POST("/auth/send-otp", h.SendOTP)
		api.POST("/auth/verify-otp", h.VerifyOTP)
		api.POST("/auth/update-password", h.UpdatePassword)
	}
	// Report links are printed as QR codes on mailed reports.
	if h := cfg.ReportHandler; h != nil {
		api.GET("/reports/check/:year/:month/:file", h.Check)
		api.GET("/reports/:year/:month/:file", h.Serve)
	}

	protected := api.Group("/")
	am := cfg.AuthMiddleware
	if am == nil {
		return r
	}
	protected.Use(am.RequireAuth())
	only := am.RequireRole

	if h := cfg.UserHandler; h != nil {
		protected.GET("/me", h.GetMe)
		protected.GET("/users", only(), h.List)
		protected.POST("/users", only(), h.Create)
		protected.PATCH("/users/:id", only(), h.Update)
	}

	if h := cfg.ClientHandler; h != nil {
		protected.GET("/clients", h.List)
		protected.GET("/clients/:id", h.Get)
		protected.POST("/clients", only(frontDesk...), h.Create)
		protected.PUT("/clients/:id", only(frontDesk...), h.Update)
		protected.DELETE("/clients/:id", only(frontDesk...), h.Delete)
	}

	requests := protected.Group("/test-requests")
	if h := cfg.TestRequestHandler; h != nil {
		requests.GET("", h.List)
		requests.GET("/:id", h.Get)
		requests.POST("", only(frontDesk...), h.Create)
		requests.PATCH("/:id", only(frontDesk...), h.Patch)
		requests.PATCH("/:id/receipt", only(frontDesk...), h.SetReceipt)
		protected.GET("/atl-ids/next", only(frontDesk...), h.NextAtlID)
	}

	if h := cfg.DocumentHandler; h != nil {
		requests.POST("/:id/ror", only(frontDesk...), h.GenerateROR)
		requests.GET("/:id/ror", h.Download(labtest.DocumentROR))
		requests.DELETE("/:id/ror", only(frontDesk...), h.Delete(labtest.DocumentROR))
		requests.POST("/:id/proforma", only(frontDesk...), h.GenerateProforma)
		requests.GET("/:id/proforma", h.Download(labtest.DocumentProforma))
		requests.DELETE("/:id/proforma", only(frontDesk...), h.Delete(labtest.DocumentProforma))
		requests.POST("/:id/documents/send", only(frontDesk...), h.MailDocuments)
	}

	if h := cfg.WorkflowHandler; h != nil {
		requests.POST("/:id/job-cards", only(frontDesk...), h.CreateJobCards)
		requests.POST("/:id/job-cards/send", only(frontDesk...), h.SendJobCards)
		requests.POST("/:id/job-cards/approve", only(sectionHeads...), h.ApproveJobCard)
		requests.POST("/:id/job-cards/reject", only(sectionHeads...), h.RejectJobCard)

		requests.POST("/:id/results/submit", only(labStaff...), h.SubmitResult)
		requests.POST("/:id/results/approve", only(sectionHeads...), h.ApproveResult)
		requests.POST("/:id/results/reject", only(sectionHeads...), h.RejectResult)

		requests.POST("/:id/reports/upload", only(labStaff...), h.UploadReport)
		requests.PUT("/:id/reports/tables", only(labStaff...), h.UpdateTables)
		requests.POST("/:id/reports/send", only(labStaff...), h.SendReport)
		requests.POST("/:id/reports/approve", only(sectionHeads...), h.ApproveReport)
		requests.POST("/:id/reports/reject", only(sectionHeads...), h.RejectReport)
		requests.POST("/:id/reports/mail", only(mailers...), h.MailReport)

		requests.POST("/:id/complete", only(frontDesk...), h.Complete)
	}

	if h := cfg.DashboardHandler; h != nil {
		protected.GET("/dashboard/summary", h.Summary)
		protected.GET("/dashboard/monthly", h.Monthly)
		protected.GET("/dashboard/department/:dept", h.Department)
		protected.GET("/dashboard/receptionist", only(frontDesk...), h.Receptionist)
		protected.GET("/dashboard/export.xlsx", h.Export)
		protected.GET("/reports/pending-approval", only(sectionHeads...), h.PendingReports)
		protected.GET("/standards", h.Standards)
	}

	if h := cfg.EquipmentHandler; h != nil {
		protected.GET("/equipment", h.List)
		protected.POST("/equipment", only(labStaff...), h.Create)
		protected.PUT("/equipment/:id", only(labStaff...), h.Update)
		protected.POST("/equipment/by-ids", h.ByIDs)
	}

	if h := cfg.ScopeHandler; h != nil {
		protected.GET("/test-scopes", h.List)
		protected.GET("/test-scopes/:id", h.Get)
		protected.POST("/test-scopes", only(), h.Create)
		protected.PUT("/test-scopes/:id", only(), h.Update)
		protected.DELETE("/test-scopes/:id", only(), h.Delete)
	}

	return r
}
