package v1

import (
	"net/http"

	"swiftjobs-backend/config"
	"swiftjobs-backend/internal/delivery/http/middleware"
	"swiftjobs-backend/internal/delivery/http/response"
	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/usecase"
	"swiftjobs-backend/pkg/auth"
	"swiftjobs-backend/pkg/metrics"
	"swiftjobs-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type RouterDeps struct {
	ProfileUC     domain.ProfileUsecase
	JobUC         domain.JobUsecase
	SwipeUC       domain.SwipeUsecase
	MatchUC       domain.MatchUsecase
	NegotiationUC domain.NegotiationUsecase
	HealthUC      usecase.HealthUsecase
	Verifier      *auth.Verifier
	RateLimiter   *middleware.RateLimiter
	Metrics       *metrics.Collector
	Config        *config.Config
	Log           *zap.Logger
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterValidators(v)
	}
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Verifier == nil {
		deps.Verifier = auth.NewVerifier("", "")
	}
	if deps.RateLimiter == nil {
		deps.RateLimiter = middleware.NewRateLimiter(nil, log)
	}
	frontendURL := "*"
	if deps.Config != nil && deps.Config.FrontendURL != "" {
		frontendURL = deps.Config.FrontendURL
	}

	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(frontendURL)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler(log))

	v1 := r.Group("/v1")

	v1.GET("/health", healthHandler(deps.HealthUC))
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := v1.Group("")
	api.Use(deps.RateLimiter.Middleware(middleware.DefaultRateLimitConfig()))
	api.Use(middleware.CSRFMiddleware())
	api.Use(middleware.AuthMiddleware(deps.Verifier, log))
	{
		NewProfileHandler(api, deps.ProfileUC)
		NewJobHandler(api, deps.JobUC)
		NewSwipeHandler(api, deps.SwipeUC)
		NewMatchHandler(api, deps.MatchUC)
		NewNegotiationHandler(api, deps.NegotiationUC, deps.RateLimiter.Middleware(middleware.NegotiationRateLimitConfig()))
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Route not found", nil)
	})

	return r
}
