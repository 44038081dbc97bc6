package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/carrylink/carrylink_backend/cmd/docs"
	"github.com/carrylink/carrylink_backend/internal/core/domain"
	portssvc "github.com/carrylink/carrylink_backend/internal/core/ports/services"
	"github.com/carrylink/carrylink_backend/internal/middleware"
	"github.com/carrylink/carrylink_backend/internal/platform/config"
)

func init() {
	// Register the matchstatus validation used by the list query binding.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("matchstatus", func(fl validator.FieldLevel) bool {
			return domain.MatchStatus(fl.Field().String()).IsValid()
		})
	}
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	registerMatchRoutes(v1, services.Matching, middleware.RateLimit(newDiscoveryLimiter(cfg)))
}

// newDiscoveryLimiter builds the in-memory rate limiter guarding the discovery
// endpoints, which fan out to the external sources.
func newDiscoveryLimiter(cfg *config.Config) *limiter.Limiter {
	rate, err := limiter.NewRateFromFormatted(cfg.DiscoveryRateLimit)
	if err != nil {
		// Fall back to a conservative default when the configured rate is unparseable.
		rate = limiter.Rate{Period: time.Minute, Limit: 30}
	}
	return limiter.New(memory.NewStore(), rate)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
