package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AhmeWagih/resume-analyzer/internal/artifacts"
	googleauth "github.com/AhmeWagih/resume-analyzer/internal/auth"
	"github.com/AhmeWagih/resume-analyzer/internal/resumes"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/auth"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/config"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/metrics"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/server/middleware"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/server/respond"
	"github.com/AhmeWagih/resume-analyzer/internal/users"
)

// RouterDeps carries the handlers and session services the router mounts.
type RouterDeps struct {
	Config          config.Config
	Verifier        middleware.TokenVerifier
	Revocations     *auth.RevocationList
	Registry        *resumes.Registry
	ResumeHandler   *resumes.Handler
	ArtifactHandler *artifacts.Handler
	UserHandler     *users.Handler
	GoogleAuth      *googleauth.GoogleService
	Limiter         *middleware.RateLimiter
}

// Destructive routes get a small burst and a slow refill per user.
var defaultRateLimits = map[string]middleware.RateLimitRule{
	middleware.GroupDefault:     {Rate: 20, Burst: 60},
	middleware.GroupDestructive: {Rate: 0.5, Burst: 5},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}

	authed := api.Group("",
		middleware.Auth(deps.Verifier, deps.Revocations),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        defaultRateLimits,
			DefaultGroup: middleware.GroupDefault,
			GroupFor:     middleware.DestructiveGroup,
			Limiter:      deps.Limiter,
		}),
	)

	var forget func(string)
	if deps.Registry != nil {
		forget = deps.Registry.Forget
	}
	registerSessionRoutes(authed, deps.Revocations, forget)
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(authed)
	}
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(authed)
	}
	if deps.ArtifactHandler != nil {
		deps.ArtifactHandler.RegisterRoutes(authed)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
