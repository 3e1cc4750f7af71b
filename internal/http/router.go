package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"hunter/internal/metrics"
	"hunter/internal/service"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Logger    *zap.Logger
	Auth      *AuthHandler
	Entries   *EntryHandler
	Uploads   *UploadHandler
	Tokens    *service.TokenService
	Collector *metrics.Collector
	Registry  *prometheus.Registry
	AuthLimit *IPRateLimiter
}

// NewRouter wires middlewares and routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(deps.Logger), gin.Recovery(), jsonContentTypeMiddleware())
	if deps.Collector != nil {
		r.Use(metricsMiddleware(deps.Collector))
	}

	authRoutes := r.Group("/")
	if deps.AuthLimit != nil {
		authRoutes.Use(deps.AuthLimit.Middleware())
	}
	authRoutes.POST("/signup", deps.Auth.SignUp)
	authRoutes.POST("/confirm", deps.Auth.Confirm)
	authRoutes.POST("/resendCode", deps.Auth.ResendCode)
	authRoutes.POST("/signin", deps.Auth.SignIn)
	authRoutes.POST("/forgotPassword", deps.Auth.ForgotPassword)
	authRoutes.POST("/resetPassword", deps.Auth.ResetPassword)

	r.POST("/signout", deps.Auth.SignOut)
	r.POST("/updateUsername", deps.Auth.UpdateUsername)
	r.POST("/oauth2/revoke", deps.Auth.Revoke)

	protected := r.Group("/")
	protected.Use(JWTAuthMiddleware(deps.Tokens, deps.Collector))
	protected.GET("/entries", deps.Entries.List)
	protected.POST("/entries", deps.Entries.Create)
	protected.DELETE("/entries/:id", deps.Entries.Delete)
	protected.POST("/getPresignedUrl", deps.Uploads.Presign)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(deps.Registry)))
	}

	return r
}

// zapLoggerMiddleware logs one line per request.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware forces JSON responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

func metricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.RecordRequest(route, c.Writer.Status(), time.Since(start))
	}
}
