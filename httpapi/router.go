package httpapi

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig controls the middleware around the handlers.
type RouterConfig struct {
	// AllowedOrigins receive credentialed CORS responses.
	AllowedOrigins []string
	CallbackPath   string
	Metrics        http.Handler
	Logger         *slog.Logger
}

// NewRouter mounts h on a gin engine with recovery, request logging, CORS
// and audit context middleware.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = "/api/auth/google/callback"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), corsPolicy(cfg.AllowedOrigins), auditContext())

	r.GET("/healthz", h.Healthz)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := r.Group("/api")
	{
		api.POST("/signup", h.Signup)
		api.POST("/login", h.Login)
		api.GET("/auth/google/login", h.GoogleLogin)
		api.GET("/auth/google/status", h.GoogleStatus)
	}
	r.GET(cfg.CallbackPath, h.GoogleCallback)

	return r
}

// corsPolicy allows credentialed requests from the listed origins. Entries
// that are not http(s) origins are skipped; with none left every cross-origin
// request is left to the browser's default policy.
func corsPolicy(allowed []string) gin.HandlerFunc {
	origins := make([]string, 0, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if (strings.HasPrefix(o, "http://") || strings.HasPrefix(o, "https://")) && !slices.Contains(origins, o) {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// auditContext copies the caller's address and user agent into the request
// context so engine audit events carry them.
func auditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := goAccount.WithClientIP(c.Request.Context(), c.ClientIP())
		ctx = goAccount.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogAttrs(c.Request.Context(), slog.LevelInfo, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
