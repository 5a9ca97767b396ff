// Package httpapi wires the HTTP transport (Gin) to the chat and customer
// services, the middleware stack and the route handlers.
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. AccessLog (request-scoped logger, PII scrubbed)
//  4. Recovery
//  5. Body size limit
//  6. Metrics
//  7. CORS and security headers
//  8. gzip for text responses
//
// POST /api/chat additionally runs the idempotency validator and then the
// rate limiter, so a replayed request is never throttled.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/opc-agent/docs"
	"github.com/tbourn/opc-agent/internal/config"
	"github.com/tbourn/opc-agent/internal/http/handlers"
	"github.com/tbourn/opc-agent/internal/http/middleware"
	"github.com/tbourn/opc-agent/internal/repo"
)

// maxBodyBytes caps request bodies; chat messages are small.
const maxBodyBytes = 1 << 20

// Deps are the collaborators injected into the router. Customers may be nil,
// which leaves the admin API unmounted.
type Deps struct {
	DB        *gorm.DB
	Chat      handlers.ChatSender
	Customers handlers.CustomerReader
	Welcome   string
}

// RegisterRoutes attaches all middleware and endpoints to r.
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics())
	r.Use(corsMiddleware(cfg.CORS))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedExtensions([]string{".png", ".pdf"}),
		gzip.WithExcludedPaths([]string{"/metrics"}),
	))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	h := handlers.New(d.Chat, d.Customers, handlers.Options{
		Welcome:  d.Welcome,
		Payment:  cfg.Payment,
		ShareURL: cfg.Report.PublicBaseURL,
	})

	r.GET("/", h.Index)
	r.Static("/files", cfg.Report.Dir)

	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, replayLookup(d.DB))
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/health", h.Health)
		api.GET("/welcome", h.Welcome)
		api.POST("/chat", idem, rl.Handler(), h.PostChat)

		api.GET("/share/text", h.ShareText)
		api.GET("/share/qrcode.png", h.ShareQRCode)

		api.GET("/payment/info", h.PaymentInfo)
		api.GET("/payment/qrcode.png", h.PaymentQRCode)
	}

	if d.Customers != nil {
		admin := api.Group("/admin", middleware.AdminToken(cfg.Admin.Token))
		{
			admin.GET("/customers", h.ListCustomers)
			admin.GET("/customers/:contact", h.GetCustomer)
			admin.GET("/stats", h.Stats)
		}
	}
}

// replayLookup reports stored chat replies. A nil db disables replay
// detection in the middleware; the chat service still replays on its own.
func replayLookup(db *gorm.DB) middleware.IdempotencyLookup {
	if db == nil {
		return nil
	}
	return func(ctx context.Context, sessionID, key string, now time.Time) (bool, error) {
		rec, err := repo.GetReplay(ctx, db, sessionID, key, now)
		if err != nil || rec == nil {
			return false, nil
		}
		return true, nil
	}
}

// corsMiddleware allows every origin when none is configured, else only the
// allowlist. Credentials are never allowed.
func corsMiddleware(c config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			middleware.HeaderIdempotencyKey,
			middleware.HeaderSessionID,
			middleware.HeaderAdminToken,
		},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After", handlers.HeaderIdempotencyReplayed},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cors.New(cc)
}

// limitBody caps the request body at maxBytes; reads past it fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
