// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggoFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-index-backend/internal/blobstore"
	"github.com/tbourn/go-index-backend/internal/config"
	"github.com/tbourn/go-index-backend/internal/errcode"
	"github.com/tbourn/go-index-backend/internal/http/handlers"
	"github.com/tbourn/go-index-backend/internal/http/middleware"
	"github.com/tbourn/go-index-backend/internal/repo"
	"github.com/tbourn/go-index-backend/internal/scheduler"
	"github.com/tbourn/go-index-backend/internal/search"
	"github.com/tbourn/go-index-backend/internal/services"
	"github.com/tbourn/go-index-backend/internal/worker"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, compression, health/metrics/docs
// endpoints, and then mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (document upload cap, transport backstop)
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per IP, bypass on replay)
//  9. CORS and security headers
//  10. Response compression (skipping /metrics)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, store *blobstore.Store, reg *search.Registry, queue *scheduler.Scheduler, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. Search queries and document ids
	// can carry personal data; the idempotency token is a client secret.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit; upload handlers enforce the same cap when
	// reading, this one stops oversized transfers at the transport.
	r.Use(limitBody(cfg.MaxPayloadBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting, replays bypass it)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, indexUID, key string, now time.Time) (uint64, bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, indexUID, key, now)
			if err != nil {
				return 0, false, err
			}
			return rec.TaskUID, true, nil
		},
	))

	// 8) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 10) Compress responses; search results and document pages are large
	// and repetitive. Prometheus exposition negotiates its own encoding.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, errcode.NotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, errcode.MethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API documentation (flag-gated)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggoFiles.Handler))
	}

	// Dependency injection: services ← queue/store/registry/db
	idxSvc := &services.IndexService{DB: db, Queue: queue}
	docSvc := &services.DocumentService{
		DB:    db,
		Queue: queue,
		Store: store,
		Pool:  worker.NewPool(cfg.Scheduler.Workers),
	}
	taskSvc := &services.TaskService{DB: db}
	searchSvc := &services.SearchService{
		DB:           db,
		Registry:     reg,
		DefaultLimit: cfg.SearchDefaultLimit,
		MaxLimit:     cfg.SearchMaxLimit,
	}

	h := handlers.New(idxSvc, docSvc, taskSvc, searchSvc)
	h.MaxPayloadBytes = cfg.MaxPayloadBytes
	h.IdempotencyTTL = cfg.IdempotencyTTL

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Indexes
		api.POST("/indexes", h.CreateIndex)
		api.GET("/indexes", h.ListIndexes)
		api.GET("/indexes/:indexUid", h.GetIndex)
		api.PATCH("/indexes/:indexUid", h.UpdateIndex)
		api.DELETE("/indexes/:indexUid", h.DeleteIndex)

		// Documents
		api.POST("/indexes/:indexUid/documents", h.AddDocuments)
		api.PUT("/indexes/:indexUid/documents", h.UpdateDocuments)
		api.GET("/indexes/:indexUid/documents", h.ListDocuments)
		api.GET("/indexes/:indexUid/documents/:docId", h.GetDocument)
		api.DELETE("/indexes/:indexUid/documents", h.DeleteDocuments)

		// Search
		api.GET("/indexes/:indexUid/search", h.SearchDocuments)

		// Tasks
		api.GET("/tasks", h.ListTasks)
		api.GET("/tasks/:taskUid", h.GetTask)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = 100 << 20
	}
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
