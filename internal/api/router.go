package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/dbpool"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/domain"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log           *logrus.Logger
	Pool          *dbpool.Pool
	Store         domain.RemoteStore
	PostTags      TagRepository
	MediaTags     TagRepository
	Importer      ImportService
	Failures      FailureRepository
	OwnerLookup   middleware.OwnerLookup
	CORSOrigins   []string
	Version       string
	SchemaVersion int
}

// Request body limits. A bulk chunk of 200 persons with timelines stays well
// under maxBodySize; whole GEDCOM files get their own limit.
const (
	maxBodySize       = 4 << 20  // 4 MB
	maxGEDCOMBodySize = 32 << 20 // 32 MB
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.BodyLimit(maxBodySize, map[string]int64{
		"/api/v1/import/gedcom": maxGEDCOMBodySize,
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, log, deps.Version, deps.SchemaVersion)
	people := NewPersonHandler(deps.Store.People(), log)
	trees := NewTreeHandler(deps.Store.Trees(), log)
	posts := NewPostHandler(deps.Store.Posts(), log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication.
	api.Use(middleware.AuthMiddleware(middleware.NewCachedOwnerLookup(ctx, deps.OwnerLookup), log))

	api.GET("/owner", whoami)

	registerCollection(api, "people", people)
	registerCollection(api, "trees", trees)
	registerCollection(api, "posts", posts)

	// Tags.
	if deps.PostTags != nil {
		postTags := NewTagHandler(deps.PostTags, "post_tags", log)
		api.GET("/posts/:id/tags", postTags.List)
		api.PUT("/posts/:id/tags", postTags.Tag)
		api.DELETE("/posts/:id/tags/:person", postTags.Untag)
	}
	if deps.MediaTags != nil {
		mediaTags := NewTagHandler(deps.MediaTags, "media_tags", log)
		api.GET("/media/:id/tags", mediaTags.List)
		api.PUT("/media/:id/tags", mediaTags.Tag)
		api.DELETE("/media/:id/tags/:person", mediaTags.Untag)
	}

	// Import.
	if deps.Importer != nil {
		imports := NewImportHandler(deps.Importer, log)
		api.POST("/import/gedcom", imports.GEDCOM)
	}

	// Sync failures.
	if deps.Failures != nil {
		failures := NewFailureHandler(deps.Failures, log)
		api.GET("/sync-failures", failures.List)
		api.POST("/sync-failures", failures.Record)
	}
}

// collectionRoutes is implemented by every CollectionHandler instantiation.
type collectionRoutes interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	BulkUpsert(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

func registerCollection(api *gin.RouterGroup, plural string, h collectionRoutes) {
	api.GET("/"+plural, h.List)
	api.POST("/"+plural, h.Create)
	api.POST("/bulk/"+plural, h.BulkUpsert)
	api.PATCH("/"+plural+"/:id", h.Update)
	api.DELETE("/"+plural+"/:id", h.Delete)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
