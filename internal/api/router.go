package api

import (
	"context"
	"net/http"
	"time"

	"miseflow/internal/api/handlers/health"
	recipeHandler "miseflow/internal/api/handlers/recipe"
	"miseflow/internal/api/middleware"
	"miseflow/internal/core/cache"
	recipeCore "miseflow/internal/core/recipe"
	"miseflow/internal/core/source"
	"miseflow/internal/infrastructure/config"
	"miseflow/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 影片擷取會經過多次對外抓取，整體超時放寬為單次抓取的四倍
const requestTimeoutFactor = 4

// SetupRouter 建立擷取服務並設置路由
func SetupRouter(cfg *config.Config, store cache.Store) (*gin.Engine, error) {
	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", store != nil),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Duration("fetch_timeout", cfg.Extract.RequestTimeout),
	)

	extractor := source.NewExtractor(cfg, nil, store)
	normalizer := recipeCore.NewNormalizer(nil)

	return NewRouter(cfg, extractor, normalizer), nil
}

// NewRouter 以指定的擷取器與正規化器設置路由
func NewRouter(cfg *config.Config, extractor recipeHandler.Extractor, normalizer *recipeCore.Normalizer) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	timeout := cfg.Extract.RequestTimeout * requestTimeoutFactor

	// 注入設定並設置請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set(health.ConfigKey, cfg)
		if provider, ok := extractor.(health.StatsProvider); ok {
			c.Set(health.CacheKey, provider)
		}

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				OK:      false,
				Code:    common.ErrCodeGatewayTimeout,
				Message: "request timeout",
			})
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	handler := recipeHandler.NewHandler(extractor, normalizer)

	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.Deduplication(cfg.DedupWindow))
	{
		recipeGroup := api.Group("/recipe")
		{
			recipeGroup.POST("/extract", handler.HandleExtract)
			recipeGroup.POST("/normalize", handler.HandleNormalize)
			recipeGroup.POST("/import", handler.HandleImport)
			recipeGroup.POST("/preview", handler.HandlePreview)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
	)

	return router
}
