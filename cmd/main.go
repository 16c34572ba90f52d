package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront-service/internal/config"
	"storefront-service/internal/events"
	"storefront-service/internal/fetch"
	"storefront-service/internal/handlers"
	"storefront-service/internal/importer"
	"storefront-service/internal/middleware"
	"storefront-service/internal/models"
	"storefront-service/internal/queue"
	"storefront-service/internal/repository"
)

// @title Storefront Service API
// @version 1.0
// @description Promotional products storefront with supplier feed imports
// @BasePath /
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.ParseLogLevel())

	db, err := connectDatabase(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	redisClient := connectRedis(cfg, logger)
	publisher := events.NewPublisher(cfg.NATSUrl, logger)
	defer publisher.Close()

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create uploads directory")
	}

	// Repositories
	catalogRepo := repository.NewCatalogRepository(db, redisClient)
	queueRepo := repository.NewQueueRepository(db)
	cmsRepo := repository.NewCMSRepository(db)

	// Import pipeline
	downloader := fetch.NewImageDownloader(cfg.DownloadTimeout(), logger)
	reconciler := importer.NewReconciler(
		catalogRepo, queueRepo, downloader, logger,
		cfg.UploadsDir, cfg.DownloadDelay(), cfg.FallbackCategory,
	)
	xmlFetcher := importer.NewXMLFeedFetcher(cfg.DownloadTimeout(), logger)
	worker := queue.NewWorker(queueRepo, catalogRepo, downloader, logger, cfg.UploadsDir, cfg.QueueDrainDelay())
	if cfg.QueueWorkerEnabled {
		if err := worker.Schedule(cfg.QueueWorkerSchedule); err != nil {
			logger.WithError(err).Fatal("Failed to schedule queue worker")
		}
		defer worker.Stop()
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	importHandler := handlers.NewImportHandler(catalogRepo, queueRepo, reconciler, xmlFetcher, worker, publisher, logger)
	productsHandler := handlers.NewProductsHandler(catalogRepo, publisher, logger)
	cmsHandler := handlers.NewCMSHandler(cmsRepo, logger)
	ordersHandler := handlers.NewOrdersHandler(cmsRepo, catalogRepo, publisher, logger)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/health", healthHandler.Health)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.Static("/uploads", cfg.UploadsDir)

	// Backoffice
	admin := router.Group("/api/admin")
	admin.Use(middleware.AdminAuth(cfg.IsDevelopment()))
	{
		admin.GET("/products", productsHandler.ListProducts)
		admin.POST("/products", productsHandler.CreateProduct)
		admin.POST("/products/check-references", importHandler.CheckReferences)
		admin.GET("/products/:id", productsHandler.GetProduct)
		admin.PUT("/products/:id", productsHandler.UpdateProduct)
		admin.DELETE("/products/:id", productsHandler.DeleteProduct)

		admin.GET("/categories", productsHandler.ListCategories)
		admin.POST("/categories", productsHandler.CreateCategory)
		admin.PUT("/categories/:id", productsHandler.UpdateCategory)
		admin.DELETE("/categories/:id", productsHandler.DeleteCategory)

		admin.GET("/pages", cmsHandler.ListPages)
		admin.POST("/pages", cmsHandler.CreatePage)
		admin.PUT("/pages/:id", cmsHandler.UpdatePage)
		admin.DELETE("/pages/:id", cmsHandler.DeletePage)

		admin.GET("/menu", cmsHandler.ListMenuItems)
		admin.POST("/menu", cmsHandler.CreateMenuItem)
		admin.PUT("/menu/:id", cmsHandler.UpdateMenuItem)
		admin.DELETE("/menu/:id", cmsHandler.DeleteMenuItem)

		admin.GET("/settings", cmsHandler.ListSettings)
		admin.PUT("/settings", cmsHandler.UpsertSetting)

		admin.GET("/orders", ordersHandler.ListOrders)
		admin.GET("/orders/:id", ordersHandler.GetOrder)
		admin.PUT("/orders/:id/status", ordersHandler.UpdateOrderStatus)

		admin.GET("/quotes", ordersHandler.ListQuotes)
		admin.PUT("/quotes/:id/status", ordersHandler.UpdateQuoteStatus)
	}

	// Import pipeline
	importGroup := router.Group("/api/import")
	importGroup.Use(middleware.AdminAuth(cfg.IsDevelopment()))
	{
		importGroup.GET("/template", importHandler.GetImportTemplate)
		importGroup.POST("/upload", importHandler.UploadFeed)
		importGroup.POST("/makito-advanced", importHandler.ImportAdvanced)
		importGroup.POST("/makito-xml", importHandler.ImportXML)
		importGroup.POST("/process-image-queue", importHandler.ProcessImageQueue)
		importGroup.GET("/image-queue-status", importHandler.ImageQueueStatus)
	}

	// Storefront (public)
	storefront := router.Group("/api/storefront")
	{
		storefront.GET("/products", productsHandler.StorefrontProducts)
		storefront.GET("/products/:id", productsHandler.StorefrontProduct)
		storefront.GET("/categories/:slug", productsHandler.StorefrontCategory)
		storefront.GET("/pages/:slug", cmsHandler.StorefrontPage)
		storefront.GET("/menu", cmsHandler.StorefrontMenu)
		storefront.POST("/orders", ordersHandler.PlaceOrder)
		storefront.POST("/quotes", ordersHandler.SubmitQuote)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Storefront service starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
	logger.Info("Server stopped")
}

func connectDatabase(cfg *config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if cfg.IsDevelopment() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.ProductColor{},
		&models.ProductPrice{},
		&models.ImageQueueEntry{},
		&models.Page{},
		&models.MenuItem{},
		&models.Setting{},
		&models.Order{},
		&models.OrderItem{},
		&models.QuoteRequest{},
	); err != nil {
		return nil, err
	}

	logger.Info("Database connected and migrated")
	return db, nil
}

func connectRedis(cfg *config.Config, logger *logrus.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Info("Redis not configured, caching disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithError(err).Warn("Invalid REDIS_URL, caching disabled")
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, caching disabled")
		return nil
	}

	logger.Info("Redis connected")
	return client
}
