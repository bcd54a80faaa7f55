package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/verdantlabs/carbon_registry_app/internal/adapters/database/pgsql"
	"github.com/verdantlabs/carbon_registry_app/internal/adapters/ledger/evm"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/ledger"
	portssvc "github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
	"github.com/verdantlabs/carbon_registry_app/internal/core/services"
	"github.com/verdantlabs/carbon_registry_app/internal/dto"
	"github.com/verdantlabs/carbon_registry_app/internal/handlers"
	"github.com/verdantlabs/carbon_registry_app/internal/middleware"
	"github.com/verdantlabs/carbon_registry_app/internal/utils"
	"github.com/verdantlabs/carbon_registry_app/pkg/config"
	"github.com/verdantlabs/carbon_registry_app/pkg/database"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	chainClient, err := evm.NewClient(evm.Config{
		RPCURL:           cfg.ChainRPCURL,
		PrivateKeyHex:    cfg.RegulatorPrivateKey,
		ChainID:          cfg.ChainID,
		TokenContract:    cfg.TokenContractAddr,
		RegistryContract: cfg.RegistryContractAddr,
		ConfirmTimeout:   cfg.LedgerConfirmTimeout,
	})
	if err != nil {
		logger.Error("Failed to initialize chain client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer chainClient.Close()
	logger.Info("Chain client initialized", slog.String("rpc_url", cfg.ChainRPCURL))

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer posthogClient.Close()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	dto.RegisterCustomValidators()

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}))
	r.Use(middleware.PosthogMiddleware(posthogClient))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	setupRoutes(r, cfg, dbPool, chainClient, posthogClient)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending schema migrations through a temporary
// database/sql connection compatible with the main pgx pool.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

func setupRoutes(r *gin.Engine, cfg *config.Config, dbPool *pgxpool.Pool, chainClient ledger.Client, posthogClient *utils.PosthogClientWrapper) {
	userRepo := pgsql.NewUserRepository(dbPool)
	reportRepo := pgsql.NewReportRepository(dbPool)
	creditRepo := pgsql.NewCreditRepository(dbPool)
	txnRepo := pgsql.NewTransactionRepository(dbPool)
	auditRepo := pgsql.NewAuditRepository(dbPool)
	reconRepo := pgsql.NewReconciliationRepository(dbPool)

	userService := services.NewUserService(userRepo)
	reportService := services.NewReportService(reportRepo, userRepo, reconRepo, chainClient, posthogClient)
	reconService := services.NewReconciliationService(reportRepo, creditRepo, userRepo, reconRepo, chainClient, posthogClient, cfg.TokenContractAddr, cfg.VerifyTransferProof)
	creditService := services.NewCreditService(creditRepo)
	txnService := services.NewTransactionService(txnRepo)
	auditService := services.NewAuditService(auditRepo)

	healthHandler := handlers.NewHealthHandler(dbPool)
	r.GET("/health", healthHandler.Health)

	authHandler := handlers.NewAuthHandler(userService, cfg)

	loginRate, err := limiter.NewRateFromFormatted(cfg.LoginRateLimit)
	if err != nil {
		loginRate = limiter.Rate{Period: time.Minute, Limit: 10}
	}
	loginLimiter := limiter.New(memory.NewStore(), loginRate)

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", middleware.RateLimit(loginLimiter), authHandler.Login)
	}

	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	users := v1.Group("/users")
	{
		users.GET("/me", authHandler.Me)
		users.POST("/me/wallet", authHandler.LinkWallet)
		users.DELETE("/me/wallet", authHandler.UnlinkWallet)
	}

	addReportAPI(v1, reportService, userService, cfg)
	addReviewAPI(v1, reportService, reconService, userService)
	addCreditAPI(v1, creditService, reconService)
	addTransactionAPI(v1, txnService)
	addAuditAPI(v1, auditService)
}

func addReportAPI(v1 *gin.RouterGroup, reportService portssvc.ReportSvcFacade, userService portssvc.UserSvcFacade, cfg *config.Config) {
	h := handlers.NewReportHandler(reportService, userService, cfg.UploadDir, cfg.MaxUploadSize)

	reports := v1.Group("/reports")
	{
		reports.POST("", middleware.RequireRoles("company"), h.SubmitReport)
		reports.GET("", h.ListReports)
		reports.GET("/:reportID", h.GetReport)
		reports.POST("/:reportID/documents", middleware.RequireRoles("company"), h.AttachDocuments)
	}
}

func addReviewAPI(v1 *gin.RouterGroup, reportService portssvc.ReportSvcFacade, reconService portssvc.ReconciliationSvcFacade, userService portssvc.UserSvcFacade) {
	h := handlers.NewReviewHandler(reportService, reconService, userService)

	reviews := v1.Group("/reviews", middleware.RequireRoles("regulator"))
	{
		reviews.GET("/pending", h.ListPendingReviews)
		reviews.GET("/:reportID", h.GetReview)
		reviews.POST("/:reportID/approve", h.ApproveReport)
		reviews.POST("/:reportID/reject", h.RejectReport)
	}
}

func addCreditAPI(v1 *gin.RouterGroup, creditService portssvc.CreditSvcFacade, reconService portssvc.ReconciliationSvcFacade) {
	h := handlers.NewCreditHandler(creditService, reconService)

	credits := v1.Group("/credits")
	{
		credits.GET("", h.ListCredits)
		credits.GET("/wallet", h.WalletBalance)
		credits.GET("/:creditID", h.GetCredit)
		credits.POST("/:creditID/transfer", middleware.RequireRoles("company"), h.TransferCredit)
		credits.POST("/:creditID/retire", middleware.RequireRoles("company"), h.RetireCredit)
	}
}

func addTransactionAPI(v1 *gin.RouterGroup, txnService portssvc.TransactionSvcFacade) {
	h := handlers.NewTransactionHandler(txnService)

	txns := v1.Group("/transactions")
	{
		txns.GET("", h.ListTransactions)
		txns.GET("/:transactionID", h.GetTransaction)
	}
}

func addAuditAPI(v1 *gin.RouterGroup, auditService portssvc.AuditSvcFacade) {
	h := handlers.NewAuditHandler(auditService)

	audit := v1.Group("/audit", middleware.RequireRoles("regulator", "admin"))
	{
		audit.GET("", h.ListAuditEntries)
		audit.GET("/stats", h.GetAuditStats)
	}
}
