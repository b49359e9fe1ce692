package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruralpay/accountledger/internal/audit"
	"github.com/ruralpay/accountledger/internal/config"
	"github.com/ruralpay/accountledger/internal/database"
	"github.com/ruralpay/accountledger/internal/handlers"
	"github.com/ruralpay/accountledger/internal/lock"
	"github.com/ruralpay/accountledger/internal/repository"
	"github.com/ruralpay/accountledger/internal/services"
	"github.com/spf13/viper"
)

// @title Account Ledger API
// @version 1.0
// @description Per-account balance ledger with lock-serialized mutations
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")
	viper.BindEnv("database.auto_migrate", "DATABASE_AUTO_MIGRATE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("auth.enabled", "AUTH_ENABLED")
	viper.BindEnv("server.port", "PORT")

	viper.SetDefault("database.auto_migrate", true)
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("server.port", "8080")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	ledgerConfig := config.LoadLedgerConfig()
	if err := ledgerConfig.Validate(); err != nil {
		log.Fatalf("Invalid ledger configuration: %v", err)
	}

	db, err := database.InitDB(database.GetConfig())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if viper.GetBool("database.auto_migrate") {
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	locker, closeLocker := initLocker(ledgerConfig)
	defer closeLocker()

	auditLogger := audit.NewLogger()
	ledger := buildLedger(db, locker, ledgerConfig, auditLogger)

	if viper.GetBool("auth.enabled") && viper.GetString("jwt.secret_key") == "" {
		log.Fatal("AUTH_ENABLED requires JWT_SECRET_KEY")
	}

	transactionHandler, err := handlers.NewTransactionHandler(ledger, ledgerConfig.MinAmount, ledgerConfig.MaxAmount)
	if err != nil {
		log.Fatalf("Failed to initialize transaction handler: %v", err)
	}

	router := handlers.NewRouter(
		handlers.NewAccountHandler(ledger),
		transactionHandler,
		handlers.RouterConfig{
			AuthEnabled:    viper.GetBool("auth.enabled"),
			JWTSecret:      viper.GetString("jwt.secret_key"),
			RequestTimeout: 60 * time.Second,
		},
	)

	srv := &http.Server{
		Addr:              ":" + viper.GetString("server.port"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// initLocker picks the lock backend. Redis is required when selected: starting
// without it would let two instances mutate one account concurrently.
func initLocker(cfg *config.LedgerConfig) (lock.Locker, func()) {
	switch cfg.LockBackend {
	case config.LockBackendLocal:
		log.Println("[LOCK] Using in-process locks; run a single instance only")
		return lock.NewLocalLocker(cfg.LockRetryInterval), func() {}
	case config.LockBackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := database.InitRedis(ctx, database.GetRedisConfig())
		if err != nil {
			log.Fatalf("Failed to initialize Redis lock authority: %v", err)
		}
		return lock.NewRedisLocker(client, cfg.LockRetryInterval), func() { client.Close() }
	default:
		log.Fatalf("Unknown lock backend %q", cfg.LockBackend)
		return nil, nil
	}
}

func buildLedger(db *sql.DB, locker lock.Locker, cfg *config.LedgerConfig, auditLogger *audit.Logger) *services.Ledger {
	store := repository.NewStore(db)
	users := repository.NewUserRepository(db)
	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)

	guard := lock.NewGuard(locker, cfg.LockKeyPrefix, cfg.LockWaitTimeout, cfg.LockHoldTimeout, auditLogger)

	accountService := services.NewAccountService(users, accounts, store, auditLogger,
		cfg.MaxAccountsPerUser, cfg.FirstAccountNumber)
	transactionService := services.NewTransactionService(users, accounts, transactions, store,
		services.NewTransactionRecorder(transactions), auditLogger, cfg.CancelWindowYears)

	return services.NewLedger(accountService, transactionService, guard, cfg.RecordsFailures())
}
