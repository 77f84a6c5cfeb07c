package main

import (
	"github.com/fixloop/fixloop-backend/internal/db"
	"github.com/fixloop/fixloop-backend/internal/pkg/envutil"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
	"github.com/fixloop/fixloop-backend/internal/repos"
	"github.com/fixloop/fixloop-backend/internal/server"
	"github.com/fixloop/fixloop-backend/internal/services"
)

func main() {
	log, err := logger.New(envutil.GetEnv("LOG_MODE", "development", nil))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	database, err := db.New(log)
	if err != nil {
		log.Fatal("Database connection failed", "error", err)
	}
	if envutil.GetEnvAsBool("DB_AUTO_MIGRATE", true, log) {
		if err := database.AutoMigrateAll(); err != nil {
			log.Fatal("Database migration failed", "error", err)
		}
	}
	gdb := database.DB()

	paramRepo := repos.NewParameterVersionRepo(gdb, log)
	ruleRepo := repos.NewRuleSetVersionRepo(gdb, log)
	reviewRepo := repos.NewReviewRepo(gdb, log)
	reviewThemeRepo := repos.NewReviewThemeRepo(gdb, log)
	runRepo := repos.NewScoreRunRepo(gdb, log)
	reviewScoreRepo := repos.NewReviewScoreRepo(gdb, log)
	themeScoreRepo := repos.NewThemeScoreRepo(gdb, log)
	taskRepo := repos.NewTaskRepo(gdb, log)
	fixScoreRepo := repos.NewFixScoreRepo(gdb, log)
	themeRepo := repos.NewThemeRepo(gdb, log)
	tenantRepo := repos.NewTenantRepo(gdb, log)

	txRunner := services.NewTxRunner(gdb, log)
	notifier := services.NewRunNotifier(envutil.GetEnv("REDIS_ADDR", "", log), log)
	workers := envutil.GetEnvAsInt("SCORE_RUN_WORKERS", 8, log)

	tenantService := services.NewTenantService(tenantRepo, themeRepo, log)
	configService := services.NewConfigService(paramRepo, ruleRepo, txRunner, log)
	runService := services.NewScoreRunService(
		runRepo, tenantRepo, reviewRepo, reviewThemeRepo, reviewScoreRepo,
		themeScoreRepo, paramRepo, ruleRepo, txRunner, notifier, workers, log,
	)
	fixScoreService := services.NewFixScoreService(
		taskRepo, fixScoreRepo, reviewThemeRepo, reviewScoreRepo, runRepo,
		paramRepo, txRunner, notifier, log,
	)
	taskService := services.NewTaskService(taskRepo, themeRepo, fixScoreService, log)

	router := server.NewRouter(server.Deps{
		DB:        gdb,
		Tenants:   tenantService,
		Configs:   configService,
		Runs:      runService,
		Tasks:     taskService,
		FixScores: fixScoreService,
		Log:       log,
	})

	addr := ":" + envutil.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
