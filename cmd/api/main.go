package main

import (
	stdlog "log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/upgestao/tempo-estimado-api/internal/config"
	"github.com/upgestao/tempo-estimado-api/internal/database"
	"github.com/upgestao/tempo-estimado-api/internal/handler"
	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/middleware"
	"github.com/upgestao/tempo-estimado-api/internal/migration"
	"github.com/upgestao/tempo-estimado-api/internal/repository"
	"github.com/upgestao/tempo-estimado-api/internal/service"
)

const Version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Erro ao carregar configurações: %v", err)
	}
	if cfg.TokenAPI == "" {
		stdlog.Fatal("TOKEN_API não configurado")
	}

	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Global()
	log.Info().
		Str("version", Version).
		Str("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Msg("Tempo Estimado API iniciando")

	db, err := database.Connect(database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Erro ao conectar ao banco")
	}
	defer database.Close(db)

	// Migrações de schema (não confundir com a migração de dados)
	if _, err := migration.NewMigrator(db).Run(); err != nil {
		log.Fatal().Err(err).Msg("Erro ao aplicar migrações de schema")
	}

	// Dependências
	recordRepo := repository.NewRecordRepository(db, cfg.PageSize)
	ruleRepo := repository.NewRuleRepository(db)
	coverageService := service.NewCoverageService(ruleRepo)

	estimateHandler := handler.NewEstimateHandler(coverageService, ruleRepo)
	healthHandler := handler.NewHealthHandler(db)

	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(gin.Recovery())

	// Health check (público)
	r.GET("/health", healthHandler.Health)

	// Rotas protegidas
	api := r.Group("/api/v1")
	api.Use(middleware.BearerAuth(middleware.AuthConfig{
		TokenAPI: cfg.TokenAPI,
	}))
	{
		api.GET("/tempo-estimado/cobertura", estimateHandler.GetCobertura)
		api.GET("/tempo-estimado/cobertura/excel", estimateHandler.GetCoberturaExcel)
		api.GET("/tempo-estimado/regras", estimateHandler.ListRegras)

		// A migração só fica disponível pela API quando o operador já
		// escolheu a política de idempotência
		if mode, err := service.ParseMode(cfg.MigrationMode); err == nil {
			migrator := service.NewMigrator(recordRepo, ruleRepo, mode, cfg.BatchSize).
				WithRateLimit(cfg.InsertsPerMinute)
			api.POST("/migracao", handler.NewMigrationHandler(migrator).RunMigration)
		} else {
			log.Warn().Msg("MIGRATION_MODE não configurado, endpoint de migração desabilitado")
		}
	}

	log.Info().Str("port", cfg.Port).Msg("Servidor iniciando")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Erro ao iniciar servidor")
		os.Exit(1)
	}
}
