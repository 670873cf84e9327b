// Comando de migração de dados: compacta os registros diários da tabela
// tempo_estimado em regras de período na tabela tempo_estimado_regra.
//
// Execução: MIGRATION_MODE=truncate|upsert go run ./cmd/migrate
//
// Sai com código 0 ao concluir, mesmo com erros parciais (verifique o campo
// "erros" do relatório). Código diferente de zero apenas em falha fatal de
// leitura ou configuração.
package main

import (
	"context"
	stdlog "log"
	"os"

	"github.com/google/uuid"

	"github.com/upgestao/tempo-estimado-api/internal/config"
	"github.com/upgestao/tempo-estimado-api/internal/database"
	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/migration"
	"github.com/upgestao/tempo-estimado-api/internal/repository"
	"github.com/upgestao/tempo-estimado-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Erro ao carregar configurações: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Global()

	mode, err := service.ParseMode(cfg.MigrationMode)
	if err != nil {
		log.Fatal().Err(err).Msg("Política de idempotência não escolhida")
	}

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

	if _, err := migration.NewMigrator(db).Run(); err != nil {
		log.Fatal().Err(err).Msg("Erro ao aplicar migrações de schema")
	}

	recordRepo := repository.NewRecordRepository(db, cfg.PageSize)
	ruleRepo := repository.NewRuleRepository(db)
	migrator := service.NewMigrator(recordRepo, ruleRepo, mode, cfg.BatchSize).
		WithRateLimit(cfg.InsertsPerMinute)

	operationID := uuid.New().String()[:8]
	ctx := logger.WithOperationID(context.Background(), operationID)

	report, err := migrator.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Migração abortada")
		os.Exit(1)
	}

	log.Info().
		Str("operation_id", operationID).
		Int("agrupadores_processados", report.GroupsProcessed).
		Int("regras_criadas", report.RulesCreated).
		Int("registros_antigos", report.SourceRecords).
		Int("erros", report.Errors).
		Float64("reducao_pct", report.ReductionPercent()).
		Msg("Migração finalizada")
}
