// Comando de diagnóstico, somente leitura: mostra quais regras de tempo
// estimado cobrem a data de hoje, agrupadas por responsável e cliente.
// Não escreve nada no banco.
package main

import (
	"context"
	stdlog "log"
	"os"
	"time"

	"github.com/upgestao/tempo-estimado-api/internal/config"
	"github.com/upgestao/tempo-estimado-api/internal/database"
	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/model"
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

	hoje := time.Now().Format(model.DateLayout)
	log.Info().Str("data", hoje).Msg("Verificando cobertura de tempo estimado para hoje")

	coverageService := service.NewCoverageService(repository.NewRuleRepository(db))
	report, err := coverageService.ActiveOn(context.Background(), hoje, model.RuleFilter{})
	if err != nil {
		log.Error().Err(err).Msg("Erro ao avaliar cobertura")
		os.Exit(1)
	}

	if report.TotalRegras == 0 {
		log.Warn().Msg("Nenhuma regra cobre a data de hoje")
		return
	}

	for _, responsavel := range report.Responsaveis {
		log.Info().
			Int64("responsavel_id", responsavel.ResponsavelID).
			Int("regras", responsavel.TotalRegras).
			Int("clientes", len(responsavel.Clientes)).
			Msg("Responsável com regras vigentes")

		for _, cliente := range responsavel.Clientes {
			log.Info().
				Str("cliente_id", cliente.ClienteID).
				Int("regras", len(cliente.Regras)).
				Float64("horas_dia", cliente.HorasDia).
				Msg("Cliente com cobertura hoje")

			for _, regra := range cliente.Regras {
				log.Info().
					Int64("id", regra.ID).
					Str("periodo", regra.DataInicio+" até "+regra.DataFim).
					Float64("horas_dia", regra.HorasDia).
					Bool("finais_semana", regra.IncluirFinaisSemana).
					Bool("feriados", regra.IncluirFeriados).
					Msg("Regra vigente")
			}
		}
	}

	log.Info().Int("total_regras", report.TotalRegras).Msg("Verificação concluída")
}
