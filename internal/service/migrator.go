package service

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/model"
)

// DefaultBatchSize é o tamanho padrão do lote de inserção de regras
const DefaultBatchSize = 100

// MigrationMode é a política de idempotência da migração de dados
type MigrationMode string

const (
	// ModeTruncate limpa a tabela destino antes de inserir
	ModeTruncate MigrationMode = "truncate"
	// ModeUpsert usa ON CONFLICT na combinação única
	ModeUpsert MigrationMode = "upsert"
)

// ParseMode valida a política de idempotência escolhida pelo operador.
// Não existe default: a escolha é obrigatória porque reexecutar a migração
// sem ela duplicaria regras.
func ParseMode(s string) (MigrationMode, error) {
	switch MigrationMode(s) {
	case ModeTruncate, ModeUpsert:
		return MigrationMode(s), nil
	default:
		return "", fmt.Errorf("%w (recebido %q)", model.ErrInvalidMigrationMode, s)
	}
}

// RecordSource fornece todos os registros diários da tabela fonte
type RecordSource interface {
	FetchAll(ctx context.Context) ([]model.EstimateRecord, error)
}

// RuleStore persiste as regras geradas
type RuleStore interface {
	InsertBatch(ctx context.Context, rules []model.EstimateRule) (int, error)
	UpsertBatch(ctx context.Context, rules []model.EstimateRule) (int, error)
	Truncate(ctx context.Context) error
}

// Migrator orquestra a migração de dados: leitura paginada, compactação e
// escrita em lotes. É um job síncrono de passada única, sem concorrência
// interna: cada lote aguarda o anterior.
type Migrator struct {
	source    RecordSource
	store     RuleStore
	compactor *Compactor
	mode      MigrationMode
	batchSize int
	limiter   *rate.Limiter
}

// NewMigrator cria um novo migrador de dados
func NewMigrator(source RecordSource, store RuleStore, mode MigrationMode, batchSize int) *Migrator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Migrator{
		source:    source,
		store:     store,
		compactor: NewCompactor(),
		mode:      mode,
		batchSize: batchSize,
	}
}

// WithRateLimit limita o ritmo de envio dos lotes (lotes por minuto) para
// não saturar o banco em produção. Zero desativa o limite.
func (m *Migrator) WithRateLimit(batchesPerMinute int) *Migrator {
	if batchesPerMinute > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(float64(batchesPerMinute)/60.0), 1)
	}
	return m
}

// Run executa a migração completa e retorna o relatório. Falha de leitura é
// fatal (nada é escrito); falha de lote é contada no relatório e a execução
// continua no próximo lote. Resiliência no lugar de atomicidade.
func (m *Migrator) Run(ctx context.Context) (model.MigrationReport, error) {
	log := logger.Get(ctx)
	log.Info().Str("mode", string(m.mode)).Int("batch_size", m.batchSize).
		Msg("Iniciando migração tempo_estimado -> tempo_estimado_regra")

	if _, err := ParseMode(string(m.mode)); err != nil {
		return model.MigrationReport{}, err
	}

	records, err := m.source.FetchAll(ctx)
	if err != nil {
		return model.MigrationReport{}, fmt.Errorf("%w: %v", model.ErrFatalRead, err)
	}

	if len(records) == 0 {
		log.Warn().Msg("Nenhum registro em tempo_estimado, nada a migrar")
		return model.MigrationReport{}, nil
	}

	rules, report := m.compactor.Compact(records)

	if m.mode == ModeTruncate {
		if err := m.store.Truncate(ctx); err != nil {
			// Abortar aqui evita duplicar regras por cima das antigas
			return report, fmt.Errorf("erro ao limpar tabela destino: %w", err)
		}
	}

	m.writeBatches(ctx, rules, &report)

	log.Info().
		Int("agrupadores_processados", report.GroupsProcessed).
		Int("regras_criadas", report.RulesCreated).
		Int("registros_antigos", report.SourceRecords).
		Int("erros", report.Errors).
		Float64("reducao_pct", report.ReductionPercent()).
		Msg("Relatório da migração")

	if report.Incomplete() {
		log.Warn().Int("erros", report.Errors).
			Msg("Migração concluída com erros parciais, verifique os avisos")
	}

	return report, nil
}

// writeBatches insere as regras em lotes fixos. Um lote que falha tem seus
// offsets logados e suas linhas somadas ao contador de erros; os lotes já
// confirmados não são desfeitos.
func (m *Migrator) writeBatches(ctx context.Context, rules []model.EstimateRule, report *model.MigrationReport) {
	log := logger.Get(ctx)

	for i := 0; i < len(rules); i += m.batchSize {
		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				log.Error().Err(err).Msg("Rate limiter interrompido, abortando lotes restantes")
				report.Errors += len(rules) - i
				return
			}
		}

		end := i + m.batchSize
		if end > len(rules) {
			end = len(rules)
		}
		lote := rules[i:end]

		var inserted int
		var err error
		if m.mode == ModeUpsert {
			inserted, err = m.store.UpsertBatch(ctx, lote)
		} else {
			inserted, err = m.store.InsertBatch(ctx, lote)
		}

		if err != nil {
			log.Error().Err(err).
				Int("inicio", i+1).
				Int("fim", end).
				Int("total", len(rules)).
				Msg("Erro ao inserir lote de regras, continuando no próximo")
			report.Errors += len(lote)
			continue
		}

		log.Info().
			Int("inicio", i+1).
			Int("fim", end).
			Int("inseridas", inserted).
			Int("total", len(rules)).
			Msg("Lote de regras inserido")
	}
}
