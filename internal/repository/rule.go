package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/model"
)

// ruleInsertColumns é a lista de colunas preenchidas na inserção de regras
const ruleInsertColumns = `agrupador_id, cliente_id, produto_id, tarefa_id,
	responsavel_id, tipo_tarefa_id, data_inicio, data_fim,
	tempo_estimado_dia, incluir_finais_semana, incluir_feriados`

const ruleSelectColumns = `id, agrupador_id, cliente_id, produto_id, tarefa_id,
	responsavel_id, tipo_tarefa_id, data_inicio, data_fim,
	tempo_estimado_dia, incluir_finais_semana, incluir_feriados`

// RuleRepository gerencia a tabela tempo_estimado_regra
type RuleRepository struct {
	db *sql.DB
}

// NewRuleRepository cria um novo repositório de regras
func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// InsertBatch insere um lote de regras em uma única instrução multi-VALUES
// e retorna quantas linhas foram inseridas. O chamador controla o tamanho
// do lote; lotes grandes demais estouram o limite de parâmetros do driver.
func (r *RuleRepository) InsertBatch(ctx context.Context, rules []model.EstimateRule) (int, error) {
	if len(rules) == 0 {
		return 0, nil
	}
	query, args := buildInsert(rules, "")
	return r.execBatch(ctx, query, args)
}

// UpsertBatch insere um lote de regras com ON CONFLICT na combinação única
// (uq_regra_combinacao). Regras já existentes têm o período e o tempo por
// dia atualizados. É o que torna a migração reexecutável no modo upsert.
func (r *RuleRepository) UpsertBatch(ctx context.Context, rules []model.EstimateRule) (int, error) {
	if len(rules) == 0 {
		return 0, nil
	}
	onConflict := `
		ON CONFLICT (agrupador_id, cliente_id, COALESCE(produto_id, -1),
			tarefa_id, responsavel_id, COALESCE(tipo_tarefa_id, ''))
		DO UPDATE SET
			data_inicio = EXCLUDED.data_inicio,
			data_fim = EXCLUDED.data_fim,
			tempo_estimado_dia = EXCLUDED.tempo_estimado_dia,
			updated_at = NOW()`
	query, args := buildInsert(rules, onConflict)
	return r.execBatch(ctx, query, args)
}

// Truncate limpa a tabela de regras. Usado pelo modo truncate da migração
// antes da primeira inserção.
func (r *RuleRepository) Truncate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "TRUNCATE TABLE tempo_estimado_regra RESTART IDENTITY"); err != nil {
		return fmt.Errorf("erro ao truncar tempo_estimado_regra: %w", err)
	}
	logger.Get(ctx).Warn().Msg("Tabela tempo_estimado_regra truncada (modo truncate)")
	return nil
}

// ActiveOn retorna as regras vigentes na data (data_inicio <= data <=
// data_fim, inclusivo). Filtros opcionais de responsável/cliente são
// aplicados na query, não em memória.
func (r *RuleRepository) ActiveOn(ctx context.Context, data string, filter model.RuleFilter) ([]model.EstimateRule, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tempo_estimado_regra
		WHERE data_inicio <= $1 AND data_fim >= $1
	`, ruleSelectColumns)

	args := []interface{}{data}
	if filter.ResponsavelID != nil {
		args = append(args, *filter.ResponsavelID)
		query += fmt.Sprintf(" AND responsavel_id = $%d", len(args))
	}
	if filter.ClienteID != nil {
		args = append(args, strings.TrimSpace(*filter.ClienteID))
		query += fmt.Sprintf(" AND cliente_id = $%d", len(args))
	}
	query += " ORDER BY responsavel_id, cliente_id, id"

	return r.queryRules(ctx, query, args...)
}

// List retorna regras com filtros opcionais, mais recentes primeiro
func (r *RuleRepository) List(ctx context.Context, filter model.RuleFilter, limit int) ([]model.EstimateRule, error) {
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf("SELECT %s FROM tempo_estimado_regra WHERE 1=1", ruleSelectColumns)
	var args []interface{}
	if filter.ResponsavelID != nil {
		args = append(args, *filter.ResponsavelID)
		query += fmt.Sprintf(" AND responsavel_id = $%d", len(args))
	}
	if filter.ClienteID != nil {
		args = append(args, strings.TrimSpace(*filter.ClienteID))
		query += fmt.Sprintf(" AND cliente_id = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	return r.queryRules(ctx, query, args...)
}

// Sample retorna uma amostra das regras existentes, em ordem de criação.
// Usado no diagnóstico quando nenhuma regra cobre a data consultada.
func (r *RuleRepository) Sample(ctx context.Context, limit int) ([]model.EstimateRule, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf("SELECT %s FROM tempo_estimado_regra ORDER BY id LIMIT $1", ruleSelectColumns)
	return r.queryRules(ctx, query, limit)
}

// Count retorna o total de regras persistidas
func (r *RuleRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tempo_estimado_regra").Scan(&count); err != nil {
		return 0, fmt.Errorf("erro ao contar regras: %w", err)
	}
	return count, nil
}

// buildInsert monta a instrução multi-VALUES para um lote de regras
func buildInsert(rules []model.EstimateRule, onConflict string) (string, []interface{}) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO tempo_estimado_regra (%s) VALUES ", ruleInsertColumns)

	args := make([]interface{}, 0, len(rules)*11)
	for i, rule := range rules {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 11
		sb.WriteString("(")
		for j := 1; j <= 11; j++ {
			if j > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+j)
		}
		sb.WriteString(")")

		args = append(args,
			rule.AgrupadorID,
			rule.ClienteID,
			rule.ProdutoID,
			rule.TarefaID,
			rule.ResponsavelID,
			rule.TipoTarefaID,
			rule.DataInicio,
			rule.DataFim,
			rule.TempoEstimadoDia.Milliseconds(),
			rule.IncluirFinaisSemana,
			rule.IncluirFeriados,
		)
	}

	sb.WriteString(onConflict)
	return sb.String(), args
}

// execBatch executa a inserção e retorna o número de linhas afetadas
func (r *RuleRepository) execBatch(ctx context.Context, query string, args []interface{}) (int, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("erro ao inserir lote de regras: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("erro ao obter linhas afetadas: %w", err)
	}
	return int(affected), nil
}

// queryRules executa uma consulta e escaneia as regras
func (r *RuleRepository) queryRules(ctx context.Context, query string, args ...interface{}) ([]model.EstimateRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar regras: %w", err)
	}
	defer rows.Close()

	var rules []model.EstimateRule
	for rows.Next() {
		var rule model.EstimateRule
		var tempoMs int64
		if err := rows.Scan(
			&rule.ID,
			&rule.AgrupadorID,
			&rule.ClienteID,
			&rule.ProdutoID,
			&rule.TarefaID,
			&rule.ResponsavelID,
			&rule.TipoTarefaID,
			&rule.DataInicio,
			&rule.DataFim,
			&tempoMs,
			&rule.IncluirFinaisSemana,
			&rule.IncluirFeriados,
		); err != nil {
			return nil, fmt.Errorf("erro ao escanear regra: %w", err)
		}
		// Coluna em milissegundos, modelo em time.Duration
		rule.TempoEstimadoDia = time.Duration(tempoMs) * time.Millisecond
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar regras: %w", err)
	}

	return rules, nil
}
