package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/model"
)

// DefaultPageSize é o tamanho padrão da página na leitura da tabela fonte
const DefaultPageSize = 1000

// RecordRepository lê a tabela tempo_estimado (fonte da migração).
// Nenhuma operação de escrita. Os registros antigos permanecem intactos.
type RecordRepository struct {
	db       *sql.DB
	pageSize int
}

// NewRecordRepository cria um novo repositório de registros diários
func NewRecordRepository(db *sql.DB, pageSize int) *RecordRepository {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &RecordRepository{db: db, pageSize: pageSize}
}

// FetchAll busca todos os registros da tabela tempo_estimado com paginação
// automática, ordenados por agrupador_id e data. A ordenação é preservada
// entre páginas porque a compactação depende de iteração estável. Qualquer
// erro de página aborta a leitura inteira; nunca aceita resultado parcial.
func (r *RecordRepository) FetchAll(ctx context.Context) ([]model.EstimateRecord, error) {
	query := `
		SELECT agrupador_id, cliente_id, produto_id, tarefa_id,
		       responsavel_id, tipo_tarefa_id, data, tempo_estimado_dia
		FROM tempo_estimado
		ORDER BY agrupador_id, data
		LIMIT $1 OFFSET $2
	`

	var all []model.EstimateRecord
	offset := 0
	page := 1

	for {
		records, err := r.fetchPage(ctx, query, offset)
		if err != nil {
			return nil, fmt.Errorf("página %d (offset %d): %w", page, offset, err)
		}

		all = append(all, records...)

		// Menos que uma página cheia significa fim do resultado
		if len(records) < r.pageSize {
			break
		}

		logger.Get(ctx).Info().
			Int("page", page).
			Int("total", len(all)).
			Msg("Busca paginada de tempo_estimado em andamento")

		offset += r.pageSize
		page++
	}

	logger.Get(ctx).Info().
		Int("records", len(all)).
		Int("pages", page).
		Msg("Busca paginada de tempo_estimado completa")

	return all, nil
}

// fetchPage busca uma página de registros
func (r *RecordRepository) fetchPage(ctx context.Context, query string, offset int) ([]model.EstimateRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, r.pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar registros: %w", err)
	}
	defer rows.Close()

	var records []model.EstimateRecord
	for rows.Next() {
		var rec model.EstimateRecord
		if err := rows.Scan(
			&rec.AgrupadorID,
			&rec.ClienteID,
			&rec.ProdutoID,
			&rec.TarefaID,
			&rec.ResponsavelID,
			&rec.TipoTarefaID,
			&rec.Data,
			&rec.TempoEstimadoDia,
		); err != nil {
			return nil, fmt.Errorf("erro ao escanear registro: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar registros: %w", err)
	}

	return records, nil
}
