package service

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/model"
)

// Compactor converte registros diários de tempo_estimado em regras de
// período. O agrupamento é em dois níveis: agrupador_id e, dentro dele, a
// chave de combinação (cliente, produto, tarefa, responsável, tipo de
// tarefa). Cada par (agrupador, combinação) vira no máximo uma regra.
type Compactor struct {
	log *zerolog.Logger
}

// NewCompactor cria um novo compactador
func NewCompactor() *Compactor {
	return &Compactor{log: logger.Global()}
}

// group acumula o estado de um agrupador durante a passada única.
// O min/max do grupo é informativo e serve apenas de fallback quando uma
// combinação não tem datas próprias.
type group struct {
	agrupadorID string
	combinacoes map[model.CombinationKey]*combination
	ordem       []model.CombinationKey
	dataMinima  string
	dataMaxima  string
}

// combination acumula o estado de uma combinação única dentro de um grupo.
// tempoDia é fixado na criação e nunca atualizado: se o primeiro registro
// não tem tempo, a combinação fica sem tempo e é pulada na emissão.
type combination struct {
	primeiro   model.EstimateRecord // primeiro registro visto, fonte dos campos tipados
	tempoDia   sql.NullInt64        // milissegundos, fixado no primeiro registro
	datas      map[string]struct{}  // datas distintas, duplicatas coalescem
	dataMinima string
	dataMaxima string
}

// Compact consome os registros em ordem de leitura e emite as regras junto
// com o relatório da compactação. É uma passada única sobre um mapa em
// memória; a ordem de emissão segue a ordem de primeira aparição, o que
// torna o "primeiro valor vence" reprodutível.
func (c *Compactor) Compact(records []model.EstimateRecord) ([]model.EstimateRule, model.MigrationReport) {
	report := model.MigrationReport{SourceRecords: len(records)}

	groups := make(map[string]*group)
	var groupOrder []string

	for _, record := range records {
		agrupadorID := model.UngroupedID
		if record.AgrupadorID.Valid && record.AgrupadorID.String != "" {
			agrupadorID = record.AgrupadorID.String
		}

		g, ok := groups[agrupadorID]
		if !ok {
			g = &group{
				agrupadorID: agrupadorID,
				combinacoes: make(map[model.CombinationKey]*combination),
			}
			groups[agrupadorID] = g
			groupOrder = append(groupOrder, agrupadorID)
		}

		data := normalizeDate(record.Data)
		if data != "" {
			if g.dataMinima == "" || data < g.dataMinima {
				g.dataMinima = data
			}
			if g.dataMaxima == "" || data > g.dataMaxima {
				g.dataMaxima = data
			}
		}

		key := model.DeriveCombinationKey(record)
		comb, ok := g.combinacoes[key]
		if !ok {
			comb = &combination{
				primeiro: record,
				tempoDia: record.TempoEstimadoDia,
				datas:    make(map[string]struct{}),
			}
			g.combinacoes[key] = comb
			g.ordem = append(g.ordem, key)
		}

		// Tempo por dia deve ser consistente dentro da combinação.
		// Divergência é aviso, não erro: o primeiro valor visto vence.
		if comb.tempoDia.Valid && record.TempoEstimadoDia.Valid &&
			comb.tempoDia.Int64 != record.TempoEstimadoDia.Int64 {
			c.log.Warn().
				Str("agrupador_id", agrupadorID).
				Str("combinacao", key.String()).
				Int64("esperado_ms", comb.tempoDia.Int64).
				Int64("encontrado_ms", record.TempoEstimadoDia.Int64).
				Msg("Tempo estimado inconsistente na combinação")
		}

		if data != "" {
			if _, seen := comb.datas[data]; !seen {
				comb.datas[data] = struct{}{}
				if comb.dataMinima == "" || data < comb.dataMinima {
					comb.dataMinima = data
				}
				if comb.dataMaxima == "" || data > comb.dataMaxima {
					comb.dataMaxima = data
				}
			}
		}
	}

	var rules []model.EstimateRule
	for _, agrupadorID := range groupOrder {
		g := groups[agrupadorID]
		report.GroupsProcessed++

		if g.dataMinima == "" || g.dataMaxima == "" {
			c.log.Warn().
				Str("agrupador_id", agrupadorID).
				Msg("Agrupador sem datas válidas, pulando")
			report.Errors++
			continue
		}

		for _, key := range g.ordem {
			comb := g.combinacoes[key]

			rule, ok := c.emitRule(g, key, comb, &report)
			if !ok {
				continue
			}
			rules = append(rules, rule)
			report.RulesCreated++
		}
	}

	c.log.Info().
		Int("agrupadores", report.GroupsProcessed).
		Int("regras", report.RulesCreated).
		Int("registros", report.SourceRecords).
		Int("erros", report.Errors).
		Msg("Compactação concluída")

	return rules, report
}

// emitRule valida uma combinação e monta a regra correspondente. Combinações
// sem datas ou sem os campos que tornam a regra acionável (tarefa,
// responsável, tempo por dia) são puladas e contadas como erro.
func (c *Compactor) emitRule(g *group, key model.CombinationKey, comb *combination, report *model.MigrationReport) (model.EstimateRule, bool) {
	// Período da combinação, com fallback no período do grupo
	dataInicio := comb.dataMinima
	if dataInicio == "" {
		dataInicio = g.dataMinima
	}
	dataFim := comb.dataMaxima
	if dataFim == "" {
		dataFim = g.dataMaxima
	}

	if dataInicio == "" || dataFim == "" {
		c.log.Warn().
			Str("agrupador_id", g.agrupadorID).
			Str("combinacao", key.String()).
			Msg("Combinação sem datas válidas, pulando")
		report.Errors++
		return model.EstimateRule{}, false
	}

	rec := comb.primeiro
	if !rec.TarefaID.Valid || !rec.ResponsavelID.Valid || !comb.tempoDia.Valid {
		c.log.Warn().
			Str("agrupador_id", g.agrupadorID).
			Str("combinacao", key.String()).
			Msg("Combinação com campos obrigatórios faltando, pulando")
		report.Errors++
		return model.EstimateRule{}, false
	}

	inicio, err1 := time.Parse(model.DateLayout, dataInicio)
	fim, err2 := time.Parse(model.DateLayout, dataFim)
	if err1 != nil || err2 != nil {
		c.log.Warn().
			Str("agrupador_id", g.agrupadorID).
			Str("combinacao", key.String()).
			Msg("Combinação com datas fora do formato, pulando")
		report.Errors++
		return model.EstimateRule{}, false
	}

	return model.EstimateRule{
		AgrupadorID:      g.agrupadorID,
		ClienteID:        key.ClienteID,
		ProdutoID:        rec.ProdutoID,
		TarefaID:         rec.TarefaID.Int64,
		ResponsavelID:    rec.ResponsavelID.Int64,
		TipoTarefaID:     rec.TipoTarefaID,
		DataInicio:       inicio,
		DataFim:          fim,
		TempoEstimadoDia: time.Duration(comb.tempoDia.Int64) * time.Millisecond,
		// Defaults provisórios: a tabela antiga não registrava essa
		// informação (ver model.DefaultIncluirFinaisSemana)
		IncluirFinaisSemana: model.DefaultIncluirFinaisSemana,
		IncluirFeriados:     model.DefaultIncluirFeriados,
	}, true
}

// normalizeDate normaliza para data de calendário YYYY-MM-DD, descartando
// hora. Retorna vazio para data zero.
func normalizeDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}
