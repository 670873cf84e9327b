package model

import (
	"database/sql"
	"time"
)

// DateLayout é o formato de data usado em todo o motor (datas de calendário,
// sem hora)
const DateLayout = "2006-01-02"

// UngroupedID é o agrupador sintético usado quando o registro antigo não tem
// agrupador_id. Todos os registros sem grupo são compactados juntos.
const UngroupedID = "sem-grupo"

// Defaults das regras migradas. A tabela antiga não distinguia "trabalhou no
// fim de semana" de "não houve trabalho no fim de semana", então a migração
// assume true para os dois campos. É um default provisório que o operador
// pode corrigir depois sem reprocessar a migração.
const (
	DefaultIncluirFinaisSemana = true
	DefaultIncluirFeriados     = true
)

// EstimateRecord representa um registro diário da tabela tempo_estimado
// (fonte da migração, somente leitura). tempo_estimado_dia é armazenado em
// milissegundos.
type EstimateRecord struct {
	AgrupadorID      sql.NullString `json:"agrupador_id"`
	ClienteID        string         `json:"cliente_id"`
	ProdutoID        sql.NullInt64  `json:"produto_id"`
	TarefaID         sql.NullInt64  `json:"tarefa_id"`
	ResponsavelID    sql.NullInt64  `json:"responsavel_id"`
	TipoTarefaID     sql.NullString `json:"tipo_tarefa_id"`
	Data             time.Time      `json:"data"`
	TempoEstimadoDia sql.NullInt64  `json:"tempo_estimado_dia"`
}

// EstimateRule representa uma regra da tabela tempo_estimado_regra: um
// período de datas (inclusivo nas duas pontas) com tempo estimado por dia.
// No banco tempo_estimado_dia é BIGINT em milissegundos; aqui a unidade é
// explícita via time.Duration.
type EstimateRule struct {
	ID                  int64          `json:"id"`
	AgrupadorID         string         `json:"agrupador_id"`
	ClienteID           string         `json:"cliente_id"`
	ProdutoID           sql.NullInt64  `json:"produto_id"`
	TarefaID            int64          `json:"tarefa_id"`
	ResponsavelID       int64          `json:"responsavel_id"`
	TipoTarefaID        sql.NullString `json:"tipo_tarefa_id"`
	DataInicio          time.Time      `json:"data_inicio"`
	DataFim             time.Time      `json:"data_fim"`
	TempoEstimadoDia    time.Duration  `json:"tempo_estimado_dia"`
	IncluirFinaisSemana bool           `json:"incluir_finais_semana"`
	IncluirFeriados     bool           `json:"incluir_feriados"`
}

// HorasDia retorna o tempo estimado por dia em horas.
func (r EstimateRule) HorasDia() float64 {
	return r.TempoEstimadoDia.Hours()
}

// Covers informa se a regra está vigente na data (comparação de data de
// calendário, inclusiva nas duas pontas).
func (r EstimateRule) Covers(data string) bool {
	inicio := r.DataInicio.Format(DateLayout)
	fim := r.DataFim.Format(DateLayout)
	return inicio <= data && data <= fim
}

// RuleFilter restringe consultas de regras. Filtros nulos não são aplicados.
// Os filtros são empurrados para o banco, nunca aplicados em memória.
type RuleFilter struct {
	ResponsavelID *int64
	ClienteID     *string
}
