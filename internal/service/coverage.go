package service

import (
	"context"
	"fmt"
	"time"

	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/model"
)

// RuleFinder consulta regras persistidas
type RuleFinder interface {
	ActiveOn(ctx context.Context, data string, filter model.RuleFilter) ([]model.EstimateRule, error)
	Sample(ctx context.Context, limit int) ([]model.EstimateRule, error)
}

// CoverageService avalia quais regras estão vigentes em uma data e agrupa o
// resultado para relatório: primeiro por responsável, depois por cliente.
type CoverageService struct {
	rules RuleFinder
}

// NewCoverageService cria um novo avaliador de cobertura
func NewCoverageService(rules RuleFinder) *CoverageService {
	return &CoverageService{rules: rules}
}

// ClienteCoverage agrega as regras vigentes de um cliente
type ClienteCoverage struct {
	ClienteID string        `json:"cliente_id"`
	Regras    []RegraView   `json:"regras"`
	TotalDia  time.Duration `json:"-"`
	HorasDia  float64       `json:"horas_dia"`
}

// ResponsavelCoverage agrega os clientes de um responsável
type ResponsavelCoverage struct {
	ResponsavelID int64             `json:"responsavel_id"`
	Clientes      []ClienteCoverage `json:"clientes"`
	TotalRegras   int               `json:"total_regras"`
}

// RegraView é a visão de relatório de uma regra vigente. O tempo por dia é
// reportado em horas. A coluna do banco é milissegundos e a conversão é
// explícita aqui e em nenhum outro lugar.
type RegraView struct {
	ID                  int64   `json:"id"`
	AgrupadorID         string  `json:"agrupador_id"`
	ProdutoID           *int64  `json:"produto_id"`
	TarefaID            int64   `json:"tarefa_id"`
	TipoTarefaID        *string `json:"tipo_tarefa_id"`
	DataInicio          string  `json:"data_inicio"`
	DataFim             string  `json:"data_fim"`
	HorasDia            float64 `json:"horas_dia"`
	IncluirFinaisSemana bool    `json:"incluir_finais_semana"`
	IncluirFeriados     bool    `json:"incluir_feriados"`
}

// CoverageReport é o resultado da avaliação de cobertura para uma data
type CoverageReport struct {
	Data         string                `json:"data"`
	Responsaveis []ResponsavelCoverage `json:"responsaveis"`
	TotalRegras  int                   `json:"total_regras"`
}

// ActiveOn retorna as regras vigentes na data, agrupadas por responsável e
// cliente. Data sem cobertura não é erro: o resultado volta vazio e uma
// amostra das regras existentes é logada para diagnóstico.
func (s *CoverageService) ActiveOn(ctx context.Context, data string, filter model.RuleFilter) (*CoverageReport, error) {
	log := logger.Get(ctx)

	if _, err := time.Parse(model.DateLayout, data); err != nil {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidDate, data)
	}

	rules, err := s.rules.ActiveOn(ctx, data, filter)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar regras vigentes: %w", err)
	}

	report := &CoverageReport{Data: data, TotalRegras: len(rules)}

	if len(rules) == 0 {
		log.Warn().Str("data", data).Msg("Nenhuma regra cobre a data consultada")
		s.logSample(ctx, data)
		return report, nil
	}

	report.Responsaveis = groupByResponsavel(rules)

	log.Info().
		Str("data", data).
		Int("regras", len(rules)).
		Int("responsaveis", len(report.Responsaveis)).
		Msg("Cobertura avaliada")

	return report, nil
}

// logSample loga uma amostra das regras existentes quando a consulta volta
// vazia, para facilitar o diagnóstico (período errado vs. tabela vazia).
func (s *CoverageService) logSample(ctx context.Context, data string) {
	log := logger.Get(ctx)

	sample, err := s.rules.Sample(ctx, 10)
	if err != nil {
		log.Error().Err(err).Msg("Erro ao buscar amostra de regras")
		return
	}
	if len(sample) == 0 {
		log.Warn().Msg("Tabela tempo_estimado_regra está vazia")
		return
	}

	for _, rule := range sample {
		log.Info().
			Int64("id", rule.ID).
			Str("data_inicio", rule.DataInicio.Format(model.DateLayout)).
			Str("data_fim", rule.DataFim.Format(model.DateLayout)).
			Int64("responsavel_id", rule.ResponsavelID).
			Str("cliente_id", rule.ClienteID).
			Bool("cobre_data", rule.Covers(data)).
			Msg("Amostra de regra existente")
	}
}

// groupByResponsavel agrupa regras por responsável e, dentro dele, por
// cliente, preservando a ordem de chegada
func groupByResponsavel(rules []model.EstimateRule) []ResponsavelCoverage {
	index := make(map[int64]int)
	var result []ResponsavelCoverage

	for _, rule := range rules {
		i, ok := index[rule.ResponsavelID]
		if !ok {
			i = len(result)
			index[rule.ResponsavelID] = i
			result = append(result, ResponsavelCoverage{ResponsavelID: rule.ResponsavelID})
		}
		result[i].TotalRegras++
		result[i].Clientes = appendToCliente(result[i].Clientes, rule)
	}

	return result
}

func appendToCliente(clientes []ClienteCoverage, rule model.EstimateRule) []ClienteCoverage {
	view := newRegraView(rule)

	for i := range clientes {
		if clientes[i].ClienteID == rule.ClienteID {
			clientes[i].Regras = append(clientes[i].Regras, view)
			clientes[i].TotalDia += rule.TempoEstimadoDia
			clientes[i].HorasDia = clientes[i].TotalDia.Hours()
			return clientes
		}
	}

	return append(clientes, ClienteCoverage{
		ClienteID: rule.ClienteID,
		Regras:    []RegraView{view},
		TotalDia:  rule.TempoEstimadoDia,
		HorasDia:  rule.TempoEstimadoDia.Hours(),
	})
}

func newRegraView(rule model.EstimateRule) RegraView {
	view := RegraView{
		ID:                  rule.ID,
		AgrupadorID:         rule.AgrupadorID,
		TarefaID:            rule.TarefaID,
		DataInicio:          rule.DataInicio.Format(model.DateLayout),
		DataFim:             rule.DataFim.Format(model.DateLayout),
		HorasDia:            rule.HorasDia(),
		IncluirFinaisSemana: rule.IncluirFinaisSemana,
		IncluirFeriados:     rule.IncluirFeriados,
	}
	if rule.ProdutoID.Valid {
		v := rule.ProdutoID.Int64
		view.ProdutoID = &v
	}
	if rule.TipoTarefaID.Valid {
		v := rule.TipoTarefaID.String
		view.TipoTarefaID = &v
	}
	return view
}
