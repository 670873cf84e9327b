package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/upgestao/tempo-estimado-api/internal/model"
)

// fakeFinder implementa RuleFinder em memória, filtrando por Covers para
// simular o predicado de vigência do banco
type fakeFinder struct {
	rules       []model.EstimateRule
	sampleCalls int
}

func (f *fakeFinder) ActiveOn(ctx context.Context, data string, filter model.RuleFilter) ([]model.EstimateRule, error) {
	var active []model.EstimateRule
	for _, rule := range f.rules {
		if !rule.Covers(data) {
			continue
		}
		if filter.ResponsavelID != nil && rule.ResponsavelID != *filter.ResponsavelID {
			continue
		}
		if filter.ClienteID != nil && rule.ClienteID != *filter.ClienteID {
			continue
		}
		active = append(active, rule)
	}
	return active, nil
}

func (f *fakeFinder) Sample(ctx context.Context, limit int) ([]model.EstimateRule, error) {
	f.sampleCalls++
	if limit > len(f.rules) {
		limit = len(f.rules)
	}
	return f.rules[:limit], nil
}

func makeRule(id int64, responsavel int64, cliente, inicio, fim string) model.EstimateRule {
	di, _ := time.Parse(model.DateLayout, inicio)
	df, _ := time.Parse(model.DateLayout, fim)
	return model.EstimateRule{
		ID:               id,
		AgrupadorID:      "g1",
		ClienteID:        cliente,
		TarefaID:         10,
		ResponsavelID:    responsavel,
		TipoTarefaID:     sql.NullString{},
		DataInicio:       di,
		DataFim:          df,
		TempoEstimadoDia: 2 * time.Hour,
	}
}

func TestActiveOnInclusiveBounds(t *testing.T) {
	finder := &fakeFinder{rules: []model.EstimateRule{
		makeRule(1, 3, "42", "2024-06-01", "2024-06-30"),
	}}
	svc := NewCoverageService(finder)

	active := []string{"2024-06-01", "2024-06-15", "2024-06-30"}
	for _, data := range active {
		report, err := svc.ActiveOn(context.Background(), data, model.RuleFilter{})
		if err != nil {
			t.Fatalf("ActiveOn(%s) error = %v", data, err)
		}
		if report.TotalRegras != 1 {
			t.Errorf("ActiveOn(%s).TotalRegras = %d, want 1", data, report.TotalRegras)
		}
	}

	inactive := []string{"2024-05-31", "2024-07-01"}
	for _, data := range inactive {
		report, err := svc.ActiveOn(context.Background(), data, model.RuleFilter{})
		if err != nil {
			t.Fatalf("ActiveOn(%s) error = %v", data, err)
		}
		if report.TotalRegras != 0 {
			t.Errorf("ActiveOn(%s).TotalRegras = %d, want 0", data, report.TotalRegras)
		}
	}
}

func TestActiveOnGroupsByResponsavelThenCliente(t *testing.T) {
	finder := &fakeFinder{rules: []model.EstimateRule{
		makeRule(1, 3, "42", "2024-06-01", "2024-06-30"),
		makeRule(2, 3, "42", "2024-06-01", "2024-06-30"),
		makeRule(3, 3, "77", "2024-06-01", "2024-06-30"),
		makeRule(4, 9, "42", "2024-06-01", "2024-06-30"),
	}}
	svc := NewCoverageService(finder)

	report, err := svc.ActiveOn(context.Background(), "2024-06-15", model.RuleFilter{})
	if err != nil {
		t.Fatalf("ActiveOn() error = %v", err)
	}

	if len(report.Responsaveis) != 2 {
		t.Fatalf("len(Responsaveis) = %d, want 2", len(report.Responsaveis))
	}

	r0 := report.Responsaveis[0]
	if r0.ResponsavelID != 3 || r0.TotalRegras != 3 {
		t.Errorf("responsavel[0] = {id: %d, regras: %d}, want {3, 3}", r0.ResponsavelID, r0.TotalRegras)
	}
	if len(r0.Clientes) != 2 {
		t.Fatalf("len(responsavel[0].Clientes) = %d, want 2", len(r0.Clientes))
	}
	if r0.Clientes[0].ClienteID != "42" || len(r0.Clientes[0].Regras) != 2 {
		t.Errorf("cliente 42 deveria ter 2 regras, got %d", len(r0.Clientes[0].Regras))
	}
	// Duas regras de 2h somam 4h no dia
	if r0.Clientes[0].HorasDia != 4 {
		t.Errorf("HorasDia = %v, want 4", r0.Clientes[0].HorasDia)
	}
}

func TestActiveOnFilterPushdown(t *testing.T) {
	finder := &fakeFinder{rules: []model.EstimateRule{
		makeRule(1, 3, "42", "2024-06-01", "2024-06-30"),
		makeRule(2, 9, "77", "2024-06-01", "2024-06-30"),
	}}
	svc := NewCoverageService(finder)

	responsavel := int64(9)
	report, err := svc.ActiveOn(context.Background(), "2024-06-15", model.RuleFilter{ResponsavelID: &responsavel})
	if err != nil {
		t.Fatalf("ActiveOn() error = %v", err)
	}

	if report.TotalRegras != 1 {
		t.Fatalf("TotalRegras = %d, want 1", report.TotalRegras)
	}
	if report.Responsaveis[0].ResponsavelID != 9 {
		t.Errorf("ResponsavelID = %d, want 9", report.Responsaveis[0].ResponsavelID)
	}
}

func TestActiveOnEmptyResultIsNotError(t *testing.T) {
	finder := &fakeFinder{rules: []model.EstimateRule{
		makeRule(1, 3, "42", "2020-01-01", "2020-01-31"),
	}}
	svc := NewCoverageService(finder)

	report, err := svc.ActiveOn(context.Background(), "2024-06-15", model.RuleFilter{})
	if err != nil {
		t.Fatalf("ActiveOn() error = %v, want nil", err)
	}
	if report.TotalRegras != 0 || len(report.Responsaveis) != 0 {
		t.Errorf("report should be empty, got %+v", report)
	}
	// Sem cobertura, uma amostra é consultada para diagnóstico
	if finder.sampleCalls != 1 {
		t.Errorf("sampleCalls = %d, want 1", finder.sampleCalls)
	}
}

func TestActiveOnRejectsInvalidDate(t *testing.T) {
	svc := NewCoverageService(&fakeFinder{})

	if _, err := svc.ActiveOn(context.Background(), "15/06/2024", model.RuleFilter{}); err == nil {
		t.Fatal("ActiveOn() should reject dates outside YYYY-MM-DD")
	}
}
