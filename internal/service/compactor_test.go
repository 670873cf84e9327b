package service

import (
	"bytes"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/model"
)

func TestMain(m *testing.M) {
	logger.Init("error", true)
	os.Exit(m.Run())
}

// makeRecord builds a complete source record for a given day
func makeRecord(agrupador, cliente string, tarefa, responsavel int64, day string) model.EstimateRecord {
	data, err := time.Parse(model.DateLayout, day)
	if err != nil {
		panic(err)
	}
	return model.EstimateRecord{
		AgrupadorID:      sql.NullString{String: agrupador, Valid: agrupador != ""},
		ClienteID:        cliente,
		TarefaID:         sql.NullInt64{Int64: tarefa, Valid: true},
		ResponsavelID:    sql.NullInt64{Int64: responsavel, Valid: true},
		Data:             data,
		TempoEstimadoDia: sql.NullInt64{Int64: 4 * 60 * 60 * 1000, Valid: true}, // 4h em ms
	}
}

func TestCompactSpanFromUnorderedDates(t *testing.T) {
	records := []model.EstimateRecord{
		makeRecord("g1", "42", 10, 3, "2024-01-03"),
		makeRecord("g1", "42", 10, 3, "2024-01-01"),
		makeRecord("g1", "42", 10, 3, "2024-01-10"),
	}

	rules, report := NewCompactor().Compact(records)

	if len(rules) != 1 {
		t.Fatalf("len(rules) = %d, want 1", len(rules))
	}
	if got := rules[0].DataInicio.Format(model.DateLayout); got != "2024-01-01" {
		t.Errorf("DataInicio = %s, want 2024-01-01", got)
	}
	if got := rules[0].DataFim.Format(model.DateLayout); got != "2024-01-10" {
		t.Errorf("DataFim = %s, want 2024-01-10", got)
	}
	if report.Errors != 0 {
		t.Errorf("Errors = %d, want 0", report.Errors)
	}
}

func TestCompactGroupingIsolation(t *testing.T) {
	// Mesma combinação em agrupadores diferentes vira duas regras, cada uma
	// com o período do seu próprio grupo
	records := []model.EstimateRecord{
		makeRecord("g1", "42", 10, 3, "2024-01-01"),
		makeRecord("g1", "42", 10, 3, "2024-01-05"),
		makeRecord("g2", "42", 10, 3, "2024-03-01"),
		makeRecord("g2", "42", 10, 3, "2024-03-10"),
	}

	rules, report := NewCompactor().Compact(records)

	if len(rules) != 2 {
		t.Fatalf("len(rules) = %d, want 2", len(rules))
	}
	if report.GroupsProcessed != 2 {
		t.Errorf("GroupsProcessed = %d, want 2", report.GroupsProcessed)
	}
	if got := rules[0].DataFim.Format(model.DateLayout); got != "2024-01-05" {
		t.Errorf("rule[0].DataFim = %s, want 2024-01-05", got)
	}
	if got := rules[1].DataInicio.Format(model.DateLayout); got != "2024-03-01" {
		t.Errorf("rule[1].DataInicio = %s, want 2024-03-01", got)
	}
}

func TestCompactRequiredFieldRejection(t *testing.T) {
	incomplete := makeRecord("g1", "42", 10, 3, "2024-01-01")
	incomplete.ResponsavelID = sql.NullInt64{}

	rules, report := NewCompactor().Compact([]model.EstimateRecord{incomplete})

	if len(rules) != 0 {
		t.Fatalf("len(rules) = %d, want 0", len(rules))
	}
	if report.Errors != 1 {
		t.Errorf("Errors = %d, want 1", report.Errors)
	}
	if report.GroupsProcessed != 1 {
		t.Errorf("GroupsProcessed = %d, want 1", report.GroupsProcessed)
	}
}

func TestCompactUngroupedSentinel(t *testing.T) {
	// Registros sem agrupador são compactados juntos no grupo sintético
	records := []model.EstimateRecord{
		makeRecord("", "42", 10, 3, "2024-01-01"),
		makeRecord("", "42", 10, 3, "2024-01-02"),
	}

	rules, _ := NewCompactor().Compact(records)

	if len(rules) != 1 {
		t.Fatalf("len(rules) = %d, want 1", len(rules))
	}
	if rules[0].AgrupadorID != model.UngroupedID {
		t.Errorf("AgrupadorID = %q, want %q", rules[0].AgrupadorID, model.UngroupedID)
	}
}

func TestCompactFirstDurationWins(t *testing.T) {
	first := makeRecord("g1", "42", 10, 3, "2024-01-01")
	second := makeRecord("g1", "42", 10, 3, "2024-01-02")
	second.TempoEstimadoDia = sql.NullInt64{Int64: 8 * 60 * 60 * 1000, Valid: true}

	var logs bytes.Buffer
	testLogger := zerolog.New(&logs)
	compactor := &Compactor{log: &testLogger}

	rules, report := compactor.Compact([]model.EstimateRecord{first, second})

	if len(rules) != 1 {
		t.Fatalf("len(rules) = %d, want 1", len(rules))
	}
	if rules[0].TempoEstimadoDia != 4*time.Hour {
		t.Errorf("TempoEstimadoDia = %v, want 4h", rules[0].TempoEstimadoDia)
	}
	// Inconsistência é aviso, não erro
	if report.Errors != 0 {
		t.Errorf("Errors = %d, want 0", report.Errors)
	}
	if !strings.Contains(logs.String(), "Tempo estimado inconsistente") {
		t.Error("divergência de tempo deveria gerar aviso no log")
	}
}

func TestCompactNullDurationOnFirstRecordIsError(t *testing.T) {
	// O tempo da combinação é fixado no primeiro registro. Se ele vem nulo,
	// registros posteriores não preenchem o valor: a combinação é pulada e
	// contada como erro.
	first := makeRecord("g1", "42", 10, 3, "2024-01-01")
	first.TempoEstimadoDia = sql.NullInt64{}
	second := makeRecord("g1", "42", 10, 3, "2024-01-02")

	rules, report := NewCompactor().Compact([]model.EstimateRecord{first, second})

	if len(rules) != 0 {
		t.Fatalf("len(rules) = %d, want 0", len(rules))
	}
	if report.Errors != 1 {
		t.Errorf("Errors = %d, want 1", report.Errors)
	}
}

func TestCompactDuplicateDatesCoalesce(t *testing.T) {
	records := []model.EstimateRecord{
		makeRecord("g1", "42", 10, 3, "2024-01-01"),
		makeRecord("g1", "42", 10, 3, "2024-01-01"),
		makeRecord("g1", "42", 10, 3, "2024-01-01"),
	}

	rules, report := NewCompactor().Compact(records)

	if len(rules) != 1 {
		t.Fatalf("len(rules) = %d, want 1", len(rules))
	}
	if report.SourceRecords != 3 {
		t.Errorf("SourceRecords = %d, want 3", report.SourceRecords)
	}
	if !rules[0].DataInicio.Equal(rules[0].DataFim) {
		t.Errorf("período deveria ser um único dia, got %v..%v", rules[0].DataInicio, rules[0].DataFim)
	}
}

func TestCompactDefaults(t *testing.T) {
	rules, _ := NewCompactor().Compact([]model.EstimateRecord{
		makeRecord("g1", "42", 10, 3, "2024-01-01"),
	})

	if len(rules) != 1 {
		t.Fatalf("len(rules) = %d, want 1", len(rules))
	}
	if !rules[0].IncluirFinaisSemana || !rules[0].IncluirFeriados {
		t.Error("regras migradas devem assumir incluir_finais_semana e incluir_feriados")
	}
}

func TestCompactTimeOfDayIsDiscarded(t *testing.T) {
	record := makeRecord("g1", "42", 10, 3, "2024-01-01")
	record.Data = record.Data.Add(17*time.Hour + 30*time.Minute)

	rules, _ := NewCompactor().Compact([]model.EstimateRecord{record})

	if len(rules) != 1 {
		t.Fatalf("len(rules) = %d, want 1", len(rules))
	}
	if got := rules[0].DataInicio.Format(model.DateLayout); got != "2024-01-01" {
		t.Errorf("DataInicio = %s, want 2024-01-01", got)
	}
}

// TestCompactSpanProperties checks, for arbitrary date sets within a single
// combination, that the emitted span covers every source date and that the
// rule count never exceeds the record count.
func TestCompactSpanProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	genDays := gen.SliceOfN(10, gen.IntRange(0, 364))

	properties.Property("span covers every source date", prop.ForAll(
		func(days []int) bool {
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			var records []model.EstimateRecord
			for _, d := range days {
				rec := makeRecord("g1", "42", 10, 3, "2024-01-01")
				rec.Data = base.AddDate(0, 0, d)
				records = append(records, rec)
			}

			rules, _ := NewCompactor().Compact(records)
			if len(rules) != 1 {
				return false
			}
			for _, rec := range records {
				if !rules[0].Covers(rec.Data.Format(model.DateLayout)) {
					return false
				}
			}
			return true
		},
		genDays,
	))

	properties.Property("never emits more rules than records", prop.ForAll(
		func(days []int) bool {
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			var records []model.EstimateRecord
			for i, d := range days {
				// Alterna combinações para exercitar múltiplas regras
				rec := makeRecord("g1", "42", int64(10+i%3), 3, "2024-01-01")
				rec.Data = base.AddDate(0, 0, d)
				records = append(records, rec)
			}

			rules, report := NewCompactor().Compact(records)
			return len(rules) <= len(records) && report.RulesCreated == len(rules)
		},
		genDays,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
