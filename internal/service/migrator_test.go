package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/upgestao/tempo-estimado-api/internal/model"
)

// fakeSource implementa RecordSource em memória
type fakeSource struct {
	records []model.EstimateRecord
	err     error
}

func (f *fakeSource) FetchAll(ctx context.Context) ([]model.EstimateRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// fakeStore implementa RuleStore em memória, com falha opcional por lote
type fakeStore struct {
	inserted    []model.EstimateRule
	upserted    []model.EstimateRule
	truncated   bool
	insertCalls int
	failBatches map[int]bool // índice do lote (1-based) -> falha
}

func (f *fakeStore) InsertBatch(ctx context.Context, rules []model.EstimateRule) (int, error) {
	f.insertCalls++
	if f.failBatches[f.insertCalls] {
		return 0, errors.New("timeout simulado")
	}
	f.inserted = append(f.inserted, rules...)
	return len(rules), nil
}

func (f *fakeStore) UpsertBatch(ctx context.Context, rules []model.EstimateRule) (int, error) {
	f.insertCalls++
	if f.failBatches[f.insertCalls] {
		return 0, errors.New("timeout simulado")
	}
	f.upserted = append(f.upserted, rules...)
	return len(rules), nil
}

func (f *fakeStore) Truncate(ctx context.Context) error {
	f.truncated = true
	return nil
}

// sourceWithCombinations gera um registro por combinação distinta, todos no
// mesmo agrupador
func sourceWithCombinations(n int) *fakeSource {
	var records []model.EstimateRecord
	for i := 0; i < n; i++ {
		records = append(records, makeRecord("g1", fmt.Sprintf("cliente-%d", i), int64(i+1), 3, "2024-06-01"))
	}
	return &fakeSource{records: records}
}

func TestRunBatchResilience(t *testing.T) {
	// 250 regras, lotes de 100, segundo lote falha: 150 persistidas e 100
	// somadas ao contador de erros, sem abortar a execução
	source := sourceWithCombinations(250)
	store := &fakeStore{failBatches: map[int]bool{2: true}}

	migrator := NewMigrator(source, store, ModeTruncate, 100)
	report, err := migrator.Run(context.Background())

	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if len(store.inserted) != 150 {
		t.Errorf("persisted = %d, want 150", len(store.inserted))
	}
	if report.Errors != 100 {
		t.Errorf("Errors = %d, want 100", report.Errors)
	}
	if report.RulesCreated != 250 {
		t.Errorf("RulesCreated = %d, want 250", report.RulesCreated)
	}
	if !report.Incomplete() {
		t.Error("report should be flagged incomplete")
	}
}

func TestRunFatalReadError(t *testing.T) {
	source := &fakeSource{err: errors.New("conexão recusada")}
	store := &fakeStore{}

	_, err := NewMigrator(source, store, ModeTruncate, 100).Run(context.Background())

	if !errors.Is(err, model.ErrFatalRead) {
		t.Fatalf("Run() error = %v, want ErrFatalRead", err)
	}
	if store.truncated || len(store.inserted) > 0 {
		t.Error("nothing may be written after a fatal read failure")
	}
}

func TestRunTruncateMode(t *testing.T) {
	source := sourceWithCombinations(5)
	store := &fakeStore{}

	report, err := NewMigrator(source, store, ModeTruncate, 100).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !store.truncated {
		t.Error("truncate mode must clear the target table first")
	}
	if len(store.inserted) != 5 || len(store.upserted) != 0 {
		t.Errorf("inserted = %d, upserted = %d; want 5, 0", len(store.inserted), len(store.upserted))
	}
	if report.RulesCreated != 5 {
		t.Errorf("RulesCreated = %d, want 5", report.RulesCreated)
	}
}

func TestRunUpsertMode(t *testing.T) {
	source := sourceWithCombinations(5)
	store := &fakeStore{}

	if _, err := NewMigrator(source, store, ModeUpsert, 100).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if store.truncated {
		t.Error("upsert mode must not truncate the target table")
	}
	if len(store.upserted) != 5 || len(store.inserted) != 0 {
		t.Errorf("upserted = %d, inserted = %d; want 5, 0", len(store.upserted), len(store.inserted))
	}
}

func TestRunInvalidMode(t *testing.T) {
	source := sourceWithCombinations(1)
	store := &fakeStore{}

	_, err := NewMigrator(source, store, MigrationMode("merge"), 100).Run(context.Background())
	if !errors.Is(err, model.ErrInvalidMigrationMode) {
		t.Fatalf("Run() error = %v, want ErrInvalidMigrationMode", err)
	}
}

func TestRunEmptySource(t *testing.T) {
	source := &fakeSource{}
	store := &fakeStore{}

	report, err := NewMigrator(source, store, ModeTruncate, 100).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.SourceRecords != 0 || report.RulesCreated != 0 {
		t.Errorf("empty source should produce an empty report, got %+v", report)
	}
	if store.truncated {
		t.Error("nothing to migrate, target table must stay untouched")
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		input   string
		want    MigrationMode
		wantErr bool
	}{
		{"truncate", ModeTruncate, false},
		{"upsert", ModeUpsert, false},
		{"", "", true},
		{"TRUNCATE", "", true},
		{"merge", "", true},
	}

	for _, tc := range cases {
		got, err := ParseMode(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
