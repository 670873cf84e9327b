package model

// MigrationReport é o resultado observável de uma execução da migração
// tempo_estimado -> tempo_estimado_regra. É um valor retornado pela
// execução, acumulado localmente. Não há contador global de processo.
type MigrationReport struct {
	GroupsProcessed int `json:"agrupadores_processados"`
	RulesCreated    int `json:"regras_criadas"`
	SourceRecords   int `json:"registros_antigos"`
	Errors          int `json:"erros"`
}

// ReductionPercent retorna a redução percentual de registros obtida pela
// compactação (ex.: 100 registros diários -> 4 regras = 96%).
func (r MigrationReport) ReductionPercent() float64 {
	if r.SourceRecords == 0 {
		return 0
	}
	return (1 - float64(r.RulesCreated)/float64(r.SourceRecords)) * 100
}

// Incomplete informa se a execução terminou com erros parciais. É a única
// forma de saber que a saída está incompleta, porque falhas por registro são
// apenas logadas.
func (r MigrationReport) Incomplete() bool {
	return r.Errors > 0
}
