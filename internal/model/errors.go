package model

import "errors"

var (
	// ErrFatalRead indica falha na leitura paginada da tabela fonte. É o
	// único erro que aborta a migração inteira antes de qualquer escrita.
	ErrFatalRead = errors.New("falha na leitura da tabela tempo_estimado")

	// ErrInvalidMigrationMode indica MIGRATION_MODE ausente ou inválido.
	// A política de idempotência é uma escolha obrigatória do operador:
	// "truncate" limpa a tabela destino antes de inserir, "upsert" usa
	// ON CONFLICT na combinação única. Reexecutar sem escolher duplicaria
	// regras.
	ErrInvalidMigrationMode = errors.New("MIGRATION_MODE deve ser 'truncate' ou 'upsert'")

	// ErrInvalidDate indica data fora do formato YYYY-MM-DD.
	ErrInvalidDate = errors.New("data inválida, use o formato YYYY-MM-DD")
)
