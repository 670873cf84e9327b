package migration

// getAllMigrations retorna todas as migrações de schema disponíveis
func getAllMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_tempo_estimado",
			Up: `
				-- Tabela antiga: um registro por dia por atribuição.
				-- Fonte da migração de dados, somente leitura para este serviço.
				CREATE TABLE IF NOT EXISTS tempo_estimado (
					id SERIAL PRIMARY KEY,
					agrupador_id VARCHAR(100),
					cliente_id VARCHAR(100) NOT NULL,
					produto_id INTEGER,
					tarefa_id INTEGER,
					responsavel_id INTEGER,
					tipo_tarefa_id VARCHAR(100),
					data DATE NOT NULL,
					-- milissegundos
					tempo_estimado_dia BIGINT,
					created_at TIMESTAMP DEFAULT NOW()
				);

				-- Ordem de leitura da migração de dados
				CREATE INDEX idx_tempo_estimado_agrupador_data
					ON tempo_estimado(agrupador_id, data);
			`,
			Down: `
				DROP INDEX IF EXISTS idx_tempo_estimado_agrupador_data;
				DROP TABLE IF EXISTS tempo_estimado;
			`,
		},
		{
			Version: 2,
			Name:    "create_tempo_estimado_regra",
			Up: `
				-- Tabela nova: uma regra por período por combinação única.
				CREATE TABLE tempo_estimado_regra (
					id SERIAL PRIMARY KEY,
					agrupador_id VARCHAR(100) NOT NULL,
					cliente_id VARCHAR(100) NOT NULL,
					produto_id INTEGER,
					tarefa_id INTEGER NOT NULL,
					responsavel_id INTEGER NOT NULL,
					tipo_tarefa_id VARCHAR(100),
					data_inicio DATE NOT NULL,
					data_fim DATE NOT NULL,
					-- milissegundos
					tempo_estimado_dia BIGINT NOT NULL,
					incluir_finais_semana BOOLEAN NOT NULL DEFAULT TRUE,
					incluir_feriados BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP DEFAULT NOW(),
					updated_at TIMESTAMP DEFAULT NOW(),
					CONSTRAINT chk_periodo CHECK (data_inicio <= data_fim)
				);

				-- Consulta de cobertura (data_inicio <= X AND data_fim >= X)
				CREATE INDEX idx_regra_periodo
					ON tempo_estimado_regra(data_inicio, data_fim);
				CREATE INDEX idx_regra_responsavel
					ON tempo_estimado_regra(responsavel_id);
				CREATE INDEX idx_regra_cliente
					ON tempo_estimado_regra(cliente_id);
			`,
			Down: `
				DROP INDEX IF EXISTS idx_regra_cliente;
				DROP INDEX IF EXISTS idx_regra_responsavel;
				DROP INDEX IF EXISTS idx_regra_periodo;
				DROP TABLE IF EXISTS tempo_estimado_regra;
			`,
		},
		{
			Version: 3,
			Name:    "create_regra_combinacao_unique",
			Up: `
				-- Unicidade da combinação por agrupador, base do modo upsert
				-- da migração de dados. COALESCE porque NULLs nunca conflitam
				-- em índices únicos do PostgreSQL.
				CREATE UNIQUE INDEX uq_regra_combinacao ON tempo_estimado_regra (
					agrupador_id,
					cliente_id,
					COALESCE(produto_id, -1),
					tarefa_id,
					responsavel_id,
					COALESCE(tipo_tarefa_id, '')
				);
			`,
			Down: `
				DROP INDEX IF EXISTS uq_regra_combinacao;
			`,
		},
	}
}
