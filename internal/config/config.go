package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config armazena as configurações da aplicação
type Config struct {
	Port     string
	GinMode  string
	LogLevel string
	LogJSON  bool

	// Token estático para o bearer auth da API. A política de autorização
	// em si fica fora deste serviço.
	TokenAPI string

	// PostgreSQL
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Migração tempo_estimado -> tempo_estimado_regra
	// MigrationMode é a política de idempotência: "truncate" ou "upsert".
	// Não tem default porque reexecutar sem escolher duplicaria regras.
	MigrationMode string
	// BatchSize é o tamanho do lote de inserção de regras.
	BatchSize int
	// PageSize é o tamanho da página da leitura da tabela fonte.
	PageSize int
	// InsertsPerMinute limita o ritmo dos lotes de inserção (0 = sem limite).
	InsertsPerMinute int
}

// Defaults
const (
	DefaultBatchSize = 100
	DefaultPageSize  = 1000
)

// Load carrega as configurações do ambiente
func Load() (*Config, error) {
	// Tenta carregar .env de múltiplos locais
	_ = godotenv.Load()          // ./.env
	_ = godotenv.Load("../.env") // raiz do projeto

	cfg := &Config{
		Port:          os.Getenv("PORT"),
		GinMode:       os.Getenv("GIN_MODE"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		LogJSON:       os.Getenv("LOG_JSON") != "false",
		TokenAPI:      os.Getenv("TOKEN_API"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBSSLMode:     os.Getenv("DB_SSLMODE"),
		MigrationMode: os.Getenv("MIGRATION_MODE"),
	}

	// Validações obrigatórias
	if cfg.DBHost == "" {
		return nil, errors.New("DB_HOST não configurado")
	}
	if cfg.DBUser == "" {
		return nil, errors.New("DB_USER não configurado")
	}
	if cfg.DBName == "" {
		return nil, errors.New("DB_NAME não configurado")
	}

	// Defaults
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.GinMode == "" {
		cfg.GinMode = "release"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DBPort == "" {
		cfg.DBPort = "5432"
	}
	if cfg.DBSSLMode == "" {
		cfg.DBSSLMode = "disable"
	}

	cfg.BatchSize = intEnv("MIGRATION_BATCH_SIZE", DefaultBatchSize)
	cfg.PageSize = intEnv("MIGRATION_PAGE_SIZE", DefaultPageSize)
	cfg.InsertsPerMinute = intEnv("MIGRATION_INSERTS_PER_MINUTE", 0)

	if cfg.BatchSize <= 0 {
		return nil, errors.New("MIGRATION_BATCH_SIZE deve ser maior que zero")
	}
	if cfg.PageSize <= 0 {
		return nil, errors.New("MIGRATION_PAGE_SIZE deve ser maior que zero")
	}

	return cfg, nil
}

// intEnv lê um inteiro do ambiente com fallback
func intEnv(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
