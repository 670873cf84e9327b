package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upgestao/tempo-estimado-api/internal/database"
)

// HealthHandler responde o health check da aplicação
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler cria um novo handler de health check
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health verifica a saúde da aplicação e da conexão com o banco
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	code := http.StatusOK

	if err := h.db.Ping(); err != nil {
		status = "degraded"
		dbStatus = err.Error()
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"database": dbStatus,
		"pool":     database.GetPoolStats(h.db),
	})
}
