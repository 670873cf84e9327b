package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/model"
	"github.com/upgestao/tempo-estimado-api/internal/service"
)

// MigrationHandler expõe a migração de dados pela API. O mesmo job também
// pode ser disparado pelo comando cmd/migrate.
type MigrationHandler struct {
	migrator *service.Migrator
}

// NewMigrationHandler cria um novo handler de migração
func NewMigrationHandler(migrator *service.Migrator) *MigrationHandler {
	return &MigrationHandler{migrator: migrator}
}

// RunMigration executa a migração tempo_estimado -> tempo_estimado_regra de
// forma síncrona e retorna o relatório. Erros parciais não derrubam a
// requisição, aparecem no campo "erros" do relatório.
// POST /api/v1/migracao
func (h *MigrationHandler) RunMigration(c *gin.Context) {
	operationID := uuid.New().String()[:8]
	ctx := logger.WithOperationID(c.Request.Context(), operationID)

	report, err := h.migrator.Run(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Error:   "migração abortada",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Message: "migração concluída",
		Data: gin.H{
			"operation_id": operationID,
			"relatorio":    report,
			"reducao_pct":  report.ReductionPercent(),
			"incompleta":   report.Incomplete(),
		},
	})
}
