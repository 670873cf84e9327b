package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/model"
	"github.com/upgestao/tempo-estimado-api/internal/repository"
	"github.com/upgestao/tempo-estimado-api/internal/service"
)

// EstimateHandler manipula consultas de regras de tempo estimado
type EstimateHandler struct {
	coverage *service.CoverageService
	rules    *repository.RuleRepository
	excel    *service.ExcelGenerator
}

// NewEstimateHandler cria um novo handler de tempo estimado
func NewEstimateHandler(coverage *service.CoverageService, rules *repository.RuleRepository) *EstimateHandler {
	return &EstimateHandler{
		coverage: coverage,
		rules:    rules,
		excel:    service.NewExcelGenerator(),
	}
}

// GetCobertura retorna as regras vigentes na data consultada, agrupadas por
// responsável e cliente. Sem parâmetro de data, usa a data de hoje.
// GET /api/v1/tempo-estimado/cobertura?data=YYYY-MM-DD&responsavel_id=&cliente_id=
func (h *EstimateHandler) GetCobertura(c *gin.Context) {
	data, filter, err := parseCoverageQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	report, err := h.coverage.ActiveOn(c.Request.Context(), data, filter)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrInvalidDate) {
			status = http.StatusBadRequest
		}
		c.JSON(status, model.ErrorResponse{
			Success: false,
			Error:   "erro ao avaliar cobertura",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.Response{Success: true, Data: report})
}

// GetCoberturaExcel retorna a cobertura da data como arquivo Excel
// GET /api/v1/tempo-estimado/cobertura/excel?data=YYYY-MM-DD
func (h *EstimateHandler) GetCoberturaExcel(c *gin.Context) {
	data, filter, err := parseCoverageQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	report, err := h.coverage.ActiveOn(c.Request.Context(), data, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Error:   "erro ao avaliar cobertura",
			Details: err.Error(),
		})
		return
	}

	buf, err := h.excel.Generate(report)
	if err != nil {
		logger.FromGin(c).Error().Err(err).Msg("Erro ao gerar Excel de cobertura")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Error:   "erro ao gerar arquivo Excel",
		})
		return
	}

	filename := fmt.Sprintf("cobertura_%s.xlsx", data)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// ListRegras lista regras persistidas com filtros opcionais
// GET /api/v1/tempo-estimado/regras?responsavel_id=&cliente_id=&limit=
func (h *EstimateHandler) ListRegras(c *gin.Context) {
	filter, err := parseRuleFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	rules, err := h.rules.List(c.Request.Context(), filter, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Error:   "erro ao listar regras",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.Response{Success: true, Data: rules})
}

// parseCoverageQuery extrai data e filtros da query string
func parseCoverageQuery(c *gin.Context) (string, model.RuleFilter, error) {
	data := c.Query("data")
	if data == "" {
		data = time.Now().Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, data); err != nil {
		return "", model.RuleFilter{}, model.ErrInvalidDate
	}

	filter, err := parseRuleFilter(c)
	if err != nil {
		return "", model.RuleFilter{}, err
	}
	return data, filter, nil
}

// parseRuleFilter extrai os filtros opcionais de responsável/cliente
func parseRuleFilter(c *gin.Context) (model.RuleFilter, error) {
	var filter model.RuleFilter

	if raw := c.Query("responsavel_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("responsavel_id inválido: %q", raw)
		}
		filter.ResponsavelID = &id
	}
	if raw := c.Query("cliente_id"); raw != "" {
		filter.ClienteID = &raw
	}

	return filter, nil
}
