package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/upgestao/tempo-estimado-api/internal/logger"
	"github.com/upgestao/tempo-estimado-api/internal/model"
)

// AuthConfig contém a configuração de autenticação da API
type AuthConfig struct {
	TokenAPI string
}

// BearerAuth valida o token estático da API no header Authorization.
// A gestão de usuários e sessões fica fora deste serviço.
func BearerAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")

		if header == "" || token == header || token != cfg.TokenAPI {
			logger.FromGin(c).Warn().
				Str("path", c.Request.URL.Path).
				Msg("Requisição sem token válido")
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Success: false,
				Error:   "token inválido ou ausente",
			})
			return
		}

		c.Next()
	}
}
