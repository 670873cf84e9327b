package model

import (
	"database/sql"
	"strconv"
	"strings"
)

// CombinationKey é a identidade estável de "quem faz o quê" de um registro:
// (cliente, produto, tarefa, responsável, tipo de tarefa). É um value type
// comparável e a igualdade estrutural é o que deduplica registros durante a
// compactação. A forma em string (pipe-separated) existe só para logging.
type CombinationKey struct {
	ClienteID     string
	ProdutoID     string
	TarefaID      string
	ResponsavelID string
	TipoTarefaID  string
}

// DeriveCombinationKey deriva a chave de combinação de um registro. Cada
// campo é convertido para string e trimado; campos ausentes viram string
// vazia. Nenhuma outra normalização é feita (case é preservado).
func DeriveCombinationKey(r EstimateRecord) CombinationKey {
	return CombinationKey{
		ClienteID:     strings.TrimSpace(r.ClienteID),
		ProdutoID:     nullInt64Component(r.ProdutoID),
		TarefaID:      nullInt64Component(r.TarefaID),
		ResponsavelID: nullInt64Component(r.ResponsavelID),
		TipoTarefaID:  nullStringComponent(r.TipoTarefaID),
	}
}

// String retorna a forma legível da chave, com componentes separados por
// pipe (o separador não aparece em nenhum componente). Usar apenas em logs.
func (k CombinationKey) String() string {
	return strings.Join([]string{
		k.ClienteID,
		k.ProdutoID,
		k.TarefaID,
		k.ResponsavelID,
		k.TipoTarefaID,
	}, "|")
}

func nullInt64Component(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func nullStringComponent(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return strings.TrimSpace(v.String)
}
