package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Cobertura"

// excelHeaders são as colunas do relatório de cobertura
var excelHeaders = []string{
	"Responsável", "Cliente", "Agrupador", "Produto", "Tarefa",
	"Tipo Tarefa", "Início", "Fim", "Horas/Dia", "Fins de Semana", "Feriados",
}

// ExcelGenerator gera a versão Excel do relatório de cobertura
type ExcelGenerator struct{}

// NewExcelGenerator cria um novo gerador de Excel
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Generate gera um arquivo Excel a partir do relatório de cobertura
func (g *ExcelGenerator) Generate(report *CoverageReport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Renomeia a sheet padrão
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("renomear sheet: %w", err)
	}

	if err := g.writeHeaders(f); err != nil {
		return nil, fmt.Errorf("escrever headers: %w", err)
	}

	if err := g.writeRows(f, report); err != nil {
		return nil, fmt.Errorf("escrever dados: %w", err)
	}

	// Largura fixa por coluna
	for col := 1; col <= len(excelHeaders); col++ {
		colName, _ := excelize.ColumnNumberToName(col)
		if err := f.SetColWidth(sheetName, colName, colName, 18); err != nil {
			return nil, fmt.Errorf("ajustar colunas: %w", err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("escrever buffer: %w", err)
	}

	return buf, nil
}

// writeHeaders escreve os cabeçalhos com o estilo padrão
func (g *ExcelGenerator) writeHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	for col, header := range excelHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return err
		}
	}

	return nil
}

// writeRows escreve uma linha por regra vigente
func (g *ExcelGenerator) writeRows(f *excelize.File, report *CoverageReport) error {
	row := 2
	for _, responsavel := range report.Responsaveis {
		for _, cliente := range responsavel.Clientes {
			for _, regra := range cliente.Regras {
				values := []interface{}{
					responsavel.ResponsavelID,
					cliente.ClienteID,
					regra.AgrupadorID,
					optionalInt(regra.ProdutoID),
					regra.TarefaID,
					optionalString(regra.TipoTarefaID),
					regra.DataInicio,
					regra.DataFim,
					regra.HorasDia,
					simNao(regra.IncluirFinaisSemana),
					simNao(regra.IncluirFeriados),
				}

				for col, value := range values {
					cell, _ := excelize.CoordinatesToCellName(col+1, row)
					if err := f.SetCellValue(sheetName, cell, value); err != nil {
						return err
					}
				}
				row++
			}
		}
	}

	return nil
}

func optionalInt(v *int64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalString(v *string) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func simNao(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}
