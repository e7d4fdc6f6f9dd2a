package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Generator renders downloadable analysis reports as PDF or XLSX.
type Generator struct {
	logger *slog.Logger
}

func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

func (g *Generator) Render(_ context.Context, format string, doc *domain.Document, results *domain.AnalysisResults) ([]byte, string, error) {
	start := time.Now()

	var content []byte
	var contentType string
	var err error
	switch format {
	case "pdf":
		content, err = renderPDF(doc, results)
		contentType = contentTypePDF
	case "excel", "xlsx":
		content, err = renderXLSX(doc, results)
		contentType = contentTypeXLSX
	default:
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "render report",
			fmt.Errorf("unsupported format %q", format))
	}
	if err != nil {
		return nil, "", err
	}

	g.logger.Info("report rendered",
		"document_id", doc.ID,
		"format", format,
		"bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, contentType, nil
}

func renderPDF(doc *domain.Document, results *domain.AnalysisResults) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Financial Analysis Report")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Document: %s", doc.Title))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", time.Now().UTC().Format("2006-01-02 15:04 UTC")))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("CIBIL Score: %.0f", results.Analysis.CibilScore))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Financial Highlights")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	fields := results.ExtractedData
	for _, line := range []struct {
		label string
		value float64
	}{
		{"Income", fields.Income},
		{"Expenses", fields.Expenses},
		{"Assets", fields.Assets},
		{"Liabilities", fields.Liabilities},
	} {
		pdf.Cell(60, 7, line.label)
		pdf.Cell(0, 7, strconv.FormatFloat(line.value, 'f', 2, 64))
		pdf.Ln(7)
	}
	pdf.Ln(5)

	if results.Analysis.Summary != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Summary")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, results.Analysis.Summary, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(doc *domain.Document, results *domain.AnalysisResults) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Analysis"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(index)

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	write(1, 1, "Document")
	write(2, 1, doc.Title)
	write(1, 2, "CIBIL Score")
	write(2, 2, results.Analysis.CibilScore)

	fields := results.ExtractedData
	rows := [][2]any{
		{"Income", fields.Income},
		{"Expenses", fields.Expenses},
		{"Assets", fields.Assets},
		{"Liabilities", fields.Liabilities},
	}
	for i, r := range rows {
		write(1, 4+i, r[0])
		write(2, 4+i, r[1])
	}

	next := 9
	for _, table := range results.TableData.Tables {
		write(1, next, table.Title)
		next++
		for col, header := range table.Headers {
			write(col+1, next, header)
		}
		next++
		for _, row := range table.Rows {
			for col, cell := range row {
				write(col+1, next, cell)
			}
			next++
		}
		next++
	}

	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "B", "D", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	if buf.Len() == 0 {
		return nil, errors.New("empty workbook")
	}
	return buf.Bytes(), nil
}
