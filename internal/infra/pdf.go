package infra

// pdf.go: weekly payroll report rendered with go-pdf/fpdf.
// Landscape A4 with:
//   - Header with the week range
//   - Parameters (hourly rate, food benefit, consumption discount, transport rates)
//   - One row per employee with hours, transport, food, consumption and total
//   - Grand total

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"pastel24h/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const pdfDateLayout = "02/01/2006"

// WeeklyReportFileName is the download/storage name of a report PDF.
func WeeklyReportFileName(w *model.WeeklyReport) string {
	return fmt.Sprintf("folha_%s.pdf", w.WeekStart.UTC().Format("2006-01-02"))
}

// RenderWeeklyReportPDF renders the report into memory.
func RenderWeeklyReportPDF(w *model.WeeklyReport) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	// Core fonts are cp1252; translate accented Portuguese text.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, tr("Pastel 24h · Folha semanal"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	period := fmt.Sprintf("Semana de %s a %s", w.WeekStart.UTC().Format(pdfDateLayout), w.WeekEnd.UTC().Format(pdfDateLayout))
	pdf.CellFormat(contentW, 6, tr(period), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	// ── Parameters ───────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	params := fmt.Sprintf("Valor hora: R$ %s   Vale-refeição/dia: R$ %s   Desconto consumo: %s%%",
		w.HourlyRate.StringFixed(2), w.FoodBenefit.StringFixed(2), w.ConsumptionDiscount.StringFixed(2))
	pdf.CellFormat(contentW, 5, tr(params), "", 1, "L", false, 0, "")
	if len(w.TransportRates) > 0 {
		modes := make([]string, 0, len(w.TransportRates))
		for m := range w.TransportRates {
			modes = append(modes, m)
		}
		sort.Strings(modes)
		line := "Transporte (ida e volta):"
		for _, m := range modes {
			line += fmt.Sprintf("  %s R$ %s", m, w.TransportRates[m].StringFixed(2))
		}
		pdf.CellFormat(contentW, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Table ────────────────────────────────────────────────────────────────
	headers := []string{"Funcionário", "Dias", "Horas", "Valor horas", "Transporte", "Alimentação", "Consumo", "Desc.", "Bônus", "Dedução", "Total"}
	widths := []float64{58, 14, 18, 26, 26, 26, 24, 22, 20, 20, 23}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	total := decimal.Zero
	for _, e := range w.EmployeeData {
		name := e.Name
		if len([]rune(name)) > 32 {
			name = string([]rune(name)[:31]) + "."
		}
		cells := []string{
			name,
			fmt.Sprintf("%d", e.DaysWorked),
			e.TotalHours.StringFixed(2),
			e.HoursPay.StringFixed(2),
			e.TransportCost.StringFixed(2),
			e.FoodCost.StringFixed(2),
			e.FinalConsumption.StringFixed(2),
			e.ConsumptionDiscountAmount.StringFixed(2),
			e.Bonus.StringFixed(2),
			e.Deduction.StringFixed(2),
			e.Total.StringFixed(2),
		}
		for i, v := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
		total = total.Add(e.Total)
	}

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 7, "TOTAL: R$ "+total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Gerado em "+w.UpdatedAt.Format("02/01/2006 15:04")+" UTC", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render weekly report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteWeeklyReportPDF renders the report to storagePath (created if needed)
// and returns the absolute path of the file along with its contents.
func WriteWeeklyReportPDF(w *model.WeeklyReport, storagePath string) (string, []byte, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", nil, fmt.Errorf("pdf: create storage dir: %w", err)
	}
	doc, err := RenderWeeklyReportPDF(w)
	if err != nil {
		return "", nil, err
	}
	filePath := filepath.Join(storagePath, WeeklyReportFileName(w))
	if err := os.WriteFile(filePath, doc, 0644); err != nil {
		return "", nil, fmt.Errorf("pdf: write file: %w", err)
	}
	if abs, err := filepath.Abs(filePath); err == nil {
		filePath = abs
	}
	return filePath, doc, nil
}
