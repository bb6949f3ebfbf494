// Package xlsx writes the invoice collection as an Excel workbook.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

const SheetName = "Invoices"

var headers = []string{
	"Invoice Number",
	"Vendor",
	"Invoice Date",
	"Due Date",
	"Total",
	"Days Until Due",
	"Overdue",
	"Items",
	"Processed",
}

type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) WriteInvoices(w io.Writer, invoices []domain.InvoiceView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(SheetName, 1, 1, style)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	for i, inv := range invoices {
		row := i + 2
		days := any("")
		if inv.DaysUntilDue != nil {
			days = *inv.DaysUntilDue
		}
		overdue := "No"
		if inv.IsOverdue {
			overdue = "Yes"
		}
		values := []any{
			inv.InvoiceNumber,
			inv.Vendor,
			inv.InvoiceDate,
			inv.DueDate,
			inv.Total,
			days,
			overdue,
			strings.Join(inv.Items, "; "),
			inv.ProcessedDate.UTC().Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("xlsx row %d: %w", row, err)
		}
		totalCell, _ := excelize.CoordinatesToCellName(5, row)
		_ = f.SetCellStyle(SheetName, totalCell, totalCell, money)
	}

	_ = f.SetColWidth(SheetName, "A", "A", 22)
	_ = f.SetColWidth(SheetName, "B", "B", 36)
	_ = f.SetColWidth(SheetName, "C", "D", 14)
	_ = f.SetColWidth(SheetName, "E", "G", 12)
	_ = f.SetColWidth(SheetName, "H", "H", 48)
	_ = f.SetColWidth(SheetName, "I", "I", 18)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
