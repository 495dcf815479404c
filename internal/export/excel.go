package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{
	"Orden", "Fecha", "Lugar", "Estado", "Cliente", "Email", "Teléfono",
	"Conceptos", "Total", "Pagado", "Pendiente", "Pago",
}

// amount columns, 1-based
const firstAmountCol, lastAmountCol = 9, 11

// FileName is the attachment name for an export covering [from, to].
func FileName(from, to string) string {
	return fmt.Sprintf("reservaciones_%s_a_%s.xlsx", from, to)
}

// WriteOrders renders one row per order into an xlsx workbook written to w.
func WriteOrders(w io.Writer, sheetName, from, to string, orders []*models.OrderWithCustomer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Periodo: %s - %s", from, to))
	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	numFmt := "#,##0.00"
	moneyStyle, _ := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	conflictStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F8CBAD"}, Pattern: 1},
	})

	row := 3
	var total, paid, pending int64
	for _, o := range orders {
		values := []any{
			o.OrderNumber, o.ReservationDate, o.LocationName, o.Status,
			o.CustomerName, o.CustomerEmail, o.CustomerPhone, itemsSummary(o.Items),
			money(o.Total), money(o.AmountPaid), money(o.AmountPending), o.PaymentIntentID,
		}
		if err := writeRow(f, sheetName, row, values); err != nil {
			return err
		}
		if o.Status == models.StatusConflict {
			start, _ := excelize.CoordinatesToCellName(1, row)
			end, _ := excelize.CoordinatesToCellName(firstAmountCol-1, row)
			_ = f.SetCellStyle(sheetName, start, end, conflictStyle)
		}
		total += o.Total
		paid += o.AmountPaid
		pending += o.AmountPending
		row++
	}

	totals := make([]any, len(headers))
	totals[0] = fmt.Sprintf("%d órdenes", len(orders))
	totals[firstAmountCol-1] = money(total)
	totals[firstAmountCol] = money(paid)
	totals[lastAmountCol-1] = money(pending)
	if err := writeRow(f, sheetName, row, totals); err != nil {
		return err
	}

	start, _ := excelize.CoordinatesToCellName(firstAmountCol, 3)
	end, _ := excelize.CoordinatesToCellName(lastAmountCol, row)
	_ = f.SetCellStyle(sheetName, start, end, moneyStyle)

	_ = f.SetColWidth(sheetName, "A", "A", 24)
	_ = f.SetColWidth(sheetName, "B", "G", 18)
	_ = f.SetColWidth(sheetName, "H", "H", 40)
	_ = f.SetColWidth(sheetName, "I", "L", 16)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("error setting %s: %w", cell, err)
		}
	}
	return nil
}

func itemsSummary(items []models.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if it.Quantity > 1 {
			parts = append(parts, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
			continue
		}
		parts = append(parts, it.Name)
	}
	return strings.Join(parts, ", ")
}

func money(minor int64) float64 {
	return decimal.New(minor, -2).InexactFloat64()
}
