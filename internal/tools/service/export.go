package service

import (
	"fmt"
	"strings"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/xuri/excelize/v2"
)

const orderSheet = "Order"

var orderExportHeaders = []string{
	"No.", "Catalog number", "Description", "Quantity", "Unit", "Pieces per unit", "Unit price", "Value",
}

// OrderFileName is the spreadsheet name of an order, e.g. Order_2025-03-007.xlsx.
func OrderFileName(number string) string {
	return "Order_" + strings.ReplaceAll(number, "/", "-") + ".xlsx"
}

// RenderOrder writes the order and its positions to a single-sheet workbook.
// Positions must have ToolType loaded for descriptions.
func RenderOrder(order *entity.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", orderSheet); err != nil {
		return nil, err
	}

	bold, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	supplier := ""
	if order.Supplier != nil {
		supplier = order.Supplier.Name
	}
	f.SetCellValue(orderSheet, "A1", "Order")
	f.SetCellValue(orderSheet, "B1", order.Number)
	f.SetCellValue(orderSheet, "A2", "Supplier")
	f.SetCellValue(orderSheet, "B2", supplier)
	f.SetCellValue(orderSheet, "A3", "Date")
	f.SetCellValue(orderSheet, "B3", order.CreatedAt.Format("2006-01-02"))

	const headerRow = 5
	for i, h := range orderExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s%d", col, headerRow)
		f.SetCellValue(orderSheet, cell, h)
		f.SetCellStyle(orderSheet, cell, cell, bold)
	}

	row := headerRow
	for i, p := range order.Positions {
		row = headerRow + 1 + i
		description, catalogNumber := "", ""
		if p.ToolType != nil {
			description = p.ToolType.Description
			catalogNumber = p.ToolType.CatalogNumber
		}
		unit := p.Unit
		if p.Unit == entity.PackagingSet {
			unit = fmt.Sprintf("SET (%d pcs)", p.QtyPerUnit)
		}
		f.SetCellValue(orderSheet, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(orderSheet, fmt.Sprintf("B%d", row), catalogNumber)
		f.SetCellValue(orderSheet, fmt.Sprintf("C%d", row), description)
		f.SetCellValue(orderSheet, fmt.Sprintf("D%d", row), p.RequestedQty)
		f.SetCellValue(orderSheet, fmt.Sprintf("E%d", row), unit)
		f.SetCellValue(orderSheet, fmt.Sprintf("F%d", row), p.QtyPerUnit)
		if p.UnitPrice.Valid {
			f.SetCellValue(orderSheet, fmt.Sprintf("G%d", row), p.UnitPrice.Decimal.StringFixed(2))
		}
		f.SetCellValue(orderSheet, fmt.Sprintf("H%d", row), p.LineValue().StringFixed(2))
	}

	totalRow := row + 1
	f.SetCellValue(orderSheet, fmt.Sprintf("G%d", totalRow), "Total")
	f.SetCellValue(orderSheet, fmt.Sprintf("H%d", totalRow), order.TotalValue().StringFixed(2))
	totalCell := fmt.Sprintf("G%d", totalRow)
	f.SetCellStyle(orderSheet, totalCell, totalCell, bold)

	f.SetColWidth(orderSheet, "B", "B", 20)
	f.SetColWidth(orderSheet, "C", "C", 48)
	return f, nil
}
