package reporting

import (
	"bytes"
	"context"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// csvEntry flattens a SalesEntry for gocsv.
type csvEntry struct {
	OrderID      int64   `csv:"order_id"`
	OrderDate    string  `csv:"order_date"`
	Username     string  `csv:"username"`
	CustomerName string  `csv:"customer_name"`
	Products     string  `csv:"products"`
	Quantities   string  `csv:"quantities"`
	AmountPaid   float64 `csv:"amount_paid"`
	TotalAmount  float64 `csv:"total_amount"`
}

// ExportCSV renders the sales table for the period as CSV.
func (s *Service) ExportCSV(ctx context.Context, start, end time.Time) ([]byte, error) {
	report, err := s.SalesData(ctx, start, end)
	if err != nil {
		return nil, err
	}

	rows := make([]*csvEntry, 0, len(report.Entries))
	for _, e := range report.Entries {
		rows = append(rows, &csvEntry{
			OrderID:      e.OrderID,
			OrderDate:    e.OrderDate.Format("2006-01-02 15:04:05"),
			Username:     e.Username,
			CustomerName: e.CustomerName,
			Products:     e.ProductName,
			Quantities:   e.Quantity,
			AmountPaid:   e.AmountPaid,
			TotalAmount:  e.TotalAmount,
		})
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return nil, errors.Wrap(err, "marshal sales csv")
	}
	return []byte(out), nil
}

var excelHeader = []string{"Order ID", "Order Date", "Staff", "Customer",
	"Products", "Quantities", "Amount Paid", "Total"}

// ExportExcel renders the sales table plus a summary block as an xlsx
// workbook.
func (s *Service) ExportExcel(ctx context.Context, start, end time.Time) ([]byte, error) {
	report, err := s.SalesData(ctx, start, end)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Sheet1"
	f.SetSheetName(sheet, "Sales")
	sheet = "Sales"

	for col, h := range excelHeader {
		f.SetCellValue(sheet, cell(col, 0), h)
	}
	for i, e := range report.Entries {
		row := i + 1
		f.SetCellValue(sheet, cell(0, row), e.OrderID)
		f.SetCellValue(sheet, cell(1, row), e.OrderDate.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, cell(2, row), e.Username)
		f.SetCellValue(sheet, cell(3, row), e.CustomerName)
		f.SetCellValue(sheet, cell(4, row), e.ProductName)
		f.SetCellValue(sheet, cell(5, row), e.Quantity)
		f.SetCellValue(sheet, cell(6, row), e.AmountPaid)
		f.SetCellValue(sheet, cell(7, row), e.TotalAmount)
	}

	base := len(report.Entries) + 2
	f.SetCellValue(sheet, cell(0, base), "Orders")
	f.SetCellValue(sheet, cell(1, base), report.Summary.Orders)
	f.SetCellValue(sheet, cell(0, base+1), "Revenue")
	f.SetCellValue(sheet, cell(1, base+1), report.Summary.Revenue)
	f.SetCellValue(sheet, cell(0, base+2), "Mean order")
	f.SetCellValue(sheet, cell(1, base+2), report.Summary.MeanOrder)
	f.SetCellValue(sheet, cell(0, base+3), "Median order")
	f.SetCellValue(sheet, cell(1, base+3), report.Summary.MedianOrder)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "write xlsx")
	}
	return buf.Bytes(), nil
}

// cell converts zero-based column/row into an A1-style axis.
func cell(col, row int) string {
	return excelize.ToAlphaString(col) + cast.ToString(row+1)
}
