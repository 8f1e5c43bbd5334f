package export

import (
	"io"
	"sort"

	pkgerrors "github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/puestito/ventas-pos/models"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultSheet = "Sheet1"
	// Excel caps sheet names at 31 characters.
	maxSheetName = 31
)

var header = []any{"Sale ID", "Product", "Quantity", "Unit Price", "Total"}

// SheetName is the name of the sheet holding the sales of one sale date.
func SheetName(saleDate string) string {
	name := "Sales " + saleDate
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

// WriteWorkbook renders sales as an xlsx workbook with one sheet per sale
// date, newest date first. Each sale is listed item by item and closed by a
// bold total row.
func WriteWorkbook(w io.Writer, sales []models.Sale) error {
	f := excelize.NewFile()
	defer f.Close()

	byDate := make(map[string][]models.Sale)
	var dates []string
	for _, s := range sales {
		d := s.SaleDate.Format(models.SaleDateLayout)
		if _, ok := byDate[d]; !ok {
			dates = append(dates, d)
		}
		byDate[d] = append(byDate[d], s)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return pkgerrors.Wrap(err, "create bold style")
	}

	if len(dates) == 0 {
		if err := f.SetSheetName(defaultSheet, "Sales"); err != nil {
			return pkgerrors.Wrap(err, "rename default sheet")
		}
		if err := writeHeader(f, "Sales", bold); err != nil {
			return err
		}
		return write(f, w)
	}

	for i, d := range dates {
		sheet := SheetName(d)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return pkgerrors.Wrap(err, "rename default sheet")
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return pkgerrors.Wrapf(err, "create sheet %s", sheet)
		}

		if err := writeSheet(f, sheet, d, byDate[d], bold); err != nil {
			return err
		}
	}
	return write(f, w)
}

func writeHeader(f *excelize.File, sheet string, bold int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return pkgerrors.Wrap(err, "write header")
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", bold); err != nil {
		return pkgerrors.Wrap(err, "style header")
	}
	return f.SetColWidth(sheet, "A", "E", 15)
}

func writeSheet(f *excelize.File, sheet, saleDate string, sales []models.Sale, bold int) error {
	title := []any{"Sales of " + saleDate}
	if err := f.SetSheetRow(sheet, "A1", &title); err != nil {
		return pkgerrors.Wrap(err, "write title")
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", bold); err != nil {
		return pkgerrors.Wrap(err, "style title")
	}

	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		return pkgerrors.Wrap(err, "write header")
	}
	if err := f.SetCellStyle(sheet, "A3", "E3", bold); err != nil {
		return pkgerrors.Wrap(err, "style header")
	}

	row := 4
	for _, s := range sales {
		for _, item := range s.Items {
			values := []any{
				s.ID,
				item.ProductName,
				item.Quantity,
				item.Price.InexactFloat64(),
				item.Total.InexactFloat64(),
			}
			if err := setRow(f, sheet, row, values); err != nil {
				return err
			}
			row++
		}

		totalRow := []any{"", "", "", "Sale total:", s.TotalSale().InexactFloat64()}
		if err := setRow(f, sheet, row, totalRow); err != nil {
			return err
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(5, row)
		if err := f.SetCellStyle(sheet, start, end, bold); err != nil {
			return pkgerrors.Wrap(err, "style total row")
		}
		row += 2
	}

	return f.SetColWidth(sheet, "A", "E", 15)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return pkgerrors.Wrapf(err, "write row %d", row)
	}
	return nil
}

func write(f *excelize.File, w io.Writer) error {
	if _, err := f.WriteTo(w); err != nil {
		return pkgerrors.Wrap(err, "write workbook")
	}
	return nil
}
