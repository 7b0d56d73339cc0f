// Package spreadsheetsvc reads and writes xlsx workbooks.
package spreadsheetsvc

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/pioneiros/colina/core/progress"
	"github.com/pioneiros/colina/core/report"
)

const (
	sheetName   = "Relatório"
	defaultName = "Sheet1"
	columnWidth = 22
)

type Excel struct{}

var (
	_ report.Writer      = (*Excel)(nil)
	_ progress.RowReader = (*Excel)(nil)
)

func NewExcel() *Excel {
	return &Excel{}
}

// Write encodes t as a single sheet workbook with a bold header row.
func (Excel) Write(w io.Writer, t report.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(defaultName, sheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, 0, len(t.Columns))
	for _, c := range t.Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+1)
		}
	}

	if len(t.Columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(t.Columns))
		if err != nil {
			return err
		}
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return errors.Wrap(err, "creating header style")
		}
		if err := f.SetCellStyle(sheetName, "A1", last+"1", bold); err != nil {
			return errors.Wrap(err, "styling header")
		}
		if err := f.SetColWidth(sheetName, "A", last, columnWidth); err != nil {
			return errors.Wrap(err, "sizing columns")
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

// ReadRows returns the rows of the first sheet. Trailing empty cells are trimmed by excelize.
func (Excel) ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return [][]string{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "reading rows")
	}
	return rows, nil
}
