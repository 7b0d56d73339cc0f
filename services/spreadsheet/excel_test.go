package spreadsheetsvc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pioneiros/colina/core/report"
)

func TestExcel_Write(t *testing.T) {
	xl := NewExcel()
	table := report.Table{
		Name:    report.Assets,
		Title:   "Patrimônio",
		Columns: []string{"Nome", "Quantidade"},
		Rows: [][]interface{}{
			{"Barraca", 3},
			{"Lanterna", 12},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, xl.Write(&buf, table))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	styleID, err := f.GetCellStyle(sheetName, "B1")
	require.NoError(t, err)
	assert.NotZero(t, styleID)

	rows, err := xl.ReadRows(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Nome", "Quantidade"},
		{"Barraca", "3"},
		{"Lanterna", "12"},
	}, rows)
}

func TestExcel_WriteEmpty(t *testing.T) {
	xl := NewExcel()

	var buf bytes.Buffer
	require.NoError(t, xl.Write(&buf, report.Table{Title: "Vazio"}))

	rows, err := xl.ReadRows(&buf)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestExcel_ReadRows(t *testing.T) {
	xl := NewExcel()

	t.Run("not a workbook", func(t *testing.T) {
		_, err := xl.ReadRows(strings.NewReader("codigo;nome"))
		assert.Error(t, err)
	})

	t.Run("first sheet only", func(t *testing.T) {
		f := excelize.NewFile()
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"codigo", "nome"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"AD-001", "Arte de Acampar"}))
		_, err := f.NewSheet("Outra")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Outra", "A1", &[]interface{}{"ignored"}))

		var buf bytes.Buffer
		require.NoError(t, f.Write(&buf))
		_ = f.Close()

		rows, err := xl.ReadRows(&buf)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"codigo", "nome"}, {"AD-001", "Arte de Acampar"}}, rows)
	})
}
