package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eda_workbook.xlsx")

	w := NewExcelWriter()
	err := w.WriteWorkbook(path, []Sheet{
		{
			Name:    "Orders.csv",
			Headers: []string{"column", "mean", "median"},
			Rows: [][]interface{}{
				{"price", 120.6539, 74.99},
				{"freight_value", 19.9903, 16.26},
			},
		},
		{
			Name:    "Order Items.csv",
			Headers: []string{"column", "mean"},
			Rows:    [][]interface{}{{"price", 120.65}},
		},
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Equal(t, []string{"Orders", "Order Items"}, sheets)

	v, err := f.GetCellValue("Orders", "A1")
	require.NoError(t, err)
	assert.Equal(t, "column", v)

	v, err = f.GetCellValue("Orders", "B2")
	require.NoError(t, err)
	assert.Equal(t, "120.6539", v)
}

func TestWriteWorkbookEmpty(t *testing.T) {
	w := NewExcelWriter()
	err := w.WriteWorkbook(filepath.Join(t.TempDir(), "x.xlsx"), nil)
	assert.Error(t, err)
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips csv suffix", "Orders.csv", "Orders"},
		{"keeps spaces", "Order Items.csv", "Order Items"},
		{"replaces forbidden characters", "a/b:c?.csv", "a_b_c_"},
		{"caps at 31 chars", "an_extremely_long_dataset_name_beyond_limit.csv", "an_extremely_long_dataset_name_"},
		{"empty becomes Sheet", ".csv", "Sheet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeSheetName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), 31)
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "13.40", FormatFloat2(13.4))
	assert.Equal(t, "0.7321", FormatFloat4(0.73214))
	assert.Equal(t, "42", FormatInt(42))
	assert.Equal(t, "true", FormatBool(true))
	assert.Equal(t, "false", FormatBool(false))
}
