package dataset

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ctrdash/pkg/dataerr"
)

// sheetRows pairs a sheet name with its cell rows for workbook fixtures.
type sheetRows struct {
	name string
	rows [][]string
}

func createWorkbook(t *testing.T, sheets ...sheetRows) string {
	t.Helper()
	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			f.SetSheetName("Sheet1", s.name)
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			rowCopy := row
			require.NoError(t, f.SetSheetRow(s.name, cell, &rowCopy))
		}
	}
	path := filepath.Join(t.TempDir(), "ctr.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func intentSheet() sheetRows {
	return sheetRows{name: SheetIntent, rows: [][]string{
		{"Year Month", "informational", "desktop ctr", "mobile ctr"},
		{"2024-04-01", "true", "0.020", "0.022"},
		{"2024-04-01", "false", "0.025", "0.030"},
		{"2024-05-01", "true", "0.018", "0.021"},
		{"2024-05-01", "false", "0.024", "0.029"},
	}}
}

func wordLengthSheet() sheetRows {
	return sheetRows{name: SheetWordLength, rows: [][]string{
		{"Year Month", "n_bucket", "calculated ctr"},
		{"2024-04-01", "1", "0.040"},
		{"2024-04-01", "2", "0.030"},
		{"2024-05-01", "1", "0.020"},
		{"2024-05-01", "2", "0.015"},
	}}
}

func brandSheet() sheetRows {
	return sheetRows{name: SheetBrand, rows: [][]string{
		{"date (Date)", "is_brand", "calculated ctr"},
		{"2024-04-01", "true", "0.28"},
		{"2024-04-01", "false", "0.025"},
		{"2024-05-01", "true", "0.29"},
		{"2024-05-01", "false", "0.020"},
	}}
}

func TestLoadWorkbookAllSheets(t *testing.T) {
	path := createWorkbook(t, intentSheet(), wordLengthSheet(), brandSheet())

	ds, err := LoadWorkbook(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, ds.ID)
	require.Equal(t, SourceWorkbook, ds.Source)
	require.Empty(t, ds.Reports)

	require.Equal(t, 4, ds.Intent.Len())
	require.Equal(t, 4, ds.WordLength.Len())
	require.Equal(t, 4, ds.Brand.Len())

	first := ds.Intent.Rows[0]
	require.True(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).Equal(first.Month))
	require.True(t, first.Informational)
	require.InDelta(t, 0.020, first.DesktopCTR, 1e-12)
	require.InDelta(t, 0.022, first.MobileCTR, 1e-12)

	// Dates must be monotonically non-decreasing after load.
	for i := 1; i < ds.Brand.Len(); i++ {
		require.False(t, ds.Brand.Rows[i].Date.Before(ds.Brand.Rows[i-1].Date))
	}

	require.Equal(t, 1, ds.WordLength.Rows[0].Bucket)
	require.InDelta(t, 0.28, ds.Brand.Rows[0].CTR, 1e-12)
}

func TestLoadWorkbookMissingSheetsDegrade(t *testing.T) {
	path := createWorkbook(t, wordLengthSheet())

	ds, err := LoadWorkbook(context.Background(), path)
	require.NoError(t, err)

	require.True(t, ds.WordLength.Populated())
	require.False(t, ds.Intent.Populated())
	require.False(t, ds.Brand.Populated())

	require.Len(t, ds.Reports, 2)
	slots := map[Slot]dataerr.Code{}
	for _, rep := range ds.Reports {
		slots[rep.Slot] = rep.Code
	}
	require.Equal(t, dataerr.SheetMissing, slots[SlotIntent])
	require.Equal(t, dataerr.SheetMissing, slots[SlotBrand])
}

func TestLoadWorkbookCoercionFailureIsolated(t *testing.T) {
	bad := brandSheet()
	bad.rows[2][0] = "not a date"
	path := createWorkbook(t, intentSheet(), wordLengthSheet(), bad)

	ds, err := LoadWorkbook(context.Background(), path)
	require.NoError(t, err)

	// The bad table fails alone; siblings still load.
	require.False(t, ds.Brand.Populated())
	require.True(t, ds.Intent.Populated())
	require.True(t, ds.WordLength.Populated())

	require.Len(t, ds.Reports, 1)
	require.Equal(t, SlotBrand, ds.Reports[0].Slot)
	require.Equal(t, dataerr.CoercionFailed, ds.Reports[0].Code)
}

func TestLoadWorkbookMissingColumnDegrades(t *testing.T) {
	noBucket := sheetRows{name: SheetWordLength, rows: [][]string{
		{"Year Month", "calculated ctr"},
		{"2024-04-01", "0.040"},
	}}
	path := createWorkbook(t, noBucket, brandSheet())

	ds, err := LoadWorkbook(context.Background(), path)
	require.NoError(t, err)

	require.False(t, ds.WordLength.Populated())
	require.True(t, ds.Brand.Populated())

	var report *SlotReport
	for i := range ds.Reports {
		if ds.Reports[i].Slot == SlotWordLength {
			report = &ds.Reports[i]
		}
	}
	require.NotNil(t, report)
	require.Equal(t, dataerr.SchemaInvalid, report.Code)
}

func TestLoadWorkbookHeaderOnlySheetIsEmpty(t *testing.T) {
	headerOnly := sheetRows{name: SheetBrand, rows: [][]string{
		{"date (Date)", "is_brand", "calculated ctr"},
	}}
	path := createWorkbook(t, headerOnly)

	ds, err := LoadWorkbook(context.Background(), path)
	require.NoError(t, err)
	require.False(t, ds.Brand.Populated())

	var codes []dataerr.Code
	for _, rep := range ds.Reports {
		if rep.Slot == SlotBrand {
			codes = append(codes, rep.Code)
		}
	}
	require.Equal(t, []dataerr.Code{dataerr.SchemaInvalid}, codes)
}

func TestLoadWorkbookOpenFailure(t *testing.T) {
	_, err := LoadWorkbook(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	require.ErrorIs(t, err, dataerr.New(dataerr.OpenFailed, ""))
}
