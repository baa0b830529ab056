package dataset

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"ctrdash/pkg/dataerr"
)

// LoadWorkbook extracts the three logical tables from an Excel workbook.
// A missing sheet or an invalid sheet degrades that slot to an empty table
// with a SlotReport; sibling slots still load. Only a failure to open the
// workbook itself is returned as an error.
func LoadWorkbook(ctx context.Context, path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, dataerr.Wrapf(dataerr.OpenFailed, "open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	log := zerolog.Ctx(ctx)
	ds := &Dataset{ID: uuid.NewString(), Source: SourceWorkbook}

	loadSlot(ds, f, SlotIntent, SheetIntent, func(rows [][]string) error {
		t, err := extractIntent(rows)
		if err != nil {
			return err
		}
		ds.Intent = t
		return nil
	})
	loadSlot(ds, f, SlotWordLength, SheetWordLength, func(rows [][]string) error {
		t, err := extractWordLength(rows)
		if err != nil {
			return err
		}
		ds.WordLength = t
		return nil
	})
	loadSlot(ds, f, SlotBrand, SheetBrand, func(rows [][]string) error {
		t, err := extractBrand(rows)
		if err != nil {
			return err
		}
		ds.Brand = t
		return nil
	})

	ds.sortByDate()

	log.Info().
		Str("ingestion_id", ds.ID).
		Int("intent_rows", ds.Intent.Len()).
		Int("word_length_rows", ds.WordLength.Len()).
		Int("brand_rows", ds.Brand.Len()).
		Int("slot_failures", len(ds.Reports)).
		Msg("workbook ingested")
	return ds, nil
}

// loadSlot reads one sheet and hands its rows to the extractor, converting
// any failure into a SlotReport so the slot degrades instead of aborting.
func loadSlot(ds *Dataset, f *excelize.File, slot Slot, sheet string, extract func([][]string) error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		ds.Report(slot, dataerr.SheetMissing, "sheet "+sheet+" not found")
		return
	}
	rows, err := readSheetRows(f, sheet)
	if err != nil {
		ds.Report(slot, dataerr.SchemaInvalid, err.Error())
		return
	}
	if err := extract(rows); err != nil {
		code := dataerr.CoercionFailed
		if de, ok := err.(*dataerr.Error); ok {
			code = de.Code
		}
		ds.Report(slot, code, err.Error())
	}
}

// readSheetRows streams a sheet into memory, dropping fully-empty rows.
func readSheetRows(f *excelize.File, sheet string) ([][]string, error) {
	iter, err := f.Rows(sheet)
	if err != nil {
		return nil, dataerr.Wrapf(dataerr.SchemaInvalid, "read sheet %s: %v", sheet, err)
	}
	defer iter.Close()

	var rows [][]string
	for iter.Next() {
		vals, cerr := iter.Columns()
		if cerr != nil {
			return nil, dataerr.Wrapf(dataerr.SchemaInvalid, "read sheet %s: %v", sheet, cerr)
		}
		empty := true
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if !empty {
			rows = append(rows, vals)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, dataerr.Wrapf(dataerr.SchemaInvalid, "read sheet %s: %v", sheet, err)
	}
	return rows, nil
}

func extractIntent(rows [][]string) (IntentTable, error) {
	var t IntentTable
	if len(rows) < 2 {
		return t, dataerr.Wrapf(dataerr.SchemaInvalid, "sheet has no data rows")
	}
	idx, err := headerIndex(rows[0], intentColumns)
	if err != nil {
		return t, err
	}
	for _, row := range rows[1:] {
		month, err := parseDate(cellAt(row, idx["Year Month"]))
		if err != nil {
			return IntentTable{}, err
		}
		informational, err := parseBool(cellAt(row, idx["informational"]))
		if err != nil {
			return IntentTable{}, err
		}
		desktop, err := parseFloat(cellAt(row, idx["desktop ctr"]))
		if err != nil {
			return IntentTable{}, err
		}
		mobile, err := parseFloat(cellAt(row, idx["mobile ctr"]))
		if err != nil {
			return IntentTable{}, err
		}
		t.Rows = append(t.Rows, IntentObservation{
			Month:         month,
			Informational: informational,
			DesktopCTR:    desktop,
			MobileCTR:     mobile,
		})
	}
	return t, nil
}

func extractWordLength(rows [][]string) (WordLengthTable, error) {
	var t WordLengthTable
	if len(rows) < 2 {
		return t, dataerr.Wrapf(dataerr.SchemaInvalid, "sheet has no data rows")
	}
	idx, err := headerIndex(rows[0], wordLengthColumns)
	if err != nil {
		return t, err
	}
	for _, row := range rows[1:] {
		month, err := parseDate(cellAt(row, idx["Year Month"]))
		if err != nil {
			return WordLengthTable{}, err
		}
		bucket, err := parseBucket(cellAt(row, idx["n_bucket"]))
		if err != nil {
			return WordLengthTable{}, err
		}
		ctr, err := parseFloat(cellAt(row, idx["calculated ctr"]))
		if err != nil {
			return WordLengthTable{}, err
		}
		t.Rows = append(t.Rows, WordLengthObservation{Month: month, Bucket: bucket, CTR: ctr})
	}
	return t, nil
}

func extractBrand(rows [][]string) (BrandTable, error) {
	var t BrandTable
	if len(rows) < 2 {
		return t, dataerr.Wrapf(dataerr.SchemaInvalid, "sheet has no data rows")
	}
	idx, err := headerIndex(rows[0], brandColumns)
	if err != nil {
		return t, err
	}
	for _, row := range rows[1:] {
		date, err := parseDate(cellAt(row, idx["date (Date)"]))
		if err != nil {
			return BrandTable{}, err
		}
		isBrand, err := parseBool(cellAt(row, idx["is_brand"]))
		if err != nil {
			return BrandTable{}, err
		}
		ctr, err := parseFloat(cellAt(row, idx["calculated ctr"]))
		if err != nil {
			return BrandTable{}, err
		}
		t.Rows = append(t.Rows, BrandObservation{Date: date, IsBrand: isBrand, CTR: ctr})
	}
	return t, nil
}
