package ingest

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first sheet of a workbook. The first row is the header.
func readXLSX(ctx context.Context, path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}
	sheet := sheets[0]

	it, err := f.Rows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read rows from sheet %s: %w", sheet, err)
	}
	defer it.Close()

	var header []string
	rows := make([][]string, 0)
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		record, err := it.Columns()
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		if header == nil {
			header = record
			continue
		}
		rows = append(rows, record)
	}
	if err := it.Error(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	if header == nil {
		return nil, nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	return DedupeHeader(header), rows, nil
}
