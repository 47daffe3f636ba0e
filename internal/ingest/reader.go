// Package ingest reads balance snapshots from CSV or XLSX files into datasets.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/inventory-balance/internal/balance"
	"github.com/andresuchdata/inventory-balance/internal/domain"
)

// Options controls decoding and column naming.
type Options struct {
	Encoding string
	Schema   balance.SchemaConfig
}

// Load reads the snapshot at path. Any failure is wrapped in domain.ErrLoad
// and no partial dataset is returned.
func Load(ctx context.Context, path string, opts Options) (*balance.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLoad, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrLoad, path)
	}

	var header []string
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		header, rows, err = readXLSX(ctx, path)
	default:
		header, rows, err = readCSVFile(ctx, path, opts.Encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLoad, path, err)
	}

	ds, err := balance.BuildDataset(header, rows, opts.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLoad, path, err)
	}
	ds.Source = balance.Source{Path: path, ModTime: info.ModTime(), Size: info.Size()}
	ds.LoadedAt = time.Now()
	return ds, nil
}

func readCSVFile(ctx context.Context, path, enc string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	return ReadCSV(ctx, file, enc)
}

// ReadCSV decodes r and returns the de-duplicated header and the data rows.
func ReadCSV(ctx context.Context, r io.Reader, enc string) ([]string, [][]string, error) {
	decoded, err := DecodeReader(r, enc)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("empty file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	rows := make([][]string, 0)
	for {
		if len(rows)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, record)
	}

	return DedupeHeader(header), rows, nil
}

// DedupeHeader trims header names and renames repeats the way spreadsheet
// exports are read: the second "Matriz" becomes "Matriz.1", the third
// "Matriz.2". This is what pairs a warehouse with its classification column
// when the export repeats the warehouse name.
func DedupeHeader(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[strings.TrimSpace(h)] = true
	}
	counts := make(map[string]int, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if !seen[name] {
			seen[name] = true
			out[i] = name
			continue
		}
		for {
			counts[name]++
			candidate := fmt.Sprintf("%s.%d", name, counts[name])
			if !taken[candidate] {
				taken[candidate] = true
				out[i] = candidate
				break
			}
		}
	}
	return out
}
