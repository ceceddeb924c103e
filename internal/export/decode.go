package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pkordes/trip-logbook/internal/domain"
)

// FormatFromPath picks the format of an import file from its extension.
func FormatFromPath(path string) (domain.ExportFormat, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("export.FormatFromPath: %w: %s has no file extension", domain.ErrValidation, path)
	}
	return domain.ParseExportFormat(ext)
}

// Decode reads records previously written by Encode. Rows are returned as
// found; validating them is up to the caller.
func Decode(r io.Reader, format domain.ExportFormat) ([]domain.TripRecord, error) {
	switch format {
	case domain.FormatJSON:
		return decodeJSON(r)
	case domain.FormatCSV:
		return decodeCSV(r)
	case domain.FormatXLSX:
		return decodeXLSX(r)
	default:
		return nil, fmt.Errorf("export.Decode: %w: unsupported import format %q", domain.ErrValidation, format)
	}
}

func decodeJSON(r io.Reader) ([]domain.TripRecord, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("export.decodeJSON: %w: %w", domain.ErrValidation, err)
	}
	records := make([]domain.TripRecord, len(raw))
	for i, msg := range raw {
		// An unreadable element becomes a zero record, which fails validation
		// later and is counted as skipped. Fields decoded before the error are
		// discarded.
		if err := json.Unmarshal(msg, &records[i]); err != nil {
			records[i] = domain.TripRecord{}
		}
	}
	return records, nil
}

func decodeCSV(r io.Reader) ([]domain.TripRecord, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, []byte(utf8BOM)) {
		_, _ = br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("export.decodeCSV: %w: %w", domain.ErrValidation, err)
	}
	return fromRows(rows)
}

func decodeXLSX(r io.Reader) ([]domain.TripRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("export.decodeXLSX: %w: %w", domain.ErrValidation, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("export.decodeXLSX: %w: %w", domain.ErrValidation, err)
	}
	return fromRows(rows)
}

// fromRows maps a header row plus data rows onto records. Columns are matched
// by name, so reordered or extra columns are fine; derived columns are ignored.
func fromRows(rows [][]string) ([]domain.TripRecord, error) {
	if len(rows) == 0 {
		return []domain.TripRecord{}, nil
	}
	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"data", "hora_inicial", "km_inicial", "destino"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("export.fromRows: %w: missing column %q", domain.ErrValidation, required)
		}
	}

	records := make([]domain.TripRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		col := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		id, _ := strconv.ParseInt(col("ID"), 10, 64)
		records = append(records, domain.TripRecord{
			ID:            id,
			Date:          col("data"),
			DepartureTime: col("hora_inicial"),
			StartKm:       domain.Reading(decimalPoint(col("km_inicial"))),
			ArrivalTime:   col("hora_final"),
			EndKm:         domain.Reading(decimalPoint(col("km_final"))),
			Destination:   col("destino"),
		})
	}
	return records, nil
}

// decimalPoint undoes decimalComma.
func decimalPoint(s string) string {
	return strings.Replace(s, ",", ".", 1)
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
