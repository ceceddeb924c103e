// Package export encodes the trip history into the downloadable formats
// (xlsx, json, csv) and reads the json and csv forms back for imports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pkordes/trip-logbook/internal/domain"
)

// Columns is the header row of the tabular formats, in record field order.
var Columns = []string{
	"ID", "data", "hora_inicial", "km_inicial", "hora_final",
	"km_final", "destino", "total_km", "tempo_levado",
}

const sheetName = "Historico"

// utf8BOM makes spreadsheet tools detect the CSV encoding.
const utf8BOM = "\ufeff"

// Encode writes records to w in the given format.
func Encode(w io.Writer, format domain.ExportFormat, records []domain.TripRecord) error {
	switch format {
	case domain.FormatXLSX:
		return encodeXLSX(w, records)
	case domain.FormatJSON:
		return encodeJSON(w, records)
	case domain.FormatCSV:
		return encodeCSV(w, records)
	default:
		return fmt.Errorf("export.Encode: %w: unsupported export format %q", domain.ErrValidation, format)
	}
}

func encodeXLSX(w io.Writer, records []domain.TripRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("export.encodeXLSX: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &Columns); err != nil {
		return fmt.Errorf("export.encodeXLSX: header: %w", err)
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export.encodeXLSX: %w", err)
		}
		row := []any{
			rec.ID, rec.Date, rec.DepartureTime, readingCell(rec.StartKm), rec.ArrivalTime,
			readingCell(rec.EndKm), rec.Destination, rec.Distance, rec.Duration,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("export.encodeXLSX: row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(sheetName, "G", "G", 30); err != nil {
		return fmt.Errorf("export.encodeXLSX: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export.encodeXLSX: write: %w", err)
	}
	return nil
}

// readingCell stores numeric readings as numbers so spreadsheets can sum them.
func readingCell(r domain.Reading) any {
	if n, err := strconv.Atoi(string(r)); err == nil {
		return n
	}
	return string(r)
}

func encodeJSON(w io.Writer, records []domain.TripRecord) error {
	if records == nil {
		records = []domain.TripRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("export.encodeJSON: %w", err)
	}
	return nil
}

func encodeCSV(w io.Writer, records []domain.TripRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("export.encodeCSV: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("export.encodeCSV: header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Date,
			rec.DepartureTime,
			decimalComma(string(rec.StartKm)),
			rec.ArrivalTime,
			decimalComma(string(rec.EndKm)),
			rec.Destination,
			strconv.Itoa(rec.Distance),
			rec.Duration,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export.encodeCSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export.encodeCSV: %w", err)
	}
	return nil
}

// decimalComma writes non-integer numbers with a comma decimal separator.
// Anything else is returned unchanged.
func decimalComma(s string) string {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return s
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return strings.Replace(s, ".", ",", 1)
	}
	return s
}
