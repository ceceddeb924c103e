package domain

import (
	"fmt"
	"strings"
)

// ExportFormat names one of the supported history export formats.
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ParseExportFormat maps user input to an ExportFormat.
// "excel" is accepted as an alias for xlsx.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", ErrValidation, s)
	}
}

// Extension returns the canonical file extension, including the dot.
func (f ExportFormat) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type used when the export is served over HTTP.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
