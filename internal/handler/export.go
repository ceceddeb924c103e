package handler

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/pkordes/trip-logbook/internal/domain"
	"github.com/pkordes/trip-logbook/internal/export"
)

// GetExport handles GET /export.
// Returns the whole history as a file download. ?format= selects xlsx
// (default, alias excel), json or csv.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	format := domain.FormatXLSX
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := domain.ParseExportFormat(raw)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		format = f
	}

	records, err := s.export.Records(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	// Encode fully before writing headers so a failure can still become a 500.
	var buf bytes.Buffer
	if err := export.Encode(&buf, format, records); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": s.export.FileName(format),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // client disconnects are not actionable here.
	buf.WriteTo(w)
}
