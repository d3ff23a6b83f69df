package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/technova-hub/extraction-api/constants"
	"github.com/technova-hub/extraction-api/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportServer serves download endpoints backed by the export service.
type ExportServer struct {
	svc    *export.Service
	logger *slog.Logger
}

func NewExportServer(svc *export.Service, logger *slog.Logger) *ExportServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportServer{svc: svc, logger: logger}
}

func (s *ExportServer) ExportCSV(w http.ResponseWriter, r *http.Request) {
	// Build the document first so a query failure can still produce a
	// clean error response.
	var buf bytes.Buffer
	if _, err := s.svc.WriteCSV(r.Context(), filterFromQuery(r.URL.Query()), &buf); err != nil {
		s.logger.Error("export.csv.failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+constants.CSVExportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *ExportServer) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	xlsx, err := s.svc.BuildXLSX(r.Context(), filterFromQuery(r.URL.Query()))
	if err != nil {
		s.logger.Error("export.xlsx.failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+constants.XLSXExportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(xlsx)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}
