package server

import (
	"net/http"
)

func SetupRoutes(extractions *ExtractionsService, exports *ExportServer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/extractions", extractions.ListExtractions)
	mux.HandleFunc("POST /api/extractions", extractions.CreateExtraction)
	// The literal segment outranks {id}, so clearing is never parsed as a
	// delete by id.
	mux.HandleFunc("DELETE /api/extractions/clear", extractions.ClearExtractions)
	mux.HandleFunc("GET /api/extractions/{id}", extractions.GetExtraction)
	mux.HandleFunc("DELETE /api/extractions/{id}", extractions.DeleteExtraction)
	mux.HandleFunc("GET /api/metrics", extractions.GetMetrics)
	mux.HandleFunc("GET /api/export/csv", exports.ExportCSV)
	mux.HandleFunc("GET /api/export/xlsx", exports.ExportXLSX)
	mux.HandleFunc("GET /api/health", extractions.Health)

	return mux
}
