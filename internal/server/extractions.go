package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/technova-hub/extraction-api/constants"
	"github.com/technova-hub/extraction-api/internal/common"
	"github.com/technova-hub/extraction-api/internal/entity"
	"github.com/technova-hub/extraction-api/internal/repository"
)

const (
	defaultPage     = 1
	defaultPerPage  = 10
	healthzDeadline = 3 * time.Second
)

// ExtractionsService serves the extraction record API.
type ExtractionsService struct {
	repo   repository.ExtractionRepository
	logger *slog.Logger
}

func NewExtractionsService(repo repository.ExtractionRepository, logger *slog.Logger) *ExtractionsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionsService{repo: repo, logger: logger}
}

// extractionJSON is the wire shape of a record; timestamps keep the stored
// layout rather than RFC 3339.
type extractionJSON struct {
	ID             int64           `json:"id"`
	Filename       string          `json:"filename"`
	FileSize       *int64          `json:"file_size"`
	MIMEType       string          `json:"mime_type"`
	ExtractionDate string          `json:"extraction_date"`
	Status         string          `json:"status"`
	Data           json.RawMessage `json:"data,omitempty"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

type paginationJSON struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
}

type listResponse struct {
	Extractions []extractionJSON `json:"extractions"`
	Pagination  paginationJSON   `json:"pagination"`
}

func toExtractionJSON(rec *entity.Extraction) extractionJSON {
	out := extractionJSON{
		ID:             rec.ID,
		Filename:       rec.Filename,
		FileSize:       rec.FileSize,
		MIMEType:       rec.MIMEType,
		ExtractionDate: rec.ExtractionDate.Format(entity.TimeLayout),
		Status:         rec.Status,
		CreatedAt:      rec.CreatedAt.Format(entity.TimeLayout),
		UpdatedAt:      rec.UpdatedAt.Format(entity.TimeLayout),
	}
	if !rec.Data.IsZero() {
		if raw, err := json.Marshal(rec.Data); err == nil {
			out.Data = raw
		}
	}
	return out
}

func (s *ExtractionsService) ListExtractions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(q.Get("page"), defaultPage)
	perPage := queryInt(q.Get("per_page"), defaultPerPage)

	recs, total, err := s.repo.List(r.Context(), repository.ListParams{
		Filter:  filterFromQuery(q),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]extractionJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toExtractionJSON(rec))
	}
	writeJSON(w, http.StatusOK, listResponse{
		Extractions: out,
		Pagination: paginationJSON{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   (total + int64(perPage) - 1) / int64(perPage),
		},
	})
}

// createExtractionBody mirrors the frontend's POST payload. data_json accepts
// either a pre-serialized JSON string or an inline JSON value.
type createExtractionBody struct {
	Filename string          `json:"filename"`
	FileSize *int64          `json:"file_size"`
	MIMEType string          `json:"mime_type"`
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data_json"`
}

func (s *ExtractionsService) CreateExtraction(w http.ResponseWriter, r *http.Request) {
	var body createExtractionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.repo.Create(r.Context(), &repository.CreateExtractionRequest{
		Filename: body.Filename,
		FileSize: body.FileSize,
		MIMEType: body.MIMEType,
		Status:   body.Status,
		Data:     payloadText(body.Data),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      rec.ID,
		"message": "Extraction created successfully",
	})
}

func (s *ExtractionsService) GetExtraction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		// A non-numeric id cannot name a record.
		writeError(w, http.StatusNotFound, "Extraction not found")
		return
	}

	rec, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExtractionJSON(rec))
}

func (s *ExtractionsService) DeleteExtraction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Extraction not found")
		return
	}

	if err := s.repo.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Extraction deleted successfully",
	})
}

func (s *ExtractionsService) ClearExtractions(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.repo.DeleteAll(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Cleared %d extractions successfully", deleted),
	})
}

func (s *ExtractionsService) GetMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.repo.Metrics(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *ExtractionsService) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.HealthCheck(r.Context(), healthzDeadline); err != nil {
		s.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondError translates domain errors into the API's error responses.
func (s *ExtractionsService) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "Extraction not found")
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", common.RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// queryInt parses a positive integer query parameter, falling back on
// anything unusable.
func queryInt(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func filterFromQuery(q url.Values) repository.Filter {
	return repository.Filter{
		Search:     q.Get("search"),
		DateFilter: constants.DateFilter(q.Get("date_filter")),
	}
}

// payloadText normalizes the submitted data_json field to the text that gets
// stored: a JSON string unwraps to its content, any other JSON value is kept
// in its serialized form, and null counts as absent.
func payloadText(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return json.RawMessage(s)
	}
	return raw
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
