// Package handlers provides the HTTP endpoints of the OneStopMed API:
// drug search, classification, catalog paging, prescription generation and health.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/Tejas-dj/OneStopMed-v1/auth"
	"github.com/Tejas-dj/OneStopMed-v1/classifier"
	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
	"github.com/Tejas-dj/OneStopMed-v1/metrics"
	"github.com/Tejas-dj/OneStopMed-v1/prescription"
	"github.com/Tejas-dj/OneStopMed-v1/validation"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

const (
	pageSize              = 10
	defaultPersistTimeout = 3 * time.Second
	pdfFilename           = "prescription.pdf"
)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore      interfaces.DataStore
	searcher       interfaces.Searcher
	validator      interfaces.DataValidator
	healthChecker  interfaces.HealthChecker
	records        interfaces.RecordStore
	renderer       interfaces.PrescriptionRenderer
	persistTimeout time.Duration
	now            func() time.Time
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies.
// A zero persistTimeout falls back to 3s.
func NewHTTPHandler(
	dataStore interfaces.DataStore,
	searcher interfaces.Searcher,
	validator interfaces.DataValidator,
	healthChecker interfaces.HealthChecker,
	records interfaces.RecordStore,
	renderer interfaces.PrescriptionRenderer,
	persistTimeout time.Duration,
) *HTTPHandlerImpl {
	if persistTimeout <= 0 {
		persistTimeout = defaultPersistTimeout
	}
	return &HTTPHandlerImpl{
		dataStore:      dataStore,
		searcher:       searcher,
		validator:      validator,
		healthChecker:  healthChecker,
		records:        records,
		renderer:       renderer,
		persistTimeout: persistTimeout,
		now:            time.Now,
	}
}

// SearchResponse is the body of GET /search
type SearchResponse struct {
	Query    string                 `json:"query"`
	Strategy string                 `json:"strategy"`
	Count    int                    `json:"count"`
	Results  []entities.QueryResult `json:"results"`
}

// ClassifyResponse is the body of GET /classify
type ClassifyResponse struct {
	Label string                `json:"label"`
	Name  string                `json:"name"`
	Type  classifier.DosageForm `json:"type"`
	// Rule is the 1-based rule that fired, 0 for the fallback
	Rule int `json:"rule"`
}

// PagedResponse is the body of GET /drugs/{pageNumber}
type PagedResponse struct {
	Data       []entities.DrugRecord `json:"data"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalItems int                   `json:"totalItems"`
	MaxPage    int                   `json:"maxPage"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// SearchDrugs handles GET /search?q=<text>&limit=<n>&type=<form>
func (h *HTTPHandlerImpl) SearchDrugs(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := params.Get("q")

	var opts interfaces.SearchOptions

	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			logging.Warn("Unusual user input", "limit", raw)
			RespondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}

	if raw := params.Get("type"); raw != "" {
		form, err := classifier.ParseDosageForm(raw)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Type = &form
	}

	results, err := h.searcher.Search(r.Context(), query, opts)
	switch {
	case errors.Is(err, interfaces.ErrInvalidQuery):
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, interfaces.ErrCatalogNotLoaded):
		w.Header().Set("Retry-After", "30")
		RespondWithError(w, http.StatusServiceUnavailable, "Drug catalog is not loaded yet")
		return
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send
		return
	case err != nil:
		logging.Error("Search failed", "error", err, "query", query)
		RespondWithError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	if results == nil {
		results = []entities.QueryResult{}
	}

	RespondWithJSON(w, http.StatusOK, SearchResponse{
		Query:    query,
		Strategy: h.searcher.Strategy(),
		Count:    len(results),
		Results:  results,
	})
}

// ClassifyDrug handles GET /classify?label=<pack label>&name=<product name>
func (h *HTTPHandlerImpl) ClassifyDrug(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")
	name := r.URL.Query().Get("name")

	if strings.TrimSpace(label) == "" && strings.TrimSpace(name) == "" {
		RespondWithError(w, http.StatusBadRequest, "label or name is required")
		return
	}
	if utf8.RuneCountInString(label) > validation.MaxFieldLength || utf8.RuneCountInString(name) > validation.MaxFieldLength {
		RespondWithError(w, http.StatusBadRequest, "label and name must be at most 500 characters")
		return
	}

	form, rule := classifier.ClassifyWithRule(label, name)
	RespondWithJSON(w, http.StatusOK, ClassifyResponse{
		Label: label,
		Name:  name,
		Type:  form,
		Rule:  rule,
	})
}

// ServePagedDrugs handles GET /drugs/{pageNumber}
func (h *HTTPHandlerImpl) ServePagedDrugs(w http.ResponseWriter, r *http.Request) {
	pageNumber := chi.URLParam(r, "pageNumber")
	page, err := strconv.Atoi(pageNumber)
	if err != nil || page < 1 {
		logging.Warn("Unusual user input", "pageNumber", pageNumber)
		RespondWithError(w, http.StatusBadRequest, "Invalid page number")
		return
	}

	catalog, err := h.dataStore.GetCatalog()
	if err != nil {
		w.Header().Set("Retry-After", "30")
		RespondWithError(w, http.StatusServiceUnavailable, "Drug catalog is not loaded yet")
		return
	}

	totalItems := catalog.Len()
	start := (page - 1) * pageSize
	if start >= totalItems {
		RespondWithError(w, http.StatusNotFound, "Page not found")
		return
	}
	end := min(start+pageSize, totalItems)

	RespondWithJSON(w, http.StatusOK, PagedResponse{
		Data:       catalog.Records[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		MaxPage:    (totalItems + pageSize - 1) / pageSize,
	})
}

// GeneratePrescription handles POST /generate_pdf. The visit summary is
// forwarded to the record store first; a persistence failure is logged and
// the PDF is still returned.
func (h *HTTPHandlerImpl) GeneratePrescription(w http.ResponseWriter, r *http.Request) {
	var visit prescription.Visit
	if err := json.NewDecoder(r.Body).Decode(&visit); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		case errors.Is(err, io.EOF):
			RespondWithError(w, http.StatusBadRequest, "Request body is empty")
		default:
			RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		}
		return
	}

	if err := h.validator.ValidateVisit(&visit); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.now()
	userID := auth.UserIDFromContext(r.Context())
	h.persist(r.Context(), prescription.Summarize(visit, userID, now))

	meta := prescription.NewRenderMeta(now)
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, visit, meta); err != nil {
		logging.Error("Failed to render prescription", "error", err, "visit_id", meta.VisitID)
		RespondWithError(w, http.StatusInternalServerError, "Failed to render prescription")
		return
	}

	w.Header().Set("Content-Type", h.renderer.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename="+pdfFilename)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Visit-ID", meta.VisitID)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// persist forwards a summary to the record store under its own timeout
func (h *HTTPHandlerImpl) persist(ctx context.Context, summary prescription.VisitSummary) {
	if h.records == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.persistTimeout)
	defer cancel()

	if err := h.records.Save(ctx, summary); err != nil {
		metrics.RecordPersistTotal.WithLabelValues(metrics.OutcomeError).Inc()
		logging.Error("Failed to persist visit summary",
			"error", err,
			"visit_id", summary.VisitID.String(),
			"doctor_id", summary.DoctorID,
		)
		return
	}

	metrics.RecordPersistTotal.WithLabelValues(metrics.OutcomeSaved).Inc()
}

// HealthCheck handles GET /health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()
	RespondWithJSON(w, httpStatus, HealthResponse{
		Status: status,
		Data:   data,
	})
}
