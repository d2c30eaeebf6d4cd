// Package rest provides the HTTP form page and the JSON check API.
package rest

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
	"github.com/abgdnv/barcodecheck/internal/barcode/service"
	"github.com/abgdnv/barcodecheck/internal/platform/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	msgMissingBarcode    = "Missing 'barcode' in request body"
	msgBarcodeNotString  = "'barcode' must be a string"
	msgStoreUnavailable  = "Could not connect to the database"
	msgQueryFailed       = "An error occurred while querying the database"
	pageStoreUnavailable = "Error: " + msgStoreUnavailable
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// CheckRequest is the body of POST /check_barcode_api. Barcode stays raw so an absent
// field, a JSON null and a value of the wrong type can be told apart.
type CheckRequest struct {
	Barcode json.RawMessage `json:"barcode" validate:"required"`
}

// candidate returns the barcode to check. null matches no stored barcode and is
// checked as a blank candidate.
func (r CheckRequest) candidate() (string, error) {
	if bytes.Equal(bytes.TrimSpace(r.Barcode), []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(r.Barcode, &s); err != nil {
		return "", err
	}
	return s, nil
}

// CheckResponse is the success body of POST /check_barcode_api.
type CheckResponse struct {
	Status string `json:"status"`
}

// pageData feeds the form template. An empty Result renders no result block.
type pageData struct {
	Barcode string
	Result  string
}

type Handler struct {
	checker  service.BarcodeChecker
	gatherer prometheus.Gatherer
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new Handler. gatherer may be nil, in which case /metrics is not served.
func NewHandler(checker service.BarcodeChecker, gatherer prometheus.Gatherer, logger *slog.Logger) *Handler {
	return &Handler{
		checker:  checker,
		gatherer: gatherer,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the barcode service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/", h.Page)
	r.Post("/", h.CheckForm)
	r.Post("/check_barcode_api", h.CheckAPI)
	r.Get("/healthz", h.HealthCheck)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
}

// Page renders the empty check page.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{})
}

// CheckForm handles the form submission and renders the page with the result.
func (h *Handler) CheckForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(r.Context(), "Error parsing form", "error", err)
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	barcode := strings.TrimSpace(r.PostForm.Get("barcode"))
	if barcode == "" {
		h.render(w, r, pageData{})
		return
	}

	h.logger.DebugContext(r.Context(), "Received form check", "barcode", barcode)
	res := h.checker.Check(r.Context(), barcode)
	if res.Status == service.StatusError && errors.Is(res.Cause, berrors.ErrStoreUnavailable) {
		h.logger.ErrorContext(r.Context(), "Store unavailable for form check", "barcode", barcode, "error", res.Cause)
		http.Error(w, pageStoreUnavailable, http.StatusInternalServerError)
		return
	}
	h.render(w, r, pageData{Barcode: barcode, Result: res.Status.String()})
}

// CheckAPI answers a JSON check request.
func (h *Handler) CheckAPI(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, r, h.logger, http.StatusBadRequest, msgMissingBarcode)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.logger.WarnContext(r.Context(), "Validation errors occurred", "error", err)
		web.RespondError(w, r, h.logger, http.StatusBadRequest, msgMissingBarcode)
		return
	}

	barcode, err := req.candidate()
	if err != nil {
		h.logger.WarnContext(r.Context(), "Barcode is not a string", "error", err)
		web.RespondError(w, r, h.logger, http.StatusBadRequest, msgBarcodeNotString)
		return
	}

	res := h.checker.Check(r.Context(), barcode)
	switch res.Status {
	case service.StatusValid, service.StatusInvalid:
		web.RespondJSON(w, r, h.logger, http.StatusOK, CheckResponse{Status: strings.ToLower(res.Status.String())})
	default:
		if errors.Is(res.Cause, berrors.ErrStoreUnavailable) {
			h.logger.ErrorContext(r.Context(), "Store unavailable for API check", "error", res.Cause)
			web.RespondError(w, r, h.logger, http.StatusInternalServerError, msgStoreUnavailable)
			return
		}
		h.logger.ErrorContext(r.Context(), "Query failed for API check", "error", res.Cause)
		web.RespondError(w, r, h.logger, http.StatusInternalServerError, msgQueryFailed)
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// render executes the page into a buffer first so a template failure never sends a partial page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "Error rendering page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
