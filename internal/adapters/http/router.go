package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/config"
	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
	"github.com/kirillkom/invoice-assistant/internal/observability/metrics"
)

const (
	serviceName       = "api"
	defaultListLimit  = 50
	maxListLimit      = 500
	maxJSONBodyBytes  = 4 << 20
	multipartMemBytes = 8 << 20
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Services are the inbound ports served over HTTP. A nil service answers
// 501 on its routes.
type Services struct {
	Ingest      ports.InvoiceIngestor
	Invoices    ports.InvoiceReader
	Analyzer    ports.InvoiceAnalyzer
	Corrections ports.CorrectionService
	Exporter    ports.InvoiceExporter
}

type Router struct {
	cfg     config.Config
	svc     Services
	logger  *slog.Logger
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, svc Services) *Router {
	return &Router{cfg: cfg, svc: svc, logger: slog.Default()}
}

func (rt *Router) WithLogger(logger *slog.Logger) *Router {
	if logger != nil {
		rt.logger = logger
	}
	return rt
}

func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("POST /v1/invoices", rt.uploadInvoice)
	mux.HandleFunc("GET /v1/invoices", rt.listInvoices)
	mux.HandleFunc("GET /v1/invoices/{id}", rt.getInvoiceByID)
	mux.HandleFunc("POST /v1/invoices/{id}/corrections", rt.submitCorrections)
	mux.HandleFunc("POST /v1/extract", rt.extract)
	mux.HandleFunc("GET /v1/corrections", rt.correctionStats)
	mux.HandleFunc("POST /v1/corrections", rt.recordCorrection)
	mux.HandleFunc("GET /v1/exports/invoices.xlsx", rt.exportInvoices)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureTimeoutMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadInvoice(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Ingest == nil {
		writeNotConfigured(w, "upload")
		return
	}
	if rt.cfg.UploadMaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.UploadMaxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemBytes); err != nil {
		if mapErrorToHTTPStatus(err) == http.StatusRequestEntityTooLarge {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload exceeds size limit"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	direction := domain.ParseDirection(r.FormValue("direction"))
	inv, err := rt.svc.Ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		direction,
		file,
	)
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, string(direction), fileHeader.Size, err)
	}
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, inv)
}

func (rt *Router) listInvoices(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Invoices == nil {
		writeNotConfigured(w, "invoices")
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	invoices, err := rt.svc.Invoices.List(r.Context(), limit)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (rt *Router) getInvoiceByID(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Invoices == nil {
		writeNotConfigured(w, "invoices")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invoice id is required"})
		return
	}

	inv, err := rt.svc.Invoices.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (rt *Router) submitCorrections(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Corrections == nil {
		writeNotConfigured(w, "corrections")
		return
	}
	var req struct {
		Fields map[domain.FieldType]string `json:"fields"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Fields) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "fields are required"})
		return
	}

	inv, err := rt.svc.Corrections.SubmitCorrections(r.Context(), r.PathValue("id"), req.Fields)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (rt *Router) extract(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Analyzer == nil {
		writeNotConfigured(w, "extract")
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	analysis, err := rt.svc.Analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (rt *Router) correctionStats(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Corrections == nil {
		writeNotConfigured(w, "corrections")
		return
	}
	stats, err := rt.svc.Corrections.Stats(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) recordCorrection(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Corrections == nil {
		writeNotConfigured(w, "corrections")
		return
	}
	var req struct {
		FieldType      *domain.FieldType `json:"field_type"`
		OriginalText   string            `json:"original_text"`
		CorrectedText  string            `json:"corrected_text"`
		CompanyContext string            `json:"company_context"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	// The zero FieldType is company, so an omitted field must not decode to it.
	if req.FieldType == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "field_type is required"})
		return
	}

	rec, recorded, err := rt.svc.Corrections.RecordCorrection(r.Context(), req.OriginalText, req.CorrectedText, *req.FieldType, req.CompanyContext)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if !recorded {
		writeJSON(w, http.StatusOK, map[string]any{"recorded": false})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"recorded": true, "record": rec})
}

func (rt *Router) exportInvoices(w http.ResponseWriter, r *http.Request) {
	if rt.svc.Exporter == nil {
		writeNotConfigured(w, "export")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	var buf bytes.Buffer
	err := rt.svc.Exporter.ExportInvoices(r.Context(), &buf, limit)
	if rt.metrics != nil {
		rt.metrics.RecordExport(serviceName, buf.Len(), err)
	}
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="rechnungen.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, maxListLimit), nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		status := http.StatusBadRequest
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, map[string]string{"error": "invalid json: " + err.Error()})
		return false
	}
	return true
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"kind", domain.KindName(err),
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "kind": domain.KindName(err)})
}

func writeNotConfigured(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotImplemented, map[string]string{"error": what + " is not configured"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
