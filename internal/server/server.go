// Package server exposes affidavit generation and claim extraction over
// HTTP, mirroring the hosted function endpoints.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GMettam/batch-affidavit-web/internal/affidavit"
	"github.com/GMettam/batch-affidavit-web/internal/model"
)

// DocxContentType is the media type of a generated affidavit.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Pipeline is the part of pipeline.Pipeline the handlers use.
type Pipeline interface {
	Extract(ctx context.Context, name, text string) (*model.CaseRecord, error)
	Generate(ctx context.Context, rec model.CaseRecord) (*affidavit.Result, error)
}

// Server routes the affidavit endpoints.
type Server struct {
	pipeline Pipeline
	cfg      model.ServerConfig
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New builds the HTTP handler.
func New(p Pipeline, cfg model.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{pipeline: p, cfg: cfg, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("/generate-affidavit", s.post(s.handleGenerate))
	s.mux.HandleFunc("/extract-gpc-data", s.post(s.handleExtract))
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s
}

// HTTPServer wraps the handler with the configured address and timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
}

type ctxKey struct{}

// RequestID returns the request ID assigned by the server, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// ServeHTTP assigns a request ID, applies CORS headers and logs the request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", id)
	if s.cfg.AllowOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowOrigin)
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))

	s.logger.Info("request",
		zap.String("request_id", id),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Int("bytes", rec.bytes),
		zap.Duration("took", time.Since(start)),
	)
}

// post restricts h to POST, answering CORS preflight requests.
func (s *Server) post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h(w, r)
		case http.MethodOptions:
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("Allow", "POST, OPTIONS")
			s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var rec model.CaseRecord
	if status, err := s.decode(w, r, &rec); err != nil {
		s.writeError(w, r, status, "Invalid request body", err)
		return
	}

	rec.Normalize()
	if err := affidavit.Validate(&rec, affidavit.FunctionRequiredFields); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	res, err := s.pipeline.Generate(r.Context(), rec)
	if err != nil {
		var missing *affidavit.MissingFieldError
		var render *affidavit.RenderError
		switch {
		case errors.As(err, &missing):
			s.writeError(w, r, http.StatusBadRequest, missing.Error(), nil)
		case errors.Is(err, affidavit.ErrUnknownDefendant):
			s.writeError(w, r, http.StatusBadRequest, "Unknown defendant", err)
		case errors.As(err, &render):
			s.writeError(w, r, http.StatusInternalServerError, "Failed to render template", render.Err)
		default:
			s.writeError(w, r, http.StatusInternalServerError, "Failed to generate affidavit", err)
		}
		return
	}

	h := w.Header()
	h.Set("Content-Type", DocxContentType)
	h.Set("Content-Disposition", contentDisposition(res.Filename))

	body := res.Document
	if s.cfg.Base64Body {
		body = []byte(base64.StdEncoding.EncodeToString(res.Document))
		h.Set("Content-Transfer-Encoding", "base64")
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// contentDisposition names the attachment. Non-ASCII names are sent in the
// RFC 2231 filename* form.
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

type extractRequest struct {
	Text     string `json:"text"`
	Filename string `json:"filename,omitempty"`
}

type extractResponse struct {
	*model.CaseRecord
	Filename string `json:"filename,omitempty"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if status, err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, status, "Invalid request body", err)
		return
	}
	if req.Text == "" {
		s.writeError(w, r, http.StatusBadRequest, "No text provided", nil)
		return
	}

	name := req.Filename
	if name == "" {
		name = "claim"
	}
	rec, err := s.pipeline.Extract(r.Context(), name, req.Text)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to extract data from GPC", err)
		return
	}

	s.writeJSON(w, http.StatusOK, extractResponse{CaseRecord: rec, Filename: req.Filename})
}

// decode reads a JSON body into v, returning the status to answer with on
// failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) (int, error) {
	body := r.Body
	if s.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return http.StatusRequestEntityTooLarge, err
		}
		return http.StatusBadRequest, err
	}
	return http.StatusOK, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, cause error) {
	body := model.ErrorBody{Error: msg}
	if cause != nil {
		body.Details = cause.Error()
	}

	fields := []zap.Field{
		zap.String("request_id", RequestID(r.Context())),
		zap.Int("status", status),
		zap.String("error", msg),
	}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Warn("request rejected", fields...)
	}

	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", zap.Error(err))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
