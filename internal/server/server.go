// Package server exposes a segmento engine over HTTP.
//
// Routes:
//
//	POST /api/predict          one record, or an array of records
//	POST /api/explain          one record with centroid distances
//	GET  /api/distribution     segment sizes, largest first
//	GET  /api/stats            ?cluster=&features=&max=
//	GET  /api/segments/{id}    size, share and averages of one segment
//	GET  /api/summary          dashboard headline
//	GET  /api/points           ?cluster= component-space scatter data
//	GET  /debug                bundle snapshot
//	GET  /download/report      segmentation report attachment
//	GET  /healthz              200 when ready, 503 otherwise
//	GET  /metrics              Prometheus exposition (optional)
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/segmento"
	"github.com/hupe1980/segmento/analytics"
	"github.com/hupe1980/segmento/schema"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 1 << 20

// Server routes HTTP requests to the engine behind a readiness gate.
type Server struct {
	gate         *segmento.Gate
	logger       *segmento.Logger
	metrics      http.Handler
	maxBodyBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *segmento.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxBodyBytes bounds request bodies. Values < 1 keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// New creates a Server for gate.
func New(gate *segmento.Gate, optFns ...Option) *Server {
	s := &Server{
		gate:         gate,
		logger:       segmento.NoopLogger(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("POST /api/explain", s.handleExplain)
	mux.HandleFunc("GET /api/distribution", s.handleDistribution)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/segments/{id}", s.handleSegment)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/points", s.handlePoints)
	mux.HandleFunc("GET /debug", s.handleDebug)
	mux.HandleFunc("GET /download/report", s.handleReport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return s.logRequests(mux)
}

// PredictResponse is the JSON shape of one prediction.
type PredictResponse struct {
	ClusterNumber int            `json:"cluster_number"`
	ClusterName   string         `json:"cluster_name"`
	SegmentInfo   map[string]any `json:"segment_info"`
	Components    []float64      `json:"components"`
}

// BatchItem is one element of a batch prediction response. Exactly one of
// the embedded prediction or Error is set.
type BatchItem struct {
	*PredictResponse
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

// SegmentResponse is the JSON shape of GET /api/segments/{id}.
type SegmentResponse struct {
	Cluster int            `json:"cluster"`
	Name    string         `json:"name"`
	Info    map[string]any `json:"segment_info"`
}

// NewPredictResponse converts a prediction into its JSON shape.
func NewPredictResponse(p segmento.Prediction) *PredictResponse {
	return &PredictResponse{
		ClusterNumber: p.Cluster,
		ClusterName:   p.Segment,
		SegmentInfo:   p.Info.Fields(),
		Components:    p.Components,
	}
}

// NewBatchItems converts a batch result into its JSON shape, one item per
// input record.
func NewBatchItems(res segmento.BatchResult) []BatchItem {
	items := make([]BatchItem, len(res.Predictions))
	for i := range items {
		if err := res.Err(i); err != nil {
			_, body := classify(err)
			items[i] = BatchItem{Error: &body}
			continue
		}
		items[i] = BatchItem{PredictResponse: NewPredictResponse(res.Predictions[i])}
	}
	return items
}

// DecodeRecords decodes a JSON object or array of objects. Numbers are kept
// as json.Number so integers survive exactly. It reports whether the input
// was an array.
func DecodeRecords(body []byte) ([]schema.Record, bool, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var recs []schema.Record
		err := decodeJSON(body, &recs)
		return recs, true, err
	}
	var rec schema.Record
	if err := decodeJSON(body, &rec); err != nil {
		return nil, false, err
	}
	return []schema.Record{rec}, false, nil
}

func (s *Server) engine(w http.ResponseWriter) (*segmento.Engine, bool) {
	eng, err := s.gate.Engine()
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return eng, true
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	if body[0] == '[' {
		var recs []schema.Record
		if err := decodeJSON(body, &recs); err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, NewBatchItems(eng.PredictBatch(r.Context(), recs)))
		return
	}

	rec, ok := s.decodeRecord(w, body)
	if !ok {
		return
	}
	p, err := eng.Predict(r.Context(), rec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, NewPredictResponse(p))
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	rec, ok := s.decodeRecord(w, body)
	if !ok {
		return
	}
	ex, err := eng.Explain(r.Context(), rec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleDistribution(w http.ResponseWriter, _ *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, eng.SegmentDistribution())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}
	q := r.URL.Query()

	var features []string
	if v := q.Get("features"); v != "" {
		for f := range strings.SplitSeq(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				features = append(features, f)
			}
		}
	}
	maxFeatures, err := intParam(q.Get("max"), 0)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_PARAMETER", "max: "+err.Error())
		return
	}

	if v := q.Get("cluster"); v != "" {
		cluster, err := strconv.Atoi(v)
		if err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_PARAMETER", "cluster must be an integer")
			return
		}
		st, err := eng.SegmentStats(cluster, features, maxFeatures)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, st)
		return
	}

	all, err := eng.AllSegmentStats(features, maxFeatures)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}
	cluster, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_PARAMETER", "segment id must be an integer")
		return
	}
	info, err := eng.SegmentInfo(cluster)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SegmentResponse{Cluster: info.Cluster, Name: info.Name, Info: info.Fields()})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, eng.Summary())
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}
	cluster, err := intParam(r.URL.Query().Get("cluster"), -1)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_PARAMETER", "cluster must be an integer")
		return
	}
	pts, err := eng.Points(cluster)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if pts == nil {
		pts = []analytics.Point{}
	}
	s.writeJSON(w, http.StatusOK, pts)
}

func (s *Server) handleDebug(w http.ResponseWriter, _ *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, eng.DebugSnapshot())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}
	rep, err := eng.Report(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(rep.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rep.Content)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version uint64 `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	eng, err := s.gate.Engine()
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "not_ready", Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: eng.Version()})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
			return nil, false
		}
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return nil, false
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		s.writeErrorResponse(w, http.StatusBadRequest, "EMPTY_REQUEST", "no data received")
		return nil, false
	}
	return body, true
}

func (s *Server) decodeRecord(w http.ResponseWriter, body []byte) (schema.Record, bool) {
	var rec schema.Record
	if err := decodeJSON(body, &rec); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return nil, false
	}
	if len(rec) == 0 {
		s.writeErrorResponse(w, http.StatusBadRequest, "EMPTY_REQUEST", "no data received")
		return nil, false
	}
	return rec, true
}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	if dec.More() {
		return errors.New("decode request: trailing data")
	}
	return nil
}

// classify maps an engine error onto an HTTP status and error body.
func classify(err error) (int, ErrorBody) {
	var ve *segmento.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ErrorBody{Code: "VALIDATION_FAILED", Message: err.Error(), Missing: ve.Missing}
	case errors.Is(err, segmento.ErrUnknownCluster):
		return http.StatusNotFound, ErrorBody{Code: "UNKNOWN_SEGMENT", Message: err.Error()}
	case errors.Is(err, segmento.ErrNoReport):
		return http.StatusNotFound, ErrorBody{Code: "NO_REPORT", Message: err.Error()}
	case errors.Is(err, segmento.ErrNoComponents):
		return http.StatusNotFound, ErrorBody{Code: "NO_COMPONENTS", Message: err.Error()}
	case errors.Is(err, segmento.ErrNotReady), errors.Is(err, segmento.ErrClosed):
		return http.StatusServiceUnavailable, ErrorBody{Code: "NOT_READY", Message: err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorBody{Code: "CANCELLED", Message: err.Error()}
	case errors.Is(err, segmento.ErrInvariant):
		return http.StatusInternalServerError, ErrorBody{Code: "INVARIANT_VIOLATION", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: "INTERNAL", Message: err.Error()}
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code, body := classify(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", body.Code, "error", err)
	}
	s.writeJSON(w, code, errorResponse{Error: body})
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Error: ErrorBody{Code: code, Message: message}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.DebugContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
