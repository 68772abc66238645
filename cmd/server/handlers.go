package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/phonetichybrid/phonetichybrid/pkg/logger"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/engine"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phonemizer"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/spectrogram"
	"github.com/phonetichybrid/phonetichybrid/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service phonetichybrid.Service
	metrics *phonetichybrid.Metrics
	config  *ServerConfig
	log     phonetichybrid.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	SampleRate     int
	Language       string
	AllowedOrigins []string
	LogRequests    bool
}

// NewServer creates a new server instance. metrics may be nil.
func NewServer(service phonetichybrid.Service, metrics *phonetichybrid.Metrics, config *ServerConfig) *Server {
	return &Server{
		service: service,
		metrics: metrics,
		config:  config,
		log:     logger.GetLogger().WithPrefix("http"),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, phonetichybrid.ErrNotFound), errors.Is(err, phonemizer.ErrUnknownWord):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrEmptyWord):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, phonemizer.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	switch engine.KindOf(err) {
	case engine.KindInput:
		return http.StatusBadRequest
	case engine.KindDependency:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// saveUpload copies the multipart "audio" field to a temp file. The caller
// removes the returned path.
func (s *Server) saveUpload(r *http.Request, prefix string) (string, *multipart.FileHeader, error) {
	file, header, err := r.FormFile("audio")
	if err != nil {
		return "", nil, fmt.Errorf("audio file is required")
	}
	defer file.Close()

	if err := utils.MakeDir(s.config.TempDir); err != nil {
		return "", nil, err
	}
	tempFile := utils.TempPath(s.config.TempDir, prefix, header.Filename)
	out, err := os.Create(tempFile)
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(tempFile)
		return "", nil, err
	}
	if err := out.Close(); err != nil {
		os.Remove(tempFile)
		return "", nil, err
	}
	return tempFile, header, nil
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "PhoneticHybrid API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":          "GET /health",
			"metrics":         "GET /metrics",
			"analyze":         "POST /api/analyze",
			"analyses":        "GET /api/analyses",
			"getAnalysis":     "GET /api/analyses/{id}",
			"deleteAnalysis":  "DELETE /api/analyses/{id}",
			"phonemes":        "POST /api/phonemes",
			"phonemesBatch":   "POST /api/phonemes/batch",
			"phonemizerCheck": "GET /api/phonemes/health",
			"spectrogram":     "POST /api/spectrogram",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	h := s.service.Health(ctx)
	status := "healthy"
	if !h.PhonemizerReady || !h.DatabaseReady {
		status = "degraded"
	}
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:       status,
		Time:         time.Now().UTC(),
		HealthStatus: h,
	})
}

// handleAnalyze handles POST /api/analyze (multipart file upload)
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		s.log.Warnf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	req := AnalyzeRequest{Word: r.FormValue("word"), Language: r.FormValue("language")}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tempFile, header, err := s.saveUpload(r, "upload")
	if err != nil {
		s.log.Warnf("Failed to save upload: %v", err)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer utils.DeleteFile(tempFile)

	s.log.Infof("Analyzing %q from %s (%s)", req.Word, header.Filename, humanize.Bytes(uint64(header.Size)))
	result, err := s.service.Analyze(ctx, tempFile, req.Word, req.Language)
	if err != nil {
		code := statusFor(err)
		s.log.Warnf("Analysis of %q failed with %d: %v", req.Word, code, err)
		s.respondError(w, code, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleAnalyses handles GET /api/analyses
func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	analyses, err := s.service.ListAnalyses(r.URL.Query().Get("word"), limit)
	if err != nil {
		s.log.Errorf("Failed to list analyses: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve analyses")
		return
	}

	s.respondJSON(w, http.StatusOK, ListAnalysesResponse{
		Analyses: analyses,
		Count:    len(analyses),
	})
}

// handleAnalysis routes requests to /api/analyses/{id}
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/analyses/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Analysis ID required")
		return
	}
	if !utils.IsID(id) {
		s.respondError(w, http.StatusBadRequest, "Invalid analysis ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		result, err := s.service.GetAnalysis(id)
		if err != nil {
			s.respondError(w, statusFor(err), fmt.Sprintf("Analysis %s not found", id))
			return
		}
		s.respondJSON(w, http.StatusOK, result)
	case http.MethodDelete:
		if err := s.service.DeleteAnalysis(id); err != nil {
			code := statusFor(err)
			if code == http.StatusInternalServerError {
				s.log.Errorf("Failed to delete analysis %s: %v", id, err)
			}
			s.respondError(w, code, err.Error())
			return
		}
		s.log.Infof("Deleted analysis %s", id)
		s.respondJSON(w, http.StatusOK, DeleteAnalysisResponse{
			Message: "Analysis deleted successfully",
			ID:      id,
		})
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handlePhonemes handles POST /api/phonemes
func (s *Server) handlePhonemes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var req PhonemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.service.Phonemes(ctx, req.Word, req.Language)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

// handlePhonemesBatch handles POST /api/phonemes/batch
func (s *Server) handlePhonemesBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	var req PhonemeBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := PhonemeBatchResponse{Results: make([]PhonemeBatchItem, len(req.Words))}
	for i, word := range req.Words {
		item := PhonemeBatchItem{Word: word}
		if err := validateWord(strings.TrimSpace(word)); err != nil {
			item.Error = err.Error()
		} else if info, err := s.service.Phonemes(ctx, word, req.Language); err != nil {
			item.Error = err.Error()
		} else {
			item.Result = info
		}
		if item.Error != "" {
			resp.Failed++
		}
		resp.Results[i] = item
	}
	resp.Count = len(resp.Results)

	s.log.Infof("Transcribed %d words (%d failed)", resp.Count, resp.Failed)
	s.respondJSON(w, http.StatusOK, resp)
}

// handlePhonemesHealth handles GET /api/phonemes/health
func (s *Server) handlePhonemesHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if s.service.Health(ctx).PhonemizerReady {
		s.respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "phonemizer_ready": true})
		return
	}
	s.respondJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "phonemizer_ready": false})
}

// handleSpectrogram handles POST /api/spectrogram and returns a PNG
func (s *Server) handleSpectrogram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	tempFile, header, err := s.saveUpload(r, "spectrogram")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer utils.DeleteFile(tempFile)

	wave, err := audio.LoadFile(ctx, tempFile, s.config.TempDir, s.config.SampleRate)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, audio.ErrFFmpegMissing) {
			code = http.StatusServiceUnavailable
		}
		s.respondError(w, code, err.Error())
		return
	}

	opts := spectrogram.DefaultOptions()
	if v, err := strconv.Atoi(r.FormValue("width")); err == nil && v > 0 && v <= 4096 {
		opts.Width = v
	}
	if v, err := strconv.Atoi(r.FormValue("height")); err == nil && v > 0 && v <= 2048 {
		opts.Height = v
	}

	var buf bytes.Buffer
	if err := spectrogram.WritePNG(&buf, wave, opts); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Infof("Rendered spectrogram for %s (%s upload, %s png)", header.Filename,
		humanize.Bytes(uint64(header.Size)), humanize.Bytes(uint64(buf.Len())))
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Errorf("Failed to write PNG: %v", err)
	}
}
