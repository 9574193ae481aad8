// Package server exposes a live transcription session over HTTP and
// WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lexiqai/live-transcriber/internal/capture"
	"github.com/lexiqai/live-transcriber/internal/observability"
	"github.com/lexiqai/live-transcriber/internal/session"
	"github.com/lexiqai/live-transcriber/internal/storage"
)

// UpdateSnapshot is sent to a WebSocket client when it connects.
const UpdateSnapshot = "snapshot"

// Options configures the control surface.
type Options struct {
	UpdateInterval time.Duration // Presentation pump tick
	MetricsEnabled bool
	FileDir        string       // Base directory for relative save paths
	Archive        storage.Sink // Optional object storage copy of saved transcripts
	Checks         []observability.DependencyCheck
}

// Server serves the control API for one session.
type Server struct {
	session  *session.Session
	options  Options
	hub      *hub
	validate *validator.Validate
	logger   zerolog.Logger
}

type startRequest struct {
	DeviceID string `json:"device_id"`
}

type settingsRequest struct {
	Language    *string `json:"language" validate:"omitempty,min=2,max=8,alpha"`
	Diarization *bool   `json:"diarization"`
}

type saveRequest struct {
	Path string `json:"path" validate:"required"`
}

type saveResponse struct {
	Path     string `json:"path"`
	Archived bool   `json:"archived"`
}

type snapshot struct {
	Kind       string       `json:"kind"`
	Text       string       `json:"text"`
	Session    session.Info `json:"session"`
	QueueDepth int          `json:"queue_depth"`
}

// New creates a server for sess.
func New(sess *session.Session, options Options, logger zerolog.Logger) *Server {
	if options.UpdateInterval <= 0 {
		options.UpdateInterval = 100 * time.Millisecond
	}
	logger = logger.With().Str("component", "server").Logger()

	return &Server{
		session:  sess,
		options:  options,
		hub:      newHub(logger),
		validate: validator.New(),
		logger:   logger,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", observability.HealthCheckHandler())
	mux.HandleFunc("GET /ready", observability.ReadinessHandler(s.options.Checks...))
	if s.options.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	mux.HandleFunc("GET /devices", s.handleDevices)
	mux.HandleFunc("GET /session", s.handleSession)
	mux.HandleFunc("POST /session/start", requireJSON(s.handleStart))
	mux.HandleFunc("POST /session/stop", requireJSON(s.handleStop))
	mux.HandleFunc("PUT /session/settings", requireJSON(s.handleSettings))
	mux.HandleFunc("GET /transcript", s.handleTranscript)
	mux.HandleFunc("DELETE /transcript", s.handleClearTranscript)
	mux.HandleFunc("POST /transcript/save", requireJSON(s.handleSave))
	mux.HandleFunc("GET /transcript/ws", s.handleWebSocket)

	return mux
}

// RunPump polls the session on every tick and broadcasts the updates until
// ctx is done.
func (s *Server) RunPump(ctx context.Context) error {
	ticker := time.NewTicker(s.options.UpdateInterval)
	defer ticker.Stop()
	defer s.hub.closeAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, u := range s.session.Poll() {
				s.hub.broadcast(u)
			}
		}
	}
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	return s.hub.count()
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.session.Devices()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list devices")
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if devices == nil {
		devices = []capture.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Info())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.session.StartRecording(req.DeviceID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, capture.ErrDeviceUnavailable) {
			status = http.StatusServiceUnavailable
		}
		s.logger.Error().Err(err).Str("device", req.DeviceID).Msg("Failed to start recording")
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.session.Info())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.session.StopRecording()
	writeJSON(w, http.StatusOK, s.session.Info())
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state := s.session.State()
	if req.Language != nil {
		state.SetLanguage(*req.Language)
	}
	if req.Diarization != nil {
		state.SetDiarization(*req.Diarization)
	}

	s.logger.Info().
		Str("language", state.Language()).
		Bool("diarization", state.DiarizationEnabled()).
		Msg("Session settings updated")

	writeJSON(w, http.StatusOK, s.session.Info())
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.session.Transcript().Text()))
}

func (s *Server) handleClearTranscript(w http.ResponseWriter, r *http.Request) {
	s.session.Transcript().Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.session.Export(r.Context(), storage.FileSink{Dir: s.options.FileDir}, req.Path)
	if errors.Is(err, storage.ErrEmptyTranscript) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if errors.Is(err, storage.ErrInvalidName) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("path", req.Path).Msg("Failed to save transcript")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := saveResponse{Path: req.Path}
	if s.options.Archive != nil {
		if err := s.session.Export(r.Context(), s.options.Archive, req.Path); err != nil {
			s.logger.Warn().Err(err).Str("path", req.Path).Msg("Failed to archive transcript")
		} else {
			resp.Archived = true
		}
	}

	s.logger.Info().Str("path", req.Path).Bool("archived", resp.Archived).Msg("Transcript saved")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	info := s.session.Info()
	s.hub.serve(w, r, snapshot{
		Kind:       UpdateSnapshot,
		Text:       s.session.Transcript().Text(),
		Session:    info,
		QueueDepth: info.QueueDepth,
	})
}

// requireJSON rejects bodies that are not declared as JSON. Browsers cannot
// send that content type cross-site without a preflight.
func requireJSON(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
