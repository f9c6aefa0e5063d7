// Package api exposes HTTP handlers for the grant ingestion and chat
// workflows.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hongwoogi/grantrag/chat"
	"github.com/hongwoogi/grantrag/extract"
	"github.com/hongwoogi/grantrag/ingestion"
	"github.com/hongwoogi/grantrag/store"
)

// maxUploadBytes bounds one uploaded document.
const maxUploadBytes = 32 << 20

// Server wires the core services behind a JSON HTTP API.
type Server struct {
	gateway  *store.Gateway
	ingestor *ingestion.Service
	chat     *chat.Service
	logger   zerolog.Logger
	handler  http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer chat.Message `json:"answer"`
}

func New(gateway *store.Gateway, ingestor *ingestion.Service, chatSvc *chat.Service, logger zerolog.Logger) *Server {
	s := &Server{
		gateway:  gateway,
		ingestor: ingestor,
		chat:     chatSvc,
		logger:   logger,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/grants", s.handleUpload)
	mux.HandleFunc("GET /v1/grants", s.handleList)
	mux.HandleFunc("GET /v1/grants/{id}", s.handleGet)
	mux.HandleFunc("DELETE /v1/grants/{id}", s.handleDelete)
	mux.HandleFunc("POST /v1/grants/{id}/chat", s.handleChat)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

// handleUpload ingests one multipart-uploaded document. Pipeline progress
// is pushed to the log; the response carries the final grant record.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read uploaded file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read uploaded file: %w", err))
		return
	}

	g, err := s.ingestor.Ingest(r.Context(), header.Filename, data, func(status ingestion.ProcessingStatus) {
		s.logger.Info().Str("step", string(status.Step)).Int("progress", status.Progress).Msg(status.Message)
	})
	if err != nil {
		s.writeError(w, ingestStatusCode(err), fmt.Errorf("ingest %s: %w", header.Filename, err))
		return
	}

	s.writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	grants, err := s.gateway.ListGrants(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("list grants: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, grants)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	g, err := s.gateway.GetGrant(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("load grant: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.gateway.DeleteGrant(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("delete grant: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "grant deleted"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}

	reply, err := s.chat.Ask(r.Context(), r.PathValue("id"), req.Question)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("chat failed: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{Answer: reply})
}

func ingestStatusCode(err error) int {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat), errors.Is(err, extract.ErrEmptyExtraction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error().Int("status", status).Err(err).Msg("api error")
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}
