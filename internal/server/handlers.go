package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/cvsearch/internal/config"
	"github.com/hyperjump/cvsearch/internal/indexer"
	"github.com/hyperjump/cvsearch/internal/match"
	"github.com/hyperjump/cvsearch/internal/models"
	"github.com/hyperjump/cvsearch/internal/search"
	"github.com/hyperjump/cvsearch/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("keywords", query.Keywords),
		zap.String("algorithm", query.Algorithm),
		zap.Intp("top_n", query.TopN),
	)
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.fail(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

type registerResponse struct {
	Applicant *models.Applicant         `json:"applicant"`
	Detail    *models.ApplicationDetail `json:"detail"`
}

func (s *Server) handleRegisterApplicant(w http.ResponseWriter, r *http.Request) {
	var input models.ApplicantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("register applicant request", zap.String("id", input.ID), zap.String("cv_path", input.CVPath))
	applicant, detail, err := s.indexer.RegisterApplicant(r.Context(), &input)
	if err != nil {
		s.fail(w, "registration failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, registerResponse{Applicant: applicant, Detail: detail})
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type listResponse struct {
	Applicants []*models.Applicant `json:"applicants"`
	Offset     int                 `json:"offset"`
	Limit      int                 `json:"limit"`
}

func (s *Server) handleListApplicants(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(r, "limit", defaultListLimit)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit == 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	applicants, err := s.storage.ListApplicants(r.Context(), offset, limit)
	if err != nil {
		s.fail(w, "list applicants failed", err)
		return
	}
	if applicants == nil {
		applicants = []*models.Applicant{}
	}
	s.respondJSON(w, http.StatusOK, listResponse{Applicants: applicants, Offset: offset, Limit: limit})
}

// intParam reads a non-negative integer query parameter, returning def when it is absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func (s *Server) handleGetApplicant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	applicant, err := s.storage.GetApplicant(r.Context(), id)
	if err != nil {
		s.fail(w, "get applicant failed", err)
		return
	}
	details, err := s.storage.GetDetailsByApplicantID(r.Context(), id)
	if err != nil {
		s.fail(w, "get applicant details failed", err)
		return
	}
	if details == nil {
		details = []*models.ApplicationDetail{}
	}
	s.respondJSON(w, http.StatusOK, models.ApplicantRecord{Applicant: applicant, Details: details})
}

func (s *Server) handleApplicantSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.indexer.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "summary failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDeleteApplicant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete applicant request", zap.String("id", id))
	if err := s.indexer.DeleteApplicant(r.Context(), id); err != nil {
		s.fail(w, "deletion failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := CollectStatus(r.Context(), s.storage, s.config)
	if err != nil {
		s.fail(w, "status failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

// CollectStatus counts stored applicants and CVs and reports the database size on disk.
func CollectStatus(ctx context.Context, store storage.Storage, cfg *config.Config) (*models.Status, error) {
	applicants, err := store.CountApplicants(ctx)
	if err != nil {
		return nil, err
	}
	cvs, err := store.CountDetails(ctx)
	if err != nil {
		return nil, err
	}
	status := &models.Status{
		Applicants:   applicants,
		CVs:          cvs,
		DatabasePath: cfg.Storage.DatabasePath,
		Algorithm:    cfg.Search.DefaultAlgorithm,
		DefaultTopN:  cfg.Search.DefaultTopN,
		MaxDistance:  cfg.Search.MaxDistanceOrDefault(),
	}
	// Size is informational; a missing file reports zero.
	if size, err := storage.DatabaseSizeBytes(cfg.Storage.DatabasePath); err == nil {
		status.DiskUsageBytes = size
	}
	return status, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case search.IsComputationError(err):
		return http.StatusInternalServerError
	case errors.Is(err, match.ErrInvalidArgument), errors.Is(err, indexer.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		fields := []zap.Field{zap.Error(err)}
		var ce *search.ComputationError
		if errors.As(err, &ce) {
			fields = append(fields, zap.String("document_id", ce.DocumentID), zap.String("keyword", ce.Keyword))
		}
		s.logger.Error(msg, fields...)
	} else {
		s.logger.Debug(msg, zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
