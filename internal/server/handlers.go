package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/metrics"
	"github.com/commonweal/beacon/internal/models"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("page", req.PageOrDefault()))

	start := time.Now()
	result, err := s.engine.Search(r.Context(), &req, s.authorized(r))
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	metrics.RecordSearch(time.Since(start), result.Meta.Total)
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetService(r.Context(), id)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	// Inactive services are invisible to unprivileged callers.
	if doc.Status == models.StatusInactive && !s.authorized(r) {
		s.respondWithError(w, apierr.NewNotFound("service", id))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"data": doc})
}

func (s *Server) handleUpsertService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var doc models.SearchDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	doc.ID = id

	_, getErr := s.storage.GetService(r.Context(), id)
	created := apierr.IsNotFound(getErr)

	s.logger.Debug("upsert service request", zap.String("id", id), zap.String("name", doc.Name))
	if err := s.indexer.UpsertService(r.Context(), &doc); err != nil {
		s.respondWithError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, map[string]any{"data": doc})
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete service request", zap.String("id", id))
	if err := s.indexer.DeleteService(r.Context(), id); err != nil {
		s.respondWithError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.respondCollections(w, r, models.CollectionCategory)
}

func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request) {
	s.respondCollections(w, r, models.CollectionPersona)
}

func (s *Server) respondCollections(w http.ResponseWriter, r *http.Request, typ models.CollectionType) {
	cols, err := s.taxonomy.Collections(r.Context(), typ)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Slug < cols[j].Slug })
	s.respondJSON(w, http.StatusOK, map[string]any{"data": cols})
}

func (s *Server) handleServiceTypes(w http.ResponseWriter, r *http.Request) {
	types := []models.ServiceType{
		models.TypeService, models.TypeActivity, models.TypeClub, models.TypeGroup,
		models.TypeHelpline, models.TypeInformation, models.TypeApp, models.TypeAdvice,
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"data": types})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	serviceCount, err := s.storage.CountServices(ctx)
	if err != nil {
		s.logger.Error("status: count services failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	indexCount, err := s.index.DocCount()
	if err != nil {
		s.logger.Error("status: index doc count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"services": serviceCount,
		"indexed":  indexCount,
	})
}

// requireAuth guards mutation routes. With no token configured the API runs
// open, which is only sensible for local development.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.AuthToken != "" && !s.authorized(r) {
			s.respondError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorized reports whether the request carries the configured bearer
// token. Authorized callers can see inactive services.
func (s *Server) authorized(r *http.Request) bool {
	if s.config.AuthToken == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return ok && token == s.config.AuthToken
}

// respondWithError maps domain errors to HTTP status codes: validation
// failures are 422 with field detail, unknown resources 404, collaborator
// failures 503.
func (s *Server) respondWithError(w http.ResponseWriter, err error) {
	var verr *apierr.ValidationError
	if errors.As(err, &verr) {
		s.respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}
	var nf *apierr.NotFoundError
	if errors.As(err, &nf) {
		s.respondError(w, http.StatusNotFound, nf.Error())
		return
	}
	var up *apierr.UpstreamError
	if errors.As(err, &up) {
		s.logger.Error("upstream failure", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, up.Error())
		return
	}
	s.logger.Error("request failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
