package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/phenolab/ontosift/internal/funnel"
	"github.com/phenolab/ontosift/internal/history"
	"github.com/phenolab/ontosift/internal/index"
	"github.com/phenolab/ontosift/internal/models"
)

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.config.Resolve.DefaultLimit
	}
	if limit > s.config.Resolve.MaxLimit {
		limit = s.config.Resolve.MaxLimit
	}
	s.logger.Debug("resolve request",
		zap.String("query", req.Query),
		zap.Int("limit", limit),
		zap.Bool("run_all", req.RunAll),
		zap.Bool("debug", req.Debug))

	res := s.funnel.Run(r.Context(), req.Query, funnel.Options{
		Limit:  limit,
		RunAll: req.RunAll || s.config.Resolve.RunAll,
		Debug:  req.Debug,
	})
	s.recordHistory(r, res)

	// Zero matches is a valid outcome, never an HTTP error.
	s.respondJSON(w, http.StatusOK, res)
}

// chatResponse is the conversational shape: the model's natural-language
// text plus structured results. Clients must prefer results over re-parsing
// response.
type chatResponse struct {
	Response string                 `json:"response"`
	Results  []*models.RankedResult `json:"results,omitempty"`
	Debug    *models.Trace          `json:"debug,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.config.Resolve.DefaultLimit
	}

	res := s.funnel.Run(r.Context(), req.Query, funnel.Options{Limit: limit, Debug: req.Debug})
	s.recordHistory(r, res)

	out := chatResponse{Response: res.AgentResponse, Results: res.Results, Debug: res.Trace}
	if out.Response == "" {
		out.Response = "Agent not available. Try normal search."
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTerm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	concept, ok := s.store.Snapshot().Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "concept not found")
		return
	}
	s.respondJSON(w, http.StatusOK, concept)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("vocabulary reload request")
	if err := s.store.Reload(); err != nil {
		s.logger.Error("vocabulary reload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "reloaded",
		"concepts": s.store.Snapshot().Len(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusServiceUnavailable, "history not configured")
		return
	}
	records, err := s.history.Recent(r.Context(), 50)
	if err != nil {
		s.logger.Error("history query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*history.Record{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"resolutions": records})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	resp := map[string]interface{}{
		"concepts":        snap.Len(),
		"vocabulary_path": s.store.Path(),
		"loaded_at":       snap.LoadedAt(),
		"agent_enabled":   s.config.Agent.Enabled,
		"index_enabled":   s.config.Index.Enabled,
		"mapping_version": index.MappingVersion,
	}
	if s.history != nil {
		if n, err := s.history.Count(r.Context()); err == nil {
			resp["resolutions_recorded"] = n
		}
	}
	if s.indexer != nil {
		if err := s.indexer.Health(r.Context()); err != nil {
			resp["index_health"] = err.Error()
		} else {
			resp["index_health"] = "ok"
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) recordHistory(r *http.Request, res *funnel.Resolution) {
	if s.history == nil {
		return
	}
	if _, err := s.history.Record(r.Context(), res); err != nil {
		s.logger.Warn("failed to record resolution history", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
