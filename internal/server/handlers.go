package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kaimono/internal/ingest"
	"github.com/hyperjump/kaimono/internal/insights"
	"github.com/hyperjump/kaimono/internal/metrics"
	"github.com/hyperjump/kaimono/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count := s.store.Count()
	metrics.SetRecordCount(count)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"records":        count,
		"snapshot_bytes": s.store.SnapshotSizeBytes(),
		"config": map[string]interface{}{
			"snapshot_path":        s.config.Storage.SnapshotPath,
			"confidence_threshold": s.config.Answer.ConfidenceThreshold,
			"default_k":            s.config.Answer.DefaultK,
		},
	})
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var input models.UpsertInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("upsert request", zap.String("id", input.ID))
	count, err := s.store.Upsert(r.Context(), input.ID, input.ToMetadata())
	if err != nil {
		s.logger.Error("upsert failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.SetRecordCount(count)
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":     input.ID,
		"status": "stored",
		"count":  count,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("query", req.Query), zap.Int("k", req.K))
	ans, matches := s.engine.Ask(r.Context(), req.Query, req.K)
	s.respondJSON(w, http.StatusOK, models.QueryResponse{Answer: ans, Matches: matches})
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("q")
	if question == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	k := s.config.Answer.DefaultK
	if raw := r.URL.Query().Get("k"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			k = parsed
		}
	}
	ans, matches := s.engine.Ask(r.Context(), question, k)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"question": question,
		"answer":   ans,
		"matches":  matches,
	})
}

type receiptRequest struct {
	RawText string         `json:"raw_text"`
	Header  *ingest.Header `json:"header,omitempty"`
	Items   []ingest.Item  `json:"items,omitempty"`
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		header ingest.Header
		items  []ingest.Item
	)
	switch {
	case req.RawText != "":
		header, items = ingest.ParseReceiptText(req.RawText, time.Now())
	case req.Header != nil:
		header, items = *req.Header, req.Items
	default:
		s.respondError(w, http.StatusBadRequest, "raw_text or header is required")
		return
	}

	res, err := s.ingestor.Ingest(r.Context(), header, items)
	if err != nil {
		s.logger.Error("receipt ingest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.SetRecordCount(s.store.Count())
	s.respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, insights.Build(s.store.Records()))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("reset request")
	if err := s.store.Reset(r.Context()); err != nil {
		s.logger.Error("reset failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.SetRecordCount(0)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
