package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/finpulse/finpulse/internal/insight"
	"github.com/finpulse/finpulse/internal/narrative"
	"github.com/finpulse/finpulse/internal/question"
	"github.com/finpulse/finpulse/internal/signal"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSignals generates the feed for a business. An upstream failure
// means no signals this cycle, surfaced as 502; the handler never
// fabricates a zero-valued feed.
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	businessID := mux.Vars(r)["businessID"]

	start := time.Now()
	signals, err := s.engine.Generate(r.Context(), businessID)
	s.metrics.GenerationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.GenerationRuns.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("business_id", businessID).Msg("feed generation failed")
		writeError(w, http.StatusBadGateway, "signal generation failed")
		return
	}
	s.metrics.GenerationRuns.WithLabelValues("ok").Inc()

	if s.feeds != nil {
		if _, err := s.feeds.SaveFeed(r.Context(), businessID, signals); err != nil {
			// Persistence is best effort on the read path.
			s.log.Warn().Err(err).Str("business_id", businessID).Msg("feed persist failed")
		}
	}

	s.hub.Broadcast(FeedEvent{BusinessID: businessID, Signals: signals, CreatedAt: time.Now().UTC()})
	writeJSON(w, http.StatusOK, signals)
}

type insightsRequest struct {
	Digits     insight.DigitsSnapshot `json:"digits"`
	GADelta    insight.GADelta        `json:"gaDelta"`
	AdsDelta   *insight.AdsDelta      `json:"adsDelta,omitempty"`
	Thresholds *insight.Thresholds    `json:"thresholds,omitempty"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	th := s.thresholds
	if req.Thresholds != nil {
		th = *req.Thresholds
	}

	insights := insight.Generate(req.Digits, req.GADelta, req.AdsDelta, th)
	for _, ins := range insights {
		s.metrics.InsightsEmitted.WithLabelValues(string(ins.Type)).Inc()
	}
	writeJSON(w, http.StatusOK, insights)
}

type promptRequest struct {
	Signals   []signal.Signal     `json:"signals"`
	Questions []question.Question `json:"questions"`
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prompt := narrative.BuildCFOPrompt(req.Signals, req.Questions)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(prompt))
}

type answerRequest struct {
	BusinessID string `json:"businessId"`
	Period     string `json:"period"`
	InsightID  string `json:"insightId"`
	Answer     string `json:"answer"`
}

func (s *Server) handleAnswers(w http.ResponseWriter, r *http.Request) {
	if s.answers == nil {
		writeError(w, http.StatusServiceUnavailable, "answer store not configured")
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BusinessID == "" || req.InsightID == "" || req.Answer == "" {
		writeError(w, http.StatusBadRequest, "businessId, insightId, and answer are required")
		return
	}

	err := s.answers.AttachAnswer(r.Context(), req.BusinessID, req.Period, req.InsightID, req.Answer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no open insight to answer")
			return
		}
		s.log.Error().Err(err).Str("insight_id", req.InsightID).Msg("attach answer failed")
		writeError(w, http.StatusInternalServerError, "attach answer failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "answered"})
}

// handleReport runs the full advisory pipeline for one business:
// generate the feed, derive blocking questions, assemble the narrative
// prompt, and have the advisor model produce a structured report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		writeError(w, http.StatusServiceUnavailable, "advisor not configured")
		return
	}
	businessID := mux.Vars(r)["businessID"]

	signals, err := s.engine.Generate(r.Context(), businessID)
	if err != nil {
		s.metrics.AdvisorRuns.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("business_id", businessID).Msg("report generation failed")
		writeError(w, http.StatusBadGateway, "signal generation failed")
		return
	}

	questions := question.FromSignals(signals)
	prompt := narrative.BuildCFOPrompt(signals, questions)

	report, err := s.advisor.Run(r.Context(), prompt)
	if err != nil {
		s.metrics.AdvisorRuns.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("business_id", businessID).Msg("advisor run failed")
		writeError(w, http.StatusBadGateway, "advisor run failed")
		return
	}
	s.metrics.AdvisorRuns.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
