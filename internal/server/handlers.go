package server

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aurorahq/aurora/internal/errors"
	"github.com/aurorahq/aurora/pkg/version"
)

// maxQuestionLength bounds the question in characters, not bytes;
// anything longer is not a question.
const maxQuestionLength = 500

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer            string   `json:"answer"`
	Confidence        string   `json:"confidence"`
	Sources           []string `json:"sources"`
	RetrievedContexts int      `json:"retrieved_contexts"`
	ProcessingTimeMS  float64  `json:"processing_time_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type healthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	IndexedMessages int    `json:"indexed_messages"`
	LexicalReady    bool   `json:"lexical_ready"`
}

type refreshResponse struct {
	Status          string  `json:"status"`
	IndexedMessages int     `json:"indexed_messages"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
}

// handleAsk answers a natural-language question over the corpus.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, errors.ValidationError("request body must be JSON with a question field", err))
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, errors.ValidationError("question must not be empty", nil))
		return
	}
	if utf8.RuneCountInString(req.Question) > maxQuestionLength {
		writeError(w, errors.ValidationError("question too long", nil))
		return
	}

	start := time.Now()
	result, err := s.engine.Search(r.Context(), req.Question)
	if err != nil {
		s.metrics.QuestionsTotal.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}
	s.metrics.RetrievalLatency.WithLabelValues("fused").
		Observe(time.Since(start).Seconds())
	s.metrics.FusedResultsCount.Observe(float64(len(result.Results)))
	s.metrics.ConfidenceTotal.WithLabelValues(string(result.Confidence)).Inc()

	synthesisStart := time.Now()
	answer, err := s.synthesizer.Synthesize(r.Context(), req.Question, result)
	if err != nil {
		s.metrics.QuestionsTotal.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}
	s.metrics.SynthesisLatency.Observe(time.Since(synthesisStart).Seconds())

	outcome := "ok"
	if result.Degraded {
		outcome = "degraded"
	}
	s.metrics.QuestionsTotal.WithLabelValues(outcome).Inc()

	writeJSON(w, http.StatusOK, askResponse{
		Answer:            answer.Text,
		Confidence:        string(answer.Confidence),
		Sources:           answer.Sources,
		RetrievedContexts: len(result.Results),
		ProcessingTimeMS:  float64(time.Since(start).Microseconds()) / 1000,
	})
}

// handleHealth reports readiness and index counts.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if !s.engine.Ready() {
		status = "initializing"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          status,
		Version:         version.Version,
		IndexedMessages: s.dense.Count(),
		LexicalReady:    s.lex.Ready(),
	})
}

// handleRefresh refetches the corpus, bypassing the snapshot TTL, and
// rebuilds the indexes. ?force=true discards the dense index first.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	start := time.Now()
	if err := s.builder.Refresh(r.Context(), force); err != nil {
		s.metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}
	elapsed := time.Since(start)

	s.metrics.IndexBuildsTotal.WithLabelValues("ok").Inc()
	s.metrics.IndexBuildDuration.Observe(elapsed.Seconds())
	s.metrics.IndexedMessages.Set(float64(s.dense.Count()))

	writeJSON(w, http.StatusOK, refreshResponse{
		Status:          "refreshed",
		IndexedMessages: s.dense.Count(),
		ElapsedSeconds:  elapsed.Seconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError maps structured error codes onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeIndexNotReady:
		status = http.StatusServiceUnavailable
	case errors.ErrCodeIndexLocked:
		status = http.StatusConflict
	case errors.ErrCodeUpstreamUnavailable, errors.ErrCodeEmbeddingFailed,
		errors.ErrCodeSynthesisFailed:
		status = http.StatusBadGateway
	}

	var auroraErr *errors.AuroraError
	msg := err.Error()
	code := errors.CodeOf(err)
	if stderrors.As(err, &auroraErr) {
		msg = auroraErr.Message
	}

	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
