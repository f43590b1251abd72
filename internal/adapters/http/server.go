// Package http binds the pipeline's message shapes to a chi router. Stage
// results arrive as loosely-typed JSON from external analysis units and are
// decoded into the typed variants before reaching the coordinator.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"

	"github.com/daoforge/quorum/pkg/domain"
)

// Engine is the pipeline surface the HTTP adapter exposes.
type Engine interface {
	SubmitProposal(ctx context.Context, sub domain.SubmissionRequest) (*domain.Workflow, error)
	CompleteStage(ctx context.Context, proposalID string, stage domain.Stage, success bool, result *domain.StageResult) error
	WorkflowStatus(ctx context.Context, proposalID string) (*domain.Workflow, error)
	Analysis(ctx context.Context, proposalID string) *domain.AggregatedAnalysis
	Query(ctx context.Context, req domain.QueryRequest) domain.QueryReply
	Summary(ctx context.Context) (domain.PipelineSummary, error)
	ProcessComment(ctx context.Context, comment domain.DiscussionComment) (domain.SentimentObservation, error)
	PredictVote(ctx context.Context, userID, proposalID string) (domain.VotePrediction, error)
	PredictOutcome(ctx context.Context, proposalID string) (domain.SentimentForecast, error)
}

// Server routes governance requests to the engine.
type Server struct {
	engine Engine
}

// Option configures the handler.
type Option func(*routerConfig)

type routerConfig struct {
	metricsHandler http.Handler
}

// WithMetricsHandler mounts the given handler at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(c *routerConfig) {
		c.metricsHandler = h
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	var cfg routerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{engine: engine}
	r := chi.NewRouter()

	r.Post("/proposals", s.submitProposal)
	r.Get("/workflows/{proposalID}", s.workflowStatus)
	r.Get("/workflows/{proposalID}/analysis", s.analysis)
	r.Post("/workflows/{proposalID}/stages/{stage}", s.completeStage)
	r.Post("/query", s.query)
	r.Get("/summary", s.summary)
	r.Post("/comments", s.processComment)
	r.Get("/predictions/{proposalID}", s.predictOutcome)
	r.Get("/predictions/{proposalID}/{userID}", s.predictVote)

	if cfg.metricsHandler != nil {
		r.Handle("/metrics", cfg.metricsHandler)
	}

	return r
}

func (s *Server) submitProposal(w http.ResponseWriter, r *http.Request) {
	var sub domain.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wf, err := s.engine.SubmitProposal(r.Context(), sub)
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrWorkflowExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, wf)
}

func (s *Server) workflowStatus(w http.ResponseWriter, r *http.Request) {
	wf, err := s.engine.WorkflowStatus(r.Context(), chi.URLParam(r, "proposalID"))
	if errors.Is(err, domain.ErrWorkflowNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) analysis(w http.ResponseWriter, r *http.Request) {
	// Unknown ids get the explicit placeholder payload, not a 404.
	writeJSON(w, http.StatusOK, s.engine.Analysis(r.Context(), chi.URLParam(r, "proposalID")))
}

// stageResultPayload is the wire shape of a stage-completion message. The
// result is decoded per stage into the typed variant.
type stageResultPayload struct {
	Success bool           `json:"success"`
	Result  map[string]any `json:"result"`
}

var stageNames = map[string]domain.Stage{
	"compliance": domain.StageAnalyzingCompliance,
	"sentiment":  domain.StagePredictingSentiment,
	"execution":  domain.StagePlanningExecution,
}

func (s *Server) completeStage(w http.ResponseWriter, r *http.Request) {
	stage, ok := stageNames[chi.URLParam(r, "stage")]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown stage")
		return
	}

	var payload stageResultPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var result *domain.StageResult
	if payload.Result != nil {
		decoded, err := decodeStageResult(stage, payload.Result)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		result = decoded
	}

	err := s.engine.CompleteStage(r.Context(), chi.URLParam(r, "proposalID"), stage, payload.Success, result)
	switch {
	case errors.Is(err, domain.ErrWorkflowNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, domain.ErrStageMismatch):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// decodeStageResult maps the loose payload into the variant matching the
// stage, honoring the json field names.
func decodeStageResult(stage domain.Stage, raw map[string]any) (*domain.StageResult, error) {
	var result domain.StageResult
	var target any
	switch stage {
	case domain.StageAnalyzingCompliance:
		result.Compliance = &domain.ComplianceResult{}
		target = result.Compliance
	case domain.StagePredictingSentiment:
		result.Sentiment = &domain.SentimentForecast{}
		target = result.Sentiment
	case domain.StagePlanningExecution:
		result.Execution = &domain.ExecutionReport{}
		target = result.Execution
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  target,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, errors.New("result payload does not match stage: " + err.Error())
	}
	return &result, nil
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Query(r.Context(), req))
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) processComment(w http.ResponseWriter, r *http.Request) {
	var comment domain.DiscussionComment
	if err := json.NewDecoder(r.Body).Decode(&comment); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if comment.UserID == "" || comment.ProposalID == "" {
		writeError(w, http.StatusBadRequest, "user_id and proposal_id are required")
		return
	}

	obs, err := s.engine.ProcessComment(r.Context(), comment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

func (s *Server) predictOutcome(w http.ResponseWriter, r *http.Request) {
	forecast, err := s.engine.PredictOutcome(r.Context(), chi.URLParam(r, "proposalID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (s *Server) predictVote(w http.ResponseWriter, r *http.Request) {
	pred, err := s.engine.PredictVote(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "proposalID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
