package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoforge/quorum"
	httpadapter "github.com/daoforge/quorum/internal/adapters/http"
	"github.com/daoforge/quorum/pkg/domain"
)

// noopDispatcher drops every request so stage results can only arrive
// through the HTTP boundary.
type noopDispatcher struct{}

func (noopDispatcher) DispatchCompliance(context.Context, domain.ComplianceRequest) error {
	return nil
}
func (noopDispatcher) DispatchSentiment(context.Context, domain.SentimentRequest) error {
	return nil
}
func (noopDispatcher) DispatchExecution(context.Context, domain.ExecutionRequest) error {
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *quorum.Engine) {
	t.Helper()
	eng, err := quorum.New(quorum.WithDispatcher(noopDispatcher{}))
	require.NoError(t, err)
	srv := httptest.NewServer(httpadapter.NewHandler(eng))
	t.Cleanup(srv.Close)
	return srv, eng
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func submitBody(id string) map[string]any {
	return map[string]any{
		"proposal_id":      id,
		"title":            "DeFi Integration",
		"description":      "Fund 50 ETH",
		"requested_amount": 50,
		"submitter":        "alice",
	}
}

func TestSubmitProposal(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/proposals", submitBody("prop_1"))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var wf domain.Workflow
	decodeBody(t, resp, &wf)
	assert.Equal(t, domain.StageAnalyzingCompliance, wf.Stage)
	assert.Equal(t, 10, wf.Progress)
}

func TestSubmitProposal_ValidationRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/proposals", map[string]any{
		"proposal_id":      "prop_1",
		"requested_amount": -5,
		"submitter":        "alice",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitProposal_DuplicateConflict(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/proposals", submitBody("prop_1"))
	resp.Body.Close()
	resp = postJSON(t, srv.URL+"/proposals", submitBody("prop_1"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestWorkflowStatus_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/workflows/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalysis_UnknownPlaceholder(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/workflows/ghost/analysis")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var analysis domain.AggregatedAnalysis
	decodeBody(t, resp, &analysis)
	assert.Equal(t, domain.RecommendationUnavailable, analysis.FinalRecommendation)
	assert.Zero(t, analysis.Confidence)
}

func TestCompleteStage_ExternalResults(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/proposals", submitBody("prop_1"))
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/workflows/prop_1/stages/compliance", map[string]any{
		"success": true,
		"result": map[string]any{
			"compliance":       true,
			"reasoning_trace":  "within limits",
			"confidence_score": 0.85,
			"financial_impact": map[string]any{
				"requested_amount": 50,
				"token_type":       "ETH",
			},
			"risk_assessment": map[string]any{"overall_risk": "LOW"},
		},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var wf domain.Workflow
	getResp, err := http.Get(srv.URL + "/workflows/prop_1")
	require.NoError(t, err)
	decodeBody(t, getResp, &wf)
	assert.Equal(t, domain.StagePredictingSentiment, wf.Stage)
	assert.Equal(t, 40, wf.Progress)
}

func TestCompleteStage_UnknownStage(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/workflows/prop_1/stages/divination", map[string]any{"success": true})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompleteStage_UnknownWorkflow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/workflows/ghost/stages/compliance", map[string]any{"success": false})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQueryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/query", map[string]any{
		"query":   "show me a summary",
		"user_id": "alice",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var reply domain.QueryReply
	decodeBody(t, resp, &reply)
	assert.Contains(t, reply.Response, "DAO Summary")
}

func TestProcessComment(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/comments", map[string]any{
		"user_id":     "alice",
		"proposal_id": "prop_1",
		"raw_comment": "great proposal, I support it",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var obs domain.SentimentObservation
	decodeBody(t, resp, &obs)
	assert.Equal(t, 1.0, obs.SentimentScore)
}

func TestProcessComment_MissingFields(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/comments", map[string]any{"raw_comment": "hello"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPredictionEndpoints(t *testing.T) {
	srv, eng := newTestServer(t)
	require.NoError(t, eng.SeedDemoData(context.Background()))

	resp, err := http.Get(srv.URL + "/predictions/prop_001")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var forecast domain.SentimentForecast
	decodeBody(t, resp, &forecast)
	assert.Len(t, forecast.KeyInfluencers, 3)

	resp, err = http.Get(srv.URL + "/predictions/prop_001/eve")
	require.NoError(t, err)
	var pred domain.VotePrediction
	decodeBody(t, resp, &pred)
	assert.Equal(t, "eve", pred.UserID)
}
