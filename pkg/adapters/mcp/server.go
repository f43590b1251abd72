// Package mcp exposes the governance pipeline as a Model Context Protocol
// server, so AI agents can submit proposals, track workflows, and query
// recommendations as tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/daoforge/quorum/pkg/domain"
)

// Version reported in the MCP handshake.
const serverVersion = "0.1.0"

// Engine is the pipeline surface the MCP server exposes.
type Engine interface {
	SubmitProposal(ctx context.Context, sub domain.SubmissionRequest) (*domain.Workflow, error)
	WorkflowStatus(ctx context.Context, proposalID string) (*domain.Workflow, error)
	Analysis(ctx context.Context, proposalID string) *domain.AggregatedAnalysis
	Query(ctx context.Context, req domain.QueryRequest) domain.QueryReply
	Summary(ctx context.Context) (domain.PipelineSummary, error)
	PredictVote(ctx context.Context, userID, proposalID string) (domain.VotePrediction, error)
	ProcessComment(ctx context.Context, comment domain.DiscussionComment) (domain.SentimentObservation, error)
}

// SubmitResponse is the structured output of the submit_proposal tool.
type SubmitResponse struct {
	ProposalID string `json:"proposal_id" jsonschema_description:"Assigned proposal id"`
	Stage      string `json:"current_stage" jsonschema_description:"Current workflow stage"`
	Progress   int    `json:"progress_percentage" jsonschema_description:"Workflow progress"`
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers the governance tools.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("quorum-mcp", serverVersion),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts down
// gracefully when the context is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	submitTool := mcp.NewTool("submit_proposal",
		mcp.WithDescription("Submit a governance proposal for multi-stage analysis. Returns the opened workflow."),
		mcp.WithString("proposal_id", mcp.Description("Proposal id (generated when omitted)")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Proposal title")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Full proposal text")),
		mcp.WithNumber("requested_amount", mcp.Description("Requested funding amount")),
		mcp.WithString("token_type", mcp.Description("Token type, default ETH")),
		mcp.WithString("recipient_address", mcp.Description("Recipient wallet address")),
		mcp.WithString("submitter", mcp.Required(), mcp.Description("Submitting user id")),
		mcp.WithOutputSchema[SubmitResponse](),
	)
	s.mcpServer.AddTool(submitTool, mcp.NewStructuredToolHandler(s.handleSubmit))

	statusTool := mcp.NewTool("workflow_status",
		mcp.WithDescription("Get the current workflow stage and progress for a proposal."),
		mcp.WithString("proposal_id", mcp.Required(), mcp.Description("Proposal id")),
		mcp.WithOutputSchema[domain.Workflow](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleStatus))

	recommendationTool := mcp.NewTool("get_recommendation",
		mcp.WithDescription("Get the aggregated analysis and final recommendation for a proposal."),
		mcp.WithString("proposal_id", mcp.Required(), mcp.Description("Proposal id")),
		mcp.WithOutputSchema[domain.AggregatedAnalysis](),
	)
	s.mcpServer.AddTool(recommendationTool, mcp.NewStructuredToolHandler(s.handleRecommendation))

	queryTool := mcp.NewTool("query",
		mcp.WithDescription("Ask a free-text question about the pipeline: status, recommendation, or summary."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The question")),
		mcp.WithString("proposal_id", mcp.Description("Proposal id the question refers to")),
		mcp.WithString("user_id", mcp.Description("Asking user id")),
		mcp.WithOutputSchema[domain.QueryReply](),
	)
	s.mcpServer.AddTool(queryTool, mcp.NewStructuredToolHandler(s.handleQuery))

	summaryTool := mcp.NewTool("summary",
		mcp.WithDescription("Get aggregate counts over all tracked proposals."),
		mcp.WithOutputSchema[domain.PipelineSummary](),
	)
	s.mcpServer.AddTool(summaryTool, mcp.NewStructuredToolHandler(s.handleSummary))

	predictTool := mcp.NewTool("predict_vote",
		mcp.WithDescription("Predict one user's vote on a proposal from sentiment and social influence."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Voter user id")),
		mcp.WithString("proposal_id", mcp.Required(), mcp.Description("Proposal id")),
		mcp.WithOutputSchema[domain.VotePrediction](),
	)
	s.mcpServer.AddTool(predictTool, mcp.NewStructuredToolHandler(s.handlePredict))

	commentTool := mcp.NewTool("process_comment",
		mcp.WithDescription("Score a discussion comment and record the sentiment observation."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Commenting user id")),
		mcp.WithString("proposal_id", mcp.Required(), mcp.Description("Proposal id")),
		mcp.WithString("comment", mcp.Required(), mcp.Description("Raw comment text")),
		mcp.WithOutputSchema[domain.SentimentObservation](),
	)
	s.mcpServer.AddTool(commentTool, mcp.NewStructuredToolHandler(s.handleComment))
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SubmitResponse, error) {
	proposalID, _ := args["proposal_id"].(string)
	if proposalID == "" {
		proposalID = "chat_" + uuid.NewString()[:8]
	}

	title, _ := args["title"].(string)
	description, _ := args["description"].(string)
	amount, _ := args["requested_amount"].(float64)
	tokenType, _ := args["token_type"].(string)
	recipient, _ := args["recipient_address"].(string)
	submitter, _ := args["submitter"].(string)

	wf, err := s.engine.SubmitProposal(ctx, domain.SubmissionRequest{
		ProposalID:       proposalID,
		Title:            title,
		Description:      description,
		RequestedAmount:  amount,
		TokenType:        tokenType,
		RecipientAddress: recipient,
		Submitter:        submitter,
	})
	if err != nil {
		return SubmitResponse{}, fmt.Errorf("submit failed: %w", err)
	}

	return SubmitResponse{
		ProposalID: wf.ProposalID,
		Stage:      string(wf.Stage),
		Progress:   wf.Progress,
	}, nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.Workflow, error) {
	proposalID, _ := args["proposal_id"].(string)
	wf, err := s.engine.WorkflowStatus(ctx, proposalID)
	if err != nil {
		return domain.Workflow{}, fmt.Errorf("status lookup failed: %w", err)
	}
	return *wf, nil
}

func (s *Server) handleRecommendation(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.AggregatedAnalysis, error) {
	proposalID, _ := args["proposal_id"].(string)
	return *s.engine.Analysis(ctx, proposalID), nil
}

func (s *Server) handleQuery(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.QueryReply, error) {
	query, _ := args["query"].(string)
	proposalID, _ := args["proposal_id"].(string)
	userID, _ := args["user_id"].(string)

	return s.engine.Query(ctx, domain.QueryRequest{
		Query:      query,
		ProposalID: proposalID,
		UserID:     userID,
	}), nil
}

func (s *Server) handleSummary(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.PipelineSummary, error) {
	summary, err := s.engine.Summary(ctx)
	if err != nil {
		return domain.PipelineSummary{}, fmt.Errorf("summary failed: %w", err)
	}
	return summary, nil
}

func (s *Server) handlePredict(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.VotePrediction, error) {
	userID, _ := args["user_id"].(string)
	proposalID, _ := args["proposal_id"].(string)

	pred, err := s.engine.PredictVote(ctx, userID, proposalID)
	if err != nil {
		return domain.VotePrediction{}, fmt.Errorf("prediction failed: %w", err)
	}
	return pred, nil
}

func (s *Server) handleComment(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.SentimentObservation, error) {
	userID, _ := args["user_id"].(string)
	proposalID, _ := args["proposal_id"].(string)
	comment, _ := args["comment"].(string)

	obs, err := s.engine.ProcessComment(ctx, domain.DiscussionComment{
		UserID:     userID,
		ProposalID: proposalID,
		RawComment: comment,
	})
	if err != nil {
		return domain.SentimentObservation{}, fmt.Errorf("comment processing failed: %w", err)
	}
	return obs, nil
}
