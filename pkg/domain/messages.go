package domain

// SubmissionRequest is the inbound message that opens a workflow.
type SubmissionRequest struct {
	ProposalID       string  `json:"proposal_id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	RequestedAmount  float64 `json:"requested_amount"`
	TokenType        string  `json:"token_type"`
	RecipientAddress string  `json:"recipient_address,omitempty"`
	Submitter        string  `json:"submitter"`
	Category         string  `json:"category"`
}

// Defaults applied to optional submission fields.
const (
	DefaultTokenType = "ETH"
	DefaultCategory  = "funding"
)

// Validate rejects malformed submissions before they enter the state machine
// and fills in defaulted fields.
func (s *SubmissionRequest) Validate() error {
	if s.ProposalID == "" {
		return &ValidationError{Field: "proposal_id", Reason: "must not be empty"}
	}
	if s.Submitter == "" {
		return &ValidationError{Field: "submitter", Reason: "must not be empty"}
	}
	if s.RequestedAmount < 0 {
		return &ValidationError{Field: "requested_amount", Reason: "must not be negative"}
	}
	if s.TokenType == "" {
		s.TokenType = DefaultTokenType
	}
	if s.Category == "" {
		s.Category = DefaultCategory
	}
	return nil
}

// ComplianceRequest is dispatched to the compliance/financial analysis unit.
type ComplianceRequest struct {
	ProposalID       string  `json:"proposal_id"`
	ProposalText     string  `json:"proposal_text"`
	RequestedAmount  float64 `json:"requested_amount"`
	TokenType        string  `json:"token_type"`
	RecipientAddress string  `json:"recipient_address,omitempty"`
	Submitter        string  `json:"submitter"`
	Category         string  `json:"category"`
	TreasuryBalance  float64 `json:"treasury_balance"`
}

// SentimentRequest is dispatched to the vote-prediction stage.
type SentimentRequest struct {
	ProposalID   string   `json:"proposal_id"`
	UserList     []string `json:"user_list"`
	ProposalText string   `json:"proposal_text,omitempty"`
}

// ExecutionRequest is dispatched to the execution-planning unit.
type ExecutionRequest struct {
	ProposalID            string  `json:"proposal_id"`
	ProposalText          string  `json:"proposal_text"`
	ExecutionInstructions string  `json:"execution_instructions"`
	BudgetAmount          float64 `json:"budget_amount"`
	TokenType             string  `json:"token_type"`
	RecipientAddress      string  `json:"recipient_address,omitempty"`
	Deadline              string  `json:"deadline,omitempty"`
}

// QueryRequest is a free-text question about the pipeline.
type QueryRequest struct {
	Query      string `json:"query"`
	ProposalID string `json:"proposal_id,omitempty"`
	UserID     string `json:"user_id"`
}

// QueryReply answers a QueryRequest.
type QueryReply struct {
	Query       string   `json:"query"`
	Response    string   `json:"response"`
	DataSources []string `json:"data_sources"`
	Confidence  float64  `json:"confidence"`
}

// PipelineSummary aggregates counts across all tracked workflows.
type PipelineSummary struct {
	TotalProposals int `json:"total_proposals"`
	Completed      int `json:"completed"`
	InProgress     int `json:"in_progress"`
	Errored        int `json:"errored"`
	Approved       int `json:"approved"`
	Rejected       int `json:"rejected"`
}
