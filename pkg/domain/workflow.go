package domain

import "time"

// Stage identifies one ordered phase of the governance pipeline.
type Stage string

const (
	StageSubmitted           Stage = "submitted"
	StageAnalyzingCompliance Stage = "compliance_analysis"
	StagePredictingSentiment Stage = "sentiment_prediction"
	StagePlanningExecution   Stage = "execution_planning"
	StageCompleted           Stage = "completed"
	StageErrored             Stage = "errored"
)

// Progress milestones reached when a stage completes.
const (
	ProgressSubmitted  = 10
	ProgressCompliance = 40
	ProgressSentiment  = 70
	ProgressCompleted  = 100
)

// Next returns the stage that follows s in the fixed pipeline order.
// Terminal stages return themselves.
func (s Stage) Next() Stage {
	switch s {
	case StageSubmitted:
		return StageAnalyzingCompliance
	case StageAnalyzingCompliance:
		return StagePredictingSentiment
	case StagePredictingSentiment:
		return StagePlanningExecution
	case StagePlanningExecution:
		return StageCompleted
	default:
		return s
	}
}

// Terminal reports whether the stage is an end state.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageErrored
}

// Milestone returns the progress percentage reached when this stage completes.
func (s Stage) Milestone() int {
	switch s {
	case StageAnalyzingCompliance:
		return ProgressCompliance
	case StagePredictingSentiment:
		return ProgressSentiment
	case StagePlanningExecution:
		return ProgressCompleted
	default:
		return 0
	}
}

// Workflow tracks one proposal through the pipeline.
// It is owned by the coordinator: created on submission, mutated only by
// stage-completion events, and retained after reaching a terminal stage.
type Workflow struct {
	ProposalID string `json:"proposal_id"`
	Stage      Stage  `json:"current_stage"`

	ComplianceDone bool `json:"analysis_complete"`
	SentimentDone  bool `json:"sentiment_analysis_complete"`
	ExecutionDone  bool `json:"execution_plan_ready"`

	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`

	// Progress is a monotonically non-decreasing percentage in [0,100].
	Progress int `json:"progress_percentage"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWorkflow creates a workflow entering the first analysis stage.
func NewWorkflow(proposalID string, now time.Time) *Workflow {
	return &Workflow{
		ProposalID: proposalID,
		Stage:      StageAnalyzingCompliance,
		Errors:     []string{},
		Warnings:   []string{},
		Progress:   ProgressSubmitted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// StageDone reports whether the given stage has already completed successfully.
func (w *Workflow) StageDone(stage Stage) bool {
	switch stage {
	case StageAnalyzingCompliance:
		return w.ComplianceDone
	case StagePredictingSentiment:
		return w.SentimentDone
	case StagePlanningExecution:
		return w.ExecutionDone
	}
	return false
}

// MarkStageDone sets the completion flag for the given stage.
func (w *Workflow) MarkStageDone(stage Stage) {
	switch stage {
	case StageAnalyzingCompliance:
		w.ComplianceDone = true
	case StagePredictingSentiment:
		w.SentimentDone = true
	case StagePlanningExecution:
		w.ExecutionDone = true
	}
}

// BumpProgress raises progress to pct. Progress never decreases.
func (w *Workflow) BumpProgress(pct int) {
	if pct > w.Progress {
		w.Progress = pct
	}
}
