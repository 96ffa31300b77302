package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueDocuments carries document rendering work.
	QueueDocuments = "documents"

	// TaskContractRender renders and stores the contract PDF of an activated proposal.
	TaskContractRender = "proposal:contract_render"
	// TaskPipelineWarmup recomputes cached pipeline summaries.
	TaskPipelineWarmup = "reporting:pipeline_warmup"

	// PipelineWarmupCron runs the warmup at the top of every hour.
	PipelineWarmupCron = "0 * * * *"
)

// ContractRenderPayload identifies the proposal whose contract is rendered.
type ContractRenderPayload struct {
	ProposalID int64  `json:"proposal_id"`
	RequestID  string `json:"request_id,omitempty"`
}

// PipelineWarmupPayload is empty for scheduled runs; CompanyID narrows a manual run.
type PipelineWarmupPayload struct {
	CompanyID int64 `json:"company_id,omitempty"`
}

// NewContractRenderTask constructs the render task. Duplicate renders of the
// same proposal within a minute are collapsed.
func NewContractRenderTask(payload ContractRenderPayload) (*asynq.Task, error) {
	if payload.ProposalID <= 0 {
		return nil, fmt.Errorf("contract render: invalid proposal id %d", payload.ProposalID)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskContractRender, data,
		asynq.Queue(QueueDocuments),
		asynq.MaxRetry(8),
		asynq.Timeout(2*time.Minute),
		asynq.Unique(time.Minute),
	), nil
}

// NewPipelineWarmupTask constructs the warmup task.
func NewPipelineWarmupTask(payload PipelineWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPipelineWarmup, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	), nil
}
