package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/agencyops/agencyops/internal/jobs"
	"github.com/agencyops/agencyops/internal/proposals"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ContractStore renders a proposal's contract and persists it.
type ContractStore interface {
	StoreContractPDF(ctx context.Context, proposalID int64) (string, error)
}

// ContractRenderJob turns activated proposals into stored contract PDFs.
type ContractRenderJob struct {
	Documents ContractStore
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

func NewContractRenderJob(documents ContractStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *ContractRenderJob {
	return &ContractRenderJob{
		Documents: documents,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskContractRender tasks.
func (j *ContractRenderJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Documents == nil {
		return errors.New("contract render: handler not configured")
	}
	var payload ContractRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.ProposalID <= 0 {
		return fmt.Errorf("contract render: bad payload: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskContractRender)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(slog.Int64("proposal_id", payload.ProposalID))
	if payload.RequestID != "" {
		logger = logger.With(slog.String("request_id", payload.RequestID))
	}
	started := j.now()

	path, err := j.Documents.StoreContractPDF(ctx, payload.ProposalID)
	if errors.Is(err, proposals.ErrNotFound) {
		logger.Warn("proposal vanished before contract render")
		return fmt.Errorf("contract render: %w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		logger.Error("render contract", slog.Any("error", err))
		return err
	}

	j.metrics().AddProcessed(TaskContractRender, 1)
	logger.Info("contract rendered", slog.String("path", path), slog.Duration("duration", j.now().Sub(started)))
	return nil
}

func (j *ContractRenderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskContractRender))
	}
	return slog.Default().With(slog.String("job", TaskContractRender))
}

func (j *ContractRenderJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ContractRenderJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
