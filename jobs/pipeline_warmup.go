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
	"github.com/agencyops/agencyops/internal/reporting"
)

// PipelineWarmer recomputes cached pipeline summaries.
type PipelineWarmer interface {
	Warm(ctx context.Context) (int, error)
	Refresh(ctx context.Context, companyID int64) (reporting.PipelineSummary, error)
}

// PipelineWarmupJob pre-populates pipeline report caches.
type PipelineWarmupJob struct {
	Reports PipelineWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

func NewPipelineWarmupJob(reports PipelineWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *PipelineWarmupJob {
	return &PipelineWarmupJob{
		Reports: reports,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskPipelineWarmup tasks.
func (j *PipelineWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Reports == nil {
		return errors.New("pipeline warmup: handler not configured")
	}
	var payload PipelineWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("pipeline warmup: bad payload: %w", asynq.SkipRetry)
		}
	}

	tracker := j.metrics().Track(TaskPipelineWarmup)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger()
	started := j.now()

	warmed := 1
	if payload.CompanyID > 0 {
		_, err = j.Reports.Refresh(ctx, payload.CompanyID)
	} else {
		warmed, err = j.Reports.Warm(ctx)
	}
	if err != nil {
		logger.Error("pipeline warmup failed", slog.Int("warmed", warmed), slog.Any("error", err))
		return err
	}

	j.metrics().AddProcessed(TaskPipelineWarmup, warmed)
	logger.Info("completed pipeline warmup", slog.Int("companies", warmed), slog.Duration("duration", j.now().Sub(started)))
	return nil
}

func (j *PipelineWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPipelineWarmup))
	}
	return slog.Default().With(slog.String("job", TaskPipelineWarmup))
}

func (j *PipelineWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *PipelineWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
