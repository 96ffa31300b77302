package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/agencyops/agencyops/internal/jobs"
	"github.com/agencyops/agencyops/internal/proposals"
	"github.com/agencyops/agencyops/internal/reporting"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubContractStore struct {
	ids []int64
	err error
}

func (s *stubContractStore) StoreContractPDF(ctx context.Context, id int64) (string, error) {
	s.ids = append(s.ids, id)
	if s.err != nil {
		return "", s.err
	}
	return "/var/lib/agencyops/contracts/CT-P000001.pdf", nil
}

type stubWarmer struct {
	refreshed []int64
	warmed    int
	err       error
}

func (s *stubWarmer) Warm(ctx context.Context) (int, error) {
	return s.warmed, s.err
}

func (s *stubWarmer) Refresh(ctx context.Context, companyID int64) (reporting.PipelineSummary, error) {
	s.refreshed = append(s.refreshed, companyID)
	return reporting.PipelineSummary{CompanyID: companyID}, s.err
}

type stubEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (s *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type(), Queue: QueueDocuments}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

func payload(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestContractRenderJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	store := &stubContractStore{}
	job := NewContractRenderJob(store, discardLogger(), metrics)

	err := job.Handle(context.Background(), asynq.NewTask(TaskContractRender, payload(t, ContractRenderPayload{ProposalID: 7})))
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, store.ids)

	count, err := testutil.GatherAndCount(reg, "agencyops_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestContractRenderJobBadPayload(t *testing.T) {
	job := NewContractRenderJob(&stubContractStore{}, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	for _, raw := range []string{"not-json", `{"proposal_id":0}`} {
		err := job.Handle(context.Background(), asynq.NewTask(TaskContractRender, []byte(raw)))
		assert.ErrorIs(t, err, asynq.SkipRetry, raw)
	}
}

func TestContractRenderJobErrors(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	task := asynq.NewTask(TaskContractRender, payload(t, ContractRenderPayload{ProposalID: 3}))

	missing := NewContractRenderJob(&stubContractStore{err: proposals.ErrNotFound}, discardLogger(), metrics)
	err := missing.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	transient := NewContractRenderJob(&stubContractStore{err: errors.New("gotenberg timeout")}, discardLogger(), metrics)
	err = transient.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestPipelineWarmupJob(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())

	warmer := &stubWarmer{warmed: 4}
	job := NewPipelineWarmupJob(warmer, discardLogger(), metrics)
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskPipelineWarmup, nil)))
	assert.Empty(t, warmer.refreshed)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskPipelineWarmup, payload(t, PipelineWarmupPayload{CompanyID: 9}))))
	assert.Equal(t, []int64{9}, warmer.refreshed)

	err := job.Handle(context.Background(), asynq.NewTask(TaskPipelineWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	failing := NewPipelineWarmupJob(&stubWarmer{err: errors.New("redis down")}, discardLogger(), metrics)
	assert.Error(t, failing.Handle(context.Background(), asynq.NewTask(TaskPipelineWarmup, nil)))
}

func TestNewContractRenderTask(t *testing.T) {
	_, err := NewContractRenderTask(ContractRenderPayload{})
	assert.Error(t, err)

	task, err := NewContractRenderTask(ContractRenderPayload{ProposalID: 5})
	require.NoError(t, err)
	assert.Equal(t, TaskContractRender, task.Type())
	assert.JSONEq(t, `{"proposal_id":5}`, string(task.Payload()))
}

func TestClientEnqueuesRenderOnActivation(t *testing.T) {
	enq := &stubEnqueuer{}
	client := &Client{client: enq, logger: discardLogger()}

	err := client.ProposalActivated(context.Background(), &proposals.Proposal{ID: 11}, proposals.TriggerShareToken)
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskContractRender, enq.tasks[0].Type())

	enq.err = asynq.ErrDuplicateTask
	assert.NoError(t, client.ProposalActivated(context.Background(), &proposals.Proposal{ID: 11}, proposals.TriggerSession))

	enq.err = errors.New("dial tcp: connection refused")
	assert.Error(t, client.ProposalActivated(context.Background(), &proposals.Proposal{ID: 11}, proposals.TriggerSession))
}

type stubInspector map[string]*asynq.QueueInfo

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	info, ok := s[queue]
	if !ok {
		return nil, asynq.ErrQueueNotFound
	}
	return info, nil
}

func TestHealthHandler(t *testing.T) {
	h := NewHandler(stubInspector{QueueDocuments: {Queue: QueueDocuments, Pending: 2, Retry: 1}}, discardLogger())

	res := httptest.NewRecorder()
	h.health(res, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"queues":[
		{"queue":"default","pending":0,"active":0,"retry":0},
		{"queue":"documents","pending":2,"active":0,"retry":1}
	]}`, res.Body.String())
}
