package proposals

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/agencyops/agencyops/internal/clients"
	"github.com/agencyops/agencyops/internal/pricing"
	"github.com/agencyops/agencyops/internal/shared"
)

// ============================================================================
// FAKE REPOSITORY
// ============================================================================

// fakeRepository keeps everything in maps. WithTx restores the previous state
// when the callback fails, mirroring a rolled back transaction.
type fakeRepository struct {
	proposals    map[int64]Proposal
	items        map[int64][]LineItem
	clients      map[int64]clients.Client
	deliverables []clients.Deliverable

	nextProposal int64
	nextClient   int64
	nextDeliv    int64

	// Error injection
	txError           error
	createClientError error
	markActivatedErr  error
	failDeliverableOn int
	deliverableCalls  int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		proposals:    make(map[int64]Proposal),
		items:        make(map[int64][]LineItem),
		clients:      make(map[int64]clients.Client),
		nextProposal: 1,
		nextClient:   1,
		nextDeliv:    1,
	}
}

type fakeSnapshot struct {
	proposals    map[int64]Proposal
	items        map[int64][]LineItem
	clients      map[int64]clients.Client
	deliverables []clients.Deliverable
	counters     [3]int64
}

func (m *fakeRepository) snapshot() fakeSnapshot {
	return fakeSnapshot{
		proposals:    maps.Clone(m.proposals),
		items:        maps.Clone(m.items),
		clients:      maps.Clone(m.clients),
		deliverables: slices.Clone(m.deliverables),
		counters:     [3]int64{m.nextProposal, m.nextClient, m.nextDeliv},
	}
}

func (m *fakeRepository) restore(s fakeSnapshot) {
	m.proposals = s.proposals
	m.items = s.items
	m.clients = s.clients
	m.deliverables = s.deliverables
	m.nextProposal, m.nextClient, m.nextDeliv = s.counters[0], s.counters[1], s.counters[2]
}

func (m *fakeRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	saved := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(saved)
		return err
	}
	return nil
}

func (m *fakeRepository) Get(ctx context.Context, id int64) (*Proposal, error) {
	p, ok := m.proposals[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Items = slices.Clone(m.items[id])
	return &p, nil
}

func (m *fakeRepository) GetForUpdate(ctx context.Context, id int64) (*Proposal, error) {
	return m.Get(ctx, id)
}

func (m *fakeRepository) List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error) {
	var out []Proposal
	for _, p := range m.proposals {
		if p.CompanyID != req.CompanyID {
			continue
		}
		if req.Status != nil && p.Status != *req.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *fakeRepository) ListItems(ctx context.Context, proposalID int64) ([]LineItem, error) {
	return slices.Clone(m.items[proposalID]), nil
}

func (m *fakeRepository) Create(ctx context.Context, p Proposal) (int64, error) {
	p.ID = m.nextProposal
	m.nextProposal++
	p.Items = nil
	m.proposals[p.ID] = p
	return p.ID, nil
}

func (m *fakeRepository) Update(ctx context.Context, p Proposal) error {
	if _, ok := m.proposals[p.ID]; !ok {
		return ErrNotFound
	}
	p.Items = nil
	m.proposals[p.ID] = p
	return nil
}

func (m *fakeRepository) ReplaceItems(ctx context.Context, proposalID int64, items []LineItem) error {
	stored := make([]LineItem, len(items))
	for i, item := range items {
		item.ID = int64(i + 1)
		item.ProposalID = proposalID
		stored[i] = item
	}
	m.items[proposalID] = stored
	return nil
}

func (m *fakeRepository) mutate(id int64, fn func(*Proposal)) error {
	p, ok := m.proposals[id]
	if !ok {
		return ErrNotFound
	}
	fn(&p)
	m.proposals[id] = p
	return nil
}

func (m *fakeRepository) MarkSent(ctx context.Context, id int64, tokenHash string, at time.Time) error {
	return m.mutate(id, func(p *Proposal) {
		p.Status = StatusSent
		p.ShareTokenHash = &tokenHash
		p.SentAt = &at
	})
}

func (m *fakeRepository) SetShareTokenHash(ctx context.Context, id int64, tokenHash string) error {
	return m.mutate(id, func(p *Proposal) { p.ShareTokenHash = &tokenHash })
}

func (m *fakeRepository) Archive(ctx context.Context, id int64, at time.Time) error {
	return m.mutate(id, func(p *Proposal) {
		p.Status = StatusArchived
		p.ShareTokenHash = nil
		p.ArchivedAt = &at
	})
}

func (m *fakeRepository) MarkActivated(ctx context.Context, u ActivationUpdate) error {
	if m.markActivatedErr != nil {
		return m.markActivatedErr
	}
	return m.mutate(u.ProposalID, func(p *Proposal) {
		clientID := u.ClientID
		number := u.ContractNumber
		at := u.AcceptedAt
		via := u.AcceptedVia
		p.Status = u.Status
		p.ClientID = &clientID
		p.ConvertedToClientID = &clientID
		p.ContractNumber = &number
		p.AcceptedAt = &at
		p.AcceptedVia = &via
	})
}

func (m *fakeRepository) CreateClient(ctx context.Context, c clients.Client) (int64, error) {
	if m.createClientError != nil {
		return 0, m.createClientError
	}
	c.ID = m.nextClient
	m.nextClient++
	m.clients[c.ID] = c
	return c.ID, nil
}

func (m *fakeRepository) InsertDeliverable(ctx context.Context, d clients.Deliverable) (int64, error) {
	m.deliverableCalls++
	if m.failDeliverableOn > 0 && m.deliverableCalls == m.failDeliverableOn {
		return 0, errors.New("deliverables table unavailable")
	}
	d.ID = m.nextDeliv
	m.nextDeliv++
	m.deliverables = append(m.deliverables, d)
	return d.ID, nil
}

// ============================================================================
// HELPERS
// ============================================================================

var testNow = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo Repository, numbers ContractNumberGenerator, locker Locker, hooks ActivationHooks, opts ...Option) *Service {
	base := []Option{
		WithTokenCost(bcrypt.MinCost),
		WithClock(func() time.Time { return testNow }),
	}
	return NewService(repo, numbers, locker, hooks, discardLogger(), append(base, opts...)...)
}

func sampleRequest() ProposalRequest {
	return ProposalRequest{
		Title:              "Social retainer",
		ClientName:         "Acme Coffee",
		ClientEmail:        "ops@acme.test",
		Duration:           pricing.DurationQuarterly,
		StartDate:          time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		PaymentType:        pricing.PaymentMonthlySplit,
		DiscountPercentage: 10,
		Items: []LineItemRequest{
			{Name: "Instagram Post", Category: "social", Quantity: 10, UnitPrice: 15},
			{Name: "Monthly Report", Category: "reporting", Quantity: 1, UnitPrice: 150},
		},
	}
}

func createDraft(t *testing.T, svc *Service) *Proposal {
	t.Helper()
	p, err := svc.Create(context.Background(), 1, sampleRequest(), 42)
	require.NoError(t, err)
	return p
}

func createSent(t *testing.T, svc *Service) (*Proposal, string) {
	t.Helper()
	p := createDraft(t, svc)
	res, err := svc.Send(context.Background(), p.ID)
	require.NoError(t, err)
	return res.Proposal, res.ShareToken
}

// ============================================================================
// PRICING AND EDITING
// ============================================================================

func TestPreviewPricesForm(t *testing.T) {
	svc := newTestService(newFakeRepository(), nil, nil, nil)

	res, err := svc.Preview(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.InDelta(t, 900.0, res.SubtotalBeforeDiscount, 0.0001)
	assert.InDelta(t, 90.0, res.DiscountAmount, 0.0001)
	assert.InDelta(t, 810.0, res.TotalValue, 0.0001)
	assert.Equal(t, []float64{150, 150}, res.LineTotals)
}

func TestCreateStoresPricedDraft(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)

	p := createDraft(t, svc)
	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, int64(1), p.CompanyID)
	assert.Equal(t, int64(42), p.CreatedBy)
	assert.InDelta(t, 900.0, p.SubtotalBeforeDiscount, 0.0001)
	assert.InDelta(t, 10.0, p.DiscountPercentage, 0.0001)
	assert.InDelta(t, 90.0, p.DiscountAmount, 0.0001)
	assert.InDelta(t, 810.0, p.TotalValue, 0.0001)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), p.EndDate)
	require.Len(t, p.PaymentSchedule, 2)
	assert.InDelta(t, 405.0, p.PaymentSchedule[0].Amount, 0.0001)
	assert.InDelta(t, 405.0, p.PaymentSchedule[1].Amount, 0.0001)
	require.Len(t, p.Items, 2)
	assert.Equal(t, 1, p.Items[0].Position)
	assert.InDelta(t, 15.0, p.Items[0].CatalogPrice, 0.0001)
}

func TestCreateMonthlyIgnoresDiscount(t *testing.T) {
	svc := newTestService(newFakeRepository(), nil, nil, nil)
	req := sampleRequest()
	req.Duration = pricing.DurationMonthly
	req.PaymentType = pricing.PaymentUpfrontFull
	req.DiscountPercentage = 20

	p, err := svc.Create(context.Background(), 1, req, 42)
	require.NoError(t, err)
	assert.Zero(t, p.DiscountPercentage)
	assert.Zero(t, p.DiscountAmount)
	assert.InDelta(t, 300.0, p.TotalValue, 0.0001)
	require.Len(t, p.PaymentSchedule, 1)
}

func TestCreateRejectsInvalidForms(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProposalRequest)
	}{
		{"missing client name", func(r *ProposalRequest) { r.ClientName = "  " }},
		{"no contact channel", func(r *ProposalRequest) { r.ClientEmail = ""; r.ClientContact = "" }},
		{"no items", func(r *ProposalRequest) { r.Items = nil }},
		{"unknown duration", func(r *ProposalRequest) { r.Duration = "weekly" }},
		{"unknown payment type", func(r *ProposalRequest) { r.PaymentType = "barter" }},
		{"empty custom schedule", func(r *ProposalRequest) { r.PaymentType = pricing.PaymentCustom }},
		{"custom schedule off total", func(r *ProposalRequest) {
			r.PaymentType = pricing.PaymentCustom
			r.CustomSchedule = []pricing.ScheduleEntry{{Amount: 400, DueDate: r.StartDate}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			svc := newTestService(repo, nil, nil, nil)
			req := sampleRequest()
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), 1, req, 42)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, repo.proposals)
		})
	}
}

func TestCreateAcceptsMatchingCustomSchedule(t *testing.T) {
	svc := newTestService(newFakeRepository(), nil, nil, nil)
	req := sampleRequest()
	req.PaymentType = pricing.PaymentCustom
	req.CustomSchedule = []pricing.ScheduleEntry{
		{Amount: 310, DueDate: req.StartDate},
		{Amount: 500, DueDate: req.StartDate.AddDate(0, 2, 0)},
	}

	p, err := svc.Create(context.Background(), 1, req, 42)
	require.NoError(t, err)
	require.Len(t, p.PaymentSchedule, 2)
	assert.Equal(t, 2, p.PaymentSchedule[1].Index)
	assert.Equal(t, pricing.InstallmentPending, p.PaymentSchedule[1].Status)
}

func TestUpdateKeepsSettledInstallments(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p := createDraft(t, svc)

	stored := repo.proposals[p.ID]
	stored.PaymentSchedule[0].Status = pricing.InstallmentPaid
	repo.proposals[p.ID] = stored

	req := sampleRequest()
	req.Notes = "kick-off call booked"
	updated, err := svc.Update(context.Background(), p.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "kick-off call booked", updated.Notes)
	assert.Equal(t, pricing.InstallmentPaid, updated.PaymentSchedule[0].Status)

	req.DiscountPercentage = 20
	updated, err = svc.Update(context.Background(), p.ID, req)
	require.NoError(t, err)
	assert.InDelta(t, 720.0, updated.TotalValue, 0.0001)
	assert.Equal(t, pricing.InstallmentPending, updated.PaymentSchedule[0].Status)
}

func TestUpdateRejectsNonDraft(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p, _ := createSent(t, svc)

	req := sampleRequest()
	req.DiscountPercentage = 25
	_, err := svc.Update(context.Background(), p.ID, req)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.InDelta(t, 810.0, repo.proposals[p.ID].TotalValue, 0.0001)
}

// ============================================================================
// SHARE TOKENS
// ============================================================================

func TestSendIssuesHashedToken(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p, token := createSent(t, svc)

	assert.Len(t, token, 64)
	assert.Equal(t, StatusSent, p.Status)
	require.NotNil(t, p.SentAt)
	assert.Equal(t, testNow, *p.SentAt)

	hash := repo.proposals[p.ID].ShareTokenHash
	require.NotNil(t, hash)
	assert.NotEqual(t, token, *hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*hash), []byte(token)))

	_, err := svc.Send(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSendRequiresItems(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p := createDraft(t, svc)
	delete(repo.items, p.ID)

	_, err := svc.Send(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StatusDraft, repo.proposals[p.ID].Status)
}

func TestRotateShareTokenInvalidatesPrevious(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p, oldToken := createSent(t, svc)

	newToken, err := svc.RotateShareToken(context.Background(), p.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldToken, newToken)

	_, err = svc.Accept(context.Background(), p.ID, oldToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	accepted, err := svc.Accept(context.Background(), p.ID, newToken)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)

	_, err = svc.RotateShareToken(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

// ============================================================================
// ACTIVATION
// ============================================================================

func TestAcceptCreatesClientAndDeliverables(t *testing.T) {
	ctrl := gomock.NewController(t)
	numbers := NewMockContractNumberGenerator(ctrl)
	hooks := NewMockActivationHooks(ctrl)

	repo := newFakeRepository()
	svc := newTestService(repo, numbers, nil, hooks)
	p, token := createSent(t, svc)

	numbers.EXPECT().Next(gomock.Any(), int64(1)).Return("CT-2025-0001-001", nil)
	hooks.EXPECT().ProposalActivated(gomock.Any(), gomock.Any(), TriggerShareToken).Return(nil)

	accepted, err := svc.Accept(context.Background(), p.ID, token)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedVia)
	assert.Equal(t, TriggerShareToken, *accepted.AcceptedVia)
	require.NotNil(t, accepted.ContractNumber)
	assert.Equal(t, "CT-2025-0001-001", *accepted.ContractNumber)
	require.NotNil(t, accepted.ConvertedToClientID)
	assert.Equal(t, int64(1), *accepted.ConvertedToClientID)

	require.Len(t, repo.clients, 1)
	client := repo.clients[1]
	assert.Equal(t, "Acme Coffee", client.Name)
	assert.Equal(t, "quarterly", client.ContractType)
	assert.InDelta(t, 810.0, client.TotalContractValue, 0.0001)
	assert.Equal(t, clients.StatusActive, client.Status)
	require.NotNil(t, client.SourceProposalID)
	assert.Equal(t, p.ID, *client.SourceProposalID)

	require.Len(t, repo.deliverables, 2)
	assert.Equal(t, "Instagram Post", repo.deliverables[0].Type)
	assert.Equal(t, 10, repo.deliverables[0].Total)
	assert.Equal(t, "Monthly Report", repo.deliverables[1].Type)
	assert.Equal(t, 1, repo.deliverables[1].Total)
	for _, d := range repo.deliverables {
		assert.Zero(t, d.Completed)
		assert.Equal(t, "2025-01", d.BillingPeriod)
		assert.Equal(t, int64(1), d.ClientID)
	}
}

func TestAcceptIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	numbers := NewMockContractNumberGenerator(ctrl)
	numbers.EXPECT().Next(gomock.Any(), gomock.Any()).Return("CT-2025-0001-001", nil).Times(1)

	repo := newFakeRepository()
	svc := newTestService(repo, numbers, nil, nil)
	p, token := createSent(t, svc)

	first, err := svc.Accept(context.Background(), p.ID, token)
	require.NoError(t, err)
	second, err := svc.Accept(context.Background(), p.ID, token)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, *first.ContractNumber, *second.ContractNumber)
	assert.Len(t, repo.clients, 1)
	assert.Len(t, repo.deliverables, 2)

	active, err := svc.Activate(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, active.Status)
	assert.Len(t, repo.clients, 1)
}

func TestAcceptRejectsBadCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p, token := createSent(t, svc)
	draft := createDraft(t, svc)

	_, err := svc.Accept(context.Background(), p.ID, "not-the-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Accept(context.Background(), p.ID, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Accept(context.Background(), 999, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Accept(context.Background(), draft.ID, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.Empty(t, repo.clients)
	assert.Equal(t, StatusSent, repo.proposals[p.ID].Status)

	_, err = svc.Accept(context.Background(), p.ID, token)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), p.ID, "not-the-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestActivateFromDraftLandsActive(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p := createDraft(t, svc)

	active, err := svc.Activate(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, active.Status)
	assert.Equal(t, TriggerSession, *active.AcceptedVia)
	assert.Equal(t, "CT-P000001", *active.ContractNumber)
	assert.Len(t, repo.clients, 1)
	assert.Len(t, repo.deliverables, 2)
}

func TestActivateSentKeepsTokenIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p, token := createSent(t, svc)

	_, err := svc.Activate(context.Background(), p.ID)
	require.NoError(t, err)

	again, err := svc.Accept(context.Background(), p.ID, token)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, again.Status)
	assert.Len(t, repo.clients, 1)
}

func TestActivateReusesLinkedClient(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p := createDraft(t, svc)

	existing := int64(77)
	stored := repo.proposals[p.ID]
	stored.ClientID = &existing
	repo.proposals[p.ID] = stored

	active, err := svc.Activate(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, repo.clients)
	assert.Equal(t, existing, *active.ConvertedToClientID)
	for _, d := range repo.deliverables {
		assert.Equal(t, existing, d.ClientID)
	}
}

func TestActivateRequiresClientName(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p := createDraft(t, svc)

	stored := repo.proposals[p.ID]
	stored.ClientName = ""
	repo.proposals[p.ID] = stored

	_, err := svc.Activate(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.clients)
}

func TestActivateRejectsArchived(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p, token := createSent(t, svc)

	_, err := svc.Archive(context.Background(), p.ID)
	require.NoError(t, err)

	_, err = svc.Activate(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Accept(context.Background(), p.ID, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, repo.clients)
}

func TestActivateRollsBackOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeRepository)
	}{
		{"second deliverable fails", func(r *fakeRepository) { r.failDeliverableOn = 2 }},
		{"client insert fails", func(r *fakeRepository) { r.createClientError = errors.New("clients table unavailable") }},
		{"proposal update fails", func(r *fakeRepository) { r.markActivatedErr = errors.New("serialization failure") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			metrics := NewMockMetrics(ctrl)
			metrics.EXPECT().ProposalTransition(gomock.Any(), gomock.Any()).AnyTimes()
			metrics.EXPECT().ProposalActivation("share_token", gomock.Not(gomock.Nil()), gomock.Any()).Times(1)
			hooks := NewMockActivationHooks(ctrl)

			repo := newFakeRepository()
			svc := newTestService(repo, nil, nil, hooks, WithMetrics(metrics))
			p, token := createSent(t, svc)
			tt.setup(repo)

			_, err := svc.Accept(context.Background(), p.ID, token)
			require.Error(t, err)

			assert.Empty(t, repo.clients)
			assert.Empty(t, repo.deliverables)
			stored := repo.proposals[p.ID]
			assert.Equal(t, StatusSent, stored.Status)
			assert.Nil(t, stored.ContractNumber)
			assert.Nil(t, stored.ConvertedToClientID)
		})
	}
}

func TestActivateFallsBackWhenNumberingFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	numbers := NewMockContractNumberGenerator(ctrl)
	numbers.EXPECT().Next(gomock.Any(), gomock.Any()).Return("", errors.New("redis: connection refused"))

	repo := newFakeRepository()
	svc := newTestService(repo, numbers, nil, nil)
	p := createDraft(t, svc)

	active, err := svc.Activate(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, FallbackContractNumber(p.ID), *active.ContractNumber)
}

func TestActivateIgnoresHookFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	hooks := NewMockActivationHooks(ctrl)
	hooks.EXPECT().ProposalActivated(gomock.Any(), gomock.Any(), TriggerSession).Return(errors.New("queue down"))

	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, hooks)
	p := createDraft(t, svc)

	active, err := svc.Activate(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, active.Status)
	assert.Equal(t, StatusActive, repo.proposals[p.ID].Status)
}

func TestActivateRecordsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := NewMockMetrics(ctrl)
	gomock.InOrder(
		metrics.EXPECT().ProposalActivation("session", nil, gomock.Any()),
		metrics.EXPECT().ProposalTransition("draft", "active"),
	)

	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil, WithMetrics(metrics))
	p := createDraft(t, svc)

	_, err := svc.Activate(context.Background(), p.ID)
	require.NoError(t, err)
}

func TestActivateReleasesLock(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := NewMockLocker(ctrl)

	released := false
	locker.EXPECT().
		Acquire(gomock.Any(), "proposal:1:activation", 5*time.Second).
		Return(func(context.Context) error { released = true; return nil }, nil)

	repo := newFakeRepository()
	svc := newTestService(repo, nil, locker, nil, WithLockTTL(5*time.Second))
	p := createDraft(t, svc)

	_, err := svc.Activate(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, released)
}

func TestActivateRejectsConcurrentHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	locker := shared.NewRedisLocker(rdb)

	repo := newFakeRepository()
	svc := newTestService(repo, nil, locker, nil)
	p, token := createSent(t, svc)

	ctx := context.Background()
	release, err := locker.Acquire(ctx, shared.ProposalActivationLockKey(p.ID), time.Minute)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, p.ID, token)
	assert.ErrorIs(t, err, ErrActivationInProgress)
	assert.Empty(t, repo.clients)

	require.NoError(t, release(ctx))

	accepted, err := svc.Accept(ctx, p.ID, token)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)
	assert.False(t, mr.Exists(shared.ProposalActivationLockKey(p.ID)))
}

func TestActivateSurfacesLockerErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := NewMockLocker(ctrl)
	locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("i/o timeout"))

	repo := newFakeRepository()
	svc := newTestService(repo, nil, locker, nil)
	p := createDraft(t, svc)

	_, err := svc.Activate(context.Background(), p.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrActivationInProgress)
	assert.Equal(t, StatusDraft, repo.proposals[p.ID].Status)
}

func TestActivateReportsSerializationFailureAsInProgress(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p := createDraft(t, svc)
	repo.markActivatedErr = &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}

	_, err := svc.Activate(context.Background(), p.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrActivationInProgress)
	assert.Equal(t, StatusDraft, repo.proposals[p.ID].Status)
	assert.Empty(t, repo.clients)
	assert.Empty(t, repo.deliverables)

	repo.markActivatedErr = nil
	activated, err := svc.Activate(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, activated.Status)
}

// ============================================================================
// ARCHIVE
// ============================================================================

func TestArchiveIsTerminal(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, nil, nil, nil)
	p, _ := createSent(t, svc)

	archived, err := svc.Archive(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, archived.Status)
	require.NotNil(t, archived.ArchivedAt)
	assert.Nil(t, repo.proposals[p.ID].ShareTokenHash)

	_, err = svc.Archive(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Send(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestArchiveUnknownProposal(t *testing.T) {
	svc := newTestService(newFakeRepository(), nil, nil, nil)
	_, err := svc.Archive(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHookChainJoinsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := NewMockActivationHooks(ctrl)
	second := NewMockActivationHooks(ctrl)
	first.EXPECT().ProposalActivated(gomock.Any(), gomock.Any(), TriggerSession).Return(errors.New("render queue"))
	second.EXPECT().ProposalActivated(gomock.Any(), gomock.Any(), TriggerSession).Return(nil)

	chain := HookChain{first, nil, second}
	err := chain.ProposalActivated(context.Background(), &Proposal{ID: 1}, TriggerSession)
	assert.EqualError(t, err, "render queue")
}
