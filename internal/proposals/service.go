package proposals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/agencyops/agencyops/internal/pricing"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultTokenCost = bcrypt.DefaultCost
)

type Service struct {
	repo      Repository
	numbers   ContractNumberGenerator
	locker    Locker
	hooks     ActivationHooks
	metrics   Metrics
	logger    *slog.Logger
	lockTTL   time.Duration
	tokenCost int
	now       func() time.Time
	newToken  func() (string, error)
}

// Option customises a Service.
type Option func(*Service)

// WithLockTTL bounds how long an activation lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithTokenCost sets the bcrypt cost used for share tokens.
func WithTokenCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.tokenCost = cost
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the proposal service. numbers, locker and hooks may be nil.
func NewService(repo Repository, numbers ContractNumberGenerator, locker Locker, hooks ActivationHooks, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:      repo,
		numbers:   numbers,
		locker:    locker,
		hooks:     hooks,
		metrics:   noopMetrics{},
		logger:    logger,
		lockTTL:   defaultLockTTL,
		tokenCost: defaultTokenCost,
		now:       func() time.Time { return time.Now().UTC() },
		newToken:  randomToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview prices an unsaved form without touching storage.
func (s *Service) Preview(ctx context.Context, req ProposalRequest) (*PreviewResult, error) {
	quote, err := pricing.Calculate(req.pricingInput())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	items := req.lineItems()
	totals := make([]float64, len(items))
	for i, item := range items {
		totals[i] = item.Total()
	}
	return &PreviewResult{Quote: quote, LineTotals: totals}, nil
}

func (s *Service) Create(ctx context.Context, companyID int64, req ProposalRequest, createdBy int64) (*Proposal, error) {
	quote, err := s.price(req)
	if err != nil {
		return nil, err
	}

	p := Proposal{
		CompanyID:   companyID,
		Status:      StatusDraft,
		PaymentType: req.PaymentType,
		CreatedBy:   createdBy,
	}
	applyRequest(&p, req)
	p.ApplyQuote(quote)

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, p)
		if err != nil {
			return fmt.Errorf("create proposal: %w", err)
		}
		if err := repo.ReplaceItems(ctx, id, req.lineItems()); err != nil {
			return fmt.Errorf("insert proposal items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Update recomputes a draft from the form. Installment statuses survive when an
// installment keeps its index, amount and due date.
func (s *Service) Update(ctx context.Context, id int64, req ProposalRequest) (*Proposal, error) {
	quote, err := s.price(req)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get proposal: %w", err)
		}
		if existing.Status != StatusDraft {
			return fmt.Errorf("%w: only draft proposals can be edited", ErrInvalidStatus)
		}
		previous := existing.PaymentSchedule
		applyRequest(existing, req)
		existing.ApplyQuote(quote)
		existing.PaymentSchedule = pricing.MergeStatuses(previous, quote.PaymentSchedule)

		if err := repo.Update(ctx, *existing); err != nil {
			return fmt.Errorf("update proposal: %w", err)
		}
		if err := repo.ReplaceItems(ctx, id, req.lineItems()); err != nil {
			return fmt.Errorf("replace proposal items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Send moves a draft to sent and issues its share token.
func (s *Service) Send(ctx context.Context, id int64) (*SendResult, error) {
	token, hash, err := s.issueToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		p, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get proposal: %w", err)
		}
		if p.Status != StatusDraft {
			return fmt.Errorf("%w: only draft proposals can be sent", ErrInvalidStatus)
		}
		if len(p.Items) == 0 {
			return fmt.Errorf("%w: proposal has no line items", ErrValidation)
		}
		return repo.MarkSent(ctx, id, hash, now)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ProposalTransition(string(StatusDraft), string(StatusSent))

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SendResult{Proposal: p, ShareToken: token}, nil
}

// RotateShareToken invalidates the current share token of a sent proposal.
func (s *Service) RotateShareToken(ctx context.Context, id int64) (string, error) {
	token, hash, err := s.issueToken()
	if err != nil {
		return "", err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		p, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get proposal: %w", err)
		}
		if p.Status != StatusSent {
			return fmt.Errorf("%w: share tokens exist only for sent proposals", ErrInvalidStatus)
		}
		return repo.SetShareTokenHash(ctx, id, hash)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Accept is the public share-token entry point. It lands the proposal in accepted.
func (s *Service) Accept(ctx context.Context, id int64, token string) (*Proposal, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !s.tokenMatches(p, token) {
		return nil, ErrInvalidToken
	}
	if p.Status.IsConverted() {
		return p, nil
	}
	if p.Status != StatusSent {
		return nil, fmt.Errorf("%w: proposal is %s", ErrInvalidStatus, p.Status)
	}
	return s.activate(ctx, id, TriggerShareToken)
}

// Activate is the session-authorised entry point. It lands the proposal in active.
func (s *Service) Activate(ctx context.Context, id int64) (*Proposal, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	if p.Status.IsConverted() {
		return p, nil
	}
	if p.Status != StatusDraft && p.Status != StatusSent {
		return nil, fmt.Errorf("%w: proposal is %s", ErrInvalidStatus, p.Status)
	}
	if strings.TrimSpace(p.ClientName) == "" {
		return nil, fmt.Errorf("%w: client name is required", ErrValidation)
	}
	return s.activate(ctx, id, TriggerSession)
}

// Archive closes a proposal for good.
func (s *Service) Archive(ctx context.Context, id int64) (*Proposal, error) {
	var from Status
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		p, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get proposal: %w", err)
		}
		if p.Status == StatusArchived {
			return fmt.Errorf("%w: proposal is already archived", ErrInvalidStatus)
		}
		from = p.Status
		return repo.Archive(ctx, id, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ProposalTransition(string(from), string(StatusArchived))
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Proposal, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) price(req ProposalRequest) (pricing.Quote, error) {
	if strings.TrimSpace(req.ClientName) == "" {
		return pricing.Quote{}, fmt.Errorf("%w: client name is required", ErrValidation)
	}
	if strings.TrimSpace(req.ClientContact) == "" && strings.TrimSpace(req.ClientEmail) == "" {
		return pricing.Quote{}, fmt.Errorf("%w: client contact or email is required", ErrValidation)
	}
	if len(req.Items) == 0 {
		return pricing.Quote{}, fmt.Errorf("%w: at least one line item is required", ErrValidation)
	}
	if !pricing.ValidDuration(req.Duration) {
		return pricing.Quote{}, fmt.Errorf("%w: unknown duration %q", ErrValidation, req.Duration)
	}
	if !pricing.ValidPaymentType(req.PaymentType) {
		return pricing.Quote{}, fmt.Errorf("%w: unknown payment type %q", ErrValidation, req.PaymentType)
	}
	quote, err := pricing.Calculate(req.pricingInput())
	if err != nil {
		return pricing.Quote{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.PaymentType == pricing.PaymentCustom {
		if len(quote.PaymentSchedule) == 0 {
			return pricing.Quote{}, fmt.Errorf("%w: custom payment schedule is empty", ErrValidation)
		}
		if err := pricing.CheckScheduleTotal(quote.PaymentSchedule, quote.TotalValue); err != nil {
			return pricing.Quote{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return quote, nil
}

func (s *Service) issueToken() (token, hash string, err error) {
	token, err = s.newToken()
	if err != nil {
		return "", "", fmt.Errorf("generate share token: %w", err)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(token), s.tokenCost)
	if err != nil {
		return "", "", fmt.Errorf("hash share token: %w", err)
	}
	return token, string(h), nil
}

func (s *Service) tokenMatches(p *Proposal, token string) bool {
	if p.ShareTokenHash == nil || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*p.ShareTokenHash), []byte(token)) == nil
}

func applyRequest(p *Proposal, req ProposalRequest) {
	p.Title = strings.TrimSpace(req.Title)
	p.ClientName = strings.TrimSpace(req.ClientName)
	p.ClientContact = strings.TrimSpace(req.ClientContact)
	p.ClientEmail = strings.TrimSpace(req.ClientEmail)
	p.ClientPhone = strings.TrimSpace(req.ClientPhone)
	p.ClientAddress = strings.TrimSpace(req.ClientAddress)
	p.Duration = req.Duration
	p.StartDate = req.StartDate
	p.PaymentType = req.PaymentType
	p.Notes = req.Notes
	p.Items = req.lineItems()
}

// randomToken joins two random UUIDs into a 64 character opaque token.
func randomToken() (string, error) {
	var b strings.Builder
	for i := 0; i < 2; i++ {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		b.WriteString(strings.ReplaceAll(id.String(), "-", ""))
	}
	return b.String(), nil
}

type noopMetrics struct{}

func (noopMetrics) ProposalTransition(string, string) {}

func (noopMetrics) ProposalActivation(string, error, time.Duration) {}
