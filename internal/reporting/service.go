package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agencyops/agencyops/internal/proposals"
)

const pipelineReport = "pipeline"

type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// PipelineSummary returns the cached summary, computing it on a miss.
func (s *Service) PipelineSummary(ctx context.Context, companyID int64) (PipelineSummary, error) {
	key, err := s.cache.Key(ctx, companyID, pipelineReport)
	if err != nil {
		s.logger.Warn("report cache unavailable", slog.Any("error", err))
		return s.compute(ctx, companyID)
	}
	return FetchJSON(ctx, s.cache, key, func(ctx context.Context) (PipelineSummary, error) {
		return s.compute(ctx, companyID)
	})
}

// Refresh recomputes the summary and overwrites the cached copy.
func (s *Service) Refresh(ctx context.Context, companyID int64) (PipelineSummary, error) {
	summary, err := s.compute(ctx, companyID)
	if err != nil {
		return PipelineSummary{}, err
	}
	key, err := s.cache.Key(ctx, companyID, pipelineReport)
	if err != nil {
		return PipelineSummary{}, err
	}
	if err := s.cache.Store(ctx, key, summary); err != nil {
		return PipelineSummary{}, err
	}
	return summary, nil
}

// Warm refreshes the summary of every company with proposals and returns how many were refreshed.
func (s *Service) Warm(ctx context.Context) (int, error) {
	companies, err := s.repo.Companies(ctx)
	if err != nil {
		return 0, fmt.Errorf("list companies: %w", err)
	}
	for i, id := range companies {
		if _, err := s.Refresh(ctx, id); err != nil {
			return i, fmt.Errorf("refresh company %d: %w", id, err)
		}
	}
	return len(companies), nil
}

func (s *Service) compute(ctx context.Context, companyID int64) (PipelineSummary, error) {
	var (
		statuses []StatusTotals
		active   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		statuses, err = s.repo.StatusTotals(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		active, err = s.repo.ActiveClients(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return PipelineSummary{}, err
	}
	if statuses == nil {
		statuses = []StatusTotals{}
	}
	return PipelineSummary{
		CompanyID:      companyID,
		Statuses:       statuses,
		ActiveClients:  active,
		ConversionRate: ConversionRate(statuses),
		GeneratedAt:    s.now().UTC(),
	}, nil
}

// ProposalActivated invalidates the company's cached reports.
func (s *Service) ProposalActivated(ctx context.Context, p *proposals.Proposal, _ proposals.TriggerSource) error {
	return s.cache.Bump(ctx, p.CompanyID)
}
