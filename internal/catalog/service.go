package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Import parses a CSV export and upserts every row in one transaction.
func (s *Service) Import(ctx context.Context, companyID int64, r io.Reader) (*ImportResult, error) {
	items, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}

	var result ImportResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, item := range items {
			item.CompanyID = companyID
			created, err := repo.Upsert(ctx, item)
			if err != nil {
				return fmt.Errorf("upsert %q: %w", item.Name, err)
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("catalog imported",
		slog.Int64("company_id", companyID),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated))
	return &result, nil
}

func (s *Service) List(ctx context.Context, companyID int64, activeOnly bool) ([]Item, error) {
	return s.repo.List(ctx, companyID, activeOnly)
}

func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	return s.repo.Get(ctx, id)
}
