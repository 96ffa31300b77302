package clients

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	return s.repo.List(ctx, req)
}

// UpdateStatus moves a client between active and paused, or closes it as completed.
func (s *Service) UpdateStatus(ctx context.Context, id int64, next Status) (*Client, error) {
	client, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client.Status == next {
		return client, nil
	}
	if !client.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, client.Status, next)
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("update client status: %w", err)
	}
	client.Status = next
	return client, nil
}

func (s *Service) ListDeliverables(ctx context.Context, req ListDeliverablesRequest) ([]Deliverable, error) {
	if _, err := s.repo.Get(ctx, req.ClientID); err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return s.repo.ListDeliverables(ctx, req)
}

func (s *Service) GetDeliverable(ctx context.Context, id int64) (*Deliverable, error) {
	return s.repo.GetDeliverable(ctx, id)
}

// RecordProgress sets the completed count of a deliverable. The count must stay within [0, total].
func (s *Service) RecordProgress(ctx context.Context, deliverableID int64, completed int) (*Deliverable, error) {
	var updated *Deliverable
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		d, err := repo.GetDeliverable(ctx, deliverableID)
		if err != nil {
			return fmt.Errorf("get deliverable: %w", err)
		}
		if completed < 0 || completed > d.Total {
			return fmt.Errorf("%w: completed must be between 0 and %d", ErrInvalidInput, d.Total)
		}
		if err := repo.UpdateDeliverableProgress(ctx, deliverableID, completed); err != nil {
			return fmt.Errorf("update deliverable: %w", err)
		}
		d.Completed = completed
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
