package proposals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agencyops/agencyops/internal/clients"
	"github.com/agencyops/agencyops/internal/platform/db"
	"github.com/agencyops/agencyops/internal/shared"
)

// activate converts a draft or sent proposal into a client engagement. Both
// public acceptance and internal activation go through here; trigger decides
// the landing status. Every write happens in one transaction, so a failure at
// any step leaves no client, deliverable or status change behind.
func (s *Service) activate(ctx context.Context, id int64, trigger TriggerSource) (*Proposal, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	started := s.now()
	var (
		result    *Proposal
		from      Status
		activated bool
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		p, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get proposal: %w", err)
		}
		if p.Status.IsConverted() {
			result = p
			return nil
		}
		if err := checkActivatable(p, trigger); err != nil {
			return err
		}
		from = p.Status

		clientID, linked := p.LinkedClientID()
		if !linked {
			clientID, err = repo.CreateClient(ctx, clientFromProposal(p))
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}
		}

		contractNumber := s.contractNumber(ctx, clientID, p.ID)

		items, err := repo.ListItems(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("list proposal items: %w", err)
		}
		period := clients.BillingPeriod(s.now())
		proposalID := p.ID
		for _, item := range items {
			_, err := repo.InsertDeliverable(ctx, clients.Deliverable{
				ClientID:      clientID,
				ProposalID:    &proposalID,
				Type:          item.Name,
				Total:         item.Quantity,
				Completed:     0,
				BillingPeriod: period,
			})
			if err != nil {
				return fmt.Errorf("create deliverable %q: %w", item.Name, err)
			}
		}

		update := ActivationUpdate{
			ProposalID:     p.ID,
			Status:         trigger.TargetStatus(),
			ClientID:       clientID,
			ContractNumber: contractNumber,
			AcceptedAt:     s.now(),
			AcceptedVia:    trigger,
		}
		if err := repo.MarkActivated(ctx, update); err != nil {
			return fmt.Errorf("update proposal: %w", err)
		}

		p.Status = update.Status
		p.ClientID = &clientID
		p.ConvertedToClientID = &clientID
		p.ContractNumber = &update.ContractNumber
		p.AcceptedAt = &update.AcceptedAt
		p.AcceptedVia = &update.AcceptedVia
		p.Items = items
		result = p
		activated = true
		return nil
	})
	if activated || err != nil {
		s.metrics.ProposalActivation(string(trigger), err, s.now().Sub(started))
	}
	if err != nil {
		s.logger.Error("proposal activation rolled back",
			slog.Int64("proposal_id", id), slog.String("trigger", string(trigger)), slog.Any("error", err))
		if db.IsSerializationFailure(err) {
			return nil, fmt.Errorf("%w: %v", ErrActivationInProgress, err)
		}
		return nil, err
	}
	if !activated {
		return result, nil
	}

	s.metrics.ProposalTransition(string(from), string(result.Status))
	s.logger.Info("proposal activated",
		slog.Int64("proposal_id", id),
		slog.Int64("client_id", *result.ConvertedToClientID),
		slog.String("contract_number", *result.ContractNumber),
		slog.String("trigger", string(trigger)))

	if s.hooks != nil {
		if err := s.hooks.ProposalActivated(ctx, result, trigger); err != nil {
			s.logger.Warn("activation hooks failed", slog.Int64("proposal_id", id), slog.Any("error", err))
		}
	}
	return result, nil
}

func checkActivatable(p *Proposal, trigger TriggerSource) error {
	switch {
	case trigger == TriggerShareToken && p.Status != StatusSent:
		return fmt.Errorf("%w: proposal is %s", ErrInvalidStatus, p.Status)
	case p.Status != StatusDraft && p.Status != StatusSent:
		return fmt.Errorf("%w: proposal is %s", ErrInvalidStatus, p.Status)
	case strings.TrimSpace(p.ClientName) == "":
		return fmt.Errorf("%w: client name is required", ErrValidation)
	}
	return nil
}

// lock serialises activations of the same proposal across processes. Without a
// locker the row lock taken by GetForUpdate is the only guard.
func (s *Service) lock(ctx context.Context, id int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Acquire(ctx, shared.ProposalActivationLockKey(id), s.lockTTL)
	if err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			return nil, ErrActivationInProgress
		}
		return nil, fmt.Errorf("acquire activation lock: %w", err)
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release activation lock", slog.Int64("proposal_id", id), slog.Any("error", err))
		}
	}, nil
}

// contractNumber asks the sequence generator and falls back to a proposal-derived
// number when it is missing or failing.
func (s *Service) contractNumber(ctx context.Context, clientID, proposalID int64) string {
	if s.numbers == nil {
		return FallbackContractNumber(proposalID)
	}
	number, err := s.numbers.Next(ctx, clientID)
	if err != nil || number == "" {
		s.logger.Warn("contract number generator unavailable, using fallback",
			slog.Int64("proposal_id", proposalID), slog.Any("error", err))
		return FallbackContractNumber(proposalID)
	}
	return number
}

func clientFromProposal(p *Proposal) clients.Client {
	start := p.StartDate
	proposalID := p.ID
	c := clients.Client{
		CompanyID:          p.CompanyID,
		Name:               strings.TrimSpace(p.ClientName),
		ContactName:        p.ClientContact,
		Email:              p.ClientEmail,
		Phone:              p.ClientPhone,
		Address:            p.ClientAddress,
		ContractType:       string(p.Duration),
		TotalContractValue: p.TotalValue,
		Status:             clients.StatusActive,
		SourceProposalID:   &proposalID,
	}
	if !start.IsZero() {
		c.StartDate = &start
	}
	return c
}
