package proposals

import (
	"context"
	"errors"
	"time"
)

//go:generate mockgen -source=ports.go -destination=mocks_test.go -package=proposals

// ContractNumberGenerator issues human-readable contract numbers per client.
type ContractNumberGenerator interface {
	Next(ctx context.Context, clientID int64) (string, error)
}

// ActivationHooks run after an activation has committed.
type ActivationHooks interface {
	ProposalActivated(ctx context.Context, p *Proposal, trigger TriggerSource) error
}

// Locker grants short-lived exclusive locks across processes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Metrics receives lifecycle events for instrumentation.
type Metrics interface {
	ProposalTransition(from, to string)
	ProposalActivation(trigger string, err error, elapsed time.Duration)
}

// HookChain runs every hook in order and joins their errors.
type HookChain []ActivationHooks

func (c HookChain) ProposalActivated(ctx context.Context, p *Proposal, trigger TriggerSource) error {
	var errs []error
	for _, hook := range c {
		if hook == nil {
			continue
		}
		if err := hook.ProposalActivated(ctx, p, trigger); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
