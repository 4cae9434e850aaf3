// Package service implements the delegate authorization handshake. Linking a
// delegate is bidirectional consent: the account owner proposes an intent and
// the delegate confirms it from its own key. Neither side can force a link
// alone.
package service

import (
	"context"
	"errors"
	"log/slog"

	accountmodels "nameplate/internal/account/models"
	delegatemetrics "nameplate/internal/delegate/metrics"
	"nameplate/internal/delegate/models"
	"nameplate/internal/event"
	"nameplate/internal/sequence"
	"nameplate/pkg/domain"
	dErrors "nameplate/pkg/domain-errors"
	"nameplate/pkg/platform/sentinel"
	"nameplate/pkg/platform/tx"
	"nameplate/pkg/requestcontext"
)

// AccountStore is the slice of the account module the handshake mutates.
type AccountStore interface {
	FindByPrincipal(ctx context.Context, principal domain.Address) (*accountmodels.AccountRecord, error)
	ExecuteByPrincipal(ctx context.Context, principal domain.Address, validate func(*accountmodels.AccountRecord) error, mutate func(*accountmodels.AccountRecord)) (*accountmodels.AccountRecord, error)
}

// DelegateStore persists delegate records.
type DelegateStore interface {
	Create(ctx context.Context, rec *models.DelegateRecord) error
	FindByAddress(ctx context.Context, addr domain.Address) (*models.DelegateRecord, error)
	Delete(ctx context.Context, addr domain.Address) error
}

// Service drives the two-phase handshake and its one-step variant.
type Service struct {
	accounts  AccountStore
	delegates DelegateStore
	seq       sequence.Allocator
	events    event.Log
	runner    tx.Runner

	logger    *slog.Logger
	publisher event.Publisher
	metrics   *delegatemetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(p event.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *delegatemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(accounts AccountStore, delegates DelegateStore, seq sequence.Allocator, events event.Log, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		accounts:  accounts,
		delegates: delegates,
		seq:       seq,
		events:    events,
		runner:    runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProposeIntent records the owner's proposal to link delegateAddr. A second
// proposal silently supersedes the first: the account tracks one outstanding
// intent, and only the latest matters. delegateAddr itself is unchecked:
// any value may be proposed; only confirmation proves control of it.
func (s *Service) ProposeIntent(ctx context.Context, owner, delegateAddr domain.Address) error {
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		_, err := s.accounts.ExecuteByPrincipal(ctx, owner, nil, func(a *accountmodels.AccountRecord) {
			a.SetPendingIntent(delegateAddr, now)
		})
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return accountmodels.ErrAccountNotFound
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record intent")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.IntentsProposed.Inc()
	}
	return nil
}

// ConfirmIntent completes the handshake. The caller must be exactly the
// address named in the pending intent; anything else fails with NotPermitted,
// including a second confirm after the intent was consumed.
func (s *Service) ConfirmIntent(ctx context.Context, caller, ownerAddress domain.Address) (*models.DelegateRecord, error) {
	rec, emitted, err := s.link(ctx, ownerAddress, caller, true)
	if err != nil {
		if errors.Is(err, models.ErrNotPermitted) && s.metrics != nil {
			s.metrics.ConfirmRejected.Inc()
		}
		return nil, err
	}

	s.publish(ctx, emitted)
	s.logAudit(ctx, event.TypeDelegateCreated, "owner", ownerAddress.String(), "delegate", caller.String())
	if s.metrics != nil {
		s.metrics.DelegatesLinked.Inc()
	}
	return rec, nil
}

// AddDelegateDirect links a delegate in one step when both signatures are
// present in the same request (self-delegation, custodial onboarding). Any
// unrelated pending intent is left untouched.
func (s *Service) AddDelegateDirect(ctx context.Context, owner, delegateAddr domain.Address) (*models.DelegateRecord, error) {
	rec, emitted, err := s.link(ctx, owner, delegateAddr, false)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, emitted)
	s.logAudit(ctx, event.TypeDelegateCreated, "owner", owner.String(), "delegate", delegateAddr.String())
	if s.metrics != nil {
		s.metrics.DelegatesLinked.Inc()
	}
	return rec, nil
}

// RemoveDelegate unlinks delegateAddr from the owner's account. The record
// and the set entry go together or not at all.
func (s *Service) RemoveDelegate(ctx context.Context, owner, delegateAddr domain.Address) error {
	var emitted event.Event
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		acct, err := s.accounts.ExecuteByPrincipal(ctx, owner,
			func(a *accountmodels.AccountRecord) error {
				if !a.HasDelegate(delegateAddr) {
					return models.ErrDelegateDoesNotExist
				}
				return nil
			},
			func(a *accountmodels.AccountRecord) {
				_ = a.RemoveDelegate(delegateAddr, now)
			},
		)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return accountmodels.ErrAccountNotFound
			}
			return err
		}

		if err := s.delegates.Delete(ctx, delegateAddr); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete delegate record")
		}

		emitted, err = s.events.Append(ctx, event.New(event.TypeDelegateRemoved, now, event.Attrs{
			"owner":            owner.String(),
			"account_address":  acct.Address.String(),
			"delegate_address": delegateAddr.String(),
		}))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record removal event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, emitted)
	s.logAudit(ctx, event.TypeDelegateRemoved, "owner", owner.String(), "delegate", delegateAddr.String())
	if s.metrics != nil {
		s.metrics.DelegatesRemoved.Inc()
	}
	return nil
}

// link is the shared effect of ConfirmIntent and AddDelegateDirect: allocate
// the delegate kid, write the record, append the address to the account's
// set, and emit DelegateCreated, all in one transaction.
func (s *Service) link(ctx context.Context, owner, delegateAddr domain.Address, requireIntent bool) (*models.DelegateRecord, event.Event, error) {
	var (
		rec     *models.DelegateRecord
		emitted event.Event
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		// Validate against the account before allocating, so a rejected
		// confirm burns no delegate id. The transaction boundary keeps the
		// probe authoritative. The intent check comes first: a caller who
		// does not match the pending intent gets NotPermitted even when the
		// address is already linked somewhere.
		probe, err := s.accounts.FindByPrincipal(ctx, owner)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				if requireIntent {
					// No account means no pending intent to match.
					return models.ErrNotPermitted
				}
				return accountmodels.ErrAccountNotFound
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
		}
		if requireIntent && !probe.PendingIntentIs(delegateAddr) {
			return models.ErrNotPermitted
		}
		if probe.HasDelegate(delegateAddr) {
			return models.ErrDelegateExists
		}

		// A delegate address maps to exactly one owning account.
		if _, err := s.delegates.FindByAddress(ctx, delegateAddr); err == nil {
			return models.ErrDelegateExists
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to probe delegate")
		}

		kid, err := s.seq.Next(ctx, sequence.CounterDelegates)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate delegate id")
		}

		acct, err := s.accounts.ExecuteByPrincipal(ctx, owner,
			func(a *accountmodels.AccountRecord) error {
				if requireIntent && !a.PendingIntentIs(delegateAddr) {
					return models.ErrNotPermitted
				}
				if a.HasDelegate(delegateAddr) {
					return models.ErrDelegateExists
				}
				return nil
			},
			func(a *accountmodels.AccountRecord) {
				if requireIntent {
					a.ClearPendingIntent(now)
				}
				_ = a.AppendDelegate(delegateAddr, now)
			},
		)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				if requireIntent {
					// No account means no pending intent to match.
					return models.ErrNotPermitted
				}
				return accountmodels.ErrAccountNotFound
			}
			return err
		}

		rec = models.New(delegateAddr, acct.Address, owner, kid, now)
		if err := s.delegates.Create(ctx, rec); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return models.ErrDelegateExists
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create delegate record")
		}

		emitted, err = s.events.Append(ctx, event.New(event.TypeDelegateCreated, now, event.Attrs{
			"owner":            owner.String(),
			"account_address":  acct.Address.String(),
			"delegate_address": delegateAddr.String(),
			"kid":              kid,
		}))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record link event")
		}
		return nil
	})
	if err != nil {
		return nil, event.Event{}, err
	}
	return rec, emitted, nil
}

func (s *Service) publish(ctx context.Context, evs ...event.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evs...); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "event publish failed", "error", err)
	}
}

func (s *Service) logAudit(ctx context.Context, ev event.Type, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(ev), "log_type", "audit")
	s.logger.InfoContext(ctx, string(ev), args...)
}
