package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	accountmetrics "nameplate/internal/account/metrics"
	"nameplate/internal/account/models"
	delegatemodels "nameplate/internal/delegate/models"
	"nameplate/internal/event"
	"nameplate/internal/sequence"
	"nameplate/pkg/domain"
	dErrors "nameplate/pkg/domain-errors"
	"nameplate/pkg/platform/sentinel"
	"nameplate/pkg/platform/tx"
	"nameplate/pkg/requestcontext"
)

// AccountStore persists account records and the principal reference.
type AccountStore interface {
	Create(ctx context.Context, rec *models.AccountRecord) error
	FindByAddress(ctx context.Context, addr domain.Address) (*models.AccountRecord, error)
	FindByPrincipal(ctx context.Context, principal domain.Address) (*models.AccountRecord, error)
	ExecuteByAddress(ctx context.Context, addr domain.Address, validate func(*models.AccountRecord) error, mutate func(*models.AccountRecord)) (*models.AccountRecord, error)
	ExecuteByPrincipal(ctx context.Context, principal domain.Address, validate func(*models.AccountRecord) error, mutate func(*models.AccountRecord)) (*models.AccountRecord, error)
	Delete(ctx context.Context, principal domain.Address) error
}

// UsernameRegistry is the slice of the username module account creation and
// administrative teardown depend on.
type UsernameRegistry interface {
	IsClaimed(ctx context.Context, name string) (bool, error)
	IsOwner(ctx context.Context, addr domain.Address, name string) (bool, error)
	Reclaim(ctx context.Context, caller, ownerAddress domain.Address, name string) error
}

// DelegateDirectory resolves delegate records and supports the teardown
// cascade.
type DelegateDirectory interface {
	FindByAddress(ctx context.Context, addr domain.Address) (*delegatemodels.DelegateRecord, error)
	DeleteByAccount(ctx context.Context, accountAddress domain.Address) (int, error)
}

// Service is the account registry: one root account per principal, gated on
// username ownership, plus the read and counter surface external subsystems
// consume.
type Service struct {
	accounts  AccountStore
	usernames UsernameRegistry
	delegates DelegateDirectory
	seq       sequence.Allocator
	events    event.Log
	runner    tx.Runner
	admin     domain.Address

	logger    *slog.Logger
	publisher event.Publisher
	metrics   *accountmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(p event.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *accountmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(accounts AccountStore, usernames UsernameRegistry, delegates DelegateDirectory, seq sequence.Allocator, events event.Log, runner tx.Runner, admin domain.Address, opts ...Option) *Service {
	s := &Service{
		accounts:  accounts,
		usernames: usernames,
		delegates: delegates,
		seq:       seq,
		events:    events,
		runner:    runner,
		admin:     admin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount mints the root account for principal, bound to a username the
// principal must already own.
func (s *Service) CreateAccount(ctx context.Context, principal domain.Address, username string) (*models.AccountRecord, error) {
	start := time.Now()
	var (
		created *models.AccountRecord
		emitted event.Event
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		claimed, err := s.usernames.IsClaimed(ctx, username)
		if err != nil {
			return err
		}
		if !claimed {
			return models.ErrUsernameNotRegistered
		}
		owns, err := s.usernames.IsOwner(ctx, principal, username)
		if err != nil {
			return err
		}
		if !owns {
			return models.ErrUsernameNotOwned
		}

		// Probe before allocating so a duplicate attempt burns no kid.
		if _, err := s.accounts.FindByPrincipal(ctx, principal); err == nil {
			return models.ErrAccountExists
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to probe account")
		}

		kid, err := s.seq.Next(ctx, sequence.CounterAccounts)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate account id")
		}

		created = models.New(kid, principal, username, now)
		if err := s.accounts.Create(ctx, created); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return models.ErrAccountExists
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
		}

		emitted, err = s.events.Append(ctx, event.New(event.TypeAccountCreated, now, event.Attrs{
			"username":        username,
			"principal":       principal.String(),
			"account_address": created.Address.String(),
			"kid":             kid,
		}))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record account event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, emitted)
	s.logAudit(ctx, event.TypeAccountCreated, "principal", principal.String(), "kid", created.Kid)
	if s.metrics != nil {
		s.metrics.AccountsCreated.Inc()
		s.metrics.ObserveCreateAccount(start)
	}
	return created, nil
}

// UpdateProfile emits the event-sourced profile state for the calling
// delegate's account. Nothing is persisted beyond the event.
func (s *Service) UpdateProfile(ctx context.Context, delegate domain.Address, update models.ProfileUpdate) error {
	var emitted event.Event
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		acct, err := s.resolveDelegateAccount(ctx, delegate)
		if err != nil {
			return err
		}

		emitted, err = s.events.Append(ctx, event.New(event.TypeProfileUpdated, now, event.Attrs{
			"kid":          acct.Kid,
			"pfp":          update.Pfp,
			"bio":          update.Bio,
			"display_name": update.DisplayName,
		}))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record profile event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, emitted)
	return nil
}

// Follow records a follow edge from the calling delegate's account to the
// target principal's account.
func (s *Service) Follow(ctx context.Context, delegate, targetPrincipal domain.Address) error {
	var emitted event.Event
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		follower, err := s.resolveDelegateAccount(ctx, delegate)
		if err != nil {
			return err
		}
		target, err := s.accounts.FindByPrincipal(ctx, targetPrincipal)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.ErrAccountNotFound
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load target account")
		}

		relationKid, err := s.seq.Next(ctx, sequence.CounterRelations)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate relation id")
		}

		if _, err := s.accounts.ExecuteByAddress(ctx, follower.Address, nil, func(a *models.AccountRecord) {
			a.FollowSeq++
			a.UpdatedAt = now
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to advance follow counter")
		}

		emitted, err = s.events.Append(ctx, event.New(event.TypeFollowed, now, event.Attrs{
			"follower_kid":  follower.Kid,
			"following_kid": target.Kid,
			"relation_kid":  relationKid,
		}))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record follow event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, emitted)
	if s.metrics != nil {
		s.metrics.Follows.Inc()
	}
	return nil
}

// Unfollow records the removal of a follow edge. No relation id is allocated.
func (s *Service) Unfollow(ctx context.Context, delegate, targetPrincipal domain.Address) error {
	var emitted event.Event
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		follower, err := s.resolveDelegateAccount(ctx, delegate)
		if err != nil {
			return err
		}
		target, err := s.accounts.FindByPrincipal(ctx, targetPrincipal)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.ErrAccountNotFound
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load target account")
		}

		if _, err := s.accounts.ExecuteByAddress(ctx, follower.Address, nil, func(a *models.AccountRecord) {
			a.FollowSeq++
			a.UpdatedAt = now
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to advance follow counter")
		}

		emitted, err = s.events.Append(ctx, event.New(event.TypeUnfollowed, now, event.Attrs{
			"follower_kid":    follower.Kid,
			"unfollowing_kid": target.Kid,
		}))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record unfollow event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, emitted)
	if s.metrics != nil {
		s.metrics.Unfollows.Inc()
	}
	return nil
}

// GetAccount is the non-failing probe: a zero-valued summary means the
// principal has no account.
func (s *Service) GetAccount(ctx context.Context, principal domain.Address) (models.Summary, error) {
	rec, err := s.accounts.FindByPrincipal(ctx, principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Summary{}, nil
		}
		return models.Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to probe account")
	}
	return models.Summary{Kid: rec.Kid, Delegates: rec.Delegates}, nil
}

// ResolveDelegateOwner maps a delegate address to its owning account's kid.
func (s *Service) ResolveDelegateOwner(ctx context.Context, delegate domain.Address) (uint64, error) {
	acct, err := s.resolveDelegateAccount(ctx, delegate)
	if err != nil {
		return 0, err
	}
	return acct.Kid, nil
}

// ResolveDelegateOwnerPrincipal maps a delegate address to the owning
// principal.
func (s *Service) ResolveDelegateOwnerPrincipal(ctx context.Context, delegate domain.Address) (domain.Address, error) {
	acct, err := s.resolveDelegateAccount(ctx, delegate)
	if err != nil {
		return "", err
	}
	return acct.Owner, nil
}

// IncrementPublicationSequence advances the principal's per-account
// publication counter.
func (s *Service) IncrementPublicationSequence(ctx context.Context, principal domain.Address) error {
	return s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		_, err := s.accounts.ExecuteByPrincipal(ctx, principal, nil, func(a *models.AccountRecord) {
			a.PublicationSeq++
			a.UpdatedAt = now
		})
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.ErrAccountNotFound
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to advance publication counter")
		}
		return nil
	})
}

// CurrentPublicationRef formats the off-chain publication reference for the
// principal's account.
func (s *Service) CurrentPublicationRef(ctx context.Context, principal domain.Address) (string, error) {
	rec, err := s.accounts.FindByPrincipal(ctx, principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", models.ErrAccountNotFound
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return fmt.Sprintf("publication:%s:%d", rec.Username, rec.PublicationSeq), nil
}

// CurrentUsername returns the username bound to the principal's account.
func (s *Service) CurrentUsername(ctx context.Context, principal domain.Address) (string, error) {
	rec, err := s.accounts.FindByPrincipal(ctx, principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", models.ErrAccountNotFound
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return rec.Username, nil
}

// AdminDeleteAccount is the privileged escape hatch: it reclaims the
// account's username, then tears the account down together with its delegate
// records. The two steps are separate transactions, matching the orchestration
// this replaces, so the username returns to custody even if teardown is
// retried. The caller must hold the admin role claim and match the configured
// admin address.
func (s *Service) AdminDeleteAccount(ctx context.Context, caller, principal domain.Address) error {
	if !requestcontext.IsAdmin(ctx) || caller != s.admin || s.admin.IsZero() {
		return models.ErrNotPermitted
	}

	rec, err := s.accounts.FindByPrincipal(ctx, principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrAccountNotFound
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	if err := s.usernames.Reclaim(ctx, caller, principal, rec.Username); err != nil {
		return err
	}

	var (
		removed int
		emitted event.Event
	)
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		removed, err = s.delegates.DeleteByAccount(ctx, rec.Address)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cascade delegate records")
		}
		if err := s.accounts.Delete(ctx, principal); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete account")
		}

		emitted, err = s.events.Append(ctx, event.New(event.TypeAccountDeleted, now, event.Attrs{
			"principal":         principal.String(),
			"username":          rec.Username,
			"kid":               rec.Kid,
			"delegates_removed": removed,
		}))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record deletion event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, emitted)
	s.logAudit(ctx, event.TypeAccountDeleted,
		"principal", principal.String(),
		"kid", rec.Kid,
		"delegates_removed", removed,
	)
	if s.metrics != nil {
		s.metrics.AccountsDeleted.Inc()
	}
	return nil
}

// resolveDelegateAccount guards every delegate-resolution path against a
// dangling record: the delegate must exist and its owning account must still
// be present.
func (s *Service) resolveDelegateAccount(ctx context.Context, delegate domain.Address) (*models.AccountRecord, error) {
	rec, err := s.delegates.FindByAddress(ctx, delegate)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrDelegateNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve delegate")
	}
	acct, err := s.accounts.FindByAddress(ctx, rec.AccountAddress)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrDelegateNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owning account")
	}
	return acct, nil
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
