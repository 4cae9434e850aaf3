package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"nameplate/internal/event"
	"nameplate/internal/sequence"
	usernamemetrics "nameplate/internal/username/metrics"
	"nameplate/internal/username/models"
	"nameplate/pkg/domain"
	dErrors "nameplate/pkg/domain-errors"
	"nameplate/pkg/platform/sentinel"
	"nameplate/pkg/platform/tx"
	"nameplate/pkg/requestcontext"
)

// UsernameStore persists ownership records. Execute must validate and mutate
// atomically.
type UsernameStore interface {
	Create(ctx context.Context, rec *models.UsernameRecord) error
	FindByName(ctx context.Context, name string) (*models.UsernameRecord, error)
	Execute(ctx context.Context, name string, validate func(*models.UsernameRecord) error, mutate func(*models.UsernameRecord)) (*models.UsernameRecord, error)
}

// Service owns the username namespace: fresh mints, administrative reclaims,
// and re-claims of previously reclaimed names. Record owners change only
// through this service.
type Service struct {
	usernames UsernameStore
	seq       sequence.Allocator
	events    event.Log
	runner    tx.Runner
	admin     domain.Address

	logger    *slog.Logger
	publisher event.Publisher
	metrics   *usernamemetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(p event.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *usernamemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the registry service. admin is the only principal allowed to
// reclaim names.
func New(usernames UsernameStore, seq sequence.Allocator, events event.Log, runner tx.Runner, admin domain.Address, opts ...Option) *Service {
	s := &Service{
		usernames: usernames,
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

// Claim mints the name for owner, or, when the record exists and is
// reclaimed, reassigns it directly. The re-claim path skips name validation
// entirely: a name that passed validation once stays claimable even if the
// validator has since tightened.
func (s *Service) Claim(ctx context.Context, name string, owner domain.Address) (*models.UsernameRecord, error) {
	start := time.Now()
	var (
		claimed *models.UsernameRecord
		emitted event.Event
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		existing, err := s.usernames.FindByName(ctx, name)
		switch {
		case err == nil && existing.Live():
			return models.ErrAlreadyClaimed

		case err == nil:
			// Re-claim of a reclaimed name: no validation, no mint.
			claimed, err = s.usernames.Execute(ctx, name,
				func(r *models.UsernameRecord) error {
					if r.Live() {
						return models.ErrAlreadyClaimed
					}
					return nil
				},
				func(r *models.UsernameRecord) {
					r.Reassign(owner, now)
				},
			)
			if err != nil {
				return s.wrapClaimErr(err)
			}

		case errors.Is(err, sentinel.ErrNotFound):
			claimed, err = models.New(name, owner, now)
			if err != nil {
				return err
			}
			if err := s.usernames.Create(ctx, claimed); err != nil {
				return s.wrapClaimErr(err)
			}
			if _, err := s.seq.Next(ctx, sequence.CounterUsernames); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to advance username counter")
			}

		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up username")
		}

		emitted, err = s.events.Append(ctx, event.New(event.TypeUsernameRegistered, now, event.Attrs{
			"name":          claimed.Name,
			"owner":         claimed.Owner.String(),
			"token_address": claimed.TokenAddress.String(),
		}))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record registration event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, emitted)
	s.logAudit(ctx, event.TypeUsernameRegistered, "name", claimed.Name, "owner", claimed.Owner.String())
	if s.metrics != nil {
		s.metrics.UsernamesClaimed.Inc()
		s.metrics.ObserveClaim(start)
	}
	return claimed, nil
}

// Reclaim is the administrative revoke: the record returns to the registry's
// custodial address. The caller must hold the admin role claim and match the
// configured admin address. ownerAddress must match the current owner; names
// that are unclaimed or already reclaimed fail the same way a malformed name
// does.
func (s *Service) Reclaim(ctx context.Context, caller, ownerAddress domain.Address, name string) error {
	if !requestcontext.IsAdmin(ctx) || caller != s.admin || s.admin.IsZero() {
		return models.ErrNotPermitted
	}

	var (
		oldOwner domain.Address
		emitted  event.Event
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		_, err := s.usernames.Execute(ctx, name,
			func(r *models.UsernameRecord) error {
				if !r.Live() || r.Owner != ownerAddress {
					return models.ErrInvalidName
				}
				oldOwner = r.Owner
				return nil
			},
			func(r *models.UsernameRecord) {
				r.ReturnToCustody(now)
			},
		)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.ErrInvalidName
			}
			return err
		}

		emitted, err = s.events.Append(ctx, event.New(event.TypeUsernameReclaimed, now, event.Attrs{
			"name":      name,
			"old_owner": oldOwner.String(),
		}))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record reclaim event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, emitted)
	s.logAudit(ctx, event.TypeUsernameReclaimed, "name", name, "old_owner", oldOwner.String())
	if s.metrics != nil {
		s.metrics.UsernamesReclaimed.Inc()
	}
	return nil
}

// IsClaimed reports whether name has a live owner. Reclaimed names read as
// unclaimed here.
func (s *Service) IsClaimed(ctx context.Context, name string) (bool, error) {
	rec, err := s.usernames.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up username")
	}
	return rec.Live(), nil
}

// IsReclaimed reports whether name exists but sits with the custodian.
func (s *Service) IsReclaimed(ctx context.Context, name string) (bool, error) {
	rec, err := s.usernames.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up username")
	}
	return !rec.Live(), nil
}

// IsOwner reports whether addr holds a live claim on name.
func (s *Service) IsOwner(ctx context.Context, addr domain.Address, name string) (bool, error) {
	rec, err := s.usernames.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up username")
	}
	return rec.Live() && rec.Owner == addr, nil
}

// TokenAddressOf is the pure derivation, exposed for external verification.
func (s *Service) TokenAddressOf(name string) domain.Address {
	return models.TokenAddressOf(name)
}

// Get returns the full record for read-only views.
func (s *Service) Get(ctx context.Context, name string) (*models.UsernameRecord, error) {
	rec, err := s.usernames.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "username not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up username")
	}
	return rec, nil
}

func (s *Service) wrapClaimErr(err error) error {
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return models.ErrAlreadyClaimed
	}
	if dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.HasCode(err, dErrors.CodeValidation) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to claim username")
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
