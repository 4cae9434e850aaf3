// Package handler exposes the delegate authorization handshake over HTTP.
// Intents are proposed by the account owner and confirmed by the delegate
// key itself, so every route is authenticated. The one-step direct add
// carries the delegate's own assertion token in the body, keeping both
// signatures in the same request.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nameplate/internal/delegate/models"
	"nameplate/internal/platform/middleware"
	"nameplate/internal/transport/http/shared"
	"nameplate/pkg/domain"
	dErrors "nameplate/pkg/domain-errors"
	"nameplate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the handshake surface the handler delegates to.
type Service interface {
	ProposeIntent(ctx context.Context, owner, delegateAddr domain.Address) error
	ConfirmIntent(ctx context.Context, caller, ownerAddress domain.Address) (*models.DelegateRecord, error)
	AddDelegateDirect(ctx context.Context, owner, delegateAddr domain.Address) (*models.DelegateRecord, error)
	RemoveDelegate(ctx context.Context, owner, delegateAddr domain.Address) error
}

type Handler struct {
	delegates Service
	logger    *slog.Logger
	validator middleware.Validator
}

func New(delegates Service, logger *slog.Logger, validator middleware.Validator) *Handler {
	return &Handler{delegates: delegates, logger: logger, validator: validator}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/delegates/intents", h.handlePropose)
		r.Post("/delegates/confirm", h.handleConfirm)
		r.Post("/delegates", h.handleAddDirect)
		r.Delete("/delegates/{address}", h.handleRemove)
	})
}

type intentRequest struct {
	DelegateAddress string `json:"delegate_address"`
}

// directAddRequest carries the delegate's half of the consent: a token signed
// by the delegate key itself, alongside the owner's bearer token on the
// request. Without it an owner could link an address it does not control.
type directAddRequest struct {
	DelegateAddress   string `json:"delegate_address"`
	DelegateAssertion string `json:"delegate_assertion"`
}

type confirmRequest struct {
	OwnerAddress string `json:"owner_address"`
}

type delegateResponse struct {
	Address        string `json:"address"`
	AccountAddress string `json:"account_address"`
	Kid            uint64 `json:"kid"`
}

func (h *Handler) handlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req intentRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	delegate, err := domain.ParseAddress(req.DelegateAddress)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid delegate address"))
		return
	}

	if err := h.delegates.ProposeIntent(ctx, requestcontext.Principal(ctx), delegate); err != nil {
		h.logFailure(ctx, "intent proposal failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req confirmRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	owner, err := domain.ParseAddress(req.OwnerAddress)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid owner address"))
		return
	}

	rec, err := h.delegates.ConfirmIntent(ctx, requestcontext.Principal(ctx), owner)
	if err != nil {
		h.logFailure(ctx, "intent confirmation failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, delegateResponse{
		Address:        rec.Address.String(),
		AccountAddress: rec.AccountAddress.String(),
		Kid:            rec.Kid,
	})
}

func (h *Handler) handleAddDirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req directAddRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	delegate, err := domain.ParseAddress(req.DelegateAddress)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid delegate address"))
		return
	}

	// Both parties must have signed: the owner via the bearer token, the
	// delegate via the assertion. The assertion's subject names the delegate.
	claims, err := h.validator.ValidateToken(req.DelegateAssertion)
	if err != nil {
		h.logFailure(ctx, "delegate assertion rejected", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "delegate assertion rejected"))
		return
	}
	if claims.Principal != delegate {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "delegate assertion does not match delegate address"))
		return
	}

	rec, err := h.delegates.AddDelegateDirect(ctx, requestcontext.Principal(ctx), delegate)
	if err != nil {
		h.logFailure(ctx, "direct delegate add failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, delegateResponse{
		Address:        rec.Address.String(),
		AccountAddress: rec.AccountAddress.String(),
		Kid:            rec.Kid,
	})
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	delegate, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid delegate address"))
		return
	}

	if err := h.delegates.RemoveDelegate(ctx, requestcontext.Principal(ctx), delegate); err != nil {
		h.logFailure(ctx, "delegate removal failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
		return
	}
	h.logger.WarnContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
}
