// Package handler exposes the account registry over HTTP. All account routes
// are authenticated; the caller principal comes from the bearer token.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nameplate/internal/account/models"
	"nameplate/internal/platform/middleware"
	"nameplate/internal/transport/http/shared"
	"nameplate/pkg/domain"
	dErrors "nameplate/pkg/domain-errors"
	"nameplate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the account registry surface the handler delegates to.
type Service interface {
	CreateAccount(ctx context.Context, principal domain.Address, username string) (*models.AccountRecord, error)
	GetAccount(ctx context.Context, principal domain.Address) (models.Summary, error)
	UpdateProfile(ctx context.Context, delegate domain.Address, update models.ProfileUpdate) error
	Follow(ctx context.Context, delegate, targetPrincipal domain.Address) error
	Unfollow(ctx context.Context, delegate, targetPrincipal domain.Address) error
	ResolveDelegateOwner(ctx context.Context, delegate domain.Address) (uint64, error)
	ResolveDelegateOwnerPrincipal(ctx context.Context, delegate domain.Address) (domain.Address, error)
	IncrementPublicationSequence(ctx context.Context, principal domain.Address) error
	CurrentPublicationRef(ctx context.Context, principal domain.Address) (string, error)
	CurrentUsername(ctx context.Context, principal domain.Address) (string, error)
	AdminDeleteAccount(ctx context.Context, caller, principal domain.Address) error
}

type Handler struct {
	accounts  Service
	logger    *slog.Logger
	validator middleware.Validator
}

func New(accounts Service, logger *slog.Logger, validator middleware.Validator) *Handler {
	return &Handler{accounts: accounts, logger: logger, validator: validator}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/accounts/{principal}", h.handleGet)
	r.Get("/accounts/{principal}/publication-ref", h.handlePublicationRef)
	r.Get("/accounts/{principal}/username", h.handleUsername)
	r.Get("/delegates/{address}/owner", h.handleResolveOwner)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/accounts", h.handleCreate)
		r.Post("/profile", h.handleUpdateProfile)
		r.Post("/follows", h.handleFollow)
		r.Delete("/follows/{principal}", h.handleUnfollow)
		r.Post("/publications", h.handleIncrementPublication)
		r.Delete("/accounts/{principal}", h.handleAdminDelete)
	})
}

type createAccountRequest struct {
	Username string `json:"username"`
}

type accountResponse struct {
	Kid       uint64   `json:"kid"`
	Address   string   `json:"address"`
	Username  string   `json:"username,omitempty"`
	Delegates []string `json:"delegates,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createAccountRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	rec, err := h.accounts.CreateAccount(ctx, requestcontext.Principal(ctx), req.Username)
	if err != nil {
		h.logFailure(ctx, "account creation failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, accountResponse{
		Kid:      rec.Kid,
		Address:  rec.Address.String(),
		Username: rec.Username,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := domain.ParseAddress(chi.URLParam(r, "principal"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid principal address"))
		return
	}

	summary, err := h.accounts.GetAccount(ctx, principal)
	if err != nil {
		h.logFailure(ctx, "account lookup failed", err)
		shared.WriteError(w, err)
		return
	}

	delegates := make([]string, 0, len(summary.Delegates))
	for _, d := range summary.Delegates {
		delegates = append(delegates, d.String())
	}
	// A principal without an account gets the zero summary; deriving an
	// address for kid 0 would name an account that does not exist.
	address := ""
	if summary.Kid != 0 {
		address = models.AddressFor(summary.Kid).String()
	}
	shared.WriteJSON(w, http.StatusOK, accountResponse{
		Kid:       summary.Kid,
		Address:   address,
		Delegates: delegates,
	})
}

type profileRequest struct {
	Pfp         string `json:"pfp"`
	Bio         string `json:"bio"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req profileRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	err := h.accounts.UpdateProfile(ctx, requestcontext.Principal(ctx), models.ProfileUpdate{
		Pfp:         req.Pfp,
		Bio:         req.Bio,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.logFailure(ctx, "profile update failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type followRequest struct {
	Target string `json:"target"`
}

func (h *Handler) handleFollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req followRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	target, err := domain.ParseAddress(req.Target)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid target address"))
		return
	}

	if err := h.accounts.Follow(ctx, requestcontext.Principal(ctx), target); err != nil {
		h.logFailure(ctx, "follow failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := domain.ParseAddress(chi.URLParam(r, "principal"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid target address"))
		return
	}

	if err := h.accounts.Unfollow(ctx, requestcontext.Principal(ctx), target); err != nil {
		h.logFailure(ctx, "unfollow failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleResolveOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	delegate, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid delegate address"))
		return
	}

	kid, err := h.accounts.ResolveDelegateOwner(ctx, delegate)
	if err != nil {
		h.logFailure(ctx, "delegate resolution failed", err)
		shared.WriteError(w, err)
		return
	}
	principal, err := h.accounts.ResolveDelegateOwnerPrincipal(ctx, delegate)
	if err != nil {
		h.logFailure(ctx, "delegate resolution failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"kid":       kid,
		"principal": principal.String(),
	})
}

func (h *Handler) handleIncrementPublication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.accounts.IncrementPublicationSequence(ctx, requestcontext.Principal(ctx)); err != nil {
		h.logFailure(ctx, "publication increment failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePublicationRef(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := domain.ParseAddress(chi.URLParam(r, "principal"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid principal address"))
		return
	}

	ref, err := h.accounts.CurrentPublicationRef(ctx, principal)
	if err != nil {
		h.logFailure(ctx, "publication ref lookup failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"ref": ref})
}

func (h *Handler) handleUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := domain.ParseAddress(chi.URLParam(r, "principal"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid principal address"))
		return
	}

	name, err := h.accounts.CurrentUsername(ctx, principal)
	if err != nil {
		h.logFailure(ctx, "username lookup failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"username": name})
}

func (h *Handler) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := domain.ParseAddress(chi.URLParam(r, "principal"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid principal address"))
		return
	}

	if err := h.accounts.AdminDeleteAccount(ctx, requestcontext.Principal(ctx), principal); err != nil {
		h.logFailure(ctx, "admin delete failed", err)
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
