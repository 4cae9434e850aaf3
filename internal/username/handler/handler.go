// Package handler exposes the username registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nameplate/internal/platform/middleware"
	"nameplate/internal/transport/http/shared"
	"nameplate/internal/username/models"
	"nameplate/pkg/domain"
	dErrors "nameplate/pkg/domain-errors"
	"nameplate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the username registry surface the handler delegates to.
type Service interface {
	Claim(ctx context.Context, name string, owner domain.Address) (*models.UsernameRecord, error)
	Reclaim(ctx context.Context, caller, ownerAddress domain.Address, name string) error
	IsClaimed(ctx context.Context, name string) (bool, error)
	IsReclaimed(ctx context.Context, name string) (bool, error)
	TokenAddressOf(name string) domain.Address
}

type Handler struct {
	usernames Service
	logger    *slog.Logger
	validator middleware.Validator
}

func New(usernames Service, logger *slog.Logger, validator middleware.Validator) *Handler {
	return &Handler{usernames: usernames, logger: logger, validator: validator}
}

// Register mounts the username routes. Lookups are public; claims and
// reclaims require a bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Get("/usernames/{name}", h.handleLookup)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/usernames", h.handleClaim)
		r.Post("/usernames/{name}/reclaim", h.handleReclaim)
	})
}

type claimRequest struct {
	Name string `json:"name"`
}

type usernameResponse struct {
	Name         string `json:"name"`
	TokenAddress string `json:"token_address"`
	Claimed      bool   `json:"claimed"`
	Reclaimed    bool   `json:"reclaimed"`
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req claimRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	rec, err := h.usernames.Claim(ctx, req.Name, requestcontext.Principal(ctx))
	if err != nil {
		h.logFailure(ctx, "claim failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, usernameResponse{
		Name:         rec.Name,
		TokenAddress: rec.TokenAddress.String(),
		Claimed:      true,
	})
}

type reclaimRequest struct {
	Owner string `json:"owner"`
}

func (h *Handler) handleReclaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	var req reclaimRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	owner, err := domain.ParseAddress(req.Owner)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid owner address"))
		return
	}

	if err := h.usernames.Reclaim(ctx, requestcontext.Principal(ctx), owner, name); err != nil {
		h.logFailure(ctx, "reclaim failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	claimed, err := h.usernames.IsClaimed(ctx, name)
	if err != nil {
		h.logFailure(ctx, "lookup failed", err)
		shared.WriteError(w, err)
		return
	}
	reclaimed, err := h.usernames.IsReclaimed(ctx, name)
	if err != nil {
		h.logFailure(ctx, "lookup failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, usernameResponse{
		Name:         name,
		TokenAddress: h.usernames.TokenAddressOf(name).String(),
		Claimed:      claimed,
		Reclaimed:    reclaimed,
	})
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
		return
	}
	h.logger.WarnContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
}
