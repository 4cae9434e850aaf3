// Package devtoken exposes a local token mint for development and testing.
// The route is gated by a shared secret checked against a bcrypt hash from
// configuration; production deployments leave it disabled and issue tokens
// from their own auth infrastructure.
package devtoken

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nameplate/internal/platform/secrets"
	"nameplate/internal/platform/token"
	"nameplate/internal/transport/http/shared"
	"nameplate/pkg/domain"
	dErrors "nameplate/pkg/domain-errors"
	"nameplate/pkg/requestcontext"
)

type Handler struct {
	tokens     *token.Manager
	secretHash string
	logger     *slog.Logger
}

func New(tokens *token.Manager, secretHash string, logger *slog.Logger) *Handler {
	return &Handler{tokens: tokens, secretHash: secretHash, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/dev/tokens", h.handleMint)
}

type mintRequest struct {
	Secret    string `json:"secret"`
	Principal string `json:"principal"`
	Admin     bool   `json:"admin"`
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req mintRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := secrets.Verify(req.Secret, h.secretHash); err != nil {
		h.logger.WarnContext(ctx, "dev token mint rejected",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	principal, err := domain.ParseAddress(req.Principal)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid principal address"))
		return
	}

	signed, err := h.tokens.Issue(principal, req.Admin)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token"))
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]string{"token": signed})
}
