// Package handler exposes the event log replay endpoint consumed by
// downstream indexers.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nameplate/internal/event"
	"nameplate/internal/transport/http/shared"
	dErrors "nameplate/pkg/domain-errors"
	"nameplate/pkg/requestcontext"
)

type Handler struct {
	events event.Log
	logger *slog.Logger
}

func New(events event.Log, logger *slog.Logger) *Handler {
	return &Handler{events: events, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/events", h.handleList)
}

type listResponse struct {
	Events []eventView `json:"events"`
}

type eventView struct {
	ID    string      `json:"id"`
	Seq   uint64      `json:"seq"`
	Type  string      `json:"type"`
	At    string      `json:"at"`
	Attrs event.Attrs `json:"attrs"`
}

// handleList replays events after the given cursor. Consumers page by
// passing the last seq they saw.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	after, err := parseUintParam(r, "after", 0)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	limit, err := parseUintParam(r, "limit", 100)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	evs, err := h.events.List(ctx, after, int(limit))
	if err != nil {
		h.logger.ErrorContext(ctx, "event replay failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	views := make([]eventView, 0, len(evs))
	for _, ev := range evs {
		views = append(views, eventView{
			ID:    ev.ID.String(),
			Seq:   ev.Seq,
			Type:  string(ev.Type),
			At:    ev.At.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			Attrs: ev.Attrs,
		})
	}
	shared.WriteJSON(w, http.StatusOK, listResponse{Events: views})
}

func parseUintParam(r *http.Request, name string, fallback uint64) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "invalid %s parameter", name)
	}
	return v, nil
}
