package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

type WSHandler struct {
	polls    ports.PollService
	actions  ports.ActionService
	hub      ports.Hub
	opts     ConnOptions
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(polls ports.PollService, actions ports.ActionService, hub ports.Hub, opts ConnOptions, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		polls:   polls,
		actions: actions,
		hub:     hub,
		opts:    opts.withDefaults(),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Join upgrades the request to a websocket subscribed to the poll and
// serves it until either side closes.
func (h *WSHandler) Join(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "pollID")

	poll, err := h.polls.GetPoll(r.Context(), pollID)
	if err != nil {
		writePollError(w, err)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	// the upgrade response is written by the upgrader, carry over the
	// session cookie set by the identity middleware
	header := http.Header{}
	if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
		header["Set-Cookie"] = cookies
	}

	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "poll_id", poll.ID, "error", err)
		return
	}

	sub := newSubscriber(conn, poll.ID, userID, h.opts, h.logger)
	h.serve(r.Context(), sub)
}

func (h *WSHandler) serve(ctx context.Context, sub *subscriber) {
	log := h.logger.With("poll_id", sub.pollID, "user_id", sub.userID)

	sub.open()
	if err := h.hub.Register(ctx, sub.pollID, sub); err != nil {
		log.Info("failed to register subscriber", "error", err)
		_ = sub.write(domain.ActionResponse{Text: domain.Notice(err)})
		sub.Close()
		return
	}
	defer h.hub.Unregister(sub.pollID, sub)
	log.Debug("connection open")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sub.writePump(gctx) })
	g.Go(func() error { return sub.readPump(gctx, h.actions) })

	if err := g.Wait(); err != nil {
		log.Info("connection closed", "error", err)
		return
	}
	log.Debug("connection closed")
}
