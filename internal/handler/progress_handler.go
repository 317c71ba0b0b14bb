package handler

import (
	"context"
	"errors"

	"chromir-be/internal/pkg/logger"
	"chromir-be/internal/pkg/serverutils"
	internalWS "chromir-be/internal/websocket"
	"chromir-be/pkg/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ProgressHandler upgrades authenticated requests to the progress socket.
type ProgressHandler struct {
	hub      *internalWS.Hub
	issuer   *session.TokenIssuer
	denylist *session.Denylist
	notifier *session.Notifier
	logger   logger.ILogger
}

// Without redis the notifier cannot subscribe; sockets then stay open until the client leaves or the token is rejected on reconnect.
func NewProgressHandler(hub *internalWS.Hub, issuer *session.TokenIssuer, denylist *session.Denylist, notifier *session.Notifier, log logger.ILogger) *ProgressHandler {
	return &ProgressHandler{
		hub:      hub,
		issuer:   issuer,
		denylist: denylist,
		notifier: notifier,
		logger:   log,
	}
}

// ServeWs authenticates before the upgrade so rejected clients get a JSON error.
func (h *ProgressHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	claims, err := serverutils.ResolveSession(c, h.issuer, h.denylist)
	if err != nil {
		h.logger.Warn("ProgressHandler", "Rejected websocket handshake", map[string]interface{}{"error": err.Error()})
		return err
	}
	sess := claims.Session

	return websocket.New(func(conn *websocket.Conn) {
		var authChanges <-chan session.AuthStateChange
		sub, err := h.notifier.Subscribe(context.Background(), sess.UserId)
		switch {
		case err == nil:
			defer sub.Unsubscribe()
			authChanges = sub.Events()
		case !errors.Is(err, session.ErrNotifierUnavailable):
			h.logger.Warn("ProgressHandler", "Auth notifications unavailable for socket", map[string]interface{}{"error": err.Error()})
		}

		h.logger.Info("ProgressHandler", "Starting WebSocket session", map[string]interface{}{
			"user_id":         sess.UserId,
			"organization_id": sess.OrganizationId,
		})
		internalWS.ServeWs(h.hub, conn, sess, authChanges)
		h.logger.Info("ProgressHandler", "WebSocket session ended", map[string]interface{}{"user_id": sess.UserId})
	})(c)
}

func (h *ProgressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
