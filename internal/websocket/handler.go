package websocket

import (
	"time"

	"chromir-be/pkg/session"

	"github.com/gofiber/websocket/v2"
)

// ServeWs runs a socket for sess until it closes. A sign-out of the socket's
// own token arriving on authChanges closes the connection.
func ServeWs(hub *Hub, c *websocket.Conn, sess session.Session, authChanges <-chan session.AuthStateChange) {
	client := &Client{
		Hub:            hub,
		Conn:           c,
		UserID:         sess.UserId,
		OrganizationID: sess.OrganizationId,
		TokenID:        sess.TokenId,
		Send:           make(chan []byte, 256),
	}
	if !hub.join(client) {
		_ = c.Close()
		return
	}

	if authChanges != nil {
		go watchSignOut(client, authChanges)
	}

	go client.writePump()
	client.readPump()
}

func watchSignOut(client *Client, authChanges <-chan session.AuthStateChange) {
	for change := range authChanges {
		if change.Event == session.AuthSignedOut && change.TokenId == client.TokenID {
			client.Hub.logger.Info("Hub", "Closing socket of signed out token", map[string]interface{}{"user_id": client.UserID})
			deadline := time.Now().Add(writeWait)
			_ = client.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "signed out"), deadline)
			client.Conn.Close()
			return
		}
	}
}
