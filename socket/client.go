package socket

import (
	"encoding/json"
	"net/http"
	"time"

	"chatstate/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS middleware in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	chatID := r.URL.Query().Get("chatId")
	if chatID == "" {
		http.Error(w, "Missing chatId parameter", http.StatusBadRequest)
		return
	}
	if hub.canRead != nil && !hub.canRead(chatID, userID) {
		logger.Sugar.Warnf("Subscription rejected: user %s cannot read chat %s", userID, chatID)
		http.Error(w, "Chat not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:    hub,
		Conn:   conn,
		ChatID: chatID,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		// State changes only arrive through the HTTP API; subscribers may only signal typing.
		if msg.Type != TypingType {
			logger.Sugar.Warnf("Ignoring %s message from user %s on chat %s", msg.Type, c.UserID, c.ChatID)
			continue
		}
		msg.ChatID = c.ChatID
		msg.UserID = c.UserID
		c.Hub.Broadcast <- msg
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
