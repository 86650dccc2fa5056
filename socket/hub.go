package socket

import (
	"encoding/json"
	"sync"
	"time"

	"chatstate/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	MessagesSavedType     = "MESSAGES_SAVED"     // New or replaced messages in the chat
	MessagesTruncatedType = "MESSAGES_TRUNCATED" // Trailing messages removed after an edit
	VoteType              = "VOTE"               // A message was voted on
	VisibilityType        = "VISIBILITY"         // Chat switched between private and public
	ContextType           = "CONTEXT"            // Token usage snapshot updated
	ChatDeletedType       = "CHAT_DELETED"       // Chat and everything in it is gone
	PresenceUpdateType    = "PRESENCE_UPDATE"    // A subscriber joined or left
	TypingType            = "TYPING"             // Client-originated typing indicator
)

type WSMessage struct {
	Type    string          `json:"type"`
	ChatID  string          `json:"chat_id"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type UserStatus struct {
	UserID   string    `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

// Hub fans chat-state events out to the websocket subscribers of each chat.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	Presence   map[string]map[string]UserStatus // chatID -> userID -> status
	mu         sync.Mutex

	canRead func(chatID, userID string) bool
}

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	ChatID string
	UserID string
	Send   chan []byte
}

// NewHub creates a hub. canRead decides whether a user may subscribe to a chat.
func NewHub(canRead func(chatID, userID string) bool) *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Presence:   make(map[string]map[string]UserStatus),
		canRead:    canRead,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			// Checked under h.mu: a RemoveChat following the chat's deletion either
			// finds this client in the room or the check below already fails.
			if h.canRead != nil && !h.canRead(client.ChatID, client.UserID) {
				h.mu.Unlock()
				logger.Sugar.Warnf("Dropping subscriber %s: chat %s is gone or unreadable", client.UserID, client.ChatID)
				close(client.Send) // writePump closes the connection
				continue
			}
			if h.Rooms[client.ChatID] == nil {
				h.Rooms[client.ChatID] = make(map[*Client]bool)
				h.Presence[client.ChatID] = make(map[string]UserStatus)
			}
			h.Rooms[client.ChatID][client] = true
			h.Presence[client.ChatID][client.UserID] = UserStatus{UserID: client.UserID, LastSeen: time.Now()}
			h.mu.Unlock()

			h.broadcastPresenceUpdate(client.ChatID)

		case client := <-h.Unregister:
			h.mu.Lock()
			chatID := client.ChatID
			roomLeft := false
			if _, ok := h.Rooms[chatID][client]; ok {
				delete(h.Rooms[chatID], client)
				delete(h.Presence[chatID], client.UserID)
				close(client.Send)

				if len(h.Rooms[chatID]) == 0 {
					delete(h.Rooms, chatID)
					delete(h.Presence, chatID)
					logger.Sugar.Infof("Closed empty chat room: %s", chatID)
				} else {
					roomLeft = true
				}
			}
			h.mu.Unlock()

			if roomLeft {
				h.broadcastPresenceUpdate(chatID)
			}

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[msg.ChatID]))
			for client := range h.Rooms[msg.ChatID] {
				// Typing indicators are not echoed back to the typist.
				if msg.Type == TypingType && client.UserID == msg.UserID {
					continue
				}
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					logger.Sugar.Warnf("Client %s's send buffer is full. Dropping connection.", client.UserID)
					client.Conn.Close()
				}
			}
		}
	}
}

// Publish hands an event to the run loop.
func (h *Hub) Publish(msg WSMessage) {
	h.Broadcast <- msg
}

// RemoveChat disconnects every subscriber of a deleted chat.
func (h *Hub) RemoveChat(chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.Presence, chatID)
	if clients, ok := h.Rooms[chatID]; ok {
		for client := range clients {
			client.Conn.Close() // readPump exits and unregisters
		}
	}
}

func (h *Hub) broadcastPresenceUpdate(chatID string) {
	var userStatuses []UserStatus
	var clientsToSend []*Client

	h.mu.Lock()
	if _, ok := h.Presence[chatID]; ok {
		userStatuses = make([]UserStatus, 0, len(h.Presence[chatID]))
		for _, status := range h.Presence[chatID] {
			userStatuses = append(userStatuses, status)
		}

		clientsToSend = make([]*Client, 0, len(h.Rooms[chatID]))
		for client := range h.Rooms[chatID] {
			clientsToSend = append(clientsToSend, client)
		}
	}
	h.mu.Unlock()

	if len(clientsToSend) == 0 {
		return
	}

	payload, err := json.Marshal(userStatuses)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	broadcastPayload, _ := json.Marshal(WSMessage{Type: PresenceUpdateType, ChatID: chatID, Payload: payload})

	for _, client := range clientsToSend {
		select {
		case client.Send <- broadcastPayload:
		default:
			logger.Sugar.Warnf("Client %s's send buffer was full during presence update.", client.UserID)
		}
	}
}
