package ws

import (
	"log/slog"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
)

// Deliver pushes a newly persisted message to every connection of its
// receiver and of its sender, so the sender's other devices see it too.
// Callers guarantee the message is already stored. Each connection receives
// the event exactly once per call; clients de-duplicate by message id.
func (h *Hub) Deliver(msg *models.Message) int {
	return h.deliver(msg, models.EventNewMessage, msg.Public())
}

// DeliverEdited propagates an edited message.
func (h *Hub) DeliverEdited(msg *models.Message) int {
	return h.deliver(msg, models.EventMessageEdited, msg.Public())
}

// DeliverDeleted propagates a soft delete.
func (h *Hub) DeliverDeleted(msg *models.Message) int {
	return h.deliver(msg, models.EventMessageDeleted, models.MessageDeletedData{MessageID: msg.ID})
}

// DeliverReaction propagates the message's current reaction map.
func (h *Hub) DeliverReaction(msg *models.Message) int {
	reactions := msg.Reactions
	if reactions == nil {
		reactions = map[string]string{}
	}
	return h.deliver(msg, models.EventMessageReacted, models.MessageReactedData{
		MessageID: msg.ID,
		Reactions: reactions,
	})
}

func (h *Hub) deliver(msg *models.Message, eventType string, data interface{}) int {
	conns := h.participants(msg)
	if len(conns) == 0 {
		slog.Debug("[HUB] No live connections for delivery", "type", eventType, "message", msg.ID)
		return 0
	}

	payload, err := h.encode(eventType, data)
	if err != nil {
		return 0
	}

	sent := h.pushAll(eventType, conns, payload)
	slog.Debug("[HUB] Delivered", "type", eventType, "message", msg.ID, "sent", sent, "resolved", len(conns))
	return sent
}

// participants resolves receiver and sender connections, each at most once
// (a note-to-self resolves the same set twice).
func (h *Hub) participants(msg *models.Message) []Conn {
	seen := make(map[string]struct{})
	var out []Conn

	for _, userID := range []string{msg.ReceiverID, msg.SenderID} {
		for _, c := range h.registry.ConnectionsFor(userID) {
			if _, ok := seen[c.ID()]; ok {
				continue
			}
			seen[c.ID()] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
