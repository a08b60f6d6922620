package ws

import (
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
)

// RelayTyping forwards a typing start (or stop) from one user to every
// connection of the other user and nobody else. Nothing is remembered
// between a start and its stop; an offline target drops the signal.
// It returns the number of connections reached.
func (h *Hub) RelayTyping(from, to string, stop bool) int {
	if from == "" || to == "" {
		return 0
	}

	eventType := models.EventTyping
	if stop {
		eventType = models.EventStopTyping
	}

	conns := h.registry.ConnectionsFor(to)
	if len(conns) == 0 {
		return 0
	}

	payload, err := h.encode(eventType, models.TypingData{From: from})
	if err != nil {
		return 0
	}
	return h.pushAll(eventType, conns, payload)
}
