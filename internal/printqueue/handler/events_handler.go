package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aceless34/PrintingQueue/internal/shared/notify"
)

const heartbeatInterval = 30 * time.Second

// EventsHandler streams side channel messages to dashboards as server-sent events
type EventsHandler struct {
	hub *notify.Hub
}

func NewEventsHandler(hub *notify.Hub) *EventsHandler {
	if hub == nil {
		return nil
	}
	return &EventsHandler{hub: hub}
}

// Stream GET /events. Retained messages are sent first, the event name is the topic.
func (h *EventsHandler) Stream(c *gin.Context) {
	client := h.hub.Register(64)
	defer h.hub.Unregister(client.ID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + client.ID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Topic, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
