package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/handler/http/middleware"
	"github.com/cmlabs-hris/jamaica-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/sse"
)

// EventSubscriber is the subscription side of the batch event hub.
type EventSubscriber interface {
	Subscribe(companyID string) (<-chan sse.Event, func())
	SubscriberCount(companyID string) int
}

type EventsHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type eventsHandlerImpl struct {
	hub       EventSubscriber
	keepalive time.Duration
}

func NewEventsHandler(hub EventSubscriber) EventsHandler {
	return &eventsHandlerImpl{hub: hub, keepalive: 30 * time.Second}
}

// Stream handles SSE connection for batch lifecycle events of the caller's company
func (h *eventsHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	companyID, err := middleware.CompanyID(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(companyID)
	defer func() {
		cleanup()
		slog.Debug("Event stream closed", "company_id", companyID, "subscribers", h.hub.SubscriberCount(companyID))
	}()
	slog.Debug("Event stream opened", "company_id", companyID, "subscribers", h.hub.SubscriberCount(companyID))

	// Send initial connection event
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"company_id\":\"%s\"}\n\n", companyID)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
