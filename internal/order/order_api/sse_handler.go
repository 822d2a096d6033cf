package order_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tourbook/internal/auth"
	"tourbook/internal/logger"
	"tourbook/internal/models"
	"tourbook/internal/sse"
	"tourbook/internal/utils"
)

// SSEHandler streams order status changes to the owning user.
type SSEHandler struct {
	Logger       *logger.Logger
	EventEmitter *sse.OrderEventEmitter
	Heartbeat    time.Duration
}

func NewSSEHandler(log *logger.Logger, emitter *sse.OrderEventEmitter) *SSEHandler {
	return &SSEHandler{
		Logger:       log,
		EventEmitter: emitter,
		Heartbeat:    25 * time.Second,
	}
}

// HandleOrderEvents streams events for the caller's orders until the client
// disconnects.
func (h *SSEHandler) HandleOrderEvents(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteError(w, http.StatusInternalServerError, "Streaming unsupported", "")
		return
	}

	h.setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.EventEmitter.Subscribe(ctx, userID)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("Client connected to order events for user %s", userID))

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			h.writeEvent(w, event)
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from order events for user %s", userID))
			return
		}
	}
}

// Emit forwards a consumed event to subscribers.
func (h *SSEHandler) Emit(event models.OrderEvent) {
	n := h.EventEmitter.Emit(event)
	h.Logger.Debug("SSE", fmt.Sprintf("Order %s status %s delivered to %d client(s)", event.OrderID, event.Status, n))
}

func (h *SSEHandler) writeEvent(w http.ResponseWriter, event models.OrderEvent) {
	jsonData, err := json.Marshal(event)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize order event: %v", err))
		return
	}
	fmt.Fprintf(w, "event: order\ndata: %s\n\n", jsonData)
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}
