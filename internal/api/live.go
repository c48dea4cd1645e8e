package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/edukid/backend/internal/progress"
)

// subscriber buffer; a stalled dashboard drops events rather than
// blocking answer recording.
const liveBuffer = 16

// LiveHub fans learning events out to connected teacher dashboards.
type LiveHub struct {
	mu          sync.Mutex
	subscribers map[chan progress.LearningEvent]struct{}
}

// NewLiveHub creates an empty hub.
func NewLiveHub() *LiveHub {
	return &LiveHub{subscribers: make(map[chan progress.LearningEvent]struct{})}
}

// Publish delivers an event to all connected dashboards. Never blocks.
func (h *LiveHub) Publish(e progress.LearningEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

func (h *LiveHub) subscribe() chan progress.LearningEvent {
	ch := make(chan progress.LearningEvent, liveBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *LiveHub) unsubscribe(ch chan progress.LearningEvent) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
}

// Serve upgrades the request to a websocket and streams events until
// the client disconnects.
func (h *LiveHub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	// CloseRead cancels the context when the client goes away.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return ctx.Err()
		case event := <-ch:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
