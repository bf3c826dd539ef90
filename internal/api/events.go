package api

import (
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

const (
	EventReload   = "reload"
	EventExternal = "external"
)

type Event struct {
	Type       string `json:"type"`
	Page       string `json:"page,omitempty"`
	Collection string `json:"collection,omitempty"`
}

const eventBuffer = 16

// hub раздаёт события всем подписчикам; медленный подписчик теряет события, а не тормозит запись.
type hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newHub() *hub { return &hub{subs: make(map[chan Event]struct{})} }

func (h *hub) subscribe() chan Event {
	ch := make(chan Event, eventBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *hub) publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// GET /api/events (SSE): reload после мутаций, external на чужие записи.
func EventsHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch := s.events.subscribe()
		defer s.events.unsubscribe(ch)

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Status(http.StatusOK)
		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case e, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent(e.Type, e)
				return true
			}
		})
	}
}
