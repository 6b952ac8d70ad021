// Package realtime fans campaign progress out to websocket subscribers.
package realtime

import (
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// client serialises writes; gorilla connections allow one writer at a time.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.conn.WriteJSON(v)
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]bool
	upgrader websocket.Upgrader
}

func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: make(map[string]map[*client]bool)}

	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, origin)
		},
	}

	return h
}

// Subscribers reports how many connections follow a campaign.
func (h *Hub) Subscribers(campaignID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[campaignID])
}

func (h *Hub) Publish(event types.ProgressEvent) {
	h.mu.RLock()
	clients, exists := h.clients[event.CampaignID]
	if !exists || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy so the lock is not held while writing.
	subscribers := make([]*client, 0, len(clients))
	for c := range clients {
		subscribers = append(subscribers, c)
	}
	h.mu.RUnlock()

	for _, c := range subscribers {
		if err := c.writeJSON(event); err != nil {
			log.Printf("Failed to broadcast progress for campaign %s: %v", event.CampaignID, err)
			h.remove(event.CampaignID, c)
			c.conn.Close()
		}
	}
}

func (h *Hub) add(campaignID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[campaignID] == nil {
		h.clients[campaignID] = make(map[*client]bool)
	}
	h.clients[campaignID][c] = true
}

func (h *Hub) remove(campaignID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[campaignID]; exists {
		delete(clients, c)

		if len(clients) == 0 {
			delete(h.clients, campaignID)
		}
	}
}

// Serve upgrades the request and blocks until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, campaignID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &client{conn: conn}
	h.add(campaignID, c)

	defer func() {
		h.remove(campaignID, c)
		conn.Close()
	}()

	err = c.writeJSON(map[string]string{
		"type":        "connected",
		"campaign_id": campaignID,
	})

	if err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					log.Printf("Ping failed for campaign %s: %v", campaignID, err)
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for campaign %s: %v", campaignID, err)
			}
			return
		}
	}
}
