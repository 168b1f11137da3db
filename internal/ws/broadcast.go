// Package ws pushes celebration events and state updates to websocket
// clients. Each client has a buffered send queue drained by its own write
// pump; a client that cannot keep up is disconnected.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/squadplanner/squadxp/internal/app/gamification"
	"github.com/squadplanner/squadxp/internal/domain"
	"github.com/squadplanner/squadxp/internal/infra/metrics"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans engine changes out to connected clients.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	engine   *gamification.Engine
	upgrader websocket.Upgrader
	latest   gamification.LatestFilter
}

// NewBroadcaster creates a broadcaster that sends engine's state to new
// clients. allowedOrigins empty means any origin is accepted.
func NewBroadcaster(engine *gamification.Engine, allowedOrigins []string) *Broadcaster {
	b := &Broadcaster{
		clients: make(map[*client]bool),
		engine:  engine,
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	b.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || allowed["*"] || origin == "" || allowed[origin]
		},
	}
	return b
}

// ServeHTTP upgrades the request and keeps the client registered until its
// connection closes.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	c := b.AddClient(conn)
	go func() {
		defer b.RemoveClient(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// AddClient registers conn and sends it the current state.
func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	n := len(b.clients)
	b.mu.Unlock()
	metrics.WSClients.Set(float64(n))

	data, err := json.Marshal(stateMessage(b.engine.State()))
	if err == nil {
		select {
		case c.send <- data:
		default:
		}
	}
	return c
}

// RemoveClient unregisters c and closes its queue.
func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	n := len(b.clients)
	b.mu.Unlock()
	metrics.WSClients.Set(float64(n))
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// OnChange is an engine listener. Level-ups and unlocks are sent before the
// state frame that contains them. A state frame older than one already sent
// is skipped.
func (b *Broadcaster) OnChange(c gamification.Change) {
	if c.Kind == gamification.ChangeXP && c.Award != nil {
		if c.Award.LeveledUp {
			b.broadcast(WSMessage{
				Type: MsgLevelUp,
				Payload: LevelUpPayload{
					From:  c.Award.FromLevel,
					To:    c.Award.ToLevel,
					Title: gamification.Title(c.Award.ToLevel),
				},
			})
		}
		if a := c.Award.Unlocked; a != nil {
			b.broadcast(WSMessage{
				Type: MsgAchievement,
				Payload: AchievementPayload{
					ID:          a.ID,
					Name:        a.Name,
					Description: a.Description,
					Icon:        a.Icon,
					XPBonus:     a.XPBonus,
				},
			})
		}
	}
	if b.latest.Fresh(c) {
		b.broadcast(stateMessage(c.State))
	}
}

func stateMessage(st domain.State) WSMessage {
	return WSMessage{
		Type: MsgState,
		Payload: StatePayload{
			State:    st,
			Title:    gamification.Title(st.Level),
			Progress: gamification.ComputeProgress(st.XP, st.Level),
		},
	}
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[ws] marshal error: %v", err)
		return
	}

	// Sends happen under the read lock so RemoveClient cannot close a queue
	// mid-send.
	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		log.Printf("[ws] client too slow, disconnecting")
		b.RemoveClient(c)
	}
}
