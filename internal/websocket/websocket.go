package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256

	// inbound frames per second, with a small burst for reconnect storms
	frameRate  = 5
	frameBurst = 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (phones on the LAN)
	},
}

// Hub maintains the per-game registry of live sockets and fans messages out
// to them. Registrations travel the same queue as broadcasts, so a socket
// sees exactly the events queued after it registered.
type Hub struct {
	log  logger.Logger
	conn services.ConnectionServicer

	// code -> player id -> client
	clients   map[string]map[string]*Client
	broadcast chan delivery
	mutex     sync.RWMutex
}

// Client is one player's socket
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan models.WSMessage
	code     string
	playerID string
	limiter  *rate.Limiter
}

type delivery struct {
	code    string
	to      string  // single player, empty for the whole game
	exclude string  // skipped on game-wide deliveries
	client  *Client // reply to one specific socket
	join    *Client // register this socket
	leave   *Client // unregister this socket
	msg     models.WSMessage
	close   bool // drop every socket of the game after delivering msg
}

type inbound struct {
	Type string `json:"type"`
}

// New creates a new Hub
func New(log logger.Logger, conn services.ConnectionServicer) *Hub {
	return &Hub{
		log:       log,
		conn:      conn,
		clients:   make(map[string]map[string]*Client),
		broadcast: make(chan delivery, sendBuffer),
	}
}

// Start begins the hub's main loop
func (h *Hub) Start() {
	go h.run()
}

func (h *Hub) run() {
	for d := range h.broadcast {
		switch {
		case d.join != nil:
			h.add(d.join)
		case d.leave != nil:
			h.mutex.Lock()
			current := h.remove(d.leave)
			h.mutex.Unlock()
			if current {
				close(d.leave.send)
				go h.conn.Disconnect(context.Background(), d.leave.code, d.leave.playerID)
			}
		default:
			h.deliver(d)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mutex.Lock()
	game := h.clients[client.code]
	if game == nil {
		game = make(map[string]*Client)
		h.clients[client.code] = game
	}
	if old, ok := game[client.playerID]; ok {
		// newer socket wins
		close(old.send)
	}
	game[client.playerID] = client
	h.mutex.Unlock()
	h.log.Debug("Socket registered", "code", client.code, "player", client.playerID)
}

// remove drops client from the registry if it is still the player's current
// socket. Callers hold the mutex.
func (h *Hub) remove(client *Client) bool {
	game := h.clients[client.code]
	if game == nil || game[client.playerID] != client {
		return false
	}
	delete(game, client.playerID)
	if len(game) == 0 {
		delete(h.clients, client.code)
	}
	return true
}

func (h *Hub) deliver(d delivery) {
	var targets []*Client

	h.mutex.RLock()
	game := h.clients[d.code]
	switch {
	case d.client != nil:
		if game[d.client.playerID] == d.client {
			targets = append(targets, d.client)
		}
	case d.to != "":
		if c, ok := game[d.to]; ok {
			targets = append(targets, c)
		}
	default:
		for id, c := range game {
			if id != d.exclude {
				targets = append(targets, c)
			}
		}
	}
	h.mutex.RUnlock()

	var dropped []*Client
	for _, c := range targets {
		select {
		case c.send <- d.msg:
		default:
			dropped = append(dropped, c)
		}
	}

	if d.close {
		h.mutex.Lock()
		for _, c := range h.clients[d.code] {
			close(c.send)
		}
		delete(h.clients, d.code)
		h.mutex.Unlock()
		if len(targets) > 0 {
			h.log.Info("Closed game sockets", "code", d.code, "count", len(targets))
		}
		return
	}

	for _, c := range dropped {
		h.mutex.Lock()
		current := h.remove(c)
		h.mutex.Unlock()
		if current {
			close(c.send)
			h.log.Warn("Dropping slow socket", "code", c.code, "player", c.playerID)
			go h.conn.Disconnect(context.Background(), c.code, c.playerID)
		}
	}
}

// BroadcastToGame sends msg to every socket in the game except excludePlayerID
func (h *Hub) BroadcastToGame(code string, msg models.WSMessage, excludePlayerID string) {
	h.broadcast <- delivery{code: code, exclude: excludePlayerID, msg: msg}
}

// SendToPlayer sends msg to one player's socket, if connected
func (h *Hub) SendToPlayer(code, playerID string, msg models.WSMessage) {
	h.broadcast <- delivery{code: code, to: playerID, msg: msg}
}

// CloseGame tells every socket of the game it was deleted and closes them
func (h *Hub) CloseGame(code string) {
	h.broadcast <- delivery{
		code:  code,
		msg:   models.WSMessage{Type: models.EventGameDeleted, Payload: map[string]string{"code": code}},
		close: true,
	}
}

// ConnectedCount returns the number of live sockets for a game
func (h *Hub) ConnectedCount(code string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[code])
}

func (h *Hub) reply(c *Client, msg models.WSMessage) {
	h.broadcast <- delivery{code: c.code, client: c, msg: msg}
}

// ServeWs validates the game code and session token, upgrades the request and
// registers the socket. Validation errors are returned before anything is
// written so the caller can map them to an HTTP response.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, code, token string) error {
	if err := h.conn.Authorize(r.Context(), code, token); err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade failed", "code", code, "error", err)
		return nil
	}

	var client *Client
	err = h.conn.Connect(context.Background(), code, token, func(playerID string, state *engine.StateSync) {
		client = &Client{
			hub:      h,
			conn:     conn,
			send:     make(chan models.WSMessage, sendBuffer),
			code:     state.Game.Code,
			playerID: playerID,
			limiter:  rate.NewLimiter(frameRate, frameBurst),
		}
		// state_sync is always the first frame
		client.send <- models.WSMessage{Type: models.EventStateSync, Payload: state}
		h.broadcast <- delivery{code: client.code, join: client}
	})
	if err != nil {
		// the game went away between the handshake and the connect
		_ = conn.WriteJSON(errorMessage(err.Error()))
		_ = conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return nil
}

func (c *Client) readPump() {
	defer func() {
		c.hub.broadcast <- delivery{code: c.code, leave: c}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Error("WebSocket error", "code", c.code, "player", c.playerID, "error", err)
			}
			break
		}
		if !c.limiter.Allow() {
			c.hub.reply(c, errorMessage("rate limited"))
			continue
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		c.hub.reply(c, errorMessage("invalid message"))
		return
	}

	switch in.Type {
	case "ping":
		c.hub.reply(c, models.WSMessage{Type: models.EventPong})
	case "sync":
		state, err := c.hub.conn.Sync(context.Background(), c.code, c.playerID)
		if err != nil {
			c.hub.reply(c, errorMessage(err.Error()))
			return
		}
		c.hub.reply(c, models.WSMessage{Type: models.EventStateSync, Payload: state})
	default:
		c.hub.log.Debug("Ignoring socket message", "code", c.code, "type", in.Type)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			data, err := json.Marshal(message)
			if err != nil {
				c.hub.log.Error("Failed to marshal socket message", "type", message.Type, "error", err)
				_ = w.Close()
				continue
			}
			_, _ = w.Write(data)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorMessage(msg string) models.WSMessage {
	return models.WSMessage{Type: models.EventError, Payload: map[string]string{"message": msg}}
}

var _ services.Broadcaster = (*Hub)(nil)
