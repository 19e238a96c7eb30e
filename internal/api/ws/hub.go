// Package ws carries the realtime protocol: one persistent connection per
// player, request/ack per call, and roomUpdated / roomDeleted broadcasts to
// everyone in the room. Which room and player a connection speaks for is
// connection session state, held here and passed into every engine call; the
// engine itself knows nothing about connections.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"paren-maren/internal/config"
	"paren-maren/internal/room"
)

// RoomOps is the slice of the room manager the hub drives.
type RoomOps interface {
	Join(roomID string, seed room.Seed, createIfMissing bool) (room.Snapshot, error)
	Start(roomID, requesterID string) (room.Snapshot, error)
	Roll(roomID, playerID string, faces int) (room.RollResult, error)
	RollParenMaren(roomID, playerID string, faces int) (room.ParenMarenResult, error)
	EndTurn(roomID, playerID string) (room.Snapshot, error)
	Leave(roomID, playerID string) (room.Snapshot, bool, error)
	Disconnect(roomID, playerID string) (room.Snapshot, bool)
}

type session struct {
	roomID   string
	playerID string
}

type client struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	limiter *rate.Limiter
	session session
}

func (c *client) write(msg outbound) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *client) ack(id string, data gin.H) {
	_ = c.write(outbound{Action: ActionAck, ID: id, Data: data})
}

func (c *client) ackError(id, msg string) {
	_ = c.write(outbound{Action: ActionAck, ID: id, Data: gin.H{"ok": false, "error": msg}})
	_ = c.write(outbound{Action: ActionErrorMessage, Data: gin.H{"error": msg}})
}

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
	ops   RoomOps
	cfg   config.Config
	log   zerolog.Logger
}

func NewHub(ops RoomOps, cfg config.Config, log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*client]struct{}),
		ops:   ops,
		cfg:   cfg,
		log:   log.With().Str("component", "ws").Logger(),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWS upgrades the connection and runs its read loop until the peer
// goes away. A connection that vanishes while bound to a room marks its
// player disconnected but never removes them.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	cl := &client{
		id:      uuid.NewString(),
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(h.cfg.WSRatePerSec), h.cfg.WSRateBurst),
	}
	h.log.Debug().Str("conn", cl.id).Msg("connection established")

	defer func() {
		if cl.session.roomID != "" {
			if snap, ok := h.ops.Disconnect(cl.session.roomID, cl.session.playerID); ok {
				h.Broadcast(cl.session.roomID, ActionRoomUpdated, snap)
			}
		}
		h.detach(cl)
		_ = conn.Close()
		h.log.Debug().Str("conn", cl.id).Msg("connection closed")
	}()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		h.dispatch(cl, env)
	}
}

func (h *Hub) dispatch(cl *client, env Envelope) {
	if !cl.limiter.Allow() {
		cl.ackError(env.ID, "too many requests")
		return
	}

	switch env.Action {
	case ActionJoinRoom:
		h.handleJoin(cl, env)
	case ActionStartGame:
		h.handleStart(cl, env)
	case ActionRollDice:
		h.handleRoll(cl, env)
	case ActionRollParenMaren:
		h.handleRollParenMaren(cl, env)
	case ActionEndTurn:
		h.handleEndTurn(cl, env)
	case ActionLeaveRoom:
		h.handleLeave(cl, env)
	default:
		h.log.Warn().Str("action", env.Action).Msg("unknown action")
		cl.ackError(env.ID, "unknown action: "+env.Action)
	}
}

func (h *Hub) handleJoin(cl *client, env Envelope) {
	var p joinPayload
	if env.Data != nil {
		if err := json.Unmarshal(env.Data, &p); err != nil {
			cl.ackError(env.ID, "invalid payload")
			return
		}
	}
	if p.RoomID == "" || p.PlayerID == "" {
		cl.ackError(env.ID, "roomId and playerId are required")
		return
	}
	if p.Name == "" {
		p.Name = "Player"
	}

	snap, err := h.ops.Join(p.RoomID, room.Seed{ID: p.PlayerID, Name: p.Name}, p.CreateIfMissing)
	if err != nil {
		cl.ackError(env.ID, err.Error())
		return
	}

	// Switching rooms on a live connection must stop the old room's
	// broadcasts from reaching it.
	if cl.session.roomID != "" && cl.session.roomID != p.RoomID {
		h.detach(cl)
	}
	cl.session = session{roomID: p.RoomID, playerID: p.PlayerID}
	h.attach(p.RoomID, cl)

	h.Broadcast(p.RoomID, ActionRoomUpdated, snap)
	cl.ack(env.ID, gin.H{"ok": true, "room": snap})
}

func (h *Hub) handleStart(cl *client, env Envelope) {
	s, ok := h.boundSession(cl, env.ID)
	if !ok {
		return
	}
	snap, err := h.ops.Start(s.roomID, s.playerID)
	if err != nil {
		cl.ackError(env.ID, err.Error())
		return
	}
	h.Broadcast(s.roomID, ActionRoomUpdated, snap)
	cl.ack(env.ID, gin.H{"ok": true})
}

func (h *Hub) handleRoll(cl *client, env Envelope) {
	s, ok := h.boundSession(cl, env.ID)
	if !ok {
		return
	}
	var p rollPayload
	if env.Data != nil {
		_ = json.Unmarshal(env.Data, &p)
	}
	res, err := h.ops.Roll(s.roomID, s.playerID, p.Faces)
	if err != nil {
		cl.ackError(env.ID, err.Error())
		return
	}
	h.Broadcast(s.roomID, ActionRoomUpdated, res.Snapshot)
	cl.ack(env.ID, gin.H{
		"ok":            true,
		"last":          res.Last,
		"dice":          res.Snapshot.Dice,
		"canParenMaren": res.Snapshot.CanParenMaren,
	})
}

func (h *Hub) handleRollParenMaren(cl *client, env Envelope) {
	s, ok := h.boundSession(cl, env.ID)
	if !ok {
		return
	}
	var p rollPayload
	if env.Data != nil {
		_ = json.Unmarshal(env.Data, &p)
	}
	res, err := h.ops.RollParenMaren(s.roomID, s.playerID, p.Faces)
	if err != nil {
		cl.ackError(env.ID, err.Error())
		return
	}
	h.Broadcast(s.roomID, ActionRoomUpdated, res.Snapshot)
	cl.ack(env.ID, gin.H{
		"ok":                true,
		"parenMarenPressed": true,
		"multiplier":        res.Multiplier,
	})
}

func (h *Hub) handleEndTurn(cl *client, env Envelope) {
	s, ok := h.boundSession(cl, env.ID)
	if !ok {
		return
	}
	snap, err := h.ops.EndTurn(s.roomID, s.playerID)
	if err != nil {
		cl.ackError(env.ID, err.Error())
		return
	}
	h.Broadcast(s.roomID, ActionRoomUpdated, snap)
	cl.ack(env.ID, gin.H{"ok": true})
}

func (h *Hub) handleLeave(cl *client, env Envelope) {
	s, ok := h.boundSession(cl, env.ID)
	if !ok {
		return
	}
	snap, deleted, err := h.ops.Leave(s.roomID, s.playerID)
	if err != nil {
		cl.ackError(env.ID, err.Error())
		return
	}
	if deleted {
		h.Broadcast(s.roomID, ActionRoomDeleted, gin.H{"roomId": s.roomID})
	} else {
		h.Broadcast(s.roomID, ActionRoomUpdated, snap)
	}
	h.detach(cl)
	cl.session = session{}
	cl.ack(env.ID, gin.H{"ok": true})
}

// boundSession returns the connection's room binding, or acks an error when
// the caller has not joined anything yet.
func (h *Hub) boundSession(cl *client, ackID string) (session, bool) {
	if cl.session.roomID == "" {
		cl.ackError(ackID, "join a room first")
		return session{}, false
	}
	return cl.session, true
}

func (h *Hub) attach(roomID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*client]struct{})
	}
	h.rooms[roomID][cl] = struct{}{}
}

func (h *Hub) detach(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, clients := range h.rooms {
		if _, ok := clients[cl]; ok {
			delete(clients, cl)
			if len(clients) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// Broadcast fans a message out to every connection attached to the room.
// Connections that fail to take the write are dropped.
func (h *Hub) Broadcast(roomID string, action string, data any) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[roomID]))
	for cl := range h.rooms[roomID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	var dead []*client
	for _, cl := range clients {
		if err := cl.write(outbound{Action: action, Data: data}); err != nil {
			h.log.Warn().Str("conn", cl.id).Err(err).Msg("broadcast write failed")
			_ = cl.conn.Close()
			dead = append(dead, cl)
		}
	}
	for _, cl := range dead {
		h.detach(cl)
	}
}
