package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paren-maren/internal/config"
	"paren-maren/internal/room"
)

// Broadcaster pushes room events to connected players; the WS hub implements
// it. Handlers only need this slice of it.
type Broadcaster interface {
	Broadcast(roomID string, action string, data any)
}

// RoomCounter reports how many rooms are live, for the health endpoint.
type RoomCounter interface {
	Len() int
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrRoomExists):
		return http.StatusConflict
	case errors.Is(err, room.ErrNotHost):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// @Summary Create a room
// @Description Create a room with a generated 4-letter code; the caller becomes host
// @Tags Room
// @Accept json
// @Produce json
// @Param request body http.CreateRoomRequest true "Host player info"
// @Success 200 {object} map[string]interface{}
// @Router /rooms [post]
func CreateRoomHandler(rm *room.Manager, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRoomRequest
		if err := c.BindJSON(&req); err != nil || req.PlayerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "playerId required"})
			return
		}
		if req.Name == "" {
			req.Name = "Host"
		}
		// Regenerate on the off chance the code is taken.
		for {
			code := room.NewCode(cfg.RoomCodeLength)
			snap, err := rm.CreateRoom(code, room.Seed{ID: req.PlayerID, Name: req.Name})
			if errors.Is(err, room.ErrRoomExists) {
				continue
			}
			if err != nil {
				c.JSON(statusFor(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"roomId": snap.ID, "room": snap})
			return
		}
	}
}

// @Summary Join a room
// @Description Join an existing room, or create it when createIfMissing is set
// @Tags Room
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param request body http.JoinRoomRequest true "Player info"
// @Success 200 {object} map[string]interface{}
// @Router /rooms/{id}/join [post]
func JoinRoomHandler(rm *room.Manager, hub Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("id")
		var req JoinRoomRequest
		if err := c.BindJSON(&req); err != nil || req.PlayerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "playerId required"})
			return
		}
		if req.Name == "" {
			req.Name = "Player"
		}
		snap, err := rm.Join(roomID, room.Seed{ID: req.PlayerID, Name: req.Name}, req.CreateIfMissing)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		hub.Broadcast(roomID, "roomUpdated", snap)
		c.JSON(http.StatusOK, gin.H{"room": snap})
	}
}

// @Summary Get room state
// @Description Returns the current snapshot of a room
// @Tags Room
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} map[string]interface{}
// @Router /rooms/{id} [get]
func GetRoomHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := rm.SnapshotOf(c.Param("id"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": snap})
	}
}

// @Summary Get game rules
// @Description Returns the active rule policy (win score, dice cap, start checks)
// @Tags Config
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /config/rules [get]
func RulesHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rules": rm.Rules()})
	}
}

// @Summary Health check
// @Description Reports process liveness and the live room count
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func HealthHandler(rooms RoomCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "rooms": rooms.Len()})
	}
}
