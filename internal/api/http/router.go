package http

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"paren-maren/internal/api/ws"
	"paren-maren/internal/config"
	"paren-maren/internal/room"
)

func SetupRouter(rm *room.Manager, hub *ws.Hub, rooms RoomCounter, cfg config.Config) *gin.Engine {
	r := gin.Default()

	// WebSocket for gameplay
	r.GET("/ws", hub.HandleWS)

	// --- ROOM ENDPOINTS ---
	r.POST("/rooms", CreateRoomHandler(rm, cfg))
	r.POST("/rooms/:id/join", JoinRoomHandler(rm, hub))
	r.GET("/rooms/:id", GetRoomHandler(rm))

	// --- CONFIG ENDPOINTS ---
	r.GET("/config/rules", RulesHandler(rm))

	r.GET("/health", HealthHandler(rooms))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
