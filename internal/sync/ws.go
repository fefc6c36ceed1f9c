package sync

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"slimelist/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // clients authenticate with a token, not cookies
	},
}

// WSHandler upgrades an authenticated request and streams the caller's list
// events until the client disconnects. It must run behind auth.Middleware.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		if err := hub.Add(claims.UserID, ws); err != nil {
			_ = ws.Close()
			return
		}
		hub.logger.Debug("websocket client connected", "user_id", claims.UserID)

		// incoming messages are ignored; reading detects the disconnect
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Remove(claims.UserID, ws)
		hub.logger.Debug("websocket client disconnected", "user_id", claims.UserID)
	}
}
