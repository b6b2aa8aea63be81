package ws

import (
	"net/http"
	"strings"

	"taskora/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenParser validates a bearer token and returns its subject.
type TokenParser interface {
	Parse(token string) (string, error)
}

// HandleWS upgrades the request and subscribes the connection to the hub.
// With a non-nil auth the token is read from the "token" query parameter or
// the Authorization header. allowedOrigins containing "*" accepts any origin.
func HandleWS(hub *Hub, allowedOrigins []string, auth TokenParser) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}

	return func(c *gin.Context) {
		if auth != nil {
			token := c.Query("token")
			if token == "" {
				token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
			}
			if _, err := auth.Parse(token); err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("ws upgrade error", "error", err)
			return
		}

		go NewClient(conn, hub).Run()
	}
}
