package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const SubjectKey = "subject"

type TokenParser interface {
	Parse(token string) (string, error)
}

// JWT requires "Authorization: Bearer <token>" and stores the token subject
// under SubjectKey.
func JWT(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		subject, err := parser.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		c.Set(SubjectKey, subject)
		c.Next()
	}
}
