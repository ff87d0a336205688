package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var JWTSecret = []byte("sprintdesk-secret-2026")

// NewToken signs a 7-day token carrying identity and role flags.
func NewToken(uid int, name string, client, consultant bool) string {
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":        uid,
		"name":       name,
		"client":     client,
		"consultant": consultant,
		"exp":        time.Now().Add(7 * 24 * time.Hour).Unix(),
	}).SignedString(JWTSecret)
	return token
}

func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		token, err := jwt.Parse(auth[7:], func(t *jwt.Token) (interface{}, error) {
			return JWTSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		claims := token.Claims.(jwt.MapClaims)
		c.Set("user_id", int(claims["uid"].(float64)))
		c.Set("user_name", claims["name"].(string))
		c.Set("is_client", claims["client"] == true)
		c.Set("is_consultant", claims["consultant"] == true)

		// renew when less than a day remains
		if exp, ok := claims["exp"].(float64); ok {
			if time.Until(time.Unix(int64(exp), 0)) < 24*time.Hour {
				c.Header("X-New-Token", NewToken(
					int(claims["uid"].(float64)),
					claims["name"].(string),
					claims["client"] == true,
					claims["consultant"] == true,
				))
			}
		}

		c.Next()
	}
}

// ConsultantOnly guards routes that mutate engagements.
func ConsultantOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("is_consultant") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "consultant role required"})
			return
		}
		c.Next()
	}
}
