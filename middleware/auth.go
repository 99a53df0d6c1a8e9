package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"classifieds/models"
	"classifieds/token"
)

// Context keys for the identity resolved by Auth. Request-scoped only.
const (
	ContextUserID    = "userId"
	ContextUserEmail = "userEmail"
	ContextUserName  = "userName"
)

// UserResolver re-resolves the token subject so a valid token for a
// since-deleted account still fails.
type UserResolver interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Auth accepts only the Bearer scheme, verifies the token, confirms the
// subject still exists, and attaches the resolved identity to the request
// context.
func Auth(tokens *token.Service, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "No authorization token provided")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Authorization header must be: Bearer <token>")
			return
		}

		claims, err := tokens.Verify(parts[1])
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				abortUnauthorized(c, "Token expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		subjectID, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := users.FindByID(ctx, subjectID)
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(ContextUserID, user.ID.Hex())
		c.Set(ContextUserEmail, user.Email)
		c.Set(ContextUserName, user.Name)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}
