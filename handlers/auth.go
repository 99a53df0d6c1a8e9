package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classifieds/models"
)

// CredentialStore is the slice of the user store the auth endpoints need.
type CredentialStore interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
}

// TokenIssuer mints identity tokens for verified users.
type TokenIssuer interface {
	Issue(userID, email, username string) (string, error)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    UserPayload `json:"user"`
	Token   string      `json:"token"`
}

type AuthHandler struct {
	users  CredentialStore
	tokens TokenIssuer
}

func NewAuthHandler(users CredentialStore, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Older clients send "username" instead of "name".
	name := req.Name
	if name == "" {
		name = req.Username
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.users.Register(ctx, name, req.Email, req.Password)
	if err != nil {
		failFromError(c, "Register", err)
		return
	}

	tokenString, err := h.tokens.Issue(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		log.Printf("Register token error: %v", err)
		fail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created successfully",
		User:    UserPayload{ID: user.ID.Hex(), Name: user.Name, Email: user.Email},
		Token:   tokenString,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.users.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		failFromError(c, "Login", err)
		return
	}

	tokenString, err := h.tokens.Issue(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		log.Printf("Login token error: %v", err)
		fail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    UserPayload{ID: user.ID.Hex(), Name: user.Name, Email: user.Email},
		Token:   tokenString,
	})
}
