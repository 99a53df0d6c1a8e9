// Package handlers holds the HTTP endpoints. Request and response bodies
// are explicit schema types validated at the boundary; every failure is
// translated into the {success, message} envelope here and nowhere else.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"classifieds/apperr"
)

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// failFromError maps a domain error onto the taxonomy. Internal detail from
// the store or upstream services is logged, never echoed to the client.
func failFromError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		fail(c, http.StatusConflict, "Email already in use")
	case errors.Is(err, apperr.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, apperr.ErrForbidden):
		fail(c, http.StatusForbidden, "You can only delete your own posts")
	case errors.Is(err, apperr.ErrNotFound):
		fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, apperr.ErrUpstream):
		log.Printf("%s upstream error: %v", op, err)
		fail(c, http.StatusInternalServerError, "Image upload failed")
	default:
		log.Printf("%s error: %v", op, err)
		fail(c, http.StatusInternalServerError, "Something went wrong")
	}
}
