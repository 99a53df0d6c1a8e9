package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"classifieds/feed"
	"classifieds/middleware"
	"classifieds/models"
	"classifieds/uploads"
)

// PostRepository is the slice of the post store the endpoints need.
type PostRepository interface {
	Create(ctx context.Context, postType, content string, authorID primitive.ObjectID, imageURL string) (*models.Post, error)
	Delete(ctx context.Context, id, requestingUserID primitive.ObjectID) error
}

// Feeder serves the composed, hydrated listing feed.
type Feeder interface {
	Feed(ctx context.Context, opts feed.Options) ([]feed.Item, error)
}

type CreatePostRequest struct {
	Type    string `json:"type" form:"type" binding:"required"`
	Content string `json:"content" form:"content" binding:"required"`
}

type CreatePostResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *models.Post `json:"data"`
}

type PostHandler struct {
	posts  PostRepository
	feed   Feeder
	images uploads.Store
}

func NewPostHandler(posts PostRepository, feeder Feeder, images uploads.Store) *PostHandler {
	return &PostHandler{posts: posts, feed: feeder, images: images}
}

// Create accepts either multipart form data (with an optional image file)
// or a plain JSON body. The image is uploaded before the post is persisted;
// a failed upload aborts creation so no post carries a dangling reference.
func (h *PostHandler) Create(c *gin.Context) {
	authorID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreatePostRequest
	imageURL := ""

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBind(&req); err != nil {
			fail(c, http.StatusBadRequest, "type and content are required")
			return
		}

		file, err := c.FormFile("image")
		if err == nil {
			if file.Size > uploads.MaxImageBytes {
				fail(c, http.StatusBadRequest, "Image must be 5MB or smaller")
				return
			}

			src, err := file.Open()
			if err != nil {
				fail(c, http.StatusBadRequest, "Could not read image")
				return
			}
			defer src.Close()

			ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
			defer cancel()

			imageURL, err = h.images.Save(ctx, src, file.Filename)
			if err != nil {
				failFromError(c, "CreatePost", err)
				return
			}
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "type and content are required")
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := h.posts.Create(ctx, strings.ToUpper(strings.TrimSpace(req.Type)), req.Content, authorID, imageURL)
	if err != nil {
		failFromError(c, "CreatePost", err)
		return
	}

	c.JSON(http.StatusCreated, CreatePostResponse{
		Success: true,
		Message: "Post created successfully",
		Data:    post,
	})
}

// List is the public feed endpoint: ?userId= &q= &type= all optional.
func (h *PostHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	items, err := h.feed.Feed(ctx, feed.Options{
		AuthorID: c.Query("userId"),
		Query:    c.Query("q"),
		Type:     c.Query("type"),
	})
	if err != nil {
		failFromError(c, "ListPosts", err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *PostHandler) Delete(c *gin.Context) {
	requesterID, ok := requireUserID(c)
	if !ok {
		return
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, "Not found")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.posts.Delete(ctx, postID, requesterID); err != nil {
		failFromError(c, "DeletePost", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Post deleted",
	})
}

// requireUserID reads the identity the auth middleware attached. A missing
// or malformed id means the route was wired without the middleware.
func requireUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return primitive.NilObjectID, false
	}
	return id, true
}
