package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"classifieds/apperr"
	"classifieds/feed"
	"classifieds/middleware"
	"classifieds/models"
	"classifieds/store"
)

type fakePostRepo struct {
	createOut    *models.Post
	createErr    error
	deleteErr    error
	lastType     string
	lastContent  string
	lastImageURL string
	lastAuthor   primitive.ObjectID
	createCalls  int
}

func (f *fakePostRepo) Create(_ context.Context, postType, content string, authorID primitive.ObjectID, imageURL string) (*models.Post, error) {
	f.createCalls++
	f.lastType = postType
	f.lastContent = content
	f.lastAuthor = authorID
	f.lastImageURL = imageURL
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return &models.Post{
		ID:        primitive.NewObjectID(),
		Type:      postType,
		Content:   content,
		AuthorID:  authorID,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (f *fakePostRepo) Delete(_ context.Context, id, requestingUserID primitive.ObjectID) error {
	return f.deleteErr
}

type fakeFeeder struct {
	out     []feed.Item
	err     error
	lastOpt feed.Options
}

func (f *fakeFeeder) Feed(_ context.Context, opts feed.Options) ([]feed.Item, error) {
	f.lastOpt = opts
	return f.out, f.err
}

type fakeImages struct {
	url      string
	err      error
	saved    int
	lastName string
}

func (f *fakeImages) Save(_ context.Context, r io.Reader, filename string) (string, error) {
	f.saved++
	f.lastName = filename
	io.Copy(io.Discard, r)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// identity stands in for the auth middleware on protected routes.
func identity(userID primitive.ObjectID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID.Hex())
		c.Next()
	}
}

func newPostRouter(repo *fakePostRepo, feeder *fakeFeeder, images *fakeImages, id gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewPostHandler(repo, feeder, images)
	router.GET("/api/posts", h.List)
	protected := router.Group("/api")
	if id != nil {
		protected.Use(id)
	}
	protected.POST("/posts", h.Create)
	protected.DELETE("/posts/:id", h.Delete)
	return router
}

func TestCreatePost_JSON(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := &fakePostRepo{}
	router := newPostRouter(repo, &fakeFeeder{}, &fakeImages{}, identity(userID))

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"type":"need","content":"need office space"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, models.TypeNeed, repo.lastType)
	require.Equal(t, "need office space", repo.lastContent)
	require.Equal(t, userID, repo.lastAuthor)
	require.Empty(t, repo.lastImageURL)
	require.Contains(t, w.Body.String(), `"success":true`)
}

func TestCreatePost_NoIdentity(t *testing.T) {
	repo := &fakePostRepo{}
	router := newPostRouter(repo, &fakeFeeder{}, &fakeImages{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"type":"NEED","content":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Zero(t, repo.createCalls)
}

func TestCreatePost_ValidationError(t *testing.T) {
	repo := &fakePostRepo{createErr: store.ValidatePostInput("OTHER", "x")}
	router := newPostRouter(repo, &fakeFeeder{}, &fakeImages{}, identity(primitive.NewObjectID()))

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"type":"OTHER","content":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartBody(t *testing.T, fields map[string]string, imageName string, imageBytes []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if imageName != "" {
		part, err := writer.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = part.Write(imageBytes)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestCreatePost_MultipartWithImage(t *testing.T) {
	repo := &fakePostRepo{}
	images := &fakeImages{url: "/uploads/abc.jpg"}
	router := newPostRouter(repo, &fakeFeeder{}, images, identity(primitive.NewObjectID()))

	body, contentType := multipartBody(t, map[string]string{
		"type":    "HAVE",
		"content": "have a standing desk",
	}, "desk.jpg", []byte("jpeg-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1, images.saved)
	require.Equal(t, "desk.jpg", images.lastName)
	require.Equal(t, "/uploads/abc.jpg", repo.lastImageURL)
}

func TestCreatePost_MultipartWithoutImage(t *testing.T) {
	repo := &fakePostRepo{}
	images := &fakeImages{}
	router := newPostRouter(repo, &fakeFeeder{}, images, identity(primitive.NewObjectID()))

	body, contentType := multipartBody(t, map[string]string{
		"type":    "NEED",
		"content": "need a ride",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Zero(t, images.saved)
}

// A failed upload must abort creation so no post persists a dangling image
// reference.
func TestCreatePost_UploadFailureAbortsCreation(t *testing.T) {
	repo := &fakePostRepo{}
	images := &fakeImages{err: apperr.ErrUpstream}
	router := newPostRouter(repo, &fakeFeeder{}, images, identity(primitive.NewObjectID()))

	body, contentType := multipartBody(t, map[string]string{
		"type":    "HAVE",
		"content": "have a couch",
	}, "couch.png", []byte("png-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Zero(t, repo.createCalls)
}

func TestCreatePost_OversizeImage(t *testing.T) {
	repo := &fakePostRepo{}
	images := &fakeImages{}
	router := newPostRouter(repo, &fakeFeeder{}, images, identity(primitive.NewObjectID()))

	body, contentType := multipartBody(t, map[string]string{
		"type":    "HAVE",
		"content": "have a huge photo",
	}, "huge.jpg", bytes.Repeat([]byte("a"), (5<<20)+1))

	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, images.saved)
	require.Zero(t, repo.createCalls)
}

func TestListPosts(t *testing.T) {
	feeder := &fakeFeeder{out: []feed.Item{
		{ID: "1", Type: "NEED", Content: "need office space", UserName: "Ann"},
	}}
	router := newPostRouter(&fakePostRepo{}, feeder, &fakeImages{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/posts?userId=abc&q=office&type=NEED", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"userName":"Ann"`)
	require.Equal(t, feed.Options{AuthorID: "abc", Query: "office", Type: "NEED"}, feeder.lastOpt)
}

func TestListPosts_ValidationError(t *testing.T) {
	feeder := &fakeFeeder{err: apperr.ErrValidation}
	router := newPostRouter(&fakePostRepo{}, feeder, &fakeImages{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/posts?type=WANT", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePost_Statuses(t *testing.T) {
	for _, tt := range []struct {
		name      string
		deleteErr error
		want      int
	}{
		{"owner", nil, http.StatusOK},
		{"not owner", apperr.ErrForbidden, http.StatusForbidden},
		{"missing", apperr.ErrNotFound, http.StatusNotFound},
		{"store failure", errors.New("disk on fire"), http.StatusInternalServerError},
	} {
		repo := &fakePostRepo{deleteErr: tt.deleteErr}
		router := newPostRouter(repo, &fakeFeeder{}, &fakeImages{}, identity(primitive.NewObjectID()))

		req := httptest.NewRequest(http.MethodDelete, "/api/posts/"+primitive.NewObjectID().Hex(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, tt.want, w.Code, tt.name)
	}
}

func TestDeletePost_MalformedID(t *testing.T) {
	router := newPostRouter(&fakePostRepo{}, &fakeFeeder{}, &fakeImages{}, identity(primitive.NewObjectID()))

	req := httptest.NewRequest(http.MethodDelete, "/api/posts/not-a-hex-id", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
