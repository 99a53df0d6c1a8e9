package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classifieds/apperr"
	"classifieds/models"
)

const maxContentLen = 1000

// PostFilter narrows a post query. Zero values mean no constraint.
type PostFilter struct {
	AuthorID *primitive.ObjectID
	Type     string
	Query    string
}

// Criteria builds the MongoDB filter document. Free text is escaped with
// regexp.QuoteMeta so metacharacters match literally instead of being
// interpreted as a pattern.
func (f PostFilter) Criteria() bson.M {
	criteria := bson.M{}
	if f.AuthorID != nil {
		criteria["authorId"] = *f.AuthorID
	}
	if f.Type == models.TypeNeed || f.Type == models.TypeHave {
		criteria["type"] = f.Type
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		criteria["content"] = bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	}
	return criteria
}

type PostStore struct {
	coll *mongo.Collection
}

func NewPostStore(db *mongo.Database) *PostStore {
	return &PostStore{coll: db.Collection("posts")}
}

func (s *PostStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	return err
}

// ValidatePostInput checks the type enum and content bounds. Content is
// validated after trimming.
func ValidatePostInput(postType, content string) error {
	if postType != models.TypeNeed && postType != models.TypeHave {
		return fmt.Errorf("%w: type must be NEED or HAVE", apperr.ErrValidation)
	}
	if n := len([]rune(content)); n < 1 || n > maxContentLen {
		return fmt.Errorf("%w: content must be between 1 and %d characters", apperr.ErrValidation, maxContentLen)
	}
	return nil
}

func (s *PostStore) Create(ctx context.Context, postType, content string, authorID primitive.ObjectID, imageURL string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if err := ValidatePostInput(postType, content); err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:        primitive.NewObjectID(),
		Type:      postType,
		Content:   content,
		AuthorID:  authorID,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.coll.InsertOne(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Find returns matching posts, always newest first. The ordering is part of
// the contract, not an option.
func (s *PostStore) Find(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, filter.Criteria(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Delete removes a post after checking ownership. The post is read first so
// a missing post and someone else's post fail differently.
func (s *PostStore) Delete(ctx context.Context, id, requestingUserID primitive.ObjectID) error {
	var post models.Post
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return apperr.ErrNotFound
	}
	if err != nil {
		return err
	}

	if post.AuthorID != requestingUserID {
		return apperr.ErrForbidden
	}

	_, err = s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
