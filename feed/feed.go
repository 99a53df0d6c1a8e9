// Package feed composes listing queries and shapes the results for the
// HTTP layer: filter composition, author display-name hydration, and
// serialization-ready output records.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"classifieds/apperr"
	"classifieds/models"
	"classifieds/store"
)

// UnknownUser is attached when an author cannot be resolved, e.g. a
// deleted account.
const UnknownUser = "Unknown User"

// TypeAll matches both listing categories.
const TypeAll = "ALL"

type PostFinder interface {
	Find(ctx context.Context, filter store.PostFilter) ([]models.Post, error)
}

type NameResolver interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	DisplayNames(ctx context.Context, ids []primitive.ObjectID) (map[string]string, error)
}

// Options are the caller-supplied feed filters. All fields are optional.
type Options struct {
	AuthorID string
	Query    string
	Type     string
}

// Item is a shaped post record, ready for direct serialization.
type Item struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	CreatedAt string `json:"createdAt"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

type Service struct {
	posts PostFinder
	users NameResolver
}

func NewService(posts PostFinder, users NameResolver) *Service {
	return &Service{posts: posts, users: users}
}

// Feed executes the composed query and hydrates author names. Hydration is
// best effort: a failed lookup degrades to UnknownUser rather than failing
// the request.
func (s *Service) Feed(ctx context.Context, opts Options) ([]Item, error) {
	filter := store.PostFilter{Query: opts.Query}

	switch t := strings.ToUpper(strings.TrimSpace(opts.Type)); t {
	case "", TypeAll:
	case models.TypeNeed, models.TypeHave:
		filter.Type = t
	default:
		return nil, fmt.Errorf("%w: type must be NEED, HAVE or ALL", apperr.ErrValidation)
	}

	if id := strings.TrimSpace(opts.AuthorID); id != "" {
		authorID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: userId is not a valid id", apperr.ErrValidation)
		}
		filter.AuthorID = &authorID
	}

	posts, err := s.posts.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var names map[string]string
	if filter.AuthorID != nil {
		// "my posts" view: one author, resolve the name directly.
		name := UnknownUser
		if user, err := s.users.FindByID(ctx, *filter.AuthorID); err == nil && user.Name != "" {
			name = user.Name
		}
		names = map[string]string{filter.AuthorID.Hex(): name}
	} else {
		names = s.resolveNames(ctx, posts)
	}

	items := make([]Item, len(posts))
	for i, post := range posts {
		userName := names[post.AuthorID.Hex()]
		if userName == "" {
			userName = UnknownUser
		}
		items[i] = Item{
			ID:        post.ID.Hex(),
			Type:      post.Type,
			Content:   post.Content,
			UserID:    post.AuthorID.Hex(),
			UserName:  userName,
			CreatedAt: post.CreatedAt.UTC().Format(time.RFC3339),
			ImageURL:  post.ImageURL,
		}
	}

	return items, nil
}

// resolveNames batch-fetches display names for the distinct authors in the
// result set. Zero-valued author ids are skipped, and a failed batch lookup
// leaves every name unresolved.
func (s *Service) resolveNames(ctx context.Context, posts []models.Post) map[string]string {
	seen := make(map[primitive.ObjectID]bool, len(posts))
	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, post := range posts {
		if post.AuthorID.IsZero() || seen[post.AuthorID] {
			continue
		}
		seen[post.AuthorID] = true
		ids = append(ids, post.AuthorID)
	}

	names, err := s.users.DisplayNames(ctx, ids)
	if err != nil {
		return map[string]string{}
	}
	return names
}
