// Package store persists users and posts in MongoDB. Stores are handed a
// database handle at construction and hold no global state.
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
	"golang.org/x/crypto/bcrypt"

	"classifieds/apperr"
	"classifieds/models"
)

// hashCost keeps bcrypt slow enough to resist offline brute force while
// staying usable for interactive login.
const hashCost = bcrypt.DefaultCost

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection("users")}
}

// EnsureIndexes creates the unique email index. Registration also checks
// for duplicates up front; the index closes the race between concurrent
// registrations.
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// NormalizeEmail lowercases and trims an address so uniqueness and lookups
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration checks the format/length rules for a new account.
func ValidateRegistration(name, email, password string) error {
	if n := len([]rune(name)); n < 1 || n > 50 {
		return fmt.Errorf("%w: name must be between 1 and 50 characters", apperr.ErrValidation)
	}
	if !emailRx.MatchString(email) {
		return fmt.Errorf("%w: email address is not valid", apperr.ErrValidation)
	}
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", apperr.ErrValidation)
	}
	if len(password) > 72 {
		// bcrypt truncates beyond 72 bytes
		return fmt.Errorf("%w: password must be at most 72 characters", apperr.ErrValidation)
	}
	return nil
}

func (s *UserStore) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if err := ValidateRegistration(name, email, password); err != nil {
		return nil, err
	}

	err := s.coll.FindOne(ctx, bson.M{"email": email}).Err()
	if err == nil {
		return nil, fmt.Errorf("%w: email already in use", apperr.ErrConflict)
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: email already in use", apperr.ErrConflict)
		}
		return nil, err
	}

	return user, nil
}

// VerifyCredentials returns the user for a matching email/password pair.
// Unknown email and wrong password both come back as ErrUnauthorized so the
// response cannot be used to enumerate accounts.
func (s *UserStore) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperr.ErrUnauthorized
	}

	return &user, nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DisplayNames batch-fetches display names for the given ids, keyed by hex
// id. Ids with no matching user are simply absent from the result.
func (s *UserStore) DisplayNames(ctx context.Context, ids []primitive.ObjectID) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID.Hex()] = u.Name
	}
	return names, nil
}
