package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/creatorspace/community-api/internal/core/domain"
)

type UserRepository struct {
	users *mongo.Collection
	posts *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users: db.Collection(collectionUsers),
		posts: db.Collection(collectionPosts),
	}
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email,omitempty"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// Create inserts a user and returns its id. A taken username fails with
// domain.ErrUniqueViolation.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		return "", classify("insert user", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, classify("find user", err)
	}
	return doc.toDomain(), nil
}

// Update sets only the fields present in update.
func (r *UserRepository) Update(ctx context.Context, id string, update domain.UserUpdate) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Role != nil {
		set["role"] = string(*update.Role)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return classify("update user", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the user and the posts they authored.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return classify("delete user", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.posts.DeleteMany(ctx, bson.M{"user_id": oid}); err != nil {
		return classify("delete user posts", err)
	}
	return nil
}

// classify maps driver errors onto the domain storage signals.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, domain.ErrUniqueViolation)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
