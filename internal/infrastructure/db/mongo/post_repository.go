package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/creatorspace/community-api/internal/core/domain"
	"github.com/creatorspace/community-api/internal/core/ports"
)

type PostRepository struct {
	posts *mongo.Collection
	users *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{
		posts: db.Collection(collectionPosts),
		users: db.Collection(collectionUsers),
	}
}

type postDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        primitive.ObjectID `bson:"user_id"`
	Title         string             `bson:"title"`
	Description   string             `bson:"description,omitempty"`
	MediaType     string             `bson:"media_type"`
	MediaURL      string             `bson:"media_url"`
	ThumbnailURL  string             `bson:"thumbnail_url,omitempty"`
	Visibility    string             `bson:"visibility"`
	Tags          []string           `bson:"tags,omitempty"`
	LikesCount    int64              `bson:"likes_count"`
	CommentsCount int64              `bson:"comments_count"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`

	// Joined by the read pipelines.
	Author *userDoc `bson:"author,omitempty"`
}

func (d *postDoc) toDomain() *domain.Post {
	p := &domain.Post{
		ID:            d.ID.Hex(),
		UserID:        d.UserID.Hex(),
		Title:         d.Title,
		Description:   d.Description,
		MediaType:     domain.MediaType(d.MediaType),
		MediaURL:      d.MediaURL,
		ThumbnailURL:  d.ThumbnailURL,
		Visibility:    domain.Visibility(d.Visibility),
		Tags:          d.Tags,
		LikesCount:    d.LikesCount,
		CommentsCount: d.CommentsCount,
		TagCount:      len(d.Tags),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	if d.Author != nil {
		p.Username = d.Author.Username
		p.Role = domain.Role(d.Author.Role)
	}
	return p
}

// Create inserts a post. The author must exist, otherwise
// domain.ErrReferenceViolation is returned.
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (string, error) {
	authorID, err := primitive.ObjectIDFromHex(post.UserID)
	if err != nil {
		return "", fmt.Errorf("insert post: %w", domain.ErrReferenceViolation)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.users.CountDocuments(ctx, bson.M{"_id": authorID})
	if err != nil {
		return "", classify("check post author", err)
	}
	if n == 0 {
		return "", fmt.Errorf("insert post: %w", domain.ErrReferenceViolation)
	}

	doc := postDoc{
		UserID:       authorID,
		Title:        post.Title,
		Description:  post.Description,
		MediaType:    string(post.MediaType),
		MediaURL:     post.MediaURL,
		ThumbnailURL: post.ThumbnailURL,
		Visibility:   string(post.Visibility),
		Tags:         post.Tags,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
	}
	res, err := r.posts.InsertOne(ctx, doc)
	if err != nil {
		return "", classify("insert post", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert post: unexpected id type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	posts, _, err := r.query(ctx, bson.M{"_id": oid}, nil, nil, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, domain.ErrNotFound
	}
	return posts[0], nil
}

// Feed returns a page of posts matching filter together with the total
// number of matches.
func (r *PostRepository) Feed(ctx context.Context, filter ports.FeedFilter) ([]*domain.Post, int64, error) {
	match := bson.M{"visibility": string(filter.Visibility)}
	if filter.MediaType != "" {
		match["media_type"] = string(filter.MediaType)
	}
	var authorMatch bson.M
	if filter.Role != "" {
		authorMatch = bson.M{"author.role": string(filter.Role)}
	}
	return r.query(ctx, match, authorMatch, feedSort(filter.Sort), filter.Offset, filter.Limit)
}

func (r *PostRepository) ListByUser(ctx context.Context, userID string, visibility domain.Visibility, offset, limit int) ([]*domain.Post, int64, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, nil
	}
	match := bson.M{"user_id": oid, "visibility": string(visibility)}
	return r.query(ctx, match, nil, feedSort(domain.SortNewest), offset, limit)
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return classify("delete post", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type facetResult struct {
	Posts []postDoc `bson:"posts"`
	Total []struct {
		N int64 `bson:"n"`
	} `bson:"total"`
}

// query joins each post with its author, applies authorMatch to the joined
// document and returns one page plus the match count.
func (r *PostRepository) query(ctx context.Context, match, authorMatch bson.M, sort bson.D, offset, limit int) ([]*domain.Post, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionUsers,
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: "$unwind", Value: "$author"}},
	}
	if authorMatch != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: authorMatch}})
	}

	page := bson.A{}
	if sort != nil {
		page = append(page, bson.M{"$sort": sort})
	}
	page = append(page, bson.M{"$skip": offset}, bson.M{"$limit": limit})
	pipeline = append(pipeline, bson.D{{Key: "$facet", Value: bson.M{
		"posts": page,
		"total": bson.A{bson.M{"$count": "n"}},
	}}})

	cur, err := r.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, classify("query posts", err)
	}
	defer cur.Close(ctx)

	var results []facetResult
	if err := cur.All(ctx, &results); err != nil {
		return nil, 0, classify("decode posts", err)
	}
	if len(results) == 0 {
		return nil, 0, nil
	}

	res := results[0]
	posts := make([]*domain.Post, 0, len(res.Posts))
	for i := range res.Posts {
		posts = append(posts, res.Posts[i].toDomain())
	}
	var total int64
	if len(res.Total) > 0 {
		total = res.Total[0].N
	}
	return posts, total, nil
}

func feedSort(s domain.FeedSort) bson.D {
	if s == domain.SortPopular {
		return bson.D{{Key: "likes_count", Value: -1}, {Key: "created_at", Value: -1}}
	}
	return bson.D{{Key: "created_at", Value: -1}}
}
