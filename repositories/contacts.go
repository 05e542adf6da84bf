package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuthorContact is the last time an author was replied to.
// Collection: author_contacts
type AuthorContact struct {
	AuthorID      string    `bson:"author_id"`
	LastContactAt time.Time `bson:"last_contact_at"`
}

// ContactedPost marks a post id as replied to.
// Collection: contacted_posts
type ContactedPost struct {
	PostID      string    `bson:"post_id"`
	ContactedAt time.Time `bson:"contacted_at"`
}

type AuthorContactRepository struct {
	col *mongo.Collection
}

func NewAuthorContactRepository(db *mongo.Database) *AuthorContactRepository {
	return &AuthorContactRepository{col: db.Collection("author_contacts")}
}

func (r *AuthorContactRepository) FindAll(ctx context.Context) ([]AuthorContact, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var out []AuthorContact
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertMany sets last_contact_at for each author in one unordered bulk write.
func (r *AuthorContactRepository) UpsertMany(ctx context.Context, contacts []AuthorContact) error {
	if len(contacts) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(contacts))
	for _, c := range contacts {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"author_id": c.AuthorID}).
			SetUpdate(bson.M{"$set": bson.M{"author_id": c.AuthorID, "last_contact_at": c.LastContactAt}}).
			SetUpsert(true))
	}
	_, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

type ContactedPostRepository struct {
	col *mongo.Collection
}

func NewContactedPostRepository(db *mongo.Database) *ContactedPostRepository {
	return &ContactedPostRepository{col: db.Collection("contacted_posts")}
}

func (r *ContactedPostRepository) FindAll(ctx context.Context) ([]ContactedPost, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var out []ContactedPost
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertMissing records post ids, leaving already stored ids untouched.
func (r *ContactedPostRepository) InsertMissing(ctx context.Context, posts []ContactedPost) error {
	if len(posts) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(posts))
	for _, p := range posts {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"post_id": p.PostID}).
			SetUpdate(bson.M{"$setOnInsert": bson.M{"post_id": p.PostID, "contacted_at": p.ContactedAt}}).
			SetUpsert(true))
	}
	_, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}
