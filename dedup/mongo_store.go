package dedup

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"reply-bot/repositories"
)

// MongoStore keeps the snapshot in the author_contacts and contacted_posts
// collections. Timestamps round to milliseconds.
type MongoStore struct {
	authors *repositories.AuthorContactRepository
	posts   *repositories.ContactedPostRepository
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		authors: repositories.NewAuthorContactRepository(db),
		posts:   repositories.NewContactedPostRepository(db),
	}
}

func (s *MongoStore) Load(ctx context.Context) (LoadResult, error) {
	authors, err := s.authors.FindAll(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	posts, err := s.posts.FindAll(ctx)
	if err != nil {
		return LoadResult{}, err
	}

	snap := NewSnapshot()
	if len(authors) == 0 && len(posts) == 0 {
		return LoadResult{Found: false, Snapshot: snap}, nil
	}
	for _, a := range authors {
		snap.AuthorLastContact[a.AuthorID] = a.LastContactAt
	}
	for _, p := range posts {
		snap.ContactedPostIDs[p.PostID] = struct{}{}
	}
	return LoadResult{Found: true, Snapshot: snap}, nil
}

// Save upserts every author timestamp and inserts post ids that are not yet
// stored. Stored post ids are never removed.
func (s *MongoStore) Save(ctx context.Context, snap Snapshot) error {
	contacts := make([]repositories.AuthorContact, 0, len(snap.AuthorLastContact))
	for id, t := range snap.AuthorLastContact {
		contacts = append(contacts, repositories.AuthorContact{AuthorID: id, LastContactAt: t})
	}
	now := time.Now()
	posts := make([]repositories.ContactedPost, 0, len(snap.ContactedPostIDs))
	for id := range snap.ContactedPostIDs {
		posts = append(posts, repositories.ContactedPost{PostID: id, ContactedAt: now})
	}

	if err := s.authors.UpsertMany(ctx, contacts); err != nil {
		return err
	}
	return s.posts.InsertMissing(ctx, posts)
}
