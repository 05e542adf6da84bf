package dedup

import "context"

// Logical names of the two persisted maps.
const (
	AuthorContactsName = "author_contacts"
	ContactedPostsName = "contacted_posts"
)

// Store persists the dedup snapshot. A missing store loads as
// LoadResult{Found: false} and never as an error.
type Store interface {
	Load(ctx context.Context) (LoadResult, error)
	Save(ctx context.Context, snap Snapshot) error
}
