// Package dedup keeps track of which posts and authors were already replied
// to and filters candidates against that state.
package dedup

import (
	"errors"
	"time"

	"reply-bot/models"
)

// ErrCorruptState is returned by Load when persisted state cannot be decoded.
var ErrCorruptState = errors.New("dedup state is corrupt")

// Snapshot is the loaded dedup state.
type Snapshot struct {
	AuthorLastContact map[string]time.Time
	ContactedPostIDs  map[string]struct{}
}

func NewSnapshot() Snapshot {
	return Snapshot{
		AuthorLastContact: map[string]time.Time{},
		ContactedPostIDs:  map[string]struct{}{},
	}
}

// LoadResult distinguishes a cold start (Found == false) from loaded state.
type LoadResult struct {
	Found    bool
	Snapshot Snapshot
}

func (s Snapshot) Contacted(postID string) bool {
	_, ok := s.ContactedPostIDs[postID]
	return ok
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	c := NewSnapshot()
	for k, v := range s.AuthorLastContact {
		c.AuthorLastContact[k] = v
	}
	for k := range s.ContactedPostIDs {
		c.ContactedPostIDs[k] = struct{}{}
	}
	return c
}

// Mark returns a copy of s with every confirmed post recorded as contacted at now.
func (s Snapshot) Mark(confirmed []models.DraftedPost, now time.Time) Snapshot {
	next := s.Clone()
	for _, p := range confirmed {
		next.AuthorLastContact[p.AuthorID] = now
		next.ContactedPostIDs[p.ID] = struct{}{}
	}
	return next
}
