package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileStore keeps the snapshot as two JSON files under Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) authorPath() string {
	return filepath.Join(s.Dir, AuthorContactsName+".json")
}

func (s *FileStore) postsPath() string {
	return filepath.Join(s.Dir, ContactedPostsName+".json")
}

func (s *FileStore) Load(ctx context.Context) (LoadResult, error) {
	snap := NewSnapshot()

	authorData, authorFound, err := readOptional(s.authorPath())
	if err != nil {
		return LoadResult{}, err
	}
	postData, postsFound, err := readOptional(s.postsPath())
	if err != nil {
		return LoadResult{}, err
	}
	if !authorFound && !postsFound {
		return LoadResult{Found: false, Snapshot: snap}, nil
	}

	if authorFound {
		var raw map[string]string
		if err := json.Unmarshal(authorData, &raw); err != nil {
			return LoadResult{}, fmt.Errorf("%w: %s: %v", ErrCorruptState, s.authorPath(), err)
		}
		for id, ts := range raw {
			t, err := time.Parse(time.RFC3339Nano, ts)
			if err != nil {
				return LoadResult{}, fmt.Errorf("%w: author %s: %v", ErrCorruptState, id, err)
			}
			snap.AuthorLastContact[id] = t
		}
	}
	if postsFound {
		var ids []string
		if err := json.Unmarshal(postData, &ids); err != nil {
			return LoadResult{}, fmt.Errorf("%w: %s: %v", ErrCorruptState, s.postsPath(), err)
		}
		for _, id := range ids {
			snap.ContactedPostIDs[id] = struct{}{}
		}
	}
	return LoadResult{Found: true, Snapshot: snap}, nil
}

// Save writes both files to temporary names first and renames them once both
// writes succeeded.
func (s *FileStore) Save(ctx context.Context, snap Snapshot) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return err
	}

	authors := make(map[string]string, len(snap.AuthorLastContact))
	for id, t := range snap.AuthorLastContact {
		authors[id] = t.UTC().Format(time.RFC3339Nano)
	}
	ids := make([]string, 0, len(snap.ContactedPostIDs))
	for id := range snap.ContactedPostIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	authorTmp, err := writeTemp(s.authorPath(), authors)
	if err != nil {
		return err
	}
	postsTmp, err := writeTemp(s.postsPath(), ids)
	if err != nil {
		os.Remove(authorTmp)
		return err
	}
	if err := os.Rename(authorTmp, s.authorPath()); err != nil {
		os.Remove(authorTmp)
		os.Remove(postsTmp)
		return err
	}
	return os.Rename(postsTmp, s.postsPath())
}

func readOptional(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func writeTemp(path string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", err
	}
	return tmp, nil
}
