package twitterapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reply-bot/models"
	"reply-bot/twitterapi"
)

func tweet(id, author string, blue bool, likes int) map[string]any {
	return map[string]any{
		"id":           id,
		"text":         "text of " + id,
		"likeCount":    likes,
		"retweetCount": 1,
		"replyCount":   2,
		"quoteCount":   0,
		"viewCount":    1000,
		"createdAt":    "Tue Mar 04 10:00:00 +0000 2025",
		"author": map[string]any{
			"id":             "a-" + author,
			"userName":       author,
			"isBlueVerified": blue,
		},
	}
}

func newClient(url string) *twitterapi.Client {
	return twitterapi.New(twitterapi.Config{
		BaseURL:    url,
		APIKey:     "secret",
		Proxy:      "http://proxy",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
}

func TestFetch_FollowsCursorAndTruncates(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/twitter/tweet/advanced_search", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Equal(t, "ai agents -filter:replies -filter:retweets", r.URL.Query().Get("query"))
		assert.Equal(t, "Latest", r.URL.Query().Get("queryType"))

		switch r.URL.Query().Get("cursor") {
		case "":
			json.NewEncoder(w).Encode(map[string]any{
				"tweets":        []any{tweet("1", "alice", true, 10), tweet("2", "bob", false, 3)},
				"has_next_page": true,
				"next_cursor":   "c2",
			})
		case "c2":
			json.NewEncoder(w).Encode(map[string]any{
				"tweets":        []any{tweet("3", "carol", false, 7), tweet("4", "dave", false, 1)},
				"has_next_page": true,
				"next_cursor":   "c3",
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	posts, err := newClient(srv.URL).Fetch(context.Background(), "ai agents", "Latest", 3)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	first := posts[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "a-alice", first.AuthorID)
	assert.Equal(t, "alice", first.AuthorHandle)
	assert.True(t, first.IsPrimarySegment)
	assert.Equal(t, 10, first.Likes)
	assert.Equal(t, 1000, first.Views)
	assert.Equal(t, 2025, first.CreatedAt.Year())
	assert.False(t, posts[1].IsPrimarySegment)
}

func TestFetch_StopsWhenNoNextPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tweets":        []any{tweet("1", "alice", false, 10)},
			"has_next_page": false,
		})
	}))
	defer srv.Close()

	posts, err := newClient(srv.URL).Fetch(context.Background(), "x", "Latest", 50)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestFetch_DropsPostRepeatedOnLaterPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("cursor") {
		case "":
			json.NewEncoder(w).Encode(map[string]any{
				"tweets":        []any{tweet("1", "alice", false, 10), tweet("2", "bob", false, 3)},
				"has_next_page": true,
				"next_cursor":   "c2",
			})
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"tweets":        []any{tweet("2", "bob", false, 3), tweet("3", "carol", false, 7)},
				"has_next_page": false,
			})
		}
	}))
	defer srv.Close()

	posts, err := newClient(srv.URL).Fetch(context.Background(), "x", "Latest", 10)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{posts[0].ID, posts[1].ID, posts[2].ID})
}

func TestFetch_ZeroMaxDoesNotCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("search must not be called")
	}))
	defer srv.Close()

	posts, err := newClient(srv.URL).Fetch(context.Background(), "x", "Latest", 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFetch_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Fetch(context.Background(), "x", "Latest", 10)
	require.Error(t, err)

	var fe *models.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
	assert.Contains(t, fe.Message, "bad key")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"tweets": []any{tweet("9", "zed", false, 4)}})
	}))
	defer srv.Close()

	posts, err := newClient(srv.URL).Fetch(context.Background(), "x", "Latest", 10)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPostReply_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/twitter/create_tweet_v2", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cookie", body["login_cookies"])
		assert.Equal(t, "hello there", body["tweet_text"])
		assert.Equal(t, "http://proxy", body["proxy"])
		assert.Equal(t, "42", body["reply_to_tweet_id"])

		json.NewEncoder(w).Encode(map[string]string{"status": "success", "tweet_id": "777"})
	}))
	defer srv.Close()

	c := twitterapi.New(twitterapi.Config{BaseURL: srv.URL, APIKey: "k", AuthSession: "cookie", Proxy: "http://proxy"})
	id, err := c.PostReply(context.Background(), "42", "hello there")
	require.NoError(t, err)
	assert.Equal(t, "777", id)
}

func TestPostReply_PlatformFailureWithOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "msg": "duplicate content"})
	}))
	defer srv.Close()

	c := twitterapi.New(twitterapi.Config{BaseURL: srv.URL, AuthSession: "cookie", Proxy: "p"})
	_, err := c.PostReply(context.Background(), "42", "hi")

	var pe *models.PostError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "42", pe.PostID)
	assert.Equal(t, "error", pe.Status)
	assert.Equal(t, "duplicate content", pe.Message)
}

func TestPostReply_MissingTweetID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer srv.Close()

	c := twitterapi.New(twitterapi.Config{BaseURL: srv.URL, AuthSession: "cookie", Proxy: "p"})
	_, err := c.PostReply(context.Background(), "42", "hi")

	var pe *models.PostError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Message, "tweet_id")
}

func TestPostReply_UndecodableOKBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway hiccup</html>"))
	}))
	defer srv.Close()

	c := twitterapi.New(twitterapi.Config{BaseURL: srv.URL, AuthSession: "cookie", Proxy: "p"})
	_, err := c.PostReply(context.Background(), "42", "hi")

	var pe *models.PostError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusOK, pe.StatusCode)
	assert.Equal(t, "invalid create_tweet response", pe.Message)
	require.Error(t, pe.Err)
	assert.Contains(t, err.Error(), "invalid create_tweet response")
	assert.Contains(t, err.Error(), "invalid character")
}

func TestPostReply_SessionFileWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".auth_session")
	require.NoError(t, os.WriteFile(path, []byte("  from-file\n"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "from-file", body["login_cookies"])
		json.NewEncoder(w).Encode(map[string]string{"status": "success", "tweet_id": "1"})
	}))
	defer srv.Close()

	c := twitterapi.New(twitterapi.Config{BaseURL: srv.URL, AuthSession: "from-env", SessionFile: path, Proxy: "p"})
	_, err := c.PostReply(context.Background(), "42", "hi")
	require.NoError(t, err)
}

func TestPostReply_RequiresSessionAndProxy(t *testing.T) {
	c := twitterapi.New(twitterapi.Config{BaseURL: "http://127.0.0.1:1", Proxy: "p"})
	_, err := c.PostReply(context.Background(), "42", "hi")
	assert.ErrorContains(t, err, "session")

	c = twitterapi.New(twitterapi.Config{BaseURL: "http://127.0.0.1:1", AuthSession: "cookie"})
	_, err = c.PostReply(context.Background(), "42", "hi")
	assert.ErrorContains(t, err, "WEBSHARE_PROXY")
}
