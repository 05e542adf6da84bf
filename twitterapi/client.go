// Package twitterapi talks to the third-party search and posting API used by
// the bot: advanced search for candidates and create_tweet_v2 for replies.
package twitterapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"reply-bot/logger"
	"reply-bot/models"
)

const (
	searchPath      = "/twitter/tweet/advanced_search"
	createTweetPath = "/twitter/create_tweet_v2"

	// replies and retweets are never reply candidates
	searchOperators = "-filter:replies -filter:retweets"
)

type Config struct {
	BaseURL     string
	APIKey      string
	AuthSession string
	SessionFile string
	Proxy       string
	Timeout     time.Duration

	// MaxRetries applies to search page requests only. Posting is never
	// retried because a lost response may still have published the reply.
	MaxRetries int
	RetryDelay time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	search failsafe.Executor[*searchResponse]
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	policy := retrypolicy.NewBuilder[*searchResponse]().
		HandleIf(func(_ *searchResponse, err error) bool {
			return retryable(err)
		}).
		WithBackoff(cfg.RetryDelay, 10*cfg.RetryDelay).
		WithMaxRetries(cfg.MaxRetries).
		ReturnLastFailure().
		Build()

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		search: failsafe.With(policy),
	}
}

// Fetch returns up to maxCount posts matching query, following result pages.
func (c *Client) Fetch(ctx context.Context, query, queryType string, maxCount int) ([]models.Post, error) {
	if maxCount <= 0 {
		return []models.Post{}, nil
	}
	fullQuery := strings.TrimSpace(query + " " + searchOperators)

	var posts []models.Post
	seen := make(map[string]struct{})
	cursor := ""
	for len(posts) < maxCount {
		page, err := c.search.WithContext(ctx).Get(func() (*searchResponse, error) {
			return c.searchPage(ctx, fullQuery, queryType, cursor)
		})
		if err != nil {
			return nil, err
		}
		// pages can overlap while new posts arrive
		for _, t := range page.Tweets {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			posts = append(posts, t.toPost())
		}
		if !page.HasNextPage || len(page.Tweets) == 0 || page.NextCursor == "" || page.NextCursor == cursor {
			break
		}
		cursor = page.NextCursor
	}

	if len(posts) > maxCount {
		posts = posts[:maxCount]
	}
	return posts, nil
}

func (c *Client) searchPage(ctx context.Context, query, queryType, cursor string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("queryType", queryType)
	params.Set("cursor", cursor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &models.FetchError{Err: err}
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodySample, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		logger.Log.Warnf("search page failed: status=%d cursor=%q", resp.StatusCode, cursor)
		return nil, &models.FetchError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(http.StatusText(resp.StatusCode) + " " + string(bodySample)),
		}
	}

	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &models.FetchError{Message: "invalid search response", Err: err}
	}
	return &page, nil
}

// PostReply publishes text as a reply to postID and returns the new post id.
func (c *Client) PostReply(ctx context.Context, postID, text string) (string, error) {
	session := c.session()
	if session == "" {
		return "", &models.PostError{PostID: postID, Err: errors.New("no login session: set AUTH_SESSION or write the session file")}
	}
	if c.cfg.Proxy == "" {
		return "", &models.PostError{PostID: postID, Err: errors.New("WEBSHARE_PROXY is required for posting")}
	}

	body, err := json.Marshal(createTweetRequest{
		LoginCookies:   session,
		TweetText:      text,
		Proxy:          c.cfg.Proxy,
		ReplyToTweetID: postID,
	})
	if err != nil {
		return "", &models.PostError{PostID: postID, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+createTweetPath, bytes.NewReader(body))
	if err != nil {
		return "", &models.PostError{PostID: postID, Err: err}
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &models.PostError{PostID: postID, Err: err}
	}
	defer resp.Body.Close()

	// the platform may report failure with HTTP 200, so the body decides
	var out createTweetResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out)

	if decodeErr != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 || out.Status != "success" || out.TweetID == "" {
		msg := out.Msg
		var cause error
		switch {
		case decodeErr != nil && resp.StatusCode >= 200 && resp.StatusCode < 300:
			msg = "invalid create_tweet response"
			cause = decodeErr
		case out.Status == "success" && out.TweetID == "":
			msg = "missing tweet_id in response"
		case msg == "":
			msg = http.StatusText(resp.StatusCode)
		}
		return "", &models.PostError{
			PostID:     postID,
			StatusCode: resp.StatusCode,
			Status:     out.Status,
			Message:    msg,
			Err:        cause,
		}
	}
	return out.TweetID, nil
}

// session prefers the session file over the configured value.
func (c *Client) session() string {
	if c.cfg.SessionFile != "" {
		if data, err := os.ReadFile(c.cfg.SessionFile); err == nil {
			if s := strings.TrimSpace(string(data)); s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(c.cfg.AuthSession)
}

// SaveSession writes a login session for later PostReply calls.
func SaveSession(path, session string) error {
	if err := os.WriteFile(path, []byte(strings.TrimSpace(session)), 0600); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var fe *models.FetchError
	if errors.As(err, &fe) && fe.StatusCode != 0 {
		return fe.StatusCode >= 500 || fe.StatusCode == http.StatusTooManyRequests
	}
	return true
}
