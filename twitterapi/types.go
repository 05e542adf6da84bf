package twitterapi

import (
	"strings"
	"time"

	"reply-bot/models"
)

type apiAuthor struct {
	ID             string `json:"id"`
	UserName       string `json:"userName"`
	IsBlueVerified bool   `json:"isBlueVerified"`
	VerifiedType   string `json:"verifiedType"`
}

type apiTweet struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	LikeCount      int       `json:"likeCount"`
	RetweetCount   int       `json:"retweetCount"`
	ReplyCount     int       `json:"replyCount"`
	QuoteCount     int       `json:"quoteCount"`
	ViewCount      int       `json:"viewCount"`
	CreatedAt      string    `json:"createdAt"`
	IsLimitedReply bool      `json:"isLimitedReply,omitempty"`
	Author         apiAuthor `json:"author"`
}

type searchResponse struct {
	Tweets      []apiTweet `json:"tweets"`
	HasNextPage bool       `json:"has_next_page"`
	NextCursor  string     `json:"next_cursor"`
}

type createTweetRequest struct {
	LoginCookies   string `json:"login_cookies"`
	TweetText      string `json:"tweet_text"`
	Proxy          string `json:"proxy"`
	ReplyToTweetID string `json:"reply_to_tweet_id"`
}

type createTweetResponse struct {
	TweetID string `json:"tweet_id"`
	Status  string `json:"status"`
	Msg     string `json:"msg"`
}

// toPost maps an API tweet to the pipeline's Post.
func (t apiTweet) toPost() models.Post {
	return models.Post{
		ID:               t.ID,
		AuthorID:         t.Author.ID,
		AuthorHandle:     t.Author.UserName,
		IsPrimarySegment: t.Author.IsBlueVerified,
		Text:             t.Text,
		Likes:            t.LikeCount,
		Retweets:         t.RetweetCount,
		Replies:          t.ReplyCount,
		Quotes:           t.QuoteCount,
		Views:            t.ViewCount,
		CreatedAt:        parseCreatedAt(t.CreatedAt),
		ReplyRestricted:  t.IsLimitedReply,
	}
}

// parseCreatedAt accepts the classic "Mon Jan 02 15:04:05 -0700 2006" layout
// and RFC3339. Unknown layouts yield the zero time.
func parseCreatedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RubyDate, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
