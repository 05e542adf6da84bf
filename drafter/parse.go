package drafter

import (
	"encoding/json"
	"regexp"
	"strings"

	"reply-bot/models"
)

var fenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripFences removes a single markdown code fence wrapping the whole response.
func StripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// ParseDrafts decodes a {"<postId>": {"reply": "..."}} response.
// Entries that are not objects with a non-empty string reply are dropped.
// An empty response means nothing was selected.
func ParseDrafts(raw string) (map[string]string, error) {
	body := StripFences(raw)
	drafts := make(map[string]string)
	if body == "" {
		return drafts, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return nil, &models.DraftParseError{Raw: raw, Err: err}
	}

	for id, msg := range entries {
		var entry struct {
			Reply json.RawMessage `json:"reply"`
		}
		if err := json.Unmarshal(msg, &entry); err != nil || entry.Reply == nil {
			continue
		}
		var reply string
		if err := json.Unmarshal(entry.Reply, &reply); err != nil {
			continue
		}
		if strings.TrimSpace(reply) == "" {
			continue
		}
		drafts[id] = reply
	}
	return drafts, nil
}
