package models

import "fmt"

// FetchError is returned when the search collaborator is unreachable or
// answers with a non-success status. It aborts the phrase run.
type FetchError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("search failed: %d %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("search failed: %v", e.Err)
	}
	return "search failed: " + e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }

// DraftParseError is returned when a select/draft response cannot be decoded.
// Only the affected batch is dropped.
type DraftParseError struct {
	Raw string
	Err error
}

func (e *DraftParseError) Error() string {
	return fmt.Sprintf("malformed draft response: %v", e.Err)
}

func (e *DraftParseError) Unwrap() error { return e.Err }

// PostError is returned when publishing a single reply fails, including
// platform level failures reported alongside HTTP 200.
type PostError struct {
	PostID     string
	StatusCode int
	Status     string
	Message    string
	Err        error
}

func (e *PostError) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("reply to %s failed (%d): %s: %v", e.PostID, e.StatusCode, e.Message, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("reply to %s failed: %v", e.PostID, e.Err)
	}
	return fmt.Sprintf("reply to %s failed (%d %s): %s", e.PostID, e.StatusCode, e.Status, e.Message)
}

func (e *PostError) Unwrap() error { return e.Err }
