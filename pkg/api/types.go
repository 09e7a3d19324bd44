package api

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Event is a board event as returned by the server. The schema is owned by the
// server, so every field is kept; the accessors cover the common ones.
type Event map[string]any

// ID returns the numeric event id.
func (e Event) ID() (int64, bool) { return int64Field(e, "id") }

func (e Event) Slug() string        { return stringField(e, "slug") }
func (e Event) Title() string       { return stringField(e, "title") }
func (e Event) Status() string      { return stringField(e, "status") }
func (e Event) Description() string { return stringField(e, "description") }

// Votes returns the vote count when present.
func (e Event) Votes() (int64, bool) { return int64Field(e, "votes") }

// ProjectSettings is the public project configuration.
type ProjectSettings map[string]any

// Tag is a board tag.
type Tag map[string]any

// EventsByCategory groups events by category id for the active theme.
type EventsByCategory struct {
	Success    bool               `json:"success"`
	ThemeID    string             `json:"theme_id"`
	ThemeName  string             `json:"theme_name"`
	Categories map[string][]Event `json:"categories"`
}

type VoteResult struct {
	Message string `json:"message"`
	Votes   int64  `json:"votes"`
	Voted   bool   `json:"voted"`
}

type VoteStatus struct {
	Voted bool  `json:"voted"`
	Votes int64 `json:"votes"`
}

type FeedbackResult struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type NewsletterSubscription struct {
	Message           string `json:"message"`
	Email             string `json:"email"`
	AlreadySubscribed *bool  `json:"already_subscribed,omitempty"`
}

type NewsletterStatus struct {
	Subscribed bool `json:"subscribed"`
	Active     bool `json:"active"`
}

type MessageResult struct {
	Message string `json:"message"`
}

// FooterLinks maps a footer column key to the links shown in it.
type FooterLinks struct {
	Links map[string][]map[string]any `json:"links"`
}

type feedbackRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	FormStartTime int64  `json:"form_start_time"`
}

type emailRequest struct {
	Email string `json:"email"`
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func int64Field(m map[string]any, key string) (int64, bool) {
	switch v := m[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		return int64(v), v == float64(int64(v))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
