package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/samvad-hq/samvad-board-client/pkg/themesettings"
)

// Public event endpoints

func (c *Client) GetEvents(ctx context.Context) ([]Event, error) {
	return Request[[]Event](ctx, c, "/events", RequestOptions{})
}

func (c *Client) GetEventsByCategory(ctx context.Context) (EventsByCategory, error) {
	return Request[EventsByCategory](ctx, c, "/events/by-category", RequestOptions{})
}

func (c *Client) GetEvent(ctx context.Context, id int64) (Event, error) {
	return Request[Event](ctx, c, fmt.Sprintf("/events/%d", id), RequestOptions{})
}

func (c *Client) GetEventBySlug(ctx context.Context, slug string) (Event, error) {
	return Request[Event](ctx, c, "/events/slug/"+url.PathEscape(slug), RequestOptions{})
}

func (c *Client) VoteEvent(ctx context.Context, id int64) (VoteResult, error) {
	return Request[VoteResult](ctx, c, fmt.Sprintf("/events/%d/vote", id), RequestOptions{
		Method: http.MethodPost,
	})
}

func (c *Client) CheckVoteStatus(ctx context.Context, id int64) (VoteStatus, error) {
	return Request[VoteStatus](ctx, c, fmt.Sprintf("/events/%d/vote-status", id), RequestOptions{})
}

// SubmitFeedback posts a feedback item. formStartTime is the unix time in
// milliseconds at which the form was opened; the server uses it as a spam check.
func (c *Client) SubmitFeedback(ctx context.Context, title, content string, formStartTime int64) (FeedbackResult, error) {
	return Request[FeedbackResult](ctx, c, "/feedback", RequestOptions{
		Method: http.MethodPost,
		Body:   feedbackRequest{Title: title, Content: content, FormStartTime: formStartTime},
	})
}

// Public settings endpoints

func (c *Client) GetSettings(ctx context.Context) (ProjectSettings, error) {
	return Request[ProjectSettings](ctx, c, "/settings", RequestOptions{})
}

// GetThemeSettings satisfies themesettings.Fetcher.
func (c *Client) GetThemeSettings(ctx context.Context) (themesettings.Response, error) {
	return Request[themesettings.Response](ctx, c, "/settings/theme", RequestOptions{})
}

// Newsletter endpoints

func (c *Client) SubscribeToNewsletter(ctx context.Context, email string) (NewsletterSubscription, error) {
	return Request[NewsletterSubscription](ctx, c, "/newsletter/subscribe", RequestOptions{
		Method: http.MethodPost,
		Body:   emailRequest{Email: email},
	})
}

func (c *Client) UnsubscribeFromNewsletter(ctx context.Context, email string) (MessageResult, error) {
	return Request[MessageResult](ctx, c, "/newsletter/unsubscribe", RequestOptions{
		Method: http.MethodPost,
		Body:   emailRequest{Email: email},
	})
}

func (c *Client) CheckNewsletterSubscription(ctx context.Context, email string) (NewsletterStatus, error) {
	return Request[NewsletterStatus](ctx, c, "/newsletter/status?email="+url.QueryEscape(email), RequestOptions{})
}

// Footer and tags

func (c *Client) GetFooterLinksByColumn(ctx context.Context) (FooterLinks, error) {
	return Request[FooterLinks](ctx, c, "/footer-links/by-column", RequestOptions{})
}

func (c *Client) GetTags(ctx context.Context) ([]Tag, error) {
	return Request[[]Tag](ctx, c, "/tags", RequestOptions{})
}

var _ themesettings.Fetcher = (*Client)(nil)
