// Package gmail is a thin client for the Gmail REST API. It only covers
// what the import pipeline needs: searching a mailbox and fetching full
// messages. Token refresh and the OAuth dance are out of scope; callers
// hand in a ready access token.
package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sljesus/winm/extractor/common"
)

const DefaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Gmail client. An empty baseURL selects the real API;
// tests point it at a local server.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FromEnv builds a client from the GMAIL_ACCESS_TOKEN environment variable.
func FromEnv() (*Client, error) {
	token := os.Getenv("GMAIL_ACCESS_TOKEN")
	if token == "" {
		return nil, errors.New("GMAIL_ACCESS_TOKEN is not set")
	}
	return NewClient("", token), nil
}

type listResponse struct {
	Messages []messageRef `json:"messages"`
}

type messageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// Search returns the IDs of messages matching a Gmail query.
func (c *Client) Search(ctx context.Context, query string, max int) ([]string, error) {
	endpoint := fmt.Sprintf("%s/users/me/messages?q=%s&maxResults=%d",
		c.baseURL, url.QueryEscape(query), max)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]string, 0, len(list.Messages))
	for _, ref := range list.Messages {
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

// Message fetches one full message and flattens it into a RawEmail.
func (c *Client) Message(ctx context.Context, id string) (common.RawEmail, error) {
	endpoint := fmt.Sprintf("%s/users/me/messages/%s?format=full",
		c.baseURL, url.PathEscape(id))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return common.RawEmail{}, fmt.Errorf("fetch message %s: %w", id, err)
	}

	var msg message
	if err := json.Unmarshal(body, &msg); err != nil {
		return common.RawEmail{}, fmt.Errorf("decode message %s: %w", id, err)
	}
	return msg.toRawEmail(), nil
}

// FetchBankEmails searches for mail from the given sender domains over the
// last daysBack days and fetches each hit. A message that cannot be fetched
// is logged and skipped rather than aborting the batch.
func (c *Client) FetchBankEmails(ctx context.Context, domains []string, daysBack, max int) ([]common.RawEmail, error) {
	if len(domains) == 0 {
		return nil, errors.New("no sender domains configured")
	}

	terms := make([]string, len(domains))
	for i, domain := range domains {
		terms[i] = "from:" + domain
	}
	query := fmt.Sprintf("(%s) newer_than:%dd", strings.Join(terms, " OR "), daysBack)

	ids, err := c.Search(ctx, query, max)
	if err != nil {
		return nil, err
	}

	emails := make([]common.RawEmail, 0, len(ids))
	for _, id := range ids {
		email, err := c.Message(ctx, id)
		if err != nil {
			log.Printf("⚠️ skipping message %s: %v", id, err)
			continue
		}
		emails = append(emails, email)
	}
	return emails, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
