// Package semantic talks to an optional similarity-search service that keeps
// a vector index of diary entries.
package semantic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"
)

// Document is one indexed entry.
type Document struct {
	ID        string `json:"id"`
	AccountID int64  `json:"user_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Hit struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DocumentID is the index key of an entry.
func DocumentID(accountID, entryID int64) string {
	return fmt.Sprintf("user_%d_%d", accountID, entryID)
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{http: c}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

type upsertRequest struct {
	Entries []Document `json:"entries"`
}

func (c *Client) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	return c.post(ctx, "/upsert_entries", upsertRequest{Entries: docs}, nil)
}

type queryRequest struct {
	AccountID int64  `json:"user_id"`
	Question  string `json:"question"`
	TopK      int    `json:"top_k"`
}

type queryResponse struct {
	Hits []Hit `json:"hits"`
}

// Query returns up to topK entries of accountID most similar to question.
func (c *Client) Query(ctx context.Context, accountID int64, question string, topK int) ([]Hit, error) {
	var out queryResponse
	if err := c.post(ctx, "/query", queryRequest{AccountID: accountID, Question: question, TopK: topK}, &out); err != nil {
		return nil, err
	}
	return out.Hits, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	req := c.http.R().SetContext(ctx).SetBody(in)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("semantic: %s: %w", path, err)
	}
	if resp.IsError() {
		body := resp.String()
		if len(body) > 512 {
			body = body[:512]
		}
		return fmt.Errorf("semantic: %s: unexpected status %d: %s", path, resp.StatusCode(), strings.TrimSpace(body))
	}
	return nil
}
