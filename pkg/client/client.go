// Package client is a Go client for the library API together with BookStore,
// a scoped cache of the signed-in user's books for UI layers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrUnauthorized = errors.New("client: unauthorized")
	ErrNotFound     = errors.New("client: not found")
	ErrConflict     = errors.New("client: conflict")
)

// Book mirrors the server's book representation.
type Book struct {
	ID         int64    `json:"id"`
	UserID     string   `json:"user_id"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Pages      *int     `json:"pages"`
	Published  *string  `json:"published"`
	Synopsis   *string  `json:"synopsis"`
	Subjects   []string `json:"subjects"`
	Image      *string  `json:"image"`
	ISBN       *string  `json:"isbn"`
	ISBN13     *string  `json:"isbn13"`
	Owned      bool     `json:"owned"`
	Read       bool     `json:"read"`
	Rating     *int     `json:"rating"`
	Review     *string  `json:"review"`
	ReadAt     *int64   `json:"read_at"`
	ReservedBy *string  `json:"reserved_by"`
	CreatedAt  int64    `json:"created_at"`
	UpdatedAt  *int64   `json:"updated_at"`
}

// BookEdit is the edit form sent to /api/updateBook.
type BookEdit struct {
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Owned  bool    `json:"owned"`
	Read   bool    `json:"read"`
	Rating *int    `json:"rating"`
	Review *string `json:"review"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: status %d", e.Status)
	}
	return fmt.Sprintf("client: status %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New returns a client for baseURL authenticating with a bearer token.
// A nil httpClient gets a 15 second timeout.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// Books lists all books of the signed-in user, newest first.
func (c *Client) Books(ctx context.Context) ([]Book, error) {
	var books []Book
	if err := c.do(ctx, http.MethodGet, "/api/getBooks", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) Book(ctx context.Context, id int64) (*Book, error) {
	var book Book
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/books/%d", id), nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// AddToLibrary stores a catalog candidate, passed through unchanged, and
// returns the new book id.
func (c *Client) AddToLibrary(ctx context.Context, candidate json.RawMessage, owned, read bool) (int64, error) {
	body := map[string]any{"book": candidate, "owned": owned, "read": read}
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/addToLibrary", body, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (c *Client) UpdateBook(ctx context.Context, id int64, edit BookEdit) error {
	body := map[string]any{"id": id, "formData": edit}
	return c.do(ctx, http.MethodPost, "/api/updateBook", body, nil)
}

func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/books/%d", id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error  string            `json:"error"`
			Errors map[string]string `json:"errors"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope) == nil {
			apiErr.Message = envelope.Error
			apiErr.Fields = envelope.Errors
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
