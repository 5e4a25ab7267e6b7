package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// LookupByISBN fetches a single book by ISBN-10 or ISBN-13.
func (c *Client) LookupByISBN(ctx context.Context, isbn string) (*Book, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, wrapError("lookup", isbn, ErrInvalidISBN)
	}

	var resp bookResponse
	if err := c.get(ctx, "lookup", isbn, c.baseURL+"/book/"+url.PathEscape(isbn), &resp); err != nil {
		return nil, err
	}
	return &resp.Book, nil
}

// SearchByTitleAuthor runs a free-text search, optionally narrowed by
// author. An empty title returns no results without touching the network.
// Results are raw candidates; see Dedupe.
func (c *Client) SearchByTitleAuthor(ctx context.Context, title, author string) ([]Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return []Book{}, nil
	}

	rawQuery := "page=1&pageSize=" + strconv.Itoa(c.pageSize) + "&text=" + escapeQuery(title)
	if author = strings.TrimSpace(author); author != "" {
		rawQuery += "&author=" + escapeQuery(author)
	}

	var resp searchResponse
	err := c.get(ctx, "search", title, c.baseURL+"/search/books?"+rawQuery, &resp)
	if errors.Is(err, ErrNotFound) {
		// ISBNdb answers 404 when nothing matches.
		return []Book{}, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []Book{}, nil
	}
	return resp.Data, nil
}

// Stats returns the catalog's own statistics document unchanged.
func (c *Client) Stats(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "stats", "", c.baseURL+"/stats", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// escapeQuery percent-encodes s for a query value, with spaces as %20.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
