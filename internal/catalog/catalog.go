// Package catalog looks up public-domain books in a Gutendex-compatible
// catalog and picks the plain-text URL to read from.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultURL is the public Gutendex endpoint.
const DefaultURL = "https://gutendex.com/books"

// PageSize is the number of records Gutendex returns per page.
const PageSize = 32

// ErrNoPlainText means a book has no plain-text rendition.
var ErrNoPlainText = errors.New("catalog: no plain text version available")

// plainTextPreference is tried in order before any other text/plain variant.
var plainTextPreference = []string{
	"text/plain; charset=utf-8",
	"text/plain; charset=us-ascii",
	"text/plain",
}

// Person is an author record.
type Person struct {
	Name string `json:"name"`
}

// Book is a catalog record.
type Book struct {
	ID      int               `json:"id"`
	Title   string            `json:"title"`
	Authors []Person          `json:"authors"`
	Formats map[string]string `json:"formats"`
}

// Page is one page of search results.
type Page struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []Book `json:"results"`
}

// TotalPages returns the number of pages for the result count.
func (p Page) TotalPages() int {
	return (p.Count + PageSize - 1) / PageSize
}

// PlainTextURL picks the preferred plain-text URL of b.
func (b Book) PlainTextURL() (string, error) {
	for _, mime := range plainTextPreference {
		if u := b.Formats[mime]; u != "" {
			return u, nil
		}
	}
	keys := make([]string, 0, len(b.Formats))
	for k := range b.Formats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasPrefix(k, "text/plain") && b.Formats[k] != "" {
			return b.Formats[k], nil
		}
	}
	return "", ErrNoPlainText
}

// AuthorNames joins the author names, or "Unknown Author".
func (b Book) AuthorNames() string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, a.Name)
	}
	if len(names) == 0 {
		return "Unknown Author"
	}
	return strings.Join(names, ", ")
}

// TitleParts splits a catalog title into title and subtitle on the first
// semicolon.
func (b Book) TitleParts() (title, subtitle string) {
	title, subtitle, _ = strings.Cut(b.Title, ";")
	return strings.TrimSpace(title), strings.TrimSpace(subtitle)
}

// PageURL is the canonical landing page of the book.
func (b Book) PageURL() string {
	return "https://www.gutenberg.org/ebooks/" + strconv.Itoa(b.ID)
}

// Client talks to a Gutendex-compatible catalog.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a Client; an empty baseURL uses DefaultURL.
func New(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Search returns one page of English-language books matching query. An
// empty query lists the catalog.
func (c *Client) Search(ctx context.Context, query string, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("languages", "en")
	if query != "" {
		q.Set("search", query)
	}

	var out Page
	if err := c.get(ctx, c.baseURL+"?"+q.Encode(), &out); err != nil {
		return Page{}, err
	}
	return out, nil
}

// Book fetches a single record by id.
func (c *Client) Book(ctx context.Context, id int) (Book, error) {
	var out Book
	if err := c.get(ctx, c.baseURL+"/"+strconv.Itoa(id), &out); err != nil {
		return Book{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("catalog: decode: %w", err)
	}
	return nil
}
