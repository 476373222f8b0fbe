package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/metcalfc/limn/internal/acquire"
	"github.com/metcalfc/limn/internal/catalog"
	"github.com/metcalfc/limn/internal/document"
	"github.com/metcalfc/limn/internal/state"
)

// book is a loaded, structured text and its presentation details.
type book struct {
	raw      acquire.RawText
	doc      *document.Document
	title    string
	subtitle string
	authors  string
	key      string
}

func newBook(raw acquire.RawText, meta *catalog.Book) *book {
	b := &book{
		raw: raw,
		doc: document.Structure(raw.Text),
		key: state.Key(raw.Text),
	}
	switch {
	case meta != nil:
		b.title, b.subtitle = meta.TitleParts()
		b.authors = meta.AuthorNames()
	case raw.Provenance == acquire.File:
		b.title = filepath.Base(raw.Source)
	case raw.Provenance == acquire.Manual:
		b.title = "Pasted text"
	default:
		b.title = raw.Source
	}
	return b
}

// target is where a locator's text lives.
type target struct {
	url  string
	file string
	meta *catalog.Book
}

// browseURL is the web address a reader can open to copy the text by hand.
func (t target) browseURL() (*url.URL, error) {
	raw := t.url
	if raw == "" && t.meta != nil {
		raw = t.meta.PageURL()
	}
	if raw == "" {
		return nil, errors.New("no web address for this book")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("not a web address: %s", raw)
	}
	return u, nil
}

// resolve classifies a locator as a catalog id, a URL or a local file.
func (a *app) resolve(ctx context.Context, locator string) (target, error) {
	if id, err := strconv.Atoi(locator); err == nil && id > 0 {
		b, err := a.catalog.Book(ctx, id)
		if err != nil {
			return target{}, err
		}
		u, err := b.PlainTextURL()
		if err != nil {
			return target{}, fmt.Errorf("%q: %w", b.Title, err)
		}
		return target{url: u, meta: &b}, nil
	}
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return target{url: locator}, nil
	}
	return target{file: locator}, nil
}

// loadResult is what a load attempt produced. Exactly one of book, manual
// or err is meaningful.
type loadResult struct {
	book   *book
	manual bool
	target target
	cause  error
	err    error
}

func (a *app) load(ctx context.Context, locator string) loadResult {
	t, err := a.resolve(ctx, locator)
	if err != nil {
		return loadResult{err: err}
	}
	if t.file != "" {
		raw, err := acquire.Open(t.file)
		if err != nil {
			return loadResult{err: err}
		}
		return loadResult{book: newBook(raw, nil), target: t}
	}

	res := a.acquirer.Acquire(ctx, t.url)
	if res.NeedsManualInput {
		return loadResult{manual: true, target: t, cause: res.Cause}
	}
	return loadResult{book: newBook(res.Raw, t.meta), target: t}
}

// submitManual turns pasted text into a book for the pending target.
func (a *app) submitManual(text string, t target) (*book, error) {
	raw, err := a.acquirer.SubmitManual(text, t.url)
	if err != nil {
		return nil, err
	}
	return newBook(raw, t.meta), nil
}

// restoreBlock returns the saved top block for b unless a fresh start was
// asked for.
func (a *app) restoreBlock(b *book) int {
	if a.fresh || a.store == nil || b == nil {
		return 0
	}
	return a.store.Block(b.key)
}

func (a *app) savePosition(b *book, block int) {
	if a.store == nil || b == nil {
		return
	}
	var err error
	if block == 0 {
		err = a.store.Clear(b.key)
	} else {
		err = a.store.Save(b.key, state.Position{Block: block, Title: b.title, Source: b.raw.Source})
	}
	if err != nil {
		a.logger.Printf("[WARN] save position: %v", err)
	}
}

// printSearch writes one catalog page to w.
func printSearch(a *app, query string, page int, w io.Writer) error {
	res, err := a.catalog.Search(context.Background(), query, page)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Page %d/%d (%d books)\n\n", page, max(res.TotalPages(), 1), res.Count)
	for _, b := range res.Results {
		title, _ := b.TitleParts()
		fmt.Fprintf(w, "%7d  %s by %s\n", b.ID, title, b.AuthorNames())
		fmt.Fprintf(w, "         %s\n", b.PageURL())
	}
	if len(res.Results) == 0 {
		fmt.Fprintln(w, "No books found.")
	}
	return nil
}
