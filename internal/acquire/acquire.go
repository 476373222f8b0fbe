// Package acquire obtains raw book text from a relay, a local file or the
// reader's own paste, and reports when manual input is needed instead.
package acquire

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// FetchTimeout bounds a single relay call.
	FetchTimeout = 30 * time.Second
	// MinManualLength is the shortest accepted manual submission.
	MinManualLength = 100
	// UserAgent identifies the client to the relay and upstream hosts.
	UserAgent = "Mozilla/5.0 (compatible; limn/1.0)"

	maxBody = 64 << 20
)

// Provenance records where raw text came from.
type Provenance string

const (
	Fetched Provenance = "fetched"
	Manual  Provenance = "manual"
	File    Provenance = "file"
)

// RawText is an unprocessed book body.
type RawText struct {
	Text       string
	Provenance Provenance
	Source     string
}

// Result is the outcome of Acquire: either Raw is set, or NeedsManualInput
// is true and Cause says why.
type Result struct {
	Raw              RawText
	NeedsManualInput bool
	Locator          string
	Cause            error
}

// Acquirer fetches book text through a relay.
type Acquirer struct {
	relayURL string
	client   *http.Client
	logger   *log.Logger
}

// New creates an Acquirer. An empty relayURL fetches locators directly.
func New(relayURL string, client *http.Client, logger *log.Logger) *Acquirer {
	if client == nil {
		client = &http.Client{Timeout: FetchTimeout}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Acquirer{relayURL: relayURL, client: client, logger: logger}
}

// Acquire retrieves the text behind locator. Every failure is reported as
// NeedsManualInput, never as an error.
func (a *Acquirer) Acquire(ctx context.Context, locator string) Result {
	start := time.Now()
	text, err := a.fetch(ctx, locator)
	if err != nil {
		a.logger.Printf("[WARN] acquire %s failed after %s: %v", locator, time.Since(start).Round(time.Millisecond), err)
		return Result{NeedsManualInput: true, Locator: locator, Cause: err}
	}
	a.logger.Printf("[INFO] acquired %s (%d bytes) in %s", locator, len(text), time.Since(start).Round(time.Millisecond))
	return Result{
		Raw:     RawText{Text: text, Provenance: Fetched, Source: locator},
		Locator: locator,
	}
}

func (a *Acquirer) fetch(ctx context.Context, locator string) (string, error) {
	target, err := a.requestURL(locator)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRelay, err)
	}

	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRelay, err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRelay, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrRelay, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrRelay, err)
	}
	text := string(data)
	if strings.Contains(text, `"error"`) {
		return "", fmt.Errorf("%w: relay reported an error", ErrRelay)
	}
	return text, nil
}

func (a *Acquirer) requestURL(locator string) (string, error) {
	if a.relayURL == "" {
		return locator, nil
	}
	u, err := url.Parse(a.relayURL)
	if err != nil {
		return "", fmt.Errorf("relay url: %w", err)
	}
	q := u.Query()
	q.Set("url", locator)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SubmitManual accepts pasted text as a substitute for a failed fetch.
// The text is trimmed first; anything shorter than MinManualLength
// characters is rejected with ErrTooShort.
func (a *Acquirer) SubmitManual(text, source string) (RawText, error) {
	trimmed := strings.TrimSpace(text)
	if n := utf8.RuneCountInString(trimmed); n < MinManualLength {
		return RawText{}, fmt.Errorf("%w: %d of %d characters", ErrTooShort, n, MinManualLength)
	}
	a.logger.Printf("[INFO] accepted %d characters of manual text for %s", len(trimmed), source)
	return RawText{Text: trimmed, Provenance: Manual, Source: source}, nil
}
