package illustrate

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"

	_ "golang.org/x/image/webp"
)

const maxImage = 32 << 20

// LoadImage decodes an image reference returned by the service. Data URLs
// are decoded in place; http(s) URLs are fetched with client.
func LoadImage(ctx context.Context, client *http.Client, ref string) (image.Image, error) {
	var data []byte
	switch {
	case strings.HasPrefix(ref, "data:"):
		var err error
		if data, err = decodeDataURL(ref); err != nil {
			return nil, err
		}
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		var err error
		if data, err = fetch(ctx, client, ref); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported image reference %.32q", ref)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return []byte(s), nil
}

func fetch(ctx context.Context, client *http.Client, ref string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImage))
}
