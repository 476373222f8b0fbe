package illustrate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.Black)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func completion(url string) string {
	return fmt.Sprintf(`{
		"id": "gen-1",
		"object": "chat.completion",
		"created": 1,
		"model": "google/gemini-2.5-flash-image",
		"choices": [{
			"index": 0,
			"finish_reason": "stop",
			"message": {
				"role": "assistant",
				"content": "",
				"images": [{"type": "image_url", "image_url": {"url": %q}}]
			}
		}]
	}`, url)
}

func TestOpenRouterIllustrate(t *testing.T) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 4, 3))

	var body map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completion(dataURL))
	}))
	defer srv.Close()

	or := NewOpenRouter(Settings{BaseURL: srv.URL, APIKey: "sk-test", Style: "in charcoal"}, nil)
	ill, err := or.Illustrate(context.Background(), "A ship leaves the harbour at dawn.")
	if err != nil {
		t.Fatalf("Illustrate: %v", err)
	}

	if b := ill.Image.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("image bounds = %v, want 4x3", b)
	}
	if ill.Ref != dataURL {
		t.Error("reference not preserved")
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if body["model"] != DefaultModel {
		t.Errorf("model = %v, want %s", body["model"], DefaultModel)
	}
	mods, _ := body["modalities"].([]any)
	if len(mods) != 2 || mods[0] != "image" || mods[1] != "text" {
		t.Errorf("modalities = %v", body["modalities"])
	}
	if !strings.Contains(fmt.Sprint(body["messages"]), "in charcoal") {
		t.Error("style missing from prompt")
	}
}

func TestOpenRouterFetchesRemoteImage(t *testing.T) {
	img := pngBytes(t, 2, 2)
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completion(srv.URL+"/img.png"))
	})
	mux.HandleFunc("/img.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	})

	or := NewOpenRouter(Settings{BaseURL: srv.URL, APIKey: "k"}, nil)
	ill, err := or.Illustrate(context.Background(), "text")
	if err != nil {
		t.Fatalf("Illustrate: %v", err)
	}
	if ill.Image.Bounds().Dx() != 2 {
		t.Errorf("unexpected image %v", ill.Image.Bounds())
	}
}

func TestOpenRouterErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		or := NewOpenRouter(Settings{BaseURL: "http://127.0.0.1:0"}, nil)
		if _, err := or.Illustrate(context.Background(), "x"); !errors.Is(err, ErrMissingCredential) {
			t.Errorf("err = %v, want ErrMissingCredential", err)
		}
	})

	t.Run("no image", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m",
				"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"sorry"}}]}`)
		}))
		defer srv.Close()
		or := NewOpenRouter(Settings{BaseURL: srv.URL, APIKey: "k"}, nil)
		if _, err := or.Illustrate(context.Background(), "x"); !errors.Is(err, ErrNoImage) {
			t.Errorf("err = %v, want ErrNoImage", err)
		}
	})

	t.Run("upstream failure is not retried", func(t *testing.T) {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
		}))
		defer srv.Close()
		or := NewOpenRouter(Settings{BaseURL: srv.URL, APIKey: "k"}, nil)
		if _, err := or.Illustrate(context.Background(), "x"); err == nil {
			t.Fatal("expected an error")
		}
		if hits != 1 {
			t.Errorf("server hit %d times, want 1", hits)
		}
	})
}

func TestLoadImageRejects(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{"unsupported scheme", "ftp://example.com/x.png"},
		{"no comma", "data:image/png;base64"},
		{"bad base64", "data:image/png;base64,!!!"},
		{"not an image", "data:text/plain,hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadImage(context.Background(), nil, tt.ref); err == nil {
				t.Errorf("LoadImage(%q) succeeded", tt.ref)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	long := strings.Repeat("é", 900)
	p := BuildPrompt(long, "")
	if strings.Count(p, "é") != promptExcerpt {
		t.Errorf("prompt quotes %d runes, want %d", strings.Count(p, "é"), promptExcerpt)
	}
	if !strings.HasSuffix(p, DefaultStyle) {
		t.Error("default style not applied")
	}
	if !strings.HasPrefix(BuildPrompt("short", "plain"), "Create an illustration") {
		t.Error("unexpected prompt preamble")
	}

	p = BuildPrompt("He said \"no\".\nThen he left.", "plain")
	want := "Create an illustration for this passage from book:\n\n\"He said \"no\".\nThen he left.\"\n\nplain"
	if p != want {
		t.Errorf("BuildPrompt() = %q, want %q", p, want)
	}
}
