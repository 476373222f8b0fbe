package illustrate

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "google/gemini-2.5-flash-image"
)

// Settings configures an OpenRouter client.
type Settings struct {
	BaseURL string
	Model   string
	APIKey  string
	Style   string
	// HTTPClient is used for the completion call and for image downloads.
	HTTPClient *http.Client
}

// OpenRouter draws illustrations through an OpenAI compatible chat
// completions endpoint that can answer with images.
type OpenRouter struct {
	client openai.Client
	http   *http.Client
	model  string
	style  string
	apiKey string
	logger *log.Logger
}

func NewOpenRouter(s Settings, logger *log.Logger) *OpenRouter {
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.Model == "" {
		s.Model = DefaultModel
	}
	if s.HTTPClient == nil {
		s.HTTPClient = http.DefaultClient
	}
	opts := []option.RequestOption{
		option.WithBaseURL(s.BaseURL),
		option.WithAPIKey(s.APIKey),
		option.WithHTTPClient(s.HTTPClient),
		option.WithMaxRetries(0),
	}
	return &OpenRouter{
		client: openai.NewClient(opts...),
		http:   s.HTTPClient,
		model:  s.Model,
		style:  s.Style,
		apiKey: s.APIKey,
		logger: logger,
	}
}

func (o *OpenRouter) infof(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf("[INFO] "+format, args...)
	}
}

// Illustrate asks the model for an image of the excerpt.
func (o *OpenRouter) Illustrate(ctx context.Context, excerpt string) (Illustration, error) {
	if o.apiKey == "" {
		return Illustration{}, ErrMissingCredential
	}

	o.infof("requesting illustration from %s (%d chars)", o.model, len([]rune(excerpt)))
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(BuildPrompt(excerpt, o.style)),
		},
	}, option.WithJSONSet("modalities", []string{"image", "text"}))
	if err != nil {
		return Illustration{}, fmt.Errorf("illustration request: %w", err)
	}

	ref := gjson.Get(resp.RawJSON(), "choices.0.message.images.0.image_url.url").String()
	if ref == "" {
		return Illustration{}, ErrNoImage
	}
	img, err := LoadImage(ctx, o.http, ref)
	if err != nil {
		return Illustration{}, err
	}
	b := img.Bounds()
	o.infof("illustration ready (%dx%d)", b.Dx(), b.Dy())
	return Illustration{Ref: ref, Image: img}, nil
}
