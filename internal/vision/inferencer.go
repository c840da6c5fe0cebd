// Package vision estimates the geographic footprint of an untagged map
// image by asking a multimodal model to read its labels, grid lines and
// place names. Results are approximate and advisory; callers present them
// as a starting point the user can correct.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"github.com/contourhq/contour/internal/coord"
)

// ErrInference covers every failure mode of the model call: transport
// errors, refusals, and replies that do not parse as a bounds object.
var ErrInference = errors.New("bounds inference failed")

const boundsPrompt = `Analyze this map image. Identify the geographic region it depicts using any visible labels, coordinate grid lines, place names, or recognizable coastlines and terrain.

Respond with ONLY a JSON object of the WGS84 bounding box, no other text:
{"north": 22.5, "south": 21.5, "east": -159.0, "west": -160.0}

If the region cannot be determined at all, respond with exactly: null`

// Config configures the Inferencer. BaseURL and APIKey point at any
// OpenAI-compatible endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Inferencer calls a vision model to estimate map bounds.
type Inferencer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// New builds an Inferencer. It returns nil when no API key is configured;
// callers treat a nil Inferencer as "capability absent".
func New(cfg Config, log zerolog.Logger) *Inferencer {
	if cfg.APIKey == "" {
		return nil
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Inferencer{
		client:  openai.NewClientWithConfig(cc),
		model:   model,
		timeout: timeout,
		log:     log,
	}
}

// InferBounds sends the encoded texture to the model and parses the reply.
// mime is the texture's MIME type ("image/jpeg" etc). One retry is
// attempted for transport-level failures; model refusals and malformed
// replies are returned immediately.
func (inf *Inferencer) InferBounds(ctx context.Context, imageData []byte, mime string) (*coord.Bounds, error) {
	reply, err := inf.askOnce(ctx, imageData, mime)
	if err != nil && isTransient(err) {
		inf.log.Warn().Err(err).Msg("vision call failed, retrying once")
		reply, err = inf.askOnce(ctx, imageData, mime)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	return parseBoundsReply(reply)
}

// askOnce runs a single attempt under its own timeout, so a retry after a
// deadline expiry starts with a fresh budget rather than an already-dead
// context.
func (inf *Inferencer) askOnce(ctx context.Context, imageData []byte, mime string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, inf.timeout)
	defer cancel()
	return inf.ask(ctx, imageData, mime)
}

func (inf *Inferencer) ask(ctx context.Context, imageData []byte, mime string) (string, error) {
	format := strings.TrimPrefix(mime, "image/")
	dataURL := fmt.Sprintf("data:image/%s;base64,%s", format, base64.StdEncoding.EncodeToString(imageData))

	resp, err := inf.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: inf.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: boundsPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		MaxTokens:   256,
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// parseBoundsReply decodes the model's answer. The reply must be a JSON
// object with exactly the four edge fields, optionally wrapped in a
// markdown code fence. A literal null means the model gave up.
func parseBoundsReply(reply string) (*coord.Bounds, error) {
	text := StripFences(reply)
	if text == "" || text == "null" {
		return nil, fmt.Errorf("%w: model could not identify the region", ErrInference)
	}

	var raw struct {
		North *float64 `json:"north"`
		South *float64 `json:"south"`
		East  *float64 `json:"east"`
		West  *float64 `json:"west"`
	}
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: unparseable reply: %v", ErrInference, err)
	}
	if raw.North == nil || raw.South == nil || raw.East == nil || raw.West == nil {
		return nil, fmt.Errorf("%w: reply missing bounds fields", ErrInference)
	}

	b := coord.Bounds{North: *raw.North, South: *raw.South, East: *raw.East, West: *raw.West}
	if !b.Valid() {
		return nil, fmt.Errorf("%w: reply out of range: %s", ErrInference, b)
	}
	return &b, nil
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// isTransient reports whether err looks like a transport problem worth one
// retry, as opposed to a model-side refusal or a 4xx.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == 429
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
