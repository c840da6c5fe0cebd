// Package guide generates narrative content for terrain exploration: short
// location write-ups, flyover narration, and cinematic camera tours. All of
// it is model-generated and degrades to canned fallbacks when the model is
// unreachable.
package guide

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"github.com/contourhq/contour/internal/coord"
	"github.com/contourhq/contour/internal/vision"
)

// LocationInfo is a short AI-written profile of a place.
type LocationInfo struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Facts       []string `json:"facts"`
	Highlights  []string `json:"highlights"`
}

// Position is a camera position during a flyover.
type Position struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation float64 `json:"elevation"`
}

// Waypoint is one leg of a cinematic camera tour. Coordinates are in
// terrain units (roughly -50..50 on x/z, altitude on y), not geographic.
type Waypoint struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	Duration float64    `json:"duration"`
}

// DefaultTour is the scenic path used when the model cannot produce one.
var DefaultTour = []Waypoint{
	{Position: [3]float64{0, 50, 40}, Target: [3]float64{0, 0, 0}, Duration: 5},
	{Position: [3]float64{30, 35, 30}, Target: [3]float64{0, 5, 0}, Duration: 6},
	{Position: [3]float64{40, 20, 0}, Target: [3]float64{10, 10, -10}, Duration: 5},
	{Position: [3]float64{20, 25, -35}, Target: [3]float64{0, 5, 0}, Duration: 6},
	{Position: [3]float64{-30, 30, -20}, Target: [3]float64{0, 10, 0}, Duration: 5},
	{Position: [3]float64{0, 45, 35}, Target: [3]float64{0, 0, 0}, Duration: 6},
}

// Guide talks to a chat model for text generation.
type Guide struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// New builds a Guide against any OpenAI-compatible endpoint. Returns nil
// when no API key is configured.
func New(cfg vision.Config, log zerolog.Logger) *Guide {
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
		timeout = 30 * time.Second
	}
	return &Guide{
		client:  openai.NewClientWithConfig(cc),
		model:   model,
		timeout: timeout,
		log:     log,
	}
}

// LocationInfo writes a short profile of the named place.
func (g *Guide) LocationInfo(ctx context.Context, name string, lat, lon float64) (*LocationInfo, error) {
	prompt := fmt.Sprintf(`Write a short profile of %s (%.4f, %.4f) for a 3D terrain explorer.

Return ONLY a JSON object, no other text:
{"title": "...", "description": "2-3 sentence overview", "facts": ["...", "..."], "highlights": ["...", "..."]}

Facts are interesting geographic or historical tidbits (up to 4).
Highlights are notable terrain features to look for (up to 4).`, name, lat, lon)

	reply, err := g.ask(ctx, prompt, 512)
	if err != nil {
		return nil, err
	}
	var info LocationInfo
	if err := json.Unmarshal([]byte(vision.StripFences(reply)), &info); err != nil {
		return nil, fmt.Errorf("unparseable location info: %w", err)
	}
	if info.Title == "" {
		info.Title = name
	}
	return &info, nil
}

// Narrate produces one or two sentences about the current flyover view.
func (g *Guide) Narrate(ctx context.Context, pos Position, features []string) (string, error) {
	visible := "general terrain"
	if len(features) > 0 {
		visible = strings.Join(features, ", ")
	}
	prompt := fmt.Sprintf(`You are a knowledgeable tour guide narrating a scenic flyover.

Current position: %.4f, %.4f
Elevation: %.0fm
Visible features: %s

Generate a brief, engaging narration (1-2 sentences) about what the viewer is seeing.
Focus on interesting geographic, historical, or natural facts.
Be conversational and enthusiastic but not over the top.`, pos.Lat, pos.Lon, pos.Elevation, visible)

	reply, err := g.ask(ctx, prompt, 160)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// TourWaypoints plans a camera tour over the given footprint. It never
// fails outright: when the model call or its reply is unusable, the
// default path is returned instead.
func (g *Guide) TourWaypoints(ctx context.Context, b coord.Bounds) []Waypoint {
	prompt := fmt.Sprintf(`You are a cinematographer planning a scenic drone flight over terrain.

Bounding box: North=%.4f, South=%.4f, East=%.4f, West=%.4f

Generate 6 waypoints for a cinematic camera tour. Each waypoint should have:
- A position (x, y, z) where x/z are -50 to 50 terrain units and y is altitude 15-60
- A look-at target (x, y, z)
- Duration in seconds (3-8 seconds per segment)

Return ONLY a JSON array like:
[
  {"position": [x, y, z], "target": [x, y, z], "duration": 5},
  ...
]

Create a varied, interesting path that:
1. Starts high with a wide view
2. Swoops down near interesting terrain features
3. Does a dramatic reveal at the end
4. Varies altitude and viewing angles`, b.North, b.South, b.East, b.West)

	reply, err := g.ask(ctx, prompt, 1024)
	if err != nil {
		g.log.Warn().Err(err).Msg("tour planning failed, using default path")
		return DefaultTour
	}
	var wps []Waypoint
	if err := json.Unmarshal([]byte(vision.StripFences(reply)), &wps); err != nil || len(wps) == 0 {
		g.log.Warn().Err(err).Msg("unusable tour reply, using default path")
		return DefaultTour
	}
	return wps
}

func (g *Guide) ask(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
