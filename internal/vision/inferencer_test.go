package vision

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"north": 1}`, `{"north": 1}`},
		{"fenced", "```\n{\"north\": 1}\n```", `{"north": 1}`},
		{"fenced with tag", "```json\n{\"north\": 1}\n```", `{"north": 1}`},
		{"surrounding whitespace", "  \n{\"north\": 1}\n ", `{"north": 1}`},
		{"null", "null", "null"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseBoundsReply(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		b, err := parseBoundsReply(`{"north": 22.5, "south": 21.5, "east": -159.0, "west": -160.0}`)
		if err != nil {
			t.Fatalf("parseBoundsReply() error = %v", err)
		}
		if math.Abs(b.North-22.5) > 1e-9 || math.Abs(b.West+160.0) > 1e-9 {
			t.Errorf("bounds = %s, want N22.5 W-160", b)
		}
	})

	t.Run("fenced", func(t *testing.T) {
		b, err := parseBoundsReply("```json\n{\"north\": 10, \"south\": 5, \"east\": 20, \"west\": 15}\n```")
		if err != nil {
			t.Fatalf("parseBoundsReply() error = %v", err)
		}
		if b.North != 10 {
			t.Errorf("North = %g, want 10", b.North)
		}
	})

	errCases := []struct {
		name  string
		reply string
	}{
		{"refusal", "null"},
		{"empty", ""},
		{"prose", "The map shows Kauai, Hawaii."},
		{"missing field", `{"north": 10, "south": 5, "east": 20}`},
		{"inverted latitudes", `{"north": 5, "south": 10, "east": 20, "west": 15}`},
		{"out of range", `{"north": 95, "south": 5, "east": 20, "west": 15}`},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseBoundsReply(tt.reply); !errors.Is(err, ErrInference) {
				t.Errorf("parseBoundsReply(%q) error = %v, want ErrInference", tt.reply, err)
			}
		})
	}
}

// chatStub serves an OpenAI-compatible completion endpoint returning fixed
// content, failing the first failCount calls with HTTP 500.
func chatStub(t *testing.T, content string, failCount int) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= failCount {
			http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testInferencer(baseURL string) *Inferencer {
	return New(Config{
		BaseURL: baseURL + "/v1",
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
}

func TestInferBounds(t *testing.T) {
	srv, _ := chatStub(t, `{"north": 22.5, "south": 21.5, "east": -159.0, "west": -160.0}`, 0)
	inf := testInferencer(srv.URL)

	b, err := inf.InferBounds(context.Background(), []byte("fakeimage"), "image/jpeg")
	if err != nil {
		t.Fatalf("InferBounds() error = %v", err)
	}
	if b.North != 22.5 || b.West != -160.0 {
		t.Errorf("bounds = %s, want N22.5 W-160", b)
	}
}

func TestInferBounds_RetriesTransient(t *testing.T) {
	srv, calls := chatStub(t, `{"north": 10, "south": 5, "east": 20, "west": 15}`, 1)
	inf := testInferencer(srv.URL)

	b, err := inf.InferBounds(context.Background(), []byte("fakeimage"), "image/png")
	if err != nil {
		t.Fatalf("InferBounds() error = %v", err)
	}
	if b.North != 10 {
		t.Errorf("North = %g, want 10", b.North)
	}
	if *calls != 2 {
		t.Errorf("upstream calls = %d, want 2 (one retry)", *calls)
	}
}

func TestInferBounds_RetryAfterTimeout(t *testing.T) {
	// The first attempt stalls past the per-attempt deadline; the retry must
	// run under a fresh timeout and succeed.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			time.Sleep(400 * time.Millisecond)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"north": 10, "south": 5, "east": 20, "west": 15}`}},
			},
		})
	}))
	defer srv.Close()

	inf := New(Config{
		BaseURL: srv.URL + "/v1",
		APIKey:  "test-key",
		Timeout: 100 * time.Millisecond,
	}, zerolog.Nop())

	b, err := inf.InferBounds(context.Background(), []byte("fakeimage"), "image/jpeg")
	if err != nil {
		t.Fatalf("InferBounds() error = %v", err)
	}
	if b.North != 10 {
		t.Errorf("North = %g, want 10", b.North)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2 (one retry after deadline)", got)
	}
}

func TestInferBounds_NoRetryOnRefusal(t *testing.T) {
	srv, calls := chatStub(t, "null", 0)
	inf := testInferencer(srv.URL)

	_, err := inf.InferBounds(context.Background(), []byte("fakeimage"), "image/jpeg")
	if !errors.Is(err, ErrInference) {
		t.Fatalf("InferBounds() error = %v, want ErrInference", err)
	}
	if *calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (no retry on refusal)", *calls)
	}
}

func TestNew_NoKey(t *testing.T) {
	if inf := New(Config{}, zerolog.Nop()); inf != nil {
		t.Error("New() with empty key = non-nil, want nil (capability absent)")
	}
}
