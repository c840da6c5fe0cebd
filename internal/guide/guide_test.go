package guide

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/contourhq/contour/internal/coord"
	"github.com/contourhq/contour/internal/vision"
)

func chatStub(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testGuide(baseURL string) *Guide {
	return New(vision.Config{
		BaseURL: baseURL + "/v1",
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
}

func TestNew_NoKey(t *testing.T) {
	if g := New(vision.Config{}, zerolog.Nop()); g != nil {
		t.Error("New() with empty key = non-nil, want nil")
	}
}

func TestLocationInfo(t *testing.T) {
	srv := chatStub(t, "```json\n"+`{
		"title": "Kauai",
		"description": "The oldest of the main Hawaiian islands.",
		"facts": ["Mount Waialeale is among the wettest spots on Earth"],
		"highlights": ["Na Pali Coast", "Waimea Canyon"]
	}`+"\n```")
	g := testGuide(srv.URL)

	info, err := g.LocationInfo(context.Background(), "Kauai", 22.05, -159.5)
	if err != nil {
		t.Fatalf("LocationInfo() error = %v", err)
	}
	if info.Title != "Kauai" {
		t.Errorf("Title = %q, want Kauai", info.Title)
	}
	if len(info.Facts) != 1 || len(info.Highlights) != 2 {
		t.Errorf("facts/highlights = %d/%d, want 1/2", len(info.Facts), len(info.Highlights))
	}
}

func TestLocationInfo_DefaultTitle(t *testing.T) {
	srv := chatStub(t, `{"description": "A place."}`)
	g := testGuide(srv.URL)

	info, err := g.LocationInfo(context.Background(), "Somewhere", 0, 0)
	if err != nil {
		t.Fatalf("LocationInfo() error = %v", err)
	}
	if info.Title != "Somewhere" {
		t.Errorf("Title = %q, want the requested name as fallback", info.Title)
	}
}

func TestLocationInfo_Unparseable(t *testing.T) {
	srv := chatStub(t, "Sorry, I can only answer in prose.")
	g := testGuide(srv.URL)
	if _, err := g.LocationInfo(context.Background(), "X", 0, 0); err == nil {
		t.Error("LocationInfo() succeeded on prose reply, want error")
	}
}

func TestNarrate(t *testing.T) {
	srv := chatStub(t, "  Below lies the dramatic Na Pali Coast.  ")
	g := testGuide(srv.URL)

	text, err := g.Narrate(context.Background(), Position{Lat: 22.1, Lon: -159.6, Elevation: 500}, []string{"Na Pali Coast"})
	if err != nil {
		t.Fatalf("Narrate() error = %v", err)
	}
	if text != "Below lies the dramatic Na Pali Coast." {
		t.Errorf("Narrate() = %q, want trimmed narration", text)
	}
}

func TestTourWaypoints(t *testing.T) {
	srv := chatStub(t, `[
		{"position": [0, 50, 40], "target": [0, 0, 0], "duration": 5},
		{"position": [30, 35, 30], "target": [0, 5, 0], "duration": 6}
	]`)
	g := testGuide(srv.URL)

	wps := g.TourWaypoints(context.Background(), coord.Bounds{North: 22.5, South: 21.5, East: -159, West: -160})
	if len(wps) != 2 {
		t.Fatalf("len = %d, want 2", len(wps))
	}
	if wps[0].Position != [3]float64{0, 50, 40} || wps[0].Duration != 5 {
		t.Errorf("first waypoint = %+v", wps[0])
	}
}

func TestTourWaypoints_FallbackOnBadReply(t *testing.T) {
	srv := chatStub(t, "I cannot plan a tour.")
	g := testGuide(srv.URL)

	wps := g.TourWaypoints(context.Background(), coord.Bounds{North: 1, South: 0, East: 1, West: 0})
	if len(wps) != len(DefaultTour) {
		t.Fatalf("len = %d, want default path of %d", len(wps), len(DefaultTour))
	}
	if wps[0] != DefaultTour[0] {
		t.Errorf("first waypoint = %+v, want %+v", wps[0], DefaultTour[0])
	}
}

func TestTourWaypoints_FallbackOnTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()
	g := testGuide(srv.URL)

	wps := g.TourWaypoints(context.Background(), coord.Bounds{North: 1, South: 0, East: 1, West: 0})
	if len(wps) != len(DefaultTour) {
		t.Errorf("len = %d, want default path", len(wps))
	}
}
