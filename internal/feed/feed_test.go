package feed_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"uplink/internal/config"
	"uplink/internal/feed"
	"uplink/internal/logging"
)

const sampleCollection = `{
  "collection": {
    "items": [
      {
        "href": "https://images.example.com/asset/x1/collection.json",
        "data": [{"title": "Flood Zone", "description": "Aerial view", "keywords": ["flood", "aerial survey"]}],
        "links": [
          {"href": "https://assets.example.com/image/x1/x1~thumb.png", "rel": "preview"},
          {"href": "https://images.example.com/asset/x1/captions", "rel": "captions"}
        ]
      },
      {
        "href": "",
        "data": [{"title": "No identity"}]
      },
      {
        "href": "https://images.example.com/asset/x2/collection.json",
        "data": [{"title": "Quake Site"}]
      }
    ]
  }
}`

func TestParseCollection(t *testing.T) {
	pool, err := feed.ParseCollection([]byte(sampleCollection))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(pool))
	}

	first := pool[0]
	if first.ID != "https://images.example.com/asset/x1/collection.json" {
		t.Errorf("unexpected id %q", first.ID)
	}
	if first.Title != "Flood Zone" || first.Description != "Aerial view" {
		t.Errorf("unexpected metadata: %+v", first)
	}
	if first.Keywords != "Flood, Aerial Survey" {
		t.Errorf("unexpected keywords %q", first.Keywords)
	}
	if first.PreviewRef != "https://assets.example.com/image/x1/x1~thumb.png" {
		t.Errorf("unexpected preview %q", first.PreviewRef)
	}

	if pool[1].Title != "Quake Site" || pool[1].PreviewRef != "" {
		t.Errorf("unexpected second asset: %+v", pool[1])
	}
}

func TestParseCollectionRejectsMalformedDocument(t *testing.T) {
	if _, err := feed.ParseCollection([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFileSourcePool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.json")
	if err := os.WriteFile(path, []byte(sampleCollection), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Feed.Path = path
	source := feed.NewSource(&cfg, logging.NewNop())

	pool, err := source.Pool(context.Background())
	if err != nil {
		t.Fatalf("pool failed: %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(pool))
	}
}

func TestSearchSourceDeduplicatesAcrossTerms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("media_type") != "image" {
			t.Errorf("missing media_type filter: %s", r.URL.RawQuery)
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(sampleCollection), &doc); err != nil {
			t.Fatal(err)
		}
		_ = json.NewEncoder(w).Encode(doc)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Feed.Live = true
	cfg.Feed.SearchURL = server.URL
	cfg.Feed.SearchTerms = []string{"flood", "earthquake"}
	source := feed.NewSource(&cfg, logging.NewNop())

	pool, err := source.Pool(context.Background())
	if err != nil {
		t.Fatalf("pool failed: %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("expected duplicates collapsed to 2 assets, got %d", len(pool))
	}
}
