package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"uplink/internal/asset"
	"uplink/internal/config"
	"uplink/internal/logging"
	"uplink/internal/services"
)

// Source yields the read-only pool of candidate assets the HQ tier samples
// from. The pool is never mutated by the pipeline.
type Source interface {
	Pool(ctx context.Context) ([]asset.Asset, error)
}

// NewSource builds a feed source from configuration: an offline
// collection+json file by default, or the live search API when enabled.
func NewSource(cfg *config.Config, logger *slog.Logger) Source {
	feedLogger := logging.NewComponentLogger(logger, "feed")
	if cfg.Feed.Live {
		timeout := time.Duration(cfg.Feed.TimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return &searchSource{
			searchURL: cfg.Feed.SearchURL,
			terms:     cfg.Feed.SearchTerms,
			client:    &http.Client{Timeout: timeout},
			logger:    feedLogger,
		}
	}
	return &fileSource{path: cfg.Feed.Path, logger: feedLogger}
}

type fileSource struct {
	path   string
	logger *slog.Logger
}

func (s *fileSource) Pool(_ context.Context) ([]asset.Asset, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "feed", "read offline feed", s.path, err)
	}
	pool, err := ParseCollection(raw)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded offline feed",
		logging.String("path", s.path),
		logging.Int("assets", len(pool)))
	return pool, nil
}

type searchSource struct {
	searchURL string
	terms     []string
	client    *http.Client
	logger    *slog.Logger
}

func (s *searchSource) Pool(ctx context.Context) ([]asset.Asset, error) {
	var pool []asset.Asset
	seen := make(map[string]struct{})
	for _, term := range s.terms {
		batch, err := s.search(ctx, term)
		if err != nil {
			return nil, err
		}
		for _, a := range batch {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}
			pool = append(pool, a)
		}
	}
	s.logger.Debug("queried live feed",
		logging.Int("terms", len(s.terms)),
		logging.Int("assets", len(pool)))
	return pool, nil
}

func (s *searchSource) search(ctx context.Context, term string) ([]asset.Asset, error) {
	query := url.Values{}
	query.Set("media_type", "image")
	query.Set("q", term)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "feed", "build search request", term, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "feed", "search", term, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "feed", "search", fmt.Sprintf("%s: status %d", term, resp.StatusCode), nil)
	}

	var payload json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrValidation, "feed", "decode search response", term, err)
	}
	return ParseCollection(payload)
}

// collection+json wire shape of the image search API.
type collectionDocument struct {
	Collection struct {
		Items []collectionItem `json:"items"`
	} `json:"collection"`
}

type collectionItem struct {
	Href string `json:"href"`
	Data []struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Keywords    []string `json:"keywords"`
	} `json:"data"`
	Links []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// ParseCollection converts a collection+json document into a pool of assets.
// Items without an href or display data are skipped; the item href becomes
// the asset ID since it is the only stable cross-tier identity the feed
// provides.
func ParseCollection(raw []byte) ([]asset.Asset, error) {
	var doc collectionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "feed", "parse collection", "malformed document", err)
	}

	pool := make([]asset.Asset, 0, len(doc.Collection.Items))
	for _, item := range doc.Collection.Items {
		if strings.TrimSpace(item.Href) == "" || len(item.Data) == 0 {
			continue
		}
		data := item.Data[0]
		pool = append(pool, asset.Asset{
			ID:          item.Href,
			Title:       strings.TrimSpace(data.Title),
			Description: strings.TrimSpace(data.Description),
			Keywords:    joinKeywords(data.Keywords),
			PreviewRef:  previewLink(item),
		})
	}
	return pool, nil
}

func previewLink(item collectionItem) string {
	for _, link := range item.Links {
		if link.Rel == "preview" {
			return link.Href
		}
	}
	return ""
}

func joinKeywords(keywords []string) string {
	cleaned := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		cleaned = append(cleaned, titleCaser.String(keyword))
	}
	return strings.Join(cleaned, ", ")
}
