package memegen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
)

// Default output dimensions used when the caller does not override them.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

const templatesCacheKey = "templates"

// Template describes one meme layout from the gallery.
type Template struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Lines int    `json:"lines"`
}

// staticTemplates is the fallback catalog used when the gallery API is
// unreachable, a small subset of the most used layouts.
var staticTemplates = []Template{
	{ID: "drake", Name: "Drake Hotline Bling", Lines: 2},
	{ID: "fine", Name: "This Is Fine", Lines: 2},
	{ID: "stonks", Name: "Stonks", Lines: 2},
	{ID: "buzz", Name: "X, X Everywhere", Lines: 2},
	{ID: "rollsafe", Name: "Roll Safe", Lines: 2},
	{ID: "db", Name: "Distracted Boyfriend", Lines: 3},
	{ID: "cmm", Name: "Change My Mind", Lines: 1},
	{ID: "gru", Name: "Gru's Plan", Lines: 4},
}

// Catalog fetches the template gallery and caches it, falling back to a
// static subset when the gallery is unreachable.
type Catalog struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache
	logger  *slog.Logger
}

// NewCatalog creates a Catalog for the given gallery base URL. Fetched
// templates are cached for ttl.
func NewCatalog(baseURL string, ttl time.Duration, logger *slog.Logger) (*Catalog, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("gallery base URL is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Catalog{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache.New(ttl, 2*ttl),
		logger:  logger.With("component", "memegen_catalog"),
	}, nil
}

// Templates returns the catalog, served from cache when fresh. A fetch
// failure logs a warning and returns the static fallback set.
func (c *Catalog) Templates(ctx context.Context) []Template {
	if cached, ok := c.cache.Get(templatesCacheKey); ok {
		return cached.([]Template)
	}

	templates, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("template gallery unreachable, using static fallback", "error", err)
		return staticTemplates
	}

	c.cache.SetDefault(templatesCacheKey, templates)
	c.logger.Info("template catalog refreshed", "count", len(templates))
	return templates
}

// Random returns a random template from the catalog.
func (c *Catalog) Random(ctx context.Context) Template {
	templates := c.Templates(ctx)
	return templates[rand.Intn(len(templates))]
}

func (c *Catalog) fetch(ctx context.Context) ([]Template, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/templates", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gallery request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gallery request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gallery returned status %d", resp.StatusCode)
	}

	var templates []Template
	if err := json.NewDecoder(resp.Body).Decode(&templates); err != nil {
		return nil, fmt.Errorf("failed to decode gallery response: %w", err)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("gallery returned no templates")
	}

	for i := range templates {
		if templates[i].Lines <= 0 {
			templates[i].Lines = 2
		}
	}
	return templates, nil
}
