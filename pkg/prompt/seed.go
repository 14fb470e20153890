package prompt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const docsCacheKey = "reference_docs"

// maxDocsBytes caps how much reference material goes into the seed message.
const maxDocsBytes = 512 * 1024

// SeedBuilder produces the system message written alongside every new session.
// Reference docs are fetched from docsURL and cached; the seed never depends on
// the fetch succeeding.
type SeedBuilder struct {
	docsURL     string
	instruction string
	client      *http.Client
	cache       *cache.Cache
}

func NewSeedBuilder(docsURL, instruction string, ttl time.Duration, client *http.Client) *SeedBuilder {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SeedBuilder{
		docsURL:     docsURL,
		instruction: instruction,
		client:      client,
		cache:       cache.New(ttl, 2*ttl),
	}
}

// Build returns the seed content. A non-nil error reports that the docs could not be
// loaded; the returned content is still usable (instruction only) in that case.
func (b *SeedBuilder) Build(ctx context.Context) (string, error) {
	if b.docsURL == "" {
		return b.instruction, nil
	}

	docs, err := b.docs(ctx)
	if err != nil {
		return b.instruction, err
	}

	return "Here is the documentation" + "\n\n" + docs + "\n\n" + b.instruction, nil
}

func (b *SeedBuilder) docs(ctx context.Context) (string, error) {
	if cached, found := b.cache.Get(docsCacheKey); found {
		return cached.(string), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.docsURL, nil)
	if err != nil {
		return "", fmt.Errorf("create docs request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch docs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch docs: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocsBytes))
	if err != nil {
		return "", fmt.Errorf("read docs: %w", err)
	}

	docs := strings.TrimSpace(string(body))
	b.cache.Set(docsCacheKey, docs, cache.DefaultExpiration)
	return docs, nil
}
