// Copyright 2026 Sieve Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package webharvest wires the web search and content ingestion
// pipeline: a text search provider, a fan-out page retriever, and a
// tagged knowledge store with two-tier fallback search.
package webharvest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sievelabs/webharvest/ai"
	"github.com/sievelabs/webharvest/ai/openai"
	"github.com/sievelabs/webharvest/fetch"
	"github.com/sievelabs/webharvest/knowledge"
	"github.com/sievelabs/webharvest/retrieval"
	"github.com/sievelabs/webharvest/storage"
	"github.com/sievelabs/webharvest/storage/badger"
	"github.com/sievelabs/webharvest/websearch"
)

// System composes the full pipeline over a shared HTTP client and an
// embedded document store.
type System struct {
	backend      *badger.Backend
	repository   storage.DocumentRepository
	fetcher      *fetch.Fetcher
	provider     websearch.Provider
	orchestrator *retrieval.Orchestrator
	engine       *knowledge.Engine
	logger       *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig   *ai.Config
	httpClient *http.Client
	provider   websearch.Provider
	embedder   ai.Embedder
	inMemory   bool
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(cfg *ai.Config) SystemOption {
	return func(o *systemOptions) {
		o.aiConfig = cfg
	}
}

// WithHTTPClient sets the HTTP client shared by the fetcher and the
// search provider. Default is a client with a 30 second timeout.
func WithHTTPClient(client *http.Client) SystemOption {
	return func(o *systemOptions) {
		o.httpClient = client
	}
}

// WithSearchProvider overrides the text search provider.
// Default is the DuckDuckGo HTML endpoint.
func WithSearchProvider(provider websearch.Provider) SystemOption {
	return func(o *systemOptions) {
		o.provider = provider
	}
}

// WithEmbedder overrides the embedding service.
// Default is an OpenAI-compatible embedder built from the AI config.
func WithEmbedder(embedder ai.Embedder) SystemOption {
	return func(o *systemOptions) {
		o.embedder = embedder
	}
}

// WithInMemoryStore keeps the document store in memory instead of on
// disk. Intended for tests and short-lived runs.
func WithInMemoryStore() SystemOption {
	return func(o *systemOptions) {
		o.inMemory = true
	}
}

// NewSystem creates a fully wired pipeline storing documents at filePath.
func NewSystem(filePath string, opts ...SystemOption) (*System, error) {
	options := &systemOptions{
		aiConfig:   ai.DefaultConfig(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repository, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	fetcher, err := fetch.New(options.httpClient)
	if err != nil {
		repository.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = websearch.NewDuckDuckGo(options.httpClient)
		if err != nil {
			repository.Close()
			backend.Close()
			return nil, err
		}
	}

	orchestrator, err := retrieval.NewOrchestrator(fetcher)
	if err != nil {
		repository.Close()
		backend.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			repository.Close()
			backend.Close()
			return nil, err
		}
	}

	engine, err := knowledge.NewEngine(repository, embedder, fetcher)
	if err != nil {
		repository.Close()
		backend.Close()
		return nil, err
	}

	return &System{
		backend:      backend,
		repository:   repository,
		fetcher:      fetcher,
		provider:     provider,
		orchestrator: orchestrator,
		engine:       engine,
		logger:       slog.Default(),
	}, nil
}

// Close releases the system's resources.
func (s *System) Close() error {
	if err := s.repository.Close(); err != nil {
		s.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// pageJSON is the wire shape of one retrieved page.
type pageJSON struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchOnline runs a text search for query, retrieves up to top linked
// pages concurrently, and returns the cleaned pages as a JSON array of
// {url, content} objects. Page ordering follows fetch completion and is
// not significant.
func (s *System) SearchOnline(ctx context.Context, query string, top int) ([]byte, error) {
	results := s.provider.Results(ctx, query, top)

	pages, err := s.orchestrator.RetrieveAll(ctx, results)
	if err != nil {
		return nil, err
	}

	out := make([]pageJSON, 0, len(pages))
	for _, page := range pages {
		out = append(out, pageJSON{URL: page.URL, Content: page.Text})
	}
	return json.Marshal(out)
}

// Engine returns the knowledge ingestion and search engine.
func (s *System) Engine() *knowledge.Engine {
	return s.engine
}

// Fetcher returns the shared content fetcher.
func (s *System) Fetcher() *fetch.Fetcher {
	return s.fetcher
}

// Orchestrator returns the fan-out retrieval orchestrator.
func (s *System) Orchestrator() *retrieval.Orchestrator {
	return s.orchestrator
}

// Repository returns the underlying document repository.
func (s *System) Repository() storage.DocumentRepository {
	return s.repository
}
