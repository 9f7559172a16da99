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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sievelabs/webharvest"
	"github.com/sievelabs/webharvest/ai"
	"github.com/sievelabs/webharvest/core"
	"github.com/sievelabs/webharvest/knowledge"
	"github.com/urfave/cli/v2"
)

func main() {
	storeFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
	}

	app := &cli.App{
		Name:  "webharvest",
		Usage: "Web search and content ingestion pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search the web and print retrieved pages as JSON",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"t"},
						Usage:   "Maximum number of search results to retrieve",
						Value:   5,
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import a local file into the knowledge store",
				ArgsUsage: "<file>",
				Action:    importCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "access",
						Usage: "Access tag (public, private)",
						Value: "public",
					},
					&cli.StringFlag{
						Name:  "conversation",
						Usage: "Conversation identifier to tag the document with",
					},
				}, storeFlags...),
			},
			{
				Name:      "import-page",
				Usage:     "Fetch a web page and import it into the knowledge store",
				ArgsUsage: "<url>",
				Action:    importPageCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "access",
						Usage: "Access tag (public, private)",
						Value: "public",
					},
					&cli.StringFlag{
						Name:  "conversation",
						Usage: "Conversation identifier to tag the document with",
					},
				}, storeFlags...),
			},
			{
				Name:      "query",
				Usage:     "Search the knowledge store",
				ArgsUsage: "<query>",
				Action:    queryCommand,
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "authenticated",
						Usage: "Search as a signed-in caller (sees private documents)",
					},
					&cli.StringFlag{
						Name:  "conversation",
						Usage: "Conversation identifier for the fallback tier",
					},
				}, storeFlags...),
			},
			{
				Name:      "remove",
				Usage:     "Remove a document from the knowledge store",
				ArgsUsage: "<document-id>",
				Action:    removeCommand,
				Flags:     storeFlags,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	// The search pipeline needs no persistent store
	system, err := webharvest.NewSystem("", webharvest.WithInMemoryStore())
	if err != nil {
		return fmt.Errorf("failed to create system: %w", err)
	}
	defer system.Close()

	raw, err := system.SearchOnline(context.Background(), query, c.Int("top"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Println(string(raw))
	return nil
}

func importCommand(c *cli.Context) error {
	filePath := c.Args().First()
	if filePath == "" {
		return fmt.Errorf("file path is required")
	}

	tags, err := tagsFromFlags(c)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	system, err := openStore(c)
	if err != nil {
		return err
	}
	defer system.Close()

	id, err := system.Engine().ImportDocument(context.Background(), string(content), filePath, tags)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("imported %s as document %d\n", filePath, id)
	return nil
}

func importPageCommand(c *cli.Context) error {
	pageURL := c.Args().First()
	if pageURL == "" {
		return fmt.Errorf("URL is required")
	}

	tags, err := tagsFromFlags(c)
	if err != nil {
		return err
	}

	system, err := openStore(c)
	if err != nil {
		return err
	}
	defer system.Close()

	id, err := system.Engine().ImportWebPage(context.Background(), pageURL, tags)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("imported %s as document %d\n", pageURL, id)
	return nil
}

func queryCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	system, err := openStore(c)
	if err != nil {
		return err
	}
	defer system.Close()

	scope := knowledge.Scope{
		Authenticated: c.Bool("authenticated"),
		Conversation:  c.String("conversation"),
	}

	hits, err := system.Engine().Search(context.Background(), query, scope)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println("no results")
		return nil
	}

	for _, hit := range hits {
		fmt.Printf("%.3f  %d  %s\n", hit.Score, hit.Document.ID, hit.Document.FileName)
	}
	return nil
}

func removeCommand(c *cli.Context) error {
	arg := c.Args().First()
	if arg == "" {
		return fmt.Errorf("document ID is required")
	}

	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document ID %q: %w", arg, err)
	}

	system, err := openStore(c)
	if err != nil {
		return err
	}
	defer system.Close()

	if err := system.Engine().RemoveDocument(context.Background(), core.ID(id)); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}

	fmt.Printf("removed document %d\n", id)
	return nil
}

// openStore creates a System against the database and embedding flags.
func openStore(c *cli.Context) (*webharvest.System, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	system, err := webharvest.NewSystem(c.String("db"), webharvest.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return system, nil
}

func tagsFromFlags(c *cli.Context) (core.DocumentTags, error) {
	var access core.AccessLevel
	switch strings.ToLower(c.String("access")) {
	case "public":
		access = core.AccessPublic
	case "private":
		access = core.AccessPrivate
	default:
		return core.DocumentTags{}, fmt.Errorf("invalid access tag %q: must be public or private", c.String("access"))
	}

	return core.DocumentTags{
		Access:       access,
		Conversation: c.String("conversation"),
	}, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
