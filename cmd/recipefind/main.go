// Copyright 2025 Poiesic Systems
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
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/recipefind"
	"github.com/poiesic/recipefind/config"
	"github.com/poiesic/recipefind/feedback"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

// newProvider is swapped out by tests.
var newProvider = recipefind.NewProvider

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "recipefind",
		Usage:    "Semantic recipe search",
		Metadata: map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   config.DefaultLogLevel,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load settings from a .env file before reading the environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding the index and the feedback log",
			},
		},
		Before: setupApp,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Clean the raw recipe CSV, embed every recipe and publish a new index",
				Action: buildCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "raw",
						Usage: "Path to the raw recipe CSV (default {data-dir}/RAW_recipes.csv)",
					},
					&cli.IntFlag{
						Name:  "max-recipes",
						Usage: "Keep only the first N cleaned recipes (0 means all)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of recipes per embedding request",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of embedding requests in flight (0 means half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per embedding request",
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
					},
				}, embeddingFlags()...),
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
					},
					&cli.StringSliceFlag{
						Name:  "cors-origin",
						Usage: "Allowed CORS origin (repeatable)",
					},
					&cli.StringFlag{
						Name:  "feedback-store",
						Usage: "Feedback store (csv, badger)",
					},
				}, searchFlags()...), embeddingFlags()...),
			},
			{
				Name:      "search",
				Usage:     "Run a query against the current index",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: append(append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "healthy",
						Usage: "Prefer lower-calorie recipes",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print what each search stage did",
					},
				}, searchFlags()...), embeddingFlags()...),
			},
			{
				Name:   "top",
				Usage:  "List the recipes with the most helpful votes",
				Action: topCommand,
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of recipes to list",
						Value: feedback.DefaultLimit,
					},
					&cli.StringFlag{
						Name:  "feedback-store",
						Usage: "Feedback store (csv, badger)",
					},
				}, embeddingFlags()...),
			},
		},
	}
}

func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-backend",
			Usage: "Embedding backend (openai, local)",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "OpenAI-compatible embedding endpoint",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "model-dir",
			Usage: "Directory holding local model files",
		},
	}
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "Number of results per query",
		},
		&cli.IntFlag{
			Name:  "min-overlap",
			Usage: "Minimum query tokens a result's ingredients must contain",
		},
		&cli.DurationFlag{
			Name:  "embed-timeout",
			Usage: "Deadline for embedding a query",
		},
	}
}

// setupApp loads the configuration and installs the default logger.
func setupApp(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}
	applyFlags(c, &cfg)
	c.App.Metadata[configKey] = cfg
	return setupLogger(c.App.ErrWriter, cfg.LogLevel)
}

func setupLogger(w io.Writer, levelStr string) error {
	level, err := config.ParseLogLevel(levelStr)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

// applyFlags overrides cfg with every flag given on the command line.
func applyFlags(c *cli.Context, cfg *config.Config) {
	strs := map[string]*string{
		"log-level":         &cfg.LogLevel,
		"data-dir":          &cfg.DataDir,
		"raw":               &cfg.RawFile,
		"addr":              &cfg.Addr,
		"feedback-store":    &cfg.FeedbackStore,
		"embedding-backend": &cfg.EmbeddingBackend,
		"embedding-host":    &cfg.EmbeddingHost,
		"embedding-model":   &cfg.EmbeddingModel,
		"model-dir":         &cfg.ModelDir,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}

	ints := map[string]*int{
		"top-k":       &cfg.TopK,
		"min-overlap": &cfg.MinOverlap,
		"max-recipes": &cfg.MaxRecipes,
		"batch-size":  &cfg.BatchSize,
		"workers":     &cfg.Workers,
		"max-retries": &cfg.MaxRetries,
	}
	for name, dst := range ints {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}

	durations := map[string]*time.Duration{
		"embed-timeout": &cfg.EmbedTimeout,
		"retry-delay":   &cfg.RetryDelay,
	}
	for name, dst := range durations {
		if c.IsSet(name) {
			*dst = c.Duration(name)
		}
	}

	if c.IsSet("cors-origin") {
		cfg.CORSOrigins = c.StringSlice("cors-origin")
	}
}

// commandConfig returns the loaded configuration with the command's own
// flags applied on top.
func commandConfig(c *cli.Context) (config.Config, error) {
	cfg, ok := c.App.Metadata[configKey].(config.Config)
	if !ok {
		return config.Config{}, errors.New("configuration was not loaded")
	}
	applyFlags(c, &cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
