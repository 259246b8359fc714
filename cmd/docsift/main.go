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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/docsift"
	"github.com/poiesic/docsift/api"
	"github.com/poiesic/docsift/config"
	"github.com/poiesic/docsift/pipeline"
	"github.com/poiesic/docsift/selection"
	"github.com/poiesic/docsift/source"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docsift",
		Usage: "Extract the document sections that matter to a persona and a job",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"DOCSIFT_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML settings file",
				EnvVars: []string{"DOCSIFT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "Embedding provider (openai, ollama)",
				EnvVars: []string{"DOCSIFT_PROVIDER"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				EnvVars: []string{"DOCSIFT_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"DOCSIFT_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "cache-dir",
				Usage:   "Directory for the embedding cache and run history",
				EnvVars: []string{"DOCSIFT_CACHE_DIR"},
			},
			&cli.StringFlag{
				Name:    "rules",
				Usage:   "YAML rule table replacing the built-in domains",
				EnvVars: []string{"DOCSIFT_RULES"},
			},
		},
		Before: func(c *cli.Context) error {
			if err := loadEnv(".env"); err != nil {
				return err
			}
			return setupLogger(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Rank a document collection against a query file and print the result",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query JSON file (persona, job, optional documents)",
						Required: true,
						EnvVars:  []string{"DOCSIFT_QUERY"},
					},
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Directory holding the documents",
						Value:   ".",
						EnvVars: []string{"DOCSIFT_INPUT"},
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the result here instead of stdout",
						EnvVars: []string{"DOCSIFT_OUTPUT"},
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of sections to keep",
					},
					&cli.StringFlag{
						Name:  "policy",
						Usage: "Selection policy (global, per-document)",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Print document progress to stderr",
					},
				},
			},
			{
				Name:      "outline",
				Usage:     "Print the recovered section outline of a document",
				ArgsUsage: "<document>",
				Action:    outlineCommand,
			},
			{
				Name:   "domains",
				Usage:  "Print the active rule table as YAML",
				Action: domainsCommand,
			},
			{
				Name:   "serve",
				Usage:  "Serve the extraction API over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   ":8080",
						EnvVars: []string{"DOCSIFT_ADDR"},
					},
				},
			},
			{
				Name:   "history",
				Usage:  "List recent runs recorded in the cache directory",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of runs to show",
						Value: 10,
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Inspect or clear the embedding cache",
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Print the number of cached vectors",
						Action: cacheStatsCommand,
					},
					{
						Name:   "purge",
						Usage:  "Remove every cached vector",
						Action: cachePurgeCommand,
					},
				},
			},
		},
	}
}

// loadEnv reads a .env file when one exists. Variables already set win.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// loadSettings reads the settings file and applies the global flag overrides.
func loadSettings(c *cli.Context) (*config.Settings, error) {
	settings, err := config.LoadSettings(c.String("config"))
	if err != nil {
		return nil, err
	}
	if v := c.String("provider"); v != "" {
		settings.AI.Provider = v
	}
	if v := c.String("embedding-host"); v != "" {
		settings.AI.Host = v
	}
	if v := c.String("embedding-model"); v != "" {
		settings.AI.Model = v
	}
	if v := c.String("cache-dir"); v != "" {
		settings.CacheDir = v
	}
	if v := c.String("rules"); v != "" {
		settings.RulesFile = v
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func openEngine(c *cli.Context) (*docsift.Engine, error) {
	settings, err := loadSettings(c)
	if err != nil {
		return nil, err
	}
	return docsift.NewEngine(settings)
}

func runCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q, err := config.LoadQuery(c.String("query"))
	if err != nil {
		return err
	}

	settings, err := loadSettings(c)
	if err != nil {
		return err
	}
	if c.IsSet("top-k") {
		settings.Selection.TopK = c.Int("top-k")
	}
	if c.IsSet("policy") {
		policy, err := selection.ParsePolicy(c.String("policy"))
		if err != nil {
			return err
		}
		settings.Selection.Policy = policy
	}

	engine, err := docsift.NewEngine(settings)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	src, err := source.NewDirSource(c.String("input"))
	if err != nil {
		return err
	}

	var opts []pipeline.Option
	if c.Bool("progress") {
		opts = append(opts, pipeline.WithMonitor(pipeline.NewProgressMonitor(os.Stderr)))
	}
	p, err := engine.NewPipeline(src, opts...)
	if err != nil {
		return err
	}
	defer p.Release()

	run, err := p.Execute(ctx, pipeline.Request{
		Persona:   q.Persona,
		Job:       q.Job,
		Documents: q.Documents,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	out := c.App.Writer
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return writeResult(out, run)
}

type resultFile struct {
	Metadata struct {
		RunID     string    `json:"run_id"`
		Timestamp time.Time `json:"processing_timestamp"`
		Elapsed   string    `json:"elapsed"`
	} `json:"metadata"`
	Result any `json:"result"`
}

func writeResult(w io.Writer, run *pipeline.Run) error {
	var f resultFile
	f.Metadata.RunID = run.ID
	f.Metadata.Timestamp = run.StartedAt
	f.Metadata.Elapsed = run.Elapsed.Round(time.Millisecond).String()
	f.Result = run.Result

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

func outlineCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("document path is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	src, err := source.NewDirSource(filepath.Dir(path))
	if err != nil {
		return err
	}
	sections, err := engine.Outline(context.Background(), src, filepath.Base(path))
	if err != nil {
		return err
	}

	w := c.App.Writer
	for _, s := range sections {
		marker := ""
		if s.Implicit {
			marker = " (implicit)"
		}
		fmt.Fprintf(w, "%3d  p.%-3d %s%s\n", s.Index+1, s.Page, s.Heading, marker)
		for _, p := range s.Content {
			fmt.Fprintf(w, "          %s\n", preview(p.Text, 72))
		}
	}
	return nil
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n-3]) + "..."
}

func domainsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	data, err := engine.Table().Encode()
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	return api.NewServer(engine, slog.Default()).Serve(ctx, c.String("addr"))
}

func historyCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if engine.Runs() == nil {
		return fmt.Errorf("run history needs --cache-dir")
	}
	runs, err := engine.Runs().RecentRuns(context.Background(), c.Int("limit"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %-10s %d docs (%d failed), %d selected, %s\n    %s: %s\n",
			r.StartedAt.Local().Format(time.DateTime), r.ID, r.Domain,
			r.Documents, r.Failed, r.Selected, r.Elapsed.Round(time.Millisecond),
			r.Persona, r.Job)
	}
	return nil
}

func cacheStatsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if engine.Vectors() == nil {
		return fmt.Errorf("embedding cache needs --cache-dir")
	}
	n, err := engine.Vectors().CountVectors(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d cached vectors\n", n)
	return nil
}

func cachePurgeCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if engine.Vectors() == nil {
		return fmt.Errorf("embedding cache needs --cache-dir")
	}
	n, err := engine.Vectors().PurgeVectors(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "removed %d cached vectors\n", n)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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
