package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/recipefind"
	"github.com/poiesic/recipefind/api"
	"github.com/poiesic/recipefind/config"
	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/ingestion"
	"github.com/poiesic/recipefind/search"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func buildCommand(c *cli.Context) error {
	cfg, err := commandConfig(c)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := newProvider(cfg.AIConfig())
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	defer provider.Close()

	opts := []ingestion.Option{
		ingestion.WithBatchSize(cfg.BatchSize),
		ingestion.WithRetry(cfg.MaxRetries, cfg.RetryDelay),
		ingestion.WithMaxRecipes(cfg.MaxRecipes),
		ingestion.WithProgress(c.App.ErrWriter),
		ingestion.WithLogger(slog.Default()),
	}
	if cfg.Workers > 0 {
		opts = append(opts, ingestion.WithPoolSize(cfg.Workers))
	}
	builder, err := recipefind.NewBuilder(cfg.DataDir, provider, opts...)
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Raw file: %s\n", cfg.RawPath())
	fmt.Fprintf(c.App.ErrWriter, "Data dir: %s\n", cfg.DataDir)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", provider.Model())
	fmt.Fprintln(c.App.ErrWriter)

	report, err := builder.Build(ctx, cfg.RawPath())
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	printReport(c.App.Writer, report)
	return nil
}

func printReport(w io.Writer, report *ingestion.BuildReport) {
	fmt.Fprintf(w, "Generation: %s\n", report.Generation)
	fmt.Fprintf(w, "Raw rows: %d\n", report.RawRows)
	fmt.Fprintf(w, "Indexed: %d\n", report.Kept)
	fmt.Fprintf(w, "Dropped: %d\n", report.DroppedTotal())
	reasons := make([]string, 0, len(report.Dropped))
	for reason := range report.Dropped {
		reasons = append(reasons, string(reason))
	}
	slices.Sort(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "  %s: %d\n", reason, report.Dropped[ingestion.DropReason(reason)])
	}
	fmt.Fprintf(w, "Dimensions: %d\n", report.Dimensions)
	fmt.Fprintf(w, "Model: %s\n", report.Model)
	fmt.Fprintf(w, "Elapsed: %s\n", report.Elapsed.Round(time.Millisecond))
}

// openIndex opens the index with a provider it closes together with the index.
func openIndex(ctx context.Context, cfg config.Config) (*recipefind.Index, func(), error) {
	provider, err := newProvider(cfg.AIConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	idx, err := recipefind.OpenFromConfig(ctx, cfg,
		recipefind.WithProvider(provider),
		recipefind.WithLogger(slog.Default()))
	if err != nil {
		provider.Close()
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}
	closeFn := func() {
		if err := idx.Close(); err != nil {
			slog.Warn("failed to close index", "error", err)
		}
		provider.Close()
	}
	return idx, closeFn, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("a query is required")
	}
	cfg, err := commandConfig(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	idx, closeFn, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var monitor search.SearchMonitor
	if c.Bool("explain") {
		monitor = newExplainMonitor(c.App.ErrWriter, idx.Corpus())
	}
	results, err := idx.SearchWithMonitor(ctx, query, c.Bool("healthy"), monitor)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	printResults(c.App.Writer, results)
	return nil
}

func printResults(w io.Writer, results []*core.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tSCORE\tCALORIES\tMINUTES\tNAME")
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%.4f\t%s\t%s\t%s\n",
			i+1, r.Recipe.ID, r.Score,
			formatFloat(r.Recipe.Calories), formatInt(r.Recipe.Minutes), r.Recipe.Name)
	}
	tw.Flush()
}

func topCommand(c *cli.Context) error {
	cfg, err := commandConfig(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	idx, closeFn, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	rankings, err := idx.TopFeedback(ctx, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to rank feedback: %w", err)
	}
	if len(rankings) == 0 {
		fmt.Fprintln(c.App.Writer, "No helpful feedback yet.")
		return nil
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tVOTES\tID\tNAME")
	for i, r := range rankings {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", i+1, r.Count, r.Recipe.ID, r.Recipe.Name)
	}
	tw.Flush()
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := commandConfig(c)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	idx, closeFn, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	server := api.NewServer(cfg.Addr, idx,
		api.WithLogger(slog.Default()),
		api.WithCORSOrigins(cfg.CORSOrigins...))

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	return serveUntil(ctx, server, idx, hup)
}

type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

type reloader interface {
	Reload(ctx context.Context) error
}

// serveUntil runs server until ctx is done, reloading the index on every
// value received from reload. A failed reload keeps the current generation.
func serveUntil(ctx context.Context, server httpServer, idx reloader, reload <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	for {
		select {
		case err := <-errCh:
			return err
		case <-reload:
			slog.Info("reloading index")
			if err := idx.Reload(ctx); err != nil {
				slog.Error("reload failed, keeping current index", "error", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown failed: %w", err)
			}
			return <-errCh
		}
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
