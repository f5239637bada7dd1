package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"grokipedia-x/internal/common/config"
	"grokipedia-x/internal/common/logger"
	"grokipedia-x/internal/common/observability"
	fetchpayload "grokipedia-x/internal/workers/news/fetch-payload"
	persistsummary "grokipedia-x/internal/workers/news/persist-summary"
	streamcompletion "grokipedia-x/internal/workers/news/stream-completion"
	summarizenews "grokipedia-x/internal/workers/news/summarize-news"
)

type options struct {
	configPath string
	preset     string
	model      string
	output     string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "summarizer [query]",
		Short: "Summarize X search results into suggested Grokipedia edits",
		Long: "Fetches posts matching a query or preset, asks the xAI completion service to match them\n" +
			"to Grokipedia articles, and saves the suggested edits to a JSON file and optionally a store.\n\n" +
			"Presets: " + strings.Join(fetchpayload.PresetNames(), ", "),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, strings.Join(args, " "), stdout, stderr)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to a config file (default: configs/config.yaml when present)")
	cmd.Flags().StringVarP(&opts.preset, "preset", "p", "", "run a named search preset instead of the query")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "completion model (overrides XAI_MODEL)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "summary file path (default summary.json)")
	return cmd
}

func run(ctx context.Context, opts *options, query string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.output != "" {
		cfg.Output.Path = opts.output
	}
	if opts.preset == "" {
		opts.preset = cfg.Search.Preset
	}
	if strings.TrimSpace(query) == "" {
		query = cfg.Search.Query
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer obs.Shutdown(context.Background())

	stages, cleanup, err := summarizenews.NewStages(ctx, cfg, log, streamcompletion.NewConsoleObserver(stdout))
	if err != nil {
		return err
	}
	defer cleanup()

	handler := summarizenews.NewHandler(summarizenews.NewConfig(cfg), stages, &consoleProgress{out: stdout}, obs, log)

	out, err := handler.Execute(ctx, &summarizenews.Input{Query: query, Preset: opts.preset, Model: opts.model})
	if err != nil {
		return err
	}
	if out.StoreError != "" {
		fmt.Fprintf(stderr, "Failed to upsert summary: %s\n", out.StoreError)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// consoleProgress echoes the payload, the streamed summary and where it was
// saved.
type consoleProgress struct {
	out io.Writer
}

func (p *consoleProgress) PayloadFetched(out *fetchpayload.Output) {
	pretty, err := out.Payload.Indented()
	if err != nil {
		pretty = out.Payload.Raw()
	}
	fmt.Fprintf(p.out, "=== Raw X payload for query: %s ===\n%s\n", out.Query, pretty)
}

func (p *consoleProgress) SummaryReceived(out *streamcompletion.Output) {
	fmt.Fprintf(p.out, "\n=== xAI summary (%s) ===\n%s\n", out.Model, out.Summary)
}

func (p *consoleProgress) SummaryPersisted(out *persistsummary.Output) {
	fmt.Fprintf(p.out, "Saved summary to %s\n", out.Path)
	if out.Stored {
		fmt.Fprintf(p.out, "Upserted summary into %s (id: %q)\n", out.StoreTarget, out.DocumentID)
	}
}
