package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pable/go-pbp-insights/internal/loader"
	"github.com/pable/go-pbp-insights/internal/metrics"
	"github.com/pable/go-pbp-insights/internal/model"
	"github.com/pable/go-pbp-insights/internal/pipeline"
	"github.com/pable/go-pbp-insights/internal/publisher"
	"github.com/pable/go-pbp-insights/internal/report"
)

var (
	analyzeCompetition string
	analyzeQuarters    []string
	analyzeJSONOut     string
	analyzeMetricsOut  string
	analyzePublish     bool
	analyzeNoStore     bool
	analyzeSections    []string
	analyzeTop         int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <events.json>...",
	Short: "Analyze play-by-play dumps for one competition",
	Long: `Load one or more play-by-play dumps (JSON array or one JSON object per line),
run the per-game analysis and print the competition report.

Quarter partial scores are optional and feed the quarter profiles:

  pbpinsights analyze --competition serie_b events.json --quarters partials.json

The report is stored in the database under the competition name, replacing
any earlier analysis of the same competition.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeCompetition, "competition", "c", "", "competition name (required)")
	analyzeCmd.Flags().StringArrayVarP(&analyzeQuarters, "quarters", "q", nil, "quarter partial scores file (repeatable)")
	analyzeCmd.Flags().StringVar(&analyzeJSONOut, "json-out", "", "also write the full report as JSON to this file")
	analyzeCmd.Flags().StringVar(&analyzeMetricsOut, "metrics-out", "", "write Prometheus text metrics for this run to this file")
	analyzeCmd.Flags().BoolVar(&analyzePublish, "publish", false, "publish the report tables to the configured Redis stream")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "do not save the report in the database")
	analyzeCmd.Flags().StringSliceVar(&analyzeSections, "section", nil, "sections to print: runs, comebacks, clutch, quarters, players (default all)")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 20, "max rows in detail tables (0 = all)")
	_ = analyzeCmd.MarkFlagRequired("competition")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	raws, err := loader.LoadEvents(args...)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	splits, err := loader.LoadSplits(analyzeQuarters...)
	if err != nil {
		return fmt.Errorf("load quarters: %w", err)
	}
	logger.Info("loaded dumps", "competition", analyzeCompetition, "events", len(raws), "splits", len(splits))

	m := metrics.NewManager()
	analyzer := pipeline.New(
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
		pipeline.WithOptions(cfg.AnalysisOptions()),
		pipeline.WithTeamAliases(cfg.TeamAliases),
	)
	rep, err := analyzer.Run(ctx, analyzeCompetition, raws, splits)
	if err != nil {
		return err
	}

	if !analyzeNoStore {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		id, err := db.SaveReport(rep)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		logger.Info("report stored", "competition", rep.Competition, "id", id)
	}

	if analyzeJSONOut != "" {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := os.WriteFile(analyzeJSONOut, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", analyzeJSONOut, err)
		}
	}

	if analyzeMetricsOut != "" {
		if err := writeMetrics(m, analyzeMetricsOut); err != nil {
			return err
		}
	}

	if analyzePublish {
		if err := publish(ctx, rep.Competition, rep); err != nil {
			return err
		}
	}

	report.PrintReport(os.Stdout, rep, analyzeSections, analyzeTop)
	return nil
}

func writeMetrics(m *metrics.Manager, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := m.WriteText(f); err != nil {
		f.Close()
		return fmt.Errorf("write metrics: %w", err)
	}
	return f.Close()
}

func publish(ctx context.Context, competition string, rep *model.Report) error {
	p, err := publisher.Dial(ctx, cfg.RedisURL, cfg.RedisStream)
	if err != nil {
		return fmt.Errorf("connect publisher: %w", err)
	}
	defer p.Close()

	n, err := p.PublishReport(ctx, competition, rep)
	if err != nil {
		return fmt.Errorf("publish report (%d tables sent): %w", n, err)
	}
	logger.Info("report published", "stream", cfg.RedisStream, "tables", n)
	return nil
}
