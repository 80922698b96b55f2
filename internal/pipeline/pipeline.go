// Package pipeline runs the per-game analysis over a whole competition and
// merges the results into one report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pable/go-pbp-insights/internal/aggregator"
	"github.com/pable/go-pbp-insights/internal/loader"
	"github.com/pable/go-pbp-insights/internal/logging"
	"github.com/pable/go-pbp-insights/internal/metrics"
	"github.com/pable/go-pbp-insights/internal/model"
	"github.com/pable/go-pbp-insights/internal/normalize"
)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkers bounds how many games are analyzed concurrently.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

func WithMetrics(m *metrics.Manager) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithOptions sets the analysis thresholds.
func WithOptions(o aggregator.Options) Option {
	return func(a *Analyzer) {
		a.opts = o
	}
}

// WithTeamAliases canonicalizes team name variants in events and splits.
func WithTeamAliases(aliases map[string]string) Option {
	return func(a *Analyzer) {
		a.normalizer = normalize.New(aliases)
	}
}

// Analyzer turns a competition's raw dumps into a Report.
type Analyzer struct {
	workers    int
	log        *slog.Logger
	metrics    *metrics.Manager
	opts       aggregator.Options
	normalizer *normalize.Normalizer

	analyze func(code string, events []model.GameEvent, opts aggregator.Options) (*aggregator.GameResult, error)
}

// New returns an Analyzer with default thresholds and one worker per CPU.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		workers:    runtime.NumCPU(),
		log:        logging.Discard(),
		metrics:    metrics.NewManager(),
		opts:       aggregator.DefaultOptions(),
		normalizer: normalize.New(nil),
		analyze:    aggregator.AnalyzeGame,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = metrics.NewManager()
	}
	return a
}

// gameSlot holds one game's outcome at the game's position in the sorted
// game list, so the merge never depends on goroutine scheduling.
type gameSlot struct {
	code   string
	result *aggregator.GameResult
	err    error
	took   time.Duration
}

// Run analyzes every game in raws and builds the competition report. Bad
// rows and failing games are counted and logged, never fatal; only context
// cancellation aborts the run.
func (a *Analyzer) Run(ctx context.Context, competition string, raws []model.RawEvent, splits []model.QuarterSplit) (*model.Report, error) {
	// ---- Pass 1: dedupe and normalize. ----
	raws, duplicates := loader.DedupeEvents(raws)
	events, malformed := a.normalizer.NormalizeAll(raws)
	a.metrics.EventsNormalized(len(events))
	a.metrics.EventsDropped(duplicates + malformed)
	if duplicates+malformed > 0 {
		a.log.Info("dropped raw events", "competition", competition, "duplicate", duplicates, "malformed", malformed)
	}

	byGame := make(map[string][]model.GameEvent)
	for _, e := range events {
		byGame[e.GameCode] = append(byGame[e.GameCode], e)
	}
	codes := make([]string, 0, len(byGame))
	for code := range byGame {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	// ---- Pass 2: per-game analysis, fanned out. ----
	slots := make([]gameSlot, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res, err := a.analyzeGame(code, byGame[code])
			slots[i] = gameSlot{code: code, result: res, err: err, took: time.Since(start)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze %s: %w", competition, err)
	}

	// ---- Pass 3: merge in game order. ----
	report := &model.Report{Competition: competition}
	report.Summary.TotalEvents = len(events)
	report.Summary.TotalGames = len(codes)
	report.Summary.DroppedEvents = duplicates + malformed

	excluded := make(map[model.Exclusion]int)
	games := make([]*model.Game, 0, len(slots))
	for _, s := range slots {
		if s.err != nil {
			report.Summary.FailedGames++
			a.metrics.GameFailed()
			a.log.Warn("game analysis failed", "competition", competition, "game_code", s.code, "err", s.err)
			continue
		}
		a.metrics.GameAnalyzed(s.took)

		r := s.result
		games = append(games, r.Game)
		report.Runs = append(report.Runs, r.Runs...)
		report.Comebacks = append(report.Comebacks, r.Comebacks...)
		report.BlownLeads = append(report.BlownLeads, r.BlownLeads...)
		report.Summary.ClutchEvents += r.ClutchEvents
		report.Summary.TotalPoints += r.Points
		for reason, n := range r.Excluded {
			excluded[reason] += n
			report.Summary.ExcludedEvents += n
		}
	}
	for _, reason := range []model.Exclusion{model.ExcludedNonMonotonic, model.ExcludedNoChange, model.ExcludedAmbiguous} {
		if n := excluded[reason]; n > 0 {
			a.metrics.EventsExcluded(string(reason), n)
			a.log.Debug("events excluded from attribution", "competition", competition, "reason", string(reason), "count", n)
		}
	}

	sort.SliceStable(report.Runs, func(i, j int) bool { return report.Runs[i].Points > report.Runs[j].Points })
	sort.SliceStable(report.Comebacks, func(i, j int) bool { return report.Comebacks[i].Deficit > report.Comebacks[j].Deficit })
	sort.SliceStable(report.BlownLeads, func(i, j int) bool { return report.BlownLeads[i].MaxLead > report.BlownLeads[j].MaxLead })

	// ---- Pass 4: competition roll-ups. ----
	report.TeamRuns = aggregator.SummarizeRuns(report.Runs)
	report.TeamComebacks = aggregator.SummarizeComebacks(report.Comebacks, report.BlownLeads)
	report.ClutchStats = aggregator.ClutchStats(games)
	report.Closers = aggregator.ClosersRanking(report.ClutchStats, a.opts.MinClutchGames)
	report.Responsibility = aggregator.ResponsibilityRanking(report.ClutchStats, a.opts.MinClutchGames)
	report.Q4Heroes = aggregator.Q4Heroes(games, a.opts.MinQ4Games)
	report.Activity = aggregator.PlayerQuarterActivity(games)
	report.Distribution = aggregator.TeamPlayerDistribution(report.Activity, a.opts.MinDistributionEvents)
	report.Quarters = aggregator.QuarterProfiles(a.canonicalSplits(splits))

	a.log.Info("analysis finished",
		"competition", competition,
		"games", len(codes),
		"events", len(events),
		"runs", len(report.Runs),
		"comebacks", len(report.Comebacks),
		"failed", report.Summary.FailedGames,
	)
	return report, nil
}

// analyzeGame isolates one game: a panic becomes an error for that game only.
func (a *Analyzer) analyzeGame(code string, events []model.GameEvent) (res *aggregator.GameResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("game %s: panic: %v", code, r)
		}
	}()
	return a.analyze(code, events, a.opts)
}

func (a *Analyzer) canonicalSplits(splits []model.QuarterSplit) []model.QuarterSplit {
	splits, dup := loader.DedupeSplits(splits)
	if dup > 0 {
		a.log.Info("dropped duplicate quarter splits", "count", dup)
	}
	out := make([]model.QuarterSplit, len(splits))
	for i, s := range splits {
		s.HomeTeam = a.normalizer.Team(s.HomeTeam)
		s.AwayTeam = a.normalizer.Team(s.AwayTeam)
		out[i] = s
	}
	return out
}
