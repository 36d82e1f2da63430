package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/forceradar/internal/analysis"
	"github.com/san-kum/forceradar/internal/automation"
	"github.com/san-kum/forceradar/internal/config"
	"github.com/san-kum/forceradar/internal/dataset"
	"github.com/san-kum/forceradar/internal/export"
	"github.com/san-kum/forceradar/internal/metrics"
	"github.com/san-kum/forceradar/internal/optim"
	"github.com/san-kum/forceradar/internal/sim"
	"github.com/san-kum/forceradar/internal/storage"
	"github.com/san-kum/forceradar/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	seed       int64
	logLevel   string
	maxTicks   int
	output     string
	scale      float64
	anchors    bool
	param      string
	paramMin   float64
	paramMax   float64
	steps      int
	trials     int
	grid       []string
	objective  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "forceradar",
		Short:         "force-directed radar scatterplot simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".forceradar", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "default", "use preset configuration")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed (0 uses the config seed or the clock)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [dataset]",
		Short: "run the simulation until it settles and save the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVar(&maxTicks, "max-ticks", 0, "tick limit (0 uses the config value)")

	liveCmd := &cobra.Command{
		Use:   "live [dataset]",
		Short: "run the simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}

	generateCmd := &cobra.Command{
		Use:   "generate [out]",
		Short: "write a random dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  generateDataset,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot alpha and metrics of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the final frame of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().Float64Var(&scale, "scale", 1, "pixels per chart unit")
	exportSVGCmd.Flags().BoolVar(&anchors, "anchors", false, "mark group anchors")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export the final frame of a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [out]",
		Short: "write the resolved configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}

	scriptCmd := &cobra.Command{
		Use:   "script [scenario] [dataset]",
		Short: "play a scripted scenario and save the result",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runScript,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [dataset]",
		Short: "sweep one simulation parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&param, "param", "friction", "parameter to vary")
	sweepCmd.Flags().Float64Var(&paramMin, "min", 0.9, "first value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 0.99, "last value")
	sweepCmd.Flags().IntVar(&steps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&trials, "trials", 3, "seeded runs per value")

	tuneCmd := &cobra.Command{
		Use:   "tune [dataset]",
		Short: "grid search simulation parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	tuneCmd.Flags().StringSliceVar(&grid, "grid", []string{"node_padding=0:3:4", "static_repulse_factor=1:2:3"}, "name=min:max:n ranges")
	tuneCmd.Flags().StringVar(&objective, "metric", "overlap", "metric to minimise (ticks, overlap, anchor_error, unsettled)")
	tuneCmd.Flags().IntVar(&trials, "trials", 3, "seeded runs per combination")

	rootCmd.AddCommand(runCmd, liveCmd, generateCmd, listCmd, plotCmd, exportSVGCmd, exportJSONCmd, presetsCmd, configCmd, scriptCmd, sweepCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig applies the preset, then the config file on top of it.
func loadConfig() (*config.Config, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	return cfg, nil
}

func resolveSeed(cfg *config.Config) int64 {
	switch {
	case seed != 0:
		return seed
	case cfg.Seed != 0:
		return cfg.Seed
	default:
		return time.Now().UnixNano()
	}
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// session is a loaded simulation plus what is needed to record it.
type session struct {
	sim  *sim.Simulation
	cfg  *config.Config
	info storage.RunInfo
	rng  *rand.Rand
	log  *slog.Logger
}

// newSession builds a simulation and loads the dataset at path, or a random
// one when path is empty.
func newSession(path string) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return nil, err
	}
	runSeed := resolveSeed(cfg)
	rng := rand.New(rand.NewSource(runSeed))

	s, err := sim.New(cfg.Simulation,
		sim.WithLogger(logger),
		sim.WithRand(rng),
		sim.WithChart(cfg.Chart),
	)
	if err != nil {
		return nil, err
	}

	var ds *dataset.Dataset
	name := "random"
	if path != "" {
		if ds, err = dataset.LoadFile(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		name = path
	} else {
		ds = dataset.Random(rng, cfg.Generator)
	}
	if err := s.LoadDataset(ds); err != nil {
		return nil, err
	}

	return &session{
		sim: s,
		cfg: cfg,
		rng: rng,
		log: logger,
		info: storage.RunInfo{
			Dataset:    name,
			Preset:     preset,
			Seed:       runSeed,
			Simulation: cfg.Simulation,
			Chart:      cfg.Chart,
		},
	}, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	sess, err := newSession(path)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	for _, m := range metrics.Standard(sess.cfg.Simulation.NodePadding) {
		sess.sim.AddMetric(m)
	}

	limit := sess.cfg.MaxTicks
	if cmd.Flags().Changed("max-ticks") {
		limit = maxTicks
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (%d points, %d targets)...\n", sess.info.Dataset, len(sess.sim.Points()), len(sess.sim.Targets())-1)
	result, err := sess.sim.Run(ctx, limit)
	if err != nil {
		if result == nil {
			return err
		}
		sess.log.Warn("run interrupted", "err", err, "ticks", result.Ticks)
	}

	runID, err := st.Save(sess.info, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Duration)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d (settled: %t)\n", result.Ticks, result.Settled)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	// Log lines would tear the alt screen.
	if logLevel == "debug" || logLevel == "info" {
		logLevel = "error"
	}
	sess, err := newSession(path)
	if err != nil {
		return err
	}
	title := strings.TrimSuffix(filepath.Base(sess.info.Dataset), filepath.Ext(sess.info.Dataset))
	return viz.Run(sess.sim, title, sess.rng)
}

func generateDataset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	runSeed := resolveSeed(cfg)
	ds := dataset.Random(rand.New(rand.NewSource(runSeed)), cfg.Generator)
	if err := dataset.Save(args[0], ds); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d groups, %d targets, %d points (seed %d)\n",
		args[0], len(ds.Groups), len(ds.Targets), len(ds.Points), runSeed)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATASET\tPRESET\tTIME\tPOINTS\tTICKS\tSETTLED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%t\n",
			run.ID,
			run.Dataset,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Points,
			run.Ticks,
			run.Settled,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	if len(history.Ticks) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("dataset: %s\n", meta.Dataset)
	fmt.Printf("ticks: %d\n\n", len(history.Ticks))

	for _, name := range history.Columns {
		graph := asciigraph.Plot(history.Values[name],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	conv := analysis.Converge(history.Values["alpha"], meta.Simulation.StopThreshold, history.Values, 0.01)
	fmt.Printf("alpha decay: %.4f per tick (friction %.4f), predicted %d ticks\n",
		conv.DecayRate, meta.Simulation.Friction, conv.Predicted)
	for _, name := range history.Columns {
		if name == "alpha" {
			continue
		}
		period, share := analysis.Ringing(history.Values[name])
		fmt.Printf("  %-14s flat from tick %d", name, conv.Plateau[name])
		if share > 0.5 {
			fmt.Printf(", ringing every %.1f ticks", period)
		}
		fmt.Println()
	}

	frame, err := st.LoadFrame(runID)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(analysis.Scatter(frame, meta.Chart.Width, meta.Chart.Height, 60, 30))
	return nil
}

func openOutput() (io.WriteCloser, error) {
	if output == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, err
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frame, err := st.LoadFrame(runID)
	if err != nil {
		return err
	}

	w, err := openOutput()
	if err != nil {
		return err
	}
	defer w.Close()

	return export.WriteSVG(w, frame, export.SVGOptions{
		Width:   meta.Chart.Width,
		Height:  meta.Chart.Height,
		Scale:   scale,
		Anchors: anchors,
	})
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frame, err := st.LoadFrame(runID)
	if err != nil {
		return err
	}

	if output != "" {
		return export.WriteJSONFile(output, meta.ID, meta.Metrics, frame)
	}
	return export.WriteJSON(os.Stdout, meta.ID, meta.Metrics, frame)
}

func runScript(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	path := ""
	if len(args) > 1 {
		path = args[1]
	}
	sess, err := newSession(path)
	if err != nil {
		return err
	}
	for _, m := range metrics.Standard(sess.cfg.Simulation.NodePadding) {
		sess.sim.AddMetric(m)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("playing %s (%d steps)...\n", sc.Name, len(sc.Steps))
	runner := &automation.Runner{Sim: sess.sim, Rand: sess.rng, Log: sess.log}
	result, err := runner.Run(ctx, sc)
	if err != nil {
		if ctx.Err() == nil {
			return err
		}
		sess.log.Warn("scenario interrupted", "err", err, "ticks", result.Ticks)
	}

	runID, err := st.Save(sess.info, result)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d (settled: %t)\n", result.Ticks, result.Settled)
	return nil
}

// loadDataset reads path, or generates a dataset from the config seed.
func loadDataset(cfg *config.Config, path string) (*dataset.Dataset, error) {
	if path != "" {
		return dataset.LoadFile(path)
	}
	return dataset.Random(rand.New(rand.NewSource(resolveSeed(cfg))), cfg.Generator), nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	ds, err := loadDataset(cfg, path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunSweep(ctx, cfg, ds, automation.ParameterSweep{
		Param: param,
		Min:   paramMin,
		Max:   paramMax,
		Steps: steps,
		Seeds: automation.Seeds(resolveSeed(cfg), trials),
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTICKS\tSETTLED\tOVERLAP\tANCHOR_ERR\n", strings.ToUpper(param))
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%.1f\t%d/%d\t%.2f\t%.2f\n",
			r.Value, r.MeanTicks, r.Settled, r.Trials, r.MeanOverlap, r.MeanAnchorError)
	}
	return w.Flush()
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	ds, err := loadDataset(cfg, path)
	if err != nil {
		return err
	}

	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	seeds := automation.Seeds(resolveSeed(cfg), trials)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	search := optim.NewGridSearch(names, ranges)
	best, score, err := search.Search(ctx, func(ctx context.Context, params map[string]float64) (float64, error) {
		trial := *cfg
		for name, v := range params {
			if err := trial.Simulation.Set(name, v); err != nil {
				return 0, err
			}
		}
		if err := trial.Validate(); err != nil {
			return 0, err
		}
		results, err := automation.RunTrials(ctx, &trial, ds, seeds)
		if err != nil {
			return 0, err
		}
		return automation.Summarize(results).Metric(objective)
	})
	if err != nil {
		return err
	}

	fmt.Printf("best %s: %.4f\n", objective, score)
	for _, name := range names {
		fmt.Printf("  %s: %.4f\n", name, best[name])
	}
	return nil
}

// parseGrid reads name=min:max:n ranges.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, rng, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid grid %q: expected name=min:max:n", spec)
		}
		var lo, hi float64
		var n int
		if _, err := fmt.Sscanf(rng, "%g:%g:%d", &lo, &hi, &n); err != nil {
			return nil, nil, fmt.Errorf("invalid grid %q: %w", spec, err)
		}
		if _, ok := config.DefaultSimulation().Get(name); !ok {
			return nil, nil, fmt.Errorf("unknown parameter %q (available: %v)", name, config.ParamNames())
		}
		names = append(names, name)
		ranges = append(ranges, optim.Linspace(lo, hi, n))
	}
	return names, ranges, nil
}
