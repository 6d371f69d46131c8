package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/statesim/internal/config"
	"github.com/san-kum/statesim/internal/experiment"
	"github.com/san-kum/statesim/internal/integrators"
	"github.com/san-kum/statesim/internal/metrics"
	"github.com/san-kum/statesim/internal/models"
	"github.com/san-kum/statesim/internal/plot"
	"github.com/san-kum/statesim/internal/series"
	"github.com/san-kum/statesim/internal/sim"
	"github.com/san-kum/statesim/internal/storage"
	"github.com/san-kum/statesim/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	dt         float64
	horizon    float64
	solver     string
	outPath    string
	pngDir     string
	noSave     bool
	workers    int

	logger = slog.New(slog.DiscardHandler)
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "statesim",
		Short:         "fixed-step simulation of linear state-space systems",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return pickLive(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".statesim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario and store its signals",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&outPath, "out", "", "also write the signal table to this CSV file")
	runCmd.Flags().StringVar(&pngDir, "png", "", "also render PNG charts into this directory")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run signals",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngDir, "png", "", "render PNG charts into this directory instead of the terminal")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run signals to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")

	modelCmd := &cobra.Command{
		Use:   "model [preset]",
		Short: "print the state-space matrices of a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printModel,
	}
	modelCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tSOLVER\tHORIZON\tDT\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%s\t%s\t%gs\t%gs\t%s\n",
					name, p.Model.Kind, p.Solver, p.Horizon, p.Dt, config.PresetInfo[name])
			}
			return w.Flush()
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare [preset | --config file] [solver...]",
		Short: "run one scenario under several solvers in parallel",
		Args:  cobra.ArbitraryArgs,
		RunE:  compareSolvers,
	}
	addScenarioFlags(compareCmd)
	compareCmd.Flags().IntVar(&workers, "workers", 0, "maximum concurrent runs (0 = one per solver)")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "step a scenario in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportCSVCmd, modelCmd, presetsCmd, compareCmd, liveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "step size")
	cmd.Flags().Float64Var(&horizon, "time", config.DefaultHorizon, "horizon")
	cmd.Flags().StringVar(&solver, "solver", config.DefaultSolver, "solver (euler, rk4)")
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}

// resolveConfig picks the preset, config file or default scenario and
// applies the flags the user set explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		if configFile != "" {
			return nil, fmt.Errorf("use either a preset or --config, not both")
		}
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Horizon = horizon
	}
	if cmd.Flags().Changed("solver") {
		cfg.Solver = solver
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	s := exp.Simulator()

	logger.Info("running simulation", "scenario", cfg.Name, "solver", cfg.Solver, "steps", s.Steps())
	start := time.Now()
	if err := exp.Run(cmd.Context()); err != nil {
		return err
	}
	elapsed := time.Since(start)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, s)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	summary := metrics.Evaluate(s.Series(), metrics.Defaults(s.SignalNames()))
	if outPath != "" {
		if err := s.Export(outPath); err != nil {
			return err
		}
		fmt.Printf("csv: %s\n", outPath)
	}
	if pngDir != "" {
		paths, err := plot.PNG{Dir: pngDir}.Render(s.Series())
		if err != nil {
			return err
		}
		fmt.Printf("charts: %d in %s\n", len(paths), pngDir)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("samples: %d\n", s.Series().Len())
	fmt.Println("\nfinal values:")
	row := s.Series().Row(s.Series().Len() - 1)
	for i, name := range s.Series().Names() {
		fmt.Printf("  %-8s %s\n", name, series.FormatValue(row[i]))
	}
	fmt.Println("\nmetrics:")
	for _, name := range metrics.SortedNames(summary) {
		fmt.Printf("  %s: %.6g\n", name, summary[name])
	}
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
	fmt.Fprintln(w, "ID\tKIND\tTIME\tHORIZON\tDT\tSOLVER\tSAMPLES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%gs\t%gs\t%s\t%d\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Horizon,
			run.Dt,
			run.Solver,
			run.Samples,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	data, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if data.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	if pngDir != "" {
		paths, err := plot.PNG{Dir: pngDir}.Render(data)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}

	fmt.Println(tui.Heading("run: " + meta.ID))
	fmt.Println(tui.Muted(fmt.Sprintf("%s, %s, %d samples", meta.Kind, meta.Solver, data.Len())))
	fmt.Println()

	for _, name := range data.Names() {
		if name == series.TimeKey {
			continue
		}
		values, _ := data.Series(name)
		graph, err := plot.ASCII(values, name+" vs time", 80, 10)
		if err != nil {
			fmt.Printf("%s: %v\n\n", name, err)
			continue
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	if outPath == "" {
		return data.WriteCSV(os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := data.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printModel(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	m, err := experiment.NewRegistry().Build(cfg.Model)
	if err != nil {
		return err
	}

	fmt.Println(tui.Heading(cfg.Name))
	switch v := m.(type) {
	case *models.StateSpace:
		fmt.Print(v.String())
	case *models.StateFeedback:
		fmt.Println(tui.Muted("open-loop plant, closed with u = -K (x - ref)"))
		fmt.Print(v.Plant().String())
		fmt.Printf("K = %v\n", cfg.Model.FeedbackGain)
	}
	fmt.Printf("signals: %s\n", strings.Join(m.SignalNames(), ", "))
	return nil
}

func compareSolvers(cmd *cobra.Command, args []string) error {
	scenario, schemes, err := compareTargets(args, configFile != "")
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, scenario)
	if err != nil {
		return err
	}

	sims := make([]*sim.Simulator, len(schemes))
	for i, scheme := range schemes {
		run := cfg.Clone()
		run.Solver = string(scheme)
		exp, err := experiment.New(run, sim.WithLogger(logger.With("solver", scheme)))
		if err != nil {
			return err
		}
		sims[i] = exp.Simulator()
	}

	start := time.Now()
	if err := sim.RunAll(cmd.Context(), sims, workers); err != nil {
		return err
	}
	elapsed := time.Since(start)

	names := sims[0].SignalNames()
	output := names[len(names)-1]

	fmt.Printf("comparing solvers for %s (dt=%g, horizon=%gs)\n\n", cfg.Name, cfg.Dt, cfg.Horizon)
	fmt.Printf("%-8s  %-14s  %-14s\n", "solver", "final_"+output, "max_diff")
	fmt.Println(strings.Repeat("-", 40))

	ref, _ := sims[0].Series().Series(output)
	for i, s := range sims {
		values, _ := s.Series().Series(output)
		maxDiff := 0.0
		for j := range values {
			maxDiff = math.Max(maxDiff, math.Abs(values[j]-ref[j]))
		}
		fmt.Printf("%-8s  %14.6g  %14.3e\n", schemes[i], values[len(values)-1], maxDiff)
	}
	fmt.Printf("\nwall time: %v\n", elapsed)
	return nil
}

// compareTargets splits the compare arguments into the preset, absent when
// the scenario comes from a config file, and the solvers to run. No solver
// names means every known scheme.
func compareTargets(args []string, fromConfig bool) ([]string, []integrators.Scheme, error) {
	var scenario []string
	if !fromConfig {
		if len(args) == 0 {
			return nil, nil, fmt.Errorf("compare needs a preset or --config")
		}
		scenario, args = args[:1], args[1:]
	}
	if len(args) == 0 {
		return scenario, integrators.Schemes(), nil
	}

	schemes := make([]integrators.Scheme, 0, len(args))
	for _, name := range args {
		s, err := integrators.ParseScheme(name)
		if err != nil {
			return nil, nil, err
		}
		schemes = append(schemes, s)
	}
	return scenario, schemes, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && configFile == "" {
		return pickLive(cmd.Context())
	}
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	return tui.RunLive(cmd.Context(), exp.Simulator(), cfg.Name)
}

func pickLive(ctx context.Context) error {
	build := func(name string) (*sim.Simulator, error) {
		exp, err := experiment.New(config.GetPreset(name))
		if err != nil {
			return nil, err
		}
		return exp.Simulator(), nil
	}
	return tui.RunPicker(ctx, config.ListPresets(), config.PresetInfo, build)
}
