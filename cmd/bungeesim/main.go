package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/bungeesim/internal/automation"
	"github.com/san-kum/bungeesim/internal/config"
	"github.com/san-kum/bungeesim/internal/integrators"
	"github.com/san-kum/bungeesim/internal/jump"
	"github.com/san-kum/bungeesim/internal/logging"
	"github.com/san-kum/bungeesim/internal/render"
	"github.com/san-kum/bungeesim/internal/storage"
	"github.com/san-kum/bungeesim/internal/viz"
	"github.com/san-kum/bungeesim/internal/web"
)

var (
	dataDir    string
	configFile string
	logLevel   string

	startHeight   float64
	duration      float64
	springK       float64
	ropeLength    float64
	mass          float64
	dragLinear    float64
	dragQuadratic float64
	integrator    string
	preset        string
	workers       int

	showPlot bool
	pngPath  string
	noSave   bool

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	trials       int
	perturbation float64
	seed         int64

	outPath  string
	addr     string
	imageDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bungeesim",
		Short:         "bungee jump simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a jump",
		Args:  cobra.NoArgs,
		RunE:  runJump,
	}
	addJumpFlags(runCmd)
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "chart the jump in the terminal")
	runCmd.Flags().StringVar(&pngPath, "png", "", "write the chart to a png file")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "chart a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render a stored run to png",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: publish into the image directory)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the samples of a run as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a run with its samples as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset jumps",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and report each outcome",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addJumpFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "rope_length", "parameter to sweep ("+strings.Join(automation.Params, ", ")+")")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 30, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 70, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 9, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb the jump randomly and count outcomes",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addJumpFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturb", 0.1, "relative perturbation of k, rope length and mass")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the jumps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().IntVar(&workers, "workers", 0, "parallel jumps (0 uses every cpu)")

	compareCmd := &cobra.Command{
		Use:   "compare [integrators...]",
		Short: "run the same jump with several integrators",
		RunE:  compareIntegrators,
	}
	addJumpFlags(compareCmd)

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "replay a jump in the terminal",
		Long:  "replay a stored run, or simulate the jump described by the flags when no run id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  replayJump,
	}
	addJumpFlags(replayCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the jump form over http",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().StringVar(&imageDir, "images", config.DefaultImageDir, "directory for rendered charts")
	serveCmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator ("+strings.Join(integrators.Names(), ", ")+")")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, renderCmd, exportCSVCmd, exportJSONCmd,
		presetsCmd, sweepCmd, monteCarloCmd, scenarioCmd, compareCmd, replayCmd, serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addJumpFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&startHeight, "height", config.DefaultStartHeight, "starting height (m)")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	cmd.Flags().Float64Var(&springK, "k", config.DefaultK, "spring constant (N/m)")
	cmd.Flags().Float64Var(&ropeLength, "length", config.DefaultRopeLength, "bungee length (m)")
	cmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "jumper mass (kg)")
	cmd.Flags().Float64Var(&dragLinear, "c1", config.DefaultDragLinear, "linear drag coefficient")
	cmd.Flags().Float64Var(&dragQuadratic, "c2", config.DefaultDragQuadratic, "quadratic drag coefficient")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset jump")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel jumps (0 uses every cpu)")
}

// loadConfig layers the configuration: defaults, then the preset, then the
// config file, then any flag given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	flags := cmd.Flags()
	if flags.Lookup("preset") != nil && preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.Overlay(cfg, configFile); err != nil {
			return nil, fmt.Errorf("load config %s: %w", configFile, err)
		}
	}

	overrides := []struct {
		name string
		dst  *float64
		src  float64
	}{
		{"height", &cfg.Jump.StartHeight, startHeight},
		{"time", &cfg.Jump.Duration, duration},
		{"k", &cfg.Jump.K, springK},
		{"length", &cfg.Jump.RopeLength, ropeLength},
		{"mass", &cfg.Jump.Mass, mass},
		{"c1", &cfg.Jump.DragLinear, dragLinear},
		{"c2", &cfg.Jump.DragQuadratic, dragQuadratic},
	}
	for _, o := range overrides {
		if flags.Changed(o.name) {
			*o.dst = o.src
		}
	}

	if flags.Changed("integrator") {
		cfg.Solver.Integrator = integrator
	}
	if flags.Changed("data") {
		cfg.Output.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("images") {
		cfg.Output.ImageDir = imageDir
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, os.Stderr)
}

func newSimulator(cfg *config.Config, logger *slog.Logger) (*jump.Simulator, error) {
	return jump.New(
		jump.WithIntegrator(cfg.Solver.Integrator),
		jump.WithSolverOptions(cfg.SolverOptions()),
		jump.WithLogger(logger),
	)
}

func newBatch(cfg *config.Config, logger *slog.Logger) (*jump.Batch, error) {
	sim, err := newSimulator(cfg, logger)
	if err != nil {
		return nil, err
	}
	return jump.NewBatch(sim, workers), nil
}

func renderOptions(cfg *config.Config) render.Options {
	opts := render.DefaultOptions()
	opts.WidthIn = cfg.Output.WidthIn
	opts.HeightIn = cfg.Output.HeightIn
	return opts
}

// openStore resolves the data directory without requiring jump flags.
func openStore(cmd *cobra.Command) (*storage.Store, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return storage.New(cfg.Output.DataDir), cfg, nil
}

func runJump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	sim, err := newSimulator(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("jump: height=%.1fm k=%.1fN/m length=%.1fm mass=%.1fkg over %.1fs (%s)\n\n",
		cfg.Jump.StartHeight, cfg.Jump.K, cfg.Jump.RopeLength, cfg.Jump.Mass, cfg.Jump.Duration, sim.Integrator())

	start := time.Now()
	res, err := sim.Run(cmd.Context(), cfg.Jump)
	if err != nil {
		return err
	}
	logger.Info("jump finished", "outcome", res.Outcome, "elapsed", time.Since(start))

	fmt.Println(render.Diagnostics(res.Diagnostics))
	fmt.Println()
	fmt.Println(render.Metrics(res.Metrics))

	if showPlot {
		fmt.Println()
		fmt.Println(render.ASCII(res, 70, 12))
	}

	if pngPath != "" {
		if err := writePNG(pngPath, res, renderOptions(cfg)); err != nil {
			return err
		}
		fmt.Printf("\nchart: %s\n", pngPath)
	}

	if noSave {
		return nil
	}

	st := storage.New(cfg.Output.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(res, sim.Integrator())
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func writePNG(path string, res *jump.Result, opts render.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.WritePNG(f, res, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tHEIGHT\tK\tLENGTH\tMASS\tINTEG\tOUTCOME")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.1fm\t%.1f\t%.1fm\t%.1fkg\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.StartHeight,
			run.Params.K,
			run.Params.NaturalLength,
			run.Params.Mass,
			run.Integrator,
			run.Outcome,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	res, meta, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s)\n\n", meta.ID, meta.Outcome)
	fmt.Println(render.ASCII(res, 70, 12))
	fmt.Println()
	fmt.Println(render.Diagnostics(res.Diagnostics))
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	st, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	res, _, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}

	opts := renderOptions(cfg)
	if outPath != "" {
		if err := writePNG(outPath, res, opts); err != nil {
			return err
		}
		fmt.Println(outPath)
		return nil
	}

	images := render.NewImageDir(cfg.Output.ImageDir, opts)
	name, err := images.Publish(res)
	if err != nil {
		return err
	}
	fmt.Println(images.Dir() + string(os.PathSeparator) + name)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	res, _, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(csv.NewWriter(os.Stdout), res)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	return st.ExportJSON(os.Stdout, args[0])
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tHEIGHT\tK\tLENGTH\tMASS\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		fmt.Fprintf(w, "%s\t%.0fm\t%.0f\t%.0fm\t%.0fkg\t%s\n",
			name, p.Jump.StartHeight, p.Jump.K, p.Jump.RopeLength, p.Jump.Mass, p.Description)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	batch, err := newBatch(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Param: sweepParam,
		Min:   sweepMin,
		Max:   sweepMax,
		Steps: sweepSteps,
		Base:  cfg.Jump,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep, batch)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tOUTCOME\tMIN_HEIGHT\tIMPACT\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		impact := "-"
		if r.Outcome.HitGround() {
			impact = fmt.Sprintf("%.2fs", r.ImpactTime)
		}
		fmt.Fprintf(w, "%.3f\t%s\t%.2fm\t%s\n", r.Value, r.Outcome, r.MinHeight, impact)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	batch, err := newBatch(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         cfg.Jump,
		Perturbation: perturbation,
		NumTrials:    trials,
		Seed:         seed,
	}, batch)
	if err != nil {
		return err
	}

	stats := automation.MonteCarloStats(results)
	fmt.Printf("%d trials, ±%.0f%% on k, rope length and mass\n\n", len(results), perturbation*100)
	for _, o := range []jump.Outcome{jump.Safe, jump.GroundImpactSlackRope, jump.GroundImpactWeakSpring} {
		share := 0.0
		if len(results) > 0 {
			share = float64(stats[o]) / float64(len(results)) * 100
		}
		fmt.Printf("%-28s %5d  %s %5.1f%%\n", o, stats[o], bar(share, 30), share)
	}
	return nil
}

func bar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	sim, err := newSimulator(cfg, logger)
	if err != nil {
		return err
	}

	if scenario.Name != "" {
		fmt.Printf("scenario: %s\n", scenario.Name)
	}
	if scenario.Description != "" {
		fmt.Println(scenario.Description)
	}
	fmt.Println()

	results, err := automation.RunScenario(cmd.Context(), scenario, jump.NewBatch(sim, workers))
	if err != nil {
		return err
	}

	st := storage.New(cfg.Output.DataDir)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tOUTCOME\tMIN_HEIGHT\tRUN")
	for i, r := range results {
		name := r.Step.Name
		if name == "" {
			name = fmt.Sprintf("step %d", i+1)
		}
		runID := "-"
		if r.Step.Save {
			if err := st.Init(); err != nil {
				return err
			}
			if runID, err = st.Save(r.Result, sim.Integrator()); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%.2fm\t%s\n", name, r.Result.Outcome, r.Result.Metrics["min_height"], runID)
	}
	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	names := args
	if len(names) == 0 {
		names = integrators.Names()
	}

	fmt.Printf("comparing integrators (height=%.1fm k=%.1fN/m length=%.1fm mass=%.1fkg)\n\n",
		cfg.Jump.StartHeight, cfg.Jump.K, cfg.Jump.RopeLength, cfg.Jump.Mass)
	fmt.Printf("%-10s  %-26s  %-12s  %-12s  %-10s\n", "integrator", "outcome", "min_height", "impact", "time_ms")
	fmt.Println(strings.Repeat("-", 78))

	for _, name := range names {
		c := *cfg
		c.Solver.Integrator = name
		sim, err := newSimulator(&c, logger)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		res, err := sim.Run(cmd.Context(), cfg.Jump)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		impact := "-"
		if res.Outcome.HitGround() {
			impact = fmt.Sprintf("%.2fs", res.ImpactTime)
		}
		fmt.Printf("%-10s  %-26s  %12.4f  %-12s  %10.2f\n",
			name, res.Outcome, res.Metrics["min_height"], impact, float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func replayJump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		res, meta, err := storage.New(cfg.Output.DataDir).LoadResult(args[0])
		if err != nil {
			return err
		}
		return viz.Run(res, meta.ID)
	}

	// The replay owns the terminal, so the simulator stays quiet.
	sim, err := newSimulator(cfg, logging.Discard())
	if err != nil {
		return err
	}
	res, err := sim.Run(cmd.Context(), cfg.Jump)
	if err != nil {
		return err
	}
	title := "bungee jump"
	if preset != "" {
		title = preset
	}
	return viz.Run(res, title)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	sim, err := newSimulator(cfg, logger)
	if err != nil {
		return err
	}
	images := render.NewImageDir(cfg.Output.ImageDir, renderOptions(cfg))

	fmt.Printf("serving on %s (ctrl+c to stop)\n", cfg.Server.Addr)
	return web.NewServer(sim, images, logger).ListenAndServe(cmd.Context(), cfg.Server.Addr)
}
