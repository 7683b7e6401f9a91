package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/isph/internal/automation"
	"github.com/san-kum/isph/internal/config"
	"github.com/san-kum/isph/internal/experiment"
	"github.com/san-kum/isph/internal/optim"
	"github.com/san-kum/isph/internal/sim"
	"github.com/san-kum/isph/internal/storage"
	"github.com/san-kum/isph/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool

	dt        float64
	duration  float64
	adaptive  bool
	variant   string
	kernel    string
	tolerance float64
	nx        int
	ny        int
	dx        float64
	workers   int
	gtvf      bool

	configFile string
	preset     string
	saveConfig string

	particlesOnly bool
	svgOut        string
	svgSeries     string
	svgTheme      string
	perFrame      int

	tuneParams []string
	tuneMetric string
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	mcTrials   int
	perturb    float64
	seed       int64
)

// main registers the commands and flags and executes the root command.
// It exits with status 1 if the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "isph",
		Short:         "incompressible SPH solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".isph", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run simulation and store the results",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved config to this path (yaml or toml)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot solver statistics of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the step log (or final particles) as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().BoolVar(&particlesOnly, "particles", false, "export the final particles instead of the step log")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the final particles or a step series as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringVar(&svgSeries, "series", "", "plot a step series instead (sweeps, conv, max_p, dt)")
	exportSVGCmd.Flags().StringVar(&svgTheme, "theme", "ocean", "particle colours ("+strings.Join(viz.ThemeNames(), ", ")+")")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCENARIO\tDESCRIPTION")
			for _, name := range reg.List() {
				sc, _ := reg.Get(name)
				fmt.Fprintf(w, "%s\t%s\n", sc.Name, sc.Description)
			}
			return w.Flush()
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&perFrame, "steps-per-frame", 1, "timesteps per frame")

	compareCmd := &cobra.Command{
		Use:   "compare [scenario] [variant1] [variant2] ...",
		Short: "compare scheme variants on the same scenario",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareVariants,
	}
	addSimFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "benchmark a scenario over worker counts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScenario,
	}
	addSimFlags(benchCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid search solver parameters against a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneScenario,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "parameter grid, e.g. omega=0.3,0.5,0.7 (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "ppe_sweeps", "metric to minimize")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run a YAML batch of simulations and store each run",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "sweep one parameter over a range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "omega", "parameter to sweep ("+strings.Join(config.ParamNames(), ", ")+")")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.2, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1.0, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [scenario]",
		Short: "run trials from jittered particle positions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addSimFlags(mcCmd)
	mcCmd.Flags().IntVar(&mcTrials, "trials", 10, "number of trials")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 0.05, "jitter amplitude in particle spacings")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		presetsCmd, scenariosCmd, liveCmd, compareCmd, benchCmd, tuneCmd, batchCmd, sweepCmd, mcCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func setupLogging() error {
	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	if logJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func addSimFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().Float64Var(&dt, "dt", d.Dt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", d.Duration, "duration")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "pick dt from the CFL and force estimators")
	cmd.Flags().StringVar(&variant, "variant", d.Scheme.Variant, "scheme variant (cr, di, df, dfdi)")
	cmd.Flags().StringVar(&kernel, "kernel", d.Scheme.Kernel, "smoothing kernel")
	cmd.Flags().Float64Var(&tolerance, "tol", d.Scheme.Tolerance, "PPE convergence tolerance")
	cmd.Flags().IntVar(&nx, "nx", d.Domain.Nx, "fluid particles along x")
	cmd.Flags().IntVar(&ny, "ny", d.Domain.Ny, "fluid particles along y")
	cmd.Flags().Float64Var(&dx, "dx", d.Domain.Dx, "particle spacing")
	cmd.Flags().IntVar(&workers, "workers", 0, "evaluation workers (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&gtvf, "gtvf", false, "use the generalized transport velocity stepper")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scenario))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			loaded.Scenario = args[0]
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if flags.Changed("variant") {
		cfg.Scheme.Variant = variant
	}
	if flags.Changed("kernel") {
		cfg.Scheme.Kernel = kernel
	}
	if flags.Changed("tol") {
		cfg.Scheme.Tolerance = tolerance
	}
	if flags.Changed("nx") {
		cfg.Domain.Nx = nx
	}
	if flags.Changed("ny") {
		cfg.Domain.Ny = ny
	}
	if flags.Changed("dx") {
		cfg.Domain.Dx = dx
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("gtvf") {
		cfg.Scheme.GTVF = gtvf
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, logrus.StandardLogger())
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	fmt.Printf("running %s simulation (%s)...\n", cfg.Scenario, cfg.Scheme.Variant)
	start := time.Now()

	result, runErr := exp.Run(cmd.Context())
	if result == nil {
		return runErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result, exp.Collection())
	if err != nil {
		return err
	}

	if runErr != nil {
		fmt.Println("interrupted, partial run saved")
	}
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (t=%.5f, %d unconverged)\n", result.StepsTaken, result.FinalTime, result.Unconverged)
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tVARIANT\tSTEPS\tT_FINAL\tUNCONV")

	for _, run := range runs {
		v := ""
		if run.Config != nil {
			v = run.Config.Scheme.Variant
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.5fs\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			v,
			run.Steps,
			run.FinalTime,
			run.Unconverged,
		)
	}

	return w.Flush()
}

// series extracts one column of the step log. Non-finite values are kept
// as NaN.
func series(records []sim.StepRecord, name string) ([]float64, error) {
	out := make([]float64, len(records))
	for i, r := range records {
		switch name {
		case "sweeps":
			out[i] = float64(r.Sweeps)
		case "conv":
			out[i] = math.Log10(r.Conv)
		case "max_p":
			out[i] = r.MaxP
		case "dt":
			out[i] = r.Dt
		case "max_vmag":
			out[i] = r.MaxVmag
		default:
			return nil, fmt.Errorf("unknown series: %s", name)
		}
		if math.IsInf(out[i], 0) {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

func finiteOnly(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadSteps(runID)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("steps: %d\n\n", len(records))

	plots := []struct{ name, caption string }{
		{"sweeps", "PPE sweeps per step"},
		{"conv", "log10 PPE residual"},
		{"max_p", "max pressure"},
		{"max_vmag", "max speed"},
	}
	if meta.Config != nil && meta.Config.Adaptive {
		plots = append(plots, struct{ name, caption string }{"dt", "timestep"})
	}

	for _, p := range plots {
		data, err := series(records, p.name)
		if err != nil {
			return err
		}
		data = finiteOnly(data)
		if len(data) == 0 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if particlesOnly {
		rows, err := st.LoadParticles(args[0])
		if err != nil {
			return err
		}
		return gocsv.Marshal(rows, os.Stdout)
	}

	records, err := st.LoadSteps(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to export")
	}
	return gocsv.Marshal(records, os.Stdout)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	var svg string
	if svgSeries != "" {
		records, err := st.LoadSteps(args[0])
		if err != nil {
			return err
		}
		data, err := series(records, svgSeries)
		if err != nil {
			return err
		}
		svg = viz.SeriesToSVG(data, 800, 300, "#00ff88")
	} else {
		rows, err := st.LoadParticles(args[0])
		if err != nil {
			return err
		}
		pts := make([]viz.Point, len(rows))
		for i, r := range rows {
			pts[i] = viz.Point{X: r.X, Y: r.Y, P: r.P, Solid: r.Role != "fluid"}
		}
		if svg, err = viz.ParticlesToSVG(pts, 800, 600, viz.GetTheme(svgTheme)); err != nil {
			return err
		}
	}
	if svg == "" {
		return fmt.Errorf("no data to render")
	}

	var w io.Writer = os.Stdout
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	_, err := io.WriteString(w, svg)
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	// the alternate screen owns the terminal
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	exp := experiment.New(cfg, quiet)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	m := viz.NewModel(cfg.Scenario, exp.Integrator(), exp.Collection().Sets(), cfg.SimConfig())
	m.SetStepsPerFrame(perFrame)
	return viz.RunLive(m)
}

func compareVariants(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	variants := args[1:]

	reg := experiment.NewRegistry()
	members := make([]*sim.Simulator, 0, len(variants))
	for _, v := range variants {
		cfg := base.Clone()
		cfg.Scheme.Variant = v
		exp := experiment.New(cfg, logrus.WithField("variant", v))
		if err := exp.Setup(reg); err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		members = append(members, exp.GetSimulator())
	}

	fmt.Printf("comparing variants for %s (dt=%.2e, duration=%.4fs)\n\n", base.Scenario, base.Dt, base.Duration)

	start := time.Now()
	results, err := sim.NewEnsemble(members...).Run(cmd.Context(), base.SimConfig())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("%-8s  %8s  %12s  %12s  %12s  %12s\n", "variant", "steps", "mean_sweeps", "unconverged", "max_p", "kinetic")
	fmt.Println(strings.Repeat("-", 74))
	for i, res := range results {
		sweeps := make([]float64, len(res.Records))
		maxP := 0.0
		for j, r := range res.Records {
			sweeps[j] = float64(r.Sweeps)
			maxP = math.Max(maxP, r.MaxP)
		}
		mean := 0.0
		if len(sweeps) > 0 {
			mean = stat.Mean(sweeps, nil)
		}
		fmt.Printf("%-8s  %8d  %12.2f  %12d  %12.4g  %12.4g\n",
			variants[i], res.StepsTaken, mean, res.Unconverged, maxP, res.Metrics["kinetic_energy"])
	}
	fmt.Printf("\nwall time: %v\n", elapsed)

	return nil
}

func benchScenario(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	counts := []int{1, 2, 4}
	if n := runtime.NumCPU(); n > 4 {
		counts = append(counts, n)
	}

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	fmt.Printf("benchmarking %s\n\n", base.Scenario)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tPARTICLES\tSTEPS\tTIME\tSTEPS/SEC")

	for _, n := range counts {
		cfg := base.Clone()
		cfg.Workers = n
		exp := experiment.New(cfg, quiet)
		if err := exp.Setup(experiment.NewRegistry()); err != nil {
			return err
		}

		particles := 0
		for _, s := range exp.Collection().Sets() {
			particles += s.Len()
		}

		start := time.Now()
		result, err := exp.Run(cmd.Context())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.1f\n",
			n, particles, result.StepsTaken, elapsed, float64(result.StepsTaken)/elapsed.Seconds())
	}

	return w.Flush()
}

// parseGrid reads repeated name=v1,v2,... flags into a search grid.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		name, list, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, nil, fmt.Errorf("bad --param %q, want name=v1,v2", entry)
		}
		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad value in --param %q: %w", entry, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func tuneScenario(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(tuneParams) == 0 {
		tuneParams = []string{"omega=0.25,0.5,0.75"}
	}
	names, ranges, err := parseGrid(tuneParams)
	if err != nil {
		return err
	}

	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	fmt.Printf("tuning %s over %d combinations (minimizing %s)\n\n", base.Scenario, g.Size(), tuneMetric)
	obj := optim.ExperimentObjective(base, experiment.NewRegistry(), tuneMetric, quiet)
	best, val, trials, err := g.Search(cmd.Context(), obj)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(tuneMetric))
	for _, tr := range trials {
		cols := make([]string, len(names))
		for i, n := range names {
			cols[i] = strconv.FormatFloat(tr.Params[n], 'g', -1, 64)
		}
		res := fmt.Sprintf("%.6g", tr.Value)
		if tr.Err != nil {
			res = "failed: " + tr.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), res)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g at %v\n", tuneMetric, val, best)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	batch, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	results, err := automation.RunBatch(cmd.Context(), batch, experiment.NewRegistry(), st, logrus.StandardLogger())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tRUN ID\tSTEPS\tT_FINAL\tUNCONV")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.5fs\t%d\n", r.Label, r.RunID, r.Result.StepsTaken, r.Result.FinalTime, r.Result.Unconverged)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	sweep := &automation.ParameterSweep{
		Base:      base,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep, experiment.NewRegistry(), quiet)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tMEAN_SWEEPS\tUNCONV\tMAX_P\tKINETIC\tSTABLE\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%d\t%.2f\t%d\t%.4g\t%.4g\t%v\n",
			r.ParamValue, r.Steps, r.MeanSweeps, r.Unconverged, r.MaxP, r.Kinetic, r.Stable)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	mc := &automation.MonteCarloConfig{
		Base:         base,
		Perturbation: perturb,
		NumTrials:    mcTrials,
		Seed:         seed,
	}
	results, err := automation.RunMonteCarlo(cmd.Context(), mc, experiment.NewRegistry(), logrus.StandardLogger())
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("%s: %d trials, jitter %.3g dx\n", base.Scenario, len(results), perturb)
	fmt.Printf("stable: %d  unstable: %d\n", stable, unstable)
	if len(results) > 0 {
		maxP := make([]float64, len(results))
		for i, r := range results {
			maxP[i] = r.MaxP
		}
		mean, std := stat.MeanStdDev(maxP, nil)
		fmt.Printf("max pressure: %.4g ± %.4g\n", mean, std)
	}
	return nil
}
