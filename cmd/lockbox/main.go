package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/lockbox/internal/analysis"
	"github.com/san-kum/lockbox/internal/automation"
	"github.com/san-kum/lockbox/internal/config"
	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/engine"
	"github.com/san-kum/lockbox/internal/logger"
	"github.com/san-kum/lockbox/internal/metrics"
	"github.com/san-kum/lockbox/internal/optim"
	"github.com/san-kum/lockbox/internal/plant"
	"github.com/san-kum/lockbox/internal/storage"
	"github.com/san-kum/lockbox/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var log = logger.New("lockbox")

var (
	dataDir       string
	debug         bool
	configFile    string
	preset        string
	ticks         int
	seed          int64
	sets          []string
	scenario      string
	series        []string
	analyzeSeries []string
	width         int
	height        int
	csvOut        string
	reverse       bool
	channel       string
	metric        string
	workers       int
	kpGrid        []int64
	kiGrid        []int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lockbox",
		Short: "fixed-point lock controller simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				logger.EnableDebug(true)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".lockbox", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the loop against a plant and store the trace",
		Args:  cobra.NoArgs,
		RunE:  runLoop,
	}
	addSetupFlags(runCmd)
	runCmd.Flags().IntVar(&ticks, "ticks", 0, "ticks to run (default from config)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "plant noise seed (default from config)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the loop with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSetupFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trace",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&series, "series", []string{"in1", "out1"}, "columns to plot: "+strings.Join(viz.SeriesNames(), ","))
	plotCmd.Flags().IntVar(&width, "width", 80, "graph width")
	plotCmd.Flags().IntVar(&height, "height", 10, "graph height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON, optionally copying the trace",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&csvOut, "csv", "", "write the trace to this CSV file")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "show the register values a config resolves to",
		Args:  cobra.NoArgs,
		RunE:  showParams,
	}
	addSetupFlags(paramsCmd)

	gainCmd := &cobra.Command{
		Use:   "gain [kp|ki|rate] [value]",
		Short: "convert between physical gains and register values",
		Args:  cobra.ExactArgs(2),
		RunE:  convertGain,
	}
	gainCmd.Flags().BoolVar(&reverse, "reverse", false, "convert a register value back to a physical gain")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored trace",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringSliceVar(&analyzeSeries, "series", []string{"in1"}, "columns to analyze")
	analyzeCmd.Flags().IntVar(&width, "width", 80, "graph width")
	analyzeCmd.Flags().IntVar(&height, "height", 10, "graph height")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search kp and ki on one channel",
		Args:  cobra.NoArgs,
		RunE:  tuneGains,
	}
	addSetupFlags(tuneCmd)
	tuneCmd.Flags().IntVar(&ticks, "ticks", 0, "ticks per trial (default from config)")
	tuneCmd.Flags().StringVar(&channel, "channel", "pid11", "channel to tune")
	tuneCmd.Flags().StringVar(&metric, "metric", "rms_error_in1", "metric to minimize")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "parallel trials (default NumCPU)")
	tuneCmd.Flags().Int64SliceVar(&kpGrid, "kp", []int64{500, 1000, 2000, 4000}, "kp register values")
	tuneCmd.Flags().Int64SliceVar(&kiGrid, "ki", []int64{250000, 500000, 1000000, 2000000}, "ki register values")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, presetsCmd, paramsCmd, gainCmd, analyzeCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSetupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "parameter write ch:name=value, e.g. pid11:kp=2000 or out1:limiter.max=4000")
	cmd.Flags().StringVar(&scenario, "scenario", "", "scenario file of scheduled writes")
}

func loadConfig() (*config.Config, error) {
	switch {
	case configFile != "" && preset != "":
		return nil, fmt.Errorf("--config and --preset are exclusive")
	case configFile != "":
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	case preset != "":
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		return cfg, nil
	default:
		return config.GetPreset("lock"), nil
	}
}

// parseSet splits "pid11:kp=2000" into its channel, name and value.
func parseSet(s string) (int, string, int64, error) {
	target, value, ok := strings.Cut(s, "=")
	if !ok {
		return 0, "", 0, fmt.Errorf("bad --set %q: missing '='", s)
	}
	chName, name, ok := strings.Cut(target, ":")
	if !ok {
		return 0, "", 0, fmt.Errorf("bad --set %q: missing ':'", s)
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, "", 0, fmt.Errorf("bad --set %q: %w", s, err)
	}
	switch chName {
	case "out1":
		return 0, name, v, nil
	case "out2":
		return 1, name, v, nil
	}
	ch, ok := control.ParseChannel(chName)
	if !ok {
		return 0, "", 0, fmt.Errorf("bad --set %q: %w", s, config.ErrInvalidChannel)
	}
	return int(ch), name, v, nil
}

// setup builds the store, plant and simulator described by the flags.
func setup(cfg *config.Config) (*engine.Simulator, error) {
	store, err := cfg.Store()
	if err != nil {
		return nil, err
	}
	for _, s := range sets {
		ch, name, v, err := parseSet(s)
		if err != nil {
			return nil, err
		}
		if err := store.Set(ch, name, v); err != nil {
			return nil, err
		}
	}

	p, err := plant.New(cfg.Plant, cfg.PlantParams, cfg.Seed)
	if err != nil {
		return nil, err
	}
	sim := engine.NewSimulator(engine.New(store), p)

	path := scenario
	if path == "" {
		path = cfg.Scenario
	}
	if path != "" {
		sc, err := automation.LoadScenario(path)
		if err != nil {
			return nil, err
		}
		sim.AddHook(sc)
		log.Info("scenario %s: %d writes", sc.Name, len(sc.Writes))
	}
	return sim, nil
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ticks") {
		cfg.Ticks = ticks
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}

	sim, err := setup(cfg)
	if err != nil {
		return err
	}
	for _, m := range metrics.Standard(sim.Engine().Store().Snapshot()) {
		sim.AddMetric(m)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s for %d ticks...\n", cfg.Plant, cfg.Ticks)
	start := time.Now()
	result, err := sim.Run(ctx, engine.RunConfig{Ticks: cfg.Ticks, Record: true})
	if err != nil && result == nil {
		return err
	}
	elapsed := time.Since(start)

	runID, saveErr := st.Save(cfg, result)
	if saveErr != nil {
		return saveErr
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", result.TicksRun)
	fmt.Println()
	fmt.Println(viz.MetricsTable(result.Metrics))
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sim, err := setup(cfg)
	if err != nil {
		return err
	}
	logger.SetOutput(io.Discard)
	return viz.RunLive(sim)
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
	fmt.Printf("%-32s %-8s %-8s %s\n", "ID", "PLANT", "TICKS", "TIMESTAMP")
	for _, run := range runs {
		fmt.Printf("%-32s %-8s %-8d %s\n", run.ID, run.Plant, run.Ticks, run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rows, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("run %s has no trace", args[0])
	}
	out, err := viz.PlotTrace(rows, series, width, height)
	if err != nil {
		return err
	}
	fmt.Print(out)
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
	if err := enc.Encode(meta); err != nil {
		return err
	}
	if csvOut == "" {
		return nil
	}

	rows, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	result := &engine.Result{TicksRun: len(rows)}
	for _, r := range rows {
		result.Inputs = append(result.Inputs, r.In)
		result.Outputs = append(result.Outputs, r.Out)
	}
	f, err := os.Create(csvOut)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := storage.WriteTrace(f, result); err != nil {
		return err
	}
	log.Info("wrote %d rows to %s", len(rows), csvOut)
	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println(viz.NameList("presets", config.ListPresets(), ""))
		return nil
	}
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func showParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sim, err := setup(cfg)
	if err != nil {
		return err
	}
	fmt.Println(viz.ParamTable(sim.Engine().Store().Snapshot()))
	fmt.Println(viz.ParamNames())
	return nil
}

func convertGain(cmd *cobra.Command, args []string) error {
	kind := args[0]
	if reverse {
		reg, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return err
		}
		switch kind {
		case "kp":
			fmt.Printf("%g\n", control.KpGain(uint32(reg)))
		case "ki":
			fmt.Printf("%g /s\n", control.KiGain(uint32(reg)))
		case "rate":
			fmt.Printf("%g counts/tick\n", control.StepsizeRate(uint32(reg)))
		default:
			return fmt.Errorf("unknown gain %q (kp, ki, rate)", kind)
		}
		return nil
	}

	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return err
	}
	var reg uint32
	switch kind {
	case "kp":
		reg, err = control.KpFromGain(v)
	case "ki":
		reg, err = control.KiFromGain(v)
	case "rate":
		reg, err = control.StepsizeFromRate(v)
	default:
		return fmt.Errorf("unknown gain %q (kp, ki, rate)", kind)
	}
	if err != nil {
		return err
	}
	fmt.Println(reg)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rows, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	for _, name := range analyzeSeries {
		data, err := viz.Series(rows, name)
		if err != nil {
			return err
		}
		ps := analysis.PowerSpectrum(data)
		if len(ps) < 2 {
			return fmt.Errorf("run %s: not enough samples", args[0])
		}
		fmt.Println(viz.PlotSeries(ps[1:], "spectrum ("+name+")", width, height))
		f, mag := analysis.DominantFrequency(data)
		fmt.Printf("%s: dominant %.5f cycles/tick (period %.1f ticks), amplitude %.2f counts\n\n", name, f, 1/f, mag)
	}
	return nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ticks") {
		cfg.Ticks = ticks
	}
	ch, ok := control.ParseChannel(channel)
	if !ok {
		return fmt.Errorf("channel %q: %w", channel, config.ErrInvalidChannel)
	}

	build := func(p optim.Point) (*engine.Simulator, error) {
		sim, err := setup(cfg)
		if err != nil {
			return nil, err
		}
		store := sim.Engine().Store()
		for name, v := range p {
			if err := store.Set(int(ch), name, v); err != nil {
				return nil, err
			}
		}
		for _, m := range metrics.Standard(store.Snapshot()) {
			sim.AddMetric(m)
		}
		return sim, nil
	}

	g := optim.NewGridSearch([]string{"kp", "ki"}, [][]int64{kpGrid, kiGrid})
	g.SetWorkers(workers)
	logger.EnableDebug(false)
	logger.SetOutput(io.Discard)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	best, trials, err := g.Search(ctx, build, cfg.Ticks, metric)
	if err != nil {
		return err
	}

	fmt.Printf("%-10s %-10s %s\n", "KP", "KI", strings.ToUpper(metric))
	for _, tr := range trials {
		if tr.Err != nil {
			fmt.Printf("%-10d %-10d error: %v\n", tr.Point["kp"], tr.Point["ki"], tr.Err)
			continue
		}
		fmt.Printf("%-10d %-10d %.4f\n", tr.Point["kp"], tr.Point["ki"], tr.Score)
	}
	fmt.Printf("\nbest %s: kp=%d (%.4g) ki=%d (%.4g /s) %s=%.4f\n", ch,
		best.Point["kp"], control.KpGain(uint32(best.Point["kp"])),
		best.Point["ki"], control.KiGain(uint32(best.Point["ki"])),
		metric, best.Score)
	return nil
}
