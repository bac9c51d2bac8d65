package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/dynland/sysid/internal/config"
	"github.com/dynland/sysid/internal/model"
	"github.com/dynland/sysid/internal/models"
	"github.com/dynland/sysid/internal/store"
	"github.com/dynland/sysid/internal/viz"
)

var (
	configFile string
	verbose    bool

	dt        float64
	steps     int
	seed      uint64
	noise     bool
	clip      bool
	initState string
	inputVec  string
	outPath   string
	jsonPath  string
	showPlot  bool

	samples      int
	datasetNoise bool
	frameRate    int
)

var log zerolog.Logger

func main() {
	rootCmd := &cobra.Command{
		Use:   "sysid",
		Short: "discrete-time dynamic models and synthetic training data",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				With().Timestamp().Logger().Level(level)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "scenario config file (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	simCmd := &cobra.Command{
		Use:   "sim [model]",
		Short: "simulate a model over a horizon",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSim,
	}
	simCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "sampling interval")
	simCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "horizon length")
	simCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 = time based)")
	simCmd.Flags().BoolVar(&noise, "noise", false, "add measurement noise")
	simCmd.Flags().BoolVar(&clip, "clip", false, "clip negative outputs")
	simCmd.Flags().StringVar(&initState, "x0", "", "initial state (comma separated)")
	simCmd.Flags().StringVar(&inputVec, "input", "", "constant input (comma separated)")
	simCmd.Flags().StringVar(&outPath, "out", "", "trace CSV output path")
	simCmd.Flags().StringVar(&jsonPath, "json", "", "trace JSON output path")
	simCmd.Flags().BoolVar(&showPlot, "plot", false, "print ascii plots")

	datasetCmd := &cobra.Command{
		Use:   "dataset [model]",
		Short: "generate training data with a latin-hypercube design",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDataset,
	}
	datasetCmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "number of samples")
	datasetCmd.Flags().BoolVar(&datasetNoise, "noise", true, "add measurement noise")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "step a model with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frames per second")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list available models",
		RunE:  runModels,
	}

	rootCmd.AddCommand(simCmd, datasetCmd, liveCmd, modelsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scenario resolves the registered model entry and merges the config file,
// flags taking effect only where the file left defaults.
func scenario(args []string) (*config.Config, models.Entry, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, models.Entry{}, err
		}
		cfg = loaded
	} else {
		cfg.Dt = dt
		cfg.Steps = steps
		cfg.Seed = seed
		cfg.Noise = noise
		cfg.Dataset.Samples = samples
	}
	if len(args) > 0 {
		cfg.Model = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return nil, models.Entry{}, err
	}

	entry, err := models.Get(cfg.Model)
	if err != nil {
		return nil, models.Entry{}, err
	}
	return cfg, entry, nil
}

func buildModel(cfg *config.Config, entry models.Entry) (*model.Model, error) {
	clipNegative := entry.ClipNegative
	if cfg.ClipNegative != nil {
		clipNegative = *cfg.ClipNegative
	}
	if clip {
		clipNegative = true
	}
	return model.New(entry.Sys, model.Config{
		Nx:           entry.Nx,
		Nu:           entry.Nu,
		Dt:           cfg.Dt,
		Seed:         cfg.Seed,
		ClipNegative: clipNegative,
		AbsTol:       cfg.AbsTol,
		RelTol:       cfg.RelTol,
		Logger:       &log,
	})
}

func resolveX0(cfg *config.Config, entry models.Entry) ([]float64, error) {
	if initState != "" {
		return parseFloats(initState)
	}
	if len(cfg.InitState) > 0 {
		return cfg.InitState, nil
	}
	return entry.X0, nil
}

func resolveInput(cfg *config.Config, entry models.Entry) ([]float64, error) {
	if inputVec != "" {
		return parseFloats(inputVec)
	}
	if len(cfg.Input.Constant) > 0 {
		return cfg.Input.Constant, nil
	}
	// Default to the middle of the registered input range.
	u := make([]float64, entry.Nu)
	for i := range u {
		u[i] = 0.5 * (entry.InputLower[i] + entry.InputUpper[i])
	}
	return u, nil
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, entry, err := scenario(args)
	if err != nil {
		return err
	}
	mdl, err := buildModel(cfg, entry)
	if err != nil {
		return err
	}
	x0, err := resolveX0(cfg, entry)
	if err != nil {
		return err
	}
	uRow, err := resolveInput(cfg, entry)
	if err != nil {
		return err
	}

	u := mat.NewDense(cfg.Steps, entry.Nu, nil)
	for t := 0; t < cfg.Steps; t++ {
		u.SetRow(t, uRow)
	}

	log.Info().Str("model", cfg.Model).Int("steps", cfg.Steps).Float64("dt", cfg.Dt).Msg("simulating")
	y, err := mdl.Sim(x0, u, nil, cfg.Noise)
	if err != nil {
		return err
	}

	if path := firstNonEmpty(outPath, cfg.Output.Trace); path != "" {
		if err := store.ExportFileCSV(path, func(w io.Writer) error {
			return store.WriteTraceCSV(w, cfg.Dt, y)
		}); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("trace written")
	}
	if jsonPath != "" {
		if err := store.ExportTraceJSON(jsonPath, cfg.Model, cfg.Dt, y); err != nil {
			return err
		}
		log.Info().Str("path", jsonPath).Msg("trace written")
	}
	if showPlot {
		fmt.Print(viz.TracePlot(y))
	}
	if outPath == "" && jsonPath == "" && !showPlot {
		return store.WriteTraceCSV(os.Stdout, cfg.Dt, y)
	}
	return nil
}

func runDataset(cmd *cobra.Command, args []string) error {
	cfg, entry, err := scenario(args)
	if err != nil {
		return err
	}
	mdl, err := buildModel(cfg, entry)
	if err != nil {
		return err
	}

	in := model.Bounds{
		Lower: firstNonEmptyVec(cfg.Dataset.InputLower, entry.InputLower),
		Upper: firstNonEmptyVec(cfg.Dataset.InputUpper, entry.InputUpper),
	}
	state := model.Bounds{
		Lower: firstNonEmptyVec(cfg.Dataset.StateLower, entry.StateLower),
		Upper: firstNonEmptyVec(cfg.Dataset.StateUpper, entry.StateUpper),
	}
	var par *model.Bounds
	if len(cfg.Dataset.ParamLower) > 0 {
		par = &model.Bounds{Lower: cfg.Dataset.ParamLower, Upper: cfg.Dataset.ParamUpper}
	}

	log.Info().Str("model", cfg.Model).Int("samples", cfg.Dataset.Samples).Msg("generating training data")
	z, y, err := mdl.GenerateTrainingData(cfg.Dataset.Samples, in, state, par, cfg.Noise)
	if err != nil {
		return err
	}

	if path := firstNonEmpty(outPath, cfg.Output.Dataset); path != "" {
		if err := store.ExportFileCSV(path, func(w io.Writer) error {
			return store.WriteDatasetCSV(w, z, y)
		}); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("dataset written")
		return nil
	}
	return store.WriteDatasetCSV(os.Stdout, z, y)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, entry, err := scenario(args)
	if err != nil {
		return err
	}
	cfg.Dt = dt
	mdl, err := buildModel(cfg, entry)
	if err != nil {
		return err
	}
	x0, err := resolveX0(cfg, entry)
	if err != nil {
		return err
	}
	u, err := resolveInput(cfg, entry)
	if err != nil {
		return err
	}
	return viz.Run(viz.NewLive(mdl, cfg.Model, x0, u, frameRate))
}

func runModels(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNX\tNU\tDESCRIPTION")
	for _, e := range models.List() {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", e.Name, e.Nx, e.Nu, e.Desc)
	}
	return w.Flush()
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonEmptyVec(a, b []float64) []float64 {
	if len(a) > 0 {
		return a
	}
	return b
}
